package audit_test

import (
	"testing"

	"github.com/dalemusser/studyhub/internal/app/store/audit"
	"github.com/dalemusser/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_LogDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	group := primitive.NewObjectID()
	if err := store.Log(ctx, audit.Event{
		StudyGroupID: &group,
		Category:     audit.CategoryAuth,
		EventType:    audit.EventLoginSuccess,
		Success:      true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.ListByStudyGroup(ctx, group, nil, 10)
	if err != nil {
		t.Fatalf("ListByStudyGroup failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() || events[0].Timestamp.IsZero() {
		t.Errorf("expected ID and timestamp to be filled, got %+v", events[0])
	}
}

func TestStore_ListByStudyGroup_NewestFirstAndScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group, other := primitive.NewObjectID(), primitive.NewObjectID()
	var ids []primitive.ObjectID
	for i := 0; i < 3; i++ {
		id := primitive.NewObjectID()
		ids = append(ids, id)
		if err := store.Log(ctx, audit.Event{ID: id, StudyGroupID: &group, Category: audit.CategoryAdmin, EventType: audit.EventWebhookCreated}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}
	if err := store.Log(ctx, audit.Event{StudyGroupID: &other, Category: audit.CategoryAdmin, EventType: audit.EventWebhookCreated}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.ListByStudyGroup(ctx, group, nil, 2)
	if err != nil {
		t.Fatalf("ListByStudyGroup failed: %v", err)
	}
	if len(events) != 2 || events[0].ID != ids[2] || events[1].ID != ids[1] {
		t.Fatalf("first page = %+v", events)
	}

	events, err = store.ListByStudyGroup(ctx, group, &events[1].ID, 2)
	if err != nil {
		t.Fatalf("ListByStudyGroup failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != ids[0] {
		t.Errorf("second page = %+v", events)
	}
}
