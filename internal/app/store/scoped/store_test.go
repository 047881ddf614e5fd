package scoped_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/scoped"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newNote(tenant, set primitive.ObjectID, body string) models.Note {
	now := time.Now().UTC()
	return models.Note{
		ID:           primitive.NewObjectID(),
		StudyGroupID: tenant,
		StudySetID:   set,
		Body:         body,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStore_TenantIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := scoped.NewChild[models.Note](db, "notes", "Note")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenantA, tenantB := primitive.NewObjectID(), primitive.NewObjectID()
	set := primitive.NewObjectID()
	n := newNote(tenantA, set, "hello")
	if err := s.Insert(ctx, n); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if c, err := s.Count(ctx, tenantA, n.ID); err != nil || c != 1 {
		t.Errorf("own tenant count = %d, %v; want 1", c, err)
	}
	if c, err := s.Count(ctx, tenantB, n.ID); err != nil || c != 0 {
		t.Errorf("foreign tenant count = %d, %v; want 0", c, err)
	}
	if _, err := s.Get(ctx, tenantB, n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign Get: got %v, want NotFound", err)
	}
	if err := s.Delete(ctx, tenantB, n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign Delete: got %v, want NotFound", err)
	}
	if err := s.Update(ctx, tenantB, n.ID, bson.M{"body": "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign Update: got %v, want NotFound", err)
	}

	moved := n
	moved.StudyGroupID = tenantB
	if err := s.Replace(ctx, moved); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Replace with foreign tenant: got %v, want NotFound", err)
	}

	list, err := s.ListBySet(ctx, tenantB, set)
	if err != nil {
		t.Fatalf("ListBySet failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("foreign tenant listed %d notes", len(list))
	}

	got, err := s.Get(ctx, tenantA, n.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Body != "hello" {
		t.Errorf("body = %q after foreign writes", got.Body)
	}
}

func TestChildStore_ListAndDeleteBySet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := scoped.NewChild[models.Note](db, "notes", "Note")
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	tenant := primitive.NewObjectID()
	setA, setB := primitive.NewObjectID(), primitive.NewObjectID()
	first := newNote(tenant, setA, "first")
	second := newNote(tenant, setA, "second")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	other := newNote(tenant, setB, "other")
	for _, n := range []models.Note{second, first, other} {
		if err := s.Insert(ctx, n); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	list, err := s.ListBySet(ctx, tenant, setA)
	if err != nil {
		t.Fatalf("ListBySet failed: %v", err)
	}
	if len(list) != 2 || list[0].Body != "first" || list[1].Body != "second" {
		t.Fatalf("ListBySet = %+v, want first then second", list)
	}

	n, err := s.DeleteBySet(ctx, tenant, setA)
	if err != nil {
		t.Fatalf("DeleteBySet failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	if c, _ := s.CountAll(ctx, tenant); c != 1 {
		t.Errorf("remaining = %d, want 1", c)
	}
}

func TestStore_CountIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := scoped.New[models.Tag](db, "tags", "Tag")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := primitive.NewObjectID()
	var ids []primitive.ObjectID
	for _, name := range []string{"a", "b"} {
		tag := models.Tag{ID: primitive.NewObjectID(), StudyGroupID: tenant, Name: name, NameCI: name}
		if err := s.Insert(ctx, tag); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		ids = append(ids, tag.ID)
	}
	ids = append(ids, primitive.NewObjectID())

	if c, err := s.CountIDs(ctx, tenant, ids); err != nil || c != 2 {
		t.Errorf("CountIDs = %d, %v; want 2", c, err)
	}
	if c, err := s.CountIDs(ctx, tenant, nil); err != nil || c != 0 {
		t.Errorf("CountIDs(nil) = %d, %v; want 0", c, err)
	}
}
