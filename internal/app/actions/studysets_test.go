package actions_test

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateStudySet_RequiresSession(t *testing.T) {
	h := newHarness(t)
	res := h.act.CreateStudySet(context.Background(), schema.CreateStudySetInput{Name: "Biology"})
	wantCode(t, res, apperr.CodeUnauthenticated)
	if h.sets.len() != 0 {
		t.Error("study set created without a session")
	}
}

func TestCreateStudySet_PublishesEvent(t *testing.T) {
	h := newHarness(t)
	_, ctx := h.group(t, "Lab", models.RoleMember)

	set := mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "  Cell   Biology ", Subject: "Bio"}))
	if set.Name != "Cell Biology" {
		t.Errorf("name = %q, want collapsed whitespace", set.Name)
	}
	if got := h.events.names(); !slices.Equal(got, []string{models.EventStudySetCreated}) {
		t.Errorf("events = %v", got)
	}
}

// Every mutation addressed at another study group's record must fail with
// NotFound and leave the stores untouched.
func TestMutations_ForeignTenantIsNotFound(t *testing.T) {
	h := newHarness(t)
	_, ctxA := h.group(t, "Group A", models.RoleAdmin)
	_, ctxB := h.group(t, "Group B", models.RoleAdmin)

	set := mustOK(t, h.act.CreateStudySet(ctxA, schema.CreateStudySetInput{Name: "A's set"}))
	note := mustOK(t, h.act.CreateNote(ctxA, schema.CreateBodyInput{StudySetID: set.ID.Hex(), Body: "hello"}))
	comment := mustOK(t, h.act.CreateComment(ctxA, schema.CreateBodyInput{StudySetID: set.ID.Hex(), Body: "hi"}))
	task := mustOK(t, h.act.CreateTask(ctxA, schema.CreateTaskInput{StudySetID: set.ID.Hex(), Title: "Read ch. 1"}))
	img := mustOK(t, h.act.AddImage(ctxA, schema.AddImageInput{StudySetID: set.ID.Hex(), URL: "https://img.example.com/a.png"}))
	tag := mustOK(t, h.act.CreateTag(ctxA, schema.TagInput{Name: "exam"}))
	hook := mustOK(t, h.act.CreateWebhook(ctxA, schema.WebhookInput{URL: "https://hooks.example.com/a", Events: []string{models.EventNoteCreated}}))
	inv := mustOK(t, h.act.CreateInvitation(ctxA, schema.CreateInvitationInput{Email: "new@example.com", Role: models.RoleMember}))

	setID := set.ID.Hex()
	tests := []struct {
		name string
		call func() string
	}{
		{"UpdateStudySetDetails", func() string {
			return h.act.UpdateStudySetDetails(ctxB, schema.UpdateStudySetDetailsInput{ID: setID, Name: "stolen"}).Code
		}},
		{"DeleteStudySet", func() string { return h.act.DeleteStudySet(ctxB, schema.IDInput{ID: setID}).Code }},
		{"SetStudySetTags", func() string {
			return h.act.SetStudySetTags(ctxB, schema.SetStudySetTagsInput{ID: setID}).Code
		}},
		{"AddFavorite", func() string { return h.act.AddFavorite(ctxB, schema.IDInput{ID: setID}).Code }},
		{"RemoveFavorite", func() string { return h.act.RemoveFavorite(ctxB, schema.IDInput{ID: setID}).Code }},
		{"AddImage", func() string {
			return h.act.AddImage(ctxB, schema.AddImageInput{StudySetID: setID, URL: "https://x.example.com/b.png"}).Code
		}},
		{"DeleteImage", func() string {
			return h.act.DeleteImage(ctxB, schema.ImageRef{StudySetID: setID, ID: img.ID.Hex()}).Code
		}},
		{"CreateNote", func() string {
			return h.act.CreateNote(ctxB, schema.CreateBodyInput{StudySetID: setID, Body: "x"}).Code
		}},
		{"UpdateNote", func() string {
			return h.act.UpdateNote(ctxB, schema.EditBodyInput{ID: note.ID.Hex(), Body: "x"}).Code
		}},
		{"DeleteNote", func() string { return h.act.DeleteNote(ctxB, schema.IDInput{ID: note.ID.Hex()}).Code }},
		{"CreateComment", func() string {
			return h.act.CreateComment(ctxB, schema.CreateBodyInput{StudySetID: setID, Body: "x"}).Code
		}},
		{"UpdateComment", func() string {
			return h.act.UpdateComment(ctxB, schema.EditBodyInput{ID: comment.ID.Hex(), Body: "x"}).Code
		}},
		{"DeleteComment", func() string { return h.act.DeleteComment(ctxB, schema.IDInput{ID: comment.ID.Hex()}).Code }},
		{"CreateTask", func() string {
			return h.act.CreateTask(ctxB, schema.CreateTaskInput{StudySetID: setID, Title: "x"}).Code
		}},
		{"UpdateTask", func() string {
			return h.act.UpdateTask(ctxB, schema.UpdateTaskInput{ID: task.ID.Hex(), Title: "x", Done: true}).Code
		}},
		{"DeleteTask", func() string { return h.act.DeleteTask(ctxB, schema.IDInput{ID: task.ID.Hex()}).Code }},
		{"UpdateTag", func() string {
			return h.act.UpdateTag(ctxB, schema.TagInput{ID: tag.ID.Hex(), Name: "x"}).Code
		}},
		{"DeleteTag", func() string { return h.act.DeleteTag(ctxB, schema.IDInput{ID: tag.ID.Hex()}).Code }},
		{"UpdateWebhook", func() string {
			return h.act.UpdateWebhook(ctxB, schema.WebhookInput{ID: hook.ID.Hex(), URL: "https://evil.example.com", Events: []string{models.EventNoteCreated}}).Code
		}},
		{"DeleteWebhook", func() string { return h.act.DeleteWebhook(ctxB, schema.IDInput{ID: hook.ID.Hex()}).Code }},
		{"ResendInvitation", func() string {
			return h.act.ResendInvitation(ctxB, schema.IDInput{ID: inv.Invitation.ID.Hex()}).Code
		}},
		{"DeleteInvitation", func() string {
			return h.act.DeleteInvitation(ctxB, schema.IDInput{ID: inv.Invitation.ID.Hex()}).Code
		}},
	}

	writes := func() int {
		return h.sets.writeCount() + h.notes.writeCount() + h.comments.writeCount() + h.tasks.writeCount() +
			h.images.writeCount() + h.tags.writeCount() + h.webhooks.writeCount() + h.invitations.writeCount()
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := writes()
			if code := tt.call(); code != apperr.CodeNotFound {
				t.Errorf("code = %q, want %q", code, apperr.CodeNotFound)
			}
			if after := writes(); after != before {
				t.Errorf("store writes went from %d to %d", before, after)
			}
		})
	}

	// A's data is intact.
	got := mustOK(t, h.act.GetStudySet(ctxA, schema.IDInput{ID: setID}))
	if got.Name != "A's set" || got.Favorite {
		t.Errorf("study set changed: %+v", got)
	}
}

func TestFavorites_AddIsIdempotent(t *testing.T) {
	h := newHarness(t)
	_, ctx := h.group(t, "Lab", models.RoleMember)

	set := mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "Chemistry", Notes: "review weekly"}))
	mustOK(t, h.act.AddFavorite(ctx, schema.IDInput{ID: set.ID.Hex()}))
	writes := h.sets.writeCount()
	mustOK(t, h.act.AddFavorite(ctx, schema.IDInput{ID: set.ID.Hex()}))
	if h.sets.writeCount() != writes {
		t.Error("second AddFavorite wrote to the store")
	}

	view := mustOK(t, h.act.GetStudySet(ctx, schema.IDInput{ID: set.ID.Hex()}))
	if n := strings.Count(view.Notes, models.FavoriteMarker); n != 1 {
		t.Errorf("marker count = %d in %q, want 1", n, view.Notes)
	}
	if !view.Favorite {
		t.Error("view not flagged as favorite")
	}
	favs := mustOK(t, h.act.ListFavorites(ctx, schema.NoInput{}))
	if len(favs) != 1 || favs[0].ID != set.ID {
		t.Errorf("favorites = %v", favs)
	}

	mustOK(t, h.act.RemoveFavorite(ctx, schema.IDInput{ID: set.ID.Hex()}))
	view = mustOK(t, h.act.GetStudySet(ctx, schema.IDInput{ID: set.ID.Hex()}))
	if view.Favorite || view.Notes != "review weekly" {
		t.Errorf("after remove: favorite=%v notes=%q", view.Favorite, view.Notes)
	}
	if favs := mustOK(t, h.act.ListFavorites(ctx, schema.NoInput{})); len(favs) != 0 {
		t.Errorf("favorites after remove = %v", favs)
	}
}

// Each edit writes only its own fields, so a favorite added after a page
// was rendered survives a details or tags save from that page.
func TestStudySetEdits_KeepOtherFields(t *testing.T) {
	h := newHarness(t)
	_, ctx := h.group(t, "Lab", models.RoleMember)
	set := mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "Optics", Notes: "lab 3"}))
	tag := mustOK(t, h.act.CreateTag(ctx, schema.TagInput{Name: "exam"}))

	mustOK(t, h.act.AddFavorite(ctx, schema.IDInput{ID: set.ID.Hex()}))
	mustOK(t, h.act.UpdateStudySetDetails(ctx, schema.UpdateStudySetDetailsInput{ID: set.ID.Hex(), Name: "Wave Optics", Subject: "Physics"}))
	mustOK(t, h.act.SetStudySetTags(ctx, schema.SetStudySetTagsInput{ID: set.ID.Hex(), TagIDs: []string{tag.ID.Hex()}}))

	view := mustOK(t, h.act.GetStudySet(ctx, schema.IDInput{ID: set.ID.Hex()}))
	tests := []struct {
		name string
		ok   bool
	}{
		{"favorite kept", view.Favorite},
		{"notes kept", strings.HasPrefix(view.Notes, "lab 3")},
		{"name updated", view.Name == "Wave Optics" && view.Subject == "Physics"},
		{"tags updated", slices.Equal(view.TagIDs, []primitive.ObjectID{tag.ID})},
	}
	for _, tt := range tests {
		if !tt.ok {
			t.Errorf("%s: %+v", tt.name, view)
		}
	}
}

func TestDeleteImage_MustBelongToStudySet(t *testing.T) {
	h := newHarness(t)
	_, ctx := h.group(t, "Lab", models.RoleMember)
	owner := mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "Owner"}))
	other := mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "Other"}))
	img := mustOK(t, h.act.AddImage(ctx, schema.AddImageInput{StudySetID: owner.ID.Hex(), URL: "https://img.example.com/a.png"}))

	tests := []struct {
		name  string
		setID string
		code  string
	}{
		{"other set in same group", other.ID.Hex(), apperr.CodeNotFound},
		{"unknown set", primitive.NewObjectID().Hex(), apperr.CodeNotFound},
		{"bad set id", "nope", apperr.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantCode(t, h.act.DeleteImage(ctx, schema.ImageRef{StudySetID: tt.setID, ID: img.ID.Hex()}), tt.code)
			if h.images.len() != 1 {
				t.Fatal("image deleted through the wrong study set")
			}
		})
	}

	mustOK(t, h.act.DeleteImage(ctx, schema.ImageRef{StudySetID: owner.ID.Hex(), ID: img.ID.Hex()}))
	if h.images.len() != 0 {
		t.Error("image not deleted through its own study set")
	}
}

func TestListStudySets_CachedUntilInvalidated(t *testing.T) {
	h := newHarness(t)
	_, ctx := h.group(t, "Lab", models.RoleMember)

	mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "One"}))
	if got := mustOK(t, h.act.ListStudySets(ctx, schema.NoInput{})); len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	mustOK(t, h.act.ListStudySets(ctx, schema.NoInput{}))
	if h.sets.lists != 1 {
		t.Errorf("store List called %d times, want 1 (second read cached)", h.sets.lists)
	}

	mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "Two"}))
	if got := mustOK(t, h.act.ListStudySets(ctx, schema.NoInput{})); len(got) != 2 {
		t.Errorf("after create len = %d, want 2", len(got))
	}
}

func TestListStudySets_CacheIsPerTenant(t *testing.T) {
	h := newHarness(t)
	_, ctxA := h.group(t, "A", models.RoleMember)
	_, ctxB := h.group(t, "B", models.RoleMember)

	mustOK(t, h.act.CreateStudySet(ctxA, schema.CreateStudySetInput{Name: "A only"}))
	mustOK(t, h.act.ListStudySets(ctxA, schema.NoInput{}))
	if got := mustOK(t, h.act.ListStudySets(ctxB, schema.NoInput{})); len(got) != 0 {
		t.Errorf("tenant B sees %v", got)
	}
}

func TestGetStudySet_RefreshedAfterUpdate(t *testing.T) {
	h := newHarness(t)
	_, ctx := h.group(t, "Lab", models.RoleMember)
	set := mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "Old"}))
	mustOK(t, h.act.GetStudySet(ctx, schema.IDInput{ID: set.ID.Hex()}))

	mustOK(t, h.act.UpdateStudySetDetails(ctx, schema.UpdateStudySetDetailsInput{ID: set.ID.Hex(), Name: "New"}))
	if got := mustOK(t, h.act.GetStudySet(ctx, schema.IDInput{ID: set.ID.Hex()})); got.Name != "New" {
		t.Errorf("name = %q, want New", got.Name)
	}
}

func TestDeleteStudySet_CascadesAttachments(t *testing.T) {
	h := newHarness(t)
	_, ctx := h.group(t, "Lab", models.RoleMember)
	doomed := mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "Doomed"}))
	kept := mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "Kept"}))

	for _, s := range []models.StudySet{doomed, kept} {
		id := s.ID.Hex()
		mustOK(t, h.act.AddImage(ctx, schema.AddImageInput{StudySetID: id, URL: "https://img.example.com/x.png"}))
		mustOK(t, h.act.CreateNote(ctx, schema.CreateBodyInput{StudySetID: id, Body: "n"}))
		mustOK(t, h.act.CreateComment(ctx, schema.CreateBodyInput{StudySetID: id, Body: "c"}))
		mustOK(t, h.act.CreateTask(ctx, schema.CreateTaskInput{StudySetID: id, Title: "t"}))
	}
	mustOK(t, h.act.ListNotes(ctx, schema.StudySetRef{StudySetID: doomed.ID.Hex()}))

	mustOK(t, h.act.DeleteStudySet(ctx, schema.IDInput{ID: doomed.ID.Hex()}))
	if h.txn.runs != 1 {
		t.Errorf("transaction runs = %d, want 1", h.txn.runs)
	}
	for name, n := range map[string]int{
		"study sets": h.sets.len(), "images": h.images.len(), "notes": h.notes.len(),
		"comments": h.comments.len(), "tasks": h.tasks.len(),
	} {
		if n != 1 {
			t.Errorf("%s left = %d, want 1", name, n)
		}
	}
	if notes := mustOK(t, h.act.ListNotes(ctx, schema.StudySetRef{StudySetID: doomed.ID.Hex()})); len(notes) != 0 {
		t.Errorf("cached notes survived delete: %v", notes)
	}
	wantCode(t, h.act.GetStudySet(ctx, schema.IDInput{ID: doomed.ID.Hex()}), apperr.CodeNotFound)
}

func TestSetStudySetTags(t *testing.T) {
	h := newHarness(t)
	_, ctxA := h.group(t, "A", models.RoleMember)
	_, ctxB := h.group(t, "B", models.RoleMember)

	set := mustOK(t, h.act.CreateStudySet(ctxA, schema.CreateStudySetInput{Name: "Physics"}))
	mine := mustOK(t, h.act.CreateTag(ctxA, schema.TagInput{Name: "exam", Color: "#FF0000"}))
	theirs := mustOK(t, h.act.CreateTag(ctxB, schema.TagInput{Name: "secret"}))

	t.Run("foreign tag rejected", func(t *testing.T) {
		res := h.act.SetStudySetTags(ctxA, schema.SetStudySetTagsInput{ID: set.ID.Hex(), TagIDs: []string{mine.ID.Hex(), theirs.ID.Hex()}})
		wantCode(t, res, apperr.CodeInvalidInput)
		if res.FieldErrors["tag_ids"] == "" {
			t.Errorf("field errors = %v", res.FieldErrors)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		got := mustOK(t, h.act.SetStudySetTags(ctxA, schema.SetStudySetTagsInput{ID: set.ID.Hex(), TagIDs: []string{mine.ID.Hex(), mine.ID.Hex()}}))
		if len(got.TagIDs) != 1 {
			t.Errorf("tag ids = %v", got.TagIDs)
		}
		view := mustOK(t, h.act.GetStudySet(ctxA, schema.IDInput{ID: set.ID.Hex()}))
		if len(view.Tags) != 1 || view.Tags[0].Color != "#ff0000" {
			t.Errorf("view tags = %+v", view.Tags)
		}
	})

	t.Run("delete tag pulls it from sets", func(t *testing.T) {
		mustOK(t, h.act.DeleteTag(ctxA, schema.IDInput{ID: mine.ID.Hex()}))
		view := mustOK(t, h.act.GetStudySet(ctxA, schema.IDInput{ID: set.ID.Hex()}))
		if len(view.TagIDs) != 0 || len(view.Tags) != 0 {
			t.Errorf("tag survived delete: %+v", view)
		}
	})
}

func TestCreateTag_DuplicateNameConflicts(t *testing.T) {
	h := newHarness(t)
	_, ctx := h.group(t, "Lab", models.RoleMember)
	mustOK(t, h.act.CreateTag(ctx, schema.TagInput{Name: "Exam"}))
	wantCode(t, h.act.CreateTag(ctx, schema.TagInput{Name: "exam"}), apperr.CodeConflict)
}

func TestCreateNote_SanitizesBody(t *testing.T) {
	h := newHarness(t)
	_, ctx := h.group(t, "Lab", models.RoleMember)
	set := mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "Bio"}))

	n := mustOK(t, h.act.CreateNote(ctx, schema.CreateBodyInput{StudySetID: set.ID.Hex(), Body: `<b>mitosis</b><script>alert(1)</script>`}))
	if strings.Contains(n.Body, "script") || !strings.Contains(n.Body, "mitosis") {
		t.Errorf("body = %q", n.Body)
	}

	res := h.act.CreateNote(ctx, schema.CreateBodyInput{StudySetID: set.ID.Hex(), Body: `<script>alert(1)</script>`})
	wantCode(t, res, apperr.CodeInvalidInput)
}

func TestCreateTask_Validation(t *testing.T) {
	h := newHarness(t)
	sg, ctx := h.group(t, "Lab", models.RoleMember)
	_, outsider := h.group(t, "Other", models.RoleMember)
	set := mustOK(t, h.act.CreateStudySet(ctx, schema.CreateStudySetInput{Name: "Bio"}))
	mate := h.member(t, sg, models.RoleMember)
	mateID := sessionOf(t, mate).ID

	t.Run("assignee from another group", func(t *testing.T) {
		other := sessionOf(t, outsider).ID
		res := h.act.CreateTask(ctx, schema.CreateTaskInput{StudySetID: set.ID.Hex(), Title: "x", AssigneeID: other.Hex()})
		wantCode(t, res, apperr.CodeInvalidInput)
	})

	t.Run("member assignee with due date", func(t *testing.T) {
		task := mustOK(t, h.act.CreateTask(ctx, schema.CreateTaskInput{
			StudySetID: set.ID.Hex(), Title: "Quiz", DueAt: "2026-03-01", AssigneeID: mateID.Hex(),
		}))
		if task.AssigneeID == nil || *task.AssigneeID != mateID {
			t.Errorf("assignee = %v", task.AssigneeID)
		}
		if task.DueAt == nil || task.DueAt.Format(schema.DateLayout) != "2026-03-01" {
			t.Errorf("due = %v", task.DueAt)
		}
	})

	t.Run("unknown study set", func(t *testing.T) {
		res := h.act.CreateTask(ctx, schema.CreateTaskInput{StudySetID: primitive.NewObjectID().Hex(), Title: "x"})
		wantCode(t, res, apperr.CodeNotFound)
	})
}
