package actions_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/app/actions"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/readcache"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type harness struct {
	sets        fakeStudySets
	images      memChild[models.StudySetImage]
	notes       memChild[models.Note]
	comments    memChild[models.Comment]
	tasks       fakeTasks
	tags        fakeTags
	webhooks    *memStore[models.Webhook]
	invitations fakeInvitations
	users       *fakeUsers
	groups      *fakeStudyGroups
	codes       *fakeVerifications
	txn         *fakeTxn
	mail        *fakeMailer
	events      *fakePublisher
	billing     *fakeBilling
	audit       *fakeAuditor

	svc *actions.Service
	act *actions.Actions
	now time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sets: newFakeStudySets(),
		images: memChild[models.StudySetImage]{newMem("Image", func(i *models.StudySetImage) {
			stamp(&i.ID, &i.CreatedAt, nil)
		})},
		notes: memChild[models.Note]{newMem("Note", func(n *models.Note) {
			stamp(&n.ID, &n.CreatedAt, &n.UpdatedAt)
		})},
		comments: memChild[models.Comment]{newMem("Comment", func(c *models.Comment) {
			stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		})},
		tasks: fakeTasks{memChild[models.Task]{newMem("Task", func(t *models.Task) {
			stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		})}},
		tags: fakeTags{newMem("Tag", func(t *models.Tag) {
			stamp(&t.ID, &t.CreatedAt, nil)
		})},
		webhooks: newMem("Webhook", func(w *models.Webhook) {
			stamp(&w.ID, &w.CreatedAt, &w.UpdatedAt)
		}),
		invitations: newFakeInvitations(),
		users:       &fakeUsers{},
		groups:      &fakeStudyGroups{groups: map[primitive.ObjectID]models.StudyGroup{}},
		codes:       newFakeVerifications(),
		txn:         &fakeTxn{},
		mail:        &fakeMailer{},
		events:      &fakePublisher{},
		billing:     &fakeBilling{},
		audit:       &fakeAuditor{},
		now:         time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	h.svc = actions.New(actions.Deps{
		StudySets:     h.sets,
		Images:        h.images,
		Notes:         h.notes,
		Comments:      h.comments,
		Tasks:         h.tasks,
		Tags:          h.tags,
		Webhooks:      h.webhooks,
		Invitations:   h.invitations,
		Users:         h.users,
		StudyGroups:   h.groups,
		Verifications: h.codes,
		Txn:           h.txn,
		Cache:         readcache.New(1000, time.Minute, zap.NewNop()),
		Events:        h.events,
		Mailer:        h.mail,
		Billing:       h.billing,
		Audit:         h.audit,
		BaseURL:       "https://studyhub.test/",
		Now:           func() time.Time { return h.now },
	})
	h.act = actions.Bind(action.NewRunner(zap.NewNop()), h.svc)
	return h
}

// group creates a study group and a signed-in member of it with role.
func (h *harness) group(t *testing.T, name, role string) (models.StudyGroup, context.Context) {
	t.Helper()
	sg, err := h.groups.Create(context.Background(), models.StudyGroup{Name: name})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return sg, h.member(t, sg, role)
}

// member adds a user with role to sg and returns a signed-in context.
func (h *harness) member(t *testing.T, sg models.StudyGroup, role string) context.Context {
	t.Helper()
	u, err := h.users.Create(context.Background(), models.User{
		StudyGroupID:  sg.ID,
		FullName:      role + " of " + sg.Name,
		Email:         role + "+" + primitive.NewObjectID().Hex() + "@example.com",
		Role:          role,
		EmailVerified: true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return auth.WithUser(context.Background(), &auth.SessionUser{
		ID:           u.ID,
		StudyGroupID: sg.ID,
		Role:         role,
		Name:         u.FullName,
		Email:        u.Email,
	})
}

func sessionOf(t *testing.T, ctx context.Context) *auth.SessionUser {
	t.Helper()
	u, err := auth.Resolve(ctx)
	if err != nil || u == nil {
		t.Fatalf("no session in context: %v", err)
	}
	return u
}

func mustOK[Out any](t *testing.T, res action.Result[Out]) Out {
	t.Helper()
	if !res.Success {
		t.Fatalf("unexpected failure: code=%s message=%q fields=%v", res.Code, res.Message, res.FieldErrors)
	}
	return res.Data
}

func wantCode[Out any](t *testing.T, res action.Result[Out], code string) {
	t.Helper()
	if res.Success {
		t.Fatalf("expected %s, got success", code)
	}
	if res.Code != code {
		t.Fatalf("code = %q (message %q), want %q", res.Code, res.Message, code)
	}
}
