// Package apptest assembles the action layer over a test database so
// handler tests exercise real stores.
package apptest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/app/actions"
	uierrors "github.com/dalemusser/studyhub/internal/app/features/errors"
	auditstore "github.com/dalemusser/studyhub/internal/app/store/audit"
	commentstore "github.com/dalemusser/studyhub/internal/app/store/comments"
	"github.com/dalemusser/studyhub/internal/app/store/emailverify"
	imagestore "github.com/dalemusser/studyhub/internal/app/store/images"
	invitationstore "github.com/dalemusser/studyhub/internal/app/store/invitations"
	notestore "github.com/dalemusser/studyhub/internal/app/store/notes"
	sessionstore "github.com/dalemusser/studyhub/internal/app/store/sessions"
	studygroupstore "github.com/dalemusser/studyhub/internal/app/store/studygroups"
	studysetstore "github.com/dalemusser/studyhub/internal/app/store/studysets"
	tagstore "github.com/dalemusser/studyhub/internal/app/store/tags"
	taskstore "github.com/dalemusser/studyhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	webhookstore "github.com/dalemusser/studyhub/internal/app/store/webhooks"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/auditlog"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/mailer"
	"github.com/dalemusser/studyhub/internal/app/system/readcache"
	"github.com/dalemusser/studyhub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Outbox records sent emails.
type Outbox struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (o *Outbox) Send(_ context.Context, e mailer.Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, e)
	return nil
}

// Sent returns a copy of every email sent so far.
func (o *Outbox) Sent() []mailer.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Email(nil), o.sent...)
}

// Env is an assembled action layer.
type Env struct {
	DB       *mongo.Database
	Service  *actions.Service
	Actions  *actions.Actions
	Sessions *auth.SessionManager
	Outbox   *Outbox
	Audit    *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
}

// New builds the action layer over db. Webhook events and billing are
// disabled; emails land in Env.Outbox and audit events in audit_events.
func New(t *testing.T, db *mongo.Database) *Env {
	t.Helper()
	log := zap.NewNop()

	sm, err := auth.NewSessionManager("apptest-session-key-0123456789abcdef", "studyhub-test", "", time.Hour, false, log)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	users := userstore.New(db)
	sm.WithStores(sessionstore.New(db), users)

	out := &Outbox{}
	auditEvents := auditstore.New(db)
	audit := auditlog.New(auditEvents, log, auditlog.Config{Auth: auditlog.ModeDB, Admin: auditlog.ModeDB})
	svc := actions.New(actions.Deps{
		StudySets:     studysetstore.New(db),
		Images:        imagestore.New(db),
		Notes:         notestore.New(db),
		Comments:      commentstore.New(db),
		Tasks:         taskstore.New(db),
		Tags:          tagstore.New(db),
		Webhooks:      webhookstore.New(db),
		Invitations:   invitationstore.New(db),
		Users:         users,
		StudyGroups:   studygroupstore.New(db),
		Verifications: emailverify.New(db, 10*time.Minute),
		Txn:           txn.New(db.Client(), log),
		Cache:         readcache.New(1000, time.Minute, log),
		Mailer:        out,
		AuditEvents:   auditEvents,
		Audit:         audit,
		BaseURL:       "http://studyhub.test",
		Log:           log,
	})

	return &Env{
		DB:       db,
		Service:  svc,
		Actions:  actions.Bind(action.NewRunner(log), svc),
		Sessions: sm,
		Outbox:   out,
		Audit:    audit,
		ErrLog:   uierrors.NewErrorLogger(log),
	}
}
