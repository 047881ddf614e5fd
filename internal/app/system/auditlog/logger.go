// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/store/audit"
	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	ModeAll = "all" // MongoDB and zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config picks a destination per category.
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to MongoDB (via audit.Store) and to zap.
// A nil *Logger is valid and records nothing.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

type requestMetaKey struct{}

type requestMeta struct {
	ip        string
	userAgent string
}

// Middleware stores the client IP and user agent on the request context so
// events recorded deeper in the stack (the action layer) carry them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := requestMeta{ip: ratelimit.ClientIP(r), userAgent: r.UserAgent()}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestMetaKey{}, meta)))
	})
}

func (l *Logger) mode(category string) string {
	var m string
	switch category {
	case audit.CategoryAuth:
		m = l.config.Auth
	case audit.CategoryAdmin:
		m = l.config.Admin
	}
	if m == "" {
		return ModeAll
	}
	return m
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.StudyGroupID != nil {
		fields = append(fields, zap.String("study_group_id", event.StudyGroupID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's mode. Store failures are
// logged and swallowed; auditing never fails the request.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	m := l.mode(event.Category)
	if m == ModeOff {
		return
	}
	if meta, ok := ctx.Value(requestMetaKey{}).(requestMeta); ok {
		if event.IP == "" {
			event.IP = meta.ip
		}
		if event.UserAgent == "" {
			event.UserAgent = meta.userAgent
		}
	}

	if m == ModeAll || m == ModeLog {
		l.logToZap(event)
	}
	if (m == ModeAll || m == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func authEvent(eventType string, userID, studyGroupID *primitive.ObjectID, success bool) audit.Event {
	return audit.Event{
		Category:     audit.CategoryAuth,
		EventType:    eventType,
		UserID:       userID,
		StudyGroupID: studyGroupID,
		Success:      success,
	}
}

// --- Authentication Events ---

// Signup records a new owner account awaiting verification.
func (l *Logger) Signup(ctx context.Context, userID primitive.ObjectID, email string) {
	ev := authEvent(audit.EventSignup, &userID, nil, true)
	ev.Details = map[string]string{"email": email}
	l.Log(ctx, ev)
}

// LoginSuccess records a sign-in that opened a session.
func (l *Logger) LoginSuccess(ctx context.Context, userID, studyGroupID primitive.ObjectID) {
	l.Log(ctx, authEvent(audit.EventLoginSuccess, &userID, &studyGroupID, true))
}

// LoginFailed records a rejected sign-in. The account may not exist, so
// only the attempted email is kept.
func (l *Logger) LoginFailed(ctx context.Context, attemptedEmail, reason string) {
	ev := authEvent(audit.EventLoginFailed, nil, nil, false)
	ev.FailureReason = reason
	ev.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, ev)
}

// LoginRateLimited records a sign-in refused by the limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, attemptedEmail string) {
	ev := authEvent(audit.EventLoginRateLimited, nil, nil, false)
	ev.FailureReason = "rate limited"
	ev.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, ev)
}

// Logout records a sign-out.
func (l *Logger) Logout(ctx context.Context, userID, studyGroupID primitive.ObjectID) {
	l.Log(ctx, authEvent(audit.EventLogout, &userID, &studyGroupID, true))
}

// EmailVerified records a correct verification code.
func (l *Logger) EmailVerified(ctx context.Context, userID, studyGroupID primitive.ObjectID) {
	l.Log(ctx, authEvent(audit.EventEmailVerified, &userID, &studyGroupID, true))
}

// VerificationFailed records a rejected verification code.
func (l *Logger) VerificationFailed(ctx context.Context, userID primitive.ObjectID, reason string) {
	ev := authEvent(audit.EventVerificationFailed, &userID, nil, false)
	ev.FailureReason = reason
	l.Log(ctx, ev)
}

// InvitationAccepted records a member joining through an invitation.
func (l *Logger) InvitationAccepted(ctx context.Context, userID, studyGroupID primitive.ObjectID, invitationID string) {
	ev := authEvent(audit.EventInvitationAccepted, &userID, &studyGroupID, true)
	ev.Details = map[string]string{"invitation_id": invitationID}
	l.Log(ctx, ev)
}

// AccessTokenIssued records a bearer token minted for an API client.
func (l *Logger) AccessTokenIssued(ctx context.Context, userID, studyGroupID primitive.ObjectID) {
	l.Log(ctx, authEvent(audit.EventAccessTokenIssued, &userID, &studyGroupID, true))
}

// --- Admin Events ---

// Admin records a successful administrative change to the study group.
// targetID identifies the webhook or invitation affected, if any.
func (l *Logger) Admin(ctx context.Context, eventType string, actorID, studyGroupID primitive.ObjectID, targetID string) {
	ev := audit.Event{
		Category:     audit.CategoryAdmin,
		EventType:    eventType,
		ActorID:      &actorID,
		StudyGroupID: &studyGroupID,
		Success:      true,
	}
	if targetID != "" {
		ev.Details = map[string]string{"target_id": targetID}
	}
	l.Log(ctx, ev)
}
