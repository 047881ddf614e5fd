package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionUser is the resolved principal for a request. It is built once per
// request and injected into the request context.
type SessionUser struct {
	ID           primitive.ObjectID
	StudyGroupID primitive.ObjectID
	Role         string
	Name         string
	Email        string

	// SessionID is zero for bearer-token callers.
	SessionID primitive.ObjectID
}

// IsAdmin reports whether the user may manage the study group.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && (u.Role == models.RoleOwner || u.Role == models.RoleAdmin)
}

type ctxKey string

const memoKey ctxKey = "studyhub.sessionMemo"

// memo resolves the principal lazily and at most once per request. Both the
// route middleware and the action wrapper read through it, so a request that
// passes RequireSignedIn and then runs an action hits the stores once.
type memo struct {
	once    sync.Once
	resolve func(context.Context) (*SessionUser, error)
	user    *SessionUser
	err     error
}

func (m *memo) get(ctx context.Context) (*SessionUser, error) {
	m.once.Do(func() {
		if m.resolve != nil {
			m.user, m.err = m.resolve(ctx)
		}
	})
	return m.user, m.err
}

// Resolve returns the principal for ctx. It returns (nil, nil) when the
// request carries no valid session.
func Resolve(ctx context.Context) (*SessionUser, error) {
	m, ok := ctx.Value(memoKey).(*memo)
	if !ok {
		return nil, nil
	}
	return m.get(ctx)
}

// WithUser returns a context whose principal is already resolved to u.
// Used after login and in tests.
func WithUser(ctx context.Context, u *SessionUser) context.Context {
	m := &memo{user: u}
	m.once.Do(func() {})
	return context.WithValue(ctx, memoKey, m)
}

func withResolver(ctx context.Context, fn func(context.Context) (*SessionUser, error)) context.Context {
	return context.WithValue(ctx, memoKey, &memo{resolve: fn})
}

// CurrentUser returns the signed-in user and a found flag. Resolution
// errors are treated as signed out.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, err := Resolve(r.Context())
	if err != nil || u == nil {
		return nil, false
	}
	return u, true
}
