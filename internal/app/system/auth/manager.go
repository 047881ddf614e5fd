package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const sessionIDKey = "sid"

// touchInterval throttles last_seen_at writes to one per session per minute.
const touchInterval = time.Minute

// SessionStore persists the server-side half of cookie sessions.
type SessionStore interface {
	Create(ctx context.Context, s models.Session) (models.Session, error)
	GetActive(ctx context.Context, id primitive.ObjectID) (models.Session, error)
	Touch(ctx context.Context, id primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserFetcher loads the account behind a session or token.
type UserFetcher interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// SessionManager owns the session cookie, resolves principals and gates
// routes by sign-in state and role.
type SessionManager struct {
	store    *sessions.CookieStore
	name     string
	maxAge   time.Duration
	sessions SessionStore
	users    UserFetcher
	tokens   *TokenIssuer
	log      *zap.Logger
}

// NewSessionManager creates a SessionManager. sessionKey signs the cookie
// and must be non-empty; 32+ characters are recommended. In production
// (secure=true) cookies are Secure with SameSite=None. Over plain http in
// development use secure=false so browsers accept them.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "studyhub-session"
	}

	cs := sessions.NewCookieStore([]byte(sessionKey))
	cs.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		cs.Options.SameSite = http.SameSiteNoneMode
	}
	cs.MaxAge(int(maxAge.Seconds()))

	return &SessionManager{
		store:  cs,
		name:   name,
		maxAge: maxAge,
		log:    logger,
	}, nil
}

// WithStores attaches the persistence the manager resolves sessions
// against. Without stores every request resolves to signed out.
func (sm *SessionManager) WithStores(s SessionStore, u UserFetcher) *SessionManager {
	sm.sessions = s
	sm.users = u
	return sm
}

// WithTokens enables Bearer access tokens.
func (sm *SessionManager) WithTokens(ti *TokenIssuer) *SessionManager {
	sm.tokens = ti
	return sm
}

// Tokens returns the configured token issuer, or nil.
func (sm *SessionManager) Tokens() *TokenIssuer { return sm.tokens }

// LoadSessionUser installs a lazy, memoized resolver for the request. The
// stores are consulted only when something asks for the current user.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := r
		ctx := withResolver(r.Context(), func(ctx context.Context) (*SessionUser, error) {
			return sm.resolve(ctx, req)
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve tries the cookie session first, then a Bearer token.
func (sm *SessionManager) resolve(ctx context.Context, r *http.Request) (*SessionUser, error) {
	if sm.sessions == nil || sm.users == nil {
		return nil, nil
	}

	u, err := sm.fromCookie(ctx, r)
	if err != nil || u != nil {
		return u, err
	}
	return sm.fromBearer(ctx, r)
}

func (sm *SessionManager) fromCookie(ctx context.Context, r *http.Request) (*SessionUser, error) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		// Tampered or rotated-key cookies read as signed out.
		return nil, nil
	}
	hex, _ := sess.Values[sessionIDKey].(string)
	sid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, nil
	}

	row, err := sm.sessions.GetActive(ctx, sid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	user, err := sm.activeUser(ctx, row.UserID, row.StudyGroupID)
	if err != nil || user == nil {
		return nil, err
	}

	if now := time.Now().UTC(); now.Sub(row.LastSeenAt) > touchInterval {
		if err := sm.sessions.Touch(ctx, sid, now); err != nil {
			sm.log.Warn("session touch failed", zap.Error(err), zap.String("session_id", sid.Hex()))
		}
	}

	su := toSessionUser(*user)
	su.SessionID = sid
	return su, nil
}

func (sm *SessionManager) fromBearer(ctx context.Context, r *http.Request) (*SessionUser, error) {
	if sm.tokens == nil {
		return nil, nil
	}
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return nil, nil
	}
	claims, err := sm.tokens.Parse(strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
	if err != nil {
		sm.log.Debug("bearer token rejected", zap.Error(err))
		return nil, nil
	}
	user, err := sm.activeUser(ctx, claims.UserID, claims.StudyGroupID)
	if err != nil || user == nil {
		return nil, err
	}
	return toSessionUser(*user), nil
}

// activeUser loads the user and checks it still belongs to studyGroupID
// and may sign in. The role always comes from the user record.
func (sm *SessionManager) activeUser(ctx context.Context, userID, studyGroupID primitive.ObjectID) (*models.User, error) {
	u, err := sm.users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive() || !u.EmailVerified || u.StudyGroupID != studyGroupID {
		return nil, nil
	}
	return &u, nil
}

func toSessionUser(u models.User) *SessionUser {
	return &SessionUser{
		ID:           u.ID,
		StudyGroupID: u.StudyGroupID,
		Role:         u.Role,
		Name:         u.FullName,
		Email:        u.Email,
	}
}

// Login creates a server session for u and writes the session cookie.
// It returns the principal so the caller can continue the request signed in.
func (sm *SessionManager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, u models.User) (*SessionUser, error) {
	if sm.sessions == nil {
		return nil, errors.New("session store not configured")
	}
	now := time.Now().UTC()
	row, err := sm.sessions.Create(ctx, models.Session{
		ID:           primitive.NewObjectID(),
		UserID:       u.ID,
		StudyGroupID: u.StudyGroupID,
		Role:         u.Role,
		CreatedAt:    now,
		LastSeenAt:   now,
		ExpiresAt:    now.Add(sm.maxAge),
		IP:           ratelimit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sess, _ := sm.store.New(r, sm.name)
	sess.Values[sessionIDKey] = row.ID.Hex()
	if err := sess.Save(r, w); err != nil {
		return nil, fmt.Errorf("save session cookie: %w", err)
	}

	su := toSessionUser(u)
	su.SessionID = row.ID
	return su, nil
}

// Logout deletes the server session (if any) and expires the cookie.
func (sm *SessionManager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	if hex, ok := sess.Values[sessionIDKey].(string); ok && sm.sessions != nil {
		if sid, err := primitive.ObjectIDFromHex(hex); err == nil {
			if err := sm.sessions.Delete(ctx, sid); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
				return fmt.Errorf("delete session: %w", err)
			}
		}
	}
	delete(sess.Values, sessionIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
