package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

// withTestUser injects an already-resolved principal, the way
// LoadSessionUser does after a successful lookup.
func withTestUser(r *http.Request, role string) *http.Request {
	u := &auth.SessionUser{
		ID:           primitive.NewObjectID(),
		StudyGroupID: primitive.NewObjectID(),
		Name:         "Test User",
		Email:        "test@example.com",
		Role:         role,
	}
	return r.WithContext(auth.WithUser(r.Context(), u))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "x", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser(t *testing.T) {
	sm := newTestSessionManager(t)
	h := sm.RequireSignedIn(okHandler())

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantHeader string
		wantPrefix string
	}{
		{"html redirects", map[string]string{"Accept": "text/html"}, http.StatusSeeOther, "Location", "/login"},
		{"api gets 401", map[string]string{"Accept": "application/json"}, http.StatusUnauthorized, "", ""},
		{"htmx gets HX-Redirect", map[string]string{"HX-Request": "true"}, http.StatusUnauthorized, "HX-Redirect", "/login"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/studysets?page=2", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantHeader != "" && !strings.HasPrefix(rec.Header().Get(tc.wantHeader), tc.wantPrefix) {
				t.Errorf("%s = %q, want prefix %q", tc.wantHeader, rec.Header().Get(tc.wantHeader), tc.wantPrefix)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	sm := newTestSessionManager(t)
	h := sm.RequireRole(models.RoleOwner, models.RoleAdmin)(okHandler())

	tests := []struct {
		role   string
		accept string
		want   int
	}{
		{"owner", "text/html", http.StatusOK},
		{"admin", "text/html", http.StatusOK},
		{"ADMIN", "text/html", http.StatusOK},
		{"member", "text/html", http.StatusSeeOther},
		{"member", "application/json", http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.role+"/"+tc.accept, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/webhooks", nil)
			req.Header.Set("Accept", tc.accept)
			req = withTestUser(req, tc.role)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusSeeOther && rec.Header().Get("Location") != "/forbidden" {
				t.Errorf("Location = %q, want /forbidden", rec.Header().Get("Location"))
			}
		})
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if u, ok := auth.CurrentUser(req); ok || u != nil {
		t.Errorf("CurrentUser() = %v, %v; want nil, false", u, ok)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Resolution against fake stores                                              |
*─────────────────────────────────────────────────────────────────────────────*/

type fakeSessions struct {
	mu     sync.Mutex
	rows   map[primitive.ObjectID]models.Session
	gets   int
	delete int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: map[primitive.ObjectID]models.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, s models.Session) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[s.ID] = s
	return s, nil
}

func (f *fakeSessions) GetActive(_ context.Context, id primitive.ObjectID) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	s, ok := f.rows[id]
	if !ok || time.Now().After(s.ExpiresAt) {
		return models.Session{}, mongo.ErrNoDocuments
	}
	return s, nil
}

func (f *fakeSessions) Touch(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.rows[id]
	s.LastSeenAt = at
	f.rows[id] = s
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delete++
	delete(f.rows, id)
	return nil
}

type fakeUsers map[primitive.ObjectID]models.User

func (f fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

func verifiedUser() models.User {
	return models.User{
		ID:            primitive.NewObjectID(),
		StudyGroupID:  primitive.NewObjectID(),
		FullName:      "Ada Lovelace",
		Email:         "ada@example.com",
		Role:          models.RoleMember,
		EmailVerified: true,
		Status:        models.StatusActive,
	}
}

// loginCookie performs Login against a recorder and returns the cookies it set.
func loginCookie(t *testing.T, sm *auth.SessionManager, u models.User) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", nil)
	if _, err := sm.Login(context.Background(), rec, req, u); err != nil {
		t.Fatalf("Login: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Login set no cookie")
	}
	return cookies
}

func TestLoadSessionUser_CookieRoundTrip(t *testing.T) {
	u := verifiedUser()
	sessions := newFakeSessions()
	sm := newTestSessionManager(t).WithStores(sessions, fakeUsers{u.ID: u})
	cookies := loginCookie(t, sm, u)

	var got *auth.SessionUser
	var calls int
	h := sm.LoadSessionUser(sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Second and third lookups must reuse the memoized result.
		for i := 0; i < 2; i++ {
			got, _ = auth.CurrentUser(r)
		}
		calls++
	})))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || calls != 1 {
		t.Fatalf("status = %d, calls = %d; want 200, 1", rec.Code, calls)
	}
	if got == nil || got.ID != u.ID || got.StudyGroupID != u.StudyGroupID {
		t.Fatalf("resolved user = %+v, want %s", got, u.ID.Hex())
	}
	if sessions.gets != 1 {
		t.Errorf("session store consulted %d times, want 1", sessions.gets)
	}
}

func TestLoadSessionUser_UnverifiedUserIsSignedOut(t *testing.T) {
	u := verifiedUser()
	u.EmailVerified = false
	sm := newTestSessionManager(t).WithStores(newFakeSessions(), fakeUsers{u.ID: u})
	cookies := loginCookie(t, sm, u)

	h := sm.LoadSessionUser(sm.RequireSignedIn(okHandler()))
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLogout_DeletesServerSession(t *testing.T) {
	u := verifiedUser()
	sessions := newFakeSessions()
	sm := newTestSessionManager(t).WithStores(sessions, fakeUsers{u.ID: u})
	cookies := loginCookie(t, sm, u)

	req := httptest.NewRequest("POST", "/auth/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if err := sm.Logout(context.Background(), httptest.NewRecorder(), req); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if sessions.delete != 1 || len(sessions.rows) != 0 {
		t.Errorf("deletes = %d, rows = %d; want 1, 0", sessions.delete, len(sessions.rows))
	}

	// The old cookie no longer resolves.
	h := sm.LoadSessionUser(sm.RequireSignedIn(okHandler()))
	req = httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status after logout = %d, want 401", rec.Code)
	}
}

func TestLoadSessionUser_BearerToken(t *testing.T) {
	u := verifiedUser()
	ti := auth.NewTokenIssuer("jwt-secret-that-is-at-least-32-bytes!", "studyhub", time.Minute)
	sm := newTestSessionManager(t).WithStores(newFakeSessions(), fakeUsers{u.ID: u}).WithTokens(ti)

	tok, _, err := ti.Issue(&auth.SessionUser{ID: u.ID, StudyGroupID: u.StudyGroupID, Role: u.Role})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got *auth.SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/studysets", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != u.ID {
		t.Fatalf("bearer principal = %+v, want user %s", got, u.ID.Hex())
	}
	if !got.SessionID.IsZero() {
		t.Error("bearer principal should carry no session id")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Tokens, passwords, pending cookie                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func TestTokenIssuer(t *testing.T) {
	ti := auth.NewTokenIssuer("jwt-secret-that-is-at-least-32-bytes!", "studyhub", time.Minute)
	u := &auth.SessionUser{ID: primitive.NewObjectID(), StudyGroupID: primitive.NewObjectID(), Role: "admin"}

	tok, exp, err := ti.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v is not in the future", exp)
	}

	claims, err := ti.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != u.ID || claims.StudyGroupID != u.StudyGroupID || claims.Role != "admin" {
		t.Errorf("claims = %+v, want %+v", claims, u)
	}

	other := auth.NewTokenIssuer("a-completely-different-secret-value!!", "studyhub", time.Minute)
	if _, err := other.Parse(tok); err == nil {
		t.Error("token signed with another secret accepted")
	}
	wrongIssuer := auth.NewTokenIssuer("jwt-secret-that-is-at-least-32-bytes!", "elsewhere", time.Minute)
	if _, err := wrongIssuer.Parse(tok); err == nil {
		t.Error("token from another issuer accepted")
	}

	expired := auth.NewTokenIssuer("jwt-secret-that-is-at-least-32-bytes!", "studyhub", -time.Minute)
	old, _, _ := expired.Issue(u)
	if _, err := ti.Parse(old); err == nil {
		t.Error("expired token accepted")
	}
}

func TestPasswords(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !auth.CheckPassword(hash, "correct horse battery") {
		t.Error("matching password rejected")
	}
	if auth.CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
	if auth.CheckPassword("", "anything") {
		t.Error("empty hash accepted")
	}
}

func TestPendingVerification_RoundTrip(t *testing.T) {
	pv := auth.NewPendingVerification(
		[]byte("0123456789abcdef0123456789abcdef"),
		[]byte("abcdef0123456789abcdef0123456789"),
		10*time.Minute, false)
	id := primitive.NewObjectID()

	rec := httptest.NewRecorder()
	if err := pv.Set(rec, id, "ada@example.com"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	req := httptest.NewRequest("POST", "/auth/verify", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	gotID, email, ok := pv.Get(req)
	if !ok || gotID != id || email != "ada@example.com" {
		t.Fatalf("Get() = %s, %q, %v", gotID.Hex(), email, ok)
	}

	tampered := httptest.NewRequest("POST", "/auth/verify", nil)
	tampered.AddCookie(&http.Cookie{Name: "studyhub-pending", Value: "garbage"})
	if _, _, ok := pv.Get(tampered); ok {
		t.Error("tampered cookie accepted")
	}
}
