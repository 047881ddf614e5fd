package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OwnerUser returns a signed-in owner of a fresh study group.
func OwnerUser() *auth.SessionUser {
	return newUser(primitive.NewObjectID(), models.RoleOwner, "Test Owner", "owner@test.com")
}

// AdminUser returns a signed-in admin of studyGroupID.
func AdminUser(studyGroupID primitive.ObjectID) *auth.SessionUser {
	return newUser(studyGroupID, models.RoleAdmin, "Test Admin", "admin@test.com")
}

// MemberUser returns a signed-in member of studyGroupID.
func MemberUser(studyGroupID primitive.ObjectID) *auth.SessionUser {
	return newUser(studyGroupID, models.RoleMember, "Test Member", "member@test.com")
}

func newUser(studyGroupID primitive.ObjectID, role, name, email string) *auth.SessionUser {
	return &auth.SessionUser{
		ID:           primitive.NewObjectID(),
		StudyGroupID: studyGroupID,
		Role:         role,
		Name:         name,
		Email:        email,
	}
}

// WithUser puts u into the request context, bypassing the session
// middleware.
func WithUser(r *http.Request, u *auth.SessionUser) *http.Request {
	return r.WithContext(auth.WithUser(r.Context(), u))
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request with a JSON body.
func NewJSONRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")
	return r
}

// NewFormRequest creates a urlencoded form post.
func NewFormRequest(target string, form url.Values) *http.Request {
	var body io.Reader = strings.NewReader(form.Encode())
	r := httptest.NewRequest(http.MethodPost, target, body)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}
