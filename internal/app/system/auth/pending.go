package auth

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const pendingCookie = "studyhub-pending"

// PendingVerification is a signed, encrypted cookie that remembers which
// account is waiting for its email one-time code. It is set after signup or
// after a password login on an unverified account.
type PendingVerification struct {
	sc     *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

type pendingValue struct {
	UserID string
	Email  string
}

// NewPendingVerification builds the cookie codec. hashKey should be 32 or
// 64 bytes; blockKey 16, 24 or 32 bytes (AES).
func NewPendingVerification(hashKey, blockKey []byte, ttl time.Duration, secure bool) *PendingVerification {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(ttl.Seconds()))
	return &PendingVerification{sc: sc, ttl: ttl, secure: secure}
}

// Set writes the pending cookie for userID.
func (p *PendingVerification) Set(w http.ResponseWriter, userID primitive.ObjectID, email string) error {
	encoded, err := p.sc.Encode(pendingCookie, pendingValue{UserID: userID.Hex(), Email: email})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     pendingCookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(p.ttl.Seconds()),
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Get returns the pending user id and email, if a valid cookie is present.
func (p *PendingVerification) Get(r *http.Request) (primitive.ObjectID, string, bool) {
	c, err := r.Cookie(pendingCookie)
	if err != nil {
		return primitive.NilObjectID, "", false
	}
	var v pendingValue
	if err := p.sc.Decode(pendingCookie, c.Value, &v); err != nil {
		return primitive.NilObjectID, "", false
	}
	id, err := primitive.ObjectIDFromHex(v.UserID)
	if err != nil {
		return primitive.NilObjectID, "", false
	}
	return id, v.Email, true
}

// Clear removes the pending cookie.
func (p *PendingVerification) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     pendingCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
