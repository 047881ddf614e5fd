package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenIssuer signs and validates short-lived HS256 access tokens for API
// clients.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. secret should be at least 32 bytes.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

type accessClaims struct {
	jwt.RegisteredClaims
	StudyGroupID string `json:"sgid"`
	Role         string `json:"role,omitempty"`
}

// TokenClaims is what a validated access token asserts.
type TokenClaims struct {
	UserID       primitive.ObjectID
	StudyGroupID primitive.ObjectID
	Role         string
	ExpiresAt    time.Time
}

// Issue signs an access token for u and returns it with its expiry.
func (ti *TokenIssuer) Issue(u *SessionUser) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ti.ttl)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			Issuer:    ti.issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		StudyGroupID: u.StudyGroupID.Hex(),
		Role:         u.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates tokenString and returns its claims.
func (ti *TokenIssuer) Parse(tokenString string) (TokenClaims, error) {
	if tokenString == "" {
		return TokenClaims{}, fmt.Errorf("token is empty")
	}
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithIssuer(ti.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return TokenClaims{}, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return TokenClaims{}, fmt.Errorf("invalid token claims")
	}

	uid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("invalid subject: %w", err)
	}
	sgid, err := primitive.ObjectIDFromHex(claims.StudyGroupID)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("invalid study group: %w", err)
	}
	out := TokenClaims{UserID: uid, StudyGroupID: sgid, Role: claims.Role}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
