package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/emailverify"
	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/mailer"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Pending identifies a signed-up or signed-in user who still has to enter
// the emailed code. The transport carries it in a signed cookie.
type Pending struct {
	UserID primitive.ObjectID `json:"-"`
	Email  string             `json:"email"`
}

type pendingKey struct{}

// WithPending attaches the pending-verification identity read from the
// request to ctx.
func WithPending(ctx context.Context, p Pending) context.Context {
	return context.WithValue(ctx, pendingKey{}, p)
}

func pendingFrom(ctx context.Context) (Pending, bool) {
	p, ok := ctx.Value(pendingKey{}).(Pending)
	return p, ok && !p.UserID.IsZero()
}

// LoginResult is either a user ready for a session or, when the email is
// not verified yet, a pending verification.
type LoginResult struct {
	User    models.User `json:"-"`
	Pending *Pending    `json:"pending,omitempty"`
}

// TokenResult is a bearer access token for API clients.
type TokenResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

var errBadCredentials = apperr.InvalidField("email", "Invalid email or password.")

// Signup creates a study group and its owner account, then emails a
// verification code. The account cannot sign in until the code is entered.
func (s *Service) Signup(ctx context.Context, req action.Request[schema.SignupInput]) (Pending, error) {
	in := req.Input
	exists, err := s.Users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return Pending{}, err
	}
	if exists {
		return Pending{}, apperr.Conflict("An account with this email already exists.")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Pending{}, err
	}

	var owner models.User
	err = s.Txn.Run(ctx, func(ctx context.Context) error {
		sg, err := s.StudyGroups.Create(ctx, models.StudyGroup{Name: in.StudyGroupName})
		if err != nil {
			return err
		}
		owner, err = s.Users.Create(ctx, models.User{
			StudyGroupID: sg.ID,
			FullName:     in.FullName,
			Email:        in.Email,
			PasswordHash: hash,
			Role:         models.RoleOwner,
		})
		return err
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return Pending{}, apperr.Conflict("An account with this email already exists.")
	}
	if err != nil {
		return Pending{}, err
	}

	p := Pending{UserID: owner.ID, Email: owner.Email}
	return p, s.sendCode(ctx, p, false)
}

// Login checks credentials. Verified users get a LoginResult carrying the
// user; unverified users are sent a fresh code instead.
func (s *Service) Login(ctx context.Context, req action.Request[schema.LoginInput]) (LoginResult, error) {
	u, err := s.Users.GetByEmail(ctx, req.Input.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return LoginResult{}, errBadCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Input.Password) || !u.IsActive() {
		return LoginResult{}, errBadCredentials
	}

	if !u.EmailVerified {
		p := Pending{UserID: u.ID, Email: u.Email}
		if err := s.sendCode(ctx, p, false); err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Pending: &p}, nil
	}
	return LoginResult{User: u}, nil
}

// VerifyEmail checks the code for the pending user in ctx and marks the
// email verified. The caller then opens a session for the returned user.
func (s *Service) VerifyEmail(ctx context.Context, req action.Request[schema.VerifyInput]) (models.User, error) {
	p, ok := pendingFrom(ctx)
	if !ok {
		return models.User{}, apperr.ErrUnauthenticated
	}

	_, err := s.Verifications.VerifyCode(ctx, p.UserID, req.Input.Code)
	switch {
	case errors.Is(err, emailverify.ErrInvalidCode):
		return models.User{}, apperr.InvalidField("code", "That code is not correct.")
	case errors.Is(err, emailverify.ErrNotFound):
		return models.User{}, apperr.InvalidField("code", "That code has expired. Request a new one.")
	case errors.Is(err, emailverify.ErrTooManyAttempts):
		return models.User{}, apperr.ErrRateLimited
	case err != nil:
		return models.User{}, err
	}

	if err := s.Users.MarkEmailVerified(ctx, p.UserID); err != nil {
		return models.User{}, err
	}
	u, err := s.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// ResendCode emails a new code to the pending user in ctx.
func (s *Service) ResendCode(ctx context.Context, _ action.Request[schema.NoInput]) (Pending, error) {
	p, ok := pendingFrom(ctx)
	if !ok {
		return Pending{}, apperr.ErrUnauthenticated
	}
	return p, s.sendCode(ctx, p, true)
}

// sendCode issues a code and emails it. Email failures surface as
// UpstreamFailure because the user cannot continue without the code.
func (s *Service) sendCode(ctx context.Context, p Pending, isResend bool) error {
	res, err := s.Verifications.Create(ctx, p.UserID, p.Email, isResend)
	if errors.Is(err, emailverify.ErrTooManyResends) {
		return apperr.ErrRateLimited
	}
	if err != nil {
		return err
	}
	if s.Mailer == nil {
		return apperr.Upstream("We couldn't send your verification email.", errors.New("no mailer configured"))
	}

	expires := s.VerifyExpiresIn
	if expires <= 0 {
		expires = emailverify.DefaultExpiry
	}
	email := mailer.BuildVerificationEmail(mailer.VerificationEmailData{
		SiteName:  s.SiteName,
		Code:      res.Code,
		ExpiresIn: humanizeDuration(expires),
	})
	email.To = p.Email
	if err := s.Mailer.Send(ctx, email); err != nil {
		return apperr.Upstream("We couldn't send your verification email.", err)
	}
	return nil
}

// IssueToken mints a bearer token for the signed-in caller.
func (s *Service) IssueToken(ctx context.Context, req action.Request[schema.NoInput]) (TokenResult, error) {
	if s.Tokens == nil {
		return TokenResult{}, errors.New("token issuer not configured")
	}
	tok, exp, err := s.Tokens.Issue(req.Session)
	if err != nil {
		return TokenResult{}, err
	}
	if s.Audit != nil {
		s.Audit.AccessTokenIssued(ctx, req.Session.ID, req.Session.StudyGroupID)
	}
	return TokenResult{AccessToken: tok, TokenType: "Bearer", ExpiresAt: exp}, nil
}

// humanizeDuration renders d as "10 minutes" or "1 hour".
func humanizeDuration(d time.Duration) string {
	unit, n := "minute", int(d.Round(time.Minute)/time.Minute)
	if n >= 60 && n%60 == 0 {
		unit, n = "hour", n/60
	}
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
