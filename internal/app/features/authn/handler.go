// internal/app/features/authn/handler.go
package authn

import (
	"context"
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/actions"
	uierrors "github.com/dalemusser/studyhub/internal/app/features/errors"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/auditlog"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/studyhub/internal/app/system/respond"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves signup, sign-in with email verification, sign-out and API
// token issuance.
type Handler struct {
	Act        *actions.Actions
	SessionMgr *auth.SessionManager
	Pending    *auth.PendingVerification
	Limiter    *ratelimit.LoginLimiter
	Audit      *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

// NewHandler constructs the handler. limiter and audit may be nil.
func NewHandler(act *actions.Actions, sm *auth.SessionManager, pending *auth.PendingVerification, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Act: act, SessionMgr: sm, Pending: pending, Limiter: limiter, Audit: audit, ErrLog: errLog, Log: logger}
}

const badBodyMessage = "The request body could not be read."

// pendingView is what the client learns about a pending verification.
type pendingView struct {
	VerificationRequired bool   `json:"verification_required"`
	Email                string `json:"email"`
}

// HandleSignup handles POST /auth/signup.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in schema.SignupInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "signup: decode failed", err, badBodyMessage)
		return
	}
	res := h.Act.Signup(r.Context(), in)
	if !res.Success {
		respond.Result(w, r, res, http.StatusOK)
		return
	}
	h.Audit.Signup(r.Context(), res.Data.UserID, res.Data.Email)
	h.setPending(w, r, res.Data, http.StatusCreated)
}

// HandleLogin handles POST /auth/login. Verified users get a session;
// unverified users are sent a code and a pending cookie.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in schema.LoginInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "login: decode failed", err, badBodyMessage)
		return
	}
	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, in.Email); !ok {
			h.Audit.LoginRateLimited(r.Context(), in.Email)
			respond.JSON(w, http.StatusTooManyRequests, action.Result[struct{}]{Code: apperr.CodeRateLimited, Message: msg})
			return
		}
	}

	res := h.Act.Login(r.Context(), in)
	if !res.Success {
		if res.Code == apperr.CodeInvalidInput {
			h.Audit.LoginFailed(r.Context(), in.Email, res.Message)
		}
		respond.Result(w, r, res, http.StatusOK)
		return
	}
	if p := res.Data.Pending; p != nil {
		h.setPending(w, r, *p, http.StatusOK)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(in.Email)
	}
	if h.signIn(w, r, res.Data.User) {
		h.Audit.LoginSuccess(r.Context(), res.Data.User.ID, res.Data.User.StudyGroupID)
	}
}

// HandleVerify handles POST /auth/verify for the user in the pending cookie.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var in schema.VerifyInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "verify: decode failed", err, badBodyMessage)
		return
	}
	res := h.Act.VerifyEmail(h.pendingContext(r), in)
	if !res.Success {
		if id, _, ok := h.Pending.Get(r); ok && res.Code != apperr.CodeUnauthenticated {
			h.Audit.VerificationFailed(r.Context(), id, res.Message)
		}
		respond.Result(w, r, res, http.StatusOK)
		return
	}
	h.Pending.Clear(w)
	h.Audit.EmailVerified(r.Context(), res.Data.ID, res.Data.StudyGroupID)
	h.signIn(w, r, res.Data)
}

// HandleResend handles POST /auth/resend.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	res := h.Act.ResendCode(h.pendingContext(r), schema.NoInput{})
	if !res.Success {
		respond.Result(w, r, res, http.StatusOK)
		return
	}
	respond.JSON(w, http.StatusOK, action.Result[pendingView]{
		Success: true,
		Data:    pendingView{VerificationRequired: true, Email: res.Data.Email},
	})
}

// HandleLogout handles POST /auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	u, signedIn := auth.CurrentUser(r)
	if err := h.SessionMgr.Logout(r.Context(), w, r); err != nil {
		h.ErrLog.LogServerError(w, r, "logout failed", err)
		return
	}
	if signedIn {
		h.Audit.Logout(r.Context(), u.ID, u.StudyGroupID)
	}
	if auth.WantsHTML(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pendingContext(r *http.Request) context.Context {
	id, email, ok := h.Pending.Get(r)
	if !ok {
		return r.Context()
	}
	return actions.WithPending(r.Context(), actions.Pending{UserID: id, Email: email})
}

func (h *Handler) setPending(w http.ResponseWriter, r *http.Request, p actions.Pending, status int) {
	if err := h.Pending.Set(w, p.UserID, p.Email); err != nil {
		h.ErrLog.LogServerError(w, r, "set pending cookie failed", err, zap.String("user_id", p.UserID.Hex()))
		return
	}
	respond.JSON(w, status, action.Result[pendingView]{
		Success: true,
		Data:    pendingView{VerificationRequired: true, Email: p.Email},
	})
}

// signIn opens a session for u and reports whether it succeeded.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, u models.User) bool {
	if _, err := h.SessionMgr.Login(r.Context(), w, r, u); err != nil {
		h.ErrLog.LogServerError(w, r, "session login failed", err, zap.String("user_id", u.ID.Hex()))
		return false
	}
	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()), zap.String("study_group_id", u.StudyGroupID.Hex()))
	respond.JSON(w, http.StatusOK, action.Result[models.User]{Success: true, Data: u})
	return true
}
