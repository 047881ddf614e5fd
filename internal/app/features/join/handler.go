// internal/app/features/join/handler.go
package join

import (
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/actions"
	uierrors "github.com/dalemusser/studyhub/internal/app/features/errors"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/auditlog"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/respond"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler accepts invitations. It is public: the invitee has no account yet.
type Handler struct {
	Act        *actions.Actions
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

// NewHandler constructs the handler. audit may be nil.
func NewHandler(act *actions.Actions, sm *auth.SessionManager, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Act: act, SessionMgr: sm, Audit: audit, ErrLog: errLog, Log: logger}
}

// HandleJoin handles POST /join/{id}. On success the new member is signed
// in straight away.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var in schema.JoinInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "join: decode failed", err, "The request body could not be read.")
		return
	}
	in.ID = chi.URLParam(r, "id")

	res := h.Act.Join(r.Context(), in)
	if !res.Success {
		respond.Result(w, r, res, http.StatusOK)
		return
	}

	if _, err := h.SessionMgr.Login(r.Context(), w, r, res.Data); err != nil {
		// The account exists; the member can still sign in by hand.
		h.Log.Warn("join: sign-in after join failed", zap.Error(err), zap.String("user_id", res.Data.ID.Hex()))
	}
	h.Audit.InvitationAccepted(r.Context(), res.Data.ID, res.Data.StudyGroupID, in.ID)
	respond.Result(w, r, action.Result[models.User]{Success: true, Data: res.Data}, http.StatusCreated)
}
