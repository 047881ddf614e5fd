// internal/app/features/authn/routes.go
package authn

import (
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/studyhub/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
)

// Routes serves /auth. otp limits code verification and resends per
// client IP; it may be nil.
func Routes(h *Handler, otp *ratelimit.Keyed) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.HandleSignup)
	r.Post("/login", h.HandleLogin)
	r.Group(func(r chi.Router) {
		if otp != nil {
			r.Use(otp.Middleware(ratelimit.ClientIP))
		}
		r.Post("/verify", h.HandleVerify)
		r.Post("/resend", h.HandleResend)
	})
	r.Post("/logout", h.HandleLogout)
	r.With(h.SessionMgr.RequireSignedIn).
		Post("/token", respond.Handle(h.Act.IssueToken, http.StatusOK, nil))
	return r
}
