// Package studygroup serves the study group profile and its administration:
// webhooks, invitations and the audit trail. Everything except reading the
// profile requires an owner or admin.
package studygroup

import (
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/actions"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/paging"
	"github.com/dalemusser/studyhub/internal/app/system/respond"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

var managers = []string{models.RoleOwner, models.RoleAdmin}

func bindID(r *http.Request, in *schema.IDInput) { in.ID = chi.URLParam(r, "id") }

func bindWebhook(r *http.Request, in *schema.WebhookInput) { in.ID = chi.URLParam(r, "id") }

func clearWebhookID(_ *http.Request, in *schema.WebhookInput) { in.ID = "" }

func bindAuditQuery(r *http.Request, in *schema.AuditQuery) {
	in.Before = paging.ParseBefore(r)
	in.Limit = paging.ParseLimit(r)
}

// Routes serves /studygroup.
func Routes(a *actions.Actions, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", respond.Handle(a.GetStudyGroup, http.StatusOK, nil))
	r.With(sm.RequireRole(managers...)).
		Post("/edit", respond.Handle(a.UpdateStudyGroup, http.StatusOK, nil))
	r.With(sm.RequireRole(managers...)).
		Get("/audit", respond.Handle(a.ListAuditEvents, http.StatusOK, bindAuditQuery))
	return r
}

// WebhookRoutes serves /webhooks.
func WebhookRoutes(a *actions.Actions, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(managers...))
	r.Get("/", respond.Handle(a.ListWebhooks, http.StatusOK, nil))
	r.Post("/", respond.Handle(a.CreateWebhook, http.StatusCreated, clearWebhookID))
	r.Post("/{id}/edit", respond.Handle(a.UpdateWebhook, http.StatusOK, bindWebhook))
	r.Post("/{id}/delete", respond.Handle(a.DeleteWebhook, http.StatusOK, bindID))
	return r
}

// InvitationRoutes serves /invitations.
func InvitationRoutes(a *actions.Actions, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(managers...))
	r.Get("/", respond.Handle(a.ListInvitations, http.StatusOK, nil))
	r.Post("/", respond.Handle(a.CreateInvitation, http.StatusCreated, nil))
	r.Post("/{id}/resend", respond.Handle(a.ResendInvitation, http.StatusOK, bindID))
	r.Post("/{id}/delete", respond.Handle(a.DeleteInvitation, http.StatusOK, bindID))
	return r
}

// DashboardRoutes serves GET /dashboard.
func DashboardRoutes(a *actions.Actions, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", respond.Handle(a.DashboardSummary, http.StatusOK, nil))
	return r
}
