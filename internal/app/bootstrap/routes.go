// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	attachmentsfeature "github.com/dalemusser/studyhub/internal/app/features/attachments"
	authnfeature "github.com/dalemusser/studyhub/internal/app/features/authn"
	healthfeature "github.com/dalemusser/studyhub/internal/app/features/health"
	joinfeature "github.com/dalemusser/studyhub/internal/app/features/join"
	studygroupfeature "github.com/dalemusser/studyhub/internal/app/features/studygroup"
	studysetsfeature "github.com/dalemusser/studyhub/internal/app/features/studysets"
	tagsfeature "github.com/dalemusser/studyhub/internal/app/features/tags"
	"github.com/dalemusser/studyhub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for StudyHub.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed, so every service is already built. All routes
// run under the session middleware, which loads the signed-in user (from
// the session cookie or a Bearer token) into the request context.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if deps.svc == nil || deps.svc.actions == nil {
		return nil, fmt.Errorf("build handler: services not initialized (Startup did not run)")
	}
	return newRouter(healthfeature.NewHandler(deps.MongoClient, logger), deps.svc, logger), nil
}

func newRouter(health *healthfeature.Handler, svc *services, logger *zap.Logger) chi.Router {
	sm := svc.sessions
	act := svc.actions

	r := chi.NewRouter()
	r.Use(auditlog.Middleware)
	r.Use(sm.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(health))

	// Authentication
	authHandler := authnfeature.NewHandler(act, sm, svc.pending, svc.loginLimiter, svc.audit, svc.errLog, logger)
	r.Mount("/auth", authnfeature.Routes(authHandler, svc.otpLimiter))

	// Invitation acceptance (public)
	joinHandler := joinfeature.NewHandler(act, sm, svc.audit, svc.errLog, logger)
	r.Mount("/join", joinfeature.Routes(joinHandler, svc.joinLimiter))

	// Study sets and favorites
	setsHandler := studysetsfeature.NewHandler(act, logger)
	r.Mount("/studysets", studysetsfeature.Routes(setsHandler, sm))
	r.Mount("/favorites", studysetsfeature.FavoritesRoutes(setsHandler, sm))

	// Attachments addressed by their own id
	r.Mount("/notes", attachmentsfeature.NotesRoutes(act, sm))
	r.Mount("/comments", attachmentsfeature.CommentsRoutes(act, sm))
	r.Mount("/tasks", attachmentsfeature.TasksRoutes(act, sm))

	r.Mount("/tags", tagsfeature.Routes(act, sm))

	// Study group administration
	r.Mount("/studygroup", studygroupfeature.Routes(act, sm))
	r.Mount("/webhooks", studygroupfeature.WebhookRoutes(act, sm))
	r.Mount("/invitations", studygroupfeature.InvitationRoutes(act, sm))
	r.Mount("/dashboard", studygroupfeature.DashboardRoutes(act, sm))

	return r
}
