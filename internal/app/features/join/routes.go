// internal/app/features/join/routes.go
package join

import (
	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes serves POST /join/{id}, limited per client IP.
func Routes(h *Handler, limit *ratelimit.Keyed) chi.Router {
	r := chi.NewRouter()
	if limit != nil {
		r.Use(limit.Middleware(ratelimit.ClientIP))
	}
	r.Post("/{id}", h.HandleJoin)
	return r
}
