// internal/app/features/tags/routes.go
package tags

import (
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/actions"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/respond"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/go-chi/chi/v5"
)

func bindID(r *http.Request, in *schema.IDInput) { in.ID = chi.URLParam(r, "id") }

// bindTag takes the id from the URL only, so an edit cannot be turned into
// a create by omitting it from the path.
func bindTag(r *http.Request, in *schema.TagInput) { in.ID = chi.URLParam(r, "id") }

func clearID(_ *http.Request, in *schema.TagInput) { in.ID = "" }

// Routes serves /tags.
func Routes(a *actions.Actions, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", respond.Handle(a.ListTags, http.StatusOK, nil))
	r.Post("/", respond.Handle(a.CreateTag, http.StatusCreated, clearID))
	r.Post("/{id}/edit", respond.Handle(a.UpdateTag, http.StatusOK, bindTag))
	r.Post("/{id}/delete", respond.Handle(a.DeleteTag, http.StatusOK, bindID))
	return r
}
