// Package attachments serves edits and deletes of notes, comments and
// tasks addressed by their own id. Creation and listing live under the
// parent study set.
package attachments

import (
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/actions"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/respond"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/go-chi/chi/v5"
)

func bindID(r *http.Request, in *schema.IDInput) { in.ID = chi.URLParam(r, "id") }

func bindEdit(r *http.Request, in *schema.EditBodyInput) { in.ID = chi.URLParam(r, "id") }

func bindTask(r *http.Request, in *schema.UpdateTaskInput) { in.ID = chi.URLParam(r, "id") }

func signedIn(sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	return r
}

// NotesRoutes serves /notes/{id}/edit and /notes/{id}/delete.
func NotesRoutes(a *actions.Actions, sm *auth.SessionManager) chi.Router {
	r := signedIn(sm)
	r.Post("/{id}/edit", respond.Handle(a.UpdateNote, http.StatusOK, bindEdit))
	r.Post("/{id}/delete", respond.Handle(a.DeleteNote, http.StatusOK, bindID))
	return r
}

// CommentsRoutes serves /comments/{id}/edit and /comments/{id}/delete.
func CommentsRoutes(a *actions.Actions, sm *auth.SessionManager) chi.Router {
	r := signedIn(sm)
	r.Post("/{id}/edit", respond.Handle(a.UpdateComment, http.StatusOK, bindEdit))
	r.Post("/{id}/delete", respond.Handle(a.DeleteComment, http.StatusOK, bindID))
	return r
}

// TasksRoutes serves /tasks/{id}/edit and /tasks/{id}/delete.
func TasksRoutes(a *actions.Actions, sm *auth.SessionManager) chi.Router {
	r := signedIn(sm)
	r.Post("/{id}/edit", respond.Handle(a.UpdateTask, http.StatusOK, bindTask))
	r.Post("/{id}/delete", respond.Handle(a.DeleteTask, http.StatusOK, bindID))
	return r
}
