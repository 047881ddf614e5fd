// internal/app/features/studysets/routes.go
package studysets

import (
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
)

// Routes serves everything under /studysets.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	a := h.Act
	r.Get("/", respond.Handle(a.ListStudySets, http.StatusOK, nil))
	r.Post("/", respond.Handle(a.CreateStudySet, http.StatusCreated, nil))

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", respond.Handle(a.GetStudySet, http.StatusOK, bindID))
		r.Post("/edit", respond.Handle(a.UpdateStudySetDetails, http.StatusOK, bindDetails))
		r.Post("/delete", respond.Handle(a.DeleteStudySet, http.StatusOK, bindID))
		r.Post("/tags", respond.Handle(a.SetStudySetTags, http.StatusOK, bindTags))
		r.Post("/favorite", respond.Handle(a.AddFavorite, http.StatusOK, bindID))
		r.Post("/unfavorite", respond.Handle(a.RemoveFavorite, http.StatusOK, bindID))

		r.Get("/images", respond.Handle(a.ListImages, http.StatusOK, bindRef))
		r.Post("/images", respond.Handle(a.AddImage, http.StatusCreated, bindImage))
		r.Post("/images/{imageID}/delete", respond.Handle(a.DeleteImage, http.StatusOK, bindImageID))

		r.Get("/notes", respond.Handle(a.ListNotes, http.StatusOK, bindRef))
		r.Post("/notes", respond.Handle(a.CreateNote, http.StatusCreated, bindBody))
		r.Get("/comments", respond.Handle(a.ListComments, http.StatusOK, bindRef))
		r.Post("/comments", respond.Handle(a.CreateComment, http.StatusCreated, bindBody))
		r.Get("/tasks", respond.Handle(a.ListTasks, http.StatusOK, bindRef))
		r.Post("/tasks", respond.Handle(a.CreateTask, http.StatusCreated, bindTask))
	})
	return r
}

// FavoritesRoutes serves GET /favorites.
func FavoritesRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", respond.Handle(h.Act.ListFavorites, http.StatusOK, nil))
	return r
}
