// internal/app/features/studysets/handler.go
package studysets

import (
	"net/http"

	"github.com/dalemusser/studyhub/internal/app/actions"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves study sets, favorites and everything attached to a set.
type Handler struct {
	Act *actions.Actions
	Log *zap.Logger
}

// NewHandler constructs a study set Handler.
func NewHandler(act *actions.Actions, logger *zap.Logger) *Handler {
	return &Handler{Act: act, Log: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| URL binding                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func bindID(r *http.Request, in *schema.IDInput) { in.ID = chi.URLParam(r, "id") }

func bindImageID(r *http.Request, in *schema.ImageRef) {
	in.StudySetID = chi.URLParam(r, "id")
	in.ID = chi.URLParam(r, "imageID")
}

func bindDetails(r *http.Request, in *schema.UpdateStudySetDetailsInput) {
	in.ID = chi.URLParam(r, "id")
}

func bindTags(r *http.Request, in *schema.SetStudySetTagsInput) { in.ID = chi.URLParam(r, "id") }

func bindRef(r *http.Request, in *schema.StudySetRef) { in.StudySetID = chi.URLParam(r, "id") }

func bindImage(r *http.Request, in *schema.AddImageInput) { in.StudySetID = chi.URLParam(r, "id") }

func bindBody(r *http.Request, in *schema.CreateBodyInput) { in.StudySetID = chi.URLParam(r, "id") }

func bindTask(r *http.Request, in *schema.CreateTaskInput) { in.StudySetID = chi.URLParam(r, "id") }
