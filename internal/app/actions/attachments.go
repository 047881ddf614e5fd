package actions

import (
	"context"

	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/cachetags"
	"github.com/dalemusser/studyhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studyhub/internal/app/system/normalize"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Images                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (s *Service) AddImage(ctx context.Context, req action.Request[schema.AddImageInput]) (models.StudySetImage, error) {
	tenant := req.Session.StudyGroupID
	setID, err := oid("study_set_id", req.Input.StudySetID)
	if err != nil {
		return models.StudySetImage{}, err
	}
	return addChild[models.StudySetImage](ctx, s, s.Images, tenant, setID, cachetags.WriteAddImage, models.StudySetImage{
		StudyGroupID: tenant,
		StudySetID:   setID,
		URL:          normalize.Text(req.Input.URL),
		Caption:      htmlsanitize.PlainText(req.Input.Caption),
	})
}

func (s *Service) DeleteImage(ctx context.Context, req action.Request[schema.ImageRef]) (Done, error) {
	setID, err := oid("study_set_id", req.Input.StudySetID)
	if err != nil {
		return Done{}, err
	}
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return Done{}, err
	}
	return Done{}, deleteChild[models.StudySetImage](ctx, s, s.Images, req.Session.StudyGroupID, setID, id, "Image", cachetags.WriteDeleteImage)
}

func (s *Service) ListImages(ctx context.Context, req action.Request[schema.StudySetRef]) ([]models.StudySetImage, error) {
	return listChildren[models.StudySetImage](ctx, s, s.Images, cachetags.ReadListImages, cachetags.Images, req.Session.StudyGroupID, req.Input.StudySetID)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Notes                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// cleanBody sanitizes rich text and rejects bodies that sanitize to nothing.
func cleanBody(body string) (string, error) {
	out := normalize.Text(htmlsanitize.Sanitize(body))
	if out == "" {
		return "", apperr.InvalidField("body", "cannot be blank")
	}
	return out, nil
}

func (s *Service) CreateNote(ctx context.Context, req action.Request[schema.CreateBodyInput]) (models.Note, error) {
	tenant := req.Session.StudyGroupID
	setID, err := oid("study_set_id", req.Input.StudySetID)
	if err != nil {
		return models.Note{}, err
	}
	body, err := cleanBody(req.Input.Body)
	if err != nil {
		return models.Note{}, err
	}
	n, err := addChild[models.Note](ctx, s, s.Notes, tenant, setID, cachetags.WriteCreateNote, models.Note{
		StudyGroupID: tenant,
		StudySetID:   setID,
		AuthorID:     req.Session.ID,
		Body:         body,
	})
	if err != nil {
		return models.Note{}, err
	}
	s.publish(ctx, tenant, models.EventNoteCreated, n)
	return n, nil
}

func (s *Service) UpdateNote(ctx context.Context, req action.Request[schema.EditBodyInput]) (models.Note, error) {
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return models.Note{}, err
	}
	body, err := cleanBody(req.Input.Body)
	if err != nil {
		return models.Note{}, err
	}
	return editChild[models.Note](ctx, s, s.Notes, req.Session.StudyGroupID, id, "Note", cachetags.WriteUpdateNote,
		func(n *models.Note) { n.Body = body })
}

func (s *Service) DeleteNote(ctx context.Context, req action.Request[schema.IDInput]) (Done, error) {
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return Done{}, err
	}
	return Done{}, deleteChild[models.Note](ctx, s, s.Notes, req.Session.StudyGroupID, primitive.NilObjectID, id, "Note", cachetags.WriteDeleteNote)
}

func (s *Service) ListNotes(ctx context.Context, req action.Request[schema.StudySetRef]) ([]models.Note, error) {
	return listChildren[models.Note](ctx, s, s.Notes, cachetags.ReadListNotes, cachetags.Notes, req.Session.StudyGroupID, req.Input.StudySetID)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Comments                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (s *Service) CreateComment(ctx context.Context, req action.Request[schema.CreateBodyInput]) (models.Comment, error) {
	tenant := req.Session.StudyGroupID
	setID, err := oid("study_set_id", req.Input.StudySetID)
	if err != nil {
		return models.Comment{}, err
	}
	body, err := cleanBody(req.Input.Body)
	if err != nil {
		return models.Comment{}, err
	}
	c, err := addChild[models.Comment](ctx, s, s.Comments, tenant, setID, cachetags.WriteCreateComment, models.Comment{
		StudyGroupID: tenant,
		StudySetID:   setID,
		AuthorID:     req.Session.ID,
		Body:         body,
	})
	if err != nil {
		return models.Comment{}, err
	}
	s.publish(ctx, tenant, models.EventCommentCreated, c)
	return c, nil
}

func (s *Service) UpdateComment(ctx context.Context, req action.Request[schema.EditBodyInput]) (models.Comment, error) {
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return models.Comment{}, err
	}
	body, err := cleanBody(req.Input.Body)
	if err != nil {
		return models.Comment{}, err
	}
	return editChild[models.Comment](ctx, s, s.Comments, req.Session.StudyGroupID, id, "Comment", cachetags.WriteUpdateComment,
		func(c *models.Comment) { c.Body = body })
}

func (s *Service) DeleteComment(ctx context.Context, req action.Request[schema.IDInput]) (Done, error) {
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return Done{}, err
	}
	return Done{}, deleteChild[models.Comment](ctx, s, s.Comments, req.Session.StudyGroupID, primitive.NilObjectID, id, "Comment", cachetags.WriteDeleteComment)
}

func (s *Service) ListComments(ctx context.Context, req action.Request[schema.StudySetRef]) ([]models.Comment, error) {
	return listChildren[models.Comment](ctx, s, s.Comments, cachetags.ReadListComments, cachetags.Comments, req.Session.StudyGroupID, req.Input.StudySetID)
}
