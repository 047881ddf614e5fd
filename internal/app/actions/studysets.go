package actions

import (
	"context"
	"slices"

	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/cachetags"
	"github.com/dalemusser/studyhub/internal/app/system/normalize"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudySetView is a study set with its tags resolved.
type StudySetView struct {
	models.StudySet
	Tags     []models.Tag `json:"tags"`
	Favorite bool         `json:"favorite"`
}

func (s *Service) CreateStudySet(ctx context.Context, req action.Request[schema.CreateStudySetInput]) (models.StudySet, error) {
	in, tenant := req.Input, req.Session.StudyGroupID
	set, err := s.StudySets.Create(ctx, models.StudySet{
		StudyGroupID: tenant,
		Name:         normalize.Name(in.Name),
		Description:  normalize.Text(in.Description),
		Subject:      normalize.Name(in.Subject),
		Notes:        normalize.Text(in.Notes),
		CreatedByID:  req.Session.ID,
	})
	if err != nil {
		return models.StudySet{}, err
	}
	s.invalidate(cachetags.WriteCreateStudySet, tenant, set.ID)
	s.publish(ctx, tenant, models.EventStudySetCreated, set)
	return set, nil
}

func (s *Service) UpdateStudySetDetails(ctx context.Context, req action.Request[schema.UpdateStudySetDetailsInput]) (models.StudySet, error) {
	in, tenant := req.Input, req.Session.StudyGroupID
	id, err := oid("id", in.ID)
	if err != nil {
		return models.StudySet{}, err
	}
	if err := authorize(ctx, s.StudySets, tenant, id, "Study set"); err != nil {
		return models.StudySet{}, err
	}

	set, err := s.StudySets.UpdateDetails(ctx, tenant, id,
		normalize.Name(in.Name), normalize.Text(in.Description), normalize.Name(in.Subject))
	if err != nil {
		return models.StudySet{}, err
	}

	s.invalidate(cachetags.WriteUpdateStudySetDetails, tenant, id)
	s.publish(ctx, tenant, models.EventStudySetUpdated, set)
	return set, nil
}

// DeleteStudySet removes a study set together with its images, notes,
// comments and tasks in one transaction.
func (s *Service) DeleteStudySet(ctx context.Context, req action.Request[schema.IDInput]) (Done, error) {
	tenant := req.Session.StudyGroupID
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return Done{}, err
	}
	if err := authorize(ctx, s.StudySets, tenant, id, "Study set"); err != nil {
		return Done{}, err
	}

	err = s.Txn.Run(ctx, func(ctx context.Context) error {
		if _, err := s.Images.DeleteBySet(ctx, tenant, id); err != nil {
			return err
		}
		if _, err := s.Notes.DeleteBySet(ctx, tenant, id); err != nil {
			return err
		}
		if _, err := s.Comments.DeleteBySet(ctx, tenant, id); err != nil {
			return err
		}
		if _, err := s.Tasks.DeleteBySet(ctx, tenant, id); err != nil {
			return err
		}
		return s.StudySets.Delete(ctx, tenant, id)
	})
	if err != nil {
		return Done{}, err
	}

	s.invalidate(cachetags.WriteDeleteStudySet, tenant, id)
	s.publish(ctx, tenant, models.EventStudySetDeleted, map[string]string{"id": id.Hex()})
	return Done{}, nil
}

// SetStudySetTags replaces the tags on a study set. Every tag must belong
// to the caller's study group.
func (s *Service) SetStudySetTags(ctx context.Context, req action.Request[schema.SetStudySetTagsInput]) (models.StudySet, error) {
	tenant := req.Session.StudyGroupID
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return models.StudySet{}, err
	}
	if err := authorize(ctx, s.StudySets, tenant, id, "Study set"); err != nil {
		return models.StudySet{}, err
	}

	tagIDs := make([]primitive.ObjectID, 0, len(req.Input.TagIDs))
	for _, h := range req.Input.TagIDs {
		tid, err := oid("tag_ids", h)
		if err != nil {
			return models.StudySet{}, err
		}
		if !slices.Contains(tagIDs, tid) {
			tagIDs = append(tagIDs, tid)
		}
	}
	if len(tagIDs) > 0 {
		n, err := s.Tags.CountIDs(ctx, tenant, tagIDs)
		if err != nil {
			return models.StudySet{}, err
		}
		if n != int64(len(tagIDs)) {
			return models.StudySet{}, apperr.InvalidField("tag_ids", "contains an unknown tag")
		}
	}

	set, err := s.StudySets.SetTags(ctx, tenant, id, tagIDs)
	if err != nil {
		return models.StudySet{}, err
	}
	// A tag deleted between the check above and the write has already had
	// its pull run; pull it again so the set never keeps a dangling id.
	if len(tagIDs) > 0 {
		if set, err = s.dropDeletedTags(ctx, tenant, id, set, tagIDs); err != nil {
			return models.StudySet{}, err
		}
	}

	s.invalidate(cachetags.WriteSetStudySetTags, tenant, id)
	s.publish(ctx, tenant, models.EventStudySetUpdated, set)
	return set, nil
}

func (s *Service) dropDeletedTags(ctx context.Context, tenant, id primitive.ObjectID, set models.StudySet, tagIDs []primitive.ObjectID) (models.StudySet, error) {
	n, err := s.Tags.CountIDs(ctx, tenant, tagIDs)
	if err != nil || n == int64(len(tagIDs)) {
		return set, err
	}
	for _, tid := range tagIDs {
		c, err := s.Tags.Count(ctx, tenant, tid)
		if err != nil {
			return set, err
		}
		if c == 0 {
			if _, err := s.StudySets.PullTag(ctx, tenant, tid); err != nil {
				return set, err
			}
		}
	}
	return s.StudySets.Get(ctx, tenant, id)
}

// AddFavorite appends the favorite marker to the study set's notes. A set
// that is already a favorite is left untouched.
func (s *Service) AddFavorite(ctx context.Context, req action.Request[schema.IDInput]) (Done, error) {
	return s.toggleFavorite(ctx, req, true)
}

// RemoveFavorite strips every favorite marker from the study set's notes.
func (s *Service) RemoveFavorite(ctx context.Context, req action.Request[schema.IDInput]) (Done, error) {
	return s.toggleFavorite(ctx, req, false)
}

func (s *Service) toggleFavorite(ctx context.Context, req action.Request[schema.IDInput], on bool) (Done, error) {
	tenant := req.Session.StudyGroupID
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return Done{}, err
	}
	if err := authorize(ctx, s.StudySets, tenant, id, "Study set"); err != nil {
		return Done{}, err
	}

	var changed bool
	if on {
		changed, err = s.StudySets.MarkFavorite(ctx, tenant, id)
	} else {
		changed, err = s.StudySets.UnmarkFavorite(ctx, tenant, id)
	}
	if err != nil || !changed {
		return Done{}, err
	}

	w := cachetags.WriteAddFavorite
	if !on {
		w = cachetags.WriteRemoveFavorite
	}
	s.invalidate(w, tenant, id)
	return Done{}, nil
}

func (s *Service) ListStudySets(ctx context.Context, req action.Request[schema.NoInput]) ([]models.StudySet, error) {
	tenant := req.Session.StudyGroupID
	return read(ctx, s, cachetags.ReadListStudySets, cachetags.StudySets, tenant, "",
		func(ctx context.Context) ([]models.StudySet, error) {
			return s.StudySets.List(ctx, tenant)
		})
}

func (s *Service) GetStudySet(ctx context.Context, req action.Request[schema.IDInput]) (StudySetView, error) {
	tenant := req.Session.StudyGroupID
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return StudySetView{}, err
	}
	return read(ctx, s, cachetags.ReadGetStudySet, cachetags.StudySet, tenant, id.Hex(),
		func(ctx context.Context) (StudySetView, error) {
			set, err := s.StudySets.Get(ctx, tenant, id)
			if err != nil {
				return StudySetView{}, err
			}
			view := StudySetView{StudySet: set, Tags: []models.Tag{}, Favorite: set.IsFavorite()}
			if len(set.TagIDs) == 0 {
				return view, nil
			}
			all, err := s.Tags.List(ctx, tenant)
			if err != nil {
				return StudySetView{}, err
			}
			for _, t := range all {
				if slices.Contains(set.TagIDs, t.ID) {
					view.Tags = append(view.Tags, t)
				}
			}
			return view, nil
		})
}

func (s *Service) ListFavorites(ctx context.Context, req action.Request[schema.NoInput]) ([]models.StudySet, error) {
	tenant := req.Session.StudyGroupID
	return read(ctx, s, cachetags.ReadListFavorites, cachetags.Favorites, tenant, "",
		func(ctx context.Context) ([]models.StudySet, error) {
			return s.StudySets.ListFavorites(ctx, tenant)
		})
}
