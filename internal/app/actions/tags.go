package actions

import (
	"context"
	"strings"

	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/cachetags"
	"github.com/dalemusser/studyhub/internal/app/system/normalize"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
)

func (s *Service) CreateTag(ctx context.Context, req action.Request[schema.TagInput]) (models.Tag, error) {
	tenant := req.Session.StudyGroupID
	t, err := s.Tags.Create(ctx, models.Tag{
		StudyGroupID: tenant,
		Name:         normalize.Name(req.Input.Name),
		Color:        strings.ToLower(req.Input.Color),
	})
	if err != nil {
		return models.Tag{}, err
	}
	s.invalidate(cachetags.WriteCreateTag, tenant, t.ID)
	return t, nil
}

func (s *Service) UpdateTag(ctx context.Context, req action.Request[schema.TagInput]) (models.Tag, error) {
	tenant := req.Session.StudyGroupID
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return models.Tag{}, err
	}
	if err := authorize(ctx, s.Tags, tenant, id, "Tag"); err != nil {
		return models.Tag{}, err
	}
	t, err := s.Tags.Get(ctx, tenant, id)
	if err != nil {
		return models.Tag{}, err
	}
	t.Name = normalize.Name(req.Input.Name)
	t.Color = strings.ToLower(req.Input.Color)
	if t, err = s.Tags.Save(ctx, t); err != nil {
		return models.Tag{}, err
	}
	s.invalidate(cachetags.WriteUpdateTag, tenant, id)
	return t, nil
}

// DeleteTag removes a tag and pulls it from every study set that carries
// it, in one transaction.
func (s *Service) DeleteTag(ctx context.Context, req action.Request[schema.IDInput]) (Done, error) {
	tenant := req.Session.StudyGroupID
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return Done{}, err
	}
	if err := authorize(ctx, s.Tags, tenant, id, "Tag"); err != nil {
		return Done{}, err
	}
	err = s.Txn.Run(ctx, func(ctx context.Context) error {
		if _, err := s.StudySets.PullTag(ctx, tenant, id); err != nil {
			return err
		}
		return s.Tags.Delete(ctx, tenant, id)
	})
	if err != nil {
		return Done{}, err
	}
	s.invalidate(cachetags.WriteDeleteTag, tenant, id)
	return Done{}, nil
}

func (s *Service) ListTags(ctx context.Context, req action.Request[schema.NoInput]) ([]models.Tag, error) {
	tenant := req.Session.StudyGroupID
	return read(ctx, s, cachetags.ReadListTags, cachetags.Tags, tenant, "",
		func(ctx context.Context) ([]models.Tag, error) {
			return s.Tags.List(ctx, tenant)
		})
}
