package actions

import (
	"context"

	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/cachetags"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The helpers below implement the mutation pipeline once for every kind of
// document attached to a study set. Cache tags for children are keyed by
// the parent study set.

func addChild[T models.SetOwned](ctx context.Context, s *Service, repo ChildRepo[T], tenant, setID primitive.ObjectID, w cachetags.Write, doc T) (T, error) {
	var zero T
	if err := authorize(ctx, s.StudySets, tenant, setID, "Study set"); err != nil {
		return zero, err
	}
	v, err := repo.Create(ctx, doc)
	if err != nil {
		return zero, err
	}
	s.invalidate(w, tenant, setID)
	return v, nil
}

func editChild[T models.SetOwned](ctx context.Context, s *Service, repo EditableChildRepo[T], tenant, id primitive.ObjectID, label string, w cachetags.Write, edit func(*T)) (T, error) {
	var zero T
	if err := authorize(ctx, repo, tenant, id, label); err != nil {
		return zero, err
	}
	v, err := repo.Get(ctx, tenant, id)
	if err != nil {
		return zero, err
	}
	edit(&v)
	if v, err = repo.Save(ctx, v); err != nil {
		return zero, err
	}
	s.invalidate(w, tenant, v.SetID())
	return v, nil
}

// deleteChild removes id. A non-zero setID must be the study set that owns
// it, otherwise the child is reported as not found.
func deleteChild[T models.SetOwned](ctx context.Context, s *Service, repo ChildRepo[T], tenant, setID, id primitive.ObjectID, label string, w cachetags.Write) error {
	if err := authorize(ctx, repo, tenant, id, label); err != nil {
		return err
	}
	v, err := repo.Get(ctx, tenant, id)
	if err != nil {
		return err
	}
	if !setID.IsZero() && v.SetID() != setID {
		return apperr.NotFound(label + " not found.")
	}
	if err := repo.Delete(ctx, tenant, id); err != nil {
		return err
	}
	s.invalidate(w, tenant, v.SetID())
	return nil
}

func listChildren[T models.SetOwned](ctx context.Context, s *Service, repo ChildRepo[T], r cachetags.Read, kind cachetags.Kind, tenant primitive.ObjectID, setHex string) ([]T, error) {
	setID, err := oid("study_set_id", setHex)
	if err != nil {
		return nil, err
	}
	return read(ctx, s, r, kind, tenant, setID.Hex(), func(ctx context.Context) ([]T, error) {
		return repo.ListBySet(ctx, tenant, setID)
	})
}
