package commentstore

import (
	"context"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/scoped"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	*scoped.ChildStore[models.Comment]
}

func New(db *mongo.Database) *Store {
	return &Store{scoped.NewChild[models.Comment](db, "comments", "Comment")}
}

func (s *Store) Create(ctx context.Context, v models.Comment) (models.Comment, error) {
	now := time.Now().UTC()
	v.ID = primitive.NewObjectID()
	v.CreatedAt = now
	v.UpdatedAt = now
	if err := s.Insert(ctx, v); err != nil {
		return models.Comment{}, err
	}
	return v, nil
}

// Save replaces v and refreshes UpdatedAt.
func (s *Store) Save(ctx context.Context, v models.Comment) (models.Comment, error) {
	v.UpdatedAt = time.Now().UTC()
	if err := s.Replace(ctx, v); err != nil {
		return models.Comment{}, err
	}
	return v, nil
}
