package notestore

import (
	"context"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/scoped"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	*scoped.ChildStore[models.Note]
}

func New(db *mongo.Database) *Store {
	return &Store{scoped.NewChild[models.Note](db, "notes", "Note")}
}

func (s *Store) Create(ctx context.Context, v models.Note) (models.Note, error) {
	now := time.Now().UTC()
	v.ID = primitive.NewObjectID()
	v.CreatedAt = now
	v.UpdatedAt = now
	if err := s.Insert(ctx, v); err != nil {
		return models.Note{}, err
	}
	return v, nil
}

// Save replaces v and refreshes UpdatedAt.
func (s *Store) Save(ctx context.Context, v models.Note) (models.Note, error) {
	v.UpdatedAt = time.Now().UTC()
	if err := s.Replace(ctx, v); err != nil {
		return models.Note{}, err
	}
	return v, nil
}
