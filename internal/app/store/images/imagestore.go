package imagestore

import (
	"context"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/scoped"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	*scoped.ChildStore[models.StudySetImage]
}

func New(db *mongo.Database) *Store {
	return &Store{scoped.NewChild[models.StudySetImage](db, "study_set_images", "Image")}
}

func (s *Store) Create(ctx context.Context, img models.StudySetImage) (models.StudySetImage, error) {
	img.ID = primitive.NewObjectID()
	img.CreatedAt = time.Now().UTC()
	if err := s.Insert(ctx, img); err != nil {
		return models.StudySetImage{}, err
	}
	return img, nil
}
