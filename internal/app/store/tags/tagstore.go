package tagstore

import (
	"context"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/scoped"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateTagMessage is the Conflict message for a reused tag name.
const ErrDuplicateTagMessage = "A tag with this name already exists."

type Store struct {
	*scoped.Store[models.Tag]
}

func New(db *mongo.Database) *Store {
	return &Store{scoped.New[models.Tag](db, "tags", "Tag",
		scoped.SortBy(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}),
		scoped.OnDuplicate(ErrDuplicateTagMessage),
		scoped.Indexes(mongo.IndexModel{
			Keys:    bson.D{{Key: "study_group_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("uniq_tags_tenant_name").SetUnique(true),
		}),
	)}
}

func (s *Store) Create(ctx context.Context, t models.Tag) (models.Tag, error) {
	t.ID = primitive.NewObjectID()
	t.NameCI = text.Fold(t.Name)
	t.CreatedAt = time.Now().UTC()
	if err := s.Insert(ctx, t); err != nil {
		return models.Tag{}, err
	}
	return t, nil
}

// Save replaces t, refreshing NameCI.
func (s *Store) Save(ctx context.Context, t models.Tag) (models.Tag, error) {
	t.NameCI = text.Fold(t.Name)
	if err := s.Replace(ctx, t); err != nil {
		return models.Tag{}, err
	}
	return t, nil
}
