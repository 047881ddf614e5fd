package studygroupstore

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/indexes"
	"github.com/dalemusser/studyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateSlug = errors.New("a study group with this slug already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("study_groups")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	return indexes.EnsureSet(ctx, s.c, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetName("uniq_study_groups_slug").SetUnique(true),
	}})
}

// Create inserts sg. An empty slug is derived from the name with a short
// random suffix so two groups may share a display name.
func (s *Store) Create(ctx context.Context, sg models.StudyGroup) (models.StudyGroup, error) {
	now := time.Now().UTC()
	sg.ID = primitive.NewObjectID()
	sg.NameCI = text.Fold(sg.Name)
	if sg.Slug == "" {
		sg.Slug = Slugify(sg.Name) + "-" + sg.ID.Hex()[18:]
	}
	if sg.Status == "" {
		sg.Status = models.StatusActive
	}
	sg.CreatedAt = now
	sg.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sg); err != nil {
		if wafflemongo.IsDup(err) {
			return models.StudyGroup{}, ErrDuplicateSlug
		}
		return models.StudyGroup{}, err
	}
	return sg, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.StudyGroup, error) {
	var sg models.StudyGroup
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.StudyGroup{}, apperr.NotFound("Study group not found.")
	}
	return sg, err
}

// UpdateProfile writes the editable profile fields of id.
func (s *Store) UpdateProfile(ctx context.Context, sg models.StudyGroup) (models.StudyGroup, error) {
	sg.NameCI = text.Fold(sg.Name)
	sg.UpdatedAt = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, sg.ID, bson.M{"$set": bson.M{
		"name":          sg.Name,
		"name_ci":       sg.NameCI,
		"billing_email": sg.BillingEmail,
		"website":       sg.Website,
		"description":   sg.Description,
		"updated_at":    sg.UpdatedAt,
	}})
	if err != nil {
		return models.StudyGroup{}, err
	}
	if res.MatchedCount == 0 {
		return models.StudyGroup{}, apperr.NotFound("Study group not found.")
	}
	return sg, nil
}

// Slugify lowercases name and joins its letters and digits with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "group"
	}
	return out
}
