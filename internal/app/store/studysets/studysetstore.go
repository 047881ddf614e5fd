package studysetstore

import (
	"context"
	"regexp"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/scoped"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	*scoped.Store[models.StudySet]
}

func New(db *mongo.Database) *Store {
	return &Store{scoped.New[models.StudySet](db, "study_sets", "Study set",
		scoped.Indexes(
			mongo.IndexModel{
				Keys:    bson.D{{Key: "study_group_id", Value: 1}, {Key: "name_ci", Value: 1}},
				Options: options.Index().SetName("idx_study_sets_tenant_name"),
			},
			mongo.IndexModel{
				Keys:    bson.D{{Key: "study_group_id", Value: 1}, {Key: "tag_ids", Value: 1}},
				Options: options.Index().SetName("idx_study_sets_tenant_tags"),
			},
		),
	)}
}

// Create assigns an ID and timestamps and inserts s.
func (s *Store) Create(ctx context.Context, set models.StudySet) (models.StudySet, error) {
	now := time.Now().UTC()
	set.ID = primitive.NewObjectID()
	set.NameCI = text.Fold(set.Name)
	set.CreatedAt = now
	set.UpdatedAt = now
	if err := s.Insert(ctx, set); err != nil {
		return models.StudySet{}, err
	}
	return set, nil
}

// UpdateDetails sets the name, description and subject of id. Notes and
// tags are only written by their own operations.
func (s *Store) UpdateDetails(ctx context.Context, tenant, id primitive.ObjectID, name, description, subject string) (models.StudySet, error) {
	return s.FindAndUpdate(ctx, tenant, id, bson.M{"$set": bson.M{
		"name":        name,
		"name_ci":     text.Fold(name),
		"description": description,
		"subject":     subject,
		"updated_at":  time.Now().UTC(),
	}})
}

// SetTags replaces the tag ids of id.
func (s *Store) SetTags(ctx context.Context, tenant, id primitive.ObjectID, tagIDs []primitive.ObjectID) (models.StudySet, error) {
	if tagIDs == nil {
		tagIDs = []primitive.ObjectID{}
	}
	return s.FindAndUpdate(ctx, tenant, id, bson.M{"$set": bson.M{
		"tag_ids":    tagIDs,
		"updated_at": time.Now().UTC(),
	}})
}

var favoriteRegex = primitive.Regex{Pattern: regexp.QuoteMeta(models.FavoriteMarker)}

// MarkFavorite appends the favorite marker to the notes of id in a single
// update. It reports false when the set already carried the marker.
func (s *Store) MarkFavorite(ctx context.Context, tenant, id primitive.ObjectID) (bool, error) {
	filter := scoped.Filter(tenant, id)
	filter["notes"] = bson.M{"$not": favoriteRegex}
	res, err := s.Collection().UpdateOne(ctx, filter, bson.A{
		bson.M{"$set": bson.M{
			"notes": bson.M{"$trim": bson.M{"input": bson.M{"$concat": bson.A{
				bson.M{"$ifNull": bson.A{"$notes", ""}}, " ", models.FavoriteMarker,
			}}}},
			"updated_at": time.Now().UTC(),
		}},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// UnmarkFavorite strips every favorite marker from the notes of id in a
// single update. It reports false when there was none.
func (s *Store) UnmarkFavorite(ctx context.Context, tenant, id primitive.ObjectID) (bool, error) {
	filter := scoped.Filter(tenant, id)
	filter["notes"] = favoriteRegex
	stripped := bson.M{"$replaceAll": bson.M{
		"input":       bson.M{"$replaceAll": bson.M{"input": "$notes", "find": " " + models.FavoriteMarker, "replacement": ""}},
		"find":        models.FavoriteMarker,
		"replacement": "",
	}}
	res, err := s.Collection().UpdateOne(ctx, filter, bson.A{
		bson.M{"$set": bson.M{
			"notes":      bson.M{"$trim": bson.M{"input": stripped}},
			"updated_at": time.Now().UTC(),
		}},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ListFavorites returns the tenant's study sets carrying the favorite marker.
func (s *Store) ListFavorites(ctx context.Context, tenant primitive.ObjectID) ([]models.StudySet, error) {
	return s.ListWhere(ctx, tenant, bson.M{"notes": favoriteRegex})
}

// CountFavorites counts the tenant's favorite study sets.
func (s *Store) CountFavorites(ctx context.Context, tenant primitive.ObjectID) (int64, error) {
	return s.CountWhere(ctx, tenant, bson.M{"notes": favoriteRegex})
}

// PullTag removes tagID from every study set in tenant.
func (s *Store) PullTag(ctx context.Context, tenant, tagID primitive.ObjectID) (int64, error) {
	res, err := s.Collection().UpdateMany(ctx,
		bson.M{"study_group_id": tenant, "tag_ids": tagID},
		bson.M{
			"$pull": bson.M{"tag_ids": tagID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
