package scoped

import (
	"context"

	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChildStore is a Store for documents attached to a study set.
type ChildStore[T models.SetOwned] struct {
	*Store[T]
}

// NewChild creates a ChildStore. Lists by set are oldest first.
func NewChild[T models.SetOwned](db *mongo.Database, collection, label string, opts ...Option) *ChildStore[T] {
	name := "idx_" + collection + "_tenant_set"
	opts = append([]Option{
		SortBy(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
		Indexes(mongo.IndexModel{
			Keys:    bson.D{{Key: "study_group_id", Value: 1}, {Key: "study_set_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName(name),
		}),
	}, opts...)
	return &ChildStore[T]{Store: New[T](db, collection, label, opts...)}
}

// ListBySet returns the children of setID within tenant.
func (s *ChildStore[T]) ListBySet(ctx context.Context, tenant, setID primitive.ObjectID) ([]T, error) {
	return s.ListWhere(ctx, tenant, bson.M{"study_set_id": setID})
}

// DeleteBySet removes every child of setID within tenant. Pass the
// transaction context when deleting alongside the parent.
func (s *ChildStore[T]) DeleteBySet(ctx context.Context, tenant, setID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"study_group_id": tenant, "study_set_id": setID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
