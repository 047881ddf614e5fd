// Package scoped is the tenant-scoped Mongo store shared by every
// collection whose documents belong to one study group. Every query and
// write filters on study_group_id, so a caller can never read or change
// another tenant's document by guessing its id.
package scoped

import (
	"context"
	"errors"

	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/indexes"
	"github.com/dalemusser/studyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads and writes documents of type T in one collection.
type Store[T models.TenantOwned] struct {
	c     *mongo.Collection
	label string // e.g. "Study set", used in user-facing errors
	sort  bson.D // default List order
	dup   string // Conflict message for duplicate-key errors
	idx   []mongo.IndexModel
}

// Option customizes a Store.
type Option func(*storeOpts)

type storeOpts struct {
	sort bson.D
	dup  string
	idx  []mongo.IndexModel
}

// SortBy sets the default List order.
func SortBy(s bson.D) Option { return func(o *storeOpts) { o.sort = s } }

// OnDuplicate sets the Conflict message returned for duplicate keys.
func OnDuplicate(msg string) Option { return func(o *storeOpts) { o.dup = msg } }

// Indexes adds collection-specific indexes to EnsureIndexes.
func Indexes(m ...mongo.IndexModel) Option { return func(o *storeOpts) { o.idx = append(o.idx, m...) } }

// New creates a Store over db.collection. label names the entity in
// NotFound messages.
func New[T models.TenantOwned](db *mongo.Database, collection, label string, opts ...Option) *Store[T] {
	o := storeOpts{
		sort: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		dup:  label + " already exists.",
	}
	for _, fn := range opts {
		fn(&o)
	}
	return &Store[T]{c: db.Collection(collection), label: label, sort: o.sort, dup: o.dup, idx: o.idx}
}

// Collection exposes the underlying collection to wrapping stores.
func (s *Store[T]) Collection() *mongo.Collection { return s.c }

// NotFound is the error returned for a missing or foreign document.
func (s *Store[T]) NotFound() error { return apperr.NotFound(s.label + " not found.") }

// Filter returns the tenant-scoped filter for id.
func Filter(tenant, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "study_group_id": tenant}
}

// EnsureIndexes creates the tenant index plus any configured indexes.
func (s *Store[T]) EnsureIndexes(ctx context.Context) error {
	want := append([]mongo.IndexModel{{
		Keys:    bson.D{{Key: "study_group_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_" + s.c.Name() + "_tenant_created"),
	}}, s.idx...)
	return indexes.EnsureSet(ctx, s.c, want)
}

// Count returns how many documents match id within tenant (0 or 1). It is
// the authorization check every mutation runs first.
func (s *Store[T]) Count(ctx context.Context, tenant, id primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, Filter(tenant, id))
}

// CountIDs returns how many of ids exist within tenant.
func (s *Store[T]) CountIDs(ctx context.Context, tenant primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}, "study_group_id": tenant})
}

// CountAll returns the number of documents in tenant.
func (s *Store[T]) CountAll(ctx context.Context, tenant primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"study_group_id": tenant})
}

// CountWhere counts tenant documents matching extra.
func (s *Store[T]) CountWhere(ctx context.Context, tenant primitive.ObjectID, extra bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, s.scope(tenant, extra))
}

// Get loads id within tenant.
func (s *Store[T]) Get(ctx context.Context, tenant, id primitive.ObjectID) (T, error) {
	var doc T
	err := s.c.FindOne(ctx, Filter(tenant, id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, s.NotFound()
	}
	return doc, err
}

// List returns every tenant document in the default order.
func (s *Store[T]) List(ctx context.Context, tenant primitive.ObjectID) ([]T, error) {
	return s.ListWhere(ctx, tenant, nil)
}

// ListWhere returns tenant documents matching extra in the default order.
func (s *Store[T]) ListWhere(ctx context.Context, tenant primitive.ObjectID, extra bson.M) ([]T, error) {
	cur, err := s.c.Find(ctx, s.scope(tenant, extra), options.Find().SetSort(s.sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert stores doc. Duplicate keys become Conflict.
func (s *Store[T]) Insert(ctx context.Context, doc T) error {
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Conflict(s.dup)
		}
		return err
	}
	return nil
}

// Replace overwrites doc, matched by its id and tenant.
func (s *Store[T]) Replace(ctx context.Context, doc T) error {
	res, err := s.c.ReplaceOne(ctx, Filter(doc.TenantID(), doc.DocID()), doc)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Conflict(s.dup)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return s.NotFound()
	}
	return nil
}

// Update applies a $set to id within tenant.
func (s *Store[T]) Update(ctx context.Context, tenant, id primitive.ObjectID, set bson.M) error {
	res, err := s.c.UpdateOne(ctx, Filter(tenant, id), bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Conflict(s.dup)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return s.NotFound()
	}
	return nil
}

// FindAndUpdate applies update to id within tenant and returns the
// document as it is after the update.
func (s *Store[T]) FindAndUpdate(ctx context.Context, tenant, id primitive.ObjectID, update any) (T, error) {
	var out T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, Filter(tenant, id), update, opts).Decode(&out)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return out, s.NotFound()
	case err != nil && wafflemongo.IsDup(err):
		return out, apperr.Conflict(s.dup)
	}
	return out, err
}

// Delete removes id within tenant.
func (s *Store[T]) Delete(ctx context.Context, tenant, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, Filter(tenant, id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return s.NotFound()
	}
	return nil
}

func (s *Store[T]) scope(tenant primitive.ObjectID, extra bson.M) bson.M {
	f := bson.M{"study_group_id": tenant}
	for k, v := range extra {
		if k == "study_group_id" {
			continue
		}
		f[k] = v
	}
	return f
}
