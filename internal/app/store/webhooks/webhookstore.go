package webhookstore

import (
	"context"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/scoped"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	*scoped.Store[models.Webhook]
}

func New(db *mongo.Database) *Store {
	return &Store{scoped.New[models.Webhook](db, "webhooks", "Webhook",
		scoped.Indexes(mongo.IndexModel{
			Keys:    bson.D{{Key: "study_group_id", Value: 1}, {Key: "active", Value: 1}},
			Options: options.Index().SetName("idx_webhooks_tenant_active"),
		}),
	)}
}

// Create assigns an ID and timestamps and inserts w. The caller supplies
// the signing secret.
func (s *Store) Create(ctx context.Context, w models.Webhook) (models.Webhook, error) {
	now := time.Now().UTC()
	w.ID = primitive.NewObjectID()
	w.CreatedAt = now
	w.UpdatedAt = now
	if err := s.Insert(ctx, w); err != nil {
		return models.Webhook{}, err
	}
	return w, nil
}

func (s *Store) Save(ctx context.Context, w models.Webhook) (models.Webhook, error) {
	w.UpdatedAt = time.Now().UTC()
	if err := s.Replace(ctx, w); err != nil {
		return models.Webhook{}, err
	}
	return w, nil
}

// ListActive returns the tenant's active webhooks. The dispatcher filters
// them by event.
func (s *Store) ListActive(ctx context.Context, tenant primitive.ObjectID) ([]models.Webhook, error) {
	return s.ListWhere(ctx, tenant, bson.M{"active": true})
}
