package taskstore

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
	*scoped.ChildStore[models.Task]
}

func New(db *mongo.Database) *Store {
	return &Store{scoped.NewChild[models.Task](db, "tasks", "Task",
		scoped.Indexes(mongo.IndexModel{
			Keys:    bson.D{{Key: "study_group_id", Value: 1}, {Key: "done", Value: 1}, {Key: "due_at", Value: 1}},
			Options: options.Index().SetName("idx_tasks_tenant_open"),
		}),
	)}
}

func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.Insert(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Save replaces t and refreshes UpdatedAt.
func (s *Store) Save(ctx context.Context, t models.Task) (models.Task, error) {
	t.UpdatedAt = time.Now().UTC()
	if err := s.Replace(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// CountOpen counts tasks in tenant that are not done.
func (s *Store) CountOpen(ctx context.Context, tenant primitive.ObjectID) (int64, error) {
	return s.CountWhere(ctx, tenant, bson.M{"done": false})
}

// CountOverdue counts open tasks in tenant due before now.
func (s *Store) CountOverdue(ctx context.Context, tenant primitive.ObjectID, now time.Time) (int64, error) {
	return s.CountWhere(ctx, tenant, bson.M{"done": false, "due_at": bson.M{"$lt": now}})
}
