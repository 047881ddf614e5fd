// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	auditstore "github.com/dalemusser/studyhub/internal/app/store/audit"
	commentstore "github.com/dalemusser/studyhub/internal/app/store/comments"
	"github.com/dalemusser/studyhub/internal/app/store/emailverify"
	imagestore "github.com/dalemusser/studyhub/internal/app/store/images"
	invitationstore "github.com/dalemusser/studyhub/internal/app/store/invitations"
	notestore "github.com/dalemusser/studyhub/internal/app/store/notes"
	sessionstore "github.com/dalemusser/studyhub/internal/app/store/sessions"
	studygroupstore "github.com/dalemusser/studyhub/internal/app/store/studygroups"
	studysetstore "github.com/dalemusser/studyhub/internal/app/store/studysets"
	tagstore "github.com/dalemusser/studyhub/internal/app/store/tags"
	taskstore "github.com/dalemusser/studyhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	webhookstore "github.com/dalemusser/studyhub/internal/app/store/webhooks"
	"github.com/dalemusser/studyhub/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// ConnectDB opens the MongoDB client and verifies it with a ping. The
// client is owned by DBDeps and closed in Shutdown.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("studyhub")
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		svc:           &services{},
	}, nil
}

// EnsureSchema creates every collection's indexes. It is idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return ensureIndexes(ctx, deps.MongoDatabase, appCfg.EmailVerifyExpiry, logger)
}

func ensureIndexes(ctx context.Context, db *mongo.Database, verifyExpiry time.Duration, logger *zap.Logger) error {
	return indexes.EnsureAll(ctx, logger,
		indexes.Target{Name: "users", Ensure: userstore.New(db).EnsureIndexes},
		indexes.Target{Name: "study_groups", Ensure: studygroupstore.New(db).EnsureIndexes},
		indexes.Target{Name: "sessions", Ensure: sessionstore.New(db).EnsureIndexes},
		indexes.Target{Name: "email_verifications", Ensure: emailverify.New(db, verifyExpiry).EnsureIndexes},
		indexes.Target{Name: "study_sets", Ensure: studysetstore.New(db).EnsureIndexes},
		indexes.Target{Name: "study_set_images", Ensure: imagestore.New(db).EnsureIndexes},
		indexes.Target{Name: "notes", Ensure: notestore.New(db).EnsureIndexes},
		indexes.Target{Name: "comments", Ensure: commentstore.New(db).EnsureIndexes},
		indexes.Target{Name: "tasks", Ensure: taskstore.New(db).EnsureIndexes},
		indexes.Target{Name: "tags", Ensure: tagstore.New(db).EnsureIndexes},
		indexes.Target{Name: "webhooks", Ensure: webhookstore.New(db).EnsureIndexes},
		indexes.Target{Name: "invitations", Ensure: invitationstore.New(db).EnsureIndexes},
		indexes.Target{Name: "audit_events", Ensure: auditstore.New(db).EnsureIndexes},
	)
}
