package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateStudyGroup inserts an active study group.
func (f *Fixtures) CreateStudyGroup(ctx context.Context, name string) models.StudyGroup {
	f.t.Helper()

	now := time.Now().UTC()
	sg := models.StudyGroup{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Slug:      text.Fold(name) + "-" + primitive.NewObjectID().Hex()[18:],
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("study_groups").InsertOne(ctx, sg); err != nil {
		f.t.Fatalf("failed to create test study group: %v", err)
	}
	return sg
}

// CreateUser inserts a verified, active user in studyGroupID.
func (f *Fixtures) CreateUser(ctx context.Context, studyGroupID primitive.ObjectID, fullName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:            primitive.NewObjectID(),
		StudyGroupID:  studyGroupID,
		FullName:      fullName,
		FullNameCI:    text.Fold(fullName),
		Email:         email,
		EmailCI:       text.Fold(email),
		Role:          role,
		EmailVerified: true,
		Status:        models.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateStudySet inserts a study set in studyGroupID.
func (f *Fixtures) CreateStudySet(ctx context.Context, studyGroupID primitive.ObjectID, name string) models.StudySet {
	f.t.Helper()

	now := time.Now().UTC()
	s := models.StudySet{
		ID:           primitive.NewObjectID(),
		StudyGroupID: studyGroupID,
		Name:         name,
		NameCI:       text.Fold(name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("study_sets").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("failed to create test study set: %v", err)
	}
	return s
}

// CreateTag inserts a tag in studyGroupID.
func (f *Fixtures) CreateTag(ctx context.Context, studyGroupID primitive.ObjectID, name string) models.Tag {
	f.t.Helper()

	tag := models.Tag{
		ID:           primitive.NewObjectID(),
		StudyGroupID: studyGroupID,
		Name:         name,
		NameCI:       text.Fold(name),
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("tags").InsertOne(ctx, tag); err != nil {
		f.t.Fatalf("failed to create test tag: %v", err)
	}
	return tag
}
