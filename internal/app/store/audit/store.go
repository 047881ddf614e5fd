// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventSignup             = "signup"
	EventLoginSuccess       = "login_success"
	EventLoginFailed        = "login_failed"
	EventLoginRateLimited   = "login_rate_limited"
	EventLogout             = "logout"
	EventEmailVerified      = "email_verified"
	EventVerificationFailed = "verification_failed"
	EventInvitationAccepted = "invitation_accepted"
	EventAccessTokenIssued  = "access_token_issued"
)

// Admin event types
const (
	EventStudyGroupUpdated = "study_group_updated"
	EventWebhookCreated    = "webhook_created"
	EventWebhookUpdated    = "webhook_updated"
	EventWebhookDeleted    = "webhook_deleted"
	EventInvitationSent    = "invitation_sent"
	EventInvitationRevoked = "invitation_revoked"
)

// Event is one audit record. StudyGroupID is nil for events that happen
// before the caller is known, such as a failed login for an unknown email.
type Event struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Timestamp    time.Time           `bson:"timestamp" json:"timestamp"`
	StudyGroupID *primitive.ObjectID `bson:"study_group_id,omitempty" json:"study_group_id,omitempty"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`   // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"` // who acted, for admin events

	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes supports the per-group listing (newest first) and lookups
// by user.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	return indexes.EnsureSet(ctx, s.c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "study_group_id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_audit_group_id"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_id"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_cat_type_ts"),
		},
	})
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// ListByStudyGroup returns up to limit events for the group, newest first.
// When before is non-nil only events older than it are returned.
func (s *Store) ListByStudyGroup(ctx context.Context, studyGroupID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]Event, error) {
	filter := bson.M{"study_group_id": studyGroupID}
	if before != nil {
		filter["_id"] = bson.M{"$lt": *before}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
