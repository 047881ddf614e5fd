package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/scoped"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Messages shown to users.
const (
	MsgNotFoundOrUsed = "Invitation not found or already used"
	MsgPendingExists  = "An invitation for this email is already pending."
)

type Store struct {
	*scoped.Store[models.Invitation]
}

func New(db *mongo.Database) *Store {
	return &Store{scoped.New[models.Invitation](db, "invitations", "Invitation",
		scoped.OnDuplicate(MsgPendingExists),
		scoped.Indexes(mongo.IndexModel{
			Keys: bson.D{{Key: "study_group_id", Value: 1}, {Key: "email_ci", Value: 1}},
			Options: options.Index().
				SetName("uniq_invitations_tenant_email_pending").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.InvitationPending}),
		}),
	)}
}

// Create inserts a PENDING invitation sent now.
func (s *Store) Create(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	now := time.Now().UTC()
	inv.ID = primitive.NewObjectID()
	inv.EmailCI = text.Fold(inv.Email)
	inv.Status = models.InvitationPending
	inv.LastSentAt = now
	inv.CreatedAt = now
	if err := s.Insert(ctx, inv); err != nil {
		return models.Invitation{}, err
	}
	return inv, nil
}

// FindPending loads a PENDING invitation by id without a tenant filter.
// Join is the only caller: the invitee has no session yet.
func (s *Store) FindPending(ctx context.Context, id primitive.ObjectID) (models.Invitation, error) {
	var inv models.Invitation
	err := s.Collection().FindOne(ctx, bson.M{"_id": id, "status": models.InvitationPending}).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Invitation{}, apperr.NotFound(MsgNotFoundOrUsed)
	}
	return inv, err
}

// MarkAccepted moves id from PENDING to ACCEPTED. Only one caller can win:
// the second sees NotFound.
func (s *Store) MarkAccepted(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	res, err := s.Collection().UpdateOne(ctx,
		bson.M{"_id": id, "status": models.InvitationPending},
		bson.M{"$set": bson.M{"status": models.InvitationAccepted, "accepted_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(MsgNotFoundOrUsed)
	}
	return nil
}

// MarkSent records a resend of a PENDING invitation.
func (s *Store) MarkSent(ctx context.Context, tenant, id primitive.ObjectID, at time.Time) error {
	res, err := s.Collection().UpdateOne(ctx,
		bson.M{"_id": id, "study_group_id": tenant, "status": models.InvitationPending},
		bson.M{"$set": bson.M{"last_sent_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound(MsgNotFoundOrUsed)
	}
	return nil
}

// DeletePending removes a PENDING invitation. Accepted invitations stay as
// history.
func (s *Store) DeletePending(ctx context.Context, tenant, id primitive.ObjectID) error {
	res, err := s.Collection().DeleteOne(ctx, bson.M{"_id": id, "study_group_id": tenant, "status": models.InvitationPending})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound(MsgNotFoundOrUsed)
	}
	return nil
}

// PendingExists reports whether tenant has a PENDING invitation for email.
func (s *Store) PendingExists(ctx context.Context, tenant primitive.ObjectID, email string) (bool, error) {
	n, err := s.CountWhere(ctx, tenant, bson.M{"email_ci": text.Fold(email), "status": models.InvitationPending})
	return n > 0, err
}

// CountPending counts the tenant's PENDING invitations.
func (s *Store) CountPending(ctx context.Context, tenant primitive.ObjectID) (int64, error) {
	return s.CountWhere(ctx, tenant, bson.M{"status": models.InvitationPending})
}
