package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invitation states. PENDING moves to ACCEPTED exactly once; there is no
// way back.
const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
)

// Invitation asks a person (by email) to join a study group.
type Invitation struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudyGroupID primitive.ObjectID `bson:"study_group_id" json:"study_group_id"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Status       string             `bson:"status" json:"status"`
	InvitedByID  primitive.ObjectID `bson:"invited_by_id" json:"invited_by_id"`
	LastSentAt   time.Time          `bson:"last_sent_at" json:"last_sent_at"`
	AcceptedAt   *time.Time         `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

func (i Invitation) DocID() primitive.ObjectID    { return i.ID }
func (i Invitation) TenantID() primitive.ObjectID { return i.StudyGroupID }

// IsPending reports whether the invitation can still be used.
func (i Invitation) IsPending() bool {
	return i.Status == InvitationPending
}
