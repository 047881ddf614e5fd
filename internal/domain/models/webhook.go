package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Webhook event names.
const (
	EventStudySetCreated = "studyset.created"
	EventStudySetUpdated = "studyset.updated"
	EventStudySetDeleted = "studyset.deleted"
	EventNoteCreated     = "note.created"
	EventCommentCreated  = "comment.created"
	EventTaskCreated     = "task.created"
	EventTaskUpdated     = "task.updated"
	EventMemberJoined    = "member.joined"
)

// WebhookEvents lists every event a webhook may subscribe to.
var WebhookEvents = []string{
	EventStudySetCreated,
	EventStudySetUpdated,
	EventStudySetDeleted,
	EventNoteCreated,
	EventCommentCreated,
	EventTaskCreated,
	EventTaskUpdated,
	EventMemberJoined,
}

// Webhook is an outbound HTTP endpoint registered by a study group.
type Webhook struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudyGroupID primitive.ObjectID `bson:"study_group_id" json:"study_group_id"`
	URL          string             `bson:"url" json:"url"`
	Events       []string           `bson:"events" json:"events"`
	Secret       string             `bson:"secret" json:"-"` // HMAC key for delivery signatures
	Active       bool               `bson:"active" json:"active"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

func (w Webhook) DocID() primitive.ObjectID    { return w.ID }
func (w Webhook) TenantID() primitive.ObjectID { return w.StudyGroupID }

// Subscribes reports whether the webhook is active and listens for event.
func (w Webhook) Subscribes(event string) bool {
	return w.Active && slices.Contains(w.Events, event)
}
