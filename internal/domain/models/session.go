package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is the server-side half of a signed-in browser session. The cookie
// only carries the session ID; the row is deleted at logout and expires via
// a TTL index on ExpiresAt.
type Session struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       primitive.ObjectID `bson:"user_id"`
	StudyGroupID primitive.ObjectID `bson:"study_group_id"`
	Role         string             `bson:"role"` // role at login; the user row stays authoritative
	CreatedAt    time.Time          `bson:"created_at"`
	LastSeenAt   time.Time          `bson:"last_seen_at"`
	ExpiresAt    time.Time          `bson:"expires_at"`
	IP           string             `bson:"ip,omitempty"`
	UserAgent    string             `bson:"user_agent,omitempty"`
}
