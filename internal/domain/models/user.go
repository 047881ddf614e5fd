package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a person who can sign in to one study group.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudyGroupID primitive.ObjectID `bson:"study_group_id" json:"study_group_id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"` // folded; unique across all users
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"` // owner | admin | member

	EmailVerified bool   `bson:"email_verified" json:"email_verified"`
	Status        string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the account may sign in.
func (u User) IsActive() bool {
	return u.Status == "" || u.Status == StatusActive
}
