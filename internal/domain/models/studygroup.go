package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudyGroup is the tenant boundary. Every user, study set and attached
// record carries the ID of exactly one study group, and every query and
// cache key is scoped by it.
type StudyGroup struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Website     string             `bson:"website,omitempty" json:"website,omitempty"`

	// Billing
	BillingEmail     string `bson:"billing_email,omitempty" json:"billing_email,omitempty"`
	StripeCustomerID string `bson:"stripe_customer_id,omitempty" json:"-"`

	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
