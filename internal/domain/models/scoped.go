package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// TenantOwned is implemented by every document that belongs to exactly one
// study group. Stores use it to build tenant-scoped filters.
type TenantOwned interface {
	DocID() primitive.ObjectID
	TenantID() primitive.ObjectID
}

// SetOwned is implemented by documents attached to a study set
// (notes, comments, tasks, images).
type SetOwned interface {
	TenantOwned
	SetID() primitive.ObjectID
}
