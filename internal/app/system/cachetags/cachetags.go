// Package cachetags derives cache keys and invalidation tags, and declares
// which tags each read registers and each mutation invalidates.
//
// A tag is kind + ":" + tenant + ":" + entity. Kinds are fixed constants and
// tenant and entity ids are ObjectID hex strings, so none of the parts can
// contain the separator and distinct tuples never produce the same tag.
package cachetags

import "strings"

// Kind names a family of cached reads.
type Kind string

const (
	StudySets   Kind = "studysets"
	StudySet    Kind = "studyset"
	Images      Kind = "images"
	Notes       Kind = "notes"
	Comments    Kind = "comments"
	Tasks       Kind = "tasks"
	Tags        Kind = "tags"
	Favorites   Kind = "favorites"
	Webhooks    Kind = "webhooks"
	Invitations Kind = "invitations"
	StudyGroup  Kind = "studygroup"
	Members     Kind = "members"
	Dashboard   Kind = "dashboard"
)

const sep = ":"

// DeriveTag returns the invalidation tag for (kind, tenantID, entityID).
// entityID is empty for tenant-wide collections.
func DeriveTag(kind Kind, tenantID, entityID string) string {
	return strings.Join([]string{string(kind), tenantID, entityID}, sep)
}

// DeriveKeyParts returns the cache key prefix for a read of kind scoped to
// tenantID. Reads append their own arguments (an entity id, for instance).
func DeriveKeyParts(kind Kind, tenantID string) []string {
	return []string{string(kind), tenantID}
}
