package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FavoriteMarker flags a study set as a favorite. It lives inside the Notes
// text until favorites get their own collection.
const FavoriteMarker = "[FAVORITE]"

// StudySet is the primary record managed inside a study group.
type StudySet struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	StudyGroupID primitive.ObjectID   `bson:"study_group_id" json:"study_group_id"`
	Name         string               `bson:"name" json:"name"`
	NameCI       string               `bson:"name_ci" json:"-"`
	Description  string               `bson:"description,omitempty" json:"description,omitempty"`
	Subject      string               `bson:"subject,omitempty" json:"subject,omitempty"`
	Notes        string               `bson:"notes,omitempty" json:"notes,omitempty"`
	TagIDs       []primitive.ObjectID `bson:"tag_ids,omitempty" json:"tag_ids,omitempty"`
	CreatedByID  primitive.ObjectID   `bson:"created_by_id" json:"created_by_id"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

func (s StudySet) DocID() primitive.ObjectID    { return s.ID }
func (s StudySet) TenantID() primitive.ObjectID { return s.StudyGroupID }

// IsFavorite reports whether the favorite marker is present in Notes.
func (s StudySet) IsFavorite() bool {
	return strings.Contains(s.Notes, FavoriteMarker)
}

// StudySetImage is an image attached to a study set. Images are removed in
// the same batch as their study set.
type StudySetImage struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudyGroupID primitive.ObjectID `bson:"study_group_id" json:"study_group_id"`
	StudySetID   primitive.ObjectID `bson:"study_set_id" json:"study_set_id"`
	URL          string             `bson:"url" json:"url"`
	Caption      string             `bson:"caption,omitempty" json:"caption,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

func (i StudySetImage) DocID() primitive.ObjectID    { return i.ID }
func (i StudySetImage) TenantID() primitive.ObjectID { return i.StudyGroupID }
func (i StudySetImage) SetID() primitive.ObjectID    { return i.StudySetID }
