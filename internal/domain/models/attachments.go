package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Note is a free-form note written on a study set.
type Note struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudyGroupID primitive.ObjectID `bson:"study_group_id" json:"study_group_id"`
	StudySetID   primitive.ObjectID `bson:"study_set_id" json:"study_set_id"`
	AuthorID     primitive.ObjectID `bson:"author_id" json:"author_id"`
	Body         string             `bson:"body" json:"body"` // sanitized HTML
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

func (n Note) DocID() primitive.ObjectID    { return n.ID }
func (n Note) TenantID() primitive.ObjectID { return n.StudyGroupID }
func (n Note) SetID() primitive.ObjectID    { return n.StudySetID }

// Comment is a discussion entry on a study set.
type Comment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudyGroupID primitive.ObjectID `bson:"study_group_id" json:"study_group_id"`
	StudySetID   primitive.ObjectID `bson:"study_set_id" json:"study_set_id"`
	AuthorID     primitive.ObjectID `bson:"author_id" json:"author_id"`
	Body         string             `bson:"body" json:"body"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

func (c Comment) DocID() primitive.ObjectID    { return c.ID }
func (c Comment) TenantID() primitive.ObjectID { return c.StudyGroupID }
func (c Comment) SetID() primitive.ObjectID    { return c.StudySetID }

// Task is an action item on a study set.
type Task struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	StudyGroupID primitive.ObjectID  `bson:"study_group_id" json:"study_group_id"`
	StudySetID   primitive.ObjectID  `bson:"study_set_id" json:"study_set_id"`
	Title        string              `bson:"title" json:"title"`
	Done         bool                `bson:"done" json:"done"`
	DueAt        *time.Time          `bson:"due_at,omitempty" json:"due_at,omitempty"`
	AssigneeID   *primitive.ObjectID `bson:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}

func (t Task) DocID() primitive.ObjectID    { return t.ID }
func (t Task) TenantID() primitive.ObjectID { return t.StudyGroupID }
func (t Task) SetID() primitive.ObjectID    { return t.StudySetID }

// Tag labels study sets. Names are unique per study group (case-insensitive).
type Tag struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudyGroupID primitive.ObjectID `bson:"study_group_id" json:"study_group_id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"`
	Color        string             `bson:"color,omitempty" json:"color,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

func (t Tag) DocID() primitive.ObjectID    { return t.ID }
func (t Tag) TenantID() primitive.ObjectID { return t.StudyGroupID }
