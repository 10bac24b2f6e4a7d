package types

import (
	"time"

	"github.com/google/uuid"
)

// Group membership is derived: Tags is the rule, Contacts is the
// materialized member set. IsInclusive=true grants membership when a
// contact holds at least one rule tag, IsInclusive=false only when it
// holds all of them.
type Group struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	ByUserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"byUserID"`
	IsInclusive bool      `gorm:"not null;default:false;column:is_inclusive" json:"isInclusive"`

	Tags     []*Tag     `gorm:"many2many:group_tag" json:"tags,omitempty"`
	Contacts []*Contact `gorm:"many2many:group_contact" json:"contacts,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Group) TableName() string { return "group" }

func (g *Group) HasTag(tagID uuid.UUID) bool {
	for _, t := range g.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}
