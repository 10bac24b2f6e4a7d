package types

import (
	"time"

	"github.com/google/uuid"
)

type Tag struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"not null;column:title;index:idx_tag_user_title,unique,priority:2" json:"title"`
	ByUserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_tag_user_title,unique,priority:1" json:"byUserID"`
	LastApplied *time.Time `gorm:"column:last_applied" json:"lastApplied,omitempty"`

	Contacts []*Contact `gorm:"many2many:contact_tag" json:"contacts,omitempty"`
	Groups   []*Group   `gorm:"many2many:group_tag" json:"groups,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Tag) TableName() string { return "tag" }
