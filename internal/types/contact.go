package types

import (
	"time"

	"github.com/google/uuid"
)

// Contact is owned by exactly one user. Fon holds the canonical
// international phone format and is unique per owner, so the same
// number written with or without "+" dedups to one contact.
// Groups is the materialized membership cache maintained by the
// membership service, never asserted directly by API callers.
type Contact struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ByUserID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_contact_user_fon,unique,priority:1" json:"byUserID"`
	ByUser      *User      `gorm:"foreignKey:ByUserID" json:"byUser,omitempty"`
	FirstName   string     `gorm:"not null;column:first_name" json:"firstName"`
	LastName    string     `gorm:"column:last_name" json:"lastName"`
	Fon         string     `gorm:"not null;column:fon;index:idx_contact_user_fon,unique,priority:2" json:"fon"`
	CountryCode string     `gorm:"column:country_code" json:"countryCode"`
	Email       string     `gorm:"column:email" json:"email"`
	Birthday    *time.Time `gorm:"column:birthday" json:"birthday,omitempty"`
	// No column default on purpose: gorm drops zero-value fields that
	// carry a default tag from the INSERT, which would silently turn
	// active=false into true. The service layer sets the flag on create.
	Active bool `gorm:"not null;column:active" json:"active"`
	Notes       string     `gorm:"column:notes" json:"notes"`

	Tags   []*Tag   `gorm:"many2many:contact_tag" json:"tags,omitempty"`
	Groups []*Group `gorm:"many2many:group_contact" json:"groups,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Contact) TableName() string { return "contact" }

func (c *Contact) TagIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Tags))
	for _, t := range c.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}
