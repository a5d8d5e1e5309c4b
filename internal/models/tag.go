package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Tag names are not unique, even for one user.
type Tag struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Color     string    `json:"color" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TagInput struct {
	Name  string
	Color string
}

type TagPatch struct {
	Name  *string
	Color *string
}

func (p TagPatch) IsEmpty() bool {
	return p.Name == nil && p.Color == nil
}
