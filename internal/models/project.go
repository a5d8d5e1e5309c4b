package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const DefaultColor = "#808080"

// Project groups tasks by back-reference. TaskIDs is derived from
// tasks.project_id on every read and is never stored.
type Project struct {
	ID          uuid.UUID   `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID   `json:"userId" gorm:"type:uuid;not null;index"`
	Name        string      `json:"name" gorm:"not null"`
	Description string      `json:"description"`
	Color       string      `json:"color"`
	TaskIDs     []uuid.UUID `json:"taskIds" gorm:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type ProjectInput struct {
	Name        string
	Description string
	Color       string
}

type ProjectPatch struct {
	Name        *string
	Description *string
	Color       *string
}

func (p ProjectPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Color == nil
}
