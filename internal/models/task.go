package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority level, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task belongs to exactly one user and optionally to one of that user's projects.
// TagIDs is materialized from the task_tags association and is never a column.
type Task struct {
	ID            uuid.UUID   `json:"id" gorm:"primaryKey;type:uuid"`
	UserID        uuid.UUID   `json:"userId" gorm:"type:uuid;not null;index:idx_tasks_user_completed,priority:1"`
	ProjectID     *uuid.UUID  `json:"projectId" gorm:"type:uuid;index"`
	Title         string      `json:"title" gorm:"not null"`
	Description   string      `json:"description"`
	Completed     bool        `json:"completed" gorm:"not null;index:idx_tasks_user_completed,priority:2"`
	PriorityLevel Priority    `json:"priorityLevel" gorm:"type:varchar(10);not null;index"`
	DueDate       time.Time   `json:"dueDate" gorm:"not null;index"`
	TagIDs        []uuid.UUID `json:"tagIds" gorm:"-"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// TaskTag is the association row between a task and a tag.
type TaskTag struct {
	TaskID uuid.UUID `json:"taskId" gorm:"primaryKey;type:uuid"`
	TagID  uuid.UUID `json:"tagId" gorm:"primaryKey;type:uuid;index"`
}

func (TaskTag) TableName() string {
	return "task_tags"
}

type TaskInput struct {
	Title         string
	Description   string
	Completed     bool
	ProjectID     *uuid.UUID
	PriorityLevel Priority
	DueDate       *time.Time
	TagIDs        []uuid.UUID
}

// TaskPatch carries only the fields a caller wants to change.
type TaskPatch struct {
	Title         *string
	Description   *string
	Completed     *bool
	PriorityLevel *Priority
	DueDate       *time.Time
	ProjectID     OptionalUUID
	TagIDs        *[]uuid.UUID
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil &&
		p.PriorityLevel == nil && p.DueDate == nil && !p.ProjectID.Set && p.TagIDs == nil
}

// TaskFilter narrows listTasks. DueDate selects the calendar day it falls on.
type TaskFilter struct {
	ProjectID *uuid.UUID
	Completed *bool
	Priority  *Priority
	DueDate   *time.Time
}
