// Package store defines the persistence port used by the planner services.
// Every read that returns user data is scoped by the owner id.
package store

import (
	"context"
	"errors"
	"time"

	"task-planner/backend/internal/models"

	"github.com/gofrs/uuid"
)

var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique key (user email) already exists.
var ErrDuplicate = errors.New("duplicate record")

// TaskQuery is the storage-level form of models.TaskFilter. The due-date day
// window is already resolved to [DueFrom, DueBefore).
type TaskQuery struct {
	ProjectID *uuid.UUID
	Completed *bool
	Priority  *models.Priority
	DueFrom   *time.Time
	DueBefore *time.Time
}

// SweepReport counts what SweepDanglingReferences removed.
type SweepReport struct {
	OrphanTasks    int64 `json:"orphanTasks"`
	OrphanTaskTags int64 `json:"orphanTaskTags"`
}

type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, ownerID, id uuid.UUID) (models.Project, error)
	ListProjects(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, ownerID, id uuid.UUID) error

	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error)
	ListTasks(ctx context.Context, ownerID uuid.UUID, query TaskQuery) ([]models.Task, error)
	ListDueTasks(ctx context.Context, from, before time.Time) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error
	DeleteTasksByProject(ctx context.Context, ownerID, projectID uuid.UUID) (int64, error)

	CreateTag(ctx context.Context, tag *models.Tag) error
	GetTag(ctx context.Context, ownerID, id uuid.UUID) (models.Tag, error)
	ListTags(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error)
	CountTags(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error)
	UpdateTag(ctx context.Context, tag *models.Tag) error
	DeleteTag(ctx context.Context, ownerID, id uuid.UUID) error
	RemoveTagFromTasks(ctx context.Context, ownerID, tagID uuid.UUID) (int64, error)

	// WithinTx runs fn against a transactional view of the store when the
	// engine supports it. Otherwise fn runs against the store itself.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	SweepDanglingReferences(ctx context.Context) (SweepReport, error)

	Ping(ctx context.Context) error
	Close() error
}
