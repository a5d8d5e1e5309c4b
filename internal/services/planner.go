package services

import (
	"context"
	"log/slog"
	"time"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/store"

	"github.com/gofrs/uuid"
)

// Every method takes the verified owner id first. A target owned by anyone
// else resolves to ErrNotFound.

type TaskService interface {
	CreateTask(ctx context.Context, ownerID uuid.UUID, in models.TaskInput) (models.Task, error)
	GetTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error)
	ListTasks(ctx context.Context, ownerID uuid.UUID, filter models.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, ownerID, id uuid.UUID, patch models.TaskPatch) (models.Task, error)
	CompleteTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error)
	DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error
}

type ProjectService interface {
	CreateProject(ctx context.Context, ownerID uuid.UUID, in models.ProjectInput) (models.Project, error)
	GetProject(ctx context.Context, ownerID, id uuid.UUID) (models.Project, error)
	ListProjects(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error)
	UpdateProject(ctx context.Context, ownerID, id uuid.UUID, patch models.ProjectPatch) (models.Project, error)
	DeleteProject(ctx context.Context, ownerID, id uuid.UUID) error
}

type TagService interface {
	CreateTag(ctx context.Context, ownerID uuid.UUID, in models.TagInput) (models.Tag, error)
	GetTag(ctx context.Context, ownerID, id uuid.UUID) (models.Tag, error)
	ListTags(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error)
	UpdateTag(ctx context.Context, ownerID, id uuid.UUID, patch models.TagPatch) (models.Tag, error)
	DeleteTag(ctx context.Context, ownerID, id uuid.UUID) error
}

type AnalyticsService interface {
	TaskSummary(ctx context.Context, ownerID uuid.UUID) (models.TaskSummary, error)
	ProjectSummary(ctx context.Context, ownerID uuid.UUID) ([]models.ProjectSummary, error)
}

type Planner interface {
	TaskService
	ProjectService
	TagService
	AnalyticsService
}

type PlannerService struct {
	store store.Store
	now   func() time.Time
	loc   *time.Location
	log   *slog.Logger
}

var _ Planner = (*PlannerService)(nil)

type Option func(*PlannerService)

func WithClock(now func() time.Time) Option {
	return func(s *PlannerService) { s.now = now }
}

// WithLocation sets the zone that decides calendar-day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *PlannerService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *PlannerService) {
		if log != nil {
			s.log = log
		}
	}
}

func NewPlannerService(st store.Store, opts ...Option) *PlannerService {
	s := &PlannerService{
		store: st,
		now:   time.Now,
		loc:   time.UTC,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp is the current time at the precision every backend can store.
func (s *PlannerService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// dayWindow returns [midnight, next midnight) in loc for the calendar date
// that t carries, regardless of t's own zone.
func dayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
