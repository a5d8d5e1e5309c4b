package services

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"task-planner/backend/internal/models"

	"github.com/gofrs/uuid"
)

// PlannerCache is the slice of cache.MultiLevelCache the planner needs.
// Counter and Incr must go to storage shared by every replica.
type PlannerCache interface {
	Get(key string, dest interface{}) error
	Set(key string, value interface{}, ttl time.Duration) error
	Counter(key string) (int64, error)
	Incr(key string) (int64, error)
	Stats() map[string]interface{}
}

// CachedPlannerService serves reads from the cache. Every key of an owner
// carries that owner's generation, and any write by the owner bumps it, so
// older entries become unreachable at once in every replica. Cascades touch
// tasks, projects and tags together, so per-key invalidation is not
// attempted.
//
// When a bump fails the owner is marked stale and its reads skip the cache
// until a later bump succeeds.
type CachedPlannerService struct {
	Planner
	cache PlannerCache
	ttl   time.Duration
	log   *slog.Logger

	ticket atomic.Uint64
	mu     sync.Mutex
	stale  map[uuid.UUID]uint64
}

var _ Planner = (*CachedPlannerService)(nil)

func NewCachedPlannerService(planner Planner, cache PlannerCache, ttl time.Duration, log *slog.Logger) *CachedPlannerService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &CachedPlannerService{
		Planner: planner,
		cache:   cache,
		ttl:     ttl,
		log:     log,
		stale:   make(map[uuid.UUID]uint64),
	}
}

func ownerPrefix(ownerID uuid.UUID) string {
	return "planner:" + ownerID.String() + ":"
}

func generationKey(ownerID uuid.UUID) string {
	return ownerPrefix(ownerID) + "gen"
}

// scopePrefix is the key prefix of one generation of an owner's entries.
func scopePrefix(ownerID uuid.UUID, gen int64) string {
	return ownerPrefix(ownerID) + strconv.FormatInt(gen, 10) + ":"
}

func taskKey(scope string, id uuid.UUID) string {
	return scope + "task:" + id.String()
}

func projectKey(scope string, id uuid.UUID) string {
	return scope + "project:" + id.String()
}

func tagKey(scope string, id uuid.UUID) string {
	return scope + "tag:" + id.String()
}

func taskListKey(scope string, f models.TaskFilter) string {
	var b strings.Builder
	b.WriteString(scope)
	b.WriteString("tasks")
	if f.ProjectID != nil {
		b.WriteString(":project=" + f.ProjectID.String())
	}
	if f.Completed != nil {
		b.WriteString(":completed=" + strconv.FormatBool(*f.Completed))
	}
	if f.Priority != nil {
		b.WriteString(":priority=" + string(*f.Priority))
	}
	if f.DueDate != nil {
		b.WriteString(":due=" + f.DueDate.Format("2006-01-02"))
	}
	return b.String()
}

// scope returns the owner's current key prefix, or false when the cache
// must not be used for this owner. The generation is read before the
// planner is, so a result loaded across a concurrent write is stored under
// the generation that write retires.
func (s *CachedPlannerService) scope(ownerID uuid.UUID) (string, bool) {
	if s.isStale(ownerID) && !s.invalidate(ownerID) {
		return "", false
	}
	gen, err := s.cache.Counter(generationKey(ownerID))
	if err != nil {
		s.log.Debug("cache bypassed", "owner", ownerID, "error", err)
		return "", false
	}
	return scopePrefix(ownerID, gen), true
}

func (s *CachedPlannerService) isStale(ownerID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.stale[ownerID]
	return ok
}

// invalidate bumps the owner's generation and reports whether the owner's
// cache is usable again. A success only clears the stale mark if it was
// issued after the failure that set it.
func (s *CachedPlannerService) invalidate(ownerID uuid.UUID) bool {
	ticket := s.ticket.Add(1)
	_, err := s.cache.Incr(generationKey(ownerID))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if ticket > s.stale[ownerID] {
			s.stale[ownerID] = ticket
		}
		s.log.Warn("cache invalidation failed, bypassing cache for owner", "owner", ownerID, "error", err)
		return false
	}
	failed, ok := s.stale[ownerID]
	if ok && failed < ticket {
		delete(s.stale, ownerID)
		ok = false
	}
	return !ok
}

// RetryInvalidations re-bumps the generation of every stale owner each
// interval, so other replicas stop serving their old entries without
// waiting for this replica to see another request from that owner.
func (s *CachedPlannerService) RetryInvalidations(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, owner := range s.staleOwners() {
				s.invalidate(owner)
			}
		}
	}
}

func (s *CachedPlannerService) staleOwners() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := make([]uuid.UUID, 0, len(s.stale))
	for owner := range s.stale {
		owners = append(owners, owner)
	}
	return owners
}

// lookup builds the key in the owner's current scope and reports whether
// dest was filled from the cache. An empty key means the cache is bypassed.
func (s *CachedPlannerService) lookup(ownerID uuid.UUID, key func(scope string) string, dest interface{}) (string, bool) {
	scope, ok := s.scope(ownerID)
	if !ok {
		return "", false
	}
	k := key(scope)
	return k, s.cache.Get(k, dest) == nil
}

func (s *CachedPlannerService) remember(key string, value interface{}) {
	if key == "" {
		return
	}
	if err := s.cache.Set(key, value, s.ttl); err != nil {
		s.log.Debug("cache write skipped", "key", key, "error", err)
	}
}

func (s *CachedPlannerService) GetCacheStats() map[string]interface{} {
	return s.cache.Stats()
}

func (s *CachedPlannerService) CreateTask(ctx context.Context, ownerID uuid.UUID, in models.TaskInput) (models.Task, error) {
	task, err := s.Planner.CreateTask(ctx, ownerID, in)
	if err != nil {
		return task, err
	}
	s.invalidate(ownerID)
	return task, nil
}

func (s *CachedPlannerService) GetTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error) {
	var cached models.Task
	key, hit := s.lookup(ownerID, func(scope string) string { return taskKey(scope, id) }, &cached)
	if hit {
		return cached, nil
	}

	task, err := s.Planner.GetTask(ctx, ownerID, id)
	if err != nil {
		return task, err
	}
	s.remember(key, task)
	return task, nil
}

func (s *CachedPlannerService) ListTasks(ctx context.Context, ownerID uuid.UUID, filter models.TaskFilter) ([]models.Task, error) {
	var cached []models.Task
	key, hit := s.lookup(ownerID, func(scope string) string { return taskListKey(scope, filter) }, &cached)
	if hit {
		return cached, nil
	}

	tasks, err := s.Planner.ListTasks(ctx, ownerID, filter)
	if err != nil {
		return tasks, err
	}
	s.remember(key, tasks)
	return tasks, nil
}

func (s *CachedPlannerService) UpdateTask(ctx context.Context, ownerID, id uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	task, err := s.Planner.UpdateTask(ctx, ownerID, id, patch)
	if err != nil {
		return task, err
	}
	s.invalidate(ownerID)
	return task, nil
}

func (s *CachedPlannerService) CompleteTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error) {
	task, err := s.Planner.CompleteTask(ctx, ownerID, id)
	if err != nil {
		return task, err
	}
	s.invalidate(ownerID)
	return task, nil
}

func (s *CachedPlannerService) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.Planner.DeleteTask(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ownerID)
	return nil
}

func (s *CachedPlannerService) CreateProject(ctx context.Context, ownerID uuid.UUID, in models.ProjectInput) (models.Project, error) {
	project, err := s.Planner.CreateProject(ctx, ownerID, in)
	if err != nil {
		return project, err
	}
	s.invalidate(ownerID)
	return project, nil
}

func (s *CachedPlannerService) GetProject(ctx context.Context, ownerID, id uuid.UUID) (models.Project, error) {
	var cached models.Project
	key, hit := s.lookup(ownerID, func(scope string) string { return projectKey(scope, id) }, &cached)
	if hit {
		return cached, nil
	}

	project, err := s.Planner.GetProject(ctx, ownerID, id)
	if err != nil {
		return project, err
	}
	s.remember(key, project)
	return project, nil
}

func (s *CachedPlannerService) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	var cached []models.Project
	key, hit := s.lookup(ownerID, func(scope string) string { return scope + "projects" }, &cached)
	if hit {
		return cached, nil
	}

	projects, err := s.Planner.ListProjects(ctx, ownerID)
	if err != nil {
		return projects, err
	}
	s.remember(key, projects)
	return projects, nil
}

func (s *CachedPlannerService) UpdateProject(ctx context.Context, ownerID, id uuid.UUID, patch models.ProjectPatch) (models.Project, error) {
	project, err := s.Planner.UpdateProject(ctx, ownerID, id, patch)
	if err != nil {
		return project, err
	}
	s.invalidate(ownerID)
	return project, nil
}

func (s *CachedPlannerService) DeleteProject(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.Planner.DeleteProject(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ownerID)
	return nil
}

func (s *CachedPlannerService) CreateTag(ctx context.Context, ownerID uuid.UUID, in models.TagInput) (models.Tag, error) {
	tag, err := s.Planner.CreateTag(ctx, ownerID, in)
	if err != nil {
		return tag, err
	}
	s.invalidate(ownerID)
	return tag, nil
}

func (s *CachedPlannerService) GetTag(ctx context.Context, ownerID, id uuid.UUID) (models.Tag, error) {
	var cached models.Tag
	key, hit := s.lookup(ownerID, func(scope string) string { return tagKey(scope, id) }, &cached)
	if hit {
		return cached, nil
	}

	tag, err := s.Planner.GetTag(ctx, ownerID, id)
	if err != nil {
		return tag, err
	}
	s.remember(key, tag)
	return tag, nil
}

func (s *CachedPlannerService) ListTags(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error) {
	var cached []models.Tag
	key, hit := s.lookup(ownerID, func(scope string) string { return scope + "tags" }, &cached)
	if hit {
		return cached, nil
	}

	tags, err := s.Planner.ListTags(ctx, ownerID)
	if err != nil {
		return tags, err
	}
	s.remember(key, tags)
	return tags, nil
}

func (s *CachedPlannerService) UpdateTag(ctx context.Context, ownerID, id uuid.UUID, patch models.TagPatch) (models.Tag, error) {
	tag, err := s.Planner.UpdateTag(ctx, ownerID, id, patch)
	if err != nil {
		return tag, err
	}
	s.invalidate(ownerID)
	return tag, nil
}

func (s *CachedPlannerService) DeleteTag(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.Planner.DeleteTag(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ownerID)
	return nil
}
