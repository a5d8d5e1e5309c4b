// Package gormstore implements store.Store on top of gorm, for PostgreSQL
// in production and SQLite for local runs and tests.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/store"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}
}

// AutoMigrate creates or updates every table the planner needs.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Task{},
		&models.Tag{},
		&models.TaskTag{},
	)
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	default:
		return err
	}
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

// Projects

type projectMember struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
}

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, ownerID, id uuid.UUID) (models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ? AND user_id = ?", id, ownerID).Error
	if err != nil {
		return models.Project{}, translate(err)
	}

	projects := []models.Project{project}
	if err := s.attachTaskIDs(ctx, ownerID, projects); err != nil {
		return models.Project{}, err
	}
	return projects[0], nil
}

func (s *Store) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	if err := s.attachTaskIDs(ctx, ownerID, projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// attachTaskIDs derives each project's member list from tasks.project_id.
func (s *Store) attachTaskIDs(ctx context.Context, ownerID uuid.UUID, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	var members []projectMember
	err := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("id", "project_id").
		Where("user_id = ? AND project_id IN ?", ownerID, ids).
		Order("created_at ASC").
		Scan(&members).Error
	if err != nil {
		return fmt.Errorf("load project members: %w", err)
	}

	byProject := make(map[uuid.UUID][]uuid.UUID, len(projects))
	for _, m := range members {
		byProject[m.ProjectID] = append(byProject[m.ProjectID], m.ID)
	}
	for i := range projects {
		projects[i].TaskIDs = byProject[projects[i].ID]
		if projects[i].TaskIDs == nil {
			projects[i].TaskIDs = []uuid.UUID{}
		}
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, project *models.Project) error {
	res := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND user_id = ?", project.ID, project.UserID).
		Updates(map[string]interface{}{
			"name":        project.Name,
			"description": project.Description,
			"color":       project.Color,
			"updated_at":  project.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, ownerID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Project{})
	if res.Error != nil {
		return fmt.Errorf("delete project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Tasks

func normalizeTask(task *models.Task) {
	task.DueDate = task.DueDate.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	normalizeTask(task)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return replaceTaskTags(tx, task.ID, task.TagIDs)
	})
}

func replaceTaskTags(tx *gorm.DB, taskID uuid.UUID, tagIDs []uuid.UUID) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskTag{}).Error; err != nil {
		return fmt.Errorf("clear task tags: %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	rows := make([]models.TaskTag, len(tagIDs))
	for i, tagID := range tagIDs {
		rows[i] = models.TaskTag{TaskID: taskID, TagID: tagID}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("write task tags: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).First(&task, "id = ? AND user_id = ?", id, ownerID).Error
	if err != nil {
		return models.Task{}, translate(err)
	}

	tasks := []models.Task{task}
	if err := s.attachTagIDs(ctx, tasks); err != nil {
		return models.Task{}, err
	}
	return tasks[0], nil
}

func (s *Store) ListTasks(ctx context.Context, ownerID uuid.UUID, query store.TaskQuery) ([]models.Task, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if query.ProjectID != nil {
		q = q.Where("project_id = ?", *query.ProjectID)
	}
	if query.Completed != nil {
		q = q.Where("completed = ?", *query.Completed)
	}
	if query.Priority != nil {
		q = q.Where("priority_level = ?", *query.Priority)
	}
	if query.DueFrom != nil {
		q = q.Where("due_date >= ?", query.DueFrom.UTC())
	}
	if query.DueBefore != nil {
		q = q.Where("due_date < ?", query.DueBefore.UTC())
	}

	var tasks []models.Task
	if err := q.Order("due_date ASC").Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	if err := s.attachTagIDs(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) ListDueTasks(ctx context.Context, from, before time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("completed = ? AND due_date >= ? AND due_date < ?", false, from.UTC(), before.UTC()).
		Order("user_id ASC").
		Order("due_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}

	if err := s.attachTagIDs(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Store) attachTagIDs(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}

	var rows []models.TaskTag
	err := s.db.WithContext(ctx).
		Where("task_id IN ?", ids).
		Order("tag_id ASC").
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("load task tags: %w", err)
	}

	byTask := make(map[uuid.UUID][]uuid.UUID, len(tasks))
	for _, r := range rows {
		byTask[r.TaskID] = append(byTask[r.TaskID], r.TagID)
	}
	for i := range tasks {
		tasks[i].TagIDs = byTask[tasks[i].ID]
		if tasks[i].TagIDs == nil {
			tasks[i].TagIDs = []uuid.UUID{}
		}
	}
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	normalizeTask(task)

	var projectID interface{}
	if task.ProjectID != nil {
		projectID = *task.ProjectID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Task{}).
			Where("id = ? AND user_id = ?", task.ID, task.UserID).
			Updates(map[string]interface{}{
				"title":          task.Title,
				"description":    task.Description,
				"completed":      task.Completed,
				"priority_level": task.PriorityLevel,
				"due_date":       task.DueDate,
				"project_id":     projectID,
				"updated_at":     task.UpdatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("update task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return replaceTaskTags(tx, task.ID, task.TagIDs)
	})
}

func (s *Store) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Task{})
		if res.Error != nil {
			return fmt.Errorf("delete task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskTag{}).Error; err != nil {
			return fmt.Errorf("delete task tags: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteTasksByProject(ctx context.Context, ownerID, projectID uuid.UUID) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		members := tx.Model(&models.Task{}).
			Select("id").
			Where("project_id = ? AND user_id = ?", projectID, ownerID)
		if err := tx.Where("task_id IN (?)", members).Delete(&models.TaskTag{}).Error; err != nil {
			return fmt.Errorf("delete project task tags: %w", err)
		}

		res := tx.Where("project_id = ? AND user_id = ?", projectID, ownerID).Delete(&models.Task{})
		if res.Error != nil {
			return fmt.Errorf("delete project tasks: %w", res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// Tags

func (s *Store) CreateTag(ctx context.Context, tag *models.Tag) error {
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (s *Store) GetTag(ctx context.Context, ownerID, id uuid.UUID) (models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ? AND user_id = ?", id, ownerID).Error; err != nil {
		return models.Tag{}, translate(err)
	}
	return tag, nil
}

func (s *Store) ListTags(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("name ASC").
		Order("created_at ASC").
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *Store) CountTags(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("user_id = ? AND id IN ?", ownerID, ids).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	return count, nil
}

func (s *Store) UpdateTag(ctx context.Context, tag *models.Tag) error {
	res := s.db.WithContext(ctx).
		Model(&models.Tag{}).
		Where("id = ? AND user_id = ?", tag.ID, tag.UserID).
		Updates(map[string]interface{}{
			"name":       tag.Name,
			"color":      tag.Color,
			"updated_at": tag.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update tag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTag(ctx context.Context, ownerID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Tag{})
	if res.Error != nil {
		return fmt.Errorf("delete tag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveTagFromTasks(ctx context.Context, ownerID, tagID uuid.UUID) (int64, error) {
	owned := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("id").
		Where("user_id = ?", ownerID)

	res := s.db.WithContext(ctx).
		Where("tag_id = ? AND task_id IN (?)", tagID, owned).
		Delete(&models.TaskTag{})
	if res.Error != nil {
		return 0, fmt.Errorf("remove tag from tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SweepDanglingReferences removes tasks pointing at a project that no longer
// exists for the same owner, then association rows whose task or tag is gone.
func (s *Store) SweepDanglingReferences(ctx context.Context) (store.SweepReport, error) {
	var report store.SweepReport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`DELETE FROM tasks
			WHERE project_id IS NOT NULL
			AND NOT EXISTS (
				SELECT 1 FROM projects p
				WHERE p.id = tasks.project_id AND p.user_id = tasks.user_id
			)`)
		if res.Error != nil {
			return fmt.Errorf("sweep orphan tasks: %w", res.Error)
		}
		report.OrphanTasks = res.RowsAffected

		res = tx.Exec(`DELETE FROM task_tags
			WHERE NOT EXISTS (
				SELECT 1 FROM tags g, tasks t
				WHERE g.id = task_tags.tag_id
				AND t.id = task_tags.task_id
				AND g.user_id = t.user_id
			)`)
		if res.Error != nil {
			return fmt.Errorf("sweep orphan task tags: %w", res.Error)
		}
		report.OrphanTaskTags = res.RowsAffected
		return nil
	})
	if err != nil {
		return store.SweepReport{}, err
	}

	if report.OrphanTasks > 0 || report.OrphanTaskTags > 0 {
		s.log.Info("swept dangling references",
			"orphan_tasks", report.OrphanTasks,
			"orphan_task_tags", report.OrphanTaskTags)
	}
	return report, nil
}
