package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/store"

	"github.com/gofrs/uuid"
)

func (s *PlannerService) CreateTask(ctx context.Context, ownerID uuid.UUID, in models.TaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, invalid("title", "is required")
	}
	if in.DueDate == nil || in.DueDate.IsZero() {
		return models.Task{}, invalid("dueDate", "is required")
	}

	priority := in.PriorityLevel
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return models.Task{}, invalid("priorityLevel", "must be one of low, medium, high")
	}

	now := s.timestamp()
	task := models.Task{
		ID:            uuid.Must(uuid.NewV4()),
		UserID:        ownerID,
		ProjectID:     in.ProjectID,
		Title:         title,
		Description:   in.Description,
		Completed:     in.Completed,
		PriorityLevel: priority,
		DueDate:       in.DueDate.UTC(),
		TagIDs:        dedupeIDs(in.TagIDs),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		if task.ProjectID != nil {
			if err := requireProject(ctx, tx, ownerID, *task.ProjectID); err != nil {
				return err
			}
		}
		if err := requireTags(ctx, tx, ownerID, task.TagIDs); err != nil {
			return err
		}
		return tx.CreateTask(ctx, &task)
	})
	if err != nil {
		return models.Task{}, classify("create task", err)
	}
	return task, nil
}

func (s *PlannerService) GetTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error) {
	task, err := s.store.GetTask(ctx, ownerID, id)
	if err != nil {
		return models.Task{}, classify("get task", err)
	}
	return task, nil
}

func (s *PlannerService) ListTasks(ctx context.Context, ownerID uuid.UUID, filter models.TaskFilter) ([]models.Task, error) {
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, invalid("priority", "must be one of low, medium, high")
	}

	query := store.TaskQuery{
		ProjectID: filter.ProjectID,
		Completed: filter.Completed,
		Priority:  filter.Priority,
	}
	if filter.DueDate != nil {
		from, before := dayWindow(*filter.DueDate, s.loc)
		query.DueFrom = &from
		query.DueBefore = &before
	}

	tasks, err := s.store.ListTasks(ctx, ownerID, query)
	if err != nil {
		return nil, classify("list tasks", err)
	}
	return tasks, nil
}

func validateTaskPatch(patch models.TaskPatch) error {
	if patch.IsEmpty() {
		return invalid("", "no fields to update")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return invalid("title", "must not be blank")
	}
	if patch.PriorityLevel != nil && !patch.PriorityLevel.Valid() {
		return invalid("priorityLevel", "must be one of low, medium, high")
	}
	if patch.DueDate != nil && patch.DueDate.IsZero() {
		return invalid("dueDate", "must not be empty")
	}
	return nil
}

func (s *PlannerService) UpdateTask(ctx context.Context, ownerID, id uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	if err := validateTaskPatch(patch); err != nil {
		return models.Task{}, err
	}

	var updated models.Task
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		task, err := tx.GetTask(ctx, ownerID, id)
		if err != nil {
			return err
		}

		if patch.Title != nil {
			task.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Completed != nil {
			task.Completed = *patch.Completed
		}
		if patch.PriorityLevel != nil {
			task.PriorityLevel = *patch.PriorityLevel
		}
		if patch.DueDate != nil {
			task.DueDate = patch.DueDate.UTC()
		}
		if patch.ProjectID.Set {
			if patch.ProjectID.Value != nil {
				if err := requireProject(ctx, tx, ownerID, *patch.ProjectID.Value); err != nil {
					return err
				}
			}
			task.ProjectID = patch.ProjectID.Value
		}
		if patch.TagIDs != nil {
			tagIDs := dedupeIDs(*patch.TagIDs)
			if err := requireTags(ctx, tx, ownerID, tagIDs); err != nil {
				return err
			}
			task.TagIDs = tagIDs
		}
		task.UpdatedAt = s.timestamp()

		if err := tx.UpdateTask(ctx, &task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return models.Task{}, classify("update task", err)
	}
	return updated, nil
}

// CompleteTask flips the completed flag. Two calls restore the original state.
func (s *PlannerService) CompleteTask(ctx context.Context, ownerID, id uuid.UUID) (models.Task, error) {
	var updated models.Task
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		task, err := tx.GetTask(ctx, ownerID, id)
		if err != nil {
			return err
		}
		task.Completed = !task.Completed
		task.UpdatedAt = s.timestamp()
		if err := tx.UpdateTask(ctx, &task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return models.Task{}, classify("complete task", err)
	}
	return updated, nil
}

func (s *PlannerService) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	return classify("delete task", s.store.DeleteTask(ctx, ownerID, id))
}

func requireProject(ctx context.Context, tx store.Store, ownerID, projectID uuid.UUID) error {
	if _, err := tx.GetProject(ctx, ownerID, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
		return err
	}
	return nil
}

// requireTags expects ids to be free of duplicates.
func requireTags(ctx context.Context, tx store.Store, ownerID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	count, err := tx.CountTags(ctx, ownerID, tagIDs)
	if err != nil {
		return err
	}
	if count != int64(len(tagIDs)) {
		return fmt.Errorf("tag: %w", ErrNotFound)
	}
	return nil
}
