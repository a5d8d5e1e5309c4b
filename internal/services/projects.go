package services

import (
	"context"
	"strings"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/store"

	"github.com/gofrs/uuid"
)

func (s *PlannerService) CreateProject(ctx context.Context, ownerID uuid.UUID, in models.ProjectInput) (models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Project{}, invalid("name", "is required")
	}

	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = models.DefaultColor
	}

	now := s.timestamp()
	project := models.Project{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      ownerID,
		Name:        name,
		Description: in.Description,
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateProject(ctx, &project); err != nil {
		return models.Project{}, classify("create project", err)
	}

	project.TaskIDs = []uuid.UUID{}
	return project, nil
}

func (s *PlannerService) GetProject(ctx context.Context, ownerID, id uuid.UUID) (models.Project, error) {
	project, err := s.store.GetProject(ctx, ownerID, id)
	if err != nil {
		return models.Project{}, classify("get project", err)
	}
	return project, nil
}

func (s *PlannerService) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	projects, err := s.store.ListProjects(ctx, ownerID)
	if err != nil {
		return nil, classify("list projects", err)
	}
	return projects, nil
}

func (s *PlannerService) UpdateProject(ctx context.Context, ownerID, id uuid.UUID, patch models.ProjectPatch) (models.Project, error) {
	if patch.IsEmpty() {
		return models.Project{}, invalid("", "no fields to update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return models.Project{}, invalid("name", "must not be blank")
	}

	var updated models.Project
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		project, err := tx.GetProject(ctx, ownerID, id)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			project.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			project.Description = *patch.Description
		}
		if patch.Color != nil {
			project.Color = strings.TrimSpace(*patch.Color)
			if project.Color == "" {
				project.Color = models.DefaultColor
			}
		}
		project.UpdatedAt = s.timestamp()

		if err := tx.UpdateProject(ctx, &project); err != nil {
			return err
		}
		updated = project
		return nil
	})
	if err != nil {
		return models.Project{}, classify("update project", err)
	}
	return updated, nil
}

// DeleteProject removes the project together with every task that references
// it. Membership is resolved from tasks.project_id, never from a stored list.
func (s *PlannerService) DeleteProject(ctx context.Context, ownerID, id uuid.UUID) error {
	var removed int64
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		if _, err := tx.GetProject(ctx, ownerID, id); err != nil {
			return err
		}

		n, err := tx.DeleteTasksByProject(ctx, ownerID, id)
		if err != nil {
			return err
		}
		removed = n

		return tx.DeleteProject(ctx, ownerID, id)
	})
	if err != nil {
		return classify("delete project", err)
	}

	s.log.Debug("project deleted", "project_id", id, "owner_id", ownerID, "tasks_removed", removed)
	return nil
}
