package services

import (
	"context"
	"strings"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/store"

	"github.com/gofrs/uuid"
)

func (s *PlannerService) CreateTag(ctx context.Context, ownerID uuid.UUID, in models.TagInput) (models.Tag, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Tag{}, invalid("name", "is required")
	}

	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = models.DefaultColor
	}

	now := s.timestamp()
	tag := models.Tag{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    ownerID,
		Name:      name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTag(ctx, &tag); err != nil {
		return models.Tag{}, classify("create tag", err)
	}
	return tag, nil
}

func (s *PlannerService) GetTag(ctx context.Context, ownerID, id uuid.UUID) (models.Tag, error) {
	tag, err := s.store.GetTag(ctx, ownerID, id)
	if err != nil {
		return models.Tag{}, classify("get tag", err)
	}
	return tag, nil
}

func (s *PlannerService) ListTags(ctx context.Context, ownerID uuid.UUID) ([]models.Tag, error) {
	tags, err := s.store.ListTags(ctx, ownerID)
	if err != nil {
		return nil, classify("list tags", err)
	}
	return tags, nil
}

func (s *PlannerService) UpdateTag(ctx context.Context, ownerID, id uuid.UUID, patch models.TagPatch) (models.Tag, error) {
	if patch.IsEmpty() {
		return models.Tag{}, invalid("", "no fields to update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return models.Tag{}, invalid("name", "must not be blank")
	}

	var updated models.Tag
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		tag, err := tx.GetTag(ctx, ownerID, id)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			tag.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Color != nil {
			tag.Color = strings.TrimSpace(*patch.Color)
			if tag.Color == "" {
				tag.Color = models.DefaultColor
			}
		}
		tag.UpdatedAt = s.timestamp()

		if err := tx.UpdateTag(ctx, &tag); err != nil {
			return err
		}
		updated = tag
		return nil
	})
	if err != nil {
		return models.Tag{}, classify("update tag", err)
	}
	return updated, nil
}

// DeleteTag strips the tag from every task of the owner, then deletes it.
// The tasks themselves survive.
func (s *PlannerService) DeleteTag(ctx context.Context, ownerID, id uuid.UUID) error {
	var detached int64
	err := s.store.WithinTx(ctx, func(tx store.Store) error {
		if _, err := tx.GetTag(ctx, ownerID, id); err != nil {
			return err
		}

		n, err := tx.RemoveTagFromTasks(ctx, ownerID, id)
		if err != nil {
			return err
		}
		detached = n

		return tx.DeleteTag(ctx, ownerID, id)
	})
	if err != nil {
		return classify("delete tag", err)
	}

	s.log.Debug("tag deleted", "tag_id", id, "owner_id", ownerID, "tasks_detached", detached)
	return nil
}
