package mongostore

import (
	"fmt"
	"time"

	"task-planner/backend/internal/models"

	"github.com/gofrs/uuid"
)

// Ids are stored as canonical uuid strings so documents stay readable from
// the mongo shell and match the ids the REST API hands out.

type userDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type projectDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Color       string    `bson:"color"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type taskDoc struct {
	ID            string    `bson:"_id"`
	UserID        string    `bson:"user_id"`
	ProjectID     *string   `bson:"project_id"`
	Title         string    `bson:"title"`
	Description   string    `bson:"description"`
	Completed     bool      `bson:"completed"`
	PriorityLevel string    `bson:"priority_level"`
	DueDate       time.Time `bson:"due_date"`
	TagIDs        []string  `bson:"tag_ids"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

type tagDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Name      string    `bson:"name"`
	Color     string    `bson:"color"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.FromString(r)
		if err != nil {
			return nil, fmt.Errorf("decode id %q: %w", r, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func newUserDoc(u *models.User) userDoc {
	return userDoc{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.Password,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

func (d userDoc) model() (models.User, error) {
	id, err := uuid.FromString(d.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("decode user id: %w", err)
	}
	return models.User{
		ID:        id,
		Name:      d.Name,
		Email:     d.Email,
		Password:  d.Password,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func newProjectDoc(p *models.Project) projectDoc {
	return projectDoc{
		ID:          p.ID.String(),
		UserID:      p.UserID.String(),
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func (d projectDoc) model() (models.Project, error) {
	ids, err := parseIDs([]string{d.ID, d.UserID})
	if err != nil {
		return models.Project{}, err
	}
	return models.Project{
		ID:          ids[0],
		UserID:      ids[1],
		Name:        d.Name,
		Description: d.Description,
		Color:       d.Color,
		TaskIDs:     []uuid.UUID{},
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func newTaskDoc(t *models.Task) taskDoc {
	doc := taskDoc{
		ID:            t.ID.String(),
		UserID:        t.UserID.String(),
		Title:         t.Title,
		Description:   t.Description,
		Completed:     t.Completed,
		PriorityLevel: string(t.PriorityLevel),
		DueDate:       t.DueDate.UTC(),
		TagIDs:        idStrings(t.TagIDs),
		CreatedAt:     t.CreatedAt.UTC(),
		UpdatedAt:     t.UpdatedAt.UTC(),
	}
	if t.ProjectID != nil {
		pid := t.ProjectID.String()
		doc.ProjectID = &pid
	}
	return doc
}

func (d taskDoc) model() (models.Task, error) {
	ids, err := parseIDs([]string{d.ID, d.UserID})
	if err != nil {
		return models.Task{}, err
	}
	tagIDs, err := parseIDs(d.TagIDs)
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:            ids[0],
		UserID:        ids[1],
		Title:         d.Title,
		Description:   d.Description,
		Completed:     d.Completed,
		PriorityLevel: models.Priority(d.PriorityLevel),
		DueDate:       d.DueDate,
		TagIDs:        tagIDs,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.ProjectID != nil {
		pid, err := uuid.FromString(*d.ProjectID)
		if err != nil {
			return models.Task{}, fmt.Errorf("decode project id: %w", err)
		}
		task.ProjectID = &pid
	}
	return task, nil
}

func newTagDoc(t *models.Tag) tagDoc {
	return tagDoc{
		ID:        t.ID.String(),
		UserID:    t.UserID.String(),
		Name:      t.Name,
		Color:     t.Color,
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
}

func (d tagDoc) model() (models.Tag, error) {
	ids, err := parseIDs([]string{d.ID, d.UserID})
	if err != nil {
		return models.Tag{}, err
	}
	return models.Tag{
		ID:        ids[0],
		UserID:    ids[1],
		Name:      d.Name,
		Color:     d.Color,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}
