package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"task-planner/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gofrs/uuid"
)

const dateOnly = "2006-01-02"

// Date accepts either a full RFC 3339 timestamp or a bare calendar date.
// A bare date is midnight UTC.
type Date struct {
	time.Time
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC 3339", s)
	}
	return t, nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("date must be a string")
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *Date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

type createTaskRequest struct {
	Title         string          `json:"title" binding:"max=200"`
	Description   string          `json:"description" binding:"max=2000"`
	Completed     bool            `json:"completed"`
	ProjectID     *uuid.UUID      `json:"projectId"`
	PriorityLevel models.Priority `json:"priorityLevel"`
	DueDate       *Date           `json:"dueDate"`
	TagIDs        []uuid.UUID     `json:"tagIds"`
}

func (r createTaskRequest) input() models.TaskInput {
	return models.TaskInput{
		Title:         r.Title,
		Description:   r.Description,
		Completed:     r.Completed,
		ProjectID:     r.ProjectID,
		PriorityLevel: r.PriorityLevel,
		DueDate:       r.DueDate.ptr(),
		TagIDs:        r.TagIDs,
	}
}

type updateTaskRequest struct {
	Title         *string             `json:"title" binding:"omitempty,max=200"`
	Description   *string             `json:"description" binding:"omitempty,max=2000"`
	Completed     *bool               `json:"completed"`
	PriorityLevel *models.Priority    `json:"priorityLevel"`
	DueDate       *Date               `json:"dueDate"`
	ProjectID     models.OptionalUUID `json:"projectId"`
	TagIDs        *[]uuid.UUID        `json:"tagIds"`
}

func (r updateTaskRequest) patch() models.TaskPatch {
	return models.TaskPatch{
		Title:         r.Title,
		Description:   r.Description,
		Completed:     r.Completed,
		PriorityLevel: r.PriorityLevel,
		DueDate:       r.DueDate.ptr(),
		ProjectID:     r.ProjectID,
		TagIDs:        r.TagIDs,
	}
}

type projectRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Color       *string `json:"color" binding:"omitempty,hexcolor|eq="`
}

type tagRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=50"`
	Color *string `json:"color" binding:"omitempty,hexcolor|eq="`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// decodeJSON reads the body strictly: unknown fields, trailing data and an
// empty body are all rejected before struct validation runs.
func decodeJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return errors.New("request body is required")
	}

	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	if rest, _ := io.ReadAll(dec.Buffered()); len(bytes.TrimSpace(rest)) > 0 {
		return errors.New("request body must contain a single JSON object")
	}

	if binding.Validator == nil {
		return nil
	}
	return binding.Validator.ValidateStruct(dst)
}

func taskFilterFromQuery(c *gin.Context) (models.TaskFilter, error) {
	var filter models.TaskFilter

	if raw := c.Query("projectId"); raw != "" {
		id, err := uuid.FromString(raw)
		if err != nil {
			return filter, fmt.Errorf("projectId: %w", err)
		}
		filter.ProjectID = &id
	}

	if raw := c.Query("completed"); raw != "" {
		switch strings.ToLower(raw) {
		case "true":
			v := true
			filter.Completed = &v
		case "false":
			v := false
			filter.Completed = &v
		default:
			return filter, fmt.Errorf("completed: must be true or false")
		}
	}

	if raw := c.Query("priority"); raw != "" {
		p := models.Priority(strings.ToLower(raw))
		filter.Priority = &p
	}

	if raw := c.Query("dueDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("dueDate: %w", err)
		}
		filter.DueDate = &t
	}

	return filter, nil
}
