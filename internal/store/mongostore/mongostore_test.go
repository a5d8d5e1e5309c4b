package mongostore

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/store"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestTaskDocRoundTrip(t *testing.T) {
	projectID := uuid.Must(uuid.NewV4())
	tagID := uuid.Must(uuid.NewV4())
	due := time.Date(2026, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	task := models.Task{
		ID:            uuid.Must(uuid.NewV4()),
		UserID:        uuid.Must(uuid.NewV4()),
		ProjectID:     &projectID,
		Title:         "ship",
		PriorityLevel: models.PriorityHigh,
		DueDate:       due,
		TagIDs:        []uuid.UUID{tagID},
	}

	doc := newTaskDoc(&task)
	require.NotNil(t, doc.ProjectID)
	assert.Equal(t, projectID.String(), *doc.ProjectID)
	assert.Equal(t, time.UTC, doc.DueDate.Location())

	got, err := doc.model()
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, projectID, *got.ProjectID)
	assert.Equal(t, []uuid.UUID{tagID}, got.TagIDs)
	assert.True(t, got.DueDate.Equal(due))
}

func TestTaskDoc_NoProjectNoTags(t *testing.T) {
	doc := newTaskDoc(&models.Task{ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4())})
	assert.Nil(t, doc.ProjectID)
	assert.NotNil(t, doc.TagIDs)

	doc.TagIDs = nil
	got, err := doc.model()
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)
	assert.Empty(t, got.TagIDs)
}

func TestTaskDoc_BSONFieldNames(t *testing.T) {
	doc := newTaskDoc(&models.Task{ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4())})
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	for _, key := range []string{"_id", "user_id", "project_id", "priority_level", "due_date", "tag_ids"} {
		assert.Contains(t, m, key)
	}
}

func TestDocModel_RejectsMalformedID(t *testing.T) {
	_, err := tagDoc{ID: "not-a-uuid", UserID: uuid.Must(uuid.NewV4()).String()}.model()
	assert.Error(t, err)

	bad := "nope"
	_, err = taskDoc{
		ID:        uuid.Must(uuid.NewV4()).String(),
		UserID:    uuid.Must(uuid.NewV4()).String(),
		ProjectID: &bad,
	}.model()
	assert.Error(t, err)
}

func TestProjectDoc_ModelHasEmptyTaskIDs(t *testing.T) {
	p := models.Project{ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4()), Name: "p"}
	got, err := newProjectDoc(&p).model()
	require.NoError(t, err)
	assert.NotNil(t, got.TaskIDs)
	assert.Empty(t, got.TaskIDs)
}

func TestTaskFilter(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	projectID := uuid.Must(uuid.NewV4())
	done := false
	high := models.PriorityHigh
	from := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	before := from.Add(24 * time.Hour)

	filter := taskFilter(owner, store.TaskQuery{
		ProjectID: &projectID,
		Completed: &done,
		Priority:  &high,
		DueFrom:   &from,
		DueBefore: &before,
	})

	assert.Equal(t, owner.String(), filter["user_id"])
	assert.Equal(t, projectID.String(), filter["project_id"])
	assert.Equal(t, false, filter["completed"])
	assert.Equal(t, "high", filter["priority_level"])
	assert.Equal(t, bson.M{"$gte": from, "$lt": before}, filter["due_date"])

	assert.Equal(t, bson.M{"user_id": owner.String()}, taskFilter(owner, store.TaskQuery{}))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(mongo.ErrNoDocuments), store.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translate(dup), store.ErrDuplicate)

	other := errors.New("socket closed")
	assert.Equal(t, other, translate(other))
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", translate(mongo.ErrNoDocuments)), store.ErrNotFound)
}
