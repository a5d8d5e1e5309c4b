package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/testutil"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var plannerNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func newTestPlanner(t *testing.T) *PlannerService {
	t.Helper()
	return NewPlannerService(
		testutil.NewSQLiteStore(t),
		WithClock(func() time.Time { return plannerNow }),
		WithLogger(testutil.DiscardLogger()),
	)
}

func newOwner() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

func ptr[T any](v T) *T {
	return &v
}

func dueIn(d time.Duration) *time.Time {
	return ptr(plannerNow.Add(d))
}

func TestProjectSummaryTracksCompletion(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	project, err := p.CreateProject(ctx, owner, models.ProjectInput{Name: "P1"})
	require.NoError(t, err)

	task, err := p.CreateTask(ctx, owner, models.TaskInput{
		Title:         "T1",
		ProjectID:     &project.ID,
		PriorityLevel: models.PriorityHigh,
		DueDate:       dueIn(time.Hour),
	})
	require.NoError(t, err)

	summary, err := p.ProjectSummary(ctx, owner)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, models.ProjectSummary{ProjectID: project.ID, Name: "P1", TotalTasks: 1}, summary[0])

	_, err = p.CompleteTask(ctx, owner, task.ID)
	require.NoError(t, err)

	summary, err = p.ProjectSummary(ctx, owner)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 1, summary[0].CompletedTasks)
	assert.Equal(t, 100.0, summary[0].CompletionRate)
}

func TestDeleteTagDetachesFromTasks(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	g1, err := p.CreateTag(ctx, owner, models.TagInput{Name: "G1"})
	require.NoError(t, err)
	g2, err := p.CreateTag(ctx, owner, models.TagInput{Name: "G2", Color: "#ff0000"})
	require.NoError(t, err)

	task, err := p.CreateTask(ctx, owner, models.TaskInput{
		Title:   "T2",
		DueDate: dueIn(time.Hour),
		TagIDs:  []uuid.UUID{g1.ID, g2.ID},
	})
	require.NoError(t, err)

	require.NoError(t, p.DeleteTag(ctx, owner, g1.ID))

	fetched, err := p.GetTask(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{g2.ID}, fetched.TagIDs)

	_, err = p.GetTag(ctx, owner, g1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProjectCascadesToTasks(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	p2, err := p.CreateProject(ctx, owner, models.ProjectInput{Name: "P2"})
	require.NoError(t, err)
	t3, err := p.CreateTask(ctx, owner, models.TaskInput{Title: "T3", ProjectID: &p2.ID, DueDate: dueIn(time.Hour)})
	require.NoError(t, err)
	loose, err := p.CreateTask(ctx, owner, models.TaskInput{Title: "loose", DueDate: dueIn(time.Hour)})
	require.NoError(t, err)

	require.NoError(t, p.DeleteProject(ctx, owner, p2.ID))

	tasks, err := p.ListTasks(ctx, owner, models.TaskFilter{ProjectID: &p2.ID})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = p.GetTask(ctx, owner, t3.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.GetTask(ctx, owner, loose.ID)
	assert.NoError(t, err, "tasks outside the project survive")
}

func TestOtherOwnerGetsNotFound(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner, intruder := newOwner(), newOwner()

	project, err := p.CreateProject(ctx, owner, models.ProjectInput{Name: "mine"})
	require.NoError(t, err)
	tag, err := p.CreateTag(ctx, owner, models.TagInput{Name: "mine"})
	require.NoError(t, err)
	task, err := p.CreateTask(ctx, owner, models.TaskInput{Title: "mine", DueDate: dueIn(time.Hour)})
	require.NoError(t, err)

	checks := map[string]error{}
	_, checks["GetTask"] = p.GetTask(ctx, intruder, task.ID)
	_, checks["UpdateTask"] = p.UpdateTask(ctx, intruder, task.ID, models.TaskPatch{Title: ptr("stolen")})
	_, checks["CompleteTask"] = p.CompleteTask(ctx, intruder, task.ID)
	checks["DeleteTask"] = p.DeleteTask(ctx, intruder, task.ID)
	_, checks["GetProject"] = p.GetProject(ctx, intruder, project.ID)
	_, checks["UpdateProject"] = p.UpdateProject(ctx, intruder, project.ID, models.ProjectPatch{Name: ptr("x")})
	checks["DeleteProject"] = p.DeleteProject(ctx, intruder, project.ID)
	_, checks["GetTag"] = p.GetTag(ctx, intruder, tag.ID)
	_, checks["UpdateTag"] = p.UpdateTag(ctx, intruder, tag.ID, models.TagPatch{Name: ptr("x")})
	checks["DeleteTag"] = p.DeleteTag(ctx, intruder, tag.ID)
	_, checks["CreateTask with foreign project"] = p.CreateTask(ctx, intruder, models.TaskInput{
		Title: "x", ProjectID: &project.ID, DueDate: dueIn(time.Hour),
	})
	_, checks["CreateTask with foreign tag"] = p.CreateTask(ctx, intruder, models.TaskInput{
		Title: "x", TagIDs: []uuid.UUID{tag.ID}, DueDate: dueIn(time.Hour),
	})

	for name, err := range checks {
		assert.ErrorIs(t, err, ErrNotFound, name)
	}

	// Nothing of the owner's changed.
	got, err := p.GetTask(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
	assert.False(t, got.Completed)

	tasks, err := p.ListTasks(ctx, intruder, models.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateTaskValidation(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	tests := []struct {
		name  string
		in    models.TaskInput
		field string
	}{
		{"missing title", models.TaskInput{Title: "  ", DueDate: dueIn(0)}, "title"},
		{"missing due date", models.TaskInput{Title: "x"}, "dueDate"},
		{"zero due date", models.TaskInput{Title: "x", DueDate: &time.Time{}}, "dueDate"},
		{"bad priority", models.TaskInput{Title: "x", DueDate: dueIn(0), PriorityLevel: "urgent"}, "priorityLevel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.CreateTask(ctx, owner, tt.in)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	due := time.Date(2026, 3, 12, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	task, err := p.CreateTask(ctx, owner, models.TaskInput{Title: "  trimmed  ", DueDate: &due})
	require.NoError(t, err)

	assert.Equal(t, "trimmed", task.Title)
	assert.Equal(t, models.PriorityMedium, task.PriorityLevel)
	assert.Equal(t, time.UTC, task.DueDate.Location())
	assert.True(t, task.DueDate.Equal(due))
	assert.Equal(t, plannerNow, task.CreatedAt)
	assert.Nil(t, task.ProjectID)
}

func TestCreateTaskRejectsMissingReferences(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()
	missing := newOwner()

	_, err := p.CreateTask(ctx, owner, models.TaskInput{Title: "x", ProjectID: &missing, DueDate: dueIn(0)})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = p.CreateTask(ctx, owner, models.TaskInput{Title: "x", TagIDs: []uuid.UUID{missing}, DueDate: dueIn(0)})
	assert.ErrorIs(t, err, ErrNotFound)

	tasks, err := p.ListTasks(ctx, owner, models.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks, "rejected tasks are not stored")
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	project, err := p.CreateProject(ctx, owner, models.ProjectInput{Name: "P"})
	require.NoError(t, err)
	tag, err := p.CreateTag(ctx, owner, models.TagInput{Name: "G"})
	require.NoError(t, err)
	task, err := p.CreateTask(ctx, owner, models.TaskInput{Title: "T", DueDate: dueIn(time.Hour)})
	require.NoError(t, err)

	updated, err := p.UpdateTask(ctx, owner, task.ID, models.TaskPatch{
		Title:         ptr("renamed"),
		PriorityLevel: ptr(models.PriorityLow),
		ProjectID:     models.OptionalUUID{Set: true, Value: &project.ID},
		TagIDs:        &[]uuid.UUID{tag.ID, tag.ID},
		Completed:     ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, models.PriorityLow, updated.PriorityLevel)
	assert.Equal(t, &project.ID, updated.ProjectID)
	assert.Equal(t, []uuid.UUID{tag.ID}, updated.TagIDs)
	assert.True(t, updated.Completed)

	fetched, err := p.GetProject(ctx, owner, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{task.ID}, fetched.TaskIDs)

	cleared, err := p.UpdateTask(ctx, owner, task.ID, models.TaskPatch{
		ProjectID: models.OptionalUUID{Set: true},
		TagIDs:    &[]uuid.UUID{},
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.ProjectID)
	assert.Empty(t, cleared.TagIDs)
	assert.True(t, cleared.Completed, "fields absent from the patch are kept")
}

func TestUpdateTaskValidation(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	task, err := p.CreateTask(ctx, owner, models.TaskInput{Title: "T", DueDate: dueIn(time.Hour)})
	require.NoError(t, err)

	patches := map[string]models.TaskPatch{
		"empty":        {},
		"blank title":  {Title: ptr(" ")},
		"bad priority": {PriorityLevel: ptr(models.Priority("urgent"))},
		"zero due":     {DueDate: &time.Time{}},
	}
	for name, patch := range patches {
		_, err := p.UpdateTask(ctx, owner, task.ID, patch)
		assert.ErrorIs(t, err, ErrValidation, name)
	}

	missing := newOwner()
	_, err = p.UpdateTask(ctx, owner, task.ID, models.TaskPatch{ProjectID: models.OptionalUUID{Set: true, Value: &missing}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteTaskToggles(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	task, err := p.CreateTask(ctx, owner, models.TaskInput{Title: "T", DueDate: dueIn(time.Hour)})
	require.NoError(t, err)

	first, err := p.CompleteTask(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.True(t, first.Completed)

	second, err := p.CompleteTask(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.False(t, second.Completed)

	_, err = p.CompleteTask(ctx, owner, newOwner())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTasksFilters(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	project, err := p.CreateProject(ctx, owner, models.ProjectInput{Name: "P"})
	require.NoError(t, err)

	today, err := p.CreateTask(ctx, owner, models.TaskInput{
		Title: "today", DueDate: dueIn(2 * time.Hour), PriorityLevel: models.PriorityHigh, ProjectID: &project.ID,
	})
	require.NoError(t, err)
	tomorrow, err := p.CreateTask(ctx, owner, models.TaskInput{
		Title: "tomorrow", DueDate: dueIn(24 * time.Hour), Completed: true,
	})
	require.NoError(t, err)

	byProject, err := p.ListTasks(ctx, owner, models.TaskFilter{ProjectID: &project.ID})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, today.ID, byProject[0].ID)

	done, err := p.ListTasks(ctx, owner, models.TaskFilter{Completed: ptr(true)})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, tomorrow.ID, done[0].ID)

	high, err := p.ListTasks(ctx, owner, models.TaskFilter{Priority: ptr(models.PriorityHigh)})
	require.NoError(t, err)
	require.Len(t, high, 1)

	// Any instant on the calendar day selects the whole day.
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	due, err := p.ListTasks(ctx, owner, models.TaskFilter{DueDate: &day})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, today.ID, due[0].ID)

	_, err = p.ListTasks(ctx, owner, models.TaskFilter{Priority: ptr(models.Priority("urgent"))})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	_, err := p.CreateProject(ctx, owner, models.ProjectInput{Name: " "})
	assert.ErrorIs(t, err, ErrValidation)

	project, err := p.CreateProject(ctx, owner, models.ProjectInput{Name: "Home", Description: "chores"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultColor, project.Color)
	assert.NotNil(t, project.TaskIDs)
	assert.Empty(t, project.TaskIDs)

	_, err = p.UpdateProject(ctx, owner, project.ID, models.ProjectPatch{})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := p.UpdateProject(ctx, owner, project.ID, models.ProjectPatch{Color: ptr("#00ff00"), Name: ptr("House")})
	require.NoError(t, err)
	assert.Equal(t, "House", updated.Name)
	assert.Equal(t, "#00ff00", updated.Color)
	assert.Equal(t, "chores", updated.Description)

	projects, err := p.ListProjects(ctx, owner)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "House", projects[0].Name)

	err = p.DeleteProject(ctx, owner, project.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, p.DeleteProject(ctx, owner, project.ID), ErrNotFound)
}

func TestTagLifecycle(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	_, err := p.CreateTag(ctx, owner, models.TagInput{})
	assert.ErrorIs(t, err, ErrValidation)

	tag, err := p.CreateTag(ctx, owner, models.TagInput{Name: "work"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultColor, tag.Color)

	// Names are not unique.
	_, err = p.CreateTag(ctx, owner, models.TagInput{Name: "work"})
	require.NoError(t, err)

	updated, err := p.UpdateTag(ctx, owner, tag.ID, models.TagPatch{Color: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultColor, updated.Color)

	tags, err := p.ListTags(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestTaskSummaryInvariants(t *testing.T) {
	ctx := context.Background()
	p := newTestPlanner(t)
	owner := newOwner()

	empty, err := p.TaskSummary(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalTasks)
	assert.Equal(t, 0.0, empty.CompletionRate)
	assert.Len(t, empty.PerPriority, 3)

	for i, prio := range []models.Priority{models.PriorityHigh, models.PriorityHigh, models.PriorityLow, models.PriorityMedium} {
		_, err := p.CreateTask(ctx, owner, models.TaskInput{
			Title:         "t",
			PriorityLevel: prio,
			DueDate:       dueIn(time.Duration(i) * time.Hour),
			Completed:     i == 0,
		})
		require.NoError(t, err)
	}

	summary, err := p.TaskSummary(ctx, owner)
	require.NoError(t, err)

	sum := 0
	for _, stats := range summary.PerPriority {
		sum += stats.Total
	}
	assert.Equal(t, summary.TotalTasks, sum)
	assert.Equal(t, 4, summary.TotalTasks)
	assert.Equal(t, 1, summary.CompletedTasks)
	assert.Equal(t, 1, summary.HighPriorityIncomplete)
	assert.Equal(t, 3, summary.DueToday)
	assert.Equal(t, 25.0, summary.CompletionRate)
}
