package services

import (
	"context"
	"time"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/store"

	"github.com/gofrs/uuid"
)

// TaskSummary aggregates every task of the owner as stored right now.
// "Due today" uses the configured location, see WithLocation.
func (s *PlannerService) TaskSummary(ctx context.Context, ownerID uuid.UUID) (models.TaskSummary, error) {
	tasks, err := s.store.ListTasks(ctx, ownerID, store.TaskQuery{})
	if err != nil {
		return models.TaskSummary{}, classify("task summary", err)
	}
	return summarizeTasks(tasks, s.now(), s.loc), nil
}

// ProjectSummary counts tasks per project from the task collection itself,
// one entry per project in ListProjects order.
func (s *PlannerService) ProjectSummary(ctx context.Context, ownerID uuid.UUID) ([]models.ProjectSummary, error) {
	projects, err := s.store.ListProjects(ctx, ownerID)
	if err != nil {
		return nil, classify("project summary", err)
	}
	tasks, err := s.store.ListTasks(ctx, ownerID, store.TaskQuery{})
	if err != nil {
		return nil, classify("project summary", err)
	}
	return summarizeProjects(projects, tasks), nil
}

func summarizeTasks(tasks []models.Task, now time.Time, loc *time.Location) models.TaskSummary {
	summary := models.TaskSummary{
		PerPriority: make(map[models.Priority]models.PriorityStats, len(models.Priorities)),
	}
	for _, p := range models.Priorities {
		summary.PerPriority[p] = models.PriorityStats{}
	}

	todayStart, todayEnd := dayWindow(now.In(loc), loc)

	for _, t := range tasks {
		summary.TotalTasks++

		stats := summary.PerPriority[t.PriorityLevel]
		stats.Total++
		if t.Completed {
			stats.Completed++
			summary.CompletedTasks++
		}
		summary.PerPriority[t.PriorityLevel] = stats

		if t.Completed {
			continue
		}
		if t.PriorityLevel == models.PriorityHigh {
			summary.HighPriorityIncomplete++
		}
		if !t.DueDate.Before(todayStart) && t.DueDate.Before(todayEnd) {
			summary.DueToday++
		}
	}

	summary.CompletionRate = models.CompletionRate(summary.CompletedTasks, summary.TotalTasks)
	return summary
}

func summarizeProjects(projects []models.Project, tasks []models.Task) []models.ProjectSummary {
	type counts struct{ total, completed int }
	byProject := make(map[uuid.UUID]*counts, len(projects))
	for _, p := range projects {
		byProject[p.ID] = &counts{}
	}

	for _, t := range tasks {
		if t.ProjectID == nil {
			continue
		}
		if c, ok := byProject[*t.ProjectID]; ok {
			c.total++
			if t.Completed {
				c.completed++
			}
		}
	}

	out := make([]models.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		c := byProject[p.ID]
		out = append(out, models.ProjectSummary{
			ProjectID:      p.ID,
			Name:           p.Name,
			TotalTasks:     c.total,
			CompletedTasks: c.completed,
			CompletionRate: models.CompletionRate(c.completed, c.total),
		})
	}
	return out
}
