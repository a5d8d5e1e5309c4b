package models

import "github.com/gofrs/uuid"

type PriorityStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

type TaskSummary struct {
	TotalTasks             int                        `json:"totalTasks"`
	CompletedTasks         int                        `json:"completedTasks"`
	HighPriorityIncomplete int                        `json:"highPriorityTasks"`
	DueToday               int                        `json:"tasksDueToday"`
	CompletionRate         float64                    `json:"completionRate"`
	PerPriority            map[Priority]PriorityStats `json:"priorityStats"`
}

type ProjectSummary struct {
	ProjectID      uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	TotalTasks     int       `json:"totalTasks"`
	CompletedTasks int       `json:"completedTasks"`
	CompletionRate float64   `json:"completionRate"`
}

// CompletionRate returns completed/total as a percentage, 0 when total is 0.
func CompletionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
