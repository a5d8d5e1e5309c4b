package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/store"

	"github.com/gofrs/uuid"
)

// Jobs holds the handlers for the planner's background job types.
type Jobs struct {
	store  store.Store
	window time.Duration
	log    *slog.Logger
	now    func() time.Time
}

func NewJobs(st store.Store, reminderWindow time.Duration, log *slog.Logger) *Jobs {
	if reminderWindow <= 0 {
		reminderWindow = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Jobs{store: st, window: reminderWindow, log: log, now: time.Now}
}

// Register binds every job type to w.
func (j *Jobs) Register(w *Worker) {
	w.RegisterHandler(JobTypeIntegritySweep, j.IntegritySweep)
	w.RegisterHandler(JobTypeDueReminder, j.DueReminder)
}

func (j *Jobs) IntegritySweep(ctx context.Context, job *Job) error {
	report, err := j.store.SweepDanglingReferences(ctx)
	if err != nil {
		return fmt.Errorf("integrity sweep: %w", err)
	}
	j.log.Info("integrity sweep finished",
		"job_id", job.ID,
		"orphan_tasks", report.OrphanTasks,
		"orphan_task_tags", report.OrphanTaskTags,
	)
	return nil
}

// Reminder lists one owner's incomplete tasks falling due inside the window.
type Reminder struct {
	OwnerID uuid.UUID
	Tasks   []models.Task
}

func (j *Jobs) DueReminder(ctx context.Context, job *Job) error {
	reminders, err := j.dueReminders(ctx)
	if err != nil {
		return err
	}
	for _, r := range reminders {
		titles := make([]string, len(r.Tasks))
		for i, t := range r.Tasks {
			titles[i] = t.Title
		}
		j.log.Info("tasks due soon", "job_id", job.ID, "owner", r.OwnerID, "count", len(r.Tasks), "titles", titles)
	}
	return nil
}

func (j *Jobs) dueReminders(ctx context.Context) ([]Reminder, error) {
	from := j.now().UTC()
	tasks, err := j.store.ListDueTasks(ctx, from, from.Add(j.window))
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}

	byOwner := make(map[uuid.UUID][]models.Task)
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		byOwner[t.UserID] = append(byOwner[t.UserID], t)
	}

	reminders := make([]Reminder, 0, len(byOwner))
	for owner, ts := range byOwner {
		sort.Slice(ts, func(a, b int) bool { return ts[a].DueDate.Before(ts[b].DueDate) })
		reminders = append(reminders, Reminder{OwnerID: owner, Tasks: ts})
	}
	sort.Slice(reminders, func(a, b int) bool {
		return reminders[a].OwnerID.String() < reminders[b].OwnerID.String()
	})
	return reminders, nil
}

// Scheduler enqueues the periodic jobs once at start and then every interval.
type Scheduler struct {
	queue    *JobQueue
	name     string
	interval time.Duration
	log      *slog.Logger
}

func NewScheduler(queue *JobQueue, queueName string, interval time.Duration, log *slog.Logger) *Scheduler {
	if queueName == "" {
		queueName = DefaultQueue
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{queue: queue, name: queueName, interval: interval, log: log}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.EnqueuePeriodic(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) EnqueuePeriodic(ctx context.Context) {
	for _, jobType := range []JobType{JobTypeIntegritySweep, JobTypeDueReminder} {
		job, err := s.queue.Enqueue(ctx, s.name, jobType, nil)
		if err != nil {
			s.log.Error("failed to schedule job", "job_type", jobType, "error", err)
			continue
		}
		s.log.Debug("scheduled job", "job_id", job.ID, "job_type", jobType)
	}
}
