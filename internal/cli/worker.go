package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"task-planner/backend/internal/config"
	"task-planner/backend/internal/worker"

	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	var schedule bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process background jobs from the Redis queues",
		Long: `Process background jobs from the Redis queues.

Jobs: integrity_sweep removes tasks and tag links left dangling by a failed
cascade, due_reminder reports incomplete tasks falling due soon. With
--schedule the worker also enqueues both jobs every WORKER_SWEEP_INTERVAL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg, os.Stderr).With("component", "worker")

			if !cfg.Redis.Enabled {
				return errors.New("the worker needs Redis: set REDIS_ENABLED=true")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			rdb, err := openRedis(ctx, cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			w := worker.NewWorker(worker.WorkerConfig{
				RedisClient:  rdb,
				PollInterval: cfg.Worker.PollInterval,
				Queues:       cfg.Worker.Queues,
				Logger:       log,
			})
			worker.NewJobs(st, cfg.Worker.ReminderWindow, log).Register(w)

			if schedule {
				queueName := worker.DefaultQueue
				if len(cfg.Worker.Queues) > 0 {
					queueName = cfg.Worker.Queues[0]
				}
				go worker.NewScheduler(worker.NewJobQueue(rdb), queueName, cfg.Worker.SweepInterval, log).Run(ctx)
			}

			w.Start(ctx, cfg.Worker.Concurrency)
			<-ctx.Done()
			w.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&schedule, "schedule", true, "enqueue the periodic jobs from this process")
	return cmd
}
