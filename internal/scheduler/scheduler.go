// Package scheduler runs the background maintenance jobs on cron schedules
// using the gocron library: idle-conversation expiry and SQL maintenance.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler manages the background jobs. It wraps a gocron scheduler and a
// fixed set of named tasks built from TaskDeps.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	tasks     map[string]taskEntry
	mu        sync.Mutex
	running   bool
}

type taskEntry struct {
	schedule string
	fn       TaskFunc
}

// New creates a scheduler with the maintenance tasks registered against the
// schedules from the configuration.
func New(deps TaskDeps) (*Scheduler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	log := deps.Logger.With("component", "scheduler")

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	tasks := map[string]taskEntry{
		"conversation_expiry": {schedule: deps.Config.ExpirySchedule, fn: newConversationExpiryTask(deps)},
		"sql_maintenance":     {schedule: deps.Config.MaintenanceSchedule, fn: newSQLMaintenanceTask(deps)},
	}

	return &Scheduler{
		scheduler: s,
		logger:    log,
		tasks:     tasks,
	}, nil
}

// Start registers all tasks as cron jobs and starts the scheduler ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduled := 0
	for name, entry := range s.tasks {
		if entry.schedule == "" {
			s.logger.Warn("Task has empty schedule, skipping", "task_name", name)
			continue
		}

		taskFunc := entry.fn
		_, err := s.scheduler.NewJob(
			gocron.CronJob(entry.schedule, false),
			gocron.NewTask(
				func(ctx context.Context, taskName string) {
					s.logger.Info("Running scheduled task", "task_name", taskName)
					start := time.Now()
					if taskErr := taskFunc(ctx); taskErr != nil {
						s.logger.Error("Scheduled task failed", "task_name", taskName, "error", taskErr)
					}
					s.logger.Info("Finished scheduled task", "task_name", taskName, "duration", time.Since(start))
				},
				context.Background(),
				name,
			),
			gocron.WithName(name),
		)
		if err != nil {
			s.logger.Error("Failed to schedule task", "task_name", name, "schedule", entry.schedule, "error", err)
			continue
		}

		s.logger.Info("Scheduled task", "task_name", name, "schedule", entry.schedule)
		scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled)

	return nil
}

// Stop shuts the scheduler down, waiting for any running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped")
	}

	s.running = false
	return err
}
