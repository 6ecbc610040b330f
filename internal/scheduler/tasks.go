package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/convobot/internal/config"
	"github.com/edgard/convobot/internal/database"
)

// TaskFunc is the signature shared by all scheduled tasks. The context is
// provided by the scheduler and must be respected for cancellation.
type TaskFunc func(ctx context.Context) error

// TaskDeps contains the dependencies the maintenance tasks require.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.SchedulerConfig
}

// newConversationExpiryTask builds the task that cancels conversations left
// idle beyond the configured TTL. Expired conversations end with the
// cancelled status so a later restart of the same command starts clean.
func newConversationExpiryTask(deps TaskDeps) TaskFunc {
	log := deps.Logger.With("task", "conversation_expiry")

	return func(ctx context.Context) error {
		cutoff := time.Now().UTC().Add(-deps.Config.ConversationTTL)
		log.InfoContext(ctx, "Expiring idle conversations", "cutoff", cutoff)

		stale, err := deps.Store.ListStaleConversations(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to list stale conversations: %w", err)
		}
		if len(stale) == 0 {
			log.DebugContext(ctx, "No idle conversations to expire")
			return nil
		}

		expired := 0
		for _, conv := range stale {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := deps.Store.EndConversation(ctx, conv.ID, database.StatusCancelled); err != nil {
				log.ErrorContext(ctx, "Failed to expire conversation",
					"conversation_id", conv.ID, "user_id", conv.UserID, "chat_id", conv.ChatID, "error", err)
				continue
			}
			expired++
		}

		log.InfoContext(ctx, "Expired idle conversations", "count", expired, "stale", len(stale))
		return nil
	}
}

// newSQLMaintenanceTask builds the task that runs periodic database
// maintenance (VACUUM).
func newSQLMaintenanceTask(deps TaskDeps) TaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		start := time.Now()

		if err := deps.Store.RunMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance failed", "error", err, "duration", time.Since(start))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance completed", "duration", time.Since(start))
		return nil
	}
}
