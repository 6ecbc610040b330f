package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the persistence contract for conversations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// FindActiveConversation returns the active conversation for a
	// (user, chat) pair. Returns nil, nil if none exists.
	FindActiveConversation(ctx context.Context, userID, chatID int64) (*Conversation, error)

	// InsertConversation inserts a new active conversation row.
	InsertConversation(ctx context.Context, conv *Conversation) error

	// UpdateConversationNotes persists the notes payload of a conversation.
	// The full payload is overwritten; concurrent writers race and the last
	// write wins.
	UpdateConversationNotes(ctx context.Context, id int64, notes string) error

	// EndConversation marks a conversation inactive with the given status
	// (StatusStopped or StatusCancelled).
	EndConversation(ctx context.Context, id int64, status string) error

	// ListStaleConversations returns active conversations not updated since
	// the cutoff time.
	ListStaleConversations(ctx context.Context, cutoff time.Time) ([]Conversation, error)

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FindActiveConversation returns the active conversation for a (user, chat)
// pair, or nil, nil when the pair has no active row.
func (s *sqlxStore) FindActiveConversation(ctx context.Context, userID, chatID int64) (*Conversation, error) {
	if userID == 0 || chatID == 0 {
		return nil, fmt.Errorf("user_id and chat_id must be non-zero")
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var conv Conversation
	query := `
        SELECT id, created_at, updated_at, user_id, chat_id, command, notes, status
        FROM conversations
        WHERE user_id = ? AND chat_id = ? AND status = ?
        ORDER BY id DESC
        LIMIT 1;
    `

	err := s.db.GetContext(ctx, &conv, query, userID, chatID, StatusActive)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Absence is expected and frequent, not an error.
		s.logger.DebugContext(ctx, "No active conversation found", "user_id", userID, "chat_id", chatID)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching conversation",
			"user_id", userID, "chat_id", chatID, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting active conversation",
			"user_id", userID, "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get active conversation for user %d chat %d: %w", userID, chatID, err)
	}

	s.logger.DebugContext(ctx, "Found active conversation",
		"user_id", userID, "chat_id", chatID, "command", conv.Command, "conversation_id", conv.ID)
	return &conv, nil
}

// InsertConversation inserts a new active conversation row and fills in the
// generated ID on the passed struct.
func (s *sqlxStore) InsertConversation(ctx context.Context, conv *Conversation) error {
	if conv == nil {
		return fmt.Errorf("cannot insert nil conversation")
	}
	if conv.UserID == 0 || conv.ChatID == 0 {
		return fmt.Errorf("conversation must have non-zero user_id and chat_id")
	}
	if conv.Command == "" {
		return fmt.Errorf("conversation must have a non-empty command")
	}

	now := time.Now().UTC()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	conv.Status = StatusActive
	if conv.Notes == "" {
		conv.Notes = "{}"
	}

	query := `
        INSERT INTO conversations (created_at, updated_at, user_id, chat_id, command, notes, status)
        VALUES (:created_at, :updated_at, :user_id, :chat_id, :command, :notes, :status);
    `

	result, err := s.db.NamedExecContext(ctx, query, conv)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting conversation",
			"user_id", conv.UserID, "chat_id", conv.ChatID, "command", conv.Command, "error", err)
		return fmt.Errorf("failed to insert conversation (user %d, chat %d): %w", conv.UserID, conv.ChatID, err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		conv.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after inserting conversation",
			"user_id", conv.UserID, "chat_id", conv.ChatID, "error", err)
	}

	s.logger.DebugContext(ctx, "Conversation inserted successfully",
		"user_id", conv.UserID, "chat_id", conv.ChatID, "command", conv.Command, "conversation_id", conv.ID)
	return nil
}

// UpdateConversationNotes overwrites the stored notes payload of a
// conversation. Last writer wins: there is no merge or concurrency check.
func (s *sqlxStore) UpdateConversationNotes(ctx context.Context, id int64, notes string) error {
	if id == 0 {
		return fmt.Errorf("conversation id cannot be zero")
	}

	query := `UPDATE conversations SET notes = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := s.db.ExecContext(ctx, query, notes, time.Now().UTC(), id, StatusActive)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating conversation notes", "conversation_id", id, "error", err)
		return fmt.Errorf("failed to update notes for conversation %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when updating notes",
			"conversation_id", id, "affected", affected)
	}

	s.logger.DebugContext(ctx, "Conversation notes updated", "conversation_id", id)
	return nil
}

// EndConversation marks a conversation inactive with the given completion
// status. The row is kept for history.
func (s *sqlxStore) EndConversation(ctx context.Context, id int64, status string) error {
	if id == 0 {
		return fmt.Errorf("conversation id cannot be zero")
	}
	if status != StatusStopped && status != StatusCancelled {
		return fmt.Errorf("invalid completion status %q", status)
	}

	query := `UPDATE conversations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id, StatusActive)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error ending conversation", "conversation_id", id, "status", status, "error", err)
		return fmt.Errorf("failed to end conversation %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when ending conversation",
			"conversation_id", id, "status", status, "affected", affected)
	}

	s.logger.DebugContext(ctx, "Conversation ended", "conversation_id", id, "status", status)
	return nil
}

// ListStaleConversations returns active conversations whose last update is
// older than the cutoff, oldest first.
func (s *sqlxStore) ListStaleConversations(ctx context.Context, cutoff time.Time) ([]Conversation, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var convs []Conversation
	query := `
        SELECT id, created_at, updated_at, user_id, chat_id, command, notes, status
        FROM conversations
        WHERE status = ? AND updated_at < ?
        ORDER BY updated_at ASC;
    `

	err := s.db.SelectContext(ctx, &convs, query, StatusActive, cutoff.UTC())

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while listing stale conversations", "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error listing stale conversations", "error", err)
		return nil, fmt.Errorf("failed to list stale conversations: %w", err)
	}

	s.logger.DebugContext(ctx, "Listed stale conversations", "count", len(convs), "cutoff", cutoff)
	return convs, nil
}

// RunMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
