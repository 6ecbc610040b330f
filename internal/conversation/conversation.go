// Package conversation implements the persisted multi-turn conversation
// state machine. A conversation binds a (user, chat) pair to the command
// currently in progress and an open-ended notes payload the command reads
// and writes across turns.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edgard/convobot/internal/database"
)

// ErrActiveMismatch is returned when a conversation is constructed with an
// explicit command for a pair that is already active with a different
// command. One pair cannot run two interactive commands concurrently.
var ErrActiveMismatch = errors.New("conversation already active with a different command")

// ErrNotActive is returned by mutating operations on a conversation that is
// not bound to an active stored row.
var ErrNotActive = errors.New("conversation is not active")

// Store is the persistence surface a conversation needs. It is satisfied by
// database.Store.
type Store interface {
	FindActiveConversation(ctx context.Context, userID, chatID int64) (*database.Conversation, error)
	InsertConversation(ctx context.Context, conv *database.Conversation) error
	UpdateConversationNotes(ctx context.Context, id int64, notes string) error
	EndConversation(ctx context.Context, id int64, status string) error
}

// Conversation is the in-memory view of one pair's conversation state.
//
// Notes is the command's working state. Update persists the whole map;
// concurrent instances for the same pair race and the last Update wins.
type Conversation struct {
	store Store

	id      int64
	userID  int64
	chatID  int64
	command string
	active  bool

	Notes map[string]any
}

// New loads or starts a conversation for a (user, chat) pair.
//
//   - If an active row exists and command is empty or equal to the stored
//     command, the instance attaches to it.
//   - If an active row exists with a different command, ErrActiveMismatch
//     is returned.
//   - If no active row exists and command is non-empty, a fresh active row
//     with empty notes is created.
//   - If no active row exists and command is empty, the instance stays
//     unbound: Exists reports false and nothing is written.
func New(ctx context.Context, store Store, userID, chatID int64, command string) (*Conversation, error) {
	if store == nil {
		return nil, fmt.Errorf("conversation store cannot be nil")
	}

	c := &Conversation{
		store:  store,
		userID: userID,
		chatID: chatID,
		Notes:  map[string]any{},
	}

	row, err := store.FindActiveConversation(ctx, userID, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation (user %d, chat %d): %w", userID, chatID, err)
	}

	if row != nil {
		if command != "" && command != row.Command {
			return nil, fmt.Errorf("%w: active=%q requested=%q (user %d, chat %d)",
				ErrActiveMismatch, row.Command, command, userID, chatID)
		}

		c.id = row.ID
		c.command = row.Command
		c.active = true
		if err := json.Unmarshal([]byte(row.Notes), &c.Notes); err != nil {
			return nil, fmt.Errorf("failed to decode notes for conversation %d: %w", row.ID, err)
		}
		if c.Notes == nil {
			c.Notes = map[string]any{}
		}
		return c, nil
	}

	if command == "" {
		// Absent state: no row is materialized until a command is supplied.
		return c, nil
	}

	newRow := &database.Conversation{
		UserID:  userID,
		ChatID:  chatID,
		Command: command,
		Notes:   "{}",
	}
	if err := store.InsertConversation(ctx, newRow); err != nil {
		return nil, fmt.Errorf("failed to start conversation (user %d, chat %d): %w", userID, chatID, err)
	}

	c.id = newRow.ID
	c.command = command
	c.active = true
	return c, nil
}

// Exists reports whether this instance is bound to an active stored row.
func (c *Conversation) Exists() bool {
	return c.active
}

// Command returns the active command name, or the empty string when the
// conversation is absent.
func (c *Conversation) Command() string {
	if !c.active {
		return ""
	}
	return c.command
}

// UserID returns the user identifier of the pair.
func (c *Conversation) UserID() int64 { return c.userID }

// ChatID returns the chat identifier of the pair.
func (c *Conversation) ChatID() int64 { return c.chatID }

// Update persists the current notes payload to the bound row. The stored
// payload is fully overwritten.
func (c *Conversation) Update(ctx context.Context) error {
	if !c.active {
		return ErrNotActive
	}

	raw, err := json.Marshal(c.Notes)
	if err != nil {
		return fmt.Errorf("failed to encode notes for conversation %d: %w", c.id, err)
	}

	if err := c.store.UpdateConversationNotes(ctx, c.id, string(raw)); err != nil {
		return fmt.Errorf("failed to persist conversation %d: %w", c.id, err)
	}
	return nil
}

// Stop marks the conversation as completed. Subsequent constructions for
// the pair see the absent state.
func (c *Conversation) Stop(ctx context.Context) error {
	return c.end(ctx, database.StatusStopped)
}

// Cancel marks the conversation as cancelled. Externally equivalent to
// Stop; only the stored completion reason differs.
func (c *Conversation) Cancel(ctx context.Context) error {
	return c.end(ctx, database.StatusCancelled)
}

func (c *Conversation) end(ctx context.Context, status string) error {
	if !c.active {
		return ErrNotActive
	}

	if err := c.store.EndConversation(ctx, c.id, status); err != nil {
		return fmt.Errorf("failed to end conversation %d: %w", c.id, err)
	}

	c.active = false
	c.command = ""
	return nil
}
