package database

import "time"

// Conversation status values. A pair (user_id, chat_id) has at most one
// row with StatusActive; stopped and cancelled rows are kept as history.
const (
	StatusActive    = "active"
	StatusStopped   = "stopped"
	StatusCancelled = "cancelled"
)

// Conversation represents an in-progress multi-step command interaction
// bound to a (user, chat) pair. Notes holds the command's working state as
// a JSON object; the command layer reads and writes it across turns.
type Conversation struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	UserID  int64  `db:"user_id"`
	ChatID  int64  `db:"chat_id"`
	Command string `db:"command"`
	Notes   string `db:"notes"`
	Status  string `db:"status"`
}
