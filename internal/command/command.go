// Package command defines the command capability interface, the descriptor
// metadata attached to each command, the per-update execution context, and
// the registry that resolves command names to handler instances.
package command

import (
	"context"

	"github.com/go-telegram/bot/models"
)

// Kind classifies a command.
type Kind string

const (
	// KindUser marks commands invoked explicitly by end users.
	KindUser Kind = "user"
	// KindSystem marks commands reacting to platform-generated events.
	KindSystem Kind = "system"
	// KindAdmin marks commands restricted to the bot operator.
	KindAdmin Kind = "admin"
)

// Descriptor holds the static metadata of a command. Commands themselves
// are stateless factories; the descriptor is the shared data each concrete
// command references instead of inheriting.
type Descriptor struct {
	Name        string
	Description string
	Usage       string
	Version     string
	Enabled     bool
	ShowInHelp  bool
	Kind        Kind
}

// Result is the outcome of dispatching one update. The zero value means
// "nothing applied": no handler matched and no reply was attempted.
type Result struct {
	// Handled reports that a command executed for the update.
	Handled bool
	// Sent reports that an outbound reply was issued successfully.
	Sent bool
	// MessageID is the provider-assigned identifier of the reply, when any.
	MessageID int
}

// Command is the single capability interface every concrete command
// implements. Instances are created fresh per dispatched update and
// discarded after Execute returns.
type Command interface {
	Execute(ctx context.Context) (Result, error)
}

// Factory builds a command instance bound to one update's execution context.
type Factory func(cctx *Context) Command

// SendParams describes one outbound reply.
type SendParams struct {
	ChatID           int64
	Text             string
	ReplyToMessageID int
	Markup           models.ReplyMarkup
}

// SendResult reports the outcome of a send operation. The core never
// inspects provider responses beyond OK and the assigned identifiers.
type SendResult struct {
	OK        bool
	MessageID int
}

// Sender is the abstract outbound "send reply" capability. The HTTP
// transport behind it is out of scope for this layer.
type Sender interface {
	SendMessage(ctx context.Context, params SendParams) (SendResult, error)
}
