// Package commands_test exercises the built-in commands end to end through
// the dispatcher, with an in-memory store and a reply-capturing sender.
package commands_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/convobot/internal/command"
	"github.com/edgard/convobot/internal/commands"
	"github.com/edgard/convobot/internal/config"
	"github.com/edgard/convobot/internal/database"
	"github.com/edgard/convobot/internal/dispatcher"
)

var testMessages = config.MessagesConfig{
	Welcome:        "Hello! I'm @botname.",
	HelpHeader:     "Available commands:\n",
	UnknownCommand: "I don't know that command.",
	DefaultReply:   "Say /help for what I can do.",
	CancelDone:     "Cancelled %q.",
	CancelNone:     "Nothing to cancel.",
	GeneralError:   "Something went wrong.",
}

type memStore struct {
	nextID int64
	rows   map[int64]*database.Conversation
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, rows: make(map[int64]*database.Conversation)}
}

func (s *memStore) FindActiveConversation(_ context.Context, userID, chatID int64) (*database.Conversation, error) {
	for _, row := range s.rows {
		if row.UserID == userID && row.ChatID == chatID && row.Status == database.StatusActive {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) InsertConversation(_ context.Context, conv *database.Conversation) error {
	conv.ID = s.nextID
	s.nextID++
	if conv.Notes == "" {
		conv.Notes = "{}"
	}
	conv.Status = database.StatusActive
	cp := *conv
	s.rows[conv.ID] = &cp
	return nil
}

func (s *memStore) UpdateConversationNotes(_ context.Context, id int64, notes string) error {
	if row, ok := s.rows[id]; ok && row.Status == database.StatusActive {
		row.Notes = notes
	}
	return nil
}

func (s *memStore) EndConversation(_ context.Context, id int64, status string) error {
	row, ok := s.rows[id]
	if !ok {
		return errors.New("conversation not found")
	}
	row.Status = status
	return nil
}

// captureSender records every outbound reply.
type captureSender struct {
	sent []command.SendParams
}

func (s *captureSender) SendMessage(_ context.Context, params command.SendParams) (command.SendResult, error) {
	s.sent = append(s.sent, params)
	return command.SendResult{OK: true, MessageID: len(s.sent)}, nil
}

func (s *captureSender) last(t *testing.T) string {
	t.Helper()
	if len(s.sent) == 0 {
		t.Fatal("expected a reply to have been sent")
	}
	return s.sent[len(s.sent)-1].Text
}

type harness struct {
	dispatcher *dispatcher.Dispatcher
	sender     *captureSender
	store      *memStore
}

func newHarness(t *testing.T, deps commands.Deps) *harness {
	t.Helper()

	reg := command.NewRegistry(nil)
	commands.RegisterAll(reg, deps)

	sender := &captureSender{}
	store := newMemStore()
	return &harness{
		dispatcher: dispatcher.New(reg, store, sender, 99, "convo_bot", nil),
		sender:     sender,
		store:      store,
	}
}

func (h *harness) send(t *testing.T, userID, chatID int64, text string) command.Result {
	t.Helper()

	msg := &models.Message{
		ID:   1,
		Text: text,
		From: &models.User{ID: userID},
		Chat: models.Chat{ID: chatID},
	}
	if strings.HasPrefix(text, "/") {
		end := len(text)
		if idx := strings.IndexAny(text, " \n"); idx != -1 {
			end = idx
		}
		msg.Entities = []models.MessageEntity{
			{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: end},
		}
	}

	res, err := h.dispatcher.Handle(context.Background(), &models.Update{ID: 1, Message: msg})
	if err != nil {
		t.Fatalf("dispatching %q: %v", text, err)
	}
	return res
}

func TestSurveyFlow(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{Messages: testMessages})

	// /survey starts the conversation and asks the first question.
	h.send(t, 1, 10, "/survey")
	if got := h.sender.last(t); got != "What is your name?" {
		t.Errorf("expected name prompt, got %q", got)
	}

	// Free text is now routed back into the survey.
	h.send(t, 1, 10, "Alice")
	if got := h.sender.last(t); !strings.Contains(got, "Alice") {
		t.Errorf("expected name echoed in age prompt, got %q", got)
	}

	h.send(t, 1, 10, "30")
	if got := h.sender.last(t); !strings.Contains(got, "Survey complete") {
		t.Errorf("expected completion message, got %q", got)
	}

	// The conversation ended; further free text hits the default reply.
	h.send(t, 1, 10, "anything else")
	if got := h.sender.last(t); got != testMessages.DefaultReply {
		t.Errorf("expected default reply after survey end, got %q", got)
	}
}

func TestSurveyIndependentPerPair(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{Messages: testMessages})

	h.send(t, 1, 10, "/survey")
	h.send(t, 2, 10, "/survey")

	// Each pair advances independently.
	h.send(t, 1, 10, "Alice")
	h.send(t, 2, 10, "Bob")
	h.send(t, 1, 10, "30")
	if got := h.sender.last(t); !strings.Contains(got, "Alice") {
		t.Errorf("expected Alice's completion, got %q", got)
	}

	h.send(t, 2, 10, "25")
	if got := h.sender.last(t); !strings.Contains(got, "Bob") {
		t.Errorf("expected Bob's completion, got %q", got)
	}
}

func TestCancelActiveConversation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{Messages: testMessages})

	h.send(t, 1, 10, "/survey")
	h.send(t, 1, 10, "/cancel")
	if got := h.sender.last(t); !strings.Contains(got, "survey") {
		t.Errorf("expected cancel confirmation naming the command, got %q", got)
	}

	// The pair is free again; a new survey starts from scratch.
	h.send(t, 1, 10, "/survey")
	if got := h.sender.last(t); got != "What is your name?" {
		t.Errorf("expected fresh survey start, got %q", got)
	}
}

func TestCancelWithoutConversation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{Messages: testMessages})

	h.send(t, 1, 10, "/cancel")
	if got := h.sender.last(t); got != testMessages.CancelNone {
		t.Errorf("expected nothing-to-cancel reply, got %q", got)
	}
}

func TestHelpListsVisibleCommands(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{Messages: testMessages})

	h.send(t, 1, 10, "/help")
	got := h.sender.last(t)

	for _, want := range []string{"/help", "/start", "/echo", "/cancel", "/survey"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected help output to list %s, got %q", want, got)
		}
	}
	for _, hidden := range []string{"generic", "editedmessage"} {
		if strings.Contains(got, hidden) {
			t.Errorf("expected %s to be hidden from help, got %q", hidden, got)
		}
	}
}

func TestStartSubstitutesBotName(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{Messages: testMessages})

	h.send(t, 1, 10, "/start")
	if got := h.sender.last(t); !strings.Contains(got, "convo_bot") {
		t.Errorf("expected welcome to mention the bot username, got %q", got)
	}
}

func TestEchoRepeatsArgs(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{Messages: testMessages})

	h.send(t, 1, 10, "/echo hello world")
	if got := h.sender.last(t); got != "hello world" {
		t.Errorf("expected echoed args, got %q", got)
	}
}

func TestUnknownCommandReply(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{Messages: testMessages})

	h.send(t, 1, 10, "/frobnicate")
	if got := h.sender.last(t); got != testMessages.UnknownCommand {
		t.Errorf("expected unknown-command reply, got %q", got)
	}
}

// fakeAI returns a canned reply or error.
type fakeAI struct {
	reply string
	err   error
}

func (f *fakeAI) GenerateReply(context.Context, string) (string, error) {
	return f.reply, f.err
}

func TestGenericMessageUsesAI(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{
		Messages: testMessages,
		AI:       &fakeAI{reply: "AI says hi"},
	})

	h.send(t, 1, 10, "hello bot")
	if got := h.sender.last(t); got != "AI says hi" {
		t.Errorf("expected AI reply, got %q", got)
	}
}

func TestGenericMessageAIFailureFallsBack(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{
		Messages: testMessages,
		AI:       &fakeAI{err: errors.New("quota exceeded")},
	})

	h.send(t, 1, 10, "hello bot")
	if got := h.sender.last(t); got != testMessages.GeneralError {
		t.Errorf("expected general error reply on AI failure, got %q", got)
	}
}

func TestGenericMessageWithoutAI(t *testing.T) {
	t.Parallel()

	h := newHarness(t, commands.Deps{Messages: testMessages})

	h.send(t, 1, 10, "hello bot")
	if got := h.sender.last(t); got != testMessages.DefaultReply {
		t.Errorf("expected default reply, got %q", got)
	}
}
