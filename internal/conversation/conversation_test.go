// Package conversation_test tests the conversation state machine against an
// in-memory store.
package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/edgard/convobot/internal/conversation"
	"github.com/edgard/convobot/internal/database"
)

// fakeStore is an in-memory implementation of conversation.Store. It mirrors
// the real store's contract: at most one active row per (user, chat) pair,
// notes updates apply to active rows only.
type fakeStore struct {
	nextID int64
	rows   map[int64]*database.Conversation

	findErr   error
	insertErr error
	updateErr error
	endErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, rows: make(map[int64]*database.Conversation)}
}

func (s *fakeStore) FindActiveConversation(_ context.Context, userID, chatID int64) (*database.Conversation, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, row := range s.rows {
		if row.UserID == userID && row.ChatID == chatID && row.Status == database.StatusActive {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertConversation(_ context.Context, conv *database.Conversation) error {
	if s.insertErr != nil {
		return s.insertErr
	}
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

func (s *fakeStore) UpdateConversationNotes(_ context.Context, id int64, notes string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	row, ok := s.rows[id]
	if !ok || row.Status != database.StatusActive {
		return nil
	}
	row.Notes = notes
	return nil
}

func (s *fakeStore) EndConversation(_ context.Context, id int64, status string) error {
	if s.endErr != nil {
		return s.endErr
	}
	if status != database.StatusStopped && status != database.StatusCancelled {
		return fmt.Errorf("invalid status %q", status)
	}
	row, ok := s.rows[id]
	if !ok {
		return fmt.Errorf("conversation %d not found", id)
	}
	row.Status = status
	return nil
}

func TestNewAbsentPair(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	conv, err := conversation.New(context.Background(), store, 1, 10, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if conv.Exists() {
		t.Error("expected Exists() to be false for an absent pair")
	}
	if got := conv.Command(); got != "" {
		t.Errorf("expected empty Command(), got %q", got)
	}
	if len(store.rows) != 0 {
		t.Errorf("expected no rows materialized, got %d", len(store.rows))
	}
}

func TestNewStartsAndAttaches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()

	started, err := conversation.New(ctx, store, 1, 10, "survey")
	if err != nil {
		t.Fatalf("starting conversation: %v", err)
	}
	if !started.Exists() {
		t.Fatal("expected started conversation to exist")
	}
	if got := started.Command(); got != "survey" {
		t.Errorf("expected command %q, got %q", "survey", got)
	}

	// A later instance with no explicit command attaches to the same row.
	attached, err := conversation.New(ctx, store, 1, 10, "")
	if err != nil {
		t.Fatalf("attaching to conversation: %v", err)
	}
	if !attached.Exists() {
		t.Error("expected attached conversation to exist")
	}
	if got := attached.Command(); got != "survey" {
		t.Errorf("expected attached command %q, got %q", "survey", got)
	}

	// So does one naming the same command.
	sameCmd, err := conversation.New(ctx, store, 1, 10, "survey")
	if err != nil {
		t.Fatalf("re-attaching with same command: %v", err)
	}
	if !sameCmd.Exists() {
		t.Error("expected same-command attach to exist")
	}

	if len(store.rows) != 1 {
		t.Errorf("expected a single row, got %d", len(store.rows))
	}
}

func TestNewCommandMismatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()

	if _, err := conversation.New(ctx, store, 1, 10, "survey"); err != nil {
		t.Fatalf("starting conversation: %v", err)
	}

	_, err := conversation.New(ctx, store, 1, 10, "quiz")
	if !errors.Is(err, conversation.ErrActiveMismatch) {
		t.Fatalf("expected ErrActiveMismatch, got %v", err)
	}

	// The original conversation is untouched by the rejected attempt.
	conv, err := conversation.New(ctx, store, 1, 10, "")
	if err != nil {
		t.Fatalf("reloading conversation: %v", err)
	}
	if got := conv.Command(); got != "survey" {
		t.Errorf("expected original command %q to survive, got %q", "survey", got)
	}
}

func TestPairIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()

	pairs := []struct {
		userID, chatID int64
		command        string
	}{
		{1, 10, "survey"},
		{1, 20, "quiz"},
		{2, 10, "echo"},
	}
	for _, p := range pairs {
		if _, err := conversation.New(ctx, store, p.userID, p.chatID, p.command); err != nil {
			t.Fatalf("starting conversation for (%d, %d): %v", p.userID, p.chatID, err)
		}
	}

	for _, p := range pairs {
		conv, err := conversation.New(ctx, store, p.userID, p.chatID, "")
		if err != nil {
			t.Fatalf("loading conversation for (%d, %d): %v", p.userID, p.chatID, err)
		}
		if got := conv.Command(); got != p.command {
			t.Errorf("pair (%d, %d): expected command %q, got %q", p.userID, p.chatID, p.command, got)
		}
	}
}

func TestNotesRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()

	first, err := conversation.New(ctx, store, 1, 10, "survey")
	if err != nil {
		t.Fatalf("starting conversation: %v", err)
	}
	if len(first.Notes) != 0 {
		t.Errorf("expected fresh conversation to have empty notes, got %v", first.Notes)
	}

	first.Notes["state"] = "name"
	first.Notes["attempts"] = float64(2)
	if err := first.Update(ctx); err != nil {
		t.Fatalf("persisting notes: %v", err)
	}

	second, err := conversation.New(ctx, store, 1, 10, "")
	if err != nil {
		t.Fatalf("reloading conversation: %v", err)
	}
	if got := second.Notes["state"]; got != "name" {
		t.Errorf("expected state %q, got %v", "name", got)
	}
	if got := second.Notes["attempts"]; got != float64(2) {
		t.Errorf("expected attempts 2, got %v", got)
	}
}

func TestLastUpdateWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()

	if _, err := conversation.New(ctx, store, 1, 10, "survey"); err != nil {
		t.Fatalf("starting conversation: %v", err)
	}

	a, err := conversation.New(ctx, store, 1, 10, "")
	if err != nil {
		t.Fatalf("loading instance a: %v", err)
	}
	b, err := conversation.New(ctx, store, 1, 10, "")
	if err != nil {
		t.Fatalf("loading instance b: %v", err)
	}

	a.Notes["writer"] = "a"
	if err := a.Update(ctx); err != nil {
		t.Fatalf("updating from a: %v", err)
	}
	b.Notes["writer"] = "b"
	if err := b.Update(ctx); err != nil {
		t.Fatalf("updating from b: %v", err)
	}

	reloaded, err := conversation.New(ctx, store, 1, 10, "")
	if err != nil {
		t.Fatalf("reloading conversation: %v", err)
	}
	if got := reloaded.Notes["writer"]; got != "b" {
		t.Errorf("expected the later writer to win, got %v", got)
	}
}

func TestStopAndRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()

	conv, err := conversation.New(ctx, store, 1, 10, "survey")
	if err != nil {
		t.Fatalf("starting conversation: %v", err)
	}
	conv.Notes["state"] = "age"
	if err := conv.Update(ctx); err != nil {
		t.Fatalf("persisting notes: %v", err)
	}

	if err := conv.Stop(ctx); err != nil {
		t.Fatalf("stopping conversation: %v", err)
	}
	if conv.Exists() {
		t.Error("expected stopped conversation to report Exists() false")
	}
	if got := conv.Command(); got != "" {
		t.Errorf("expected empty command after stop, got %q", got)
	}

	// The pair is absent again.
	absent, err := conversation.New(ctx, store, 1, 10, "")
	if err != nil {
		t.Fatalf("loading after stop: %v", err)
	}
	if absent.Exists() {
		t.Error("expected pair to be absent after stop")
	}

	// Restarting the same command yields a fresh conversation with no
	// carried-over notes.
	fresh, err := conversation.New(ctx, store, 1, 10, "survey")
	if err != nil {
		t.Fatalf("restarting conversation: %v", err)
	}
	if !fresh.Exists() {
		t.Fatal("expected restarted conversation to exist")
	}
	if len(fresh.Notes) != 0 {
		t.Errorf("expected fresh notes after restart, got %v", fresh.Notes)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()

	conv, err := conversation.New(ctx, store, 1, 10, "survey")
	if err != nil {
		t.Fatalf("starting conversation: %v", err)
	}
	if err := conv.Cancel(ctx); err != nil {
		t.Fatalf("cancelling conversation: %v", err)
	}

	absent, err := conversation.New(ctx, store, 1, 10, "")
	if err != nil {
		t.Fatalf("loading after cancel: %v", err)
	}
	if absent.Exists() {
		t.Error("expected pair to be absent after cancel")
	}

	// A different command can start immediately after cancellation.
	next, err := conversation.New(ctx, store, 1, 10, "quiz")
	if err != nil {
		t.Fatalf("starting new conversation after cancel: %v", err)
	}
	if got := next.Command(); got != "quiz" {
		t.Errorf("expected command %q, got %q", "quiz", got)
	}
}

func TestMutationsOnAbsentConversation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()

	conv, err := conversation.New(ctx, store, 1, 10, "")
	if err != nil {
		t.Fatalf("loading absent conversation: %v", err)
	}

	if err := conv.Update(ctx); !errors.Is(err, conversation.ErrNotActive) {
		t.Errorf("Update on absent conversation: expected ErrNotActive, got %v", err)
	}
	if err := conv.Stop(ctx); !errors.Is(err, conversation.ErrNotActive) {
		t.Errorf("Stop on absent conversation: expected ErrNotActive, got %v", err)
	}
	if err := conv.Cancel(ctx); !errors.Is(err, conversation.ErrNotActive) {
		t.Errorf("Cancel on absent conversation: expected ErrNotActive, got %v", err)
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storeErr := errors.New("store unavailable")

	t.Run("find", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.findErr = storeErr
		if _, err := conversation.New(ctx, store, 1, 10, "survey"); !errors.Is(err, storeErr) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})

	t.Run("insert", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		store.insertErr = storeErr
		if _, err := conversation.New(ctx, store, 1, 10, "survey"); !errors.Is(err, storeErr) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		conv, err := conversation.New(ctx, store, 1, 10, "survey")
		if err != nil {
			t.Fatalf("starting conversation: %v", err)
		}
		store.updateErr = storeErr
		if err := conv.Update(ctx); !errors.Is(err, storeErr) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})

	t.Run("end", func(t *testing.T) {
		t.Parallel()
		store := newFakeStore()
		conv, err := conversation.New(ctx, store, 1, 10, "survey")
		if err != nil {
			t.Fatalf("starting conversation: %v", err)
		}
		store.endErr = storeErr
		if err := conv.Stop(ctx); !errors.Is(err, storeErr) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
		if !conv.Exists() {
			t.Error("expected conversation to remain active after failed stop")
		}
	})
}

func TestNilStore(t *testing.T) {
	t.Parallel()

	if _, err := conversation.New(context.Background(), nil, 1, 10, "survey"); err == nil {
		t.Fatal("expected error for nil store")
	}
}
