package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"chat-relay/internal/llm"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("failed to init sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteGetOrCreateIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatalf("first get or create failed: %v", err)
	}
	second, err := store.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatalf("second get or create failed: %v", err)
	}
	if len(first.Messages) != 0 || len(second.Messages) != 0 {
		t.Fatal("new session must start with an empty log")
	}
	if first.Version != 0 || second.Version != 0 {
		t.Fatalf("repeated get or create bumped version: %d / %d", first.Version, second.Version)
	}
}

func TestSQLiteSaveHistoryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatalf("get or create failed: %v", err)
	}
	sess.Messages = append(sess.Messages,
		llm.Message{Role: llm.RoleUser, Content: "hello"},
		llm.Message{Role: llm.RoleAssistant, Content: "hi there"},
		llm.Message{Role: llm.RoleUser, Content: "and?"},
	)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if sess.Version != 1 {
		t.Fatalf("expected version bump to 1, got %d", sess.Version)
	}

	msgs, err := store.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	want := []llm.Message{
		{Role: llm.RoleUser, Content: "hello"},
		{Role: llm.RoleAssistant, Content: "hi there"},
		{Role: llm.RoleUser, Content: "and?"},
	}
	if len(msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(msgs))
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Fatalf("message %d: expected %+v, got %+v", i, want[i], msgs[i])
		}
	}
}

func TestSQLiteSaveStaleVersionConflicts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, _ := store.GetOrCreate(ctx, "u1")
	b, _ := store.GetOrCreate(ctx, "u1")

	a.Messages = append(a.Messages, llm.Message{Role: llm.RoleUser, Content: "from a"})
	if err := store.Save(ctx, a); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	b.Messages = append(b.Messages, llm.Message{Role: llm.RoleUser, Content: "from b"})
	err := store.Save(ctx, b)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected version conflict, got: %v", err)
	}

	msgs, _ := store.History(ctx, "u1")
	if len(msgs) != 1 || msgs[0].Content != "from a" {
		t.Fatalf("winning write corrupted: %+v", msgs)
	}
}

func TestSQLiteHistoryUnknownUser(t *testing.T) {
	store := newTestStore(t)

	msgs, err := store.History(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Fatalf("expected empty history, got %v", msgs)
	}
}

func TestSQLitePurgeIdle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetOrCreate(ctx, "idle"); err != nil {
		t.Fatalf("get or create failed: %v", err)
	}

	n, err := store.PurgeIdle(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged session, got %d", n)
	}

	msgs, _ := store.History(ctx, "idle")
	if len(msgs) != 0 {
		t.Fatalf("purged session still has history: %v", msgs)
	}
}
