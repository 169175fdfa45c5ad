package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-relay/internal/llm"
)

func TestMemoryGetOrCreateIdempotent(t *testing.T) {
	store := NewMemoryStore()
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
	if first.Version != second.Version {
		t.Fatalf("versions diverged: %d vs %d", first.Version, second.Version)
	}
}

func TestMemorySaveHistoryRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := store.GetOrCreate(ctx, "u1")
	if err != nil {
		t.Fatalf("get or create failed: %v", err)
	}
	sess.Messages = append(sess.Messages,
		llm.Message{Role: llm.RoleUser, Content: "hello"},
		llm.Message{Role: llm.RoleAssistant, Content: "hi"},
	)
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	msgs, err := store.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "hello" || msgs[1].Content != "hi" {
		t.Fatalf("order not preserved: %+v", msgs)
	}
}

func TestMemorySaveStaleVersionConflicts(t *testing.T) {
	store := NewMemoryStore()
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

func TestMemoryHistoryUnknownUser(t *testing.T) {
	store := NewMemoryStore()

	msgs, err := store.History(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Fatalf("expected empty history, got %v", msgs)
	}
}

func TestMemoryPurgeIdle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.GetOrCreate(ctx, "idle"); err != nil {
		t.Fatalf("get or create failed: %v", err)
	}

	n, err := store.PurgeIdle(ctx, time.Now().Add(time.Second))
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
