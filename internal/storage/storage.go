package storage

import (
	"context"
	"errors"
	"time"

	"chat-relay/internal/llm"
)

// Session is the durable conversation state for one user identifier.
// Messages are append-only from the core's perspective; Version backs
// the compare-and-swap check in Save.
type Session struct {
	UserID   string
	Messages []llm.Message
	Version  int64
}

// Store abstracts persistence of conversation sessions.
// Implementations must be safe for concurrent use.
// GetOrCreate must not create duplicate sessions under concurrent
// first-time access for the same user.
// History must not create a session as a side effect.
type Store interface {
	GetOrCreate(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	History(ctx context.Context, userID string) ([]llm.Message, error)
	PurgeIdle(ctx context.Context, before time.Time) (int, error)
}

var (
	// ErrUnavailable means the durable backend could not be reached.
	ErrUnavailable = errors.New("session store unavailable")

	// ErrConflict means a concurrent writer invalidated the session
	// version Save expected.
	ErrConflict = errors.New("session store version conflict")
)
