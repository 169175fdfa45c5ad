package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chat-relay/internal/llm"
)

type memorySession struct {
	messages  []llm.Message
	version   int64
	updatedAt time.Time
}

// MemoryStore keeps sessions in process memory. It mirrors the
// SQLite store's semantics, including the version check.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memorySession)}
}

func (m *MemoryStore) GetOrCreate(_ context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[userID]
	if !ok {
		ms = &memorySession{updatedAt: time.Now()}
		m.sessions[userID] = ms
	}
	return &Session{
		UserID:   userID,
		Messages: append([]llm.Message(nil), ms.messages...),
		Version:  ms.version,
	}, nil
}

func (m *MemoryStore) Save(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[sess.UserID]
	if !ok || ms.version != sess.Version {
		return fmt.Errorf("%w: user %s at version %d", ErrConflict, sess.UserID, sess.Version)
	}
	ms.messages = append([]llm.Message(nil), sess.Messages...)
	ms.version++
	ms.updatedAt = time.Now()
	sess.Version = ms.version
	return nil
}

func (m *MemoryStore) History(_ context.Context, userID string) ([]llm.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.sessions[userID]
	if !ok {
		return []llm.Message{}, nil
	}
	out := make([]llm.Message, 0, len(ms.messages))
	out = append(out, ms.messages...)
	return out, nil
}

func (m *MemoryStore) PurgeIdle(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, ms := range m.sessions {
		if ms.updatedAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}
