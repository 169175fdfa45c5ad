package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"chat-relay/internal/llm"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	user_id    TEXT PRIMARY KEY,
	messages   TEXT NOT NULL DEFAULT '[]',
	version    INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);`

// SQLiteStore persists one document per user: the full ordered
// message log serialized as JSON, plus a version counter.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to ensure data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) GetOrCreate(ctx context.Context, userID string) (*Session, error) {
	// INSERT OR IGNORE keeps concurrent first-time access for one
	// user from creating duplicates; the read below sees whichever
	// writer won.
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sessions (user_id, messages, version, updated_at)
		VALUES (?, '[]', 0, ?)
	`, userID, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrUnavailable, err)
	}

	var raw string
	sess := &Session{UserID: userID}
	err = s.db.QueryRowContext(ctx, `
		SELECT messages, version FROM sessions WHERE user_id = ?
	`, userID).Scan(&raw, &sess.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: get session: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal([]byte(raw), &sess.Messages); err != nil {
		return nil, fmt.Errorf("decode message log for %s: %w", userID, err)
	}
	return sess, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess.Messages)
	if err != nil {
		return fmt.Errorf("encode message log for %s: %w", sess.UserID, err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET messages = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?
	`, string(raw), time.Now().Unix(), sess.UserID, sess.Version)
	if err != nil {
		return fmt.Errorf("%w: save session: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: save session: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: user %s at version %d", ErrConflict, sess.UserID, sess.Version)
	}
	sess.Version++
	return nil
}

func (s *SQLiteStore) History(ctx context.Context, userID string) ([]llm.Message, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT messages FROM sessions WHERE user_id = ?
	`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return []llm.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %v", ErrUnavailable, err)
	}
	var msgs []llm.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, fmt.Errorf("decode message log for %s: %w", userID, err)
	}
	if msgs == nil {
		msgs = []llm.Message{}
	}
	return msgs, nil
}

func (s *SQLiteStore) PurgeIdle(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE updated_at < ?
	`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: purge sessions: %v", ErrUnavailable, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
