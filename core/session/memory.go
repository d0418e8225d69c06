package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/quizbot/core/logger"
)

// MemoryStore keeps encoded sessions in process memory. It is meant for
// development and tests; data is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64][]byte
	closed   bool
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64][]byte)}
}

// Load returns the session for a user, or empty values if none exists.
func (m *MemoryStore) Load(ctx context.Context, userID int64) (Values, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	data, ok := m.sessions[userID]
	logger.Debug(ctx, "session", "session.load",
		slog.String("status", "ok"),
		slog.String("backend", "memory"),
		slog.Int64("user_id", userID),
		slog.Bool("found", ok),
	)
	return decode(data)
}

// Save replaces the stored session of a user.
func (m *MemoryStore) Save(ctx context.Context, userID int64, values Values) error {
	data, err := encode(values)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.sessions[userID] = data
	return nil
}

// Delete removes the session of a user.
func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.sessions, userID)
	return nil
}

// Len reports the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close drops all sessions.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sessions = nil
	return nil
}
