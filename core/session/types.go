package session

import (
	"context"
	"errors"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("session: store closed")

// Values is the raw key-value content of a user session.
type Values map[string]any

// Store persists sessions keyed by Telegram user id. A user without a
// stored session loads as empty Values.
type Store interface {
	Load(ctx context.Context, userID int64) (Values, error)
	Save(ctx context.Context, userID int64, values Values) error
	Delete(ctx context.Context, userID int64) error
	Close() error
}

// Session binds Values to a user and the store that persists them.
type Session struct {
	userID int64
	values Values
	store  Store
}

// Open loads the session of userID from store.
func Open(ctx context.Context, store Store, userID int64) (*Session, error) {
	values, err := store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = Values{}
	}
	return &Session{userID: userID, values: values, store: store}, nil
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key. The change is local until Save.
func (s *Session) Set(key string, value any) {
	s.values[key] = value
}

// Delete removes key. The change is local until Save.
func (s *Session) Delete(key string) {
	delete(s.values, key)
}

// Save writes the current values to the store.
func (s *Session) Save(ctx context.Context) error {
	return s.store.Save(ctx, s.userID, s.values)
}
