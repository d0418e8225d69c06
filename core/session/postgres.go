package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	pgLoadSession = `SELECT data FROM quiz_sessions WHERE user_id = $1`
	pgSaveSession = `INSERT INTO quiz_sessions (user_id, data, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	pgDeleteSession = `DELETE FROM quiz_sessions WHERE user_id = $1`
)

// PostgresStore keeps sessions in the quiz_sessions table as JSONB.
// The connection pool is owned by the caller and is not closed by Close.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore returns a store backed by db.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load returns the session for a user, or empty values if no row exists.
func (p *PostgresStore) Load(ctx context.Context, userID int64) (Values, error) {
	var data []byte
	err := p.db.GetContext(ctx, &data, pgLoadSession, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Values{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: postgres load: %w", err)
	}
	return decode(data)
}

// Save upserts the session row.
func (p *PostgresStore) Save(ctx context.Context, userID int64, values Values) error {
	data, err := encode(values)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, pgSaveSession, userID, data); err != nil {
		return fmt.Errorf("session: postgres save: %w", err)
	}
	return nil
}

// Delete removes the session row.
func (p *PostgresStore) Delete(ctx context.Context, userID int64) error {
	if _, err := p.db.ExecContext(ctx, pgDeleteSession, userID); err != nil {
		return fmt.Errorf("session: postgres delete: %w", err)
	}
	return nil
}

// Close is a no-op; the pool is closed by its owner.
func (p *PostgresStore) Close() error { return nil }
