package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	pgBestResult = `SELECT user_id, username, first_name, correct, total, finished_at
FROM quiz_results WHERE user_id = $1`
	pgUpsertResult = `INSERT INTO quiz_results (user_id, username, first_name, correct, total, finished_at)
VALUES (:user_id, :username, :first_name, :correct, :total, :finished_at)
ON CONFLICT (user_id) DO UPDATE SET
	username = EXCLUDED.username,
	first_name = EXCLUDED.first_name,
	correct = EXCLUDED.correct,
	total = EXCLUDED.total,
	finished_at = EXCLUDED.finished_at`
	pgTopResults = `SELECT user_id, username, first_name, correct, total, finished_at
FROM quiz_results
ORDER BY correct::float / total DESC, correct DESC, finished_at ASC, user_id ASC
LIMIT $1`
)

// PostgresRecorder stores the best result per user in quiz_results.
type PostgresRecorder struct {
	db *sqlx.DB
}

// NewPostgresRecorder returns a recorder backed by db.
func NewPostgresRecorder(db *sqlx.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// Record implements Recorder. The total > 0 table check is enforced here too
// so both recorders reject the same entries.
func (p *PostgresRecorder) Record(ctx context.Context, entry Entry) (bool, error) {
	if entry.Total <= 0 {
		return false, ErrInvalidEntry
	}
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("results: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var prev Entry
	err = tx.GetContext(ctx, &prev, pgBestResult+" FOR UPDATE", entry.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("results: load best: %w", err)
	case !entry.Better(prev):
		return false, nil
	}

	if _, err := tx.NamedExecContext(ctx, pgUpsertResult, entry); err != nil {
		return false, fmt.Errorf("results: upsert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("results: commit: %w", err)
	}
	return true, nil
}

// Top implements Recorder.
func (p *PostgresRecorder) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	var list []Entry
	if err := p.db.SelectContext(ctx, &list, pgTopResults, limit); err != nil {
		return nil, fmt.Errorf("results: top: %w", err)
	}
	return list, nil
}
