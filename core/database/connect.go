package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/quizbot/core/logger"
)

const component = "db"

// Connect opens the pool, configures its size and pings the server. It retries
// until ctx is done or wait elapses, since the database often starts alongside
// the bot.
func Connect(ctx context.Context, cfg Config, wait time.Duration) (*sqlx.DB, error) {
	if wait <= 0 {
		wait = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	start := time.Now()
	attempts := 0
	for {
		attempts++
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxConnections)
			db.SetMaxIdleConns(cfg.MaxConnections)
			logger.Info(ctx, component, "db.connect",
				slog.String("host", cfg.Host),
				slog.String("port", cfg.Port),
				slog.String("db", cfg.Name),
				slog.Int("pool_open", cfg.MaxConnections),
				slog.Int("attempts", attempts),
				slog.Duration("duration", logger.Took(start)),
			)
			return db, nil
		}

		logger.Warn(ctx, component, "db.connect",
			slog.String("status", "retry"),
			slog.String("host", cfg.Host),
			slog.String("db", cfg.Name),
			slog.Int("attempts", attempts),
			slog.Any("err", err),
		)
		select {
		case <-ctx.Done():
			logger.Error(ctx, component, "db.connect",
				slog.String("status", "fail"),
				slog.String("host", cfg.Host),
				slog.String("db", cfg.Name),
				slog.Int("attempts", attempts),
				slog.Duration("duration", logger.Took(start)),
				slog.Any("err", err),
			)
			return nil, fmt.Errorf("db connect: %w", err)
		case <-time.After(time.Second):
		}
	}
}
