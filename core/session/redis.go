package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quizbot/core/logger"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "quiz:session:"

// redisClient is the subset of *redis.Client used by RedisStore.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisOptions configures RedisStore.
type RedisOptions struct {
	Prefix string
	// TTL expires idle sessions; zero keeps them forever. Every save refreshes it.
	TTL time.Duration
}

// RedisStore keeps sessions as JSON strings in Redis.
type RedisStore struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redisClient, opts RedisOptions) *RedisStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis connects to the Redis server at url and verifies it responds.
func DialRedis(ctx context.Context, url string, opts RedisOptions) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)

	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error(ctx, "session", "redis.connect",
			slog.String("status", "fail"),
			slog.String("addr", redisOpts.Addr),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}
	logger.Info(ctx, "session", "redis.connect",
		slog.String("status", "ok"),
		slog.String("addr", redisOpts.Addr),
		slog.Int("db", redisOpts.DB),
		slog.Duration("duration", logger.Took(start)),
	)
	return NewRedisStore(client, opts), nil
}

func (r *RedisStore) key(userID int64) string {
	return r.prefix + strconv.FormatInt(userID, 10)
}

// Load returns the session for a user, or empty values if the key is missing.
func (r *RedisStore) Load(ctx context.Context, userID int64) (Values, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Values{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get: %w", err)
	}
	return decode(data)
}

// Save writes the session and refreshes its TTL.
func (r *RedisStore) Save(ctx context.Context, userID int64, values Values) error {
	data, err := encode(values)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (r *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
