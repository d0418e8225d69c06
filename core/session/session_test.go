package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/core/quiz"
)

type fakeRedis struct {
	data   map[string]string
	ttl    map[string]time.Duration
	getErr error
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttl[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s, err := Open(ctx, store, 42)
	require.NoError(t, err)
	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("n", 3)
	s.Set("m", map[string]string{"0": "a"})
	require.NoError(t, s.Save(ctx))

	again, err := Open(ctx, store, 42)
	require.NoError(t, err)
	n, _ := again.Get("n")
	assert.Equal(t, float64(3), n)
	m, _ := again.Get("m")
	assert.Equal(t, map[string]any{"0": "a"}, m)

	s.Set("n", 4)
	n, _ = again.Get("n")
	assert.Equal(t, float64(3), n, "sessions must not share memory")

	require.NoError(t, store.Delete(ctx, 42))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreClosed(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())
	_, err := store.Load(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Save(context.Background(), 1, Values{}), ErrClosed)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := NewRedisStore(fake, RedisOptions{TTL: time.Hour})

	values, err := store.Load(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, store.Save(ctx, 7, Values{quiz.KeyCurrentQuestion: 1}))
	assert.Contains(t, fake.data, DefaultRedisPrefix+"7")
	assert.Equal(t, time.Hour, fake.ttl[DefaultRedisPrefix+"7"])

	values, err = store.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, float64(1), values[quiz.KeyCurrentQuestion])

	require.NoError(t, store.Delete(ctx, 7))
	assert.Empty(t, fake.data)

	require.NoError(t, store.Close())
	assert.True(t, fake.closed)
}

func TestRedisStoreErrors(t *testing.T) {
	fake := newFakeRedis()
	boom := errors.New("connection refused")
	fake.getErr = boom
	store := NewRedisStore(fake, RedisOptions{Prefix: "t:"})

	_, err := store.Load(context.Background(), 1)
	assert.ErrorIs(t, err, boom)

	fake.getErr = nil
	fake.data["t:2"] = "{not json"
	_, err = store.Load(context.Background(), 2)
	assert.Error(t, err)
}

func TestDriverOverStores(t *testing.T) {
	bank, err := quiz.NewBank([]quiz.Question{
		{Text: "Q1", Options: []string{"a", "b"}, Answer: "a"},
		{Text: "Q2", Options: []string{"c", "d"}, Answer: "d"},
		{Text: "Q3", Options: []string{"e", "f"}, Answer: "f"},
	})
	require.NoError(t, err)
	driver, err := quiz.NewDriver(bank)
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(newFakeRedis(), RedisOptions{}),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var last []string
			for _, msg := range []string{"hello", "a", "c", "f"} {
				s, err := Open(ctx, store, 99)
				require.NoError(t, err)
				last, err = driver.HandleMessage(ctx, msg, s)
				require.NoError(t, err)
			}
			assert.Equal(t, []string{"You scored 2/3 (66.67%) in the Python quiz."}, last)

			s, err := Open(ctx, store, 99)
			require.NoError(t, err)
			assert.Equal(t, quiz.Completed, driver.Status(s).Phase)
		})
	}
}

func TestUserLocksSerialise(t *testing.T) {
	locks := NewUserLocks()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(5)
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.Len())
}
