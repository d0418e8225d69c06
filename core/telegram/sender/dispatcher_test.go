package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, QueueSize: 8})
	var wg sync.WaitGroup
	var n atomic.Int32
	for range 5 {
		wg.Add(1)
		require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			defer wg.Done()
			n.Add(1)
			return nil
		}))
	}
	wg.Wait()
	d.Close()
	assert.EqualValues(t, 5, n.Load())
	assert.EqualValues(t, 5, d.Sent())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	}))
	d.Close()
	assert.EqualValues(t, 3, calls.Load())
	assert.EqualValues(t, 1, d.Sent())
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "", func() error {
		calls.Add(1)
		return errors.New("chat not found")
	}))
	d.Close()
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 1, d.ErrorCount())
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	err := d.Enqueue(context.Background(), "send.text", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.Error(t, d.Enqueue(context.Background(), "send.text", "", nil))
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Enqueue(context.Background(), "block", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), "queued", "", func() error { return nil }))
	err := d.Enqueue(context.Background(), "overflow", "", func() error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)
	close(release)
	d.Close()
}

func TestDispatcherKeepsOrderPerKey(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 256})
	var mu sync.Mutex
	got := map[int64][]int{}
	for i := range 40 {
		for _, chat := range []int64{101, -100200, 7} {
			require.NoError(t, d.EnqueueKey(context.Background(), chat, "send.text", "", func() error {
				if i == 0 {
					time.Sleep(5 * time.Millisecond)
				}
				mu.Lock()
				defer mu.Unlock()
				got[chat] = append(got[chat], i)
				return nil
			}))
		}
	}
	d.Close()

	want := make([]int, 40)
	for i := range want {
		want[i] = i
	}
	for _, chat := range []int64{101, -100200, 7} {
		assert.Equal(t, want, got[chat], "chat %d", chat)
	}
	assert.True(t, d.queue(101) == d.queue(101))
	assert.EqualValues(t, 120, d.Sent())
}

func TestRedactAndClassify(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:ABC-def/sendMessage": dial tcp`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": dial tcp`, redact(err))
	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "dial", classifyError(&net.OpError{Op: "dial", Err: errors.New("x")}))
	assert.Equal(t, "unknown", classifyError(errors.New("x")))
}
