package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/netutil"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned when Enqueue is called after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the job did not fit into the queue.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options sizes the dispatcher. Zero values pick defaults.
type Options struct {
	// QueueSize is the total capacity, split evenly across the workers.
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on a single job including retries.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher runs outbound Telegram calls on a fixed worker pool and retries
// transient failures. Every worker owns a queue; jobs enqueued under the same
// key land on the same queue and run in submission order.
type Dispatcher struct {
	opts   Options
	queues []chan job
	next   atomic.Uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	sent atomic.Uint64
	errs atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts:   opts,
		queues: make([]chan job, opts.Workers),
	}
	size := (opts.QueueSize + opts.Workers - 1) / opts.Workers
	d.wg.Add(opts.Workers)
	for i := range d.queues {
		d.queues[i] = make(chan job, size)
		go d.worker(d.queues[i])
	}
	return d
}

// Enqueue schedules run on the next worker in turn. run may be called more
// than once when retried.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	return d.EnqueueKey(ctx, 0, action, endpoint, run)
}

// EnqueueKey schedules run on the worker owning key, usually a chat id, so
// replies to one chat never overtake each other. Key 0 behaves like Enqueue.
func (d *Dispatcher) EnqueueKey(ctx context.Context, key int64, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queue(key) <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) queue(key int64) chan job {
	n := uint64(len(d.queues))
	if key == 0 {
		return d.queues[d.next.Add(1)%n]
	}
	return d.queues[uint64(key)%n]
}

// Sent returns the number of jobs completed successfully.
func (d *Dispatcher) Sent() uint64 { return d.sent.Load() }

// ErrorCount returns the number of jobs that failed after all retries.
func (d *Dispatcher) ErrorCount() uint64 { return d.errs.Load() }

// Close drains queued jobs and stops the workers. It is safe to call twice.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		if err := d.process(j); err != nil {
			d.errs.Add(1)
		} else {
			d.sent.Add(1)
		}
	}
}

func (d *Dispatcher) process(j job) error {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	deadline, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			attrs := jobAttrs(j, slog.Int("attempts", attempt), slog.Duration("duration", logger.Took(start)))
			logger.Debug(ctx, component, "send.success", attrs...)
			return nil
		}
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := retryDelay(err, d.opts.RetryBackoff, attempt)
		logger.Debug(ctx, component, "send.retry",
			jobAttrs(j, slog.Int("attempts", attempt), slog.Duration("delay", delay), slog.Any("err", redact(err)))...)
		timer := time.NewTimer(delay)
		select {
		case <-deadline.Done():
			timer.Stop()
			err = errors.Join(err, deadline.Err())
			attempt = attempts
		case <-timer.C:
		}
	}

	logger.Error(ctx, component, "send.fail", jobAttrs(j,
		slog.String("status", "fail"),
		slog.String("err", redact(err)),
		slog.String("err_kind", classifyError(err)),
		slog.Duration("duration", logger.Took(start)),
	)...)
	return err
}

func jobAttrs(j job, extra ...slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, 0, 2+len(extra))
	attrs = append(attrs, slog.String("action", j.action))
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return append(attrs, extra...)
}
