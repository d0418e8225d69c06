package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// writeOp is either a log line (ack == nil) or a flush barrier.
type writeOp struct {
	line []byte
	ack  chan error
}

// asyncWriter serialises log lines onto buffered sinks from one goroutine so
// handlers never block on slow stdout or disk.
type asyncWriter struct {
	ops    chan writeOp
	exited chan struct{}
	sinks  []*bufio.Writer

	stateMu sync.RWMutex
	closed  bool

	errMu  sync.Mutex
	failed error
}

func newAsyncWriter(outputs []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 << 10
	}
	w := &asyncWriter{
		ops:    make(chan writeOp, 256),
		exited: make(chan struct{}),
	}
	for _, out := range outputs {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.exited)
	for op := range w.ops {
		if op.ack != nil {
			op.ack <- w.flushSinks()
			continue
		}
		w.remember(w.emit(op.line))
	}
	w.remember(w.flushSinks())
}

// Write copies p and queues it. A full queue applies back-pressure instead of
// dropping lines.
func (w *asyncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if err := w.err(); err != nil {
		return err
	}
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.ops <- writeOp{line: append([]byte(nil), p...)}
	return nil
}

// Flush blocks until every queued line has reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	w.stateMu.RLock()
	if w.closed {
		w.stateMu.RUnlock()
		return w.err()
	}
	w.ops <- writeOp{ack: ack}
	w.stateMu.RUnlock()
	return <-ack
}

// Close drains the queue and returns the first sink error seen.
func (w *asyncWriter) Close() error {
	w.stateMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ops)
	}
	w.stateMu.Unlock()
	<-w.exited
	return w.err()
}

// emit writes a line to each sink and pushes it through immediately so a
// crash loses at most the line in flight.
func (w *asyncWriter) emit(line []byte) error {
	for _, sink := range w.sinks {
		if _, err := sink.Write(line); err != nil {
			return err
		}
		if err := sink.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushSinks() error {
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) remember(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	if w.failed == nil {
		w.failed = err
	}
	w.errMu.Unlock()
}

func (w *asyncWriter) err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.failed
}
