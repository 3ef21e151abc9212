package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter hands lines to a single goroutine that owns the sink. The
// buffer is flushed whenever the queue runs dry, so a quiet process never
// holds lines back.
type asyncWriter struct {
	mu     sync.RWMutex
	closed bool

	lines   chan []byte
	flushes chan chan error
	done    chan struct{}

	sink *bufio.Writer
	err  error
}

func newAsyncWriter(w io.Writer, queue int) *asyncWriter {
	aw := &asyncWriter{
		lines:   make(chan []byte, max(queue, 1)),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
		sink:    bufio.NewWriterSize(w, 64*1024),
	}
	go aw.run()
	return aw
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.keep(w.sink.Flush())
				return
			}
			if _, err := w.sink.Write(line); err != nil {
				w.keep(err)
			}
			if len(w.lines) == 0 {
				w.keep(w.sink.Flush())
			}
		case ack := <-w.flushes:
			for drained := false; !drained; {
				select {
				case line := <-w.lines:
					if _, err := w.sink.Write(line); err != nil {
						w.keep(err)
					}
				default:
					drained = true
				}
			}
			ack <- w.sink.Flush()
		}
	}
}

// keep records the first sink error. Only run calls it.
func (w *asyncWriter) keep(err error) {
	if err != nil && w.err == nil {
		w.err = err
	}
}

// Write queues a copy of p. It blocks when the queue is full rather than
// dropping lines.
func (w *asyncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush returns once every line queued before the call reached the sink.
func (w *asyncWriter) Flush() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	ack := make(chan error, 1)
	w.flushes <- ack
	return <-ack
}

// Close drains the queue and returns the first sink error seen.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.mu.Unlock()
	<-w.done
	return w.err
}
