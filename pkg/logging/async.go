package logging

import (
	"errors"
	"io"
	"sync"
)

// DefaultBufferSize is the default AsyncWriter queue capacity in log lines.
const DefaultBufferSize = 1024

// ErrWriterClosed is returned by Write after Close.
var ErrWriterClosed = errors.New("async writer closed")

// AsyncWriter decouples log producers from the output device. Lines are
// queued on a bounded channel and written by a single goroutine. Nothing is
// dropped: when the queue is full, Write blocks until there is room.
type AsyncWriter struct {
	out   io.Writer
	queue chan []byte
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewAsyncWriter starts the drain goroutine. A non-positive size falls back
// to DefaultBufferSize.
func NewAsyncWriter(out io.Writer, size int) *AsyncWriter {
	if size <= 0 {
		size = DefaultBufferSize
	}
	w := &AsyncWriter{
		out:   out,
		queue: make(chan []byte, size),
		done:  make(chan struct{}),
	}
	go w.drain()
	return w
}

// Write queues a copy of p. zerolog reuses its buffers, so p must not be
// retained.
func (w *AsyncWriter) Write(p []byte) (int, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return 0, ErrWriterClosed
	}

	line := make([]byte, len(p))
	copy(line, p)
	w.queue <- line
	return len(p), nil
}

// Close stops accepting lines, flushes the queue, and waits for the drain
// goroutine to exit.
func (w *AsyncWriter) Close() error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.queue)
		w.mu.Unlock()
	})
	<-w.done
	return nil
}

func (w *AsyncWriter) drain() {
	defer close(w.done)
	for line := range w.queue {
		// Output errors have nowhere to go.
		_, _ = w.out.Write(line)
	}
}
