package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter fans log lines out to buffered sinks from a single goroutine.
type asyncWriter struct {
	lines    chan []byte
	flushReq chan chan error
	done     chan struct{}

	// sendMu guards lines against sends after close.
	sendMu sync.RWMutex
	closed bool

	mu    sync.Mutex
	sinks []*bufio.Writer
	err   error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		lines:    make(chan []byte, 256),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.loop()
	return w
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				_ = w.flushSinks()
				return
			}
			w.writeLine(line)
		case ack := <-w.flushReq:
			for n := len(w.lines); n > 0; n-- {
				w.writeLine(<-w.lines)
			}
			ack <- w.flushSinks()
		}
	}
}

// Write copies p and queues it; it blocks only when the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush waits until every queued line has reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.firstErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	select {
	case w.flushReq <- ack:
		return <-ack
	case <-w.done:
		return w.firstErr()
	}
}

// Close drains the queue and stops the writer goroutine.
func (w *asyncWriter) Close() error {
	w.sendMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.sendMu.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) writeLine(p []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			w.setErrLocked(err)
			return
		}
		if err := sink.Flush(); err != nil {
			w.setErrLocked(err)
			return
		}
	}
}

func (w *asyncWriter) flushSinks() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		errs = append(errs, sink.Flush())
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) firstErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) setErrLocked(err error) {
	if w.err == nil {
		w.err = err
	}
}
