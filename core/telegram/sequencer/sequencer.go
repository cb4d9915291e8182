// Package sequencer runs update handlers so that updates of one chat are
// processed one at a time and in arrival order, while different chats
// proceed in parallel up to a worker limit.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/metrics"
	"github.com/EgoisTa-Git/fish-shop/core/netutil"
)

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("sequencer: closed")
	// ErrQueueFull indicates MaxPending jobs are already waiting.
	ErrQueueFull = errors.New("sequencer: queue full")
	// ErrPanic wraps a recovered handler panic.
	ErrPanic = errors.New("sequencer: handler panic")
)

// Options bounds the sequencer.
type Options struct {
	// Workers caps handlers running at the same time across all chats.
	Workers int
	// MaxPending caps accepted but unfinished jobs.
	MaxPending int
	// HandlerTimeout bounds a single job; 0 disables the deadline.
	HandlerTimeout time.Duration
	// OnError receives failed jobs. It runs on the lane goroutine.
	OnError func(ctx context.Context, key int64, name string, err error)
}

// Job is the unit of work for one update.
type Job func(ctx context.Context) error

type task struct {
	ctx  context.Context
	name string
	run  Job
}

type lane struct {
	tasks []task
}

// Sequencer serialises jobs per key.
type Sequencer struct {
	opts Options
	sem  chan struct{}

	mu      sync.Mutex
	lanes   map[int64]*lane
	pending int
	closed  bool
	wg      sync.WaitGroup
}

// New returns a Sequencer with defaults for zero options.
func New(opts Options) *Sequencer {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.MaxPending <= 0 {
		opts.MaxPending = 1024
	}
	return &Sequencer{
		opts:  opts,
		sem:   make(chan struct{}, opts.Workers),
		lanes: make(map[int64]*lane),
	}
}

// Submit queues run behind earlier jobs with the same key. It never blocks.
func (s *Sequencer) Submit(ctx context.Context, key int64, name string, run Job) error {
	if run == nil {
		return errors.New("sequencer: nil job")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.pending >= s.opts.MaxPending {
		metrics.SequencerRejectedTotal.Inc()
		return ErrQueueFull
	}
	s.pending++
	metrics.SequencerPending.Set(float64(s.pending))

	t := task{ctx: ctx, name: name, run: run}
	if l, ok := s.lanes[key]; ok {
		l.tasks = append(l.tasks, t)
		return nil
	}
	l := &lane{tasks: []task{t}}
	s.lanes[key] = l
	s.wg.Add(1)
	go s.drain(key, l)
	return nil
}

// Pending reports accepted jobs that have not finished.
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Close rejects new jobs and waits for queued ones until ctx is done.
func (s *Sequencer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sequencer: %d jobs still pending: %w", s.Pending(), ctx.Err())
	}
}

func (s *Sequencer) drain(key int64, l *lane) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(l.tasks) == 0 {
			delete(s.lanes, key)
			s.mu.Unlock()
			return
		}
		t := l.tasks[0]
		l.tasks[0] = task{}
		l.tasks = l.tasks[1:]
		s.mu.Unlock()

		s.sem <- struct{}{}
		err := s.execute(t)
		<-s.sem

		if err != nil {
			s.report(t.ctx, key, t.name, err)
		}

		s.mu.Lock()
		s.pending--
		metrics.SequencerPending.Set(float64(s.pending))
		s.mu.Unlock()
	}
}

func (s *Sequencer) execute(t task) (err error) {
	ctx := t.ctx
	if s.opts.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.HandlerTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.panic",
				slog.String("status", "fail"),
				slog.String("handler", t.name),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return t.run(ctx)
}

func (s *Sequencer) report(ctx context.Context, key int64, name string, err error) {
	if s.opts.OnError != nil {
		s.opts.OnError(ctx, key, name, err)
		return
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "seq.job",
		slog.String("status", "fail"),
		slog.String("handler", name),
		slog.String("err", netutil.RedactError(err)),
		slog.String("error_kind", netutil.ClassifyError(err)),
	)
}
