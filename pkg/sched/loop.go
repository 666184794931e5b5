package sched

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Task is a unit of deferred work.
type Task func() error

// LoopOptions configures a Loop.
type LoopOptions struct {
	// Logger receives task errors when OnError is nil.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// OnError is the top-level handler for errors returned by tasks while
	// the loop is driven by Run.
	OnError func(error)
}

// Loop is a single-threaded task queue.
type Loop struct {
	mu    sync.Mutex
	queue []Task

	// tickMu serialises ticks so tasks never run in parallel.
	tickMu sync.Mutex

	wake    chan struct{}
	onError func(error)
}

// NewLoop creates an empty loop.
func NewLoop(opts LoopOptions) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	onError := opts.OnError
	if onError == nil {
		onError = func(err error) {
			logger.Error("loop task failed", "error", err)
		}
	}
	return &Loop{
		wake:    make(chan struct{}, 1),
		onError: onError,
	}
}

// Post queues t for the next tick. It never blocks.
func (l *Loop) Post(t Task) {
	if t == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Tick runs the tasks that were queued when it was called. Tasks posted
// while the tick runs wait for the next tick. Errors from individual tasks
// are joined and returned; a failing task does not stop the rest.
func (l *Loop) Tick() error {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	var errs []error
	for _, t := range batch {
		if err := t(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Drain ticks until the queue is empty or maxTicks ticks have run, and
// returns the joined errors of every tick.
func (l *Loop) Drain(maxTicks int) error {
	var errs []error
	for i := 0; i < maxTicks && l.Len() > 0; i++ {
		if err := l.Tick(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run ticks whenever work is posted until ctx is done. Task errors go to
// the loop's OnError handler and do not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			if err := l.Tick(); err != nil {
				l.onError(err)
			}
		}
	}
}
