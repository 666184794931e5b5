package sched

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	rerrors "github.com/vango-dev/reflex/internal/errors"
)

// Options configures a Scheduler.
type Options struct {
	// Logger reports failed flushes. If nil, slog.Default() is used.
	Logger *slog.Logger

	// OnError is called with every failed flush after it has been logged.
	OnError func(error)

	// Registerer enables Prometheus metrics when non-nil.
	Registerer prometheus.Registerer

	// Namespace is the metrics namespace (default: "reflex").
	Namespace string
}

type metrics struct {
	scheduled prometheus.Counter
	coalesced prometheus.Counter
	failed    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		scheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "flushes_scheduled_total",
			Help:      "Flushes posted to the loop",
		}),
		coalesced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "flushes_coalesced_total",
			Help:      "Schedule calls absorbed by an already pending flush",
		}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "flush_errors_total",
			Help:      "Flushes that returned an error or panicked",
		}),
	}
}

// Scheduler keeps at most one flush pending on a Loop.
type Scheduler struct {
	loop    *Loop
	pending atomic.Bool

	logger  *slog.Logger
	onError func(error)
	metrics *metrics
}

// New creates a scheduler posting to loop.
func New(loop *Loop, opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Namespace == "" {
		opts.Namespace = "reflex"
	}
	s := &Scheduler{
		loop:    loop,
		logger:  opts.Logger,
		onError: opts.OnError,
	}
	if opts.Registerer != nil {
		s.metrics = newMetrics(opts.Registerer, opts.Namespace)
	}
	return s
}

// Schedule posts task to the loop unless a flush is already pending, in
// which case the call is a no-op. It reports whether task was posted.
func (s *Scheduler) Schedule(task Task) bool {
	if task == nil {
		return false
	}
	if !s.pending.CompareAndSwap(false, true) {
		if s.metrics != nil {
			s.metrics.coalesced.Inc()
		}
		return false
	}
	if s.metrics != nil {
		s.metrics.scheduled.Inc()
	}

	s.loop.Post(func() error {
		s.pending.Store(false)
		if err := s.run(task); err != nil {
			s.report(err)
			return err
		}
		return nil
	})
	return true
}

// Pending reports whether a flush is waiting to run.
func (s *Scheduler) Pending() bool {
	return s.pending.Load()
}

// run executes task, converting a panic into an error.
func (s *Scheduler) run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("flush panic", "stack", string(debug.Stack()))
			err = rerrors.New(rerrors.CodeFlushPanicked).Wrap(fmt.Errorf("panic: %v", r))
		}
	}()
	if err := task(); err != nil {
		return rerrors.FromError(err, rerrors.CodeFlushFailed)
	}
	return nil
}

func (s *Scheduler) report(err error) {
	if s.metrics != nil {
		s.metrics.failed.Inc()
	}
	s.logger.Error("flush failed", "error", err)
	if s.onError != nil {
		s.onError(err)
	}
}
