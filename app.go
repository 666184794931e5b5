package reflex

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vango-dev/reflex/internal/errors"
	"github.com/vango-dev/reflex/pkg/id"
	"github.com/vango-dev/reflex/pkg/reactive"
	"github.com/vango-dev/reflex/pkg/sched"
	"github.com/vango-dev/reflex/pkg/tmpl"
	"github.com/vango-dev/reflex/pkg/view"
)

// App connects a reactive graph to a view layer.
type App struct {
	graph  *reactive.Graph
	ids    *id.Allocator
	loop   *sched.Loop
	sched  *sched.Scheduler
	engine *tmpl.Engine
	sync   *view.Synchronizer
	logger *slog.Logger

	// viewMu serialises flushes with readers of the view layer.
	viewMu sync.Mutex

	ctxMu sync.RWMutex
	ctx   context.Context

	unsubscribe func()
}

// New creates an App and subscribes it to the graph's dirty notifications.
func New(cfg Config) *App {
	if cfg.Graph == nil {
		cfg.Graph = reactive.NewGraph()
	}
	if cfg.IDs == nil {
		cfg.IDs = id.NewAllocator()
	}
	if cfg.Layer == nil {
		cfg.Layer = emptyLayer{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "reflex"
	}

	onError := cfg.OnError
	loop := sched.NewLoop(sched.LoopOptions{
		Logger: cfg.Logger,
		OnError: func(err error) {
			// The scheduler has already logged the failure.
			if onError != nil {
				onError(err)
			}
		},
	})
	engine := tmpl.NewEngine(tmpl.Options{
		Globals: cfg.Globals,
		Funcs:   cfg.Funcs,
	})

	a := &App{
		graph:  cfg.Graph,
		ids:    cfg.IDs,
		loop:   loop,
		engine: engine,
		logger: cfg.Logger,
		ctx:    context.Background(),
	}
	a.sched = sched.New(loop, sched.Options{
		Logger:     cfg.Logger,
		Registerer: cfg.Registerer,
		Namespace:  cfg.Namespace,
	})
	a.sync = view.New(cfg.Layer, view.Options{
		Engine:             engine,
		Graph:              cfg.Graph,
		Logger:             cfg.Logger,
		SlowFlushThreshold: cfg.SlowFlushThreshold,
		Registerer:         cfg.Registerer,
		Namespace:          cfg.Namespace,
		Tracer:             cfg.Tracer,
	})
	a.unsubscribe = cfg.Graph.OnDirty(a.scheduleFlush)
	return a
}

func (a *App) scheduleFlush() {
	a.sched.Schedule(func() error {
		return a.flush(a.context())
	})
}

func (a *App) flush(ctx context.Context) error {
	a.viewMu.Lock()
	defer a.viewMu.Unlock()
	return a.sync.UpdateFromGraph(ctx, a.graph)
}

func (a *App) context() context.Context {
	a.ctxMu.RLock()
	defer a.ctxMu.RUnlock()
	return a.ctx
}

// Run drives the loop until ctx is cancelled. Scheduled flushes receive ctx.
func (a *App) Run(ctx context.Context) error {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()
	return a.loop.Run(ctx)
}

// Tick runs every queued task once, including a pending flush.
func (a *App) Tick() error {
	return a.loop.Tick()
}

// Flush synchronously drains the dirty set and updates the view, without
// waiting for the loop. A flush already scheduled still runs and finds
// nothing dirty beyond later mutations.
func (a *App) Flush(ctx context.Context) error {
	if err := a.flush(ctx); err != nil {
		return errors.FromError(err, errors.CodeFlushFailed)
	}
	return nil
}

// View calls fn while no flush is running, so fn sees a consistent view.
func (a *App) View(fn func()) {
	a.viewMu.Lock()
	defer a.viewMu.Unlock()
	fn()
}

// OnFlush registers fn to receive a report after every flush.
func (a *App) OnFlush(fn func(view.FlushReport)) {
	a.sync.OnFlush(fn)
}

// Wrap makes v reactive in the app's graph. Maps and slices are wrapped;
// other values are returned unchanged.
func (a *App) Wrap(v any) any {
	return a.graph.Wrap(v)
}

// NewEntity assigns m a fresh id and wraps it.
func (a *App) NewEntity(m map[string]any) *reactive.Object {
	return a.graph.WrapObject(a.ids.WithID(m))
}

// Find returns the live root entity with the given id.
func (a *App) Find(entityID string) (*reactive.Object, bool) {
	for _, v := range a.graph.Roots() {
		if obj, ok := v.(*reactive.Object); ok && obj.ID() == entityID {
			return obj, true
		}
	}
	return nil, false
}

// Close stops scheduling flushes on graph changes.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// Graph returns the reactive graph.
func (a *App) Graph() *reactive.Graph { return a.graph }

// IDs returns the identifier allocator.
func (a *App) IDs() *id.Allocator { return a.ids }

// Loop returns the task loop flushes run on.
func (a *App) Loop() *sched.Loop { return a.loop }

// Scheduler returns the flush scheduler.
func (a *App) Scheduler() *sched.Scheduler { return a.sched }

// Engine returns the template engine.
func (a *App) Engine() *tmpl.Engine { return a.engine }

// Synchronizer returns the view synchronizer.
func (a *App) Synchronizer() *view.Synchronizer { return a.sync }

// Logger returns the app logger.
func (a *App) Logger() *slog.Logger { return a.logger }
