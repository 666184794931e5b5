package view

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rerrors "github.com/vango-dev/reflex/internal/errors"
	"github.com/vango-dev/reflex/pkg/reactive"
	"github.com/vango-dev/reflex/pkg/tmpl"
)

// DefaultSlowFlushThreshold is the flush duration above which a flush is
// reported as slow.
const DefaultSlowFlushThreshold = 10 * time.Millisecond

const defaultTracerName = "reflex"

// Template variable names bound for every node.
const (
	VarAll  = "all"
	VarData = "data"
)

// Options configures a Synchronizer.
type Options struct {
	// Engine compiles node templates. If nil, a new engine without globals is used.
	Engine *tmpl.Engine

	// Graph supplies the live roots bound to "all" by Update.
	// UpdateFromGraph uses the graph it is given instead.
	Graph *reactive.Graph

	// Logger receives binding warnings, render errors and slow flush
	// diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger

	// SlowFlushThreshold (default: DefaultSlowFlushThreshold).
	SlowFlushThreshold time.Duration

	// Registerer enables Prometheus metrics when non-nil.
	Registerer prometheus.Registerer

	// Namespace is the metrics namespace (default: "reflex").
	Namespace string

	// Tracer traces each flush. If nil, the global tracer provider is used.
	Tracer trace.Tracer
}

// Update is one node refreshed by a flush.
type Update struct {
	Node     Node
	EntityID string
	Content  string
}

// FlushReport summarises a flush.
type FlushReport struct {
	// Entities are the dirty entity ids, sorted.
	Entities []string

	// Updates are the nodes whose content changed hands, in render order.
	Updates []Update

	// Skipped counts bindings skipped because their data or renderer was missing.
	Skipped int

	Duration time.Duration
	Errors   []error
}

// Synchronizer renders dirty entities into their bound nodes.
type Synchronizer struct {
	layer   Layer
	engine  *tmpl.Engine
	graph   *reactive.Graph
	logger  *slog.Logger
	slow    time.Duration
	tracer  trace.Tracer
	metrics *metrics

	hooksMu sync.RWMutex
	hooks   []func(FlushReport)
}

// New creates a synchronizer for layer.
func New(layer Layer, opts Options) *Synchronizer {
	if opts.Engine == nil {
		opts.Engine = tmpl.NewEngine(tmpl.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SlowFlushThreshold <= 0 {
		opts.SlowFlushThreshold = DefaultSlowFlushThreshold
	}
	if opts.Namespace == "" {
		opts.Namespace = "reflex"
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(defaultTracerName)
	}
	s := &Synchronizer{
		layer:  layer,
		engine: opts.Engine,
		graph:  opts.Graph,
		logger: opts.Logger,
		slow:   opts.SlowFlushThreshold,
		tracer: opts.Tracer,
	}
	if opts.Registerer != nil {
		s.metrics = newMetrics(opts.Registerer, opts.Namespace)
	}
	return s
}

// OnFlush registers fn to receive a report after every flush.
func (s *Synchronizer) OnFlush(fn func(FlushReport)) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// UpdateFromGraph drains g's dirty set and updates the bound nodes.
// It is the only reader of the dirty set.
func (s *Synchronizer) UpdateFromGraph(ctx context.Context, g *reactive.Graph) error {
	return s.update(ctx, g.ClearDirty(), g.Roots())
}

// Update re-renders the nodes bound to the entities in dirty, plus every
// wildcard node. Failures of single bindings are logged and joined into the
// returned error; the remaining bindings still update.
func (s *Synchronizer) Update(ctx context.Context, dirty reactive.DirtyMap) error {
	var roots []reactive.Value
	if s.graph != nil {
		roots = s.graph.Roots()
	}
	return s.update(ctx, dirty, roots)
}

// target is one binding to refresh: an entity and the nodes bound to it.
type target struct {
	id    string
	data  reactive.Value
	nodes []Node
	any   bool
}

func (s *Synchronizer) update(ctx context.Context, dirty reactive.DirtyMap, roots []reactive.Value) error {
	start := time.Now()

	ids := dirty.IDs()
	sort.Strings(ids)

	ctx, span := s.tracer.Start(ctx, "reflex.flush",
		trace.WithAttributes(attribute.Int("reflex.dirty_entities", len(ids))))
	defer span.End()

	targets := make([]target, 0, len(ids)+1)
	for _, id := range ids {
		targets = append(targets, target{id: id, data: dirty[id], nodes: s.layer.NodesByID(id)})
	}
	targets = append(targets, target{nodes: s.layer.AnyNodes(), any: true})

	all := make([]any, 0, len(roots))
	for _, r := range roots {
		all = append(all, r.Plain())
	}

	report := FlushReport{Entities: ids}
	for _, t := range targets {
		s.updateTarget(ctx, t, all, &report)
	}

	report.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("reflex.nodes_updated", len(report.Updates)))
	if len(report.Errors) > 0 {
		err := errors.Join(report.Errors...)
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
	}
	s.observe(report)

	s.hooksMu.RLock()
	hooks := make([]func(FlushReport), len(s.hooks))
	copy(hooks, s.hooks)
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(report)
	}

	return errors.Join(report.Errors...)
}

func (s *Synchronizer) updateTarget(ctx context.Context, t target, all []any, report *FlushReport) {
	if !t.any && t.data == nil {
		err := rerrors.New(rerrors.CodeBindingNotFound).WithDetailf("no data for entity %q", t.id)
		s.logger.WarnContext(ctx, "data not found", "id", t.id, "error", err)
		report.Skipped++
		return
	}
	if len(t.nodes) == 0 {
		return
	}

	// Wildcard nodes see an entity with an empty id rather than nil.
	var data any = map[string]any{reactive.IDKey: ""}
	if t.data != nil {
		data = t.data.Plain()
	}
	vars := map[string]any{VarAll: all, VarData: data}

	for _, n := range t.nodes {
		render, err := s.rendererFor(n)
		if err != nil {
			s.logger.ErrorContext(ctx, "template compile failed", "id", t.id, "error", err)
			report.Errors = append(report.Errors, err)
			continue
		}
		if render == nil {
			s.logger.WarnContext(ctx, "bound node has no renderer", "id", t.id,
				"error", rerrors.New(rerrors.CodeNodeHasNoRender))
			report.Skipped++
			continue
		}

		content, err := render(vars)
		if err != nil {
			err = rerrors.FromError(err, rerrors.CodeTemplateRender)
			s.logger.ErrorContext(ctx, "render failed", "id", t.id, "error", err)
			report.Errors = append(report.Errors, err)
			continue
		}

		switch n.Kind() {
		case KindValue:
			n.SetValue(content)
		default:
			n.SetText(content)
		}
		report.Updates = append(report.Updates, Update{Node: n, EntityID: t.id, Content: content})
	}
}

// rendererFor returns the node's custom renderer, or its template compiled
// on demand. A nil RenderFunc with a nil error means the node has neither.
func (s *Synchronizer) rendererFor(n Node) (RenderFunc, error) {
	if r := n.Renderer(); r != nil {
		return r, nil
	}
	src := n.Template()
	if src == "" {
		return nil, nil
	}
	t, err := s.engine.Compile(src, VarAll, VarData)
	if err != nil {
		return nil, err
	}
	return t.Render, nil
}

func (s *Synchronizer) observe(report FlushReport) {
	if report.Duration > s.slow {
		s.logger.Debug("slow update",
			"duration", report.Duration,
			"threshold", s.slow,
			"entities", len(report.Entities),
			"nodes", len(report.Updates))
	}
	if s.metrics == nil {
		return
	}
	s.metrics.flushes.Inc()
	s.metrics.duration.Observe(report.Duration.Seconds())
	s.metrics.nodes.Add(float64(len(report.Updates)))
	s.metrics.skipped.Add(float64(report.Skipped))
	s.metrics.errors.Add(float64(len(report.Errors)))
	if report.Duration > s.slow {
		s.metrics.slow.Inc()
	}
}
