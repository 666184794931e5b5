package reflex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reflex/pkg/id"
	"github.com/vango-dev/reflex/pkg/reactive"
	"github.com/vango-dev/reflex/pkg/tmpl"
	"github.com/vango-dev/reflex/pkg/view"
)

// Config configures an App.
type Config struct {
	// Layer resolves bindings to view nodes. If nil, flushes update nothing.
	Layer view.Layer

	// Graph holds the reactive entities. If nil, a new graph is created.
	Graph *reactive.Graph

	// IDs allocates entity identifiers. If nil, a new allocator is created.
	IDs *id.Allocator

	// Globals are template globals; per-render data wins over them.
	Globals map[string]any

	// Funcs are helper functions callable from templates.
	Funcs map[string]tmpl.Func

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// SlowFlushThreshold marks flushes as slow (default: 10ms).
	SlowFlushThreshold time.Duration

	// Registerer enables Prometheus metrics when non-nil.
	Registerer prometheus.Registerer

	// Namespace is the metrics namespace (default: "reflex").
	Namespace string

	// Tracer traces flushes. If nil, the global tracer provider is used.
	Tracer trace.Tracer

	// OnError is the top-level handler for failed flushes.
	OnError func(error)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		SlowFlushThreshold: view.DefaultSlowFlushThreshold,
		Namespace:          "reflex",
	}
}

// emptyLayer binds nothing.
type emptyLayer struct{}

func (emptyLayer) NodesByID(string) []view.Node { return nil }
func (emptyLayer) AnyNodes() []view.Node        { return nil }
