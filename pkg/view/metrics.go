package view

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// flushBuckets span sub-millisecond flushes up to well past the slow threshold.
var flushBuckets = []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25}

type metrics struct {
	flushes  prometheus.Counter
	duration prometheus.Histogram
	slow     prometheus.Counter
	nodes    prometheus.Counter
	skipped  prometheus.Counter
	errors   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "flushes_total",
			Help:      "Total number of flushes",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "flush_duration_seconds",
			Help:      "Flush duration in seconds",
			Buckets:   flushBuckets,
		}),
		slow: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "slow_flushes_total",
			Help:      "Flushes slower than the configured threshold",
		}),
		nodes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "nodes_updated_total",
			Help:      "Nodes re-rendered by flushes",
		}),
		skipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "bindings_skipped_total",
			Help:      "Bindings skipped because data or renderer was missing",
		}),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "render_errors_total",
			Help:      "Node renders that failed",
		}),
	}
}
