package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordingSpan struct {
	noop.Span
	name   string
	attrs  map[attribute.Key]attribute.Value
	status codes.Code
	ended  bool
}

func (s *recordingSpan) SetName(name string) { s.name = name }
func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}
func (s *recordingSpan) SetStatus(c codes.Code, _ string) { s.status = c }
func (s *recordingSpan) End(...trace.SpanEndOption)       { s.ended = true }

type recordingTracer struct {
	noop.Tracer
	spans []*recordingSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	span := &recordingSpan{name: name, attrs: map[attribute.Key]attribute.Value{}}
	span.SetAttributes(cfg.Attributes()...)
	t.spans = append(t.spans, span)
	return trace.ContextWithSpan(ctx, span), span
}

func newRouter(mw ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(mw...)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return r
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestPrometheusRecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()

	r := newRouter(Prometheus(WithRegistry(reg), WithNamespace("test")))
	serve(r, "/items/1")
	serve(r, "/items/2")
	serve(r, "/ok")

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "test_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			counts[labels["route"]+" "+labels["status"]] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{
		"/items/{id} 418": 2,
		"/ok 200":         1,
	}, counts)
}

func TestPrometheusUnmatchedRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newRouter(Prometheus(WithRegistry(reg), WithNamespace("y"), WithSubsystem("web"),
		WithConstLabels(prometheus.Labels{"app": "demo"}), WithBuckets([]float64{1})))
	rec := serve(r, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "y_web_requests_total" {
			found = true
			require.Len(t, mf.GetMetric(), 1)
			labels := map[string]string{}
			for _, lp := range mf.GetMetric()[0].GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			assert.Equal(t, "demo", labels["app"])
			assert.Equal(t, "unmatched", labels["route"])
		}
	}
	assert.True(t, found)
}

func TestOpenTelemetryNamesSpanAfterRoute(t *testing.T) {
	tracer := &recordingTracer{}
	var sawSpan bool

	r := chi.NewRouter()
	r.Use(OpenTelemetry(WithTracer(tracer)))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, sawSpan = trace.SpanFromContext(r.Context()).(*recordingSpan)
	})

	serve(r, "/items/7")

	require.Len(t, tracer.spans, 1)
	span := tracer.spans[0]
	assert.True(t, sawSpan)
	assert.True(t, span.ended)
	assert.Equal(t, "GET /items/{id}", span.name)
	assert.Equal(t, "/items/{id}", span.attrs["http.route"].AsString())
	assert.Equal(t, int64(200), span.attrs["http.status_code"].AsInt64())
	assert.Equal(t, "/items/7", span.attrs["http.target"].AsString())
	assert.Equal(t, codes.Unset, span.status)
}

func TestOpenTelemetryMarksServerErrors(t *testing.T) {
	tracer := &recordingTracer{}
	r := newRouter(OpenTelemetry(WithTracer(tracer)))

	serve(r, "/fail")

	require.Len(t, tracer.spans, 1)
	assert.Equal(t, codes.Error, tracer.spans[0].status)
	assert.Equal(t, int64(500), tracer.spans[0].attrs["http.status_code"].AsInt64())
}

func TestOpenTelemetryFilter(t *testing.T) {
	tracer := &recordingTracer{}
	r := newRouter(OpenTelemetry(
		WithTracer(tracer),
		WithTracerName("ignored"),
		WithFilter(func(r *http.Request) bool { return r.URL.Path != "/ok" }),
	))

	rec := serve(r, "/ok")
	assert.Equal(t, "ok", rec.Body.String())
	assert.Empty(t, tracer.spans)
}

func TestOpenTelemetryDefaultTracer(t *testing.T) {
	r := newRouter(OpenTelemetry())
	rec := serve(r, "/ok")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPrometheusInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := initMetrics(MetricsConfig{Namespace: "z", Registry: reg, Buckets: prometheus.DefBuckets})
	assert.Equal(t, float64(0), gaugeValue(t, m.inFlight))

	var during float64
	r := chi.NewRouter()
	r.Use(Prometheus(WithRegistry(reg), WithNamespace("w")))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		families, err := reg.Gather()
		require.NoError(t, err)
		for _, mf := range families {
			if mf.GetName() == "w_http_requests_in_flight" {
				during = mf.GetMetric()[0].GetGauge().GetValue()
			}
		}
	})
	serve(r, "/")
	assert.Equal(t, float64(1), during)
}
