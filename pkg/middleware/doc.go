// Package middleware provides HTTP middleware for the reflex demo host.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus metrics middleware
//
// Both are plain func(http.Handler) http.Handler and plug into chi:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry())
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//
// # OpenTelemetry Middleware
//
// Every request runs inside a server span named after the matched route.
// The tracer comes from the global provider unless WithTracer is given:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("counter"),
//	    middleware.WithFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/metrics"
//	    }),
//	)
//
// # Prometheus Metrics
//
// Metrics collected:
//   - reflex_http_requests_total: requests by route, method and status
//   - reflex_http_request_duration_seconds: request latency by route
//   - reflex_http_requests_in_flight: requests being served
//
// Expose them with promhttp:
//
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package middleware
