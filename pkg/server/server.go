package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reflex"
	"github.com/vango-dev/reflex/pkg/middleware"
	"github.com/vango-dev/reflex/pkg/render"
	"github.com/vango-dev/reflex/pkg/vdom"
	"github.com/vango-dev/reflex/pkg/view"
)

// DefaultMaxBodyBytes limits POST /state bodies.
const DefaultMaxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	// Logger is the structured logger for requests and WebSocket events.
	// If nil, the app's logger is used.
	Logger *slog.Logger

	// Registerer enables HTTP metrics when non-nil.
	Registerer prometheus.Registerer

	// Gatherer serves GET /metrics when non-nil. If Registerer is a
	// *prometheus.Registry and Gatherer is nil, the registry is used.
	Gatherer prometheus.Gatherer

	// Namespace is the metrics namespace (default: "reflex").
	Namespace string

	// Tracer traces requests. If nil, the global tracer provider is used.
	Tracer trace.Tracer

	// CheckOrigin validates WebSocket origins. If nil, only same-origin
	// upgrades are accepted.
	CheckOrigin func(r *http.Request) bool

	// MaxBodyBytes limits POST /state bodies (default: DefaultMaxBodyBytes).
	MaxBodyBytes int64

	// DisableClient omits the update script from GET /.
	DisableClient bool
}

// Server serves a document bound to an App.
type Server struct {
	app      *reflex.App
	doc      *vdom.Document
	renderer *render.Renderer
	hub      *Hub
	router   chi.Router
	logger   *slog.Logger
	opts     Options
}

// New creates a server for doc and registers a flush hook on app that
// pushes node updates to connected clients.
func New(app *reflex.App, doc *vdom.Document, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = app.Logger()
	}
	if opts.Namespace == "" {
		opts.Namespace = "reflex"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Gatherer == nil {
		if reg, ok := opts.Registerer.(*prometheus.Registry); ok {
			opts.Gatherer = reg
		}
	}

	s := &Server{
		app:      app,
		doc:      doc,
		renderer: render.NewRenderer(render.RendererConfig{Doctype: true}),
		hub:      NewHub(opts.Logger, opts.CheckOrigin),
		logger:   opts.Logger,
		opts:     opts,
	}
	s.router = s.routes()
	app.OnFlush(s.broadcastFlush)
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)
	r.Use(middleware.OpenTelemetry(middleware.WithTracer(s.opts.Tracer)))
	if s.opts.Registerer != nil {
		r.Use(middleware.Prometheus(
			middleware.WithRegistry(s.opts.Registerer),
			middleware.WithNamespace(s.opts.Namespace),
		))
	}

	r.Get("/", s.handleDocument)
	r.Get("/ws", s.handleWebSocket)
	r.Route("/state", func(r chi.Router) {
		r.Get("/", s.handleListState)
		r.Get("/{id}", s.handleGetState)
		r.Post("/{id}", s.handleMergeState)
	})
	if s.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Close disconnects every WebSocket client.
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

// broadcastFlush runs on the app's loop after every flush.
func (s *Server) broadcastFlush(report view.FlushReport) {
	if len(report.Updates) > 0 {
		nodes := make([]NodeUpdate, 0, len(report.Updates))
		for _, u := range report.Updates {
			n := vdom.NodeOf(u.Node)
			if n == nil || n.HID == "" {
				continue
			}
			nodes = append(nodes, NodeUpdate{
				HID:     n.HID,
				Entity:  u.EntityID,
				Kind:    u.Node.Kind().String(),
				Content: u.Content,
			})
		}
		if len(nodes) > 0 {
			if err := s.hub.Broadcast(Message{Type: MessageUpdate, Nodes: nodes}); err != nil {
				s.logger.Error("broadcast failed", "error", err)
			}
		}
	}
	for _, err := range report.Errors {
		if err := s.hub.Broadcast(Message{Type: MessageError, Error: err.Error()}); err != nil {
			s.logger.Error("broadcast failed", "error", err)
		}
	}
}

// snapshot returns the current content of every bound node.
func (s *Server) snapshot() Message {
	msg := Message{Type: MessageSync}
	s.app.View(func() {
		s.doc.Root.Walk(func(n *vdom.VNode) bool {
			if !n.IsBound() || n.HID == "" {
				return true
			}
			bound := vdom.Bound(n)
			content := n.TextContent()
			if bound.Kind() == view.KindValue {
				content = n.Value()
			}
			entity, _ := n.Attr(vdom.AttrBindID)
			msg.Nodes = append(msg.Nodes, NodeUpdate{
				HID:     n.HID,
				Entity:  entity,
				Kind:    bound.Kind().String(),
				Content: content,
			})
			return true
		})
	})
	return msg
}

// injectClient places the client script before </body>, or appends it.
func injectClient(html string) string {
	if i := strings.LastIndex(html, "</body>"); i >= 0 {
		return html[:i] + ClientScript + html[i:]
	}
	return html + ClientScript
}
