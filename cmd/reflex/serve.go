package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reflex"
	"github.com/vango-dev/reflex/internal/config"
	"github.com/vango-dev/reflex/pkg/reactive"
	"github.com/vango-dev/reflex/pkg/server"
	"github.com/vango-dev/reflex/pkg/vdom"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		host       string
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live counter demo",
		Long: `Serve a counter page whose bound nodes update live over WebSocket.

The counter increments every --interval; POST a JSON object to
/state/{id} to change it by hand. Settings come from reflex.json
(found in the working directory or a parent) unless --config is given.

Examples:
  reflex serve
  reflex serve --config ./reflex.json --port 8080
  curl -X POST localhost:3000/state/1 -d '{"count": 100}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, interval)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to reflex.json")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from reflex.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from reflex.json)")
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Counter increment interval (0 disables)")

	return cmd
}

// loadConfig reads path, or reflex.json from the working directory upward.
// Without either, defaults are used.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if _, err := config.FindProjectRoot(wd); err != nil {
		return config.New(), nil
	}
	return config.LoadFromWorkingDir()
}

// demo is the counter app served by the serve command.
type demo struct {
	app     *reflex.App
	doc     *vdom.Document
	counter *reactive.Object
}

// newDemo builds the counter document and its state.
func newDemo(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) *demo {
	globals := map[string]any{"title": "reflex counter"}
	for k, v := range cfg.Globals {
		globals[k] = v
	}

	doc := vdom.NewDocument(vdom.Html(
		vdom.Head(vdom.Title("reflex")),
		vdom.Body(
			vdom.H1(vdom.BindAny(), vdom.Tpl("${title}")),
			vdom.P(vdom.BindID("1"), vdom.Tpl("${data.label}: ${data.count}")),
			vdom.Input(vdom.BindID("1"), vdom.Tpl("${data.count}"), vdom.Type("text"), vdom.Name("count")),
			vdom.Pre(vdom.BindAny(), vdom.Tpl("${toJSON(all)}")),
		),
	))

	app := reflex.New(reflex.Config{
		Layer:              doc,
		Globals:            globals,
		Logger:             logger,
		SlowFlushThreshold: cfg.SlowThreshold(),
		Registerer:         reg,
		Namespace:          cfg.Metrics.Namespace,
	})
	counter := app.NewEntity(map[string]any{"label": "count", "count": 0})
	// Bound nodes start empty; the first flush fills them.
	app.Graph().MarkDirty(counter)
	return &demo{app: app, doc: doc, counter: counter}
}

// increment adds one to the counter, whatever numeric type it holds.
func (d *demo) increment() {
	v, _ := d.counter.Get("count")
	switch n := v.(type) {
	case int:
		d.counter.Set("count", n+1)
	case float64:
		d.counter.Set("count", n+1)
	default:
		d.counter.Set("count", 1)
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, interval time.Duration) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel()}))

	var reg *prometheus.Registry
	var registerer prometheus.Registerer
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		registerer = reg
	}

	d := newDemo(cfg, logger, registerer)
	defer d.app.Close()
	if err := d.app.Flush(ctx); err != nil {
		return err
	}

	opts := server.Options{Logger: logger, Namespace: cfg.Metrics.Namespace}
	if reg != nil {
		opts.Registerer = reg
	}
	srv := server.New(d.app, d.doc, opts)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := d.app.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("loop stopped", "error", err)
		}
	}()

	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					d.increment()
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	success(cmd, "Serving %s", cfg.URL())
	info(cmd, "counter entity id: %s", d.counter.ID())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	info(cmd, "stopped")
	return nil
}
