package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagegen/internal/config"
	"git.home.luguber.info/inful/pagegen/internal/logfields"
	"git.home.luguber.info/inful/pagegen/internal/metrics"
	"git.home.luguber.info/inful/pagegen/internal/site"
	"git.home.luguber.info/inful/pagegen/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address, e.g. :9464"`
	Interval    time.Duration `help:"Also rebuild on this interval; overrides watch.interval"`
	Debounce    time.Duration `help:"Quiet period after a change before rebuilding; overrides watch.debounce"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	configPath, err := filepath.Abs(root.Config)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	if w.MetricsAddr != "" {
		shutdown := serveMetrics(w.MetricsAddr, reg)
		defer shutdown()
	}

	interval := cfg.WatchInterval()
	if w.Interval > 0 {
		interval = w.Interval
	}
	debounce := cfg.WatchDebounce()
	if w.Debounce > 0 {
		debounce = w.Debounce
	}

	current := cfg
	rebuild := func(ctx context.Context, t watch.Trigger) error {
		// Configuration and data are reloaded on every build after the first.
		if t.Kind != watch.TriggerInitial {
			next, err := config.Load(configPath)
			if err != nil {
				return err
			}
			current = next
		}
		if _, err := RunBuild(ctx, g.out(), current, site.Options{Recorder: recorder}); err != nil {
			return err
		}
		if current.Metrics.Textfile != "" {
			path := current.Path(current.Metrics.Textfile)
			if err := metrics.WriteTextfile(reg, path); err != nil {
				slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	}

	paths := append([]string{configPath}, cfg.WatchPaths()...)
	watcher, err := watch.New(paths, rebuild,
		watch.WithDebounce(debounce),
		watch.WithInterval(interval),
		watch.WithIgnore(cfg.OutputDir(), filepath.Dir(cfg.LedgerPath())),
	)
	if err != nil {
		return err
	}
	// Watch paths are fixed for the lifetime of the command.
	return watcher.Run(ctx)
}

func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("Serving metrics", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("Metrics server shutdown", logfields.Error(err))
		}
	}
}
