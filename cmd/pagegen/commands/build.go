package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagegen/internal/build"
	"git.home.luguber.info/inful/pagegen/internal/config"
	"git.home.luguber.info/inful/pagegen/internal/logfields"
	"git.home.luguber.info/inful/pagegen/internal/metrics"
	"git.home.luguber.info/inful/pagegen/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output          string `short:"o" help:"Output directory; overrides output.directory"`
	Clean           bool   `help:"Remove the output directory before writing"`
	NoLedger        bool   `name:"no-ledger" help:"Render every page without reading or updating the hash ledger"`
	MetricsTextfile string `name:"metrics-textfile" help:"Write Prometheus metrics to this file after the build; overrides metrics.textfile"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if b.Clean {
		cfg.Output.Clean = true
		if err := config.ValidateConfig(cfg); err != nil {
			return err
		}
	}
	if err := applyOutputOverride(cfg, b.Output); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	reg := prometheus.NewRegistry()
	_, err = RunBuild(ctx, g.out(), cfg, site.Options{
		Recorder: metrics.NewPrometheusRecorder(reg),
		NoLedger: b.NoLedger,
	})

	textfile := cfg.Path(cfg.Metrics.Textfile)
	if b.MetricsTextfile != "" {
		textfile = b.MetricsTextfile
	}
	if textfile != "" {
		if werr := metrics.WriteTextfile(reg, textfile); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(textfile), logfields.Error(werr))
		}
	}
	return err
}

// RunBuild opens the site and builds every page, printing a summary to w.
func RunBuild(ctx context.Context, w io.Writer, cfg *config.Config, opts site.Options) (*build.Job, error) {
	// Provide friendly user-facing messages on stdout for CLI integration tests.
	_, _ = fmt.Fprintln(w, "Starting pagegen build")

	s, err := site.Open(cfg, opts)
	if err != nil {
		_, _ = fmt.Fprintln(w, "Build failed")
		return nil, err
	}
	job, err := s.Engine.BuildSite(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(w, "Build failed")
		return job, err
	}

	_, _ = fmt.Fprintf(w, "Built %d pages into %s: %d written, %d unchanged, %d redirects (%s)\n",
		job.Pages, cfg.OutputDir(), len(job.Written), len(job.Skipped), len(job.Redirects), job.Duration.Round(time.Millisecond))
	return job, nil
}
