package commands

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/pagegen/internal/build"
	"git.home.luguber.info/inful/pagegen/internal/site"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Path     string `arg:"" help:"URL path of the page, e.g. /posts/hello-world"`
	SkipHash bool   `name:"skip-hash" help:"Render even when the page is unchanged; the ledger is neither read nor updated"`
	Output   string `short:"o" help:"Output directory; overrides output.directory"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := applyOutputOverride(cfg, r.Output); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	s, err := site.Open(cfg, site.Options{})
	if err != nil {
		return err
	}
	job, err := s.Engine.BuildRoute(ctx, r.Path, build.RouteOptions{SkipHash: r.SkipHash})
	if err != nil {
		return err
	}

	for _, rd := range job.Redirects {
		slog.Info("Followed redirect", "from", rd.From, "to", rd.To)
	}
	if len(job.Skipped) > 0 {
		slog.Warn("Page is unchanged since the last build; pass --skip-hash to render it anyway", "path", r.Path)
		return nil
	}
	_, err = fmt.Fprint(g.out(), job.Output)
	return err
}
