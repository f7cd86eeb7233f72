package commands

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/pagegen/internal/build/queue"
	"git.home.luguber.info/inful/pagegen/internal/site"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct {
	JSON bool `name:"json" help:"Print the plan as JSON"`
}

type plannedPage struct {
	Path      string `json:"path"`
	Route     string `json:"route"`
	Depth     int    `json:"depth"`
	File      string `json:"file"`
	Unchanged bool   `json:"unchanged"`
}

type plannedCollision struct {
	File   string `json:"file"`
	Path   string `json:"path"`
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
}

type routePlan struct {
	Pages      []plannedPage      `json:"pages"`
	Collisions []plannedCollision `json:"collisions,omitempty"`
}

func (r *RoutesCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	s, err := site.Open(cfg, site.Options{})
	if err != nil {
		return err
	}
	pages, collisions, err := s.Engine.Discover(ctx)
	if err != nil {
		return err
	}
	plan := newRoutePlan(pages, collisions)

	w := g.out()
	if r.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PATH\tROUTE\tDEPTH\tSTATUS")
	for _, p := range plan.Pages {
		status := "render"
		if p.Unchanged {
			status = "unchanged"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.Path, p.Route, p.Depth, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(plan.Collisions) == 0 {
		return nil
	}

	_, _ = fmt.Fprintf(w, "\n%d collisions:\n", len(plan.Collisions))
	tw = tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PATH\tKEPT\tDROPPED")
	for _, c := range plan.Collisions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Path, c.Winner, c.Loser)
	}
	return tw.Flush()
}

func newRoutePlan(pages []queue.Pending, collisions []queue.Collision) routePlan {
	plan := routePlan{Pages: make([]plannedPage, 0, len(pages))}
	for _, p := range pages {
		plan.Pages = append(plan.Pages, plannedPage{
			Path:      p.URLPath,
			Route:     p.Route,
			Depth:     p.Depth,
			File:      p.OutputPath,
			Unchanged: p.Skip,
		})
	}
	slices.SortFunc(plan.Pages, func(a, b plannedPage) int { return strings.Compare(a.Path, b.Path) })
	for _, c := range collisions {
		plan.Collisions = append(plan.Collisions, plannedCollision{
			File: c.OutputPath, Path: c.URLPath, Winner: c.Winner, Loser: c.Loser,
		})
	}
	return plan
}
