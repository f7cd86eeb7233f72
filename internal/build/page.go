package build

import (
	"context"
	"errors"
	"path/filepath"

	"git.home.luguber.info/inful/pagegen/internal/build/queue"
	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/incremental"
	"git.home.luguber.info/inful/pagegen/internal/locals"
	"git.home.luguber.info/inful/pagegen/internal/logfields"
	"git.home.luguber.info/inful/pagegen/internal/observability"
	"git.home.luguber.info/inful/pagegen/internal/resolve"
	"git.home.luguber.info/inful/pagegen/internal/route"
	"git.home.luguber.info/inful/pagegen/internal/templates"
)

var (
	errRedirectCycle   = errors.New("redirect cycle")
	errOutsideOutput   = errors.New("page path escapes the output directory")
	errRedirectNoMatch = errors.New("target matches no route")
	errEmptyRedirect   = errors.New("empty redirect target")
)

// resolvePage runs the discovery half of page resolution: handler and
// redirect negotiation, template lookup and the digest check. The returned
// write renders and commits the page when flushed.
func (x *expander) resolvePage(ctx context.Context, p page) (pending queue.Pending, err error) {
	ctx = observability.WithPage(ctx, p.route.Name, p.path)
	ctx, span := observability.StartPageSpan(ctx, p.route.Name, p.path)
	defer func() { observability.EndSpan(span, err) }()

	l, component, hops, err := x.negotiate(ctx, p)
	if err != nil {
		return pending, err
	}

	tpl, err := x.lookupTemplate(component)
	if err != nil {
		return pending, err
	}

	l = l.Merge(map[string]any{
		locals.KeyRouteName: p.route.Name,
		locals.KeyPath:      p.path,
		locals.KeyRoute:     p.route,
		locals.KeyRouter:    x.e.router,
		locals.KeyParams:    p.params.Clone(),
	})

	output, err := x.e.outputFile(p.path)
	if err != nil {
		return pending, err
	}
	pending = queue.Pending{
		OutputPath: output,
		URLPath:    p.path,
		Route:      p.route.Name,
		RouteIndex: p.routeIndex,
		Depth:      p.depth,
		Ordinal:    p.ordinal,
		Redirects:  hops,
	}

	if !x.skipHash && x.led.Enabled() {
		digest, err := incremental.PageDigest(tpl.Digest, l)
		if err != nil {
			return pending, pgerrors.RenderFailed(output, err)
		}
		pending.Digest = digest
		pending.Skip = x.led.Unchanged(output, digest)
		if pending.Skip {
			observability.DebugContext(ctx, "Page unchanged", logfields.Output(output), logfields.Digest(digest))
		}
	}

	pending.Task = x.renderTask(p, tpl, l, output)
	return pending, nil
}

// negotiate resolves the component a page renders. Redirects are followed
// until a route without one is reached; the target's component is rendered
// at the original path with redirectTo set.
func (x *expander) negotiate(ctx context.Context, p page) (locals.Locals, string, []queue.Redirect, error) {
	l := p.locals
	cur := p.route
	params := p.params
	from := p.path
	seen := map[string]bool{p.path: true}
	var hops []queue.Redirect

	for {
		target, redirecting, err := x.redirectTarget(ctx, cur, params)
		if err != nil {
			return l, "", nil, err
		}
		if !redirecting {
			component, err := x.component(ctx, cur, params)
			var rd *route.Redirect
			if errors.As(err, &rd) {
				target, redirecting, err = rd.To, true, nil
			}
			if err != nil {
				return l, "", nil, err
			}
			if !redirecting {
				return l, component, hops, nil
			}
		}

		to, err := x.compileTarget(target)
		if err != nil {
			return l, "", nil, pgerrors.RedirectFailed(from, target.String(), err)
		}
		if seen[to] {
			return l, "", nil, pgerrors.RedirectFailed(from, to, errRedirectCycle)
		}
		seen[to] = true
		chain, ok := x.e.router.Match(to)
		if !ok || len(chain) == 0 {
			return l, "", nil, pgerrors.RedirectFailed(from, to, errRedirectNoMatch)
		}

		// Recorded on the job only if this page wins its output path.
		hops = append(hops, queue.Redirect{From: from, To: to})
		observability.DebugContext(ctx, "Redirect", logfields.From(from), logfields.To(to))

		l = l.With(locals.KeyRedirectTo, to)
		leaf := chain[len(chain)-1]
		cur, params, from = leaf.Route, leaf.Params, to
	}
}

func (x *expander) redirectTarget(ctx context.Context, r *route.Definition, params route.Params) (route.Target, bool, error) {
	if r.Redirect == nil {
		return route.Target{}, false, nil
	}
	target, err := r.Redirect.Target(ctx, params.Clone())
	if err != nil {
		return target, false, pgerrors.RedirectFailed(r.Name, "", err)
	}
	return target, true, nil
}

func (x *expander) component(ctx context.Context, r *route.Definition, params route.Params) (string, error) {
	if r.Handler == nil {
		return "", nil
	}
	component, err := r.Handler.Component(ctx, params.Clone())
	if err != nil {
		var rd *route.Redirect
		if errors.As(err, &rd) {
			return "", err
		}
		return "", pgerrors.HandlerFailed(r.Name, err)
	}
	return component, nil
}

func (x *expander) compileTarget(t route.Target) (string, error) {
	if t.Name == "" {
		if t.Path == "" {
			return "", errEmptyRedirect
		}
		return t.Path, nil
	}
	return x.e.router.CompileLink(t.Name, t.Params)
}

// lookupTemplate maps a component name to a compiled template, falling back
// to the default template.
func (x *expander) lookupTemplate(component string) (*templates.Compiled, error) {
	path := x.e.opts.TemplateMap[component]
	if path == "" {
		path = x.e.opts.DefaultTemplate
	}
	if path == "" {
		return nil, pgerrors.TemplateNotFound(component)
	}
	return x.e.tmpl.Load(path)
}

// renderTask renders a page and commits it: to disk for a site build, onto
// the job for a single-route build.
func (x *expander) renderTask(p page, tpl *templates.Compiled, l locals.Locals, output string) queue.Task {
	return func(ctx context.Context) (err error) {
		ctx = observability.WithPage(ctx, p.route.Name, p.path)
		ctx, span := observability.StartPageSpan(ctx, p.route.Name, p.path)
		defer func() { observability.EndSpan(span, err) }()

		if x.e.opts.Transform != nil {
			if l, err = x.e.opts.Transform(ctx, l); err != nil {
				return pgerrors.RenderFailed(output, err)
			}
		}
		html, err := tpl.Render(l.Map())
		if err != nil {
			return pgerrors.RenderFailed(output, err).WithContext("template", tpl.Path)
		}

		if x.mode == resolve.ModeSingle {
			x.job.setOutput(html)
			return nil
		}

		if err := x.e.fs.MkdirAll(filepath.Dir(output)); err != nil {
			return pgerrors.WriteFailed(output, err)
		}
		if err := x.e.fs.WriteFile(output, []byte(html)); err != nil {
			return pgerrors.WriteFailed(output, err)
		}
		observability.DebugContext(ctx, "Wrote page", logfields.Output(output))
		return nil
	}
}
