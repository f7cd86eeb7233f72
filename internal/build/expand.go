package build

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pagegen/internal/build/queue"
	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/ledger"
	"git.home.luguber.info/inful/pagegen/internal/locals"
	"git.home.luguber.info/inful/pagegen/internal/logfields"
	"git.home.luguber.info/inful/pagegen/internal/observability"
	"git.home.luguber.info/inful/pagegen/internal/resolve"
	"git.home.luguber.info/inful/pagegen/internal/route"
)

var (
	errNoEntries      = errors.New("resolver returned nothing")
	errEmptyLocalName = errors.New("resolver returned an empty local name")
	errUnsafeSegment  = errors.New("path segment must not contain a separator or be a dot segment")
)

// page is one concrete page instance: a route with every token bound.
type page struct {
	route      *route.Definition
	path       string
	locals     locals.Locals
	params     route.Params
	routeIndex int
	depth      int
	ordinal    []int
}

// branch is a partially expanded route: tokens before pos are bound.
type branch struct {
	route      *route.Definition
	tokens     []route.Token
	pos        int
	locals     locals.Locals
	params     route.Params
	routeIndex int
	depth      int
	ordinal    []int
}

func (b branch) next(l locals.Locals, p route.Params, n int) branch {
	b.pos++
	b.locals = l
	b.params = p
	b.ordinal = appendOrdinal(b.ordinal, n)
	return b
}

func appendOrdinal(ordinal []int, n int) []int {
	return append(slices.Clone(ordinal), n)
}

// expander walks route patterns, binding each dynamic token to the entries
// its resolvers enumerate, and hands every concrete page to the coordinator.
type expander struct {
	e        *Engine
	job      *Job
	coord    *queue.Coordinator
	led      *ledger.Ledger
	mode     resolve.Mode
	skipHash bool

	// want holds the requested segments of a single-route build.
	want route.Params
}

func newExpander(e *Engine, job *Job, coord *queue.Coordinator, led *ledger.Ledger, mode resolve.Mode, skipHash bool) *expander {
	return &expander{e: e, job: job, coord: coord, led: led, mode: mode, skipHash: skipHash}
}

// expandForest expands sibling routes concurrently. The first failure
// cancels the remaining siblings.
func (x *expander) expandForest(ctx context.Context, routes []*route.Definition, parent route.Params, depth int, ordinal []int) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range routes {
		g.Go(func() error {
			return x.expandRoute(gctx, r, i, depth, parent, appendOrdinal(ordinal, i))
		})
	}
	return g.Wait()
}

// expandRoute starts a route with fresh locals: the engine's base locals
// plus each inherited param bound to its segment.
func (x *expander) expandRoute(ctx context.Context, r *route.Definition, index, depth int, parent route.Params, ordinal []int) error {
	if r.Name == "" {
		return pgerrors.MissingRouteName(r.Pattern)
	}
	tokens, err := x.e.router.ParsePattern(r.Pattern)
	if err != nil {
		return pgerrors.Wrap(err, pgerrors.CategoryConfig, pgerrors.SeverityFatal, "invalid route pattern").
			WithContext("route", r.Name)
	}

	l := locals.New(x.e.opts.Locals)
	for name, segment := range parent {
		l = l.With(name, segment)
	}

	return x.walk(ctx, branch{
		route:      r,
		tokens:     tokens,
		locals:     l,
		params:     parent.Clone(),
		routeIndex: index,
		depth:      depth,
		ordinal:    ordinal,
	})
}

func (x *expander) walk(ctx context.Context, b branch) error {
	for b.pos < len(b.tokens) && !b.tokens[b.pos].IsParam() {
		b.pos++
	}
	if b.pos == len(b.tokens) {
		return x.complete(ctx, b)
	}

	children, err := x.bind(ctx, b, b.tokens[b.pos])
	if err != nil {
		return err
	}
	if len(children) == 1 {
		return x.walk(ctx, children[0])
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range children {
		g.Go(func() error { return x.walk(gctx, c) })
	}
	return g.Wait()
}

// bind resolves the entries of a dynamic token and returns one branch per
// entry, plus a branch with the token unset when it is optional and no entry
// already leaves it unset.
func (x *expander) bind(ctx context.Context, b branch, tok route.Token) ([]branch, error) {
	routeName := b.route.Name
	req := resolve.Request{
		Locals:    b.locals,
		RouteName: routeName,
		ParamName: tok.Name,
		Mode:      x.mode,
	}

	if x.mode == resolve.ModeSingle {
		segment, ok := x.want[tok.Name]
		if !ok {
			if tok.Optional {
				return []branch{x.nullBranch(b, tok, 0)}, nil
			}
			return nil, pgerrors.ValidationFailed(tok.Name, "requested path leaves a required segment unset").
				WithContext("route", routeName)
		}
		req.Segment = segment
	}

	entriesResolver, level, ok := x.e.opts.Resolvers.Entries.Lookup(routeName, tok.Name)
	if !ok {
		return nil, pgerrors.ResolverNotFound(resolve.KindEntries, routeName, tok.Name)
	}
	observability.DebugContext(ctx, "Resolving entries",
		logfields.Route(routeName), logfields.Param(tok.Name))
	entries, err := entriesResolver.Resolve(ctx, req)
	if err != nil {
		return nil, pgerrors.ResolverFailed(resolve.KindEntries, routeName, tok.Name, err).
			WithContext("level", level.String())
	}
	if entries == nil {
		return nil, pgerrors.ResolverFailed(resolve.KindEntries, routeName, tok.Name, errNoEntries)
	}

	branches := make([]branch, 0, len(entries)+1)
	hasNull := false
	for i, entry := range entries {
		name, err := x.localName(ctx, req, entry)
		if err != nil {
			return nil, err
		}
		bound := b.locals.With(name, entry)

		segment, err := x.segment(ctx, req, bound, entry)
		if err != nil {
			return nil, err
		}
		if x.mode == resolve.ModeSingle && segment != req.Segment {
			continue
		}
		if segment == "" {
			hasNull = true
		}
		branches = append(branches, b.next(bound.With(tok.Name, segment), b.params.With(tok.Name, segment), i))
	}

	if x.mode == resolve.ModeSingle {
		if len(branches) == 0 {
			return nil, pgerrors.ResolverFailed(resolve.KindEntries, routeName, tok.Name,
				fmt.Errorf("no entry produces segment %q", req.Segment))
		}
		return branches[:1], nil
	}

	if tok.Optional && !hasNull {
		branches = append(branches, x.nullBranch(b, tok, len(entries)))
	}
	return branches, nil
}

func (x *expander) nullBranch(b branch, tok route.Token, n int) branch {
	return b.next(b.locals.With(tok.Name, nil), b.params.With(tok.Name, ""), n)
}

func (x *expander) localName(ctx context.Context, req resolve.Request, entry any) (string, error) {
	r, _, ok := x.e.opts.Resolvers.LocalName.Lookup(req.RouteName, req.ParamName)
	if !ok {
		return "", pgerrors.ResolverNotFound(resolve.KindLocalName, req.RouteName, req.ParamName)
	}
	req.Entry = entry
	name, err := r.Resolve(ctx, req)
	if err != nil {
		return "", pgerrors.ResolverFailed(resolve.KindLocalName, req.RouteName, req.ParamName, err)
	}
	if name == "" {
		return "", pgerrors.ResolverFailed(resolve.KindLocalName, req.RouteName, req.ParamName, errEmptyLocalName)
	}
	if name == req.ParamName {
		return "", pgerrors.LocalNameCollision(req.RouteName, req.ParamName)
	}
	return name, nil
}

func (x *expander) segment(ctx context.Context, req resolve.Request, bound locals.Locals, entry any) (string, error) {
	r, _, ok := x.e.opts.Resolvers.PathSegment.Lookup(req.RouteName, req.ParamName)
	if !ok {
		return "", pgerrors.ResolverNotFound(resolve.KindPathSegment, req.RouteName, req.ParamName)
	}
	req.Locals = bound
	req.Entry = entry
	segment, err := r.Resolve(ctx, req)
	if err != nil {
		return "", pgerrors.ResolverFailed(resolve.KindPathSegment, req.RouteName, req.ParamName, err)
	}
	if !safeSegment(segment) {
		return "", pgerrors.ResolverFailed(resolve.KindPathSegment, req.RouteName, req.ParamName, errUnsafeSegment).
			WithContext("segment", segment)
	}
	return segment, nil
}

// safeSegment reports whether s stays one directory level under its parent
// once joined into an output path. The empty segment is the null segment.
func safeSegment(s string) bool {
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, `/\`) || strings.ContainsRune(s, 0) {
		return false
	}
	return strings.Trim(s, ". ") != ""
}

// complete handles a fully bound branch: the page is resolved and enqueued,
// then the route's children are expanded with its params as context.
func (x *expander) complete(ctx context.Context, b branch) error {
	path, err := x.e.router.CompileLink(b.route.Name, b.params)
	if err != nil {
		return pgerrors.LinkCompileFailed(b.route.Name, err)
	}

	p := page{
		route:      b.route,
		path:       path,
		locals:     b.locals,
		params:     b.params,
		routeIndex: b.routeIndex,
		depth:      b.depth,
		ordinal:    b.ordinal,
	}
	pending, err := x.resolvePage(ctx, p)
	if err != nil {
		return err
	}
	x.coord.Enqueue(pending)

	if x.mode == resolve.ModeSingle || len(b.route.Children) == 0 {
		return nil
	}
	return x.expandForest(ctx, b.route.Children, b.params, b.depth+1, b.ordinal)
}
