// Package resolve implements the resolver capabilities used while expanding
// dynamic route segments: which entries a segment enumerates, the path
// segment each entry produces, and the locals key an entry is bound under.
//
// A resolver is a small variant set (Static, Func, ContextFunc) behind one
// interface, looked up through an explicit fallback chain by Table.
package resolve

import (
	"context"

	"git.home.luguber.info/inful/pagegen/internal/locals"
)

// Mode distinguishes a full-site expansion from a single-route one.
type Mode int

const (
	// ModeSite enumerates every entry of a segment.
	ModeSite Mode = iota
	// ModeSingle resolves the one entry behind a known segment.
	ModeSingle
)

// Request is the input every resolver receives.
type Request struct {
	Locals    locals.Locals
	RouteName string
	ParamName string
	Mode      Mode

	// Entry is the entry being serialized (path-segment and local-name
	// resolvers only).
	Entry any

	// Segment is the requested path segment in ModeSingle.
	Segment string
}

// Resolver produces a T for a request.
type Resolver[T any] interface {
	Resolve(ctx context.Context, req Request) (T, error)
}

// Static always yields Value.
type Static[T any] struct{ Value T }

func (s Static[T]) Resolve(context.Context, Request) (T, error) { return s.Value, nil }

// Func is a synchronous resolver that needs no context.
type Func[T any] func(req Request) (T, error)

func (f Func[T]) Resolve(_ context.Context, req Request) (T, error) { return f(req) }

// ContextFunc is a resolver that may block on I/O and honours ctx.
type ContextFunc[T any] func(ctx context.Context, req Request) (T, error)

func (f ContextFunc[T]) Resolve(ctx context.Context, req Request) (T, error) { return f(ctx, req) }

// Level reports which fallback level satisfied a lookup.
type Level int

const (
	LevelNone Level = iota
	LevelRouteParam
	LevelParam
	LevelRouteDefault
	LevelGlobal
)

func (l Level) String() string {
	switch l {
	case LevelRouteParam:
		return "route+param"
	case LevelParam:
		return "param"
	case LevelRouteDefault:
		return "route-default"
	case LevelGlobal:
		return "global"
	default:
		return "none"
	}
}

// Table holds resolvers at every fallback level.
type Table[T any] struct {
	// ByRoute is keyed by route name, then parameter name.
	ByRoute map[string]map[string]Resolver[T]
	// ByParam is keyed by parameter name.
	ByParam map[string]Resolver[T]
	// RouteDefault is keyed by route name.
	RouteDefault map[string]Resolver[T]
	// Default is the global fallback.
	Default Resolver[T]
}

// Lookup walks (route, param) → (param) → (route default) → global default.
func (t *Table[T]) Lookup(routeName, paramName string) (Resolver[T], Level, bool) {
	if t == nil {
		return nil, LevelNone, false
	}
	if r, ok := t.ByRoute[routeName][paramName]; ok && r != nil {
		return r, LevelRouteParam, true
	}
	if r, ok := t.ByParam[paramName]; ok && r != nil {
		return r, LevelParam, true
	}
	if r, ok := t.RouteDefault[routeName]; ok && r != nil {
		return r, LevelRouteDefault, true
	}
	if t.Default != nil {
		return t.Default, LevelGlobal, true
	}
	return nil, LevelNone, false
}

// SetRoute registers a resolver for one parameter of one route.
func (t *Table[T]) SetRoute(routeName, paramName string, r Resolver[T]) {
	if t.ByRoute == nil {
		t.ByRoute = make(map[string]map[string]Resolver[T])
	}
	if t.ByRoute[routeName] == nil {
		t.ByRoute[routeName] = make(map[string]Resolver[T])
	}
	t.ByRoute[routeName][paramName] = r
}

// SetParam registers a resolver for a parameter name on any route.
func (t *Table[T]) SetParam(paramName string, r Resolver[T]) {
	if t.ByParam == nil {
		t.ByParam = make(map[string]Resolver[T])
	}
	t.ByParam[paramName] = r
}

// SetRouteDefault registers the fallback resolver of one route.
func (t *Table[T]) SetRouteDefault(routeName string, r Resolver[T]) {
	if t.RouteDefault == nil {
		t.RouteDefault = make(map[string]Resolver[T])
	}
	t.RouteDefault[routeName] = r
}

// Set groups the three resolver kinds the expander needs.
type Set struct {
	Entries     Table[[]any]
	PathSegment Table[string]
	LocalName   Table[string]
}

// Kind names used in errors and logs.
const (
	KindEntries     = "entries"
	KindPathSegment = "path segment"
	KindLocalName   = "entry local name"
)
