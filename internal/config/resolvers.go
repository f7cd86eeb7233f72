package config

import (
	"fmt"
	"maps"
	"slices"

	"git.home.luguber.info/inful/pagegen/internal/datasource"
	"git.home.luguber.info/inful/pagegen/internal/resolve"
	"git.home.luguber.info/inful/pagegen/internal/route"
)

// RouteDefinitions converts the configured route tree.
func (c *Config) RouteDefinitions() []*route.Definition {
	return convertRoutes(c.Routes)
}

func convertRoutes(routes []RouteConfig) []*route.Definition {
	if len(routes) == 0 {
		return nil
	}
	out := make([]*route.Definition, 0, len(routes))
	for _, rc := range routes {
		d := &route.Definition{
			Name:     rc.Name,
			Pattern:  rc.Pattern,
			Children: convertRoutes(rc.Children),
		}
		if rc.Handler != "" {
			d.Handler = route.StaticHandler(rc.Handler)
		}
		if rc.Redirect != nil {
			d.Redirect = route.StaticRedirect(*rc.Redirect)
		}
		out = append(out, d)
	}
	return out
}

// Resolvers builds the resolver tables from the configured bindings. Scalar
// entries serialize as themselves and bind under "<param>Entry" unless a
// binding says otherwise.
func (c *Config) Resolvers(cat datasource.Catalog) (resolve.Set, error) {
	var set resolve.Set
	set.PathSegment.Default = resolve.Func[string](func(req resolve.Request) (string, error) {
		return datasource.Segment(req.Entry, "", false)
	})
	set.LocalName.Default = resolve.Func[string](func(req resolve.Request) (string, error) {
		return req.ParamName + "Entry", nil
	})

	if c.Defaults != nil {
		err := applyBinding(&set, cat, *c.Defaults, func(t *resolve.Table[[]any], r resolve.Resolver[[]any]) {
			t.Default = r
		}, func(t *resolve.Table[string], r resolve.Resolver[string]) {
			t.Default = r
		})
		if err != nil {
			return set, fmt.Errorf("defaults: %w", err)
		}
	}

	for _, param := range slices.Sorted(maps.Keys(c.Params)) {
		err := applyBinding(&set, cat, c.Params[param], func(t *resolve.Table[[]any], r resolve.Resolver[[]any]) {
			t.SetParam(param, r)
		}, func(t *resolve.Table[string], r resolve.Resolver[string]) {
			t.SetParam(param, r)
		})
		if err != nil {
			return set, fmt.Errorf("params.%s: %w", param, err)
		}
	}

	if err := routeBindings(&set, cat, c.Routes); err != nil {
		return set, err
	}
	return set, nil
}

func routeBindings(set *resolve.Set, cat datasource.Catalog, routes []RouteConfig) error {
	for _, rc := range routes {
		name := rc.Name
		if rc.Default != nil {
			err := applyBinding(set, cat, *rc.Default, func(t *resolve.Table[[]any], r resolve.Resolver[[]any]) {
				t.SetRouteDefault(name, r)
			}, func(t *resolve.Table[string], r resolve.Resolver[string]) {
				t.SetRouteDefault(name, r)
			})
			if err != nil {
				return fmt.Errorf("route %s default: %w", name, err)
			}
		}
		for _, param := range slices.Sorted(maps.Keys(rc.Params)) {
			err := applyBinding(set, cat, rc.Params[param], func(t *resolve.Table[[]any], r resolve.Resolver[[]any]) {
				t.SetRoute(name, param, r)
			}, func(t *resolve.Table[string], r resolve.Resolver[string]) {
				t.SetRoute(name, param, r)
			})
			if err != nil {
				return fmt.Errorf("route %s param %s: %w", name, param, err)
			}
		}
		if err := routeBindings(set, cat, rc.Children); err != nil {
			return err
		}
	}
	return nil
}

// applyBinding installs the resolvers a binding supplies at one level. put
// and putString place a resolver into a table at that level.
func applyBinding(
	set *resolve.Set,
	cat datasource.Catalog,
	b Binding,
	put func(*resolve.Table[[]any], resolve.Resolver[[]any]),
	putString func(*resolve.Table[string], resolve.Resolver[string]),
) error {
	if b.enumerates() {
		r, err := b.entriesResolver(cat)
		if err != nil {
			return err
		}
		put(&set.Entries, r)
	}
	if b.serializes() {
		field, slug := b.Segment, b.Slug
		putString(&set.PathSegment, resolve.Func[string](func(req resolve.Request) (string, error) {
			return datasource.Segment(req.Entry, field, slug)
		}))
	}
	if name := b.localName(); name != "" {
		putString(&set.LocalName, resolve.Static[string]{Value: name})
	}
	return nil
}

func (b Binding) localName() string {
	if b.As != "" {
		return b.As
	}
	return b.Data
}

// entriesResolver enumerates the binding's collection, filtered by Where
// against segments already bound in the request locals.
func (b Binding) entriesResolver(cat datasource.Catalog) (resolve.Resolver[[]any], error) {
	col := datasource.NewCollection("values", b.Values)
	if b.Data != "" {
		var err error
		if col, err = cat.Get(b.Data); err != nil {
			return nil, err
		}
	}
	where := maps.Clone(b.Where)
	if len(where) == 0 {
		return resolve.Func[[]any](func(resolve.Request) ([]any, error) {
			return col.Entries(), nil
		}), nil
	}
	return resolve.Func[[]any](func(req resolve.Request) ([]any, error) {
		match := make(map[string]string, len(where))
		for field, param := range where {
			v, ok := req.Locals.Get(param)
			if !ok {
				return nil, fmt.Errorf("where %s: %q is not bound", field, param)
			}
			match[field] = datasource.Scalar(v)
		}
		return col.Where(match), nil
	}), nil
}
