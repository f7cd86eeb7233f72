// Package route defines the route tree consumed by the page engine and the
// Router capability that parses patterns, compiles links and matches paths.
package route

import (
	"context"
	"fmt"
	"maps"
)

// Params maps a parameter name to its path segment. An omitted optional
// parameter is absent from the map.
type Params map[string]string

// Clone returns a copy of p (never nil).
func (p Params) Clone() Params {
	c := make(Params, len(p))
	maps.Copy(c, p)
	return c
}

// With returns a copy of p with name set to segment, or with name removed
// when segment is empty.
func (p Params) With(name, segment string) Params {
	c := p.Clone()
	if segment == "" {
		delete(c, name)
	} else {
		c[name] = segment
	}
	return c
}

// Token is one element of a parsed pattern: a literal segment or a named
// parameter. A token is a parameter iff Name is set.
type Token struct {
	Literal  string
	Name     string
	Optional bool
}

// IsParam reports whether t is a dynamic segment.
func (t Token) IsParam() bool { return t.Name != "" }

func (t Token) String() string {
	if !t.IsParam() {
		return t.Literal
	}
	if t.Optional {
		return ":" + t.Name + "?"
	}
	return ":" + t.Name
}

// Definition is one node of the route tree. A route tree is an ordered,
// acyclic forest owned by the caller and read-only during a build.
type Definition struct {
	Name     string
	Pattern  string
	Children []*Definition

	// Handler resolves the component rendered for this route. Nil means the
	// default template.
	Handler Handler

	// Redirect, when set, sends the page through redirect negotiation.
	Redirect RedirectSource
}

// Target is where a redirect points: either a literal Path or a route
// reference by Name with Params.
type Target struct {
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Params Params `yaml:"params,omitempty" json:"params,omitempty"`
}

func (t Target) String() string {
	if t.Name != "" {
		return fmt.Sprintf("%s%v", t.Name, map[string]string(t.Params))
	}
	return t.Path
}

// Redirect is the descriptor a handler fails with to negotiate a redirect.
type Redirect struct {
	To Target
}

func (r *Redirect) Error() string { return "redirect to " + r.To.String() }

// Handler resolves a component name from the bound params. Implementations
// may return a *Redirect error.
type Handler interface {
	Component(ctx context.Context, params Params) (string, error)
}

// StaticHandler is a fixed component name.
type StaticHandler string

func (h StaticHandler) Component(context.Context, Params) (string, error) { return string(h), nil }

// HandlerFunc computes the component name from params.
type HandlerFunc func(ctx context.Context, params Params) (string, error)

func (f HandlerFunc) Component(ctx context.Context, params Params) (string, error) {
	return f(ctx, params)
}

// RedirectSource resolves the redirect target of a route.
type RedirectSource interface {
	Target(ctx context.Context, params Params) (Target, error)
}

// StaticRedirect is a fixed redirect target.
type StaticRedirect Target

func (r StaticRedirect) Target(context.Context, Params) (Target, error) { return Target(r), nil }

// RedirectFunc computes the redirect target from params.
type RedirectFunc func(ctx context.Context, params Params) (Target, error)

func (f RedirectFunc) Target(ctx context.Context, params Params) (Target, error) {
	return f(ctx, params)
}

// Match is one link of a matched chain: the route and the params it binds.
type Match struct {
	Route  *Definition
	Params Params
}

// Router is the routing capability the engine consumes.
type Router interface {
	// ParsePattern splits a route's own pattern into ordered tokens.
	ParsePattern(pattern string) ([]Token, error)
	// CompileLink builds the concrete path of a named route. It fails when
	// name is unknown or a required parameter is missing.
	CompileLink(name string, params Params) (string, error)
	// Match returns the chain of routes, root first, that path satisfies.
	Match(path string) ([]Match, bool)
}
