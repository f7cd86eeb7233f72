package route

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRoute is returned by CompileLink for a name no route carries.
var ErrUnknownRoute = errors.New("unknown route")

// PatternRouter is the default Router. Patterns are "/"-separated segments
// where ":name" is a parameter and ":name?" an optional one. Child patterns
// that do not start with "/" are relative to their parent's full pattern.
type PatternRouter struct {
	roots  []*node
	byName map[string]*node
}

type node struct {
	def      *Definition
	parent   *node
	tokens   []Token // full pattern, root first
	children []*node
}

// NewPatternRouter indexes a route forest. Route names must be unique;
// unnamed routes are kept for matching but cannot be linked to.
func NewPatternRouter(routes []*Definition) (*PatternRouter, error) {
	r := &PatternRouter{byName: make(map[string]*node)}
	for _, def := range routes {
		n, err := r.index(def, nil)
		if err != nil {
			return nil, err
		}
		r.roots = append(r.roots, n)
	}
	return r, nil
}

func (r *PatternRouter) index(def *Definition, parent *node) (*node, error) {
	own, err := r.ParsePattern(def.Pattern)
	if err != nil {
		return nil, fmt.Errorf("route %q: %w", def.Name, err)
	}
	var full []Token
	if parent != nil && !strings.HasPrefix(def.Pattern, "/") {
		full = append(full, parent.tokens...)
	}
	full = append(full, own...)

	n := &node{def: def, parent: parent, tokens: full}
	if def.Name != "" {
		if _, dup := r.byName[def.Name]; dup {
			return nil, fmt.Errorf("duplicate route name %q", def.Name)
		}
		r.byName[def.Name] = n
	}
	for _, child := range def.Children {
		c, err := r.index(child, n)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, c)
	}
	return n, nil
}

// ParsePattern implements Router.
func (r *PatternRouter) ParsePattern(pattern string) ([]Token, error) {
	var tokens []Token
	for _, seg := range strings.Split(pattern, "/") {
		if seg == "" {
			continue
		}
		if !strings.HasPrefix(seg, ":") {
			tokens = append(tokens, Token{Literal: seg})
			continue
		}
		name := strings.TrimPrefix(seg, ":")
		optional := strings.HasSuffix(name, "?")
		name = strings.TrimSuffix(name, "?")
		if name == "" {
			return nil, fmt.Errorf("no token name in path param %q", seg)
		}
		tokens = append(tokens, Token{Name: name, Optional: optional})
	}
	return tokens, nil
}

// CompileLink implements Router.
func (r *PatternRouter) CompileLink(name string, params Params) (string, error) {
	n, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownRoute, name)
	}
	segs := make([]string, 0, len(n.tokens))
	for _, tok := range n.tokens {
		if !tok.IsParam() {
			segs = append(segs, tok.Literal)
			continue
		}
		v := params[tok.Name]
		if v == "" {
			if tok.Optional {
				continue
			}
			return "", fmt.Errorf("route %q: missing required param %q", name, tok.Name)
		}
		segs = append(segs, v)
	}
	return "/" + strings.Join(segs, "/"), nil
}

// Match implements Router. More specific (child) routes are preferred over
// their parent; siblings are tried in declaration order.
func (r *PatternRouter) Match(path string) ([]Match, bool) {
	segs := splitPath(path)
	for _, root := range r.roots {
		if chain, ok := matchNode(root, segs); ok {
			return chain, true
		}
	}
	return nil, false
}

func matchNode(n *node, segs []string) ([]Match, bool) {
	for _, c := range n.children {
		if chain, ok := matchNode(c, segs); ok {
			return chain, true
		}
	}
	params, ok := matchTokens(n.tokens, segs, Params{})
	if !ok {
		return nil, false
	}
	var chain []Match
	for cur := n; cur != nil; cur = cur.parent {
		own := Params{}
		for _, tok := range cur.tokens {
			if v, ok := params[tok.Name]; tok.IsParam() && ok {
				own[tok.Name] = v
			}
		}
		chain = append([]Match{{Route: cur.def, Params: own}}, chain...)
	}
	return chain, true
}

func matchTokens(tokens []Token, segs []string, acc Params) (Params, bool) {
	if len(tokens) == 0 {
		return acc, len(segs) == 0
	}
	tok := tokens[0]
	if tok.IsParam() && tok.Optional {
		if len(segs) > 0 {
			if p, ok := matchTokens(tokens[1:], segs[1:], acc.With(tok.Name, segs[0])); ok {
				return p, true
			}
		}
		return matchTokens(tokens[1:], segs, acc)
	}
	if len(segs) == 0 {
		return nil, false
	}
	if tok.IsParam() {
		return matchTokens(tokens[1:], segs[1:], acc.With(tok.Name, segs[0]))
	}
	if tok.Literal != segs[0] {
		return nil, false
	}
	return matchTokens(tokens[1:], segs[1:], acc)
}

func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
