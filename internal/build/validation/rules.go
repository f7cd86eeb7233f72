package validation

import (
	"fmt"
	"strings"

	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/route"
)

// NamedRoutesRule requires every route to carry a name, since pages are
// addressed by route name when their URLs are compiled.
type NamedRoutesRule struct{}

func (r NamedRoutesRule) Name() string { return "named_routes" }

func (r NamedRoutesRule) Validate(vctx Context) Result {
	err := walk(vctx.Routes, func(def, _ *route.Definition) error {
		if def == nil {
			return pgerrors.ValidationError("route tree contains a nil route")
		}
		if strings.TrimSpace(def.Name) == "" {
			return pgerrors.MissingRouteName(def.Pattern)
		}
		return nil
	})
	if err != nil {
		return Failure(err)
	}
	return Success()
}

// UniqueNamesRule rejects two routes sharing a name.
type UniqueNamesRule struct{}

func (r UniqueNamesRule) Name() string { return "unique_names" }

func (r UniqueNamesRule) Validate(vctx Context) Result {
	seen := make(map[string]string)
	err := walk(vctx.Routes, func(def, _ *route.Definition) error {
		if prev, dup := seen[def.Name]; dup {
			return pgerrors.ValidationFailed("routes", fmt.Sprintf("duplicate route name %q", def.Name)).
				WithContext("pattern", def.Pattern).
				WithContext("previous_pattern", prev)
		}
		seen[def.Name] = def.Pattern
		return nil
	})
	if err != nil {
		return Failure(err)
	}
	return Success()
}

// PatternRule checks that every parameter segment is named and that a
// parameter name is bound at most once along a route's ancestry.
type PatternRule struct{}

func (r PatternRule) Name() string { return "pattern" }

func (r PatternRule) Validate(vctx Context) Result {
	var check func(def *route.Definition, inherited map[string]bool) error
	check = func(def *route.Definition, inherited map[string]bool) error {
		own := make(map[string]bool, len(inherited))
		if !strings.HasPrefix(def.Pattern, "/") {
			for k := range inherited {
				own[k] = true
			}
		}
		for _, seg := range strings.Split(def.Pattern, "/") {
			if !strings.HasPrefix(seg, ":") {
				continue
			}
			name := strings.TrimSuffix(strings.TrimPrefix(seg, ":"), "?")
			if name == "" {
				return pgerrors.ValidationFailed("pattern", fmt.Sprintf("no token name in path param %q", seg)).
					WithContext("route", def.Name)
			}
			if own[name] {
				return pgerrors.ValidationFailed("pattern", fmt.Sprintf("param %q bound twice", name)).
					WithContext("route", def.Name)
			}
			own[name] = true
		}
		for _, c := range def.Children {
			if err := check(c, own); err != nil {
				return err
			}
		}
		return nil
	}
	for _, def := range vctx.Routes {
		if err := check(def, nil); err != nil {
			return Failure(err)
		}
	}
	return Success()
}
