// Package validation checks a route tree before a build starts, so that
// configuration errors abort the build before any page is resolved.
package validation

import (
	"log/slog"

	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/route"
)

// Context contains the data validation rules inspect.
type Context struct {
	Routes []*route.Definition
	Logger *slog.Logger
}

// Result indicates whether a rule passed and, if not, the error to report.
type Result struct {
	Passed bool
	Err    error
}

// Success returns a passing result.
func Success() Result {
	return Result{Passed: true}
}

// Failure returns a failing result carrying err.
func Failure(err error) Result {
	return Result{Passed: false, Err: err}
}

// Rule is a single check over a route tree.
type Rule interface {
	// Name returns a short identifier for this rule (for logging/debugging).
	Name() string

	Validate(vctx Context) Result
}

// RuleChain executes rules in sequence, stopping at the first failure.
type RuleChain struct {
	rules []Rule
}

// NewRuleChain creates a new rule chain with the given rules.
func NewRuleChain(rules ...Rule) *RuleChain {
	return &RuleChain{rules: rules}
}

// Validate executes all rules in order, returning the first failure or success if all pass.
func (rc *RuleChain) Validate(vctx Context) Result {
	for _, rule := range rc.rules {
		result := rule.Validate(vctx)
		if !result.Passed {
			if vctx.Logger != nil {
				vctx.Logger.Warn("Route validation failed",
					"rule", rule.Name(),
					"error", result.Err)
			}
			return result
		}
	}
	return Success()
}

// DefaultRules are the checks every build runs.
func DefaultRules() *RuleChain {
	return NewRuleChain(
		NamedRoutesRule{},
		UniqueNamesRule{},
		PatternRule{},
	)
}

// Routes validates a route forest with DefaultRules.
func Routes(routes []*route.Definition) error {
	result := DefaultRules().Validate(Context{Routes: routes, Logger: slog.Default()})
	if result.Passed {
		return nil
	}
	if result.Err == nil {
		return pgerrors.ValidationError("route tree is invalid")
	}
	return result.Err
}

// walk visits every route depth first, parents before children.
func walk(routes []*route.Definition, fn func(r *route.Definition, parent *route.Definition) error) error {
	var visit func(r, parent *route.Definition) error
	visit = func(r, parent *route.Definition) error {
		if err := fn(r, parent); err != nil {
			return err
		}
		for _, c := range r.Children {
			if err := visit(c, r); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range routes {
		if err := visit(r, nil); err != nil {
			return err
		}
	}
	return nil
}
