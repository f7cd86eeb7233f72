package validation

import (
	"testing"

	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/route"
)

type mockRule struct {
	name       string
	shouldPass bool
	calls      int
}

func (m *mockRule) Name() string { return m.name }

func (m *mockRule) Validate(Context) Result {
	m.calls++
	if m.shouldPass {
		return Success()
	}
	return Failure(pgerrors.ValidationError(m.name + " failed"))
}

func TestRuleChain(t *testing.T) {
	t.Run("all rules pass", func(t *testing.T) {
		a, b := &mockRule{name: "a", shouldPass: true}, &mockRule{name: "b", shouldPass: true}
		if result := NewRuleChain(a, b).Validate(Context{}); !result.Passed {
			t.Fatalf("expected chain to pass, got %v", result.Err)
		}
		if a.calls != 1 || b.calls != 1 {
			t.Fatalf("expected each rule to run once, got %d and %d", a.calls, b.calls)
		}
	})

	t.Run("stops at first failure", func(t *testing.T) {
		fail, after := &mockRule{name: "fail"}, &mockRule{name: "after", shouldPass: true}
		result := NewRuleChain(fail, after).Validate(Context{})
		if result.Passed {
			t.Fatal("expected chain to fail")
		}
		if after.calls != 0 {
			t.Fatal("rules after a failure must not run")
		}
	})
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name     string
		routes   []*route.Definition
		category pgerrors.ErrorCategory
	}{
		{
			name: "valid tree",
			routes: []*route.Definition{
				{Name: "home", Pattern: "/"},
				{Name: "post", Pattern: "/posts/:slug", Children: []*route.Definition{
					{Name: "comments", Pattern: "comments/:page?"},
				}},
			},
		},
		{
			name:     "missing name",
			routes:   []*route.Definition{{Pattern: "/about"}},
			category: pgerrors.CategoryConfig,
		},
		{
			name: "missing child name",
			routes: []*route.Definition{
				{Name: "post", Pattern: "/posts/:slug", Children: []*route.Definition{{Pattern: "edit"}}},
			},
			category: pgerrors.CategoryConfig,
		},
		{
			name: "duplicate names",
			routes: []*route.Definition{
				{Name: "page", Pattern: "/a"},
				{Name: "page", Pattern: "/b"},
			},
			category: pgerrors.CategoryValidation,
		},
		{
			name:     "unnamed param",
			routes:   []*route.Definition{{Name: "bad", Pattern: "/x/:"}},
			category: pgerrors.CategoryValidation,
		},
		{
			name: "param bound twice along ancestry",
			routes: []*route.Definition{
				{Name: "post", Pattern: "/posts/:slug", Children: []*route.Definition{
					{Name: "again", Pattern: "more/:slug"},
				}},
			},
			category: pgerrors.CategoryValidation,
		},
		{
			name: "absolute child may reuse a param name",
			routes: []*route.Definition{
				{Name: "post", Pattern: "/posts/:slug", Children: []*route.Definition{
					{Name: "alias", Pattern: "/p/:slug"},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Routes(tt.routes)
			if tt.category == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := pgerrors.GetCategory(err); got != tt.category {
				t.Fatalf("category = %q, want %q (err: %v)", got, tt.category, err)
			}
		})
	}
}
