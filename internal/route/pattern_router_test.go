package route

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testForest() []*Definition {
	return []*Definition{
		{
			Name:    "home",
			Pattern: "/",
			Children: []*Definition{
				{Name: "post", Pattern: "posts/:slug"},
				{Name: "archive", Pattern: "archive/:year/:page?"},
			},
		},
		{Name: "about", Pattern: "/about"},
	}
}

func TestParsePattern(t *testing.T) {
	r, err := NewPatternRouter(nil)
	require.NoError(t, err)

	tokens, err := r.ParsePattern("/archive/:year/:page?")
	require.NoError(t, err)
	assert.Equal(t, []Token{
		{Literal: "archive"},
		{Name: "year"},
		{Name: "page", Optional: true},
	}, tokens)

	_, err = r.ParsePattern("/x/:")
	assert.Error(t, err)
}

func TestCompileLink(t *testing.T) {
	r, err := NewPatternRouter(testForest())
	require.NoError(t, err)

	cases := []struct {
		name   string
		params Params
		want   string
	}{
		{"home", nil, "/"},
		{"post", Params{"slug": "hello"}, "/posts/hello"},
		{"archive", Params{"year": "2024"}, "/archive/2024"},
		{"archive", Params{"year": "2024", "page": "2"}, "/archive/2024/2"},
		{"about", nil, "/about"},
	}
	for _, c := range cases {
		got, err := r.CompileLink(c.name, c.params)
		require.NoError(t, err, c.name)
		assert.Equal(t, c.want, got)
	}

	_, err = r.CompileLink("post", Params{})
	assert.Error(t, err, "missing required param")

	_, err = r.CompileLink("nope", nil)
	assert.True(t, errors.Is(err, ErrUnknownRoute))
}

func TestDuplicateNamesRejected(t *testing.T) {
	_, err := NewPatternRouter([]*Definition{
		{Name: "a", Pattern: "/a"},
		{Name: "a", Pattern: "/b"},
	})
	assert.Error(t, err)
}

func TestMatchReturnsChain(t *testing.T) {
	r, err := NewPatternRouter(testForest())
	require.NoError(t, err)

	chain, ok := r.Match("/archive/2024/3")
	require.True(t, ok)
	require.Len(t, chain, 2)
	assert.Equal(t, "home", chain[0].Route.Name)
	assert.Equal(t, "archive", chain[1].Route.Name)
	assert.Equal(t, Params{"year": "2024", "page": "3"}, chain[1].Params)

	chain, ok = r.Match("/archive/2024")
	require.True(t, ok)
	assert.Equal(t, Params{"year": "2024"}, chain[1].Params)

	chain, ok = r.Match("/")
	require.True(t, ok)
	require.Len(t, chain, 1)
	assert.Equal(t, "home", chain[0].Route.Name)

	_, ok = r.Match("/missing/page")
	assert.False(t, ok)
}

func TestHandlerVariants(t *testing.T) {
	ctx := context.Background()

	c, err := StaticHandler("PostPage").Component(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "PostPage", c)

	h := HandlerFunc(func(_ context.Context, p Params) (string, error) {
		if p["slug"] == "moved" {
			return "", &Redirect{To: Target{Name: "about"}}
		}
		return "Post", nil
	})
	_, err = h.Component(ctx, Params{"slug": "moved"})
	var rd *Redirect
	require.True(t, errors.As(err, &rd))
	assert.Equal(t, "about", rd.To.Name)
}

func TestParamsWith(t *testing.T) {
	p := Params{"a": "1"}
	q := p.With("b", "2").With("a", "")
	assert.Equal(t, Params{"a": "1"}, p)
	assert.Equal(t, Params{"b": "2"}, q)
}
