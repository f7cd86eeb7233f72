package templates

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/storage"
)

func TestHTMLEngineRender(t *testing.T) {
	render, err := HTMLEngine{}.Compile(`<h1>{{ .title }}</h1>{{ json .tags }}`, CompileOptions{FilePath: "post.html"})
	require.NoError(t, err)

	out, err := render(map[string]any{"title": "<Hello>", "tags": []string{"a"}})
	require.NoError(t, err)
	require.Contains(t, out, "<h1>&lt;Hello&gt;</h1>")
}

func TestMarkdownEngineRender(t *testing.T) {
	render, err := MarkdownEngine{}.Compile("# {{ .title }}\n\n{{ .body }}\n", CompileOptions{FilePath: "post.md"})
	require.NoError(t, err)

	out, err := render(map[string]any{"title": "Hello", "body": "Some **bold** text"})
	require.NoError(t, err)
	require.Contains(t, out, `<h1 id="hello">Hello</h1>`)
	require.Contains(t, out, "<strong>bold</strong>")
}

func TestExtEngineDispatch(t *testing.T) {
	e := DefaultEngine()

	render, err := e.Compile("*{{ .x }}*", CompileOptions{FilePath: "a.md"})
	require.NoError(t, err)
	out, err := render(map[string]any{"x": "y"})
	require.NoError(t, err)
	require.Contains(t, out, "<em>y</em>")

	render, err = e.Compile("*{{ .x }}*", CompileOptions{FilePath: "a.html"})
	require.NoError(t, err)
	out, err = render(map[string]any{"x": "y"})
	require.NoError(t, err)
	require.Equal(t, "*y*", out)
}

func TestCacheCompilesOnce(t *testing.T) {
	fsys := storage.NewMemFS()
	fsys.Put("/tpl/page.html", []byte("v1 {{ .x }}"))
	cache := NewCache(nil, fsys, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Load("/tpl/page.html")
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, fsys.Calls().ReadFile)

	first, err := cache.Load("/tpl/page.html")
	require.NoError(t, err)

	// Source edits are invisible until Clear.
	fsys.Put("/tpl/page.html", []byte("v2 {{ .x }}"))
	same, err := cache.Load("/tpl/page.html")
	require.NoError(t, err)
	require.Equal(t, first.Digest, same.Digest)

	cache.Clear()
	require.Equal(t, 0, cache.Len())
	fresh, err := cache.Load("/tpl/page.html")
	require.NoError(t, err)
	require.NotEqual(t, first.Digest, fresh.Digest)
}

func TestCacheMissingTemplate(t *testing.T) {
	cache := NewCache(nil, storage.NewMemFS(), nil)
	_, err := cache.Load("/tpl/missing.html")
	require.Error(t, err)
	require.True(t, pgerrors.IsCategory(err, pgerrors.CategoryTemplate))
}
