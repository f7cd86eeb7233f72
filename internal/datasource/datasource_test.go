package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/storage"
)

func TestLoadYAMLAndJSON(t *testing.T) {
	fs := storage.NewMemFS()
	fs.Put("/data/posts.yaml", []byte(`
- slug: hello
  title: Hello
  author: {name: Ann}
- slug: bye
  title: Bye
`))
	fs.Put("/data/tags.json", []byte(`["go", "web"]`))
	fs.Put("/data/empty.yml", []byte(``))

	cat, err := LoadCatalog(fs, map[string]string{
		"posts": "/data/posts.yaml",
		"tags":  "/data/tags.json",
		"empty": "/data/empty.yml",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"empty", "posts", "tags"}, cat.Names())

	posts, err := cat.Get("posts")
	require.NoError(t, err)
	require.Equal(t, 2, posts.Len())
	name, ok := Lookup(posts.Entries()[0], "author.name")
	require.True(t, ok)
	assert.Equal(t, "Ann", name)

	tags, _ := cat.Get("tags")
	assert.Equal(t, []any{"go", "web"}, tags.Entries())

	empty, _ := cat.Get("empty")
	assert.NotNil(t, empty.Entries())
	assert.Empty(t, empty.Entries())

	_, err = cat.Get("missing")
	assert.True(t, pgerrors.IsCategory(err, pgerrors.CategoryConfig))
}

func TestLoadRejectsBadInput(t *testing.T) {
	fs := storage.NewMemFS()
	fs.Put("/data/map.yaml", []byte("a: 1\n"))
	fs.Put("/data/bad.yaml", []byte("- [\n"))
	fs.Put("/data/posts.toml", []byte(""))

	tests := []struct {
		name string
		path string
	}{
		{"top level mapping", "/data/map.yaml"},
		{"malformed", "/data/bad.yaml"},
		{"unsupported extension", "/data/posts.toml"},
		{"missing file", "/data/none.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(fs, "c", tt.path)
			require.Error(t, err)
			assert.True(t, pgerrors.IsCategory(err, pgerrors.CategoryConfig), "got %v", err)
		})
	}
}

func TestWhere(t *testing.T) {
	c := NewCollection("comments", []any{
		map[string]any{"post": "a", "id": 1},
		map[string]any{"post": "b", "id": 2},
		map[string]any{"post": "a", "id": 3},
	})

	got := c.Where(map[string]string{"post": "a"})
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[1].(map[string]any)["id"])

	assert.Len(t, c.Where(nil), 3)
	assert.Empty(t, c.Where(map[string]string{"id": "9"}))
	assert.Len(t, c.Where(map[string]string{"id": "2"}), 1)
}

func TestSegment(t *testing.T) {
	entry := map[string]any{"title": "Héllo, Wörld!", "n": 7, "nested": map[string]any{"k": "v"}, "none": nil}

	s, err := Segment(entry, "title", true)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", s)

	s, err = Segment(entry, "n", false)
	require.NoError(t, err)
	assert.Equal(t, "7", s)

	s, err = Segment(entry, "none", false)
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = Segment(entry, "absent", false)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = Segment(entry, "nested", false)
	assert.Error(t, err)

	s, err = Segment("Plain Entry", "", true)
	require.NoError(t, err)
	assert.Equal(t, "plain-entry", s)
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello World", "hello-world"},
		{"  leading & trailing ", "leading-trailing"},
		{"Crème Brûlée", "creme-brulee"},
		{"go1.24 release", "go1-24-release"},
		{"---", ""},
		{"ÅNGSTRÖM", "angstrom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}

func TestLookupIndexes(t *testing.T) {
	entry := map[string]any{"tags": []any{"x", "y"}}
	v, ok := Lookup(entry, "tags.1")
	require.True(t, ok)
	assert.Equal(t, "y", v)

	_, ok = Lookup(entry, "tags.5")
	assert.False(t, ok)
	_, ok = Lookup(entry, "tags.1.deeper")
	assert.False(t, ok)
}
