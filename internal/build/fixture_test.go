package build

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagegen/internal/ledger"
	"git.home.luguber.info/inful/pagegen/internal/resolve"
	"git.home.luguber.info/inful/pagegen/internal/route"
	"git.home.luguber.info/inful/pagegen/internal/storage"
)

const (
	outDir     = "/site/out"
	ledgerPath = "/site/.pagegen/ledger.json"
)

// post is the entry type the test resolvers enumerate.
type post struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// postSource is a mutable entry list shared with resolvers.
type postSource struct {
	mu    sync.Mutex
	posts []post
}

func (s *postSource) set(posts ...post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
}

func (s *postSource) entries(resolve.Request) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]any, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	return out, nil
}

func slugOf(req resolve.Request) (string, error) {
	switch e := req.Entry.(type) {
	case post:
		return e.Slug, nil
	case string:
		return e, nil
	default:
		return "", fmt.Errorf("unexpected entry %T", req.Entry)
	}
}

type fixture struct {
	fs    *storage.MemFS
	posts *postSource
	opts  Options
}

// newFixture sets up a home page and a post route bound to three posts.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	fs := storage.NewMemFS()
	fs.Put("/site/templates/default.html", []byte(`<p>{{.routeName}} {{.path}}</p>`))
	fs.Put("/site/templates/post.html", []byte(`<h1>{{.post.Title}}</h1>{{with .redirectTo}}<i>{{.}}</i>{{end}}`))

	posts := &postSource{}
	posts.set(post{"a", "Alpha"}, post{"b", "Bravo"}, post{"c", "Charlie"})

	var set resolve.Set
	set.Entries.SetRoute("post", "slug", resolve.Func[[]any](posts.entries))
	set.LocalName.SetParam("slug", resolve.Static[string]{Value: "post"})
	set.PathSegment.Default = resolve.Func[string](slugOf)

	return &fixture{
		fs:    fs,
		posts: posts,
		opts: Options{
			Routes: []*route.Definition{
				{Name: "home", Pattern: "/"},
				{Name: "post", Pattern: "/posts/:slug", Handler: route.StaticHandler("post")},
			},
			Resolvers:       set,
			TemplateMap:     map[string]string{"post": "/site/templates/post.html"},
			DefaultTemplate: "/site/templates/default.html",
			FS:              fs,
			OutputDir:       outDir,
			MaxInFlight:     4,
			Ledger:          ledger.NewFileStore(fs, ledgerPath),
		},
	}
}

func (f *fixture) engine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(f.opts)
	require.NoError(t, err)
	return e
}

func (f *fixture) read(t *testing.T, urlPath string) string {
	t.Helper()
	data, err := f.fs.ReadFile(outDir + urlPath + "index.html")
	require.NoError(t, err, "page %s", urlPath)
	return string(data)
}

func urlPaths(e *Engine, t *testing.T) []string {
	t.Helper()
	pending, err := e.Plan(t.Context())
	require.NoError(t, err)
	paths := make([]string, 0, len(pending))
	for _, p := range pending {
		paths = append(paths, p.URLPath)
	}
	return paths
}
