package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagegen/internal/build"
	"git.home.luguber.info/inful/pagegen/internal/config"
	"git.home.luguber.info/inful/pagegen/internal/storage"
)

const siteYAML = `
output: {directory: out}
templates:
  map:
    post: post.html
    comment: comment.md
locals: {siteTitle: Blog}
data:
  posts: data/posts.yaml
  comments: data/comments.yaml
params:
  slug: {data: posts, as: post, segment: title, slug: true}
routes:
  - name: home
    pattern: /
  - name: post
    pattern: /posts/:slug
    handler: post
    children:
      - name: comment
        pattern: comments/:id
        handler: comment
        params:
          id: {data: comments, as: comment, where: {post: slug}, segment: id}
  - name: first
    pattern: /first
    redirect: {name: post, params: {slug: hello-world}}
`

func newSite(t *testing.T, opts Options) (*Site, *storage.MemFS) {
	t.Helper()
	fs := storage.NewMemFS()
	fs.Put("/blog/templates/default.html", []byte(`{{.siteTitle}}: {{.path}}`))
	fs.Put("/blog/templates/post.html", []byte(`<h1>{{.post.title}}</h1>`))
	fs.Put("/blog/templates/comment.md", []byte(`*{{.comment.text}}*`))
	fs.Put("/blog/data/posts.yaml", []byte(`
- title: Hello World
- title: Second Post
`))
	fs.Put("/blog/data/comments.yaml", []byte(`
- {post: hello-world, id: 1, text: nice}
- {post: second-post, id: 2, text: meh}
`))

	cfg, err := config.Parse([]byte(siteYAML), "/blog")
	require.NoError(t, err)

	opts.FS = fs
	s, err := Open(cfg, opts)
	require.NoError(t, err)
	return s, fs
}

func read(t *testing.T, fs *storage.MemFS, path string) string {
	t.Helper()
	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuildSiteFromConfig(t *testing.T) {
	s, fs := newSite(t, Options{})

	job, err := s.Engine.BuildSite(t.Context())
	require.NoError(t, err)
	assert.Equal(t, build.StatusSuccess, job.Status)
	assert.Len(t, job.Written, 6)

	assert.Equal(t, "Blog: /", read(t, fs, "/blog/out/index.html"))
	assert.Equal(t, "<h1>Hello World</h1>", read(t, fs, "/blog/out/posts/hello-world/index.html"))
	assert.Equal(t, "<p><em>nice</em></p>\n", read(t, fs, "/blog/out/posts/hello-world/comments/1/index.html"))
	assert.Equal(t, "<p><em>meh</em></p>\n", read(t, fs, "/blog/out/posts/second-post/comments/2/index.html"))
	assert.Equal(t, "<h1></h1>", read(t, fs, "/blog/out/first/index.html"))
	require.Len(t, job.Redirects, 1)
	assert.Equal(t, "/posts/hello-world", job.Redirects[0].To)

	_, err = fs.ReadFile("/blog/.pagegen/ledger.json")
	require.NoError(t, err, "ledger is written next to the configuration")

	again, err := s.Engine.BuildSite(t.Context())
	require.NoError(t, err)
	assert.Empty(t, again.Written)
	assert.Len(t, again.Skipped, 6)
}

func TestNoLedgerOption(t *testing.T) {
	s, fs := newSite(t, Options{NoLedger: true})

	_, err := s.Engine.BuildSite(t.Context())
	require.NoError(t, err)
	_, err = fs.ReadFile("/blog/.pagegen/ledger.json")
	assert.True(t, storage.IsNotFound(err))
}

func TestRenderSinglePage(t *testing.T) {
	s, _ := newSite(t, Options{})

	job, err := s.Engine.BuildRoute(t.Context(), "/posts/second-post/comments/2", build.RouteOptions{SkipHash: true})
	require.NoError(t, err)
	assert.Equal(t, "<p><em>meh</em></p>\n", job.Output)
}

func TestReopenPicksUpChangedTemplate(t *testing.T) {
	s, fs := newSite(t, Options{})
	_, err := s.Engine.BuildSite(t.Context())
	require.NoError(t, err)

	fs.Put("/blog/templates/post.html", []byte(`<h2>{{.post.title}}</h2>`))
	reopened, err := Open(s.Config, Options{FS: fs})
	require.NoError(t, err)

	job, err := reopened.Engine.BuildSite(t.Context())
	require.NoError(t, err)
	assert.Contains(t, job.Written, "/blog/out/posts/hello-world/index.html")
	assert.Equal(t, "<h2>Hello World</h2>", read(t, fs, "/blog/out/posts/hello-world/index.html"))
}

func TestOpenFailsOnMissingData(t *testing.T) {
	cfg, err := config.Parse([]byte(siteYAML), "/blog")
	require.NoError(t, err)

	_, err = Open(cfg, Options{FS: storage.NewMemFS()})
	require.Error(t, err)
}
