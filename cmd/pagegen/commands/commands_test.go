package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSite initializes the example site in a temp directory.
func newSite(t *testing.T) (*CLI, string) {
	t.Helper()
	t.Setenv("SITE_TITLE", "Test Site")
	t.Setenv(envLogLevel, "error")

	dir := t.TempDir()
	cli := &CLI{Config: filepath.Join(dir, "pagegen.yaml")}
	require.NoError(t, RunInit(&Global{Stdout: &bytes.Buffer{}}, cli.Config, false))
	return cli, dir
}

func TestInitRefusesToOverwrite(t *testing.T) {
	cli, _ := newSite(t)

	var out bytes.Buffer
	err := RunInit(&Global{Stdout: &out}, cli.Config, false)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Initialization failed")

	require.NoError(t, RunInit(&Global{Stdout: &out}, cli.Config, true))
}

func TestBuildCommand(t *testing.T) {
	cli, dir := newSite(t)

	var out bytes.Buffer
	require.NoError(t, (&BuildCmd{}).Run(&Global{Stdout: &out}, cli))
	assert.Contains(t, out.String(), "Built 7 pages")
	assert.Contains(t, out.String(), "7 written, 0 unchanged, 1 redirects")

	for _, page := range []string{"index.html", "posts/hello-world/index.html", "tags/index.html", "tags/go/index.html", "latest/index.html"} {
		assert.FileExists(t, filepath.Join(dir, "site", filepath.FromSlash(page)))
	}
	home, err := os.ReadFile(filepath.Join(dir, "site", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(home), "<h1>Test Site</h1>")
	tag, err := os.ReadFile(filepath.Join(dir, "site", "tags", "go", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(tag), "Tagged go")

	out.Reset()
	require.NoError(t, (&BuildCmd{}).Run(&Global{Stdout: &out}, cli))
	assert.Contains(t, out.String(), "0 written, 7 unchanged")
}

func TestBuildCommandOverrides(t *testing.T) {
	cli, dir := newSite(t)
	other := filepath.Join(t.TempDir(), "public")
	textfile := filepath.Join(dir, "pagegen.prom")

	cmd := &BuildCmd{Output: other, NoLedger: true, MetricsTextfile: textfile}
	require.NoError(t, cmd.Run(&Global{Stdout: &bytes.Buffer{}}, cli))

	assert.FileExists(t, filepath.Join(other, "posts", "second", "index.html"))
	assert.NoDirExists(t, filepath.Join(dir, "site"))
	assert.NoFileExists(t, filepath.Join(dir, ".pagegen", "ledger.json"))

	prom, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "pagegen_")
}

func TestRenderCommand(t *testing.T) {
	cli, _ := newSite(t)

	var out bytes.Buffer
	require.NoError(t, (&RenderCmd{Path: "/posts/second", SkipHash: true}).Run(&Global{Stdout: &out}, cli))
	assert.Contains(t, out.String(), "<h1>Second post</h1>")

	require.NoError(t, (&BuildCmd{}).Run(&Global{Stdout: &bytes.Buffer{}}, cli))
	out.Reset()
	require.NoError(t, (&RenderCmd{Path: "/posts/second"}).Run(&Global{Stdout: &out}, cli))
	assert.Empty(t, out.String(), "unchanged pages are not printed")

	err := (&RenderCmd{Path: "/nowhere/at/all"}).Run(&Global{Stdout: &out}, cli)
	require.Error(t, err)
}

func TestRoutesCommandJSON(t *testing.T) {
	cli, dir := newSite(t)

	var out bytes.Buffer
	require.NoError(t, (&RoutesCmd{JSON: true}).Run(&Global{Stdout: &out}, cli))

	var plan routePlan
	require.NoError(t, json.Unmarshal(out.Bytes(), &plan))
	paths := make([]string, 0, len(plan.Pages))
	for _, p := range plan.Pages {
		paths = append(paths, p.Path)
		assert.False(t, p.Unchanged)
	}
	assert.Equal(t, []string{"/", "/latest", "/posts/hello-world", "/posts/second", "/tags", "/tags/go", "/tags/web"}, paths)
	assert.NoDirExists(t, filepath.Join(dir, "site"), "routes writes nothing")
}

func TestRoutesCommandTable(t *testing.T) {
	cli, _ := newSite(t)
	require.NoError(t, (&BuildCmd{}).Run(&Global{Stdout: &bytes.Buffer{}}, cli))

	var out bytes.Buffer
	require.NoError(t, (&RoutesCmd{}).Run(&Global{Stdout: &out}, cli))
	assert.Contains(t, out.String(), "PATH")
	assert.Regexp(t, `/posts/second\s+post\s+0\s+unchanged`, out.String())
}

func TestLogLevelPrecedence(t *testing.T) {
	t.Setenv(envLogLevel, "warn")

	level, explicit := (&CLI{}).logLevel()
	assert.True(t, explicit)
	assert.Equal(t, "warn", string(level))

	level, _ = (&CLI{Verbose: true}).logLevel()
	assert.Equal(t, "debug", string(level))

	t.Setenv(envLogLevel, "")
	_, explicit = (&CLI{}).logLevel()
	assert.False(t, explicit)
}
