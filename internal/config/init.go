package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const exampleConfig = `# pagegen site configuration
output:
  directory: ./site
  clean: false

build:
  max_in_flight: 8
  link_check: true

ledger:
  backend: json            # json | sqlite
  path: .pagegen/ledger.json

templates:
  dir: templates
  default: default.html
  map:
    post: post.html
    tag: tag.md

locals:
  siteTitle: ${SITE_TITLE}

data:
  posts: data/posts.yaml

params:
  slug:
    data: posts
    as: post
    segment: slug

routes:
  - name: home
    pattern: /
  - name: post
    pattern: /posts/:slug
    handler: post
  - name: tag
    pattern: /tags/:tag?
    handler: tag
    params:
      tag:
        values: [go, web]
  - name: latest
    pattern: /latest
    redirect:
      name: post
      params: {slug: hello-world}

watch:
  interval: ""
  debounce: 300ms
`

var exampleFiles = map[string]string{
	".env": "SITE_TITLE=My pagegen site\n",
	"templates/default.html": `<!doctype html>
<title>{{.siteTitle}}</title>
<h1>{{.siteTitle}}</h1>
<ul>
  <li><a href="/posts/hello-world/">Hello world</a></li>
  <li><a href="/tags/">Tags</a></li>
</ul>
`,
	"templates/post.html": `<!doctype html>
<title>{{.post.title}} | {{.siteTitle}}</title>
<article>
  <h1>{{.post.title}}</h1>
  {{.post.body}}
</article>
{{with .redirectTo}}<link rel="canonical" href="{{.}}">{{end}}
`,
	"templates/tag.md": `# {{with .params.tag}}Tagged {{.}}{{else}}All tags{{end}}

Generated at {{.path}}.
`,
	"data/posts.yaml": `- slug: hello-world
  title: Hello, world
  body: First post.
- slug: second
  title: Second post
  body: More words.
`,
}

// Init writes an example site rooted at the directory of configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	dir := filepath.Dir(configPath)
	if err := writeExample(configPath, exampleConfig); err != nil {
		return err
	}
	for rel, content := range exampleFiles {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err == nil && !force {
			continue
		}
		if err := writeExample(p, content); err != nil {
			return err
		}
	}
	return nil
}

func writeExample(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	// #nosec G306 -- example site files are meant to be readable.
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
