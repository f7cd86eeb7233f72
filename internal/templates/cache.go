package templates

import (
	"sync"

	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/incremental"
	"git.home.luguber.info/inful/pagegen/internal/storage"
)

// Compiled is a template ready to render, with the digest of its source.
type Compiled struct {
	Path   string
	Digest string
	Render RenderFunc
}

type cacheEntry struct {
	once     sync.Once
	compiled *Compiled
	err      error
}

// Cache compiles each template file once for its lifetime. Concurrent loads
// of the same path share one read and compile. Clear drops everything, which
// is how watch mode picks up edited templates.
type Cache struct {
	engine  Engine
	fs      storage.FS
	options map[string]any

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewCache returns an empty cache reading through fsys.
func NewCache(engine Engine, fsys storage.FS, options map[string]any) *Cache {
	if engine == nil {
		engine = DefaultEngine()
	}
	if fsys == nil {
		fsys = storage.NewOSFS()
	}
	return &Cache{
		engine:  engine,
		fs:      fsys,
		options: options,
		entries: make(map[string]*cacheEntry),
	}
}

// Load returns the compiled template at path.
func (c *Cache) Load(path string) (*Compiled, error) {
	c.mu.Lock()
	entry, ok := c.entries[path]
	if !ok {
		entry = &cacheEntry{}
		c.entries[path] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.compiled, entry.err = c.compile(path)
	})
	return entry.compiled, entry.err
}

func (c *Cache) compile(path string) (*Compiled, error) {
	source, err := c.fs.ReadFile(path)
	if err != nil {
		return nil, pgerrors.TemplateFailed(path, err)
	}
	render, err := c.engine.Compile(string(source), CompileOptions{FilePath: path, Options: c.options})
	if err != nil {
		return nil, pgerrors.TemplateFailed(path, err)
	}
	return &Compiled{
		Path:   path,
		Digest: incremental.SourceDigest(source),
		Render: render,
	}, nil
}

// Clear drops every compiled template.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
