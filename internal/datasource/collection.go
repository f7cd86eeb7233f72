// Package datasource loads the data collections a site configuration binds
// to dynamic route segments.
//
// A collection is a YAML or JSON file holding a list of entries. Entries are
// usually mappings; scalars are allowed and serialize as themselves.
package datasource

import (
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/logfields"
	"git.home.luguber.info/inful/pagegen/internal/storage"
)

// Collection is a named, ordered list of entries.
type Collection struct {
	Name    string
	Path    string
	entries []any
}

// NewCollection wraps entries already in memory.
func NewCollection(name string, entries []any) *Collection {
	return &Collection{Name: name, entries: slices.Clone(entries)}
}

// Len returns the number of entries.
func (c *Collection) Len() int { return len(c.entries) }

// Entries returns the entries in file order. The slice is never nil so an
// empty collection still counts as a resolved (empty) result.
func (c *Collection) Entries() []any {
	out := make([]any, len(c.entries))
	copy(out, c.entries)
	return out
}

// Where returns the entries whose fields equal every value in match.
// Values are compared by their string form.
func (c *Collection) Where(match map[string]string) []any {
	if len(match) == 0 {
		return c.Entries()
	}
	out := make([]any, 0, len(c.entries))
	for _, e := range c.entries {
		if matches(e, match) {
			out = append(out, e)
		}
	}
	return out
}

func matches(entry any, match map[string]string) bool {
	for field, want := range match {
		v, ok := Lookup(entry, field)
		if !ok || Scalar(v) != want {
			return false
		}
	}
	return true
}

// Load reads a collection file. The format is chosen by extension; YAML
// parsing also accepts JSON.
func Load(fsys storage.FS, name, path string) (*Collection, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, pgerrors.ConfigurationError(
			fmt.Sprintf("data collection %q: unsupported file type %q", name, filepath.Ext(path)))
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, pgerrors.Wrap(err, pgerrors.CategoryConfig, pgerrors.SeverityFatal, "failed to read data collection").
			WithContext("collection", name).
			WithContext("path", path)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, pgerrors.Wrap(err, pgerrors.CategoryConfig, pgerrors.SeverityFatal, "failed to parse data collection").
			WithContext("collection", name).
			WithContext("path", path)
	}

	var entries []any
	switch v := raw.(type) {
	case nil:
		entries = []any{}
	case []any:
		entries = v
	default:
		return nil, pgerrors.ConfigurationError(
			fmt.Sprintf("data collection %q: top level must be a list, got %T", name, raw))
	}

	slog.Debug("Loaded data collection",
		logfields.Collection(name),
		logfields.Path(path),
		slog.Int("entries", len(entries)))
	return &Collection{Name: name, Path: path, entries: entries}, nil
}

// Catalog holds the collections of a site by name.
type Catalog map[string]*Collection

// LoadCatalog loads every collection in files (name to path).
func LoadCatalog(fsys storage.FS, files map[string]string) (Catalog, error) {
	cat := make(Catalog, len(files))
	for _, name := range slices.Sorted(maps.Keys(files)) {
		c, err := Load(fsys, name, files[name])
		if err != nil {
			return nil, err
		}
		cat[name] = c
	}
	return cat, nil
}

// Get returns the named collection.
func (c Catalog) Get(name string) (*Collection, error) {
	col, ok := c[name]
	if !ok {
		return nil, pgerrors.ConfigurationError(fmt.Sprintf("unknown data collection %q", name))
	}
	return col, nil
}

// Names returns the collection names in sorted order.
func (c Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c))
}
