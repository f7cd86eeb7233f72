// Package config loads pagegen.yaml: the route tree, the data bindings that
// expand dynamic segments, and the output, ledger and template settings.
package config

import (
	"path/filepath"

	"git.home.luguber.info/inful/pagegen/internal/route"
)

// DefaultFileName is the configuration file looked up when none is given.
const DefaultFileName = "pagegen.yaml"

// Config represents the site configuration.
type Config struct {
	Output    OutputConfig       `yaml:"output"`
	Build     BuildConfig        `yaml:"build"`
	Ledger    LedgerConfig       `yaml:"ledger"`
	Templates TemplatesConfig    `yaml:"templates"`
	Logging   LoggingConfig      `yaml:"logging,omitempty"`
	Locals    map[string]any     `yaml:"locals,omitempty"`
	Data      map[string]string  `yaml:"data,omitempty"`     // collection name -> file
	Params    map[string]Binding `yaml:"params,omitempty"`   // param-level bindings
	Defaults  *Binding           `yaml:"defaults,omitempty"` // global binding
	Routes    []RouteConfig      `yaml:"routes"`
	Metrics   MetricsConfig      `yaml:"metrics,omitempty"`
	Watch     WatchConfig        `yaml:"watch,omitempty"`

	// baseDir is the directory relative paths resolve against.
	baseDir string
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Wipe the output tree before writing
}

// BuildConfig tunes the write phase.
type BuildConfig struct {
	MaxInFlight int  `yaml:"max_in_flight,omitempty"` // Concurrent page writes
	LinkCheck   bool `yaml:"link_check,omitempty"`    // Warn about internal links to missing pages
}

// LedgerConfig selects where page digests persist between builds.
type LedgerConfig struct {
	Backend  LedgerBackend `yaml:"backend,omitempty"`
	Path     string        `yaml:"path,omitempty"`
	Disabled bool          `yaml:"disabled,omitempty"`
}

// TemplatesConfig maps handler components to template files.
type TemplatesConfig struct {
	Dir     string            `yaml:"dir,omitempty"`
	Default string            `yaml:"default,omitempty"`
	Map     map[string]string `yaml:"map,omitempty"`
	Engine  TemplateEngine    `yaml:"engine,omitempty"`
}

// LoggingConfig is used when no log flags are passed on the command line.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MetricsConfig represents metrics export configuration
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"` // Prometheus textfile written after each build
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Paths    []string `yaml:"paths,omitempty"`
	Interval string   `yaml:"interval,omitempty"` // Periodic rebuild, e.g. "10m"; empty disables
	Debounce string   `yaml:"debounce,omitempty"` // Quiet period before a change triggers a build
}

// Binding tells the expander how to enumerate and serialize one dynamic
// segment. A binding may set only some fields; lookups fall back from
// route+param to route default, then param, then the global default.
type Binding struct {
	Data    string            `yaml:"data,omitempty"`    // Collection name
	Values  []any             `yaml:"values,omitempty"`  // Inline entries
	Where   map[string]string `yaml:"where,omitempty"`   // Entry field -> param whose segment it must equal
	As      string            `yaml:"as,omitempty"`      // Locals key the entry is bound under
	Segment string            `yaml:"segment,omitempty"` // Entry field serialized into the path
	Slug    bool              `yaml:"slug,omitempty"`    // Slugify the serialized field
}

// enumerates reports whether the binding supplies entries.
func (b Binding) enumerates() bool { return b.Data != "" || b.Values != nil }

// serializes reports whether the binding supplies a path segment.
func (b Binding) serializes() bool { return b.Segment != "" || b.Slug }

// RouteConfig is one node of the configured route tree.
type RouteConfig struct {
	Name     string             `yaml:"name"`
	Pattern  string             `yaml:"pattern"`
	Handler  string             `yaml:"handler,omitempty"`
	Redirect *route.Target      `yaml:"redirect,omitempty"`
	Params   map[string]Binding `yaml:"params,omitempty"`
	Default  *Binding           `yaml:"default,omitempty"`
	Children []RouteConfig      `yaml:"children,omitempty"`
}

// BaseDir returns the directory relative paths resolve against.
func (c *Config) BaseDir() string { return c.baseDir }

// Path resolves p against the configuration directory.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// OutputDir returns the resolved output directory.
func (c *Config) OutputDir() string { return c.Path(c.Output.Directory) }

// LedgerPath returns the resolved ledger location.
func (c *Config) LedgerPath() string { return c.Path(c.Ledger.Path) }

// TemplatePath resolves a template file against templates.dir.
func (c *Config) TemplatePath(file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.Path(c.Templates.Dir), file)
}

// TemplateMap returns component -> resolved template path.
func (c *Config) TemplateMap() map[string]string {
	out := make(map[string]string, len(c.Templates.Map))
	for component, file := range c.Templates.Map {
		out[component] = c.TemplatePath(file)
	}
	return out
}

// DataFiles returns collection -> resolved file path.
func (c *Config) DataFiles() map[string]string {
	out := make(map[string]string, len(c.Data))
	for name, file := range c.Data {
		out[name] = c.Path(file)
	}
	return out
}

// WatchPaths returns the resolved paths the watch command observes.
func (c *Config) WatchPaths() []string {
	out := make([]string, 0, len(c.Watch.Paths))
	for _, p := range c.Watch.Paths {
		out = append(out, c.Path(p))
	}
	return out
}
