package config

import (
	"log/slog"
	"path/filepath"
	"runtime"
)

// Default values applied when the configuration leaves a field unset.
const (
	DefaultOutputDir     = "./site"
	DefaultTemplatesDir  = "templates"
	DefaultTemplate      = "default.html"
	DefaultLedgerDir     = ".pagegen"
	DefaultWatchDebounce = "300ms"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// OutputDefaultApplier handles Output configuration defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	return nil
}

// BuildDefaultApplier handles Build configuration defaults.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.MaxInFlight <= 0 {
		cfg.Build.MaxInFlight = max(4, runtime.NumCPU()*2)
	}
	return nil
}

// LedgerDefaultApplier handles Ledger configuration defaults. The ledger lives
// next to the configuration, never inside the output tree that clean wipes.
type LedgerDefaultApplier struct{}

func (l *LedgerDefaultApplier) Domain() string { return "ledger" }

func (l *LedgerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = LedgerJSON
	}
	if cfg.Ledger.Path == "" {
		file := "ledger.json"
		if cfg.Ledger.Backend == LedgerSQLite {
			file = "ledger.db"
		}
		cfg.Ledger.Path = filepath.Join(DefaultLedgerDir, file)
	}
	return nil
}

// TemplatesDefaultApplier handles Templates configuration defaults.
type TemplatesDefaultApplier struct{}

func (t *TemplatesDefaultApplier) Domain() string { return "templates" }

func (t *TemplatesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Templates.Dir == "" {
		cfg.Templates.Dir = DefaultTemplatesDir
	}
	if cfg.Templates.Default == "" {
		cfg.Templates.Default = DefaultTemplate
	}
	if cfg.Templates.Engine == "" {
		cfg.Templates.Engine = EngineAuto
	}
	return nil
}

// WatchDefaultApplier handles Watch configuration defaults.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	if len(cfg.Watch.Paths) == 0 {
		cfg.Watch.Paths = []string{cfg.Templates.Dir}
		for _, name := range cfg.dataNames() {
			cfg.Watch.Paths = append(cfg.Watch.Paths, cfg.Data[name])
		}
	}
	return nil
}

// LoggingDefaultApplier handles Logging configuration defaults.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

// defaultApplier runs every domain applier in order.
type defaultApplier struct {
	appliers []DefaultApplier
}

// newDefaultApplier returns the appliers for every configuration domain.
// Templates run before watch since watch paths default to the templates dir.
func newDefaultApplier() *defaultApplier {
	return &defaultApplier{appliers: []DefaultApplier{
		&OutputDefaultApplier{},
		&BuildDefaultApplier{},
		&LedgerDefaultApplier{},
		&TemplatesDefaultApplier{},
		&WatchDefaultApplier{},
		&LoggingDefaultApplier{},
	}}
}

func (d *defaultApplier) ApplyDefaults(cfg *Config) error {
	for _, a := range d.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			slog.Error("Failed to apply defaults", slog.String("domain", a.Domain()))
			return err
		}
	}
	return nil
}

// applyDefaults applies default values to configuration
func applyDefaults(cfg *Config) error {
	return newDefaultApplier().ApplyDefaults(cfg)
}
