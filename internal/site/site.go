// Package site assembles a build engine from a loaded configuration: data
// collections, resolver tables, the ledger store and the template cache.
package site

import (
	"log/slog"

	"git.home.luguber.info/inful/pagegen/internal/build"
	"git.home.luguber.info/inful/pagegen/internal/config"
	"git.home.luguber.info/inful/pagegen/internal/datasource"
	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/ledger"
	"git.home.luguber.info/inful/pagegen/internal/logfields"
	"git.home.luguber.info/inful/pagegen/internal/metrics"
	"git.home.luguber.info/inful/pagegen/internal/storage"
	"git.home.luguber.info/inful/pagegen/internal/templates"
)

// Options override parts of the assembled engine.
type Options struct {
	FS       storage.FS
	Recorder metrics.Recorder

	// NoLedger disables digest skipping for this run.
	NoLedger   bool
	OnProgress func(done, total int)
}

// Site is a configuration bound to a ready engine.
type Site struct {
	Config  *config.Config
	Engine  *build.Engine
	Catalog datasource.Catalog
}

// Open loads the site's data and builds its engine. Call it again to pick up
// changed data or templates.
func Open(cfg *config.Config, opts Options) (*Site, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = storage.NewOSFS()
	}

	cat, err := datasource.LoadCatalog(fsys, cfg.DataFiles())
	if err != nil {
		return nil, err
	}
	resolvers, err := cfg.Resolvers(cat)
	if err != nil {
		return nil, pgerrors.Wrap(err, pgerrors.CategoryConfig, pgerrors.SeverityFatal, "invalid data binding")
	}

	// Each Open starts with an empty template cache.
	cache := templates.NewCache(templateEngine(cfg.Templates.Engine), fsys, nil)

	engine, err := build.New(build.Options{
		Routes:          cfg.RouteDefinitions(),
		Resolvers:       resolvers,
		TemplateMap:     cfg.TemplateMap(),
		DefaultTemplate: cfg.TemplatePath(cfg.Templates.Default),
		Templates:       cache,
		Locals:          cfg.Locals,
		FS:              fsys,
		OutputDir:       cfg.OutputDir(),
		Clean:           cfg.Output.Clean,
		MaxInFlight:     cfg.Build.MaxInFlight,
		Ledger:          ledgerStore(cfg, fsys, opts.NoLedger),
		LinkCheck:       cfg.Build.LinkCheck,
		Recorder:        opts.Recorder,
		OnProgress:      opts.OnProgress,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Site ready",
		logfields.Output(cfg.OutputDir()),
		slog.Int("collections", len(cat)),
		slog.String("ledger", string(cfg.Ledger.Backend)))
	return &Site{Config: cfg, Engine: engine, Catalog: cat}, nil
}

func templateEngine(kind config.TemplateEngine) templates.Engine {
	switch kind {
	case config.EngineHTML:
		return templates.HTMLEngine{}
	case config.EngineMarkdown:
		return templates.MarkdownEngine{}
	default:
		return templates.DefaultEngine()
	}
}

func ledgerStore(cfg *config.Config, fsys storage.FS, disabled bool) ledger.Store {
	if disabled || cfg.Ledger.Disabled {
		return nil
	}
	if cfg.Ledger.Backend == config.LedgerSQLite {
		return ledger.NewSQLiteStore(cfg.LedgerPath())
	}
	return ledger.NewFileStore(fsys, cfg.LedgerPath())
}
