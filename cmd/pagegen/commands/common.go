package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagegen/internal/config"
)

// envLogLevel overrides the configured log level unless --verbose is set.
const envLogLevel = "PAGEGEN_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"pagegen.yaml" env:"PAGEGEN_CONFIG"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format (text|json); overrides logging.format"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Build every page of the site"`
	Render RenderCmd `cmd:"" help:"Render a single page to stdout"`
	Routes RoutesCmd `cmd:"" help:"List the pages a build would write, without writing them"`
	Watch  WatchCmd  `cmd:"" help:"Rebuild the site when templates, data or configuration change"`
	Init   InitCmd   `cmd:"" help:"Initialize a new site"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level, _ := c.logLevel()
	setupLogging(level, config.NormalizeLogFormat(c.LogFormat))
	return nil
}

// logLevel resolves the level from --verbose, then PAGEGEN_LOG_LEVEL. The
// second result is false when neither is set.
func (c *CLI) logLevel() (config.LogLevel, bool) {
	if c.Verbose {
		return config.LogLevelDebug, true
	}
	if env := os.Getenv(envLogLevel); env != "" {
		return config.NormalizeLogLevel(env), true
	}
	return config.LogLevelInfo, false
}

// loadConfig loads the configuration file and applies its logging section
// where no flag or environment variable took precedence.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}

	// Checked again: Load may have read PAGEGEN_LOG_LEVEL from a .env file.
	level, explicit := c.logLevel()
	if !explicit {
		level = config.NormalizeLogLevel(string(cfg.Logging.Level))
	}
	format := cfg.Logging.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	setupLogging(level, config.NormalizeLogFormat(string(format)))

	slog.Debug("Loaded configuration", "path", c.Config, "routes", len(cfg.Routes), "collections", len(cfg.Data))
	return cfg, nil
}

func setupLogging(level config.LogLevel, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// applyOutputOverride points the build at dir instead of output.directory.
// The configuration is validated again since the ledger placement rules
// depend on the output directory.
func applyOutputOverride(cfg *config.Config, dir string) error {
	if dir == "" {
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}
	cfg.Output.Directory = abs
	return config.ValidateConfig(cfg)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
