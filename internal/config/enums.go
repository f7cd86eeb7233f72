package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// normalizer maps loosely written strings onto a closed set of values.
type normalizer[T ~string] struct {
	name   string
	values map[string]T
}

func newNormalizer[T ~string](name string, values ...T) normalizer[T] {
	m := make(map[string]T, len(values))
	for _, v := range values {
		m[clean(string(v))] = v
	}
	return normalizer[T]{name: name, values: m}
}

// normalize returns the canonical value, or "" when raw is unrecognized.
func (n normalizer[T]) normalize(raw T) T {
	return n.values[clean(string(raw))]
}

// validate reports an error naming the valid options.
func (n normalizer[T]) validate(raw T) error {
	if n.normalize(raw) != "" {
		return nil
	}
	return fmt.Errorf("invalid %s %q, valid options: %v", n.name, raw, slices.Sorted(maps.Keys(n.values)))
}

func clean(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// LedgerBackend selects the ledger store.
type LedgerBackend string

const (
	LedgerJSON   LedgerBackend = "json"
	LedgerSQLite LedgerBackend = "sqlite"
)

var ledgerBackends = newNormalizer("ledger backend", LedgerJSON, LedgerSQLite)

// TemplateEngine selects how template files compile.
type TemplateEngine string

const (
	// EngineAuto dispatches on file extension: .md is markdown, the rest html.
	EngineAuto     TemplateEngine = "auto"
	EngineHTML     TemplateEngine = "html"
	EngineMarkdown TemplateEngine = "markdown"
)

var templateEngines = newNormalizer("template engine", EngineAuto, EngineHTML, EngineMarkdown)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = newNormalizer("log level", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)

// NormalizeLogLevel returns the canonical level, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	if l := logLevels.normalize(LogLevel(raw)); l != "" {
		return l
	}
	return LogLevelInfo
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

var logFormats = newNormalizer("log format", LogFormatText, LogFormatJSON)

// NormalizeLogFormat returns the canonical format, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	if f := logFormats.normalize(LogFormat(raw)); f != "" {
		return f
	}
	return LogFormatText
}
