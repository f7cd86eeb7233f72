package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		stderr:  os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if pe, ok := As(err); ok {
		return a.exitCodeFromPagegen(pe)
	}

	return 1
}

// exitCodeFromPagegen maps PagegenError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromPagegen(err *PagegenError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryRedirect, CategoryTemplate, CategoryRender, CategoryFileSystem, CategoryLedger:
		return 11 // Build error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if pe, ok := As(err); ok {
		return a.formatPagegen(pe)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatPagegen formats a PagegenError for display.
func (a *CLIErrorAdapter) formatPagegen(err *PagegenError) string {
	if a.verbose {
		return err.Error()
	}

	msg := err.Message
	if len(err.Context) > 0 {
		msg = fmt.Sprintf("%s %v", msg, map[string]any(err.Context))
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return msg
	default:
		return fmt.Sprintf("%s: %s", err.Category, msg)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	_, _ = fmt.Fprintf(a.stderr, "%s\n", message)
	a.exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if pe, ok := As(err); ok {
		return pe.Category == CategoryInternal || pe.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if pe, ok := As(err); ok {
		level := slogLevelFromSeverity(pe.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(pe.Category)),
		}
		for k, v := range pe.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
		if pe.Cause != nil {
			attrs = append(attrs, slog.String("cause", pe.Cause.Error()))
		}

		a.logger.LogAttrs(context.Background(), level, pe.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts PagegenError severity to slog level.
func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
