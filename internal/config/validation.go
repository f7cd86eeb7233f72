package config

import (
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
)

// ValidateConfig validates the complete configuration.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate runs the domain checks in dependency order.
func (cv *configurationValidator) validate() error {
	checks := []func() error{
		cv.validateOutput,
		cv.validateBuild,
		cv.validateLedger,
		cv.validateTemplates,
		cv.validateLogging,
		cv.validateBindings,
		cv.validateRoutes,
		cv.validateWatch,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	if strings.TrimSpace(cv.config.Output.Directory) == "" {
		return pgerrors.ConfigRequired("output.directory")
	}
	if filepath.Clean(cv.config.OutputDir()) == filepath.Clean(cv.config.BaseDir()) && cv.config.Output.Clean {
		return pgerrors.ValidationFailed("output.directory", "clean would wipe the configuration directory")
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	if cv.config.Build.MaxInFlight <= 0 {
		return pgerrors.ValidationFailed("build.max_in_flight", "must be positive")
	}
	return nil
}

func (cv *configurationValidator) validateLedger() error {
	l := cv.config.Ledger
	if err := ledgerBackends.validate(l.Backend); err != nil {
		return pgerrors.ValidationFailed("ledger.backend", err.Error())
	}
	if l.Disabled || !cv.config.Output.Clean {
		return nil
	}
	rel, err := filepath.Rel(cv.config.OutputDir(), cv.config.LedgerPath())
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return pgerrors.ValidationFailed("ledger.path", "must be outside output.directory when output.clean is set")
	}
	return nil
}

func (cv *configurationValidator) validateTemplates() error {
	t := cv.config.Templates
	if err := templateEngines.validate(t.Engine); err != nil {
		return pgerrors.ValidationFailed("templates.engine", err.Error())
	}
	for component, file := range t.Map {
		if strings.TrimSpace(file) == "" {
			return pgerrors.ValidationFailed("templates.map."+component, "template file is empty")
		}
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	if err := logLevels.validate(cv.config.Logging.Level); err != nil {
		return pgerrors.ValidationFailed("logging.level", err.Error())
	}
	if err := logFormats.validate(cv.config.Logging.Format); err != nil {
		return pgerrors.ValidationFailed("logging.format", err.Error())
	}
	return nil
}

func (cv *configurationValidator) validateBindings() error {
	if cv.config.Defaults != nil {
		if err := cv.validateBinding("defaults", "", *cv.config.Defaults); err != nil {
			return err
		}
	}
	for _, param := range slices.Sorted(maps.Keys(cv.config.Params)) {
		if err := cv.validateBinding("params."+param, param, cv.config.Params[param]); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateBinding(field, param string, b Binding) error {
	if b.Data != "" && b.Values != nil {
		return pgerrors.ValidationFailed(field, "data and values are mutually exclusive")
	}
	if b.Data != "" {
		if _, ok := cv.config.Data[b.Data]; !ok {
			return pgerrors.ValidationFailed(field+".data", fmt.Sprintf("unknown data collection %q", b.Data))
		}
	}
	if param != "" && b.As == param {
		return pgerrors.ValidationFailed(field+".as", "local name must differ from the param name")
	}
	return nil
}

func (cv *configurationValidator) validateRoutes() error {
	if len(cv.config.Routes) == 0 {
		return pgerrors.ConfigRequired("routes")
	}
	seen := make(map[string]bool)
	return cv.validateRouteList("routes", cv.config.Routes, seen)
}

func (cv *configurationValidator) validateRouteList(field string, routes []RouteConfig, seen map[string]bool) error {
	for i, r := range routes {
		f := fmt.Sprintf("%s[%d]", field, i)
		if r.Name == "" {
			return pgerrors.ValidationFailed(f+".name", "routes need names to be built")
		}
		if seen[r.Name] {
			return pgerrors.ValidationFailed(f+".name", fmt.Sprintf("duplicate route name %q", r.Name))
		}
		seen[r.Name] = true
		if r.Redirect != nil && (r.Redirect.Path == "") == (r.Redirect.Name == "") {
			return pgerrors.ValidationFailed(f+".redirect", "set exactly one of path or name")
		}
		if r.Handler != "" && r.Redirect != nil {
			slog.Warn("Route has both handler and redirect; the redirect wins",
				slog.String("route", r.Name))
		}
		if r.Default != nil {
			if err := cv.validateBinding(f+".default", "", *r.Default); err != nil {
				return err
			}
		}
		for _, param := range slices.Sorted(maps.Keys(r.Params)) {
			if err := cv.validateBinding(f+".params."+param, param, r.Params[param]); err != nil {
				return err
			}
		}
		if err := cv.validateRouteList(f+".children", r.Children, seen); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if w.Interval != "" {
		d, err := time.ParseDuration(w.Interval)
		if err != nil {
			return pgerrors.ValidationFailed("watch.interval", err.Error())
		}
		if d < time.Second {
			return pgerrors.ValidationFailed("watch.interval", "must be at least 1s")
		}
	}
	if _, err := time.ParseDuration(w.Debounce); err != nil {
		return pgerrors.ValidationFailed("watch.debounce", err.Error())
	}
	return nil
}

// WatchInterval returns the periodic rebuild interval, zero when disabled.
func (c *Config) WatchInterval() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Interval)
	return d
}

// WatchDebounce returns the quiet period before a change triggers a build.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		d, _ = time.ParseDuration(DefaultWatchDebounce)
	}
	return d
}
