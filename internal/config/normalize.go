package config

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// normalizeConfig canonicalizes enumerated and free-form fields before
// defaults apply. Unknown enum values are left as written so validation can
// report them.
func normalizeConfig(c *Config) {
	if v := ledgerBackends.normalize(c.Ledger.Backend); v != "" {
		c.Ledger.Backend = v
	}
	if v := templateEngines.normalize(c.Templates.Engine); v != "" {
		c.Templates.Engine = v
	}
	if v := logLevels.normalize(c.Logging.Level); v != "" {
		c.Logging.Level = v
	}
	if v := logFormats.normalize(c.Logging.Format); v != "" {
		c.Logging.Format = v
	}
	c.Output.Directory = strings.TrimSpace(c.Output.Directory)
	c.Watch.Interval = strings.TrimSpace(c.Watch.Interval)
	c.Watch.Debounce = strings.TrimSpace(c.Watch.Debounce)
	if c.Build.MaxInFlight < 0 {
		slog.Warn("Negative build.max_in_flight, using default", slog.Int("value", c.Build.MaxInFlight))
		c.Build.MaxInFlight = 0
	}
}

func (c *Config) dataNames() []string {
	return slices.Sorted(maps.Keys(c.Data))
}
