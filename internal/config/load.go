package config

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/logfields"
)

// envFiles are loaded from the configuration directory, first match wins per
// variable. Variables already present in the environment are never replaced.
var envFiles = []string{".env", ".env.local"}

// Load reads, expands, defaults and validates the configuration at path.
func Load(configPath string) (*Config, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, pgerrors.Wrap(err, pgerrors.CategoryConfig, pgerrors.SeverityFatal, "invalid configuration path").
			WithContext("path", configPath)
	}
	loadEnvFiles(filepath.Dir(abs))

	// #nosec G304 -- the configuration path is chosen by the operator.
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pgerrors.ConfigNotFound(configPath)
		}
		return nil, pgerrors.Wrap(err, pgerrors.CategoryConfig, pgerrors.SeverityFatal, "failed to read config file").
			WithContext("path", configPath)
	}

	cfg, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		if pe, ok := pgerrors.As(err); ok {
			return nil, pe.WithContext("path", configPath)
		}
		return nil, err
	}
	slog.Debug("Loaded configuration",
		logfields.Path(abs),
		slog.Int("routes", len(cfg.Routes)),
		slog.Int("collections", len(cfg.Data)))
	return cfg, nil
}

// Parse decodes configuration bytes. Relative paths resolve against baseDir.
func Parse(data []byte, baseDir string) (*Config, error) {
	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, pgerrors.Wrap(err, pgerrors.CategoryConfig, pgerrors.SeverityFatal, "failed to unmarshal config")
	}
	cfg.baseDir = baseDir

	normalizeConfig(&cfg)
	if err := applyDefaults(&cfg); err != nil {
		return nil, pgerrors.Wrap(err, pgerrors.CategoryConfig, pgerrors.SeverityFatal, "failed to apply defaults")
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFiles(dir string) {
	var found []string
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return
	}
	// godotenv.Load keeps variables that are already set.
	if err := godotenv.Load(found...); err != nil {
		slog.Warn("Failed to load environment file", logfields.Error(err))
		return
	}
	slog.Debug("Loaded environment files", slog.Any("files", found))
}
