package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
)

const (
	configDirName  = ".tempo"
	configFileName = "config.yaml"
	envPrefix      = "TEMPO"
)

var keys = []string{
	"data_dir", "store_file", "memory_dir", "state_file",
	"backend", "sqlite_path", "lock_timeout", "log_level",
}

// Loader merges configuration from, in increasing precedence: defaults, the
// global file, the project file, TEMPO_* environment variables and explicit
// overrides.
type Loader struct {
	fs        afero.Fs
	home      string
	cwd       string
	overrides map[string]any
}

// NewLoader creates a Loader reading files from fs relative to home and cwd.
func NewLoader(fs afero.Fs, home, cwd string) *Loader {
	return &Loader{fs: fs, home: home, cwd: cwd, overrides: map[string]any{}}
}

// Set overrides a key, as a command-line flag does.
func (l *Loader) Set(key string, value any) {
	l.overrides[key] = value
}

// GlobalConfigPath returns the path to the global config file.
func (l *Loader) GlobalConfigPath() string {
	return filepath.Join(l.home, configDirName, configFileName)
}

// ProjectConfigPath returns the path to the project config file.
func (l *Loader) ProjectConfigPath() string {
	return filepath.Join(l.cwd, configDirName, configFileName)
}

// DefaultDataDir returns ~/.tempo/<sanitized repo root>, or ~/.tempo/default
// outside a git repository.
func (l *Loader) DefaultDataDir() string {
	base := filepath.Join(l.home, configDirName)
	root, err := FindProjectRoot(l.cwd)
	if err != nil {
		return filepath.Join(base, "default")
	}
	return filepath.Join(base, SanitizePath(root))
}

// Load resolves the configuration.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetFs(l.fs)
	v.SetConfigType("yaml")

	defaults := DefaultConfig(l.DefaultDataDir())
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("store_file", defaults.StoreFile)
	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("lock_timeout", defaults.LockTimeout)
	v.SetDefault("log_level", defaults.LogLevel)
	// Paths derived from data_dir are resolved after merging.
	for _, key := range []string{"memory_dir", "state_file", "sqlite_path"} {
		v.SetDefault(key, "")
	}

	for _, path := range []string{l.GlobalConfigPath(), l.ProjectConfigPath()} {
		if err := mergeFile(v, l.fs, path); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}
	for key, value := range l.overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, tempoerrors.InvalidArgumentError{Field: "config", Reason: err.Error()}
	}

	cfg.DataDir = expandHome(cfg.DataDir, l.home)
	cfg.MemoryDir = l.derive(cfg, cfg.MemoryDir, defaultMemoryDir)
	cfg.StateFile = l.derive(cfg, cfg.StateFile, defaultStateFile)
	cfg.SQLitePath = l.derive(cfg, cfg.SQLitePath, defaultSQLiteFile)
	cfg.StoreFile = expandHome(cfg.StoreFile, l.home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// derive expands p, falling back to fallback under the data directory.
func (l *Loader) derive(cfg *Config, p, fallback string) string {
	if p == "" {
		p = fallback
	}
	return cfg.resolve(expandHome(p, l.home))
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return tempoerrors.InvalidArgumentError{Field: "backend", Value: c.Backend, Reason: "must be file or sqlite"}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return tempoerrors.InvalidArgumentError{Field: "log_level", Value: c.LogLevel, Reason: "must be debug, info, warn or error"}
	}
	if c.LockTimeout < 0 {
		return tempoerrors.InvalidArgumentError{Field: "lock_timeout", Value: c.LockTimeout.String(), Reason: "must not be negative"}
	}
	if c.DataDir == "" {
		return tempoerrors.InvalidArgumentError{Field: "data_dir", Reason: "must not be empty"}
	}
	return nil
}

func mergeFile(v *viper.Viper, fs afero.Fs, path string) error {
	if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

func expandHome(p, home string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return p
}
