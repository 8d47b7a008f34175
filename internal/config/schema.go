// Package config loads tempo settings from defaults, YAML files and the environment.
package config

import (
	"path/filepath"
	"time"
)

// Backends for the store document.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

const (
	bufferFile = "working-buffer.md"
	lockSuffix = ".lock"
)

// Config is the resolved tempo configuration. Relative paths are resolved
// against DataDir by Load.
type Config struct {
	// DataDir holds the store, snapshot and memory directory.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// StoreFile is the JSON store document.
	StoreFile string `yaml:"store_file" mapstructure:"store_file"`

	// MemoryDir holds the WAL files, working buffer and daily archives.
	MemoryDir string `yaml:"memory_dir" mapstructure:"memory_dir"`

	// StateFile is the current-task snapshot.
	StateFile string `yaml:"state_file" mapstructure:"state_file"`

	// Backend selects where the store document lives: "file" or "sqlite".
	Backend string `yaml:"backend" mapstructure:"backend"`

	// SQLitePath is the database used by the sqlite backend.
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`

	// LockTimeout bounds how long an operation waits for another process.
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// StorePath returns the store document location.
func (c *Config) StorePath() string {
	return c.resolve(c.StoreFile)
}

// BufferPath returns the working buffer location.
func (c *Config) BufferPath() string {
	return filepath.Join(c.MemoryDir, bufferFile)
}

// LockPath returns the lock file guarding the store, whichever backend holds it.
func (c *Config) LockPath() string {
	if c.Backend == BackendSQLite {
		return c.SQLitePath + lockSuffix
	}
	return c.StorePath() + lockSuffix
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
