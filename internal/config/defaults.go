package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	defaultStoreFile   = "tasks.json"
	defaultStateFile   = "SESSION-STATE.md"
	defaultMemoryDir   = "memory"
	defaultSQLiteFile  = "tempo.db"
	defaultLockTimeout = 10 * time.Second
	defaultLogLevel    = "warn"
)

// DefaultConfig returns the default configuration rooted at dataDir.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		DataDir:     dataDir,
		StoreFile:   defaultStoreFile,
		MemoryDir:   filepath.Join(dataDir, defaultMemoryDir),
		StateFile:   filepath.Join(dataDir, defaultStateFile),
		Backend:     BackendFile,
		SQLitePath:  filepath.Join(dataDir, defaultSQLiteFile),
		LockTimeout: defaultLockTimeout,
		LogLevel:    defaultLogLevel,
	}
}

// configComments documents each key in a written config file.
var configComments = []struct {
	key, comment string
}{
	{"data_dir", "Directory holding the store, snapshot and memory files"},
	{"store_file", "Store document, relative to data_dir unless absolute"},
	{"memory_dir", "WAL files, working buffer and daily archives"},
	{"state_file", "Current-task snapshot, overwritten on every change"},
	{"backend", "Where the store document lives: file or sqlite"},
	{"sqlite_path", "Database used when backend is sqlite"},
	{"lock_timeout", "How long to wait for another tempo process"},
	{"log_level", "debug, info, warn or error (logs go to stderr)"},
}

// WriteDefault writes cfg as a commented YAML config file.
func WriteDefault(fs afero.Fs, path string, cfg *Config) error {
	values := map[string]string{
		"data_dir":     cfg.DataDir,
		"store_file":   cfg.StoreFile,
		"memory_dir":   cfg.MemoryDir,
		"state_file":   cfg.StateFile,
		"backend":      cfg.Backend,
		"sqlite_path":  cfg.SQLitePath,
		"lock_timeout": cfg.LockTimeout.String(),
		"log_level":    cfg.LogLevel,
	}

	doc := &yaml.Node{Kind: yaml.MappingNode, HeadComment: "tempo configuration"}
	for _, entry := range configComments {
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: entry.key, HeadComment: entry.comment},
			&yaml.Node{Kind: yaml.ScalarNode, Value: values[entry.key]},
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	//nolint:gosec // G301: 0755 is appropriate for user-accessible config directory
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	//nolint:gosec // G306: 0644 is appropriate for user-readable config files
	return afero.WriteFile(fs, path, buf.Bytes(), 0o644)
}
