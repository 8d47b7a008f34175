// Package wal records intended store mutations before they are persisted.
//
// Each UTC day has its own append-only file of JSON lines. A record that has no
// matching change in the store marks an operation that was interrupted between
// logging and saving, and is the trace used for manual reconciliation.
package wal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Event types written by the engine.
const (
	EventProgressChange   = "PROGRESS_CHANGE"
	EventTimeLog          = "TIME_LOG"
	EventStatusChange     = "STATUS_CHANGE"
	EventHealthCheck      = "HEALTH_CHECK"
	EventTaskCreated      = "TASK_CREATED"
	EventGoalCreated      = "GOAL_CREATED"
	EventRecurringAdvance = "RECURRING_ADVANCE"
)

const dayLayout = "2006-01-02"

// Entry is one WAL record.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	EventType string         `json:"event_type"`
	Content   map[string]any `json:"content"`
}

// Log appends entries to per-day files under a directory.
type Log struct {
	fs  afero.Fs
	dir string
}

// New creates a Log writing under dir.
func New(fs afero.Fs, dir string) *Log {
	return &Log{fs: fs, dir: dir}
}

// PathFor returns the file that holds entries for the UTC day of at.
func (l *Log) PathFor(at time.Time) string {
	return filepath.Join(l.dir, "WAL-"+at.UTC().Format(dayLayout)+".log")
}

// Append writes one entry stamped with at and syncs it to stable storage
// before returning.
func (l *Log) Append(eventType string, content map[string]any, at time.Time) error {
	entry := Entry{
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		EventType: eventType,
		Content:   content,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding wal entry: %w", err)
	}
	line = append(line, '\n')

	//nolint:gosec // G301: 0755 is appropriate for user-accessible log directory
	if err = l.fs.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("creating wal directory: %w", err)
	}

	path := l.PathFor(at)
	//nolint:gosec // G302: 0644 is appropriate for user-readable logs
	f, err := l.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening wal %s: %w", path, err)
	}
	defer f.Close()

	if _, err = f.Write(line); err != nil {
		return fmt.Errorf("writing wal %s: %w", path, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("syncing wal %s: %w", path, err)
	}
	return nil
}
