package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/abatilo/tempo/internal/task"
)

// Buffer is the rolling list of recent changes, flushed in bulk to a dated archive.
type Buffer struct {
	fs         afero.Fs
	path       string
	archiveDir string
}

// FlushResult reports what Flush moved.
type FlushResult struct {
	Message      string `json:"message"`
	Path         string `json:"path,omitempty"`
	LinesFlushed int    `json:"lines_flushed"`
}

// NewBuffer creates a buffer stored at path that flushes into archiveDir.
func NewBuffer(fs afero.Fs, path, archiveDir string) *Buffer {
	return &Buffer{fs: fs, path: path, archiveDir: archiveDir}
}

// Path returns the buffer location.
func (b *Buffer) Path() string {
	return b.path
}

// ArchivePath returns the archive file for the UTC day of at.
func (b *Buffer) ArchivePath(at time.Time) string {
	return filepath.Join(b.archiveDir, at.UTC().Format("2006-01-02")+".md")
}

// Append adds one line for an event.
func (b *Buffer) Append(eventType, details string, at time.Time) error {
	line := fmt.Sprintf("- %s (%s): %s\n", eventType, task.FormatTime(at), details)
	return appendFile(b.fs, b.path, line)
}

// Flush moves the buffer's contents under a "Task Updates" heading in the day's
// archive and empties the buffer. An absent or empty buffer is left alone.
func (b *Buffer) Flush(at time.Time) (*FlushResult, error) {
	content, err := afero.ReadFile(b.fs, b.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(content) == 0) {
		return &FlushResult{Message: "Buffer empty, nothing to flush"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading working buffer %s: %w", b.path, err)
	}

	archive := b.ArchivePath(at)
	if err = appendFile(b.fs, archive, "\n## Task Updates\n"+string(content)+"\n"); err != nil {
		return nil, err
	}
	if err = afero.WriteFile(b.fs, b.path, nil, 0o644); err != nil { //nolint:gosec // G306: user-readable notes
		return nil, fmt.Errorf("clearing working buffer %s: %w", b.path, err)
	}

	return &FlushResult{
		Message:      "Buffer flushed to " + archive,
		Path:         archive,
		LinesFlushed: len(strings.Split(string(content), "\n")),
	}, nil
}

func appendFile(fsys afero.Fs, path, text string) error {
	//nolint:gosec // G301: 0755 is appropriate for user-accessible memory directory
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	//nolint:gosec // G302: 0644 is appropriate for user-readable notes
	f, err := fsys.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if _, err = f.WriteString(text); err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	return nil
}
