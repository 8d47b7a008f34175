// Package session keeps the human-facing working memory in step with the store:
// a snapshot of the task being worked on and a rolling buffer of changes.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/abatilo/tempo/internal/task"
)

const (
	frontmatterDelimiter = "---"
	defaultAction        = "Continue with current task or mark as complete"
)

// StateHeader is the machine-readable frontmatter of the state snapshot.
type StateHeader struct {
	TaskID   string      `yaml:"task_id"`
	GoalID   string      `yaml:"goal_id,omitempty"`
	Status   task.Status `yaml:"status"`
	Progress int         `yaml:"progress"`
	Updated  string      `yaml:"updated"`
}

// StateWriter overwrites the snapshot document on every change.
type StateWriter struct {
	fs   afero.Fs
	path string
}

// NewStateWriter creates a writer for the snapshot at path.
func NewStateWriter(fs afero.Fs, path string) *StateWriter {
	return &StateWriter{fs: fs, path: path}
}

// Path returns the snapshot location.
func (w *StateWriter) Path() string {
	return w.path
}

// Write replaces the snapshot with the current view of t. g may be nil.
func (w *StateWriter) Write(t *task.Task, g *task.Goal, action string, at time.Time) error {
	content, err := RenderState(t, g, action, at)
	if err != nil {
		return err
	}
	//nolint:gosec // G301: 0755 is appropriate for user-accessible data directory
	if err = w.fs.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", w.path, err)
	}
	if err = afero.WriteFile(w.fs, w.path, content, 0o644); err != nil { //nolint:gosec // G306: user-readable notes
		return fmt.Errorf("writing session state %s: %w", w.path, err)
	}
	return nil
}

// Read returns the frontmatter of the current snapshot.
func (w *StateWriter) Read() (*StateHeader, error) {
	content, err := afero.ReadFile(w.fs, w.path)
	if err != nil {
		return nil, err
	}
	return ParseState(content)
}

// RenderState builds the snapshot document.
func RenderState(t *task.Task, g *task.Goal, action string, at time.Time) ([]byte, error) {
	header := StateHeader{
		TaskID:   t.ID,
		GoalID:   t.GoalID,
		Status:   t.Status,
		Progress: t.Progress,
		Updated:  task.FormatTime(at),
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(header); err != nil {
		return nil, fmt.Errorf("encoding session state header: %w", err)
	}
	enc.Close()
	buf.WriteString(frontmatterDelimiter + "\n\n")

	buf.WriteString("# SESSION-STATE.md - Active Working Memory\n")
	fmt.Fprintf(&buf, "Last updated: %s\n\n", task.FormatTime(at))

	buf.WriteString("## Current Task\n")
	fmt.Fprintf(&buf, "- ID: %s\n", orDefault(t.ID, "unknown"))
	fmt.Fprintf(&buf, "- Title: %s\n", orDefault(t.Title, "N/A"))
	fmt.Fprintf(&buf, "- Status: %s\n", orDefault(string(t.Status), string(task.StatusPending)))
	fmt.Fprintf(&buf, "- Progress: %d%%\n", t.Progress)
	if t.EstimateMinutes != nil {
		fmt.Fprintf(&buf, "- Estimated: %d min\n", *t.EstimateMinutes)
	} else {
		buf.WriteString("- Estimated: N/A\n")
	}
	if pace := t.Pace(); pace != "" {
		fmt.Fprintf(&buf, "- Actual logged: %d min (%s)\n\n", t.ActualMinutes, pace)
	} else {
		fmt.Fprintf(&buf, "- Actual logged: %d min\n\n", t.ActualMinutes)
	}

	buf.WriteString("## Goal Context\n")
	if g != nil {
		fmt.Fprintf(&buf, "- ID: %s\n", g.ID)
		fmt.Fprintf(&buf, "- Title: %s\n", orDefault(g.Title, "N/A"))
		fmt.Fprintf(&buf, "- Priority: %s\n\n", orDefault(string(g.Priority), string(task.PriorityMedium)))
	} else {
		buf.WriteString("- ID: unknown\n- Title: N/A\n- Priority: N/A\n\n")
	}

	buf.WriteString("## Task Details\n")
	fmt.Fprintf(&buf, "- Created: %s\n", formatStamp(t.CreatedAt))
	fmt.Fprintf(&buf, "- Updated: %s\n", formatStamp(t.UpdatedAt))
	fmt.Fprintf(&buf, "- Notes: %s\n\n", orDefault(t.Notes, "None"))

	buf.WriteString("## Blockers\n")
	if t.BlockedReason != nil && *t.BlockedReason != "" {
		fmt.Fprintf(&buf, "- %s\n\n", *t.BlockedReason)
	} else {
		buf.WriteString("- None\n\n")
	}

	buf.WriteString("## Next Action\n")
	buf.WriteString(orDefault(action, defaultAction) + "\n")
	return buf.Bytes(), nil
}

// ParseState reads the frontmatter of a snapshot document.
func ParseState(content []byte) (*StateHeader, error) {
	lines := strings.Split(string(content), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != frontmatterDelimiter {
		return nil, errors.New("missing YAML frontmatter")
	}

	end := 0
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterDelimiter {
			end = i
			break
		}
	}
	if end == 0 {
		return nil, errors.New("unclosed YAML frontmatter")
	}

	var h StateHeader
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &h); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return &h, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return task.FormatTime(t)
}
