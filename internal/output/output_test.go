//nolint:testpackage // Tests require internal access for thorough testing
package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/abatilo/tempo/internal/engine"
	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/task"
	"github.com/abatilo/tempo/internal/velocity"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, s)
	}
	return m
}

func TestJSONFormatterResults(t *testing.T) {
	f := NewJSONFormatter()
	tk := &task.Task{ID: "task_a", Title: "Write docs", Status: task.StatusInProgress, Progress: 40}

	tests := []struct {
		name    string
		out     string
		wantKey string
		wantVal any
	}{
		{"progress", f.FormatProgress(&engine.ProgressResult{Task: tk, ProgressChange: "0% → 40%"}), "progress_change", "0% → 40%"},
		{"status", f.FormatStatus(&engine.StatusResult{Task: tk, StatusChange: "pending → blocked", Reason: "r"}), "status_change", "pending → blocked"},
		{"health", f.FormatHealth(&engine.HealthResult{HealthStatus: "healthy", Issues: []string{}, AutoFixes: []string{}, Summary: "Found 0 issues, auto-fixed 0"}), "health_status", "healthy"},
		{"velocity", f.FormatVelocity(&velocity.Report{GoalID: "goal_1", VelocityTasksPerDay: 2}), "velocity_tasks_per_day", 2.0},
		{"message", f.FormatMessage("done"), "message", "done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decode(t, tt.out)
			if m["success"] != true {
				t.Errorf("success = %v, want true", m["success"])
			}
			if m[tt.wantKey] != tt.wantVal {
				t.Errorf("%s = %v, want %v", tt.wantKey, m[tt.wantKey], tt.wantVal)
			}
		})
	}
}

func TestJSONFormatterTaskUsesStoreShape(t *testing.T) {
	f := NewJSONFormatter()
	estimate := 30
	m := decode(t, f.FormatTask(&task.Task{ID: "task_a", GoalID: "goal_1", EstimateMinutes: &estimate}))

	inner, ok := m["task"].(map[string]any)
	if !ok {
		t.Fatalf("task missing: %v", m)
	}
	if inner["goal_id"] != "goal_1" || inner["estimate_minutes"] != 30.0 {
		t.Errorf("task = %v", inner)
	}
}

func TestJSONFormatterEmptyList(t *testing.T) {
	out := NewJSONFormatter().FormatTaskList(nil)
	if !strings.Contains(out, `"tasks": []`) {
		t.Errorf("empty list should encode as [], got %s", out)
	}
}

func TestJSONFormatterError(t *testing.T) {
	m := decode(t, NewJSONFormatter().FormatError(tempoerrors.TaskNotFoundError{ID: "task_x"}))

	if m["success"] != false {
		t.Errorf("success = %v, want false", m["success"])
	}
	if m["kind"] != "TaskNotFound" {
		t.Errorf("kind = %v, want TaskNotFound", m["kind"])
	}
	if !strings.Contains(m["error"].(string), "task_x") {
		t.Errorf("error = %v", m["error"])
	}
}

func TestHumanFormatter(t *testing.T) {
	f := NewHumanFormatter()
	reason := "waiting on review"
	tk := &task.Task{ID: "task_a", Title: "Write docs", Status: task.StatusBlocked, Progress: 50, BlockedReason: &reason}

	if out := f.FormatTask(tk); !strings.Contains(out, "[task_a] Write docs") || !strings.Contains(out, reason) {
		t.Errorf("FormatTask = %q", out)
	}
	if out := f.FormatTaskList([]*task.Task{tk}); !strings.Contains(out, "[!]") {
		t.Errorf("FormatTaskList should mark blocked tasks: %q", out)
	}
	if out := f.FormatTaskList(nil); out != "No tasks found.\n" {
		t.Errorf("FormatTaskList(nil) = %q", out)
	}

	health := f.FormatHealth(&engine.HealthResult{
		HealthStatus: "issues_found",
		Issues:       []string{"Impossible state: task_a completed but progress=40%"},
		AutoFixes:    []string{"Set progress=100% for completed task task_a"},
		Summary:      "Found 1 issues, auto-fixed 1",
	})
	if !strings.Contains(health, "Impossible state") || !strings.Contains(health, "Set progress=100%") {
		t.Errorf("FormatHealth = %q", health)
	}

	if out := f.FormatError(tempoerrors.GoalNotFoundError{ID: "goal_x"}); !strings.Contains(out, "GoalNotFound") {
		t.Errorf("FormatError = %q", out)
	}
}
