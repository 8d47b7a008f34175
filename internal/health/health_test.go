//nolint:testpackage // Tests require internal access for thorough testing
package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abatilo/tempo/internal/task"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func collectionOf(tasks ...*task.Task) *task.Collection {
	c := task.NewCollection()
	c.Tasks = append(c.Tasks, tasks...)
	return c
}

func TestScanHealthyStore(t *testing.T) {
	c := collectionOf(
		&task.Task{ID: "task_a", GoalID: "goal_1", Status: task.StatusPending},
		&task.Task{ID: "task_b", GoalID: "goal_1", Status: task.StatusCompleted, Progress: 100, CompletedAt: ptr(now.Add(-time.Hour))},
		&task.Task{ID: "task_c", Status: task.StatusBlocked, BlockedReason: ptr("waiting on review")},
	)

	r := Scan(c, now)

	assert.Empty(t, r.Issues)
	assert.Empty(t, r.Fixes)
	assert.Empty(t, r.Modified)
	assert.Equal(t, StatusHealthy, r.Status())
	assert.Equal(t, "Found 0 issues, auto-fixed 0", r.Summary())
}

func TestScanRepairsCompletedWithPartialProgress(t *testing.T) {
	tk := &task.Task{ID: "task_a", Status: task.StatusCompleted, Progress: 40, CompletedAt: ptr(now.Add(-time.Hour))}
	r := Scan(collectionOf(tk), now)

	require.Len(t, r.Issues, 1)
	require.Len(t, r.Fixes, 1)
	assert.Equal(t, "Impossible state: task_a completed but progress=40%", r.Issues[0])
	assert.Equal(t, "Set progress=100% for completed task task_a", r.Fixes[0])
	assert.Equal(t, 100, tk.Progress)
	assert.Equal(t, []string{"task_a"}, r.Modified)
	assert.Equal(t, StatusIssuesFound, r.Status())
}

func TestScanChecks(t *testing.T) {
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name      string
		task      *task.Task
		wantIssue string
		wantFix   string
		verify    func(t *testing.T, tk *task.Task)
	}{
		{
			name:      "orphaned recurring",
			task:      &task.Task{ID: "task_a", Recurring: ptr(task.RecurDaily)},
			wantIssue: "Orphaned recurring task: task_a",
			wantFix:   "Removed recurring flag from task_a",
			verify: func(t *testing.T, tk *task.Task) {
				assert.Nil(t, tk.Recurring)
			},
		},
		{
			name:      "completed without timestamp",
			task:      &task.Task{ID: "task_a", Status: task.StatusCompleted, Progress: 100},
			wantIssue: "Inconsistent completion: task_a status=completed but no completed_at",
			wantFix:   "Added completed_at timestamp to task_a",
			verify: func(t *testing.T, tk *task.Task) {
				require.NotNil(t, tk.CompletedAt)
				assert.True(t, tk.CompletedAt.Equal(now))
			},
		},
		{
			name:      "completed in the future",
			task:      &task.Task{ID: "task_a", Status: task.StatusCompleted, Progress: 100, CompletedAt: &future},
			wantIssue: "Bad date: task_a completed_at=2024-06-03T12:00:00Z is in future",
			wantFix:   "Reset completed_at for task_a",
			verify: func(t *testing.T, tk *task.Task) {
				assert.True(t, tk.CompletedAt.Equal(now))
			},
		},
		{
			name:      "progress above range",
			task:      &task.Task{ID: "task_a", Status: task.StatusInProgress, Progress: 140},
			wantIssue: "Progress out of range: task_a progress=140%",
			wantFix:   "Clamped progress to 100% for task_a",
			verify: func(t *testing.T, tk *task.Task) {
				assert.Equal(t, 100, tk.Progress)
			},
		},
		{
			name:      "progress below range",
			task:      &task.Task{ID: "task_a", Status: task.StatusInProgress, Progress: -5},
			wantIssue: "Progress out of range: task_a progress=-5%",
			wantFix:   "Clamped progress to 0% for task_a",
			verify: func(t *testing.T, tk *task.Task) {
				assert.Equal(t, 0, tk.Progress)
			},
		},
		{
			name:      "blocked without reason",
			task:      &task.Task{ID: "task_a", Status: task.StatusBlocked},
			wantIssue: "Missing block reason: task_a status=blocked but no blocked_reason",
			wantFix:   "Set blocked_reason for task_a",
			verify: func(t *testing.T, tk *task.Task) {
				require.NotNil(t, tk.BlockedReason)
				assert.Equal(t, DefaultBlockedReason, *tk.BlockedReason)
			},
		},
		{
			name:      "reason on unblocked task",
			task:      &task.Task{ID: "task_a", Status: task.StatusPending, BlockedReason: ptr("old")},
			wantIssue: "Stale block reason: task_a status=pending but blocked_reason is set",
			wantFix:   "Cleared blocked_reason from task_a",
			verify: func(t *testing.T, tk *task.Task) {
				assert.Nil(t, tk.BlockedReason)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Scan(collectionOf(tt.task), now)

			assert.Equal(t, []string{tt.wantIssue}, r.Issues)
			assert.Equal(t, []string{tt.wantFix}, r.Fixes)
			tt.verify(t, tt.task)
		})
	}
}

func TestScanTimeAnomalyIsReportOnly(t *testing.T) {
	tests := []struct {
		name      string
		estimate  *int
		actual    int
		wantIssue string
	}{
		{"over ten times estimate", ptr(10), 150, "Time anomaly: task_a actual=150m vs estimate=10m (15.0x)"},
		{"absent estimate counts as one minute", nil, 11, "Time anomaly: task_a actual=11m vs estimate=none (11.0x)"},
		{"zero estimate has no ratio", ptr(0), 5, "Time anomaly: task_a actual=5m vs estimate=0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := &task.Task{ID: "task_a", Status: task.StatusInProgress, EstimateMinutes: tt.estimate, ActualMinutes: tt.actual}
			r := Scan(collectionOf(tk), now)

			assert.Equal(t, []string{tt.wantIssue}, r.Issues)
			assert.Empty(t, r.Fixes)
			assert.False(t, r.Changed())
			assert.Equal(t, tt.actual, tk.ActualMinutes)
		})
	}

	t.Run("exactly ten times is fine", func(t *testing.T) {
		tk := &task.Task{ID: "task_a", EstimateMinutes: ptr(10), ActualMinutes: 100}
		assert.Empty(t, Scan(collectionOf(tk), now).Issues)
	})
}

func TestScanAppliesSeveralChecksToOneTask(t *testing.T) {
	tk := &task.Task{ID: "task_a", Status: task.StatusCompleted, Progress: 10, Recurring: ptr(task.RecurWeekly)}
	r := Scan(collectionOf(tk), now)

	assert.Len(t, r.Issues, 3)
	assert.Len(t, r.Fixes, 3)
	assert.Equal(t, []string{"task_a"}, r.Modified)
	assert.Equal(t, "Found 3 issues, auto-fixed 3", r.Summary())
}

func TestScanIsIdempotent(t *testing.T) {
	future := now.Add(time.Hour)
	c := collectionOf(
		&task.Task{ID: "task_a", Status: task.StatusCompleted, Progress: 40},
		&task.Task{ID: "task_b", Recurring: ptr(task.RecurNone)},
		&task.Task{ID: "task_c", Status: task.StatusCompleted, Progress: 100, CompletedAt: &future},
		&task.Task{ID: "task_d", Status: task.StatusBlocked, Progress: 300},
		&task.Task{ID: "task_e", Status: task.StatusInProgress, BlockedReason: ptr("stale"), EstimateMinutes: ptr(1), ActualMinutes: 60},
	)

	first := Scan(c, now)
	require.NotEmpty(t, first.Fixes)

	second := Scan(c, now)
	assert.Empty(t, second.Fixes)
	assert.Empty(t, second.Modified)
	// Only the report-only anomaly survives.
	assert.Equal(t, []string{"Time anomaly: task_e actual=60m vs estimate=1m (60.0x)"}, second.Issues)
}
