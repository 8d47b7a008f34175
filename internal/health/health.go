// Package health detects and repairs tasks that violate the store's invariants.
package health

import (
	"fmt"
	"time"

	"github.com/abatilo/tempo/internal/task"
)

const (
	// StatusHealthy is reported when a scan finds nothing.
	StatusHealthy = "healthy"
	// StatusIssuesFound is reported when a scan finds at least one issue.
	StatusIssuesFound = "issues_found"

	// DefaultBlockedReason fills in a blocked task that lost its reason.
	DefaultBlockedReason = "No reason specified"

	anomalyFactor = 10
)

// Report is the outcome of one scan.
type Report struct {
	Issues []string
	Fixes  []string
	// Modified holds the IDs of tasks changed by a fix, in scan order.
	Modified []string
}

// Status returns StatusHealthy or StatusIssuesFound.
func (r *Report) Status() string {
	if len(r.Issues) == 0 {
		return StatusHealthy
	}
	return StatusIssuesFound
}

// Summary returns a one-line description of the scan.
func (r *Report) Summary() string {
	return fmt.Sprintf("Found %d issues, auto-fixed %d", len(r.Issues), len(r.Fixes))
}

// Changed reports whether any fix was applied.
func (r *Report) Changed() bool {
	return len(r.Fixes) > 0
}

// Scan checks every task in c, repairing in place what can be repaired.
// Each check runs independently, so one task may contribute several issues.
// Running Scan again on its own output applies no further fixes.
func Scan(c *task.Collection, now time.Time) *Report {
	now = now.UTC()
	r := &Report{Issues: []string{}, Fixes: []string{}}
	for _, t := range c.Tasks {
		before := len(r.Fixes)
		r.scanTask(t, now)
		if len(r.Fixes) > before {
			r.Modified = append(r.Modified, t.ID)
		}
	}
	return r
}

func (r *Report) issue(format string, args ...any) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

func (r *Report) fix(format string, args ...any) {
	r.Fixes = append(r.Fixes, fmt.Sprintf(format, args...))
}

func (r *Report) scanTask(t *task.Task, now time.Time) {
	id := t.ID
	if id == "" {
		id = "unknown"
	}

	// A recurring task must belong to a goal.
	if t.Recurring != nil && *t.Recurring != "" && t.GoalID == "" {
		r.issue("Orphaned recurring task: %s", id)
		t.Recurring = nil
		r.fix("Removed recurring flag from %s", id)
	}

	if t.Status == task.StatusCompleted && t.Progress < 100 {
		r.issue("Impossible state: %s completed but progress=%d%%", id, t.Progress)
		t.Progress = 100
		r.fix("Set progress=100%% for completed task %s", id)
	}

	if t.Status == task.StatusCompleted && t.CompletedAt == nil {
		r.issue("Inconsistent completion: %s status=completed but no completed_at", id)
		stamp := now
		t.CompletedAt = &stamp
		r.fix("Added completed_at timestamp to %s", id)
	}

	// Overruns are reported only; whether the estimate or the log is wrong needs a human.
	r.checkTimeAnomaly(t, id)

	if t.Status == task.StatusCompleted && t.CompletedAt != nil && t.CompletedAt.After(now) {
		r.issue("Bad date: %s completed_at=%s is in future", id, task.FormatTime(*t.CompletedAt))
		stamp := now
		t.CompletedAt = &stamp
		r.fix("Reset completed_at for %s", id)
	}

	if t.Progress < 0 || t.Progress > 100 {
		clamped := min(max(t.Progress, 0), 100)
		r.issue("Progress out of range: %s progress=%d%%", id, t.Progress)
		t.Progress = clamped
		r.fix("Clamped progress to %d%% for %s", clamped, id)
	}

	if t.Status == task.StatusBlocked && (t.BlockedReason == nil || *t.BlockedReason == "") {
		r.issue("Missing block reason: %s status=blocked but no blocked_reason", id)
		reason := DefaultBlockedReason
		t.BlockedReason = &reason
		r.fix("Set blocked_reason for %s", id)
	}

	if t.Status != task.StatusBlocked && t.BlockedReason != nil {
		r.issue("Stale block reason: %s status=%s but blocked_reason is set", id, t.Status)
		t.BlockedReason = nil
		r.fix("Cleared blocked_reason from %s", id)
	}
}

// checkTimeAnomaly flags actual time beyond ten times the estimate.
// An absent estimate counts as one minute.
func (r *Report) checkTimeAnomaly(t *task.Task, id string) {
	estimate := 1
	label := "none"
	if t.EstimateMinutes != nil {
		estimate = *t.EstimateMinutes
		label = fmt.Sprintf("%dm", estimate)
	}
	if t.ActualMinutes <= estimate*anomalyFactor {
		return
	}
	if estimate <= 0 {
		r.issue("Time anomaly: %s actual=%dm vs estimate=%s", id, t.ActualMinutes, label)
		return
	}
	ratio := float64(t.ActualMinutes) / float64(estimate)
	r.issue("Time anomaly: %s actual=%dm vs estimate=%s (%.1fx)", id, t.ActualMinutes, label, ratio)
}
