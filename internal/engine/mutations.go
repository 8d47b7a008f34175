package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/task"
	"github.com/abatilo/tempo/internal/wal"
)

// Buffer event names.
const (
	bufferProgress = "PROGRESS"
	bufferTimeLog  = "TIME_LOG"
	bufferBlocked  = "BLOCKED"
	bufferUnblock  = "UNBLOCKED"
)

// SetProgress sets a task's completion percentage.
//
// Reaching 100 completes the task only when it was in progress. Any positive
// progress moves a pending task to in progress, so a pending task set straight
// to 100 ends up in progress, not completed. Lowering a completed task below 100
// reopens it as in progress.
func (e *Engine) SetProgress(ctx context.Context, taskID string, progress int, note string) (*ProgressResult, error) {
	var (
		res *ProgressResult
		ch  Change
	)
	err := e.mutate(ctx, &ch, func(c *task.Collection, now time.Time) (bool, error) {
		t, err := e.findTask(c, taskID)
		if err != nil {
			return false, err
		}
		if progress < 0 || progress > 100 {
			return false, tempoerrors.InvalidArgumentError{
				Field:  "progress",
				Value:  strconv.Itoa(progress),
				Reason: "must be between 0 and 100",
			}
		}

		old := t.Progress
		if err = e.journalAppend(wal.EventProgressChange, map[string]any{
			"task_id":      t.ID,
			"old_progress": old,
			"new_progress": progress,
			"timestamp":    task.FormatTime(now),
		}, now); err != nil {
			return false, err
		}

		t.Progress = progress
		t.AppendNote(note)
		switch {
		case progress == 100 && t.Status == task.StatusInProgress:
			t.Status = task.StatusCompleted
			stamp := now
			t.CompletedAt = &stamp
		case progress > 0 && t.Status == task.StatusPending:
			t.Status = task.StatusInProgress
		case progress < 100 && t.Status == task.StatusCompleted:
			t.Status = task.StatusInProgress
			t.CompletedAt = nil
		}
		t.UpdatedAt = now

		delta := fmt.Sprintf("%d%% → %d%%", old, progress)
		res = &ProgressResult{Task: t, ProgressChange: delta}
		ch = change(c, t, bufferProgress, t.ID+": "+delta, "Progress marked: "+delta, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// LogTime adds minutes to a task's actual time. Negative minutes are accepted
// and reduce the total.
func (e *Engine) LogTime(ctx context.Context, taskID string, minutes int, note string) (*TimeLogResult, error) {
	var (
		res *TimeLogResult
		ch  Change
	)
	err := e.mutate(ctx, &ch, func(c *task.Collection, now time.Time) (bool, error) {
		t, err := e.findTask(c, taskID)
		if err != nil {
			return false, err
		}

		oldTotal := t.ActualMinutes
		newTotal := oldTotal + minutes
		if err = e.journalAppend(wal.EventTimeLog, map[string]any{
			"task_id":        t.ID,
			"minutes_logged": minutes,
			"old_total":      oldTotal,
			"new_total":      newTotal,
			"timestamp":      task.FormatTime(now),
		}, now); err != nil {
			return false, err
		}

		t.ActualMinutes = newTotal
		t.AppendNote(note)
		if t.EstimateMinutes != nil && *t.EstimateMinutes > 0 {
			variance := Variance(newTotal, *t.EstimateMinutes)
			t.TimeVariancePercent = &variance
		}
		if t.Status == task.StatusPending && newTotal > 0 {
			t.Status = task.StatusInProgress
		}
		t.UpdatedAt = now

		res = &TimeLogResult{
			Task:        t,
			TimeLogged:  minutes,
			TotalActual: newTotal,
			Estimate:    t.EstimateMinutes,
			Pace:        t.Pace(),
		}
		if t.TimeVariancePercent != nil {
			res.Variance = fmt.Sprintf("%.1f%% vs estimate", *t.TimeVariancePercent)
		}
		ch = change(c, t, bufferTimeLog,
			fmt.Sprintf("%s: %+d min (total: %d min)", t.ID, minutes, newTotal),
			fmt.Sprintf("Logged %d min (total: %d min)", minutes, newTotal),
			now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Variance returns the percentage by which actual exceeds estimate, rounded to
// one decimal place. estimate must be positive.
func Variance(actual, estimate int) float64 {
	v := float64(actual-estimate) / float64(estimate) * 100
	return math.Round(v*10) / 10
}

// MarkBlocked blocks a task with a reason. Blocking an already blocked task
// replaces the reason.
func (e *Engine) MarkBlocked(ctx context.Context, taskID, reason string) (*StatusResult, error) {
	var (
		res *StatusResult
		ch  Change
	)
	err := e.mutate(ctx, &ch, func(c *task.Collection, now time.Time) (bool, error) {
		t, err := e.findTask(c, taskID)
		if err != nil {
			return false, err
		}
		if strings.TrimSpace(reason) == "" {
			return false, tempoerrors.InvalidArgumentError{Field: "reason", Reason: "must not be empty"}
		}

		old := t.Status
		if err = e.journalAppend(wal.EventStatusChange, map[string]any{
			"task_id":    t.ID,
			"old_status": string(old),
			"new_status": string(task.StatusBlocked),
			"reason":     reason,
			"timestamp":  task.FormatTime(now),
		}, now); err != nil {
			return false, err
		}

		t.Status = task.StatusBlocked
		r := reason
		t.BlockedReason = &r
		t.UpdatedAt = now

		res = &StatusResult{Task: t, StatusChange: statusChange(old, t.Status), Reason: reason}
		ch = change(c, t, bufferBlocked, t.ID+": "+reason, "BLOCKED: "+reason, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Unblock returns a task to pending and clears its reason, regardless of its
// progress.
func (e *Engine) Unblock(ctx context.Context, taskID string) (*StatusResult, error) {
	var (
		res *StatusResult
		ch  Change
	)
	err := e.mutate(ctx, &ch, func(c *task.Collection, now time.Time) (bool, error) {
		t, err := e.findTask(c, taskID)
		if err != nil {
			return false, err
		}

		old := t.Status
		if err = e.journalAppend(wal.EventStatusChange, map[string]any{
			"task_id":    t.ID,
			"old_status": string(old),
			"new_status": string(task.StatusPending),
			"timestamp":  task.FormatTime(now),
		}, now); err != nil {
			return false, err
		}

		t.Status = task.StatusPending
		t.BlockedReason = nil
		t.UpdatedAt = now

		res = &StatusResult{Task: t, StatusChange: statusChange(old, t.Status)}
		ch = change(c, t, bufferUnblock, t.ID+": "+res.StatusChange, "Unblocked, ready to resume", now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func statusChange(from, to task.Status) string {
	if from == "" {
		from = task.StatusPending
	}
	return fmt.Sprintf("%s → %s", from, to)
}
