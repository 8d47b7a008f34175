package engine

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/health"
	"github.com/abatilo/tempo/internal/task"
	"github.com/abatilo/tempo/internal/velocity"
	"github.com/abatilo/tempo/internal/wal"
)

// HealthCheck scans every task, applies the automatic repairs and saves them in
// one write. The log records only the counts.
func (e *Engine) HealthCheck(ctx context.Context) (*HealthResult, error) {
	var res *HealthResult
	err := e.run(ctx, func(c *task.Collection, now time.Time) (bool, error) {
		report := health.Scan(c, now)
		for _, id := range report.Modified {
			if t := c.FindTask(id); t != nil {
				t.UpdatedAt = now
			}
		}

		if err := e.journalAppend(wal.EventHealthCheck, map[string]any{
			"issues_found":       len(report.Issues),
			"auto_fixes_applied": len(report.Fixes),
			"timestamp":          task.FormatTime(now),
		}, now); err != nil {
			return false, err
		}

		if len(report.Issues) > 0 {
			e.logger.Info("health check found issues",
				zap.Int("issues", len(report.Issues)),
				zap.Int("fixes", len(report.Fixes)),
			)
		}
		res = &HealthResult{
			HealthStatus: report.Status(),
			Issues:       report.Issues,
			AutoFixes:    report.Fixes,
			Summary:      report.Summary(),
		}
		return report.Changed(), nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Velocity reports the completion rate of a goal's tasks.
func (e *Engine) Velocity(ctx context.Context, goalID string) (*velocity.Report, error) {
	var res *velocity.Report
	err := e.run(ctx, func(c *task.Collection, _ time.Time) (bool, error) {
		r, err := velocity.Compute(c, goalID)
		if err != nil {
			return false, err
		}
		res = r
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Status task.Status
	GoalID string
}

// List returns the matching tasks, highest priority first, then oldest first.
func (e *Engine) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	if f.Status != "" && !task.IsValidStatus(f.Status) {
		return nil, tempoerrors.InvalidArgumentError{
			Field:  "status",
			Value:  string(f.Status),
			Reason: "must be one of pending, in_progress, blocked, completed",
		}
	}

	res := &ListResult{Tasks: []*task.Task{}}
	err := e.run(ctx, func(c *task.Collection, _ time.Time) (bool, error) {
		if f.GoalID != "" {
			if _, err := e.findGoal(c, f.GoalID); err != nil {
				return false, err
			}
		}
		for _, t := range c.Tasks {
			if f.Status != "" && t.Status != f.Status {
				continue
			}
			if f.GoalID != "" && t.GoalID != f.GoalID {
				continue
			}
			res.Tasks = append(res.Tasks, t)
		}
		sort.SliceStable(res.Tasks, func(i, j int) bool {
			pi := task.PriorityOrder(res.Tasks[i].Priority)
			pj := task.PriorityOrder(res.Tasks[j].Priority)
			if pi != pj {
				return pi < pj
			}
			return res.Tasks[i].CreatedAt.Before(res.Tasks[j].CreatedAt)
		})
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Show returns a task with its goal, if the goal resolves.
func (e *Engine) Show(ctx context.Context, taskID string) (*ShowResult, error) {
	var res *ShowResult
	err := e.run(ctx, func(c *task.Collection, _ time.Time) (bool, error) {
		t, err := e.findTask(c, taskID)
		if err != nil {
			return false, err
		}
		res = &ShowResult{Task: t, Goal: c.FindGoal(t.GoalID)}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
