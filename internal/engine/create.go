package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/task"
	"github.com/abatilo/tempo/internal/wal"
)

const (
	bufferCreated  = "TASK_CREATED"
	bufferRollover = "RECURRING"
)

// Keys dropped from a rolled-over task's successor along with its completion state.
var rolloverDroppedKeys = []string{"last_error", "retry_count"}

// NewTask describes a task to create.
type NewTask struct {
	GoalID          string
	Title           string
	Priority        task.Priority
	EstimateMinutes *int
	// Recurring is only used by CreateRecurring.
	Recurring task.Recurrence
}

func (n *NewTask) validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return tempoerrors.InvalidArgumentError{Field: "title", Reason: "must not be empty"}
	}
	if n.Priority == "" {
		n.Priority = task.PriorityMedium
	}
	if !task.IsValidPriority(n.Priority) {
		return tempoerrors.InvalidArgumentError{
			Field:  "priority",
			Value:  string(n.Priority),
			Reason: "must be one of high, medium, low",
		}
	}
	if n.EstimateMinutes != nil && *n.EstimateMinutes < 0 {
		return tempoerrors.InvalidArgumentError{
			Field:  "estimate",
			Value:  strconv.Itoa(*n.EstimateMinutes),
			Reason: "must not be negative",
		}
	}
	return nil
}

func (n *NewTask) build(id string, now time.Time) *task.Task {
	t := &task.Task{
		ID:        id,
		GoalID:    n.GoalID,
		Title:     n.Title,
		Priority:  n.Priority,
		Status:    task.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if n.EstimateMinutes != nil {
		v := *n.EstimateMinutes
		t.EstimateMinutes = &v
	}
	return t
}

// AddGoal creates a goal.
func (e *Engine) AddGoal(ctx context.Context, title string, priority task.Priority) (*GoalResult, error) {
	if strings.TrimSpace(title) == "" {
		return nil, tempoerrors.InvalidArgumentError{Field: "title", Reason: "must not be empty"}
	}
	if priority == "" {
		priority = task.PriorityMedium
	}
	if !task.IsValidPriority(priority) {
		return nil, tempoerrors.InvalidArgumentError{
			Field:  "priority",
			Value:  string(priority),
			Reason: "must be one of high, medium, low",
		}
	}

	var res *GoalResult
	err := e.run(ctx, func(c *task.Collection, now time.Time) (bool, error) {
		g := &task.Goal{ID: e.generateID(c, task.PrefixGoal), Title: title, Priority: priority}
		if err := e.journalAppend(wal.EventGoalCreated, map[string]any{
			"goal_id":   g.ID,
			"title":     g.Title,
			"priority":  string(g.Priority),
			"timestamp": task.FormatTime(now),
		}, now); err != nil {
			return false, err
		}
		c.Goals = append(c.Goals, g)
		res = &GoalResult{Goal: g}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AddTask creates a one-off pending task under an existing goal.
func (e *Engine) AddTask(ctx context.Context, n NewTask) (*TaskResult, error) {
	n.Recurring = ""
	return e.createTask(ctx, n, "Task created")
}

// CreateRecurring creates a recurring task under an existing goal, due now.
func (e *Engine) CreateRecurring(ctx context.Context, n NewTask) (*TaskResult, error) {
	if !task.IsValidRecurrence(n.Recurring) {
		return nil, tempoerrors.InvalidArgumentError{
			Field:  "recurring",
			Value:  string(n.Recurring),
			Reason: "must be one of daily, weekly, monthly, after_completion",
		}
	}
	return e.createTask(ctx, n, "Recurring task created")
}

func (e *Engine) createTask(ctx context.Context, n NewTask, action string) (*TaskResult, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}

	var (
		res *TaskResult
		ch  Change
	)
	err := e.mutate(ctx, &ch, func(c *task.Collection, now time.Time) (bool, error) {
		if _, err := e.findGoal(c, n.GoalID); err != nil {
			return false, err
		}

		t := n.build(e.generateID(c, task.PrefixTask), now)
		content := map[string]any{
			"task_id":   t.ID,
			"goal_id":   t.GoalID,
			"title":     t.Title,
			"timestamp": task.FormatTime(now),
		}
		if n.Recurring != "" {
			kind := n.Recurring
			t.Recurring = &kind
			due := now
			t.NextDueAt = &due
			content["recurring"] = string(kind)
		}
		if err := e.journalAppend(wal.EventTaskCreated, content, now); err != nil {
			return false, err
		}

		c.Tasks = append(c.Tasks, t)
		res = &TaskResult{Task: t}
		ch = change(c, t, bufferCreated, t.ID+": "+t.Title, action, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AdvanceRecurring completes a fully progressed recurring task and creates its
// next occurrence. Both are saved together.
func (e *Engine) AdvanceRecurring(ctx context.Context, taskID string) (*RolloverResult, error) {
	var (
		res *RolloverResult
		ch  Change
	)
	err := e.mutate(ctx, &ch, func(c *task.Collection, now time.Time) (bool, error) {
		t, err := e.findTask(c, taskID)
		if err != nil {
			return false, err
		}
		if !t.IsRecurring() {
			return false, tempoerrors.NotRecurringError{ID: t.ID}
		}
		if t.Progress < 100 {
			return false, tempoerrors.IncompleteTaskError{ID: t.ID, Progress: t.Progress}
		}

		nextID := e.generateID(c, task.PrefixTask)
		due := now.Add(t.Recurring.Interval())
		if err = e.journalAppend(wal.EventRecurringAdvance, map[string]any{
			"task_id":      t.ID,
			"next_task_id": nextID,
			"recurring":    string(*t.Recurring),
			"next_due_at":  task.FormatTime(due),
			"timestamp":    task.FormatTime(now),
		}, now); err != nil {
			return false, err
		}

		stamp := now
		t.Status = task.StatusCompleted
		t.CompletedAt = &stamp
		t.Progress = 100
		t.BlockedReason = nil
		t.UpdatedAt = now

		next := successor(t, nextID, now, due)
		c.Tasks = append(c.Tasks, next)

		res = &RolloverResult{Completed: t, Next: next}
		ch = change(c, next, bufferRollover,
			fmt.Sprintf("%s completed, next occurrence %s due %s", t.ID, next.ID, task.FormatTime(due)),
			"Next occurrence created: "+next.ID,
			now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// successor clones a completed recurring task into its next pending occurrence.
func successor(t *task.Task, id string, now, due time.Time) *task.Task {
	next := t.Clone()
	next.ID = id
	next.Status = task.StatusPending
	next.Progress = 0
	next.ActualMinutes = 0
	next.TimeVariancePercent = nil
	next.CreatedAt = now
	next.UpdatedAt = now
	next.NextDueAt = &due
	next.CompletedAt = nil
	next.BlockedReason = nil
	next.Malformed = nil
	for _, k := range rolloverDroppedKeys {
		delete(next.Extra, k)
	}
	if len(next.Extra) == 0 {
		next.Extra = nil
	}
	return next
}
