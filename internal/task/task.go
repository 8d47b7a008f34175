package task

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusCompleted  Status = "completed"
)

// Priority represents the importance level of a goal or task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recurrence is the repeat pattern of a recurring task.
type Recurrence string

const (
	RecurDaily           Recurrence = "daily"
	RecurWeekly          Recurrence = "weekly"
	RecurMonthly         Recurrence = "monthly"
	RecurAfterCompletion Recurrence = "after_completion"
	RecurNone            Recurrence = "none"
)

// PriorityOrder returns the sort order for a priority (lower = higher priority).
func PriorityOrder(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Interval returns how far after a rollover the successor falls due.
// Patterns without a fixed period (after_completion, unknown values) are due immediately.
func (r Recurrence) Interval() time.Duration {
	const day = 24 * time.Hour
	switch r {
	case RecurDaily:
		return day
	case RecurWeekly:
		return 7 * day
	case RecurMonthly:
		return 30 * day //nolint:mnd // a month is a fixed 30 days
	default:
		return 0
	}
}

// Goal groups related tasks.
type Goal struct {
	ID        string
	Title     string
	Priority  Priority
	Extra     map[string]json.RawMessage
	Malformed map[string]json.RawMessage
}

// Task represents a tracked work item. Pointer fields are absent when nil.
// Extra holds unknown keys; Malformed holds known fields whose stored value could
// not be read, written back unchanged until the field is set.
type Task struct {
	ID                  string
	GoalID              string
	Title               string
	Priority            Priority
	Status              Status
	Progress            int
	EstimateMinutes     *int
	ActualMinutes       int
	TimeVariancePercent *float64
	BlockedReason       *string
	Recurring           *Recurrence
	NextDueAt           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CompletedAt         *time.Time
	Notes               string
	Extra               map[string]json.RawMessage
	Malformed           map[string]json.RawMessage
}

// IsRecurring reports whether the task has a repeat pattern other than none.
func (t *Task) IsRecurring() bool {
	return t.Recurring != nil && *t.Recurring != "" && *t.Recurring != RecurNone
}

// AppendNote adds a note on its own line.
func (t *Task) AppendNote(note string) {
	if note == "" {
		return
	}
	if t.Notes == "" {
		t.Notes = note
		return
	}
	t.Notes += "\n" + note
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.EstimateMinutes != nil {
		v := *t.EstimateMinutes
		c.EstimateMinutes = &v
	}
	if t.TimeVariancePercent != nil {
		v := *t.TimeVariancePercent
		c.TimeVariancePercent = &v
	}
	if t.BlockedReason != nil {
		v := *t.BlockedReason
		c.BlockedReason = &v
	}
	if t.Recurring != nil {
		v := *t.Recurring
		c.Recurring = &v
	}
	if t.NextDueAt != nil {
		v := *t.NextDueAt
		c.NextDueAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.Extra != nil {
		c.Extra = maps.Clone(t.Extra)
	}
	if t.Malformed != nil {
		c.Malformed = maps.Clone(t.Malformed)
	}
	return &c
}

// Collection is the full set of goals and tasks held in one store document.
type Collection struct {
	Goals []*Goal
	Tasks []*Task
	Extra map[string]json.RawMessage
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{Goals: []*Goal{}, Tasks: []*Task{}}
}

// FindTask returns the task with the given ID, or nil.
func (c *Collection) FindTask(id string) *Task {
	for _, t := range c.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// FindGoal returns the goal with the given ID, or nil.
func (c *Collection) FindGoal(id string) *Goal {
	if id == "" {
		return nil
	}
	for _, g := range c.Goals {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// TasksForGoal returns the tasks that reference the given goal.
func (c *Collection) TasksForGoal(goalID string) []*Task {
	var tasks []*Task
	for _, t := range c.Tasks {
		if t.GoalID == goalID {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// HasID reports whether any goal or task uses the ID.
func (c *Collection) HasID(id string) bool {
	return c.FindTask(id) != nil || c.FindGoal(id) != nil
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusBlocked, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsValidPriority checks if a priority string is valid.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// IsValidRecurrence checks if a recurrence pattern may be used to create a recurring task.
func IsValidRecurrence(r Recurrence) bool {
	switch r {
	case RecurDaily, RecurWeekly, RecurMonthly, RecurAfterCompletion:
		return true
	default:
		return false
	}
}

// Pace describes actual time against the estimate, or "" when there is no usable estimate.
func (t *Task) Pace() string {
	if t.EstimateMinutes == nil || *t.EstimateMinutes <= 0 {
		return ""
	}
	ratio := float64(t.ActualMinutes) / float64(*t.EstimateMinutes)
	switch {
	case ratio < 1:
		return fmt.Sprintf("%d%% faster than estimate", int((1-ratio)*100))
	case ratio > 1:
		return fmt.Sprintf("%d%% slower than estimate", int((ratio-1)*100))
	default:
		return "on pace with estimate"
	}
}
