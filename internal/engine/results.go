package engine

import (
	"github.com/abatilo/tempo/internal/task"
)

// ProgressResult is returned by SetProgress.
type ProgressResult struct {
	Task           *task.Task `json:"task"`
	ProgressChange string     `json:"progress_change"`
}

// TimeLogResult is returned by LogTime.
type TimeLogResult struct {
	Task        *task.Task `json:"task"`
	TimeLogged  int        `json:"time_logged"`
	TotalActual int        `json:"total_actual"`
	Estimate    *int       `json:"estimate"`
	Variance    string     `json:"variance,omitempty"`
	Pace        string     `json:"pace,omitempty"`
}

// StatusResult is returned by MarkBlocked and Unblock.
type StatusResult struct {
	Task         *task.Task `json:"task"`
	StatusChange string     `json:"status_change"`
	Reason       string     `json:"reason,omitempty"`
}

// TaskResult is returned by task creation.
type TaskResult struct {
	Task *task.Task `json:"task"`
}

// GoalResult is returned by AddGoal.
type GoalResult struct {
	Goal *task.Goal `json:"goal"`
}

// RolloverResult is returned by AdvanceRecurring.
type RolloverResult struct {
	Completed *task.Task `json:"completed"`
	Next      *task.Task `json:"next"`
}

// HealthResult is returned by HealthCheck.
type HealthResult struct {
	HealthStatus string   `json:"health_status"`
	Issues       []string `json:"issues"`
	AutoFixes    []string `json:"auto_fixes"`
	Summary      string   `json:"summary"`
}

// ShowResult is returned by Show.
type ShowResult struct {
	Task *task.Task `json:"task"`
	Goal *task.Goal `json:"goal,omitempty"`
}

// ListResult is returned by List.
type ListResult struct {
	Tasks []*task.Task `json:"tasks"`
}
