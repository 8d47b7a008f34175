//nolint:revive // Package name intentionally matches stdlib for domain clarity
package errors

import (
	stderrors "errors"
	"fmt"
)

// TaskNotFoundError indicates no task has the given ID.
type TaskNotFoundError struct {
	ID string
}

func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// GoalNotFoundError indicates no goal has the given ID.
type GoalNotFoundError struct {
	ID string
}

func (e GoalNotFoundError) Error() string {
	return fmt.Sprintf("goal not found: %s", e.ID)
}

// InvalidArgumentError indicates an input failed validation.
type InvalidArgumentError struct {
	Field  string
	Value  string
	Reason string
}

func (e InvalidArgumentError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NotRecurringError indicates a rollover was requested for a non-recurring task.
type NotRecurringError struct {
	ID string
}

func (e NotRecurringError) Error() string {
	return fmt.Sprintf("task %s is not recurring", e.ID)
}

// IncompleteTaskError indicates a rollover was requested below 100% progress.
type IncompleteTaskError struct {
	ID       string
	Progress int
}

func (e IncompleteTaskError) Error() string {
	return fmt.Sprintf(
		"task %s must be 100%% complete before creating next occurrence (current: %d%%)",
		e.ID,
		e.Progress,
	)
}

// StoreCorruptError describes a store document that could not be used as-is.
// It is recoverable: the store falls back to an empty collection.
type StoreCorruptError struct {
	Path   string
	Reason string
}

func (e StoreCorruptError) Error() string {
	return fmt.Sprintf("store %s is corrupt: %s", e.Path, e.Reason)
}

// StoreIOError indicates reading or writing the store failed.
type StoreIOError struct {
	Op   string
	Path string
	Err  error
}

func (e StoreIOError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e StoreIOError) Unwrap() error {
	return e.Err
}

// LockTimeoutError indicates the store lock could not be acquired in time.
type LockTimeoutError struct {
	Path string
}

func (e LockTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for store lock %s (another tempo process is running?)", e.Path)
}

// Kind returns the taxonomy name for err, or "Internal" for unclassified errors.
func Kind(err error) string {
	switch {
	case stderrors.As(err, new(TaskNotFoundError)):
		return "TaskNotFound"
	case stderrors.As(err, new(GoalNotFoundError)):
		return "GoalNotFound"
	case stderrors.As(err, new(InvalidArgumentError)):
		return "InvalidArgument"
	case stderrors.As(err, new(NotRecurringError)):
		return "NotRecurring"
	case stderrors.As(err, new(IncompleteTaskError)):
		return "IncompleteTask"
	case stderrors.As(err, new(StoreCorruptError)):
		return "StoreCorrupt"
	case stderrors.As(err, new(LockTimeoutError)):
		return "LockTimeout"
	case stderrors.As(err, new(StoreIOError)):
		return "StoreIOFailure"
	default:
		return "Internal"
	}
}
