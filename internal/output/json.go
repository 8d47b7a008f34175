package output

import (
	"encoding/json"

	"github.com/abatilo/tempo/internal/engine"
	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/session"
	"github.com/abatilo/tempo/internal/task"
	"github.com/abatilo/tempo/internal/velocity"
)

// JSONFormatter formats output as JSON objects carrying a success flag.
type JSONFormatter struct{}

// marshalJSON marshals a value to indented JSON with a trailing newline.
func marshalJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data) + "\n"
}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// FormatProgress formats a progress update.
func (f *JSONFormatter) FormatProgress(r *engine.ProgressResult) string {
	return marshalJSON(struct {
		Success bool `json:"success"`
		*engine.ProgressResult
	}{true, r})
}

// FormatTimeLog formats a time log.
func (f *JSONFormatter) FormatTimeLog(r *engine.TimeLogResult) string {
	return marshalJSON(struct {
		Success bool `json:"success"`
		*engine.TimeLogResult
	}{true, r})
}

// FormatStatus formats a status change.
func (f *JSONFormatter) FormatStatus(r *engine.StatusResult) string {
	return marshalJSON(struct {
		Success bool `json:"success"`
		*engine.StatusResult
	}{true, r})
}

// FormatTask formats a single task.
func (f *JSONFormatter) FormatTask(t *task.Task) string {
	return marshalJSON(struct {
		Success bool       `json:"success"`
		Task    *task.Task `json:"task"`
	}{true, t})
}

// FormatShow formats a task with its goal.
func (f *JSONFormatter) FormatShow(r *engine.ShowResult) string {
	return marshalJSON(struct {
		Success bool `json:"success"`
		*engine.ShowResult
	}{true, r})
}

// FormatGoal formats a goal.
func (f *JSONFormatter) FormatGoal(g *task.Goal) string {
	return marshalJSON(struct {
		Success bool       `json:"success"`
		Goal    *task.Goal `json:"goal"`
	}{true, g})
}

// FormatTaskList formats a list of tasks.
func (f *JSONFormatter) FormatTaskList(tasks []*task.Task) string {
	if tasks == nil {
		tasks = []*task.Task{}
	}
	return marshalJSON(struct {
		Success bool         `json:"success"`
		Tasks   []*task.Task `json:"tasks"`
	}{true, tasks})
}

// FormatRollover formats a recurring rollover.
func (f *JSONFormatter) FormatRollover(r *engine.RolloverResult) string {
	return marshalJSON(struct {
		Success bool `json:"success"`
		*engine.RolloverResult
	}{true, r})
}

// FormatHealth formats a health check.
func (f *JSONFormatter) FormatHealth(r *engine.HealthResult) string {
	return marshalJSON(struct {
		Success bool `json:"success"`
		*engine.HealthResult
	}{true, r})
}

// FormatVelocity formats a velocity report.
func (f *JSONFormatter) FormatVelocity(r *velocity.Report) string {
	return marshalJSON(struct {
		Success bool `json:"success"`
		*velocity.Report
	}{true, r})
}

// FormatFlush formats a buffer flush.
func (f *JSONFormatter) FormatFlush(r *session.FlushResult) string {
	return marshalJSON(struct {
		Success bool `json:"success"`
		*session.FlushResult
	}{true, r})
}

// messageJSON is the JSON representation of a message.
type messageJSON struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// FormatMessage formats a simple message.
func (f *JSONFormatter) FormatMessage(msg string) string {
	return marshalJSON(messageJSON{Success: true, Message: msg})
}

// errorJSON is the JSON representation of an error.
type errorJSON struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind"`
}

// FormatError formats an error with its taxonomy kind.
func (f *JSONFormatter) FormatError(err error) string {
	return marshalJSON(errorJSON{Error: err.Error(), Kind: tempoerrors.Kind(err)})
}
