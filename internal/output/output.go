package output

import (
	"github.com/abatilo/tempo/internal/engine"
	"github.com/abatilo/tempo/internal/session"
	"github.com/abatilo/tempo/internal/task"
	"github.com/abatilo/tempo/internal/velocity"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	FormatProgress(r *engine.ProgressResult) string
	FormatTimeLog(r *engine.TimeLogResult) string
	FormatStatus(r *engine.StatusResult) string
	FormatTask(t *task.Task) string
	FormatShow(r *engine.ShowResult) string
	FormatGoal(g *task.Goal) string
	FormatTaskList(tasks []*task.Task) string
	FormatRollover(r *engine.RolloverResult) string
	FormatHealth(r *engine.HealthResult) string
	FormatVelocity(r *velocity.Report) string
	FormatFlush(r *session.FlushResult) string
	FormatMessage(msg string) string
	FormatError(err error) string
}
