package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abatilo/tempo/internal/engine"
	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/session"
	"github.com/abatilo/tempo/internal/task"
	"github.com/abatilo/tempo/internal/velocity"
)

const stampLayout = "2006-01-02 15:04"

var (
	accentColor  = lipgloss.Color("#5FAFAF")
	subtleColor  = lipgloss.Color("#666666")
	successColor = lipgloss.Color("#87AF87")
	warnColor    = lipgloss.Color("#D7AF5F")
	errorColor   = lipgloss.Color("#AF5F5F")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	subtleStyle  = lipgloss.NewStyle().Foreground(subtleColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
)

// HumanFormatter formats output for human-readable terminal display.
type HumanFormatter struct{}

// NewHumanFormatter creates a new HumanFormatter.
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// FormatTask formats a single task for display.
func (f *HumanFormatter) FormatTask(t *task.Task) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("[%s] %s", t.ID, t.Title)) + "\n")
	fmt.Fprintf(&sb, "  Status:   %s\n", f.statusText(t.Status))
	fmt.Fprintf(&sb, "  Priority: %s\n", t.Priority)
	fmt.Fprintf(&sb, "  Progress: %s\n", f.progressBar(t.Progress))
	if t.GoalID != "" {
		fmt.Fprintf(&sb, "  Goal:     %s\n", t.GoalID)
	}

	timeLine := fmt.Sprintf("%d min", t.ActualMinutes)
	if t.EstimateMinutes != nil {
		timeLine += fmt.Sprintf(" of %d min", *t.EstimateMinutes)
	}
	if pace := t.Pace(); pace != "" {
		timeLine += subtleStyle.Render(" (" + pace + ")")
	}
	fmt.Fprintf(&sb, "  Time:     %s\n", timeLine)

	if t.IsRecurring() {
		due := ""
		if t.NextDueAt != nil {
			due = ", due " + t.NextDueAt.Format(stampLayout)
		}
		fmt.Fprintf(&sb, "  Repeats:  %s%s\n", *t.Recurring, due)
	}
	if t.BlockedReason != nil && *t.BlockedReason != "" {
		fmt.Fprintf(&sb, "  Blocked:  %s\n", warnStyle.Render(*t.BlockedReason))
	}
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "  Created:  %s\n", t.CreatedAt.Format(stampLayout))
	}
	if t.CompletedAt != nil {
		fmt.Fprintf(&sb, "  Done:     %s\n", t.CompletedAt.Format(stampLayout))
	}
	if t.Notes != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Notes)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatShow formats a task followed by its goal.
func (f *HumanFormatter) FormatShow(r *engine.ShowResult) string {
	out := f.FormatTask(r.Task)
	if r.Goal != nil {
		out += subtleStyle.Render(fmt.Sprintf("  Goal:     %s (%s priority)", r.Goal.Title, r.Goal.Priority)) + "\n"
	}
	return out
}

// FormatProgress formats a progress update.
func (f *HumanFormatter) FormatProgress(r *engine.ProgressResult) string {
	return successStyle.Render("Progress "+r.ProgressChange) + "\n" + f.FormatTask(r.Task)
}

// FormatTimeLog formats a time log.
func (f *HumanFormatter) FormatTimeLog(r *engine.TimeLogResult) string {
	line := fmt.Sprintf("Logged %d min (total: %d min)", r.TimeLogged, r.TotalActual)
	if r.Variance != "" {
		line += ", " + r.Variance
	}
	return successStyle.Render(line) + "\n" + f.FormatTask(r.Task)
}

// FormatStatus formats a status change.
func (f *HumanFormatter) FormatStatus(r *engine.StatusResult) string {
	return successStyle.Render("Status "+r.StatusChange) + "\n" + f.FormatTask(r.Task)
}

// FormatGoal formats a goal.
func (f *HumanFormatter) FormatGoal(g *task.Goal) string {
	return titleStyle.Render(fmt.Sprintf("[%s] %s", g.ID, g.Title)) +
		fmt.Sprintf("\n  Priority: %s\n", g.Priority)
}

// FormatTaskList formats a list of tasks for display.
func (f *HumanFormatter) FormatTaskList(tasks []*task.Task) string {
	if len(tasks) == 0 {
		return "No tasks found.\n"
	}

	var sb strings.Builder
	for _, t := range tasks {
		sb.WriteString(f.formatTaskLine(t))
	}
	return sb.String()
}

// formatTaskLine formats a single task as a compact one-liner.
func (f *HumanFormatter) formatTaskLine(t *task.Task) string {
	line := fmt.Sprintf("%s %s [%s] %s %3d%%", f.statusIcon(t.Status), f.priorityMark(t.Priority), t.ID, t.Title, t.Progress)
	if t.Status == task.StatusBlocked && t.BlockedReason != nil {
		line += warnStyle.Render(" [blocked: " + *t.BlockedReason + "]")
	}
	return line + "\n"
}

// FormatRollover formats a recurring rollover.
func (f *HumanFormatter) FormatRollover(r *engine.RolloverResult) string {
	var sb strings.Builder
	sb.WriteString(successStyle.Render(fmt.Sprintf("Completed %s", r.Completed.ID)) + "\n")
	sb.WriteString(f.FormatTask(r.Next))
	return sb.String()
}

// FormatHealth formats a health check.
func (f *HumanFormatter) FormatHealth(r *engine.HealthResult) string {
	var sb strings.Builder
	if r.HealthStatus == "healthy" {
		sb.WriteString(successStyle.Render("Healthy: "+r.Summary) + "\n")
		return sb.String()
	}

	sb.WriteString(warnStyle.Render("Issues found: "+r.Summary) + "\n")
	for _, issue := range r.Issues {
		fmt.Fprintf(&sb, "  ! %s\n", issue)
	}
	if len(r.AutoFixes) > 0 {
		sb.WriteString(titleStyle.Render("Auto-fixes") + "\n")
		for _, fix := range r.AutoFixes {
			fmt.Fprintf(&sb, "  + %s\n", fix)
		}
	}
	return sb.String()
}

// FormatVelocity formats a velocity report.
func (f *HumanFormatter) FormatVelocity(r *velocity.Report) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Velocity for "+r.GoalID) + "\n")
	fmt.Fprintf(&sb, "  Completed:  %d\n", r.Completed)
	fmt.Fprintf(&sb, "  Remaining:  %d\n", r.Remaining)
	fmt.Fprintf(&sb, "  Days:       %d\n", r.DaysTracked)
	fmt.Fprintf(&sb, "  Velocity:   %.2f tasks/day\n", r.VelocityTasksPerDay)
	fmt.Fprintf(&sb, "  Projection: %.1f days to completion\n", r.EstimatedDaysToCompletion)
	for _, d := range r.CompletionsByDay {
		sb.WriteString(subtleStyle.Render(fmt.Sprintf("    %s  %s", d.Date, strings.Repeat("#", d.Count))) + "\n")
	}
	return sb.String()
}

// FormatFlush formats a buffer flush.
func (f *HumanFormatter) FormatFlush(r *session.FlushResult) string {
	if r.LinesFlushed == 0 {
		return r.Message + "\n"
	}
	return successStyle.Render(fmt.Sprintf("%s (%d lines)", r.Message, r.LinesFlushed)) + "\n"
}

func (f *HumanFormatter) statusIcon(s task.Status) string {
	switch s {
	case task.StatusPending:
		return "[ ]"
	case task.StatusInProgress:
		return "[*]"
	case task.StatusBlocked:
		return "[!]"
	case task.StatusCompleted:
		return "[X]"
	default:
		return "[?]"
	}
}

func (f *HumanFormatter) statusText(s task.Status) string {
	switch s {
	case task.StatusBlocked:
		return warnStyle.Render(string(s))
	case task.StatusCompleted:
		return successStyle.Render(string(s))
	default:
		return string(s)
	}
}

func (f *HumanFormatter) priorityMark(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return "P1"
	case task.PriorityMedium:
		return "P2"
	case task.PriorityLow:
		return "P3"
	default:
		return "P?"
	}
}

const barWidth = 20

func (f *HumanFormatter) progressBar(progress int) string {
	filled := min(max(progress, 0), 100) * barWidth / 100
	return fmt.Sprintf("%s%s %d%%",
		successStyle.Render(strings.Repeat("█", filled)),
		subtleStyle.Render(strings.Repeat("░", barWidth-filled)),
		progress)
}

// FormatError formats an error for display.
func (f *HumanFormatter) FormatError(err error) string {
	return errorStyle.Render(fmt.Sprintf("Error (%s): %s", tempoerrors.Kind(err), err.Error())) + "\n"
}

// FormatMessage formats a simple message.
func (f *HumanFormatter) FormatMessage(msg string) string {
	return msg + "\n"
}
