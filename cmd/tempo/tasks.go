package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abatilo/tempo/internal/engine"
	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/task"
)

// setProgressCmd implements 'tempo set-progress'.
func setProgressCmd() *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "set-progress <task_id> <progress>",
		Short: "Set task progress (0-100)",
		Args:  cobra.ExactArgs(2), //nolint:mnd // CLI takes 2 positional args
		Run: func(_ *cobra.Command, args []string) {
			progress, err := parseInt("progress", args[1])
			if err != nil {
				printError(err)
			}
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, runErr := a.engine.SetProgress(ctx, args[0], progress, note)
				if runErr != nil {
					return "", runErr
				}
				return formatter.FormatProgress(res), nil
			})
		},
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "Note to append to the task")
	return cmd
}

// logTimeCmd implements 'tempo log-time'.
func logTimeCmd() *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "log-time <task_id> <minutes>",
		Short: "Add minutes to a task's actual time",
		Args:  cobra.ExactArgs(2), //nolint:mnd // CLI takes 2 positional args
		Run: func(_ *cobra.Command, args []string) {
			minutes, err := parseInt("minutes", args[1])
			if err != nil {
				printError(err)
			}
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, runErr := a.engine.LogTime(ctx, args[0], minutes, note)
				if runErr != nil {
					return "", runErr
				}
				return formatter.FormatTimeLog(res), nil
			})
		},
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "Note to append to the task")
	return cmd
}

// markBlockedCmd implements 'tempo mark-blocked'.
func markBlockedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-blocked <task_id> <reason>",
		Short: "Mark a task as blocked",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd // id plus a reason of one or more words
		Run: func(_ *cobra.Command, args []string) {
			reason := strings.Join(args[1:], " ")
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, err := a.engine.MarkBlocked(ctx, args[0], reason)
				if err != nil {
					return "", err
				}
				return formatter.FormatStatus(res), nil
			})
		},
	}
}

// unblockCmd implements 'tempo unblock'.
func unblockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <task_id>",
		Short: "Return a task to pending and clear its block reason",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, err := a.engine.Unblock(ctx, args[0])
				if err != nil {
					return "", err
				}
				return formatter.FormatStatus(res), nil
			})
		},
	}
}

// taskFlags are the creation flags shared by add-task and create-recurring.
type taskFlags struct {
	priority string
	estimate int
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.priority, "priority", "p", string(task.PriorityMedium), "Priority (high, medium, low)")
	cmd.Flags().IntVarP(&f.estimate, "estimate", "e", 0, "Estimated minutes")
}

func (f *taskFlags) newTask(cmd *cobra.Command, goalID, title string) engine.NewTask {
	n := engine.NewTask{
		GoalID:   goalID,
		Title:    title,
		Priority: task.Priority(f.priority),
	}
	if cmd.Flags().Changed("estimate") {
		estimate := f.estimate
		n.EstimateMinutes = &estimate
	}
	return n
}

// createRecurringCmd implements 'tempo create-recurring'.
func createRecurringCmd() *cobra.Command {
	var (
		flags     taskFlags
		recurring string
	)
	cmd := &cobra.Command{
		Use:   "create-recurring <goal_id> <title>",
		Short: "Create a recurring task under a goal",
		Args:  cobra.ExactArgs(2), //nolint:mnd // CLI takes 2 positional args
		Run: func(cmd *cobra.Command, args []string) {
			n := flags.newTask(cmd, args[0], args[1])
			n.Recurring = task.Recurrence(recurring)
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, err := a.engine.CreateRecurring(ctx, n)
				if err != nil {
					return "", err
				}
				return formatter.FormatTask(res.Task), nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&recurring, "recurring", "r", string(task.RecurWeekly),
		"Repeat pattern (daily, weekly, monthly, after_completion)")
	return cmd
}

// advanceRecurringCmd implements 'tempo advance-recurring'.
func advanceRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance-recurring <task_id>",
		Short: "Complete a finished recurring task and schedule the next instance",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, err := a.engine.AdvanceRecurring(ctx, args[0])
				if err != nil {
					return "", err
				}
				return formatter.FormatRollover(res), nil
			})
		},
	}
}

// addGoalCmd implements 'tempo add-goal'.
func addGoalCmd() *cobra.Command {
	var priority string
	cmd := &cobra.Command{
		Use:   "add-goal <title>",
		Short: "Add a goal",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			p := task.Priority(priority)
			if !task.IsValidPriority(p) {
				printError(tempoerrors.InvalidArgumentError{
					Field:  "priority",
					Value:  priority,
					Reason: "must be one of high, medium, low",
				})
			}
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, err := a.engine.AddGoal(ctx, args[0], p)
				if err != nil {
					return "", err
				}
				return formatter.FormatGoal(res.Goal), nil
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", string(task.PriorityMedium), "Priority (high, medium, low)")
	return cmd
}

// addTaskCmd implements 'tempo add-task'.
func addTaskCmd() *cobra.Command {
	var flags taskFlags
	cmd := &cobra.Command{
		Use:   "add-task <goal_id> <title>",
		Short: "Add a task under a goal",
		Args:  cobra.ExactArgs(2), //nolint:mnd // CLI takes 2 positional args
		Run: func(cmd *cobra.Command, args []string) {
			n := flags.newTask(cmd, args[0], args[1])
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, err := a.engine.AddTask(ctx, n)
				if err != nil {
					return "", err
				}
				return formatter.FormatTask(res.Task), nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}
