package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/abatilo/tempo/internal/engine"
	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/task"
)

// velocityCmd implements 'tempo velocity'.
func velocityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "velocity <goal_id>",
		Short: "Report completion velocity for a goal",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			withApp(func(ctx context.Context, a *app) (string, error) {
				report, err := a.engine.Velocity(ctx, args[0])
				if err != nil {
					return "", err
				}
				return formatter.FormatVelocity(report), nil
			})
		},
	}
}

// healthCheckCmd implements 'tempo health-check'.
func healthCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health-check",
		Short: "Scan all tasks, repair inconsistencies and report anomalies",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, err := a.engine.HealthCheck(ctx)
				if err != nil {
					return "", err
				}
				return formatter.FormatHealth(res), nil
			})
		},
	}
}

// listCmd implements 'tempo list'.
func listCmd() *cobra.Command {
	var status, goalID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			filter := engine.ListFilter{Status: task.Status(status), GoalID: goalID}
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, err := a.engine.List(ctx, filter)
				if err != nil {
					return "", err
				}
				return formatter.FormatTaskList(res.Tasks), nil
			})
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only tasks with this status (pending, in_progress, blocked, completed)")
	cmd.Flags().StringVarP(&goalID, "goal", "g", "", "Only tasks under this goal")
	return cmd
}

// showCmd implements 'tempo show'. Without an id it shows the task in the
// current state snapshot.
func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [task_id]",
		Short: "Show task details",
		Args:  cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			withApp(func(ctx context.Context, a *app) (string, error) {
				id, err := currentTaskID(a, args)
				if err != nil {
					return "", err
				}
				res, err := a.engine.Show(ctx, id)
				if err != nil {
					return "", err
				}
				return formatter.FormatShow(res), nil
			})
		},
	}
}

func currentTaskID(a *app, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	header, err := a.state.Read()
	if err != nil || header.TaskID == "" {
		return "", tempoerrors.InvalidArgumentError{
			Field:  "task_id",
			Reason: "no task given and no current task in " + a.state.Path(),
		}
	}
	return header.TaskID, nil
}
