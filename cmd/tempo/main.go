package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/output"
)

//nolint:gochecknoglobals // CLI flags and formatter are package-level by design
var (
	dataDir     string
	humanOutput bool
	formatter   output.Formatter = output.NewJSONFormatter()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tempo",
		Short: "Track task progress, time and recurring work",
		Long: "tempo - Track task progress, time spent, blockers and recurring work.\n\n" +
			"Every change is written to a daily write-ahead log before the task store is saved.",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if humanOutput {
				formatter = output.NewHumanFormatter()
			} else {
				formatter = output.NewJSONFormatter()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the task store (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Human-readable output instead of JSON")

	rootCmd.AddCommand(
		initCmd(),
		setProgressCmd(),
		logTimeCmd(),
		markBlockedCmd(),
		unblockCmd(),
		createRecurringCmd(),
		advanceRecurringCmd(),
		velocityCmd(),
		healthCheckCmd(),
		flushBufferCmd(),
		addGoalCmd(),
		addTaskCmd(),
		listCmd(),
		showCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getApp wires the application against the real filesystem.
func getApp(ctx context.Context) (*app, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	return newApp(ctx, afero.NewOsFs(), home, cwd, dataDir)
}

// withApp runs fn against a freshly wired app and prints the result.
func withApp(fn func(ctx context.Context, a *app) (string, error)) {
	ctx := context.Background()
	a, err := getApp(ctx)
	if err != nil {
		printError(err)
	}
	out, err := fn(ctx, a)
	closeErr := a.Close()
	if err != nil {
		printError(err)
	}
	if closeErr != nil {
		a.logger.Warn("failed to close store", zap.Error(closeErr))
	}
	printOutput(out)
}

func printOutput(s string) {
	os.Stdout.WriteString(s) //nolint:gosec // stdout write errors are unrecoverable
}

func printError(err error) {
	os.Stderr.WriteString(formatter.FormatError(err)) //nolint:gosec // stderr write errors are unrecoverable
	os.Exit(1)
}

// parseInt parses a numeric argument, reporting failures as invalid arguments.
func parseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, tempoerrors.InvalidArgumentError{Field: field, Value: value, Reason: "must be an integer"}
	}
	return n, nil
}
