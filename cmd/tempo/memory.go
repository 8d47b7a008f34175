package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/abatilo/tempo/internal/config"
	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/session"
)

// flushBufferCmd implements 'tempo flush-buffer'.
func flushBufferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush-buffer",
		Short: "Move the working buffer into today's archive",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			withApp(func(ctx context.Context, a *app) (string, error) {
				res, err := flushBuffer(ctx, a, time.Now().UTC())
				if err != nil {
					return "", err
				}
				return formatter.FormatFlush(res), nil
			})
		},
	}
}

// flushBuffer archives the working buffer under the store lock, so no
// concurrent operation can append between the read and the truncate.
func flushBuffer(ctx context.Context, a *app, at time.Time) (*session.FlushResult, error) {
	var res *session.FlushResult
	err := a.engine.Exclusive(ctx, func() error {
		var err error
		res, err = a.buffer.Flush(at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// initCmd implements 'tempo init'.
func initCmd() *cobra.Command {
	var force, global bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file and create the data directories",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			withApp(func(_ context.Context, a *app) (string, error) {
				path, err := initialize(a, global, force)
				if err != nil {
					return "", err
				}
				return formatter.FormatMessage(fmt.Sprintf("Initialized tempo at %s (config: %s)", a.cfg.DataDir, path)), nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&global, "global", false, "Write the global config instead of the project config")
	return cmd
}

// initialize writes the resolved configuration and creates its directories.
// It returns the config file path.
func initialize(a *app, global, force bool) (string, error) {
	path := a.loader.ProjectConfigPath()
	if global {
		path = a.loader.GlobalConfigPath()
	}

	exists, err := afero.Exists(a.fs, path)
	if err != nil {
		return "", err
	}
	if exists && !force {
		return "", tempoerrors.InvalidArgumentError{
			Field:  "config",
			Value:  path,
			Reason: "already exists; use --force to overwrite",
		}
	}

	if err = config.WriteDefault(a.fs, path, a.cfg); err != nil {
		return "", err
	}
	for _, dir := range []string{a.cfg.DataDir, a.cfg.MemoryDir} {
		//nolint:gosec // G301: 0755 is appropriate for user-accessible data directory
		if err = a.fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return path, nil
}
