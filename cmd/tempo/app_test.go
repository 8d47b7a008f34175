//nolint:testpackage // Tests require internal access for thorough testing
package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abatilo/tempo/internal/config"
	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/engine"
	"github.com/abatilo/tempo/internal/task"
)

func newTestApp(t *testing.T, configYAML string) *app {
	t.Helper()
	home := t.TempDir()
	cwd := t.TempDir()
	if configYAML != "" {
		dir := filepath.Join(cwd, ".tempo")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0o644))
	}

	a, err := newApp(context.Background(), afero.NewOsFs(), home, cwd, filepath.Join(home, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func runWorkflow(t *testing.T, a *app) string {
	t.Helper()
	ctx := context.Background()

	goal, err := a.engine.AddGoal(ctx, "Ship release", task.PriorityHigh)
	require.NoError(t, err)

	created, err := a.engine.CreateRecurring(ctx, engine.NewTask{
		GoalID:    goal.Goal.ID,
		Title:     "Weekly review",
		Recurring: task.RecurWeekly,
	})
	require.NoError(t, err)

	_, err = a.engine.SetProgress(ctx, created.Task.ID, 40, "started")
	require.NoError(t, err)
	return created.Task.ID
}

func TestAppFileBackend(t *testing.T) {
	a := newTestApp(t, "")
	id := runWorkflow(t, a)

	dataDir := a.cfg.DataDir
	assert.FileExists(t, filepath.Join(dataDir, "tasks.json"))
	assert.FileExists(t, filepath.Join(dataDir, "SESSION-STATE.md"))
	assert.FileExists(t, filepath.Join(dataDir, "memory", "working-buffer.md"))
	assert.FileExists(t, filepath.Join(dataDir, "memory", "WAL-"+time.Now().UTC().Format("2006-01-02")+".log"))

	got, err := currentTaskID(a, nil)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	res, err := a.engine.Show(context.Background(), got)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Task.Progress)
	assert.Equal(t, task.StatusInProgress, res.Task.Status)

	flushed, err := flushBuffer(context.Background(), a, time.Now().UTC())
	require.NoError(t, err)
	assert.Positive(t, flushed.LinesFlushed)
}

func TestAppSQLiteBackend(t *testing.T) {
	a := newTestApp(t, "backend: sqlite\n")
	require.Equal(t, config.BackendSQLite, a.cfg.Backend)
	id := runWorkflow(t, a)

	assert.FileExists(t, a.cfg.SQLitePath)
	assert.NoFileExists(t, filepath.Join(a.cfg.DataDir, "tasks.json"))

	res, err := a.engine.Show(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Weekly review", res.Task.Title)
}

func TestCurrentTaskIDWithoutSnapshot(t *testing.T) {
	a := newTestApp(t, "")

	_, err := currentTaskID(a, nil)
	var invalid tempoerrors.InvalidArgumentError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "task_id", invalid.Field)

	got, err := currentTaskID(a, []string{"task_explicit"})
	require.NoError(t, err)
	assert.Equal(t, "task_explicit", got)
}

func TestInitialize(t *testing.T) {
	a := newTestApp(t, "")

	path, err := initialize(a, false, false)
	require.NoError(t, err)
	assert.Equal(t, a.loader.ProjectConfigPath(), path)
	assert.DirExists(t, a.cfg.MemoryDir)

	_, err = initialize(a, false, false)
	var invalid tempoerrors.InvalidArgumentError
	require.True(t, errors.As(err, &invalid), "second init without --force must fail")

	_, err = initialize(a, false, true)
	require.NoError(t, err)

	cfg, err := a.loader.Load()
	require.NoError(t, err)
	assert.Equal(t, a.cfg.DataDir, cfg.DataDir)
}

func TestParseInt(t *testing.T) {
	n, err := parseInt("minutes", "45")
	require.NoError(t, err)
	assert.Equal(t, 45, n)

	_, err = parseInt("minutes", "forty")
	var invalid tempoerrors.InvalidArgumentError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "minutes", invalid.Field)
	assert.Equal(t, "forty", invalid.Value)
}
