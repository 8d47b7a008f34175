package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/abatilo/tempo/internal/config"
	"github.com/abatilo/tempo/internal/engine"
	"github.com/abatilo/tempo/internal/logging"
	"github.com/abatilo/tempo/internal/session"
	"github.com/abatilo/tempo/internal/storage"
	"github.com/abatilo/tempo/internal/wal"
)

// app holds the wired components behind every command.
type app struct {
	cfg    *config.Config
	fs     afero.Fs
	loader *config.Loader
	logger *zap.Logger
	engine *engine.Engine
	state  *session.StateWriter
	buffer *session.Buffer
	closer io.Closer
}

// newApp loads configuration and wires the store, WAL, collaborators and engine.
func newApp(ctx context.Context, fs afero.Fs, home, cwd, dataDirOverride string) (*app, error) {
	loader := config.NewLoader(fs, home, cwd)
	if dataDirOverride != "" {
		loader.Set("data_dir", dataDirOverride)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	var (
		blobs  storage.Blobs
		key    string
		closer io.Closer
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		db, openErr := storage.OpenSQLiteBlobs(ctx, cfg.SQLitePath)
		if openErr != nil {
			return nil, openErr
		}
		blobs, key, closer = db, filepath.Base(cfg.StorePath()), db
	default:
		blobs, key = storage.NewFSBlobs(fs), cfg.StorePath()
	}

	store := storage.NewStore(blobs, key,
		storage.WithLocker(storage.NewFileLock(cfg.LockPath(), cfg.LockTimeout)),
		storage.WithLogger(logger.Named("store")),
	)

	state := session.NewStateWriter(fs, cfg.StateFile)
	buffer := session.NewBuffer(fs, cfg.BufferPath(), cfg.MemoryDir)
	eng := engine.New(store, wal.New(fs, cfg.MemoryDir),
		engine.WithNotifier(session.NewRecorder(state, buffer)),
		engine.WithLogger(logger.Named("engine")),
	)

	return &app{
		cfg:    cfg,
		fs:     fs,
		loader: loader,
		logger: logger,
		engine: eng,
		state:  state,
		buffer: buffer,
		closer: closer,
	}, nil
}

// Close releases the backend and flushes the logger.
func (a *app) Close() error {
	_ = a.logger.Sync()
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
