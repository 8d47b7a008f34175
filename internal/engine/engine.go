// Package engine applies task state transitions against the store.
//
// Every mutating operation runs one cycle under the store lock: load, locate,
// validate, append to the write-ahead log, mutate, save, then notify
// downstream writers. Validation failures return before anything is logged or
// changed. The log append completes before the save is attempted, so an
// interrupted cycle leaves a record of what was intended.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/task"
)

// Store loads and persists the whole collection.
type Store interface {
	Load() (*task.Collection, error)
	Save(c *task.Collection) error
	Lock(ctx context.Context) (func() error, error)
}

// Journal records intended mutations before they are saved.
type Journal interface {
	Append(eventType string, content map[string]any, at time.Time) error
}

// Change describes a saved mutation for downstream writers.
type Change struct {
	Task *task.Task
	// Goal is nil when the task's goal does not resolve.
	Goal *task.Goal
	// Event and Details form the working buffer line.
	Event   string
	Details string
	// Action is the human-readable next step shown in the state snapshot.
	Action string
	At     time.Time
}

// Notifier receives changes after they are saved. Failures are logged, not returned.
type Notifier interface {
	Notify(ch Change) error
}

// Engine runs task operations.
type Engine struct {
	store    Store
	journal  Journal
	notifier Notifier
	now      func() time.Time
	newID    task.IDFunc
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDFunc sets the ID generator.
func WithIDFunc(fn task.IDFunc) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithNotifier sets the downstream change writer.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over store, logging mutations to journal.
func New(store Store, journal Journal, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		journal: journal,
		now:     time.Now,
		newID:   task.GenerateID,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// cycle is the body of one locked operation. It returns whether the
// collection must be saved.
type cycle func(c *task.Collection, now time.Time) (bool, error)

// run executes fn under the store lock with a freshly loaded collection.
func (e *Engine) run(ctx context.Context, fn cycle) error {
	return e.runThen(ctx, fn, nil)
}

// mutate is run for operations with a downstream record: once the save
// succeeds, *ch goes to the notifier while the lock is still held, so snapshot
// and buffer writes are serialized with Exclusive.
func (e *Engine) mutate(ctx context.Context, ch *Change, fn cycle) error {
	return e.runThen(ctx, fn, func() { e.notify(*ch) })
}

func (e *Engine) runThen(ctx context.Context, fn cycle, afterSave func()) error {
	return e.Exclusive(ctx, func() error {
		c, err := e.load()
		if err != nil {
			return err
		}

		save, err := fn(c, e.now().UTC())
		if err != nil {
			return err
		}
		if !save {
			return nil
		}
		if err = e.store.Save(c); err != nil {
			return err
		}
		if afterSave != nil {
			afterSave()
		}
		return nil
	})
}

// Exclusive runs fn while holding the store lock. Work on files the engine's
// notifier also writes, such as flushing the working buffer, goes through here.
func (e *Engine) Exclusive(ctx context.Context, fn func() error) (err error) {
	release, err := e.store.Lock(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := release(); releaseErr != nil {
			e.logger.Warn("failed to release store lock", zap.Error(releaseErr))
			if err == nil {
				err = fmt.Errorf("releasing store lock: %w", releaseErr)
			}
		}
	}()
	return fn()
}

// load reads the collection, treating corruption as a recovered warning.
func (e *Engine) load() (*task.Collection, error) {
	c, err := e.store.Load()
	var corrupt tempoerrors.StoreCorruptError
	if errors.As(err, &corrupt) {
		e.logger.Warn("continuing with empty store", zap.String("path", corrupt.Path), zap.String("reason", corrupt.Reason))
		if c == nil {
			c = task.NewCollection()
		}
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) journalAppend(eventType string, content map[string]any, at time.Time) error {
	if err := e.journal.Append(eventType, content, at); err != nil {
		return fmt.Errorf("write-ahead log %s: %w", eventType, err)
	}
	return nil
}

// change builds the downstream record for t, resolving its goal in c.
func change(c *task.Collection, t *task.Task, event, details, action string, at time.Time) Change {
	return Change{
		Task:    t,
		Goal:    c.FindGoal(t.GoalID),
		Event:   event,
		Details: details,
		Action:  action,
		At:      at,
	}
}

// notify hands a saved change to the notifier.
func (e *Engine) notify(ch Change) {
	if e.notifier == nil || ch.Task == nil {
		return
	}
	if err := e.notifier.Notify(ch); err != nil {
		e.logger.Warn("failed to record change", zap.String("task_id", ch.Task.ID), zap.Error(err))
	}
}

func (e *Engine) findTask(c *task.Collection, id string) (*task.Task, error) {
	t := c.FindTask(id)
	if t == nil {
		return nil, tempoerrors.TaskNotFoundError{ID: id}
	}
	return t, nil
}

func (e *Engine) findGoal(c *task.Collection, id string) (*task.Goal, error) {
	g := c.FindGoal(id)
	if g == nil {
		return nil, tempoerrors.GoalNotFoundError{ID: id}
	}
	return g, nil
}

func (e *Engine) generateID(c *task.Collection, prefix string) string {
	return e.newID(prefix, c.HasID)
}
