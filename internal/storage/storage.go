package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"

	"go.uber.org/zap"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
	"github.com/abatilo/tempo/internal/task"
)

const backupSuffix = ".bak"

// Store loads and saves the goals+tasks collection as one JSON document.
type Store struct {
	blobs  Blobs
	key    string
	locker Locker
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLocker sets the cross-process lock used by Lock.
func WithLocker(l Locker) Option {
	return func(s *Store) { s.locker = l }
}

// WithLogger sets the logger used for recovery warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store for the document at key.
func NewStore(blobs Blobs, key string, opts ...Option) *Store {
	s := &Store{
		blobs:  blobs,
		key:    key,
		locker: NopLocker{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the key of the store document.
func (s *Store) Path() string {
	return s.key
}

// BackupPath returns where a corrupt document is preserved.
func (s *Store) BackupPath() string {
	return s.key + backupSuffix
}

// Lock acquires the store lock for one load-mutate-save cycle.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	return s.locker.Lock(ctx)
}

// Load reads the collection. A missing document yields an empty collection.
//
// A corrupt document also yields an empty, usable collection, together with a
// StoreCorruptError describing what was wrong; the raw bytes are copied to
// BackupPath first when possible. Callers treat that error as a warning.
// Read failures other than absence are returned as StoreIOError.
func (s *Store) Load() (*task.Collection, error) {
	data, err := s.blobs.Read(s.key)
	if errors.Is(err, fs.ErrNotExist) {
		return task.NewCollection(), nil
	}
	if err != nil {
		return nil, tempoerrors.StoreIOError{Op: "read", Path: s.key, Err: err}
	}

	c, warnings, reason := decodeCollection(data)
	if reason == "" {
		for _, w := range warnings {
			s.logger.Warn("store document partially readable", zap.String("path", s.key), zap.String("detail", w))
		}
		return c, nil
	}

	s.backup(data)
	s.logger.Warn("store document invalid, recovering to empty state",
		zap.String("path", s.key),
		zap.String("reason", reason),
		zap.String("backup", s.BackupPath()),
	)
	return task.NewCollection(), tempoerrors.StoreCorruptError{Path: s.key, Reason: reason}
}

// Save serializes the whole collection and replaces the stored document.
func (s *Store) Save(c *task.Collection) error {
	data, err := encodeCollection(c)
	if err != nil {
		return tempoerrors.StoreIOError{Op: "encode", Path: s.key, Err: err}
	}
	if err = s.blobs.Write(s.key, data); err != nil {
		return tempoerrors.StoreIOError{Op: "write", Path: s.key, Err: err}
	}
	return nil
}

func (s *Store) backup(data []byte) {
	if err := s.blobs.Write(s.BackupPath(), data); err != nil {
		s.logger.Warn("failed to back up corrupt store", zap.String("path", s.BackupPath()), zap.Error(err))
	}
}

// decodeCollection parses a store document. It returns a non-empty reason when
// the document is unparseable or has the wrong top-level shape. Problems inside
// individual goals or tasks are returned as warnings and never discard the
// rest of the document.
func decodeCollection(data []byte) (*task.Collection, []string, string) {
	if !json.Valid(data) {
		return nil, nil, "malformed JSON"
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, nil, "top level is not an object"
	}
	rawTasks, ok := fields["tasks"]
	if !ok {
		return nil, nil, `missing "tasks"`
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(rawTasks, &entries); err != nil {
		return nil, nil, `"tasks" is not a list`
	}

	c := task.NewCollection()
	var warnings []string
	for i, raw := range entries {
		var t task.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped tasks[%d]: %v", i, err))
			continue
		}
		if len(t.Malformed) > 0 {
			warnings = append(warnings, fmt.Sprintf("task %s has unreadable fields %v, kept as stored",
				t.ID, slices.Sorted(maps.Keys(t.Malformed))))
		}
		c.Tasks = append(c.Tasks, &t)
	}

	if rawGoals, ok := fields["goals"]; ok && !bytes.Equal(bytes.TrimSpace(rawGoals), []byte("null")) {
		var goalEntries []json.RawMessage
		if err := json.Unmarshal(rawGoals, &goalEntries); err != nil {
			return nil, nil, `"goals" is not a list`
		}
		for i, raw := range goalEntries {
			var g task.Goal
			if err := json.Unmarshal(raw, &g); err != nil {
				warnings = append(warnings, fmt.Sprintf("dropped goals[%d]: %v", i, err))
				continue
			}
			if len(g.Malformed) > 0 {
				warnings = append(warnings, fmt.Sprintf("goal %s has unreadable fields %v, kept as stored",
					g.ID, slices.Sorted(maps.Keys(g.Malformed))))
			}
			c.Goals = append(c.Goals, &g)
		}
	}

	delete(fields, "tasks")
	delete(fields, "goals")
	if len(fields) > 0 {
		c.Extra = fields
	}
	return c, warnings, ""
}

func encodeCollection(c *task.Collection) ([]byte, error) {
	doc := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		doc[k] = v
	}
	goals := c.Goals
	if goals == nil {
		goals = []*task.Goal{}
	}
	tasks := c.Tasks
	if tasks == nil {
		tasks = []*task.Task{}
	}
	doc["goals"] = goals
	doc["tasks"] = tasks
	return json.MarshalIndent(doc, "", "  ")
}
