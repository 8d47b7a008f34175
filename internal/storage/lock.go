package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
)

// Locker serializes load-mutate-save cycles across processes.
// Lock returns a release function that must be called on every exit path.
type Locker interface {
	Lock(ctx context.Context) (func() error, error)
}

// NopLocker performs no locking. Used with in-memory filesystems.
type NopLocker struct{}

// Lock returns immediately.
func (NopLocker) Lock(_ context.Context) (func() error, error) {
	return func() error { return nil }, nil
}

// FileLock is an exclusive advisory lock on a file next to the store.
type FileLock struct {
	path    string
	timeout time.Duration
}

var errLockHeld = errors.New("lock held by another process")

// NewFileLock creates a lock on path, waiting at most timeout to acquire it.
func NewFileLock(path string, timeout time.Duration) *FileLock {
	return &FileLock{path: path, timeout: timeout}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Lock acquires the lock, retrying with exponential backoff until the timeout.
func (l *FileLock) Lock(ctx context.Context) (func() error, error) {
	//nolint:gosec // G301: 0755 is appropriate for user-accessible data directory
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(l.path)
	operation := func() error {
		locked, err := fl.TryLock()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !locked {
			return errLockHeld
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = l.timeout
	if l.timeout <= 0 {
		// A zero MaxElapsedTime would retry forever; make it a single attempt.
		policy.MaxElapsedTime = time.Nanosecond
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		if errors.Is(err, errLockHeld) {
			return nil, tempoerrors.LockTimeoutError{Path: l.path}
		}
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	return fl.Unlock, nil
}
