package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Blobs is a key-value store of whole documents.
// Read returns an error wrapping fs.ErrNotExist for missing keys.
type Blobs interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
}

// FSBlobs stores each key as a file on an afero filesystem.
type FSBlobs struct {
	fs afero.Fs
}

// NewFSBlobs creates a filesystem-backed blob store.
func NewFSBlobs(fs afero.Fs) *FSBlobs {
	return &FSBlobs{fs: fs}
}

// Read returns the contents of the file at key.
func (b *FSBlobs) Read(key string) ([]byte, error) {
	return afero.ReadFile(b.fs, key)
}

// Write replaces the file at key. The data is written to a temporary sibling,
// synced, and renamed over the target so readers never see a partial document.
func (b *FSBlobs) Write(key string, data []byte) error {
	//nolint:gosec // G301: 0755 is appropriate for user-accessible data directory
	if err := b.fs.MkdirAll(filepath.Dir(key), 0o755); err != nil {
		return err
	}

	tmp := key + ".tmp"
	//nolint:gosec // G302: 0644 is appropriate for user-readable task data
	f, err := b.fs.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return b.fs.Rename(tmp, key)
}
