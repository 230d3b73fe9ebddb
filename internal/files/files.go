// Package files stores attachment blobs on local disk.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store writes blobs under a base directory, keyed by generated IDs.
// Keys are opaque; the original filename lives in attachment metadata.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create file store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the blob and returns its storage key and size.
func (s *Store) Save(r io.Reader) (string, int64, error) {
	key := uuid.New().String()

	f, err := os.OpenFile(s.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(s.path(key))
		return "", 0, fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("close blob: %w", err)
	}
	return key, n, nil
}

// Open returns a reader for the blob with the given key.
func (s *Store) Open(key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes the blob with the given key. Missing blobs are not an
// error so metadata cleanup can retry safely.
func (s *Store) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *Store) path(key string) string {
	// Keys are generated UUIDs, never caller input.
	return filepath.Join(s.dir, key)
}
