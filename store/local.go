package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore implements Store using the local file system, rooted at a
// directory. Writes go through a temporary file and a rename, so readers
// never observe partial content.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Put writes a blob atomically.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	path := filepath.Join(s.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Get reads a blob. The returned error satisfies errors.Is(err, ErrNotFound)
// when no blob with the given name exists.
func (s *LocalStore) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		// *PathError wraps os.ErrNotExist, which is ErrNotFound.
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	return data, nil
}
