package receipt

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage holds the uploaded receipt images. Names are the sanitized,
// id-prefixed filenames produced by Scan; callers treat them as opaque.
type Storage interface {
	// Save stores an image and returns the name it is retrievable under
	Save(filename string, data []byte) (string, error)

	// Get reads a stored image back
	Get(name string) ([]byte, error)

	// Delete removes a stored image
	Delete(name string) error
}

// LocalStorage keeps receipt images as plain files in one directory. Scan
// ids make the names unique, so no further nesting is needed.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates the upload directory if missing and returns a
// LocalStorage rooted there.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (l *LocalStorage) path(name string) string {
	return filepath.Join(l.dir, name)
}

// Save stores an image and returns the name it is retrievable under
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	if err := os.WriteFile(l.path(filename), data, 0644); err != nil {
		return "", fmt.Errorf("writing receipt image: %w", err)
	}
	return filename, nil
}

// Get reads a stored image back
func (l *LocalStorage) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(l.path(name))
	if err != nil {
		return nil, fmt.Errorf("reading receipt image: %w", err)
	}
	return data, nil
}

// Delete removes a stored image
func (l *LocalStorage) Delete(name string) error {
	if err := os.Remove(l.path(name)); err != nil {
		return fmt.Errorf("deleting receipt image: %w", err)
	}
	return nil
}
