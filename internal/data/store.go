package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the local store lock.
var ErrLocked = errors.New("local playlist is locked by another run")

// LocalStore reads and writes the local playlist file.
type LocalStore struct {
	path string
	lock *flock.Flock
}

// NewLocalStore creates a store for the playlist at path.
func NewLocalStore(path string) *LocalStore {
	return &LocalStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the playlist file path.
func (s *LocalStore) Path() string {
	return s.path
}

// Read returns the playlist text. A missing file reads as empty.
func (s *LocalStore) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to read local playlist: %w", err)
	}

	return string(data), nil
}

// Write replaces the playlist atomically. Readers see either the old or the new
// file, never a partial one.
func (s *LocalStore) Write(text string) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("%s temp file: %w", step, err)
	}

	if _, err := tmp.WriteString(text); err != nil {
		return fail("write", err)
	}

	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}

	if err := tmp.Chmod(perm); err != nil {
		return fail("chmod", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Lock takes the exclusive run lock without blocking. The returned function
// releases it.
func (s *LocalStore) Lock() (func() error, error) {
	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	if !ok {
		return nil, ErrLocked
	}

	return s.lock.Unlock, nil
}
