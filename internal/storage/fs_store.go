package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// OSFS writes to the local filesystem. Files are written to a temporary
// sibling and renamed into place so readers never observe partial content.
type OSFS struct{}

// NewOSFS returns the local filesystem implementation.
func NewOSFS() OSFS { return OSFS{} }

// ReadFile implements FS.
func (OSFS) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- paths come from the site configuration.
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Path: name}
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// WriteFile implements FS.
func (OSFS) WriteFile(name string, data []byte) error {
	dir := filepath.Dir(name)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, name); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// MkdirAll implements FS.
func (OSFS) MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// RemoveAll implements FS.
func (OSFS) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
