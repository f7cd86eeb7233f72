// Package storage provides the filesystem primitives pagegen writes through.
package storage

import (
	"errors"
	"io/fs"
)

// FS is the set of filesystem operations the engine needs. Paths are
// slash- or OS-separated absolute or working-directory-relative paths.
type FS interface {
	// ReadFile returns the contents of name.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to name, replacing it atomically when the
	// implementation supports it.
	WriteFile(name string, data []byte) error

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// RemoveAll removes path and everything under it. Missing paths are
	// not an error.
	RemoveAll(path string) error
}

// ErrNotFound is returned when a file doesn't exist.
type ErrNotFound struct {
	Path string
}

func (e ErrNotFound) Error() string {
	return "file not found: " + e.Path
}

// Is lets errors.Is(err, fs.ErrNotExist) succeed for ErrNotFound.
func (e ErrNotFound) Is(target error) bool {
	return target == fs.ErrNotExist
}

// IsNotFound returns true if the error reports a missing file.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
