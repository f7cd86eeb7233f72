package storage

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// MemFS is an in-memory implementation of FS for testing.
type MemFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
	calls MemCalls

	// FailWrite, when set, is returned by WriteFile for matching paths.
	FailWrite func(name string) error
}

// MemCalls tracks method invocations for test verification.
type MemCalls struct {
	ReadFile  int
	WriteFile int
	MkdirAll  int
	RemoveAll int
}

// NewMemFS creates an empty in-memory filesystem.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// ReadFile implements FS.
func (m *MemFS) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.ReadFile++

	data, ok := m.files[filepath.Clean(name)]
	if !ok {
		return nil, ErrNotFound{Path: name}
	}
	return slices.Clone(data), nil
}

// WriteFile implements FS. The parent directory must exist.
func (m *MemFS) WriteFile(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.WriteFile++

	if m.FailWrite != nil {
		if err := m.FailWrite(name); err != nil {
			return err
		}
	}
	name = filepath.Clean(name)
	if dir := filepath.Dir(name); dir != "." && dir != string(filepath.Separator) && !m.dirs[dir] {
		return fmt.Errorf("write %s: parent directory does not exist", name)
	}
	m.files[name] = slices.Clone(data)
	return nil
}

// MkdirAll implements FS.
func (m *MemFS) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.MkdirAll++

	for p := filepath.Clean(path); p != "." && p != string(filepath.Separator); p = filepath.Dir(p) {
		m.dirs[p] = true
	}
	return nil
}

// RemoveAll implements FS.
func (m *MemFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.RemoveAll++

	path = filepath.Clean(path)
	prefix := path + string(filepath.Separator)
	for name := range m.files {
		if name == path || strings.HasPrefix(name, prefix) {
			delete(m.files, name)
		}
	}
	for dir := range m.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(m.dirs, dir)
		}
	}
	return nil
}

// Put seeds a file (and its parent directories) without counting a call.
func (m *MemFS) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = filepath.Clean(name)
	for p := filepath.Dir(name); p != "." && p != string(filepath.Separator); p = filepath.Dir(p) {
		m.dirs[p] = true
	}
	m.files[name] = slices.Clone(data)
}

// Files returns the stored file names in sorted order.
func (m *MemFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Calls returns a snapshot of the call counters.
func (m *MemFS) Calls() MemCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// Reset clears the call counters.
func (m *MemFS) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = MemCalls{}
}
