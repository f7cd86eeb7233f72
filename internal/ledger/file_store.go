package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/pagegen/internal/storage"
)

const fileFormatVersion = 1

type fileFormat struct {
	Version int               `json:"version"`
	Entries map[string]string `json:"entries"`
}

// FileStore keeps the ledger as a JSON document written atomically.
type FileStore struct {
	path string
	fs   storage.FS
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(fsys storage.FS, path string) *FileStore {
	if fsys == nil {
		fsys = storage.NewOSFS()
	}
	return &FileStore{path: path, fs: fsys}
}

// Load implements Store.
func (s *FileStore) Load(context.Context) (map[string]string, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrAbsent
		}
		return nil, err
	}
	var doc fileFormat
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptError{Location: s.path, Err: err}
	}
	if doc.Version != fileFormatVersion {
		return nil, &CorruptError{Location: s.path, Err: fmt.Errorf("unsupported version %d", doc.Version)}
	}
	if doc.Entries == nil {
		doc.Entries = map[string]string{}
	}
	return doc.Entries, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, entries map[string]string) error {
	data, err := json.MarshalIndent(fileFormat{Version: fileFormatVersion, Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path)); err != nil {
		return err
	}
	return s.fs.WriteFile(s.path, data)
}

// Location implements Store.
func (s *FileStore) Location() string { return s.path }

// Close implements Store.
func (s *FileStore) Close() error { return nil }
