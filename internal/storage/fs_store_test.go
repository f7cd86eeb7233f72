package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFSWriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewOSFS()

	dir := filepath.Join(tmpDir, "posts", "hello")
	if err := store.MkdirAll(dir); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	name := filepath.Join(dir, "index.html")
	if err := store.WriteFile(name, []byte("<h1>hi</h1>")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := store.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "<h1>hi</h1>" {
		t.Errorf("Got data %q", data)
	}

	// No temp files left behind
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected exactly one file in %s, got %d", dir, len(entries))
	}
}

func TestOSFSReadMissing(t *testing.T) {
	store := NewOSFS()
	_, err := store.ReadFile(filepath.Join(t.TempDir(), "nope"))
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("ErrNotFound should match fs.ErrNotExist")
	}
}

func TestOSFSRemoveAll(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewOSFS()
	out := filepath.Join(tmpDir, "out")
	if err := store.MkdirAll(filepath.Join(out, "a")); err != nil {
		t.Fatal(err)
	}
	if err := store.RemoveAll(out); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("directory still exists")
	}
	if err := store.RemoveAll(out); err != nil {
		t.Errorf("RemoveAll on missing path should succeed: %v", err)
	}
}

func TestMemFS(t *testing.T) {
	m := NewMemFS()

	if err := m.WriteFile("/out/a/index.html", []byte("x")); err == nil {
		t.Fatal("expected error writing without parent directory")
	}
	if err := m.MkdirAll("/out/a"); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteFile("/out/a/index.html", []byte("x")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	m.Put("/out/b/index.html", []byte("y"))

	if got := m.Files(); len(got) != 2 {
		t.Fatalf("Files() = %v", got)
	}
	if err := m.RemoveAll("/out"); err != nil {
		t.Fatal(err)
	}
	if got := m.Files(); len(got) != 0 {
		t.Errorf("RemoveAll left %v", got)
	}
	if c := m.Calls(); c.WriteFile != 2 || c.RemoveAll != 1 {
		t.Errorf("unexpected calls %+v", c)
	}
}
