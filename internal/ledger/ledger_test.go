package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagegen/internal/storage"
)

func TestOpenAbsentFileLedger(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(storage.NewMemFS(), "/out/.pagegen/ledger.json")

	l, err := Open(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, l.State())
	assert.True(t, l.Enabled())
	_, ok := l.Previous("/out/index.html")
	assert.False(t, ok)
}

func TestOpenCorruptFileLedger(t *testing.T) {
	ctx := context.Background()
	fsys := storage.NewMemFS()
	fsys.Put("/out/.pagegen/ledger.json", []byte("{not json"))

	l, err := Open(ctx, NewFileStore(fsys, "/out/.pagegen/ledger.json"))
	require.NoError(t, err, "corrupt ledgers are not fatal")
	assert.Equal(t, StateCorrupt, l.State())
	assert.Error(t, l.LoadError())
}

func TestFileLedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	fsys := storage.NewMemFS()
	path := "/out/.pagegen/ledger.json"

	l, err := Open(ctx, NewFileStore(fsys, path))
	require.NoError(t, err)
	l.Commit("/out/index.html", "d1")
	l.Commit("/out/a/index.html", "d2")

	// Snapshot reads are unaffected by commits in the same build.
	assert.False(t, l.Unchanged("/out/index.html", "d1"))
	require.NoError(t, l.Save(ctx))

	again, err := Open(ctx, NewFileStore(fsys, path))
	require.NoError(t, err)
	assert.Equal(t, StateLoaded, again.State())
	assert.True(t, again.Unchanged("/out/index.html", "d1"))
	assert.False(t, again.Unchanged("/out/a/index.html", "other"))

	again.Reset()
	assert.False(t, again.Unchanged("/out/index.html", "d1"))
}

func TestSaveDropsStaleEntries(t *testing.T) {
	ctx := context.Background()
	fsys := storage.NewMemFS()
	path := "/out/ledger.json"

	first, _ := Open(ctx, NewFileStore(fsys, path))
	first.Commit("/out/old/index.html", "x")
	require.NoError(t, first.Save(ctx))

	second, _ := Open(ctx, NewFileStore(fsys, path))
	second.Commit("/out/new/index.html", "y")
	require.NoError(t, second.Save(ctx))

	third, _ := Open(ctx, NewFileStore(fsys, path))
	_, ok := third.Previous("/out/old/index.html")
	assert.False(t, ok)
}

func TestDisabledLedger(t *testing.T) {
	l := Disabled()
	assert.False(t, l.Enabled())
	assert.Equal(t, StateDisabled, l.State())
	l.Commit("/x", "y")
	assert.NoError(t, l.Save(context.Background()))
	assert.NoError(t, l.Close())
}

func TestSQLiteLedger(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	store := NewSQLiteStore(path)
	l, err := Open(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, StateAbsent, l.State())

	l.Commit("/out/index.html", "abc")
	require.NoError(t, l.Save(ctx))
	require.NoError(t, l.Close())

	reopened, err := Open(ctx, NewSQLiteStore(path))
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	assert.Equal(t, StateLoaded, reopened.State())
	assert.True(t, reopened.Unchanged("/out/index.html", "abc"))
}

func TestSQLiteLedgerCorrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database, just text padding it out"), 0o600))

	store := NewSQLiteStore(path)
	defer func() { _ = store.Close() }()
	l, err := Open(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, StateCorrupt, l.State())
}

func TestSQLiteBusyIsTransient(t *testing.T) {
	assert.True(t, busy(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, busy(errors.New("no such table: ledger")))
}
