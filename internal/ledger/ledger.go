// Package ledger persists the output-path → content-digest map that lets a
// build skip pages whose inputs have not changed since the previous run.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"git.home.luguber.info/inful/pagegen/internal/logfields"
)

// ErrAbsent is returned by Store.Load when no ledger has been persisted yet.
var ErrAbsent = errors.New("ledger absent")

// CorruptError is returned by Store.Load when persisted data is unreadable.
type CorruptError struct {
	Location string
	Err      error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("ledger %s is corrupt: %v", e.Location, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Store loads and saves ledger entries.
type Store interface {
	// Load returns the persisted entries, ErrAbsent, or a *CorruptError.
	Load(ctx context.Context) (map[string]string, error)
	// Save replaces the persisted entries atomically.
	Save(ctx context.Context, entries map[string]string) error
	// Location describes where the ledger lives, for logs.
	Location() string
	Close() error
}

// State records how the start-of-build snapshot was obtained.
type State int

const (
	// StateAbsent means no ledger existed; every page is treated as changed.
	StateAbsent State = iota
	// StateLoaded means the snapshot came from a readable ledger.
	StateLoaded
	// StateCorrupt means a ledger existed but could not be read.
	StateCorrupt
	// StateDisabled means the ledger was bypassed (no store, or reset).
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateLoaded:
		return "loaded"
	case StateCorrupt:
		return "corrupt"
	default:
		return "disabled"
	}
}

// Ledger holds the snapshot loaded at build start and the entries staged
// for the next save. Lookups always read the snapshot, so a page committed
// earlier in the same build never changes another page's skip decision.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	state    State
	loadErr  error
	previous map[string]string
	next     map[string]string
}

// Open loads the ledger from store. Absent and corrupt ledgers are not
// errors: both yield an empty snapshot and are reported through State.
func Open(ctx context.Context, store Store) (*Ledger, error) {
	l := &Ledger{
		store:    store,
		previous: map[string]string{},
		next:     map[string]string{},
	}
	if store == nil {
		l.state = StateDisabled
		return l, nil
	}

	entries, err := store.Load(ctx)
	var corrupt *CorruptError
	switch {
	case err == nil:
		l.state = StateLoaded
		if entries != nil {
			l.previous = entries
		}
	case errors.Is(err, ErrAbsent):
		l.state = StateAbsent
	case errors.As(err, &corrupt):
		l.state = StateCorrupt
		l.loadErr = err
		slog.Warn("Ignoring corrupt ledger; all pages will be rendered",
			slog.String("location", store.Location()), logfields.Error(err))
	default:
		return nil, fmt.Errorf("load ledger %s: %w", store.Location(), err)
	}
	slog.Debug("Ledger opened",
		slog.String("location", store.Location()),
		slog.String("state", l.state.String()),
		logfields.Count(len(l.previous)))
	return l, nil
}

// Disabled returns a ledger with no store: nothing is skipped or saved.
func Disabled() *Ledger {
	l, _ := Open(context.Background(), nil)
	return l
}

// State reports how the snapshot was obtained.
func (l *Ledger) State() State { return l.state }

// LoadError returns the error behind StateCorrupt, if any.
func (l *Ledger) LoadError() error { return l.loadErr }

// Enabled reports whether skip decisions should consult the ledger.
func (l *Ledger) Enabled() bool { return l.store != nil }

// Previous returns the digest recorded for path by the previous build.
func (l *Ledger) Previous(path string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.previous[path]
	return d, ok
}

// Unchanged reports whether digest equals the previous build's digest for path.
func (l *Ledger) Unchanged(path, digest string) bool {
	prev, ok := l.Previous(path)
	return ok && prev == digest
}

// Commit stages digest for path.
func (l *Ledger) Commit(path, digest string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next[path] = digest
}

// Reset forgets the snapshot so every page is treated as changed.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.previous = map[string]string{}
}

// Entries returns a copy of the staged entries.
func (l *Ledger) Entries() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.next)
}

// Save persists the staged entries. Entries for pages not produced by this
// build are dropped.
func (l *Ledger) Save(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	entries := l.Entries()
	if err := l.store.Save(ctx, entries); err != nil {
		return fmt.Errorf("save ledger %s: %w", l.store.Location(), err)
	}
	slog.Debug("Ledger saved", slog.String("location", l.store.Location()), logfields.Count(len(entries)))
	return nil
}

// Close releases the store.
func (l *Ledger) Close() error {
	if l.store == nil {
		return nil
	}
	return l.store.Close()
}
