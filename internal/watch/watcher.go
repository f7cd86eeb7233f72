// Package watch rebuilds a site when its sources change and, optionally, on a
// fixed interval.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/pagegen/internal/logfields"
)

// TriggerKind says why a build ran.
type TriggerKind string

const (
	TriggerInitial  TriggerKind = "initial"
	TriggerChange   TriggerKind = "change"
	TriggerInterval TriggerKind = "interval"
)

// Trigger describes one requested build. Paths lists the changed files for
// TriggerChange, sorted and deduplicated.
type Trigger struct {
	Kind  TriggerKind
	Paths []string
}

// BuildFunc runs one build. Errors are logged and watching continues.
type BuildFunc func(ctx context.Context, t Trigger) error

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last change before a build.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithInterval schedules a rebuild every d. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithIgnore drops events under any of the given paths, typically the output
// directory and the ledger.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if p == "" {
				continue
			}
			if abs, err := filepath.Abs(p); err == nil {
				p = abs
			}
			w.ignore = append(w.ignore, filepath.Clean(p))
		}
	}
}

// WithoutInitialBuild skips the build Run otherwise starts with.
func WithoutInitialBuild() Option {
	return func(w *Watcher) { w.skipInitial = true }
}

// Watcher turns filesystem events into debounced, serialized builds.
type Watcher struct {
	paths       []string
	build       BuildFunc
	debounce    time.Duration
	interval    time.Duration
	ignore      []string
	skipInitial bool

	fsw   *fsnotify.Watcher
	sched gocron.Scheduler

	mu      sync.Mutex
	changed map[string]bool
	queued  []Trigger
	wake    chan struct{}
}

// New creates a watcher over paths (files or directories; directories are
// watched recursively).
func New(paths []string, build BuildFunc, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		build:    build,
		debounce: 300 * time.Millisecond,
		changed:  make(map[string]bool),
		wake:     make(chan struct{}, 1),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve watch path %s: %w", p, err)
		}
		w.paths = append(w.paths, abs)
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsw = fsw

	if w.interval > 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
		}
		w.sched = s
	}
	return w, nil
}

// Run blocks until ctx is done. Builds never overlap; requests arriving during
// a build are merged into the next one.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	for _, p := range w.paths {
		if err := w.add(p); err != nil {
			return err
		}
	}

	if w.sched != nil {
		_, err := w.sched.NewJob(
			gocron.DurationJob(w.interval),
			gocron.NewTask(func() { w.request(Trigger{Kind: TriggerInterval}) }),
			gocron.WithName("interval-build"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule interval build: %w", err)
		}
		w.sched.Start()
		slog.Info("Scheduled interval builds", slog.Duration("interval", w.interval))
	}

	if !w.skipInitial {
		w.request(Trigger{Kind: TriggerInitial})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.buildLoop(ctx)
	}()

	slog.Info("Watching for changes", slog.Any("paths", w.paths), slog.Duration("debounce", w.debounce))
	w.eventLoop(ctx)
	wg.Wait()
	return nil
}

func (w *Watcher) close() {
	if w.sched != nil {
		if err := w.sched.Shutdown(); err != nil {
			slog.Warn("Error shutting down scheduler", logfields.Error(err))
		}
	}
	if err := w.fsw.Close(); err != nil {
		slog.Warn("Error closing file watcher", logfields.Error(err))
	}
}

// add watches p. Directories are walked so new files in subdirectories are
// seen; a plain file is watched through its parent directory.
func (w *Watcher) add(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", p, err)
	}
	if !info.IsDir() {
		if err := w.fsw.Add(filepath.Dir(p)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	}
	return filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.add(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			w.mu.Lock()
			w.changed[event.Name] = true
			w.mu.Unlock()
			timer.Reset(w.debounce)
		case <-timer.C:
			w.mu.Lock()
			paths := make([]string, 0, len(w.changed))
			for p := range w.changed {
				paths = append(paths, p)
			}
			clear(w.changed)
			w.mu.Unlock()
			slices.Sort(paths)
			w.request(Trigger{Kind: TriggerChange, Paths: paths})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".#") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}
	if w.ignored(event.Name) {
		return false
	}
	// A watched file is observed through its directory; other files in that
	// directory are not ours.
	for _, p := range w.paths {
		if event.Name == p || strings.HasPrefix(event.Name, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	for _, prefix := range w.ignore {
		if path == prefix || strings.HasPrefix(path, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// request queues a build, merging with a build already waiting.
func (w *Watcher) request(t Trigger) {
	w.mu.Lock()
	w.queued = append(w.queued, t)
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Watcher) buildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		}
		w.mu.Lock()
		queued := w.queued
		w.queued = nil
		w.mu.Unlock()
		if len(queued) == 0 {
			continue
		}

		t := merge(queued)
		start := time.Now()
		if err := w.build(ctx, t); err != nil {
			slog.Error("Build failed", slog.String("trigger", string(t.Kind)), logfields.Error(err))
			continue
		}
		slog.Info("Rebuilt site",
			slog.String("trigger", string(t.Kind)),
			logfields.Count(len(t.Paths)),
			logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	}
}

// merge folds queued triggers into one. A change wins over an interval tick
// so the changed paths are reported.
func merge(ts []Trigger) Trigger {
	out := ts[0]
	seen := make(map[string]bool)
	var paths []string
	for _, t := range ts {
		if t.Kind == TriggerChange || out.Kind == TriggerInterval {
			out.Kind = t.Kind
		}
		for _, p := range t.Paths {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	slices.Sort(paths)
	out.Paths = paths
	return out
}
