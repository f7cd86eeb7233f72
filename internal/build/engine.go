package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/pagegen/internal/build/queue"
	"git.home.luguber.info/inful/pagegen/internal/build/validation"
	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/ledger"
	"git.home.luguber.info/inful/pagegen/internal/linkcheck"
	"git.home.luguber.info/inful/pagegen/internal/locals"
	"git.home.luguber.info/inful/pagegen/internal/logfields"
	"git.home.luguber.info/inful/pagegen/internal/metrics"
	"git.home.luguber.info/inful/pagegen/internal/observability"
	"git.home.luguber.info/inful/pagegen/internal/resolve"
	"git.home.luguber.info/inful/pagegen/internal/route"
	"git.home.luguber.info/inful/pagegen/internal/storage"
	"git.home.luguber.info/inful/pagegen/internal/templates"
)

// TemplateLoader returns compiled templates by file path.
type TemplateLoader interface {
	Load(path string) (*templates.Compiled, error)
}

// Transform rewrites a page's locals just before it is rendered.
type Transform func(ctx context.Context, l locals.Locals) (locals.Locals, error)

// Options configures an Engine.
type Options struct {
	Routes    []*route.Definition
	Router    route.Router
	Resolvers resolve.Set

	// TemplateMap maps component names to template paths. DefaultTemplate is
	// used for routes without a handler or with an unmapped component.
	TemplateMap     map[string]string
	DefaultTemplate string
	Templates       TemplateLoader

	// Locals seeds every page's locals.
	Locals    map[string]any
	Transform Transform

	FS        storage.FS
	OutputDir string

	// Clean wipes OutputDir before pages are written.
	Clean bool

	// MaxInFlight caps concurrent page writes.
	MaxInFlight int

	// Ledger persists page digests between builds. Nil disables skipping.
	Ledger ledger.Store

	// LinkCheck scans written pages for internal links to missing pages.
	LinkCheck bool

	Recorder   metrics.Recorder
	OnProgress func(done, total int)
}

// RouteOptions modify a single-route build.
type RouteOptions struct {
	// SkipHash renders unconditionally and leaves the ledger untouched.
	SkipHash bool
}

// Engine builds pages from a route tree.
type Engine struct {
	opts     Options
	router   route.Router
	recorder metrics.Recorder
	fs       storage.FS
	tmpl     TemplateLoader
}

// New validates opts and returns an Engine.
func New(opts Options) (*Engine, error) {
	if err := validation.Routes(opts.Routes); err != nil {
		return nil, err
	}

	e := &Engine{
		opts:     opts,
		router:   opts.Router,
		recorder: metrics.OrNoop(opts.Recorder),
		fs:       opts.FS,
		tmpl:     opts.Templates,
	}
	if e.fs == nil {
		e.fs = storage.NewOSFS()
	}
	if e.router == nil {
		r, err := route.NewPatternRouter(opts.Routes)
		if err != nil {
			return nil, pgerrors.Wrap(err, pgerrors.CategoryConfig, pgerrors.SeverityFatal, "invalid route tree")
		}
		e.router = r
	}
	if e.tmpl == nil {
		e.tmpl = templates.NewCache(templates.DefaultEngine(), e.fs, nil)
	}
	if e.opts.OutputDir == "" && len(opts.Routes) > 0 {
		return nil, pgerrors.ConfigRequired("output directory")
	}
	return e, nil
}

// Router returns the router the engine resolves links with.
func (e *Engine) Router() route.Router { return e.router }

// outputFile maps a URL path to its index.html under the output directory.
// Paths that would land outside the output directory are rejected.
func (e *Engine) outputFile(urlPath string) (string, error) {
	out := filepath.Join(e.opts.OutputDir, filepath.FromSlash(urlPath), "index.html")
	rel, err := filepath.Rel(e.opts.OutputDir, out)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return out, pgerrors.WriteFailed(out, errOutsideOutput).WithContext("path", urlPath)
	}
	return out, nil
}

func (e *Engine) openLedger(ctx context.Context) (*ledger.Ledger, error) {
	if e.opts.Ledger == nil {
		return ledger.Disabled(), nil
	}
	led, err := ledger.Open(ctx, e.opts.Ledger)
	if err != nil {
		return nil, pgerrors.LedgerFailed("open", err)
	}
	return led, nil
}

func (e *Engine) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	ctx = observability.WithStage(ctx, name)
	ctx, span := observability.StartStageSpan(ctx, name)
	err := fn(ctx)
	observability.EndSpan(span, err)
	e.recorder.ObserveStageDuration(name, time.Since(start))
	return err
}

// BuildSite expands the whole route forest and writes every changed page.
// Nothing is written unless discovery of every page succeeds.
func (e *Engine) BuildSite(ctx context.Context) (job *Job, err error) {
	job = newJob(ModeSite)
	ctx = observability.WithBuildID(ctx, job.ID)
	ctx, span := observability.StartBuildSpan(ctx, job.ID, string(ModeSite))
	defer func() {
		job.finish(err)
		observability.EndSpan(span, err)
		e.recordOutcome(ctx, job, err)
	}()

	led, err := e.openLedger(ctx)
	if err != nil {
		return job, err
	}
	defer func() {
		if cerr := led.Close(); cerr != nil {
			observability.WarnContext(ctx, "Failed to close ledger", logfields.Error(cerr))
		}
	}()

	if e.opts.Clean {
		// The output is wiped before writing, so nothing can be skipped.
		led.Reset()
	}

	coord := queue.New(e.opts.MaxInFlight,
		queue.WithCommitter(led),
		queue.WithRecorder(e.recorder),
		queue.WithProgress(e.opts.OnProgress))
	x := newExpander(e, job, coord, led, resolve.ModeSite, false)

	err = e.stage(ctx, "discover", func(ctx context.Context) error {
		return x.expandForest(ctx, e.opts.Routes, route.Params{}, 0, nil)
	})
	if err != nil {
		return job, err
	}
	pages := coord.Pending()
	job.Pages = len(pages)

	if e.opts.Clean {
		observability.InfoContext(ctx, "Cleaning output directory", logfields.Output(e.opts.OutputDir))
		if err = e.fs.RemoveAll(e.opts.OutputDir); err != nil {
			return job, pgerrors.WriteFailed(e.opts.OutputDir, err)
		}
	}
	if err = e.fs.MkdirAll(e.opts.OutputDir); err != nil {
		return job, pgerrors.WriteFailed(e.opts.OutputDir, err)
	}

	err = e.stage(ctx, "write", func(ctx context.Context) error {
		report, ferr := coord.Flush(ctx)
		if report != nil {
			job.Written = report.Written
			job.Skipped = report.Skipped
			job.Redirects = report.Redirects
		}
		return ferr
	})
	if err != nil {
		return job, err
	}

	err = e.stage(ctx, "ledger", func(ctx context.Context) error {
		if serr := led.Save(ctx); serr != nil {
			return pgerrors.LedgerFailed("save", serr)
		}
		return nil
	})
	if err != nil {
		return job, err
	}

	if e.opts.LinkCheck {
		_ = e.stage(ctx, "linkcheck", func(ctx context.Context) error {
			e.checkLinks(ctx, pages)
			return nil
		})
	}
	return job, nil
}

// BuildRoute renders the page at urlPath into Job.Output without writing to
// disk. Only the matched route is expanded, with its ancestors' params as
// context.
func (e *Engine) BuildRoute(ctx context.Context, urlPath string, opts RouteOptions) (job *Job, err error) {
	job = newJob(ModeRoute)
	ctx = observability.WithBuildID(ctx, job.ID)
	ctx, span := observability.StartBuildSpan(ctx, job.ID, string(ModeRoute))
	defer func() {
		job.finish(err)
		observability.EndSpan(span, err)
		e.recordOutcome(ctx, job, err)
	}()

	chain, ok := e.router.Match(urlPath)
	if !ok || len(chain) == 0 {
		return job, pgerrors.RouteNotMatched(urlPath)
	}
	leaf := chain[len(chain)-1]
	parentParams := route.Params{}
	if len(chain) > 1 {
		parentParams = chain[len(chain)-2].Params.Clone()
	}

	led := ledger.Disabled()
	if !opts.SkipHash {
		if led, err = e.openLedger(ctx); err != nil {
			return job, err
		}
	}
	defer func() {
		if cerr := led.Close(); cerr != nil {
			observability.WarnContext(ctx, "Failed to close ledger", logfields.Error(cerr))
		}
	}()

	// The ledger is only read here: it describes files on disk and this
	// build writes none.
	coord := queue.New(1, queue.WithRecorder(e.recorder))
	x := newExpander(e, job, coord, led, resolve.ModeSingle, opts.SkipHash)
	x.want = leaf.Params

	err = e.stage(ctx, "discover", func(ctx context.Context) error {
		return x.expandRoute(ctx, leaf.Route, 0, len(chain)-1, parentParams, nil)
	})
	if err != nil {
		return job, err
	}
	job.Pages = coord.Len()
	if job.Pages != 1 {
		return job, pgerrors.InternalError(fmt.Sprintf("expected one page for %s, discovered %d", urlPath, job.Pages), nil)
	}

	err = e.stage(ctx, "render", func(ctx context.Context) error {
		report, ferr := coord.Flush(ctx)
		if report != nil {
			job.Written = report.Written
			job.Skipped = report.Skipped
			job.Redirects = report.Redirects
		}
		return ferr
	})
	if err != nil {
		return job, err
	}
	return job, nil
}

// Plan runs discovery only and returns the page writes a build would
// perform, in discovery order. Resolvers run; templates are compiled;
// nothing is written.
func (e *Engine) Plan(ctx context.Context) ([]queue.Pending, error) {
	pages, _, err := e.Discover(ctx)
	return pages, err
}

// Discover runs the discovery phase only and returns the winning pages in
// branch order together with the collisions resolved on the way.
func (e *Engine) Discover(ctx context.Context) ([]queue.Pending, []queue.Collision, error) {
	job := newJob(ModeSite)
	ctx = observability.WithBuildID(ctx, job.ID)

	led, err := e.openLedger(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = led.Close() }()

	coord := queue.New(e.opts.MaxInFlight)
	x := newExpander(e, job, coord, led, resolve.ModeSite, false)
	if err := x.expandForest(ctx, e.opts.Routes, route.Params{}, 0, nil); err != nil {
		return nil, nil, err
	}
	return coord.Pending(), coord.Collisions(), nil
}

func (e *Engine) checkLinks(ctx context.Context, pages []queue.Pending) {
	known := make(map[string]bool, len(pages))
	files := make([]string, 0, len(pages))
	for _, p := range pages {
		known[p.URLPath] = true
		files = append(files, p.OutputPath)
	}
	broken, err := linkcheck.Check(e.fs, e.opts.OutputDir, files, known)
	if err != nil {
		observability.WarnContext(ctx, "Link check failed", logfields.Error(err))
		return
	}
	for _, b := range broken {
		observability.WarnContext(ctx, "Broken internal link",
			logfields.Output(b.Page), slog.String("href", b.Href))
	}
	if len(broken) == 0 {
		observability.DebugContext(ctx, "Link check passed", logfields.Count(len(files)))
	}
}

func (e *Engine) recordOutcome(ctx context.Context, job *Job, err error) {
	e.recorder.ObserveBuildDuration(job.Duration)
	if err != nil {
		e.recorder.IncBuildOutcome(metrics.BuildFailed)
		observability.ErrorContext(ctx, "Build failed",
			slog.String("mode", string(job.Mode)),
			logfields.DurationMS(float64(job.Duration.Milliseconds())),
			logfields.Error(err))
		return
	}
	e.recorder.IncBuildOutcome(metrics.BuildSuccess)
	for range job.Redirects {
		e.recorder.IncRedirect()
	}
	for range job.Skipped {
		e.recorder.IncPageOutcome(metrics.PageSkipped)
	}
	outcome := metrics.PageWritten
	if job.Mode == ModeRoute {
		outcome = metrics.PageRendered
	}
	for range job.Written {
		e.recorder.IncPageOutcome(outcome)
	}
	observability.InfoContext(ctx, "Build complete",
		slog.String("mode", string(job.Mode)),
		slog.Int("pages", job.Pages),
		slog.Int("written", len(job.Written)),
		slog.Int("skipped", len(job.Skipped)),
		slog.Int("redirects", len(job.Redirects)),
		logfields.DurationMS(float64(job.Duration.Milliseconds())))
}
