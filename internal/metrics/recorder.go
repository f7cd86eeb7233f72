package metrics

import "time"

// PageOutcome enumerates what happened to one concrete page.
type PageOutcome string

const (
	PageWritten  PageOutcome = "written"
	PageSkipped  PageOutcome = "skipped"
	PageRendered PageOutcome = "rendered" // single-route builds, held in memory
)

// BuildOutcome enumerates final build states.
type BuildOutcome string

const (
	BuildSuccess BuildOutcome = "success"
	BuildFailed  BuildOutcome = "failed"
)

// Recorder defines observability hooks for build and page metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcome)
	IncPageOutcome(outcome PageOutcome)
	IncRedirect()
	IncCollision()
	ObserveWriteDuration(d time.Duration)
	SetWritesInFlight(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcome)               {}
func (NoopRecorder) IncPageOutcome(PageOutcome)                 {}
func (NoopRecorder) IncRedirect()                               {}
func (NoopRecorder) IncCollision()                              {}
func (NoopRecorder) ObserveWriteDuration(time.Duration)         {}
func (NoopRecorder) SetWritesInFlight(int)                      {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
