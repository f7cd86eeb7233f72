package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	pageOutcome    *prom.CounterVec
	redirects      prom.Counter
	collisions     prom.Counter
	writeDuration  prom.Histogram
	writesInFlight prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pagegen",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pagegen",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagegen",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pageOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagegen",
			Name:      "pages_total",
			Help:      "Pages by outcome (written, skipped, rendered)",
		}, []string{"outcome"})
		pr.redirects = prom.NewCounter(prom.CounterOpts{
			Namespace: "pagegen",
			Name:      "redirects_total",
			Help:      "Redirects negotiated while resolving pages",
		})
		pr.collisions = prom.NewCounter(prom.CounterOpts{
			Namespace: "pagegen",
			Name:      "write_collisions_total",
			Help:      "Competing writes to an already claimed output path",
		})
		pr.writeDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pagegen",
			Name:      "page_write_duration_seconds",
			Help:      "Duration of individual page render and write tasks",
			Buckets:   prom.ExponentialBuckets(0.0005, 2, 14),
		})
		pr.writesInFlight = prom.NewGauge(prom.GaugeOpts{
			Namespace: "pagegen",
			Name:      "writes_in_flight",
			Help:      "Page write tasks currently running",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.buildOutcome, pr.pageOutcome,
			pr.redirects, pr.collisions, pr.writeDuration, pr.writesInFlight)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcome) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPageOutcome(outcome PageOutcome) {
	if p == nil || p.pageOutcome == nil {
		return
	}
	p.pageOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncRedirect() {
	if p == nil || p.redirects == nil {
		return
	}
	p.redirects.Inc()
}

func (p *PrometheusRecorder) IncCollision() {
	if p == nil || p.collisions == nil {
		return
	}
	p.collisions.Inc()
}

func (p *PrometheusRecorder) ObserveWriteDuration(d time.Duration) {
	if p == nil || p.writeDuration == nil {
		return
	}
	p.writeDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetWritesInFlight(n int) {
	if p == nil || p.writesInFlight == nil {
		return
	}
	p.writesInFlight.Set(float64(n))
}
