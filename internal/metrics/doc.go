// Package metrics provides the observability hooks for pagegen build metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	engine := build.NewEngine(opts) // recorder defaults to NoopRecorder{}
//
// To enable metrics, swap in the Prometheus implementation:
//
//	reg := prom.NewRegistry()
//	opts.Recorder = metrics.NewPrometheusRecorder(reg)
//
// The CLI exports the registry as a textfile after `build` (--metrics-file)
// and serves it over HTTP in `watch` mode (--metrics-addr).
package metrics
