package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyRoute      = "route"
	KeyParam      = "param"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyTemplate   = "template"
	KeyComponent  = "component"
	KeyDigest     = "digest"
	KeyFrom       = "from"
	KeyTo         = "to"
	KeyDepth      = "depth"
	KeyRouteIndex = "route_index"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
	KeyCollection = "collection"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Route(name string) slog.Attr     { return slog.String(KeyRoute, name) }
func Param(name string) slog.Attr     { return slog.String(KeyParam, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Template(p string) slog.Attr     { return slog.String(KeyTemplate, p) }
func Component(c string) slog.Attr    { return slog.String(KeyComponent, c) }
func Digest(d string) slog.Attr       { return slog.String(KeyDigest, d) }
func From(p string) slog.Attr         { return slog.String(KeyFrom, p) }
func To(p string) slog.Attr           { return slog.String(KeyTo, p) }
func Depth(d int) slog.Attr           { return slog.Int(KeyDepth, d) }
func RouteIndex(i int) slog.Attr      { return slog.Int(KeyRouteIndex, i) }
func Collection(n string) slog.Attr   { return slog.String(KeyCollection, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
