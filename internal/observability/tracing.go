package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "git.home.luguber.info/inful/pagegen"

// tracer returns the pagegen tracer from the global provider. Without a
// configured provider spans are no-ops.
func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(tracerName)
}

// StartBuildSpan creates a span for a whole build.
func StartBuildSpan(ctx context.Context, buildID, mode string) (context.Context, trace.Span) {
	ctx, span := tracer().Start(ctx, "build."+mode)
	span.SetAttributes(
		attribute.String("build.id", buildID),
		attribute.String("build.mode", mode),
	)
	return ctx, span
}

// StartStageSpan creates a span for a build stage (expand, flush, ...).
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	ctx, span := tracer().Start(ctx, "stage."+stage)
	span.SetAttributes(attribute.String("stage.name", stage))
	return ctx, span
}

// StartPageSpan creates a span for resolving one page.
func StartPageSpan(ctx context.Context, routeName, path string) (context.Context, trace.Span) {
	ctx, span := tracer().Start(ctx, "page.resolve")
	span.SetAttributes(
		attribute.String("route.name", routeName),
		attribute.String("page.path", path),
	)
	return ctx, span
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
