package observability

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/matzehuels/cellar"

// NewTracerProvider returns a provider that writes every finished span to w
// as JSON. Spans are exported synchronously so nothing is lost when the
// process exits right after a command; call Shutdown to flush the writer.
func NewTracerProvider(w io.Writer, version string) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	res := resource.NewSchemaless(
		semconv.ServiceName("cellar"),
		semconv.ServiceVersion(version),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	), nil
}

// TraceHooks turns store, layout and export events into spans. Events arrive
// after the fact, so each span is backdated by the reported duration.
type TraceHooks struct {
	tracer trace.Tracer
}

var (
	_ StoreHooks  = (*TraceHooks)(nil)
	_ LayoutHooks = (*TraceHooks)(nil)
	_ ExportHooks = (*TraceHooks)(nil)
)

// NewTraceHooks returns hooks recording spans with a tracer from tp.
func NewTraceHooks(tp trace.TracerProvider) *TraceHooks {
	return &TraceHooks{tracer: tp.Tracer(tracerName)}
}

func (h *TraceHooks) span(ctx context.Context, name string, d time.Duration, err error, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := h.tracer.Start(ctx, name,
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(trace.WithTimestamp(end))
}

func (h *TraceHooks) OnLoad(ctx context.Context, bottles int, d time.Duration, err error) {
	h.span(ctx, "store.load", d, err, attribute.Int("cellar.bottles", bottles))
}

func (h *TraceHooks) OnCommit(ctx context.Context, session uuid.UUID, summary string, d time.Duration, err error) {
	h.span(ctx, "store.commit", d, err,
		attribute.String("cellar.session", session.String()),
		attribute.String("cellar.summary", summary))
}

func (h *TraceHooks) OnLayout(ctx context.Context, mode string, bottles, migrations int, d time.Duration, err error) {
	h.span(ctx, "layout."+mode, d, err,
		attribute.Int("cellar.bottles", bottles),
		attribute.Int("cellar.migrations", migrations))
}

func (h *TraceHooks) OnExport(ctx context.Context, format string, bytes int64, d time.Duration, err error) {
	h.span(ctx, "export", d, err,
		attribute.String("cellar.format", format),
		attribute.Int64("cellar.bytes", bytes))
}
