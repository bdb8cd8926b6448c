package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTraceHooksRecordSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	h := NewTraceHooks(tp)

	ctx := context.Background()
	h.OnLoad(ctx, 214, 12*time.Millisecond, nil)
	h.OnCommit(ctx, uuid.New(), "3 bottles added", 5*time.Millisecond, nil)
	h.OnLayout(ctx, "defrag", 214, 1, 40*time.Millisecond, nil)
	h.OnExport(ctx, "tags", 0, time.Millisecond, errors.New("disk full"))

	spans := sr.Ended()
	want := []string{"store.load", "store.commit", "layout.defrag", "export"}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d", len(spans), len(want))
	}
	for i, s := range spans {
		if s.Name() != want[i] {
			t.Errorf("span %d = %q, want %q", i, s.Name(), want[i])
		}
	}

	layout := spans[2]
	if got := layout.EndTime().Sub(layout.StartTime()); got != 40*time.Millisecond {
		t.Errorf("layout span lasted %v, want 40ms", got)
	}
	if spans[0].Status().Code == codes.Error {
		t.Error("load span marked as error")
	}
	if spans[3].Status().Code != codes.Error {
		t.Error("failed export span not marked as error")
	}
}

func TestNewTracerProviderWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewTracerProvider(&buf, "v1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	NewTraceHooks(tp).OnLoad(context.Background(), 3, time.Millisecond, nil)
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{`"Name":"store.load"`, "cellar.bottles", "cellar"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q:\n%s", want, out)
		}
	}
}
