package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	NoopStoreHooks{}.OnLoad(ctx, 214, time.Millisecond, nil)
	NoopStoreHooks{}.OnCommit(ctx, uuid.New(), "3 bottles added", time.Millisecond, nil)
	NoopLayoutHooks{}.OnLayout(ctx, "defrag", 214, 2, time.Millisecond, nil)
	NoopExportHooks{}.OnExport(ctx, "xlsx", 8192, time.Millisecond, errors.New("disk full"))
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Layout() should return NoopLayoutHooks by default")
	}
	if _, ok := Export().(NoopExportHooks); !ok {
		t.Error("Export() should return NoopExportHooks by default")
	}

	rec := &recorder{}
	SetStoreHooks(rec)
	SetLayoutHooks(rec)
	SetExportHooks(rec)

	ctx := context.Background()
	Store().OnCommit(ctx, uuid.New(), "1 bottle consumed", time.Millisecond, nil)
	Layout().OnLayout(ctx, "position", 10, 0, time.Millisecond, nil)
	Export().OnExport(ctx, "json", 100, time.Millisecond, nil)

	want := []string{"commit", "layout", "export"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], want[i])
		}
	}

	Reset()
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Reset() should restore NoopStoreHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	rec := &recorder{}
	SetLayoutHooks(rec)
	SetLayoutHooks(nil)

	if Layout() != rec {
		t.Error("SetLayoutHooks(nil) should be ignored")
	}
}

type recorder struct {
	NoopStoreHooks
	events []string
}

func (r *recorder) OnCommit(context.Context, uuid.UUID, string, time.Duration, error) {
	r.events = append(r.events, "commit")
}

func (r *recorder) OnLayout(context.Context, string, int, int, time.Duration, error) {
	r.events = append(r.events, "layout")
}

func (r *recorder) OnExport(context.Context, string, int64, time.Duration, error) {
	r.events = append(r.events, "export")
}
