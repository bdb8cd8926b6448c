package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/cellar/pkg/observability"
)

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogDebug)
	c.RegisterHooks()
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	observability.Store().OnCommit(ctx, uuid.New(), "2 bottles added", 3*time.Millisecond, nil)
	observability.Layout().OnLayout(ctx, "defrag", 40, 1, time.Millisecond, nil)
	observability.Export().OnExport(ctx, "xlsx", 0, time.Millisecond, errors.New("disk full"))

	out := buf.String()
	for _, want := range []string{"commit", "2 bottles added", "defrag", "migrations=1", "export failed", "disk full"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := logHooks{logger: newLogger(&buf, log.InfoLevel)}
	h.OnLoad(context.Background(), 12, time.Millisecond, nil)

	if buf.Len() != 0 {
		t.Errorf("info level logged %q", buf.String())
	}
}

func TestTraceTo(t *testing.T) {
	var logs, spans bytes.Buffer
	c := New(&logs, LogDebug)
	flush, err := c.TraceTo(&spans)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(observability.Reset)

	observability.Layout().OnLayout(context.Background(), "position", 3, 0, time.Millisecond, nil)
	if err := flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(spans.String(), "layout.position") {
		t.Errorf("trace missing layout span:\n%s", spans.String())
	}
	if logs.Len() != 0 {
		t.Errorf("trace hooks also logged %q", logs.String())
	}
}
