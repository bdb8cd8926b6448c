package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/cellar/pkg/buildinfo"
	"github.com/matzehuels/cellar/pkg/observability"
)

// logHooks reports store, layout and export events at debug level.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.StoreHooks  = logHooks{}
	_ observability.LayoutHooks = logHooks{}
	_ observability.ExportHooks = logHooks{}
)

// RegisterHooks sends store, layout and export events to the CLI's logger.
func (c *CLI) RegisterHooks() {
	h := logHooks{logger: c.Logger}
	observability.SetStoreHooks(h)
	observability.SetLayoutHooks(h)
	observability.SetExportHooks(h)
}

// TraceTo replaces the log hooks with hooks writing one span per event to w
// as JSON. The returned function flushes the exporter.
func (c *CLI) TraceTo(w io.Writer) (func(context.Context) error, error) {
	tp, err := observability.NewTracerProvider(w, buildinfo.Version)
	if err != nil {
		return nil, err
	}
	h := observability.NewTraceHooks(tp)
	observability.SetStoreHooks(h)
	observability.SetLayoutHooks(h)
	observability.SetExportHooks(h)
	return tp.Shutdown, nil
}

func (h logHooks) event(msg string, err error, d time.Duration, kv ...any) {
	kv = append(kv, "took", d.Round(time.Millisecond))
	if err != nil {
		h.logger.Debug(msg+" failed", append(kv, "err", err)...)
		return
	}
	h.logger.Debug(msg, kv...)
}

func (h logHooks) OnLoad(_ context.Context, bottles int, d time.Duration, err error) {
	h.event("load", err, d, "bottles", bottles)
}

func (h logHooks) OnCommit(_ context.Context, session uuid.UUID, summary string, d time.Duration, err error) {
	h.event("commit", err, d, "session", session, "summary", summary)
}

func (h logHooks) OnLayout(_ context.Context, mode string, bottles, migrations int, d time.Duration, err error) {
	h.event(mode, err, d, "bottles", bottles, "migrations", migrations)
}

func (h logHooks) OnExport(_ context.Context, format string, bytes int64, d time.Duration, err error) {
	h.event("export", err, d, "format", format, "bytes", bytes)
}
