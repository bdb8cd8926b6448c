// Package observability provides hooks for timing and counting cellar
// operations.
//
// Libraries report events through the registered hooks; the defaults do
// nothing. The command line registers hooks that log each event at debug
// level, and other frontends can register their own metrics backend without
// the store or exporters depending on it.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    observability.SetLayoutHooks(&myLayoutHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	ids, err := commit(ctx, l)
//	observability.Store().OnCommit(ctx, l.Session(), l.Summary(), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from the SQLite store.
type StoreHooks interface {
	// OnLoad records reading the whole cellar.
	OnLoad(ctx context.Context, bottles int, duration time.Duration, err error)

	// OnCommit records one change session written, or rolled back when err
	// is set.
	OnCommit(ctx context.Context, session uuid.UUID, summary string, duration time.Duration, err error)
}

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from placement runs.
type LayoutHooks interface {
	// OnLayout records one position or defrag run. Migrations counts
	// overflow moves between stacks.
	OnLayout(ctx context.Context, mode string, bottles, migrations int, duration time.Duration, err error)
}

// =============================================================================
// Export Hooks
// =============================================================================

// ExportHooks receives events from exporters.
type ExportHooks interface {
	// OnExport records one file written in the given format.
	OnExport(ctx context.Context, format string, bytes int64, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(context.Context, int, time.Duration, error)                 {}
func (NoopStoreHooks) OnCommit(context.Context, uuid.UUID, string, time.Duration, error) {}

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnLayout(context.Context, string, int, int, time.Duration, error) {}

// NoopExportHooks is a no-op implementation of ExportHooks.
type NoopExportHooks struct{}

func (NoopExportHooks) OnExport(context.Context, string, int64, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	storeHooks  StoreHooks  = NoopStoreHooks{}
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	exportHooks ExportHooks = NoopExportHooks{}
	hooksMu     sync.RWMutex
)

// SetStoreHooks registers custom store hooks. Nil is ignored.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetLayoutHooks registers custom layout hooks. Nil is ignored.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetExportHooks registers custom export hooks. Nil is ignored.
func SetExportHooks(h ExportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		exportHooks = h
	}
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Export returns the registered export hooks.
func Export() ExportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return exportHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	storeHooks = NoopStoreHooks{}
	layoutHooks = NoopLayoutHooks{}
	exportHooks = NoopExportHooks{}
}
