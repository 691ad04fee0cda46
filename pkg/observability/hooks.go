// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about the two pipeline passes and about frame reads.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the library packages
// never import a metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetReaderHooks(&myReaderHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnScanStart(ctx, bg, ed, level)
//	// ... scan frames ...
//	observability.Pipeline().OnScanComplete(ctx, frames, patches, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the rasterization pipeline.
type PipelineHooks interface {
	// Extent scan (first pass)
	OnScanStart(ctx context.Context, bg, ed, level int)
	OnScanComplete(ctx context.Context, frames, patches int, duration time.Duration, err error)

	// Per-frame rasterization (second pass); skipped frames report zero duration.
	OnFrameComplete(ctx context.Context, frame int, skipped bool, duration time.Duration, err error)

	// Sink close, which writes the NetCDF artifact.
	OnWriteComplete(ctx context.Context, frames int, duration time.Duration, err error)
}

// =============================================================================
// Reader Hooks
// =============================================================================

// ReaderHooks receives events from solver output reads.
type ReaderHooks interface {
	// OnFrameRead records one decoded frame.
	OnFrameRead(ctx context.Context, frame, patches int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnScanStart(context.Context, int, int, int) {}
func (NoopPipelineHooks) OnScanComplete(context.Context, int, int, time.Duration, error) {}
func (NoopPipelineHooks) OnFrameComplete(context.Context, int, bool, time.Duration, error) {}
func (NoopPipelineHooks) OnWriteComplete(context.Context, int, time.Duration, error) {}

// NoopReaderHooks is a no-op implementation of ReaderHooks.
type NoopReaderHooks struct{}

func (NoopReaderHooks) OnFrameRead(context.Context, int, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	readerHooks   ReaderHooks   = NoopReaderHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetReaderHooks registers custom reader hooks.
func SetReaderHooks(h ReaderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		readerHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Reader returns the registered reader hooks.
func Reader() ReaderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return readerHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	readerHooks = NoopReaderHooks{}
}
