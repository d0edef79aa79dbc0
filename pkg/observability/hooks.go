// Package observability provides hooks for timing and tracing pipeline runs.
//
// Libraries call the registered hooks at stage boundaries; the defaults do
// nothing. The CLI registers [LogHooks] with --verbose so every stage is
// logged with its duration.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(observability.NewLogHooks(logger))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLoadStart(ctx, "finances")
//	// ... load ...
//	observability.Pipeline().OnLoadComplete(ctx, "finances", rows, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the figure pipeline.
type PipelineHooks interface {
	// Load events, one per dataset file.
	OnLoadStart(ctx context.Context, dataset string)
	OnLoadComplete(ctx context.Context, dataset string, rows int, duration time.Duration, err error)

	// Transform events, one per figure.
	OnTransformStart(ctx context.Context, figure string)
	OnTransformComplete(ctx context.Context, figure string, duration time.Duration, err error)

	// Render events, one per figure and variant.
	OnRenderStart(ctx context.Context, figure, variant string)
	OnRenderComplete(ctx context.Context, figure, variant string, duration time.Duration, err error)

	// Export events, one per output file.
	OnExportStart(ctx context.Context, base, format string)
	OnExportComplete(ctx context.Context, base, format string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                                    {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error)      {}
func (NoopPipelineHooks) OnTransformStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnTransformComplete(context.Context, string, time.Duration, error)      {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string, string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, string, time.Duration, error) {}
func (NoopPipelineHooks) OnExportStart(context.Context, string, string)                          {}
func (NoopPipelineHooks) OnExportComplete(context.Context, string, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Logging Implementation
// =============================================================================

// LogHooks logs every stage completion at debug level.
type LogHooks struct {
	NoopCacheHooks
	logger *log.Logger
}

// NewLogHooks returns hooks that write to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) done(msg string, duration time.Duration, err error, kv ...any) {
	kv = append(kv, "duration", duration.Round(time.Millisecond))
	if err != nil {
		h.logger.Debug(msg+" failed", append(kv, "error", err)...)
		return
	}
	h.logger.Debug(msg, kv...)
}

func (h *LogHooks) OnLoadStart(context.Context, string) {}
func (h *LogHooks) OnLoadComplete(_ context.Context, dataset string, rows int, d time.Duration, err error) {
	h.done("loaded", d, err, "dataset", dataset, "rows", rows)
}
func (h *LogHooks) OnTransformStart(context.Context, string) {}
func (h *LogHooks) OnTransformComplete(_ context.Context, figure string, d time.Duration, err error) {
	h.done("transformed", d, err, "figure", figure)
}
func (h *LogHooks) OnRenderStart(context.Context, string, string) {}
func (h *LogHooks) OnRenderComplete(_ context.Context, figure, variant string, d time.Duration, err error) {
	h.done("rendered", d, err, "figure", figure, "variant", variant)
}
func (h *LogHooks) OnExportStart(context.Context, string, string) {}
func (h *LogHooks) OnExportComplete(_ context.Context, base, format string, d time.Duration, err error) {
	h.done("exported", d, err, "file", base, "format", format)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
