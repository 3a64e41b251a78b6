// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module emit events through the registered hooks and never
// depend on a concrete observability backend. The defaults are no-ops; main
// (or a test) registers real implementations at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnPackageStart(ctx, slug)
//	// ... walk tags ...
//	observability.Pipeline().OnPackageComplete(ctx, slug, extracted, failed, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from a registry run.
type PipelineHooks interface {
	// Run events
	OnRunStart(ctx context.Context, runID string, packages int)
	OnRunComplete(ctx context.Context, runID string, duration time.Duration, err error)

	// Package events
	OnPackageStart(ctx context.Context, slug string)
	OnPackageComplete(ctx context.Context, slug string, extracted, failed int, duration time.Duration)

	// OnRelease records the terminal state of one tag.
	OnRelease(ctx context.Context, slug, version, state string, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the notification dedup cache.
type CacheHooks interface {
	// OnDedupCheck records whether an owner's error set changed since the
	// previous run.
	OnDedupCheck(ctx context.Context, owner string, changed bool)

	// OnPersist records a write of the staged cache state.
	OnPersist(ctx context.Context, owners int, err error)
}

// =============================================================================
// Notify Hooks
// =============================================================================

// NotifyHooks receives events from owner notifications.
type NotifyHooks interface {
	// OnSend records one notification attempt.
	OnSend(ctx context.Context, owner string, errors int, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnRunStart(context.Context, string, int)                            {}
func (NoopPipelineHooks) OnRunComplete(context.Context, string, time.Duration, error)        {}
func (NoopPipelineHooks) OnPackageStart(context.Context, string)                             {}
func (NoopPipelineHooks) OnPackageComplete(context.Context, string, int, int, time.Duration) {}
func (NoopPipelineHooks) OnRelease(context.Context, string, string, string, time.Duration)   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnDedupCheck(context.Context, string, bool) {}
func (NoopCacheHooks) OnPersist(context.Context, int, error)      {}

// NoopNotifyHooks is a no-op implementation of NotifyHooks.
type NoopNotifyHooks struct{}

func (NoopNotifyHooks) OnSend(context.Context, string, int, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	notifyHooks   NotifyHooks   = NoopNotifyHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any run.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetNotifyHooks registers custom notification hooks.
func SetNotifyHooks(h NotifyHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		notifyHooks = h
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

// Notify returns the registered notification hooks.
func Notify() NotifyHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return notifyHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	notifyHooks = NoopNotifyHooks{}
}
