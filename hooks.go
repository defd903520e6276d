// hooks.go: Sequential data-transform pipeline bound to named hook points
//
// The HookPipeline differs from the EventBus on purpose: hooks form a
// pipeline (the output of one callback is the input of the next, order
// sensitive, single logical result) while events form a broadcast
// (independent listeners, no data threading). Hook points are expected to be
// sprinkled pervasively through host code, so a point with no bindings must
// cost nothing beyond a map lookup.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"context"
	"sort"
	"sync"
)

// HookPoint names a location in host logic where a transform chain may run.
// Hosts may define their own points; the constants below are the well-known
// points instrumented by the document/RAG processing flows.
type HookPoint string

// Predefined hook points.
const (
	// Document processing hooks
	HookPreDocumentUpload  HookPoint = "pre_document_upload"
	HookPostDocumentUpload HookPoint = "post_document_upload"
	HookPreDocumentIndex   HookPoint = "pre_document_index"
	HookPostDocumentIndex  HookPoint = "post_document_index"

	// RAG hooks
	HookPreRAGSearch  HookPoint = "pre_rag_search"
	HookPostRAGSearch HookPoint = "post_rag_search"
	HookPreRAGRerank  HookPoint = "pre_rag_rerank"
	HookPostRAGRerank HookPoint = "post_rag_rerank"

	// LLM hooks
	HookPreLLMCall      HookPoint = "pre_llm_call"
	HookPostLLMCall     HookPoint = "post_llm_call"
	HookPrePromptBuild  HookPoint = "pre_prompt_build"
	HookPostPromptBuild HookPoint = "post_prompt_build"

	// Analysis hooks
	HookPreAnalysis  HookPoint = "pre_analysis"
	HookPostAnalysis HookPoint = "post_analysis"

	// Query processing hooks
	HookPreQueryProcessing  HookPoint = "pre_query_processing"
	HookPostQueryProcessing HookPoint = "post_query_processing"

	// Chunking hooks
	HookPreChunking  HookPoint = "pre_chunking"
	HookPostChunking HookPoint = "post_chunking"

	// Extraction hooks
	HookPreExtraction  HookPoint = "pre_extraction"
	HookPostExtraction HookPoint = "post_extraction"
)

// HookCallback transforms the data flowing through a hook point.
//
// Returning a non-nil result replaces the current data for the next callback
// in the chain; returning nil keeps the current data (callbacks that mutate
// in place return nil, nil). A returned error is caught at the dispatch
// boundary: the chain continues with the data as it was before the failing
// callback.
type HookCallback func(ctx context.Context, data any, hctx map[string]any) (any, error)

// hookBinding is one (name, callback, priority) registration entry.
type hookBinding struct {
	name     string
	callback HookCallback
	priority int
}

// HookPipelineOption configures a HookPipeline at construction.
type HookPipelineOption func(*HookPipeline)

// WithPipelineMetrics attaches a metrics collector to the pipeline.
func WithPipelineMetrics(m MetricsCollector) HookPipelineOption {
	return func(p *HookPipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// HookPipeline threads data through priority-ordered callbacks per hook point.
//
// Ordering: callbacks run in descending integer priority, ties broken by
// registration order, strictly sequentially on both the sync and async
// paths. Callback errors and panics are caught, logged with the hook point
// and callback name, and never propagate; the chain continues with the last
// good value. The pipeline provides no timeouts - a hung callback blocks its
// own chain.
//
// Example:
//
//	hooks := NewHookPipeline(logger)
//	_ = hooks.Register(HookPreRAGSearch, "query-expander", expandQuery, 10)
//	query := hooks.Execute(ctx, HookPreRAGSearch, rawQuery, nil)
type HookPipeline struct {
	mu      sync.RWMutex
	logger  Logger
	metrics MetricsCollector
	hooks   map[HookPoint][]hookBinding
	stats   map[HookPoint]uint64
}

// NewHookPipeline creates an empty pipeline.
//
// The logger may be a Logger implementation, *logrus.Logger, or nil for
// silent operation.
func NewHookPipeline(logger any, opts ...HookPipelineOption) *HookPipeline {
	p := &HookPipeline{
		logger:  NewLogger(logger).With("component", "hook-pipeline"),
		metrics: NewInMemoryMetrics(),
		hooks:   make(map[HookPoint][]hookBinding),
		stats:   make(map[HookPoint]uint64),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Register binds a callback to a hook point.
//
// callbackName identifies the binding in error logs and in Unregister.
// Higher priority callbacks run first; ties run in registration order.
func (p *HookPipeline) Register(point HookPoint, callbackName string, cb HookCallback, priority int) error {
	if point == "" {
		return NewEmptyHookPointError()
	}
	if callbackName == "" {
		return NewEmptyCallbackNameError(point)
	}
	if cb == nil {
		return NewNilHookCallbackError(point, callbackName)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, known := p.stats[point]; !known {
		p.stats[point] = 0
	}

	bindings := append(p.hooks[point], hookBinding{
		name:     callbackName,
		callback: cb,
		priority: priority,
	})
	sort.SliceStable(bindings, func(i, j int) bool {
		return bindings[i].priority > bindings[j].priority
	})
	p.hooks[point] = bindings

	p.logger.Debug("Hook registered",
		"hook_point", string(point), "callback", callbackName, "priority", priority)
	return nil
}

// Unregister removes every binding registered under callbackName at the
// point. It is a no-op when no such binding exists.
func (p *HookPipeline) Unregister(point HookPoint, callbackName string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bindings, ok := p.hooks[point]
	if !ok {
		return
	}
	kept := bindings[:0]
	removed := 0
	for _, binding := range bindings {
		if binding.name == callbackName {
			removed++
			continue
		}
		kept = append(kept, binding)
	}
	p.hooks[point] = kept

	if removed > 0 {
		p.logger.Debug("Hook unregistered",
			"hook_point", string(point), "callback", callbackName, "removed", removed)
	}
}

// Execute threads data through every callback bound to the point.
//
// With no bindings the input is returned unchanged and nothing is counted -
// the zero-cost passthrough that makes pervasive hook points affordable.
// Otherwise each callback receives the current data; a non-nil result
// becomes the current data for the next callback, a nil result keeps it. A
// failing callback is caught and logged, and the chain continues with the
// value from before that callback. The point's execution counter increments
// exactly once per Execute call, however many callbacks ran.
//
// Execute never returns an error: callers always receive the final data.
func (p *HookPipeline) Execute(ctx context.Context, point HookPoint, data any, hctx map[string]any) any {
	bindings := p.beginExecution(point)
	if len(bindings) == 0 {
		return data
	}

	if hctx == nil {
		hctx = make(map[string]any)
	}

	current := data
	for _, binding := range bindings {
		current = p.invoke(ctx, point, binding, current, hctx)
	}
	return current
}

// ExecuteAsync threads data through the bound callbacks with the same
// sequential semantics as Execute - hook order defines a data dependency
// chain, so callbacks are never run in parallel. The difference is
// cooperative cancellation: between callbacks the context is checked, and a
// canceled context stops the chain early, returning the data produced so
// far. A callback already running is never interrupted.
func (p *HookPipeline) ExecuteAsync(ctx context.Context, point HookPoint, data any, hctx map[string]any) any {
	bindings := p.beginExecution(point)
	if len(bindings) == 0 {
		return data
	}

	if hctx == nil {
		hctx = make(map[string]any)
	}

	current := data
	for _, binding := range bindings {
		if ctx.Err() != nil {
			p.logger.Debug("Hook chain stopped, context canceled",
				"hook_point", string(point), "next_callback", binding.name)
			return current
		}
		current = p.invoke(ctx, point, binding, current, hctx)
	}
	return current
}

// beginExecution snapshots the binding list and counts the execution when
// bindings exist. Dispatch happens outside the lock so callbacks can freely
// register/unregister hooks while a chain is running.
func (p *HookPipeline) beginExecution(point HookPoint) []hookBinding {
	p.mu.Lock()
	defer p.mu.Unlock()

	bindings := p.hooks[point]
	if len(bindings) == 0 {
		return nil
	}

	p.stats[point]++
	snapshot := make([]hookBinding, len(bindings))
	copy(snapshot, bindings)
	return snapshot
}

// invoke runs one callback with full dispatch-boundary isolation, returning
// the data for the next link in the chain.
func (p *HookPipeline) invoke(ctx context.Context, point HookPoint, binding hookBinding, current any, hctx map[string]any) (result any) {
	result = current
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("Hook callback panicked",
				"hook_point", string(point), "callback", binding.name, "panic", rec)
			p.metrics.IncrementCounter("hook_callback_failures_total",
				map[string]string{"hook_point": string(point)})
			result = current
		}
	}()

	modified, err := binding.callback(ctx, current, hctx)
	if err != nil {
		p.logger.Error("Hook callback failed",
			"hook_point", string(point), "callback", binding.name, "error", err)
		p.metrics.IncrementCounter("hook_callback_failures_total",
			map[string]string{"hook_point": string(point)})
		return current
	}
	if modified != nil {
		return modified
	}
	return current
}

// HasHooks reports whether any callback is bound to the point.
func (p *HookPipeline) HasHooks(point HookPoint) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.hooks[point]) > 0
}

// CountHooks returns the number of callbacks bound to the point.
func (p *HookPipeline) CountHooks(point HookPoint) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.hooks[point])
}

// ListHookPoints returns every point that has seen a registration since the
// last ClearAll, including points whose bindings were since removed.
func (p *HookPipeline) ListHookPoints() []HookPoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	points := make([]HookPoint, 0, len(p.stats))
	for point := range p.stats {
		points = append(points, point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
	return points
}

// Stats returns a copy of the per-point execution counters.
func (p *HookPipeline) Stats() map[HookPoint]uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[HookPoint]uint64, len(p.stats))
	for point, count := range p.stats {
		out[point] = count
	}
	return out
}

// ClearStats resets every execution counter to zero.
func (p *HookPipeline) ClearStats() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for point := range p.stats {
		p.stats[point] = 0
	}
	p.logger.Debug("Hook statistics cleared")
}

// Clear removes every binding at one point. The point remains listed until
// ClearAll.
func (p *HookPipeline) Clear(point HookPoint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.hooks[point]; ok {
		p.hooks[point] = nil
		p.logger.Debug("Hooks cleared", "hook_point", string(point))
	}
}

// ClearAll removes every binding and forgets every point and counter.
func (p *HookPipeline) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hooks = make(map[HookPoint][]hookBinding)
	p.stats = make(map[HookPoint]uint64)
	p.logger.Debug("All hooks cleared")
}
