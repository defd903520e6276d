// plugin.go: Core plugin contract and capability interfaces for the plugin runtime
//
// This file defines the fundamental interfaces for the plugin runtime: the
// Plugin lifecycle contract every plugin implements, the four capability
// interfaces plugins expose back to consumers, the compile-time PluginFactory
// contract used by manifest discovery, and the HostContext handed to every
// plugin during initialization.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"context"
	"sync"
	"sync/atomic"
)

// Plugin defines the lifecycle contract every plugin must implement.
//
// A plugin is an independently authored unit that extends the host through
// three mechanisms, all wired up during Initialize:
//   - registering capability implementations into the Capability Registry
//   - subscribing handlers on the Event Bus
//   - instrumenting hook points on the Hook Pipeline
//
// The lifecycle manager owns every plugin instance for the whole process
// lifetime and is the only caller of these methods.
//
// Implementation requirements:
//   - Metadata must return a stable name; the name is the plugin's identity
//     and duplicate names are rejected by the manager
//   - Initialize receives the HostContext and performs all registrations;
//     an error aborts the registration (the plugin is never stored) but
//     must leave no goroutines or resources behind
//   - Shutdown releases resources; it is called at most once
//   - HealthCheck returns nil when healthy; the error carries the reason
//     otherwise and is recorded, never propagated to other plugins
//
// Example implementation:
//
//	type OCRPlugin struct {
//	    client *ocrClient
//	}
//
//	func (p *OCRPlugin) Metadata() PluginMetadata {
//	    return PluginMetadata{
//	        Name:         "ocr-plugin",
//	        Version:      "1.2.0",
//	        Author:       "Document Team",
//	        Capabilities: []CapabilityKind{CapabilityAnalyzer, CapabilityExtractor},
//	    }
//	}
//
//	func (p *OCRPlugin) Initialize(host *HostContext) error {
//	    p.client = newOCRClient(host.ConfigString("ocr_endpoint", "localhost:9090"))
//	    if err := host.Registry().RegisterAnalyzer(p); err != nil {
//	        return err
//	    }
//	    return host.RegisterHook(HookPostDocumentUpload, "scan", p.scanUpload, 10)
//	}
//
//	func (p *OCRPlugin) Shutdown() error { return p.client.Close() }
//
//	func (p *OCRPlugin) HealthCheck(ctx context.Context) error { return p.client.Ping(ctx) }
type Plugin interface {
	// Metadata returns the plugin's identity and declared capabilities.
	// Called before Initialize; must not depend on initialization state.
	Metadata() PluginMetadata

	// Initialize wires the plugin into the runtime. The HostContext gives
	// access to the Capability Registry, Event Bus, Hook Pipeline, logger,
	// and configuration. Returning an error leaves the plugin unregistered;
	// loading continues with the next unit.
	Initialize(host *HostContext) error

	// Shutdown releases the plugin's resources. Errors are logged and do
	// not block other plugins' shutdown.
	Shutdown() error

	// HealthCheck probes the plugin. nil means healthy; a non-nil error is
	// recorded as unhealthy with the error as the reason.
	HealthCheck(ctx context.Context) error
}

// Analyzer is the capability contract for document analysis.
//
// Analyzers declare the file formats they accept and produce a structured
// AnalysisResult. Registration is last-wins: re-registering a name replaces
// the previous analyzer with a warning, since analyzers are commonly
// hot-swapped during tuning.
type Analyzer interface {
	// Name returns the unique analyzer name within the analyzer kind.
	Name() string

	// SupportedFormats returns accepted file extensions (with or without
	// the leading dot, matched case-insensitively).
	SupportedFormats() []string

	// CanHandle reports whether this analyzer accepts the given path.
	CanHandle(path string) bool

	// Analyze processes the file and returns a structured result. Options
	// are analyzer-specific and may be nil.
	Analyze(ctx context.Context, path string, options map[string]any) (*AnalysisResult, error)
}

// Extractor is the capability contract for raw content extraction.
type Extractor interface {
	// Name returns the unique extractor name within the extractor kind.
	Name() string

	// SupportedFormats returns accepted file extensions.
	SupportedFormats() []string

	// Extract returns the textual content of the file.
	Extract(ctx context.Context, path string) (string, error)
}

// Evaluator is the capability contract for quality/metric evaluation.
type Evaluator interface {
	// Name returns the unique evaluator name within the evaluator kind.
	Name() string

	// Metrics returns the metric identifiers this evaluator produces.
	Metrics() []string

	// Evaluate scores the given data and returns a structured result.
	Evaluate(ctx context.Context, data map[string]any) (*AnalysisResult, error)
}

// IntelligenceEnhancer is the capability contract for query/context
// enhancement strategies (retrieval augmentation, query planning, reranking).
type IntelligenceEnhancer interface {
	// Name returns the unique enhancer name within the intelligence kind.
	Name() string

	// Capability returns the enhancement tag consumers look up by
	// (for example "corrective_rag" or "query_planning").
	Capability() string

	// Enhance transforms the enhancement context for the given query and
	// returns the enhanced context.
	Enhance(ctx context.Context, query string, enhCtx map[string]any) (map[string]any, error)
}

// PluginFactory creates plugin instances from discovery manifests.
//
// Factories form the compile-time plugin registry: each statically linked
// plugin package provides a factory, the host registers it on the manager,
// and directory discovery selects factories by the manifest's "factory" key.
// Nothing is ever code-loaded at runtime.
//
// Example:
//
//	type OCRFactory struct{}
//
//	func (OCRFactory) FactoryName() string { return "ocr" }
//
//	func (OCRFactory) CreatePlugin(manifest PluginManifest) (Plugin, error) {
//	    return &OCRPlugin{languages: manifest.StringSetting("languages", "en")}, nil
//	}
type PluginFactory interface {
	// FactoryName returns the key manifests use to select this factory.
	FactoryName() string

	// CreatePlugin builds a plugin instance configured from the manifest.
	CreatePlugin(manifest PluginManifest) (Plugin, error)
}

// HostContext is the object handed to a plugin's Initialize call.
//
// It exposes the three runtime components (Capability Registry, Event Bus,
// Hook Pipeline), a plugin-scoped logger, and configuration lookup backed by
// the plugin's manifest settings merged with runtime configuration. There is
// no global host state: every HostContext is explicitly constructed by the
// manager that owns the components.
//
// The SubscribeEvent and RegisterHook helpers bind callbacks that honor the
// plugin's enabled flag: while the plugin is disabled, its bindings are
// skipped with a debug log instead of executing. Plugins that need ungated
// bindings can go through Events() and Hooks() directly.
type HostContext struct {
	pluginName string
	registry   *CapabilityRegistry
	events     *EventBus
	hooks      *HookPipeline
	logger     Logger
	settings   map[string]any
	enabled    *atomic.Bool

	// Bindings made through this context, so the manager can release
	// whatever the plugin left behind when it is unregistered.
	bindMu        sync.Mutex
	eventBindings map[string][]string
	hookBindings  map[HookPoint][]string
}

// PluginName returns the name of the plugin this context was built for.
func (hc *HostContext) PluginName() string {
	return hc.pluginName
}

// Registry returns the shared Capability Registry.
func (hc *HostContext) Registry() *CapabilityRegistry {
	return hc.registry
}

// Events returns the shared Event Bus. Bindings made directly on the bus
// are not gated by the plugin's enabled flag.
func (hc *HostContext) Events() *EventBus {
	return hc.events
}

// Hooks returns the shared Hook Pipeline. Bindings made directly on the
// pipeline are not gated by the plugin's enabled flag.
func (hc *HostContext) Hooks() *HookPipeline {
	return hc.hooks
}

// Logger returns a logger scoped with the plugin's name.
func (hc *HostContext) Logger() Logger {
	return hc.logger
}

// Enabled reports whether the plugin is currently enabled.
func (hc *HostContext) Enabled() bool {
	return hc.enabled == nil || hc.enabled.Load()
}

// ConfigValue looks up a raw configuration value for this plugin.
//
// Values come from the plugin's manifest settings, overridden by the
// runtime configuration's per-plugin settings when present.
func (hc *HostContext) ConfigValue(key string) (any, bool) {
	v, ok := hc.settings[key]
	return v, ok
}

// ConfigString returns a string setting or def when absent or mistyped.
func (hc *HostContext) ConfigString(key, def string) string {
	if v, ok := hc.settings[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// ConfigBool returns a boolean setting or def when absent or mistyped.
func (hc *HostContext) ConfigBool(key string, def bool) bool {
	if v, ok := hc.settings[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// ConfigInt returns an integer setting or def when absent or mistyped.
// JSON numbers decode as float64; whole floats are accepted.
func (hc *HostContext) ConfigInt(key string, def int) int {
	v, ok := hc.settings[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return def
}

// SubscribeEvent binds an event handler that runs only while the plugin is
// enabled. The binding is registered under "<plugin>.<handlerName>" so logs
// and unsubscription identify it unambiguously.
func (hc *HostContext) SubscribeEvent(eventName, handlerName string, h EventHandler, priority EventPriority) error {
	if h == nil {
		return NewNilEventHandlerError(eventName, handlerName)
	}

	bound := hc.qualify(handlerName)
	gated := func(ctx context.Context, event Event) error {
		if !hc.Enabled() {
			hc.logger.Debug("Skipping event handler, plugin disabled",
				"plugin", hc.pluginName, "handler", bound, "event", event.Name)
			return nil
		}
		return h(ctx, event)
	}
	if err := hc.events.SubscribeWithPriority(eventName, bound, gated, priority); err != nil {
		return err
	}

	hc.bindMu.Lock()
	if hc.eventBindings == nil {
		hc.eventBindings = make(map[string][]string)
	}
	hc.eventBindings[eventName] = append(hc.eventBindings[eventName], bound)
	hc.bindMu.Unlock()
	return nil
}

// UnsubscribeEvent removes bindings made through SubscribeEvent.
func (hc *HostContext) UnsubscribeEvent(eventName, handlerName string) {
	bound := hc.qualify(handlerName)
	hc.events.Unsubscribe(eventName, bound)

	hc.bindMu.Lock()
	if hc.eventBindings != nil {
		hc.eventBindings[eventName] = removeName(hc.eventBindings[eventName], bound)
	}
	hc.bindMu.Unlock()
}

// RegisterHook binds a hook callback that runs only while the plugin is
// enabled; while disabled the callback is skipped and the data passes
// through unchanged. The binding is registered under "<plugin>.<name>".
func (hc *HostContext) RegisterHook(point HookPoint, callbackName string, cb HookCallback, priority int) error {
	if cb == nil {
		return NewNilHookCallbackError(point, callbackName)
	}

	bound := hc.qualify(callbackName)
	gated := func(ctx context.Context, data any, hctx map[string]any) (any, error) {
		if !hc.Enabled() {
			hc.logger.Debug("Skipping hook callback, plugin disabled",
				"plugin", hc.pluginName, "callback", bound, "hook_point", string(point))
			return nil, nil
		}
		return cb(ctx, data, hctx)
	}
	if err := hc.hooks.Register(point, bound, gated, priority); err != nil {
		return err
	}

	hc.bindMu.Lock()
	if hc.hookBindings == nil {
		hc.hookBindings = make(map[HookPoint][]string)
	}
	hc.hookBindings[point] = append(hc.hookBindings[point], bound)
	hc.bindMu.Unlock()
	return nil
}

// UnregisterHook removes bindings made through RegisterHook.
func (hc *HostContext) UnregisterHook(point HookPoint, callbackName string) {
	bound := hc.qualify(callbackName)
	hc.hooks.Unregister(point, bound)

	hc.bindMu.Lock()
	if hc.hookBindings != nil {
		hc.hookBindings[point] = removeName(hc.hookBindings[point], bound)
	}
	hc.bindMu.Unlock()
}

// release drops every binding still registered through this context.
// Called by the manager after the plugin's Shutdown.
func (hc *HostContext) release() {
	hc.bindMu.Lock()
	events := hc.eventBindings
	hooks := hc.hookBindings
	hc.eventBindings = nil
	hc.hookBindings = nil
	hc.bindMu.Unlock()

	for eventName, names := range events {
		for _, bound := range names {
			hc.events.Unsubscribe(eventName, bound)
		}
	}
	for point, names := range hooks {
		for _, bound := range names {
			hc.hooks.Unregister(point, bound)
		}
	}
}

func (hc *HostContext) qualify(name string) string {
	return hc.pluginName + "." + name
}

func removeName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}
