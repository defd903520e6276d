// manager.go: Plugin lifecycle manager
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
)

// Manager owns the plugin runtime: the capability registry, the event bus,
// the hook pipeline, the factory registry, and every plugin instance loaded
// into the process.
//
// Plugins enter through RegisterPlugin (direct, compile-time instances) or
// LoadFromDirectory (manifest discovery routed through registered
// factories). The manager holds each instance for the whole process
// lifetime: plugins are never reloaded in place, only enabled, disabled, or
// shut down. All methods are safe for concurrent use.
//
// There is no package-level manager; every Manager is explicitly constructed
// and owns its components, so independent runtimes can coexist in one
// process (production host and test harness, staging and live pipelines).
//
// Example usage:
//
//	manager := NewManager(logger)
//	manager.RegisterFactory(ocr.Factory())
//
//	if err := manager.RegisterPlugin(analytics.New()); err != nil {
//	    log.Fatal(err)
//	}
//
//	loaded, err := manager.LoadFromDirectory(ctx, "/etc/argo/plugins.d")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Printf("loaded %d plugins", loaded)
//
//	// Dispatch through the shared components.
//	data := manager.Hooks().Execute(ctx, HookPreRAGSearch, query, nil)
//
//	// Graceful shutdown, reverse load order.
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	manager.ShutdownAll(ctx)
type Manager struct {
	logger    Logger
	metrics   MetricsCollector
	registry  *CapabilityRegistry
	events    *EventBus
	hooks     *HookPipeline
	factories *FactoryRegistry
	discovery *DiscoveryEngine

	mu        sync.RWMutex
	plugins   map[string]*pluginRecord
	loadOrder []string
	shutdown  atomic.Bool
}

// pluginRecord tracks one registered plugin and its runtime state.
//
// The enabled flag is shared with the plugin's HostContext: flipping it here
// is what gates the plugin's event handlers and hook callbacks.
type pluginRecord struct {
	plugin   Plugin
	metadata PluginMetadata
	enabled  *atomic.Bool
	host     *HostContext
	health   HealthStatus
}

type managerOptions struct {
	metrics         MetricsCollector
	historyCapacity int
	discovery       DiscoveryConfig
}

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*managerOptions)

// WithManagerMetrics sets the metrics collector shared by the manager, the
// event bus, and the hook pipeline. Defaults to an in-memory collector.
func WithManagerMetrics(m MetricsCollector) ManagerOption {
	return func(o *managerOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithEventHistoryCapacity sets the event bus history ring size.
func WithEventHistoryCapacity(capacity int) ManagerOption {
	return func(o *managerOptions) {
		if capacity > 0 {
			o.historyCapacity = capacity
		}
	}
}

// WithDiscovery sets the manifest discovery configuration used by
// LoadFromDirectory.
func WithDiscovery(config DiscoveryConfig) ManagerOption {
	return func(o *managerOptions) {
		o.discovery = config
	}
}

// NewManager creates a plugin manager with its own capability registry,
// event bus, hook pipeline, and factory registry.
//
// Parameters:
//   - logger: Any supported logger type (Logger interface, *logrus.Logger,
//     or nil for a no-op logger)
//   - opts: Optional configuration (metrics collector, event history
//     capacity, discovery settings)
//
// The manager starts empty: register factories and plugins, or point
// LoadFromDirectory at a manifest directory.
func NewManager(logger any, opts ...ManagerOption) *Manager {
	options := managerOptions{
		metrics:         NewInMemoryMetrics(),
		historyCapacity: DefaultHistoryCapacity,
		discovery:       DefaultDiscoveryConfig(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	internalLogger := NewLogger(logger)

	return &Manager{
		logger:   internalLogger.With("component", "plugin-manager"),
		metrics:  options.metrics,
		registry: NewCapabilityRegistry(internalLogger),
		events: NewEventBus(internalLogger,
			WithHistoryCapacity(options.historyCapacity),
			WithBusMetrics(options.metrics)),
		hooks: NewHookPipeline(internalLogger,
			WithPipelineMetrics(options.metrics)),
		factories: NewFactoryRegistry(internalLogger),
		discovery: NewDiscoveryEngine(options.discovery, internalLogger),
		plugins:   make(map[string]*pluginRecord),
	}
}

// Registry returns the capability registry shared with every plugin.
func (m *Manager) Registry() *CapabilityRegistry {
	return m.registry
}

// Events returns the event bus shared with every plugin.
func (m *Manager) Events() *EventBus {
	return m.events
}

// Hooks returns the hook pipeline shared with every plugin.
func (m *Manager) Hooks() *HookPipeline {
	return m.hooks
}

// Metrics returns the metrics collector shared across the runtime.
func (m *Manager) Metrics() MetricsCollector {
	return m.metrics
}

// RegisterFactory adds a plugin factory to the compile-time factory
// registry. Manifests select factories by FactoryName.
func (m *Manager) RegisterFactory(factory PluginFactory) error {
	return m.factories.Register(factory)
}

// FactoryNames returns the registered factory names in sorted order.
func (m *Manager) FactoryNames() []string {
	return m.factories.Names()
}

// RegisterPlugin registers and initializes a plugin instance.
//
// The plugin's metadata name is its identity: a second plugin with the same
// name is rejected before Initialize runs. Initialize receives a fresh
// HostContext wired to the manager's components; when it returns an error
// the plugin is not stored and the error is wrapped with the plugin name.
// On success the plugin is active immediately and a "plugin.loaded" event is
// published.
func (m *Manager) RegisterPlugin(plugin Plugin) error {
	return m.registerPlugin(plugin, nil)
}

// registerPlugin is the shared registration path for direct instances and
// manifest-built plugins. Initialize runs under the registration lock;
// plugins interact through the HostContext, which never reaches back into
// the manager, so the lock cannot recurse.
func (m *Manager) registerPlugin(plugin Plugin, manifest *PluginManifest) error {
	if m.shutdown.Load() {
		return NewManagerShutdownError()
	}
	if plugin == nil {
		return NewNilPluginError()
	}

	metadata := plugin.Metadata()
	if metadata.Name == "" {
		return NewInvalidPluginNameError(metadata.Name)
	}

	enabled := &atomic.Bool{}
	enabled.Store(true)
	var settings map[string]any
	if manifest != nil {
		settings = manifest.Settings
		enabled.Store(manifest.IsEnabled())
	}

	host := &HostContext{
		pluginName: metadata.Name,
		registry:   m.registry,
		events:     m.events,
		hooks:      m.hooks,
		logger:     m.logger.With("plugin", metadata.Name),
		settings:   settings,
		enabled:    enabled,
	}

	m.mu.Lock()
	if _, exists := m.plugins[metadata.Name]; exists {
		m.mu.Unlock()
		m.logger.Warn("Plugin already registered, keeping first registration",
			"plugin", metadata.Name)
		return NewPluginAlreadyRegisteredError(metadata.Name)
	}

	metadata.State = StateInstantiated
	if err := plugin.Initialize(host); err != nil {
		m.mu.Unlock()
		host.release()
		return NewPluginInitError(metadata.Name, err)
	}

	metadata.LoadedAt = timecache.CachedTime()
	metadata.Enabled = enabled.Load()
	if metadata.Enabled {
		metadata.State = StateActive
	} else {
		metadata.State = StateDisabled
	}

	m.plugins[metadata.Name] = &pluginRecord{
		plugin:   plugin,
		metadata: metadata,
		enabled:  enabled,
		host:     host,
		health: HealthStatus{
			Status:    StatusHealthy,
			Message:   "Plugin registered",
			LastCheck: timecache.CachedTime(),
		},
	}
	m.loadOrder = append(m.loadOrder, metadata.Name)
	m.mu.Unlock()

	m.metrics.IncrementCounter("plugins_registered_total", nil)
	m.logger.Info("Plugin registered",
		"plugin", metadata.Name,
		"version", metadata.Version,
		"enabled", metadata.Enabled)

	_ = m.events.Publish(context.Background(), EventPluginLoaded, map[string]any{
		"plugin":  metadata.Name,
		"version": metadata.Version,
	}, WithSource("plugin-manager"))

	return nil
}

// LoadFromDirectory discovers plugin manifests under dir and registers every
// unit it can build.
//
// Each manifest is handled in isolation: a missing factory, a factory
// error, or a failed registration is logged and skipped so one broken unit
// never blocks the rest. The returned count is the number of plugins
// successfully registered; the error covers only discovery itself.
func (m *Manager) LoadFromDirectory(ctx context.Context, dir string) (int, error) {
	if m.shutdown.Load() {
		return 0, NewManagerShutdownError()
	}

	manifests, err := m.discovery.Discover(ctx, dir)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, manifest := range manifests {
		plugin, err := m.factories.Build(manifest)
		if err != nil {
			m.logger.Error("Skipping plugin, factory failed",
				"plugin", manifest.Name,
				"factory", manifest.Factory,
				"path", manifest.Path,
				"error", err)
			continue
		}

		if err := m.registerPlugin(plugin, &manifest); err != nil {
			m.logger.Error("Skipping plugin, registration failed",
				"plugin", manifest.Name,
				"path", manifest.Path,
				"error", err)
			continue
		}
		loaded++
	}

	m.logger.Info("Directory load completed",
		"directory", dir,
		"manifests", len(manifests),
		"loaded", loaded)
	return loaded, nil
}

// EnablePlugin turns a disabled plugin's bindings back on.
// Enabling an already enabled plugin is a no-op.
func (m *Manager) EnablePlugin(name string) error {
	return m.setEnabled(name, true)
}

// DisablePlugin gates a plugin's event handlers and hook callbacks without
// shutting it down. The instance, its capability registrations, and its
// bindings all stay in place; the bindings are skipped at dispatch while
// disabled. Disabling an already disabled plugin is a no-op.
func (m *Manager) DisablePlugin(name string) error {
	return m.setEnabled(name, false)
}

func (m *Manager) setEnabled(name string, enabled bool) error {
	m.mu.Lock()
	record, exists := m.plugins[name]
	if !exists {
		m.mu.Unlock()
		return NewPluginNotFoundError(name)
	}
	if record.enabled.Load() == enabled {
		m.mu.Unlock()
		return nil
	}

	record.enabled.Store(enabled)
	record.metadata.Enabled = enabled
	eventName := EventPluginEnabled
	if enabled {
		record.metadata.State = StateActive
	} else {
		record.metadata.State = StateDisabled
		eventName = EventPluginDisabled
	}
	m.mu.Unlock()

	m.logger.Info("Plugin state changed", "plugin", name, "enabled", enabled)
	_ = m.events.Publish(context.Background(), eventName, map[string]any{
		"plugin": name,
	}, WithSource("plugin-manager"))
	return nil
}

// UnregisterPlugin removes a plugin: its bindings stop dispatching, its
// Shutdown runs, and whatever bindings it left behind are released.
//
// The plugin is removed even when its Shutdown returns an error; the error
// is returned so callers can observe it.
func (m *Manager) UnregisterPlugin(name string) error {
	m.mu.Lock()
	record, exists := m.plugins[name]
	if !exists {
		m.mu.Unlock()
		return NewPluginNotFoundError(name)
	}
	delete(m.plugins, name)
	m.loadOrder = removeName(m.loadOrder, name)
	m.mu.Unlock()

	record.enabled.Store(false)

	var shutdownErr error
	if err := record.plugin.Shutdown(); err != nil {
		shutdownErr = NewPluginShutdownError(name, err)
		m.logger.Warn("Plugin shutdown returned error during unregister",
			"plugin", name, "error", err)
	}
	record.host.release()

	m.logger.Info("Plugin unregistered", "plugin", name)
	_ = m.events.Publish(context.Background(), EventPluginShutdown, map[string]any{
		"plugin": name,
	}, WithSource("plugin-manager"))

	return shutdownErr
}

// ShutdownAll stops the runtime: plugins shut down in reverse load order,
// their leftover bindings are released, and the event bus drains.
//
// Every plugin's Shutdown runs regardless of earlier failures; the returned
// error joins whatever errors occurred. The context bounds only the final
// event drain - a plugin's Shutdown itself is synchronous. Calling
// ShutdownAll twice returns an error from the second call.
func (m *Manager) ShutdownAll(ctx context.Context) error {
	if !m.shutdown.CompareAndSwap(false, true) {
		return NewManagerShutdownError()
	}

	m.logger.Info("Shutting down plugin manager")

	m.mu.Lock()
	order := make([]string, len(m.loadOrder))
	copy(order, m.loadOrder)
	records := make(map[string]*pluginRecord, len(m.plugins))
	for name, record := range m.plugins {
		records[name] = record
	}
	m.plugins = make(map[string]*pluginRecord)
	m.loadOrder = nil
	m.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		record := records[name]
		record.enabled.Store(false)

		if err := record.plugin.Shutdown(); err != nil {
			errs = append(errs, NewPluginShutdownError(name, err))
			m.logger.Warn("Plugin shutdown returned error",
				"plugin", name, "error", err)
		}
		record.host.release()
		record.metadata.State = StateShutdown

		_ = m.events.Publish(context.Background(), EventPluginShutdown, map[string]any{
			"plugin": name,
		}, WithSource("plugin-manager"))
	}

	m.drainEvents(ctx)

	m.logger.Info("Plugin manager shutdown complete", "plugins_stopped", len(order))
	return errors.Join(errs...)
}

// drainEvents closes the event bus, waiting for in-flight asynchronous
// handlers to finish or the context to expire.
func (m *Manager) drainEvents(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		m.events.Close()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Debug("Event bus drained")
	case <-ctx.Done():
		m.logger.Warn("Shutdown timeout reached before event handlers drained")
	}
}

// HealthCheck probes every registered plugin and reports liveness per
// plugin name. The map always contains one entry per registered plugin:
// true when HealthCheck returned nil, false on error or panic. Probe
// results update the stored statuses returned by HealthSnapshot.
func (m *Manager) HealthCheck(ctx context.Context) map[string]bool {
	m.mu.RLock()
	targets := make(map[string]Plugin, len(m.plugins))
	for name, record := range m.plugins {
		targets[name] = record.plugin
	}
	m.mu.RUnlock()

	results := make(map[string]bool, len(targets))
	for name, plugin := range targets {
		healthy, status := m.probePlugin(ctx, name, plugin)
		results[name] = healthy

		m.mu.Lock()
		if record, exists := m.plugins[name]; exists {
			record.health = status
		}
		m.mu.Unlock()
	}
	return results
}

// probePlugin runs one health check, converting errors and panics into an
// unhealthy status. A misbehaving plugin must never take the probe down.
func (m *Manager) probePlugin(ctx context.Context, name string, plugin Plugin) (healthy bool, status HealthStatus) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := NewHealthCheckPanicError(name, r)
			m.logger.Error("Plugin health check panicked", "plugin", name, "panic", r)
			m.metrics.IncrementCounter("health_check_failures_total", map[string]string{"plugin": name})
			healthy = false
			status = HealthStatus{
				Status:       StatusUnhealthy,
				Message:      err.Error(),
				LastCheck:    timecache.CachedTime(),
				ResponseTime: time.Since(start),
			}
		}
	}()

	err := plugin.HealthCheck(ctx)
	elapsed := time.Since(start)
	if err != nil {
		m.logger.Warn("Plugin health check failed", "plugin", name, "error", err)
		m.metrics.IncrementCounter("health_check_failures_total", map[string]string{"plugin": name})
		return false, HealthStatus{
			Status:       StatusUnhealthy,
			Message:      err.Error(),
			LastCheck:    timecache.CachedTime(),
			ResponseTime: elapsed,
		}
	}

	return true, HealthStatus{
		Status:       StatusHealthy,
		Message:      "Health check passed",
		LastCheck:    timecache.CachedTime(),
		ResponseTime: elapsed,
	}
}

// HealthSnapshot returns the last recorded health status per plugin without
// probing. Statuses are updated by HealthCheck and the background monitor.
func (m *Manager) HealthSnapshot() map[string]HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]HealthStatus, len(m.plugins))
	for name, record := range m.plugins {
		snapshot[name] = record.health
	}
	return snapshot
}

// ListPlugins returns metadata for every registered plugin in load order.
func (m *Manager) ListPlugins() []PluginMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]PluginMetadata, 0, len(m.loadOrder))
	for _, name := range m.loadOrder {
		if record, exists := m.plugins[name]; exists {
			list = append(list, record.metadata)
		}
	}
	return list
}

// GetPluginMetadata returns the metadata of one registered plugin.
func (m *Manager) GetPluginMetadata(name string) (PluginMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.plugins[name]
	if !exists {
		return PluginMetadata{}, NewPluginNotFoundError(name)
	}
	return record.metadata, nil
}

// PluginCount returns the number of registered plugins.
func (m *Manager) PluginCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// AnalyzerFor selects the analyzer responsible for the file's extension.
func (m *Manager) AnalyzerFor(path string) (Analyzer, error) {
	return m.registry.AnalyzerForFile(path)
}

// ExtractorFor selects the extractor responsible for the file's extension.
func (m *Manager) ExtractorFor(path string) (Extractor, error) {
	return m.registry.ExtractorForFile(path)
}

// Evaluator returns a registered evaluator by name.
func (m *Manager) Evaluator(name string) (Evaluator, error) {
	return m.registry.EvaluatorByName(name)
}

// IntelligenceFor returns the intelligence enhancer advertising capability.
func (m *Manager) IntelligenceFor(capability string) (IntelligenceEnhancer, error) {
	return m.registry.IntelligenceByCapability(capability)
}
