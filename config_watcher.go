// config_watcher.go: Runtime configuration hot reload with Argus integration
//
// The watcher keeps one runtime configuration file under Argus observation
// and applies changes without restarting the host. Plugin instances are
// never recreated on reload: the hot-applicable surface is the per-plugin
// enabled flag, which gates each plugin's bindings at dispatch time. Every
// load, apply, and failure is recorded on the Argus audit trail.
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

	"github.com/agilira/argus"
)

// ConfigWatcherOptions configures hot reload behavior.
type ConfigWatcherOptions struct {
	// PollInterval is how often Argus polls the file for changes.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// CacheTTL bounds stat caching between polls.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	// Audit configures the Argus audit trail for configuration events.
	Audit argus.AuditConfig `json:"audit" yaml:"audit"`

	// ErrorHandler receives file watching errors; defaults to error logging.
	ErrorHandler func(error, string) `json:"-" yaml:"-"`
}

// DefaultConfigWatcherOptions returns production defaults: 10 second polls,
// 5 second stat cache, and a buffered JSONL audit trail.
func DefaultConfigWatcherOptions() ConfigWatcherOptions {
	return ConfigWatcherOptions{
		PollInterval: 10 * time.Second,
		CacheTTL:     5 * time.Second,
		Audit: argus.AuditConfig{
			Enabled:       true,
			OutputFile:    "argo-plugins-config-audit.jsonl",
			MinLevel:      argus.AuditInfo,
			BufferSize:    1000,
			FlushInterval: 10 * time.Second,
		},
	}
}

// ConfigWatcher hot-reloads a runtime configuration file onto a manager.
//
// Usage example:
//
//	watcher, err := NewConfigWatcher(manager, "/etc/argo/runtime.yaml",
//	    DefaultConfigWatcherOptions(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := watcher.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer watcher.Stop()
//
// The watcher lifecycle is one-way: once stopped it cannot be restarted.
type ConfigWatcher struct {
	manager *Manager
	logger  Logger

	watcher     *argus.Watcher
	auditLogger *argus.AuditLogger

	configPath    string
	currentConfig atomic.Pointer[RuntimeConfig]

	enabled  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
	mutex    sync.Mutex

	options ConfigWatcherOptions
}

// NewConfigWatcher creates a watcher for the manager's runtime configuration.
//
// The watcher is inert until Start is called. Zero-value poll settings fall
// back to DefaultConfigWatcherOptions values.
func NewConfigWatcher(manager *Manager, configPath string, options ConfigWatcherOptions, logger any) (*ConfigWatcher, error) {
	if configPath == "" {
		return nil, NewConfigPathError(configPath, "empty config file path")
	}

	defaults := DefaultConfigWatcherOptions()
	if options.PollInterval <= 0 {
		options.PollInterval = defaults.PollInterval
	}
	if options.CacheTTL <= 0 {
		options.CacheTTL = defaults.CacheTTL
	}

	internalLogger := NewLogger(logger).With("component", "config-watcher")

	watcher := argus.New(argus.Config{
		PollInterval:         options.PollInterval,
		CacheTTL:             options.CacheTTL,
		MaxWatchedFiles:      5,
		Audit:                options.Audit,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, filepath string) {
			if options.ErrorHandler != nil {
				options.ErrorHandler(err, filepath)
			} else {
				internalLogger.Error("Config file watching error", "error", err, "file", filepath)
			}
		},
	})

	var auditLogger *argus.AuditLogger
	if options.Audit.Enabled {
		var err error
		auditLogger, err = argus.NewAuditLogger(options.Audit)
		if err != nil {
			return nil, NewConfigWatcherError("failed to create audit logger", err)
		}
	}

	return &ConfigWatcher{
		manager:     manager,
		logger:      internalLogger,
		watcher:     watcher,
		auditLogger: auditLogger,
		configPath:  configPath,
		options:     options,
	}, nil
}

// Start loads and applies the configuration, then begins watching the file.
//
// Returns an error when the watcher is already running or permanently
// stopped, when the initial load or apply fails, or when Argus cannot watch
// the file. On any failure the watcher returns to its inert state.
func (cw *ConfigWatcher) Start(_ context.Context) error {
	if cw.stopped.Load() {
		return NewConfigWatcherError("config watcher has been permanently stopped and cannot be restarted", nil)
	}

	cw.mutex.Lock()
	defer cw.mutex.Unlock()

	if !cw.enabled.CompareAndSwap(false, true) {
		return NewConfigWatcherError("config watcher is already running", nil)
	}

	initialConfig, err := LoadRuntimeConfig(cw.configPath)
	if err != nil {
		cw.enabled.Store(false)
		return NewConfigWatcherError("failed to load initial configuration", err)
	}

	if err := cw.applyConfig(initialConfig); err != nil {
		cw.enabled.Store(false)
		return NewConfigWatcherError("failed to apply initial configuration", err)
	}
	cw.currentConfig.Store(initialConfig)

	cw.auditEvent("configuration_loaded", map[string]interface{}{
		"path":   cw.configPath,
		"source": "initial_load",
	})

	if err := cw.watcher.Watch(cw.configPath, cw.handleConfigChange); err != nil {
		cw.enabled.Store(false)
		return NewConfigWatcherError("failed to watch config file", err)
	}

	if err := cw.watcher.Start(); err != nil {
		cw.enabled.Store(false)
		return NewConfigWatcherError("failed to start Argus watcher", err)
	}

	cw.logger.Info("Configuration watcher started",
		"config_path", cw.configPath,
		"poll_interval", cw.options.PollInterval)

	cw.auditEvent("config_watcher_started", map[string]interface{}{
		"config_path":   cw.configPath,
		"poll_interval": cw.options.PollInterval.String(),
	})

	return nil
}

// Stop permanently stops the watcher and closes the audit trail.
// Safe to call concurrently; only the first call performs the shutdown.
func (cw *ConfigWatcher) Stop() error {
	if cw.stopped.Load() {
		return NewConfigWatcherError("config watcher is already stopped", nil)
	}

	var stopErr error
	cw.stopOnce.Do(func() {
		cw.mutex.Lock()
		defer cw.mutex.Unlock()

		if !cw.enabled.CompareAndSwap(true, false) {
			stopErr = NewConfigWatcherError("config watcher is not running", nil)
			return
		}

		cw.stopped.Store(true)

		if argusErr := cw.watcher.Stop(); argusErr != nil {
			cw.enabled.Store(true)
			stopErr = NewConfigWatcherError("failed to stop Argus watcher", argusErr)
			return
		}

		if cw.auditLogger != nil {
			if closeErr := cw.auditLogger.Close(); closeErr != nil {
				cw.logger.Warn("Failed to close audit logger during shutdown", "error", closeErr)
			}
		}

		cw.logger.Info("Configuration watcher stopped")
	})

	return stopErr
}

// IsRunning reports whether the watcher is active.
func (cw *ConfigWatcher) IsRunning() bool {
	return cw.enabled.Load() && !cw.stopped.Load()
}

// CurrentConfig returns the last successfully applied configuration.
func (cw *ConfigWatcher) CurrentConfig() *RuntimeConfig {
	return cw.currentConfig.Load()
}

// handleConfigChange is the Argus callback for file changes. A reload that
// fails at any stage leaves the previous configuration in effect.
func (cw *ConfigWatcher) handleConfigChange(event argus.ChangeEvent) {
	cw.logger.Info("Configuration file change detected",
		"path", event.Path,
		"mod_time", event.ModTime,
		"is_create", event.IsCreate,
		"is_delete", event.IsDelete,
		"is_modify", event.IsModify)

	if event.IsDelete {
		cw.logger.Warn("Configuration file was deleted, keeping current configuration", "path", event.Path)
		cw.auditEvent("config_file_deleted", map[string]interface{}{
			"path": event.Path,
		})
		return
	}

	newConfig, err := LoadRuntimeConfig(event.Path)
	if err != nil {
		cw.logger.Error("Failed to load new configuration", "error", err, "path", event.Path)
		cw.auditEvent("config_load_failed", map[string]interface{}{
			"path":  event.Path,
			"error": err.Error(),
		})
		return
	}

	if err := cw.applyConfig(newConfig); err != nil {
		cw.logger.Error("Failed to apply configuration changes", "error", err)
		cw.auditEvent("config_apply_failed", map[string]interface{}{
			"path":  event.Path,
			"error": err.Error(),
		})
		return
	}

	cw.currentConfig.Store(newConfig)

	cw.logger.Info("Configuration reload completed")
	cw.auditEvent("configuration_changed", map[string]interface{}{
		"path": event.Path,
	})
}

// applyConfig pushes the hot-reloadable settings onto the manager: each
// configured plugin is enabled or disabled to match its settings entry.
// Entries naming unknown plugins are ignored so a configuration can be
// written ahead of the plugins it describes.
func (cw *ConfigWatcher) applyConfig(config *RuntimeConfig) error {
	if previous := cw.currentConfig.Load(); previous != nil {
		cw.warnStaticChanges(previous, config)
	}

	var errs []error
	for _, settings := range config.Plugins {
		if _, err := cw.manager.GetPluginMetadata(settings.Name); err != nil {
			cw.logger.Debug("Configuration names unknown plugin, ignoring", "plugin", settings.Name)
			continue
		}

		var err error
		if settings.IsEnabled() {
			err = cw.manager.EnablePlugin(settings.Name)
		} else {
			err = cw.manager.DisablePlugin(settings.Name)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// warnStaticChanges logs configuration fields that changed on disk but only
// take effect on restart. The manager's event bus and discovery engine are
// fixed at construction; hot reload never rebuilds them.
func (cw *ConfigWatcher) warnStaticChanges(previous, next *RuntimeConfig) {
	if previous.LogLevel != next.LogLevel {
		cw.logger.Warn("log_level changed, restart required to apply",
			"current", previous.LogLevel, "configured", next.LogLevel)
	}
	if previous.Events.HistoryCapacity != next.Events.HistoryCapacity {
		cw.logger.Warn("events.history_capacity changed, restart required to apply",
			"current", previous.Events.HistoryCapacity,
			"configured", next.Events.HistoryCapacity)
	}
}

// auditEvent records a configuration event on the Argus audit trail.
func (cw *ConfigWatcher) auditEvent(eventType string, context map[string]interface{}) {
	if cw.auditLogger != nil {
		cw.auditLogger.LogSecurityEvent(eventType, "Runtime configuration change", context)
	}
}
