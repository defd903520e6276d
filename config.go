// config.go: Runtime configuration with validation and environment expansion
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/agilira/argus"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// maxConfigFileSize caps runtime configuration reads at 10MB.
const maxConfigFileSize = 10 * 1024 * 1024

// RuntimeConfig is the file-backed configuration of a plugin runtime.
//
// A host loads it once at startup and optionally watches the file for
// changes with a ConfigWatcher; the per-plugin enabled flags are the only
// hot-reloadable part, everything else requires a restart.
//
// Example YAML configuration:
//
//	log_level: info
//	events:
//	  history_capacity: 200
//	health:
//	  enabled: true
//	  interval: 30s
//	  failure_limit: 3
//	discovery:
//	  enabled: true
//	  watch_mode: false
//	  directories:
//	    - /etc/argo/plugins.d
//	plugins:
//	  - name: ocr-plugin
//	    enabled: true
//	    settings:
//	      languages: en,de
type RuntimeConfig struct {
	LogLevel  string              `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	Events    EventsConfig        `json:"events,omitempty" yaml:"events,omitempty"`
	Health    HealthMonitorConfig `json:"health,omitempty" yaml:"health,omitempty"`
	Discovery DiscoverySettings   `json:"discovery,omitempty" yaml:"discovery,omitempty"`
	Plugins   []PluginSettings    `json:"plugins,omitempty" yaml:"plugins,omitempty"`
}

// EventsConfig holds event bus tuning.
type EventsConfig struct {
	HistoryCapacity int `json:"history_capacity,omitempty" yaml:"history_capacity,omitempty"`
}

// DiscoverySettings holds manifest discovery configuration plus the
// directories to scan at startup. WatchMode additionally keeps the
// directories under a DirectoryWatcher so manifests dropped in later are
// hot-loaded.
type DiscoverySettings struct {
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	Directories  []string `json:"directories,omitempty" yaml:"directories,omitempty"`
	Patterns     []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	MaxDepth     int      `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	ExcludePaths []string `json:"exclude_paths,omitempty" yaml:"exclude_paths,omitempty"`
	WatchMode    bool     `json:"watch_mode,omitempty" yaml:"watch_mode,omitempty"`
}

// EngineConfig converts the settings into a DiscoveryConfig for the engine.
func (d DiscoverySettings) EngineConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Patterns:     d.Patterns,
		MaxDepth:     d.MaxDepth,
		ExcludePaths: d.ExcludePaths,
	}
}

// PluginSettings holds per-plugin runtime configuration: the enabled flag
// applied on hot reload and settings overriding the plugin's manifest.
type PluginSettings struct {
	Name     string         `json:"name" yaml:"name"`
	Enabled  *bool          `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// IsEnabled reports the configured enabled state; absent defaults to true.
func (p PluginSettings) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// PluginFor returns the settings entry for a plugin name.
func (c *RuntimeConfig) PluginFor(name string) (PluginSettings, bool) {
	for _, p := range c.Plugins {
		if p.Name == name {
			return p, true
		}
	}
	return PluginSettings{}, false
}

// Validate checks the configuration for structural problems: an unknown log
// level, negative tunables, or duplicate plugin entries.
func (c *RuntimeConfig) Validate() error {
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return NewConfigValidationError(fmt.Sprintf("invalid log level %q", c.LogLevel), err)
		}
	}

	if c.Events.HistoryCapacity < 0 {
		return NewConfigValidationError("events.history_capacity cannot be negative", nil)
	}
	if c.Health.Interval < 0 || c.Health.Timeout < 0 || c.Health.FailureLimit < 0 {
		return NewConfigValidationError("health settings cannot be negative", nil)
	}
	if c.Discovery.MaxDepth < 0 {
		return NewConfigValidationError("discovery.max_depth cannot be negative", nil)
	}

	seen := make(map[string]struct{}, len(c.Plugins))
	for _, p := range c.Plugins {
		if p.Name == "" {
			return NewConfigValidationError("plugin settings entry without a name", nil)
		}
		if _, dup := seen[p.Name]; dup {
			return NewConfigValidationError(fmt.Sprintf("duplicate plugin settings for %q", p.Name), nil)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// ApplyDefaults fills zero-value fields with the standard defaults.
func (c *RuntimeConfig) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Events.HistoryCapacity == 0 {
		c.Events.HistoryCapacity = DefaultHistoryCapacity
	}

	healthDefaults := DefaultHealthMonitorConfig()
	if c.Health.Interval == 0 {
		c.Health.Interval = healthDefaults.Interval
	}
	if c.Health.Timeout == 0 {
		c.Health.Timeout = healthDefaults.Timeout
	}
	if c.Health.FailureLimit == 0 {
		c.Health.FailureLimit = healthDefaults.FailureLimit
	}

	discoveryDefaults := DefaultDiscoveryConfig()
	if len(c.Discovery.Patterns) == 0 {
		c.Discovery.Patterns = discoveryDefaults.Patterns
	}
	if c.Discovery.MaxDepth == 0 {
		c.Discovery.MaxDepth = discoveryDefaults.MaxDepth
	}
}

// LogrusLevel returns the configured log level as a logrus level.
// Call after Validate; unknown levels fall back to info.
func (c *RuntimeConfig) LogrusLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// LoadRuntimeConfig reads, expands, parses, validates, and defaults a
// runtime configuration file.
//
// The format is detected from the file extension (JSON and YAML are
// supported). Environment references in the raw file are expanded before
// parsing, supporting both forms:
//   - ${VAR} - replaced with the value of VAR, empty when unset
//   - ${VAR:-default} - replaced with default when VAR is unset or empty
func LoadRuntimeConfig(path string) (*RuntimeConfig, error) {
	data, resolved, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	expanded := expandEnvVars(string(data))

	var config RuntimeConfig
	switch argus.DetectFormat(resolved) {
	case argus.FormatJSON:
		err = json.Unmarshal([]byte(expanded), &config)
	case argus.FormatYAML:
		err = yaml.Unmarshal([]byte(expanded), &config)
	default:
		return nil, NewConfigFileError(resolved, "unsupported configuration format", nil)
	}
	if err != nil {
		return nil, NewConfigParseError(resolved, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.ApplyDefaults()
	return &config, nil
}

// readConfigFile resolves and reads a configuration file with the same
// discipline as manifest parsing: regular file, bounded size, non-empty.
func readConfigFile(path string) ([]byte, string, error) {
	resolved, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, "", NewConfigPathError(path, "cannot resolve configuration path")
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", NewConfigNotFoundError(resolved)
		}
		return nil, "", NewConfigFileError(resolved, "cannot access configuration file", err)
	}
	if !info.Mode().IsRegular() {
		return nil, "", NewConfigFileError(resolved, "configuration path is not a regular file", nil)
	}
	if info.Size() == 0 {
		return nil, "", NewConfigFileError(resolved, "configuration file is empty", nil)
	}
	if info.Size() > maxConfigFileSize {
		return nil, "", NewConfigFileError(resolved, "configuration file exceeds size limit", nil)
	}

	data, err := os.ReadFile(resolved) // #nosec G304 -- path resolved and stat-checked above
	if err != nil {
		return nil, "", NewConfigFileError(resolved, "failed to read configuration file", err)
	}
	return data, resolved, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} references.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandEnvVars substitutes environment references in raw configuration
// text. Unset variables without an inline default expand to the empty
// string.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		if value := os.Getenv(submatches[1]); value != "" {
			return value
		}
		if len(submatches) >= 4 {
			return submatches[3]
		}
		return ""
	})
}

// NewManagerFromConfig creates a manager tuned by a runtime configuration:
// the event history capacity and the discovery engine settings come from the
// file. When logger is a *logrus.Logger its level is set from the configured
// log level first, so construction-time logging already honors it. A nil
// configuration yields a default manager.
func NewManagerFromConfig(config *RuntimeConfig, logger any) *Manager {
	if config == nil {
		return NewManager(logger)
	}
	if lr, ok := logger.(*logrus.Logger); ok && config.LogLevel != "" {
		lr.SetLevel(config.LogrusLevel())
	}
	return NewManager(logger,
		WithEventHistoryCapacity(config.Events.HistoryCapacity),
		WithDiscovery(config.Discovery.EngineConfig()),
	)
}

// LoadFromConfig applies the discovery section of a runtime configuration:
// when discovery is enabled every configured directory is scanned, and when
// watch mode is also set the directories stay under a DirectoryWatcher whose
// initial sweep adopts the plugins just loaded. The returned watcher is nil
// unless watch mode is on; stopping it is the caller's responsibility.
//
// Directory failures have the same isolation as manifest failures inside a
// directory: logged and skipped, so one missing path never hides the rest.
func (m *Manager) LoadFromConfig(ctx context.Context, config *RuntimeConfig) (int, *DirectoryWatcher, error) {
	if m.shutdown.Load() {
		return 0, nil, NewManagerShutdownError()
	}
	if config == nil {
		return 0, nil, NewConfigValidationError("nil runtime configuration", nil)
	}
	if !config.Discovery.Enabled {
		m.logger.Debug("Discovery disabled in runtime configuration, skipping scan")
		return 0, nil, nil
	}
	if len(config.Discovery.Directories) == 0 {
		m.logger.Warn("Discovery enabled but no directories configured")
		return 0, nil, nil
	}

	total := 0
	for _, dir := range config.Discovery.Directories {
		count, err := m.LoadFromDirectory(ctx, dir)
		if err != nil {
			m.logger.Error("Skipping discovery directory", "directory", dir, "error", err)
			continue
		}
		total += count
	}

	if !config.Discovery.WatchMode {
		return total, nil, nil
	}
	watcher, err := m.WatchDirectory(ctx, config.Discovery.Directories...)
	if err != nil {
		return total, nil, err
	}
	return total, watcher, nil
}
