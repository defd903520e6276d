// discovery.go: Manifest-based plugin discovery over the filesystem
//
// Discovery never loads code. A manifest file names a factory from the
// compile-time factory registry plus the settings to build the plugin with;
// scanning a directory yields manifests, and the lifecycle manager turns
// each into a plugin instance through the named factory. Every manifest is
// processed in isolation: one malformed file is logged and skipped, never
// aborting the scan.
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
	"strings"

	"gopkg.in/yaml.v3"
)

// PluginManifest describes one discoverable plugin unit.
//
// The manifest is the only thing discovery reads from disk. It names the
// registered factory that builds the plugin and carries the settings the
// factory and the plugin's HostContext expose. JSON and YAML are supported,
// selected by file extension.
//
// Example JSON manifest (ocr_plugin.json):
//
//	{
//	  "name": "ocr-plugin",
//	  "version": "1.2.0",
//	  "author": "Document Team",
//	  "description": "OCR-backed analyzer and extractor",
//	  "factory": "ocr",
//	  "capabilities": ["analyzer", "extractor"],
//	  "settings": {
//	    "languages": "en,de",
//	    "dpi": 300
//	  }
//	}
type PluginManifest struct {
	Name         string           `json:"name" yaml:"name"`
	Version      string           `json:"version" yaml:"version"`
	Author       string           `json:"author,omitempty" yaml:"author,omitempty"`
	Description  string           `json:"description,omitempty" yaml:"description,omitempty"`
	Factory      string           `json:"factory" yaml:"factory"`
	Capabilities []CapabilityKind `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Dependencies []string         `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Enabled      *bool            `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Settings     map[string]any   `json:"settings,omitempty" yaml:"settings,omitempty"`

	// Path of the manifest file, stamped by discovery.
	Path string `json:"-" yaml:"-"`
}

// IsEnabled reports whether the manifest wants the plugin enabled.
// An absent enabled field defaults to true.
func (m PluginManifest) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// StringSetting returns a string setting or def when absent or mistyped.
func (m PluginManifest) StringSetting(key, def string) string {
	if v, ok := m.Settings[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// BoolSetting returns a boolean setting or def when absent or mistyped.
func (m PluginManifest) BoolSetting(key string, def bool) bool {
	if v, ok := m.Settings[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// IntSetting returns an integer setting or def when absent or mistyped.
// JSON numbers decode as float64; whole floats are accepted.
func (m PluginManifest) IntSetting(key string, def int) int {
	v, ok := m.Settings[key]
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

// Validate checks the manifest's required fields.
func (m PluginManifest) Validate() error {
	if m.Name == "" {
		return NewManifestValidationError(m.Path, "plugin name is required")
	}
	if m.Factory == "" {
		return NewManifestValidationError(m.Path, "factory is required")
	}
	return nil
}

// maxManifestSize caps manifest reads; anything bigger is not a manifest.
const maxManifestSize = 1 << 20

// DiscoveryConfig controls how directories are scanned for manifests.
type DiscoveryConfig struct {
	// Patterns are filename globs recognized as manifests.
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`

	// MaxDepth bounds recursion below the scan root (0 = root only).
	MaxDepth int `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`

	// ExcludePaths skips any path containing one of these fragments.
	ExcludePaths []string `json:"exclude_paths,omitempty" yaml:"exclude_paths,omitempty"`
}

// DefaultDiscoveryConfig returns the conventional manifest scan settings:
// files named *_plugin.json/yaml/yml, up to three directory levels deep.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Patterns: []string{"*_plugin.json", "*_plugin.yaml", "*_plugin.yml"},
		MaxDepth: 3,
	}
}

// DiscoveryEngine scans directories for plugin manifests.
//
// Example usage:
//
//	engine := NewDiscoveryEngine(DefaultDiscoveryConfig(), logger)
//	manifests, err := engine.Discover(ctx, "/etc/argo/plugins.d")
//	if err != nil {
//	    log.Printf("discovery failed: %v", err)
//	}
//	for _, manifest := range manifests {
//	    fmt.Printf("found %s v%s (factory %s)\n",
//	        manifest.Name, manifest.Version, manifest.Factory)
//	}
type DiscoveryEngine struct {
	config DiscoveryConfig
	logger Logger
}

// NewDiscoveryEngine creates a discovery engine.
//
// Zero-value config fields fall back to DefaultDiscoveryConfig values. The
// logger may be a Logger implementation, *logrus.Logger, or nil.
func NewDiscoveryEngine(config DiscoveryConfig, logger any) *DiscoveryEngine {
	defaults := DefaultDiscoveryConfig()
	if len(config.Patterns) == 0 {
		config.Patterns = defaults.Patterns
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = defaults.MaxDepth
	}
	return &DiscoveryEngine{
		config: config,
		logger: NewLogger(logger).With("component", "discovery"),
	}
}

// Discover scans dir recursively and returns every valid manifest found, in
// lexical path order.
//
// The returned error covers only the scan root (missing or unreadable
// directory, canceled context). Individual manifest failures - unreadable
// file, parse error, missing required fields - are logged and skipped so one
// bad unit never hides the rest.
func (d *DiscoveryEngine) Discover(ctx context.Context, dir string) ([]PluginManifest, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, NewDiscoveryError("invalid discovery root", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, NewDiscoveryError(fmt.Sprintf("cannot access discovery root %s", root), err)
	}
	if !info.IsDir() {
		return nil, NewDiscoveryError(fmt.Sprintf("discovery root %s is not a directory", root), nil)
	}

	d.logger.Debug("Starting manifest scan", "root", root, "patterns", d.config.Patterns)

	var manifests []PluginManifest
	if err := d.scanDirectory(ctx, root, 0, &manifests); err != nil {
		return nil, err
	}

	d.logger.Info("Manifest scan completed", "root", root, "manifests_found", len(manifests))
	return manifests, nil
}

// scanDirectory recursively collects manifests below path.
func (d *DiscoveryEngine) scanDirectory(ctx context.Context, path string, depth int, manifests *[]PluginManifest) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if depth == 0 {
			return NewDiscoveryError(fmt.Sprintf("failed to read directory %s", path), err)
		}
		// Subdirectory failures are isolated like manifest failures.
		d.logger.Warn("Skipping unreadable directory", "path", path, "error", err)
		return nil
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return NewDiscoveryError("manifest scan canceled", ctx.Err())
		default:
		}

		fullPath := filepath.Join(path, entry.Name())
		if d.isExcluded(fullPath) {
			continue
		}

		if entry.IsDir() {
			if depth+1 <= d.config.MaxDepth {
				if err := d.scanDirectory(ctx, fullPath, depth+1, manifests); err != nil {
					return err
				}
			}
			continue
		}

		if !d.matchesPattern(entry.Name()) {
			continue
		}

		manifest, err := d.parseManifestFile(fullPath)
		if err != nil {
			d.logger.Error("Skipping invalid manifest", "path", fullPath, "error", err)
			continue
		}

		d.logger.Debug("Discovered manifest",
			"name", manifest.Name, "version", manifest.Version,
			"factory", manifest.Factory, "path", fullPath)
		*manifests = append(*manifests, manifest)
	}

	return nil
}

// isExcluded checks the path against the configured exclusion fragments.
func (d *DiscoveryEngine) isExcluded(path string) bool {
	for _, exclude := range d.config.ExcludePaths {
		if exclude != "" && strings.Contains(path, exclude) {
			return true
		}
	}
	return false
}

// matchesPattern checks a filename against the configured manifest globs.
func (d *DiscoveryEngine) matchesPattern(filename string) bool {
	for _, pattern := range d.config.Patterns {
		if matched, err := filepath.Match(pattern, filename); err == nil && matched {
			return true
		}
	}
	return false
}

// parseManifestFile reads, decodes, and validates one manifest file. The
// format is selected by extension: .json decodes as JSON, .yaml/.yml as YAML.
func (d *DiscoveryEngine) parseManifestFile(path string) (PluginManifest, error) {
	var manifest PluginManifest

	info, err := os.Stat(path)
	if err != nil {
		return manifest, NewManifestParseError(path, err)
	}
	if !info.Mode().IsRegular() || info.Size() > maxManifestSize {
		return manifest, NewManifestValidationError(path, "manifest is not a regular file or exceeds size limit")
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the validated scan root
	if err != nil {
		return manifest, NewManifestParseError(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &manifest)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &manifest)
	default:
		return manifest, NewManifestValidationError(path, "unsupported manifest format")
	}
	if err != nil {
		return manifest, NewManifestParseError(path, err)
	}

	manifest.Path = path
	if err := manifest.Validate(); err != nil {
		return manifest, err
	}
	return manifest, nil
}
