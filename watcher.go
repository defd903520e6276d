// watcher.go: Hot discovery of plugin manifests dropped into directories
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the bursts of filesystem events an editor
// or atomic rename produces for one manifest file.
const DefaultWatchDebounce = 500 * time.Millisecond

// DirectoryWatcher hot-loads plugins from manifest files dropped into
// watched directories.
//
// A manifest created or modified under a watched directory is parsed and
// routed through the manager's factory registry, exactly like a
// LoadFromDirectory unit. Manifests naming an already registered plugin
// reconcile only the enabled flag; instances are never rebuilt in place.
// Removing a manifest unregisters the plugin it loaded.
//
// The lifecycle is one-way: once stopped the watcher cannot be restarted.
type DirectoryWatcher struct {
	manager *Manager
	logger  Logger

	watcher     *fsnotify.Watcher
	directories []string
	debounce    time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	loaded map[string]string // manifest path -> plugin name

	running  atomic.Bool
	stopped  atomic.Bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewDirectoryWatcher creates a watcher over the given directories. Every
// directory must exist; paths are resolved to absolute form so sweep results
// and filesystem events key the same manifest identically.
func NewDirectoryWatcher(manager *Manager, directories []string, logger any) (*DirectoryWatcher, error) {
	if manager == nil {
		return nil, NewDirectoryWatchError("manager is required", nil)
	}
	if len(directories) == 0 {
		return nil, NewDirectoryWatchError("no directories to watch", nil)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, NewDirectoryWatchError("failed to create file watcher", err)
	}

	resolved := make([]string, 0, len(directories))
	for _, dir := range directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			_ = fsWatcher.Close()
			return nil, NewDirectoryWatchError("invalid watch directory "+dir, err)
		}
		if err := fsWatcher.Add(absDir); err != nil {
			_ = fsWatcher.Close()
			return nil, NewDirectoryWatchError("failed to watch directory "+absDir, err)
		}
		resolved = append(resolved, absDir)
	}

	return &DirectoryWatcher{
		manager:     manager,
		logger:      NewLogger(logger).With("component", "directory-watcher"),
		watcher:     fsWatcher,
		directories: resolved,
		debounce:    DefaultWatchDebounce,
		timers:      make(map[string]*time.Timer),
		loaded:      make(map[string]string),
	}, nil
}

// Start sweeps the watched directories for existing manifests, then begins
// reacting to filesystem changes until Stop is called or ctx is canceled.
//
// The initial sweep has the same isolation as LoadFromDirectory: failures
// are logged per unit and never abort the start, so a directory that is
// empty or briefly unreadable still ends up watched.
func (dw *DirectoryWatcher) Start(ctx context.Context) error {
	if dw.stopped.Load() {
		return NewDirectoryWatchError("directory watcher has been stopped and cannot be restarted", nil)
	}
	if !dw.running.CompareAndSwap(false, true) {
		return NewDirectoryWatchError("directory watcher is already running", nil)
	}

	dw.stopChan = make(chan struct{})
	dw.doneChan = make(chan struct{})

	for _, dir := range dw.directories {
		dw.sweepDirectory(ctx, dir)
	}

	go dw.watchLoop(ctx)

	dw.logger.Info("Plugin directory watcher started",
		"directories", dw.directories,
		"debounce", dw.debounce)
	return nil
}

// Stop stops watching and releases the filesystem watcher. Plugins loaded
// through the watcher stay registered.
func (dw *DirectoryWatcher) Stop() error {
	if !dw.running.CompareAndSwap(true, false) {
		return NewDirectoryWatchError("directory watcher is not running", nil)
	}
	dw.stopped.Store(true)

	close(dw.stopChan)
	if err := dw.watcher.Close(); err != nil {
		dw.logger.Warn("Failed to close file watcher", "error", err)
	}
	<-dw.doneChan

	dw.logger.Info("Plugin directory watcher stopped")
	return nil
}

// IsRunning reports whether the watcher is active.
func (dw *DirectoryWatcher) IsRunning() bool {
	return dw.running.Load() && !dw.stopped.Load()
}

// TrackedPlugins returns a copy of the manifest path to plugin name mapping
// for every plugin this watcher loaded or adopted.
func (dw *DirectoryWatcher) TrackedPlugins() map[string]string {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	tracked := make(map[string]string, len(dw.loaded))
	for path, name := range dw.loaded {
		tracked[path] = name
	}
	return tracked
}

// sweepDirectory loads every manifest already present under dir.
func (dw *DirectoryWatcher) sweepDirectory(ctx context.Context, dir string) {
	manifests, err := dw.manager.discovery.Discover(ctx, dir)
	if err != nil {
		dw.logger.Error("Initial manifest sweep failed", "directory", dir, "error", err)
		return
	}
	for _, manifest := range manifests {
		dw.loadUnit(manifest)
	}
}

// watchLoop dispatches debounced filesystem events until stopped.
func (dw *DirectoryWatcher) watchLoop(ctx context.Context) {
	defer close(dw.doneChan)
	defer dw.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return
		case <-dw.stopChan:
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !dw.manager.discovery.matchesPattern(filepath.Base(event.Name)) {
				continue
			}
			dw.scheduleEvent(event)
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Error("Directory watcher error", "error", err)
		}
	}
}

// scheduleEvent debounces per manifest path: only the last event in a burst
// is handled.
func (dw *DirectoryWatcher) scheduleEvent(event fsnotify.Event) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if timer, exists := dw.timers[event.Name]; exists {
		timer.Stop()
	}
	dw.timers[event.Name] = time.AfterFunc(dw.debounce, func() {
		dw.mu.Lock()
		delete(dw.timers, event.Name)
		dw.mu.Unlock()
		dw.handleManifestEvent(event)
	})
}

// cancelPending stops the debounce timers left when the loop exits.
func (dw *DirectoryWatcher) cancelPending() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	for path, timer := range dw.timers {
		timer.Stop()
		delete(dw.timers, path)
	}
}

func (dw *DirectoryWatcher) handleManifestEvent(event fsnotify.Event) {
	if !dw.running.Load() {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		dw.loadManifestFile(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		dw.unloadManifestFile(event.Name)
	}
}

// loadManifestFile parses one manifest and loads or reconciles its plugin.
func (dw *DirectoryWatcher) loadManifestFile(path string) {
	manifest, err := dw.manager.discovery.parseManifestFile(path)
	if err != nil {
		dw.logger.Error("Ignoring invalid manifest", "path", path, "error", err)
		return
	}
	dw.loadUnit(manifest)
}

// loadUnit routes one manifest through the factory registry, with the same
// per-unit isolation as LoadFromDirectory. A manifest naming an already
// registered plugin reconciles that plugin's enabled flag instead; the
// manifest path is adopted either way so a later removal unregisters the
// plugin.
func (dw *DirectoryWatcher) loadUnit(manifest PluginManifest) {
	if _, err := dw.manager.GetPluginMetadata(manifest.Name); err == nil {
		dw.applyManifestState(manifest)
		return
	}

	plugin, err := dw.manager.factories.Build(manifest)
	if err != nil {
		dw.logger.Error("Skipping plugin, factory failed",
			"plugin", manifest.Name,
			"factory", manifest.Factory,
			"path", manifest.Path,
			"error", err)
		return
	}

	if err := dw.manager.registerPlugin(plugin, &manifest); err != nil {
		dw.logger.Error("Skipping plugin, registration failed",
			"plugin", manifest.Name,
			"path", manifest.Path,
			"error", err)
		return
	}

	dw.mu.Lock()
	dw.loaded[manifest.Path] = manifest.Name
	dw.mu.Unlock()

	dw.logger.Info("Plugin hot-loaded", "plugin", manifest.Name, "path", manifest.Path)
}

// applyManifestState reconciles a manifest change for a registered plugin.
// Only the enabled flag is hot-applicable; settings changes require an
// unregister and reload.
func (dw *DirectoryWatcher) applyManifestState(manifest PluginManifest) {
	var err error
	if manifest.IsEnabled() {
		err = dw.manager.EnablePlugin(manifest.Name)
	} else {
		err = dw.manager.DisablePlugin(manifest.Name)
	}
	if err != nil {
		dw.logger.Warn("Failed to apply manifest state",
			"plugin", manifest.Name, "path", manifest.Path, "error", err)
		return
	}

	dw.mu.Lock()
	dw.loaded[manifest.Path] = manifest.Name
	dw.mu.Unlock()

	dw.logger.Info("Manifest change applied",
		"plugin", manifest.Name,
		"path", manifest.Path,
		"enabled", manifest.IsEnabled())
}

// unloadManifestFile unregisters the plugin a removed manifest had loaded.
func (dw *DirectoryWatcher) unloadManifestFile(path string) {
	dw.mu.Lock()
	name, tracked := dw.loaded[path]
	if tracked {
		delete(dw.loaded, path)
	}
	dw.mu.Unlock()

	if !tracked {
		dw.logger.Debug("Manifest removed, no plugin tracked", "path", path)
		return
	}

	if err := dw.manager.UnregisterPlugin(name); err != nil {
		dw.logger.Warn("Failed to unregister plugin after manifest removal",
			"plugin", name, "path", path, "error", err)
		return
	}
	dw.logger.Info("Plugin unregistered after manifest removal", "plugin", name, "path", path)
}

// WatchDirectory loads the manifests already under the directories and keeps
// watching for new, changed, and removed ones. The returned watcher must be
// stopped by the caller; ShutdownAll does not stop it.
func (m *Manager) WatchDirectory(ctx context.Context, directories ...string) (*DirectoryWatcher, error) {
	if m.shutdown.Load() {
		return nil, NewManagerShutdownError()
	}

	watcher, err := NewDirectoryWatcher(m, directories, m.logger)
	if err != nil {
		return nil, err
	}
	if err := watcher.Start(ctx); err != nil {
		return nil, err
	}
	return watcher, nil
}
