// factory.go: Compile-time plugin factory registry
//
// Factories are how manifests become plugin instances without loading code
// at runtime: the host compiles every factory in and registers it by name,
// and manifests select one through their factory field. Each manager owns
// its registry; there is no package-level table to mutate from afar.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"sort"
	"sync"
)

// FactoryRegistry holds the plugin factories a manager can build from.
// All methods are safe for concurrent use.
type FactoryRegistry struct {
	mu        sync.RWMutex
	logger    Logger
	factories map[string]PluginFactory
}

// NewFactoryRegistry creates an empty factory registry.
func NewFactoryRegistry(logger any) *FactoryRegistry {
	return &FactoryRegistry{
		logger:    NewLogger(logger).With("component", "factory-registry"),
		factories: make(map[string]PluginFactory),
	}
}

// Register adds a factory under its FactoryName.
//
// Registration is first-wins: a second factory with the same name is
// rejected so a manifest always selects the factory the host intended.
func (r *FactoryRegistry) Register(factory PluginFactory) error {
	if factory == nil {
		return NewNilFactoryError()
	}
	name := factory.FactoryName()
	if name == "" {
		return NewNilFactoryError()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return NewDuplicateFactoryError(name)
	}
	r.factories[name] = factory
	r.logger.Debug("Plugin factory registered", "factory", name)
	return nil
}

// Lookup returns the factory registered under name.
func (r *FactoryRegistry) Lookup(name string) (PluginFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[name]
	return factory, ok
}

// Names returns the registered factory names in sorted order.
func (r *FactoryRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates the plugin a manifest describes through its factory.
func (r *FactoryRegistry) Build(manifest PluginManifest) (Plugin, error) {
	factory, ok := r.Lookup(manifest.Factory)
	if !ok {
		return nil, NewUnknownFactoryError(manifest.Factory, manifest.Path)
	}
	return factory.CreatePlugin(manifest)
}

// factoryFunc adapts a bare function to the PluginFactory interface.
type factoryFunc struct {
	name string
	fn   func(PluginManifest) (Plugin, error)
}

// FactoryFunc wraps fn as a PluginFactory named name.
//
// Example:
//
//	registry.Register(FactoryFunc("ocr", func(m PluginManifest) (Plugin, error) {
//	    return NewOCRPlugin(m.StringSetting("languages", "en")), nil
//	}))
func FactoryFunc(name string, fn func(PluginManifest) (Plugin, error)) PluginFactory {
	return &factoryFunc{name: name, fn: fn}
}

func (f *factoryFunc) FactoryName() string { return f.name }

func (f *factoryFunc) CreatePlugin(manifest PluginManifest) (Plugin, error) {
	return f.fn(manifest)
}
