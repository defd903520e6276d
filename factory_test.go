// factory_test.go: Tests for the compile-time plugin factory registry
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFactory struct {
	name string
}

func (f *staticFactory) FactoryName() string { return f.name }

func (f *staticFactory) CreatePlugin(manifest PluginManifest) (Plugin, error) {
	return namedPlugin(manifest.Name), nil
}

func TestFactoryRegistryRegistration(t *testing.T) {
	t.Run("nil_factory_rejected", func(t *testing.T) {
		registry := NewFactoryRegistry(nil)
		err := registry.Register(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Nil plugin factory")
	})

	t.Run("empty_factory_name_rejected", func(t *testing.T) {
		registry := NewFactoryRegistry(nil)
		err := registry.Register(&staticFactory{name: ""})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Nil plugin factory")
	})

	t.Run("duplicate_name_is_first_wins", func(t *testing.T) {
		registry := NewFactoryRegistry(nil)
		original := &staticFactory{name: "ocr"}
		require.NoError(t, registry.Register(original))

		err := registry.Register(&staticFactory{name: "ocr"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Duplicate factory name")

		kept, ok := registry.Lookup("ocr")
		require.True(t, ok)
		assert.Same(t, original, kept.(*staticFactory))
	})

	t.Run("names_are_sorted", func(t *testing.T) {
		registry := NewFactoryRegistry(nil)
		for _, name := range []string{"zebra", "alpha", "middle"} {
			require.NoError(t, registry.Register(&staticFactory{name: name}))
		}
		assert.Equal(t, []string{"alpha", "middle", "zebra"}, registry.Names())
	})
}

func TestFactoryRegistryBuild(t *testing.T) {
	t.Run("builds_through_the_manifest_selected_factory", func(t *testing.T) {
		registry := NewFactoryRegistry(nil)
		require.NoError(t, registry.Register(&staticFactory{name: "ocr"}))

		plugin, err := registry.Build(PluginManifest{Name: "scanner", Factory: "ocr"})
		require.NoError(t, err)
		assert.Equal(t, "scanner", plugin.Metadata().Name)
	})

	t.Run("unknown_factory_errors_with_manifest_path", func(t *testing.T) {
		registry := NewFactoryRegistry(nil)

		_, err := registry.Build(PluginManifest{
			Name:    "scanner",
			Factory: "missing",
			Path:    "/plugins/scanner_plugin.json",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown plugin factory")
	})

	t.Run("factory_errors_propagate", func(t *testing.T) {
		registry := NewFactoryRegistry(nil)
		require.NoError(t, registry.Register(FactoryFunc("explosive",
			func(m PluginManifest) (Plugin, error) {
				return nil, fmt.Errorf("bad wiring in %s", m.Name)
			})))

		_, err := registry.Build(PluginManifest{Name: "dud", Factory: "explosive"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad wiring in dud")
	})

	t.Run("factory_func_adapts_plain_functions", func(t *testing.T) {
		factory := FactoryFunc("inline", func(m PluginManifest) (Plugin, error) {
			return namedPlugin(m.Name), nil
		})
		assert.Equal(t, "inline", factory.FactoryName())

		plugin, err := factory.CreatePlugin(PluginManifest{Name: "quick"})
		require.NoError(t, err)
		assert.Equal(t, "quick", plugin.Metadata().Name)
	})
}
