// types_test.go: Tests for common data types
//
// This file contains unit tests for the data types defined in types.go,
// covering the lifecycle and health enumerations and the analysis result
// helpers shared by analyzer and evaluator capabilities.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluginState_String(t *testing.T) {
	tests := []struct {
		name     string
		state    PluginState
		expected string
	}{
		{
			name:     "StateDiscovered",
			state:    StateDiscovered,
			expected: "discovered",
		},
		{
			name:     "StateInstantiated",
			state:    StateInstantiated,
			expected: "instantiated",
		},
		{
			name:     "StateInitialized",
			state:    StateInitialized,
			expected: "initialized",
		},
		{
			name:     "StateActive",
			state:    StateActive,
			expected: "active",
		},
		{
			name:     "StateDisabled",
			state:    StateDisabled,
			expected: "disabled",
		},
		{
			name:     "StateShutdown",
			state:    StateShutdown,
			expected: "shutdown",
		},
		{
			name:     "InvalidState",
			state:    PluginState(999),
			expected: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.state.String()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestPluginStatus_String(t *testing.T) {
	tests := []struct {
		name     string
		status   PluginStatus
		expected string
	}{
		{
			name:     "StatusHealthy",
			status:   StatusHealthy,
			expected: "healthy",
		},
		{
			name:     "StatusDegraded",
			status:   StatusDegraded,
			expected: "degraded",
		},
		{
			name:     "StatusUnhealthy",
			status:   StatusUnhealthy,
			expected: "unhealthy",
		},
		{
			name:     "StatusOffline",
			status:   StatusOffline,
			expected: "offline",
		},
		{
			name:     "StatusUnknown",
			status:   StatusUnknown,
			expected: "unknown",
		},
		{
			name:     "InvalidStatus",
			status:   PluginStatus(999),
			expected: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.status.String()
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestPluginState_Constants verifies that state constants have expected values
func TestPluginState_Constants(t *testing.T) {
	assert.Equal(t, PluginState(0), StateDiscovered)
	assert.Equal(t, PluginState(1), StateInstantiated)
	assert.Equal(t, PluginState(2), StateInitialized)
	assert.Equal(t, PluginState(3), StateActive)
	assert.Equal(t, PluginState(4), StateDisabled)
	assert.Equal(t, PluginState(5), StateShutdown)
}

// TestPluginStatus_Constants verifies that status constants have expected values
func TestPluginStatus_Constants(t *testing.T) {
	assert.Equal(t, PluginStatus(0), StatusUnknown)
	assert.Equal(t, PluginStatus(1), StatusHealthy)
	assert.Equal(t, PluginStatus(2), StatusDegraded)
	assert.Equal(t, PluginStatus(3), StatusUnhealthy)
	assert.Equal(t, PluginStatus(4), StatusOffline)
}

// TestCapabilityKind_Constants verifies the capability category identifiers
func TestCapabilityKind_Constants(t *testing.T) {
	assert.Equal(t, CapabilityKind("analyzer"), CapabilityAnalyzer)
	assert.Equal(t, CapabilityKind("extractor"), CapabilityExtractor)
	assert.Equal(t, CapabilityKind("evaluator"), CapabilityEvaluator)
	assert.Equal(t, CapabilityKind("intelligence"), CapabilityIntelligence)
}

func TestHealthStatus_Creation(t *testing.T) {
	now := time.Now()
	responseTime := 100 * time.Millisecond

	health := HealthStatus{
		Status:       StatusHealthy,
		Message:      "Health check passed",
		LastCheck:    now,
		ResponseTime: responseTime,
		Metadata: map[string]string{
			"probes": "12",
			"error":  "",
		},
	}

	assert.Equal(t, StatusHealthy, health.Status)
	assert.Equal(t, "Health check passed", health.Message)
	assert.Equal(t, now, health.LastCheck)
	assert.Equal(t, responseTime, health.ResponseTime)
	assert.Equal(t, "12", health.Metadata["probes"])
}

func TestPluginMetadata_Creation(t *testing.T) {
	loadedAt := time.Now()

	meta := PluginMetadata{
		Name:         "ocr-engine",
		Version:      "2.1.0",
		Description:  "Optical character recognition for scanned documents",
		Author:       "Document Team",
		Capabilities: []CapabilityKind{CapabilityAnalyzer, CapabilityExtractor},
		Dependencies: []string{"language-detector"},
		Enabled:      true,
		LoadedAt:     loadedAt,
		State:        StateActive,
	}

	assert.Equal(t, "ocr-engine", meta.Name)
	assert.Equal(t, "2.1.0", meta.Version)
	assert.Equal(t, "Document Team", meta.Author)
	assert.Contains(t, meta.Capabilities, CapabilityAnalyzer)
	assert.Contains(t, meta.Capabilities, CapabilityExtractor)
	assert.Contains(t, meta.Dependencies, "language-detector")
	assert.True(t, meta.Enabled)
	assert.Equal(t, loadedAt, meta.LoadedAt)
	assert.Equal(t, StateActive, meta.State)
}

func TestAnalysisResult_IsSuccess(t *testing.T) {
	t.Run("success_without_errors", func(t *testing.T) {
		result := &AnalysisResult{Status: AnalysisSuccess}
		assert.True(t, result.IsSuccess())
	})

	t.Run("success_status_with_errors_is_not_success", func(t *testing.T) {
		result := &AnalysisResult{
			Status: AnalysisSuccess,
			Errors: []string{"page 3 unreadable"},
		}
		assert.False(t, result.IsSuccess())
	})

	t.Run("partial_is_not_success", func(t *testing.T) {
		result := &AnalysisResult{Status: AnalysisPartial}
		assert.False(t, result.IsSuccess())
	})

	t.Run("error_is_not_success", func(t *testing.T) {
		result := &AnalysisResult{Status: AnalysisError}
		assert.False(t, result.IsSuccess())
	})
}

func TestAnalysisResult_AddError(t *testing.T) {
	t.Run("error_without_data_downgrades_to_error", func(t *testing.T) {
		result := &AnalysisResult{Status: AnalysisSuccess}

		result.AddError("backend unreachable")

		assert.Equal(t, AnalysisError, result.Status)
		assert.True(t, result.HasErrors())
		assert.Equal(t, []string{"backend unreachable"}, result.Errors)
	})

	t.Run("error_with_data_downgrades_to_partial", func(t *testing.T) {
		result := &AnalysisResult{
			Status: AnalysisSuccess,
			Data:   map[string]any{"pages": 10},
		}

		result.AddError("page 7 skipped")

		assert.Equal(t, AnalysisPartial, result.Status)
		assert.True(t, result.HasErrors())
	})

	t.Run("errors_accumulate", func(t *testing.T) {
		result := &AnalysisResult{Status: AnalysisSuccess}

		result.AddError("first")
		result.AddError("second")

		assert.Equal(t, []string{"first", "second"}, result.Errors)
		assert.Equal(t, AnalysisError, result.Status)
	})
}

func TestAnalysisResult_AddWarning(t *testing.T) {
	result := &AnalysisResult{Status: AnalysisSuccess}

	result.AddWarning("low confidence on page 2")
	result.AddWarning("font substitution applied")

	// Warnings never change the status
	assert.Equal(t, AnalysisSuccess, result.Status)
	assert.False(t, result.HasErrors())
	assert.True(t, result.IsSuccess())
	assert.Equal(t, []string{"low confidence on page 2", "font substitution applied"}, result.Warnings)
}

// BenchmarkPluginState_String benchmarks the String method performance
func BenchmarkPluginState_String(b *testing.B) {
	state := StateActive

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = state.String()
	}
}

// Example demonstrates building an analysis result incrementally
func ExampleAnalysisResult() {
	result := &AnalysisResult{
		Status:        AnalysisSuccess,
		Data:          map[string]any{"word_count": 1250},
		ExecutionTime: 40 * time.Millisecond,
	}

	result.AddWarning("two images skipped")
	result.AddError("page 9 unreadable")

	if !result.IsSuccess() {
		// Data survived, so the run is partial rather than failed
		_ = result.Status
		_ = result.Warnings
	}

	// Output:
}
