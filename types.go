// types.go: Common data types and structures for the plugin runtime
//
// This file contains all shared data type definitions used throughout the plugin
// runtime. These types represent the common data models and enumerations that are
// used by plugins, the lifecycle manager, and other components. The separation of
// these types from the interface definitions improves code organization and
// maintainability.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"time"
)

// CapabilityKind identifies one of the pluggable capability categories a plugin
// may declare and register implementations for.
//
// The four kinds are:
//   - CapabilityAnalyzer: document analysis producing structured results
//   - CapabilityExtractor: raw content extraction from files
//   - CapabilityEvaluator: quality/metric evaluation of produced data
//   - CapabilityIntelligence: query/context enhancement strategies
//
// Capability names are unique within a kind but may collide across kinds.
type CapabilityKind string

const (
	CapabilityAnalyzer     CapabilityKind = "analyzer"
	CapabilityExtractor    CapabilityKind = "extractor"
	CapabilityEvaluator    CapabilityKind = "evaluator"
	CapabilityIntelligence CapabilityKind = "intelligence"
)

// PluginState represents a plugin's position in the lifecycle state machine.
//
// Transitions:
//   - StateDiscovered: a manifest named the plugin but nothing was built yet
//   - StateInstantiated: the factory produced an instance, Initialize not yet called
//   - StateInitialized: Initialize(host) returned successfully
//   - StateActive: default state after initialization; callbacks run normally
//   - StateDisabled: metadata flag off; host-context bindings skip execution
//   - StateShutdown: Shutdown() was invoked; the instance must not be used again
//
// Active and Disabled toggle freely via the manager's Enable/Disable operations;
// every other transition is one-way.
type PluginState int

const (
	StateDiscovered PluginState = iota
	StateInstantiated
	StateInitialized
	StateActive
	StateDisabled
	StateShutdown
)

// String returns a human-readable representation of the plugin state.
func (s PluginState) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateInstantiated:
		return "instantiated"
	case StateInitialized:
		return "initialized"
	case StateActive:
		return "active"
	case StateDisabled:
		return "disabled"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// PluginStatus represents the observed health of a plugin instance.
//
// Status levels indicate the plugin's ability to serve its capabilities:
//   - StatusUnknown: initial state or status cannot be determined
//   - StatusHealthy: plugin is fully operational
//   - StatusDegraded: plugin is operational but recent probes were slow or flaky
//   - StatusUnhealthy: the last health probe failed
//   - StatusOffline: probes exceeded the consecutive-failure limit
//
// These statuses are produced by the background health monitor; the one-shot
// HealthCheck sweep on the manager reduces them to a boolean per plugin.
type PluginStatus int

const (
	StatusUnknown PluginStatus = iota
	StatusHealthy
	StatusDegraded
	StatusUnhealthy
	StatusOffline
)

// String returns a human-readable representation of the plugin status.
func (s PluginStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// HealthStatus contains health information about a plugin instance.
//
// This structure is the record kept by the background health monitor for each
// plugin. It includes both the current status and timing information so
// operators can spot trends before a plugin goes fully offline.
//
// Fields:
//   - Status: current operational status (healthy, degraded, unhealthy, offline)
//   - Message: human-readable description of the current status
//   - LastCheck: timestamp of when this status was determined
//   - ResponseTime: how long the health probe took to complete
//   - Metadata: additional context-specific information (error text, probe counts)
type HealthStatus struct {
	Status       PluginStatus      `json:"status"`
	Message      string            `json:"message,omitempty"`
	LastCheck    time.Time         `json:"last_check"`
	ResponseTime time.Duration     `json:"response_time"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// PluginMetadata contains identity and lifecycle metadata about a registered plugin.
//
// This structure provides essential information about a plugin's identity,
// declared capabilities, and lifecycle position. It is created when a plugin
// instance is registered and is immutable afterwards except for the Enabled
// flag, the State, and the LoadedAt stamp, which the manager maintains.
//
// Fields:
//   - Name: unique identifier for the plugin within one manager instance
//   - Version: semantic version string for compatibility management
//   - Description: human-readable description of plugin functionality
//   - Author: plugin developer/maintainer information
//   - Capabilities: capability kinds the plugin declares (informational tags)
//   - Dependencies: names of plugins this one expects to be present; the
//     manager records them but performs no resolution or ordering
//   - Enabled: whether host-context bindings for this plugin currently execute
//   - LoadedAt: when the manager accepted the plugin into its table
//   - State: lifecycle state machine position
//
// Example:
//
//	meta := plugin.Metadata()
//	fmt.Printf("Plugin: %s v%s by %s\n", meta.Name, meta.Version, meta.Author)
//	fmt.Printf("Capabilities: %v\n", meta.Capabilities)
type PluginMetadata struct {
	Name         string           `json:"name"`
	Version      string           `json:"version"`
	Description  string           `json:"description,omitempty"`
	Author       string           `json:"author,omitempty"`
	Capabilities []CapabilityKind `json:"capabilities,omitempty"`
	Dependencies []string         `json:"dependencies,omitempty"`
	Enabled      bool             `json:"enabled"`
	LoadedAt     time.Time        `json:"loaded_at"`
	State        PluginState      `json:"state"`
}

// AnalysisStatus classifies the overall outcome of an analyzer or evaluator run.
type AnalysisStatus string

const (
	AnalysisSuccess AnalysisStatus = "success"
	AnalysisPartial AnalysisStatus = "partial"
	AnalysisError   AnalysisStatus = "error"
)

// AnalysisResult is the structured outcome returned by Analyzer and Evaluator
// capabilities.
//
// The result separates hard failures (Errors) from advisory findings (Warnings)
// so a consumer can accept partially analyzed documents while surfacing what
// was skipped. Data carries the capability-specific payload; Metadata carries
// provenance (analyzer name, format, page counts and similar).
//
// Fields:
//   - Status: success, partial, or error
//   - Data: capability-specific result payload
//   - Metadata: provenance and context for the run
//   - Errors: hard failures encountered during the run
//   - Warnings: advisory findings that did not stop the run
//   - ExecutionTime: wall-clock duration of the run
type AnalysisResult struct {
	Status        AnalysisStatus `json:"status"`
	Data          map[string]any `json:"data,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Errors        []string       `json:"errors,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
	ExecutionTime time.Duration  `json:"execution_time"`
}

// IsSuccess reports whether the run completed without hard failures.
func (r *AnalysisResult) IsSuccess() bool {
	return r.Status == AnalysisSuccess && len(r.Errors) == 0
}

// HasErrors reports whether the run recorded at least one hard failure.
func (r *AnalysisResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// AddError appends a hard failure and downgrades the status accordingly.
// A result with data already present becomes partial, otherwise error.
func (r *AnalysisResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	if len(r.Data) > 0 {
		r.Status = AnalysisPartial
	} else {
		r.Status = AnalysisError
	}
}

// AddWarning appends an advisory finding without changing the status.
func (r *AnalysisResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
