// metrics.go: Pluggable metrics collection for the plugin runtime
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricsCollector defines the interface for collecting runtime metrics.
//
// The event bus, hook pipeline, and lifecycle manager report dispatch volumes,
// caught handler/callback errors, and health outcomes through this interface.
// Implementations can bridge to Prometheus, OpenTelemetry, or any other
// metrics backend; the in-memory default keeps everything queryable for tests
// and small deployments.
type MetricsCollector interface {
	// IncrementCounter increments a counter metric by one
	IncrementCounter(name string, labels map[string]string)

	// SetGauge sets a gauge metric to a specific value
	SetGauge(name string, labels map[string]string, value float64)

	// RecordDuration records a duration observation for a timing metric
	RecordDuration(name string, labels map[string]string, d time.Duration)

	// GetMetrics returns current metric values keyed by name{labels}
	GetMetrics() map[string]any
}

// NoOpMetricsCollector discards all metrics.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) IncrementCounter(string, map[string]string) {}

func (NoOpMetricsCollector) SetGauge(string, map[string]string, float64) {}

func (NoOpMetricsCollector) RecordDuration(string, map[string]string, time.Duration) {}

func (NoOpMetricsCollector) GetMetrics() map[string]any { return nil }

// inMemoryMetrics is the default MetricsCollector: a mutex-guarded map keyed
// by metric name plus sorted label pairs. Durations keep a running count and
// total so callers can derive averages.
type inMemoryMetrics struct {
	mu        sync.RWMutex
	counters  map[string]int64
	gauges    map[string]float64
	durations map[string]*durationStat
}

type durationStat struct {
	Count int64
	Total time.Duration
}

// NewInMemoryMetrics creates the default in-memory metrics collector.
func NewInMemoryMetrics() MetricsCollector {
	return &inMemoryMetrics{
		counters:  make(map[string]int64),
		gauges:    make(map[string]float64),
		durations: make(map[string]*durationStat),
	}
}

func (m *inMemoryMetrics) IncrementCounter(name string, labels map[string]string) {
	key := metricKey(name, labels)
	m.mu.Lock()
	m.counters[key]++
	m.mu.Unlock()
}

func (m *inMemoryMetrics) SetGauge(name string, labels map[string]string, value float64) {
	key := metricKey(name, labels)
	m.mu.Lock()
	m.gauges[key] = value
	m.mu.Unlock()
}

func (m *inMemoryMetrics) RecordDuration(name string, labels map[string]string, d time.Duration) {
	key := metricKey(name, labels)
	m.mu.Lock()
	stat, ok := m.durations[key]
	if !ok {
		stat = &durationStat{}
		m.durations[key] = stat
	}
	stat.Count++
	stat.Total += d
	m.mu.Unlock()
}

func (m *inMemoryMetrics) GetMetrics() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]any, len(m.counters)+len(m.gauges)+len(m.durations))
	for k, v := range m.counters {
		out[k] = v
	}
	for k, v := range m.gauges {
		out[k] = v
	}
	for k, v := range m.durations {
		out[k] = durationStat{Count: v.Count, Total: v.Total}
	}
	return out
}

// metricKey builds a stable identity from a metric name and its labels.
// Labels are sorted so the same set always produces the same key.
func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}
