// health_checker.go: Background health monitoring for registered plugins
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
)

// HealthMonitorConfig controls periodic background health probing.
type HealthMonitorConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	Interval     time.Duration `json:"interval" yaml:"interval"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
	FailureLimit int           `json:"failure_limit" yaml:"failure_limit"`
}

// DefaultHealthMonitorConfig returns the standard monitoring settings:
// probe every 30 seconds with a 5 second timeout, mark a plugin offline
// after 3 consecutive failures.
func DefaultHealthMonitorConfig() HealthMonitorConfig {
	return HealthMonitorConfig{
		Enabled:      true,
		Interval:     30 * time.Second,
		Timeout:      5 * time.Second,
		FailureLimit: 3,
	}
}

// HealthMonitor periodically probes every plugin registered on a manager.
//
// Each cycle runs the manager's HealthCheck and tracks consecutive failures
// per plugin. When a plugin crosses the configured failure limit its stored
// status escalates to StatusOffline and a "plugin.unhealthy" event is
// published once, so operators are alerted on the transition and not on
// every subsequent probe. A successful check resets the plugin's counter.
//
// Usage example:
//
//	monitor := NewHealthMonitor(manager, DefaultHealthMonitorConfig(), logger)
//	monitor.Start()
//	defer monitor.Stop()
//
//	overall := monitor.OverallHealth()
//	if overall.Status != StatusHealthy {
//	    log.Printf("runtime degraded: %s", overall.Message)
//	}
type HealthMonitor struct {
	manager *Manager
	config  HealthMonitorConfig
	logger  Logger

	mu       sync.Mutex
	failures map[string]int

	running  atomic.Bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewHealthMonitor creates a monitor for the manager's plugins.
//
// Zero-value config fields fall back to DefaultHealthMonitorConfig values.
// The monitor does not start probing until Start is called.
func NewHealthMonitor(manager *Manager, config HealthMonitorConfig, logger any) *HealthMonitor {
	defaults := DefaultHealthMonitorConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.FailureLimit <= 0 {
		config.FailureLimit = defaults.FailureLimit
	}

	return &HealthMonitor{
		manager:  manager,
		config:   config,
		logger:   NewLogger(logger).With("component", "health-monitor"),
		failures: make(map[string]int),
	}
}

// Start launches the periodic probing goroutine. It has no effect when
// monitoring is disabled in the configuration, and is idempotent.
func (hm *HealthMonitor) Start() {
	if !hm.config.Enabled {
		return
	}

	if hm.running.CompareAndSwap(false, true) {
		hm.stopChan = make(chan struct{})
		hm.doneChan = make(chan struct{})
		go hm.run()
	}
}

// Stop halts periodic probing and waits for the goroutine to finish any
// in-flight cycle. Idempotent; the monitor can be restarted with Start.
func (hm *HealthMonitor) Stop() {
	if hm.running.CompareAndSwap(true, false) {
		close(hm.stopChan)
		<-hm.doneChan
	}
}

// IsRunning reports whether the monitoring goroutine is active.
func (hm *HealthMonitor) IsRunning() bool {
	return hm.running.Load()
}

// run is the monitoring loop.
func (hm *HealthMonitor) run() {
	defer close(hm.doneChan)

	ticker := time.NewTicker(hm.config.Interval)
	defer ticker.Stop()

	// Initial probe so statuses are populated before the first tick.
	hm.CheckNow()

	for {
		select {
		case <-ticker.C:
			hm.CheckNow()

		case <-hm.stopChan:
			return
		}
	}
}

// CheckNow runs one probe cycle immediately and returns the liveness map.
// Safe to call independently of the background loop.
func (hm *HealthMonitor) CheckNow() map[string]bool {
	ctx, cancel := context.WithTimeout(context.Background(), hm.config.Timeout)
	defer cancel()

	results := hm.manager.HealthCheck(ctx)

	hm.mu.Lock()
	var crossed []string
	for name, healthy := range results {
		if healthy {
			hm.failures[name] = 0
			continue
		}
		hm.failures[name]++
		if hm.failures[name] == hm.config.FailureLimit {
			crossed = append(crossed, name)
		}
	}
	// Drop counters for plugins that were unregistered.
	for name := range hm.failures {
		if _, exists := results[name]; !exists {
			delete(hm.failures, name)
		}
	}
	hm.mu.Unlock()

	for _, name := range crossed {
		hm.markOffline(name)
		hm.logger.Warn("Plugin exceeded consecutive health check failures",
			"plugin", name, "failure_limit", hm.config.FailureLimit)
		_ = hm.manager.Events().Publish(context.Background(), EventPluginUnhealthy, map[string]any{
			"plugin":               name,
			"consecutive_failures": hm.config.FailureLimit,
		}, WithSource("health-monitor"))
	}

	return results
}

// markOffline escalates the stored status once the failure limit is crossed.
func (hm *HealthMonitor) markOffline(name string) {
	hm.manager.mu.Lock()
	defer hm.manager.mu.Unlock()

	if record, exists := hm.manager.plugins[name]; exists {
		record.health.Status = StatusOffline
		record.health.Message = "Exceeded consecutive failure limit"
		record.health.LastCheck = timecache.CachedTime()
	}
}

// ConsecutiveFailures returns the current failure streak for a plugin.
func (hm *HealthMonitor) ConsecutiveFailures(name string) int {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return hm.failures[name]
}

// OverallHealth aggregates the stored statuses into one runtime-wide view:
// unhealthy if any plugin is offline or unhealthy, degraded if any plugin is
// degraded, healthy otherwise.
func (hm *HealthMonitor) OverallHealth() HealthStatus {
	snapshot := hm.manager.HealthSnapshot()

	overallStatus := StatusHealthy
	var messages []string

	for name, status := range snapshot {
		switch status.Status {
		case StatusOffline, StatusUnhealthy:
			overallStatus = StatusUnhealthy
			messages = append(messages, name+": "+status.Message)
		case StatusDegraded:
			if overallStatus == StatusHealthy {
				overallStatus = StatusDegraded
			}
			messages = append(messages, name+": "+status.Message)
		}
	}

	message := "All plugins healthy"
	if len(messages) > 0 {
		message = "Issues detected: " + strings.Join(messages, "; ")
	}

	return HealthStatus{
		Status:    overallStatus,
		Message:   message,
		LastCheck: timecache.CachedTime(),
	}
}

// StartHealthMonitor builds a monitor from the default configuration with the
// given probe interval and starts it. The returned monitor must be stopped by
// the caller; ShutdownAll does not stop it.
func (m *Manager) StartHealthMonitor(interval time.Duration) (*HealthMonitor, error) {
	if m.shutdown.Load() {
		return nil, NewManagerShutdownError()
	}

	config := DefaultHealthMonitorConfig()
	if interval > 0 {
		config.Interval = interval
	}

	monitor := NewHealthMonitor(m, config, m.logger)
	monitor.Start()
	return monitor, nil
}
