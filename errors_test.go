// errors_test.go: test coverage for structured error definitions
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/agilira/go-errors"
)

// TestPluginLifecycleErrorConstructors tests plugin lifecycle error constructors
func TestPluginLifecycleErrorConstructors(t *testing.T) {
	t.Run("NewInvalidPluginNameError", func(t *testing.T) {
		pluginName := ""
		err := NewInvalidPluginNameError(pluginName)

		// Verify error code
		if err.ErrorCode() != errors.ErrorCode(ErrCodeInvalidPluginName) {
			t.Errorf("Expected error code %s, got %s", ErrCodeInvalidPluginName, err.ErrorCode())
		}

		// Verify context
		if err.Context["provided_name"] != pluginName {
			t.Errorf("Expected provided_name context to be %q, got %v", pluginName, err.Context["provided_name"])
		}

		// Verify severity
		if err.Severity != "error" {
			t.Errorf("Expected severity 'error', got %q", err.Severity)
		}

		// Verify user message
		expectedMsg := "Plugin name is required and cannot be empty"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}

		// Verify not retryable by default
		if err.IsRetryable() {
			t.Error("Expected error to not be retryable")
		}
	})

	t.Run("NewNilPluginError", func(t *testing.T) {
		err := NewNilPluginError()

		if err.ErrorCode() != errors.ErrorCode(ErrCodeNilPlugin) {
			t.Errorf("Expected error code %s, got %s", ErrCodeNilPlugin, err.ErrorCode())
		}

		expectedMsg := "A plugin instance is required"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})

	t.Run("NewPluginAlreadyRegisteredError", func(t *testing.T) {
		pluginName := "ocr-engine"
		err := NewPluginAlreadyRegisteredError(pluginName)

		if err.ErrorCode() != errors.ErrorCode(ErrCodePluginAlreadyRegistered) {
			t.Errorf("Expected error code %s, got %s", ErrCodePluginAlreadyRegistered, err.ErrorCode())
		}

		if err.Context["plugin_name"] != pluginName {
			t.Errorf("Expected plugin_name context to be %q, got %v", pluginName, err.Context["plugin_name"])
		}

		// Duplicate registration is recoverable by the caller
		if err.Severity != "warning" {
			t.Errorf("Expected severity 'warning', got %q", err.Severity)
		}

		// Verify the rendered message carries the code prefix
		if !strings.Contains(err.Error(), "[PLUGIN_1003]") || !strings.Contains(err.Error(), "Plugin already registered") {
			t.Errorf("Expected error string to carry code and message, got %q", err.Error())
		}
	})

	t.Run("NewPluginNotFoundError", func(t *testing.T) {
		pluginName := "missing-plugin"
		err := NewPluginNotFoundError(pluginName)

		if err.ErrorCode() != errors.ErrorCode(ErrCodePluginNotFound) {
			t.Errorf("Expected error code %s, got %s", ErrCodePluginNotFound, err.ErrorCode())
		}

		if err.Context["plugin_name"] != pluginName {
			t.Errorf("Expected plugin_name context to be %q, got %v", pluginName, err.Context["plugin_name"])
		}

		expectedMsg := "The requested plugin is not registered"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})

	t.Run("NewPluginInitError", func(t *testing.T) {
		pluginName := "broken-plugin"
		cause := fmt.Errorf("missing credentials")
		err := NewPluginInitError(pluginName, cause)

		if err.ErrorCode() != errors.ErrorCode(ErrCodePluginInitFailed) {
			t.Errorf("Expected error code %s, got %s", ErrCodePluginInitFailed, err.ErrorCode())
		}

		if err.Context["plugin_name"] != pluginName {
			t.Errorf("Expected plugin_name context to be %q, got %v", pluginName, err.Context["plugin_name"])
		}

		// Verify cause is properly wrapped
		if err.Cause == nil {
			t.Error("Expected cause to be set")
		}

		expectedMsg := "The plugin could not be initialized and was not registered"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})

	t.Run("NewPluginShutdownError", func(t *testing.T) {
		pluginName := "stubborn-plugin"
		cause := fmt.Errorf("flush failed")
		err := NewPluginShutdownError(pluginName, cause)

		if err.ErrorCode() != errors.ErrorCode(ErrCodePluginShutdownFailed) {
			t.Errorf("Expected error code %s, got %s", ErrCodePluginShutdownFailed, err.ErrorCode())
		}

		if err.Context["plugin_name"] != pluginName {
			t.Errorf("Expected plugin_name context to be %q, got %v", pluginName, err.Context["plugin_name"])
		}

		// Shutdown errors do not abort the unregistration
		if err.Severity != "warning" {
			t.Errorf("Expected severity 'warning', got %q", err.Severity)
		}

		if err.Cause == nil {
			t.Error("Expected cause to be set")
		}
	})

	t.Run("NewManagerShutdownError", func(t *testing.T) {
		err := NewManagerShutdownError()

		if err.ErrorCode() != errors.ErrorCode(ErrCodeManagerShutdown) {
			t.Errorf("Expected error code %s, got %s", ErrCodeManagerShutdown, err.ErrorCode())
		}

		expectedMsg := "The plugin manager has been shut down and cannot accept operations"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}

		if err.IsRetryable() {
			t.Error("Expected error to not be retryable")
		}
	})
}

// TestHealthCheckErrorConstructors tests health check error constructors
func TestHealthCheckErrorConstructors(t *testing.T) {
	t.Run("NewHealthCheckFailedError", func(t *testing.T) {
		pluginName := "flaky-plugin"
		cause := fmt.Errorf("backend unreachable")
		err := NewHealthCheckFailedError(pluginName, cause)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeHealthCheckFailed) {
			t.Errorf("Expected error code %s, got %s", ErrCodeHealthCheckFailed, err.ErrorCode())
		}

		if err.Context["plugin_name"] != pluginName {
			t.Errorf("Expected plugin_name context to be %q, got %v", pluginName, err.Context["plugin_name"])
		}

		if err.Severity != "warning" {
			t.Errorf("Expected severity 'warning', got %q", err.Severity)
		}

		if err.Cause == nil {
			t.Error("Expected cause to be set")
		}
	})

	t.Run("NewHealthCheckTimeoutError", func(t *testing.T) {
		pluginName := "slow-plugin"
		timeout := 5 * time.Second
		err := NewHealthCheckTimeoutError(pluginName, timeout)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeHealthCheckTimeout) {
			t.Errorf("Expected error code %s, got %s", ErrCodeHealthCheckTimeout, err.ErrorCode())
		}

		if err.Context["plugin_name"] != pluginName {
			t.Errorf("Expected plugin_name context to be %q, got %v", pluginName, err.Context["plugin_name"])
		}

		if err.Context["timeout"] != timeout {
			t.Errorf("Expected timeout context to be %v, got %v", timeout, err.Context["timeout"])
		}

		// Timeouts may succeed on the next probe
		if !err.IsRetryable() {
			t.Error("Expected error to be retryable")
		}

		if err.Severity != "warning" {
			t.Errorf("Expected severity 'warning', got %q", err.Severity)
		}
	})

	t.Run("NewHealthCheckPanicError", func(t *testing.T) {
		pluginName := "wild-plugin"
		recovered := "index out of range"
		err := NewHealthCheckPanicError(pluginName, recovered)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeHealthCheckPanic) {
			t.Errorf("Expected error code %s, got %s", ErrCodeHealthCheckPanic, err.ErrorCode())
		}

		if err.Context["plugin_name"] != pluginName {
			t.Errorf("Expected plugin_name context to be %q, got %v", pluginName, err.Context["plugin_name"])
		}

		if err.Context["panic"] != recovered {
			t.Errorf("Expected panic context to be %v, got %v", recovered, err.Context["panic"])
		}

		expectedMsg := "Plugin health check panicked and was recorded as unhealthy"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})
}

// TestEventBusErrorConstructors tests event bus error constructors
func TestEventBusErrorConstructors(t *testing.T) {
	t.Run("NewEmptyEventNameError", func(t *testing.T) {
		err := NewEmptyEventNameError()

		if err.ErrorCode() != errors.ErrorCode(ErrCodeEmptyEventName) {
			t.Errorf("Expected error code %s, got %s", ErrCodeEmptyEventName, err.ErrorCode())
		}

		expectedMsg := "An event name is required and cannot be empty"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})

	t.Run("NewEmptyHandlerNameError", func(t *testing.T) {
		eventName := "document.uploaded"
		err := NewEmptyHandlerNameError(eventName)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeEmptyHandlerName) {
			t.Errorf("Expected error code %s, got %s", ErrCodeEmptyHandlerName, err.ErrorCode())
		}

		if err.Context["event_name"] != eventName {
			t.Errorf("Expected event_name context to be %q, got %v", eventName, err.Context["event_name"])
		}
	})

	t.Run("NewNilEventHandlerError", func(t *testing.T) {
		eventName := "document.uploaded"
		handlerName := "ocr.scan"
		err := NewNilEventHandlerError(eventName, handlerName)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeNilEventHandler) {
			t.Errorf("Expected error code %s, got %s", ErrCodeNilEventHandler, err.ErrorCode())
		}

		if err.Context["event_name"] != eventName {
			t.Errorf("Expected event_name context to be %q, got %v", eventName, err.Context["event_name"])
		}

		if err.Context["handler_name"] != handlerName {
			t.Errorf("Expected handler_name context to be %q, got %v", handlerName, err.Context["handler_name"])
		}
	})

	t.Run("NewEventBusClosedError", func(t *testing.T) {
		err := NewEventBusClosedError()

		if err.ErrorCode() != errors.ErrorCode(ErrCodeEventBusClosed) {
			t.Errorf("Expected error code %s, got %s", ErrCodeEventBusClosed, err.ErrorCode())
		}

		expectedMsg := "The event bus has been closed and no longer accepts publishes"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}

		if err.IsRetryable() {
			t.Error("Expected error to not be retryable")
		}
	})
}

// TestHookPipelineErrorConstructors tests hook pipeline error constructors
func TestHookPipelineErrorConstructors(t *testing.T) {
	t.Run("NewEmptyHookPointError", func(t *testing.T) {
		err := NewEmptyHookPointError()

		if err.ErrorCode() != errors.ErrorCode(ErrCodeEmptyHookPoint) {
			t.Errorf("Expected error code %s, got %s", ErrCodeEmptyHookPoint, err.ErrorCode())
		}

		expectedMsg := "A hook point identifier is required and cannot be empty"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})

	t.Run("NewEmptyCallbackNameError", func(t *testing.T) {
		err := NewEmptyCallbackNameError(HookPreAnalysis)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeEmptyCallbackName) {
			t.Errorf("Expected error code %s, got %s", ErrCodeEmptyCallbackName, err.ErrorCode())
		}

		if err.Context["hook_point"] != string(HookPreAnalysis) {
			t.Errorf("Expected hook_point context to be %q, got %v", string(HookPreAnalysis), err.Context["hook_point"])
		}
	})

	t.Run("NewNilHookCallbackError", func(t *testing.T) {
		callbackName := "redactor.strip"
		err := NewNilHookCallbackError(HookPostExtraction, callbackName)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeNilHookCallback) {
			t.Errorf("Expected error code %s, got %s", ErrCodeNilHookCallback, err.ErrorCode())
		}

		if err.Context["hook_point"] != string(HookPostExtraction) {
			t.Errorf("Expected hook_point context to be %q, got %v", string(HookPostExtraction), err.Context["hook_point"])
		}

		if err.Context["callback_name"] != callbackName {
			t.Errorf("Expected callback_name context to be %q, got %v", callbackName, err.Context["callback_name"])
		}
	})
}

// TestCapabilityRegistryErrorConstructors tests capability registry error constructors
func TestCapabilityRegistryErrorConstructors(t *testing.T) {
	t.Run("NewNilCapabilityError", func(t *testing.T) {
		err := NewNilCapabilityError(CapabilityAnalyzer)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeNilCapability) {
			t.Errorf("Expected error code %s, got %s", ErrCodeNilCapability, err.ErrorCode())
		}

		if err.Context["capability_kind"] != string(CapabilityAnalyzer) {
			t.Errorf("Expected capability_kind context to be %q, got %v", string(CapabilityAnalyzer), err.Context["capability_kind"])
		}
	})

	t.Run("NewEmptyCapabilityNameError", func(t *testing.T) {
		err := NewEmptyCapabilityNameError(CapabilityExtractor)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeEmptyCapabilityName) {
			t.Errorf("Expected error code %s, got %s", ErrCodeEmptyCapabilityName, err.ErrorCode())
		}

		expectedMsg := "Capability implementations must report a non-empty name"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})

	t.Run("NewDuplicateCapabilityError", func(t *testing.T) {
		capName := "pdf-text"
		err := NewDuplicateCapabilityError(CapabilityExtractor, capName)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeDuplicateCapability) {
			t.Errorf("Expected error code %s, got %s", ErrCodeDuplicateCapability, err.ErrorCode())
		}

		if err.Context["capability_kind"] != string(CapabilityExtractor) {
			t.Errorf("Expected capability_kind context to be %q, got %v", string(CapabilityExtractor), err.Context["capability_kind"])
		}

		if err.Context["capability_name"] != capName {
			t.Errorf("Expected capability_name context to be %q, got %v", capName, err.Context["capability_name"])
		}

		// First registration wins, the duplicate is rejected but not fatal
		if err.Severity != "warning" {
			t.Errorf("Expected severity 'warning', got %q", err.Severity)
		}
	})

	t.Run("NewCapabilityNotFoundError", func(t *testing.T) {
		capName := "nonexistent"
		err := NewCapabilityNotFoundError(CapabilityAnalyzer, capName)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeCapabilityNotFound) {
			t.Errorf("Expected error code %s, got %s", ErrCodeCapabilityNotFound, err.ErrorCode())
		}

		if err.Context["capability_name"] != capName {
			t.Errorf("Expected capability_name context to be %q, got %v", capName, err.Context["capability_name"])
		}

		if err.Severity != "warning" {
			t.Errorf("Expected severity 'warning', got %q", err.Severity)
		}
	})

	t.Run("NewNoCapabilityForFileError", func(t *testing.T) {
		path := "/documents/report.xyz"
		err := NewNoCapabilityForFileError(CapabilityExtractor, path)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeNoCapabilityForFile) {
			t.Errorf("Expected error code %s, got %s", ErrCodeNoCapabilityForFile, err.ErrorCode())
		}

		if err.Context["path"] != path {
			t.Errorf("Expected path context to be %q, got %v", path, err.Context["path"])
		}

		expectedMsg := "No registered capability accepts this file's format"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})
}

// TestDiscoveryErrorConstructors tests discovery error constructors
func TestDiscoveryErrorConstructors(t *testing.T) {
	t.Run("NewDiscoveryError", func(t *testing.T) {
		cause := fmt.Errorf("permission denied")

		// Test with cause
		errWithCause := NewDiscoveryError("cannot access discovery root /plugins", cause)
		if errWithCause.ErrorCode() != errors.ErrorCode(ErrCodeDiscoveryFailed) {
			t.Errorf("Expected error code %s, got %s", ErrCodeDiscoveryFailed, errWithCause.ErrorCode())
		}

		if errWithCause.Cause == nil {
			t.Error("Expected cause to be set")
		}

		// Test without cause
		errWithoutCause := NewDiscoveryError("discovery root /plugins is not a directory", nil)
		if errWithoutCause.ErrorCode() != errors.ErrorCode(ErrCodeDiscoveryFailed) {
			t.Errorf("Expected error code %s, got %s", ErrCodeDiscoveryFailed, errWithoutCause.ErrorCode())
		}

		// Verify the message carries the detail
		if !strings.Contains(errWithoutCause.Error(), "Discovery error: discovery root /plugins is not a directory") {
			t.Errorf("Expected error string to carry the detail, got %q", errWithoutCause.Error())
		}
	})

	t.Run("NewManifestParseError", func(t *testing.T) {
		manifestPath := "/plugins/ocr/plugin.yaml"
		cause := fmt.Errorf("yaml: line 3: mapping values are not allowed")
		err := NewManifestParseError(manifestPath, cause)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeManifestParse) {
			t.Errorf("Expected error code %s, got %s", ErrCodeManifestParse, err.ErrorCode())
		}

		if err.Context["manifest_path"] != manifestPath {
			t.Errorf("Expected manifest_path context to be %q, got %v", manifestPath, err.Context["manifest_path"])
		}

		if err.Cause == nil {
			t.Error("Expected cause to be set")
		}
	})

	t.Run("NewManifestValidationError", func(t *testing.T) {
		manifestPath := "/plugins/ocr/plugin.yaml"
		err := NewManifestValidationError(manifestPath, "plugin name is required")

		if err.ErrorCode() != errors.ErrorCode(ErrCodeManifestValidation) {
			t.Errorf("Expected error code %s, got %s", ErrCodeManifestValidation, err.ErrorCode())
		}

		if err.Context["manifest_path"] != manifestPath {
			t.Errorf("Expected manifest_path context to be %q, got %v", manifestPath, err.Context["manifest_path"])
		}

		expected := "[DISCOVERY_5003]: Manifest validation error: plugin name is required"
		if err.Error() != expected {
			t.Errorf("Expected error string %q, got %q", expected, err.Error())
		}
	})

	t.Run("NewUnknownFactoryError", func(t *testing.T) {
		factory := "ghost-factory"
		manifestPath := "/plugins/ghost/plugin.yaml"
		err := NewUnknownFactoryError(factory, manifestPath)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeUnknownFactory) {
			t.Errorf("Expected error code %s, got %s", ErrCodeUnknownFactory, err.ErrorCode())
		}

		if err.Context["factory"] != factory {
			t.Errorf("Expected factory context to be %q, got %v", factory, err.Context["factory"])
		}

		if err.Context["manifest_path"] != manifestPath {
			t.Errorf("Expected manifest_path context to be %q, got %v", manifestPath, err.Context["manifest_path"])
		}
	})

	t.Run("NewNilFactoryError", func(t *testing.T) {
		err := NewNilFactoryError()

		if err.ErrorCode() != errors.ErrorCode(ErrCodeNilFactory) {
			t.Errorf("Expected error code %s, got %s", ErrCodeNilFactory, err.ErrorCode())
		}

		expectedMsg := "A plugin factory instance is required"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})

	t.Run("NewDuplicateFactoryError", func(t *testing.T) {
		factory := "echo"
		err := NewDuplicateFactoryError(factory)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeDuplicateFactory) {
			t.Errorf("Expected error code %s, got %s", ErrCodeDuplicateFactory, err.ErrorCode())
		}

		if err.Context["factory"] != factory {
			t.Errorf("Expected factory context to be %q, got %v", factory, err.Context["factory"])
		}
	})

	t.Run("NewDirectoryWatchError", func(t *testing.T) {
		cause := fmt.Errorf("inotify limit reached")

		errWithCause := NewDirectoryWatchError("failed to create file watcher", cause)
		if errWithCause.ErrorCode() != errors.ErrorCode(ErrCodeDirectoryWatch) {
			t.Errorf("Expected error code %s, got %s", ErrCodeDirectoryWatch, errWithCause.ErrorCode())
		}

		if errWithCause.Cause == nil {
			t.Error("Expected cause to be set")
		}

		errWithoutCause := NewDirectoryWatchError("no directories to watch", nil)
		if !strings.Contains(errWithoutCause.Error(), "Directory watch error: no directories to watch") {
			t.Errorf("Expected error string to carry the detail, got %q", errWithoutCause.Error())
		}
	})
}

// TestConfigurationErrorConstructors tests configuration error constructors
func TestConfigurationErrorConstructors(t *testing.T) {
	t.Run("NewConfigNotFoundError", func(t *testing.T) {
		configPath := "/etc/argo/runtime.yaml"
		err := NewConfigNotFoundError(configPath)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeConfigNotFound) {
			t.Errorf("Expected error code %s, got %s", ErrCodeConfigNotFound, err.ErrorCode())
		}

		if err.Context["config_path"] != configPath {
			t.Errorf("Expected config_path context to be %q, got %v", configPath, err.Context["config_path"])
		}

		expectedMsg := "The configuration file could not be found"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})

	t.Run("NewConfigParseError", func(t *testing.T) {
		configPath := "/etc/argo/runtime.yaml"
		cause := fmt.Errorf("yaml: unmarshal error")
		err := NewConfigParseError(configPath, cause)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeConfigParseError) {
			t.Errorf("Expected error code %s, got %s", ErrCodeConfigParseError, err.ErrorCode())
		}

		if err.Context["config_path"] != configPath {
			t.Errorf("Expected config_path context to be %q, got %v", configPath, err.Context["config_path"])
		}

		if err.Cause == nil {
			t.Error("Expected cause to be set")
		}
	})

	t.Run("NewConfigValidationError", func(t *testing.T) {
		err := NewConfigValidationError("health.interval cannot be negative", nil)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeConfigValidationError) {
			t.Errorf("Expected error code %s, got %s", ErrCodeConfigValidationError, err.ErrorCode())
		}

		if !strings.Contains(err.Error(), "Configuration validation error: health.interval cannot be negative") {
			t.Errorf("Expected error string to carry the detail, got %q", err.Error())
		}

		// With a cause the message stays the same and the cause is kept
		cause := fmt.Errorf("field check failed")
		errWithCause := NewConfigValidationError("invalid configuration", cause)
		if errWithCause.Cause == nil {
			t.Error("Expected cause to be set")
		}
	})

	t.Run("NewConfigWatcherError", func(t *testing.T) {
		err := NewConfigWatcherError("config watcher is already running", nil)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeConfigWatcherError) {
			t.Errorf("Expected error code %s, got %s", ErrCodeConfigWatcherError, err.ErrorCode())
		}

		if !strings.Contains(err.Error(), "Configuration watcher error: config watcher is already running") {
			t.Errorf("Expected error string to carry the detail, got %q", err.Error())
		}

		expectedMsg := "Configuration monitoring failed"
		if err.UserMessage() != expectedMsg {
			t.Errorf("Expected user message %q, got %q", expectedMsg, err.UserMessage())
		}
	})

	t.Run("NewConfigPathError", func(t *testing.T) {
		configPath := ""
		err := NewConfigPathError(configPath, "empty config file path")

		if err.ErrorCode() != errors.ErrorCode(ErrCodeConfigPathError) {
			t.Errorf("Expected error code %s, got %s", ErrCodeConfigPathError, err.ErrorCode())
		}

		if err.Context["config_path"] != configPath {
			t.Errorf("Expected config_path context to be %q, got %v", configPath, err.Context["config_path"])
		}

		expected := "[CONFIG_6005]: Configuration path error: empty config file path"
		if err.Error() != expected {
			t.Errorf("Expected error string %q, got %q", expected, err.Error())
		}
	})

	t.Run("NewConfigFileError", func(t *testing.T) {
		configPath := "/etc/argo/runtime.yaml"
		cause := fmt.Errorf("read: permission denied")
		err := NewConfigFileError(configPath, "cannot read configuration", cause)

		if err.ErrorCode() != errors.ErrorCode(ErrCodeConfigFileError) {
			t.Errorf("Expected error code %s, got %s", ErrCodeConfigFileError, err.ErrorCode())
		}

		if err.Context["config_path"] != configPath {
			t.Errorf("Expected config_path context to be %q, got %v", configPath, err.Context["config_path"])
		}

		if err.Cause == nil {
			t.Error("Expected cause to be set")
		}

		// Nil cause still yields a usable error
		errNoCause := NewConfigFileError(configPath, "configuration file is empty", nil)
		if !strings.Contains(errNoCause.Error(), "Configuration file error: configuration file is empty") {
			t.Errorf("Expected error string to carry the detail, got %q", errNoCause.Error())
		}
	})
}
