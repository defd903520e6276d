// errors.go: structured error definitions for the plugin runtime
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"github.com/agilira/go-errors"
)

// Error codes for the plugin runtime
const (
	// Plugin lifecycle errors (1000-1099)
	ErrCodeInvalidPluginName       = "PLUGIN_1001"
	ErrCodeNilPlugin               = "PLUGIN_1002"
	ErrCodePluginAlreadyRegistered = "PLUGIN_1003"
	ErrCodePluginNotFound          = "PLUGIN_1004"
	ErrCodePluginInitFailed        = "PLUGIN_1005"
	ErrCodePluginShutdownFailed    = "PLUGIN_1006"
	ErrCodeManagerShutdown         = "PLUGIN_1007"

	// Health check errors (1100-1199)
	ErrCodeHealthCheckFailed  = "HEALTH_1101"
	ErrCodeHealthCheckTimeout = "HEALTH_1102"
	ErrCodeHealthCheckPanic   = "HEALTH_1103"

	// Event bus errors (2000-2099)
	ErrCodeEmptyEventName   = "EVENT_2001"
	ErrCodeEmptyHandlerName = "EVENT_2002"
	ErrCodeNilEventHandler  = "EVENT_2003"
	ErrCodeEventBusClosed   = "EVENT_2004"

	// Hook pipeline errors (3000-3099)
	ErrCodeEmptyHookPoint    = "HOOK_3001"
	ErrCodeEmptyCallbackName = "HOOK_3002"
	ErrCodeNilHookCallback   = "HOOK_3003"

	// Capability registry errors (4000-4099)
	ErrCodeNilCapability       = "REGISTRY_4001"
	ErrCodeEmptyCapabilityName = "REGISTRY_4002"
	ErrCodeDuplicateCapability = "REGISTRY_4003"
	ErrCodeCapabilityNotFound  = "REGISTRY_4004"
	ErrCodeNoCapabilityForFile = "REGISTRY_4005"

	// Discovery errors (5000-5099)
	ErrCodeDiscoveryFailed    = "DISCOVERY_5001"
	ErrCodeManifestParse      = "DISCOVERY_5002"
	ErrCodeManifestValidation = "DISCOVERY_5003"
	ErrCodeUnknownFactory     = "DISCOVERY_5004"
	ErrCodeNilFactory         = "DISCOVERY_5005"
	ErrCodeDuplicateFactory   = "DISCOVERY_5006"
	ErrCodeDirectoryWatch     = "DISCOVERY_5007"

	// Configuration errors (6000-6099)
	ErrCodeConfigNotFound        = "CONFIG_6001"
	ErrCodeConfigParseError      = "CONFIG_6002"
	ErrCodeConfigValidationError = "CONFIG_6003"
	ErrCodeConfigWatcherError    = "CONFIG_6004"
	ErrCodeConfigPathError       = "CONFIG_6005"
	ErrCodeConfigFileError       = "CONFIG_6006"
)

// Plugin lifecycle error constructors

func NewInvalidPluginNameError(name string) *errors.Error {
	return errors.New(ErrCodeInvalidPluginName, "Invalid plugin name").
		WithUserMessage("Plugin name is required and cannot be empty").
		WithContext("provided_name", name).
		WithSeverity("error")
}

func NewNilPluginError() *errors.Error {
	return errors.New(ErrCodeNilPlugin, "Nil plugin").
		WithUserMessage("A plugin instance is required").
		WithSeverity("error")
}

func NewPluginAlreadyRegisteredError(name string) *errors.Error {
	return errors.New(ErrCodePluginAlreadyRegistered, "Plugin already registered").
		WithUserMessage("A plugin with this name is already registered; the new instance was rejected").
		WithContext("plugin_name", name).
		WithSeverity("warning")
}

func NewPluginNotFoundError(name string) *errors.Error {
	return errors.New(ErrCodePluginNotFound, "Plugin not found").
		WithUserMessage("The requested plugin is not registered").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewPluginInitError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePluginInitFailed, "Plugin initialization failed").
		WithUserMessage("The plugin could not be initialized and was not registered").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewPluginShutdownError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePluginShutdownFailed, "Plugin shutdown failed").
		WithUserMessage("The plugin reported an error during shutdown").
		WithContext("plugin_name", name).
		WithSeverity("warning")
}

func NewManagerShutdownError() *errors.Error {
	return errors.New(ErrCodeManagerShutdown, "Manager is shut down").
		WithUserMessage("The plugin manager has been shut down and cannot accept operations").
		WithSeverity("error")
}

// Health check error constructors

func NewHealthCheckFailedError(pluginName string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeHealthCheckFailed, "Health check failed").
		WithUserMessage("Plugin health check failed").
		WithContext("plugin_name", pluginName).
		WithSeverity("warning")
}

func NewHealthCheckTimeoutError(pluginName string, timeout interface{}) *errors.Error {
	return errors.New(ErrCodeHealthCheckTimeout, "Health check timeout").
		WithUserMessage("Plugin health check timed out").
		WithContext("plugin_name", pluginName).
		WithContext("timeout", timeout).
		WithSeverity("warning").
		AsRetryable()
}

func NewHealthCheckPanicError(pluginName string, recovered interface{}) *errors.Error {
	return errors.New(ErrCodeHealthCheckPanic, "Health check panicked").
		WithUserMessage("Plugin health check panicked and was recorded as unhealthy").
		WithContext("plugin_name", pluginName).
		WithContext("panic", recovered).
		WithSeverity("warning")
}

// Event bus error constructors

func NewEmptyEventNameError() *errors.Error {
	return errors.New(ErrCodeEmptyEventName, "Empty event name").
		WithUserMessage("An event name is required and cannot be empty").
		WithSeverity("error")
}

func NewEmptyHandlerNameError(eventName string) *errors.Error {
	return errors.New(ErrCodeEmptyHandlerName, "Empty handler name").
		WithUserMessage("A handler name is required so the binding can be identified in logs and unsubscribed").
		WithContext("event_name", eventName).
		WithSeverity("error")
}

func NewNilEventHandlerError(eventName, handlerName string) *errors.Error {
	return errors.New(ErrCodeNilEventHandler, "Nil event handler").
		WithUserMessage("An event handler function is required").
		WithContext("event_name", eventName).
		WithContext("handler_name", handlerName).
		WithSeverity("error")
}

func NewEventBusClosedError() *errors.Error {
	return errors.New(ErrCodeEventBusClosed, "Event bus closed").
		WithUserMessage("The event bus has been closed and no longer accepts publishes").
		WithSeverity("error")
}

// Hook pipeline error constructors

func NewEmptyHookPointError() *errors.Error {
	return errors.New(ErrCodeEmptyHookPoint, "Empty hook point").
		WithUserMessage("A hook point identifier is required and cannot be empty").
		WithSeverity("error")
}

func NewEmptyCallbackNameError(point HookPoint) *errors.Error {
	return errors.New(ErrCodeEmptyCallbackName, "Empty callback name").
		WithUserMessage("A callback name is required so the binding can be identified in logs and unregistered").
		WithContext("hook_point", string(point)).
		WithSeverity("error")
}

func NewNilHookCallbackError(point HookPoint, callbackName string) *errors.Error {
	return errors.New(ErrCodeNilHookCallback, "Nil hook callback").
		WithUserMessage("A hook callback function is required").
		WithContext("hook_point", string(point)).
		WithContext("callback_name", callbackName).
		WithSeverity("error")
}

// Capability registry error constructors

func NewNilCapabilityError(kind CapabilityKind) *errors.Error {
	return errors.New(ErrCodeNilCapability, "Nil capability").
		WithUserMessage("A capability implementation is required").
		WithContext("capability_kind", string(kind)).
		WithSeverity("error")
}

func NewEmptyCapabilityNameError(kind CapabilityKind) *errors.Error {
	return errors.New(ErrCodeEmptyCapabilityName, "Empty capability name").
		WithUserMessage("Capability implementations must report a non-empty name").
		WithContext("capability_kind", string(kind)).
		WithSeverity("error")
}

func NewDuplicateCapabilityError(kind CapabilityKind, name string) *errors.Error {
	return errors.New(ErrCodeDuplicateCapability, "Duplicate capability name").
		WithUserMessage("A capability with this name is already registered for this kind; the first registration wins").
		WithContext("capability_kind", string(kind)).
		WithContext("capability_name", name).
		WithSeverity("warning")
}

func NewCapabilityNotFoundError(kind CapabilityKind, name string) *errors.Error {
	return errors.New(ErrCodeCapabilityNotFound, "Capability not found").
		WithUserMessage("No capability with this name is registered for this kind").
		WithContext("capability_kind", string(kind)).
		WithContext("capability_name", name).
		WithSeverity("warning")
}

func NewNoCapabilityForFileError(kind CapabilityKind, path string) *errors.Error {
	return errors.New(ErrCodeNoCapabilityForFile, "No capability for file").
		WithUserMessage("No registered capability accepts this file's format").
		WithContext("capability_kind", string(kind)).
		WithContext("path", path).
		WithSeverity("warning")
}

// Discovery error constructors

func NewDiscoveryError(message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDiscoveryFailed, "Discovery error: "+message).
		WithUserMessage("Plugin discovery failed").
		WithSeverity("error")
}

func NewManifestParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeManifestParse, "Manifest parse error").
		WithUserMessage("Failed to parse plugin manifest").
		WithContext("manifest_path", path).
		WithSeverity("error")
}

func NewManifestValidationError(path string, message string) *errors.Error {
	return errors.New(ErrCodeManifestValidation, "Manifest validation error: "+message).
		WithUserMessage("Plugin manifest is invalid").
		WithContext("manifest_path", path).
		WithSeverity("error")
}

func NewUnknownFactoryError(factory string, manifestPath string) *errors.Error {
	return errors.New(ErrCodeUnknownFactory, "Unknown plugin factory").
		WithUserMessage("The manifest names a factory that was never registered").
		WithContext("factory", factory).
		WithContext("manifest_path", manifestPath).
		WithSeverity("error")
}

func NewNilFactoryError() *errors.Error {
	return errors.New(ErrCodeNilFactory, "Nil plugin factory").
		WithUserMessage("A plugin factory instance is required").
		WithSeverity("error")
}

func NewDuplicateFactoryError(name string) *errors.Error {
	return errors.New(ErrCodeDuplicateFactory, "Duplicate factory name").
		WithUserMessage("A factory with this name is already registered").
		WithContext("factory", name).
		WithSeverity("error")
}

func NewDirectoryWatchError(message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDirectoryWatch, "Directory watch error: "+message).
		WithUserMessage("Plugin directory watching failed").
		WithSeverity("error")
}

// Configuration error constructors

func NewConfigNotFoundError(path string) *errors.Error {
	return errors.New(ErrCodeConfigNotFound, "Configuration file not found").
		WithUserMessage("The configuration file could not be found").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("Failed to parse configuration file").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigValidationError(message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigValidationError, "Configuration validation error: "+message).
		WithUserMessage("Configuration validation failed").
		WithSeverity("error")
}

func NewConfigWatcherError(message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigWatcherError, "Configuration watcher error: "+message).
		WithUserMessage("Configuration monitoring failed").
		WithSeverity("error")
}

func NewConfigPathError(path string, message string) *errors.Error {
	return errors.New(ErrCodeConfigPathError, "Configuration path error: "+message).
		WithUserMessage("Invalid configuration file path").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigFileError(path string, message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigFileError, "Configuration file error: "+message).
		WithUserMessage("Configuration file access failed").
		WithContext("config_path", path).
		WithSeverity("error")
}
