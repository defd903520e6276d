// Package argoplugins provides an in-process extensibility runtime for
// document intelligence pipelines. It combines a typed capability registry,
// a priority event bus, a sequential hook pipeline, and a plugin lifecycle
// manager with manifest discovery, health monitoring, and hot-reloadable
// runtime configuration.
//
// Key Features:
//   - Typed capability registry for analyzers, extractors, evaluators, and
//     intelligence enhancers with extension-based file routing
//   - Priority event bus with synchronous and asynchronous dispatch, handler
//     isolation, and a bounded event history
//   - Hook pipeline threading mutable data through prioritized callbacks at
//     named document pipeline stages
//   - Plugin lifecycle manager: register, enable, disable, unregister, and
//     reverse-order shutdown with leftover binding cleanup
//   - Manifest discovery (JSON/YAML) routed through a compile-time factory
//     registry, plus fsnotify hot discovery of dropped manifests
//   - Background health monitoring with consecutive-failure tracking
//   - Hot-reloadable runtime configuration with an Argus audit trail
//   - Pluggable structured logging and in-memory metrics
//
// Basic Usage:
//
//	// Create a plugin manager
//	manager := argoplugins.NewManager(logger)
//
//	// Register the factories manifests may name
//	if err := manager.RegisterFactory(ocr.Factory()); err != nil {
//		log.Fatal(err)
//	}
//
//	// Load plugins from manifest files
//	loaded, err := manager.LoadFromDirectory(ctx, "/etc/argo/plugins.d")
//	if err != nil {
//		log.Fatal(err)
//	}
//	log.Printf("loaded %d plugins", loaded)
//
//	// Thread a document through a pipeline stage
//	data := map[string]any{"filename": "report.pdf"}
//	data = manager.Hooks().Execute(ctx, argoplugins.HookPreDocumentUpload, data, nil)
//
//	// Route a file to the analyzer registered for its extension
//	analyzer, err := manager.AnalyzerFor("report.pdf")
//
// Isolation:
// Every dispatch boundary catches handler and callback errors, logs them, and
// keeps going: one failing plugin never breaks another plugin's delivery, a
// malformed manifest never aborts a directory load, and a panicking health
// check is recorded as unhealthy rather than taking down the probe.
//
// Concurrency:
// All components are safe for concurrent use. Handlers for one synchronous
// publish run in descending priority order with stable registration-order
// ties; hook callbacks run strictly sequentially so each sees its
// predecessor's data.
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package argoplugins
