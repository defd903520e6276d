// registry.go: Typed capability registry for plugin-provided implementations
//
// The CapabilityRegistry maps plugin-declared names to implementations of the
// four capability interfaces. It is a pure lookup structure: registration-time
// uniqueness checks, format-aware dispatch for the file-handling kinds, and
// nothing else. All methods are safe for concurrent use because registration
// interleaves with live dispatch while plugins load.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"path/filepath"
	"strings"
	"sync"
)

// analyzerRecord pairs an analyzer with its normalized format set so file
// dispatch never re-normalizes on the hot path.
type analyzerRecord struct {
	analyzer Analyzer
	formats  map[string]struct{}
}

// extractorRecord pairs an extractor with its normalized format set.
type extractorRecord struct {
	extractor Extractor
	formats   map[string]struct{}
}

// CapabilityRegistry holds the per-kind name→implementation tables.
//
// Uniqueness rules:
//   - Analyzer: last registration wins; replacing an existing name logs a
//     warning and keeps the original registration-order slot
//   - Extractor, Evaluator, IntelligenceEnhancer: first registration wins;
//     duplicates are soft-rejected with a warning and a coded error
//
// Names are unique within a kind but may collide across kinds. Lookup by
// file format walks records in registration order and matches the file
// extension case-insensitively.
type CapabilityRegistry struct {
	mu     sync.RWMutex
	logger Logger

	analyzers   []*analyzerRecord
	analyzerIdx map[string]int

	extractors   []*extractorRecord
	extractorIdx map[string]int

	evaluators   []Evaluator
	evaluatorIdx map[string]int

	enhancers   []IntelligenceEnhancer
	enhancerIdx map[string]int
}

// NewCapabilityRegistry creates an empty registry.
//
// The logger may be a Logger implementation, *logrus.Logger, or nil for
// silent operation (same contract as NewLogger).
func NewCapabilityRegistry(logger any) *CapabilityRegistry {
	return &CapabilityRegistry{
		logger:       NewLogger(logger).With("component", "capability-registry"),
		analyzerIdx:  make(map[string]int),
		extractorIdx: make(map[string]int),
		evaluatorIdx: make(map[string]int),
		enhancerIdx:  make(map[string]int),
	}
}

// RegisterAnalyzer registers an analyzer under its name.
//
// Analyzer registration is last-wins: a duplicate name replaces the previous
// implementation with a warning, keeping its original position in
// registration order. Analyzers are commonly hot-swapped during tuning, so
// replacement is intentional behavior rather than an error.
func (r *CapabilityRegistry) RegisterAnalyzer(a Analyzer) error {
	if a == nil {
		return NewNilCapabilityError(CapabilityAnalyzer)
	}
	name := a.Name()
	if name == "" {
		return NewEmptyCapabilityNameError(CapabilityAnalyzer)
	}

	record := &analyzerRecord{
		analyzer: a,
		formats:  normalizeFormats(a.SupportedFormats()),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, exists := r.analyzerIdx[name]; exists {
		r.analyzers[idx] = record
		r.logger.Warn("Analyzer replaced",
			"name", name,
			"formats", a.SupportedFormats())
		return nil
	}

	r.analyzerIdx[name] = len(r.analyzers)
	r.analyzers = append(r.analyzers, record)
	r.logger.Debug("Analyzer registered", "name", name, "formats", a.SupportedFormats())
	return nil
}

// RegisterExtractor registers an extractor under its name.
// The first registration wins; duplicates are soft-rejected.
func (r *CapabilityRegistry) RegisterExtractor(e Extractor) error {
	if e == nil {
		return NewNilCapabilityError(CapabilityExtractor)
	}
	name := e.Name()
	if name == "" {
		return NewEmptyCapabilityNameError(CapabilityExtractor)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extractorIdx[name]; exists {
		r.logger.Warn("Extractor already registered, keeping first registration", "name", name)
		return NewDuplicateCapabilityError(CapabilityExtractor, name)
	}

	r.extractorIdx[name] = len(r.extractors)
	r.extractors = append(r.extractors, &extractorRecord{
		extractor: e,
		formats:   normalizeFormats(e.SupportedFormats()),
	})
	r.logger.Debug("Extractor registered", "name", name, "formats", e.SupportedFormats())
	return nil
}

// RegisterEvaluator registers an evaluator under its name.
// The first registration wins; duplicates are soft-rejected.
func (r *CapabilityRegistry) RegisterEvaluator(v Evaluator) error {
	if v == nil {
		return NewNilCapabilityError(CapabilityEvaluator)
	}
	name := v.Name()
	if name == "" {
		return NewEmptyCapabilityNameError(CapabilityEvaluator)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.evaluatorIdx[name]; exists {
		r.logger.Warn("Evaluator already registered, keeping first registration", "name", name)
		return NewDuplicateCapabilityError(CapabilityEvaluator, name)
	}

	r.evaluatorIdx[name] = len(r.evaluators)
	r.evaluators = append(r.evaluators, v)
	r.logger.Debug("Evaluator registered", "name", name, "metrics", v.Metrics())
	return nil
}

// RegisterIntelligence registers an intelligence enhancer under its name.
// The first registration wins; duplicates are soft-rejected.
func (r *CapabilityRegistry) RegisterIntelligence(ie IntelligenceEnhancer) error {
	if ie == nil {
		return NewNilCapabilityError(CapabilityIntelligence)
	}
	name := ie.Name()
	if name == "" {
		return NewEmptyCapabilityNameError(CapabilityIntelligence)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.enhancerIdx[name]; exists {
		r.logger.Warn("Intelligence enhancer already registered, keeping first registration", "name", name)
		return NewDuplicateCapabilityError(CapabilityIntelligence, name)
	}

	r.enhancerIdx[name] = len(r.enhancers)
	r.enhancers = append(r.enhancers, ie)
	r.logger.Debug("Intelligence enhancer registered", "name", name, "capability", ie.Capability())
	return nil
}

// AnalyzerForFile returns the first registered analyzer (in registration
// order) whose accepted-format set contains the file's extension, matched
// case-insensitively.
func (r *CapabilityRegistry) AnalyzerForFile(path string) (Analyzer, error) {
	ext := normalizeExt(filepath.Ext(path))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.analyzers {
		if _, ok := record.formats[ext]; ok {
			return record.analyzer, nil
		}
	}
	return nil, NewNoCapabilityForFileError(CapabilityAnalyzer, path)
}

// ExtractorForFile returns the first registered extractor accepting the
// file's extension, matched case-insensitively in registration order.
func (r *CapabilityRegistry) ExtractorForFile(path string) (Extractor, error) {
	ext := normalizeExt(filepath.Ext(path))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.extractors {
		if _, ok := record.formats[ext]; ok {
			return record.extractor, nil
		}
	}
	return nil, NewNoCapabilityForFileError(CapabilityExtractor, path)
}

// AnalyzerByName returns the analyzer registered under the exact name.
func (r *CapabilityRegistry) AnalyzerByName(name string) (Analyzer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if idx, ok := r.analyzerIdx[name]; ok {
		return r.analyzers[idx].analyzer, nil
	}
	return nil, NewCapabilityNotFoundError(CapabilityAnalyzer, name)
}

// ExtractorByName returns the extractor registered under the exact name.
func (r *CapabilityRegistry) ExtractorByName(name string) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if idx, ok := r.extractorIdx[name]; ok {
		return r.extractors[idx].extractor, nil
	}
	return nil, NewCapabilityNotFoundError(CapabilityExtractor, name)
}

// EvaluatorByName returns the evaluator registered under the exact name.
func (r *CapabilityRegistry) EvaluatorByName(name string) (Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if idx, ok := r.evaluatorIdx[name]; ok {
		return r.evaluators[idx], nil
	}
	return nil, NewCapabilityNotFoundError(CapabilityEvaluator, name)
}

// IntelligenceByName returns the enhancer registered under the exact name.
func (r *CapabilityRegistry) IntelligenceByName(name string) (IntelligenceEnhancer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if idx, ok := r.enhancerIdx[name]; ok {
		return r.enhancers[idx], nil
	}
	return nil, NewCapabilityNotFoundError(CapabilityIntelligence, name)
}

// IntelligenceByCapability returns the first registered enhancer (in
// registration order) declaring the given capability tag.
func (r *CapabilityRegistry) IntelligenceByCapability(capability string) (IntelligenceEnhancer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ie := range r.enhancers {
		if ie.Capability() == capability {
			return ie, nil
		}
	}
	return nil, NewCapabilityNotFoundError(CapabilityIntelligence, capability)
}

// Analyzers returns all registered analyzers in registration order.
func (r *CapabilityRegistry) Analyzers() []Analyzer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Analyzer, len(r.analyzers))
	for i, record := range r.analyzers {
		out[i] = record.analyzer
	}
	return out
}

// Extractors returns all registered extractors in registration order.
func (r *CapabilityRegistry) Extractors() []Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Extractor, len(r.extractors))
	for i, record := range r.extractors {
		out[i] = record.extractor
	}
	return out
}

// Evaluators returns all registered evaluators in registration order.
func (r *CapabilityRegistry) Evaluators() []Evaluator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Evaluator, len(r.evaluators))
	copy(out, r.evaluators)
	return out
}

// IntelligenceEnhancers returns all registered enhancers in registration order.
func (r *CapabilityRegistry) IntelligenceEnhancers() []IntelligenceEnhancer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]IntelligenceEnhancer, len(r.enhancers))
	copy(out, r.enhancers)
	return out
}

// Clear removes every registration. Intended for tests.
func (r *CapabilityRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.analyzers = nil
	r.analyzerIdx = make(map[string]int)
	r.extractors = nil
	r.extractorIdx = make(map[string]int)
	r.evaluators = nil
	r.evaluatorIdx = make(map[string]int)
	r.enhancers = nil
	r.enhancerIdx = make(map[string]int)
}

// normalizeFormats lowers and strips leading dots from declared extensions.
func normalizeFormats(formats []string) map[string]struct{} {
	set := make(map[string]struct{}, len(formats))
	for _, f := range formats {
		if n := normalizeExt(f); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// normalizeExt lower-cases an extension and strips the leading dot.
func normalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}
