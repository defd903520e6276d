// events.go: Priority-ordered publish/subscribe event bus with bounded history
//
// The EventBus is one of the three leaf components plugins bind against. It
// dispatches named events to priority-ordered handler lists, records every
// published event into a bounded FIFO history ring, and isolates every
// handler failure at the dispatch boundary: a handler error or panic is
// caught and logged, never propagated to the publisher, never allowed to
// block sibling handlers.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package argoplugins

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
	"github.com/google/uuid"
)

// EventPriority determines handler invocation order within one publish:
// higher tiers run first, ties break by registration order.
type EventPriority int

const (
	PriorityLow      EventPriority = 1
	PriorityNormal   EventPriority = 2
	PriorityHigh     EventPriority = 3
	PriorityCritical EventPriority = 4
)

// String returns a human-readable representation of the priority tier.
func (p EventPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Well-known event names emitted by the runtime itself. Plugins and hosts
// publish their own names freely; dotted lowercase is the convention.
const (
	EventPluginLoaded    = "plugin.loaded"
	EventPluginEnabled   = "plugin.enabled"
	EventPluginDisabled  = "plugin.disabled"
	EventPluginShutdown  = "plugin.shutdown"
	EventPluginUnhealthy = "plugin.unhealthy"
)

// Event is the immutable value delivered to handlers and recorded in history.
//
// The bus never copies Payload: handlers observing a shared mutable payload
// see each other's mutations. Sharing-and-mutation semantics are the
// publisher's responsibility and should be documented per event name.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source,omitempty"`
	Priority  EventPriority  `json:"priority"`
}

// EventHandler is the callback signature for event subscriptions.
//
// A returned error is caught at the dispatch boundary and logged with the
// handler's name; it never reaches the publisher.
type EventHandler func(ctx context.Context, event Event) error

// handlerBinding is one (name, handler, priority) subscription entry.
type handlerBinding struct {
	name     string
	handler  EventHandler
	priority EventPriority
}

// PublishOption customizes a published event.
type PublishOption func(*Event)

// WithSource stamps the event with a source identifier.
func WithSource(source string) PublishOption {
	return func(e *Event) { e.Source = source }
}

// WithEventPriority sets the event's own priority tier (informational
// metadata on the event; handler ordering uses subscription priorities).
func WithEventPriority(p EventPriority) PublishOption {
	return func(e *Event) { e.Priority = p }
}

// DefaultHistoryCapacity is the bounded history size unless overridden.
const DefaultHistoryCapacity = 100

// DefaultHistoryLimit is how many events History returns when the caller
// passes a non-positive limit.
const DefaultHistoryLimit = 10

// EventBusOption configures an EventBus at construction.
type EventBusOption func(*EventBus)

// WithHistoryCapacity overrides the bounded history size.
func WithHistoryCapacity(capacity int) EventBusOption {
	return func(b *EventBus) {
		if capacity > 0 {
			b.capacity = capacity
		}
	}
}

// WithBusMetrics attaches a metrics collector to the bus.
func WithBusMetrics(m MetricsCollector) EventBusOption {
	return func(b *EventBus) {
		if m != nil {
			b.metrics = m
		}
	}
}

// EventBus dispatches named events to priority-ordered handlers.
//
// Ordering guarantee: for a single PublishSync or PublishAsync call, handlers
// run in strictly descending priority order with registration order as the
// tiebreak. Concurrent publishes of different events are independent and may
// interleave. Duplicate subscriptions are honored: subscribing the same
// handler name twice yields two invocations per event.
//
// The bus provides no timeouts: a hung handler blocks its own publish (sync)
// or its own goroutine (async). Callers needing deadlines wrap their handlers.
//
// Example:
//
//	bus := NewEventBus(logger)
//	err := bus.SubscribeWithPriority("document.uploaded", "audit.trail",
//	    func(ctx context.Context, e Event) error {
//	        return audit.Record(ctx, e.Payload)
//	    }, PriorityCritical)
//	_ = bus.PublishSync(ctx, "document.uploaded",
//	    map[string]any{"path": "/tmp/report.pdf"}, WithSource("ingest"))
type EventBus struct {
	mu       sync.RWMutex
	logger   Logger
	metrics  MetricsCollector
	handlers map[string][]handlerBinding

	// bounded history ring
	capacity int
	history  []Event
	head     int
	count    int

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewEventBus creates an event bus with the default history capacity.
//
// The logger may be a Logger implementation, *logrus.Logger, or nil for
// silent operation.
func NewEventBus(logger any, opts ...EventBusOption) *EventBus {
	b := &EventBus{
		logger:   NewLogger(logger).With("component", "event-bus"),
		metrics:  NewInMemoryMetrics(),
		handlers: make(map[string][]handlerBinding),
		capacity: DefaultHistoryCapacity,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.history = make([]Event, b.capacity)
	return b
}

// Subscribe binds a handler at normal priority.
//
// handlerName identifies the binding in error logs and in Unsubscribe; it
// does not need to be globally unique — duplicate subscriptions under the
// same name are honored and invoked once each.
func (b *EventBus) Subscribe(eventName, handlerName string, h EventHandler) error {
	return b.SubscribeWithPriority(eventName, handlerName, h, PriorityNormal)
}

// SubscribeWithPriority binds a handler at an explicit priority tier.
//
// The binding list for the event is re-sorted after every mutation so the
// ordering invariant (descending priority, stable within a tier) holds for
// the next publish.
func (b *EventBus) SubscribeWithPriority(eventName, handlerName string, h EventHandler, priority EventPriority) error {
	if eventName == "" {
		return NewEmptyEventNameError()
	}
	if handlerName == "" {
		return NewEmptyHandlerNameError(eventName)
	}
	if h == nil {
		return NewNilEventHandlerError(eventName, handlerName)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bindings := append(b.handlers[eventName], handlerBinding{
		name:     handlerName,
		handler:  h,
		priority: priority,
	})
	sort.SliceStable(bindings, func(i, j int) bool {
		return bindings[i].priority > bindings[j].priority
	})
	b.handlers[eventName] = bindings

	b.logger.Debug("Handler subscribed",
		"event", eventName, "handler", handlerName, "priority", priority.String())
	return nil
}

// Unsubscribe removes every binding registered under handlerName for the
// event. It is a no-op when no such binding exists.
func (b *EventBus) Unsubscribe(eventName, handlerName string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bindings := b.handlers[eventName]
	kept := bindings[:0]
	removed := 0
	for _, binding := range bindings {
		if binding.name == handlerName {
			removed++
			continue
		}
		kept = append(kept, binding)
	}

	if removed == 0 {
		return
	}
	if len(kept) == 0 {
		delete(b.handlers, eventName)
	} else {
		b.handlers[eventName] = kept
	}
	b.logger.Debug("Handler unsubscribed",
		"event", eventName, "handler", handlerName, "removed", removed)
}

// PublishSync records the event into history and invokes every bound handler
// inline, in descending-priority order, each in isolation.
//
// The call returns only bus-level errors (empty event name, closed bus).
// Handler errors and panics are caught at the dispatch boundary, logged with
// the handler's name and the event name, and never propagate.
func (b *EventBus) PublishSync(ctx context.Context, eventName string, payload map[string]any, opts ...PublishOption) error {
	event, bindings, err := b.prepare(eventName, payload, opts)
	if err != nil {
		return err
	}

	for _, binding := range bindings {
		b.invoke(ctx, binding, event)
	}
	b.metrics.IncrementCounter("events_published_total", map[string]string{"mode": "sync"})
	return nil
}

// PublishAsync records the event into history and invokes every bound
// handler in its own goroutine, waiting for all of them to finish before
// returning. Individual handler errors and panics are swallowed (caught and
// logged) and never fail the aggregate.
//
// Note that per-handler ordering is by goroutine launch only: handlers start
// in descending-priority order but run concurrently.
func (b *EventBus) PublishAsync(ctx context.Context, eventName string, payload map[string]any, opts ...PublishOption) error {
	event, bindings, err := b.prepare(eventName, payload, opts)
	if err != nil {
		return err
	}

	var done sync.WaitGroup
	for _, binding := range bindings {
		done.Add(1)
		b.wg.Add(1)
		go func(binding handlerBinding) {
			defer done.Done()
			defer b.wg.Done()
			b.invoke(ctx, binding, event)
		}(binding)
	}
	done.Wait()

	b.metrics.IncrementCounter("events_published_total", map[string]string{"mode": "async"})
	return nil
}

// Publish is the fire-and-forget convenience entry point layered over the
// two explicit primitives.
//
// The event is recorded into history before Publish returns, so History
// immediately reflects it; handler dispatch happens concurrently on detached
// goroutines with the same isolation guarantees as PublishAsync. Close waits
// for any dispatch still in flight.
func (b *EventBus) Publish(ctx context.Context, eventName string, payload map[string]any, opts ...PublishOption) error {
	event, bindings, err := b.prepare(eventName, payload, opts)
	if err != nil {
		return err
	}

	for _, binding := range bindings {
		b.wg.Add(1)
		go func(binding handlerBinding) {
			defer b.wg.Done()
			b.invoke(ctx, binding, event)
		}(binding)
	}

	b.metrics.IncrementCounter("events_published_total", map[string]string{"mode": "auto"})
	return nil
}

// prepare validates, builds the event, records it into history, and snapshots
// the binding list. Dispatch happens outside the lock so handlers can freely
// subscribe/unsubscribe while a publish is running.
func (b *EventBus) prepare(eventName string, payload map[string]any, opts []PublishOption) (Event, []handlerBinding, error) {
	if eventName == "" {
		return Event{}, nil, NewEmptyEventNameError()
	}
	if b.closed.Load() {
		return Event{}, nil, NewEventBusClosedError()
	}

	event := Event{
		ID:        uuid.NewString(),
		Name:      eventName,
		Payload:   payload,
		Timestamp: timecache.CachedTime(),
		Priority:  PriorityNormal,
	}
	for _, opt := range opts {
		opt(&event)
	}

	b.mu.Lock()
	b.record(event)
	bindings := make([]handlerBinding, len(b.handlers[eventName]))
	copy(bindings, b.handlers[eventName])
	b.mu.Unlock()

	return event, bindings, nil
}

// record appends the event to the ring, evicting the oldest at capacity.
// Caller holds b.mu.
func (b *EventBus) record(event Event) {
	if b.count < b.capacity {
		b.history[(b.head+b.count)%b.capacity] = event
		b.count++
		return
	}
	b.history[b.head] = event
	b.head = (b.head + 1) % b.capacity
}

// invoke runs one handler with full dispatch-boundary isolation.
func (b *EventBus) invoke(ctx context.Context, binding handlerBinding, event Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("Event handler panicked",
				"event", event.Name, "handler", binding.name, "panic", rec)
			b.metrics.IncrementCounter("event_handler_failures_total",
				map[string]string{"event": event.Name})
		}
	}()

	if err := binding.handler(ctx, event); err != nil {
		b.logger.Error("Event handler failed",
			"event", event.Name, "handler", binding.name, "error", err)
		b.metrics.IncrementCounter("event_handler_failures_total",
			map[string]string{"event": event.Name})
	}
}

// History returns up to limit most recent recorded events, most-recent-last,
// optionally filtered by event name (empty name matches all). A non-positive
// limit uses DefaultHistoryLimit.
func (b *EventBus) History(eventName string, limit int) []Event {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	matched := make([]Event, 0, b.count)
	for i := 0; i < b.count; i++ {
		event := b.history[(b.head+i)%b.capacity]
		if eventName == "" || event.Name == eventName {
			matched = append(matched, event)
		}
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

// SubscriberCount returns the number of live bindings for the event.
func (b *EventBus) SubscriberCount(eventName string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventName])
}

// HistorySize returns how many events the ring currently holds.
func (b *EventBus) HistorySize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Close drains in-flight asynchronous dispatch and rejects further
// publishes. Close is idempotent; subscriptions made after Close are
// accepted but will never fire.
func (b *EventBus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.wg.Wait()
	b.logger.Debug("Event bus closed")
}
