// Package events provides a small publish/subscribe bus for store
// changes and sync activity. Names are dotted ("field.changed",
// "sync.denied") and subscriptions accept wildcards.
package events

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/confsync/domain/value"
)

// Event names published by the app layer.
const (
	FieldChanged  = "field.changed"
	FieldRejected = "field.rejected"
	SyncApplied   = "sync.applied"
	SyncDenied    = "sync.denied"
	ViewReplaced  = "view.replaced"
)

// Event represents a published event.
type Event struct {
	// Name is the event name (e.g., "field.changed").
	Name string

	// Field is the affected field, if any.
	Field string

	// Module owning Field.
	Module string

	// Actor that caused the event. Empty for local writes.
	Actor string

	// Old and New hold the value transition for field events.
	Old value.Value
	New value.Value

	// Err is set for rejections.
	Err error
}

// Handler is a function that processes an event.
type Handler func(ctx context.Context, event Event) error

// Bus is a simple publish/subscribe event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event.
// Supports wildcard subscriptions:
//   - "field.changed" - exact match
//   - "field.*" - all field events
//   - "*" - all events
func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Publish emits an event to all matching handlers.
// Handlers are called synchronously in registration order. Handler
// errors are logged and do not stop delivery.
func (b *Bus) Publish(ctx context.Context, event Event) {
	matched := b.match(event.Name)
	if len(matched) == 0 {
		return
	}

	b.logger.Debug().
		Str("event", event.Name).
		Str("field", event.Field).
		Msg("event emitted")

	for _, handler := range matched {
		if err := handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
		}
	}
}

// HasSubscribers checks if any handlers are registered for an event.
func (b *Bus) HasSubscribers(event string) bool {
	return len(b.match(event)) > 0
}

// match collects handlers under the read lock so handlers can subscribe
// without deadlocking.
func (b *Bus) match(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []Handler
	matched = append(matched, b.handlers[name]...)

	if prefix, _, ok := strings.Cut(name, "."); ok {
		matched = append(matched, b.handlers[prefix+".*"]...)
	}

	if name != "*" {
		matched = append(matched, b.handlers["*"]...)
	}
	return matched
}
