// Package app holds the canonical value store, the sync session handler
// and the queue that serializes work on each side of a sync link.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/confsync/core/events"
	"github.com/artpar/confsync/core/schema"
	"github.com/artpar/confsync/domain/value"
)

// UnknownFieldError reports a write to a name the schema does not hold.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Name)
}

// Store holds the current value of every schema field. Reads may run
// concurrently; writes are expected to come from the session queue.
type Store struct {
	schema *schema.Schema
	bus    *events.Bus
	logger zerolog.Logger

	mu     sync.RWMutex
	values value.Map
}

// NewStore creates a store seeded with the schema defaults. bus may be nil.
func NewStore(s *schema.Schema, bus *events.Bus, logger zerolog.Logger) *Store {
	st := &Store{
		schema: s,
		bus:    bus,
		logger: logger,
		values: s.Defaults(true),
	}
	logger.Debug().Int("fields", s.Len()).Msg("value store seeded from defaults")
	return st
}

// Schema returns the schema the store was built from.
func (s *Store) Schema() *schema.Schema {
	return s.schema
}

// Get returns the current value of name.
func (s *Store) Get(name string) (value.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[name]
	if !ok {
		return value.Value{}, &UnknownFieldError{Name: name}
	}
	return v, nil
}

// Set coerces v to the field's kind, checks its range and stores it. On
// error the store is unchanged and the error is an *UnknownFieldError,
// *value.FormatConversionError or *field.RangeViolationError.
func (s *Store) Set(ctx context.Context, name string, v value.Value) error {
	d, ok := s.schema.Lookup(name)
	if !ok {
		return &UnknownFieldError{Name: name}
	}

	coerced, err := d.Validate(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.values[name]
	s.values[name] = coerced
	s.mu.Unlock()

	if s.bus != nil && !old.Equal(coerced) {
		s.bus.Publish(ctx, events.Event{
			Name:   events.FieldChanged,
			Field:  name,
			Module: d.Module,
			Actor:  ActorFrom(ctx),
			Old:    old,
			New:    coerced,
		})
	}
	return nil
}

// Snapshot returns a deep copy of the current values. Non-syncable fields
// are included only when includeNonSyncable is set.
func (s *Store) Snapshot(includeNonSyncable bool) value.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(value.Map, len(s.values))
	for _, d := range s.schema.Fields() {
		if !d.Syncable && !includeNonSyncable {
			continue
		}
		out[d.Name] = s.values[d.Name]
	}
	return out
}

// Defaults returns the declared defaults, filtered like Snapshot.
func (s *Store) Defaults(includeNonSyncable bool) value.Map {
	return s.schema.Defaults(includeNonSyncable)
}

type actorKey struct{}

// WithActor tags ctx with the actor responsible for writes made under it.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor set by WithActor, or "".
func ActorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
