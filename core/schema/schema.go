package schema

import (
	"fmt"

	"github.com/artpar/confsync/domain/field"
	"github.com/artpar/confsync/domain/value"
)

// Schema is the frozen, ordered set of field descriptors produced by
// registry.Build. It is safe for concurrent use because it never changes.
type Schema struct {
	fields  []field.Descriptor
	index   map[string]int
	modules []string
}

// New indexes descriptors in the given order. Names must be unique.
func New(fields []field.Descriptor) (*Schema, error) {
	s := &Schema{
		fields: make([]field.Descriptor, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)

	seen := make(map[string]bool)
	for i, f := range s.fields {
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		s.index[f.Name] = i
		if !seen[f.Module] {
			seen[f.Module] = true
			s.modules = append(s.modules, f.Module)
		}
	}
	return s, nil
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns a copy of the descriptors in schema order.
func (s *Schema) Fields() []field.Descriptor {
	out := make([]field.Descriptor, len(s.fields))
	copy(out, s.fields)
	return out
}

// Lookup returns the descriptor for name.
func (s *Schema) Lookup(name string) (field.Descriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return field.Descriptor{}, false
	}
	return s.fields[i], true
}

// Names returns field names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Modules returns module names in schema order.
func (s *Schema) Modules() []string {
	return append([]string(nil), s.modules...)
}

// Defaults returns the declared default of every field. Non-syncable
// fields are included only when includeNonSyncable is set.
func (s *Schema) Defaults(includeNonSyncable bool) value.Map {
	out := make(value.Map, len(s.fields))
	for _, f := range s.fields {
		if !f.Syncable && !includeNonSyncable {
			continue
		}
		out[f.Name] = f.Default
	}
	return out
}
