// Package registry collects module declarations and builds the frozen
// configuration schema from them. It detects conflicting field names,
// rejects unsupported types and malformed ranges, and orders the result
// deterministically so repeated discovery yields an identical layout.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/confsync/core/schema"
	"github.com/artpar/confsync/domain/field"
	"github.com/artpar/confsync/domain/value"
)

// Registry accumulates module declarations before a schema is built.
type Registry struct {
	mu sync.RWMutex

	// modules by name
	modules map[string]schema.Module

	// field name to owning module, for conflict detection
	owners map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		modules: make(map[string]schema.Module),
		owners:  make(map[string]string),
	}
}

// Register adds a module declaration. It fails with a *SchemaBuildError
// if the module name is taken or any loadable field name is already
// claimed by another module. Nothing is registered on failure.
func (r *Registry) Register(mod schema.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := schema.Validate(mod); err != nil {
		return &SchemaBuildError{Module: mod.Name, Reason: "invalid declaration", Err: err}
	}

	if _, exists := r.modules[mod.Name]; exists {
		return &SchemaBuildError{Module: mod.Name, Reason: "module already registered"}
	}

	local := make(map[string]bool, len(mod.Fields))
	for _, f := range mod.Fields {
		if f.NoLoad {
			continue
		}
		if local[f.Name] {
			return &SchemaBuildError{Module: mod.Name, Field: f.Name, Reason: "field declared twice in module"}
		}
		if owner, exists := r.owners[f.Name]; exists {
			return &SchemaBuildError{Module: mod.Name, Field: f.Name, Reason: fmt.Sprintf("field name already claimed by module %q", owner)}
		}
		local[f.Name] = true
	}

	r.modules[mod.Name] = mod
	for name := range local {
		r.owners[name] = mod.Name
	}
	return nil
}

// Get returns a registered declaration by name.
func (r *Registry) Get(name string) (schema.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mod, ok := r.modules[name]
	return mod, ok
}

// List returns all registered declarations sorted by module name.
func (r *Registry) List() []schema.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules := make([]schema.Module, 0, len(r.modules))
	for _, mod := range r.modules {
		modules = append(modules, mod)
	}

	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Name < modules[j].Name
	})

	return modules
}

// Schema resolves every registered declaration into descriptors and
// returns the frozen schema. Modules sort by name and fields by name
// within a module. Fields flagged no_load are skipped.
func (r *Registry) Schema() (*schema.Schema, error) {
	var descriptors []field.Descriptor

	for _, mod := range r.List() {
		fields := make([]schema.FieldDef, 0, len(mod.Fields))
		for _, f := range mod.Fields {
			if !f.NoLoad {
				fields = append(fields, f)
			}
		}
		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Name < fields[j].Name
		})

		for _, f := range fields {
			d, err := resolve(mod.Name, f)
			if err != nil {
				return nil, err
			}
			descriptors = append(descriptors, d)
		}
	}

	s, err := schema.New(descriptors)
	if err != nil {
		return nil, &SchemaBuildError{Reason: "index schema", Err: err}
	}
	return s, nil
}

// resolve turns a declaration into a descriptor. This is a PURE function.
func resolve(module string, f schema.FieldDef) (field.Descriptor, error) {
	kind, ok := value.ParseKind(f.Type)
	if !ok {
		return field.Descriptor{}, &SchemaBuildError{Module: module, Field: f.Name, Reason: fmt.Sprintf("unsupported type %q", f.Type)}
	}

	def := zeroValue(kind)
	if f.Default != nil {
		v, err := value.CoerceAny(kind, f.Default)
		if err != nil {
			return field.Descriptor{}, &SchemaBuildError{Module: module, Field: f.Name, Reason: "invalid default", Err: err}
		}
		def = v
	}

	d := field.Descriptor{
		Name:        f.Name,
		Module:      module,
		Kind:        kind,
		Syncable:    !f.NoSync,
		Loadable:    true,
		DisplayName: f.DisplayName,
		Comment:     f.Comment,
		Default:     def,
	}
	if d.DisplayName == "" {
		d.DisplayName = field.DisplayName(f.Name)
	}

	if f.Range != nil {
		rng, err := field.ParseRange(kind, f.Range.Min, f.Range.Max)
		if err != nil {
			return field.Descriptor{}, &SchemaBuildError{Module: module, Field: f.Name, Reason: "invalid range", Err: err}
		}
		if err := rng.Check(f.Name, def); err != nil {
			return field.Descriptor{}, &SchemaBuildError{Module: module, Field: f.Name, Reason: "default outside range", Err: err}
		}
		d.Range = rng
	}

	return d, nil
}

func zeroValue(k value.Kind) value.Value {
	switch k {
	case value.KindBool:
		return value.Bool(false)
	case value.KindInt32:
		return value.Int32(0)
	case value.KindInt64:
		return value.Int64(0)
	case value.KindFloat32:
		return value.Float32(0)
	case value.KindFloat64:
		return value.Float64(0)
	default:
		return value.String("")
	}
}

// Build registers every module the provider returns and builds the schema.
// Any failure is a *SchemaBuildError and aborts the whole build.
func Build(ctx context.Context, p Provider) (*schema.Schema, error) {
	mods, err := p.Modules(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover modules: %w", err)
	}

	r := New()
	for _, mod := range mods {
		if err := r.Register(mod); err != nil {
			return nil, err
		}
	}
	return r.Schema()
}

// SchemaBuildError reports a declaration that cannot enter the schema.
// It is fatal at startup.
type SchemaBuildError struct {
	Module string
	Field  string
	Reason string
	Err    error
}

// Error returns the build error message.
func (e *SchemaBuildError) Error() string {
	msg := "schema build"
	if e.Module != "" {
		msg += fmt.Sprintf(": module %q", e.Module)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %q", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *SchemaBuildError) Unwrap() error {
	return e.Err
}
