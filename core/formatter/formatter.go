// Package formatter renders command output. A result is a named list of
// records with an ordered column set; formatters turn it into a table,
// JSON or YAML.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Result is a list of records to render.
type Result struct {
	// Kind names what the records are (e.g., "fields", "values").
	Kind string

	// Columns in display order. Records may hold keys outside it; those
	// are dropped.
	Columns []string

	Records []map[string]any
}

// Formatter converts a Result to a specific output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// Format writes res.
	Format(w io.Writer, res Result, opts FormatOptions) error

	// FormatError formats an error.
	FormatError(w io.Writer, err error) error
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// NoHeader disables the header row for tabular formats.
	NoHeader bool

	// Compact minimizes whitespace (for json).
	Compact bool

	// MaxWidth truncates long table cells (0 = no limit).
	MaxWidth int
}

// Registry manages registered formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	defaultFmt string
}

// NewRegistry creates a registry holding the table, json and yaml
// formatters, with table as the default.
func NewRegistry() *Registry {
	r := &Registry{
		formatters: make(map[string]Formatter),
		defaultFmt: "table",
	}
	for _, f := range []Formatter{TableFormatter{}, JSONFormatter{}, YAMLFormatter{}} {
		r.formatters[f.Name()] = f
	}
	return r
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}

	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[name]
	return f, ok
}

// Lookup returns the formatter for name, or the default when name is
// empty.
func (r *Registry) Lookup(name string) (Formatter, error) {
	if name == "" {
		r.mu.RLock()
		name = r.defaultFmt
		r.mu.RUnlock()
	}
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", name, r.List())
	}
	return f, nil
}

// List returns all registered formatter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// project keeps only the result's columns, in a fresh map per record.
func project(res Result) []map[string]any {
	out := make([]map[string]any, len(res.Records))
	for i, rec := range res.Records {
		if len(res.Columns) == 0 {
			out[i] = rec
			continue
		}
		m := make(map[string]any, len(res.Columns))
		for _, col := range res.Columns {
			if v, ok := rec[col]; ok {
				m[col] = v
			}
		}
		out[i] = m
	}
	return out
}
