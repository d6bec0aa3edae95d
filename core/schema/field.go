package schema

// FieldDef declares one configuration field of a module.
type FieldDef struct {
	// Name is the field key. It must be unique across all modules.
	Name string `yaml:"name"`

	// Type is the declared value type. See the package documentation.
	Type string `yaml:"type"`

	// Default is the initial value. Loosely typed; it is coerced to Type
	// when the schema is built.
	Default any `yaml:"default"`

	// Range bounds numeric fields. Bounds stay strings until build time.
	Range *RangeDef `yaml:"range,omitempty"`

	// DisplayName overrides the label derived from Name.
	DisplayName string `yaml:"display_name,omitempty"`

	// Comment is shown next to the field in editors.
	Comment string `yaml:"comment,omitempty"`

	// NoSync keeps the field local to the process that owns it.
	NoSync bool `yaml:"no_sync,omitempty"`

	// NoLoad drops the field from the schema.
	NoLoad bool `yaml:"no_load,omitempty"`
}

// RangeDef holds the string form of an inclusive numeric range.
type RangeDef struct {
	Min string `yaml:"min"`
	Max string `yaml:"max"`
}

// FieldOption customizes a FieldDef created by the Builder.
type FieldOption func(*FieldDef)

// WithRange bounds a numeric field to [min, max].
func WithRange(min, max string) FieldOption {
	return func(f *FieldDef) {
		f.Range = &RangeDef{Min: min, Max: max}
	}
}

// NoSync marks the field local-only.
func NoSync() FieldOption {
	return func(f *FieldDef) { f.NoSync = true }
}

// NoLoad marks the field as skipped.
func NoLoad() FieldOption {
	return func(f *FieldDef) { f.NoLoad = true }
}

// Comment attaches a description to the field.
func Comment(text string) FieldOption {
	return func(f *FieldDef) { f.Comment = text }
}

// DisplayName overrides the derived label.
func DisplayName(name string) FieldOption {
	return func(f *FieldDef) { f.DisplayName = name }
}
