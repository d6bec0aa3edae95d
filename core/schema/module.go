package schema

// Module is a named group of field declarations.
type Module struct {
	// Name is the module name (e.g., "motion", "audio").
	Name string `yaml:"module"`

	// Description for documentation.
	Description string `yaml:"description,omitempty"`

	// Fields in declaration order.
	Fields []FieldDef `yaml:"fields"`
}

// Builder assembles a Module in Go code.
type Builder struct {
	mod Module
}

// NewModule starts a module declaration.
func NewModule(name string) *Builder {
	return &Builder{mod: Module{Name: name}}
}

// Describe sets the module description.
func (b *Builder) Describe(text string) *Builder {
	b.mod.Description = text
	return b
}

// Bool declares a bool field.
func (b *Builder) Bool(name string, def bool, opts ...FieldOption) *Builder {
	return b.add(name, "bool", def, opts)
}

// Int32 declares an int32 field.
func (b *Builder) Int32(name string, def int32, opts ...FieldOption) *Builder {
	return b.add(name, "int32", def, opts)
}

// Int64 declares an int64 field.
func (b *Builder) Int64(name string, def int64, opts ...FieldOption) *Builder {
	return b.add(name, "int64", def, opts)
}

// Float32 declares a float32 field.
func (b *Builder) Float32(name string, def float32, opts ...FieldOption) *Builder {
	return b.add(name, "float32", def, opts)
}

// Float64 declares a float64 field.
func (b *Builder) Float64(name string, def float64, opts ...FieldOption) *Builder {
	return b.add(name, "float64", def, opts)
}

// String declares a string field.
func (b *Builder) String(name, def string, opts ...FieldOption) *Builder {
	return b.add(name, "string", def, opts)
}

// Field appends a raw declaration.
func (b *Builder) Field(def FieldDef) *Builder {
	b.mod.Fields = append(b.mod.Fields, def)
	return b
}

// Module returns the assembled declaration.
func (b *Builder) Module() Module {
	mod := b.mod
	mod.Fields = append([]FieldDef(nil), b.mod.Fields...)
	return mod
}

func (b *Builder) add(name, typ string, def any, opts []FieldOption) *Builder {
	f := FieldDef{Name: name, Type: typ, Default: def}
	for _, opt := range opts {
		opt(&f)
	}
	b.mod.Fields = append(b.mod.Fields, f)
	return b
}
