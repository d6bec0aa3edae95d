/*
Package schema defines the declarations configuration modules are made of,
and the frozen Schema built from them.

A module is a named group of configuration fields. Modules are declared
explicitly, never discovered by reflection over live program state, and
come from one of three sources:

# YAML

	module: motion
	description: Movement tuning

	fields:
	  - name: maxSpeed
	    type: int32
	    default: 50
	    range: { min: 0, max: 100 }
	    comment: Upper bound for walking speed
	  - name: debugOverlay
	    type: bool
	    default: false
	    no_sync: true

# Go builder

	mod := schema.NewModule("motion").
		Int32("maxSpeed", 50, schema.WithRange("0", "100")).
		Bool("debugOverlay", false, schema.NoSync()).
		Module()

# Struct tags

	type Motion struct {
		MaxSpeed     int32 `cfg:"maxSpeed" range:"0,100"`
		DebugOverlay bool  `cfg:"debugOverlay,nosync"`
	}

	mod, err := schema.FromStruct("motion", &Motion{MaxSpeed: 50})

Tags are read once, at start; the struct's current values become the
field defaults.

# Field Types

  - bool
  - int32   (alias: int)
  - int64   (alias: long)
  - float32 (alias: float)
  - float64 (alias: double)
  - string

Only numeric fields may carry a range. Bounds are written as strings and
parsed into the field's type when the schema is built.

# Flags

  - no_sync: the field stays local and is never sent to a remote peer.
  - no_load: the field is skipped entirely and never reaches the schema.

A Module is only a declaration. registry.Build validates every declaration
together (unique names, known types, well-formed ranges) and produces the
read-only Schema.
*/
package schema
