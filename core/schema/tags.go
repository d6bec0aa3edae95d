package schema

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// FromStruct builds a module declaration from the `cfg`, `range` and
// `comment` tags of a struct. ptr must be a pointer to a struct (or a
// struct value); its current field values become the defaults.
//
//	cfg:"name[,nosync][,noload]"  field key; empty name uses the Go field name in lowerCamel
//	range:"min,max"               numeric bounds
//	comment:"text"                editor description
//
// Exported fields without a cfg tag are ignored.
func FromStruct(module string, ptr any) (Module, error) {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Module{}, fmt.Errorf("module %q: nil struct pointer", module)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Module{}, fmt.Errorf("module %q: expected struct, got %s", module, rv.Kind())
	}

	mod := Module{Name: module}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag, ok := sf.Tag.Lookup("cfg")
		if !ok || !sf.IsExported() || tag == "-" {
			continue
		}

		name, flags := parseCfgTag(tag)
		if name == "" {
			name = lowerFirst(sf.Name)
		}

		typ, ok := goKindType(sf.Type.Kind())
		if !ok {
			return Module{}, fmt.Errorf("module %q: field %s has unsupported type %s", module, sf.Name, sf.Type)
		}

		def := FieldDef{
			Name:    name,
			Type:    typ,
			Default: plainValue(rv.Field(i)),
			Comment: sf.Tag.Get("comment"),
			NoSync:  flags["nosync"],
			NoLoad:  flags["noload"],
		}

		if r, ok := sf.Tag.Lookup("range"); ok {
			lo, hi, found := strings.Cut(r, ",")
			if !found {
				return Module{}, fmt.Errorf("module %q: field %s: range tag must be \"min,max\"", module, sf.Name)
			}
			def.Range = &RangeDef{Min: strings.TrimSpace(lo), Max: strings.TrimSpace(hi)}
		}

		mod.Fields = append(mod.Fields, def)
	}

	return mod, nil
}

func parseCfgTag(tag string) (string, map[string]bool) {
	parts := strings.Split(tag, ",")
	flags := make(map[string]bool, len(parts)-1)
	for _, p := range parts[1:] {
		flags[strings.TrimSpace(p)] = true
	}
	return strings.TrimSpace(parts[0]), flags
}

// goKindType maps Go kinds to declared type names. Plain int is platform
// sized and maps to int64.
func goKindType(k reflect.Kind) (string, bool) {
	switch k {
	case reflect.Bool:
		return "bool", true
	case reflect.Int32:
		return "int32", true
	case reflect.Int64, reflect.Int:
		return "int64", true
	case reflect.Float32:
		return "float32", true
	case reflect.Float64:
		return "float64", true
	case reflect.String:
		return "string", true
	default:
		return "", false
	}
}

// plainValue strips named types so defaults lift cleanly into value.Value.
func plainValue(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int32:
		return int32(v.Int())
	case reflect.Int64, reflect.Int:
		return v.Int()
	case reflect.Float32:
		return float32(v.Float())
	case reflect.Float64:
		return v.Float()
	default:
		return v.String()
	}
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
