// Package value provides the typed value model for configuration fields.
// A Value is a tagged union over the six supported kinds; every boundary
// (store, wire, editor) switches on Kind exhaustively.
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which member of the union a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
)

// Kinds lists every valid kind in wire-tag order.
func Kinds() []Kind {
	return []Kind{KindBool, KindInt32, KindInt64, KindFloat32, KindFloat64, KindString}
}

// String returns the kind name used in module definitions.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(k))
	}
}

// IsNumeric reports whether the kind is one of the integer or float kinds.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k.IsFloat()
}

// IsFloat reports whether the kind is float32 or float64.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// IsInteger reports whether the kind is int32 or int64.
func (k Kind) IsInteger() bool {
	return k == KindInt32 || k == KindInt64
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k == KindInvalid || k > KindString {
		return nil, fmt.Errorf("invalid kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown kind %q", string(text))
	}
	*k = parsed
	return nil
}

// ParseKind parses a kind name. The JVM-style aliases (int, long, float,
// double, boolean) are accepted so existing module files keep working.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "bool", "boolean":
		return KindBool, true
	case "int32", "int":
		return KindInt32, true
	case "int64", "long":
		return KindInt64, true
	case "float32", "float":
		return KindFloat32, true
	case "float64", "double":
		return KindFloat64, true
	case "string":
		return KindString, true
	default:
		return KindInvalid, false
	}
}

// Value is an immutable typed value. The zero Value is invalid.
// Integers are held as int64 and floats as float64; narrower kinds are
// normalized on construction so equality is well defined.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Bool returns a bool value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int32 returns an int32 value.
func Int32(i int32) Value { return Value{kind: KindInt32, i: int64(i)} }

// Int64 returns an int64 value.
func Int64(i int64) Value { return Value{kind: KindInt64, i: i} }

// Float32 returns a float32 value.
func Float32(f float32) Value { return Value{kind: KindFloat32, f: float64(f)} }

// Float64 returns a float64 value.
func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds one of the six kinds.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsBool returns the bool payload (false for other kinds).
func (v Value) AsBool() bool { return v.kind == KindBool && v.b }

// AsInt32 returns the int32 payload (0 for other kinds).
func (v Value) AsInt32() int32 {
	if v.kind != KindInt32 {
		return 0
	}
	return int32(v.i)
}

// AsInt64 returns the int64 payload (0 for other kinds).
func (v Value) AsInt64() int64 {
	if v.kind != KindInt64 {
		return 0
	}
	return v.i
}

// AsFloat32 returns the float32 payload (0 for other kinds).
func (v Value) AsFloat32() float32 {
	if v.kind != KindFloat32 {
		return 0
	}
	return float32(v.f)
}

// AsFloat64 returns the float64 payload (0 for other kinds).
func (v Value) AsFloat64() float64 {
	if v.kind != KindFloat64 {
		return 0
	}
	return v.f
}

// AsString returns the string payload ("" for other kinds).
func (v Value) AsString() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// Interface returns v as a native Go value (bool, int32, int64, float32,
// float64 or string). It returns nil for an invalid value.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt32:
		return int32(v.i)
	case KindInt64:
		return v.i
	case KindFloat32:
		return float32(v.f)
	case KindFloat64:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

// Equal reports whether v and o have the same kind and payload.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String formats v using the same grammar Coerce accepts when parsing,
// so Coerce(k, String(v.String())) round-trips for every kind.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindFloat32:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return "<invalid>"
	}
}

// GoString implements fmt.GoStringer for readable test failures.
func (v Value) GoString() string {
	if v.kind == KindString {
		return fmt.Sprintf("%s(%q)", v.kind, v.s)
	}
	return fmt.Sprintf("%s(%s)", v.kind, v.String())
}

// numeric returns the payload as int64 and float64 for numeric kinds.
// IsNaN reports whether v is a float holding NaN.
func (v Value) IsNaN() bool {
	return v.kind.IsFloat() && math.IsNaN(v.f)
}

func (v Value) numeric() (int64, float64) {
	if v.kind.IsInteger() {
		return v.i, float64(v.i)
	}
	return int64(v.f), v.f
}

// Compare orders two numeric values. Integer pairs compare exactly; any
// pair involving a float compares as float64. ok is false if either side
// is not numeric or is NaN, which has no order.
func Compare(a, b Value) (cmp int, ok bool) {
	if !a.kind.IsNumeric() || !b.kind.IsNumeric() {
		return 0, false
	}
	if a.IsNaN() || b.IsNaN() {
		return 0, false
	}
	if a.kind.IsInteger() && b.kind.IsInteger() {
		switch {
		case a.i < b.i:
			return -1, true
		case a.i > b.i:
			return 1, true
		}
		return 0, true
	}
	_, af := a.numeric()
	_, bf := b.numeric()
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}
