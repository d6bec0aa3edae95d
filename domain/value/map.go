package value

import (
	"math"
	"sort"
)

// Map holds field values keyed by field name. It is used both for the
// canonical store contents and for sync payloads.
type Map map[string]Value

// Clone returns an independent copy of m.
func (m Map) Clone() Map {
	if m == nil {
		return Map{}
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the keys of m in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether m and o hold identical entries.
func (m Map) Equal(o Map) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Native converts m to plain Go values, for JSON and YAML output.
func (m Map) Native() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Interface()
	}
	return out
}

// numericEpsilon is the tolerance under which two floats count as unchanged.
const numericEpsilon = 0.0001

// Diff returns the entries of edited that differ from original. Floats of
// the same kind closer than 0.0001 are treated as unchanged, so a slider
// that round-trips through float64 does not produce spurious updates.
// Integers compare exactly. Keys missing from original and values whose
// kind changed are always reported.
func Diff(original, edited Map) Map {
	changed := Map{}
	for k, ev := range edited {
		ov, ok := original[k]
		if !ok || !sameValue(ov, ev) {
			changed[k] = ev
		}
	}
	return changed
}

// sameValue applies numericEpsilon only between two floats of the same
// kind. Integers compare exactly and a kind change always counts.
func sameValue(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	if a.IsNaN() || b.IsNaN() {
		return a.IsNaN() && b.IsNaN()
	}
	if a.kind.IsFloat() {
		return math.Abs(a.f-b.f) <= numericEpsilon
	}
	return a.Equal(b)
}
