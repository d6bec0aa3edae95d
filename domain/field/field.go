// Package field provides the immutable descriptor of a configuration field
// and its numeric range constraint.
package field

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/artpar/confsync/domain/value"
)

// Descriptor describes one named, typed configuration field (immutable value type).
type Descriptor struct {
	// Name is unique across every module in a schema.
	Name string `json:"name" yaml:"name"`

	// Module is the name of the module that declared the field.
	Module string `json:"module" yaml:"module"`

	Kind value.Kind `json:"kind" yaml:"kind"`

	// Range is nil for unbounded fields. Only numeric kinds carry a range.
	Range *Range `json:"range,omitempty" yaml:"range,omitempty"`

	// Syncable fields may be sent to a remote peer.
	Syncable bool `json:"syncable" yaml:"syncable"`

	// Loadable is false for fields declared "do not load". Such fields never
	// reach a built schema; the flag is kept for introspection.
	Loadable bool `json:"loadable" yaml:"loadable"`

	DisplayName string `json:"display_name" yaml:"display_name"`
	Comment     string `json:"comment,omitempty" yaml:"comment,omitempty"`

	// Default is the value captured at declaration, before any mutation.
	Default value.Value `json:"-" yaml:"-"`
}

// Validate coerces v to the descriptor's kind and checks its range.
// This is a PURE function.
func (d Descriptor) Validate(v value.Value) (value.Value, error) {
	coerced, err := value.Coerce(d.Kind, v)
	if err != nil {
		return value.Value{}, err
	}
	if d.Range != nil {
		if err := d.Range.Check(d.Name, coerced); err != nil {
			return value.Value{}, err
		}
	}
	return coerced, nil
}

// Range is an inclusive numeric interval [Min, Max] held in the field's kind.
type Range struct {
	Min value.Value
	Max value.Value
}

// ParseRange parses string bounds into the numeric kind k.
func ParseRange(k value.Kind, min, max string) (*Range, error) {
	if !k.IsNumeric() {
		return nil, fmt.Errorf("range not supported for %s fields", k)
	}

	lo, err := value.Coerce(k, value.String(strings.TrimSpace(min)))
	if err != nil {
		return nil, fmt.Errorf("range min: %w", err)
	}
	hi, err := value.Coerce(k, value.String(strings.TrimSpace(max)))
	if err != nil {
		return nil, fmt.Errorf("range max: %w", err)
	}

	if math.IsNaN(lo.AsFloat64()) || math.IsNaN(hi.AsFloat64()) ||
		math.IsNaN(float64(lo.AsFloat32())) || math.IsNaN(float64(hi.AsFloat32())) {
		return nil, fmt.Errorf("range bounds must be numbers")
	}
	if c, _ := value.Compare(lo, hi); c > 0 {
		return nil, fmt.Errorf("range min %s is greater than max %s", lo, hi)
	}
	return &Range{Min: lo, Max: hi}, nil
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v value.Value) bool {
	lo, ok := value.Compare(v, r.Min)
	if !ok || lo < 0 {
		return false
	}
	hi, ok := value.Compare(v, r.Max)
	return ok && hi <= 0
}

// Check returns a *RangeViolationError if v is outside the range.
func (r Range) Check(name string, v value.Value) error {
	if r.Contains(v) {
		return nil
	}
	return &RangeViolationError{Field: name, Value: v, Min: r.Min, Max: r.Max}
}

// String renders the range as "[min, max]".
func (r Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.Min, r.Max)
}

// MarshalJSON renders the bounds as native numbers.
func (r Range) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"min":%s,"max":%s}`, r.Min, r.Max)), nil
}

// RangeViolationError reports an assignment outside a field's range.
// Out-of-range values are rejected, never clamped.
type RangeViolationError struct {
	Field string
	Value value.Value
	Min   value.Value
	Max   value.Value
}

func (e *RangeViolationError) Error() string {
	return fmt.Sprintf("%s: value %s outside range [%s, %s]", e.Field, e.Value, e.Min, e.Max)
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// DisplayName derives a human label from a field key:
// "maxSpeed" becomes "Max Speed" and "auto_save" becomes "Auto Save".
func DisplayName(key string) string {
	spaced := camelBoundary.ReplaceAllString(key, "$1 $2")
	spaced = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(spaced)
	words := strings.Fields(spaced)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
