package value_test

import (
	"errors"
	"math"
	"testing"

	"github.com/artpar/confsync/domain/value"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want value.Kind
		ok   bool
	}{
		{"bool", value.KindBool, true},
		{"boolean", value.KindBool, true},
		{"int32", value.KindInt32, true},
		{"int", value.KindInt32, true},
		{"int64", value.KindInt64, true},
		{"long", value.KindInt64, true},
		{"float32", value.KindFloat32, true},
		{"double", value.KindFloat64, true},
		{"string", value.KindString, true},
		{"uuid", value.KindInvalid, false},
		{"", value.KindInvalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := value.ParseKind(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseKind(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	for _, k := range value.Kinds() {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error = %v", k, err)
		}
		var got value.Kind
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s) error = %v", text, err)
		}
		if got != k {
			t.Errorf("round trip = %v, want %v", got, k)
		}
	}

	if _, err := value.KindInvalid.MarshalText(); err == nil {
		t.Error("MarshalText(KindInvalid) should fail")
	}
}

func TestValue_Accessors(t *testing.T) {
	if !value.Bool(true).AsBool() {
		t.Error("AsBool")
	}
	if value.Int32(-7).AsInt32() != -7 {
		t.Error("AsInt32")
	}
	if value.Int64(1<<40).AsInt64() != 1<<40 {
		t.Error("AsInt64")
	}
	if value.Float32(1.5).AsFloat32() != 1.5 {
		t.Error("AsFloat32")
	}
	if value.Float64(math.Pi).AsFloat64() != math.Pi {
		t.Error("AsFloat64")
	}
	if value.String("x").AsString() != "x" {
		t.Error("AsString")
	}

	// Mismatched accessors return the zero payload
	if value.Int32(5).AsInt64() != 0 {
		t.Error("AsInt64 on int32 should be 0")
	}
	if value.String("true").AsBool() {
		t.Error("AsBool on string should be false")
	}
}

func TestValue_Equal(t *testing.T) {
	if !value.Int32(3).Equal(value.Int32(3)) {
		t.Error("equal int32 values should match")
	}
	if value.Int32(3).Equal(value.Int64(3)) {
		t.Error("different kinds should not be equal")
	}
	if (value.Value{}).IsValid() {
		t.Error("zero Value should be invalid")
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b value.Value
		want int
		ok   bool
	}{
		{"int less", value.Int32(1), value.Int32(2), -1, true},
		{"int64 eq int32", value.Int64(5), value.Int32(5), 0, true},
		{"float greater", value.Float64(2.5), value.Int32(2), 1, true},
		{"large int64 exact", value.Int64(math.MaxInt64), value.Int64(math.MaxInt64 - 1), 1, true},
		{"string", value.String("1"), value.Int32(1), 0, false},
		{"nan float64", value.Float64(math.NaN()), value.Float64(0), 0, false},
		{"nan float32", value.Int32(1), value.Float32(float32(math.NaN())), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := value.Compare(tt.a, tt.b)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Compare() = %d, %v; want %d, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMap_CloneIsIndependent(t *testing.T) {
	m := value.Map{"a": value.Int32(1)}
	c := m.Clone()
	c["a"] = value.Int32(2)
	c["b"] = value.Bool(true)

	if m["a"].AsInt32() != 1 {
		t.Error("Clone shares storage with original")
	}
	if len(m) != 1 {
		t.Error("Clone added keys to original")
	}
}

func TestMap_Keys(t *testing.T) {
	m := value.Map{"zeta": value.Bool(true), "alpha": value.Bool(false), "mid": value.Bool(true)}
	keys := m.Keys()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", keys, want)
		}
	}
}

func TestDiff(t *testing.T) {
	original := value.Map{
		"enabled":  value.Bool(true),
		"maxSpeed": value.Int32(50),
		"ratio":    value.Float64(0.5),
		"title":    value.String("a"),
	}
	edited := value.Map{
		"enabled":  value.Bool(true),
		"maxSpeed": value.Int32(75),
		"ratio":    value.Float64(0.50001),
		"title":    value.String("b"),
		"extra":    value.Int64(1),
	}

	got := value.Diff(original, edited)

	if len(got) != 3 {
		t.Fatalf("Diff() = %v, want 3 entries", got)
	}
	for _, k := range []string{"maxSpeed", "title", "extra"} {
		if _, ok := got[k]; !ok {
			t.Errorf("Diff() missing %q", k)
		}
	}
	if _, ok := got["ratio"]; ok {
		t.Error("Diff() should ignore changes under epsilon")
	}
}

func TestDiff_IntegersExact(t *testing.T) {
	const big = int64(1) << 53
	original := value.Map{
		"big":   value.Int64(big),
		"count": value.Int32(5),
		"ratio": value.Float32(0.25),
		"nan":   value.Float64(math.NaN()),
	}
	edited := value.Map{
		"big":   value.Int64(big + 1),
		"count": value.Float64(5.00001),
		"ratio": value.Float32(0.25002),
		"nan":   value.Float64(math.NaN()),
	}

	got := value.Diff(original, edited)

	want := value.Map{
		"big":   value.Int64(big + 1),
		"count": value.Float64(5.00001),
	}
	if !got.Equal(want) {
		t.Errorf("Diff() = %v, want %v", got, want)
	}
}

func TestFormatConversionError_As(t *testing.T) {
	_, err := value.Coerce(value.KindInt32, value.String("abc"))

	var fe *value.FormatConversionError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %T, want *FormatConversionError", err)
	}
	if fe.Target != value.KindInt32 {
		t.Errorf("Target = %v, want int32", fe.Target)
	}
	if fe.Value.(value.Value).AsString() != "abc" {
		t.Errorf("Value = %v, want abc", fe.Value)
	}
}
