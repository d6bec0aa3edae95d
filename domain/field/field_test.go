package field_test

import (
	"errors"
	"math"
	"testing"

	"github.com/artpar/confsync/domain/field"
	"github.com/artpar/confsync/domain/value"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		kind    value.Kind
		min     string
		max     string
		wantErr bool
	}{
		{"int32", value.KindInt32, "0", "100", false},
		{"int64 negative", value.KindInt64, "-5", " 5 ", false},
		{"float64", value.KindFloat64, "0.5", "1.5", false},
		{"float32", value.KindFloat32, "0", "1", false},
		{"equal bounds", value.KindInt32, "3", "3", false},
		{"min greater than max", value.KindInt32, "10", "1", true},
		{"unparsable", value.KindInt32, "low", "100", true},
		{"float bound on int", value.KindInt32, "0.5", "1", true},
		{"string kind", value.KindString, "a", "z", true},
		{"bool kind", value.KindBool, "false", "true", true},
		{"nan bound", value.KindFloat64, "NaN", "1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := field.ParseRange(tt.kind, tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && r.Min.Kind() != tt.kind {
				t.Errorf("Min kind = %v, want %v", r.Min.Kind(), tt.kind)
			}
		})
	}
}

func TestRange_ContainsInclusive(t *testing.T) {
	r, err := field.ParseRange(value.KindInt32, "0", "100")
	if err != nil {
		t.Fatalf("ParseRange() error = %v", err)
	}

	tests := []struct {
		v    value.Value
		want bool
	}{
		{value.Int32(0), true},
		{value.Int32(100), true},
		{value.Int32(50), true},
		{value.Int32(-1), false},
		{value.Int32(101), false},
		{value.Float64(100.5), false},
		{value.String("50"), false},
	}

	for _, tt := range tests {
		if got := r.Contains(tt.v); got != tt.want {
			t.Errorf("Contains(%#v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestRange_CheckError(t *testing.T) {
	r, _ := field.ParseRange(value.KindFloat64, "0", "1")

	err := r.Check("ratio", value.Float64(1.5))
	var rv *field.RangeViolationError
	if !errors.As(err, &rv) {
		t.Fatalf("Check() error = %v, want *RangeViolationError", err)
	}
	if rv.Field != "ratio" {
		t.Errorf("Field = %q, want ratio", rv.Field)
	}
	if rv.Error() != "ratio: value 1.5 outside range [0, 1]" {
		t.Errorf("Error() = %q", rv.Error())
	}

	if err := r.Check("ratio", value.Float64(1)); err != nil {
		t.Errorf("Check(max) error = %v", err)
	}
}

func TestDescriptor_Validate(t *testing.T) {
	r, _ := field.ParseRange(value.KindInt32, "0", "100")
	d := field.Descriptor{Name: "maxSpeed", Kind: value.KindInt32, Range: r}

	got, err := d.Validate(value.String("75"))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got.AsInt32() != 75 {
		t.Errorf("Validate() = %#v, want int32(75)", got)
	}

	_, err = d.Validate(value.Int64(150))
	var rv *field.RangeViolationError
	if !errors.As(err, &rv) {
		t.Errorf("Validate(150) error = %v, want *RangeViolationError", err)
	}

	_, err = d.Validate(value.String("fast"))
	var fe *value.FormatConversionError
	if !errors.As(err, &fe) {
		t.Errorf("Validate(fast) error = %v, want *FormatConversionError", err)
	}
}

func TestDescriptor_ValidateRejectsNaN(t *testing.T) {
	for _, k := range []value.Kind{value.KindFloat32, value.KindFloat64} {
		r, err := field.ParseRange(k, "0", "1")
		if err != nil {
			t.Fatalf("ParseRange(%v) error = %v", k, err)
		}
		d := field.Descriptor{Name: "ratio", Kind: k, Range: r}

		for _, in := range []value.Value{value.String("NaN"), value.Float64(math.NaN())} {
			got, err := d.Validate(in)
			var rv *field.RangeViolationError
			if !errors.As(err, &rv) {
				t.Errorf("%v Validate(%#v) = %v, %v; want *RangeViolationError", k, in, got, err)
			}
		}
	}
}

func TestRange_MarshalJSON(t *testing.T) {
	r, _ := field.ParseRange(value.KindFloat32, "0.5", "2")
	data, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != `{"min":0.5,"max":2}` {
		t.Errorf("MarshalJSON() = %s", data)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"maxSpeed", "Max Speed"},
		{"enableAutoSave", "Enable Auto Save"},
		{"auto_save", "Auto Save"},
		{"level2Boss", "Level2 Boss"},
		{"x", "X"},
		{"ñame", "Ñame"},
		{"über_mode", "Über Mode"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := field.DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
