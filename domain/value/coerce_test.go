package value_test

import (
	"errors"
	"testing"

	"github.com/artpar/confsync/domain/value"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		target  value.Kind
		in      value.Value
		want    value.Value
		wantErr bool
	}{
		{"same kind", value.KindInt32, value.Int32(7), value.Int32(7), false},
		{"float64 to int32 truncates", value.KindInt32, value.Float64(9.99), value.Int32(9), false},
		{"negative float truncates toward zero", value.KindInt32, value.Float64(-2.7), value.Int32(-2), false},
		{"int64 to int32 narrows", value.KindInt32, value.Int64(1 << 33), value.Int32(0), false},
		{"int32 to float64", value.KindFloat64, value.Int32(3), value.Float64(3), false},
		{"float64 to float32", value.KindFloat32, value.Float64(0.5), value.Float32(0.5), false},
		{"int32 to int64", value.KindInt64, value.Int32(-4), value.Int64(-4), false},
		{"string to int32", value.KindInt32, value.String("42"), value.Int32(42), false},
		{"string to int64", value.KindInt64, value.String("-9000000000"), value.Int64(-9000000000), false},
		{"string to float64", value.KindFloat64, value.String("2.25"), value.Float64(2.25), false},
		{"string to float32", value.KindFloat32, value.String("1e3"), value.Float32(1000), false},
		{"string true", value.KindBool, value.String("true"), value.Bool(true), false},
		{"string false", value.KindBool, value.String("false"), value.Bool(false), false},
		{"int to string", value.KindString, value.Int32(5), value.String("5"), false},
		{"bool to string", value.KindString, value.Bool(true), value.String("true"), false},
		{"float to string", value.KindString, value.Float64(0.1), value.String("0.1"), false},

		{"string abc to int32", value.KindInt32, value.String("abc"), value.Value{}, true},
		{"int32 overflow string", value.KindInt32, value.String("3000000000"), value.Value{}, true},
		{"float string to int", value.KindInt32, value.String("1.5"), value.Value{}, true},
		{"bool case sensitive", value.KindBool, value.String("True"), value.Value{}, true},
		{"bool from number", value.KindBool, value.Int32(1), value.Value{}, true},
		{"number from bool", value.KindInt32, value.Bool(true), value.Value{}, true},
		{"invalid target", value.KindInvalid, value.Int32(1), value.Value{}, true},
		{"invalid source", value.KindString, value.Value{}, value.Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := value.Coerce(tt.target, tt.in)
			if tt.wantErr {
				var fe *value.FormatConversionError
				if !errors.As(err, &fe) {
					t.Fatalf("Coerce() error = %v, want *FormatConversionError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Coerce() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Coerce() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCoerce_InvalidUTF8(t *testing.T) {
	for _, target := range []value.Kind{value.KindString, value.KindInt32, value.KindBool} {
		_, err := value.Coerce(target, value.String("\xff\xfe"))
		var fe *value.FormatConversionError
		if !errors.As(err, &fe) {
			t.Errorf("Coerce(%v, invalid UTF-8) error = %v, want *FormatConversionError", target, err)
		}
	}
}

func TestCoerce_Idempotent(t *testing.T) {
	inputs := []value.Value{
		value.Bool(true),
		value.Int32(-12),
		value.Int64(1 << 50),
		value.Float32(3.25),
		value.Float64(-0.125),
		value.String("17"),
		value.String("true"),
		value.String("2.5"),
	}

	for _, target := range value.Kinds() {
		for _, in := range inputs {
			once, err := value.Coerce(target, in)
			if err != nil {
				continue
			}
			twice, err := value.Coerce(target, once)
			if err != nil {
				t.Fatalf("Coerce(%v, %#v) second pass error = %v", target, once, err)
			}
			if !twice.Equal(once) {
				t.Errorf("Coerce(%v, %#v) not idempotent: %#v then %#v", target, in, once, twice)
			}
		}
	}
}

func TestCoerce_StringRoundTrip(t *testing.T) {
	inputs := []value.Value{
		value.Bool(false),
		value.Int32(123),
		value.Int64(-1 << 40),
		value.Float32(0.1),
		value.Float64(1.0 / 3.0),
	}

	for _, in := range inputs {
		s, err := value.Coerce(value.KindString, in)
		if err != nil {
			t.Fatalf("to string: %v", err)
		}
		back, err := value.Coerce(in.Kind(), s)
		if err != nil {
			t.Fatalf("from string %q: %v", s.AsString(), err)
		}
		if !back.Equal(in) {
			t.Errorf("round trip %#v -> %q -> %#v", in, s.AsString(), back)
		}
	}
}

func TestCoerceAny(t *testing.T) {
	tests := []struct {
		name    string
		target  value.Kind
		in      any
		want    value.Value
		wantErr bool
	}{
		{"yaml int", value.KindInt32, 50, value.Int32(50), false},
		{"yaml int to int64", value.KindInt64, 7, value.Int64(7), false},
		{"yaml float to float32", value.KindFloat32, 0.25, value.Float32(0.25), false},
		{"yaml bool", value.KindBool, true, value.Bool(true), false},
		{"json number as float", value.KindInt32, float64(12), value.Int32(12), false},
		{"string", value.KindString, "hi", value.String("hi"), false},
		{"typed value", value.KindInt32, value.Int32(1), value.Int32(1), false},
		{"uint64 overflow", value.KindInt64, uint64(1 << 63), value.Value{}, true},
		{"slice", value.KindString, []int{1}, value.Value{}, true},
		{"nil", value.KindString, nil, value.Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := value.CoerceAny(tt.target, tt.in)
			if tt.wantErr {
				var fe *value.FormatConversionError
				if !errors.As(err, &fe) {
					t.Fatalf("CoerceAny() error = %v, want *FormatConversionError", err)
				}
				if fe.Target != tt.target {
					t.Errorf("Target = %v, want %v", fe.Target, tt.target)
				}
				return
			}
			if err != nil {
				t.Fatalf("CoerceAny() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("CoerceAny() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
