package value

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// FormatConversionError reports a value that cannot be converted to the
// requested kind.
type FormatConversionError struct {
	Target Kind
	Value  any
	Reason string
}

func (e *FormatConversionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot convert %#v to %s: %s", e.Value, e.Target, e.Reason)
	}
	return fmt.Sprintf("cannot convert %#v to %s", e.Value, e.Target)
}

// Coerce converts v to the target kind. This is a PURE function.
//
// Values already of the target kind are returned unchanged. Numeric kinds
// convert among themselves with Go's value conversion (float64 to int32
// truncates toward zero). Strings parse with the grammar of the target
// kind; the boolean literals are exactly "true" and "false". Every kind
// converts to string through Value.String. All other pairs fail with a
// *FormatConversionError.
func Coerce(target Kind, v Value) (Value, error) {
	if v.kind == KindString && !utf8.ValidString(v.s) {
		return Value{}, &FormatConversionError{Target: target, Value: v, Reason: "invalid UTF-8"}
	}
	if v.kind == target && target != KindInvalid {
		return v, nil
	}

	switch target {
	case KindString:
		if !v.IsValid() {
			return Value{}, &FormatConversionError{Target: target, Value: v, Reason: "invalid value"}
		}
		return String(v.String()), nil

	case KindBool:
		if v.kind != KindString {
			return Value{}, &FormatConversionError{Target: target, Value: v}
		}
		switch v.s {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return Value{}, &FormatConversionError{Target: target, Value: v, Reason: "expected \"true\" or \"false\""}

	case KindInt32, KindInt64, KindFloat32, KindFloat64:
		if v.kind.IsNumeric() {
			return convertNumeric(target, v), nil
		}
		if v.kind == KindString {
			return parseNumeric(target, v)
		}
		return Value{}, &FormatConversionError{Target: target, Value: v}

	default:
		return Value{}, &FormatConversionError{Target: target, Value: v, Reason: "unknown target kind"}
	}
}

func convertNumeric(target Kind, v Value) Value {
	i, f := v.numeric()
	fromInt := v.kind.IsInteger()

	switch target {
	case KindInt32:
		if fromInt {
			return Int32(int32(i))
		}
		return Int32(int32(f))
	case KindInt64:
		if fromInt {
			return Int64(i)
		}
		return Int64(int64(f))
	case KindFloat32:
		if fromInt {
			return Float32(float32(i))
		}
		return Float32(float32(f))
	default:
		if fromInt {
			return Float64(float64(i))
		}
		return Float64(f)
	}
}

func parseNumeric(target Kind, v Value) (Value, error) {
	switch target {
	case KindInt32:
		n, err := strconv.ParseInt(v.s, 10, 32)
		if err != nil {
			return Value{}, &FormatConversionError{Target: target, Value: v, Reason: numErrReason(err)}
		}
		return Int32(int32(n)), nil
	case KindInt64:
		n, err := strconv.ParseInt(v.s, 10, 64)
		if err != nil {
			return Value{}, &FormatConversionError{Target: target, Value: v, Reason: numErrReason(err)}
		}
		return Int64(n), nil
	case KindFloat32:
		f, err := strconv.ParseFloat(v.s, 32)
		if err != nil {
			return Value{}, &FormatConversionError{Target: target, Value: v, Reason: numErrReason(err)}
		}
		return Float32(float32(f)), nil
	default:
		f, err := strconv.ParseFloat(v.s, 64)
		if err != nil {
			return Value{}, &FormatConversionError{Target: target, Value: v, Reason: numErrReason(err)}
		}
		return Float64(f), nil
	}
}

func numErrReason(err error) string {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err.Error()
	}
	return err.Error()
}

// FromAny lifts a loosely-typed Go value (as produced by YAML or JSON
// decoding) into a Value. Platform ints become int64, unsigned ints that
// fit become int64, and json.Number-like strings stay strings.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int32:
		return Int32(t), nil
	case int64:
		return Int64(t), nil
	case int:
		return Int64(int64(t)), nil
	case int8:
		return Int32(int32(t)), nil
	case int16:
		return Int32(int32(t)), nil
	case uint8:
		return Int32(int32(t)), nil
	case uint16:
		return Int32(int32(t)), nil
	case uint32:
		return Int64(int64(t)), nil
	case uint:
		if uint64(t) > 1<<63-1 {
			return Value{}, &FormatConversionError{Target: KindInt64, Value: x, Reason: "overflows int64"}
		}
		return Int64(int64(t)), nil
	case uint64:
		if t > 1<<63-1 {
			return Value{}, &FormatConversionError{Target: KindInt64, Value: x, Reason: "overflows int64"}
		}
		return Int64(int64(t)), nil
	case float32:
		return Float32(t), nil
	case float64:
		return Float64(t), nil
	case string:
		return String(t), nil
	case fmt.Stringer:
		return String(t.String()), nil
	default:
		return Value{}, &FormatConversionError{Target: KindInvalid, Value: x, Reason: fmt.Sprintf("unsupported type %T", x)}
	}
}

// CoerceAny lifts x with FromAny and then coerces it to target.
func CoerceAny(target Kind, x any) (Value, error) {
	v, err := FromAny(x)
	if err != nil {
		if fe, ok := err.(*FormatConversionError); ok {
			fe.Target = target
		}
		return Value{}, err
	}
	return Coerce(target, v)
}
