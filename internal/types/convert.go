package types

import "fmt"

// ToBool, ToInt, ToUint, ToDouble, ToString are the conversion helpers
// required by §4.1 ("Values additionally expose conversion helpers").
// Each returns a CEL-level Error value (not a Go error) on failure, so
// callers can push the result directly onto the evaluator's value stack.

func ToBool(v Value) Value {
	if b, ok := v.(Bool); ok {
		return b
	}
	return NewError(ErrTypeConversion, "cannot convert %s to bool", v.Type())
}

func ToInt(v Value) Value {
	switch n := v.(type) {
	case Int:
		return n
	case Uint:
		return UintToInt(n)
	case Double:
		return DoubleToInt(n)
	case Str:
		return parseIntString(n.String())
	default:
		return NewError(ErrTypeConversion, "cannot convert %s to int", v.Type())
	}
}

func ToUint(v Value) Value {
	switch n := v.(type) {
	case Uint:
		return n
	case Int:
		return IntToUint(n)
	case Double:
		return DoubleToUint(n)
	default:
		return NewError(ErrTypeConversion, "cannot convert %s to uint", v.Type())
	}
}

func ToDouble(v Value) Value {
	switch n := v.(type) {
	case Double:
		return n
	case Int:
		return IntToDouble(n)
	case Uint:
		return UintToDouble(n)
	default:
		return NewError(ErrTypeConversion, "cannot convert %s to double", v.Type())
	}
}

func ToStringValue(v Value) Value {
	switch s := v.(type) {
	case Str:
		return s
	case Bytes:
		return NewString(string(s.Raw()))
	case Int:
		return NewString(fmt.Sprintf("%d", int64(s)))
	case Uint:
		return NewString(fmt.Sprintf("%d", uint64(s)))
	case Double:
		return NewString(fmt.Sprintf("%v", float64(s)))
	case Bool:
		return NewString(fmt.Sprintf("%t", bool(s)))
	default:
		return NewError(ErrTypeConversion, "cannot convert %s to string", v.Type())
	}
}

func parseIntString(s string) Value {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return NewError(ErrTypeConversion, "cannot convert %q to int", s)
	}
	return Int(n)
}
