package types

import "fmt"

// ToNative converts a Value into a plain Go value (bool, int64, uint64,
// float64, string, []byte, []interface{}, map[string]interface{}, nil;
// a Timestamp becomes time.Time and a Duration int64 nanoseconds),
// the representation google.protobuf.Value/Struct round-trip through, and
// the shape pkg/cel's Marshaller hands back to embedding hosts.
func ToNative(v Value) (interface{}, error) {
	switch t := v.(type) {
	case Null:
		return nil, nil
	case Bool:
		return bool(t), nil
	case Int:
		return int64(t), nil
	case Uint:
		return uint64(t), nil
	case Double:
		return float64(t), nil
	case Str:
		return t.String(), nil
	case Bytes:
		return t.Raw(), nil
	case Duration:
		return t.Nanos, nil
	case Timestamp:
		return t.Time(), nil
	case *List:
		out := make([]interface{}, len(t.Elems))
		for i, e := range t.Elems {
			n, err := ToNative(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case *Map:
		out := make(map[string]interface{}, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			n, err := ToNative(val)
			if err != nil {
				return nil, err
			}
			var keyStr string
			switch kk := k.(type) {
			case Str:
				keyStr = kk.String()
			default:
				keyStr = kk.DebugString()
			}
			out[keyStr] = n
		}
		return out, nil
	case Opt:
		if !t.IsPresent() {
			return nil, nil
		}
		return ToNative(t.inner)
	case *ErrorVal:
		return nil, fmt.Errorf("%s", t.DebugString())
	default:
		return nil, fmt.Errorf("cannot convert %s to a native value", v.Type())
	}
}
