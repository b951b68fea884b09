package cel

import (
	"fmt"
	"reflect"

	"github.com/cel-lang/celcore/internal/types"
)

// Marshaller converts between Go-native values and CEL Values, grounded
// line-for-line on Funxy's pkg/embed/marshaller.go ToValue/FromValue
// reflect-driven conversion — generalized from Funxy's evaluator.Object
// variants to this domain's types.Value variants. A bound Go struct has no
// declared RecordProvider type here, so (unlike Funxy's
// structToRecord) it converts to a plain string-keyed Map rather than a
// Record; see DESIGN.md.
type Marshaller struct{}

// ToValue converts a Go value to a CEL Value.
func (m *Marshaller) ToValue(val interface{}) (types.Value, error) {
	if val == nil {
		return types.Null{}, nil
	}
	if v, ok := val.(types.Value); ok {
		return v, nil
	}

	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Interface || rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return types.Null{}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return types.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return types.Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return types.Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return types.Double(rv.Float()), nil
	case reflect.String:
		return types.NewString(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return types.NewBytes(append([]byte(nil), rv.Bytes()...)), nil
		}
		return m.sliceToList(rv)
	case reflect.Map:
		return m.mapToMap(rv)
	case reflect.Struct:
		return m.structToMap(rv)
	default:
		return nil, fmt.Errorf("cel: cannot convert Go kind %s to a CEL value", rv.Kind())
	}
}

func (m *Marshaller) sliceToList(rv reflect.Value) (types.Value, error) {
	elems := make([]types.Value, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, err := m.ToValue(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return types.NewList(elems), nil
}

func (m *Marshaller) mapToMap(rv reflect.Value) (types.Value, error) {
	out := types.NewMap(true)
	iter := rv.MapRange()
	for iter.Next() {
		k, err := m.ToValue(iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		v, err := m.ToValue(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		out = out.Put(k, v)
	}
	return out, nil
}

func (m *Marshaller) structToMap(rv reflect.Value) (types.Value, error) {
	t := rv.Type()
	out := types.NewMap(true)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("cel"); ok && tag != "" {
			name = tag
		}
		v, err := m.ToValue(rv.Field(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		out = out.Put(types.NewString(name), v)
	}
	return out, nil
}

// FromValue converts a CEL Value back into a plain Go value (the same
// dynamic shape types.ToNative produces), the inverse of ToValue for
// round-tripping host call results.
func (m *Marshaller) FromValue(v types.Value) (interface{}, error) {
	return types.ToNative(v)
}
