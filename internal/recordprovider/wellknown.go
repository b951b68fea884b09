package recordprovider

import "github.com/cel-lang/celcore/internal/types"

// wellKnownNames enumerates the record type names that are transparently
// converted to/from their native Value form when encountered (§4.5).
var wellKnownNames = map[string]bool{
	"google.protobuf.BoolValue":   true,
	"google.protobuf.Int32Value":  true,
	"google.protobuf.Int64Value":  true,
	"google.protobuf.UInt32Value": true,
	"google.protobuf.UInt64Value": true,
	"google.protobuf.FloatValue":  true,
	"google.protobuf.DoubleValue": true,
	"google.protobuf.StringValue": true,
	"google.protobuf.BytesValue":  true,
	"google.protobuf.Timestamp":   true,
	"google.protobuf.Duration":    true,
	"google.protobuf.Any":         true,
	"google.protobuf.Struct":      true,
	"google.protobuf.ListValue":   true,
	"google.protobuf.Value":       true,
}

// IsWellKnown reports whether typeName is one of the well-known types
// this provider converts transparently.
func IsWellKnown(typeName string) bool { return wellKnownNames[typeName] }

// ConvertWellKnown converts a Record handle of a well-known type to its
// native Value form (§4.5: "transparently converted to/from their native
// Value form when encountered"). ok is false if typeName is not
// well-known or the handle's shape is unexpected, in which case the
// caller should keep the value as a plain Record.
func ConvertWellKnown(typeName string, handle types.RecordHandle) (types.Value, bool) {
	switch typeName {
	case "google.protobuf.BoolValue":
		return wrapperValue(handle, types.Bool(false))
	case "google.protobuf.Int32Value", "google.protobuf.Int64Value":
		return wrapperValue(handle, types.Int(0))
	case "google.protobuf.UInt32Value", "google.protobuf.UInt64Value":
		return wrapperValue(handle, types.Uint(0))
	case "google.protobuf.FloatValue", "google.protobuf.DoubleValue":
		return wrapperValue(handle, types.Double(0))
	case "google.protobuf.StringValue":
		return wrapperValue(handle, types.NewString(""))
	case "google.protobuf.BytesValue":
		return wrapperValue(handle, types.NewBytes(nil))
	case "google.protobuf.Timestamp":
		sec, _ := handle.GetField("seconds")
		nsec, _ := handle.GetField("nanos")
		s, sOk := sec.(types.Int)
		n, nOk := nsec.(types.Int)
		if !sOk {
			s = 0
		}
		if !nOk {
			n = 0
		}
		return types.Timestamp{Nanos: int64(s)*1e9 + int64(n)}, true
	case "google.protobuf.Duration":
		sec, _ := handle.GetField("seconds")
		nsec, _ := handle.GetField("nanos")
		s, sOk := sec.(types.Int)
		n, nOk := nsec.(types.Int)
		if !sOk {
			s = 0
		}
		if !nOk {
			n = 0
		}
		return types.Duration{Nanos: int64(s)*1e9 + int64(n)}, true
	case "google.protobuf.Struct":
		fields, ok := handle.GetField("fields")
		if !ok {
			return types.NewMap(true), true
		}
		m, ok := fields.(*types.Map)
		if !ok {
			return nil, false
		}
		return m, true
	case "google.protobuf.ListValue":
		values, ok := handle.GetField("values")
		if !ok {
			return types.NewList(nil), true
		}
		l, ok := values.(*types.List)
		if !ok {
			return nil, false
		}
		return l, true
	case "google.protobuf.Value":
		return convertStructValue(handle)
	case "google.protobuf.Any":
		// Unpacking requires resolving type_url against a descriptor pool,
		// which this field-introspection layer does not have; the caller
		// keeps the original Record (§4.5 fallback for an unexpected shape).
		return nil, false
	default:
		return nil, false
	}
}

// convertStructValue converts a google.protobuf.Value oneof to its native
// form; struct_value/list_value recurse through the Struct/ListValue rules
// above, matching the nesting a JSON-shaped Struct actually has. An unset
// oneof defaults to null, proto3's zero value for a message-typed oneof.
func convertStructValue(handle types.RecordHandle) (types.Value, bool) {
	for _, name := range []string{"bool_value", "number_value", "string_value", "null_value", "struct_value", "list_value"} {
		if !handle.HasField(name) {
			continue
		}
		v, ok := handle.GetField(name)
		if !ok {
			continue
		}
		switch name {
		case "struct_value", "list_value":
			if rec, ok := v.(*types.Record); ok {
				typeName := "google.protobuf.Struct"
				if name == "list_value" {
					typeName = "google.protobuf.ListValue"
				}
				return ConvertWellKnown(typeName, rec.Handle)
			}
			return v, true
		default:
			return v, true
		}
	}
	return types.Null{}, true
}

func wrapperValue(handle types.RecordHandle, zero types.Value) (types.Value, bool) {
	v, ok := handle.GetField("value")
	if !ok {
		return zero, true
	}
	return v, true
}
