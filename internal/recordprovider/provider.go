// Package recordprovider implements the RecordProvider of spec §4.5:
// field introspection and construction for structured records, plus
// conversion of well-known protobuf records (Timestamp, Duration,
// wrappers, Struct, ListValue, Value) into their native Value form.
// google.protobuf.Any is not unpacked and stays a plain Record, and native
// Values are not converted back into well-known records.
//
// Two backends are provided: StaticProvider, an in-memory registry for
// synthetic/test record types, and ProtoProvider, which wraps a
// descriptor pool built with github.com/jhump/protoreflect — the same
// dynamic-message machinery Funxy uses to call services reflectively
// (internal/evaluator/builtins_grpc.go), repurposed here for field
// introspection instead of invocation.
package recordprovider

import "github.com/cel-lang/celcore/internal/types"

// FieldDescriptor describes one field of a record type: name, field
// number, declared type, and presence discipline (§4.5: hasField
// "following protobuf-style presence rules").
type FieldDescriptor struct {
	Name             string
	Number           int32
	Type             types.Type
	ExplicitPresence bool // true for messages/wrappers/proto3 `optional`
	Default          func() types.Value
}

// Provider is the field-introspection-and-construction contract of §4.5.
type Provider interface {
	// Fields returns the ordered (name, number, type) list for typeName.
	Fields(typeName string) ([]FieldDescriptor, error)
	// NewBuilder returns a fresh builder for typeName.
	NewBuilder(typeName string) (Builder, error)
	// Known reports whether typeName is registered with this provider.
	Known(typeName string) bool
}

// Builder constructs a Record field by field (§4.5: newBuilder()).
type Builder interface {
	// SetField sets name to v. Setting an unknown field returns
	// ErrFieldNotFound; a type-incompatible value returns
	// ErrInvalidFieldType (§4.5: "Setting an unknown field is NotFound;
	// setting a type-incompatible value is InvalidArgument").
	SetField(name string, v types.Value) error
	// Build finalizes the record.
	Build() (*types.Record, error)
}

// ErrFieldNotFound and ErrInvalidFieldType are the two builder failure
// modes named in §4.5. Builders return them as Go errors; when a record
// is built during evaluation (a CreateRecord step), the interpreter turns
// them into CEL-level Error values (NoSuchField / InvalidArgument).
type ErrFieldNotFound struct{ Field string }

func (e *ErrFieldNotFound) Error() string { return "no such field: " + e.Field }

type ErrInvalidFieldType struct {
	Field string
	Want  types.Type
	Got   types.Type
}

func (e *ErrInvalidFieldType) Error() string {
	return "field " + e.Field + ": expected " + e.Want.String() + ", got " + e.Got.String()
}

// ErrUnknownType is returned by Fields/NewBuilder for an unregistered
// type name.
type ErrUnknownType struct{ TypeName string }

func (e *ErrUnknownType) Error() string { return "unknown record type: " + e.TypeName }
