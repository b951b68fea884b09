package types

import "fmt"

// Type is the static/runtime type universe of spec §3 Type. Types are
// value objects: structural equality ignores allocation identity, the way
// Funxy's typesystem.Type values compare by structure rather than
// pointer (internal/typesystem/types.go), simplified here to a closed sum
// (CEL has no user-level generic inference; see DESIGN.md).
type Type interface {
	Kind() Kind
	String() string
	Equal(other Type) bool
}

// primitiveType covers the non-parametric kinds.
type primitiveType struct {
	kind Kind
	name string
}

func (p primitiveType) Kind() Kind     { return p.kind }
func (p primitiveType) String() string { return p.name }
func (p primitiveType) Equal(other Type) bool {
	o, ok := other.(primitiveType)
	return ok && p.kind == o.kind
}

var (
	NullType      Type = primitiveType{NullKind, "null_type"}
	BoolType      Type = primitiveType{BoolKind, "bool"}
	IntType       Type = primitiveType{IntKind, "int"}
	UintType      Type = primitiveType{UintKind, "uint"}
	DoubleType    Type = primitiveType{DoubleKind, "double"}
	StringType    Type = primitiveType{StringKind, "string"}
	BytesType     Type = primitiveType{BytesKind, "bytes"}
	DurationType  Type = primitiveType{DurationKind, "google.protobuf.Duration"}
	TimestampType Type = primitiveType{TimestampKind, "google.protobuf.Timestamp"}
	ErrorType     Type = primitiveType{ErrorKind, "error"}
	UnknownType   Type = primitiveType{UnknownKind, "unknown"}
	TypeOfType    Type = primitiveType{TypeKind, "type"}
	DynType       Type = dynType{}
	AnyType       Type = primitiveType{RecordKind, "google.protobuf.Any"}
)

// dynType is the "accept anything" type used for untyped registers and
// Dyn-kind overload matching (§4.4 resolution rule 2).
type dynType struct{}

func (dynType) Kind() Kind     { return TypeKind }
func (dynType) String() string { return "dyn" }
func (dynType) Equal(other Type) bool {
	_, ok := other.(dynType)
	return ok
}

// ListT is the type List(elem).
type ListT struct{ Elem Type }

func (ListT) Kind() Kind { return ListKind }
func (l ListT) String() string {
	if l.Elem == nil {
		return "list(dyn)"
	}
	return fmt.Sprintf("list(%s)", l.Elem.String())
}
func (l ListT) Equal(other Type) bool {
	o, ok := other.(ListT)
	if !ok {
		return false
	}
	if l.Elem == nil || o.Elem == nil {
		return true
	}
	return l.Elem.Equal(o.Elem)
}

// MapT constructs the type Map(key, val).
type MapT struct {
	Key Type
	Val Type
}

func (MapT) Kind() Kind { return MapKind }
func (m MapT) String() string {
	key, val := "dyn", "dyn"
	if m.Key != nil {
		key = m.Key.String()
	}
	if m.Val != nil {
		val = m.Val.String()
	}
	return fmt.Sprintf("map(%s, %s)", key, val)
}
func (m MapT) Equal(other Type) bool {
	o, ok := other.(MapT)
	if !ok {
		return false
	}
	keyEq := m.Key == nil || o.Key == nil || m.Key.Equal(o.Key)
	valEq := m.Val == nil || o.Val == nil || m.Val.Equal(o.Val)
	return keyEq && valEq
}

// RecordT names a structured record type, e.g. "google.protobuf.Struct"
// or a host-registered message name.
type RecordT struct{ Name string }

func (RecordT) Kind() Kind       { return RecordKind }
func (r RecordT) String() string { return r.Name }
func (r RecordT) Equal(other Type) bool {
	o, ok := other.(RecordT)
	return ok && r.Name == o.Name
}

// WrapperT is a nullable wrapper around a primitive (google.protobuf.*Value).
type WrapperT struct{ Inner Type }

func (WrapperT) Kind() Kind { return RecordKind }
func (w WrapperT) String() string {
	return fmt.Sprintf("wrapper(%s)", w.Inner.String())
}
func (w WrapperT) Equal(other Type) bool {
	o, ok := other.(WrapperT)
	return ok && w.Inner.Equal(o.Inner)
}

// OptT is the optional-value type (present/absent wrapper around Inner).
type OptT struct{ Inner Type }

func (OptT) Kind() Kind { return OptKind }
func (o OptT) String() string {
	if o.Inner == nil {
		return "optional_type(dyn)"
	}
	return fmt.Sprintf("optional_type(%s)", o.Inner.String())
}
func (o OptT) Equal(other Type) bool {
	p, ok := other.(OptT)
	if !ok {
		return false
	}
	if o.Inner == nil || p.Inner == nil {
		return true
	}
	return o.Inner.Equal(p.Inner)
}

// OpaqueT is a named parametric type outside the built-in set
// (e.g. vector<double>), grounded on Funxy's TApp constructor-plus-
// args representation (internal/typesystem/types.go) but closed rather than
// kind-inferred.
type OpaqueT struct {
	Name   string
	Params []Type
}

func (OpaqueT) Kind() Kind { return TypeKind }
func (o OpaqueT) String() string {
	s := o.Name
	if len(o.Params) == 0 {
		return s
	}
	s += "("
	for i, p := range o.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ")"
}
func (o OpaqueT) Equal(other Type) bool {
	p, ok := other.(OpaqueT)
	if !ok || o.Name != p.Name || len(o.Params) != len(p.Params) {
		return false
	}
	for i := range o.Params {
		if !o.Params[i].Equal(p.Params[i]) {
			return false
		}
	}
	return true
}

// FunctionT describes a function signature: result type plus argument types.
type FunctionT struct {
	Result Type
	Args   []Type
}

func (FunctionT) Kind() Kind { return TypeKind }
func (f FunctionT) String() string {
	s := "("
	for i, a := range f.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ") -> " + f.Result.String()
}
func (f FunctionT) Equal(other Type) bool {
	o, ok := other.(FunctionT)
	if !ok || len(f.Args) != len(o.Args) || !f.Result.Equal(o.Result) {
		return false
	}
	for i := range f.Args {
		if !f.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// TypeParamT is an unbound type parameter, used when describing generic
// overload signatures (e.g. list(T).get(int) -> T).
type TypeParamT struct{ ID string }

func (TypeParamT) Kind() Kind       { return TypeKind }
func (t TypeParamT) String() string { return t.ID }
func (t TypeParamT) Equal(other Type) bool {
	o, ok := other.(TypeParamT)
	return ok && t.ID == o.ID
}

// TypeValue reifies a Type as a runtime Value (the `Type` Value kind).
type TypeValue struct{ T Type }

func (TypeValue) Kind() Kind { return TypeKind }
func (TypeValue) Type() Type { return TypeOfType }
func (t TypeValue) Hash() uint64 {
	return fnvHash(t.T.String())
}
func (t TypeValue) Equal(other Value) bool {
	o, ok := other.(TypeValue)
	return ok && t.T.Equal(o.T)
}
func (t TypeValue) DebugString() string { return "type(" + t.T.String() + ")" }
