package types

import "fmt"

// Value is the single closed interface every CEL runtime value implements.
// Concrete kinds mirror Funxy's evaluator.Object contract
// (Type()/Inspect()/Hash()) generalized to the kind set of §3 Value.
type Value interface {
	// Kind returns the variant tag in O(1) without allocation.
	Kind() Kind
	// Equal reports structural/value equality with other; numeric kinds
	// always compare heterogeneously here (see Int.Equal). Equal in
	// equality.go is the top-level entry point used by the evaluator and
	// takes the heterogeneous-equality flag as a parameter.
	Equal(other Value) bool
	// Hash is stable for the lifetime of the process for values that
	// compare equal under heterogeneous equality.
	Hash() uint64
	// DebugString renders a human-readable, round-trippable-for-scalars
	// representation (§8 property 1).
	DebugString() string
	// Type returns the static Type of this value.
	Type() Type
}

// Null is the unit value.
type Null struct{}

func (Null) Kind() Kind   { return NullKind }
func (Null) Type() Type   { return NullType }
func (Null) Hash() uint64 { return 0 }
func (n Null) Equal(other Value) bool {
	_, ok := other.(Null)
	return ok
}
func (Null) DebugString() string { return "null" }

// Bool wraps a boolean.
type Bool bool

func (Bool) Kind() Kind { return BoolKind }
func (Bool) Type() Type { return BoolType }
func (b Bool) Hash() uint64 {
	if b {
		return 1
	}
	return 0
}
func (b Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && b == o
}
func (b Bool) DebugString() string { return fmt.Sprintf("%t", bool(b)) }

// AsBool is the conversion helper required by §4.1.
func (b Bool) AsBool() (bool, error) { return bool(b), nil }
