package types

import "strings"

// List is an ordered, finite sequence of Value with a cached element type
// (§3 Value: List variant).
type List struct {
	Elems    []Value
	ElemType Type
}

func NewList(elems []Value) *List {
	t := inferListElemType(elems)
	return &List{Elems: elems, ElemType: t}
}

func inferListElemType(elems []Value) Type {
	if len(elems) == 0 {
		return DynType
	}
	first := elems[0].Type()
	for _, e := range elems[1:] {
		if !e.Type().Equal(first) {
			return DynType
		}
	}
	return first
}

func (*List) Kind() Kind   { return ListKind }
func (l *List) Type() Type { return ListT{Elem: l.ElemType} }

func (l *List) Hash() uint64 {
	h := uint64(1099511628211)
	for _, e := range l.Elems {
		h = h*31 + e.Hash()
	}
	return h
}

// Equal does element-wise comparison in order, defaulting to heterogeneous
// numeric equality (see Int.Equal for why the Value interface method can't
// take the RuntimeOption itself); the standard library's `_==_` overload
// calls equalWith instead, so it honors the caller's actual setting.
func (l *List) Equal(other Value) bool { return l.equalWith(other, true) }

// equalWith is Equal with the heterogeneous flag threaded down to each
// element, so a list of numbers honors enableHeterogeneousEquality the
// same way a bare scalar comparison does (§3 Invariants).
func (l *List) equalWith(other Value, heterogeneous bool) bool {
	o, ok := other.(*List)
	if !ok || len(l.Elems) != len(o.Elems) {
		return false
	}
	for i := range l.Elems {
		if !valueEqual(l.Elems[i], o.Elems[i], heterogeneous) {
			return false
		}
	}
	return true
}

func (l *List) DebugString() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range l.Elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.DebugString())
	}
	b.WriteByte(']')
	return b.String()
}

// Get returns the element at index i, or (nil, false) when i is out of
// range; the standard library's index overload turns an out-of-range
// index into Error(NoSuchKey), so List itself stays a simple slice
// wrapper.
func (l *List) Get(i int) (Value, bool) {
	if i < 0 || i >= len(l.Elems) {
		return nil, false
	}
	return l.Elems[i], true
}

func (l *List) Len() int { return len(l.Elems) }
