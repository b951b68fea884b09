package types

import "strings"

// mapEntry is one insertion-ordered key/value pair.
type mapEntry struct {
	key Value
	val Value
}

// Map is a finite mapping Value->Value with Bool/Int/Uint/String keys,
// preserving insertion order for iteration (§3 Value: Map variant).
// Heterogeneous controls whether integer keys of different numeric kinds
// (Int/Uint/Double-convertible) are treated as the same key, mirroring the
// enableHeterogeneousEquality RuntimeOption at the point the map was built.
type Map struct {
	entries       []mapEntry
	index         map[uint64][]int // hash bucket -> entry indices
	Heterogeneous bool
}

func NewMap(heterogeneous bool) *Map {
	return &Map{index: make(map[uint64][]int), Heterogeneous: heterogeneous}
}

func (*Map) Kind() Kind { return MapKind }

func (m *Map) Type() Type {
	if len(m.entries) == 0 {
		return MapT{Key: DynType, Val: DynType}
	}
	keyT := m.entries[0].key.Type()
	valT := m.entries[0].val.Type()
	for _, e := range m.entries[1:] {
		if !e.key.Type().Equal(keyT) {
			keyT = DynType
		}
		if !e.val.Type().Equal(valT) {
			valT = DynType
		}
	}
	return MapT{Key: keyT, Val: valT}
}

func (m *Map) keyHash(k Value) uint64 {
	if m.Heterogeneous && k.Kind().IsNumeric() {
		if f, ok := asRational(k); ok {
			return hashNumeric(f)
		}
	}
	return k.Hash()
}

func (m *Map) keyEqual(a, b Value) bool {
	if a.Kind().IsNumeric() && b.Kind().IsNumeric() {
		return NumericEqual(a, b, m.Heterogeneous)
	}
	return a.Equal(b)
}

// Put inserts or updates key->val, returning a new Map so callers that
// treat construction as append-only (the planner's create-map step) never
// observe partial state; CEL forbids mutation of inputs, so sharing the
// underlying entries slice across Put calls is safe only because each
// construction site owns its Map exclusively until it is returned (see
// DESIGN.md for why no persistent/HAMT structure-sharing is required
// here, unlike Funxy's PersistentMap).
func (m *Map) Put(key, val Value) *Map {
	h := m.keyHash(key)
	for _, idx := range m.index[h] {
		if m.keyEqual(m.entries[idx].key, key) {
			entries := append([]mapEntry(nil), m.entries...)
			entries[idx] = mapEntry{key, val}
			return &Map{entries: entries, index: m.index, Heterogeneous: m.Heterogeneous}
		}
	}
	entries := append(append([]mapEntry(nil), m.entries...), mapEntry{key, val})
	newIndex := make(map[uint64][]int, len(m.index)+1)
	for k, v := range m.index {
		newIndex[k] = v
	}
	newIndex[h] = append(append([]int(nil), newIndex[h]...), len(entries)-1)
	return &Map{entries: entries, index: newIndex, Heterogeneous: m.Heterogeneous}
}

// Get looks up key using the map's heterogeneous-equality configuration
// (§3 Invariants: "integer keys may be looked up by any numeric
// representation of the same value").
func (m *Map) Get(key Value) (Value, bool) {
	h := m.keyHash(key)
	for _, idx := range m.index[h] {
		if m.keyEqual(m.entries[idx].key, key) {
			return m.entries[idx].val, true
		}
	}
	return nil, false
}

func (m *Map) Len() int { return len(m.entries) }

// Keys returns keys in insertion order, the iteration order required for
// comprehensions over a Map range (§4.9: "iterates keys in insertion
// order").
func (m *Map) Keys() []Value {
	keys := make([]Value, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

func (m *Map) Hash() uint64 {
	var h uint64 = 14695981039346656037
	for _, e := range m.entries {
		h ^= e.key.Hash()*31 + e.val.Hash()
	}
	return h
}

// Equal defaults to heterogeneous numeric equality for values; see
// Int.Equal. The standard library's `_==_` overload calls equalWith
// instead so map(K,V) comparisons honor the caller's actual setting.
func (m *Map) Equal(other Value) bool { return m.equalWith(other, true) }

// equalWith is Equal with the heterogeneous flag threaded down to each
// value comparison (key identity is governed separately by each map's own
// Heterogeneous construction-time setting via keyEqual/Get).
func (m *Map) equalWith(other Value, heterogeneous bool) bool {
	o, ok := other.(*Map)
	if !ok || m.Len() != o.Len() {
		return false
	}
	for _, e := range m.entries {
		ov, found := o.Get(e.key)
		if !found || !valueEqual(e.val, ov, heterogeneous) {
			return false
		}
	}
	return true
}

func (m *Map) DebugString() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.key.DebugString())
		b.WriteString(": ")
		b.WriteString(e.val.DebugString())
	}
	b.WriteByte('}')
	return b.String()
}
