package recordprovider

import (
	"sync"

	"github.com/cel-lang/celcore/internal/types"
)

// StaticProvider is an in-memory RecordProvider for synthetic or test
// record types, grounded on Funxy's plain-map Environment storage
// discipline (internal/evaluator/environment.go) generalized from a
// variable scope to a type registry.
type StaticProvider struct {
	mu   sync.RWMutex
	defs map[string][]FieldDescriptor
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{defs: make(map[string][]FieldDescriptor)}
}

// RegisterType declares a record type's fields, in field-number order.
func (p *StaticProvider) RegisterType(typeName string, fields []FieldDescriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defs[typeName] = fields
}

func (p *StaticProvider) Known(typeName string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.defs[typeName]
	return ok
}

func (p *StaticProvider) Fields(typeName string) ([]FieldDescriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fields, ok := p.defs[typeName]
	if !ok {
		return nil, &ErrUnknownType{TypeName: typeName}
	}
	return fields, nil
}

func (p *StaticProvider) NewBuilder(typeName string) (Builder, error) {
	fields, err := p.Fields(typeName)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]FieldDescriptor, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	return &staticBuilder{
		typeName: typeName,
		byName:   byName,
		fields:   fields,
		values:   make(map[string]types.Value),
		setFlags: make(map[string]bool),
	}, nil
}

type staticBuilder struct {
	typeName string
	byName   map[string]FieldDescriptor
	fields   []FieldDescriptor
	values   map[string]types.Value
	setFlags map[string]bool
}

func (b *staticBuilder) SetField(name string, v types.Value) error {
	def, ok := b.byName[name]
	if !ok {
		return &ErrFieldNotFound{Field: name}
	}
	if !typeCompatible(def.Type, v.Type()) {
		return &ErrInvalidFieldType{Field: name, Want: def.Type, Got: v.Type()}
	}
	b.values[name] = v
	b.setFlags[name] = true
	return nil
}

func (b *staticBuilder) Build() (*types.Record, error) {
	handle := &staticHandle{
		typeName: b.typeName,
		fields:   b.fields,
		byName:   b.byName,
		values:   b.values,
		setFlags: b.setFlags,
	}
	return types.NewRecord(handle), nil
}

func typeCompatible(want, got types.Type) bool {
	if want == nil || got == nil {
		return true
	}
	if want == types.DynType { // Dyn accepts any kind (§4.4 resolution rule 2)
		return true
	}
	return want.Equal(got)
}

// staticHandle implements types.RecordHandle over the builder's captured
// field values, applying the default-value and presence rules of §4.5:
// primitives return their zero value, repeated fields return an empty
// list, and message-typed fields return null (not an empty record) unless
// the field's Default supplies a value; hasField follows proto3
// default-is-unset for scalars and explicit presence for
// messages/wrappers.
type staticHandle struct {
	typeName string
	fields   []FieldDescriptor
	byName   map[string]FieldDescriptor
	values   map[string]types.Value
	setFlags map[string]bool
}

func (h *staticHandle) TypeName() string { return h.typeName }

func (h *staticHandle) FieldNames() []string {
	names := make([]string, len(h.fields))
	for i, f := range h.fields {
		names[i] = f.Name
	}
	return names
}

func (h *staticHandle) GetField(name string) (types.Value, bool) {
	def, ok := h.byName[name]
	if !ok {
		return nil, false
	}
	if v, set := h.values[name]; set {
		return v, true
	}
	if def.Default != nil {
		return def.Default(), true
	}
	return zeroValueFor(def.Type), true
}

func (h *staticHandle) GetFieldByNumber(number int32) (types.Value, bool) {
	for _, f := range h.fields {
		if f.Number == number {
			return h.GetField(f.Name)
		}
	}
	return nil, false
}

func (h *staticHandle) HasField(name string) bool {
	def, ok := h.byName[name]
	if !ok {
		return false
	}
	if def.ExplicitPresence {
		return h.setFlags[name]
	}
	v, set := h.values[name]
	if !set {
		return false
	}
	return !valuesEqual(v, zeroValueFor(def.Type))
}

func valuesEqual(a, b types.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

// zeroValueFor returns the protobuf-style default for a field type:
// primitives return their zero, list and map fields return an empty
// container, and every other type (including record types) returns null;
// no empty record is constructed here.
func zeroValueFor(t types.Type) types.Value {
	switch tt := t.(type) {
	case nil:
		return types.Null{}
	case types.ListT:
		return types.NewList(nil)
	case types.MapT:
		return types.NewMap(true)
	default:
		switch tt.Kind() {
		case types.BoolKind:
			return types.Bool(false)
		case types.IntKind:
			return types.Int(0)
		case types.UintKind:
			return types.Uint(0)
		case types.DoubleKind:
			return types.Double(0)
		case types.StringKind:
			return types.NewString("")
		case types.BytesKind:
			return types.NewBytes(nil)
		default:
			return types.Null{}
		}
	}
}
