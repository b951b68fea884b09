package types

// RecordHandle is the minimal field-access contract a Record Value needs
// from its owning RecordProvider (§4.5). Defining it here rather than
// importing the recordprovider package avoids a dependency cycle: Record
// is a non-owning handle into provider-managed storage (§3 Lifecycles:
// "Records owned by the RecordProvider may outlive any single evaluation,
// in which case the Value carries a non-owning handle").
type RecordHandle interface {
	TypeName() string
	GetField(name string) (Value, bool)
	GetFieldByNumber(number int32) (Value, bool)
	HasField(name string) bool
	FieldNames() []string
}

// Record is a structured value identified by a fully qualified type name
// with field access by name and number (§3 Value: Record variant).
type Record struct {
	Handle RecordHandle
}

func NewRecord(h RecordHandle) *Record { return &Record{Handle: h} }

func (*Record) Kind() Kind   { return RecordKind }
func (r *Record) Type() Type { return RecordT{Name: r.Handle.TypeName()} }

func (r *Record) Hash() uint64 {
	h := fnvHash(r.Handle.TypeName())
	for _, name := range r.Handle.FieldNames() {
		if v, ok := r.Handle.GetField(name); ok {
			h ^= fnvHash(name)*31 + v.Hash()
		}
	}
	return h
}

// Equal defaults to heterogeneous numeric equality for field values; see
// Int.Equal. Equality that must honor the caller's actual RuntimeOption
// goes through equalWith.
func (r *Record) Equal(other Value) bool { return r.equalWith(other, true) }

func (r *Record) equalWith(other Value, heterogeneous bool) bool {
	o, ok := other.(*Record)
	if !ok || r.Handle.TypeName() != o.Handle.TypeName() {
		return false
	}
	for _, name := range r.Handle.FieldNames() {
		a, _ := r.Handle.GetField(name)
		b, _ := o.Handle.GetField(name)
		if a == nil || b == nil || !valueEqual(a, b, heterogeneous) {
			return false
		}
	}
	return true
}

func (r *Record) DebugString() string {
	s := r.Handle.TypeName() + "{"
	for i, name := range r.Handle.FieldNames() {
		if i > 0 {
			s += ", "
		}
		v, _ := r.Handle.GetField(name)
		s += name + ": "
		if v != nil {
			s += v.DebugString()
		}
	}
	return s + "}"
}

// GetField looks up a field by name, following the RecordProvider's
// default-value rules for unset fields (§4.5).
func (r *Record) GetField(name string) (Value, bool) { return r.Handle.GetField(name) }

// HasField implements the `has()` presence test (§4.5 hasField).
func (r *Record) HasField(name string) bool { return r.Handle.HasField(name) }
