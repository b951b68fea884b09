// Package types implements the CEL runtime value and static type universe:
// a tagged-variant model covering primitives, temporal values, bytes and
// strings, lists, maps, records, type values, errors, and unknown sets.
package types

// Kind identifies the variant of a Value or Type without allocation.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	IntKind
	UintKind
	DoubleKind
	StringKind
	BytesKind
	DurationKind
	TimestampKind
	ListKind
	MapKind
	RecordKind
	TypeKind
	ErrorKind
	UnknownKind
	OptKind
)

var kindNames = map[Kind]string{
	NullKind:      "null_type",
	BoolKind:      "bool",
	IntKind:       "int",
	UintKind:      "uint",
	DoubleKind:    "double",
	StringKind:    "string",
	BytesKind:     "bytes",
	DurationKind:  "google.protobuf.Duration",
	TimestampKind: "google.protobuf.Timestamp",
	ListKind:      "list",
	MapKind:       "map",
	RecordKind:    "record",
	TypeKind:      "type",
	ErrorKind:     "error",
	UnknownKind:   "unknown",
	OptKind:       "optional",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown_kind"
}

// IsNumeric reports whether the kind participates in heterogeneous numeric
// equality.
func (k Kind) IsNumeric() bool {
	return k == IntKind || k == UintKind || k == DoubleKind
}
