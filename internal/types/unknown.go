package types

import "sort"

// Unknown carries the set of attribute identifiers whose concrete value
// was withheld from this evaluation (§3 Value: Unknown variant). Members
// are canonical attribute-trail strings (root name plus qualifier path,
// e.g. "msg.field[3]") produced by the attribute package's Trail.String();
// Unknown itself stays trail-shape-agnostic to avoid a dependency on the
// attribute package (§4.7 AttributeTrail is a separate component).
type Unknown struct {
	IDs []string
}

// NewUnknown builds an Unknown set, deduplicating and sorting for
// deterministic DebugString/Hash output (§8 property 3: determinism).
func NewUnknown(ids ...string) Unknown {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return Unknown{IDs: out}
}

// MergeUnknown implements the "union of unknown sets" rule of §4.6's
// propagation table.
func MergeUnknown(a, b Unknown) Unknown {
	return NewUnknown(append(append([]string(nil), a.IDs...), b.IDs...)...)
}

func (Unknown) Kind() Kind { return UnknownKind }
func (Unknown) Type() Type { return UnknownType }

func (u Unknown) Hash() uint64 {
	var h uint64 = 14695981039346656037
	for _, id := range u.IDs {
		h ^= fnvHash(id)
	}
	return h
}

func (u Unknown) Equal(other Value) bool {
	o, ok := other.(Unknown)
	if !ok || len(u.IDs) != len(o.IDs) {
		return false
	}
	for i := range u.IDs {
		if u.IDs[i] != o.IDs[i] {
			return false
		}
	}
	return true
}

func (u Unknown) DebugString() string {
	s := "unknown("
	for i, id := range u.IDs {
		if i > 0 {
			s += ", "
		}
		s += id
	}
	return s + ")"
}

// IsUnknown reports whether v is an Unknown value.
func IsUnknown(v Value) bool {
	_, ok := v.(Unknown)
	return ok
}
