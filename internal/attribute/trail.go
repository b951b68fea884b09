// Package attribute implements the symbolic attribute trail of spec §4.7:
// a trace of how the value on a stack slot was derived, used to test
// against unknown/missing attribute patterns.
package attribute

import (
	"fmt"
	"strconv"
	"strings"
)

// Qualifier is one step in a trail: a literal field/index key or, in a
// pattern, a wildcard matching any key at that position.
type Qualifier struct {
	// Exactly one of these is set, selected by Kind.
	Kind QualifierKind
	Str  string
	Int  int64
	Uint uint64
	Bool bool
}

type QualifierKind uint8

const (
	QualString QualifierKind = iota
	QualInt
	QualUint
	QualBool
	QualWildcard
)

func StringQualifier(s string) Qualifier { return Qualifier{Kind: QualString, Str: s} }
func IntQualifier(i int64) Qualifier     { return Qualifier{Kind: QualInt, Int: i} }
func UintQualifier(u uint64) Qualifier   { return Qualifier{Kind: QualUint, Uint: u} }
func BoolQualifier(b bool) Qualifier     { return Qualifier{Kind: QualBool, Bool: b} }
func Wildcard() Qualifier                { return Qualifier{Kind: QualWildcard} }

func (q Qualifier) String() string {
	switch q.Kind {
	case QualString:
		return q.Str
	case QualInt:
		return strconv.FormatInt(q.Int, 10)
	case QualUint:
		return strconv.FormatUint(q.Uint, 10)
	case QualBool:
		return strconv.FormatBool(q.Bool)
	default:
		return "*"
	}
}

// literalMatches reports whether a concrete qualifier equals a pattern
// qualifier, used by Pattern.Matches (§4.3: "each qualifier is either a
// literal key... or a wildcard... literal-matches or the pattern has a
// wildcard").
func (q Qualifier) literalMatches(pattern Qualifier) bool {
	if pattern.Kind == QualWildcard {
		return true
	}
	if q.Kind != pattern.Kind {
		return false
	}
	switch q.Kind {
	case QualString:
		return q.Str == pattern.Str
	case QualInt:
		return q.Int == pattern.Int
	case QualUint:
		return q.Uint == pattern.Uint
	case QualBool:
		return q.Bool == pattern.Bool
	default:
		return true
	}
}

// Trail is either empty or (rootName, qualifiers...) (§4.7). Produced by
// ident steps (root) and extended one qualifier per select/index step.
type Trail struct {
	Root       string
	Qualifiers []Qualifier
	empty      bool
}

// Empty returns the trail carried by values with no known attribute
// provenance (e.g. constants).
func Empty() Trail { return Trail{empty: true} }

// Root starts a new trail at a top-level identifier.
func Root(name string) Trail { return Trail{Root: name} }

// IsEmpty reports whether this trail carries no provenance.
func (t Trail) IsEmpty() bool { return t.empty }

// Extend returns a new trail with q appended, used by select/index steps
// (§4.7: "extended by select/index steps (one qualifier per step)").
func (t Trail) Extend(q Qualifier) Trail {
	if t.empty {
		return t
	}
	next := make([]Qualifier, len(t.Qualifiers)+1)
	copy(next, t.Qualifiers)
	next[len(next)-1] = q
	return Trail{Root: t.Root, Qualifiers: next}
}

// String renders the canonical form used as the Unknown-set member id
// (types.Unknown.IDs), e.g. "msg.field[3]".
func (t Trail) String() string {
	if t.empty {
		return ""
	}
	var b strings.Builder
	b.WriteString(t.Root)
	for _, q := range t.Qualifiers {
		if q.Kind == QualString {
			b.WriteByte('.')
			b.WriteString(q.Str)
		} else {
			fmt.Fprintf(&b, "[%s]", q.String())
		}
	}
	return b.String()
}

// Pattern is a root variable name plus a qualifier path (§4.3 Activation:
// "Attribute patterns are a root variable name plus a qualifier path").
type Pattern struct {
	Root       string
	Qualifiers []Qualifier
}

func NewPattern(root string, qualifiers ...Qualifier) Pattern {
	return Pattern{Root: root, Qualifiers: qualifiers}
}

// Matches reports whether trail t matches pattern p: the qualifier path
// is a prefix and each corresponding qualifier literal-matches or the
// pattern has a wildcard at that position (§4.3).
func (p Pattern) Matches(t Trail) bool {
	if t.empty || t.Root != p.Root {
		return false
	}
	if len(p.Qualifiers) > len(t.Qualifiers) {
		return false
	}
	for i, pq := range p.Qualifiers {
		if !t.Qualifiers[i].literalMatches(pq) {
			return false
		}
	}
	return true
}

// MatchesAny reports whether trail t matches any pattern in patterns.
func MatchesAny(t Trail, patterns []Pattern) (Pattern, bool) {
	for _, p := range patterns {
		if p.Matches(t) {
			return p, true
		}
	}
	return Pattern{}, false
}
