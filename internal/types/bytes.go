package types

import (
	"bytes"
	"fmt"

	"github.com/cel-lang/celcore/internal/arena"
)

// Bytes is an immutable octet sequence with the same chunked-backing
// discipline as Str (§4.1 String semantics — "same backing discipline").
type Bytes struct {
	chunks [][]byte
}

func NewBytes(b []byte) Bytes { return Bytes{chunks: [][]byte{b}} }

func (Bytes) Kind() Kind { return BytesKind }
func (Bytes) Type() Type { return BytesType }

func (b Bytes) Raw() []byte {
	if len(b.chunks) == 1 {
		return b.chunks[0]
	}
	var buf bytes.Buffer
	for _, c := range b.chunks {
		buf.Write(c)
	}
	return buf.Bytes()
}

func (b Bytes) Concat(other Bytes) Bytes {
	out := make([][]byte, 0, len(b.chunks)+len(other.chunks))
	out = append(out, b.chunks...)
	out = append(out, other.chunks...)
	return Bytes{chunks: out}
}

// ConcatArena is Concat but, when alloc is non-nil, copies both sides into
// one contiguous region carved out of alloc rather than growing the rope —
// unlike Str, Bytes' chunks are already raw []byte, so the result needs no
// further copy to hand back to the caller (§4.2: Allocator is "the only
// API the rest of the core uses" for this kind of scratch buffer).
func (b Bytes) ConcatArena(other Bytes, alloc *arena.Allocator) Bytes {
	if alloc == nil {
		return b.Concat(other)
	}
	buf := alloc.Allocate(b.Size()+other.Size(), 1)
	n := 0
	for _, c := range b.chunks {
		n += copy(buf[n:], c)
	}
	for _, c := range other.chunks {
		n += copy(buf[n:], c)
	}
	return Bytes{chunks: [][]byte{buf}}
}

// Size returns the octet count (§4.1: Bytes size() returns octet count).
func (b Bytes) Size() int {
	n := 0
	for _, c := range b.chunks {
		n += len(c)
	}
	return n
}

func (b Bytes) Hash() uint64 { return fnvHash(string(b.Raw())) }
func (b Bytes) DebugString() string {
	return fmt.Sprintf("b%q", b.Raw())
}
func (b Bytes) Equal(other Value) bool {
	o, ok := other.(Bytes)
	return ok && bytes.Equal(b.Raw(), o.Raw())
}

// Compare orders lexicographically by octet (§3 Invariants).
func (b Bytes) Compare(other Bytes) int {
	return bytes.Compare(b.Raw(), other.Raw())
}
