package arena

// Allocator uniformly exposes either arena-backed or heap-backed
// allocation and is the only allocation API the rest of the core uses
// (§4.2: "A separate Allocator façade uniformly exposes either... and is
// the only API the rest of the core uses"). Value/Type construction in
// this codebase goes through plain Go `new`/composite literals (letting
// the garbage collector own heap objects); Allocator exists for raw byte
// buffers (Bytes concatenation carves its result out of it) and for
// hosts that want to bound an evaluation's memory footprint by supplying
// an *Arena.
type Allocator struct {
	arena *Arena // nil means heap-backed
}

// NewHeapAllocator returns a façade that delegates every call to the Go
// heap/GC — used when the caller supplies no arena (spec §4.2, §9
// "arena bounds the evaluator's memory use... unless the caller extracts
// the result into a longer-lived arena").
func NewHeapAllocator() *Allocator { return &Allocator{} }

// NewArenaAllocator returns a façade backed by a.
func NewArenaAllocator(a *Arena) *Allocator { return &Allocator{arena: a} }

// Allocate reserves n bytes aligned to align. Heap-backed allocators
// ignore align and simply make a fresh slice.
func (al *Allocator) Allocate(n int, align int) []byte {
	if al.arena != nil {
		return al.arena.Allocate(n, align)
	}
	return make([]byte, n)
}

// OwnDestructor registers a cleanup to run at arena release time; for a
// heap-backed allocator there is no release point, so the destructor runs
// immediately to avoid leaking resources silently.
func (al *Allocator) OwnDestructor(fn func()) {
	if al.arena != nil {
		al.arena.OwnDestructor(fn)
		return
	}
	fn()
}

// IsArenaBacked reports whether this façade owns a scoped arena.
func (al *Allocator) IsArenaBacked() bool { return al.arena != nil }
