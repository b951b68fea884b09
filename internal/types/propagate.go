package types

// Propagate2 implements the binary error/unknown propagation table of
// spec §4.6: unknown absorbs everything into a union; error wins over a
// plain value; two errors keep the first-encountered one. It returns
// (result, handled) — handled is false when both operands are plain
// values and the caller must apply its own operator-defined semantics.
func Propagate2(left, right Value) (Value, bool) {
	lu, lIsU := left.(Unknown)
	ru, rIsU := right.(Unknown)
	switch {
	case lIsU && rIsU:
		return MergeUnknown(lu, ru), true
	case lIsU:
		return lu, true
	case rIsU:
		return ru, true
	}
	le, lIsErr := left.(*ErrorVal)
	_, rIsErr := right.(*ErrorVal)
	switch {
	case lIsErr:
		return le, true
	case rIsErr:
		return right, true
	}
	return nil, false
}
