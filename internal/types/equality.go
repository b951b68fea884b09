package types

// Equal is the top-level equality entry point used by the standard
// library's `_==_`/`_!=_` overloads. It honors heterogeneous numeric
// equality per §3 Invariants, gated by the caller-supplied flag (the
// evaluator threads RuntimeOptions.enableHeterogeneousEquality through
// here).
func Equal(a, b Value, heterogeneous bool) Value {
	return Bool(valueEqual(a, b, heterogeneous))
}

// valueEqual threads the heterogeneous-equality flag through container
// equality too, so `[1] == [1u]` and nested cases (a map whose values are
// lists of numbers, an optional wrapping a number, ...) respect the same
// flag a top-level scalar comparison does, rather than always comparing
// heterogeneously regardless of the caller's setting.
func valueEqual(a, b Value, heterogeneous bool) bool {
	if a.Kind().IsNumeric() && b.Kind().IsNumeric() {
		return NumericEqual(a, b, heterogeneous)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *List:
		return av.equalWith(b, heterogeneous)
	case *Map:
		return av.equalWith(b, heterogeneous)
	case Opt:
		return av.equalWith(b, heterogeneous)
	case *Record:
		return av.equalWith(b, heterogeneous)
	default:
		return a.Equal(b)
	}
}
