// Package stdlib registers the standard library of spec §4.10 into a
// functions.Registry: arithmetic, comparisons, string/bytes, container
// membership, temporal, and type-introspection overloads. The
// name-keyed-table-of-Builtin registration style is grounded on Funxy's
// internal/evaluator/builtins_std.go and builtins_bytes.go
// (BytesBuiltins() map[string]*Builtin), generalized here from a single
// implementation per name to the arity/kind-based overload table of §4.4:
// each call below is one Overload appended under its operator/function
// name, and the Registry itself resolves which one applies.
package stdlib

import (
	"regexp"
	"strings"

	"github.com/cel-lang/celcore/internal/functions"
	"github.com/cel-lang/celcore/internal/types"
)

// index function name; index expressions reach the standard library as
// ordinary `_[_]` calls (field selection is a separate Select step).
const fnIndex = "_[_]"

// Register installs the full standard library into reg. reg must not be
// frozen yet; call reg.Freeze() after Register returns.
func Register(reg *functions.Registry) error {
	for _, step := range []func(*functions.Registry) error{
		registerArithmetic,
		registerComparisons,
		registerLogicalHelpers,
		registerStringBytes,
		registerContainers,
		registerTemporal,
		registerTypeIntrospection,
	} {
		if err := step(reg); err != nil {
			return err
		}
	}
	return nil
}

func reg1(r *functions.Registry, name, id string, a types.Kind, result types.Kind, fn func(a types.Value) types.Value) error {
	return r.Register(name, functions.Overload{
		ID:     id,
		Args:   []functions.ArgSpec{functions.Exact(a)},
		Result: result,
		Impl:   func(args []types.Value, _ functions.CallContext) types.Value { return fn(args[0]) },
	})
}

func reg2(r *functions.Registry, name, id string, a, b types.Kind, result types.Kind, fn func(a, b types.Value) types.Value) error {
	return r.Register(name, functions.Overload{
		ID:     id,
		Args:   []functions.ArgSpec{functions.Exact(a), functions.Exact(b)},
		Result: result,
		Impl:   func(args []types.Value, _ functions.CallContext) types.Value { return fn(args[0], args[1]) },
	})
}

// reg1r registers both the free-function and receiver-style call forms of
// a unary function (e.g. `size(x)` and `x.size()` both resolve to the
// same implementation, matching real-world CEL's size() overload set).
func reg1r(r *functions.Registry, name, id string, a types.Kind, result types.Kind, fn func(a types.Value) types.Value) error {
	impl := func(args []types.Value, _ functions.CallContext) types.Value { return fn(args[0]) }
	if err := r.Register(name, functions.Overload{ID: id, Args: []functions.ArgSpec{functions.Exact(a)}, Result: result, Impl: impl}); err != nil {
		return err
	}
	return r.Register(name, functions.Overload{ID: id + "_recv", Args: []functions.ArgSpec{functions.Exact(a)}, Result: result, ReceiverStyle: true, Impl: impl})
}

// registerArithmetic implements `_+_`, `_-_`, `_*_`, `_/_`, `_%_`, unary
// `-_` over Int/Uint/Double with the overflow/division-by-zero rules of
// §4.1, plus string/bytes/list `+` concatenation (the same operator name,
// different overloads, resolved by argument kind per §4.4).
func registerArithmetic(r *functions.Registry) error {
	type binNumOp struct {
		suffix string
		i      func(a, b types.Int) types.Value
		u      func(a, b types.Uint) types.Value
		d      func(a, b types.Double) types.Value
	}
	ops := []binNumOp{
		{"add", types.AddInt, types.AddUint, func(a, b types.Double) types.Value { return a + b }},
		{"sub", types.SubInt, types.SubUint, func(a, b types.Double) types.Value { return a - b }},
		{"mul", types.MulInt, types.MulUint, func(a, b types.Double) types.Value { return a * b }},
		{"div", types.DivInt, types.DivUint, func(a, b types.Double) types.Value { return a / b }},
	}
	names := map[string]string{"add": "_+_", "sub": "_-_", "mul": "_*_", "div": "_/_"}
	for _, op := range ops {
		name := names[op.suffix]
		if err := reg2(r, name, op.suffix+"_int", types.IntKind, types.IntKind, types.IntKind,
			func(a, b types.Value) types.Value { return op.i(a.(types.Int), b.(types.Int)) }); err != nil {
			return err
		}
		if err := reg2(r, name, op.suffix+"_uint", types.UintKind, types.UintKind, types.UintKind,
			func(a, b types.Value) types.Value { return op.u(a.(types.Uint), b.(types.Uint)) }); err != nil {
			return err
		}
		if err := reg2(r, name, op.suffix+"_double", types.DoubleKind, types.DoubleKind, types.DoubleKind,
			func(a, b types.Value) types.Value { return op.d(a.(types.Double), b.(types.Double)) }); err != nil {
			return err
		}
	}

	if err := reg2(r, "_%_", "mod_int", types.IntKind, types.IntKind, types.IntKind,
		func(a, b types.Value) types.Value { return types.ModInt(a.(types.Int), b.(types.Int)) }); err != nil {
		return err
	}
	if err := reg2(r, "_%_", "mod_uint", types.UintKind, types.UintKind, types.UintKind,
		func(a, b types.Value) types.Value { return types.ModUint(a.(types.Uint), b.(types.Uint)) }); err != nil {
		return err
	}

	if err := reg1(r, "-_", "neg_int", types.IntKind, types.IntKind,
		func(a types.Value) types.Value { return types.NegInt(a.(types.Int)) }); err != nil {
		return err
	}
	if err := reg1(r, "-_", "neg_double", types.DoubleKind, types.DoubleKind,
		func(a types.Value) types.Value { return -a.(types.Double) }); err != nil {
		return err
	}

	// String/bytes/list `+` concatenation shares the `_+_` name with the
	// numeric overloads above; Resolve picks the matching kind pair.
	if err := reg2(r, "_+_", "add_string", types.StringKind, types.StringKind, types.StringKind,
		func(a, b types.Value) types.Value { return a.(types.Str).Concat(b.(types.Str)) }); err != nil {
		return err
	}
	if err := r.Register("_+_", functions.Overload{
		ID:     "add_bytes",
		Args:   []functions.ArgSpec{functions.Exact(types.BytesKind), functions.Exact(types.BytesKind)},
		Result: types.BytesKind,
		Impl: func(args []types.Value, ctx functions.CallContext) types.Value {
			return args[0].(types.Bytes).ConcatArena(args[1].(types.Bytes), ctx.Arena)
		},
	}); err != nil {
		return err
	}
	if err := r.Register("_+_", functions.Overload{
		ID:     "add_list",
		Args:   []functions.ArgSpec{functions.Exact(types.ListKind), functions.Exact(types.ListKind)},
		Result: types.ListKind,
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			la, lb := args[0].(*types.List), args[1].(*types.List)
			elems := make([]types.Value, 0, la.Len()+lb.Len())
			elems = append(elems, la.Elems...)
			elems = append(elems, lb.Elems...)
			return types.NewList(elems)
		},
	}); err != nil {
		return err
	}

	// Temporal `+`/`-` (§4.1 Temporal semantics) share the arithmetic
	// operator names too.
	if err := reg2(r, "_+_", "add_timestamp_duration", types.TimestampKind, types.DurationKind, types.TimestampKind,
		func(a, b types.Value) types.Value {
			return types.AddTimestampDuration(a.(types.Timestamp), b.(types.Duration))
		}); err != nil {
		return err
	}
	if err := reg2(r, "_+_", "add_duration_duration", types.DurationKind, types.DurationKind, types.DurationKind,
		func(a, b types.Value) types.Value { return types.AddDurations(a.(types.Duration), b.(types.Duration)) }); err != nil {
		return err
	}
	if err := reg2(r, "_-_", "sub_timestamp_duration", types.TimestampKind, types.DurationKind, types.TimestampKind,
		func(a, b types.Value) types.Value {
			return types.SubTimestampDuration(a.(types.Timestamp), b.(types.Duration))
		}); err != nil {
		return err
	}
	if err := reg2(r, "_-_", "sub_timestamp_timestamp", types.TimestampKind, types.TimestampKind, types.DurationKind,
		func(a, b types.Value) types.Value {
			return types.SubTimestamps(a.(types.Timestamp), b.(types.Timestamp))
		}); err != nil {
		return err
	}
	if err := reg2(r, "_-_", "sub_duration_duration", types.DurationKind, types.DurationKind, types.DurationKind,
		func(a, b types.Value) types.Value {
			return types.AddDurations(a.(types.Duration), types.Duration{Nanos: -b.(types.Duration).Nanos})
		}); err != nil {
		return err
	}
	return nil
}

// registerComparisons implements `_<_`, `_<=_`, `_>_`, `_>=_`, `_==_`,
// `_!=_` over the orderable kinds, with `_==_`/`_!=_` honoring
// enableHeterogeneousEquality via CallContext (§6).
func registerComparisons(r *functions.Registry) error {
	orderable := []struct {
		kind    types.Kind
		compare func(a, b types.Value) int
	}{
		{types.IntKind, func(a, b types.Value) int { return cmpOrdered(int64(a.(types.Int)), int64(b.(types.Int))) }},
		{types.UintKind, func(a, b types.Value) int { return cmpOrdered(uint64(a.(types.Uint)), uint64(b.(types.Uint))) }},
		{types.DoubleKind, func(a, b types.Value) int { return cmpOrdered(float64(a.(types.Double)), float64(b.(types.Double))) }},
		{types.StringKind, func(a, b types.Value) int { return a.(types.Str).Compare(b.(types.Str)) }},
		{types.BytesKind, func(a, b types.Value) int { return a.(types.Bytes).Compare(b.(types.Bytes)) }},
		{types.TimestampKind, func(a, b types.Value) int {
			return cmpOrdered(a.(types.Timestamp).Nanos, b.(types.Timestamp).Nanos)
		}},
		{types.DurationKind, func(a, b types.Value) int {
			return cmpOrdered(a.(types.Duration).Nanos, b.(types.Duration).Nanos)
		}},
	}
	type relOp struct {
		name string
		ok   func(c int) bool
	}
	rels := []relOp{
		{"_<_", func(c int) bool { return c < 0 }},
		{"_<=_", func(c int) bool { return c <= 0 }},
		{"_>_", func(c int) bool { return c > 0 }},
		{"_>=_", func(c int) bool { return c >= 0 }},
	}
	for _, ord := range orderable {
		for _, rel := range rels {
			compare, okFn := ord.compare, rel.ok
			if err := reg2(r, rel.name, rel.name+"_"+ord.kind.String(), ord.kind, ord.kind, types.BoolKind,
				func(a, b types.Value) types.Value { return types.Bool(okFn(compare(a, b))) }); err != nil {
				return err
			}
		}
	}

	if err := r.Register("_==_", functions.Overload{
		ID:   "equals",
		Args: []functions.ArgSpec{functions.Any(), functions.Any()},
		Impl: func(args []types.Value, ctx functions.CallContext) types.Value {
			return types.Equal(args[0], args[1], ctx.HeterogeneousEquality)
		},
	}); err != nil {
		return err
	}
	if err := r.Register("_!=_", functions.Overload{
		ID:   "not_equals",
		Args: []functions.ArgSpec{functions.Any(), functions.Any()},
		Impl: func(args []types.Value, ctx functions.CallContext) types.Value {
			eq := types.Equal(args[0], args[1], ctx.HeterogeneousEquality)
			if b, ok := eq.(types.Bool); ok {
				return !b
			}
			return eq
		},
	}); err != nil {
		return err
	}
	return nil
}

func cmpOrdered[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// registerLogicalHelpers installs `!_` negation; `_&&_`/`_||_` and `_?_:_`
// are lowered by the planner to dedicated steps (§4.8) and never reach the
// registry, but unary negation is an ordinary call.
func registerLogicalHelpers(r *functions.Registry) error {
	return reg1(r, "!_", "logical_not", types.BoolKind, types.BoolKind,
		func(a types.Value) types.Value { return !a.(types.Bool) })
}

// registerStringBytes implements size/concatenation/matches/contains/
// startsWith/endsWith plus the string()/bytes() conversion functions of
// §4.10.
func registerStringBytes(r *functions.Registry) error {
	if err := reg1r(r, "size", "size_string", types.StringKind, types.IntKind,
		func(a types.Value) types.Value { return types.Int(a.(types.Str).Size()) }); err != nil {
		return err
	}
	if err := reg1r(r, "size", "size_bytes", types.BytesKind, types.IntKind,
		func(a types.Value) types.Value { return types.Int(a.(types.Bytes).Size()) }); err != nil {
		return err
	}
	if err := reg1r(r, "size", "size_list", types.ListKind, types.IntKind,
		func(a types.Value) types.Value { return types.Int(a.(*types.List).Len()) }); err != nil {
		return err
	}
	if err := reg1r(r, "size", "size_map", types.MapKind, types.IntKind,
		func(a types.Value) types.Value { return types.Int(a.(*types.Map).Len()) }); err != nil {
		return err
	}

	if err := r.Register("matches", functions.Overload{
		ID:            "matches_string",
		Args:          []functions.ArgSpec{functions.Exact(types.StringKind), functions.Exact(types.StringKind)},
		Result:        types.BoolKind,
		ReceiverStyle: true,
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			target := args[0].(types.Str).String()
			pattern := args[1].(types.Str).String()
			re, err := regexp.Compile(pattern)
			if err != nil {
				return types.NewError(types.ErrInvalidArgument, "invalid regular expression %q: %v", pattern, err)
			}
			return types.Bool(re.MatchString(target))
		},
	}); err != nil {
		return err
	}

	type strPred struct {
		name string
		fn   func(s, sub string) bool
	}
	for _, p := range []strPred{
		{"contains", strings.Contains},
		{"startsWith", strings.HasPrefix},
		{"endsWith", strings.HasSuffix},
	} {
		pred := p.fn
		if err := r.Register(p.name, functions.Overload{
			ID:            p.name + "_string",
			Args:          []functions.ArgSpec{functions.Exact(types.StringKind), functions.Exact(types.StringKind)},
			Result:        types.BoolKind,
			ReceiverStyle: true,
			Impl: func(args []types.Value, _ functions.CallContext) types.Value {
				return types.Bool(pred(args[0].(types.Str).String(), args[1].(types.Str).String()))
			},
		}); err != nil {
			return err
		}
	}

	for _, from := range []types.Kind{types.StringKind, types.BytesKind, types.IntKind, types.UintKind, types.DoubleKind, types.BoolKind} {
		k := from
		if err := reg1(r, "string", "string_from_"+k.String(), k, types.StringKind, types.ToStringValue); err != nil {
			return err
		}
	}
	if err := reg1(r, "bytes", "bytes_from_string", types.StringKind, types.BytesKind,
		func(a types.Value) types.Value { return types.NewBytes([]byte(a.(types.Str).String())) }); err != nil {
		return err
	}
	return nil
}

// registerContainers implements `_[_]` index, `in` membership, and
// `get(key, default)` for maps (§4.10).
func registerContainers(r *functions.Registry) error {
	if err := r.Register(fnIndex, functions.Overload{
		ID:     "index_list",
		Args:   []functions.ArgSpec{functions.Exact(types.ListKind), functions.Exact(types.IntKind)},
		Result: types.DynType.Kind(),
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			l := args[0].(*types.List)
			i := int64(args[1].(types.Int))
			if i < 0 || i >= int64(l.Len()) {
				return types.NewError(types.ErrNoSuchKey, "index %d out of range for list of size %d", i, l.Len())
			}
			v, _ := l.Get(int(i))
			return v
		},
	}); err != nil {
		return err
	}
	if err := r.Register(fnIndex, functions.Overload{
		ID:     "index_map",
		Args:   []functions.ArgSpec{functions.Exact(types.MapKind), functions.Any()},
		Result: types.DynType.Kind(),
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			m := args[0].(*types.Map)
			v, ok := m.Get(args[1])
			if !ok {
				return types.NewError(types.ErrNoSuchKey, "no such key: %s", args[1].DebugString())
			}
			return v
		},
	}); err != nil {
		return err
	}

	if err := r.Register("in", functions.Overload{
		ID:     "in_list",
		Args:   []functions.ArgSpec{functions.Any(), functions.Exact(types.ListKind)},
		Result: types.BoolKind,
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			l := args[1].(*types.List)
			for _, e := range l.Elems {
				if eq := types.Equal(args[0], e, true); eq == types.Bool(true) {
					return types.Bool(true)
				}
			}
			return types.Bool(false)
		},
	}); err != nil {
		return err
	}
	if err := r.Register("in", functions.Overload{
		ID:     "in_map",
		Args:   []functions.ArgSpec{functions.Any(), functions.Exact(types.MapKind)},
		Result: types.BoolKind,
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			_, ok := args[1].(*types.Map).Get(args[0])
			return types.Bool(ok)
		},
	}); err != nil {
		return err
	}

	if err := r.Register("get", functions.Overload{
		ID:            "get_map_default",
		Args:          []functions.ArgSpec{functions.Exact(types.MapKind), functions.Any(), functions.Any()},
		Result:        types.DynType.Kind(),
		ReceiverStyle: true,
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			m := args[0].(*types.Map)
			if v, ok := m.Get(args[1]); ok {
				return v
			}
			return args[2]
		},
	}); err != nil {
		return err
	}
	return nil
}

// registerTemporal implements timestamp()/duration() parsing, component
// accessors with optional IANA zone, and is grounded on the numeric +/-
// overloads already wired in registerArithmetic.
func registerTemporal(r *functions.Registry) error {
	if err := reg1(r, "timestamp", "timestamp_from_string", types.StringKind, types.TimestampKind,
		func(a types.Value) types.Value { return types.ParseTimestamp(a.(types.Str).String()) }); err != nil {
		return err
	}
	if err := reg1(r, "duration", "duration_from_string", types.StringKind, types.DurationKind,
		func(a types.Value) types.Value { return types.ParseDuration(a.(types.Str).String()) }); err != nil {
		return err
	}

	components := []string{
		"getFullYear", "getMonth", "getDayOfMonth", "getDate",
		"getDayOfWeek", "getHours", "getMinutes", "getSeconds", "getMilliseconds",
	}
	for _, name := range components {
		component := name
		if err := r.Register(name, functions.Overload{
			ID:            component + "_timestamp",
			Args:          []functions.ArgSpec{functions.Exact(types.TimestampKind)},
			Result:        types.IntKind,
			ReceiverStyle: true,
			Impl: func(args []types.Value, _ functions.CallContext) types.Value {
				return types.TimestampComponent(args[0].(types.Timestamp), component, "")
			},
		}); err != nil {
			return err
		}
		if err := r.Register(name, functions.Overload{
			ID:            component + "_timestamp_zone",
			Args:          []functions.ArgSpec{functions.Exact(types.TimestampKind), functions.Exact(types.StringKind)},
			Result:        types.IntKind,
			ReceiverStyle: true,
			Impl: func(args []types.Value, _ functions.CallContext) types.Value {
				zone := args[1].(types.Str).String()
				return types.TimestampComponent(args[0].(types.Timestamp), component, zone)
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// registerTypeIntrospection implements `type()` (§4.10); `has()` lowers to
// the planner's StepHas rather than a registry call (§4.8 Select
// lowering), so there is no overload for it here.
func registerTypeIntrospection(r *functions.Registry) error {
	return r.Register("type", functions.Overload{
		ID:     "type_of",
		Args:   []functions.ArgSpec{functions.Any()},
		Result: types.TypeOfType.Kind(),
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			return typeValue{t: args[0].Type()}
		},
	})
}

// typeValue is the Value wrapper for a type() result: a first-class Type
// treated as an opaque, equal-by-name Value (§3 Value: Type variant).
type typeValue struct{ t types.Type }

func (typeValue) Kind() types.Kind      { return types.TypeOfType.Kind() }
func (v typeValue) Type() types.Type    { return types.TypeOfType }
func (v typeValue) Hash() uint64        { return hashString(v.t.String()) }
func (v typeValue) DebugString() string { return v.t.String() }
func (v typeValue) Equal(other types.Value) bool {
	o, ok := other.(typeValue)
	return ok && v.t.Equal(o.t)
}

func hashString(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
