package interpreter

import (
	"context"
	"testing"
	"time"

	"github.com/cel-lang/celcore/internal/activation"
	"github.com/cel-lang/celcore/internal/ast"
	"github.com/cel-lang/celcore/internal/attribute"
	"github.com/cel-lang/celcore/internal/functions"
	"github.com/cel-lang/celcore/internal/planner"
	"github.com/cel-lang/celcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nextID ast.NodeID

func id() ast.NodeID {
	nextID++
	return nextID
}

func constInt(n int64) ast.Node  { return &ast.Const{NodeID: id(), Value: types.Int(n)} }
func constBool(b bool) ast.Node  { return &ast.Const{NodeID: id(), Value: types.Bool(b)} }
func ident(name string) ast.Node { return &ast.Ident{NodeID: id(), Name: name} }

func call(fn string, args ...ast.Node) ast.Node {
	return &ast.Call{NodeID: id(), Function: fn, Args: args}
}

func run(t *testing.T, root ast.Node, act activation.Activation, reg *functions.Registry, opts Options) types.Value {
	t.Helper()
	if act == nil {
		act = activation.New(nil)
	}
	if reg == nil {
		reg = functions.NewRegistry()
		reg.Freeze()
	}
	checked := ast.New(root)
	prog, err := planner.Plan(checked, planner.Options{EnableShortCircuiting: opts.EnableShortCircuiting})
	require.NoError(t, err)
	v, err := Eval(prog, act, reg, nil, opts, nil, context.Background())
	require.NoError(t, err)
	return v
}

func TestEvalConst(t *testing.T) {
	v := run(t, constInt(42), nil, nil, Options{})
	assert.Equal(t, types.Int(42), v)
}

func TestEvalLookup(t *testing.T) {
	act := activation.New(map[string]types.Value{"x": types.Int(7)})
	v := run(t, ident("x"), act, nil, Options{})
	assert.Equal(t, types.Int(7), v)
}

func TestEvalLookupMissingIsNoSuchAttribute(t *testing.T) {
	v := run(t, ident("missing"), nil, nil, Options{})
	errVal, ok := v.(*types.ErrorVal)
	require.True(t, ok)
	assert.Equal(t, types.ErrNoSuchAttribute, errVal.Code)
}

func addRegistry() *functions.Registry {
	reg := functions.NewRegistry()
	_ = reg.Register("_+_", functions.Overload{
		ID:   "add_int",
		Args: []functions.ArgSpec{functions.Exact(types.IntKind), functions.Exact(types.IntKind)},
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			return args[0].(types.Int) + args[1].(types.Int)
		},
	})
	reg.Freeze()
	return reg
}

func TestEvalCallResolvesOverload(t *testing.T) {
	reg := addRegistry()
	v := run(t, call("_+_", constInt(2), constInt(3)), nil, reg, Options{})
	assert.Equal(t, types.Int(5), v)
}

func TestEvalCallPropagatesFirstError(t *testing.T) {
	reg := addRegistry()
	bad := ident("nope")
	v := run(t, call("_+_", bad, constInt(3)), nil, reg, Options{})
	errVal, ok := v.(*types.ErrorVal)
	require.True(t, ok)
	assert.Equal(t, types.ErrNoSuchAttribute, errVal.Code)
}

func TestConditionalSelectsBranch(t *testing.T) {
	cond := &ast.Call{NodeID: id(), Function: "_?_:_", Args: []ast.Node{constBool(true), constInt(1), constInt(2)}}
	assert.Equal(t, types.Int(1), run(t, cond, nil, nil, Options{}))

	cond2 := &ast.Call{NodeID: id(), Function: "_?_:_", Args: []ast.Node{constBool(false), constInt(1), constInt(2)}}
	assert.Equal(t, types.Int(2), run(t, cond2, nil, nil, Options{}))
}

func TestConditionalErrorSkipsBothArms(t *testing.T) {
	cond := &ast.Call{NodeID: id(), Function: "_?_:_", Args: []ast.Node{ident("missing"), constInt(1), constInt(2)}}
	v := run(t, cond, nil, nil, Options{})
	errVal, ok := v.(*types.ErrorVal)
	require.True(t, ok)
	assert.Equal(t, types.ErrNoSuchAttribute, errVal.Code)
}

func TestLogicalAndFalseAbsorbsError(t *testing.T) {
	and := &ast.Call{NodeID: id(), Function: "_&&_", Args: []ast.Node{constBool(false), ident("missing")}}
	v := run(t, and, nil, nil, Options{EnableShortCircuiting: true})
	assert.Equal(t, types.Bool(false), v)
}

func TestLogicalAndErrorThenFalseStillAbsorbs(t *testing.T) {
	and := &ast.Call{NodeID: id(), Function: "_&&_", Args: []ast.Node{ident("missing"), constBool(false)}}
	v := run(t, and, nil, nil, Options{EnableShortCircuiting: true})
	assert.Equal(t, types.Bool(false), v, "commutative short circuit: a later False still wins over an earlier error")
}

func TestLogicalOrTrueAbsorbsError(t *testing.T) {
	or := &ast.Call{NodeID: id(), Function: "_||_", Args: []ast.Node{constBool(true), ident("missing")}}
	v := run(t, or, nil, nil, Options{EnableShortCircuiting: true})
	assert.Equal(t, types.Bool(true), v)
}

func TestComprehensionSumsListWithAccumulator(t *testing.T) {
	reg := addRegistry()
	list := &ast.CreateList{NodeID: id(), Elements: []ast.Node{constInt(1), constInt(2), constInt(3)}}
	comp := &ast.Comprehension{
		NodeID:        id(),
		IterVar:       "x",
		Range:         list,
		AccuVar:       "acc",
		AccuInit:      constInt(0),
		LoopCondition: constBool(true),
		LoopStep:      call("_+_", ident("acc"), ident("x")),
		Result:        ident("acc"),
	}
	v := run(t, comp, nil, reg, Options{EnableShortCircuiting: true})
	assert.Equal(t, types.Int(6), v)
}

func TestComprehensionOverMapIteratesKeyInsertionOrder(t *testing.T) {
	reg := addRegistry()
	m := &ast.CreateMap{NodeID: id(), Entries: []ast.MapEntry{
		{Key: &ast.Const{NodeID: id(), Value: types.NewString("a")}, Value: constInt(1)},
		{Key: &ast.Const{NodeID: id(), Value: types.NewString("b")}, Value: constInt(2)},
	}}
	comp := &ast.Comprehension{
		NodeID:        id(),
		IterVar:       "k",
		Range:         m,
		AccuVar:       "count",
		AccuInit:      constInt(0),
		LoopCondition: constBool(true),
		LoopStep:      call("_+_", ident("count"), constInt(1)),
		Result:        ident("count"),
	}
	v := run(t, comp, nil, reg, Options{EnableShortCircuiting: true})
	assert.Equal(t, types.Int(2), v)
}

func TestComprehensionIterationLimitProducesFatalishErrorValue(t *testing.T) {
	reg := addRegistry()
	list := &ast.CreateList{NodeID: id(), Elements: []ast.Node{constInt(1), constInt(2), constInt(3), constInt(4)}}
	comp := &ast.Comprehension{
		NodeID:        id(),
		IterVar:       "x",
		Range:         list,
		AccuVar:       "acc",
		AccuInit:      constInt(0),
		LoopCondition: constBool(true),
		LoopStep:      call("_+_", ident("acc"), ident("x")),
		Result:        ident("acc"),
	}
	v := run(t, comp, nil, reg, Options{EnableShortCircuiting: true, ComprehensionMaxIterations: 2})
	errVal, ok := v.(*types.ErrorVal)
	require.True(t, ok)
	assert.Equal(t, types.ErrIterationLimit, errVal.Code)
}

func TestUnknownAttributeTrackingSurfacesUnknown(t *testing.T) {
	act := activation.NewWithPatterns(map[string]types.Value{"x": types.Int(1)}, []attribute.Pattern{
		attribute.NewPattern("x"),
	}, nil)
	v := run(t, ident("x"), act, nil, Options{UnknownTracking: UnknownAttributeOnly})
	u, ok := v.(types.Unknown)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, u.IDs)
}

func TestCancellationSurfacesAsErrorValue(t *testing.T) {
	reg := addRegistry()
	// Build a comprehension with enough iterations to cross the dispatch
	// checkInterval so the context deadline has a chance to be observed.
	elems := make([]ast.Node, 0, checkInterval*2)
	for i := 0; i < checkInterval*2; i++ {
		elems = append(elems, constInt(1))
	}
	list := &ast.CreateList{NodeID: id(), Elements: elems}
	comp := &ast.Comprehension{
		NodeID:        id(),
		IterVar:       "x",
		Range:         list,
		AccuVar:       "acc",
		AccuInit:      constInt(0),
		LoopCondition: constBool(true),
		LoopStep:      call("_+_", ident("acc"), ident("x")),
		Result:        ident("acc"),
	}
	checked := ast.New(comp)
	prog, err := planner.Plan(checked, planner.Options{EnableShortCircuiting: true})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	v, err := Eval(prog, activation.New(nil), reg, nil, Options{EnableShortCircuiting: true}, nil, ctx)
	require.NoError(t, err)
	errVal, ok := v.(*types.ErrorVal)
	require.True(t, ok)
	assert.Equal(t, types.ErrCancelled, errVal.Code)
}
