package planner

import (
	"testing"

	"github.com/cel-lang/celcore/internal/ast"
	"github.com/cel-lang/celcore/internal/functions"
	"github.com/cel-lang/celcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nextID ast.NodeID

func id() ast.NodeID {
	nextID++
	return nextID
}

func constInt(n int64) ast.Node { return &ast.Const{NodeID: id(), Value: types.Int(n)} }

func addIntRegistry() *functions.Registry {
	r := functions.NewRegistry()
	_ = r.Register("_+_", functions.Overload{
		ID:   "add_int",
		Args: []functions.ArgSpec{functions.Exact(types.IntKind), functions.Exact(types.IntKind)},
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			return args[0].(types.Int) + args[1].(types.Int)
		},
	})
	r.Freeze()
	return r
}

func TestPlanConstEmitsSingleStep(t *testing.T) {
	prog, err := Plan(ast.New(constInt(5)), Options{})
	require.NoError(t, err)
	require.Len(t, prog.Steps, 1)
	assert.Equal(t, StepConst, prog.Steps[0].Kind)
	assert.Equal(t, types.Int(5), prog.Steps[0].Const)
}

func TestPlanCallWithoutRegistryLeavesOverloadEmpty(t *testing.T) {
	expr := &ast.Call{NodeID: id(), Function: "_+_", Args: []ast.Node{constInt(1), constInt(2)}}
	prog, err := Plan(ast.New(expr), Options{})
	require.NoError(t, err)
	last := prog.Steps[len(prog.Steps)-1]
	assert.Equal(t, StepCall, last.Kind)
	assert.Empty(t, last.Overload)
	assert.False(t, last.ReceiverStyle)
}

func TestPlanCallPreResolvesOverloadWhenTyped(t *testing.T) {
	a, b := constInt(1), constInt(2)
	expr := &ast.Call{NodeID: id(), Function: "_+_", Args: []ast.Node{a, b}}
	checked := ast.New(expr)
	checked.Types[a.ID()] = types.IntType
	checked.Types[b.ID()] = types.IntType

	prog, err := Plan(checked, Options{Registry: addIntRegistry()})
	require.NoError(t, err)
	last := prog.Steps[len(prog.Steps)-1]
	assert.Equal(t, "add_int", last.Overload)
}

func TestConstantFoldingReplacesPureCallWithConst(t *testing.T) {
	a, b := constInt(2), constInt(3)
	expr := &ast.Call{NodeID: id(), Function: "_+_", Args: []ast.Node{a, b}}
	prog, err := Plan(ast.New(expr), Options{Registry: addIntRegistry(), EnableConstantFolding: true})
	require.NoError(t, err)
	require.Len(t, prog.Steps, 1)
	assert.Equal(t, StepConst, prog.Steps[0].Kind)
	assert.Equal(t, types.Int(5), prog.Steps[0].Const)
}

func TestConstantFoldingRejectsErroringFold(t *testing.T) {
	reg := functions.NewRegistry()
	_ = reg.Register("_/_", functions.Overload{
		ID:   "div_int",
		Args: []functions.ArgSpec{functions.Exact(types.IntKind), functions.Exact(types.IntKind)},
		Impl: func(args []types.Value, _ functions.CallContext) types.Value {
			b := args[1].(types.Int)
			if b == 0 {
				return types.NewError(types.ErrDivisionByZero, "division by zero")
			}
			return args[0].(types.Int) / b
		},
	})
	reg.Freeze()

	expr := &ast.Call{NodeID: id(), Function: "_/_", Args: []ast.Node{constInt(1), constInt(0)}}
	prog, err := Plan(ast.New(expr), Options{Registry: reg, EnableConstantFolding: true})
	require.NoError(t, err)
	last := prog.Steps[len(prog.Steps)-1]
	assert.Equal(t, StepCall, last.Kind, "an erroring fold must not collapse to a const step")
}

func TestConditionalJumpTargetsSkipBothArmsOnError(t *testing.T) {
	cond := constInt(1)
	then := constInt(10)
	els := constInt(20)
	expr := &ast.Call{NodeID: id(), Function: fnConditional, Args: []ast.Node{cond, then, els}}
	prog, err := Plan(ast.New(expr), Options{})
	require.NoError(t, err)

	var jmp *Step
	for i := range prog.Steps {
		if prog.Steps[i].Kind == StepJumpIfFalseOrError {
			jmp = &prog.Steps[i]
		}
	}
	require.NotNil(t, jmp)
	assert.Equal(t, len(prog.Steps), jmp.ErrTarget, "error/unknown target must be the end of the program, past both arms")
	assert.Less(t, jmp.Target, jmp.ErrTarget, "false-branch target must land before the error target")
}

func TestLogicalShortCircuitEmitsJumpIfAbsorbing(t *testing.T) {
	expr := &ast.Call{NodeID: id(), Function: fnLogicalAnd, Args: []ast.Node{constInt(0), constInt(1)}}
	prog, err := Plan(ast.New(expr), Options{EnableShortCircuiting: true})
	require.NoError(t, err)

	found := false
	for _, s := range prog.Steps {
		if s.Kind == StepJumpIfAbsorbing {
			found = true
			assert.Equal(t, types.Bool(false), s.Const, "&& absorbs on False")
		}
	}
	assert.True(t, found)
}

func TestLogicalWithoutShortCircuitAlwaysEvaluatesBothSides(t *testing.T) {
	expr := &ast.Call{NodeID: id(), Function: fnLogicalOr, Args: []ast.Node{constInt(0), constInt(1)}}
	prog, err := Plan(ast.New(expr), Options{EnableShortCircuiting: false})
	require.NoError(t, err)

	for _, s := range prog.Steps {
		assert.NotEqual(t, StepJumpIfAbsorbing, s.Kind)
	}
	last := prog.Steps[len(prog.Steps)-1]
	assert.Equal(t, StepOr2, last.Kind)
}

func TestComprehensionSlotsAreReclaimedForSiblings(t *testing.T) {
	makeComprehension := func() ast.Node {
		return &ast.Comprehension{
			NodeID:        id(),
			IterVar:       "x",
			AccuVar:       "acc",
			Range:         &ast.CreateList{NodeID: id()},
			AccuInit:      constInt(0),
			LoopCondition: &ast.Const{NodeID: id(), Value: types.Bool(true)},
			LoopStep:      &ast.Ident{NodeID: id(), Name: "acc"},
			Result:        &ast.Ident{NodeID: id(), Name: "acc"},
		}
	}
	// Two sibling (sequential, non-nested) comprehensions in one expression
	// should be able to reuse the same pair of slots rather than growing
	// SlotCount linearly.
	single, err := Plan(ast.New(makeComprehension()), Options{})
	require.NoError(t, err)

	siblings := &ast.CreateList{NodeID: id(), Elements: []ast.Node{makeComprehension(), makeComprehension()}}
	prog, err := Plan(ast.New(siblings), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, single.SlotCount)
	assert.Equal(t, single.SlotCount, prog.SlotCount)
}
