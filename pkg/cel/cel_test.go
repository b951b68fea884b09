package cel

import (
	"testing"

	"github.com/cel-lang/celcore/internal/ast"
	"github.com/cel-lang/celcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nextID ast.NodeID

func id() ast.NodeID {
	nextID++
	return nextID
}

func TestEnvPlanAndEval(t *testing.T) {
	env, err := NewEnv()
	require.NoError(t, err)

	expr := &ast.Call{
		NodeID:   id(),
		Function: "_+_",
		Args: []ast.Node{
			&ast.Ident{NodeID: id(), Name: "x"},
			&ast.Const{NodeID: id(), Value: types.Int(1)},
		},
	}
	prog, err := env.Plan(ast.New(expr))
	require.NoError(t, err)

	act, err := NewActivation(map[string]any{"x": 41})
	require.NoError(t, err)

	result, details, err := prog.Eval(act)
	require.NoError(t, err)
	assert.Nil(t, details)
	assert.Equal(t, types.Int(42), result)
}

func TestEvalContextCollectsTrace(t *testing.T) {
	env, err := NewEnv()
	require.NoError(t, err)

	expr := &ast.Const{NodeID: id(), Value: types.Int(7)}
	prog, err := env.Plan(ast.New(expr))
	require.NoError(t, err)

	act, err := NewActivation(nil)
	require.NoError(t, err)

	result, details, err := prog.EvalContext(nil, act, true) //nolint:staticcheck // nil ctx defaults to Background in EvalTraced
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.NotEmpty(t, details.Trace)
	assert.Equal(t, types.Int(7), result)
}

func TestMarshallerRoundTripsStructAndSlice(t *testing.T) {
	type inner struct {
		Name string
		Tags []string
	}
	m := &Marshaller{}
	v, err := m.ToValue(inner{Name: "widget", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	rec, ok := v.(*types.Map)
	require.True(t, ok)
	name, found := rec.Get(types.NewString("Name"))
	require.True(t, found)
	assert.Equal(t, "widget", name.(types.Str).String())
	tags, found := rec.Get(types.NewString("Tags"))
	require.True(t, found)
	assert.Equal(t, types.NewList([]types.Value{types.NewString("a"), types.NewString("b")}), tags)

	back, err := m.FromValue(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"Name": "widget", "Tags": []interface{}{"a", "b"}}, back)
}
