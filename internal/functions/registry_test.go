package functions

import (
	"testing"

	"github.com/cel-lang/celcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExactBeatsDyn(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("f", Overload{
		ID: "f_dyn", Args: []ArgSpec{Any()}, Result: types.IntKind,
		Impl: func(args []types.Value, ctx CallContext) types.Value { return types.Int(1) },
	}))
	require.NoError(t, r.Register("f", Overload{
		ID: "f_int", Args: []ArgSpec{Exact(types.IntKind)}, Result: types.IntKind,
		Impl: func(args []types.Value, ctx CallContext) types.Value { return types.Int(2) },
	}))
	r.Freeze()

	result := r.Invoke("f", []types.Value{types.Int(5)}, false, CallContext{})
	assert.Equal(t, types.Int(2), result)
}

func TestResolveNoMatchProducesError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("f", Overload{
		ID: "f_int", Args: []ArgSpec{Exact(types.IntKind)}, Result: types.IntKind,
		Impl: func(args []types.Value, ctx CallContext) types.Value { return types.Int(1) },
	}))
	r.Freeze()

	result := r.Invoke("f", []types.Value{types.NewString("x")}, false, CallContext{})
	errVal, ok := result.(*types.ErrorVal)
	require.True(t, ok)
	assert.Equal(t, types.ErrNoSuchOverload, errVal.Code)
}

func TestRegisterAfterFreezeFails(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	err := r.Register("f", Overload{ID: "x", Args: nil})
	assert.Error(t, err)
}

func TestReceiverStyleFiltersCandidates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("size", Overload{
		ID: "size_string_receiver", Args: []ArgSpec{Exact(types.StringKind)},
		ReceiverStyle: true, Result: types.IntKind,
		Impl: func(args []types.Value, ctx CallContext) types.Value { return types.Int(1) },
	}))
	r.Freeze()

	_, err := r.Resolve("size", []types.Kind{types.StringKind}, false)
	require.Error(t, err)

	ov, noErr := r.Resolve("size", []types.Kind{types.StringKind}, true)
	require.Nil(t, noErr)
	assert.Equal(t, "size_string_receiver", ov.ID)
}
