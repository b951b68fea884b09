package stdlib

import (
	"math"
	"testing"

	"github.com/cel-lang/celcore/internal/functions"
	"github.com/cel-lang/celcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *functions.Registry {
	t.Helper()
	r := functions.NewRegistry()
	require.NoError(t, Register(r))
	r.Freeze()
	return r
}

func invoke(t *testing.T, r *functions.Registry, name string, receiver bool, args ...types.Value) types.Value {
	t.Helper()
	return r.Invoke(name, args, receiver, functions.CallContext{HeterogeneousEquality: true})
}

func TestArithmeticOverflow(t *testing.T) {
	r := newRegistry(t)
	v := invoke(t, r, "_+_", false, types.Int(math.MaxInt64), types.Int(1))
	errVal, ok := v.(*types.ErrorVal)
	require.True(t, ok)
	assert.Equal(t, types.ErrOverflow, errVal.Code)
}

func TestArithmeticDivisionByZero(t *testing.T) {
	r := newRegistry(t)
	v := invoke(t, r, "_/_", false, types.Int(1), types.Int(0))
	errVal, ok := v.(*types.ErrorVal)
	require.True(t, ok)
	assert.Equal(t, types.ErrDivisionByZero, errVal.Code)
}

func TestStringConcatAndSize(t *testing.T) {
	r := newRegistry(t)
	cat := invoke(t, r, "_+_", false, types.NewString("foo"), types.NewString("bar"))
	assert.Equal(t, "foobar", cat.(types.Str).String())

	size := invoke(t, r, "size", true, types.NewString("hello"))
	assert.Equal(t, types.Int(5), size)
}

func TestHeterogeneousEquality(t *testing.T) {
	r := newRegistry(t)
	eq := invoke(t, r, "_==_", false, types.Int(3), types.Double(3.0))
	assert.Equal(t, types.Bool(true), eq)
}

func TestContainsStartsEndsWith(t *testing.T) {
	r := newRegistry(t)
	assert.Equal(t, types.Bool(true), invoke(t, r, "contains", true, types.NewString("hello world"), types.NewString("wor")))
	assert.Equal(t, types.Bool(true), invoke(t, r, "startsWith", true, types.NewString("hello"), types.NewString("he")))
	assert.Equal(t, types.Bool(true), invoke(t, r, "endsWith", true, types.NewString("hello"), types.NewString("lo")))
}

func TestListIndexOutOfRange(t *testing.T) {
	r := newRegistry(t)
	list := types.NewList([]types.Value{types.Int(1), types.Int(2)})
	v := invoke(t, r, "_[_]", false, list, types.Int(5))
	errVal, ok := v.(*types.ErrorVal)
	require.True(t, ok)
	assert.Equal(t, types.ErrNoSuchKey, errVal.Code)
}

func TestMapGetWithDefault(t *testing.T) {
	r := newRegistry(t)
	m := types.NewMap(true).Put(types.NewString("a"), types.Int(1))
	present := invoke(t, r, "get", true, m, types.NewString("a"), types.Int(-1))
	assert.Equal(t, types.Int(1), present)
	missing := invoke(t, r, "get", true, m, types.NewString("z"), types.Int(-1))
	assert.Equal(t, types.Int(-1), missing)
}

func TestInMembership(t *testing.T) {
	r := newRegistry(t)
	list := types.NewList([]types.Value{types.Int(1), types.Int(2), types.Int(3)})
	assert.Equal(t, types.Bool(true), invoke(t, r, "in", false, types.Int(2), list))
	assert.Equal(t, types.Bool(false), invoke(t, r, "in", false, types.Int(9), list))
}

func TestTemporalParseAndComponent(t *testing.T) {
	r := newRegistry(t)
	ts := invoke(t, r, "timestamp", false, types.NewString("2023-06-15T10:20:30Z"))
	tsVal, ok := ts.(types.Timestamp)
	require.True(t, ok)
	year := invoke(t, r, "getFullYear", true, tsVal)
	assert.Equal(t, types.Int(2023), year)
}

func TestTypeIntrospection(t *testing.T) {
	r := newRegistry(t)
	tv := invoke(t, r, "type", false, types.Int(5))
	assert.Equal(t, "int", tv.DebugString())
}
