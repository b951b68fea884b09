package activation

import (
	"testing"

	"github.com/cel-lang/celcore/internal/attribute"
	"github.com/cel-lang/celcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindEagerBinding(t *testing.T) {
	a := New(map[string]types.Value{"x": types.Int(42)})
	v, ok := a.Find("x")
	require.True(t, ok)
	assert.Equal(t, types.Int(42), v)

	_, ok = a.Find("missing")
	assert.False(t, ok)
}

func TestFindLazyCachesAcrossCalls(t *testing.T) {
	calls := 0
	a := NewLazy(map[string]Thunk{
		"x": func() (types.Value, error) {
			calls++
			return types.Int(int64(calls)), nil
		},
	})

	thunk, ok := a.FindLazy("x")
	require.True(t, ok)

	v1, err := thunk()
	require.NoError(t, err)
	v2, err := thunk()
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls)
}

func TestHierarchicalFallsBackToParent(t *testing.T) {
	parent := New(map[string]types.Value{"a": types.Int(1)})
	child := New(map[string]types.Value{"b": types.Int(2)})
	combined := NewHierarchical(parent, child)

	v, ok := combined.Find("a")
	require.True(t, ok)
	assert.Equal(t, types.Int(1), v)

	v, ok = combined.Find("b")
	require.True(t, ok)
	assert.Equal(t, types.Int(2), v)
}

func TestUnknownAndMissingPatterns(t *testing.T) {
	a := NewWithPatterns(
		map[string]types.Value{},
		[]attribute.Pattern{attribute.NewPattern("x")},
		[]attribute.Pattern{attribute.NewPattern("y")},
	)
	assert.Len(t, a.UnknownPatterns(), 1)
	assert.Len(t, a.MissingPatterns(), 1)
}
