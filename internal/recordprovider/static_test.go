package recordprovider

import (
	"testing"

	"github.com/cel-lang/celcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider() *StaticProvider {
	p := NewStaticProvider()
	p.RegisterType("demo.Point", []FieldDescriptor{
		{Name: "x", Number: 1, Type: types.IntType},
		{Name: "y", Number: 2, Type: types.IntType},
		{Name: "label", Number: 3, Type: types.StringType},
	})
	return p
}

func TestBuilderSetFieldAndBuild(t *testing.T) {
	p := testProvider()
	b, err := p.NewBuilder("demo.Point")
	require.NoError(t, err)
	require.NoError(t, b.SetField("x", types.Int(3)))
	require.NoError(t, b.SetField("y", types.Int(4)))

	rec, err := b.Build()
	require.NoError(t, err)

	v, ok := rec.GetField("x")
	require.True(t, ok)
	assert.Equal(t, types.Int(3), v)

	label, ok := rec.GetField("label")
	require.True(t, ok)
	assert.Equal(t, types.NewString(""), label)
}

func TestBuilderUnknownFieldIsNotFound(t *testing.T) {
	p := testProvider()
	b, err := p.NewBuilder("demo.Point")
	require.NoError(t, err)

	err = b.SetField("z", types.Int(1))
	require.Error(t, err)
	_, ok := err.(*ErrFieldNotFound)
	assert.True(t, ok)
}

func TestBuilderTypeMismatchIsInvalidArgument(t *testing.T) {
	p := testProvider()
	b, err := p.NewBuilder("demo.Point")
	require.NoError(t, err)

	err = b.SetField("x", types.NewString("nope"))
	require.Error(t, err)
	_, ok := err.(*ErrInvalidFieldType)
	assert.True(t, ok)
}

func TestHasFieldFollowsPresenceDiscipline(t *testing.T) {
	p := testProvider()
	b, _ := p.NewBuilder("demo.Point")
	require.NoError(t, b.SetField("x", types.Int(0)))
	rec, _ := b.Build()

	assert.False(t, rec.HasField("y"))
	assert.False(t, rec.HasField("x"), "scalar set to its zero value is absent under proto3 presence rules")
}

func TestWellKnownWrapperConversion(t *testing.T) {
	sp := NewStaticProvider()
	sp.RegisterType("google.protobuf.Int32Value", []FieldDescriptor{
		{Name: "value", Number: 1, Type: types.IntType},
	})
	b, _ := sp.NewBuilder("google.protobuf.Int32Value")
	require.NoError(t, b.SetField("value", types.Int(42)))
	rec, _ := b.Build()

	v, ok := ConvertWellKnown("google.protobuf.Int32Value", rec.Handle)
	require.True(t, ok)
	assert.Equal(t, types.Int(42), v)
}

func TestWellKnownTimestampConversion(t *testing.T) {
	sp := NewStaticProvider()
	sp.RegisterType("google.protobuf.Timestamp", []FieldDescriptor{
		{Name: "seconds", Number: 1, Type: types.IntType},
		{Name: "nanos", Number: 2, Type: types.IntType},
	})
	b, _ := sp.NewBuilder("google.protobuf.Timestamp")
	require.NoError(t, b.SetField("seconds", types.Int(100)))
	require.NoError(t, b.SetField("nanos", types.Int(5)))
	rec, _ := b.Build()

	v, ok := ConvertWellKnown("google.protobuf.Timestamp", rec.Handle)
	require.True(t, ok)
	assert.Equal(t, types.Timestamp{Nanos: 100*1e9 + 5}, v)
}
