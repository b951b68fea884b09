package types_test

import (
	"testing"

	"github.com/cel-lang/celcore/internal/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property-based checks for the heterogeneous equality invariants of §3
// ("int/uint/double equality is reflexive, symmetric, and agrees with
// mathematical value regardless of which numeric kind each side is"),
// grounded on the onflow-cadence example repo's gopter usage in
// runtime/interpreter/number_test.go (gopter.NewProperties + prop.ForAll
// over generated numeric inputs).
func TestHeterogeneousEqualityIsSymmetric(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("Equal(a, b, true) == Equal(b, a, true) for any two ints", prop.ForAll(
		func(a, b int64) bool {
			ab := types.Equal(types.Int(a), types.Int(b), true)
			ba := types.Equal(types.Int(b), types.Int(a), true)
			return ab.(types.Bool) == ba.(types.Bool)
		},
		gen.Int64(),
		gen.Int64(),
	))

	properties.Property("an int and a double holding the same value are heterogeneously equal", prop.ForAll(
		func(n int32) bool {
			v := int64(n)
			return bool(types.Equal(types.Int(v), types.Double(float64(v)), true).(types.Bool))
		},
		gen.Int32(),
	))

	properties.Property("a non-negative int and a uint holding the same value are heterogeneously equal", prop.ForAll(
		func(n uint32) bool {
			return bool(types.Equal(types.Int(int64(n)), types.Uint(uint64(n)), true).(types.Bool))
		},
		gen.UInt32(),
	))

	properties.Property("heterogeneous equality is reflexive for doubles", prop.ForAll(
		func(n int64) bool {
			f := float64(n)
			return bool(types.Equal(types.Double(f), types.Double(f), true).(types.Bool))
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
