package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateGrowsSlabs(t *testing.T) {
	a := New()
	total := 0
	for i := 0; i < 2000; i++ {
		b := a.Allocate(16, 8)
		assert.Len(t, b, 16)
		total += 16
	}
	assert.Equal(t, total, a.BytesUsed())
}

func TestReleaseRunsDestructorsInReverseOrder(t *testing.T) {
	a := New()
	var order []int
	a.OwnDestructor(func() { order = append(order, 1) })
	a.OwnDestructor(func() { order = append(order, 2) })
	a.Release()
	assert.Equal(t, []int{2, 1}, order)
}

func TestReleaseIsIdempotent(t *testing.T) {
	a := New()
	a.Release()
	assert.NotPanics(t, func() { a.Release() })
}

func TestAllocatorHeapBackedDestructorRunsImmediately(t *testing.T) {
	al := NewHeapAllocator()
	ran := false
	al.OwnDestructor(func() { ran = true })
	assert.True(t, ran)
	assert.False(t, al.IsArenaBacked())
}
