package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockAllocatorAlignment(t *testing.T) {
	b := NewBlockAllocator()
	now := time.Now()

	for _, alignment := range []int64{8, 16, 64, 256, 4096} {
		block := b.Allocate(100, alignment, CategoryTemporary, now)
		require.NotNil(t, block)
		assert.Zero(t, block.Address%uint64(alignment),
			"address %#x not aligned to %d", block.Address, alignment)
	}
}

func TestBlockAllocatorNoOverlap(t *testing.T) {
	b := NewBlockAllocator()
	now := time.Now()

	type span struct{ start, end uint64 }
	var spans []span
	for i := 0; i < 50; i++ {
		block := b.Allocate(int64(64+i*8), 16, CategoryTemporary, now)
		require.NotNil(t, block)
		spans = append(spans, span{block.Address, block.Address + uint64(block.Size)})
	}

	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			overlap := spans[i].start < spans[j].end && spans[j].start < spans[i].end
			assert.False(t, overlap, "blocks %d and %d overlap", i, j)
		}
	}
}

func TestBlockAllocatorFreeListReuse(t *testing.T) {
	b := NewBlockAllocator()
	now := time.Now()

	first := b.Allocate(1024, 8, CategoryTemporary, now)
	require.NotNil(t, first)
	b.Allocate(512, 8, CategoryTemporary, now)

	mark := b.Watermark()
	_, ok := b.Deallocate(first.ID)
	require.True(t, ok)

	// An equal-size allocation reuses the freed range; the watermark
	// does not advance.
	reused := b.Allocate(1024, 8, CategoryTemporary, now)
	require.NotNil(t, reused)
	assert.Equal(t, first.Address, reused.Address)
	assert.Equal(t, mark, b.Watermark())

	t.Run("SmallerFitsToo", func(t *testing.T) {
		b.Deallocate(reused.ID)
		smaller := b.Allocate(256, 8, CategoryTemporary, now)
		require.NotNil(t, smaller)
		assert.Equal(t, first.Address, smaller.Address)
		assert.Equal(t, mark, b.Watermark())
	})
}

func TestBlockAllocatorCoalescing(t *testing.T) {
	b := NewBlockAllocator()
	now := time.Now()

	x := b.Allocate(256, 8, CategoryTemporary, now)
	y := b.Allocate(256, 8, CategoryTemporary, now)
	z := b.Allocate(256, 8, CategoryTemporary, now)
	require.NotNil(t, z)

	// Free two adjacent ranges; they merge into one reusable span.
	b.Deallocate(x.ID)
	b.Deallocate(y.ID)

	merged := b.Allocate(512, 8, CategoryTemporary, now)
	require.NotNil(t, merged)
	assert.Equal(t, x.Address, merged.Address)
}

func TestBlockAllocatorDeallocateUnknown(t *testing.T) {
	b := NewBlockAllocator()
	_, ok := b.Deallocate("block_404")
	assert.False(t, ok)
}

func TestBlockAllocatorReset(t *testing.T) {
	b := NewBlockAllocator()
	now := time.Now()

	b.Allocate(1000, 8, CategoryTemporary, now)
	b.Allocate(2000, 8, CategoryTemporary, now)
	require.Equal(t, 2, b.Len())

	live := b.Reset()
	assert.Equal(t, int64(3000), live)
	assert.Zero(t, b.Len())
	assert.Equal(t, uint64(blockBaseAddress), b.Watermark())
}

func TestBlockAllocatorBadInput(t *testing.T) {
	b := NewBlockAllocator()
	now := time.Now()

	assert.Nil(t, b.Allocate(0, 8, CategoryTemporary, now))
	assert.Nil(t, b.Allocate(-5, 8, CategoryTemporary, now))

	// Non-power-of-two alignment falls back to 8.
	block := b.Allocate(64, 12, CategoryTemporary, now)
	require.NotNil(t, block)
	assert.Equal(t, int64(8), block.Alignment)
}
