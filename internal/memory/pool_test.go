package memory

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkPoolAllocate(t *testing.T) {
	p := NewChunkPool(CategoryTexture, 1024, 2)

	t.Run("FreshChunks", func(t *testing.T) {
		chunk, ok := p.Allocate("a")
		require.True(t, ok)
		assert.Len(t, chunk, 1024)

		_, ok = p.Allocate("b")
		require.True(t, ok)
		assert.Equal(t, 2, p.Used())
	})

	t.Run("Exhausted", func(t *testing.T) {
		_, ok := p.Allocate("c")
		assert.False(t, ok)
	})

	t.Run("ReuseAfterDeallocate", func(t *testing.T) {
		assert.True(t, p.Deallocate("a"))
		chunk, ok := p.Allocate("c")
		require.True(t, ok)
		assert.Len(t, chunk, 1024)
	})
}

func TestChunkPoolDeallocateUnknown(t *testing.T) {
	p := NewChunkPool(CategoryMesh, 512, 4)
	assert.False(t, p.Deallocate("never-allocated"))
}

func TestChunkPoolUtilization(t *testing.T) {
	p := NewChunkPool(CategoryAudio, 256, 4)
	assert.Equal(t, 0.0, p.Utilization())

	p.Allocate("x")
	p.Allocate("y")
	assert.Equal(t, 0.5, p.Utilization())

	t.Run("ZeroMaxChunks", func(t *testing.T) {
		empty := NewChunkPool(CategoryAudio, 256, 0)
		assert.Equal(t, 0.0, empty.Utilization())
	})
}

func TestChunkPoolShrink(t *testing.T) {
	p := NewChunkPool(CategoryWorldData, 64, 10)
	for i := 0; i < 6; i++ {
		p.Allocate(fmt.Sprintf("r%d", i))
	}
	for i := 0; i < 6; i++ {
		p.Deallocate(fmt.Sprintf("r%d", i))
	}
	require.Equal(t, 6, p.Available())

	p.Shrink(2)
	assert.Equal(t, 2, p.Available())

	p.Shrink(-1)
	assert.Equal(t, 0, p.Available())
}

// Pool invariant: after any sequence of allocate/deallocate,
// used + available never exceeds max chunks.
func TestChunkPoolInvariantUnderChurn(t *testing.T) {
	p := NewChunkPool(CategoryTemporary, 128, 8)
	rng := rand.New(rand.NewSource(42))
	live := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("id%d", rng.Intn(20))
		if live[id] && rng.Intn(2) == 0 {
			p.Deallocate(id)
			delete(live, id)
		} else if !live[id] {
			if _, ok := p.Allocate(id); ok {
				live[id] = true
			}
		}
		require.LessOrEqual(t, p.Used()+p.Available(), p.MaxChunks,
			"pool invariant violated at step %d", i)
	}
}

func TestPoolSetTable(t *testing.T) {
	ps := NewPoolSet()

	pool, ok := ps.Get(CategoryTexture)
	require.True(t, ok)
	assert.Equal(t, 1024*1024, pool.ChunkSize)
	assert.Equal(t, 50, pool.MaxChunks)

	_, ok = ps.Get(CategoryPhysics)
	assert.False(t, ok, "physics has no pool")

	t.Run("CapacityAndUsed", func(t *testing.T) {
		assert.Positive(t, ps.CapacityBytes())
		assert.Zero(t, ps.UsedBytes())

		pool.Allocate("t1")
		assert.Equal(t, int64(1024*1024), ps.UsedBytes())
	})
}

func TestChunkPoolChunkLookup(t *testing.T) {
	p := NewChunkPool(CategoryShader, 32, 2)
	p.Allocate("s1")

	chunk, ok := p.Chunk("s1")
	require.True(t, ok)
	assert.Len(t, chunk, 32)

	_, ok = p.Chunk("s2")
	assert.False(t, ok)
}
