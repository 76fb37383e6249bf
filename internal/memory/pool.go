package memory

// ChunkPool keeps fixed-size zeroed buffers for one category so small,
// frequent allocations skip general allocation. A buffer is either in
// the available queue or in the allocated map, never both. Pool
// exhaustion is not an error: bytes stay governed by the ledger alone.
type ChunkPool struct {
	Category  Category
	ChunkSize int
	MaxChunks int

	available [][]byte
	allocated map[string][]byte
}

func NewChunkPool(cat Category, chunkSize, maxChunks int) *ChunkPool {
	return &ChunkPool{
		Category:  cat,
		ChunkSize: chunkSize,
		MaxChunks: maxChunks,
		allocated: make(map[string][]byte),
	}
}

// Allocate hands out a chunk for id: a recycled one when available, a
// fresh zero-filled one while under MaxChunks, nothing when exhausted.
func (p *ChunkPool) Allocate(id string) ([]byte, bool) {
	if len(p.available) > 0 {
		chunk := p.available[0]
		p.available = p.available[1:]
		p.allocated[id] = chunk
		return chunk, true
	}
	if len(p.allocated) < p.MaxChunks {
		chunk := make([]byte, p.ChunkSize)
		p.allocated[id] = chunk
		return chunk, true
	}
	return nil, false
}

// Deallocate returns id's chunk to the available queue.
func (p *ChunkPool) Deallocate(id string) bool {
	chunk, exists := p.allocated[id]
	if !exists {
		return false
	}
	delete(p.allocated, id)
	p.available = append(p.available, chunk)
	return true
}

// Chunk returns the live buffer for id, if pooled.
func (p *ChunkPool) Chunk(id string) ([]byte, bool) {
	chunk, exists := p.allocated[id]
	return chunk, exists
}

func (p *ChunkPool) Utilization() float64 {
	if p.MaxChunks == 0 {
		return 0
	}
	return float64(len(p.allocated)) / float64(p.MaxChunks)
}

// Shrink discards available chunks beyond targetFree, actually freeing
// memory.
func (p *ChunkPool) Shrink(targetFree int) {
	if targetFree < 0 {
		targetFree = 0
	}
	for len(p.available) > targetFree {
		p.available = p.available[:len(p.available)-1]
	}
}

func (p *ChunkPool) Used() int      { return len(p.allocated) }
func (p *ChunkPool) Available() int { return len(p.available) }

// PoolSet is the per-category pool table. Categories without an entry
// always allocate directly.
type PoolSet struct {
	pools map[Category]*ChunkPool
}

func NewPoolSet() *PoolSet {
	configs := []struct {
		cat       Category
		chunkSize int
		maxChunks int
	}{
		{CategoryTexture, 1024 * 1024, 50},
		{CategoryMesh, 512 * 1024, 100},
		{CategoryAudio, 256 * 1024, 30},
		{CategoryWorldData, 64 * 1024, 200},
		{CategoryShader, 32 * 1024, 50},
		{CategoryTemporary, 4 * 1024, 500},
	}

	ps := &PoolSet{pools: make(map[Category]*ChunkPool, len(configs))}
	for _, c := range configs {
		ps.pools[c.cat] = NewChunkPool(c.cat, c.chunkSize, c.maxChunks)
	}
	return ps
}

func (ps *PoolSet) Get(cat Category) (*ChunkPool, bool) {
	p, exists := ps.pools[cat]
	return p, exists
}

func (ps *PoolSet) ForEach(fn func(*ChunkPool)) {
	for _, p := range ps.pools {
		fn(p)
	}
}

// CapacityBytes is the total pool-governed capacity.
func (ps *PoolSet) CapacityBytes() int64 {
	var total int64
	for _, p := range ps.pools {
		total += int64(p.MaxChunks) * int64(p.ChunkSize)
	}
	return total
}

// UsedBytes is the capacity currently held by live chunks.
func (ps *PoolSet) UsedBytes() int64 {
	var total int64
	for _, p := range ps.pools {
		total += int64(len(p.allocated)) * int64(p.ChunkSize)
	}
	return total
}
