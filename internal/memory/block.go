package memory

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrOutOfBudget is returned when a scratch block does not fit under
// the global budget even after one reclamation pass.
var ErrOutOfBudget = errors.New("membudget: out of budget")

const blockBaseAddress = 0x10000000

type freeRange struct {
	addr uint64
	size int64
}

// BlockAllocator hands out aligned scratch ranges from a simulated
// address space. Freed ranges enter an address-ordered free list and
// are reused first-fit with coalescing, so the watermark only advances
// when nothing freed fits. Reset rewinds the whole arena.
type BlockAllocator struct {
	blocks    map[string]*MemoryBlock
	freeList  []freeRange
	watermark uint64
	nextID    uint64
}

func NewBlockAllocator() *BlockAllocator {
	return &BlockAllocator{
		blocks:    make(map[string]*MemoryBlock),
		watermark: blockBaseAddress,
	}
}

func alignUp(addr uint64, alignment int64) uint64 {
	a := uint64(alignment)
	return (addr + a - 1) &^ (a - 1)
}

// Allocate carves an aligned block. Budget checks belong to the caller;
// this only does placement.
func (b *BlockAllocator) Allocate(size, alignment int64, cat Category, now time.Time) *MemoryBlock {
	if size <= 0 {
		return nil
	}
	if alignment <= 0 || alignment&(alignment-1) != 0 {
		alignment = 8
	}

	addr, reused := b.takeFromFreeList(size, alignment)
	if !reused {
		addr = alignUp(b.watermark, alignment)
		// The alignment gap ahead of the block is unusable; the
		// watermark jumps over it.
		b.watermark = addr + uint64(size)
	}

	b.nextID++
	block := &MemoryBlock{
		ID:          fmt.Sprintf("block_%d", b.nextID),
		Address:     addr,
		Size:        size,
		Alignment:   alignment,
		Category:    cat,
		AllocatedAt: now,
	}
	b.blocks[block.ID] = block
	return block
}

// takeFromFreeList finds the first free range that fits size at the
// requested alignment and carves the block out of it.
func (b *BlockAllocator) takeFromFreeList(size, alignment int64) (uint64, bool) {
	for i, r := range b.freeList {
		aligned := alignUp(r.addr, alignment)
		lead := int64(aligned - r.addr)
		if lead+size > r.size {
			continue
		}

		b.freeList = append(b.freeList[:i], b.freeList[i+1:]...)
		if lead > 0 {
			b.insertFree(freeRange{addr: r.addr, size: lead})
		}
		if tail := r.size - lead - size; tail > 0 {
			b.insertFree(freeRange{addr: aligned + uint64(size), size: tail})
		}
		return aligned, true
	}
	return 0, false
}

// Deallocate removes a live block and recycles its range.
func (b *BlockAllocator) Deallocate(id string) (*MemoryBlock, bool) {
	block, exists := b.blocks[id]
	if !exists {
		return nil, false
	}
	delete(b.blocks, id)
	b.insertFree(freeRange{addr: block.Address, size: block.Size})
	return block, true
}

// insertFree keeps the free list address-ordered and merges neighbors.
func (b *BlockAllocator) insertFree(r freeRange) {
	i := sort.Search(len(b.freeList), func(i int) bool {
		return b.freeList[i].addr >= r.addr
	})
	b.freeList = append(b.freeList, freeRange{})
	copy(b.freeList[i+1:], b.freeList[i:])
	b.freeList[i] = r

	// Merge with the next range, then the previous one.
	if i+1 < len(b.freeList) && r.addr+uint64(r.size) == b.freeList[i+1].addr {
		b.freeList[i].size += b.freeList[i+1].size
		b.freeList = append(b.freeList[:i+1], b.freeList[i+2:]...)
	}
	if i > 0 {
		prev := b.freeList[i-1]
		if prev.addr+uint64(prev.size) == b.freeList[i].addr {
			b.freeList[i-1].size += b.freeList[i].size
			b.freeList = append(b.freeList[:i], b.freeList[i+1:]...)
		}
	}
}

// Reset rewinds the arena: drops every live block and the free list.
// Returns the bytes that were still live so the caller can credit its
// counters. Intended for between-tick scratch use.
func (b *BlockAllocator) Reset() int64 {
	var live int64
	for _, block := range b.blocks {
		live += block.Size
	}
	b.blocks = make(map[string]*MemoryBlock)
	b.freeList = nil
	b.watermark = blockBaseAddress
	return live
}

func (b *BlockAllocator) Len() int { return len(b.blocks) }

// Watermark exposes the high-water address for inspection.
func (b *BlockAllocator) Watermark() uint64 { return b.watermark }
