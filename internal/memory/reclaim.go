package memory

import (
	"container/heap"
	"time"
)

// gcCandidate is one collectible record found during a sweep.
type gcCandidate struct {
	id       string
	priority Priority
	idle     time.Duration
}

// candidateHeap orders eviction: most eviction-eager priority first,
// longest idle first within a priority. Keeps eviction order stable
// without sorting the whole registry.
type candidateHeap []gcCandidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].idle > h[j].idle
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(gcCandidate))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// collectCandidates does the single O(n) pass over the registry.
// A record is collectible iff it is not Critical, holds no external
// references, and has idled past its priority threshold.
func (m *Manager) collectCandidates(now time.Time) *candidateHeap {
	h := &candidateHeap{}
	m.registry.ForEach(func(_ Handle, rec *ResourceRecord) {
		threshold, collectible := rec.Priority.IdleThreshold()
		if !collectible {
			return
		}
		if rec.RefCount() > 1 {
			return
		}
		idle := now.Sub(rec.LastAccessed())
		if idle > threshold {
			*h = append(*h, gcCandidate{id: rec.ID, priority: rec.Priority, idle: idle})
		}
	})
	heap.Init(h)
	return h
}

// runGarbageCollection performs one full sweep: evict candidates
// through the normal deallocation path, compress the survivors, then
// shrink every pool to 70% of capacity. Returns the MB reclaimed.
// The sweep is bounded, synchronous and a no-op when nothing is
// collectible.
func (m *Manager) runGarbageCollection() float64 {
	start := time.Now()
	now := m.now()
	var freedMB float64

	candidates := m.collectCandidates(now)
	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(gcCandidate)
		rec := m.registry.Lookup(c.id)
		if rec == nil {
			continue
		}
		reservedMB := float64(rec.ReservedBytes) / bytesPerMB
		if m.deallocateRecord(c.id) {
			freedMB += reservedMB
		}
	}

	if m.cfg.EnableCompression {
		freedMB += m.compressResources()
	}

	if m.pools != nil {
		m.pools.ForEach(func(p *ChunkPool) {
			p.Shrink(int(float64(p.MaxChunks) * 0.7))
		})
	}

	m.lastGC = now
	m.stats.GCRuns++
	m.stats.GCFreedMB += freedMB
	m.metrics.AddOperation("gc", time.Since(start))
	return freedMB
}
