package memory

import "time"

// MemoryStats is the read-only systemic snapshot exposed to the rest of
// the application. Counters are monotonic; ratios sit in [0,1].
type MemoryStats struct {
	TotalAllocatedMB   float64 `json:"total_allocated_mb"`
	TotalFreedMB       float64 `json:"total_freed_mb"`
	PeakUsageMB        float64 `json:"peak_usage_mb"`
	AllocationCount    uint64  `json:"allocation_count"`
	DeallocationCount  uint64  `json:"deallocation_count"`
	GCRuns             uint32  `json:"gc_runs"`
	GCFreedMB          float64 `json:"gc_freed_mb"`
	CompressionSavedMB float64 `json:"compression_saved_mb"`
	PoolHitRatio       float64 `json:"pool_hit_ratio"`
	FragmentationRatio float64 `json:"fragmentation_ratio"`
}

// recordPoolHit folds a pool hit into the moving average.
func (s *MemoryStats) recordPoolHit() {
	s.PoolHitRatio = s.PoolHitRatio*0.95 + 0.05
}

// recordPoolMiss decays the moving average.
func (s *MemoryStats) recordPoolMiss() {
	s.PoolHitRatio *= 0.95
}

// HistorySample is one point of the allocation trend.
type HistorySample struct {
	At      time.Time
	TotalMB float64
}

// AllocationHistory is a bounded ring of recent allocation totals used
// for trend inspection.
type AllocationHistory struct {
	samples []HistorySample
	max     int
}

func NewAllocationHistory(max int) *AllocationHistory {
	if max <= 0 {
		max = 1000
	}
	return &AllocationHistory{max: max}
}

func (h *AllocationHistory) Push(at time.Time, totalMB float64) {
	h.samples = append(h.samples, HistorySample{At: at, TotalMB: totalMB})
	if len(h.samples) > h.max {
		h.samples = h.samples[1:]
	}
}

func (h *AllocationHistory) Len() int { return len(h.samples) }

// Samples returns a copy of the retained trend, oldest first.
func (h *AllocationHistory) Samples() []HistorySample {
	out := make([]HistorySample, len(h.samples))
	copy(out, h.samples)
	return out
}
