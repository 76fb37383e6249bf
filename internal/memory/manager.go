package memory

import (
	"fmt"
	"time"

	"github.com/forgelight/membudget/internal/codec"
	"github.com/forgelight/membudget/internal/config"
	"github.com/forgelight/membudget/internal/metrics"
	"github.com/forgelight/membudget/internal/resource"
	util "github.com/forgelight/membudget/pkg/utils"
)

// gcInterval is the longest the manager goes between periodic sweeps.
const gcInterval = 30 * time.Second

// Manager orchestrates the registry, ledger, pools, scratch blocks,
// reclamation and pressure monitoring behind the admit/deny surface.
//
// The manager is single-owner: Allocate/Deallocate/Update must not be
// called concurrently without external synchronization (see Guarded).
// AccessResource, Retain and ReleaseRef only touch atomic record
// fields and are safe from other goroutines.
type Manager struct {
	cfg config.MemoryConfig

	registry  *Registry
	ledger    *Ledger
	pools     *PoolSet // nil when pools are disabled
	blocks    *BlockAllocator
	pressure  *PressureMonitor
	estimator codec.Estimator
	ctrl      *resource.Controller // nil unless HardCap
	metrics   *metrics.Metrics

	stats   MemoryStats
	history *AllocationHistory
	lastGC  time.Time

	// now is injectable for deterministic tests.
	now func() time.Time
}

func NewManager(cfg config.MemoryConfig) *Manager {
	cfg = cfg.Resolve()

	m := &Manager{
		cfg:       cfg,
		registry:  NewRegistry(),
		ledger:    NewLedger(cfg),
		blocks:    NewBlockAllocator(),
		pressure:  NewPressureMonitor(cfg.WarningThreshold, cfg.CriticalThreshold),
		estimator: codec.ForName(cfg.Codec),
		metrics:   metrics.NewMetrics(),
		history:   NewAllocationHistory(1000),
		now:       time.Now,
	}
	if cfg.EnableMemoryPools {
		m.pools = NewPoolSet()
	}
	if cfg.HardCap {
		m.ctrl = resource.NewController(resource.Config{
			CapBytes: int64(cfg.TotalBudgetMB * bytesPerMB),
		})
	}
	m.lastGC = m.now()
	return m
}

// NewManagerWithBudget builds a manager with defaults and the given
// total budget.
func NewManagerWithBudget(totalBudgetMB float64) *Manager {
	cfg := config.DefaultMemoryConfig()
	cfg.TotalBudgetMB = totalBudgetMB
	return NewManager(cfg)
}

// AllocateResource admits or refuses a new tracked resource. It fails
// closed: false when the id is live already, or when the category
// budget stays exhausted after one reclamation pass. A refusal is an
// expected near-ceiling outcome, not a fault.
func (m *Manager) AllocateResource(id string, sizeBytes int64, cat Category, prio Priority) bool {
	start := time.Now()
	defer func() { m.metrics.AddOperation("allocate", time.Since(start)) }()

	if m.registry.Lookup(id) != nil {
		return false
	}

	sizeMB := float64(sizeBytes) / bytesPerMB
	if !m.ledger.HasBudget(cat, sizeMB) {
		if !m.cfg.EnableGarbageCollection {
			return false
		}
		m.runGarbageCollection()
		if !m.ledger.HasBudget(cat, sizeMB) {
			return false
		}
	}

	now := m.now()
	rec := newResourceRecord(id, sizeBytes, cat, prio, now)

	pooled := false
	if m.pools != nil {
		if pool, ok := m.pools.Get(cat); ok && sizeBytes <= int64(pool.ChunkSize) {
			_, pooled = pool.Allocate(id)
		}
		if pooled {
			m.stats.recordPoolHit()
		} else {
			m.stats.recordPoolMiss()
		}
	}
	if !pooled {
		m.stats.AllocationCount++
	}

	m.ledger.Reserve(cat, sizeMB)

	m.stats.TotalAllocatedMB += sizeMB
	if m.stats.TotalAllocatedMB > m.stats.PeakUsageMB {
		m.stats.PeakUsageMB = m.stats.TotalAllocatedMB
	}
	m.history.Push(now, m.stats.TotalAllocatedMB)

	m.registry.Insert(rec)
	m.pressure.Check(m.UsagePercentage(), now)
	return true
}

// DeallocateResource removes a tracked resource. False if unknown.
func (m *Manager) DeallocateResource(id string) bool {
	start := time.Now()
	defer func() { m.metrics.AddOperation("deallocate", time.Since(start)) }()
	return m.deallocateRecord(id)
}

// deallocateRecord is the single removal path used by both the public
// API and the reclaimer, keeping ledger, pool and stats consistent.
func (m *Manager) deallocateRecord(id string) bool {
	rec := m.registry.Remove(id)
	if rec == nil {
		return false
	}

	if m.pools != nil {
		if pool, ok := m.pools.Get(rec.Category); ok {
			pool.Deallocate(id)
		}
	}

	reservedMB := float64(rec.ReservedBytes) / bytesPerMB
	m.ledger.Release(rec.Category, reservedMB)

	m.stats.TotalFreedMB += reservedMB
	m.stats.TotalAllocatedMB -= reservedMB
	if m.stats.TotalAllocatedMB < 0 {
		m.stats.TotalAllocatedMB = 0
	}
	m.stats.DeallocationCount++
	return true
}

// AccessResource bumps the record's idle clock. This is the only
// signal the reclaimer sees; callers that skip it risk eviction of
// logically live resources. No-op for unknown ids.
func (m *Manager) AccessResource(id string) {
	rec := m.registry.Lookup(id)
	if rec == nil {
		return
	}
	rec.Touch(m.now())
}

// Retain adds an external hold; held records survive sweeps.
func (m *Manager) Retain(id string) bool {
	rec := m.registry.Lookup(id)
	if rec == nil {
		return false
	}
	rec.Retain()
	return true
}

// ReleaseRef drops an external hold.
func (m *Manager) ReleaseRef(id string) bool {
	rec := m.registry.Lookup(id)
	if rec == nil {
		return false
	}
	rec.ReleaseRef()
	return true
}

// Update drives the per-tick maintenance: periodic reclamation, pool
// shrinking and fragmentation recomputation. Within one call the sweep
// completes before compression, and both before pool shrink.
func (m *Manager) Update(_ time.Duration) {
	if m.cfg.EnableGarbageCollection {
		sinceGC := m.now().Sub(m.lastGC)
		if sinceGC > gcInterval || m.UsagePercentage() > m.cfg.GCThresholdPercentage {
			m.runGarbageCollection()
		}
	}

	if m.pools != nil {
		m.optimizePools()
	}

	m.updateFragmentation()
}

// ForceGarbageCollection runs one sweep immediately and returns the MB
// reclaimed.
func (m *Manager) ForceGarbageCollection() float64 {
	return m.runGarbageCollection()
}

// optimizePools shrinks under-utilized pools so idle chunks do not pin
// memory between spikes.
func (m *Manager) optimizePools() {
	m.pools.ForEach(func(p *ChunkPool) {
		if p.Utilization() < 0.3 && p.Available() > 10 {
			p.Shrink(p.Available() / 2)
		}
	})
}

func (m *Manager) updateFragmentation() {
	if m.pools == nil {
		return
	}
	capacity := m.pools.CapacityBytes()
	if capacity == 0 {
		return
	}
	m.stats.FragmentationRatio = 1.0 - float64(m.pools.UsedBytes())/float64(capacity)
}

// Defragment halves each pool's available-chunk list.
func (m *Manager) Defragment() {
	if m.pools == nil {
		return
	}
	m.pools.ForEach(func(p *ChunkPool) {
		p.Shrink(p.MaxChunks / 2)
	})
}

// AllocateBlock carves an aligned scratch block against the global
// budget. On exhaustion it runs one reclamation pass and retries once
// before returning ErrOutOfBudget.
func (m *Manager) AllocateBlock(size, alignment int64) (*MemoryBlock, error) {
	sizeMB := float64(size) / bytesPerMB
	if m.stats.TotalAllocatedMB+sizeMB > m.cfg.TotalBudgetMB {
		if !m.cfg.EnableGarbageCollection {
			return nil, ErrOutOfBudget
		}
		m.runGarbageCollection()
		if m.stats.TotalAllocatedMB+sizeMB > m.cfg.TotalBudgetMB {
			return nil, ErrOutOfBudget
		}
	}

	if m.ctrl != nil && !m.ctrl.TryAcquire(size) {
		return nil, fmt.Errorf("hard cap exceeded: %w", ErrOutOfBudget)
	}

	block := m.blocks.Allocate(size, alignment, CategoryTemporary, m.now())
	if block == nil {
		if m.ctrl != nil {
			m.ctrl.Release(size)
		}
		return nil, fmt.Errorf("invalid block size %d: %w", size, ErrOutOfBudget)
	}

	m.stats.TotalAllocatedMB += sizeMB
	if m.stats.TotalAllocatedMB > m.stats.PeakUsageMB {
		m.stats.PeakUsageMB = m.stats.TotalAllocatedMB
	}
	m.stats.AllocationCount++
	return block, nil
}

// DeallocateBlock releases a scratch block and credits the counters.
// False if the block is not live.
func (m *Manager) DeallocateBlock(block *MemoryBlock) bool {
	if block == nil {
		return false
	}
	removed, ok := m.blocks.Deallocate(block.ID)
	if !ok {
		return false
	}

	sizeMB := float64(removed.Size) / bytesPerMB
	m.stats.TotalAllocatedMB -= sizeMB
	if m.stats.TotalAllocatedMB < 0 {
		m.stats.TotalAllocatedMB = 0
	}
	m.stats.TotalFreedMB += sizeMB
	m.stats.DeallocationCount++
	if m.ctrl != nil {
		m.ctrl.Release(removed.Size)
	}
	return true
}

// ResetScratch rewinds the whole scratch arena between ticks.
func (m *Manager) ResetScratch() {
	liveBytes := m.blocks.Reset()
	if liveBytes == 0 {
		return
	}
	liveMB := float64(liveBytes) / bytesPerMB
	m.stats.TotalAllocatedMB -= liveMB
	if m.stats.TotalAllocatedMB < 0 {
		m.stats.TotalAllocatedMB = 0
	}
	m.stats.TotalFreedMB += liveMB
	if m.ctrl != nil {
		m.ctrl.Release(liveBytes)
	}
}

// UsagePercentage is total allocated over total budget, in percent.
func (m *Manager) UsagePercentage() float64 {
	if m.cfg.TotalBudgetMB == 0 {
		return 0
	}
	return m.stats.TotalAllocatedMB / m.cfg.TotalBudgetMB * 100.0
}

// Stats returns a copy of the systemic counters.
func (m *Manager) Stats() MemoryStats { return m.stats }

// UsageMB returns the tracked total in MB.
func (m *Manager) UsageMB() float64 { return m.stats.TotalAllocatedMB }

// BudgetUsage returns (allocated, ceiling) for one category.
func (m *Manager) BudgetUsage(cat Category) (allocatedMB, budgetMB float64, ok bool) {
	return m.ledger.Usage(cat)
}

// PoolStats returns (used, max, utilization) for one category's pool.
func (m *Manager) PoolStats(cat Category) (used, max int, utilization float64, ok bool) {
	if m.pools == nil {
		return 0, 0, 0, false
	}
	pool, exists := m.pools.Get(cat)
	if !exists {
		return 0, 0, 0, false
	}
	return pool.Used(), pool.MaxChunks, pool.Utilization(), true
}

func (m *Manager) ResourceCount() int { return m.registry.Len() }

// Keys returns live resource ids matching a glob pattern.
func (m *Manager) Keys(glob string) []string { return m.registry.Keys(glob) }

// History returns the retained allocation trend, oldest first.
func (m *Manager) History() []HistorySample { return m.history.Samples() }

func (m *Manager) AddWarningCallback(cb PressureCallback) {
	m.pressure.AddWarningCallback(cb)
}

func (m *Manager) AddCriticalCallback(cb PressureCallback) {
	m.pressure.AddCriticalCallback(cb)
}

// PressureEvents attaches and returns an async pressure stream.
// Subsequent calls return the same channel.
func (m *Manager) PressureEvents() <-chan PressureEvent {
	if m.pressure.notifier == nil {
		m.pressure.SetNotifier(NewPressureNotifier(64))
	}
	return m.pressure.notifier.Events()
}

// Metrics exposes per-operation timing counters.
func (m *Manager) Metrics() *metrics.Metrics { return m.metrics }

// Info renders the current state as sorted key:value lines.
func (m *Manager) Info() string {
	info := map[string]string{
		"total_allocated_mb":   fmt.Sprintf("%.2f", m.stats.TotalAllocatedMB),
		"total_freed_mb":       fmt.Sprintf("%.2f", m.stats.TotalFreedMB),
		"peak_usage_mb":        fmt.Sprintf("%.2f", m.stats.PeakUsageMB),
		"usage_percentage":     fmt.Sprintf("%.1f", m.UsagePercentage()),
		"allocation_count":     fmt.Sprintf("%d", m.stats.AllocationCount),
		"deallocation_count":   fmt.Sprintf("%d", m.stats.DeallocationCount),
		"resource_count":       fmt.Sprintf("%d", m.registry.Len()),
		"scratch_blocks":       fmt.Sprintf("%d", m.blocks.Len()),
		"gc_runs":              fmt.Sprintf("%d", m.stats.GCRuns),
		"gc_freed_mb":          fmt.Sprintf("%.2f", m.stats.GCFreedMB),
		"compression_saved_mb": fmt.Sprintf("%.2f", m.stats.CompressionSavedMB),
		"pool_hit_ratio":       fmt.Sprintf("%.3f", m.stats.PoolHitRatio),
		"fragmentation_ratio":  fmt.Sprintf("%.3f", m.stats.FragmentationRatio),
	}
	for _, cat := range Categories() {
		if allocated, budget, ok := m.ledger.Usage(cat); ok {
			info["budget_"+cat.String()] = fmt.Sprintf("%.2f/%.2f", allocated, budget)
		}
	}
	return util.FormatInfo(info)
}

// Shutdown clears every table. The manager must not be used afterwards.
func (m *Manager) Shutdown() {
	m.registry = NewRegistry()
	m.ledger = NewLedger(m.cfg)
	m.pools = nil
	m.blocks = NewBlockAllocator()
	m.history = NewAllocationHistory(1000)
}
