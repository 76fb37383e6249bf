package memory

import "github.com/forgelight/membudget/internal/config"

// BudgetRecord tracks one category's ledger entry. AllocatedMB never
// exceeds BudgetMB: admission is refused, never overdrawn.
type BudgetRecord struct {
	Category        Category
	AllocatedMB     float64
	BudgetMB        float64
	PeakUsageMB     float64
	AllocationCount uint32
}

// Ledger holds the per-category budgets. It carries no lock of its own;
// the manager is single-owner (see Guarded for shared use).
type Ledger struct {
	budgets map[Category]*BudgetRecord
}

func NewLedger(cfg config.MemoryConfig) *Ledger {
	ceilings := map[Category]float64{
		CategoryTexture:   cfg.TextureBudgetMB,
		CategoryMesh:      cfg.MeshBudgetMB,
		CategoryAudio:     cfg.AudioBudgetMB,
		CategoryWorldData: cfg.WorldDataBudgetMB,
		CategoryShader:    64.0,
		CategoryAnimation: 128.0,
		CategoryScript:    32.0,
		CategoryUI:        64.0,
		CategoryPhysics:   128.0,
		CategoryTemporary: 256.0,
	}

	l := &Ledger{budgets: make(map[Category]*BudgetRecord, len(ceilings))}
	for cat, mb := range ceilings {
		l.budgets[cat] = &BudgetRecord{Category: cat, BudgetMB: mb}
	}
	return l
}

// HasBudget reports whether sizeMB more fits under the category ceiling.
func (l *Ledger) HasBudget(cat Category, sizeMB float64) bool {
	b, exists := l.budgets[cat]
	if !exists {
		return true
	}
	return b.AllocatedMB+sizeMB <= b.BudgetMB
}

// Reserve charges sizeMB to the category and bumps the peak.
func (l *Ledger) Reserve(cat Category, sizeMB float64) {
	b, exists := l.budgets[cat]
	if !exists {
		return
	}
	b.AllocatedMB += sizeMB
	if b.AllocatedMB > b.PeakUsageMB {
		b.PeakUsageMB = b.AllocatedMB
	}
	b.AllocationCount++
}

// Release credits sizeMB back, floored at zero.
func (l *Ledger) Release(cat Category, sizeMB float64) {
	b, exists := l.budgets[cat]
	if !exists {
		return
	}
	b.AllocatedMB -= sizeMB
	if b.AllocatedMB < 0 {
		b.AllocatedMB = 0
	}
}

// Usage returns (allocated, ceiling) for a category.
func (l *Ledger) Usage(cat Category) (allocatedMB, budgetMB float64, ok bool) {
	b, exists := l.budgets[cat]
	if !exists {
		return 0, 0, false
	}
	return b.AllocatedMB, b.BudgetMB, true
}

// TotalBudgetMB is the sum of the per-category ceilings.
func (l *Ledger) TotalBudgetMB() float64 {
	var sum float64
	for _, b := range l.budgets {
		sum += b.BudgetMB
	}
	return sum
}

// TotalAllocatedMB is the sum of the per-category charges.
func (l *Ledger) TotalAllocatedMB() float64 {
	var sum float64
	for _, b := range l.budgets {
		sum += b.AllocatedMB
	}
	return sum
}
