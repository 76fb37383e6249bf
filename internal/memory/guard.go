package memory

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/forgelight/membudget/internal/resource"
)

// Guarded wraps a Manager for callers that need shared access from
// several goroutines. All mutating calls serialize on one mutex;
// concurrent ForceGarbageCollection calls collapse into a single
// sweep, and sweeps can be paced through a resource controller.
type Guarded struct {
	mu   sync.Mutex
	m    *Manager
	sf   singleflight.Group
	ctrl *resource.Controller
}

func NewGuarded(m *Manager) *Guarded {
	return &Guarded{
		m: m,
		ctrl: resource.NewController(resource.Config{
			SweepsPerSecond: 4,
		}),
	}
}

// Manager returns the wrapped manager. Callers must not mix direct
// manager calls with guarded ones.
func (g *Guarded) Manager() *Manager { return g.m }

func (g *Guarded) AllocateResource(id string, sizeBytes int64, cat Category, prio Priority) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.AllocateResource(id, sizeBytes, cat, prio)
}

func (g *Guarded) DeallocateResource(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.DeallocateResource(id)
}

// AccessResource needs no lock: it only touches atomic record fields.
func (g *Guarded) AccessResource(id string) {
	g.m.AccessResource(id)
}

func (g *Guarded) Retain(id string) bool     { return g.m.Retain(id) }
func (g *Guarded) ReleaseRef(id string) bool { return g.m.ReleaseRef(id) }

func (g *Guarded) Update(dt time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.m.Update(dt)
}

// ForceGarbageCollection collapses concurrent callers into one sweep;
// everyone gets the same freed total. Pacing drops extra sweeps rather
// than queueing them.
func (g *Guarded) ForceGarbageCollection() float64 {
	if !g.ctrl.AllowSweep() {
		return 0
	}
	freed, _, _ := g.sf.Do("gc", func() (any, error) {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.m.ForceGarbageCollection(), nil
	})
	return freed.(float64)
}

func (g *Guarded) AllocateBlock(size, alignment int64) (*MemoryBlock, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.AllocateBlock(size, alignment)
}

func (g *Guarded) DeallocateBlock(block *MemoryBlock) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.DeallocateBlock(block)
}

func (g *Guarded) Stats() MemoryStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.Stats()
}

func (g *Guarded) UsagePercentage() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.UsagePercentage()
}
