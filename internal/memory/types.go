package memory

import (
	"sync/atomic"
	"time"
)

const bytesPerMB = 1_048_576.0

// Category classifies a tracked resource. Each category has its own
// budget ceiling and, for the smaller ones, a chunk pool.
type Category int

const (
	CategoryTexture Category = iota
	CategoryMesh
	CategoryAudio
	CategoryWorldData
	CategoryShader
	CategoryAnimation
	CategoryScript
	CategoryUI
	CategoryPhysics
	CategoryTemporary
)

var categoryNames = [...]string{
	"texture", "mesh", "audio", "world_data", "shader",
	"animation", "script", "ui", "physics", "temporary",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// Categories returns all categories in declaration order.
func Categories() []Category {
	out := make([]Category, len(categoryNames))
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// Priority orders resources by eviction eagerness. Critical records are
// never collected automatically.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
	PriorityCache
)

var priorityNames = [...]string{"critical", "high", "normal", "low", "cache"}

func (p Priority) String() string {
	if p < 0 || int(p) >= len(priorityNames) {
		return "unknown"
	}
	return priorityNames[p]
}

// IdleThreshold returns how long a resource of this priority must sit
// untouched before it becomes collectible. ok is false for Critical.
func (p Priority) IdleThreshold() (d time.Duration, ok bool) {
	switch p {
	case PriorityHigh:
		return 300 * time.Second, true
	case PriorityNormal:
		return 120 * time.Second, true
	case PriorityLow:
		return 60 * time.Second, true
	case PriorityCache:
		return 10 * time.Second, true
	default:
		return 0, false
	}
}

// ResourceRecord is the per-resource metadata entry. The manager owns
// insertion and removal; lastAccessed, accessCount and refCount are
// atomic so external subsystems can touch a live record concurrently
// with a sweep.
type ResourceRecord struct {
	ID       string
	Category Category
	Priority Priority

	// sizeBytes is the current footprint; compression shrinks it.
	sizeBytes int64
	// ReservedBytes is the immutable admission charge against the
	// ledger, released in full on deallocation.
	ReservedBytes int64

	CreatedAt  time.Time
	Compressed bool

	lastAccessed atomic.Int64 // unix nanos
	accessCount  atomic.Uint32
	refCount     atomic.Int32
}

func newResourceRecord(id string, size int64, cat Category, prio Priority, now time.Time) *ResourceRecord {
	r := &ResourceRecord{
		ID:            id,
		Category:      cat,
		Priority:      prio,
		sizeBytes:     size,
		ReservedBytes: size,
		CreatedAt:     now,
	}
	r.lastAccessed.Store(now.UnixNano())
	r.accessCount.Store(1)
	r.refCount.Store(1)
	return r
}

// Touch marks the record as accessed now.
func (r *ResourceRecord) Touch(now time.Time) {
	r.lastAccessed.Store(now.UnixNano())
	r.accessCount.Add(1)
}

func (r *ResourceRecord) LastAccessed() time.Time {
	return time.Unix(0, r.lastAccessed.Load())
}

func (r *ResourceRecord) AccessCount() uint32 {
	return r.accessCount.Load()
}

func (r *ResourceRecord) SizeBytes() int64 {
	return r.sizeBytes
}

func (r *ResourceRecord) RefCount() int {
	return int(r.refCount.Load())
}

// Retain adds an external hold on the record.
func (r *ResourceRecord) Retain() {
	r.refCount.Add(1)
}

// ReleaseRef drops an external hold, flooring at 1: the registry itself
// always holds the last reference.
func (r *ResourceRecord) ReleaseRef() {
	for {
		cur := r.refCount.Load()
		if cur <= 1 {
			return
		}
		if r.refCount.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// MemoryBlock is a scratch allocation outside the resource lifecycle.
// Addresses are simulated; blocks never overlap.
type MemoryBlock struct {
	ID          string
	Address     uint64
	Size        int64
	Alignment   int64
	Category    Category
	AllocatedAt time.Time
}
