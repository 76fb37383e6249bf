package memory

import (
	"sort"
	"sync"

	"github.com/forgelight/membudget/pkg/utils/pattern"
)

// Handle is a stable index into the registry arena. Handles stay valid
// until the record is removed; slots are recycled afterwards.
type Handle uint32

// Registry owns every live ResourceRecord. Records live in an arena
// addressed by handle; the id map is only consulted on the string-keyed
// paths. Only the manager inserts or removes entries, but Touch is safe
// to call from other goroutines.
type Registry struct {
	mu      sync.RWMutex
	arena   []*ResourceRecord
	free    []Handle
	byID    map[string]Handle
	matcher *pattern.Matcher
}

func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[string]Handle),
		matcher: pattern.NewMatcher(),
	}
}

// Insert adds a record. Returns false if the id is already present.
func (r *Registry) Insert(rec *ResourceRecord) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rec.ID]; exists {
		return 0, false
	}

	var h Handle
	if n := len(r.free); n > 0 {
		h = r.free[n-1]
		r.free = r.free[:n-1]
		r.arena[h] = rec
	} else {
		h = Handle(len(r.arena))
		r.arena = append(r.arena, rec)
	}
	r.byID[rec.ID] = h
	return h, true
}

// Remove deletes the record for id and recycles its slot.
func (r *Registry) Remove(id string) *ResourceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, exists := r.byID[id]
	if !exists {
		return nil
	}
	rec := r.arena[h]
	r.arena[h] = nil
	r.free = append(r.free, h)
	delete(r.byID, id)
	return rec
}

// Lookup returns the live record for id, or nil.
func (r *Registry) Lookup(id string) *ResourceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, exists := r.byID[id]
	if !exists {
		return nil
	}
	return r.arena[h]
}

// Get returns the record at h, or nil for a recycled slot.
func (r *Registry) Get(h Handle) *ResourceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(h) >= len(r.arena) {
		return nil
	}
	return r.arena[h]
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// ForEach visits every live record. The callback must not insert or
// remove entries.
func (r *Registry) ForEach(fn func(Handle, *ResourceRecord)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, rec := range r.arena {
		if rec != nil {
			fn(Handle(i), rec)
		}
	}
}

// Keys returns the sorted ids matching a glob pattern.
func (r *Registry) Keys(glob string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.byID))
	for id := range r.byID {
		if r.matcher.MatchCached(glob, id) {
			keys = append(keys, id)
		}
	}
	sort.Strings(keys)
	return keys
}
