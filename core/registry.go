package core

import (
	"reflect"
	"sync"
)

// updateEntry pairs a registered func with a registration id so that two
// closures sharing a code pointer can still be removed individually through
// their handles.
type updateEntry struct {
	id uint64
	fn UpdateFunc
}

// UpdateRegistry is the ordered, runtime-mutable collection of periodic
// update funcs. Insertion order is preserved and duplicates are permitted.
//
// Mutation may race with an in-flight scheduling cycle: the scheduler works
// on a Snapshot taken at cycle start, so an Add or Remove during a cycle
// takes effect on the next cycle.
type UpdateRegistry struct {
	mu      sync.Mutex
	entries []updateEntry
	nextID  uint64
}

// NewUpdateRegistry creates an empty registry.
func NewUpdateRegistry() *UpdateRegistry {
	return &UpdateRegistry{}
}

// Add appends fn and returns its registration id.
func (r *UpdateRegistry) Add(fn UpdateFunc) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.entries = append(r.entries, updateEntry{id: r.nextID, fn: fn})
	return r.nextID
}

// RemoveFunc removes the first entry whose func identity matches fn,
// preserving the relative order of the remaining entries. Identity is the
// func's code pointer, matching how the first registered occurrence of a
// duplicate is the one removed. Returns false if fn is not registered.
func (r *UpdateRegistry) RemoveFunc(fn UpdateFunc) bool {
	if fn == nil {
		return false
	}
	target := reflect.ValueOf(fn).Pointer()

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if reflect.ValueOf(e.fn).Pointer() == target {
			r.removeAtLocked(i)
			return true
		}
	}
	return false
}

// RemoveID removes the entry with the given registration id.
// Returns false if the id is no longer registered.
func (r *UpdateRegistry) RemoveID(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.removeAtLocked(i)
			return true
		}
	}
	return false
}

func (r *UpdateRegistry) removeAtLocked(i int) {
	copy(r.entries[i:], r.entries[i+1:])
	r.entries[len(r.entries)-1] = updateEntry{}
	r.entries = r.entries[:len(r.entries)-1]
}

// Snapshot returns the current funcs in registration order. The returned
// slice is owned by the caller; later registry mutation does not affect it.
func (r *UpdateRegistry) Snapshot() []UpdateFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	out := make([]UpdateFunc, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.fn
	}
	return out
}

// Len returns the number of registered funcs.
func (r *UpdateRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
