// Package cache keeps live template instances that can be cloned instead of
// rebuilt from stored records. Entries hold weak pointers, so the cache never
// keeps a destroyed or collected object alive.
package cache

import (
	"sync"
	"weak"

	"github.com/google/uuid"
)

// Liveness is implemented by cached objects that can be destroyed while
// still reachable.
type Liveness interface {
	Destroyed() bool
}

type entry[T any] struct {
	ptr          weak.Pointer[T]
	lastUpdateID uuid.UUID
}

// Templates maps item ids to the last live object spawned for them.
type Templates[T any] struct {
	mu      sync.Mutex
	entries map[uuid.UUID]entry[T]
	closed  bool
}

func New[T any]() *Templates[T] {
	return &Templates[T]{entries: make(map[uuid.UUID]entry[T])}
}

// Register records obj as the template for itemID at lastUpdateID.
func (c *Templates[T]) Register(itemID uuid.UUID, obj *T, lastUpdateID uuid.UUID) {
	if c == nil || obj == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.entries[itemID] = entry[T]{ptr: weak.Make(obj), lastUpdateID: lastUpdateID}
}

// Get returns the template for itemID if it is still alive and was captured
// at lastUpdateID. Stale entries are dropped.
func (c *Templates[T]) Get(itemID, lastUpdateID uuid.UUID) *T {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[itemID]
	if !ok {
		return nil
	}
	if e.lastUpdateID != lastUpdateID {
		delete(c.entries, itemID)
		return nil
	}
	obj := e.ptr.Value()
	if obj == nil {
		delete(c.entries, itemID)
		return nil
	}
	if l, ok := any(obj).(Liveness); ok && l.Destroyed() {
		delete(c.entries, itemID)
		return nil
	}
	return obj
}

func (c *Templates[T]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close drops every entry. Later registrations are ignored.
func (c *Templates[T]) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uuid.UUID]entry[T])
	c.closed = true
}
