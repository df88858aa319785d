// Package changes tracks per-instance field overrides made directly on the
// objects of a template instance.
//
// An unstaged change keeps the live value out of the next save and protects
// it from the next load. A staged change is captured into the template on
// the next save and then dropped.
package changes

import (
	"sync"

	"prefabricator/internal/class"
)

// Change is one overridden field path on one object.
type Change struct {
	Object class.Handle `json:"object"`
	Path   string       `json:"path"`
	Staged bool         `json:"staged"`
}

type key struct {
	object class.Handle
	path   string
}

// Tracker holds the unstaged and staged lists plus an index over both.
type Tracker struct {
	mu       sync.Mutex
	unstaged []Change
	staged   []Change
	index    map[key]bool // value is the staged flag
}

func NewTracker() *Tracker {
	return &Tracker{index: make(map[key]bool)}
}

// Record appends an unstaged change. Recording a path that is already
// tracked, staged or not, does nothing.
func (t *Tracker) Record(obj class.Handle, path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{obj, path}
	if _, ok := t.index[k]; ok {
		return
	}
	t.unstaged = append(t.unstaged, Change{Object: obj, Path: path})
	t.index[k] = false
}

// Stage moves a change from the unstaged list to the staged list.
func (t *Tracker) Stage(obj class.Handle, path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{obj, path}
	if staged, ok := t.index[k]; !ok || staged {
		return false
	}
	t.unstaged = remove(t.unstaged, k)
	t.staged = append(t.staged, Change{Object: obj, Path: path, Staged: true})
	t.index[k] = true
	return true
}

// Unstage moves a change back from the staged list to the unstaged list.
func (t *Tracker) Unstage(obj class.Handle, path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{obj, path}
	if staged, ok := t.index[k]; !ok || !staged {
		return false
	}
	t.staged = remove(t.staged, k)
	t.unstaged = append(t.unstaged, Change{Object: obj, Path: path})
	t.index[k] = false
	return true
}

// IsOverridden reports whether an unstaged change exists for the path.
func (t *Tracker) IsOverridden(obj class.Handle, path string) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	staged, ok := t.index[key{obj, path}]
	return ok && !staged
}

// Lookup returns the change tracked for the path, in whichever list holds it.
func (t *Tracker) Lookup(obj class.Handle, path string) (Change, bool) {
	if t == nil {
		return Change{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	staged, ok := t.index[key{obj, path}]
	if !ok {
		return Change{}, false
	}
	return Change{Object: obj, Path: path, Staged: staged}, true
}

// Remove drops the change from tracking.
func (t *Tracker) Remove(obj class.Handle, path string) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{obj, path}
	staged, ok := t.index[k]
	if !ok {
		return false
	}
	if staged {
		t.staged = remove(t.staged, k)
	} else {
		t.unstaged = remove(t.unstaged, k)
	}
	delete(t.index, k)
	return true
}

// Forget drops every change recorded against obj.
func (t *Tracker) Forget(obj class.Handle) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	keep := func(list []Change) []Change {
		out := list[:0]
		for _, c := range list {
			if c.Object == obj {
				delete(t.index, key{c.Object, c.Path})
				continue
			}
			out = append(out, c)
		}
		return out
	}
	t.unstaged = keep(t.unstaged)
	t.staged = keep(t.staged)
}

func (t *Tracker) Unstaged() []Change {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Change(nil), t.unstaged...)
}

func (t *Tracker) Staged() []Change {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Change(nil), t.staged...)
}

func (t *Tracker) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.index)
}

func remove(list []Change, k key) []Change {
	for i, c := range list {
		if c.Object == k.object && c.Path == k.path {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
