package template

import (
	"fmt"
	"sort"
	"sync"
)

// maxIndirections bounds redirect chains and collections of collections.
const maxIndirections = 16

// Library holds the templates and collections known to a session along with
// redirects left behind by moved assets.
type Library struct {
	mu          sync.RWMutex
	assets      map[string]*Asset
	collections map[string]*Collection
	redirects   map[string]string
}

func NewLibrary() *Library {
	return &Library{
		assets:      make(map[string]*Asset),
		collections: make(map[string]*Collection),
		redirects:   make(map[string]string),
	}
}

func (l *Library) Put(a *Asset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.assets[a.Path] = a
}

func (l *Library) PutCollection(c *Collection) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.collections[c.Path] = c
}

// Redirect records that the asset at from now lives at to.
func (l *Library) Redirect(from, to string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.redirects[from] = to
}

// ResolveAsset follows redirects from path. It reports false when path was
// never moved.
func (l *Library) ResolveAsset(path string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.follow(path)
}

func (l *Library) follow(path string) (string, bool) {
	cur, moved := path, false
	for range maxIndirections {
		next, ok := l.redirects[cur]
		if !ok || next == cur {
			break
		}
		cur, moved = next, true
	}
	return cur, moved
}

func (l *Library) Asset(path string) (*Asset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, _ := l.follow(path)
	a, ok := l.assets[p]
	return a, ok
}

func (l *Library) Collection(path string) (*Collection, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, _ := l.follow(path)
	c, ok := l.collections[p]
	return c, ok
}

// Resolve returns the template an instance bound to ref builds with seed.
// ref names either a template or a collection.
func (l *Library) Resolve(ref string, seed int64) (*Asset, error) {
	cur := ref
	for range maxIndirections {
		if a, ok := l.Asset(cur); ok {
			return a, nil
		}
		c, ok := l.Collection(cur)
		if !ok {
			return nil, fmt.Errorf("resolving %q: %w", ref, ErrNotFound)
		}
		next, err := c.Pick(seed)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", ref, err)
		}
		cur = next
	}
	return nil, fmt.Errorf("resolving %q: too many collection levels: %w", ref, ErrNotFound)
}

// Paths lists template paths in sorted order.
func (l *Library) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.assets))
	for p := range l.assets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (l *Library) CollectionPaths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.collections))
	for p := range l.collections {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
