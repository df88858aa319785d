// Package crossref maps live objects of one template instance to the item
// ids assigned during a save, and item ids back to the objects recreated
// during a load.
package crossref

import (
	"github.com/google/uuid"

	"prefabricator/internal/class"
)

// Lookup is the save-time bidirectional map between object path names and
// item ids. It is built fresh for each save.
type Lookup struct {
	byPath map[string]uuid.UUID
	byItem map[uuid.UUID]string
}

func NewLookup() *Lookup {
	return &Lookup{
		byPath: make(map[string]uuid.UUID),
		byItem: make(map[uuid.UUID]string),
	}
}

// Register binds obj to itemID, replacing any earlier binding of either.
func (l *Lookup) Register(obj class.Object, itemID uuid.UUID) {
	if obj == nil {
		return
	}
	l.RegisterPath(obj.PathName(), itemID)
}

func (l *Lookup) RegisterPath(path string, itemID uuid.UUID) {
	if old, ok := l.byPath[path]; ok {
		delete(l.byItem, old)
	}
	if old, ok := l.byItem[itemID]; ok {
		delete(l.byPath, old)
	}
	l.byPath[path] = itemID
	l.byItem[itemID] = path
}

func (l *Lookup) ItemID(path string) (uuid.UUID, bool) {
	if l == nil {
		return uuid.Nil, false
	}
	id, ok := l.byPath[path]
	return id, ok
}

func (l *Lookup) Path(itemID uuid.UUID) (string, bool) {
	if l == nil {
		return "", false
	}
	p, ok := l.byItem[itemID]
	return p, ok
}

func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.byPath)
}

// Targets is the load-time map from item id to the live object now
// standing for that item.
type Targets map[uuid.UUID]class.Object

func (t Targets) Resolve(itemID uuid.UUID) (class.Object, bool) {
	o, ok := t[itemID]
	return o, ok && o != nil
}
