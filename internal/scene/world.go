package scene

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"prefabricator/internal/class"
)

var (
	ErrWrongKind = errors.New("class kind mismatch")
	ErrDestroyed = errors.New("object is destroyed")
	ErrCycle     = errors.New("attachment would create a cycle")
)

// PostLoader is implemented by properties that want a notification once a
// load has resolved every cross-reference.
type PostLoader interface {
	PostLoad()
}

// DestroyHandler is implemented by actor properties that react to their
// actor being destroyed. It runs before attached actors are detached.
type DestroyHandler interface {
	Destroyed(w *World, a *Actor)
}

// RootDefiner names the root component an actor class spawns with.
type RootDefiner interface {
	RootComponent() (classPath, name string)
}

// World is an in-memory scene. It owns every actor and component and keeps
// the ownership arena used for containment checks.
type World struct {
	name    string
	classes *class.Registry
	log     *zap.Logger

	next       class.Handle
	actors     map[class.Handle]*Actor
	components map[class.Handle]*Component
	owners     map[class.Handle]class.Handle
	paths      map[string]class.Object
	nameCount  map[string]int

	selection    []*Actor
	txDepth      int
	transactions []string
}

func NewWorld(name string, classes *class.Registry, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		name:       name,
		classes:    classes,
		log:        log,
		actors:     make(map[class.Handle]*Actor),
		components: make(map[class.Handle]*Component),
		owners:     make(map[class.Handle]class.Handle),
		paths:      make(map[string]class.Object),
		nameCount:  make(map[string]int),
	}
}

func (w *World) Name() string { return w.name }

func (w *World) Classes() *class.Registry { return w.classes }

func (w *World) allocate() class.Handle {
	w.next++
	return w.next
}

func (w *World) uniqueName(base string, taken func(string) bool) string {
	for {
		w.nameCount[base]++
		candidate := fmt.Sprintf("%s_%d", base, w.nameCount[base])
		if !taken(candidate) {
			return candidate
		}
	}
}

func baseName(classPath string) string {
	name := path.Base(classPath)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == "/" {
		return "Object"
	}
	return name
}

// SpawnActor creates an actor of cls at the world transform t. When template
// is set its properties and components are cloned instead of constructed
// from class defaults.
func (w *World) SpawnActor(cls *class.Class, t Transform, template *Actor) (*Actor, error) {
	if cls == nil {
		return nil, fmt.Errorf("spawning actor: %w", class.ErrUnknownClass)
	}
	if cls.Kind != class.KindActor {
		return nil, fmt.Errorf("spawning %s: %w", cls.Path, ErrWrongKind)
	}
	if template != nil && template.class != cls {
		return nil, fmt.Errorf("spawning %s from template of class %s: %w", cls.Path, template.class.Path, ErrWrongKind)
	}

	a := &Actor{
		world:     w,
		handle:    w.allocate(),
		class:     cls,
		transform: t,
	}
	a.name = w.uniqueName(baseName(cls.Path), func(n string) bool {
		_, ok := w.paths[w.name+"."+n]
		return ok
	})
	a.label = a.name

	if template != nil {
		a.props = class.Clone(template.props)
		for _, tc := range template.components {
			c := w.newComponent(a, tc.class, tc.name, class.Clone(tc.props))
			c.relative = tc.relative
			c.defaultSubobject = tc.defaultSubobject
		}
	} else {
		a.props = cls.New()
		rootClass, rootName := SceneComponentClass, "Root"
		if rd, ok := a.props.(RootDefiner); ok {
			rootClass, rootName = rd.RootComponent()
		}
		rc, err := w.classes.Resolve(rootClass)
		if err != nil {
			return nil, fmt.Errorf("spawning %s: root component: %w", cls.Path, err)
		}
		root := w.newComponent(a, rc, rootName, rc.New())
		root.defaultSubobject = true
	}

	w.actors[a.handle] = a
	w.paths[a.PathName()] = a
	w.log.Debug("actor spawned", zap.String("actor", a.name), zap.String("class", cls.Path))
	return a, nil
}

func (w *World) newComponent(owner *Actor, cls *class.Class, name string, props any) *Component {
	c := &Component{
		world:      w,
		handle:     w.allocate(),
		owner:      owner,
		name:       name,
		class:      cls,
		props:      props,
		relative:   Identity(),
		registered: true,
	}
	owner.components = append(owner.components, c)
	w.components[c.handle] = c
	w.owners[c.handle] = owner.handle
	w.paths[c.PathName()] = c
	return c
}

// AddComponent constructs a component of cls on owner. An empty or taken
// name is replaced by a generated one.
func (w *World) AddComponent(owner *Actor, cls *class.Class, name string, relative Transform) (*Component, error) {
	if owner == nil || owner.destroyed {
		return nil, fmt.Errorf("adding component: %w", ErrDestroyed)
	}
	if cls == nil {
		return nil, fmt.Errorf("adding component: %w", class.ErrUnknownClass)
	}
	if cls.Kind != class.KindComponent {
		return nil, fmt.Errorf("adding %s: %w", cls.Path, ErrWrongKind)
	}
	if name == "" || owner.Component(name) != nil {
		name = w.uniqueName(baseName(cls.Path), func(n string) bool { return owner.Component(n) != nil })
	}
	c := w.newComponent(owner, cls, name, cls.New())
	if !relative.IsZero() {
		c.relative = relative
	}
	return c, nil
}

func (w *World) DestroyComponent(c *Component) {
	if c == nil || c.destroyed {
		return
	}
	c.destroyed = true
	c.registered = false
	owner := c.owner
	for i, oc := range owner.components {
		if oc == c {
			owner.components = append(owner.components[:i], owner.components[i+1:]...)
			break
		}
	}
	delete(w.components, c.handle)
	delete(w.owners, c.handle)
	delete(w.paths, c.PathName())
}

// Attach parents child under parent, keeping the child's world transform.
func (w *World) Attach(child, parent *Actor) error {
	if child == nil || parent == nil || child.destroyed || parent.destroyed {
		return fmt.Errorf("attaching: %w", ErrDestroyed)
	}
	for p := parent; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("attaching %s to %s: %w", child.name, parent.name, ErrCycle)
		}
	}
	w.Detach(child)
	child.parent = parent
	parent.children = append(parent.children, child)
	return nil
}

// Detach removes child from its parent, keeping its world transform.
func (w *World) Detach(child *Actor) {
	if child == nil || child.parent == nil {
		return
	}
	p := child.parent
	for i, c := range p.children {
		if c == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	child.parent = nil
}

// DestroyActor removes a from the world. Actors still attached afterwards
// are detached and survive.
func (w *World) DestroyActor(a *Actor) {
	if a == nil || a.destroyed {
		return
	}
	a.destroyed = true
	if h, ok := a.props.(DestroyHandler); ok {
		h.Destroyed(w, a)
	}
	for _, child := range a.Children() {
		w.Detach(child)
	}
	w.Detach(a)
	for _, c := range a.Components() {
		w.DestroyComponent(c)
	}
	delete(w.actors, a.handle)
	delete(w.paths, a.PathName())
	w.deselect(a)
	w.log.Debug("actor destroyed", zap.String("actor", a.name))
}

// DestroyTree destroys a and everything attached below it.
func (w *World) DestroyTree(a *Actor) {
	if a == nil {
		return
	}
	for _, child := range a.Children() {
		w.DestroyTree(child)
	}
	w.DestroyActor(a)
}

// Actors lists live actors in creation order.
func (w *World) Actors() []*Actor {
	out := make([]*Actor, 0, len(w.actors))
	for _, a := range w.actors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].handle < out[j].handle })
	return out
}

func (w *World) Actor(h class.Handle) (*Actor, bool) {
	a, ok := w.actors[h]
	return a, ok
}

func (w *World) Component(h class.Handle) (*Component, bool) {
	c, ok := w.components[h]
	return c, ok
}

// ResolveObject finds a live actor or component by path name.
func (w *World) ResolveObject(p string) (class.Object, bool) {
	o, ok := w.paths[p]
	return o, ok
}

// OwnerOf returns the handle of the object that owns h, or zero.
func (w *World) OwnerOf(h class.Handle) class.Handle {
	return w.owners[h]
}

// OwnedBy reports whether owner appears in the ownership chain of obj,
// obj itself included.
func (w *World) OwnedBy(obj class.Object, owner class.Handle) bool {
	if obj == nil || owner == 0 {
		return false
	}
	for h := obj.Handle(); h != 0; h = w.owners[h] {
		if h == owner {
			return true
		}
	}
	return false
}

// PostLoad forwards the post-construction notification to obj's properties.
func (w *World) PostLoad(obj class.Object) {
	var props any
	switch o := obj.(type) {
	case *Actor:
		props = o.props
	case *Component:
		props = o.props
	}
	if pl, ok := props.(PostLoader); ok {
		pl.PostLoad()
	}
}

func (w *World) Selection() []*Actor {
	out := make([]*Actor, len(w.selection))
	copy(out, w.selection)
	return out
}

func (w *World) Select(actors ...*Actor) {
	w.selection = w.selection[:0]
	for _, a := range actors {
		if a != nil && !a.destroyed {
			w.selection = append(w.selection, a)
		}
	}
}

func (w *World) deselect(a *Actor) {
	for i, s := range w.selection {
		if s == a {
			w.selection = append(w.selection[:i], w.selection[i+1:]...)
			return
		}
	}
}

// BeginTransaction opens an undo scope. Scopes nest; only the outermost
// one is recorded.
func (w *World) BeginTransaction(description string) {
	if w.txDepth == 0 {
		w.transactions = append(w.transactions, description)
	}
	w.txDepth++
}

func (w *World) EndTransaction() {
	if w.txDepth > 0 {
		w.txDepth--
	}
}

func (w *World) Transactions() []string {
	out := make([]string, len(w.transactions))
	copy(out, w.transactions)
	return out
}
