package scene

import (
	"github.com/google/uuid"

	"prefabricator/internal/class"
)

// ItemTag binds a live object to an item of a template instance.
type ItemTag struct {
	Owner  class.Handle
	ItemID uuid.UUID
}

func (t ItemTag) IsZero() bool {
	return t.Owner == 0 && t.ItemID == uuid.Nil
}

// Actor is a placed object in a world. Its first component is its root.
type Actor struct {
	world      *World
	handle     class.Handle
	name       string
	label      string
	class      *class.Class
	props      any
	transform  Transform
	parent     *Actor
	children   []*Actor
	components []*Component
	destroyed  bool
}

func (a *Actor) Handle() class.Handle { return a.handle }

func (a *Actor) PathName() string { return a.world.name + "." + a.name }

func (a *Actor) Name() string { return a.name }

func (a *Actor) Label() string { return a.label }

func (a *Actor) SetLabel(label string) { a.label = label }

func (a *Actor) Class() *class.Class { return a.class }

func (a *Actor) Props() any { return a.props }

func (a *Actor) World() *World { return a.world }

func (a *Actor) Transform() Transform { return a.transform }

// SetTransform moves the actor in world space. Attached actors keep their
// transform relative to it.
func (a *Actor) SetTransform(t Transform) {
	old := a.transform
	a.transform = t
	for _, child := range a.children {
		child.SetTransform(child.transform.Relative(old).Compose(t))
	}
}

func (a *Actor) Parent() *Actor { return a.parent }

func (a *Actor) Children() []*Actor {
	out := make([]*Actor, len(a.children))
	copy(out, a.children)
	return out
}

func (a *Actor) Components() []*Component {
	out := make([]*Component, len(a.components))
	copy(out, a.components)
	return out
}

func (a *Actor) RootComponent() *Component {
	if len(a.components) == 0 {
		return nil
	}
	return a.components[0]
}

// Component finds a component by its name relative to the actor.
func (a *Actor) Component(name string) *Component {
	for _, c := range a.components {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Tag returns the item tag stored on the root component.
func (a *Actor) Tag() ItemTag {
	if root := a.RootComponent(); root != nil {
		return root.tag
	}
	return ItemTag{}
}

func (a *Actor) SetTag(tag ItemTag) {
	if root := a.RootComponent(); root != nil {
		root.tag = tag
	}
}

func (a *Actor) ClearTag() { a.SetTag(ItemTag{}) }

// Mobility reads the root component's mobility.
func (a *Actor) Mobility() Mobility {
	if root := a.RootComponent(); root != nil {
		if m, ok := root.props.(Mobile); ok {
			return m.GetMobility()
		}
	}
	return MobilityStatic
}

func (a *Actor) SetMobility(m Mobility) {
	if root := a.RootComponent(); root != nil {
		if mob, ok := root.props.(Mobile); ok {
			mob.SetMobility(m)
		}
	}
}

func (a *Actor) Destroyed() bool { return a.destroyed }

// Component is a piece of state owned by an actor.
type Component struct {
	world            *World
	handle           class.Handle
	owner            *Actor
	name             string
	class            *class.Class
	props            any
	relative         Transform
	defaultSubobject bool
	registered       bool
	tag              ItemTag
	destroyed        bool
}

func (c *Component) Handle() class.Handle { return c.handle }

func (c *Component) PathName() string { return c.owner.PathName() + "." + c.name }

func (c *Component) IsDefaultSubobject() bool { return c.defaultSubobject }

func (c *Component) Owner() *Actor { return c.owner }

func (c *Component) Name() string { return c.name }

func (c *Component) Class() *class.Class { return c.class }

func (c *Component) Props() any { return c.props }

func (c *Component) Relative() Transform { return c.relative }

func (c *Component) SetRelative(t Transform) { c.relative = t }

// WorldTransform places the component in world space. The root component
// follows its actor.
func (c *Component) WorldTransform() Transform {
	if c.owner.RootComponent() == c {
		return c.owner.transform
	}
	return c.relative.Compose(c.owner.transform)
}

func (c *Component) Registered() bool { return c.registered }

func (c *Component) Register() { c.registered = true }

func (c *Component) Unregister() { c.registered = false }

func (c *Component) Tag() ItemTag { return c.tag }

func (c *Component) SetTag(tag ItemTag) { c.tag = tag }

func (c *Component) ClearTag() { c.tag = ItemTag{} }

func (c *Component) Destroyed() bool { return c.destroyed }
