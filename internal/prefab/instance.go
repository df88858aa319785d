package prefab

import (
	"errors"

	"github.com/google/uuid"

	"prefabricator/internal/changes"
	"prefabricator/internal/class"
	"prefabricator/internal/scene"
)

var (
	ErrNilInstance = errors.New("nil template instance")
	ErrNotInstance = errors.New("actor is not a template instance")
)

// Instance is a live actor bound to a template. All of its state lives on
// the actor's root component.
type Instance struct {
	actor *scene.Actor
	props *ComponentProps
}

// AsInstance reports whether a is an instance root and wraps it.
func AsInstance(a *scene.Actor) (*Instance, bool) {
	if a == nil {
		return nil, false
	}
	root := a.RootComponent()
	if root == nil {
		return nil, false
	}
	props, ok := root.Props().(*ComponentProps)
	if !ok {
		return nil, false
	}
	return &Instance{actor: a, props: props}, true
}

func (i *Instance) Actor() *scene.Actor { return i.actor }

func (i *Instance) Template() string { return i.props.Template }

func (i *Instance) SetTemplate(path string) { i.props.Template = path }

func (i *Instance) Seed() int64 { return i.props.Seed }

func (i *Instance) SetSeed(seed int64) { i.props.Seed = seed }

func (i *Instance) LastUpdateID() uuid.UUID { return i.props.LastUpdateID }

func (i *Instance) setLastUpdateID(id uuid.UUID) { i.props.LastUpdateID = id }

// Valid reports whether the instance actor is still alive.
func (i *Instance) Valid() bool {
	return i != nil && i.actor != nil && !i.actor.Destroyed()
}

// Changes returns the instance's override tracker.
func (i *Instance) Changes() *changes.Tracker {
	if i.props.changes == nil {
		i.props.changes = changes.NewTracker()
	}
	return i.props.changes
}

// RecordChange marks the field at path on obj as overridden by this
// instance.
func (i *Instance) RecordChange(obj class.Object, path string) {
	i.Changes().Record(obj.Handle(), path)
}

// Nested lists the instances attached directly below this one.
func (i *Instance) Nested() []*Instance {
	var out []*Instance
	for _, child := range i.actor.Children() {
		if n, ok := AsInstance(child); ok {
			out = append(out, n)
		}
	}
	return out
}

func (i *Instance) tag(itemID uuid.UUID) scene.ItemTag {
	return scene.ItemTag{Owner: i.actor.Handle(), ItemID: itemID}
}

// itemID returns the item id carried by tag when it belongs to this
// instance, or a fresh one.
func (i *Instance) itemID(tag scene.ItemTag) uuid.UUID {
	if tag.Owner == i.actor.Handle() && tag.ItemID != uuid.Nil {
		return tag.ItemID
	}
	return uuid.New()
}
