package prefab

import (
	"fmt"

	"github.com/google/uuid"

	"prefabricator/internal/changes"
	"prefabricator/internal/class"
	"prefabricator/internal/scene"
	"prefabricator/internal/template"
)

const (
	ActorClass     = template.InstanceActorClass
	ComponentClass = template.InstanceComponentClass

	rootComponentName = "PrefabComponent"
)

// ComponentProps are the properties of an instance root component.
type ComponentProps struct {
	scene.SceneComponent

	// Template is the path of the bound template or collection.
	Template string
	Seed     int64

	// LastUpdateID is the asset update id this instance was last built or
	// saved against.
	LastUpdateID uuid.UUID `prefab:"transient"`

	changes *changes.Tracker
}

// ActorProps are the properties of an instance root actor.
type ActorProps struct {
	scene.ActorProps
}

func (*ActorProps) RootComponent() (string, string) {
	return ComponentClass, rootComponentName
}

// Destroyed takes the tagged actors attached below an instance down with it.
func (*ActorProps) Destroyed(w *scene.World, a *scene.Actor) {
	visited := make(map[class.Handle]bool)
	for _, child := range a.Children() {
		destroyAttached(w, child, visited)
	}
}

func destroyAttached(w *scene.World, a *scene.Actor, visited map[class.Handle]bool) {
	if a == nil || a.RootComponent() == nil || visited[a.Handle()] {
		return
	}
	visited[a.Handle()] = true
	if a.Tag().IsZero() {
		return
	}
	for _, child := range a.Children() {
		destroyAttached(w, child, visited)
	}
	w.DestroyActor(a)
}

// RegisterClasses adds the instance actor and component classes to reg.
func RegisterClasses(reg *class.Registry) error {
	if _, err := reg.Register(ActorClass, class.KindActor, (*ActorProps)(nil)); err != nil {
		return fmt.Errorf("registering prefab classes: %w", err)
	}
	if _, err := reg.Register(ComponentClass, class.KindComponent, (*ComponentProps)(nil)); err != nil {
		return fmt.Errorf("registering prefab classes: %w", err)
	}
	return nil
}
