package prefab

import (
	"fmt"

	"cogentcore.org/core/math32"
	"go.uber.org/zap"

	"prefabricator/internal/class"
	"prefabricator/internal/scene"
	"prefabricator/internal/template"
)

// CreateFromSelection turns actors into a new template stored at path and
// returns the instance now holding them. The instance sits at the bottom
// centre of the actors' bounds and is selected afterwards.
func (e *Engine) CreateFromSelection(actors []*scene.Actor, path string) (*Instance, error) {
	if path == "" {
		return nil, fmt.Errorf("creating template: empty path")
	}
	selected := sanitizeSelection(actors)
	cls, err := e.svc.Classes().Resolve(ActorClass)
	if err != nil {
		return nil, fmt.Errorf("creating template %s: %w", path, err)
	}

	asset := template.New(path)
	e.lib.Put(asset)

	e.svc.BeginTransaction("Create Prefab")
	root, err := e.svc.SpawnActor(cls, scene.At(e.pivot(selected)), nil)
	if err != nil {
		e.svc.EndTransaction()
		return nil, fmt.Errorf("creating template %s: %w", path, err)
	}
	inst, _ := AsInstance(root)
	root.SetMobility(mostDynamic(selected))
	inst.SetTemplate(path)
	for _, a := range selected {
		if err := e.svc.Attach(a, root); err != nil {
			e.log.Warn("attaching selected actor", zap.String("actor", a.Name()), zap.Error(err))
		}
	}
	e.svc.EndTransaction()

	if err := e.Save(inst); err != nil {
		return nil, err
	}
	e.svc.Select(root)
	return inst, nil
}

// sanitizeSelection drops actors without a root component and actors that
// will come along with a selected ancestor.
func sanitizeSelection(actors []*scene.Actor) []*scene.Actor {
	selected := make(map[class.Handle]bool, len(actors))
	for _, a := range actors {
		if a != nil {
			selected[a.Handle()] = true
		}
	}
	var out []*scene.Actor
	for _, a := range actors {
		if a == nil || a.Destroyed() || a.RootComponent() == nil {
			continue
		}
		covered := false
		for p := a.Parent(); p != nil; p = p.Parent() {
			if selected[p.Handle()] {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, a)
		}
	}
	return out
}

func (e *Engine) pivot(actors []*scene.Actor) math32.Vector3 {
	box := math32.B3Empty()
	for _, a := range actors {
		e.collectBounds(a, &box, true)
	}
	if box.IsEmpty() {
		return math32.Vector3{}
	}
	c := box.Center()
	return math32.Vec3(c.X, c.Y, box.Min.Z)
}

func mostDynamic(actors []*scene.Actor) scene.Mobility {
	m := scene.MobilityStatic
	for _, a := range actors {
		m = scene.MostDynamic(m, a.Mobility())
	}
	return m
}

// Unlink releases the instance's actors into the scene, keeping their world
// transforms, and destroys the instance root.
func (e *Engine) Unlink(inst *Instance) error {
	if inst == nil || inst.actor == nil {
		e.log.Error("unlinking instance", zap.Error(ErrNilInstance))
		return ErrNilInstance
	}
	e.svc.BeginTransaction("Unlink Prefab")
	defer e.svc.EndTransaction()

	for _, child := range inst.actor.Children() {
		e.svc.Detach(child)
		child.ClearTag()
	}
	e.svc.DestroyActor(inst.actor)
	return nil
}

// Bounds returns the world box of everything attached below the instance.
// Non-colliding primitives count only when includeNonColliding is set.
func (e *Engine) Bounds(inst *Instance, includeNonColliding bool) math32.Box3 {
	box := math32.B3Empty()
	if inst == nil || inst.actor == nil {
		return box
	}
	e.collectBounds(inst.actor, &box, includeNonColliding)
	return box
}

func (e *Engine) collectBounds(a *scene.Actor, out *math32.Box3, includeNonColliding bool) {
	if a == nil || a.Destroyed() {
		return
	}
	_, isInstance := AsInstance(a)
	if !isInstance && !e.boundsIgnore[a.Class().Path] {
		box := math32.B3Empty()
		for _, c := range a.Components() {
			if e.boundsIgnore[c.Class().Path] || !c.Registered() {
				continue
			}
			p, ok := c.Props().(scene.Primitive)
			if !ok || !(includeNonColliding || p.CollisionEnabled()) {
				continue
			}
			if cb, ok := scene.ComponentBounds(c); ok {
				box.ExpandByBox(cb)
			}
		}
		if box.IsEmpty() || box.Size() == (math32.Vector3{}) {
			loc := a.Transform().Location
			box = math32.B3(loc.X, loc.Y, loc.Z, loc.X, loc.Y, loc.Z)
		}
		out.ExpandByBox(box)
	}
	for _, child := range a.Children() {
		e.collectBounds(child, out, includeNonColliding)
	}
}
