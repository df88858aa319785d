package prefab

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"prefabricator/internal/crossref"
	"prefabricator/internal/scene"
	"prefabricator/internal/template"
)

// Save writes the instance's root components and attached actors into its
// template and issues a new update id. An instance without a resolvable
// template is left alone.
func (e *Engine) Save(inst *Instance) error {
	if inst == nil || inst.actor == nil {
		e.log.Error("saving instance", zap.Error(ErrNilInstance))
		return ErrNilInstance
	}
	asset, err := e.asset(inst)
	if err != nil {
		e.log.Error("saving instance", zap.String("instance", inst.actor.Name()), zap.Error(err))
		return nil
	}
	root := inst.actor

	asset.RootMobility = root.Mobility()
	asset.MarkStale()

	type pending struct {
		comp  *scene.Component
		actor *scene.Actor
		id    uuid.UUID
	}
	var items []pending
	lookup := crossref.NewLookup()

	for _, c := range root.Components() {
		if !templatedComponent(c) {
			continue
		}
		id := inst.itemID(c.Tag())
		c.SetTag(inst.tag(id))
		items = append(items, pending{comp: c, id: id})
	}
	for _, child := range root.Children() {
		if child.RootComponent() == nil {
			continue
		}
		id := inst.itemID(child.Tag())
		child.SetTag(inst.tag(id))
		lookup.Register(child, id)
		items = append(items, pending{actor: child, id: id})
	}

	for _, it := range items {
		if it.actor != nil {
			e.saveActorState(inst, it.actor, actorRecord(asset, it.id), lookup)
		} else {
			e.saveComponentState(inst, it.comp, componentRecord(asset, it.id), lookup)
		}
	}

	swept := asset.SweepStale()
	asset.SchemaVersion = template.Latest
	asset.LastUpdateID = uuid.New()
	inst.setLastUpdateID(asset.LastUpdateID)
	asset.Thumbnail = e.svc.CaptureThumbnail(root)

	e.log.Info("template saved",
		zap.String("template", asset.Path),
		zap.Int("actors", len(asset.ActorData)),
		zap.Int("components", len(asset.ComponentData)),
		zap.Int("removed", swept))
	return nil
}

func actorRecord(a *template.Asset, id uuid.UUID) *template.ActorRecord {
	rec, ok := a.Actor(id)
	if !ok {
		rec = &template.ActorRecord{Item: template.Item{ItemID: id}}
		a.ActorData = append(a.ActorData, rec)
	}
	rec.Stale = false
	return rec
}

func componentRecord(a *template.Asset, id uuid.UUID) *template.ComponentRecord {
	rec, ok := a.Component(id)
	if !ok {
		rec = &template.ComponentRecord{Item: template.Item{ItemID: id}}
		a.ComponentData = append(a.ComponentData, rec)
	}
	rec.Stale = false
	return rec
}

// saveActorState stores a child actor relative to the instance root along
// with every one of its components.
func (e *Engine) saveActorState(inst *Instance, a *scene.Actor, rec *template.ActorRecord, lookup *crossref.Lookup) {
	rec.RelativeTransform = a.Transform().Relative(inst.actor.Transform())
	rec.ClassPath = a.Class().Path
	rec.DisplayName = a.Label()
	rec.Properties = e.serializer.Serialize(e.walkContext(a, inst, lookup, nil), a.Props(), a.Class().Default(), rec.Properties)

	for _, c := range a.Components() {
		crec, ok := rec.Component(c.Name())
		if !ok {
			crec = &template.ComponentRecord{Item: template.Item{ItemID: uuid.New()}, Name: c.Name()}
			rec.Components = append(rec.Components, crec)
		}
		crec.Stale = false
		crec.ClassPath = c.Class().Path
		crec.RelativeTransform = c.Relative()
		crec.Properties = e.serializer.Serialize(e.walkContext(c, inst, lookup, nil), c.Props(), c.Class().Default(), crec.Properties)
	}
}

func (e *Engine) saveComponentState(inst *Instance, c *scene.Component, rec *template.ComponentRecord, lookup *crossref.Lookup) {
	rec.Name = c.Name()
	rec.ClassPath = c.Class().Path
	rec.RelativeTransform = c.Relative()
	rec.Properties = e.serializer.Serialize(e.walkContext(c, inst, lookup, nil), c.Props(), c.Class().Default(), rec.Properties)
}
