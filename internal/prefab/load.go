package prefab

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"prefabricator/internal/class"
	"prefabricator/internal/crossref"
	"prefabricator/internal/property"
	"prefabricator/internal/scene"
	"prefabricator/internal/template"
	"prefabricator/internal/walker"
)

// LoadSettings tune one load.
type LoadSettings struct {
	// UnregisterBeforeLoad unregisters registered components while their
	// state is written.
	UnregisterBeforeLoad bool
	// RandomizeNestedSeed draws new seeds for nested instances from Random.
	RandomizeNestedSeed bool
	// SynchronousBuild loads nested instances in the same call. Otherwise
	// they are left for the build scheduler.
	SynchronousBuild bool
	CanLoadFromCache bool
	CanSaveToCache   bool
	Random           *rand.Rand
}

func DefaultLoadSettings() LoadSettings {
	return LoadSettings{
		UnregisterBeforeLoad: true,
		SynchronousBuild:     true,
		CanLoadFromCache:     true,
		CanSaveToCache:       true,
	}
}

type LoadState int

const (
	LoadStart LoadState = iota
	LoadMobilitySet
	LoadComponentsReconciled
	LoadActorsReconciled
	LoadCrossReferencesFixed
	LoadPostLoadNotified
	LoadDone
)

func (s LoadState) String() string {
	switch s {
	case LoadStart:
		return "Start"
	case LoadMobilitySet:
		return "MobilitySet"
	case LoadComponentsReconciled:
		return "ComponentsReconciled"
	case LoadActorsReconciled:
		return "ActorsReconciled"
	case LoadCrossReferencesFixed:
		return "CrossReferencesFixed"
	case LoadPostLoadNotified:
		return "PostLoadNotified"
	case LoadDone:
		return "Done"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// LoadReport summarizes what one load did. Counts include nested instances
// loaded synchronously.
type LoadReport struct {
	Template  string
	State     LoadState
	Created   int
	Reused    int
	Destroyed int
	CacheHits int
	// Skipped counts items with no usable class and kept actors that have
	// children of their own.
	Skipped int
	Fixup   walker.FixupResult
	// Nested lists the instances attached directly below the loaded one.
	Nested []*Instance
}

func (r *LoadReport) add(o *LoadReport) {
	if o == nil {
		return
	}
	r.Created += o.Created
	r.Reused += o.Reused
	r.Destroyed += o.Destroyed
	r.CacheHits += o.CacheHits
	r.Skipped += o.Skipped
	r.Fixup.Add(o.Fixup)
}

type loadRun struct {
	e        *Engine
	inst     *Instance
	asset    *template.Asset
	settings LoadSettings
	report   *LoadReport

	comps    map[uuid.UUID]*scene.Component
	actors   map[uuid.UUID]*scene.Actor
	kept     map[uuid.UUID]bool
	postLoad []class.Object
}

func (r *loadRun) advance(s LoadState) {
	r.report.State = s
	r.e.log.Debug("load state",
		zap.String("instance", r.inst.actor.Name()),
		zap.Stringer("state", s))
}

// Load reconciles the instance with its template. Live items are reused
// when their item id and class still match, missing ones are created and
// everything else attached to the instance is destroyed. A missing template
// leaves the instance untouched.
func (e *Engine) Load(inst *Instance, settings LoadSettings) (*LoadReport, error) {
	if inst == nil || inst.actor == nil {
		e.log.Error("loading instance", zap.Error(ErrNilInstance))
		return nil, ErrNilInstance
	}
	report := &LoadReport{Template: inst.Template(), State: LoadStart}
	asset, err := e.asset(inst)
	if err != nil {
		e.log.Error("loading instance", zap.String("instance", inst.actor.Name()), zap.Error(err))
		return report, nil
	}
	report.Template = asset.Path

	r := &loadRun{
		e:        e,
		inst:     inst,
		asset:    asset,
		settings: settings,
		report:   report,
		comps:    make(map[uuid.UUID]*scene.Component),
		actors:   make(map[uuid.UUID]*scene.Actor),
		kept:     make(map[uuid.UUID]bool),
	}

	inst.actor.SetMobility(asset.RootMobility)
	r.advance(LoadMobilitySet)

	leftoverComps := r.reconcileComponents()
	r.advance(LoadComponentsReconciled)

	leftoverActors := r.reconcileActors()
	r.advance(LoadActorsReconciled)

	r.fixup()
	r.advance(LoadCrossReferencesFixed)

	for _, obj := range r.postLoad {
		e.svc.PostLoad(obj)
	}
	r.advance(LoadPostLoadNotified)

	for _, c := range leftoverComps {
		e.svc.DestroyComponent(c)
		report.Destroyed++
	}
	for _, a := range leftoverActors {
		e.svc.DestroyTree(a)
		report.Destroyed++
	}
	inst.setLastUpdateID(asset.LastUpdateID)
	r.advance(LoadDone)

	e.log.Info("instance loaded",
		zap.String("instance", inst.actor.Name()),
		zap.String("template", asset.Path),
		zap.Int("created", report.Created),
		zap.Int("reused", report.Reused),
		zap.Int("destroyed", report.Destroyed),
		zap.Int("unresolved", report.Fixup.Unresolved))

	if settings.SynchronousBuild {
		e.HandleBuildComplete(inst)
	}
	return report, nil
}

// reconcileComponents matches root-level components against the template
// and returns the unclaimed ones.
func (r *loadRun) reconcileComponents() []*scene.Component {
	root := r.inst.actor
	pool := make(map[uuid.UUID]*scene.Component)
	var order []uuid.UUID
	for _, c := range root.Components() {
		if !templatedComponent(c) {
			continue
		}
		tag := c.Tag()
		if tag.Owner != root.Handle() {
			r.e.log.Debug("destroying foreign component", zap.String("component", c.Name()))
			r.e.svc.DestroyComponent(c)
			r.report.Destroyed++
			continue
		}
		pool[tag.ItemID] = c
		order = append(order, tag.ItemID)
	}

	for _, rec := range r.asset.ComponentData {
		cls, ok := r.class(rec.ClassPath, class.KindComponent, rec.ItemID)
		if !ok {
			continue
		}
		c := pool[rec.ItemID]
		if c != nil {
			delete(pool, rec.ItemID)
			if c.Class() != cls {
				r.e.svc.DestroyComponent(c)
				r.report.Destroyed++
				c = nil
			}
		}
		if c != nil {
			r.e.loadComponentState(r.walkContext(c), c, rec.Properties, r.settings)
			r.report.Reused++
		} else {
			created, err := r.e.svc.AddComponent(root, cls, rec.Name, rec.RelativeTransform)
			if err != nil {
				r.e.log.Warn("creating component", zap.String("item", rec.ItemID.String()), zap.Error(err))
				r.report.Skipped++
				continue
			}
			c = created
			r.e.loadComponentState(r.walkContext(c), c, rec.Properties, r.settings)
			r.postLoad = append(r.postLoad, c)
			r.report.Created++
		}
		c.SetRelative(rec.RelativeTransform)
		c.SetTag(r.inst.tag(rec.ItemID))
		r.comps[rec.ItemID] = c
	}

	var leftover []*scene.Component
	for _, id := range order {
		if c, ok := pool[id]; ok {
			leftover = append(leftover, c)
		}
	}
	return leftover
}

// reconcileActors matches attached actors against the template and returns
// every attached actor that was not claimed. Only leaf actors tagged by this
// instance are reuse candidates; tagged actors with children are kept as
// they are when the template still names them.
func (r *loadRun) reconcileActors() []*scene.Actor {
	root := r.inst.actor
	attached := root.Children()
	pool := make(map[uuid.UUID]*scene.Actor)
	branches := make(map[uuid.UUID]*scene.Actor)
	for _, child := range attached {
		if child.RootComponent() == nil {
			continue
		}
		tag := child.Tag()
		if tag.Owner != root.Handle() {
			continue
		}
		if len(child.Children()) == 0 {
			pool[tag.ItemID] = child
		} else {
			branches[tag.ItemID] = child
		}
	}
	claimed := make(map[*scene.Actor]bool)
	outdated := r.inst.LastUpdateID() != r.asset.LastUpdateID

	for _, rec := range r.asset.ActorData {
		// Actors with children of their own are never rebuilt. One the
		// template still names is kept as it is and stays a fix-up target.
		if branch, ok := branches[rec.ItemID]; ok {
			delete(branches, rec.ItemID)
			claimed[branch] = true
			r.actors[rec.ItemID] = branch
			r.kept[rec.ItemID] = true
			r.report.Skipped++
			r.e.log.Debug("skipping actor with attached children",
				zap.String("actor", branch.Name()),
				zap.String("item", rec.ItemID.String()))
			r.nested(branch)
			continue
		}

		cls, ok := r.class(rec.ClassPath, class.KindActor, rec.ItemID)
		if !ok {
			continue
		}
		child := pool[rec.ItemID]
		if child != nil && child.Class() == cls {
			delete(pool, rec.ItemID)
			claimed[child] = true
		} else {
			child = nil
		}

		world := rec.RelativeTransform.Compose(root.Transform())
		if child == nil {
			child = r.spawn(rec, cls, world, outdated)
			if child == nil {
				continue
			}
		} else {
			r.e.svc.Detach(child)
			if err := r.e.svc.Attach(child, root); err != nil {
				r.e.log.Warn("reattaching actor", zap.String("actor", child.Name()), zap.Error(err))
			}
			child.SetTransform(world)
			r.e.loadActorState(r, child, rec)
			r.report.Reused++
		}

		if rec.DisplayName != "" {
			child.SetLabel(rec.DisplayName)
		}
		child.SetTag(r.inst.tag(rec.ItemID))
		r.actors[rec.ItemID] = child
		r.nested(child)
	}

	var leftover []*scene.Actor
	for _, child := range attached {
		if !claimed[child] {
			leftover = append(leftover, child)
		}
	}
	return leftover
}

// nested records child as a nested instance when it is one and loads it
// in place for synchronous builds.
func (r *loadRun) nested(child *scene.Actor) {
	nested, ok := AsInstance(child)
	if !ok {
		return
	}
	r.report.Nested = append(r.report.Nested, nested)
	if r.settings.RandomizeNestedSeed {
		nested.SetSeed(RandomSeed(r.settings.Random))
	}
	if r.settings.SynchronousBuild {
		sub, err := r.e.Load(nested, r.settings)
		if err != nil {
			r.e.log.Warn("loading nested instance", zap.String("instance", child.Name()), zap.Error(err))
		}
		r.report.add(sub)
	}
}

// spawn creates the actor for rec, cloning a cached template when one is
// available for the current asset revision.
func (r *loadRun) spawn(rec *template.ActorRecord, cls *class.Class, world scene.Transform, outdated bool) *scene.Actor {
	var tmpl *scene.Actor
	if r.settings.CanLoadFromCache {
		tmpl = r.e.cache.Get(rec.ItemID, r.asset.LastUpdateID)
		if tmpl != nil && tmpl.Class() != cls {
			tmpl = nil
		}
	}
	child, err := r.e.svc.SpawnActor(cls, world, tmpl)
	if err != nil {
		r.e.log.Warn("spawning actor", zap.String("item", rec.ItemID.String()), zap.Error(err))
		r.report.Skipped++
		return nil
	}
	if err := r.e.svc.Attach(child, r.inst.actor); err != nil {
		r.e.log.Warn("attaching actor", zap.String("actor", child.Name()), zap.Error(err))
	}
	r.report.Created++

	if tmpl != nil && !outdated {
		r.report.CacheHits++
		return child
	}
	r.e.loadActorState(r, child, rec)
	r.postLoad = append(r.postLoad, child)
	if r.settings.CanSaveToCache {
		r.e.cache.Register(rec.ItemID, child, r.asset.LastUpdateID)
	}
	return child
}

func (r *loadRun) class(path string, kind class.Kind, itemID uuid.UUID) (*class.Class, bool) {
	cls, ok := r.e.svc.Classes().Lookup(path)
	if !ok || cls.Kind != kind {
		r.e.log.Warn("skipping item with unresolvable class",
			zap.String("template", r.asset.Path),
			zap.String("item", itemID.String()),
			zap.String("class", path))
		r.report.Skipped++
		return nil, false
	}
	return cls, true
}

func (r *loadRun) walkContext(obj class.Object) walker.Context {
	return r.e.walkContext(obj, r.inst, nil, nil)
}

// fixup resolves cross-references once every item of the load exists.
func (r *loadRun) fixup() {
	targets := make(crossref.Targets, len(r.actors))
	for id, a := range r.actors {
		targets[id] = a
	}
	fix := func(obj class.Object, props any, records property.Records) {
		if len(records) == 0 {
			return
		}
		ctx := r.e.walkContext(obj, r.inst, nil, targets)
		r.report.Fixup.Add(walker.Fixup(ctx, props, records, r.e.log))
	}

	for _, rec := range r.asset.ComponentData {
		if c, ok := r.comps[rec.ItemID]; ok {
			fix(c, c.Props(), rec.Properties)
		}
	}
	for _, rec := range r.asset.ActorData {
		a, ok := r.actors[rec.ItemID]
		if !ok || r.kept[rec.ItemID] {
			continue
		}
		fix(a, a.Props(), rec.Properties)
		for _, crec := range rec.Components {
			if c := a.Component(crec.Name); c != nil {
				fix(c, c.Props(), crec.Properties)
			}
		}
	}
}

// loadActorState writes stored state onto an actor and its components,
// matching components by name.
func (e *Engine) loadActorState(r *loadRun, a *scene.Actor, rec *template.ActorRecord) {
	e.deserializer.Deserialize(r.walkContext(a), a.Props(), rec.Properties)
	for _, crec := range rec.Components {
		c := a.Component(crec.Name)
		if c == nil {
			continue
		}
		e.loadComponentState(r.walkContext(c), c, crec.Properties, r.settings)
		if c != a.RootComponent() {
			c.SetRelative(crec.RelativeTransform)
		}
	}
	if rec.DisplayName != "" {
		a.SetLabel(rec.DisplayName)
	}
}

func (e *Engine) loadComponentState(ctx walker.Context, c *scene.Component, records property.Records, settings LoadSettings) {
	registered := c.Registered()
	if settings.UnregisterBeforeLoad && registered {
		c.Unregister()
	}
	e.deserializer.Deserialize(ctx, c.Props(), records)
	if settings.UnregisterBeforeLoad && registered {
		c.Register()
	}
}
