// Package prefab binds live actors to templates. It saves an instance's
// attached actors and components into its template and reconciles an
// instance against its template on load, reusing live objects by item id.
package prefab

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"prefabricator/internal/cache"
	"prefabricator/internal/class"
	"prefabricator/internal/crossref"
	"prefabricator/internal/scene"
	"prefabricator/internal/template"
	"prefabricator/internal/walker"
)

// Service is the scene the engine works in.
type Service interface {
	Classes() *class.Registry
	SpawnActor(cls *class.Class, t scene.Transform, template *scene.Actor) (*scene.Actor, error)
	AddComponent(owner *scene.Actor, cls *class.Class, name string, relative scene.Transform) (*scene.Component, error)
	DestroyComponent(c *scene.Component)
	Attach(child, parent *scene.Actor) error
	Detach(child *scene.Actor)
	DestroyActor(a *scene.Actor)
	DestroyTree(a *scene.Actor)
	OwnedBy(obj class.Object, owner class.Handle) bool
	ResolveObject(path string) (class.Object, bool)
	PostLoad(obj class.Object)
	Selection() []*scene.Actor
	Select(actors ...*scene.Actor)
	BeginTransaction(description string)
	EndTransaction()
	CaptureThumbnail(root *scene.Actor) []byte
}

var _ Service = (*scene.World)(nil)

// MaxSeed bounds instance seeds.
const MaxSeed = 10000000

// RandomSeed draws a seed in [0, MaxSeed).
func RandomSeed(rng *rand.Rand) int64 {
	if rng == nil {
		return rand.Int64N(MaxSeed)
	}
	return rng.Int64N(MaxSeed)
}

// EventListener is notified once an instance and all instances nested in it
// have been built.
type EventListener interface {
	PostSpawn(inst *Instance)
}

type ListenerFunc func(inst *Instance)

func (f ListenerFunc) PostSpawn(inst *Instance) { f(inst) }

// Listeners maps the listener names templates refer to onto implementations.
type Listeners struct {
	mu sync.RWMutex
	m  map[string]EventListener
}

func NewListeners() *Listeners {
	return &Listeners{m: make(map[string]EventListener)}
}

func (l *Listeners) Register(name string, listener EventListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[name] = listener
}

func (l *Listeners) Lookup(name string) (EventListener, bool) {
	if l == nil {
		return nil, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	listener, ok := l.m[name]
	return listener, ok
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Library   *template.Library
	Cache     *cache.Templates[scene.Actor]
	Listeners *Listeners
	// Ignore and Force extend the serializer's field lists.
	Ignore []string
	Force  []string
	// BoundsIgnore lists actor and component classes left out of bounds.
	BoundsIgnore []string
	Logger       *zap.Logger
}

type Engine struct {
	svc          Service
	lib          *template.Library
	cache        *cache.Templates[scene.Actor]
	listeners    *Listeners
	serializer   *walker.Serializer
	deserializer *walker.Deserializer
	boundsIgnore map[string]bool
	log          *zap.Logger
}

func NewEngine(svc Service, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	lib := opts.Library
	if lib == nil {
		lib = template.NewLibrary()
	}
	e := &Engine{
		svc:          svc,
		lib:          lib,
		cache:        opts.Cache,
		listeners:    opts.Listeners,
		serializer:   walker.NewSerializer(opts.Ignore, opts.Force, log),
		deserializer: walker.NewDeserializer(log),
		boundsIgnore: make(map[string]bool),
		log:          log,
	}
	for _, c := range opts.BoundsIgnore {
		e.boundsIgnore[c] = true
	}
	return e
}

func (e *Engine) Library() *template.Library { return e.lib }

// Instance wraps a, failing when it is not an instance root.
func (e *Engine) Instance(a *scene.Actor) (*Instance, error) {
	if a == nil {
		return nil, ErrNilInstance
	}
	inst, ok := AsInstance(a)
	if !ok {
		return nil, fmt.Errorf("%s: %w", a.Name(), ErrNotInstance)
	}
	return inst, nil
}

// asset resolves the template an instance builds, upgrading stored assets
// written by older schema versions.
func (e *Engine) asset(inst *Instance) (*template.Asset, error) {
	if inst.Template() == "" {
		return nil, fmt.Errorf("instance %s: %w", inst.actor.Name(), template.ErrNotFound)
	}
	a, err := e.lib.Resolve(inst.Template(), inst.Seed())
	if err != nil {
		return nil, err
	}
	if template.NeedsUpgrade(a) {
		up, err := e.Upgrade(a)
		if err != nil {
			return nil, err
		}
		a = up
	}
	return a, nil
}

// Upgrade migrates a to the latest schema and replaces it in the library.
func (e *Engine) Upgrade(a *template.Asset) (*template.Asset, error) {
	up, err := template.Upgrade(a)
	if err != nil {
		return nil, err
	}
	if up.SchemaVersion != a.SchemaVersion {
		e.log.Info("template upgraded",
			zap.String("template", a.Path),
			zap.Int("from", a.SchemaVersion),
			zap.Int("to", up.SchemaVersion))
	}
	e.lib.Put(up)
	return up, nil
}

// IsOutdated reports whether the instance was built against an older
// revision of its template.
func (e *Engine) IsOutdated(inst *Instance) bool {
	if inst == nil {
		return false
	}
	a, err := e.asset(inst)
	if err != nil {
		return false
	}
	return a.LastUpdateID != inst.LastUpdateID()
}

// RandomizeSeed draws a new seed for inst and, when recursive, for every
// nested instance below it.
func (e *Engine) RandomizeSeed(inst *Instance, rng *rand.Rand, recursive bool) {
	if inst == nil {
		return
	}
	inst.SetSeed(RandomSeed(rng))
	if !recursive {
		return
	}
	for _, child := range inst.Nested() {
		e.RandomizeSeed(child, rng, true)
	}
}

// HandleBuildComplete notifies the template's event listener.
func (e *Engine) HandleBuildComplete(inst *Instance) {
	if !inst.Valid() {
		return
	}
	a, err := e.asset(inst)
	if err != nil || a.EventListener == "" {
		return
	}
	listener, ok := e.listeners.Lookup(a.EventListener)
	if !ok {
		e.log.Warn("unknown event listener",
			zap.String("template", a.Path),
			zap.String("listener", a.EventListener))
		return
	}
	listener.PostSpawn(inst)
}

func (e *Engine) walkContext(obj class.Object, inst *Instance, lookup *crossref.Lookup, targets crossref.Targets) walker.Context {
	return walker.Context{
		Object:   obj,
		Root:     inst.actor.Handle(),
		Lookup:   lookup,
		Targets:  targets,
		Changes:  inst.Changes(),
		Owners:   e.svc,
		Resolver: e.svc,
		Assets:   e.lib,
	}
}

// templatedComponent reports whether a component on an instance root is
// stored as a root-level template component.
func templatedComponent(c *scene.Component) bool {
	switch c.Class().Path {
	case scene.BillboardComponentClass, ComponentClass:
		return false
	}
	return true
}
