package build

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prefabricator/internal/class"
	"prefabricator/internal/prefab"
	"prefabricator/internal/scene"
)

type commandFunc func(s *Scheduler)

func (f commandFunc) Execute(s *Scheduler) { f(s) }

type fixture struct {
	world   *scene.World
	engine  *prefab.Engine
	events  *prefab.Listeners
	spawned []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := class.NewRegistry()
	require.NoError(t, scene.RegisterBuiltins(reg))
	require.NoError(t, prefab.RegisterClasses(reg))

	f := &fixture{world: scene.NewWorld("Level", reg, nil), events: prefab.NewListeners()}
	f.events.Register("record", prefab.ListenerFunc(func(inst *prefab.Instance) {
		f.spawned = append(f.spawned, inst.Template())
	}))
	f.engine = prefab.NewEngine(f.world, prefab.Options{Listeners: f.events})
	return f
}

func (f *fixture) mesh(t *testing.T) *scene.Actor {
	t.Helper()
	cls, err := f.world.Classes().Resolve(scene.StaticMeshActorClass)
	require.NoError(t, err)
	a, err := f.world.SpawnActor(cls, scene.Identity(), nil)
	require.NoError(t, err)
	return a
}

// nestedTemplates stores /Game/Inner holding one mesh and /Game/Outer
// holding an Inner instance, both with the recording listener.
func (f *fixture) nestedTemplates(t *testing.T) {
	t.Helper()
	inner, err := f.engine.CreateFromSelection([]*scene.Actor{f.mesh(t)}, "/Game/Inner")
	require.NoError(t, err)
	_, err = f.engine.CreateFromSelection([]*scene.Actor{inner.Actor()}, "/Game/Outer")
	require.NoError(t, err)
	for _, p := range []string{"/Game/Inner", "/Game/Outer"} {
		a, ok := f.engine.Library().Asset(p)
		require.True(t, ok)
		a.EventListener = "record"
	}
}

func (f *fixture) instance(t *testing.T, path string) *prefab.Instance {
	t.Helper()
	cls, err := f.world.Classes().Resolve(prefab.ActorClass)
	require.NoError(t, err)
	a, err := f.world.SpawnActor(cls, scene.At(math32.Vec3(0, 1000, 0)), nil)
	require.NoError(t, err)
	inst, err := f.engine.Instance(a)
	require.NoError(t, err)
	inst.SetTemplate(path)
	return inst
}

func TestTickIsLastInFirstOut(t *testing.T) {
	s := NewScheduler(nil, 0, nil)
	var order []int
	for i := range 3 {
		s.Push(commandFunc(func(*Scheduler) { order = append(order, i) }))
	}
	assert.Equal(t, 3, s.Tick())
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Zero(t, s.Pending())
}

func TestTickStopsWhenBudgetIsSpent(t *testing.T) {
	s := NewScheduler(nil, 5*time.Millisecond, nil)
	clock := time.Unix(0, 0)
	s.now = func() time.Time {
		clock = clock.Add(10 * time.Millisecond)
		return clock
	}
	ran := 0
	for range 3 {
		s.Push(commandFunc(func(*Scheduler) { ran++ }))
	}

	assert.Equal(t, 1, s.Tick())
	assert.Equal(t, 2, s.Pending())
	assert.Equal(t, 1, s.Tick())
	assert.Equal(t, 1, s.Tick())
	assert.Equal(t, 3, ran)
	assert.Zero(t, s.Tick())
}

func TestReset(t *testing.T) {
	s := NewScheduler(nil, 0, nil)
	s.Push(commandFunc(func(*Scheduler) { t.Fatal("abandoned command ran") }))
	s.Push(nil)
	require.Equal(t, 1, s.Pending())
	s.Reset()
	assert.Zero(t, s.Tick())
}

func TestRun(t *testing.T) {
	t.Run("drains the stack", func(t *testing.T) {
		s := NewScheduler(nil, 0, nil)
		ran := 0
		s.Push(commandFunc(func(s *Scheduler) {
			ran++
			s.Push(commandFunc(func(*Scheduler) { ran++ }))
		}))
		require.NoError(t, s.Run(context.Background(), time.Millisecond))
		assert.Equal(t, 2, ran)
	})

	t.Run("stops when cancelled", func(t *testing.T) {
		s := NewScheduler(nil, time.Millisecond, nil)
		clock := time.Unix(0, 0)
		s.now = func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}
		var again Command
		again = commandFunc(func(s *Scheduler) { s.Push(again) })
		s.Push(again)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, s.Run(ctx, time.Millisecond), context.Canceled)
		assert.Equal(t, 1, s.Pending())
	})
}

func TestBuildPrefabCompletesBottomUp(t *testing.T) {
	f := newFixture(t)
	f.nestedTemplates(t)
	f.spawned = nil

	outer := f.instance(t, "/Game/Outer")
	var reports []string
	s := NewScheduler(f.engine, 0, nil)
	s.Push(&BuildPrefab{
		Instance: outer,
		Settings: prefab.DefaultLoadSettings(),
		Report:   func(r *prefab.LoadReport) { reports = append(reports, r.Template) },
	})
	require.NoError(t, s.Run(context.Background(), time.Millisecond))

	assert.Equal(t, []string{"/Game/Outer", "/Game/Inner"}, reports)
	assert.Equal(t, []string{"/Game/Inner", "/Game/Outer"}, f.spawned)

	nested := outer.Nested()
	require.Len(t, nested, 1)
	assert.Len(t, nested[0].Actor().Children(), 1)
	assert.False(t, f.engine.IsOutdated(nested[0]))
}

func TestBuildPrefabSync(t *testing.T) {
	f := newFixture(t)
	f.nestedTemplates(t)
	f.spawned = nil

	outer := f.instance(t, "/Game/Outer")
	var report *prefab.LoadReport
	s := NewScheduler(f.engine, 0, nil)
	s.Push(&BuildPrefabSync{
		Instance: outer,
		Settings: prefab.DefaultLoadSettings(),
		Random:   rand.New(rand.NewPCG(3, 4)),
		Report:   func(r *prefab.LoadReport) { report = r },
	})
	assert.Equal(t, 1, s.Tick())

	require.NotNil(t, report)
	assert.Equal(t, 2, report.Created)
	require.Len(t, report.Nested, 1)
	assert.Len(t, report.Nested[0].Actor().Children(), 1)
	assert.Equal(t, []string{"/Game/Inner", "/Game/Outer"}, f.spawned)
}

func TestBuildSkipsDestroyedInstances(t *testing.T) {
	f := newFixture(t)
	f.nestedTemplates(t)
	outer := f.instance(t, "/Game/Outer")
	f.world.DestroyActor(outer.Actor())

	s := NewScheduler(f.engine, 0, nil)
	s.Push(&BuildPrefab{Instance: outer, Settings: prefab.DefaultLoadSettings()})
	assert.Equal(t, 1, s.Tick())
	assert.Zero(t, s.Pending())
}
