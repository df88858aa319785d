package scene

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prefabricator/internal/class"
)

type notifyProps struct {
	ActorProps
	loaded int
}

func (p *notifyProps) PostLoad() { p.loaded++ }

func newTestWorld(t *testing.T) *World {
	t.Helper()
	reg := class.NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))
	reg.MustRegister("/Game/Notify", class.KindActor, (*notifyProps)(nil))
	return NewWorld("World", reg, nil)
}

func mustClass(t *testing.T, w *World, path string) *class.Class {
	t.Helper()
	c, err := w.Classes().Resolve(path)
	require.NoError(t, err)
	return c
}

func TestSpawnCreatesRootComponent(t *testing.T) {
	w := newTestWorld(t)
	a, err := w.SpawnActor(mustClass(t, w, StaticMeshActorClass), Identity(), nil)
	require.NoError(t, err)

	root := a.RootComponent()
	require.NotNil(t, root)
	assert.Equal(t, "StaticMeshComponent", root.Name())
	assert.True(t, root.IsDefaultSubobject())
	assert.Equal(t, "World.StaticMeshActor_1", a.PathName())
	assert.Equal(t, "World.StaticMeshActor_1.StaticMeshComponent", root.PathName())

	got, ok := w.ResolveObject(root.PathName())
	require.True(t, ok)
	assert.Same(t, root, got)
}

func TestSpawnRejectsComponentClass(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.SpawnActor(mustClass(t, w, SceneComponentClass), Identity(), nil)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestSpawnFromTemplateClonesState(t *testing.T) {
	w := newTestWorld(t)
	cls := mustClass(t, w, StaticMeshActorClass)
	tmpl, err := w.SpawnActor(cls, Identity(), nil)
	require.NoError(t, err)
	tmpl.RootComponent().Props().(*StaticMeshComponent).StaticMesh = "StaticMesh'/Game/Cube.Cube'"

	clone, err := w.SpawnActor(cls, At(math32.Vec3(10, 0, 0)), tmpl)
	require.NoError(t, err)
	assert.NotSame(t, tmpl.RootComponent().Props(), clone.RootComponent().Props())
	assert.Equal(t, "StaticMesh'/Game/Cube.Cube'", clone.RootComponent().Props().(*StaticMeshComponent).StaticMesh)
}

func TestOwnershipArena(t *testing.T) {
	w := newTestWorld(t)
	a, err := w.SpawnActor(mustClass(t, w, ActorClass), Identity(), nil)
	require.NoError(t, err)
	b, err := w.SpawnActor(mustClass(t, w, ActorClass), Identity(), nil)
	require.NoError(t, err)

	root := a.RootComponent()
	assert.True(t, w.OwnedBy(root, a.Handle()))
	assert.True(t, w.OwnedBy(a, a.Handle()))
	assert.False(t, w.OwnedBy(root, b.Handle()))
	assert.Equal(t, a.Handle(), w.OwnerOf(root.Handle()))
}

func TestAttachKeepsWorldTransformAndMovesWithParent(t *testing.T) {
	w := newTestWorld(t)
	cls := mustClass(t, w, ActorClass)
	parent, _ := w.SpawnActor(cls, At(math32.Vec3(100, 0, 0)), nil)
	child, _ := w.SpawnActor(cls, At(math32.Vec3(150, 0, 0)), nil)

	require.NoError(t, w.Attach(child, parent))
	assert.Equal(t, math32.Vec3(150, 0, 0), child.Transform().Location)

	parent.SetTransform(At(math32.Vec3(200, 0, 0)))
	assert.InDelta(t, 250, child.Transform().Location.X, 1e-3)

	assert.ErrorIs(t, w.Attach(parent, child), ErrCycle)
}

func TestDestroyTree(t *testing.T) {
	w := newTestWorld(t)
	cls := mustClass(t, w, ActorClass)
	top, _ := w.SpawnActor(cls, Identity(), nil)
	mid, _ := w.SpawnActor(cls, Identity(), nil)
	leaf, _ := w.SpawnActor(cls, Identity(), nil)
	require.NoError(t, w.Attach(mid, top))
	require.NoError(t, w.Attach(leaf, mid))
	w.Select(top, leaf)

	w.DestroyTree(top)
	assert.True(t, top.Destroyed())
	assert.True(t, mid.Destroyed())
	assert.True(t, leaf.Destroyed())
	assert.Empty(t, w.Actors())
	assert.Empty(t, w.Selection())
}

func TestDestroyActorDetachesChildren(t *testing.T) {
	w := newTestWorld(t)
	cls := mustClass(t, w, ActorClass)
	parent, _ := w.SpawnActor(cls, Identity(), nil)
	child, _ := w.SpawnActor(cls, Identity(), nil)
	require.NoError(t, w.Attach(child, parent))

	w.DestroyActor(parent)
	assert.False(t, child.Destroyed())
	assert.Nil(t, child.Parent())
}

func TestAddComponentNames(t *testing.T) {
	w := newTestWorld(t)
	a, _ := w.SpawnActor(mustClass(t, w, ActorClass), Identity(), nil)
	mesh := mustClass(t, w, StaticMeshComponentClass)

	c1, err := w.AddComponent(a, mesh, "Mesh", Transform{})
	require.NoError(t, err)
	assert.Equal(t, "Mesh", c1.Name())

	c2, err := w.AddComponent(a, mesh, "Mesh", Transform{})
	require.NoError(t, err)
	assert.NotEqual(t, "Mesh", c2.Name())

	w.DestroyComponent(c1)
	assert.Nil(t, a.Component("Mesh"))
	_, ok := w.ResolveObject(c1.PathName())
	assert.False(t, ok)
}

func TestPostLoadForwarding(t *testing.T) {
	w := newTestWorld(t)
	a, _ := w.SpawnActor(mustClass(t, w, "/Game/Notify"), Identity(), nil)
	w.PostLoad(a)
	w.PostLoad(a.RootComponent())
	assert.Equal(t, 1, a.Props().(*notifyProps).loaded)
}

func TestTransactionsNest(t *testing.T) {
	w := newTestWorld(t)
	w.BeginTransaction("Create Prefab")
	w.BeginTransaction("inner")
	w.EndTransaction()
	w.EndTransaction()
	assert.Equal(t, []string{"Create Prefab"}, w.Transactions())
}

func TestTransformRelativeRoundTrip(t *testing.T) {
	parent := Transform{
		Location: math32.Vec3(10, 20, 30),
		Rotation: math32.NewQuat(0, 0, 0.7071068, 0.7071068),
		Scale:    math32.Vec3(2, 2, 2),
	}
	world := At(math32.Vec3(12, 25, 31))

	rel := world.Relative(parent)
	back := rel.Compose(parent)
	assert.InDelta(t, 12, back.Location.X, 1e-3)
	assert.InDelta(t, 25, back.Location.Y, 1e-3)
	assert.InDelta(t, 31, back.Location.Z, 1e-3)
}

func TestMobilityText(t *testing.T) {
	var m Mobility
	require.NoError(t, m.UnmarshalText([]byte("Movable")))
	assert.Equal(t, MobilityMovable, m)
	assert.Equal(t, MobilityMovable, MostDynamic(MobilityStatic, m))
	assert.Error(t, m.UnmarshalText([]byte("Flying")))
}

func TestComponentBoundsAndThumbnail(t *testing.T) {
	w := newTestWorld(t)
	a, _ := w.SpawnActor(mustClass(t, w, StaticMeshActorClass), At(math32.Vec3(100, 0, 0)), nil)

	box, ok := ComponentBounds(a.RootComponent())
	require.True(t, ok)
	assert.InDelta(t, 50, box.Min.X, 1e-3)
	assert.InDelta(t, 150, box.Max.X, 1e-3)

	png := w.CaptureThumbnail(a)
	require.NotEmpty(t, png)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
