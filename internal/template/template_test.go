package template

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prefabricator/internal/property"
	"prefabricator/internal/scene"
)

func record(field, path, value string) *property.Record {
	r := property.NewRecord(field)
	r.Ensure(path).ExportedValue = value
	return r
}

func sampleAsset() *Asset {
	a := New("/Game/Props/Crate")
	a.RootMobility = scene.MobilityMovable
	a.ComponentData = []*ComponentRecord{{
		Item: Item{ItemID: uuid.New(), ClassPath: scene.BillboardComponentClass},
	}}
	a.ActorData = []*ActorRecord{{
		Item: Item{
			ItemID:    uuid.New(),
			ClassPath: scene.StaticMeshActorClass,
			Properties: property.Records{
				"Tags": record("Tags", "|Tags", "(Wood)"),
			},
		},
		Components: []*ComponentRecord{{
			Name: "StaticMeshComponent",
			Item: Item{
				ItemID:    uuid.New(),
				ClassPath: scene.StaticMeshComponentClass,
				Properties: property.Records{
					"StaticMesh": record("StaticMesh", "|StaticMesh", "StaticMesh'/Game/Meshes/Crate.Crate'"),
				},
			},
		}},
	}}
	return a
}

func TestCloneIsDeep(t *testing.T) {
	a := sampleAsset()
	a.Thumbnail = []byte{1, 2}
	c := a.Clone()

	c.ActorData[0].Properties["Tags"].Entries["|Tags"].ExportedValue = "(Stone)"
	c.ActorData[0].Components[0].Name = "Other"
	c.Thumbnail[0] = 9

	assert.Equal(t, "(Wood)", a.ActorData[0].Properties["Tags"].Entries["|Tags"].ExportedValue)
	assert.Equal(t, "StaticMeshComponent", a.ActorData[0].Components[0].Name)
	assert.Equal(t, byte(1), a.Thumbnail[0])
}

func TestMarkAndSweepStale(t *testing.T) {
	a := sampleAsset()
	a.MarkStale()
	a.ActorData[0].Stale = false

	removed := a.SweepStale()
	assert.Equal(t, 2, removed)
	assert.Empty(t, a.ComponentData)
	require.Len(t, a.ActorData, 1)
	assert.Empty(t, a.ActorData[0].Components)
}

func TestLookups(t *testing.T) {
	a := sampleAsset()
	r, ok := a.Actor(a.ActorData[0].ItemID)
	require.True(t, ok)
	assert.Same(t, a.ActorData[0], r)

	c, ok := r.Component("StaticMeshComponent")
	require.True(t, ok)
	assert.Equal(t, scene.StaticMeshComponentClass, c.ClassPath)

	_, ok = a.Component(uuid.New())
	assert.False(t, ok)
}

func TestCheckItemIDs(t *testing.T) {
	a := sampleAsset()
	_, ok := a.CheckItemIDs()
	assert.True(t, ok)

	dup := a.ActorData[0].Clone()
	a.ActorData = append(a.ActorData, dup)
	id, ok := a.CheckItemIDs()
	assert.False(t, ok)
	assert.Equal(t, dup.ItemID, id)
}

func TestReferences(t *testing.T) {
	a := sampleAsset()
	a.ActorData = append(a.ActorData, &ActorRecord{
		Item: Item{ItemID: uuid.New(), ClassPath: InstanceActorClass},
		Components: []*ComponentRecord{{
			Name: "PrefabComponent",
			Item: Item{
				ItemID:    uuid.New(),
				ClassPath: InstanceComponentClass,
				Properties: property.Records{
					TemplateField: record(TemplateField, "|Template", "/Game/Props/Barrel"),
				},
			},
		}},
	})
	a.RefreshAssetMappings()

	assert.Equal(t, []string{"/Game/Meshes/Crate.Crate", "/Game/Props/Barrel"}, a.References())
	assert.Equal(t, []string{"/Game/Props/Barrel"}, a.NestedTemplates())
}

func TestUpgrade(t *testing.T) {
	a := sampleAsset()
	a.SchemaVersion = VersionInitial
	require.True(t, NeedsUpgrade(a))

	up, err := Upgrade(a)
	require.NoError(t, err)
	assert.Equal(t, Latest, up.SchemaVersion)
	assert.Equal(t, VersionInitial, a.SchemaVersion, "source asset is not modified")

	mappings := up.ActorData[0].Components[0].Properties["StaticMesh"].Entries["|StaticMesh"].AssetMappings
	require.Len(t, mappings, 1)
	assert.Equal(t, "/Game/Meshes/Crate.Crate", mappings[0].AssetReference)
	assert.Nil(t, a.ActorData[0].Components[0].Properties["StaticMesh"].Entries["|StaticMesh"].AssetMappings)

	again, err := Upgrade(up)
	require.NoError(t, err)
	assert.Equal(t, up, again)
}

func TestUpgradeRejectsUnknownVersion(t *testing.T) {
	a := sampleAsset()
	a.SchemaVersion = Latest + 1
	_, err := Upgrade(a)
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestEachMigrationAdvancesOneVersion(t *testing.T) {
	for v := VersionInitial; v < Latest; v++ {
		a := sampleAsset()
		a.SchemaVersion = v
		out, err := migrations[v](a)
		require.NoError(t, err)
		assert.Equal(t, v+1, out.SchemaVersion)
		assert.Equal(t, v, a.SchemaVersion)
	}
}

func TestCollectionPick(t *testing.T) {
	c := &Collection{Path: "/Game/Sets/Rocks", Entries: []CollectionEntry{
		{Template: "/Game/Rocks/A", Weight: 1},
		{Template: "/Game/Rocks/B", Weight: 3},
		{Template: "/Game/Rocks/Never", Weight: 0},
	}}

	first, err := c.Pick(42)
	require.NoError(t, err)
	second, err := c.Pick(42)
	require.NoError(t, err)
	assert.Equal(t, first, second, "the same seed picks the same template")

	counts := map[string]int{}
	for seed := range int64(400) {
		p, err := c.Pick(seed)
		require.NoError(t, err)
		counts[p]++
	}
	assert.Zero(t, counts["/Game/Rocks/Never"])
	assert.Greater(t, counts["/Game/Rocks/B"], counts["/Game/Rocks/A"])

	_, err = (&Collection{Path: "/Game/Empty"}).Pick(1)
	assert.ErrorIs(t, err, ErrEmptyCollection)
}

func TestLibraryResolve(t *testing.T) {
	lib := NewLibrary()
	crate := New("/Game/Props/Crate")
	lib.Put(crate)
	lib.PutCollection(&Collection{Path: "/Game/Sets/Props", Entries: []CollectionEntry{
		{Template: "/Game/Props/Crate", Weight: 1},
	}})

	got, err := lib.Resolve("/Game/Props/Crate", 0)
	require.NoError(t, err)
	assert.Same(t, crate, got)

	got, err = lib.Resolve("/Game/Sets/Props", 7)
	require.NoError(t, err)
	assert.Same(t, crate, got)

	_, err = lib.Resolve("/Game/Missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"/Game/Props/Crate"}, lib.Paths())
	assert.Equal(t, []string{"/Game/Sets/Props"}, lib.CollectionPaths())
}

func TestLibraryRedirects(t *testing.T) {
	lib := NewLibrary()
	lib.Redirect("/Game/Old/Crate", "/Game/Mid/Crate")
	lib.Redirect("/Game/Mid/Crate", "/Game/Props/Crate")
	lib.Put(New("/Game/Props/Crate"))

	p, moved := lib.ResolveAsset("/Game/Old/Crate")
	assert.True(t, moved)
	assert.Equal(t, "/Game/Props/Crate", p)

	_, moved = lib.ResolveAsset("/Game/Props/Crate")
	assert.False(t, moved)

	a, ok := lib.Asset("/Game/Old/Crate")
	require.True(t, ok)
	assert.Equal(t, "/Game/Props/Crate", a.Path)

	lib.Redirect("/Game/Loop/A", "/Game/Loop/B")
	lib.Redirect("/Game/Loop/B", "/Game/Loop/A")
	_, _ = lib.ResolveAsset("/Game/Loop/A")
}
