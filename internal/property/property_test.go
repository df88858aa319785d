package property

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	arr := FieldPath("", "Slots")
	assert.Equal(t, "|Slots", arr)
	assert.Equal(t, "|Slots[2]", ElementPath(arr, 2))
	assert.Equal(t, "|Slots[2]|Label", FieldPath(ElementPath(arr, 2), "Label"))

	assert.Equal(t, "Slots", TopField("|Slots[2]|Label"))
	assert.Equal(t, "Color", TopField("|Color"))
	assert.Equal(t, "Outer", TopField("|Outer|Inner"))
}

func TestWithin(t *testing.T) {
	assert.True(t, Within("|Items", "|Items"))
	assert.True(t, Within("|Items[1]", "|Items"))
	assert.True(t, Within("|Pair|Name", "|Pair"))
	assert.True(t, Within("|Links[0]|Name", "|Links[0]"))
	assert.False(t, Within("|ItemsExtra", "|Items"))
	assert.False(t, Within("|Pai", "|Pair"))
	assert.False(t, Within("|Color", "|Pair"))
}

func TestNormalize(t *testing.T) {
	r := NewRecord("Target")
	r.Ensure("|Target")
	r.Normalize()
	assert.False(t, r.IsCrossReferencedActor)

	r.Ensure("|Target").CrossReferenceID = uuid.New()
	r.Normalize()
	assert.True(t, r.IsCrossReferencedActor)
}

func TestEnsureIsIdempotent(t *testing.T) {
	r := NewRecord("Color")
	e := r.Ensure("|Color")
	assert.Equal(t, NoArrayLength, e.ArrayLength)
	assert.Same(t, e, r.Ensure("|Color"))
	assert.Len(t, r.Entries, 1)
}

func TestCloneIsDeep(t *testing.T) {
	r := NewRecord("Mesh")
	e := r.Ensure("|Mesh")
	e.ExportedValue = "StaticMesh'/Game/Cube.Cube'"
	r.RefreshAssetMappings()

	c := Records{"Mesh": r}.Clone()
	c["Mesh"].Entries["|Mesh"].ExportedValue = "changed"
	c["Mesh"].Entries["|Mesh"].AssetMappings[0].AssetReference = "changed"

	assert.Equal(t, "StaticMesh'/Game/Cube.Cube'", e.ExportedValue)
	assert.Equal(t, "/Game/Cube.Cube", e.AssetMappings[0].AssetReference)
}

func TestExtractAssetMappings(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []AssetMapping
	}{
		{
			name: "plain",
			text: "StaticMesh'/Game/Meshes/Cube.Cube'",
			want: []AssetMapping{{
				AssetReference:  "/Game/Meshes/Cube.Cube",
				AssetClassName:  "StaticMesh",
				AssetObjectPath: "Cube",
			}},
		},
		{
			name: "quoted inside composite",
			text: `(Mesh=/Script/Engine.StaticMesh'"/Game/Rock.Rock"',Count=2)`,
			want: []AssetMapping{{
				AssetReference:  "/Game/Rock.Rock",
				AssetClassName:  "/Script/Engine.StaticMesh",
				AssetObjectPath: "Rock",
				UseQuotes:       true,
			}},
		},
		{
			name: "none",
			text: "Red",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAssetMappings(tt.text))
		})
	}
}

type redirects map[string]string

func (r redirects) ResolveAsset(path string) (string, bool) {
	p, ok := r[path]
	return p, ok
}

func TestResolveAssetMappings(t *testing.T) {
	text := `(A=StaticMesh'/Game/Old.Old',B=Material'"/Game/Mat.Mat"')`
	mappings := ExtractAssetMappings(text)
	require.Len(t, mappings, 2)

	got := ResolveAssetMappings(text, mappings, redirects{
		"/Game/Old.Old": "/Game/New/Old.Old",
		"/Game/Mat.Mat": "/Game/Mat.Mat",
	})
	assert.Equal(t, `(A=StaticMesh'/Game/New/Old.Old',B=Material'"/Game/Mat.Mat"')`, got)
	assert.Equal(t, text, ResolveAssetMappings(text, mappings, nil))
}
