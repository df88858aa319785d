package property

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEntryYAMLOmitsSentinels(t *testing.T) {
	out, err := yaml.Marshal(NewEntry("|Color"))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "array_length")
	assert.NotContains(t, string(out), "cross_reference_id")

	var e Entry
	require.NoError(t, yaml.Unmarshal([]byte("value: (R=1)\n"), &e))
	assert.Equal(t, NoArrayLength, e.ArrayLength)
	assert.False(t, e.IsCrossReference())
}

func TestEntryYAMLKeepsArraysAndReferences(t *testing.T) {
	id := uuid.New()
	src := &Entry{Path: "|Slots", ArrayLength: 0, CrossReferenceID: id}
	out, err := yaml.Marshal(src)
	require.NoError(t, err)

	var e Entry
	require.NoError(t, yaml.Unmarshal(out, &e))
	assert.Equal(t, 0, e.ArrayLength)
	assert.True(t, e.IsArray())
	assert.Equal(t, id, e.CrossReferenceID)
}

func TestFillKeys(t *testing.T) {
	var rs Records
	doc := `
Color:
  entries:
    "|Color":
      value: (R=1,G=0,B=0,A=1)
`
	require.NoError(t, yaml.Unmarshal([]byte(doc), &rs))
	rs.FillKeys()

	rec := rs["Color"]
	require.NotNil(t, rec)
	assert.Equal(t, "Color", rec.FieldName)
	e, ok := rec.Entry("|Color")
	require.True(t, ok)
	assert.Equal(t, "|Color", e.Path)
	assert.Equal(t, NoArrayLength, e.ArrayLength)
}
