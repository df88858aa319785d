package crossref

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prefabricator/internal/class"
)

type obj struct {
	h    class.Handle
	path string
}

func (o obj) Handle() class.Handle { return o.h }
func (o obj) PathName() string     { return o.path }

func TestLookupIsBidirectional(t *testing.T) {
	l := NewLookup()
	id := uuid.New()
	l.Register(obj{1, "World.Cube_1"}, id)

	got, ok := l.ItemID("World.Cube_1")
	require.True(t, ok)
	assert.Equal(t, id, got)

	p, ok := l.Path(id)
	require.True(t, ok)
	assert.Equal(t, "World.Cube_1", p)
	assert.Equal(t, 1, l.Len())
}

func TestLookupRebindDropsStaleSide(t *testing.T) {
	l := NewLookup()
	first, second := uuid.New(), uuid.New()
	l.RegisterPath("World.A", first)
	l.RegisterPath("World.A", second)

	_, ok := l.Path(first)
	assert.False(t, ok)
	id, _ := l.ItemID("World.A")
	assert.Equal(t, second, id)

	l.RegisterPath("World.B", second)
	_, ok = l.ItemID("World.A")
	assert.False(t, ok)
	assert.Equal(t, 1, l.Len())
}

func TestNilLookup(t *testing.T) {
	var l *Lookup
	_, ok := l.ItemID("World.A")
	assert.False(t, ok)
	assert.Equal(t, 0, l.Len())
}

func TestTargetsResolve(t *testing.T) {
	id := uuid.New()
	targets := Targets{id: obj{2, "World.B"}}
	o, ok := targets.Resolve(id)
	require.True(t, ok)
	assert.Equal(t, "World.B", o.PathName())

	_, ok = targets.Resolve(uuid.New())
	assert.False(t, ok)
}
