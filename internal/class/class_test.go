package class

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObject struct {
	handle Handle
	path   string
}

func (o *testObject) Handle() Handle   { return o.handle }
func (o *testObject) PathName() string { return o.path }

type testResolver map[string]Object

func (r testResolver) ResolveObject(path string) (Object, bool) {
	o, ok := r[path]
	return o, ok
}

type Base struct {
	Name   string
	Hidden bool
}

type Slot struct {
	Label string
	Count int
}

func (s *Slot) SetDefaults() { s.Count = 1 }

type Widget struct {
	Base
	Name     string
	Color    string
	Size     int
	Enabled  bool
	Slots    []Slot
	Target   *testObject
	Tags     map[string]int
	Scratch  string `prefab:"transient"`
	Internal string `prefab:"-"`
	Callback func()
	hidden   int
}

func (w *Widget) SetDefaults() {
	w.Color = "White"
	w.Enabled = true
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	c, err := reg.Register("/Game/Widget", KindActor, (*Widget)(nil))
	require.NoError(t, err)
	assert.Equal(t, "/Game/Widget", c.Path)

	_, err = reg.Register("/Game/Widget", KindActor, (*Widget)(nil))
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = reg.Register("/Game/Bad", KindActor, Widget{})
	assert.ErrorIs(t, err, ErrNotStruct)

	_, err = reg.Resolve("/Game/Missing")
	assert.ErrorIs(t, err, ErrUnknownClass)

	got, err := reg.Resolve("/Game/Widget")
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Equal(t, []string{"/Game/Widget"}, reg.Paths())
}

func TestFieldsFlattenAndFilter(t *testing.T) {
	reg := NewRegistry()
	c := reg.MustRegister("/Game/Widget", KindActor, (*Widget)(nil))

	var names []string
	transient := map[string]bool{}
	for _, f := range c.Fields() {
		names = append(names, f.Name)
		transient[f.Name] = f.Transient
	}
	assert.Equal(t, []string{"Hidden", "Name", "Color", "Size", "Enabled", "Slots", "Target", "Tags", "Scratch"}, names)
	assert.True(t, transient["Scratch"])
	assert.False(t, transient["Color"])
}

func TestNewAppliesDefaults(t *testing.T) {
	c := NewRegistry().MustRegister("/Game/Widget", KindActor, (*Widget)(nil))
	w, ok := c.New().(*Widget)
	require.True(t, ok)
	assert.Equal(t, "White", w.Color)
	assert.True(t, c.Accepts(w))
	assert.False(t, c.Accepts(&Slot{}))
	assert.Same(t, c.Default(), c.Default())
}

func TestValueShapes(t *testing.T) {
	w := &Widget{}
	v := Bind(w, nil)
	assert.Equal(t, ShapeStruct, v.Shape())

	cases := map[string]Shape{
		"Color":  ShapeScalar,
		"Slots":  ShapeArray,
		"Target": ShapeObject,
		"Tags":   ShapeScalar,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			f, ok := v.Field(name)
			require.True(t, ok)
			assert.Equal(t, want, f.Shape())
		})
	}

	_, ok := v.Field("Missing")
	assert.False(t, ok)
}

func TestScalarText(t *testing.T) {
	w := &Widget{Color: "Red", Size: 3, Enabled: true}
	v := Bind(w, nil)

	color, _ := v.Field("Color")
	assert.Equal(t, "Red", color.ExportText())
	require.NoError(t, color.ImportText("Blue"))
	assert.Equal(t, "Blue", w.Color)

	size, _ := v.Field("Size")
	assert.Equal(t, "3", size.ExportText())
	require.NoError(t, size.ImportText("42"))
	assert.Equal(t, 42, w.Size)

	enabled, _ := v.Field("Enabled")
	assert.Equal(t, "true", enabled.ExportText())
	require.NoError(t, enabled.ImportText("false"))
	assert.False(t, w.Enabled)

	tags, _ := v.Field("Tags")
	require.NoError(t, tags.ImportText(`{"a":1}`))
	assert.Equal(t, map[string]int{"a": 1}, w.Tags)
	assert.Equal(t, `{"a":1}`, tags.ExportText())
}

func TestArrayGrowNeverShrinks(t *testing.T) {
	w := &Widget{Slots: []Slot{{Label: "a"}}}
	slots, _ := Bind(w, nil).Field("Slots")

	slots.Grow(3)
	require.Len(t, w.Slots, 3)
	assert.Equal(t, 1, w.Slots[2].Count)

	slots.Grow(1)
	assert.Len(t, w.Slots, 3)

	label, ok := slots.Index(0).Field("Label")
	require.True(t, ok)
	assert.Equal(t, "a", label.ExportText())
}

func TestCompositeText(t *testing.T) {
	w := &Widget{Slots: []Slot{{Label: "x", Count: 2}}}
	slots, _ := Bind(w, nil).Field("Slots")
	assert.Equal(t, `((Label="x",Count=2))`, slots.ExportText())
	assert.True(t, errors.Is(slots.ImportText("()"), ErrNotScalar))
}

func TestObjectReferences(t *testing.T) {
	other := &testObject{handle: 7, path: "World.Other"}
	w := &Widget{}
	v := Bind(w, testResolver{"World.Other": other})
	target, _ := v.Field("Target")

	assert.Equal(t, NoneText, target.ExportText())
	assert.Nil(t, target.Object())

	require.NoError(t, target.ImportText("World.Other"))
	assert.Same(t, other, w.Target)
	assert.Equal(t, "World.Other", target.ExportText())

	err := target.ImportText("World.Gone")
	assert.ErrorIs(t, err, ErrUnresolvedRef)

	require.NoError(t, target.SetObject(nil))
	assert.Nil(t, w.Target)
}

func TestClone(t *testing.T) {
	other := &testObject{handle: 1, path: "World.Other"}
	w := &Widget{
		Color:   "Red",
		Slots:   []Slot{{Label: "a", Count: 2}},
		Target:  other,
		Tags:    map[string]int{"k": 1},
		Scratch: "tmp",
	}
	c, ok := Clone(w).(*Widget)
	require.True(t, ok)

	assert.Equal(t, "Red", c.Color)
	assert.Same(t, other, c.Target)
	assert.Empty(t, c.Scratch)

	c.Slots[0].Label = "changed"
	c.Tags["k"] = 2
	assert.Equal(t, "a", w.Slots[0].Label)
	assert.Equal(t, 1, w.Tags["k"])
}
