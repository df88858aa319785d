package scene

import "cogentcore.org/core/math32"

// Transform is a location, rotation and scale. World transforms are stored
// on actors; component and template transforms are relative to a parent.
type Transform struct {
	Location math32.Vector3 `yaml:"location" json:"location"`
	Rotation math32.Quat    `yaml:"rotation" json:"rotation"`
	Scale    math32.Vector3 `yaml:"scale" json:"scale"`
}

func Identity() Transform {
	return Transform{
		Rotation: math32.NewQuat(0, 0, 0, 1),
		Scale:    math32.Vec3(1, 1, 1),
	}
}

// At returns an unrotated, unscaled transform at loc.
func At(loc math32.Vector3) Transform {
	t := Identity()
	t.Location = loc
	return t
}

// Compose treats t as relative to parent and returns the resulting world transform.
func (t Transform) Compose(parent Transform) Transform {
	t, parent = t.normalized(), parent.normalized()
	return Transform{
		Location: t.Location.Mul(parent.Scale).MulQuat(parent.Rotation).Add(parent.Location),
		Rotation: parent.Rotation.Mul(t.Rotation),
		Scale:    t.Scale.Mul(parent.Scale),
	}
}

// Relative expresses the world transform t in the space of parent.
func (t Transform) Relative(parent Transform) Transform {
	t, parent = t.normalized(), parent.normalized()
	inv := parent.Rotation.Inverse()
	return Transform{
		Location: safeDiv(t.Location.Sub(parent.Location).MulQuat(inv), parent.Scale),
		Rotation: inv.Mul(t.Rotation),
		Scale:    safeDiv(t.Scale, parent.Scale),
	}
}

// TransformPoint maps a point from the local space of t into its parent space.
func (t Transform) TransformPoint(p math32.Vector3) math32.Vector3 {
	t = t.normalized()
	return p.Mul(t.Scale).MulQuat(t.Rotation).Add(t.Location)
}

// IsZero reports whether t is the zero value, as produced by documents
// that omit a transform.
func (t Transform) IsZero() bool {
	return t == Transform{}
}

func (t Transform) normalized() Transform {
	if t.Rotation == (math32.Quat{}) {
		t.Rotation = math32.NewQuat(0, 0, 0, 1)
	}
	if t.Scale == (math32.Vector3{}) {
		t.Scale = math32.Vec3(1, 1, 1)
	}
	return t
}

func safeDiv(a, b math32.Vector3) math32.Vector3 {
	div := func(x, y float32) float32 {
		if y == 0 {
			return 0
		}
		return x / y
	}
	return math32.Vec3(div(a.X, b.X), div(a.Y, b.Y), div(a.Z, b.Z))
}
