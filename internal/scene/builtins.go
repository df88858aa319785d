package scene

import (
	"fmt"

	"cogentcore.org/core/math32"

	"prefabricator/internal/class"
)

const (
	ActorClass               = "/Script/Engine.Actor"
	StaticMeshActorClass     = "/Script/Engine.StaticMeshActor"
	SceneComponentClass      = "/Script/Engine.SceneComponent"
	StaticMeshComponentClass = "/Script/Engine.StaticMeshComponent"
	BillboardComponentClass  = "/Script/Engine.BillboardComponent"
)

type ActorProps struct {
	Hidden               bool
	Tags                 []string
	IsEditorPreviewActor bool
	IsEditorOnlyActor    bool
}

type SceneComponent struct {
	Mobility         Mobility
	Visible          bool
	AttachSocketName string
	AssetUserData    []string
}

func (s *SceneComponent) SetDefaults() { s.Visible = true }

func (s *SceneComponent) GetMobility() Mobility { return s.Mobility }

func (s *SceneComponent) SetMobility(m Mobility) { s.Mobility = m }

// Primitive is implemented by components that occupy space.
type Primitive interface {
	LocalExtent() math32.Vector3
	CollisionEnabled() bool
}

type PrimitiveComponent struct {
	SceneComponent
	EnableCollision bool
	Extent          math32.Vector3
	Material        string
}

func (p *PrimitiveComponent) SetDefaults() {
	p.SceneComponent.SetDefaults()
	p.EnableCollision = true
	p.Extent = math32.Vec3(50, 50, 50)
}

func (p *PrimitiveComponent) LocalExtent() math32.Vector3 { return p.Extent }

func (p *PrimitiveComponent) CollisionEnabled() bool { return p.EnableCollision }

type StaticMeshComponent struct {
	PrimitiveComponent
	StaticMesh string
}

type StaticMeshActorProps struct {
	ActorProps
}

func (StaticMeshActorProps) RootComponent() (string, string) {
	return StaticMeshComponentClass, "StaticMeshComponent"
}

// RegisterBuiltins registers the engine classes every world needs.
func RegisterBuiltins(reg *class.Registry) error {
	builtins := []struct {
		path  string
		kind  class.Kind
		proto any
	}{
		{ActorClass, class.KindActor, (*ActorProps)(nil)},
		{StaticMeshActorClass, class.KindActor, (*StaticMeshActorProps)(nil)},
		{SceneComponentClass, class.KindComponent, (*SceneComponent)(nil)},
		{StaticMeshComponentClass, class.KindComponent, (*StaticMeshComponent)(nil)},
		{BillboardComponentClass, class.KindComponent, (*SceneComponent)(nil)},
	}
	for _, b := range builtins {
		if _, err := reg.Register(b.path, b.kind, b.proto); err != nil {
			return fmt.Errorf("registering builtins: %w", err)
		}
	}
	return nil
}
