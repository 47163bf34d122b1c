package scene

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/math"
)

type Kind uint8

const (
	KindTransform Kind = iota + 1
	KindMesh
	KindCamera
	KindLight
)

func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindMesh:
		return "mesh"
	case KindCamera:
		return "camera"
	case KindLight:
		return "light"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

/** @brief A canonical object of any kind. Every kind embeds a Transform. */
type Object interface {
	Kind() Kind
	Header() *Transform
}

/**
 * @brief The state shared by every canonical object. Position, Rotation and
 * Scale are local to the parent and already in the wire convention.
 */
type Transform struct {
	/** @brief Assigned once per export, never reused. */
	Index    int32
	Path     string
	Position math.Vec3
	Rotation math.Quaternion
	Scale    math.Vec3
	Visible  bool
}

func NewTransform(path string) *Transform {
	return &Transform{
		Path:     path,
		Rotation: math.NewQuatIdentity(),
		Scale:    math.NewVec3One(),
		Visible:  true,
	}
}

func (t *Transform) Kind() Kind         { return KindTransform }
func (t *Transform) Header() *Transform { return t }

// SetLocal copies a local transform into t.
func (t *Transform) SetLocal(local *math.Transform) {
	t.Position = local.Position
	t.Rotation = local.Rotation
	t.Scale = local.Scale
}

type Camera struct {
	Transform
	/** @brief Vertical field of view in degrees. */
	Fov       float32
	NearPlane float32
	FarPlane  float32
}

func NewCamera(path string) *Camera {
	return &Camera{Transform: *NewTransform(path), Fov: 60, NearPlane: 0.3, FarPlane: 1000}
}

func (c *Camera) Kind() Kind { return KindCamera }

type LightType uint8

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
	LightArea
)

type Light struct {
	Transform
	Type      LightType
	Color     math.Vec4
	Intensity float32
	Range     float32
	/** @brief Cone angle in degrees, spot lights only. */
	SpotAngle float32
}

func NewLight(path string) *Light {
	return &Light{
		Transform: *NewTransform(path),
		Type:      LightPoint,
		Color:     math.NewVec4One(),
		Intensity: 1,
	}
}

func (l *Light) Kind() Kind { return KindLight }
