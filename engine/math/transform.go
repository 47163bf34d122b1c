package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

func TransformCreate() *Transform {
	return &Transform{Rotation: NewQuatIdentity(), Scale: NewVec3One()}
}

func TransformFromPosition(position Vec3) *Transform {
	t := TransformCreate()
	t.Position = position
	return t
}

func TransformFromPositionRotationScale(position Vec3, rotation Quaternion, scale Vec3) *Transform {
	return &Transform{Position: position, Rotation: rotation, Scale: scale}
}

// TransformFromMat4 decomposes m, which must be built as scale * rotation * translation.
// Shear is lost.
func TransformFromMat4(m Mat4) *Transform {
	return TransformFromPositionRotationScale(m.ExtractPosition(), m.ExtractRotation(), m.ExtractScale())
}

func (t *Transform) SetPosition(position Vec3) { t.Position = position }
func (t *Transform) SetRotation(rotation Quaternion) { t.Rotation = rotation }
func (t *Transform) SetScale(scale Vec3) { t.Scale = scale }

func (t *Transform) Translate(translation Vec3) {
	t.Position = t.Position.Add(translation)
}

// Rotate applies rotation on top of the current one.
func (t *Transform) Rotate(rotation Quaternion) {
	t.Rotation = t.Rotation.Mul(rotation)
}

// GetLocal returns scale * rotation * translation; a nil transform is the identity.
func (t *Transform) GetLocal() Mat4 {
	if t == nil {
		return NewMat4Identity()
	}
	m := mgl32.Translate3D(t.Position.X, t.Position.Y, t.Position.Z).
		Mul4(t.Rotation.Normalize().GL().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale.X, t.Scale.Y, t.Scale.Z))
	return mat4FromGL(m)
}

// GetWorld chains the local matrices up to the root.
func (t *Transform) GetWorld() Mat4 {
	m := t.GetLocal()
	if t == nil {
		return m
	}
	for p := t.Parent; p != nil; p = p.Parent {
		m = m.Mul(p.GetLocal())
	}
	return m
}

/**
 * @brief Expresses the world transform child relative to the world transform parent:
 * local = child * inverse(parent). A nil parent returns a copy of child.
 */
func RelativeTo(child, parent *Transform) *Transform {
	if parent == nil {
		return TransformFromPositionRotationScale(child.Position, child.Rotation, child.Scale)
	}
	return TransformFromMat4(child.GetWorld().Mul(parent.GetWorld().Inverse()))
}
