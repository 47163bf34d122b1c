package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mat4 stores a row-vector matrix row by row. That is the same memory as the
// column-vector mgl32.Mat4 of the same transform, so conversions are copies.

func (mt Mat4) gl() mgl32.Mat4 {
	return mgl32.Mat4(mt.Data)
}

func mat4FromGL(m mgl32.Mat4) Mat4 {
	return Mat4{Data: [16]float32(m)}
}

func NewMat4Identity() Mat4 {
	return mat4FromGL(mgl32.Ident4())
}

// Mul returns mt then other: a point multiplied by the result is multiplied
// by mt first.
func (mt Mat4) Mul(other Mat4) Mat4 {
	return mat4FromGL(other.gl().Mul4(mt.gl()))
}

func (mt Mat4) Inverse() Mat4 {
	return mat4FromGL(mt.gl().Inv())
}

func NewMat4Translation(position Vec3) Mat4 {
	return mat4FromGL(mgl32.Translate3D(position.X, position.Y, position.Z))
}

func NewMat4Scale(scale Vec3) Mat4 {
	return mat4FromGL(mgl32.Scale3D(scale.X, scale.Y, scale.Z))
}

func (mt Mat4) row(i int) Vec3 {
	return Vec3{mt.Data[i*4+0], mt.Data[i*4+1], mt.Data[i*4+2]}
}

// ExtractPosition returns the translation row.
func (mt Mat4) ExtractPosition() Vec3 {
	return mt.row(3)
}

// ExtractScale returns the length of each basis row.
func (mt Mat4) ExtractScale() Vec3 {
	return Vec3{mt.row(0).Length(), mt.row(1).Length(), mt.row(2).Length()}
}

// ExtractRotation returns the rotation left after the scale is divided out.
// It is the inverse of Quaternion.ToMat4 for matrices built as scale * rotation * translation.
func (mt Mat4) ExtractRotation() Quaternion {
	s := mt.ExtractScale()
	rot := mgl32.Ident4()
	for i, k := range []float32{s.X, s.Y, s.Z} {
		r := mt.row(i)
		if k != 0 {
			r = r.MulScalar(1 / k)
		}
		rot.SetCol(i, r.GL().Vec4(0))
	}
	return QuatFromGL(mgl32.Mat4ToQuat(rot)).Normalize()
}
