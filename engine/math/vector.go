package math

import (
	m "math"

	"github.com/go-gl/mathgl/mgl32"
)

// within is an absolute comparison. mgl32's ApproxEqual helpers are relative.
func within(a, b, tolerance float32) bool {
	return float32(m.Abs(float64(a-b))) <= tolerance
}

func NewVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

func (v Vec2) MulScalar(scalar float32) Vec2 {
	return Vec2{v.X * scalar, v.Y * scalar}
}

// Compare reports whether every component of v is within tolerance of other.
func (v Vec2) Compare(other Vec2, tolerance float32) bool {
	return within(v.X, other.X, tolerance) && within(v.Y, other.Y, tolerance)
}

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func NewVec3Zero() Vec3 {
	return Vec3{}
}

func NewVec3One() Vec3 {
	return Vec3{1, 1, 1}
}

// Vec3FromGL converts from the mathgl vector used where GL data arrives.
func Vec3FromGL(v mgl32.Vec3) Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

func (v Vec3) GL() mgl32.Vec3 {
	return mgl32.Vec3{v.X, v.Y, v.Z}
}

func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3FromGL(v.GL().Add(other.GL()))
}

func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3FromGL(v.GL().Sub(other.GL()))
}

// Mul multiplies component-wise.
func (v Vec3) Mul(other Vec3) Vec3 {
	return Vec3{v.X * other.X, v.Y * other.Y, v.Z * other.Z}
}

func (v Vec3) MulScalar(scalar float32) Vec3 {
	return Vec3FromGL(v.GL().Mul(scalar))
}

func (v Vec3) Length() float32 {
	return v.GL().Len()
}

// Normalized returns v scaled to unit length. A zero vector is returned as is.
func (v Vec3) Normalized() Vec3 {
	if v.Length() == 0 {
		return v
	}
	return Vec3FromGL(v.GL().Normalize())
}

func (v Vec3) Dot(other Vec3) float32 {
	return v.GL().Dot(other.GL())
}

func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3FromGL(v.GL().Cross(other.GL()))
}

// Compare reports whether every component of v is within tolerance of other.
func (v Vec3) Compare(other Vec3, tolerance float32) bool {
	return within(v.X, other.X, tolerance) &&
		within(v.Y, other.Y, tolerance) &&
		within(v.Z, other.Z, tolerance)
}

// Lerp interpolates linearly between v and other, t in [0, 1].
func (v Vec3) Lerp(other Vec3, t float32) Vec3 {
	return v.Add(other.Sub(v).MulScalar(t))
}

// Transform treats v as a point, w = 1, and multiplies it by m as a row vector.
func (v Vec3) Transform(mt Mat4) Vec3 {
	return Vec3FromGL(mt.gl().Mul4x1(v.GL().Vec4(1)).Vec3())
}

func NewVec4(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

func NewVec4One() Vec4 {
	return Vec4{1, 1, 1, 1}
}

func (v Vec4) gl() mgl32.Vec4 {
	return mgl32.Vec4{v.X, v.Y, v.Z, v.W}
}

func vec4FromGL(v mgl32.Vec4) Vec4 {
	return Vec4{v[0], v[1], v[2], v[3]}
}

func (v Vec4) Add(other Vec4) Vec4 {
	return vec4FromGL(v.gl().Add(other.gl()))
}

func (v Vec4) Sub(other Vec4) Vec4 {
	return vec4FromGL(v.gl().Sub(other.gl()))
}

func (v Vec4) MulScalar(scalar float32) Vec4 {
	return vec4FromGL(v.gl().Mul(scalar))
}

// Lerp interpolates linearly between v and other, t in [0, 1].
func (v Vec4) Lerp(other Vec4, t float32) Vec4 {
	return v.Add(other.Sub(v).MulScalar(t))
}

// Compare reports whether every component of v is within tolerance of other.
func (v Vec4) Compare(other Vec4, tolerance float32) bool {
	a, b := v.gl(), other.gl()
	for i := range a {
		if !within(a[i], b[i], tolerance) {
			return false
		}
	}
	return true
}
