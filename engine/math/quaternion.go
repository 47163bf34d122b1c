package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

func NewQuatIdentity() Quaternion {
	return Quaternion{0, 0, 0, 1}
}

// QuatFromGL converts from the mathgl quaternion used where GL data arrives.
func QuatFromGL(q mgl32.Quat) Quaternion {
	return Quaternion{q.V[0], q.V[1], q.V[2], q.W}
}

func (q Quaternion) GL() mgl32.Quat {
	return mgl32.Quat{W: q.W, V: mgl32.Vec3{q.X, q.Y, q.Z}}
}

// NewQuatFromAxisAngle rotates angle radians about axis. The axis is used as
// given; normalize only normalizes the result.
func NewQuatFromAxisAngle(axis Vec3, angle float32, normalize bool) Quaternion {
	q := QuatFromGL(mgl32.QuatRotate(angle, axis.GL()))
	if normalize {
		q = q.Normalize()
	}
	return q
}

// Normal returns the length of q.
func (q Quaternion) Normal() float32 {
	return q.GL().Len()
}

// Normalize returns q at unit length, or the identity for a zero quaternion.
func (q Quaternion) Normalize() Quaternion {
	if q.Normal() == 0 {
		return NewQuatIdentity()
	}
	return QuatFromGL(q.GL().Normalize())
}

func (q Quaternion) Inverse() Quaternion {
	return QuatFromGL(q.GL().Conjugate()).Normalize()
}

// Mul is the Hamilton product q * other.
func (q Quaternion) Mul(other Quaternion) Quaternion {
	return QuatFromGL(q.GL().Mul(other.GL()))
}

func (q Quaternion) Dot(other Quaternion) float32 {
	return q.GL().Dot(other.GL())
}

// Compare reports whether q and other describe the same rotation within tolerance.
// q and -q are the same rotation.
func (q Quaternion) Compare(other Quaternion, tolerance float32) bool {
	a := Vec4(q)
	b := Vec4(other)
	return a.Compare(b, tolerance) || a.Compare(b.MulScalar(-1), tolerance)
}

// ToMat4 returns the row-vector rotation matrix of q.
func (q Quaternion) ToMat4() Mat4 {
	return mat4FromGL(q.Normalize().GL().Mat4())
}

// Slerp interpolates along the shorter arc between q and other.
func (q Quaternion) Slerp(other Quaternion, percentage float32) Quaternion {
	a := q.Normalize().GL()
	b := other.Normalize().GL()
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return QuatFromGL(mgl32.QuatSlerp(a, b, percentage))
}
