package math

// The wire convention is left-handed with Y up. Hosts are right-handed with Z up.
// Every conversion is an axis swap of y and z followed by a flip of x.

func ToLHSPosition(v Vec3) Vec3 {
	return Vec3{-v.X, v.Z, v.Y}
}

// ToLHSNormal is the same mapping as positions; directions carry no translation.
func ToLHSNormal(v Vec3) Vec3 {
	return ToLHSPosition(v)
}

func ToLHSRotation(q Quaternion) Quaternion {
	return Quaternion{q.X, -q.Z, -q.Y, -q.W}
}

// ToLHSScale swaps axes only. Scale magnitudes have no handedness.
func ToLHSScale(v Vec3) Vec3 {
	return Vec3{v.X, v.Z, v.Y}
}

// ToLHSTransform applies the conversion to a whole local transform.
func ToLHSTransform(t *Transform) *Transform {
	return TransformFromPositionRotationScale(ToLHSPosition(t.Position), ToLHSRotation(t.Rotation), ToLHSScale(t.Scale))
}
