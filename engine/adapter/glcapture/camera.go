package glcapture

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// matrixFromUniform reads a GL uniform, column major unless transpose is set.
func matrixFromUniform(value []float32, transpose bool) (mgl32.Mat4, bool) {
	var m mgl32.Mat4
	if len(value) < 16 {
		return m, false
	}
	copy(m[:], value[:16])
	if transpose {
		m = m.Transpose()
	}
	return m, true
}

/**
 * @brief Recovers the camera pose from a model-view matrix. The camera looks
 * down its -Z and is kept upright against world +Y.
 */
func cameraFromView(view mgl32.Mat4) (mgl32.Vec3, mgl32.Quat) {
	inv := view.Inv()
	pos := inv.Col(3).Vec3()
	forward := inv.Col(2).Vec3().Mul(-1)
	if forward.Len() == 0 {
		return pos, mgl32.QuatIdent()
	}
	forward = forward.Normalize()

	up := mgl32.Vec3{0, 1, 0}
	if stdmath.Abs(float64(forward.Dot(up))) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return pos, mgl32.QuatLookAtV(mgl32.Vec3{}, forward, up)
}

// fovFromProjection returns the field of view, in degrees, encoded in a
// perspective projection. ok is false for a degenerate matrix.
func fovFromProjection(proj mgl32.Mat4) (float32, bool) {
	p11 := proj.At(1, 1)
	if p11 == 0 {
		return 0, false
	}
	return mgl32.RadToDeg(float32(stdmath.Atan(float64(1 / p11)))), true
}
