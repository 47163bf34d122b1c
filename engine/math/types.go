// Package math holds the vector, quaternion and matrix types every scene
// object is expressed in. Matrices are row-vector: a point p is transformed
// as p * M, and the translation lives in the last row.
package math

type Vec2 struct {
	X, Y float32
}

type Vec3 struct {
	X, Y, Z float32
}

type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief A rotation stored as x, y, z, w. */
type Quaternion Vec4

/** @brief A 4x4 matrix stored row by row. */
type Mat4 struct {
	Data [16]float32
}

/**
 * @brief One corner of an unindexed triangle stream. Position, normal,
 * colour and texcoord identify the corner when welding.
 */
type Vertex3D struct {
	Position Vec3
	Normal   Vec3
	Colour   Vec4
	Texcoord Vec2
	// State is producer data (skinning weight, animation tag). It never
	// splits a welded vertex.
	State float32
}

/**
 * @brief Position, rotation and scale of a node relative to Parent, or to the
 * world when Parent is nil.
 */
type Transform struct {
	Position Vec3
	Rotation Quaternion
	Scale    Vec3
	Parent   *Transform
}
