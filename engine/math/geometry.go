package math

// weldKey holds the attributes that make two corners the same vertex.
type weldKey struct {
	position Vec3
	normal   Vec3
	colour   Vec4
	texcoord Vec2
}

/**
 * @brief Collapses an unindexed triangle stream into unique vertices and an index
 * buffer. Vertices are compared by exact equality of position, normal, colour and
 * texture coordinate; State is ignored. The first corner seen defines the output
 * vertex, so indices follow input order.
 *
 * @param vertices The unindexed corner stream, three corners per triangle.
 * @return The unique vertices and one index per input corner.
 */
func GeometryWeld(vertices []Vertex3D) ([]Vertex3D, []int32) {
	indices := make([]int32, len(vertices))
	welded := make([]Vertex3D, 0, len(vertices)/2)
	seen := make(map[weldKey]int32, len(vertices)/2)

	for i, v := range vertices {
		key := weldKey{v.Position, v.Normal, v.Colour, v.Texcoord}
		if idx, ok := seen[key]; ok {
			indices[i] = idx
			continue
		}
		idx := int32(len(welded))
		welded = append(welded, v)
		// NaN never equals itself, so such corners are never shared.
		seen[key] = idx
		indices[i] = idx
	}
	return welded, indices
}

/**
 * @brief The non-welded variant: every corner is its own vertex and the
 * indices are the identity permutation.
 */
func GeometryUnwelded(vertices []Vertex3D) ([]Vertex3D, []int32) {
	out := make([]Vertex3D, len(vertices))
	copy(out, vertices)
	indices := make([]int32, len(vertices))
	for i := range indices {
		indices[i] = int32(i)
	}
	return out, indices
}

// GeometryGenerateNormals writes one face normal per corner of a triangulated
// index buffer into normals, which must be as long as indices.
func GeometryGenerateNormals(points []Vec3, indices []int32, normals []Vec3) {
	for i := 0; i+2 < len(indices); i += 3 {
		i0 := indices[i+0]
		i1 := indices[i+1]
		i2 := indices[i+2]

		edge1 := points[i1].Sub(points[i0])
		edge2 := points[i2].Sub(points[i0])

		c := edge1.Cross(edge2)
		normal := c.Normalized()

		// NOTE: This just generates a face normal. Smoothing out should be done in a separate pass if desired.
		normals[i+0] = normal
		normals[i+1] = normal
		normals[i+2] = normal
	}
}
