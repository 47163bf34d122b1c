package memory

import (
	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/math"
)

/**
 * @brief A unit quad made of two triangles sharing an edge: 4 points,
 * 6 corners. Normals and UVs are per corner.
 */
func Quad(materialID int32) *adapter.MeshData {
	return &adapter.MeshData{
		Points: []math.Vec3{
			math.NewVec3(0, 0, 0),
			math.NewVec3(1, 0, 0),
			math.NewVec3(1, 1, 0),
			math.NewVec3(0, 1, 0),
		},
		Counts:      []int32{3, 3},
		Indices:     []int32{0, 1, 2, 0, 2, 3},
		MaterialIDs: []int32{materialID, materialID},
		Normals: &adapter.FaceVarying[math.Vec3]{
			Values:    []math.Vec3{math.NewVec3(0, 0, 1)},
			Indices:   []int32{0, 0, 0, 0, 0, 0},
			FaceCount: 2,
		},
		UVs: &adapter.FaceVarying[math.Vec2]{
			Values:    []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
			Indices:   []int32{0, 1, 2, 0, 2, 3},
			FaceCount: 2,
		},
	}
}

// Cube is a unit cube of six quads with generated face normals.
func Cube(materialID int32) *adapter.MeshData {
	points := []math.Vec3{
		{X: -0.5, Y: -0.5, Z: -0.5}, {X: 0.5, Y: -0.5, Z: -0.5},
		{X: 0.5, Y: 0.5, Z: -0.5}, {X: -0.5, Y: 0.5, Z: -0.5},
		{X: -0.5, Y: -0.5, Z: 0.5}, {X: 0.5, Y: -0.5, Z: 0.5},
		{X: 0.5, Y: 0.5, Z: 0.5}, {X: -0.5, Y: 0.5, Z: 0.5},
	}
	quads := [][4]int32{
		{0, 3, 2, 1}, {4, 5, 6, 7},
		{0, 1, 5, 4}, {2, 3, 7, 6},
		{1, 2, 6, 5}, {0, 4, 7, 3},
	}
	m := &adapter.MeshData{Points: points}
	for _, q := range quads {
		m.Counts = append(m.Counts, 4)
		m.Indices = append(m.Indices, q[:]...)
		m.MaterialIDs = append(m.MaterialIDs, materialID)
	}

	// One normal per corner, taken from the first triangle of each quad.
	normals := make([]math.Vec3, len(m.Indices))
	tris := make([]int32, 0, 3)
	for f := 0; f < len(quads); f++ {
		base := f * 4
		tris = append(tris[:0], m.Indices[base], m.Indices[base+1], m.Indices[base+2])
		face := make([]math.Vec3, 3)
		math.GeometryGenerateNormals(points, tris, face)
		for c := 0; c < 4; c++ {
			normals[base+c] = face[0]
		}
	}
	m.Normals = &adapter.FaceVarying[math.Vec3]{Values: normals, FaceCount: len(quads)}
	return m
}
