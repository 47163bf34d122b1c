package scene

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/math"
)

// MeshFlags tells the receiver which arrays are present.
type MeshFlags uint32

const (
	MeshHasRefineSettings MeshFlags = 1 << iota
	MeshHasIndices
	MeshHasCounts
	MeshHasPoints
	MeshHasNormals
	MeshHasUV
	MeshHasColors
	MeshHasMaterialIDs
)

func (f MeshFlags) Has(flag MeshFlags) bool {
	return f&flag == flag
}

type RefineSettings struct {
	/** @brief Reverse the winding of every face on the receiver. */
	SwapFaces bool
	/** @brief Ask the receiver to generate normals when none are sent. */
	GenNormals bool
}

/**
 * @brief A polygon mesh. Normals, UVs and Colors are per corner and, when
 * present, exactly as long as Indices.
 */
type Mesh struct {
	Transform
	Flags       MeshFlags
	Refine      RefineSettings
	Points      []math.Vec3
	Normals     []math.Vec3
	UVs         []math.Vec2
	Colors      []math.Vec4
	Counts      []int32
	Indices     []int32
	MaterialIDs []int32
}

func NewMesh(path string) *Mesh {
	return &Mesh{Transform: *NewTransform(path)}
}

func (m *Mesh) Kind() Kind { return KindMesh }

/** @brief Sets a flag for every array that is present. */
func (m *Mesh) SetupFlags() {
	var f MeshFlags
	if m.Refine != (RefineSettings{}) {
		f |= MeshHasRefineSettings
	}
	if len(m.Points) > 0 {
		f |= MeshHasPoints
	}
	if len(m.Counts) > 0 {
		f |= MeshHasCounts
	}
	if len(m.Indices) > 0 {
		f |= MeshHasIndices
	}
	if len(m.Normals) > 0 {
		f |= MeshHasNormals
	}
	if len(m.UVs) > 0 {
		f |= MeshHasUV
	}
	if len(m.Colors) > 0 {
		f |= MeshHasColors
	}
	if len(m.MaterialIDs) > 0 {
		f |= MeshHasMaterialIDs
	}
	m.Flags = f
}

// Validate checks the array lengths against the face and corner counts.
func (m *Mesh) Validate() error {
	sum := 0
	for _, c := range m.Counts {
		sum += int(c)
	}
	if sum != len(m.Indices) {
		return fmt.Errorf("%s: counts sum to %d but there are %d indices: %w", m.Path, sum, len(m.Indices), core.ErrAdapterData)
	}
	if n := len(m.Normals); n > 0 && n != len(m.Indices) {
		return fmt.Errorf("%s: %d normals for %d corners: %w", m.Path, n, len(m.Indices), core.ErrAdapterData)
	}
	if n := len(m.UVs); n > 0 && n != len(m.Indices) {
		return fmt.Errorf("%s: %d uvs for %d corners: %w", m.Path, n, len(m.Indices), core.ErrAdapterData)
	}
	if n := len(m.Colors); n > 0 && n != len(m.Indices) {
		return fmt.Errorf("%s: %d colors for %d corners: %w", m.Path, n, len(m.Indices), core.ErrAdapterData)
	}
	if n := len(m.MaterialIDs); n > 0 && n != len(m.Counts) {
		return fmt.Errorf("%s: %d material ids for %d faces: %w", m.Path, n, len(m.Counts), core.ErrAdapterData)
	}
	for _, i := range m.Indices {
		if i < 0 || int(i) >= len(m.Points) {
			return fmt.Errorf("%s: index %d out of range: %w", m.Path, i, core.ErrAdapterData)
		}
	}
	return nil
}

// MeshFromVertices builds a triangle mesh from welded (or identity indexed)
// vertices. Per-corner attributes are expanded through the index buffer.
func MeshFromVertices(path string, vertices []math.Vertex3D, indices []int32, materialID int32) *Mesh {
	m := NewMesh(path)
	m.Points = make([]math.Vec3, len(vertices))
	for i, v := range vertices {
		m.Points[i] = v.Position
	}
	m.Indices = indices
	m.Normals = make([]math.Vec3, len(indices))
	m.UVs = make([]math.Vec2, len(indices))
	m.Colors = make([]math.Vec4, len(indices))
	for i, idx := range indices {
		v := vertices[idx]
		m.Normals[i] = v.Normal
		m.UVs[i] = v.Texcoord
		m.Colors[i] = v.Colour
	}
	faces := len(indices) / 3
	m.Counts = make([]int32, faces)
	m.MaterialIDs = make([]int32, faces)
	for i := range m.Counts {
		m.Counts[i] = 3
		m.MaterialIDs[i] = materialID
	}
	return m
}
