package glcapture

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/scene"
)

// VertexStride is the size of one captured vertex: position, normal,
// colour, texcoord and a state float, all float32.
const VertexStride = 52

// attributeMask is set when attributes 0 to 4 were all bound for a draw.
const attributeMask = 0x1f

type material struct {
	program uint32
	diffuse math.Vec4
}

func defaultMaterial() material {
	return material{diffuse: math.NewVec4One()}
}

/** @brief What the application uploaded to one GL buffer. */
type vertexBuffer struct {
	handle      uint32
	data        []byte
	mapped      []byte
	numElements int
	stride      int
	triangle    bool
	dirty       bool
	drawn       bool
	drawnPrev   bool
	material    material

	task *meshTask
}

// isModel reports whether the buffer was drawn as a model, which is all
// that is synchronized.
func (b *vertexBuffer) isModel() bool {
	return b.stride == VertexStride && b.triangle
}

func (b *vertexBuffer) needsSend(force bool) bool {
	return b.isModel() && (b.dirty || force || b.drawn != b.drawnPrev)
}

/**
 * @brief Copies the buffer into its task and resets the per frame flags.
 * The task owns its copy, so the buffer may change while it is sent.
 */
func (b *vertexBuffer) updateTask() *meshTask {
	if b.task == nil {
		b.task = &meshTask{handle: b.handle}
	}
	b.task.data = append(b.task.data[:0], b.data...)
	b.task.numElements = b.numElements
	b.task.visible = b.drawn

	b.dirty = false
	b.drawnPrev = b.drawn
	b.drawn = false
	return b.task
}

type meshTask struct {
	handle      uint32
	data        []byte
	numElements int
	visible     bool
	materialID  int32
}

func meshPath(handle uint32) string {
	return fmt.Sprintf("/XismoMesh:ID[%08x]", handle)
}

func materialName(id int) string {
	return fmt.Sprintf("XismoMaterial:ID[%04x]", id)
}

/**
 * @brief Builds the canonical mesh of a task. A hidden buffer only carries
 * its path and visibility; a visible one carries every attribute, welded or
 * identity indexed. Faces are flagged for swapping since GL winds them the
 * other way.
 */
func (t *meshTask) buildMesh(weld bool) *scene.Mesh {
	path := meshPath(t.handle)
	if !t.visible {
		m := scene.NewMesh(path)
		m.Index = int32(t.handle)
		m.Visible = false
		return m
	}

	vertices := decodeVertices(t.data, t.numElements)
	var indices []int32
	if weld {
		vertices, indices = math.GeometryWeld(vertices)
	} else {
		vertices, indices = math.GeometryUnwelded(vertices)
	}

	m := scene.MeshFromVertices(path, vertices, indices, t.materialID)
	m.Index = int32(t.handle)
	m.Visible = true
	m.Refine.SwapFaces = true
	m.SetupFlags()
	return m
}

// decodeVertices reads whole triangles of little endian vertices, at most
// count of them.
func decodeVertices(data []byte, count int) []math.Vertex3D {
	n := len(data) / VertexStride
	if count < n {
		n = count
	}
	n -= n % 3
	if n <= 0 {
		return nil
	}

	out := make([]math.Vertex3D, n)
	for i := range out {
		v := data[i*VertexStride : (i+1)*VertexStride]
		f := func(k int) float32 {
			return stdmath.Float32frombits(binary.LittleEndian.Uint32(v[k*4:]))
		}
		out[i] = math.Vertex3D{
			Position: math.NewVec3(f(0), f(1), f(2)),
			Normal:   math.NewVec3(f(3), f(4), f(5)),
			Colour:   math.NewVec4(f(6), f(7), f(8), f(9)),
			Texcoord: math.Vec2{X: f(10), Y: f(11)},
			State:    f(12),
		}
	}
	return out
}
