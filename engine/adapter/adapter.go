package adapter

import (
	"strings"

	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/scene"
)

/** @brief An opaque, comparable reference to a host scene object. */
type Handle interface{}

/**
 * @brief The queries the engine makes against the host application. Every
 * method is called on the host's main thread.
 */
type Host interface {
	/** @brief Calls visit for every live object, in no particular order. */
	EnumerateSceneObjects(visit func(Handle))
	Name(h Handle) string
	Parent(h Handle) (Handle, bool)
	/** @brief The world transform of h at time, in the host's right-handed convention. */
	WorldTransform(h Handle, time float64) *math.Transform
	/** @brief KindMesh marks an object that can be read as polygon geometry. */
	Kind(h Handle) scene.Kind
	MeshData(h Handle, time float64) (*MeshData, bool)
	Materials() []MaterialData
	CurrentTime() float64
	AnimationRange() (start, end float64)
}

type MaterialData struct {
	Name  string
	Color math.Vec4
}

/**
 * @brief A per face channel. Values are looked up per corner through Indices,
 * or read in corner order when Indices is nil. FaceCount is the number of faces
 * the channel was authored for and must match the base mesh.
 */
type FaceVarying[T any] struct {
	Values    []T
	Indices   []int32
	FaceCount int
}

// Expand returns one value per corner, or false when the channel does not
// have exactly corners entries.
func (f *FaceVarying[T]) Expand(corners int) ([]T, bool) {
	if f.Indices == nil {
		if len(f.Values) != corners {
			return nil, false
		}
		out := make([]T, corners)
		copy(out, f.Values)
		return out, true
	}
	if len(f.Indices) != corners {
		return nil, false
	}
	out := make([]T, corners)
	for i, idx := range f.Indices {
		if idx < 0 || int(idx) >= len(f.Values) {
			return nil, false
		}
		out[i] = f.Values[idx]
	}
	return out, true
}

/** @brief Raw polygon data as the host stores it. MaterialIDs index Host.Materials. */
type MeshData struct {
	Points      []math.Vec3
	Counts      []int32
	Indices     []int32
	MaterialIDs []int32
	Normals     *FaceVarying[math.Vec3]
	UVs         *FaceVarying[math.Vec2]
	Colors      *FaceVarying[math.Vec4]
}

type CameraData struct {
	Fov       float32
	NearPlane float32
	FarPlane  float32
}

// CameraProvider is implemented by hosts that expose camera properties.
type CameraProvider interface {
	CameraData(h Handle, time float64) (CameraData, bool)
}

type LightData struct {
	Type      scene.LightType
	Color     math.Vec4
	Intensity float32
	Range     float32
	SpotAngle float32
}

// LightProvider is implemented by hosts that expose light properties.
type LightProvider interface {
	LightData(h Handle, time float64) (LightData, bool)
}

type ConstraintData struct {
	Kind    scene.ConstraintKind
	Sources []Handle
}

// ConstraintProvider is implemented by hosts that expose constraints.
type ConstraintProvider interface {
	Constraints(h Handle) []ConstraintData
}

// VisibilityProvider is implemented by hosts that can hide objects.
type VisibilityProvider interface {
	Visible(h Handle) bool
}

const maxDepth = 1024

/**
 * @brief Builds the slash delimited name chain of h from the scene root,
 * e.g. "/root/arm/hand". A handle the host no longer names has no path and
 * yields "".
 */
func Path(host Host, h Handle) string {
	leaf := host.Name(h)
	if leaf == "" {
		return ""
	}
	names := []string{leaf}
	cur := h
	for i := 0; i < maxDepth; i++ {
		parent, ok := host.Parent(cur)
		if !ok {
			break
		}
		names = append(names, host.Name(parent))
		cur = parent
	}
	var b strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(names[i])
	}
	return b.String()
}
