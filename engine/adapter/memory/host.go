// Package memory is a Host that keeps its scene graph in memory. The demo
// scene and the engine tests run against it.
package memory

import (
	"sync"

	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/scene"
)

/** @brief A scene object. Its handle is the *Node itself. */
type Node struct {
	Name   string
	Kind   scene.Kind
	Parent *Node
	/** @brief The transform relative to Parent, in the host convention. */
	Local   *math.Transform
	Hidden  bool
	Mesh    *adapter.MeshData
	Camera  *adapter.CameraData
	Light   *adapter.LightData
	Targets []adapter.ConstraintData
	/** @brief Optional. Overrides Local when the host samples another time. */
	Animate func(time float64) *math.Transform
}

func NewNode(name string, kind scene.Kind, parent *Node) *Node {
	return &Node{Name: name, Kind: kind, Parent: parent, Local: math.TransformCreate()}
}

func (n *Node) localAt(time float64) *math.Transform {
	var src *math.Transform
	if n.Animate != nil {
		src = n.Animate(time)
	} else {
		src = n.Local
	}
	return math.TransformFromPositionRotationScale(src.Position, src.Rotation, src.Scale)
}

type Host struct {
	mu        sync.RWMutex
	nodes     []*Node
	materials []adapter.MaterialData
	time      float64
	start     float64
	end       float64
}

func NewHost() *Host {
	return &Host{end: 1}
}

func (h *Host) Add(n *Node) *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nodes = append(h.nodes, n)
	return n
}

// Remove drops n from the scene. Children are left in place.
func (h *Host) Remove(n *Node) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, node := range h.nodes {
		if node == n {
			h.nodes = append(h.nodes[:i], h.nodes[i+1:]...)
			return true
		}
	}
	return false
}

func (h *Host) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.nodes)
}

func (h *Host) SetMaterials(materials ...adapter.MaterialData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.materials = materials
}

func (h *Host) SetTime(time float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.time = time
}

func (h *Host) SetAnimationRange(start, end float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.start, h.end = start, end
}

func (h *Host) EnumerateSceneObjects(visit func(adapter.Handle)) {
	h.mu.RLock()
	nodes := make([]*Node, len(h.nodes))
	copy(nodes, h.nodes)
	h.mu.RUnlock()
	for _, n := range nodes {
		visit(n)
	}
}

func node(h adapter.Handle) *Node {
	n, _ := h.(*Node)
	return n
}

func (h *Host) Name(handle adapter.Handle) string {
	if n := node(handle); n != nil {
		return n.Name
	}
	return ""
}

func (h *Host) Parent(handle adapter.Handle) (adapter.Handle, bool) {
	n := node(handle)
	if n == nil || n.Parent == nil {
		return nil, false
	}
	return n.Parent, true
}

func (h *Host) WorldTransform(handle adapter.Handle, time float64) *math.Transform {
	n := node(handle)
	if n == nil {
		return math.TransformCreate()
	}
	local := n.localAt(time)
	child := local
	for p := n.Parent; p != nil; p = p.Parent {
		pl := p.localAt(time)
		child.Parent = pl
		child = pl
	}
	return math.TransformFromMat4(local.GetWorld())
}

func (h *Host) Kind(handle adapter.Handle) scene.Kind {
	if n := node(handle); n != nil {
		return n.Kind
	}
	return scene.KindTransform
}

func (h *Host) MeshData(handle adapter.Handle, _ float64) (*adapter.MeshData, bool) {
	n := node(handle)
	if n == nil || n.Mesh == nil {
		return nil, false
	}
	return n.Mesh, true
}

func (h *Host) Materials() []adapter.MaterialData {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.materials
}

func (h *Host) CurrentTime() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.time
}

func (h *Host) AnimationRange() (float64, float64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.start, h.end
}

func (h *Host) CameraData(handle adapter.Handle, _ float64) (adapter.CameraData, bool) {
	n := node(handle)
	if n == nil || n.Camera == nil {
		return adapter.CameraData{}, false
	}
	return *n.Camera, true
}

func (h *Host) LightData(handle adapter.Handle, _ float64) (adapter.LightData, bool) {
	n := node(handle)
	if n == nil || n.Light == nil {
		return adapter.LightData{}, false
	}
	return *n.Light, true
}

func (h *Host) Constraints(handle adapter.Handle) []adapter.ConstraintData {
	if n := node(handle); n != nil {
		return n.Targets
	}
	return nil
}

func (h *Host) Visible(handle adapter.Handle) bool {
	n := node(handle)
	return n != nil && !n.Hidden
}
