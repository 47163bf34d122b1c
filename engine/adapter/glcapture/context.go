// Package glcapture synchronizes a scene rebuilt from intercepted OpenGL
// calls. The application's GL hooks forward each call to a Context; buffers
// that are drawn as models become meshes, and the model-view and projection
// uniforms become the main camera.
package glcapture

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/meshsync/engine/config"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/scene"
	"github.com/spaghettifunk/meshsync/engine/systems"
	"github.com/spaghettifunk/meshsync/engine/transport"
)

// The GL enums the context looks at.
const (
	GL_TRIANGLES    uint32 = 0x0004
	GL_ARRAY_BUFFER uint32 = 0x8892
)

// Uniform locations of the captured shaders.
const (
	UniformModelView  int32 = 0
	UniformProjection int32 = 1
	UniformDiffuse    int32 = 3
)

const CameraPath = "/Main Camera"

type ContextConfig struct {
	Settings *config.Settings
	// Optional. When nil a websocket dialer is built from the client settings.
	Dialer  transport.Dialer
	Metrics *core.SendMetrics
	// Workers that decode and weld buffers. Zero means one per CPU.
	Workers int
}

/**
 * @brief Mirrors the GL state the application builds and sends it on flush.
 * Every On* method must be called from the thread that owns the GL context.
 */
type Context struct {
	settings   *config.Settings
	session    string
	sendSystem *systems.SendSystem
	jobs       *systems.JobSystem

	buffers          map[uint32]*vertexBuffer
	materials        []material
	deleted          []uint32
	vertexAttributes uint32
	boundBuffer      uint32
	material         material

	modelView   mgl32.Mat4
	projection  mgl32.Mat4
	cameraDirty bool
	cameraPos   mgl32.Vec3
	cameraRot   mgl32.Quat
	cameraFov   float32
}

func NewContext(config *ContextConfig) (*Context, error) {
	if config == nil || config.Settings == nil {
		err := fmt.Errorf("func NewContext - settings are required: %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return nil, err
	}
	dialer := config.Dialer
	if dialer == nil {
		dialer = transport.NewWebSocketDialer(transport.WebSocketConfig{
			URL:              config.Settings.Client.URL,
			HandshakeTimeout: config.Settings.HandshakeTimeout(),
		})
	}

	session := uuid.NewString()
	ss, err := systems.NewSendSystem(&systems.SendSystemConfig{
		Session: session,
		Timeout: config.Settings.SendTimeout(),
	}, dialer, config.Metrics)
	if err != nil {
		return nil, err
	}

	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	jobs, err := systems.NewJobSystem(workers, workers)
	if err != nil {
		_ = ss.Shutdown()
		return nil, err
	}

	return &Context{
		settings:   config.Settings,
		session:    session,
		sendSystem: ss,
		jobs:       jobs,
		buffers:    make(map[uint32]*vertexBuffer),
		material:   defaultMaterial(),
		modelView:  mgl32.Ident4(),
		projection: mgl32.Ident4(),
		cameraRot:  mgl32.QuatIdent(),
		cameraFov:  60,
	}, nil
}

func (c *Context) Session() string {
	return c.session
}

func (c *Context) Settings() *config.Settings {
	return c.settings
}

func (c *Context) SetSettings(s *config.Settings) {
	c.settings = s
	c.sendSystem.SetTimeout(s.SendTimeout())
}

// Status reports whether a cycle is in flight and, once, the error of the
// last failed one.
func (c *Context) Status() (bool, error) {
	return c.sendSystem.IsSending(), c.sendSystem.LastError()
}

func (c *Context) activeBuffer(target uint32) *vertexBuffer {
	if target != GL_ARRAY_BUFFER || c.boundBuffer == 0 {
		return nil
	}
	buf, ok := c.buffers[c.boundBuffer]
	if !ok {
		buf = &vertexBuffer{handle: c.boundBuffer, material: defaultMaterial()}
		c.buffers[c.boundBuffer] = buf
	}
	return buf
}

// OnGenBuffers is a no-op: buffers are tracked from their first bind.
func (c *Context) OnGenBuffers(handles []uint32) {
	core.LogDebug("gl: %d buffers generated", len(handles))
}

// OnDeleteBuffers forgets the buffers. Those that were ever sent are
// deleted on the receiver with the next send.
func (c *Context) OnDeleteBuffers(handles []uint32) {
	for _, h := range handles {
		buf, ok := c.buffers[h]
		if !ok {
			continue
		}
		if buf.task != nil {
			c.deleted = append(c.deleted, h)
		}
		delete(c.buffers, h)
		if c.boundBuffer == h {
			c.boundBuffer = 0
		}
	}
}

func (c *Context) OnBindBuffer(target uint32, buffer uint32) {
	if target == GL_ARRAY_BUFFER {
		c.boundBuffer = buffer
	}
}

// OnBufferData sizes the bound buffer to size and copies data into it,
// when present.
func (c *Context) OnBufferData(target uint32, size int, data []byte) {
	buf := c.activeBuffer(target)
	if buf == nil {
		return
	}
	if cap(buf.data) < size {
		buf.data = make([]byte, size)
	}
	buf.data = buf.data[:size]
	if data != nil {
		copy(buf.data, data)
		buf.dirty = true
	}
}

// OnMapBuffer remembers the memory the application writes into; it is read
// back on unmap.
func (c *Context) OnMapBuffer(target uint32, mapped []byte) {
	if buf := c.activeBuffer(target); buf != nil {
		buf.mapped = mapped
	}
}

func (c *Context) OnUnmapBuffer(target uint32) {
	buf := c.activeBuffer(target)
	if buf == nil || buf.mapped == nil {
		return
	}
	copy(buf.data, buf.mapped)
	buf.mapped = nil
	buf.dirty = true
}

func (c *Context) OnVertexAttribPointer(index uint32, stride int) {
	if buf := c.activeBuffer(GL_ARRAY_BUFFER); buf != nil {
		buf.stride = stride
		c.vertexAttributes |= 1 << index
	}
}

// OnUniform4fv captures the diffuse colour of the next draw.
func (c *Context) OnUniform4fv(location int32, value []float32) {
	if location == UniformDiffuse && len(value) >= 4 {
		c.material.diffuse = math.NewVec4(value[0], value[1], value[2], value[3])
	}
}

func (c *Context) OnUseProgram(program uint32) {
	c.material.program = program
}

func (c *Context) OnUniformMatrix4fv(location int32, transpose bool, value []float32) {
	m, ok := matrixFromUniform(value, transpose)
	if !ok {
		return
	}
	switch location {
	case UniformModelView:
		c.modelView = m
	case UniformProjection:
		c.projection = m
	}
}

/**
 * @brief Classifies a draw. Only triangles drawn from a buffer laid out as
 * the model vertex, with all five attributes bound, mark the buffer as a
 * model; such a draw also refreshes the camera.
 */
func (c *Context) OnDrawElements(mode uint32, count int) {
	defer func() { c.vertexAttributes = 0 }()

	buf := c.activeBuffer(GL_ARRAY_BUFFER)
	if mode != GL_TRIANGLES || c.vertexAttributes&attributeMask != attributeMask || buf == nil || buf.stride != VertexStride {
		return
	}
	buf.triangle = true
	buf.drawn = true
	buf.numElements = count
	if buf.material != c.material {
		buf.material = c.material
		buf.dirty = true
	}

	pos, rot := cameraFromView(c.modelView)
	if pos != c.cameraPos || rot != c.cameraRot {
		c.cameraDirty = true
		c.cameraPos = pos
		c.cameraRot = rot
	}
	if fov, ok := fovFromProjection(c.projection); ok && fov != c.cameraFov {
		c.cameraDirty = true
		c.cameraFov = fov
	}
}

// OnFlush ends a frame. With auto sync on it sends what changed.
func (c *Context) OnFlush() {
	if !c.settings.AutoSync {
		return
	}
	if _, err := c.Send(false); err != nil && err != core.ErrBusy {
		core.LogWarn("gl capture send: %v", err)
	}
}

func (c *Context) findOrAddMaterial(m material) int32 {
	for i, known := range c.materials {
		if known == m {
			return int32(i)
		}
	}
	c.materials = append(c.materials, m)
	return int32(len(c.materials) - 1)
}

/**
 * @brief Sends every model buffer that changed, or all of them when force is
 * set, with the materials, the camera and the deleted buffers. Returns
 * ErrBusy while a cycle is in flight and a nil task when nothing changed.
 */
func (c *Context) Send(force bool) (*systems.SendTask, error) {
	if c.sendSystem.IsSending() {
		return nil, core.ErrBusy
	}
	s := c.settings

	handles := make([]uint32, 0, len(c.buffers))
	for h := range c.buffers {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

	var toSend []*vertexBuffer
	if s.SyncMeshes {
		for _, h := range handles {
			if buf := c.buffers[h]; buf.needsSend(force) {
				toSend = append(toSend, buf)
			}
		}
	}
	if len(toSend) == 0 && len(c.deleted) == 0 && (!s.SyncCameras || !c.cameraDirty) {
		return nil, nil
	}

	tasks := make([]*meshTask, len(toSend))
	sending := make(map[uint32]struct{}, len(toSend))
	for i, buf := range toSend {
		tasks[i] = buf.updateTask()
		sending[buf.handle] = struct{}{}
	}

	// every buffer ever sent keeps a slot so ids stay stable
	c.materials = c.materials[:0]
	for _, h := range handles {
		if buf := c.buffers[h]; buf.task != nil {
			buf.task.materialID = c.findOrAddMaterial(buf.material)
		}
	}

	snap := scene.NewSnapshot(s.Scene())
	for i, m := range c.materials {
		snap.Materials = append(snap.Materials, &scene.Material{ID: int32(i), Name: materialName(i), Color: m.diffuse})
	}
	if s.SyncCameras {
		cam := scene.NewCamera(CameraPath)
		cam.Position = math.Vec3FromGL(c.cameraPos)
		cam.Rotation = math.QuatFromGL(c.cameraRot)
		cam.Fov = c.cameraFov
		snap.AddObject(cam)
		c.cameraDirty = false
	}

	for _, h := range c.deleted {
		// a buffer re-created under the same handle is simply overwritten
		if _, ok := sending[h]; !ok {
			snap.Deleted = append(snap.Deleted, meshPath(h))
		}
	}
	c.deleted = nil

	meshes := make([]*scene.Mesh, len(tasks))
	weld := s.WeldVertices
	if err := c.jobs.ForEach(len(tasks), func(i int) error {
		meshes[i] = tasks[i].buildMesh(weld)
		return nil
	}); err != nil {
		return nil, err
	}
	for _, m := range meshes {
		snap.AddObject(m)
	}

	core.LogDebug("gl capture: %d meshes, %d materials, %d deletions", len(snap.Meshes), len(snap.Materials), len(snap.Deleted))
	return c.sendSystem.Kick(snap)
}

// Shutdown waits, bounded by the send timeout, for the in-flight cycle.
func (c *Context) Shutdown() error {
	err := c.sendSystem.Shutdown()
	if jerr := c.jobs.Shutdown(); err == nil {
		err = jerr
	}
	return err
}
