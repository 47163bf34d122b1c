package systems

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/config"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/scene"
)

/**
 * @brief Turns host objects into canonical objects. Runs on the host's main
 * thread.
 */
type TranslatorSystem struct {
	host      adapter.Host
	tracker   *TrackerSystem
	indexSeed *core.IndexSeed
	settings  *config.Settings

	// built on the first mesh of a cycle
	materials     *scene.MaterialList
	materialRemap []int32
}

type TranslatorSystemConfig struct {
	Settings *config.Settings
}

func NewTranslatorSystem(config *TranslatorSystemConfig, host adapter.Host, tracker *TrackerSystem, seed *core.IndexSeed) (*TranslatorSystem, error) {
	if host == nil || tracker == nil || seed == nil || config.Settings == nil {
		err := fmt.Errorf("func NewTranslatorSystem - host, tracker, index seed and settings are required: %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return nil, err
	}
	return &TranslatorSystem{
		host:      host,
		tracker:   tracker,
		indexSeed: seed,
		settings:  config.Settings,
	}, nil
}

func (ts *TranslatorSystem) Shutdown() error {
	ts.BeginCycle()
	return nil
}

func (ts *TranslatorSystem) SetSettings(s *config.Settings) {
	ts.settings = s
}

/** @brief Forgets the material list so the next mesh rebuilds it. */
func (ts *TranslatorSystem) BeginCycle() {
	ts.materials = nil
	ts.materialRemap = nil
}

/**
 * @brief Produces zero or one canonical object for key and adds it to snap.
 * Meshes win when mesh sync is on and the host can read the object as
 * geometry; otherwise the object kind picks the category. Disabled
 * categories are skipped silently.
 */
func (ts *TranslatorSystem) Export(key adapter.Handle, snap *scene.Snapshot) (scene.Object, bool) {
	s := ts.settings
	path := adapter.Path(ts.host, key)
	if path == "" {
		return nil, false
	}
	record := ts.tracker.Observe(key)
	time := ts.host.CurrentTime()
	kind := ts.host.Kind(key)

	var obj scene.Object
	if kind == scene.KindMesh && s.SyncMeshes {
		if data, ok := ts.host.MeshData(key, time); ok {
			if m := ts.exportMesh(path, data, snap); m != nil {
				obj = m
			}
		}
	}
	if obj == nil {
		switch kind {
		case scene.KindCamera:
			if s.SyncCameras {
				obj = ts.exportCamera(key, path, time)
			}
		case scene.KindLight:
			if s.SyncLights {
				obj = ts.exportLight(key, path, time)
			}
		default:
			if s.SyncTransforms {
				obj = scene.NewTransform(path)
			}
		}
	}
	if obj == nil {
		return nil, false
	}

	h := obj.Header()
	h.Path = path
	h.Index = ts.indexSeed.Next()
	h.SetLocal(ts.LocalTransform(key, time))
	if v, ok := ts.host.(adapter.VisibilityProvider); ok {
		h.Visible = v.Visible(key)
	}

	record.Path = path
	record.Exported = obj
	snap.AddObject(obj)
	ts.exportConstraints(key, path, snap)
	return obj, true
}

/**
 * @brief The transform of key relative to its parent at time, converted to
 * the wire convention.
 */
func (ts *TranslatorSystem) LocalTransform(key adapter.Handle, time float64) *math.Transform {
	world := ts.host.WorldTransform(key, time)
	var parent *math.Transform
	if p, ok := ts.host.Parent(key); ok {
		parent = ts.host.WorldTransform(p, time)
	}
	return math.ToLHSTransform(math.RelativeTo(world, parent))
}

func (ts *TranslatorSystem) exportCamera(key adapter.Handle, path string, time float64) *scene.Camera {
	cam := scene.NewCamera(path)
	if p, ok := ts.host.(adapter.CameraProvider); ok {
		if data, ok := p.CameraData(key, time); ok {
			cam.Fov = data.Fov
			cam.NearPlane = data.NearPlane
			cam.FarPlane = data.FarPlane
		}
	}
	return cam
}

func (ts *TranslatorSystem) exportLight(key adapter.Handle, path string, time float64) *scene.Light {
	light := scene.NewLight(path)
	if p, ok := ts.host.(adapter.LightProvider); ok {
		if data, ok := p.LightData(key, time); ok {
			light.Type = data.Type
			light.Color = data.Color
			light.Intensity = data.Intensity
			light.Range = data.Range
			light.SpotAngle = data.SpotAngle
		}
	}
	return light
}

func (ts *TranslatorSystem) exportConstraints(key adapter.Handle, path string, snap *scene.Snapshot) {
	p, ok := ts.host.(adapter.ConstraintProvider)
	if !ok {
		return
	}
	for _, c := range p.Constraints(key) {
		dst := &scene.Constraint{Kind: c.Kind, Path: path}
		for _, src := range c.Sources {
			if sp := adapter.Path(ts.host, src); sp != "" {
				dst.Sources = append(dst.Sources, sp)
			}
		}
		snap.Constraints = append(snap.Constraints, dst)
	}
}

func (ts *TranslatorSystem) ensureMaterials(snap *scene.Snapshot) {
	if ts.materials != nil {
		return
	}
	ts.materials = scene.NewMaterialList()
	src := ts.host.Materials()
	ts.materialRemap = make([]int32, len(src))
	for i, m := range src {
		ts.materialRemap[i] = ts.materials.Add(m.Name, m.Color)
	}
	snap.Materials = ts.materials.Items()
}

/**
 * @brief Copies host polygon data into a canonical mesh. Broken base data
 * rejects the mesh; a broken optional channel only drops that channel.
 */
func (ts *TranslatorSystem) exportMesh(path string, data *adapter.MeshData, snap *scene.Snapshot) *scene.Mesh {
	ts.ensureMaterials(snap)

	m := scene.NewMesh(path)
	m.Points = make([]math.Vec3, len(data.Points))
	for i, p := range data.Points {
		m.Points[i] = math.ToLHSPosition(p)
	}
	m.Counts = append([]int32(nil), data.Counts...)
	m.Indices = append([]int32(nil), data.Indices...)
	if err := m.Validate(); err != nil {
		core.LogWarn("%v, not exported as a mesh", err)
		return nil
	}
	faces, corners := len(m.Counts), len(m.Indices)

	if n := len(data.MaterialIDs); n > 0 {
		if n != faces {
			core.LogWarn("%s: %d material ids for %d faces, channel skipped: %v", path, n, faces, core.ErrAdapterData)
		} else {
			m.MaterialIDs = make([]int32, n)
			for i, id := range data.MaterialIDs {
				m.MaterialIDs[i] = -1
				if id >= 0 && int(id) < len(ts.materialRemap) {
					m.MaterialIDs[i] = ts.materialRemap[id]
				}
			}
		}
	}

	s := ts.settings
	if s.SyncNormals {
		if normals, ok := expandChannel(path, "normals", data.Normals, faces, corners); ok {
			for i, n := range normals {
				normals[i] = math.ToLHSNormal(n)
			}
			m.Normals = normals
		}
	}
	if s.SyncUVs {
		if uvs, ok := expandChannel(path, "uvs", data.UVs, faces, corners); ok {
			m.UVs = uvs
		}
	}
	if s.SyncColors {
		if colors, ok := expandChannel(path, "colors", data.Colors, faces, corners); ok {
			m.Colors = colors
		}
	}

	m.SetupFlags()
	return m
}

// expandChannel returns one value per corner, or false when the channel is
// absent or does not match the base mesh.
func expandChannel[T any](path, name string, ch *adapter.FaceVarying[T], faces, corners int) ([]T, bool) {
	if ch == nil {
		return nil, false
	}
	if ch.FaceCount != faces {
		core.LogWarn("%s: %s authored for %d faces, mesh has %d, channel skipped: %v", path, name, ch.FaceCount, faces, core.ErrAdapterData)
		return nil, false
	}
	values, ok := ch.Expand(corners)
	if !ok {
		core.LogWarn("%s: %s do not cover %d corners, channel skipped: %v", path, name, corners, core.ErrAdapterData)
		return nil, false
	}
	return values, true
}
