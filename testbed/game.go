package testbed

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/meshsync/engine"
	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/adapter/memory"
	"github.com/spaghettifunk/meshsync/engine/config"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/scene"
)

type TestScene struct {
	*engine.Application
	host *memory.Host
}

type sceneState struct {
	root    *memory.Node
	spinner *memory.Node
	bobbing *memory.Node

	elapsed     float64
	animationAt float64
	animated    bool
}

// spin is how far the spinner turns per second, in radians.
const spin = 0.5

func NewTestScene(settingsPath string) (*TestScene, error) {
	host := memory.NewHost()
	ts := &TestScene{
		Application: &engine.Application{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:            "MeshSync Testbed",
				LogLevel:        core.DebugLevel,
				SettingsPath:    settingsPath,
				WatchSettings:   settingsPath != "",
				TargetFrameRate: 30,
			},
			Host:  host,
			State: &sceneState{},
		},
		host: host,
	}

	ts.FnInitialize = ts.Initialize
	ts.FnUpdate = ts.Update
	ts.FnShutdown = ts.Shutdown

	return ts, nil
}

func (s *TestScene) Initialize(e *engine.Engine) error {
	core.LogDebug("TestScene Initialize fn....")

	state := s.State.(*sceneState)
	h := s.host

	h.SetMaterials(
		adapter.MaterialData{Name: "grey", Color: math.NewVec4(0.5, 0.5, 0.5, 1)},
		adapter.MaterialData{Name: "red", Color: math.NewVec4(1, 0, 0, 1)},
	)
	h.SetAnimationRange(0, 2)

	state.root = h.Add(memory.NewNode("root", scene.KindTransform, nil))

	floor := memory.NewNode("floor", scene.KindMesh, state.root)
	floor.Mesh = memory.Quad(0)
	floor.Local = math.TransformFromPositionRotationScale(
		math.NewVec3(-5, 0, -5),
		math.NewQuatFromAxisAngle(math.NewVec3(1, 0, 0), math.DegToRad(-90), true),
		math.NewVec3(10, 10, 1),
	)
	h.Add(floor)

	state.spinner = memory.NewNode("spinner", scene.KindMesh, state.root)
	state.spinner.Mesh = memory.Cube(1)
	state.spinner.Local = math.TransformFromPosition(math.NewVec3(0, 1, 0))
	h.Add(state.spinner)

	// a child of the spinner, its local transform never changes
	satellite := memory.NewNode("satellite", scene.KindMesh, state.spinner)
	satellite.Mesh = memory.Cube(0)
	satellite.Local = math.TransformFromPositionRotationScale(math.NewVec3(2, 0, 0), math.NewQuatIdentity(), math.NewVec3(0.3, 0.3, 0.3))
	h.Add(satellite)

	state.bobbing = memory.NewNode("bobbing", scene.KindTransform, state.root)
	state.bobbing.Animate = func(time float64) *math.Transform {
		y := float32(time)
		if time > 1 {
			y = float32(2 - time)
		}
		return math.TransformFromPosition(math.NewVec3(-2, y, 0))
	}
	h.Add(state.bobbing)

	camera := memory.NewNode("camera", scene.KindCamera, nil)
	camera.Camera = &adapter.CameraData{Fov: 60, NearPlane: 0.1, FarPlane: 100}
	camera.Local = math.TransformFromPosition(math.NewVec3(0, 3, 10))
	h.Add(camera)

	sun := memory.NewNode("sun", scene.KindLight, nil)
	sun.Light = &adapter.LightData{Type: scene.LightDirectional, Color: math.NewVec4One(), Intensity: 1}
	sun.Local = math.TransformFromPositionRotationScale(
		math.NewVec3(0, 10, 0),
		math.NewQuatFromAxisAngle(math.NewVec3(1, 0, 0), math.DegToRad(-45), true),
		math.NewVec3(1, 1, 1),
	)
	h.Add(sun)

	h.EnumerateSceneObjects(e.NotifyAdded)
	e.RequestSync(config.ScopeAll)
	return nil
}

func (s *TestScene) Update(e *engine.Engine, deltaTime float64) error {
	state := s.State.(*sceneState)
	state.elapsed += deltaTime

	rotation := math.NewQuatFromAxisAngle(math.NewVec3(0, 1, 0), float32(spin*deltaTime), false)
	state.spinner.Local.Rotate(rotation)
	e.NotifyChanged(state.spinner)

	// clips are sent once, a few seconds in
	if !state.animated && state.elapsed-state.animationAt > 5 {
		if _, err := e.SendAnimations(config.ScopeAll); err != nil {
			if errors.Is(err, core.ErrBusy) {
				return nil
			}
			return fmt.Errorf("failed to send animations: %w", err)
		}
		state.animated = true
		state.animationAt = state.elapsed
	}
	return nil
}

func (s *TestScene) Shutdown(e *engine.Engine) error {
	m := e.Metrics()
	core.LogInfo("testbed sent %d cycles, %d failed", m.Completed, m.Failed)
	return nil
}
