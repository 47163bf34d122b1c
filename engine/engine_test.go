package engine

import (
	"testing"
	"time"

	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/adapter/memory"
	"github.com/spaghettifunk/meshsync/engine/config"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/protocol"
	"github.com/spaghettifunk/meshsync/engine/scene"
	"github.com/spaghettifunk/meshsync/engine/systems"
	"github.com/spaghettifunk/meshsync/engine/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine   *Engine
	host     *memory.Host
	recorder *transport.Recorder
	now      time.Time
}

func newFixture(t *testing.T, tweak func(*config.Settings)) *fixture {
	f := &fixture{
		host:     memory.NewHost(),
		recorder: transport.NewRecorder(),
		now:      time.Unix(1000, 0),
	}
	settings := config.Default()
	settings.AutoSync = false
	settings.SendTimeoutMs = 2000
	if tweak != nil {
		tweak(settings)
	}

	e, err := New(&Application{
		ApplicationConfig: &ApplicationConfig{Name: "test"},
		Host:              f.host,
		Dialer:            f.recorder,
	}, settings)
	require.NoError(t, err)
	e.clock = core.NewClockWithSource(func() time.Time { return f.now })
	require.NoError(t, e.Initialize())
	f.engine = e

	t.Cleanup(func() {
		f.recorder.Release()
		_ = e.Shutdown()
	})
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func waitTask(t *testing.T, task *systems.SendTask) {
	require.NotNil(t, task)
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("send cycle did not finish")
	}
}

// sentPaths lists the object paths of every Set message, in order.
func sentPaths(msgs []*protocol.Message) []string {
	var paths []string
	for _, m := range msgs {
		if m.Type != protocol.MessageSet {
			continue
		}
		for _, o := range m.Scene.Objects {
			paths = append(paths, o.Header().Path)
		}
	}
	return paths
}

func TestNewRequiresHost(t *testing.T) {
	_, err := New(&Application{ApplicationConfig: &ApplicationConfig{}}, nil)
	assert.ErrorIs(t, err, core.ErrNotInitialized)
}

func TestNewValidatesGivenSettings(t *testing.T) {
	app := &Application{
		ApplicationConfig: &ApplicationConfig{},
		Host:              memory.NewHost(),
		Dialer:            transport.NewRecorder(),
	}

	_, err := New(app, &config.Settings{SyncScope: config.ScopeAll, ScaleFactor: 1})
	assert.ErrorIs(t, err, core.ErrInvalidSettings)

	s := config.Default()
	s.AnimationSampleRate = 0
	e, err := New(app, s)
	require.NoError(t, err)
	assert.Equal(t, float32(1), e.Settings().AnimationSampleRate)
}

func TestSendSceneBeforeInitialize(t *testing.T) {
	e, err := New(&Application{
		ApplicationConfig: &ApplicationConfig{},
		Host:              memory.NewHost(),
		Dialer:            transport.NewRecorder(),
	}, nil)
	require.NoError(t, err)
	_, err = e.SendScene(config.ScopeAll)
	assert.ErrorIs(t, err, core.ErrNotInitialized)
	assert.NotEmpty(t, e.Session())
}

func TestFullThenUpdatedSync(t *testing.T) {
	f := newFixture(t, nil)
	a := f.host.Add(memory.NewNode("a", scene.KindTransform, nil))
	f.host.Add(memory.NewNode("b", scene.KindTransform, nil))
	f.host.Add(memory.NewNode("c", scene.KindTransform, nil))

	task, err := f.engine.SendScene(config.ScopeAll)
	require.NoError(t, err)
	waitTask(t, task)
	assert.Equal(t, []string{"/a", "/b", "/c"}, sentPaths(f.recorder.Messages()))

	f.recorder.Reset()
	f.engine.NotifyChanged(a)
	task, err = f.engine.SendScene(config.ScopeUpdated)
	require.NoError(t, err)
	waitTask(t, task)
	assert.Equal(t, []string{"/a"}, sentPaths(f.recorder.Messages()))

	// nothing left dirty
	task, err = f.engine.SendScene(config.ScopeUpdated)
	assert.NoError(t, err)
	assert.Nil(t, task)
}

func TestDeletedObjectIsSentAsDelete(t *testing.T) {
	f := newFixture(t, nil)
	cube := f.host.Add(memory.NewNode("cube", scene.KindMesh, nil))
	cube.Mesh = memory.Cube(0)

	task, err := f.engine.SendScene(config.ScopeAll)
	require.NoError(t, err)
	waitTask(t, task)
	f.recorder.Reset()

	f.engine.NotifyRemoved(cube)
	f.host.Remove(cube)

	task, err = f.engine.SendScene(config.ScopeUpdated)
	require.NoError(t, err)
	waitTask(t, task)
	require.NoError(t, task.Err())

	assert.Equal(t, []string{"fence(scene_begin)", "delete(1)", "fence(scene_end)"}, f.recorder.Labels())
	del := f.recorder.Messages()[1]
	assert.Equal(t, "/cube", del.Targets[0].Path)
}

func TestTwoTriangleMesh(t *testing.T) {
	f := newFixture(t, nil)
	f.host.SetMaterials(memoryMaterial("grey"))
	quad := f.host.Add(memory.NewNode("quad", scene.KindMesh, nil))
	quad.Mesh = memory.Quad(0)

	task, err := f.engine.SendScene(config.ScopeAll)
	require.NoError(t, err)
	waitTask(t, task)

	assert.Equal(t, []string{
		"fence(scene_begin)",
		"set(objects=0 materials=1 clips=0)",
		"set(objects=1 materials=0 clips=0)",
		"fence(scene_end)",
	}, f.recorder.Labels())

	m, ok := f.recorder.Messages()[2].Scene.Objects[0].(*scene.Mesh)
	require.True(t, ok)
	assert.Len(t, m.Points, 4)
	assert.Equal(t, []int32{3, 3}, m.Counts)
	assert.Equal(t, []int32{0, 1, 2, 0, 2, 3}, m.Indices)
	assert.Len(t, m.Normals, 6)
}

func TestSendSceneBusy(t *testing.T) {
	f := newFixture(t, nil)
	f.host.Add(memory.NewNode("a", scene.KindTransform, nil))
	f.recorder.Hold()

	task, err := f.engine.SendScene(config.ScopeAll)
	require.NoError(t, err)

	_, err = f.engine.SendScene(config.ScopeAll)
	assert.ErrorIs(t, err, core.ErrBusy)
	_, err = f.engine.SendAnimations(config.ScopeAll)
	assert.ErrorIs(t, err, core.ErrBusy)

	sending, lastErr := f.engine.Status()
	assert.True(t, sending)
	assert.NoError(t, lastErr)

	f.recorder.Release()
	waitTask(t, task)
	sending, _ = f.engine.Status()
	assert.False(t, sending)
	assert.Equal(t, uint64(2), f.engine.Metrics().Busy)
}

func TestStatusReportsFailureOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.host.Add(memory.NewNode("a", scene.KindTransform, nil))
	f.recorder.FailAt(1)

	task, err := f.engine.SendScene(config.ScopeAll)
	require.NoError(t, err)
	waitTask(t, task)

	_, lastErr := f.engine.Status()
	assert.ErrorIs(t, lastErr, core.ErrTransport)
	_, lastErr = f.engine.Status()
	assert.NoError(t, lastErr)
}

func TestPendingRequestRetriedUntilStarted(t *testing.T) {
	f := newFixture(t, nil)
	f.host.Add(memory.NewNode("a", scene.KindTransform, nil))
	f.recorder.Hold()

	first, err := f.engine.SendScene(config.ScopeAll)
	require.NoError(t, err)

	f.engine.RequestSync(config.ScopeUpdated)
	f.engine.RequestSync(config.ScopeAll)
	f.engine.RequestSync(config.ScopeUpdated)
	assert.Equal(t, config.ScopeAll, f.engine.PendingSync())

	f.engine.Update()
	assert.Equal(t, config.ScopeAll, f.engine.PendingSync(), "still busy, kept")

	f.recorder.Release()
	waitTask(t, first)
	f.engine.Update()
	assert.Equal(t, config.ScopeNone, f.engine.PendingSync())

	waitIdle(t, f.engine)
	assert.Equal(t, uint64(2), f.engine.Metrics().Completed)
}

func TestSyncRequestedEvent(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.Events().Fire(core.EVENT_CODE_SYNC_REQUESTED, nil, core.EventContext{Data: config.ScopeUpdated})
	assert.Equal(t, config.ScopeUpdated, f.engine.PendingSync())
}

func TestAutoSync(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.AutoSync = true
		s.AutoSyncIntervalMs = 100
	})
	a := f.host.Add(memory.NewNode("a", scene.KindTransform, nil))
	f.host.Add(memory.NewNode("b", scene.KindTransform, nil))

	f.engine.NotifyChanged(a)
	f.engine.Update()
	assert.Equal(t, uint64(0), f.engine.Metrics().Started, "interval not elapsed")

	f.advance(150 * time.Millisecond)
	f.engine.Update()
	assert.Equal(t, uint64(1), f.engine.Metrics().Started)
	waitIdle(t, f.engine)
	assert.Equal(t, []string{"/a"}, sentPaths(f.recorder.Messages()))

	// a scene wide change escalates the next auto sync to everything
	f.recorder.Reset()
	f.engine.NotifySceneUpdated()
	f.advance(150 * time.Millisecond)
	f.engine.Update()
	assert.Equal(t, uint64(2), f.engine.Metrics().Started)
	waitIdle(t, f.engine)
	assert.Equal(t, []string{"/a", "/b"}, sentPaths(f.recorder.Messages()))

	// nothing pending, nothing sent
	f.advance(150 * time.Millisecond)
	f.engine.Update()
	assert.Equal(t, uint64(2), f.engine.Metrics().Started)
}

func TestSendAnimations(t *testing.T) {
	f := newFixture(t, nil)
	f.host.SetAnimationRange(0, 1)
	mover := f.host.Add(memory.NewNode("mover", scene.KindTransform, nil))
	mover.Animate = func(time float64) *math.Transform {
		return math.TransformFromPosition(math.NewVec3(0, float32(time), 0))
	}
	f.host.Add(memory.NewNode("still", scene.KindTransform, nil))

	task, err := f.engine.SendAnimations(config.ScopeAll)
	require.NoError(t, err)
	waitTask(t, task)

	assert.Equal(t, []string{
		"fence(scene_begin)",
		"set(objects=0 materials=0 clips=1)",
		"fence(scene_end)",
	}, f.recorder.Labels())
	clip := f.recorder.Messages()[1].Scene.Animations[0]
	assert.Equal(t, "test", clip.Name)
	require.Len(t, clip.Animations, 1)
	assert.Equal(t, "/mover", clip.Animations[0].TargetPath())

	// only dirty records are sampled for an updated request
	task, err = f.engine.SendAnimations(config.ScopeUpdated)
	assert.NoError(t, err)
	assert.Nil(t, task)
}

func TestApplySettings(t *testing.T) {
	f := newFixture(t, nil)
	f.host.Add(memory.NewNode("a", scene.KindTransform, nil))

	bad := config.Default()
	bad.SyncScope = "sometimes"
	assert.ErrorIs(t, f.engine.ApplySettings(bad), core.ErrInvalidSettings)

	s := f.engine.Settings()
	s.ScaleFactor = 0.01
	require.NoError(t, f.engine.ApplySettings(s))

	task, err := f.engine.SendScene(config.ScopeAll)
	require.NoError(t, err)
	waitTask(t, task)
	assert.Equal(t, float32(0.01), f.recorder.Messages()[1].Scene.Settings.ScaleFactor)
}

func TestReloadedSettingsApplyOnUpdate(t *testing.T) {
	f := newFixture(t, nil)
	s := config.Default()
	s.AutoSync = false
	s.SyncTransforms = false
	f.engine.onSettingsReloaded(s)
	assert.True(t, f.engine.Settings().SyncTransforms)

	f.engine.Update()
	assert.False(t, f.engine.Settings().SyncTransforms)

	f.host.Add(memory.NewNode("a", scene.KindTransform, nil))
	task, err := f.engine.SendScene(config.ScopeAll)
	assert.NoError(t, err)
	assert.Nil(t, task)
}

func TestShutdownTimeout(t *testing.T) {
	f := newFixture(t, func(s *config.Settings) {
		s.SendTimeoutMs = 20
	})
	f.host.Add(memory.NewNode("a", scene.KindTransform, nil))
	f.recorder.Hold()

	_, err := f.engine.SendScene(config.ScopeAll)
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.Shutdown(), core.ErrShutdownTimeout)
	assert.Equal(t, EngineStageShuttingDown, f.engine.Stage())
	assert.ErrorIs(t, f.engine.Shutdown(), core.ErrClosed)

	_, err = f.engine.SendScene(config.ScopeAll)
	assert.ErrorIs(t, err, core.ErrClosed)
}

func TestRunStops(t *testing.T) {
	f := newFixture(t, nil)
	frames := 0
	f.engine.app.FnUpdate = func(e *Engine, delta float64) error {
		frames++
		if frames == 3 {
			e.Stop()
		}
		return nil
	}
	f.engine.app.ApplicationConfig.TargetFrameRate = 200
	require.NoError(t, f.engine.Run())
	assert.Equal(t, 3, frames)
}

func memoryMaterial(name string) adapter.MaterialData {
	return adapter.MaterialData{Name: name, Color: math.NewVec4(0.5, 0.5, 0.5, 1)}
}

func waitIdle(t *testing.T, e *Engine) {
	require.Eventually(t, func() bool {
		sending, _ := e.Status()
		return !sending
	}, 2*time.Second, 5*time.Millisecond)
}
