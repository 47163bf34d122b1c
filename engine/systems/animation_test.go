package systems

import (
	"testing"

	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/adapter/memory"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnimationSystem(t *testing.T, f *translatorFixture) *AnimationSystem {
	as, err := NewAnimationSystem(&AnimationSystemConfig{Settings: f.settings}, f.host, f.tracker, f.translator)
	require.NoError(t, err)
	return as
}

func slide(time float64) *math.Transform {
	return math.TransformFromPosition(math.NewVec3(float32(time), 0, 0))
}

func TestAnimationSampleTicks(t *testing.T) {
	f := newTranslatorFixture(t)
	f.settings.AnimationSampleRate = 4
	f.host.SetAnimationRange(0, 1)
	n := f.host.Add(memory.NewNode("mover", scene.KindTransform, nil))
	n.Animate = slide

	as := newTestAnimationSystem(t, f)
	clip := scene.NewAnimationClip("")
	require.True(t, as.Register(n, clip))
	assert.False(t, as.Register(n, clip), "a key is registered once")

	assert.Equal(t, 5, as.Sample())
	anim := clip.Animations[0].(*scene.TransformAnimation)
	require.Len(t, anim.Translation, 5)
	assert.Equal(t, float32(0.25), anim.Translation[1].Time)
	// host x becomes -x on the wire
	assert.InDelta(t, -0.75, anim.Translation[3].Value.X, 1e-5)
}

func TestAnimationExportReduces(t *testing.T) {
	f := newTranslatorFixture(t)
	f.settings.AnimationSampleRate = 10
	f.settings.AnimationTimeScale = 2
	f.host.SetAnimationRange(0, 1)
	mover := f.host.Add(memory.NewNode("mover", scene.KindTransform, nil))
	mover.Animate = slide
	f.host.Add(memory.NewNode("static", scene.KindTransform, nil))

	as := newTestAnimationSystem(t, f)
	var keys []adapter.Handle
	f.host.EnumerateSceneObjects(func(h adapter.Handle) { keys = append(keys, h) })

	clip := as.Export(keys)
	require.NotNil(t, clip)
	require.Len(t, clip.Animations, 1)

	anim := clip.Animations[0].(*scene.TransformAnimation)
	assert.Equal(t, "/mover", anim.TargetPath())
	// a straight line keeps its ends only
	require.Len(t, anim.Translation, 2)
	assert.Equal(t, float32(0), anim.Translation[0].Time)
	assert.InDelta(t, 2, anim.Translation[1].Time, 1e-5)
	assert.Nil(t, anim.Rotation)
	assert.Nil(t, anim.Scale)

	r, ok := f.tracker.Record(mover)
	require.True(t, ok)
	assert.Nil(t, r.Anim, "records are dropped after export")
}

func TestAnimationExportNothingAnimated(t *testing.T) {
	f := newTranslatorFixture(t)
	cam := f.host.Add(memory.NewNode("cam", scene.KindCamera, nil))
	cam.Camera = &adapter.CameraData{Fov: 40}

	as := newTestAnimationSystem(t, f)
	assert.Nil(t, as.Export([]adapter.Handle{cam}))
	assert.Nil(t, as.Export(nil))
}

func TestAnimationRegisterPerKind(t *testing.T) {
	f := newTranslatorFixture(t)
	as := newTestAnimationSystem(t, f)
	clip := scene.NewAnimationClip("")

	cam := f.host.Add(memory.NewNode("cam", scene.KindCamera, nil))
	light := f.host.Add(memory.NewNode("light", scene.KindLight, nil))
	mesh := f.host.Add(memory.NewNode("mesh", scene.KindMesh, nil))
	f.settings.SyncLights = false

	assert.True(t, as.Register(cam, clip))
	assert.False(t, as.Register(light, clip))
	assert.True(t, as.Register(mesh, clip))

	require.Len(t, clip.Animations, 2)
	assert.Equal(t, scene.KindCamera, clip.Animations[0].Kind())
	assert.Equal(t, scene.KindMesh, clip.Animations[1].Kind())

	f.settings.SyncMeshes = false
	other := f.host.Add(memory.NewNode("other", scene.KindMesh, nil))
	assert.True(t, as.Register(other, clip))
	assert.Equal(t, scene.KindTransform, clip.Animations[2].Kind())
}

func TestAnimationLightChannels(t *testing.T) {
	f := newTranslatorFixture(t)
	f.settings.AnimationSampleRate = 2
	f.host.SetAnimationRange(0, 1)
	light := f.host.Add(memory.NewNode("light", scene.KindLight, nil))
	light.Light = &adapter.LightData{Color: math.NewVec4(1, 1, 1, 1), Intensity: 3}
	light.Animate = slide

	as := newTestAnimationSystem(t, f)
	clip := as.Export([]adapter.Handle{light})
	require.NotNil(t, clip)
	anim := clip.Animations[0].(*scene.LightAnimation)
	// constant channels collapse and are cleared
	assert.Nil(t, anim.Color)
	assert.Nil(t, anim.Intensity)
	assert.Len(t, anim.Translation, 2)
}
