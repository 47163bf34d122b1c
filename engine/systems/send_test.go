package systems

import (
	"errors"
	"testing"
	"time"

	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/protocol"
	"github.com/spaghettifunk/meshsync/engine/scene"
	"github.com/spaghettifunk/meshsync/engine/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullSnapshot() *scene.Snapshot {
	snap := scene.NewSnapshot(scene.Settings{ScaleFactor: 1})
	snap.Deleted = []string{"/gone"}
	snap.AddObject(scene.NewTransform("/root"))
	snap.AddObject(scene.NewMesh("/root/a"))
	snap.AddObject(scene.NewMesh("/root/b"))
	snap.Materials = []*scene.Material{{ID: 0, Name: "red", Color: math.NewVec4(1, 0, 0, 1)}}
	clip := scene.NewAnimationClip("take")
	anim := scene.NewTransformAnimation("/root")
	anim.Translation.Append(0, math.NewVec3Zero())
	anim.Translation.Append(1, math.NewVec3One())
	clip.Add(anim)
	snap.Animations = []*scene.AnimationClip{clip}
	snap.Constraints = []*scene.Constraint{{Kind: scene.ConstraintParent, Path: "/root/a", Sources: []string{"/root"}}}
	return snap
}

func newTestSendSystem(t *testing.T, rec *transport.Recorder, timeout time.Duration) (*SendSystem, *core.SendMetrics) {
	metrics := core.NewSendMetrics()
	ss, err := NewSendSystem(&SendSystemConfig{Session: "session-1", Timeout: timeout}, rec, metrics)
	require.NoError(t, err)
	return ss, metrics
}

func waitTask(t *testing.T, task *SendTask) {
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("send cycle did not finish")
	}
}

func TestBuildMessagesOrder(t *testing.T) {
	tests := []struct {
		name   string
		snap   func() *scene.Snapshot
		labels []string
	}{
		{
			name: "everything",
			snap: fullSnapshot,
			labels: []string{
				"fence(scene_begin)",
				"delete(1)",
				"set(objects=1 materials=1 clips=0)",
				"set(objects=1 materials=0 clips=0)",
				"set(objects=1 materials=0 clips=0)",
				"set(objects=0 materials=0 clips=1)",
				"fence(scene_end)",
			},
		},
		{
			name: "only deletions",
			snap: func() *scene.Snapshot {
				snap := scene.NewSnapshot(scene.Settings{})
				snap.Deleted = []string{"/a", "/b"}
				return snap
			},
			labels: []string{"fence(scene_begin)", "delete(2)", "fence(scene_end)"},
		},
		{
			name: "only meshes",
			snap: func() *scene.Snapshot {
				snap := scene.NewSnapshot(scene.Settings{})
				snap.AddObject(scene.NewMesh("/m"))
				return snap
			},
			labels: []string{"fence(scene_begin)", "set(objects=1 materials=0 clips=0)", "fence(scene_end)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := BuildMessages(tt.snap())
			labels := make([]string, len(msgs))
			for i, m := range msgs {
				labels[i] = m.Label()
			}
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func TestBuildMessagesCarrySettings(t *testing.T) {
	snap := fullSnapshot()
	snap.Settings.ScaleFactor = 0.01
	for _, m := range BuildMessages(snap) {
		if m.Type == protocol.MessageSet {
			assert.Equal(t, float32(0.01), m.Scene.Settings.ScaleFactor)
		}
	}
	last := BuildMessages(snap)[5]
	require.Len(t, last.Scene.Constraints, 1)
	assert.Equal(t, "/root/a", last.Scene.Constraints[0].Path)
}

func TestSendSystemKick(t *testing.T) {
	rec := transport.NewRecorder()
	ss, metrics := newTestSendSystem(t, rec, time.Second)

	task, err := ss.Kick(fullSnapshot())
	require.NoError(t, err)
	waitTask(t, task)
	require.NoError(t, task.Err())

	msgs := rec.Messages()
	require.Len(t, msgs, 7)
	for _, m := range msgs {
		assert.Equal(t, "session-1", m.Session)
		assert.Equal(t, task.Revision, m.Revision)
	}
	assert.Equal(t, protocol.FenceSceneBegin, msgs[0].Fence)
	assert.Equal(t, protocol.FenceSceneEnd, msgs[6].Fence)
	assert.Equal(t, 1, rec.Dials())
	assert.Equal(t, 1, rec.Closes())

	next, err := ss.Kick(fullSnapshot())
	require.NoError(t, err)
	waitTask(t, next)
	assert.Equal(t, task.Revision+1, next.Revision)

	m := metrics.Snapshot()
	assert.Equal(t, uint64(2), m.Started)
	assert.Equal(t, uint64(2), m.Completed)
	assert.Equal(t, uint64(14), m.MessagesSent)
	assert.NoError(t, ss.LastError())
}

func TestSendSystemBusy(t *testing.T) {
	rec := transport.NewRecorder()
	rec.Hold()
	ss, metrics := newTestSendSystem(t, rec, time.Second)

	task, err := ss.Kick(fullSnapshot())
	require.NoError(t, err)
	assert.True(t, ss.IsSending())

	_, err = ss.Kick(fullSnapshot())
	assert.ErrorIs(t, err, core.ErrBusy)
	assert.Equal(t, uint64(1), metrics.Snapshot().Busy)

	rec.Release()
	waitTask(t, task)
	assert.False(t, ss.IsSending())
	// the refused snapshot never reached the wire
	assert.Len(t, rec.Messages(), 7)
}

func TestSendSystemFailureAbortsCycle(t *testing.T) {
	rec := transport.NewRecorder()
	rec.FailAt(3)
	ss, metrics := newTestSendSystem(t, rec, time.Second)

	task, err := ss.Kick(fullSnapshot())
	require.NoError(t, err)
	waitTask(t, task)

	assert.ErrorIs(t, task.Err(), core.ErrTransport)
	assert.ErrorIs(t, task.Err(), transport.ErrInjected)
	assert.Contains(t, task.Err().Error(), "set(objects=1 materials=1 clips=0)")
	assert.Len(t, rec.Messages(), 2, "nothing after the failed message is sent")
	assert.Equal(t, 1, rec.Closes())

	lastErr := ss.LastError()
	assert.ErrorIs(t, lastErr, core.ErrTransport)
	assert.NoError(t, ss.LastError(), "the error is reported once")
	assert.Equal(t, uint64(1), metrics.Snapshot().Failed)
}

func TestSendSystemDialFailure(t *testing.T) {
	rec := transport.NewRecorder()
	refused := errors.New("connection refused")
	rec.FailDial(refused)
	ss, _ := newTestSendSystem(t, rec, time.Second)

	task, err := ss.Kick(fullSnapshot())
	require.NoError(t, err)
	waitTask(t, task)
	assert.ErrorIs(t, task.Err(), refused)
	assert.ErrorIs(t, ss.LastError(), core.ErrTransport)
	assert.Empty(t, rec.Messages())
}

func TestSendSystemShutdownTimeout(t *testing.T) {
	rec := transport.NewRecorder()
	rec.Hold()
	ss, _ := newTestSendSystem(t, rec, 20*time.Millisecond)

	task, err := ss.Kick(fullSnapshot())
	require.NoError(t, err)

	start := time.Now()
	assert.ErrorIs(t, ss.Shutdown(), core.ErrShutdownTimeout)
	assert.Less(t, time.Since(start), time.Second)

	_, err = ss.Kick(fullSnapshot())
	assert.ErrorIs(t, err, core.ErrClosed)

	// the abandoned cycle still finishes on its own
	rec.Release()
	waitTask(t, task)
	assert.NoError(t, task.Err())
}

func TestSendSystemShutdownWaits(t *testing.T) {
	rec := transport.NewRecorder()
	rec.Hold()
	ss, _ := newTestSendSystem(t, rec, 2*time.Second)

	task, err := ss.Kick(fullSnapshot())
	require.NoError(t, err)
	go func() {
		time.Sleep(20 * time.Millisecond)
		rec.Release()
	}()

	require.NoError(t, ss.Shutdown())
	assert.True(t, task.isDone())
	assert.Len(t, rec.Messages(), 7)
	assert.NoError(t, ss.Shutdown())
}

func TestSendSystemWaitIdle(t *testing.T) {
	ss, _ := newTestSendSystem(t, transport.NewRecorder(), time.Second)
	assert.NoError(t, ss.Wait(time.Millisecond))
	assert.False(t, ss.IsSending())
}
