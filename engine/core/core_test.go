package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSystemFire(t *testing.T) {
	es := NewEventSystem()
	var got []string
	first := func(code SystemEventCode, sender, listener interface{}, ctx EventContext) bool {
		got = append(got, "first")
		assert.Equal(t, EVENT_CODE_OBJECT_UPDATED, ctx.Type)
		return false
	}
	second := func(code SystemEventCode, sender, listener interface{}, ctx EventContext) bool {
		got = append(got, "second")
		return true
	}
	third := func(code SystemEventCode, sender, listener interface{}, ctx EventContext) bool {
		got = append(got, "third")
		return true
	}

	a, b, c := new(int), new(int), new(int)
	require.True(t, es.Register(EVENT_CODE_OBJECT_UPDATED, a, first))
	require.True(t, es.Register(EVENT_CODE_OBJECT_UPDATED, b, second))
	require.True(t, es.Register(EVENT_CODE_OBJECT_UPDATED, c, third))
	assert.False(t, es.Register(EVENT_CODE_OBJECT_UPDATED, a, first), "duplicate listener")
	assert.False(t, es.Register(MAX_MESSAGE_CODES, a, first))

	// a handled event stops at the listener that handled it
	assert.True(t, es.Fire(EVENT_CODE_OBJECT_UPDATED, nil, EventContext{}))
	assert.Equal(t, []string{"first", "second"}, got)

	assert.True(t, es.Unregister(EVENT_CODE_OBJECT_UPDATED, b))
	assert.False(t, es.Unregister(EVENT_CODE_OBJECT_UPDATED, b))
	got = nil
	es.Fire(EVENT_CODE_OBJECT_UPDATED, nil, EventContext{})
	assert.Equal(t, []string{"first", "third"}, got)

	assert.False(t, es.Fire(EVENT_CODE_SCENE_UPDATED, nil, EventContext{}))
}

func TestEventSystemShutdown(t *testing.T) {
	es := NewEventSystem()
	cb := func(SystemEventCode, interface{}, interface{}, EventContext) bool { return true }
	require.True(t, es.Register(EVENT_CODE_SYNC_REQUESTED, nil, cb))

	require.NoError(t, es.Shutdown())
	assert.False(t, es.Fire(EVENT_CODE_SYNC_REQUESTED, nil, EventContext{}))
	assert.False(t, es.Register(EVENT_CODE_SYNC_REQUESTED, nil, cb))
	assert.ErrorIs(t, es.Shutdown(), ErrClosed)
}

func TestSendMetrics(t *testing.T) {
	m := NewSendMetrics()
	m.RecordStarted()
	m.RecordBusy()
	m.RecordMessage()
	m.RecordMessage()
	m.RecordFinished(10*time.Millisecond, nil)
	m.RecordStarted()
	m.RecordFinished(30*time.Millisecond, errors.New("boom"))

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.Started)
	assert.Equal(t, uint64(1), s.Busy)
	assert.Equal(t, uint64(1), s.Completed)
	assert.Equal(t, uint64(1), s.Failed)
	assert.Equal(t, uint64(2), s.MessagesSent)
	assert.Equal(t, 20*time.Millisecond, s.AverageSend)
	assert.Equal(t, 30*time.Millisecond, s.LastSend)
}

func TestSendMetricsAverageIsRolling(t *testing.T) {
	m := NewSendMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.RecordFinished(time.Second, nil)
	}
	m.RecordFinished(time.Second+time.Duration(AVG_COUNT)*time.Millisecond, nil)
	assert.Equal(t, time.Second+time.Millisecond, m.Snapshot().AverageSend)
}

func TestClock(t *testing.T) {
	now := time.Unix(100, 0)
	c := NewClockWithSource(func() time.Time { return now })

	c.Update()
	assert.Zero(t, c.Elapsed(), "not started")

	c.Start()
	assert.True(t, c.IsRunning())
	now = now.Add(1500 * time.Millisecond)
	c.Update()
	assert.Equal(t, 1500*time.Millisecond, c.Elapsed())
	assert.InDelta(t, 1.5, c.Seconds(), 1e-9)

	c.Stop()
	now = now.Add(time.Second)
	c.Update()
	assert.False(t, c.IsRunning())
	assert.Equal(t, 1500*time.Millisecond, c.Elapsed())
}

func TestIndexSeed(t *testing.T) {
	s := NewIndexSeed()
	assert.Equal(t, int32(0), s.Last())
	assert.Equal(t, int32(1), s.Next())
	assert.Equal(t, int32(2), s.Next())
	assert.Equal(t, int32(2), s.Last())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLogLevel("WARN"))
}
