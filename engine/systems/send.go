package systems

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/protocol"
	"github.com/spaghettifunk/meshsync/engine/scene"
	"github.com/spaghettifunk/meshsync/engine/transport"
)

/**
 * @brief One send cycle. The task owns its snapshot; nothing else may touch
 * it once the task exists.
 */
type SendTask struct {
	Revision uint64
	snapshot *scene.Snapshot
	done     chan struct{}
	err      error
	sent     int
}

/** @brief Closed when the cycle reached a terminal state. */
func (t *SendTask) Done() <-chan struct{} {
	return t.done
}

/** @brief The cycle's error. Only valid after Done is closed. */
func (t *SendTask) Err() error {
	return t.err
}

func (t *SendTask) isDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

type SendSystemConfig struct {
	/** @brief Stamped on every message of this sender. */
	Session string
	/** @brief How long Shutdown waits for an in-flight cycle. */
	Timeout time.Duration
}

/**
 * @brief The single flight send pipeline. At most one cycle runs at a time,
 * on its own goroutine; a kick while one runs is refused, never queued.
 */
type SendSystem struct {
	Config  *SendSystemConfig
	dialer  transport.Dialer
	metrics *core.SendMetrics

	mutex    sync.Mutex
	inflight *SendTask
	lastErr  error
	revision uint64
	closed   bool
	wg       sync.WaitGroup
}

func NewSendSystem(config *SendSystemConfig, dialer transport.Dialer, metrics *core.SendMetrics) (*SendSystem, error) {
	if dialer == nil {
		err := fmt.Errorf("func NewSendSystem - a dialer is required: %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return nil, err
	}
	if metrics == nil {
		metrics = core.NewSendMetrics()
	}
	return &SendSystem{
		Config:  config,
		dialer:  dialer,
		metrics: metrics,
	}, nil
}

func (ss *SendSystem) SetTimeout(timeout time.Duration) {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()
	ss.Config.Timeout = timeout
}

func (ss *SendSystem) IsSending() bool {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()
	return ss.inflight != nil && !ss.inflight.isDone()
}

/**
 * @brief Starts a cycle for snap and takes ownership of it. Returns ErrBusy,
 * without touching the running cycle, if one is still in flight.
 */
func (ss *SendSystem) Kick(snap *scene.Snapshot) (*SendTask, error) {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	if ss.closed {
		return nil, core.ErrClosed
	}
	if ss.inflight != nil && !ss.inflight.isDone() {
		ss.metrics.RecordBusy()
		core.LogDebug("send refused, revision %d still in flight", ss.inflight.Revision)
		return nil, core.ErrBusy
	}

	ss.revision++
	task := &SendTask{
		Revision: ss.revision,
		snapshot: snap,
		done:     make(chan struct{}),
	}
	ss.inflight = task
	ss.metrics.RecordStarted()

	ss.wg.Add(1)
	go func() {
		defer ss.wg.Done()
		ss.run(task)
	}()
	return task, nil
}

func (ss *SendSystem) run(task *SendTask) {
	start := time.Now()
	task.err = ss.transmit(task)
	elapsed := time.Since(start)
	ss.metrics.RecordFinished(elapsed, task.err)

	if task.err != nil {
		core.LogError("send of revision %d failed after %d messages: %v", task.Revision, task.sent, task.err)
		ss.mutex.Lock()
		ss.lastErr = task.err
		ss.mutex.Unlock()
	} else {
		core.LogInfo("sent revision %d: %d messages in %s", task.Revision, task.sent, elapsed)
	}
	// the snapshot dies with the cycle
	task.snapshot = nil
	close(task.done)
}

func (ss *SendSystem) transmit(task *SendTask) error {
	ctx := context.Background()
	client, err := ss.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w: %w", core.ErrTransport, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			core.LogWarn("closing transport: %v", err)
		}
	}()

	for _, m := range BuildMessages(task.snapshot) {
		m.Session = ss.Config.Session
		m.Revision = task.Revision
		if err := client.Send(ctx, m); err != nil {
			return fmt.Errorf("send %s: %w: %w", m.Label(), core.ErrTransport, err)
		}
		task.sent++
		ss.metrics.RecordMessage()
	}
	return nil
}

/**
 * @brief Orders a snapshot into messages: SceneBegin, deletions, scene wide
 * objects and materials, one message per mesh, animations and constraints,
 * SceneEnd. Optional steps are left out when empty.
 */
func BuildMessages(snap *scene.Snapshot) []*protocol.Message {
	msgs := []*protocol.Message{protocol.NewFence(protocol.FenceSceneBegin)}

	if len(snap.Deleted) > 0 {
		msgs = append(msgs, protocol.NewDelete(snap.Deleted))
	}
	if snap.HasSceneData() {
		msgs = append(msgs, protocol.NewSet(&protocol.Scene{
			Settings:  snap.Settings,
			Objects:   snap.Objects,
			Materials: snap.Materials,
		}))
	}
	for _, mesh := range snap.Meshes {
		msgs = append(msgs, protocol.NewSet(&protocol.Scene{
			Settings: snap.Settings,
			Objects:  []scene.Object{mesh},
		}))
	}
	if snap.HasAnimationData() {
		msgs = append(msgs, protocol.NewSet(&protocol.Scene{
			Settings:    snap.Settings,
			Animations:  snap.Animations,
			Constraints: snap.Constraints,
		}))
	}
	return append(msgs, protocol.NewFence(protocol.FenceSceneEnd))
}

/** @brief Returns the error of a failed cycle once, then nil until the next failure. */
func (ss *SendSystem) LastError() error {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()
	err := ss.lastErr
	ss.lastErr = nil
	return err
}

/**
 * @brief Blocks until the in-flight cycle finishes or timeout elapses. The
 * cycle is never cancelled; on timeout it keeps running.
 */
func (ss *SendSystem) Wait(timeout time.Duration) error {
	ss.mutex.Lock()
	task := ss.inflight
	ss.mutex.Unlock()
	if task == nil {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-task.done:
		return nil
	case <-timer.C:
		return core.ErrShutdownTimeout
	}
}

/**
 * @brief Refuses further kicks and waits, bounded by Config.Timeout, for the
 * in-flight cycle.
 */
func (ss *SendSystem) Shutdown() error {
	ss.mutex.Lock()
	if ss.closed {
		ss.mutex.Unlock()
		return nil
	}
	ss.closed = true
	timeout := ss.Config.Timeout
	ss.mutex.Unlock()

	if err := ss.Wait(timeout); err != nil {
		core.LogWarn("abandoning in-flight send after %s", timeout)
		return err
	}
	ss.wg.Wait()
	return nil
}
