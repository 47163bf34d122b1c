package engine

import (
	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/config"
	"github.com/spaghettifunk/meshsync/engine/core"
)

// The host calls these from its main thread as its scene changes.

func (e *Engine) NotifyAdded(h adapter.Handle) {
	e.events.Fire(core.EVENT_CODE_OBJECT_ADDED, e, core.EventContext{Data: &core.ObjectEvent{Handle: h}})
}

// NotifyRemoved must be called while the host can still name h, so the
// deletion carries the right path even if h was never exported.
func (e *Engine) NotifyRemoved(h adapter.Handle) {
	e.events.Fire(core.EVENT_CODE_OBJECT_REMOVED, e, core.EventContext{Data: &core.ObjectEvent{Handle: h}})
}

func (e *Engine) NotifyChanged(h adapter.Handle) {
	e.events.Fire(core.EVENT_CODE_OBJECT_UPDATED, e, core.EventContext{Data: &core.ObjectEvent{Handle: h}})
}

// NotifySceneUpdated reports a scene wide change, such as a rename or a
// re-parent. The next auto sync becomes a full one.
func (e *Engine) NotifySceneUpdated() {
	e.events.Fire(core.EVENT_CODE_SCENE_UPDATED, e, core.EventContext{})
}

func (e *Engine) NotifySelectionChanged() {
	e.events.Fire(core.EVENT_CODE_SELECTION_CHANGED, e, core.EventContext{})
}

func (e *Engine) NotifyTimeChanged(time float64) {
	e.events.Fire(core.EVENT_CODE_TIME_CHANGED, e, core.EventContext{Data: &core.TimeEvent{Time: time}})
}

func (e *Engine) onObjectEvent(code core.SystemEventCode, sender interface{}, listenerInst interface{}, context core.EventContext) bool {
	ev, ok := context.Data.(*core.ObjectEvent)
	if !ok || ev.Handle == nil {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	tracker := e.systemManager.TrackerSystem
	switch code {
	case core.EVENT_CODE_OBJECT_ADDED:
		tracker.MarkAdded(ev.Handle)
	case core.EVENT_CODE_OBJECT_REMOVED:
		tracker.MarkDeleted(ev.Handle)
	case core.EVENT_CODE_OBJECT_UPDATED:
		tracker.MarkDirty(ev.Handle)
	}
	// other listeners may want it too
	return false
}

func (e *Engine) onSceneEvent(code core.SystemEventCode, sender interface{}, listenerInst interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_SCENE_UPDATED:
		e.systemManager.TrackerSystem.MarkSceneDirty()
	case core.EVENT_CODE_TIME_CHANGED:
		// every transform may differ at the new time
		if ev, ok := context.Data.(*core.TimeEvent); ok {
			core.LogDebug("host time changed to %.3f", ev.Time)
		}
		e.systemManager.TrackerSystem.MarkSceneDirty()
	case core.EVENT_CODE_SELECTION_CHANGED:
		core.LogDebug("host selection changed")
	}
	return false
}

/* Context usage:
 * scope := context.Data.(config.Scope), ScopeNone or a nil Data means the configured scope.
 */
func (e *Engine) onSyncRequested(code core.SystemEventCode, sender interface{}, listenerInst interface{}, context core.EventContext) bool {
	scope, _ := context.Data.(config.Scope)
	e.RequestSync(scope)
	return true
}
