package core

import "sync"

// EventContext carries the payload of a fired event.
type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

// ObjectEvent is the payload of the object notifications.
/* Context usage:
 * ev := context.Data.(*core.ObjectEvent)
 * ev.Handle is the host handle, ev.Path the path at the time of the event (may be empty).
 */
type ObjectEvent struct {
	Handle interface{}
	Path   string
}

// TimeEvent is the payload of EVENT_CODE_TIME_CHANGED.
type TimeEvent struct {
	Time float64
}

// System internal event codes. Hosts should use codes beyond 255.
type SystemEventCode int

const (
	// A scene object was created in the host.
	EVENT_CODE_OBJECT_ADDED SystemEventCode = 0x01

	// A scene object was destroyed in the host.
	EVENT_CODE_OBJECT_REMOVED SystemEventCode = 0x02

	// Geometry, transform or material of a scene object changed.
	EVENT_CODE_OBJECT_UPDATED SystemEventCode = 0x03

	// Something scene-wide changed (rename, re-parent, file load).
	EVENT_CODE_SCENE_UPDATED SystemEventCode = 0x04

	// The host selection changed.
	EVENT_CODE_SELECTION_CHANGED SystemEventCode = 0x05

	// The host's current time changed.
	/* Context usage:
	 * t := context.Data.(*core.TimeEvent).Time
	 */
	EVENT_CODE_TIME_CHANGED SystemEventCode = 0x06

	// Someone asked for a sync outside of the auto-sync timer.
	EVENT_CODE_SYNC_REQUESTED SystemEventCode = 0x07

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listenerInst interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventCodeEntry struct {
	events []*registeredEvent
}

// EventSystem routes host notifications to whoever registered for them.
// It is owned by the engine, there is no package level state.
type EventSystem struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode]*eventCodeEntry
	closed     bool
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode]*eventCodeEntry),
	}
}

func (es *EventSystem) Shutdown() error {
	es.mutex.Lock()
	defer es.mutex.Unlock()
	if es.closed {
		return ErrClosed
	}
	// Listeners are owned elsewhere; only the table is dropped.
	es.registered = make(map[SystemEventCode]*eventCodeEntry)
	es.closed = true
	return nil
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listener combos will not be registered again and will cause this to return FALSE.
 * @param code The event code to listen for.
 * @param listener A pointer to a listener instance. Can be nil.
 * @param onEvent The callback to be invoked when the event code is fired.
 * @returns TRUE if the event is successfully registered; otherwise false.
 */
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if code < 0 || code >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	es.mutex.Lock()
	defer es.mutex.Unlock()
	if es.closed {
		return false
	}
	entry, ok := es.registered[code]
	if !ok {
		entry = &eventCodeEntry{}
		es.registered[code] = entry
	}
	for _, e := range entry.events {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	entry.events = append(entry.events, &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns FALSE.
 */
func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	es.mutex.Lock()
	defer es.mutex.Unlock()

	entry, ok := es.registered[code]
	// On nothing is registered for the code, boot out.
	if !ok || len(entry.events) == 0 {
		return false
	}
	for i, e := range entry.events {
		if e.listener == listener {
			entry.events = append(entry.events[:i], entry.events[i+1:]...)
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * TRUE, the event is considered handled and is not passed on to any more listeners.
 * @returns TRUE if handled, otherwise FALSE.
 */
func (es *EventSystem) Fire(code SystemEventCode, sender interface{}, context EventContext) bool {
	es.mutex.RLock()
	entry, ok := es.registered[code]
	var events []*registeredEvent
	if ok {
		events = append(events, entry.events...)
	}
	es.mutex.RUnlock()

	context.Type = code
	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			// Message has been handled, do not send to other listeners.
			return true
		}
	}
	return false
}
