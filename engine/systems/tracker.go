package systems

import (
	"fmt"

	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/scene"
)

/**
 * @brief One per tracked host object. Only the engine holds these; the host
 * only ever sees its own handle.
 */
type EntityRecord struct {
	Key  adapter.Handle
	Path string
	/** @brief Set by any change notification, cleared when taken for export. */
	Dirty bool
	/** @brief The object exported this cycle. Cleared when the cycle is handed off. */
	Exported scene.Object
	/** @brief Present only while an animation export is sampling. */
	Anim *AnimationRecord
}

/** @brief Releases the per cycle references. */
func (r *EntityRecord) ClearState() {
	r.Exported = nil
	r.Anim = nil
}

type TrackerSystemConfig struct {
	/** @brief A capacity hint for the record table. */
	InitialEntityCount int
}

/**
 * @brief Records what changed in the host since the last hand off. It never
 * fails; it only records state.
 */
type TrackerSystem struct {
	Config *TrackerSystemConfig

	records     map[adapter.Handle]*EntityRecord
	deleted     []string
	deletedSet  map[string]struct{}
	sceneDirty  bool
	resolvePath func(adapter.Handle) string
}

func NewTrackerSystem(config *TrackerSystemConfig, resolvePath func(adapter.Handle) string) (*TrackerSystem, error) {
	if resolvePath == nil {
		err := fmt.Errorf("func NewTrackerSystem - a path resolver is required: %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return nil, err
	}
	return &TrackerSystem{
		Config:      config,
		records:     make(map[adapter.Handle]*EntityRecord, config.InitialEntityCount),
		deletedSet:  make(map[string]struct{}),
		resolvePath: resolvePath,
	}, nil
}

func (ts *TrackerSystem) Shutdown() error {
	ts.records = make(map[adapter.Handle]*EntityRecord)
	ts.deleted = nil
	ts.deletedSet = make(map[string]struct{})
	ts.sceneDirty = false
	return nil
}

/**
 * @brief Returns the record for key, creating a clean one on first sight.
 * The path is resolved on creation so a later delete can name it.
 */
func (ts *TrackerSystem) Observe(key adapter.Handle) *EntityRecord {
	if r, ok := ts.records[key]; ok {
		return r
	}
	r := &EntityRecord{Key: key, Path: ts.resolvePath(key)}
	ts.records[key] = r
	return r
}

func (ts *TrackerSystem) Record(key adapter.Handle) (*EntityRecord, bool) {
	r, ok := ts.records[key]
	return r, ok
}

func (ts *TrackerSystem) MarkDirty(key adapter.Handle) {
	ts.Observe(key).Dirty = true
}

func (ts *TrackerSystem) MarkAdded(key adapter.Handle) {
	ts.MarkDirty(key)
}

/**
 * @brief Drops the record for key and queues its last known path for
 * deletion, whether or not it was ever exported.
 */
func (ts *TrackerSystem) MarkDeleted(key adapter.Handle) {
	path := ""
	if r, ok := ts.records[key]; ok {
		path = r.Path
		delete(ts.records, key)
	}
	if path == "" {
		path = ts.resolvePath(key)
	}
	if path == "" {
		return
	}
	if _, ok := ts.deletedSet[path]; ok {
		return
	}
	ts.deletedSet[path] = struct{}{}
	ts.deleted = append(ts.deleted, path)
}

func (ts *TrackerSystem) MarkSceneDirty() {
	ts.sceneDirty = true
}

func (ts *TrackerSystem) IsSceneDirty() bool {
	return ts.sceneDirty
}

/** @brief Returns every dirty key and clears their flags. Order is unspecified. */
func (ts *TrackerSystem) TakeDirtySet() []adapter.Handle {
	var keys []adapter.Handle
	for key, r := range ts.records {
		if r.Dirty {
			r.Dirty = false
			keys = append(keys, key)
		}
	}
	return keys
}

// DirtySet lists the dirty keys without clearing them.
func (ts *TrackerSystem) DirtySet() []adapter.Handle {
	var keys []adapter.Handle
	for key, r := range ts.records {
		if r.Dirty {
			keys = append(keys, key)
		}
	}
	return keys
}

/** @brief Clears every dirty flag and the scene flag, as a full sync does. */
func (ts *TrackerSystem) ClearDirty() {
	for _, r := range ts.records {
		r.Dirty = false
	}
	ts.sceneDirty = false
}

func (ts *TrackerSystem) TakeDeleted() []string {
	out := ts.deleted
	ts.deleted = nil
	ts.deletedSet = make(map[string]struct{})
	return out
}

func (ts *TrackerSystem) HasDeleted() bool {
	return len(ts.deleted) > 0
}

// HasPending reports whether anything would be sent by an updated sync.
func (ts *TrackerSystem) HasPending() bool {
	if ts.sceneDirty || len(ts.deleted) > 0 {
		return true
	}
	for _, r := range ts.records {
		if r.Dirty {
			return true
		}
	}
	return false
}

func (ts *TrackerSystem) ClearExportState() {
	for _, r := range ts.records {
		r.ClearState()
	}
}

func (ts *TrackerSystem) ClearAnimationState() {
	for _, r := range ts.records {
		r.Anim = nil
	}
}

func (ts *TrackerSystem) Len() int {
	return len(ts.records)
}
