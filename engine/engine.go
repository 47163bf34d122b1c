package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/config"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/scene"
	"github.com/spaghettifunk/meshsync/engine/systems"
	"github.com/spaghettifunk/meshsync/engine/transport"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

/**
 * @brief The engine context of one host. Everything but Stop runs on the
 * host's main thread; only the send cycle runs elsewhere.
 */
type Engine struct {
	currentStage  Stage
	app           *Application
	session       string
	isRunning     atomic.Bool
	events        *core.EventSystem
	systemManager *systems.SystemManager
	metrics       *core.SendMetrics
	clock         *core.Clock
	lastTime      time.Duration
	lastAutoSync  time.Duration

	settings *config.Settings
	// written by the watcher goroutine, applied on the next Update
	settingsMutex sync.Mutex
	reloaded      *config.Settings
	watcher       *config.Watcher

	// accumulates one cycle and is handed to the sender whole
	snapshot *scene.Snapshot
	pending  config.Scope
}

/**
 * @brief Builds an engine for app. When settings is nil they are loaded
 * from the configured settings path, or defaults are used. Given settings
 * are validated and clamped in place.
 */
func New(app *Application, settings *config.Settings) (*Engine, error) {
	if app == nil || app.ApplicationConfig == nil || app.Host == nil {
		err := fmt.Errorf("func New - application, its config and its host are required: %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return nil, err
	}

	if settings == nil {
		if path := app.ApplicationConfig.SettingsPath; path != "" {
			s, err := config.Load(path)
			if err != nil {
				core.LogError(err.Error())
				return nil, err
			}
			settings = s
		} else {
			settings = config.Default()
		}
	} else if err := settings.Validate(); err != nil {
		core.LogError("func New - %s", err.Error())
		return nil, err
	}

	dialer := app.Dialer
	if dialer == nil {
		dialer = transport.NewWebSocketDialer(transport.WebSocketConfig{
			URL:              settings.Client.URL,
			HandshakeTimeout: settings.HandshakeTimeout(),
		})
	}

	session := uuid.NewString()
	metrics := core.NewSendMetrics()
	sm, err := systems.NewSystemManager(settings, app.Host, dialer, session, metrics)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage:  EngineStageUninitialized,
		app:           app,
		session:       session,
		events:        core.NewEventSystem(),
		systemManager: sm,
		metrics:       metrics,
		clock:         core.NewClock(),
		settings:      settings,
		snapshot:      scene.NewSnapshot(settings.Scene()),
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("func Initialize - engine is past initialization (stage %d)", e.currentStage)
	}
	e.currentStage = EngineStageInitializing

	core.SetLogLevel(e.app.ApplicationConfig.LogLevel)
	if e.settings.LogLevel != "" {
		core.SetLogLevel(core.ParseLogLevel(e.settings.LogLevel))
	}

	// register the host notifications
	e.events.Register(core.EVENT_CODE_OBJECT_ADDED, e, e.onObjectEvent)
	e.events.Register(core.EVENT_CODE_OBJECT_REMOVED, e, e.onObjectEvent)
	e.events.Register(core.EVENT_CODE_OBJECT_UPDATED, e, e.onObjectEvent)
	e.events.Register(core.EVENT_CODE_SCENE_UPDATED, e, e.onSceneEvent)
	e.events.Register(core.EVENT_CODE_SELECTION_CHANGED, e, e.onSceneEvent)
	e.events.Register(core.EVENT_CODE_TIME_CHANGED, e, e.onSceneEvent)
	e.events.Register(core.EVENT_CODE_SYNC_REQUESTED, e, e.onSyncRequested)

	if path := e.app.ApplicationConfig.SettingsPath; path != "" && e.app.ApplicationConfig.WatchSettings {
		w, err := config.NewWatcher(path, e.onSettingsReloaded)
		if err != nil {
			core.LogError(err.Error())
			return err
		}
		w.Start()
		e.watcher = w
	}

	if e.app.FnInitialize != nil {
		if err := e.app.FnInitialize(e); err != nil {
			return err
		}
	}

	e.clock.Start()
	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized, session %s", e.app.ApplicationConfig.Name, e.session)
	return nil
}

/**
 * @brief Drives the application at its target frame rate until Stop is
 * called or the application update fails.
 */
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("func Run - engine is not initialized: %w", core.ErrNotInitialized)
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	rate := e.app.ApplicationConfig.TargetFrameRate
	if rate <= 0 {
		rate = 30
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := (currentTime - e.lastTime).Seconds()

		if e.app.FnUpdate != nil {
			if err := e.app.FnUpdate(e, delta); err != nil {
				core.LogError("application update failed, stopping: %v", err)
				e.isRunning.Store(false)
				return err
			}
		}
		e.Update()

		e.lastTime = currentTime
		<-ticker.C
	}
	return nil
}

// Stop ends Run after the current frame. It is safe to call from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

/**
 * @brief The per frame step. A pending request is retried until a send
 * actually starts; otherwise the auto-sync timer may start an updated-only
 * sync, escalated to a full one when the scene as a whole is dirty.
 */
func (e *Engine) Update() {
	e.clock.Update()
	e.applyReloadedSettings()

	if e.pending != config.ScopeNone {
		if _, err := e.SendScene(e.pending); !errors.Is(err, core.ErrBusy) {
			e.pending = config.ScopeNone
		}
		return
	}

	tracker := e.systemManager.TrackerSystem
	if !e.settings.AutoSync || !tracker.HasPending() {
		return
	}
	now := e.clock.Elapsed()
	if now-e.lastAutoSync < e.settings.AutoSyncInterval() {
		return
	}
	scope := config.ScopeUpdated
	if tracker.IsSceneDirty() {
		scope = config.ScopeAll
	}
	if _, err := e.SendScene(scope); errors.Is(err, core.ErrBusy) {
		return
	}
	e.lastAutoSync = now
}

/**
 * @brief Exports the scene and kicks a send cycle. ScopeAll exports every
 * host object and clears all dirty state; ScopeUpdated exports only what is
 * dirty. Returns ErrBusy, having changed nothing, while a cycle is in flight,
 * and a nil task when there was nothing to send.
 */
func (e *Engine) SendScene(scope config.Scope) (*systems.SendTask, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if e.isBusy() {
		return nil, core.ErrBusy
	}
	if scope == config.ScopeNone {
		scope = e.settings.SyncScope
	}

	tracker := e.systemManager.TrackerSystem
	translator := e.systemManager.TranslatorSystem
	translator.BeginCycle()

	exported := 0
	export := func(h adapter.Handle) {
		if _, ok := translator.Export(h, e.snapshot); ok {
			exported++
		}
	}
	switch scope {
	case config.ScopeAll:
		tracker.ClearDirty()
		e.app.Host.EnumerateSceneObjects(export)
	default:
		for _, h := range tracker.TakeDirtySet() {
			export(h)
		}
	}
	e.snapshot.Deleted = append(e.snapshot.Deleted, tracker.TakeDeleted()...)

	core.LogDebug("%s sync: %d objects exported, %d deletions", scope, exported, len(e.snapshot.Deleted))
	return e.kick(exported > 0 || len(e.snapshot.Deleted) > 0)
}

/**
 * @brief Samples, reduces and sends the animations of the host range.
 * ScopeAll samples every host object, ScopeUpdated only the dirty ones,
 * without clearing them.
 */
func (e *Engine) SendAnimations(scope config.Scope) (*systems.SendTask, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if e.isBusy() {
		return nil, core.ErrBusy
	}
	if scope == config.ScopeNone {
		scope = e.settings.SyncScope
	}

	var keys []adapter.Handle
	switch scope {
	case config.ScopeAll:
		e.app.Host.EnumerateSceneObjects(func(h adapter.Handle) {
			keys = append(keys, h)
		})
	default:
		keys = e.systemManager.TrackerSystem.DirtySet()
	}

	clip := e.systemManager.AnimationSystem.Export(keys)
	if clip == nil {
		core.LogDebug("%s animation sync: nothing animated", scope)
		return nil, nil
	}
	clip.Name = e.app.ApplicationConfig.Name
	e.snapshot.Animations = append(e.snapshot.Animations, clip)
	return e.kick(true)
}

func (e *Engine) kick(send bool) (*systems.SendTask, error) {
	defer e.systemManager.TrackerSystem.ClearExportState()

	snap := e.snapshot.Take()
	if !send {
		return nil, nil
	}
	return e.systemManager.SendSystem.Kick(snap)
}

func (e *Engine) checkReady() error {
	switch e.currentStage {
	case EngineStageInitialized, EngineStageRunning:
		return nil
	case EngineStageShuttingDown:
		return core.ErrClosed
	default:
		return core.ErrNotInitialized
	}
}

func (e *Engine) isBusy() bool {
	if e.systemManager.SendSystem.IsSending() {
		e.metrics.RecordBusy()
		core.LogDebug("sync skipped, a send is still in flight")
		return true
	}
	return false
}

// RequestSync queues a sync for the next Update. A pending full sync is
// never downgraded.
func (e *Engine) RequestSync(scope config.Scope) {
	if scope == config.ScopeNone {
		scope = e.settings.SyncScope
	}
	if e.pending == config.ScopeAll {
		return
	}
	e.pending = scope
}

// PendingSync returns the queued scope, ScopeNone when nothing is queued.
func (e *Engine) PendingSync() config.Scope {
	return e.pending
}

/**
 * @brief Reports whether a cycle is in flight and the error of the last
 * failed one. The error is returned once.
 */
func (e *Engine) Status() (bool, error) {
	ss := e.systemManager.SendSystem
	return ss.IsSending(), ss.LastError()
}

func (e *Engine) Metrics() core.MetricsSnapshot {
	return e.metrics.Snapshot()
}

func (e *Engine) Session() string {
	return e.session
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// Events exposes the notification bus so hosts can add their own listeners.
func (e *Engine) Events() *core.EventSystem {
	return e.events
}

// Settings returns a copy of the settings in effect.
func (e *Engine) Settings() *config.Settings {
	return e.settings.Clone()
}

// ApplySettings validates s and puts it in effect immediately.
func (e *Engine) ApplySettings(s *config.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	e.applySettings(s)
	return nil
}

func (e *Engine) onSettingsReloaded(s *config.Settings) {
	e.settingsMutex.Lock()
	e.reloaded = s
	e.settingsMutex.Unlock()
}

func (e *Engine) applyReloadedSettings() {
	e.settingsMutex.Lock()
	s := e.reloaded
	e.reloaded = nil
	e.settingsMutex.Unlock()
	if s != nil {
		e.applySettings(s)
	}
}

func (e *Engine) applySettings(s *config.Settings) {
	if s.Client != e.settings.Client && e.app.Dialer == nil {
		core.LogWarn("client settings changed, %s takes effect after a restart", s.Client.URL)
	}
	e.settings = s
	if s.LogLevel != "" {
		core.SetLogLevel(core.ParseLogLevel(s.LogLevel))
	}
	e.systemManager.SetSettings(s)
	e.snapshot.Settings = s.Scene()
}

/**
 * @brief Stops the watcher and the application, then waits for the
 * in-flight send up to the send timeout. ErrShutdownTimeout means the cycle
 * was abandoned, not cancelled.
 */
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return core.ErrClosed
	}
	e.isRunning.Store(false)
	e.currentStage = EngineStageShuttingDown

	if e.watcher != nil {
		if err := e.watcher.Shutdown(); err != nil {
			core.LogWarn(err.Error())
		}
	}
	if e.app.FnShutdown != nil {
		if err := e.app.FnShutdown(e); err != nil {
			core.LogError("application shutdown: %v", err)
		}
	}

	err := e.systemManager.Shutdown()
	if err := e.events.Shutdown(); err != nil {
		core.LogWarn(err.Error())
	}

	m := e.metrics.Snapshot()
	core.LogInfo("session %s closed: %d sends started, %d completed, %d failed, %d refused as busy, %d messages, average %s",
		e.session, m.Started, m.Completed, m.Failed, m.Busy, m.MessagesSent, m.AverageSend)
	return err
}
