package systems

import (
	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/config"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/transport"
)

// SystemManager owns the sync systems of one engine. They are built in
// dependency order and torn down in reverse.
type SystemManager struct {
	TrackerSystem    *TrackerSystem
	TranslatorSystem *TranslatorSystem
	AnimationSystem  *AnimationSystem
	SendSystem       *SendSystem
}

func NewSystemManager(settings *config.Settings, host adapter.Host, dialer transport.Dialer, session string, metrics *core.SendMetrics) (*SystemManager, error) {
	ts, err := NewTrackerSystem(&TrackerSystemConfig{
		InitialEntityCount: 256,
	}, func(h adapter.Handle) string {
		return adapter.Path(host, h)
	})
	if err != nil {
		return nil, err
	}
	tr, err := NewTranslatorSystem(&TranslatorSystemConfig{
		Settings: settings,
	}, host, ts, core.NewIndexSeed())
	if err != nil {
		return nil, err
	}
	as, err := NewAnimationSystem(&AnimationSystemConfig{
		Settings: settings,
	}, host, ts, tr)
	if err != nil {
		return nil, err
	}
	ss, err := NewSendSystem(&SendSystemConfig{
		Session: session,
		Timeout: settings.SendTimeout(),
	}, dialer, metrics)
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		TrackerSystem:    ts,
		TranslatorSystem: tr,
		AnimationSystem:  as,
		SendSystem:       ss,
	}, nil
}

// SetSettings hands a reloaded settings value to every system that reads it.
func (sm *SystemManager) SetSettings(s *config.Settings) {
	sm.TranslatorSystem.SetSettings(s)
	sm.AnimationSystem.SetSettings(s)
	sm.SendSystem.SetTimeout(s.SendTimeout())
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.SendSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.AnimationSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TranslatorSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TrackerSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
