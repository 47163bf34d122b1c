package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/math"
	"github.com/spaghettifunk/meshsync/engine/scene"
)

type Scope string

const (
	ScopeNone    Scope = ""
	ScopeAll     Scope = "all"
	ScopeUpdated Scope = "updated"
)

type ClientSettings struct {
	URL                string `toml:"url"`
	HandshakeTimeoutMs int    `toml:"handshake_timeout_ms"`
}

/**
 * @brief Every option the sync engine recognizes. Durations are stored in
 * milliseconds so the file stays readable.
 */
type Settings struct {
	SyncScope          Scope `toml:"sync_scope"`
	AutoSync           bool  `toml:"auto_sync"`
	AutoSyncIntervalMs int   `toml:"auto_sync_interval_ms"`

	SyncMeshes     bool `toml:"sync_meshes"`
	SyncCameras    bool `toml:"sync_cameras"`
	SyncLights     bool `toml:"sync_lights"`
	SyncTransforms bool `toml:"sync_transforms"`
	SyncNormals    bool `toml:"sync_normals"`
	SyncUVs        bool `toml:"sync_uvs"`
	SyncColors     bool `toml:"sync_colors"`
	WeldVertices   bool `toml:"weld_vertices"`

	ScaleFactor float32 `toml:"scale_factor"`

	/** @brief Samples per second of host time. */
	AnimationSampleRate         float32 `toml:"animation_sample_rate"`
	AnimationTimeScale          float32 `toml:"animation_time_scale"`
	AnimationReductionTolerance float32 `toml:"animation_reduction_tolerance"`

	SendTimeoutMs int    `toml:"send_timeout_ms"`
	LogLevel      string `toml:"log_level"`

	Client ClientSettings `toml:"client"`
}

func Default() *Settings {
	return &Settings{
		SyncScope:                   ScopeAll,
		AutoSync:                    true,
		AutoSyncIntervalMs:          500,
		SyncMeshes:                  true,
		SyncCameras:                 true,
		SyncLights:                  true,
		SyncTransforms:              true,
		SyncNormals:                 true,
		SyncUVs:                     true,
		SyncColors:                  true,
		WeldVertices:                true,
		ScaleFactor:                 1,
		AnimationSampleRate:         30,
		AnimationTimeScale:          1,
		AnimationReductionTolerance: 0.001,
		SendTimeoutMs:               5000,
		LogLevel:                    "info",
		Client: ClientSettings{
			URL:                "ws://127.0.0.1:8081/meshsync",
			HandshakeTimeoutMs: 2000,
		},
	}
}

// Validate rejects settings that cannot be used and clamps numeric ranges.
func (s *Settings) Validate() error {
	switch s.SyncScope {
	case ScopeAll, ScopeUpdated:
	default:
		return fmt.Errorf("sync_scope %q: %w", s.SyncScope, core.ErrInvalidSettings)
	}
	if s.Client.URL == "" {
		return fmt.Errorf("client.url is empty: %w", core.ErrInvalidSettings)
	}
	if s.ScaleFactor <= 0 {
		return fmt.Errorf("scale_factor %v must be positive: %w", s.ScaleFactor, core.ErrInvalidSettings)
	}

	s.AutoSyncIntervalMs = math.Clamp(s.AutoSyncIntervalMs, 10, 60000)
	s.AnimationSampleRate = math.Clamp(s.AnimationSampleRate, 1, 240)
	s.AnimationTimeScale = math.Clamp(s.AnimationTimeScale, 0.01, 100)
	s.AnimationReductionTolerance = math.Clamp(s.AnimationReductionTolerance, 0, 1)
	s.SendTimeoutMs = math.Clamp(s.SendTimeoutMs, 10, 600000)
	s.Client.HandshakeTimeoutMs = math.Clamp(s.Client.HandshakeTimeoutMs, 10, 60000)
	return nil
}

// Parse reads TOML on top of the defaults and validates the result.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := toml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings: %v: %w", err, core.ErrInvalidSettings)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (s *Settings) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Settings) Clone() *Settings {
	c := *s
	return &c
}

func (s *Settings) AutoSyncInterval() time.Duration {
	return time.Duration(s.AutoSyncIntervalMs) * time.Millisecond
}

func (s *Settings) SendTimeout() time.Duration {
	return time.Duration(s.SendTimeoutMs) * time.Millisecond
}

func (s *Settings) HandshakeTimeout() time.Duration {
	return time.Duration(s.Client.HandshakeTimeoutMs) * time.Millisecond
}

// Scene is the scene wide part carried by every Set message.
func (s *Settings) Scene() scene.Settings {
	return scene.Settings{Handedness: scene.HandednessLeft, ScaleFactor: s.ScaleFactor}
}
