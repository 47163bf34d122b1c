package engine

import (
	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/transport"
)

type ApplicationConfig struct {
	// The application name, used in logs only.
	Name     string
	LogLevel core.LogLevel
	// Path of the TOML settings file. Empty means defaults.
	SettingsPath string
	// Reload the settings file when it changes on disk.
	WatchSettings bool
	// Frames per second of the Run loop. Zero means 30.
	TargetFrameRate float64
}

// Application is the host side of an engine: the scene it reads and the
// callbacks driven by Run.
type Application struct {
	ApplicationConfig *ApplicationConfig
	Host              adapter.Host
	// Optional. When nil a websocket dialer is built from the client settings.
	Dialer       transport.Dialer
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnShutdown   Shutdown
}

type Initialize func(e *Engine) error
type Update func(e *Engine, deltaTime float64) error
type Shutdown func(e *Engine) error
