package engine

import (
	"errors"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/systems"
)

// ErrStopRequested can be returned by a game update to ask the engine for a
// clean shutdown.
var ErrStopRequested = errors.New("stop requested")

type Game struct {
	ApplicationConfig *ApplicationConfig
	// SystemManager is set by the engine before FnBoot is called.
	SystemManager *systems.SystemManager
	// Log is the engine logger, set together with SystemManager.
	Log           *core.Logger
	State         interface{}
	FnBoot        Boot
	FnInitialize  Initialize
	FnUpdate      Update
	FnShutdown    Shutdown
}

type Boot func() error
type Initialize func() error
type Update func(deltaTime float64) error
type Shutdown func() error
