package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every system
	EngineStageStopped
)

// shutdownPoll is the pause between two resource manager updates while
// waiting for resources to unload.
const shutdownPoll = time.Millisecond

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	config        *ApplicationConfig
	telemetry     *core.Telemetry
	log           *core.Logger
	systemManager *systems.SystemManager
	clock         *core.Clock
	lastTime      float64
	stopRequested atomic.Bool
}

// New builds the engine systems for the given game. The configuration is
// taken from the game when cfg is nil.
func New(g *Game, cfg *ApplicationConfig) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil game", core.ErrBadParam)
	}
	if cfg == nil {
		cfg = g.ApplicationConfig
	}
	if cfg == nil {
		cfg = DefaultApplicationConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g.ApplicationConfig = cfg

	log, err := core.NewLogger(core.LoggerOptions{
		Level:  cfg.LogLevel,
		Prefix: cfg.Name + " ",
	})
	if err != nil {
		return nil, err
	}
	return newEngine(g, cfg, core.NewTelemetry(log))
}

func newEngine(g *Game, cfg *ApplicationConfig, telemetry *core.Telemetry) (*Engine, error) {
	sm, err := systems.NewSystemManager(systems.SystemManagerConfig{
		JobWorkers: cfg.JobWorkers,
		Resources: systems.ResourceManagerConfig{
			DataDirectories:       cfg.DataDirectories,
			MaxResourcesPerUpdate: cfg.ResourcesPerUpdate,
			HotReload:             cfg.HotReload,
		},
	}, telemetry)
	if err != nil {
		telemetry.Log.LogError("failed to create the system manager: %s", err)
		return nil, err
	}
	g.SystemManager = sm
	g.Log = telemetry.Log

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		config:        cfg,
		telemetry:     telemetry,
		log:           telemetry.Log,
		systemManager: sm,
		clock:         core.NewClock(),
	}, nil
}

func (e *Engine) Stage() Stage { return e.currentStage }

func (e *Engine) Telemetry() *core.Telemetry { return e.telemetry }

func (e *Engine) SystemManager() *systems.SystemManager { return e.systemManager }

// Initialize boots the game, adds the configured definition files and queues
// the preload groups.
func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("%w: engine already initialized", core.ErrNotSupported)
	}
	e.currentStage = EngineStageBooting
	if e.gameInstance.FnBoot != nil {
		if err := e.gameInstance.FnBoot(); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageBootComplete

	e.currentStage = EngineStageInitializing
	rm := e.systemManager.ResourceManager()
	for _, file := range e.config.ResourceFiles {
		if err := rm.AddResources(file, true); err != nil {
			e.log.LogError("failed to add resources from %s: %s", file, err)
			return err
		}
	}
	for _, group := range e.config.PreloadGroups {
		err := rm.LoadGroup(group)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrAlreadyExists):
			e.log.LogDebug("preload group %s has nothing to load", group)
		default:
			e.log.LogError("failed to preload group %s: %s", group, err)
			return err
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Stop asks Run to return after the current tick. Safe to call from any
// goroutine.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
}

// Run ticks the game and the engine systems until the context is cancelled,
// Stop is called or the game asks to stop. The engine is shut down before Run
// returns.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("%w: engine is not initialized", core.ErrNotSupported)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	ticker := time.NewTicker(time.Second / time.Duration(e.config.UpdatesPerSecond))
	defer ticker.Stop()

	var runErr error
loop:
	for !e.stopRequested.Load() {
		select {
		case <-ctx.Done():
			e.log.LogInfo("context cancelled, shutting down")
			break loop
		case <-ticker.C:
		}

		frameStart := time.Now()
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				if !errors.Is(err, ErrStopRequested) {
					e.log.LogError("game update failed, shutting down: %s", err)
					runErr = err
				}
				break loop
			}
		}
		e.systemManager.Update(currentTime)

		e.telemetry.Frames.Update(time.Since(frameStart).Seconds())
		e.lastTime = currentTime
	}

	return errors.Join(runErr, e.Shutdown())
}

// Shutdown unloads every resource and releases the engine systems. Resources
// still busy when the shutdown timeout expires are abandoned.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown || e.currentStage == EngineStageStopped {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	e.systemManager.BeginShutdown()
	deadline := time.Now().Add(e.config.ShutdownTimeout())
	for !e.systemManager.Closed() {
		if time.Now().After(deadline) {
			e.log.LogWarn("resources still unloading after %s, giving up", e.config.ShutdownTimeout())
			break
		}
		e.clock.Update()
		e.systemManager.Update(e.clock.Elapsed())
		time.Sleep(shutdownPoll)
	}
	if err := e.systemManager.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	e.clock.Stop()

	if leaked := e.telemetry.Memory.Total(); leaked != 0 {
		e.log.LogWarn("%d bytes still tracked after shutdown", leaked)
	}
	e.log.LogInfo("engine stopped")
	e.currentStage = EngineStageStopped
	return errors.Join(errs...)
}
