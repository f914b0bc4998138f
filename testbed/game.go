package testbed

import (
	"fmt"

	"github.com/spaghettifunk/marmot/engine"
	"github.com/spaghettifunk/marmot/engine/assets"
	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
	"github.com/spaghettifunk/marmot/engine/systems"
)

const (
	groupMenu   = "menu"
	groupLevel1 = "level-1"
	groupLevel2 = "level-2"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	handles []core.Handle
	emitter *assets.ParticleEmitterInstance
	sprite  *assets.SpriteAnimationInstance
	elapsed float64
	done    bool
	err     error
}

// NewTestGame walks through a few groups: the menu is preloaded, level-1 is
// loaded on top of it and dropped again, then level-2 is loaded and the game
// stops.
func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}

	tg.FnBoot = tg.Boot
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Boot() error {
	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}
	g.Log.LogInfo("booting testbed...")

	rm := g.SystemManager.ResourceManager()
	s := g.state()
	s.handles = append(s.handles,
		rm.OnGroupCreated(func(grp *resources.Group) {
			g.Log.LogDebug("group %s declared in %s", grp.Name(), grp.Source())
		}),
		rm.OnProcessingStatusUpdated(func(ev systems.ProgressEvent) {
			g.Log.LogDebug("%s %d/%d", ev.Resource, ev.Processed, ev.Total)
		}),
		rm.OnGroupLoadComplete(g.onLoaded),
		rm.OnGroupUnloadComplete(g.onUnloaded),
		rm.OnGroupLoadError(g.onError),
		rm.OnGroupUnloadError(g.onError),
	)
	return nil
}

func (g *TestGame) Initialize() error {
	g.Log.LogDebug("TestGame Initialize fn....")
	return nil
}

func (g *TestGame) onLoaded(ev systems.GroupEvent) {
	rm := g.SystemManager.ResourceManager()
	s := g.state()

	switch ev.Group.Name() {
	case groupMenu:
		if title := rm.TextResource("title", groupMenu); title != nil {
			g.Log.LogInfo("menu ready: %s", title.Content())
		}
		if frame := rm.WidgetResource("frame", groupMenu); frame != nil {
			g.Log.LogDebug("menu frame has %d elements", frame.ElementCount())
		}
		if err := rm.LoadGroup(groupLevel1); err != nil {
			g.fail(err)
		}
	case groupLevel1:
		if em := rm.ParticleEmitterResource("sparks", groupLevel1); em != nil {
			s.emitter = em.CreateInstance()
		}
		if sp := rm.SpriteAnimationResource("hero", groupLevel1); sp != nil {
			s.sprite = sp.CreateInstance()
		}
	case groupLevel2:
		if intro := rm.TextResource("intro", groupLevel2); intro != nil {
			g.Log.LogInfo("level-2 ready: %s", intro.Content())
		}
		s.done = true
	}
}

func (g *TestGame) onUnloaded(ev systems.GroupEvent) {
	if ev.Group.Name() != groupLevel1 {
		return
	}
	s := g.state()
	s.emitter = nil
	s.sprite = nil
	if err := g.SystemManager.ResourceManager().LoadGroup(groupLevel2); err != nil {
		g.fail(err)
	}
}

func (g *TestGame) onError(ev systems.GroupEvent) {
	g.Log.LogError("group %s failed: %s", ev.Group.Name(), ev.Err)
	g.fail(ev.Err)
}

func (g *TestGame) fail(err error) {
	s := g.state()
	if s.err == nil {
		s.err = err
	}
	s.done = true
}

func (g *TestGame) Update(deltaTime float64) error {
	s := g.state()
	if s.done {
		if s.err != nil {
			return s.err
		}
		return engine.ErrStopRequested
	}

	if s.emitter == nil {
		return nil
	}
	s.elapsed += deltaTime
	s.emitter.Step(float32(deltaTime))
	if s.sprite != nil {
		s.sprite.Advance(float32(deltaTime))
	}
	// run level-1 for a second, then drop it
	if s.elapsed >= 1 {
		g.Log.LogInfo("level-1 done with %d live particles", len(s.emitter.Particles))
		s.emitter = nil
		if err := g.SystemManager.ResourceManager().UnloadGroup(groupLevel1); err != nil {
			g.fail(err)
		}
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	rm := g.SystemManager.ResourceManager()
	for _, h := range g.state().handles {
		rm.Unsubscribe(h)
	}
	g.Log.LogInfo("testbed shut down")
	return nil
}
