package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/systems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeData(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testConfig(t *testing.T) *ApplicationConfig {
	t.Helper()
	dir := t.TempDir()
	writeData(t, dir, "resources.xml", `<RESOURCES>
  <GROUP name="boot">
    <text name="title" path="title.txt"/>
  </GROUP>
  <GROUP name="level" depends="boot">
    <text name="intro" path="intro.txt"/>
    <curve name="fade" points="0,1 1,0"/>
  </GROUP>
</RESOURCES>`)
	writeData(t, dir, "title.txt", "Marmot")
	writeData(t, dir, "intro.txt", "Once upon a time")

	cfg := DefaultApplicationConfig()
	cfg.DataDirectories = []string{dir}
	cfg.ResourceFiles = []string{"resources.xml"}
	cfg.PreloadGroups = []string{"boot"}
	cfg.UpdatesPerSecond = 1000
	cfg.JobWorkers = 1
	cfg.ShutdownTimeoutMS = 1000
	return cfg
}

func newTestEngine(t *testing.T, g *Game, cfg *ApplicationConfig) *Engine {
	t.Helper()
	e, err := newEngine(g, cfg, core.NewNopTelemetry())
	require.NoError(t, err)
	return e
}

func TestEngineRunsGroupsAndShutsDown(t *testing.T) {
	var loaded []string
	g := &Game{}
	g.FnInitialize = func() error {
		rm := g.SystemManager.ResourceManager()
		rm.OnGroupLoadComplete(func(ev systems.GroupEvent) {
			loaded = append(loaded, ev.Group.Name())
			if ev.Group.Name() == "boot" {
				require.NoError(t, rm.LoadGroup("level"))
			}
		})
		return nil
	}
	g.FnUpdate = func(float64) error {
		if len(loaded) == 2 {
			return ErrStopRequested
		}
		return nil
	}
	shutdownCalled := false
	g.FnShutdown = func() error {
		shutdownCalled = true
		return nil
	}

	e := newTestEngine(t, g, testConfig(t))
	require.NoError(t, e.Initialize())
	assert.Equal(t, EngineStageInitialized, e.Stage())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, e.Run(ctx))

	assert.Equal(t, []string{"boot", "level"}, loaded)
	assert.True(t, shutdownCalled)
	assert.Equal(t, EngineStageStopped, e.Stage())
	assert.Equal(t, core.ModuleStateClosed, g.SystemManager.ResourceManager().State())
	assert.Zero(t, e.Telemetry().Memory.Total())
	assert.Positive(t, e.Telemetry().Frames.Frames)
}

func TestEngineStopsOnContextCancel(t *testing.T) {
	e := newTestEngine(t, &Game{}, testConfig(t))
	require.NoError(t, e.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, EngineStageStopped, e.Stage())
	require.NoError(t, e.Shutdown())
}

func TestEngineStopFromAnotherGoroutine(t *testing.T) {
	e := newTestEngine(t, &Game{}, testConfig(t))
	require.NoError(t, e.Initialize())

	go func() {
		time.Sleep(20 * time.Millisecond)
		e.Stop()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, EngineStageStopped, e.Stage())
}

func TestEngineGameUpdateErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	g := &Game{FnUpdate: func(float64) error { return boom }}
	e := newTestEngine(t, g, testConfig(t))
	require.NoError(t, e.Initialize())

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, EngineStageStopped, e.Stage())
}

func TestEngineInitializeErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.PreloadGroups = []string{"missing"}
	e := newTestEngine(t, &Game{}, cfg)
	assert.ErrorIs(t, e.Initialize(), core.ErrNotFound)
	require.NoError(t, e.Shutdown())

	cfg = testConfig(t)
	cfg.ResourceFiles = []string{"nope.xml"}
	e = newTestEngine(t, &Game{}, cfg)
	assert.Error(t, e.Initialize())
	require.NoError(t, e.Shutdown())

	boom := errors.New("boot failed")
	e = newTestEngine(t, &Game{FnBoot: func() error { return boom }}, testConfig(t))
	assert.ErrorIs(t, e.Initialize(), boom)
	require.NoError(t, e.Shutdown())
}

func TestEngineRunRequiresInitialize(t *testing.T) {
	e := newTestEngine(t, &Game{}, testConfig(t))
	assert.ErrorIs(t, e.Run(context.Background()), core.ErrNotSupported)
	require.NoError(t, e.Shutdown())

	e = newTestEngine(t, &Game{}, testConfig(t))
	require.NoError(t, e.Initialize())
	assert.ErrorIs(t, e.Initialize(), core.ErrNotSupported)
	require.NoError(t, e.Shutdown())
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, core.ErrBadParam)

	cfg := DefaultApplicationConfig()
	cfg.ResourcesPerUpdate = 0
	_, err = New(&Game{}, cfg)
	assert.ErrorIs(t, err, core.ErrBadParam)

	cfg = DefaultApplicationConfig()
	cfg.LogLevel = "loud"
	_, err = New(&Game{}, cfg)
	assert.Error(t, err)
}
