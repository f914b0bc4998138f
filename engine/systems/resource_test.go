package systems

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// scripted is a resource whose behaviour is set from its declaration:
// waits/unload_waits polls before finishing, fail/unload_fail to fail.
type scripted struct {
	resources.Base
	waits       int
	unloadWaits int
	fail        bool
	unloadFail  bool
	polls       int
	journal     *[]string
}

func scriptedType(journal *[]string) resources.CreateFunc {
	return func(id resources.ID, env *resources.Env) resources.Resource {
		return &scripted{Base: resources.NewBase(id, env), journal: journal}
	}
}

func (s *scripted) Create(_ string, node *resources.Node) error {
	var err error
	if s.waits, err = node.Int("waits", 0); err != nil {
		return err
	}
	if s.unloadWaits, err = node.Int("unload_waits", 0); err != nil {
		return err
	}
	if s.fail, err = node.Bool("fail", false); err != nil {
		return err
	}
	s.unloadFail, err = node.Bool("unload_fail", false)
	return err
}

func (s *scripted) Load() error {
	return s.DriveLoad(func() error {
		s.polls++
		if s.fail {
			s.polls = 0
			return errBoom
		}
		if s.polls <= s.waits {
			return core.ErrWait
		}
		s.polls = 0
		*s.journal = append(*s.journal, "load:"+s.Name())
		return nil
	})
}

func (s *scripted) Unload() error {
	return s.DriveUnload(func() error {
		s.polls++
		if s.unloadFail {
			s.polls = 0
			return errBoom
		}
		if s.polls <= s.unloadWaits {
			return core.ErrWait
		}
		s.polls = 0
		*s.journal = append(*s.journal, "unload:"+s.Name())
		return nil
	})
}

type harness struct {
	t        *testing.T
	dir      string
	rm       *ResourceManager
	journal  []string
	events   []string
	outcomes []GroupEvent
	progress []ProgressEvent
	created  []string
	tick     float64
}

func newHarness(t *testing.T, definitions string, config ResourceManagerConfig) *harness {
	t.Helper()
	h := &harness{t: t, dir: t.TempDir()}
	config.DataDirectories = append(config.DataDirectories, h.dir)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "resources.xml"), []byte(definitions), 0o644))

	h.rm = NewResourceManager(config, core.NewNopTelemetry())
	require.NoError(t, h.rm.Construct())
	require.NoError(t, h.rm.RegisterResource("scripted", scriptedType(&h.journal)))

	record := func(kind string) func(GroupEvent) {
		return func(ev GroupEvent) {
			h.events = append(h.events, kind+":"+ev.Group.Name())
			h.outcomes = append(h.outcomes, ev)
		}
	}
	h.rm.OnGroupLoadComplete(record("load-complete"))
	h.rm.OnGroupLoadError(record("load-error"))
	h.rm.OnGroupUnloadComplete(record("unload-complete"))
	h.rm.OnGroupUnloadError(record("unload-error"))
	h.rm.OnProcessingStatusUpdated(func(ev ProgressEvent) { h.progress = append(h.progress, ev) })
	h.rm.OnGroupCreated(func(g *resources.Group) { h.created = append(h.created, g.Name()) })

	require.NoError(t, h.rm.AddResources("resources.xml", true))
	return h
}

func (h *harness) update(n int) {
	for i := 0; i < n; i++ {
		h.tick += 0.016
		h.rm.Update(h.tick)
	}
}

// drain updates until the queue is empty and returns the number of ticks.
func (h *harness) drain() int {
	h.t.Helper()
	for i := 1; i <= 1000; i++ {
		h.update(1)
		if h.rm.IsIdle() {
			return i
		}
	}
	require.FailNow(h.t, "queue never drained")
	return 0
}

func (h *harness) state(group string) resources.State {
	g := h.rm.Group(group)
	require.NotNil(h.t, g, group)
	return g.State()
}

const basicDefinitions = `<RESOURCES>
  <GROUP name="group-1">
    <scripted name="a"/>
    <scripted name="b"/>
  </GROUP>
  <GROUP name="group-2">
    <scripted name="c"/>
  </GROUP>
  <GROUP name="group-3">
    <scripted name="d"/>
  </GROUP>
</RESOURCES>`

const dependentDefinitions = `<RESOURCES>
  <GROUP name="common">
    <scripted name="shared-1"/>
    <scripted name="shared-2"/>
  </GROUP>
  <GROUP name="base" depends="common">
    <scripted name="base-1"/>
  </GROUP>
  <GROUP name="level" depends="base, common">
    <scripted name="level-1"/>
  </GROUP>
</RESOURCES>`

func TestConstructAndGroupCreated(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})
	assert.Equal(t, core.ModuleStateRunning, h.rm.State())
	assert.Equal(t, []string{"group-1", "group-2", "group-3"}, h.created)
	assert.Equal(t, []string{"group-1", "group-2", "group-3"}, h.rm.Groups())
	assert.True(t, h.rm.IsResourceRegistered("text"))
	assert.True(t, h.rm.IsResourceRegistered("scripted"))
	assert.ErrorIs(t, h.rm.Construct(), core.ErrAlreadyExists)

	// the same file again only declares existing groups
	assert.ErrorIs(t, h.rm.AddResources("resources.xml", true), core.ErrAlreadyExists)
	assert.Len(t, h.created, 3)
}

func TestLoadGroupProgressAndCompletion(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("group-1"))
	assert.Equal(t, 1, h.rm.Pending())
	assert.Equal(t, 2, h.drain())

	require.Len(t, h.progress, 2)
	for i, p := range h.progress {
		assert.True(t, p.Load)
		assert.Equal(t, i+1, p.Processed)
		assert.Equal(t, 2, p.Total)
		assert.Equal(t, "group-1", p.Group)
		assert.NoError(t, p.Err)
	}
	assert.Equal(t, "a", h.progress[0].Resource.Name)
	assert.Equal(t, []string{"load-complete:group-1"}, h.events)
	assert.Equal(t, resources.StateLoaded, h.state("group-1"))

	h.progress = nil
	require.NoError(t, h.rm.LoadGroup("group-3"))
	h.drain()
	require.Len(t, h.progress, 1)
	assert.Equal(t, 1, h.progress[0].Processed)
	assert.Equal(t, 1, h.progress[0].Total)
	assert.Equal(t, []string{"load-complete:group-1", "load-complete:group-3"}, h.events)
	assert.NotEqual(t, h.outcomes[0].Batch, h.outcomes[1].Batch)
}

func TestLoadGroupIsIdempotent(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("group-1"))
	assert.ErrorIs(t, h.rm.LoadGroup("group-1"), core.ErrAlreadyExists)
	assert.Equal(t, 1, h.rm.Pending())
	h.drain()

	assert.ErrorIs(t, h.rm.LoadGroup("group-1"), core.ErrAlreadyExists)
	assert.True(t, h.rm.IsIdle())
	h.update(3)
	assert.Equal(t, []string{"load-complete:group-1"}, h.events)
	assert.Equal(t, []string{"load:a", "load:b"}, h.journal)
}

func TestUnknownGroup(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})

	assert.ErrorIs(t, h.rm.LoadGroup("nope"), core.ErrNotFound)
	assert.ErrorIs(t, h.rm.UnloadGroup("nope"), core.ErrNotFound)
	assert.True(t, h.rm.IsIdle())
	h.update(2)
	assert.Empty(t, h.events)
	assert.Empty(t, h.progress)
}

func TestUnloadOfUnloadedGroup(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})
	assert.ErrorIs(t, h.rm.UnloadGroup("group-2"), core.ErrAlreadyExists)
	assert.True(t, h.rm.IsIdle())
}

func TestDependenciesCompleteFirst(t *testing.T) {
	h := newHarness(t, dependentDefinitions, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("level"))
	h.drain()

	assert.Equal(t, []string{"load-complete:common", "load-complete:base", "load-complete:level"}, h.events)
	assert.Equal(t, []string{"load:shared-1", "load:shared-2", "load:base-1", "load:level-1"}, h.journal)
	require.Len(t, h.progress, 4)
	for _, p := range h.progress {
		assert.Equal(t, 4, p.Total)
	}
	// one batch for the whole chain
	assert.Equal(t, h.outcomes[0].Batch, h.outcomes[2].Batch)
}

func TestLoadedDependenciesAreNotRepresented(t *testing.T) {
	h := newHarness(t, dependentDefinitions, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("common"))
	h.drain()
	require.NoError(t, h.rm.LoadGroup("level"))
	h.drain()

	assert.Equal(t, []string{"load-complete:common", "load-complete:base", "load-complete:level"}, h.events)
	assert.Equal(t, 2, h.progress[len(h.progress)-1].Total)
}

func TestUnloadDoesNotCascade(t *testing.T) {
	h := newHarness(t, dependentDefinitions, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("level"))
	h.drain()
	h.events = nil
	h.journal = nil

	require.NoError(t, h.rm.UnloadGroup("level"))
	h.drain()

	assert.Equal(t, []string{"unload-complete:level"}, h.events)
	assert.Equal(t, []string{"unload:level-1"}, h.journal)
	assert.Equal(t, resources.StateUnloaded, h.state("level"))
	assert.Equal(t, resources.StateLoaded, h.state("base"))
	assert.Equal(t, resources.StateLoaded, h.state("common"))
}

func TestMissingDependency(t *testing.T) {
	h := newHarness(t, `<RESOURCES>
  <GROUP name="orphan" depends="ghost"><scripted name="o"/></GROUP>
</RESOURCES>`, ResourceManagerConfig{})

	assert.ErrorIs(t, h.rm.LoadGroup("orphan"), core.ErrNotFound)
	assert.True(t, h.rm.IsIdle())
}

func TestReentrantLoadFromCompletion(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})
	h.rm.OnGroupLoadComplete(func(ev GroupEvent) {
		if ev.Group.Name() == "group-1" {
			assert.NoError(t, h.rm.LoadGroup("group-2"))
		}
	})

	require.NoError(t, h.rm.LoadGroup("group-1"))
	h.update(2)
	assert.Equal(t, []string{"load-complete:group-1"}, h.events)
	assert.Equal(t, 1, h.rm.Pending())
	assert.Equal(t, resources.StateUnloaded, h.state("group-2"))

	assert.LessOrEqual(t, h.drain(), 2)
	assert.Equal(t, []string{"load-complete:group-1", "load-complete:group-2"}, h.events)
}

func TestSelfUnloadFromCompletion(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})
	h.rm.OnGroupLoadComplete(func(ev GroupEvent) {
		assert.NoError(t, h.rm.UnloadGroup(ev.Group.Name()))
	})

	require.NoError(t, h.rm.LoadGroup("group-1"))
	h.drain()

	assert.Equal(t, []string{"load-complete:group-1", "unload-complete:group-1"}, h.events)
	assert.Equal(t, resources.StateUnloaded, h.state("group-1"))
}

func TestProgressIsMonotonic(t *testing.T) {
	h := newHarness(t, `<RESOURCES>
  <GROUP name="slow">
    <scripted name="s1" waits="2"/>
    <scripted name="s2"/>
    <scripted name="s3" waits="1"/>
  </GROUP>
</RESOURCES>`, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("slow"))
	h.update(2)
	assert.Empty(t, h.progress)
	assert.Equal(t, resources.StateLoading, h.state("slow"))

	h.drain()
	require.Len(t, h.progress, 3)
	for i, p := range h.progress {
		assert.Equal(t, i+1, p.Processed)
		assert.Equal(t, 3, p.Total)
	}
	assert.Equal(t, []string{"load-complete:slow"}, h.events)
}

func TestLoadThenUnloadImmediately(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("group-1"))
	require.NoError(t, h.rm.UnloadGroup("group-1"))
	assert.Equal(t, 2, h.rm.Pending())
	h.drain()

	assert.Equal(t, []string{"load-complete:group-1", "unload-complete:group-1"}, h.events)
	assert.Equal(t, []string{"load:a", "load:b", "unload:a", "unload:b"}, h.journal)
	assert.Equal(t, resources.StateUnloaded, h.state("group-1"))
}

const failingDependencyDefinitions = `<RESOURCES>
  <GROUP name="a">
    <scripted name="a1" fail="true"/>
  </GROUP>
  <GROUP name="b" depends="a">
    <scripted name="b1"/>
  </GROUP>
</RESOURCES>`

func TestQueuedLoadRetriesFailedDependency(t *testing.T) {
	h := newHarness(t, failingDependencyDefinitions, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("a"))
	require.NoError(t, h.rm.LoadGroup("b"))
	h.drain()

	// a1 is driven again by b's batch
	assert.Equal(t, []string{"load-error:a", "load-error:a", "load-complete:b"}, h.events)
	assert.Equal(t, []string{"load:b1"}, h.journal)

	a1 := h.rm.Resource("scripted", "a1", "a")
	require.NotNil(t, a1)
	attempts := 0
	for _, p := range h.progress {
		if p.Resource == a1.ID() {
			attempts++
			assert.ErrorIs(t, p.Err, errBoom)
		}
	}
	assert.Equal(t, 2, attempts)
	assert.Equal(t, resources.StateUnloaded, a1.State())
	assert.Equal(t, resources.StateLoaded, h.state("b"))
}

func TestLoadAfterFailureRetries(t *testing.T) {
	h := newHarness(t, failingDependencyDefinitions, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("a"))
	// the queued batch already covers a
	assert.ErrorIs(t, h.rm.LoadGroup("a"), core.ErrAlreadyExists)
	h.drain()

	require.NoError(t, h.rm.LoadGroup("a"))
	h.drain()
	assert.Equal(t, []string{"load-error:a", "load-error:a"}, h.events)
}

func TestLoadWhileUnloadIsWaiting(t *testing.T) {
	h := newHarness(t, `<RESOURCES>
  <GROUP name="g"><scripted name="r" unload_waits="2"/></GROUP>
</RESOURCES>`, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("g"))
	h.drain()
	require.NoError(t, h.rm.UnloadGroup("g"))
	h.update(1)
	assert.Equal(t, resources.StateUnloading, h.state("g"))

	require.NoError(t, h.rm.LoadGroup("g"))
	h.drain()
	assert.Equal(t, []string{"load-complete:g", "unload-complete:g", "load-complete:g"}, h.events)
	assert.Equal(t, resources.StateLoaded, h.state("g"))
}

func TestFailedResourceDoesNotStopGroup(t *testing.T) {
	h := newHarness(t, `<RESOURCES>
  <GROUP name="mixed">
    <scripted name="ok-1"/>
    <scripted name="bad" fail="true"/>
    <scripted name="ok-2"/>
  </GROUP>
</RESOURCES>`, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("mixed"))
	h.drain()

	require.Len(t, h.progress, 3)
	assert.NoError(t, h.progress[0].Err)
	assert.ErrorIs(t, h.progress[1].Err, errBoom)
	assert.Equal(t, 3, h.progress[2].Processed)

	assert.Equal(t, []string{"load-error:mixed"}, h.events)
	assert.ErrorIs(t, h.outcomes[0].Err, errBoom)
	assert.ErrorContains(t, h.outcomes[0].Err, "bad")
	assert.Equal(t, []string{"load:ok-1", "load:ok-2"}, h.journal)

	bad := h.rm.Resource("scripted", "bad", "mixed")
	require.NotNil(t, bad)
	assert.Equal(t, resources.StateUnloaded, bad.State())
	assert.Equal(t, resources.StateLoading, h.state("mixed"))
}

func TestMaxResourcesPerUpdate(t *testing.T) {
	h := newHarness(t, dependentDefinitions, ResourceManagerConfig{MaxResourcesPerUpdate: 3})

	require.NoError(t, h.rm.LoadGroup("level"))
	assert.Equal(t, 2, h.drain())
	assert.Len(t, h.progress, 4)
}

func TestSuspendAndResume(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})

	require.NoError(t, h.rm.Suspend())
	assert.Equal(t, core.ModuleStateSuspended, h.rm.State())
	assert.ErrorIs(t, h.rm.Suspend(), core.ErrNotSupported)

	require.NoError(t, h.rm.LoadGroup("group-3"))
	h.update(5)
	assert.Empty(t, h.progress)
	assert.Equal(t, 1, h.rm.Pending())

	require.NoError(t, h.rm.Resume())
	assert.ErrorIs(t, h.rm.Resume(), core.ErrNotSupported)
	h.drain()
	assert.Equal(t, []string{"load-complete:group-3"}, h.events)
}

func TestUnsubscribe(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})
	calls := 0
	handle := h.rm.OnGroupLoadComplete(func(GroupEvent) { calls++ })

	require.NoError(t, h.rm.LoadGroup("group-2"))
	h.drain()
	assert.Equal(t, 1, calls)

	assert.True(t, h.rm.Unsubscribe(handle))
	assert.False(t, h.rm.Unsubscribe(handle))
	require.NoError(t, h.rm.LoadGroup("group-3"))
	h.drain()
	assert.Equal(t, 1, calls)
}

func TestShutdownUnloadsEverything(t *testing.T) {
	h := newHarness(t, `<RESOURCES>
  <GROUP name="g">
    <scripted name="quick"/>
    <scripted name="slow" unload_waits="2"/>
    <scripted name="broken" unload_fail="true"/>
  </GROUP>
  <GROUP name="other"><scripted name="never"/></GROUP>
</RESOURCES>`, ResourceManagerConfig{})

	require.NoError(t, h.rm.LoadGroup("g"))
	h.drain()
	require.NoError(t, h.rm.LoadGroup("other"))
	slow := h.rm.Resource("scripted", "slow", "")
	require.NotNil(t, slow)

	h.rm.OnShutdown()
	assert.Equal(t, core.ModuleStateShuttingDown, h.rm.State())
	assert.True(t, h.rm.IsIdle())
	assert.ErrorIs(t, h.rm.LoadGroup("g"), core.ErrNotSupported)

	for i := 0; i < 10 && h.rm.State() != core.ModuleStateClosed; i++ {
		h.update(1)
	}
	assert.Equal(t, core.ModuleStateClosed, h.rm.State())
	assert.Equal(t, resources.StateUnloaded, slow.State())
	assert.Contains(t, h.journal, "unload:quick")
	assert.Contains(t, h.journal, "unload:slow")
	assert.NotContains(t, h.journal, "load:never")
	assert.Empty(t, h.rm.Groups())
	assert.Equal(t, []string{"load-complete:g"}, h.events)

	// idempotent
	h.rm.OnShutdown()
	assert.Equal(t, core.ModuleStateClosed, h.rm.State())
}

func TestShutdownFromListener(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{})
	h.rm.OnProcessingStatusUpdated(func(ev ProgressEvent) {
		if ev.Processed == 1 {
			h.rm.OnShutdown()
		}
	})

	require.NoError(t, h.rm.LoadGroup("group-1"))
	h.update(1)
	assert.Equal(t, core.ModuleStateClosed, h.rm.State())
	assert.Empty(t, h.events)
	assert.Equal(t, []string{"load:a", "unload:a"}, h.journal)
}

func TestShutdownFromCompletionStopsNotifications(t *testing.T) {
	h := newHarness(t, dependentDefinitions, ResourceManagerConfig{MaxResourcesPerUpdate: 4})
	h.rm.OnGroupLoadComplete(func(ev GroupEvent) {
		if ev.Group.Name() == "common" {
			h.rm.OnShutdown()
		}
	})

	require.NoError(t, h.rm.LoadGroup("level"))
	h.update(1)
	assert.Equal(t, core.ModuleStateClosed, h.rm.State())
	assert.Equal(t, []string{"load-complete:common"}, h.events)
}

func TestOperationsBeforeConstruct(t *testing.T) {
	rm := NewResourceManager(ResourceManagerConfig{}, nil)
	assert.Equal(t, core.ModuleStateInvalid, rm.State())
	assert.ErrorIs(t, rm.LoadGroup("x"), core.ErrNotSupported)
	assert.ErrorIs(t, rm.AddResources("x.xml", true), core.ErrNotSupported)
	assert.ErrorIs(t, rm.AddDataDirectory(t.TempDir()), core.ErrNotSupported)
	assert.ErrorIs(t, rm.RemoveDataDirectory(t.TempDir()), core.ErrNotSupported)
	rm.Update(0)
	rm.OnShutdown()
	assert.Equal(t, core.ModuleStateClosed, rm.State())
}

func TestConstructFailsOnMissingDirectory(t *testing.T) {
	rm := NewResourceManager(ResourceManagerConfig{
		DataDirectories: []string{filepath.Join(t.TempDir(), "missing")},
	}, nil)
	assert.ErrorIs(t, rm.Construct(), core.ErrNotFound)
	assert.Equal(t, core.ModuleStateInvalid, rm.State())
}

func TestBuiltinTypesThroughManager(t *testing.T) {
	h := newHarness(t, `<RESOURCES>
  <GROUP name="materials">
    <material name="plain" path="plain.amt"/>
  </GROUP>
  <GROUP name="hud" depends="materials">
    <text name="intro" path="intro.txt"/>
    <curve name="fade" points="0,1 1,0"/>
    <sprite_animation name="blink" material="plain" frames="2" fps="4"/>
    <particle_emitter name="dust" material="plain" curve="fade" rate="5"/>
  </GROUP>
</RESOURCES>`, ResourceManagerConfig{})
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "intro.txt"), []byte("welcome"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "plain.amt"), []byte("shader = basic\n"), 0o644))

	require.NoError(t, h.rm.LoadGroup("hud"))
	h.drain()
	assert.Equal(t, []string{"load-complete:materials", "load-complete:hud"}, h.events)

	txt := h.rm.TextResource("intro", "")
	require.NotNil(t, txt)
	assert.Equal(t, "welcome", txt.Content())
	assert.Nil(t, h.rm.MaterialResource("intro", ""))
	require.NotNil(t, h.rm.MaterialResource("plain", "materials"))
	assert.Nil(t, h.rm.MaterialResource("plain", "hud"))
	require.NotNil(t, h.rm.CurveResource("fade", ""))
	require.NotNil(t, h.rm.SpriteAnimationResource("blink", "hud").CreateInstance())
	require.NotNil(t, h.rm.ParticleEmitterResource("dust", "hud").Curve())
	assert.Nil(t, h.rm.SoundResource("intro", ""))
}

func TestHotReloadPicksUpNewDefinitions(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{HotReload: true})
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "late.xml"),
		[]byte(`<RESOURCES><GROUP name="late"><scripted name="l"/></GROUP></RESOURCES>`), 0o644))

	require.Eventually(t, func() bool {
		h.update(1)
		return h.rm.Group("late") != nil
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, h.created, "late")

	h.rm.OnShutdown()
	h.update(1)
	assert.Equal(t, core.ModuleStateClosed, h.rm.State())
}

func TestRemoveDataDirectory(t *testing.T) {
	h := newHarness(t, basicDefinitions, ResourceManagerConfig{HotReload: true})
	extra := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(extra, "extra.xml"),
		[]byte(`<RESOURCES><GROUP name="extra"><scripted name="e"/></GROUP></RESOURCES>`), 0o644))

	require.NoError(t, h.rm.AddDataDirectory(extra))
	require.NoError(t, h.rm.RemoveDataDirectory(extra))
	assert.ErrorIs(t, h.rm.AddResources("extra.xml", true), core.ErrNotFound)
	assert.ErrorIs(t, h.rm.RemoveDataDirectory(extra), core.ErrNotFound)

	// loaded definitions stay usable
	require.NoError(t, h.rm.LoadGroup("group-1"))
	h.drain()
	assert.Equal(t, resources.StateLoaded, h.state("group-1"))

	h.rm.OnShutdown()
	h.update(1)
	assert.Equal(t, core.ModuleStateClosed, h.rm.State())
}
