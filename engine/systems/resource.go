package systems

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/marmot/engine/assets"
	"github.com/spaghettifunk/marmot/engine/containers"
	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
	"github.com/spaghettifunk/marmot/engine/resources/loaders"
)

/** @brief The configuration for the resource manager */
type ResourceManagerConfig struct {
	/** @brief Directories searched for definition files and payloads, in order. */
	DataDirectories []string
	/** @brief How many resources of the front batch one Update may drive. Defaults to 1. */
	MaxResourcesPerUpdate int
	/** @brief Watch the data directories and pick up new definition files. */
	HotReload bool
	/** @brief Optional worker pool for resource types that decode in the background. */
	Jobs core.JobSubmitter
}

/** @brief Outcome of one group within a processing batch. */
type GroupEvent struct {
	Group *resources.Group
	Batch uuid.UUID
	Load  bool
	// Err joins the failures of the group's resources, nil on success.
	Err error
}

/** @brief Emitted every time a batch has driven one more resource. */
type ProgressEvent struct {
	Batch     uuid.UUID
	Load      bool
	Group     string
	Resource  resources.ID
	Processed int
	Total     int
	Err       error
}

// ResourceManager owns every declared group and resource and loads or
// unloads them group by group. Requests are queued as batches and advanced
// only from Update, one batch at a time, so the manager must be driven from a
// single goroutine.
type ResourceManager struct {
	config    ResourceManagerConfig
	telemetry *core.Telemetry
	log       *core.Logger
	state     core.ModuleState

	registry *resources.Registry
	pool     *resources.Pool
	files    *assets.FileSystem
	env      *resources.Env
	loader   *loaders.ResourceLoader
	watcher  *assets.Watcher
	queue    *containers.RingQueue[*processingBatch]
	// resources that failed to unload during shutdown are not retried
	abandoned map[resources.Handle]bool

	subscriptions  *core.Subscriptions
	groupCreated   *core.Signal[*resources.Group]
	loadComplete   *core.Signal[GroupEvent]
	loadError      *core.Signal[GroupEvent]
	unloadComplete *core.Signal[GroupEvent]
	unloadError    *core.Signal[GroupEvent]
	progress       *core.Signal[ProgressEvent]
}

func NewResourceManager(config ResourceManagerConfig, telemetry *core.Telemetry) *ResourceManager {
	if telemetry == nil {
		telemetry = core.NewNopTelemetry()
	}
	if config.MaxResourcesPerUpdate < 1 {
		config.MaxResourcesPerUpdate = 1
	}
	subs := core.NewSubscriptions()
	return &ResourceManager{
		config:         config,
		telemetry:      telemetry,
		log:            telemetry.Log.With("system", "resources"),
		state:          core.ModuleStateInvalid,
		registry:       resources.NewRegistry(),
		pool:           resources.NewPool(),
		queue:          containers.NewRingQueue[*processingBatch](8),
		abandoned:      make(map[resources.Handle]bool),
		subscriptions:  subs,
		groupCreated:   core.NewSignal[*resources.Group](subs),
		loadComplete:   core.NewSignal[GroupEvent](subs),
		loadError:      core.NewSignal[GroupEvent](subs),
		unloadComplete: core.NewSignal[GroupEvent](subs),
		unloadError:    core.NewSignal[GroupEvent](subs),
		progress:       core.NewSignal[ProgressEvent](subs),
	}
}

/**
 * @brief Registers the built-in resource types and the configured data
 * directories. The manager is Running afterwards.
 */
func (rm *ResourceManager) Construct() error {
	if rm.state != core.ModuleStateInvalid {
		return fmt.Errorf("%w: resource manager is %s", core.ErrAlreadyExists, rm.state)
	}
	if err := assets.RegisterBuiltins(rm.registry); err != nil {
		return err
	}
	files, err := assets.NewFileSystem()
	if err != nil {
		return err
	}
	rm.files = files
	rm.env = &resources.Env{
		Lookup:    rm,
		Files:     files,
		Jobs:      rm.config.Jobs,
		Telemetry: rm.telemetry,
	}
	rm.loader = loaders.NewResourceLoader(rm.registry, rm.env, rm.onGroupParsed)

	if rm.config.HotReload {
		w, err := assets.NewWatcher(rm.log.With("component", "watcher"))
		if err != nil {
			return err
		}
		rm.watcher = w
	}
	for _, dir := range rm.config.DataDirectories {
		if err := rm.AddDataDirectory(dir); err != nil {
			rm.closeWatcher()
			return err
		}
	}
	rm.state = core.ModuleStateRunning
	rm.log.LogInfo("Resource manager constructed with %d resource types.", len(rm.registry.Types()))
	return nil
}

func (rm *ResourceManager) State() core.ModuleState { return rm.state }

// AddDataDirectory appends a directory to the search path used for
// definition files and payloads.
func (rm *ResourceManager) AddDataDirectory(path string) error {
	if rm.files == nil {
		return fmt.Errorf("%w: resource manager not constructed", core.ErrNotSupported)
	}
	if err := rm.files.AddDirectory(path); err != nil {
		return err
	}
	if rm.watcher != nil {
		if err := rm.watcher.AddRecursive(path); err != nil {
			rm.log.LogWarn("Could not watch data directory '%s': %s", path, err)
		}
	}
	rm.log.LogDebug("Data directory '%s' added.", path)
	return nil
}

// RemoveDataDirectory drops a directory from the search path and stops
// watching it. Resources already loaded from it are left alone.
func (rm *ResourceManager) RemoveDataDirectory(path string) error {
	if rm.files == nil {
		return fmt.Errorf("%w: resource manager not constructed", core.ErrNotSupported)
	}
	if err := rm.files.RemoveDirectory(path); err != nil {
		return err
	}
	if rm.watcher != nil {
		if err := rm.watcher.RemoveRecursive(path); err != nil {
			rm.log.LogWarn("Could not stop watching data directory '%s': %s", path, err)
		}
	}
	rm.log.LogDebug("Data directory '%s' removed.", path)
	return nil
}

// AddResources parses a definition file and registers the groups it
// declares. See loaders.ResourceLoader.AddResources for the error contract.
func (rm *ResourceManager) AddResources(path string, autoDetect bool) error {
	if err := rm.acceptsRequests(); err != nil {
		return err
	}
	return rm.loader.AddResources(path, autoDetect)
}

func (rm *ResourceManager) onGroupParsed(decl *resources.GroupDecl) error {
	g, err := rm.pool.AddGroup(decl)
	if err != nil {
		return err
	}
	rm.log.LogDebug("Group '%s' created with %d resources.", g.Name(), g.Len())
	rm.groupCreated.Fire(g)
	return nil
}

func (rm *ResourceManager) RegisterResource(typeName string, fn resources.CreateFunc) error {
	return rm.registry.Register(typeName, fn)
}

func (rm *ResourceManager) IsResourceRegistered(typeName string) bool {
	return rm.registry.IsRegistered(typeName)
}

// Group returns nil when no group has that name.
func (rm *ResourceManager) Group(name string) *resources.Group {
	return rm.pool.Group(name)
}

// Groups returns the group names in registration order.
func (rm *ResourceManager) Groups() []string {
	groups := rm.pool.Groups()
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name()
	}
	return names
}

// Resource finds a resource by type and name. An empty groupName searches
// every group. Returns nil when nothing matches.
func (rm *ResourceManager) Resource(typeName, name, groupName string) resources.Resource {
	h, ok := rm.pool.Find(typeName, name, groupName)
	if !ok {
		return nil
	}
	return rm.pool.Resource(h)
}

func lookup[T resources.Resource](rm *ResourceManager, typeName, name, groupName string) T {
	var zero T
	if r, ok := rm.Resource(typeName, name, groupName).(T); ok {
		return r
	}
	return zero
}

func (rm *ResourceManager) TextResource(name, groupName string) *assets.Text {
	return lookup[*assets.Text](rm, assets.TypeText, name, groupName)
}

func (rm *ResourceManager) MaterialResource(name, groupName string) *assets.Material {
	return lookup[*assets.Material](rm, assets.TypeMaterial, name, groupName)
}

func (rm *ResourceManager) SoundResource(name, groupName string) *assets.Sound {
	return lookup[*assets.Sound](rm, assets.TypeSound, name, groupName)
}

func (rm *ResourceManager) FontResource(name, groupName string) *assets.Font {
	return lookup[*assets.Font](rm, assets.TypeFont, name, groupName)
}

func (rm *ResourceManager) CurveResource(name, groupName string) *assets.Curve {
	return lookup[*assets.Curve](rm, assets.TypeCurve, name, groupName)
}

func (rm *ResourceManager) SpriteAnimationResource(name, groupName string) *assets.SpriteAnimation {
	return lookup[*assets.SpriteAnimation](rm, assets.TypeSpriteAnimation, name, groupName)
}

func (rm *ResourceManager) ParticleEmitterResource(name, groupName string) *assets.ParticleEmitter {
	return lookup[*assets.ParticleEmitter](rm, assets.TypeParticleEmitter, name, groupName)
}

func (rm *ResourceManager) ImagedAnimationResource(name, groupName string) *assets.ImagedAnimation {
	return lookup[*assets.ImagedAnimation](rm, assets.TypeImagedAnimation, name, groupName)
}

func (rm *ResourceManager) WidgetResource(name, groupName string) *assets.Widget {
	return lookup[*assets.Widget](rm, assets.TypeWidget, name, groupName)
}

// LoadGroup queues loading name and every group it depends on. It returns
// core.ErrNotFound for an unknown group and core.ErrAlreadyExists when
// nothing would change once the queue has drained.
func (rm *ResourceManager) LoadGroup(name string) error {
	return rm.enqueue(name, true)
}

// UnloadGroup queues unloading name. Its dependencies are left alone.
func (rm *ResourceManager) UnloadGroup(name string) error {
	return rm.enqueue(name, false)
}

func (rm *ResourceManager) enqueue(name string, load bool) error {
	if err := rm.acceptsRequests(); err != nil {
		return err
	}
	var groups []*resources.Group
	if load {
		resolved, err := resolveGroups(rm.pool, name)
		if err != nil {
			return err
		}
		groups = resolved
	} else {
		g := rm.pool.Group(name)
		if g == nil {
			return fmt.Errorf("%w: group '%s'", core.ErrNotFound, name)
		}
		groups = []*resources.Group{g}
	}

	b := buildBatch(rm.pool, groups, load, projectStates(rm.queue))
	if len(b.items) == 0 {
		return fmt.Errorf("%w: group '%s' needs no %s", core.ErrAlreadyExists, name, b.direction())
	}
	rm.queue.Enqueue(b)
	rm.log.LogDebug("Queued %s of group '%s' (%d resources, %d groups), batch %s.", b.direction(), name, len(b.items), len(b.groups), b.id)
	return nil
}

func (rm *ResourceManager) acceptsRequests() error {
	switch rm.state {
	case core.ModuleStateRunning, core.ModuleStateSuspended:
		return nil
	default:
		return fmt.Errorf("%w: resource manager is %s", core.ErrNotSupported, rm.state)
	}
}

// Pending returns the number of queued batches, the running one included.
func (rm *ResourceManager) Pending() int { return rm.queue.Len() }

func (rm *ResourceManager) IsIdle() bool { return rm.queue.IsEmpty() }

// Suspend stops Update from advancing the queue. Requests are still accepted.
func (rm *ResourceManager) Suspend() error {
	if rm.state != core.ModuleStateRunning {
		return fmt.Errorf("%w: cannot suspend a %s resource manager", core.ErrNotSupported, rm.state)
	}
	rm.state = core.ModuleStateSuspended
	return nil
}

func (rm *ResourceManager) Resume() error {
	if rm.state != core.ModuleStateSuspended {
		return fmt.Errorf("%w: cannot resume a %s resource manager", core.ErrNotSupported, rm.state)
	}
	rm.state = core.ModuleStateRunning
	return nil
}

// Update advances the front batch by up to MaxResourcesPerUpdate resources.
// Completion notifications fire from here, after the finished batch has left
// the queue; batches queued by listeners start on a later Update.
func (rm *ResourceManager) Update(time float64) {
	switch rm.state {
	case core.ModuleStateRunning:
	case core.ModuleStateShuttingDown:
		rm.pollShutdown()
		return
	default:
		return
	}

	rm.drainWatcher()

	b, err := rm.queue.Peek()
	if err != nil {
		return
	}
	if !b.started {
		// replan against the states earlier batches actually left
		b.plan(rm.pool, nil)
		b.started = true
		b.startTime = time
		rm.log.LogDebug("Starting %s of group '%s' (%d resources), batch %s.", b.direction(), b.target, len(b.items), b.id)
	}

	for n := 0; n < rm.config.MaxResourcesPerUpdate && !b.complete(); n++ {
		if !rm.step(b) {
			return
		}
		// a listener may have shut the manager down
		if rm.state != core.ModuleStateRunning {
			return
		}
	}
	if !b.complete() {
		return
	}

	if _, err := rm.queue.Dequeue(); err != nil {
		return
	}
	rm.log.LogDebug("Finished %s of group '%s' in %.3fs, batch %s.", b.direction(), b.target, time-b.startTime, b.id)
	rm.finish(b)
}

// step drives the resource at b.next. It returns false when the resource asked
// to be polled again.
func (rm *ResourceManager) step(b *processingBatch) bool {
	item := b.items[b.next]
	res := rm.pool.Resource(item.handle)

	var err error
	if b.load {
		err = res.Load()
	} else {
		err = res.Unload()
	}
	if core.IsWait(err) {
		return false
	}
	if errors.Is(err, core.ErrAlreadyExists) {
		err = nil
	}
	if err != nil {
		bg := b.groups[item.group]
		bg.failures = append(bg.failures, fmt.Errorf("%s: %w", res.ID(), err))
		rm.log.LogWarn("Failed to %s %s: %s", b.direction(), res.ID(), err)
	}

	b.next++
	rm.progress.Fire(ProgressEvent{
		Batch:     b.id,
		Load:      b.load,
		Group:     res.GroupName(),
		Resource:  res.ID(),
		Processed: b.next,
		Total:     len(b.items),
		Err:       err,
	})
	return true
}

func (rm *ResourceManager) finish(b *processingBatch) {
	for _, bg := range b.groups {
		if rm.shutDown() {
			return
		}
		ev := GroupEvent{
			Group: bg.group,
			Batch: b.id,
			Load:  b.load,
			Err:   errors.Join(bg.failures...),
		}
		switch {
		case b.load && ev.Err == nil:
			rm.loadComplete.Fire(ev)
		case b.load:
			rm.log.LogError("Group '%s' loaded with errors: %s", bg.group.Name(), ev.Err)
			rm.loadError.Fire(ev)
		case ev.Err == nil:
			rm.unloadComplete.Fire(ev)
		default:
			rm.log.LogError("Group '%s' unloaded with errors: %s", bg.group.Name(), ev.Err)
			rm.unloadError.Fire(ev)
		}
	}
}

// shutDown reports whether OnShutdown has been called, possibly by a listener.
func (rm *ResourceManager) shutDown() bool {
	return rm.state == core.ModuleStateShuttingDown || rm.state == core.ModuleStateClosed
}

func (rm *ResourceManager) drainWatcher() {
	if rm.watcher == nil {
		return
	}
	for _, path := range rm.watcher.Drain() {
		err := rm.AddResources(path, true)
		switch {
		case err == nil:
			rm.log.LogInfo("Picked up resource definitions from '%s'.", path)
		case errors.Is(err, core.ErrAlreadyExists):
			rm.log.LogDebug("'%s' declares groups that already exist: %s", path, err)
		default:
			rm.log.LogWarn("Could not add resource definitions from '%s': %s", path, err)
		}
	}
}

// OnShutdown drops every queued batch and starts unloading all resources.
// The manager is Closed once everything is unloaded, which can take several
// Update calls.
func (rm *ResourceManager) OnShutdown() {
	switch rm.state {
	case core.ModuleStateShuttingDown, core.ModuleStateClosed:
		return
	case core.ModuleStateInvalid:
		rm.state = core.ModuleStateClosed
		return
	}
	rm.state = core.ModuleStateShuttingDown
	if n := rm.queue.Len(); n > 0 {
		rm.log.LogWarn("Shutting down with %d pending batches, dropping them.", n)
		rm.queue.Clear()
	}
	rm.closeWatcher()
	rm.pollShutdown()
}

func (rm *ResourceManager) pollShutdown() {
	if err := rm.UnloadAll(); err != nil {
		return
	}
	rm.pool.Clear()
	rm.abandoned = make(map[resources.Handle]bool)
	rm.state = core.ModuleStateClosed
	rm.log.LogInfo("Resource manager closed.")
}

// UnloadAll unloads every resource right away, bypassing the queue, latest
// declared first. It returns core.ErrWait while some resource still needs to
// be polled. Resources failing to unload are logged and not retried.
func (rm *ResourceManager) UnloadAll() error {
	waiting := false
	for h := resources.Handle(rm.pool.Len() - 1); h >= 0; h-- {
		res := rm.pool.Resource(h)
		if res == nil || rm.abandoned[h] || res.State() == resources.StateUnloaded {
			continue
		}
		err := res.Unload()
		switch {
		case err == nil, errors.Is(err, core.ErrAlreadyExists):
		case core.IsWait(err):
			waiting = true
		default:
			rm.abandoned[h] = true
			rm.log.LogError("Failed to unload %s: %s", res.ID(), err)
		}
	}
	if waiting {
		return core.ErrWait
	}
	return nil
}

func (rm *ResourceManager) closeWatcher() {
	if rm.watcher == nil {
		return
	}
	if err := rm.watcher.Close(); err != nil {
		rm.log.LogWarn("Closing the data directory watcher: %s", err)
	}
	rm.watcher = nil
}

// OnGroupCreated is called once for every group a definition file declares.
func (rm *ResourceManager) OnGroupCreated(fn func(*resources.Group)) core.Handle {
	return rm.groupCreated.Subscribe(fn)
}

func (rm *ResourceManager) OnGroupLoadComplete(fn func(GroupEvent)) core.Handle {
	return rm.loadComplete.Subscribe(fn)
}

// OnGroupLoadError is called instead of OnGroupLoadComplete when at least one
// resource of the group failed.
func (rm *ResourceManager) OnGroupLoadError(fn func(GroupEvent)) core.Handle {
	return rm.loadError.Subscribe(fn)
}

func (rm *ResourceManager) OnGroupUnloadComplete(fn func(GroupEvent)) core.Handle {
	return rm.unloadComplete.Subscribe(fn)
}

func (rm *ResourceManager) OnGroupUnloadError(fn func(GroupEvent)) core.Handle {
	return rm.unloadError.Subscribe(fn)
}

func (rm *ResourceManager) OnProcessingStatusUpdated(fn func(ProgressEvent)) core.Handle {
	return rm.progress.Subscribe(fn)
}

// Unsubscribe removes a listener registered with any of the On* methods.
func (rm *ResourceManager) Unsubscribe(h core.Handle) bool {
	return rm.groupCreated.Unsubscribe(h) ||
		rm.loadComplete.Unsubscribe(h) ||
		rm.loadError.Unsubscribe(h) ||
		rm.unloadComplete.Unsubscribe(h) ||
		rm.unloadError.Unsubscribe(h) ||
		rm.progress.Unsubscribe(h)
}
