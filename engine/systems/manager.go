package systems

import (
	"github.com/spaghettifunk/marmot/engine/core"
)

/** @brief The configuration for the engine systems */
type SystemManagerConfig struct {
	/** @brief Number of background workers. 0 disables the job system. */
	JobWorkers int
	/** @brief Jobs buffered before Submit falls back to a goroutine. */
	JobQueueSize int
	Resources    ResourceManagerConfig
}

type SystemManager struct {
	jobSystem       *JobSystem
	resourceManager *ResourceManager
}

func NewSystemManager(config SystemManagerConfig, telemetry *core.Telemetry) (*SystemManager, error) {
	if telemetry == nil {
		telemetry = core.NewNopTelemetry()
	}
	sm := &SystemManager{}
	if config.JobWorkers > 0 {
		js, err := NewJobSystem(config.JobWorkers, config.JobQueueSize, telemetry.Log.With("system", "jobs"))
		if err != nil {
			return nil, err
		}
		sm.jobSystem = js
		config.Resources.Jobs = js
	}

	rm := NewResourceManager(config.Resources, telemetry)
	if err := rm.Construct(); err != nil {
		sm.shutdownJobs()
		return nil, err
	}
	sm.resourceManager = rm
	return sm, nil
}

func (sm *SystemManager) ResourceManager() *ResourceManager { return sm.resourceManager }

// JobSystem is nil when no workers were configured.
func (sm *SystemManager) JobSystem() *JobSystem { return sm.jobSystem }

func (sm *SystemManager) Update(time float64) {
	sm.resourceManager.Update(time)
}

// BeginShutdown asks every system to release what it holds. Shutdown must be
// called once Closed reports true.
func (sm *SystemManager) BeginShutdown() {
	sm.resourceManager.OnShutdown()
}

func (sm *SystemManager) Closed() bool {
	return sm.resourceManager.State() == core.ModuleStateClosed
}

func (sm *SystemManager) Shutdown() error {
	if !sm.Closed() {
		sm.resourceManager.OnShutdown()
	}
	return sm.shutdownJobs()
}

func (sm *SystemManager) shutdownJobs() error {
	if sm.jobSystem == nil {
		return nil
	}
	return sm.jobSystem.Shutdown()
}
