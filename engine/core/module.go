package core

// ModuleState is the lifecycle state of an engine module.
type ModuleState int

const (
	ModuleStateInvalid ModuleState = iota
	ModuleStateRunning
	ModuleStateSuspended
	ModuleStateShuttingDown
	ModuleStateClosed
)

func (s ModuleState) String() string {
	switch s {
	case ModuleStateRunning:
		return "running"
	case ModuleStateSuspended:
		return "suspended"
	case ModuleStateShuttingDown:
		return "shutting down"
	case ModuleStateClosed:
		return "closed"
	default:
		return "invalid"
	}
}
