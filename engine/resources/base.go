package resources

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/marmot/engine/core"
)

// Base carries the identity and state shared by every resource type. Concrete
// types embed it and route their Load/Unload work through DriveLoad and
// DriveUnload so that all of them follow the same transitions.
type Base struct {
	id    ID
	env   *Env
	state State
}

func NewBase(id ID, env *Env) Base {
	if env == nil {
		env = &Env{}
	}
	if env.Telemetry == nil {
		env.Telemetry = core.NewNopTelemetry()
	}
	return Base{id: id, env: env}
}

func (b *Base) ID() ID            { return b.id }
func (b *Base) TypeName() string  { return b.id.Type }
func (b *Base) Name() string      { return b.id.Name }
func (b *Base) GroupName() string { return b.id.Group }
func (b *Base) State() State      { return b.state }
func (b *Base) Env() *Env         { return b.env }

func (b *Base) Log() *core.Logger {
	return b.env.Telemetry.Log
}

// Track reports payload bytes held by this resource.
func (b *Base) Track(bytes int64) {
	b.env.Telemetry.Memory.Track(b.id.Type, bytes)
}

// Release reports payload bytes given back by this resource.
func (b *Base) Release(bytes int64) {
	b.env.Telemetry.Memory.Release(b.id.Type, bytes)
}

// DriveLoad runs one load step. step returns nil when the payload is ready,
// core.ErrWait when it must be polled again, or a failure which puts the
// resource back to unloaded.
func (b *Base) DriveLoad(step func() error) error {
	switch b.state {
	case StateLoaded:
		return core.ErrAlreadyExists
	case StateUnloading:
		return fmt.Errorf("%w: %s is unloading", core.ErrNotSupported, b.id)
	}
	b.state = StateLoading
	err := step()
	switch {
	case err == nil:
		b.state = StateLoaded
	case errors.Is(err, core.ErrWait):
	default:
		b.state = StateUnloaded
	}
	return err
}

// DriveUnload runs one unload step. A resource caught mid-load is unloaded
// as well; step must cope with a partial payload. On failure the previous
// state is restored.
func (b *Base) DriveUnload(step func() error) error {
	if b.state == StateUnloaded {
		return core.ErrAlreadyExists
	}
	prev := b.state
	if prev == StateUnloading {
		prev = StateLoaded
	}
	b.state = StateUnloading
	err := step()
	switch {
	case err == nil:
		b.state = StateUnloaded
	case errors.Is(err, core.ErrWait):
	default:
		b.state = prev
	}
	return err
}
