package assets

import (
	"fmt"
	"io"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

/** @brief Built-in resource type names, as written in definition files. */
const (
	TypeText            = "text"
	TypeMaterial        = "material"
	TypeSound           = "sound"
	TypeFont            = "font"
	TypeCurve           = "curve"
	TypeSpriteAnimation = "sprite_animation"
	TypeParticleEmitter = "particle_emitter"
	TypeImagedAnimation = "imaged_animation"
	TypeWidget          = "widget"
)

// RegisterBuiltins registers every built-in resource type.
func RegisterBuiltins(r *resources.Registry) error {
	builtins := []struct {
		name string
		fn   resources.CreateFunc
	}{
		{TypeText, NewText},
		{TypeMaterial, NewMaterial},
		{TypeSound, NewSound},
		{TypeFont, NewFont},
		{TypeCurve, NewCurve},
		{TypeSpriteAnimation, NewSpriteAnimation},
		{TypeParticleEmitter, NewParticleEmitter},
		{TypeImagedAnimation, NewImagedAnimation},
		{TypeWidget, NewWidget},
	}
	for _, b := range builtins {
		if err := r.Register(b.name, b.fn); err != nil {
			return err
		}
	}
	return nil
}

// openPayload resolves path against the declaring file's directory and the
// data directories and opens it.
func openPayload(env *resources.Env, dir, path string) (io.ReadCloser, string, error) {
	if env.Files == nil {
		return nil, "", fmt.Errorf("%w: no file system configured", core.ErrNotSupported)
	}
	resolved, err := env.Files.Resolve(path, dir)
	if err != nil {
		return nil, "", err
	}
	f, err := env.Files.Open(resolved)
	if err != nil {
		return nil, "", err
	}
	return f, resolved, nil
}

func readPayload(env *resources.Env, dir, path string) ([]byte, string, error) {
	f, resolved, err := openPayload(env, dir, path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, resolved, nil
}

// requireLoaded finds a resource this one depends on and makes sure it is
// loaded, driving its Load when needed. It returns core.ErrNotFound when the
// dependency is not declared and core.ErrWait while it is still loading.
func requireLoaded(env *resources.Env, typeName, name, group string) (resources.Resource, error) {
	if env.Lookup == nil {
		return nil, fmt.Errorf("%w: %s %q: no lookup available", core.ErrNotFound, typeName, name)
	}
	dep := env.Lookup.Resource(typeName, name, group)
	if dep == nil {
		return nil, fmt.Errorf("%w: %s %q", core.ErrNotFound, typeName, name)
	}
	if dep.State() == resources.StateLoaded {
		return dep, nil
	}
	if err := dep.Load(); err != nil && !core.IsWait(err) {
		if dep.State() == resources.StateLoaded {
			return dep, nil
		}
		return nil, fmt.Errorf("dependency %s %q: %w", typeName, name, err)
	} else if err != nil {
		return nil, err
	}
	return dep, nil
}
