package resources

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/marmot/engine/core"
)

// Registry maps resource type names to their constructors. Type names are
// matched case-insensitively so that <Material> and <material> are the same
// declaration.
type Registry struct {
	factories map[string]CreateFunc
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]CreateFunc)}
}

func normalizeType(typeName string) string {
	return strings.ToLower(strings.TrimSpace(typeName))
}

// Register adds a constructor. Registering a type twice fails with
// core.ErrAlreadyExists and keeps the first constructor.
func (r *Registry) Register(typeName string, fn CreateFunc) error {
	key := normalizeType(typeName)
	if key == "" || fn == nil {
		return fmt.Errorf("%w: resource type %q needs a name and a constructor", core.ErrBadParam, typeName)
	}
	if _, ok := r.factories[key]; ok {
		return fmt.Errorf("%w: resource type %q", core.ErrAlreadyExists, key)
	}
	r.factories[key] = fn
	r.order = append(r.order, key)
	return nil
}

func (r *Registry) IsRegistered(typeName string) bool {
	_, ok := r.factories[normalizeType(typeName)]
	return ok
}

// Types returns the registered type names in registration order.
func (r *Registry) Types() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Create builds an empty resource of id.Type. Unknown types fail with
// core.ErrNotFound.
func (r *Registry) Create(id ID, env *Env) (Resource, error) {
	id.Type = normalizeType(id.Type)
	fn, ok := r.factories[id.Type]
	if !ok {
		return nil, fmt.Errorf("%w: resource type %q", core.ErrNotFound, id.Type)
	}
	res := fn(id, env)
	if res == nil {
		return nil, fmt.Errorf("%w: constructor for %q returned nothing", core.ErrNoMemory, id.Type)
	}
	return res, nil
}
