package resources

// Handle addresses a resource inside a Pool.
type Handle int

// Group is a named, ordered set of resources plus the names of the groups
// that must be loaded before it. Members are stored as handles into the
// owning pool.
type Group struct {
	name         string
	source       string
	dependencies []string
	handles      []Handle
	pool         *Pool
}

func (g *Group) Name() string { return g.name }

// Source is the definition file that declared the group.
func (g *Group) Source() string { return g.source }

func (g *Group) Dependencies() []string {
	out := make([]string, len(g.dependencies))
	copy(out, g.dependencies)
	return out
}

// Handles returns the member handles in declaration order.
func (g *Group) Handles() []Handle {
	out := make([]Handle, len(g.handles))
	copy(out, g.handles)
	return out
}

// Resources returns the members in declaration order.
func (g *Group) Resources() []Resource {
	out := make([]Resource, 0, len(g.handles))
	for _, h := range g.handles {
		out = append(out, g.pool.Resource(h))
	}
	return out
}

func (g *Group) Len() int { return len(g.handles) }

// State derives the group state from its members: unloaded when every member
// is unloaded (including the empty group), loaded when every member is
// loaded. A partially loaded group reports unloading while any member is
// unloading and loading otherwise.
func (g *Group) State() State {
	if len(g.handles) == 0 {
		return StateUnloaded
	}
	var loaded, unloaded, unloading int
	for _, h := range g.handles {
		r := g.pool.Resource(h)
		if r == nil {
			unloaded++
			continue
		}
		switch r.State() {
		case StateLoaded:
			loaded++
		case StateUnloaded:
			unloaded++
		case StateUnloading:
			unloading++
		}
	}
	switch {
	case unloaded == len(g.handles):
		return StateUnloaded
	case loaded == len(g.handles):
		return StateLoaded
	case unloading > 0:
		return StateUnloading
	default:
		return StateLoading
	}
}

// GroupDecl is a parsed group that has not been registered yet.
type GroupDecl struct {
	Name         string
	Source       string
	Dependencies []string
	Resources    []Resource
}
