package resources

import (
	"fmt"

	"github.com/spaghettifunk/marmot/engine/core"
)

type resourceKey struct {
	typeName string
	name     string
}

// Pool owns every group and resource known to a manager. Everything else
// refers to them by group name or resource Handle.
type Pool struct {
	resources  []Resource
	groups     []*Group
	groupIndex map[string]int
	byKey      map[resourceKey][]Handle
}

func NewPool() *Pool {
	return &Pool{
		groupIndex: make(map[string]int),
		byKey:      make(map[resourceKey][]Handle),
	}
}

// AddGroup registers a parsed group and its resources. A group name can only
// be registered once; the first registration wins.
func (p *Pool) AddGroup(decl *GroupDecl) (*Group, error) {
	if decl == nil || decl.Name == "" {
		return nil, fmt.Errorf("%w: group without a name", core.ErrBadParam)
	}
	if _, ok := p.groupIndex[decl.Name]; ok {
		return nil, fmt.Errorf("%w: group %q", core.ErrAlreadyExists, decl.Name)
	}
	g := &Group{
		name:         decl.Name,
		source:       decl.Source,
		dependencies: append([]string(nil), decl.Dependencies...),
		handles:      make([]Handle, 0, len(decl.Resources)),
		pool:         p,
	}
	for _, r := range decl.Resources {
		h := Handle(len(p.resources))
		p.resources = append(p.resources, r)
		g.handles = append(g.handles, h)
		k := resourceKey{typeName: normalizeType(r.TypeName()), name: r.Name()}
		p.byKey[k] = append(p.byKey[k], h)
	}
	p.groupIndex[decl.Name] = len(p.groups)
	p.groups = append(p.groups, g)
	return g, nil
}

func (p *Pool) Group(name string) *Group {
	i, ok := p.groupIndex[name]
	if !ok {
		return nil
	}
	return p.groups[i]
}

// Groups returns every group in registration order.
func (p *Pool) Groups() []*Group {
	out := make([]*Group, len(p.groups))
	copy(out, p.groups)
	return out
}

// Resource returns the resource behind h, nil for an unknown handle.
func (p *Pool) Resource(h Handle) Resource {
	if h < 0 || int(h) >= len(p.resources) {
		return nil
	}
	return p.resources[h]
}

// Len returns the number of resources.
func (p *Pool) Len() int {
	return len(p.resources)
}

// Find looks a resource up by type and name, the type compared without case.
// An empty groupName returns the first match in registration order.
func (p *Pool) Find(typeName, name, groupName string) (Handle, bool) {
	for _, h := range p.byKey[resourceKey{typeName: normalizeType(typeName), name: name}] {
		if groupName == "" || p.resources[h].GroupName() == groupName {
			return h, true
		}
	}
	return -1, false
}

// Clear forgets every group and resource.
func (p *Pool) Clear() {
	p.resources = nil
	p.groups = nil
	p.groupIndex = make(map[string]int)
	p.byKey = make(map[resourceKey][]Handle)
}
