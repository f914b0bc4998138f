package systems

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/marmot/engine/containers"
	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

// batchGroup is one group represented in a batch, with the failures recorded
// against it while the batch runs.
type batchGroup struct {
	group    *resources.Group
	failures []error
}

type batchItem struct {
	handle resources.Handle
	group  int
}

// processingBatch is one queued load or unload of a group and, for loads, its
// dependency chain. Resources are driven in order; next only moves forward.
type processingBatch struct {
	id        uuid.UUID
	load      bool
	target    string
	started   bool
	startTime float64
	// resolved groups, dependencies first
	source []*resources.Group
	groups []*batchGroup
	items  []batchItem
	next   int
}

func (b *processingBatch) complete() bool {
	return b.next >= len(b.items)
}

func (b *processingBatch) direction() string {
	if b.load {
		return "load"
	}
	return "unload"
}

// resolveGroups returns the dependency closure of name, dependencies first and
// name last, each group once. Unknown groups fail with core.ErrNotFound.
func resolveGroups(pool *resources.Pool, name string) ([]*resources.Group, error) {
	var out []*resources.Group
	visited := map[string]bool{}

	var visit func(name, requiredBy string) error
	visit = func(name, requiredBy string) error {
		if visited[name] {
			return nil
		}
		visited[name] = true
		g := pool.Group(name)
		if g == nil {
			if requiredBy != "" {
				return fmt.Errorf("%w: group '%s' required by '%s'", core.ErrNotFound, name, requiredBy)
			}
			return fmt.Errorf("%w: group '%s'", core.ErrNotFound, name)
		}
		for _, dep := range g.Dependencies() {
			if err := visit(dep, name); err != nil {
				return err
			}
		}
		out = append(out, g)
		return nil
	}
	if err := visit(name, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// projectStates returns the state each queued resource will have once the
// queue has drained, for the resources the queue still has to drive.
func projectStates(queue *containers.RingQueue[*processingBatch]) map[resources.Handle]resources.State {
	projected := map[resources.Handle]resources.State{}
	for i := 0; i < queue.Len(); i++ {
		b := queue.At(i)
		target := resources.StateUnloaded
		if b.load {
			target = resources.StateLoaded
		}
		for _, it := range b.items[b.next:] {
			projected[it.handle] = target
		}
	}
	return projected
}

// buildBatch flattens groups into a batch, skipping resources that will
// already be in the requested state when the batch reaches the front of the
// queue.
func buildBatch(pool *resources.Pool, groups []*resources.Group, load bool, projected map[resources.Handle]resources.State) *processingBatch {
	b := &processingBatch{
		id:     uuid.New(),
		load:   load,
		target: groups[len(groups)-1].Name(),
		source: groups,
	}
	b.plan(pool, projected)
	return b
}

// plan selects the resources still to drive. The target group is always
// represented; the others only when they contribute resources. With a nil
// projection the current states decide.
func (b *processingBatch) plan(pool *resources.Pool, projected map[resources.Handle]resources.State) {
	want := resources.StateUnloaded
	if b.load {
		want = resources.StateLoaded
	}
	b.groups = nil
	b.items = nil
	b.next = 0
	seen := map[resources.Handle]bool{}
	for i, g := range b.source {
		isTarget := i == len(b.source)-1
		var items []batchItem
		for _, h := range g.Handles() {
			if seen[h] {
				continue
			}
			seen[h] = true
			state, ok := projected[h]
			if !ok {
				state = pool.Resource(h).State()
			}
			if state == want {
				continue
			}
			items = append(items, batchItem{handle: h, group: len(b.groups)})
		}
		if len(items) == 0 && !isTarget {
			continue
		}
		b.groups = append(b.groups, &batchGroup{group: g})
		b.items = append(b.items, items...)
	}
}
