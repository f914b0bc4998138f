package resources

import (
	"fmt"
	"io"

	"github.com/spaghettifunk/marmot/engine/core"
)

/** @brief The load state of a resource or of a group of resources. */
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateUnloading
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateUnloading:
		return "unloading"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

/** @brief Identity of a declared resource. */
type ID struct {
	Type  string
	Name  string
	Group string
}

func (id ID) String() string {
	return fmt.Sprintf("%s:%s/%s", id.Type, id.Group, id.Name)
}

/**
 * @brief A loadable asset. Every resource type implements the same state
 * machine:
 *   UNLOADED --Load()--> LOADING --(nil)--> LOADED
 *   LOADED --Unload()--> UNLOADING --(nil)--> UNLOADED
 * Load and Unload return core.ErrWait while work is still in progress and
 * core.ErrAlreadyExists when the resource is already in the requested state.
 */
type Resource interface {
	ID() ID
	TypeName() string
	Name() string
	GroupName() string
	State() State
	// Create reads the declaration. dir is the directory of the definition
	// file that declared the resource; relative paths resolve against it.
	Create(dir string, node *Node) error
	Load() error
	Unload() error
}

/** @brief Resolves resources declared anywhere in the manager. */
type Lookup interface {
	// Resource finds a resource by type and name. An empty groupName searches
	// every group in registration order. Returns nil when nothing matches.
	Resource(typeName, name, groupName string) Resource
}

/** @brief Access to the registered data directories. */
type Files interface {
	// Resolve finds path, trying relativeTo first and then the data
	// directories. Fails with core.ErrNotFound.
	Resolve(path, relativeTo string) (string, error)
	// Open opens a path returned by Resolve.
	Open(path string) (io.ReadCloser, error)
}

/**
 * @brief The services a resource can use. One Env is shared by every
 * resource created by a manager.
 */
type Env struct {
	Lookup    Lookup
	Files     Files
	Jobs      core.JobSubmitter
	Telemetry *core.Telemetry
}

/** @brief Builds an empty resource of a registered type. */
type CreateFunc func(id ID, env *Env) Resource
