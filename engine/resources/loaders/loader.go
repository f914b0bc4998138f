package loaders

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

const (
	elementResources = "RESOURCES"
	elementGroup     = "GROUP"
	elementInclude   = "INCLUDE"
	elementDepends   = "DEPENDS"
)

/** @brief Called once per group, as soon as the group has been parsed. */
type GroupCreatedFunc func(decl *resources.GroupDecl) error

/**
 * @brief Turns resource definition documents into group declarations. The
 * loader creates resources but never loads them.
 */
type ResourceLoader struct {
	registry *resources.Registry
	env      *resources.Env
	files    resources.Files
	log      *core.Logger
	onGroup  GroupCreatedFunc
}

func NewResourceLoader(registry *resources.Registry, env *resources.Env, onGroup GroupCreatedFunc) *ResourceLoader {
	log := core.NewDiscardLogger()
	if env.Telemetry != nil {
		log = env.Telemetry.Log.With("component", "loader")
	}
	return &ResourceLoader{
		registry: registry,
		env:      env,
		files:    env.Files,
		log:      log,
		onGroup:  onGroup,
	}
}

type parseState struct {
	visiting map[string]bool
	// duplicate groups do not abort parsing, they are reported at the end
	duplicate error
}

// AddResources parses the definition file at path and every file it
// includes. With autoDetect the syntax is picked from the extension (.toml or
// XML); without it the file is always parsed as XML.
//
// Groups are announced one by one as they complete. A malformed declaration
// stops the whole file with core.ErrBadParam; groups announced before that
// stay registered. Duplicate group names are skipped and reported as
// core.ErrAlreadyExists once the rest of the file has been processed.
func (l *ResourceLoader) AddResources(path string, autoDetect bool) error {
	state := &parseState{visiting: make(map[string]bool)}
	if err := l.addFile(path, "", autoDetect, state); err != nil {
		return err
	}
	return state.duplicate
}

func (l *ResourceLoader) addFile(path, relativeTo string, autoDetect bool, state *parseState) error {
	resolved, err := l.files.Resolve(path, relativeTo)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		abs = resolved
	}
	if state.visiting[abs] {
		return fmt.Errorf("%w: include cycle through %s", core.ErrBadParam, resolved)
	}
	state.visiting[abs] = true
	defer delete(state.visiting, abs)

	root, err := l.parse(resolved, autoDetect)
	if err != nil {
		return err
	}
	l.log.LogDebug("processing resource definitions in '%s'", resolved)
	return l.processRoot(root, filepath.Dir(resolved), resolved, autoDetect, state)
}

func (l *ResourceLoader) parse(path string, autoDetect bool) (*resources.Node, error) {
	f, err := l.files.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if autoDetect && isTOML(path) {
		return parseTOML(f, path)
	}
	return parseXML(f, path)
}

func isTOML(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".lz4")))
	return ext == ".toml"
}

// processRoot accepts either a RESOURCES element or any root element whose
// children are RESOURCES blocks.
func (l *ResourceLoader) processRoot(root *resources.Node, dir, source string, autoDetect bool, state *parseState) error {
	if root.Is(elementResources) {
		return l.processBlock(root, dir, autoDetect, state)
	}
	found := false
	for _, c := range root.Children {
		switch {
		case c.Is(elementResources):
			found = true
			if err := l.processBlock(c, dir, autoDetect, state); err != nil {
				return err
			}
		case c.Is(elementInclude):
			found = true
			if err := l.processInclude(c, dir, autoDetect, state); err != nil {
				return err
			}
		}
	}
	if !found {
		return fmt.Errorf("%w: %s: no %s block", core.ErrBadParam, source, elementResources)
	}
	return nil
}

func (l *ResourceLoader) processBlock(block *resources.Node, dir string, autoDetect bool, state *parseState) error {
	for _, c := range block.Children {
		switch {
		case c.Is(elementInclude):
			if err := l.processInclude(c, dir, autoDetect, state); err != nil {
				return err
			}
		case c.Is(elementGroup):
			if err := l.processGroup(c, dir, state); err != nil {
				return err
			}
		case c.Is(elementResources):
			if err := l.processBlock(c, dir, autoDetect, state); err != nil {
				return err
			}
		default:
			l.log.LogWarn("%s: unexpected <%s> outside of a group, skipping", c.Source, c.Name)
		}
	}
	return nil
}

func (l *ResourceLoader) processInclude(inc *resources.Node, dir string, autoDetect bool, state *parseState) error {
	path, err := inc.Required("path")
	if err != nil {
		// older documents use file= instead of path=
		if p, ok := inc.Attr("file"); ok && strings.TrimSpace(p) != "" {
			path = strings.TrimSpace(p)
		} else {
			return err
		}
	}
	if err := l.addFile(path, dir, autoDetect, state); err != nil {
		return fmt.Errorf("%s: include %q: %w", inc.Source, path, err)
	}
	return nil
}

func (l *ResourceLoader) processGroup(g *resources.Node, dir string, state *parseState) error {
	name, err := g.Required("name")
	if err != nil {
		return err
	}
	decl := &resources.GroupDecl{
		Name:   name,
		Source: g.Source,
	}
	seen := map[string]bool{}
	addDependency := func(dep string) {
		if dep == "" || dep == name || seen[dep] {
			return
		}
		seen[dep] = true
		decl.Dependencies = append(decl.Dependencies, dep)
	}
	for _, dep := range g.List("depends") {
		addDependency(dep)
	}

	for _, c := range g.Children {
		if c.Is(elementDepends) {
			dep, err := c.Required("group")
			if err != nil {
				return err
			}
			addDependency(dep)
			continue
		}
		resName, err := c.Required("name")
		if err != nil {
			return err
		}
		res, err := l.registry.Create(resources.ID{Type: c.Name, Name: resName, Group: name}, l.env)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Source, err)
		}
		if err := res.Create(dir, c); err != nil {
			return fmt.Errorf("%s %q: %w", res.TypeName(), resName, err)
		}
		decl.Resources = append(decl.Resources, res)
	}

	if l.onGroup == nil {
		return nil
	}
	if err := l.onGroup(decl); err != nil {
		if errors.Is(err, core.ErrAlreadyExists) {
			l.log.LogWarn("group '%s' declared in %s already exists, keeping the first declaration", name, g.Source)
			if state.duplicate == nil {
				state.duplicate = err
			}
			return nil
		}
		return err
	}
	return nil
}
