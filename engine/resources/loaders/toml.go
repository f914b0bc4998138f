package loaders

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

// parseTOML reads the TOML flavour of a definition document:
//
//	include = ["common.toml"]
//
//	[[group]]
//	name = "level-1"
//	depends = ["common"]
//
//	  [[group.resource]]
//	  type = "text"
//	  name = "intro"
//	  path = "intro.txt"
//
// and converts it to the same element tree the XML syntax produces.
func parseTOML(r io.Reader, source string) (*resources.Node, error) {
	var doc map[string]interface{}
	if err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrBadParam, source, err)
	}
	root := resources.NewNode(elementResources)
	root.Source = source

	includes, err := stringList(doc["include"])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: include: %v", core.ErrBadParam, source, err)
	}
	for _, inc := range includes {
		n := resources.NewNode(elementInclude)
		n.Source = source
		n.Attrs["path"] = inc
		root.Children = append(root.Children, n)
	}

	groups, err := tableList(doc["group"])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: group: %v", core.ErrBadParam, source, err)
	}
	for i, g := range groups {
		gn := resources.NewNode(elementGroup)
		gn.Source = fmt.Sprintf("%s:group[%d]", source, i)
		if name, ok := g["name"]; ok {
			gn.Attrs["name"] = fmt.Sprint(name)
		}
		deps, err := stringList(g["depends"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: depends: %v", core.ErrBadParam, gn.Source, err)
		}
		gn.Attrs["depends"] = strings.Join(deps, ",")

		res, err := tableList(g["resource"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: resource: %v", core.ErrBadParam, gn.Source, err)
		}
		for j, rt := range res {
			typeName, ok := rt["type"].(string)
			if !ok || typeName == "" {
				return nil, fmt.Errorf("%w: %s:resource[%d]: missing type", core.ErrBadParam, gn.Source, j)
			}
			rn := tableNode(typeName, rt, fmt.Sprintf("%s:resource[%d]", gn.Source, j))
			delete(rn.Attrs, "type")
			gn.Children = append(gn.Children, rn)
		}
		root.Children = append(root.Children, gn)
	}
	return root, nil
}

// tableNode turns a TOML table into an element. Scalars and scalar arrays
// become attributes; arrays of tables become child elements named after the
// key in upper case.
func tableNode(name string, t map[string]interface{}, source string) *resources.Node {
	n := resources.NewNode(name)
	n.Source = source
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := t[k].(type) {
		case []interface{}:
			if tables, err := tableList(v); err == nil && len(tables) > 0 {
				for i, child := range tables {
					n.Children = append(n.Children, tableNode(strings.ToUpper(k), child, fmt.Sprintf("%s:%s[%d]", source, k, i)))
				}
				continue
			}
			parts := make([]string, 0, len(v))
			for _, e := range v {
				parts = append(parts, fmt.Sprint(e))
			}
			n.Attrs[k] = strings.Join(parts, ", ")
		case map[string]interface{}:
			n.Children = append(n.Children, tableNode(strings.ToUpper(k), v, source+":"+k))
		default:
			n.Attrs[k] = fmt.Sprint(v)
		}
	}
	return n
}

func stringList(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return resources.SplitList(t), nil
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("expected a string, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}

func tableList(v interface{}) ([]map[string]interface{}, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return []map[string]interface{}{t}, nil
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(t))
		for _, e := range t {
			m, ok := e.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("expected a table, got %T", e)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a table array, got %T", v)
	}
}
