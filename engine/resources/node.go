package resources

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spaghettifunk/marmot/engine/core"
)

// Node is one element of a resource definition document, whatever syntax it
// was written in.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node
	Text     string
	// Source is "file:line" when known, for error messages.
	Source string
}

func NewNode(name string) *Node {
	return &Node{Name: name, Attrs: make(map[string]string)}
}

// Is compares the element name case-insensitively.
func (n *Node) Is(name string) bool {
	return strings.EqualFold(n.Name, name)
}

func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

func (n *Node) String(key, def string) string {
	if v, ok := n.Attrs[key]; ok {
		return v
	}
	return def
}

// Required returns a non-empty attribute or a core.ErrBadParam error.
func (n *Node) Required(key string) (string, error) {
	v := strings.TrimSpace(n.Attrs[key])
	if v == "" {
		return "", n.errorf("missing obligatory attribute %q", key)
	}
	return v, nil
}

func (n *Node) Int(key string, def int) (int, error) {
	v, ok := n.Attrs[key]
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, n.errorf("attribute %q: %q is not an integer", key, v)
	}
	return i, nil
}

func (n *Node) Float(key string, def float32) (float32, error) {
	v, ok := n.Attrs[key]
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return def, n.errorf("attribute %q: %q is not a number", key, v)
	}
	return float32(f), nil
}

func (n *Node) Bool(key string, def bool) (bool, error) {
	v, ok := n.Attrs[key]
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, n.errorf("attribute %q: %q is not a boolean", key, v)
	}
	return b, nil
}

// List splits an attribute on commas and whitespace.
func (n *Node) List(key string) []string {
	return SplitList(n.Attrs[key])
}

// ChildrenNamed returns the direct children with the given element name.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Is(name) {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if n.Source != "" {
		return fmt.Errorf("%w: %s: <%s>: %s", core.ErrBadParam, n.Source, n.Name, msg)
	}
	return fmt.Errorf("%w: <%s>: %s", core.ErrBadParam, n.Name, msg)
}

// SplitList splits "a, b c" into [a b c].
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}
