package loaders

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

// parseXML walks the token stream of r and builds the element tree. The
// returned node is the document root element.
func parseXML(r io.Reader, source string) (*resources.Node, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = true

	var root *resources.Node
	var stack []*resources.Node
	for {
		line, _ := decoder.InputPos()
		t, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %s: %v", core.ErrBadParam, source, err)
		}
		switch se := t.(type) {
		case xml.StartElement:
			n := resources.NewNode(se.Name.Local)
			n.Source = fmt.Sprintf("%s:%d", source, line)
			for _, a := range se.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: %s: more than one root element", core.ErrBadParam, source)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				if text := strings.TrimSpace(string(se)); text != "" {
					cur := stack[len(stack)-1]
					cur.Text += text
				}
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: %s: empty document", core.ErrBadParam, source)
	}
	return root, nil
}
