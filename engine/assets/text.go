package assets

import (
	"fmt"
	"unicode/utf8"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

// Text holds a UTF-8 text file.
type Text struct {
	resources.Base
	dir  string
	path string
	data string
}

type TextInstance struct {
	Name    string
	Content string
}

func NewText(id resources.ID, env *resources.Env) resources.Resource {
	return &Text{Base: resources.NewBase(id, env)}
}

func (t *Text) Create(dir string, node *resources.Node) error {
	path, err := node.Required("path")
	if err != nil {
		return err
	}
	t.dir = dir
	t.path = path
	return nil
}

func (t *Text) Load() error {
	return t.DriveLoad(func() error {
		data, resolved, err := readPayload(t.Env(), t.dir, t.path)
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			return fmt.Errorf("%w: '%s' is not valid UTF-8", core.ErrBadParam, resolved)
		}
		t.data = string(data)
		t.Track(int64(len(data)))
		t.Log().LogDebug("text '%s' loaded from '%s'", t.Name(), resolved)
		return nil
	})
}

func (t *Text) Unload() error {
	return t.DriveUnload(func() error {
		t.Release(int64(len(t.data)))
		t.data = ""
		return nil
	})
}

func (t *Text) Path() string { return t.path }

// Content is empty unless the text is loaded.
func (t *Text) Content() string { return t.data }

func (t *Text) CreateInstance() *TextInstance {
	if t.State() != resources.StateLoaded {
		return nil
	}
	return &TextInstance{Name: t.Name(), Content: t.data}
}
