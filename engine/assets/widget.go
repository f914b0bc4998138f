package assets

import (
	"bytes"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

// Widget element kinds accepted in a layout file.
const (
	WidgetPanel  = "panel"
	WidgetLabel  = "label"
	WidgetButton = "button"
	WidgetImage  = "image"
)

// WidgetElement is one node of a widget layout.
type WidgetElement struct {
	Name     string
	Kind     string
	Position mgl32.Vec2
	Size     mgl32.Vec2
	Text     string
	Children []*WidgetElement
}

type layoutElement struct {
	Name     string          `toml:"name"`
	Kind     string          `toml:"kind"`
	Position []float32       `toml:"position"`
	Size     []float32       `toml:"size"`
	Text     string          `toml:"text"`
	Children []layoutElement `toml:"element"`
}

type layoutDocument struct {
	Elements []layoutElement `toml:"element"`
}

// Widget is a UI layout read from a TOML file:
//
//	[[element]]
//	name = "start"
//	kind = "button"
//	position = [10.0, 20.0]
//	size = [120.0, 32.0]
//	text = "Start"
//
// Labels and buttons need the widget's font, images its material.
type Widget struct {
	resources.Base
	dir           string
	path          string
	fontName      string
	fontGroup     string
	materialName  string
	materialGroup string

	elements []*WidgetElement
	count    int
	font     *Font
	material *Material
	tracked  int64
}

type WidgetInstance struct {
	Widget   *Widget
	Elements []*WidgetElement
	byName   map[string]*WidgetElement
}

func NewWidget(id resources.ID, env *resources.Env) resources.Resource {
	return &Widget{Base: resources.NewBase(id, env)}
}

func (w *Widget) Create(dir string, node *resources.Node) error {
	path, err := node.Required("path")
	if err != nil {
		return err
	}
	w.dir = dir
	w.path = path
	w.fontName = node.String("font", "")
	w.fontGroup = node.String("font_group", "")
	w.materialName = node.String("material", "")
	w.materialGroup = node.String("material_group", "")
	return nil
}

func (w *Widget) Load() error {
	return w.DriveLoad(func() error {
		var font *Font
		if w.fontName != "" {
			dep, err := requireLoaded(w.Env(), TypeFont, w.fontName, w.fontGroup)
			if err != nil {
				return err
			}
			var ok bool
			if font, ok = dep.(*Font); !ok {
				return fmt.Errorf("%w: '%s' is not a font", core.ErrBadParam, w.fontName)
			}
		}
		var material *Material
		if w.materialName != "" {
			dep, err := requireLoaded(w.Env(), TypeMaterial, w.materialName, w.materialGroup)
			if err != nil {
				return err
			}
			var ok bool
			if material, ok = dep.(*Material); !ok {
				return fmt.Errorf("%w: '%s' is not a material", core.ErrBadParam, w.materialName)
			}
		}

		data, resolved, err := readPayload(w.Env(), w.dir, w.path)
		if err != nil {
			return err
		}
		var doc layoutDocument
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return fmt.Errorf("%w: '%s': %v", core.ErrBadParam, resolved, err)
		}

		b := layoutBuilder{
			seen:        map[string]bool{},
			hasFont:     font != nil,
			hasMaterial: material != nil,
		}
		elements, err := b.build(doc.Elements)
		if err != nil {
			return fmt.Errorf("%w: '%s': %v", core.ErrBadParam, resolved, err)
		}

		w.elements = elements
		w.count = len(b.seen)
		w.font = font
		w.material = material
		w.tracked = int64(len(data))
		w.Track(w.tracked)
		return nil
	})
}

type layoutBuilder struct {
	seen        map[string]bool
	hasFont     bool
	hasMaterial bool
}

func (b *layoutBuilder) build(in []layoutElement) ([]*WidgetElement, error) {
	out := make([]*WidgetElement, 0, len(in))
	for _, le := range in {
		if le.Name == "" {
			return nil, fmt.Errorf("element without a name")
		}
		if b.seen[le.Name] {
			return nil, fmt.Errorf("element '%s' declared twice", le.Name)
		}
		b.seen[le.Name] = true

		switch le.Kind {
		case WidgetPanel:
		case WidgetLabel, WidgetButton:
			if !b.hasFont {
				return nil, fmt.Errorf("%s '%s' needs the widget font", le.Kind, le.Name)
			}
		case WidgetImage:
			if !b.hasMaterial {
				return nil, fmt.Errorf("image '%s' needs the widget material", le.Name)
			}
		default:
			return nil, fmt.Errorf("element '%s': unknown kind '%s'", le.Name, le.Kind)
		}

		pos, err := vec2(le.Position)
		if err != nil {
			return nil, fmt.Errorf("element '%s' position: %v", le.Name, err)
		}
		size, err := vec2(le.Size)
		if err != nil {
			return nil, fmt.Errorf("element '%s' size: %v", le.Name, err)
		}
		if size.X() < 0 || size.Y() < 0 {
			return nil, fmt.Errorf("element '%s' has a negative size", le.Name)
		}
		children, err := b.build(le.Children)
		if err != nil {
			return nil, err
		}
		out = append(out, &WidgetElement{
			Name:     le.Name,
			Kind:     le.Kind,
			Position: pos,
			Size:     size,
			Text:     le.Text,
			Children: children,
		})
	}
	return out, nil
}

func vec2(v []float32) (mgl32.Vec2, error) {
	switch len(v) {
	case 0:
		return mgl32.Vec2{}, nil
	case 2:
		return mgl32.Vec2{v[0], v[1]}, nil
	}
	return mgl32.Vec2{}, fmt.Errorf("expected 2 values, got %d", len(v))
}

func (w *Widget) Unload() error {
	return w.DriveUnload(func() error {
		w.Release(w.tracked)
		w.tracked = 0
		w.elements = nil
		w.count = 0
		w.font = nil
		w.material = nil
		return nil
	})
}

// ElementCount counts every element of the loaded layout, nested ones included.
func (w *Widget) ElementCount() int { return w.count }

func (w *Widget) Font() *Font { return w.font }

func (w *Widget) Material() *Material { return w.material }

// CreateInstance returns a private copy of the layout. Nil unless loaded.
func (w *Widget) CreateInstance() *WidgetInstance {
	if w.State() != resources.StateLoaded {
		return nil
	}
	inst := &WidgetInstance{Widget: w, byName: make(map[string]*WidgetElement, w.count)}
	inst.Elements = inst.copyElements(w.elements)
	return inst
}

func (i *WidgetInstance) copyElements(in []*WidgetElement) []*WidgetElement {
	out := make([]*WidgetElement, len(in))
	for n, e := range in {
		c := *e
		c.Children = i.copyElements(e.Children)
		i.byName[c.Name] = &c
		out[n] = &c
	}
	return out
}

// Find returns the element with the given name, or nil.
func (i *WidgetInstance) Find(name string) *WidgetElement {
	return i.byName[name]
}
