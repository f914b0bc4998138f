package assets

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fzipp/bmfont"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

type FontType int

const (
	FontTypeBitmap FontType = iota
	FontTypeSystem
)

func (t FontType) String() string {
	if t == FontTypeBitmap {
		return "bitmap"
	}
	return "system"
}

type FontGlyph struct {
	Codepoint rune
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontData struct {
	Type       FontType
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     []FontGlyph
	GlyphCount int
	Pages      []string
}

// Font is either an AngelCode bitmap font (.fnt) or a TrueType/OpenType
// system font (.ttf, .otf).
type Font struct {
	resources.Base
	dir  string
	path string
	size float64

	data  *FontData
	face  font.Face
	bytes int64
}

func NewFont(id resources.ID, env *resources.Env) resources.Resource {
	return &Font{Base: resources.NewBase(id, env)}
}

func (f *Font) Create(dir string, node *resources.Node) error {
	path, err := node.Required("path")
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fnt", ".ttf", ".otf":
	default:
		return fmt.Errorf("%w: %s: unsupported font file '%s'", core.ErrBadParam, node.Source, path)
	}
	size, err := node.Float("size", 16)
	if err != nil {
		return err
	}
	if size <= 0 {
		return fmt.Errorf("%w: %s: font size must be positive", core.ErrBadParam, node.Source)
	}
	f.dir = dir
	f.path = path
	f.size = float64(size)
	return nil
}

func (f *Font) Load() error {
	return f.DriveLoad(func() error {
		if strings.EqualFold(filepath.Ext(f.path), ".fnt") {
			return f.loadBitmap()
		}
		return f.loadSystem()
	})
}

func (f *Font) loadBitmap() error {
	if f.Env().Files == nil {
		return fmt.Errorf("%w: no file system configured", core.ErrNotSupported)
	}
	resolved, err := f.Env().Files.Resolve(f.path, f.dir)
	if err != nil {
		return err
	}
	bf, err := bmfont.Load(resolved)
	if err != nil {
		return fmt.Errorf("%w: bitmap font '%s': %v", core.ErrBadParam, resolved, err)
	}
	d := bf.Descriptor
	data := &FontData{
		Type:       FontTypeBitmap,
		Face:       d.Info.Face,
		Size:       uint32(d.Info.Size),
		LineHeight: int32(d.Common.LineHeight),
		Baseline:   int32(d.Common.Base),
		AtlasSizeX: int32(d.Common.ScaleW),
		AtlasSizeY: int32(d.Common.ScaleH),
		Glyphs:     make([]FontGlyph, 0, len(d.Chars)),
	}
	for _, p := range d.Pages {
		data.Pages = append(data.Pages, p.File)
	}
	for _, g := range d.Chars {
		data.Glyphs = append(data.Glyphs, FontGlyph{
			Codepoint: g.ID,
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}
	data.GlyphCount = len(data.Glyphs)
	f.data = data
	f.bytes = int64(len(data.Glyphs)) * 16
	f.Track(f.bytes)
	return nil
}

func (f *Font) loadSystem() error {
	raw, resolved, err := readPayload(f.Env(), f.dir, f.path)
	if err != nil {
		return err
	}
	otf, err := opentype.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: font '%s': %v", core.ErrBadParam, resolved, err)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    f.size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return fmt.Errorf("font '%s': %w", resolved, err)
	}
	family, err := otf.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		family = f.Name()
	}
	metrics := face.Metrics()
	f.face = face
	f.data = &FontData{
		Type:       FontTypeSystem,
		Face:       family,
		Size:       uint32(f.size),
		LineHeight: int32(metrics.Height.Ceil()),
		Baseline:   int32(metrics.Ascent.Ceil()),
		GlyphCount: otf.NumGlyphs(),
	}
	f.bytes = int64(len(raw))
	f.Track(f.bytes)
	return nil
}

func (f *Font) Unload() error {
	return f.DriveUnload(func() error {
		if f.face != nil {
			if err := f.face.Close(); err != nil {
				f.Log().LogWarn("font '%s': closing face: %s", f.Name(), err)
			}
		}
		f.Release(f.bytes)
		f.bytes = 0
		f.face = nil
		f.data = nil
		return nil
	})
}

// Data is nil unless the font is loaded.
func (f *Font) Data() *FontData { return f.data }

// Face is only set for system fonts.
func (f *Font) Face() font.Face { return f.face }
