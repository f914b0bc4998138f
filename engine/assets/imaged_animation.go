package assets

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

const elementFrame = "FRAME"

// ImagedAnimation is a flip-book of separate image files. Each Load call
// decodes one frame so a long animation spreads its cost over several
// updates.
type ImagedAnimation struct {
	resources.Base
	dir   string
	paths []string
	fps   float32
	flipY bool

	frames []*ImageData
}

func NewImagedAnimation(id resources.ID, env *resources.Env) resources.Resource {
	return &ImagedAnimation{Base: resources.NewBase(id, env)}
}

func (a *ImagedAnimation) Create(dir string, node *resources.Node) error {
	for _, f := range node.ChildrenNamed(elementFrame) {
		path, err := f.Required("path")
		if err != nil {
			return err
		}
		a.paths = append(a.paths, path)
	}
	// frames="a.png, b.png" is accepted as a shorthand
	a.paths = append(a.paths, node.List("frames")...)
	if len(a.paths) == 0 {
		return fmt.Errorf("%w: %s: imaged animation '%s' has no <%s> entries", core.ErrBadParam, node.Source, a.Name(), strings.ToLower(elementFrame))
	}
	var err error
	if a.fps, err = node.Float("fps", 12); err != nil {
		return err
	}
	if a.fps <= 0 {
		return fmt.Errorf("%w: %s: fps must be positive", core.ErrBadParam, node.Source)
	}
	if a.flipY, err = node.Bool("flip_y", true); err != nil {
		return err
	}
	a.dir = dir
	return nil
}

func (a *ImagedAnimation) Load() error {
	return a.DriveLoad(func() error {
		next := len(a.frames)
		img, err := loadImage(a.Env(), a.dir, a.paths[next], a.flipY)
		if err != nil {
			a.dropFrames()
			return err
		}
		a.frames = append(a.frames, img)
		a.Track(img.Size())
		if len(a.frames) < len(a.paths) {
			return core.ErrWait
		}
		return nil
	})
}

func (a *ImagedAnimation) Unload() error {
	return a.DriveUnload(func() error {
		a.dropFrames()
		return nil
	})
}

func (a *ImagedAnimation) dropFrames() {
	for _, f := range a.frames {
		a.Release(f.Size())
	}
	a.frames = nil
}

func (a *ImagedAnimation) FrameCount() int { return len(a.paths) }

// Decoded is the number of frames decoded so far.
func (a *ImagedAnimation) Decoded() int { return len(a.frames) }

func (a *ImagedAnimation) FPS() float32 { return a.fps }

// FrameAt returns the frame shown t seconds into the animation, nil unless
// loaded.
func (a *ImagedAnimation) FrameAt(t float32) *ImageData {
	if a.State() != resources.StateLoaded || len(a.frames) == 0 {
		return nil
	}
	if t < 0 {
		t = 0
	}
	return a.frames[int(t*a.fps)%len(a.frames)]
}
