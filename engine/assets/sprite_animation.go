package assets

import (
	"fmt"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

// SpriteAnimation plays frames laid out in a grid on a material's texture.
type SpriteAnimation struct {
	resources.Base
	materialName  string
	materialGroup string
	frames        int
	fps           float32
	frameWidth    int
	frameHeight   int

	material *Material
}

type SpriteAnimationInstance struct {
	Animation *SpriteAnimation
	Material  *MaterialInstance
	elapsed   float32
}

func NewSpriteAnimation(id resources.ID, env *resources.Env) resources.Resource {
	return &SpriteAnimation{Base: resources.NewBase(id, env)}
}

func (s *SpriteAnimation) Create(_ string, node *resources.Node) error {
	var err error
	if s.materialName, err = node.Required("material"); err != nil {
		return err
	}
	s.materialGroup = node.String("material_group", "")
	if s.frames, err = node.Int("frames", 1); err != nil {
		return err
	}
	if s.fps, err = node.Float("fps", 12); err != nil {
		return err
	}
	if s.frameWidth, err = node.Int("frame_width", 0); err != nil {
		return err
	}
	if s.frameHeight, err = node.Int("frame_height", 0); err != nil {
		return err
	}
	if s.frames < 1 || s.fps <= 0 || s.frameWidth < 0 || s.frameHeight < 0 {
		return fmt.Errorf("%w: %s: frames and fps must be positive, frame size non-negative", core.ErrBadParam, node.Source)
	}
	return nil
}

func (s *SpriteAnimation) Load() error {
	return s.DriveLoad(func() error {
		dep, err := requireLoaded(s.Env(), TypeMaterial, s.materialName, s.materialGroup)
		if err != nil {
			return err
		}
		m, ok := dep.(*Material)
		if !ok {
			return fmt.Errorf("%w: '%s' is not a material", core.ErrBadParam, s.materialName)
		}
		if tex := m.Texture(); tex != nil && s.frameWidth > 0 && s.frameHeight > 0 {
			capacity := (tex.Width / s.frameWidth) * (tex.Height / s.frameHeight)
			if capacity < s.frames {
				return fmt.Errorf("%w: sprite '%s': texture holds %d frames, %d declared", core.ErrBadParam, s.Name(), capacity, s.frames)
			}
		}
		s.material = m
		return nil
	})
}

func (s *SpriteAnimation) Unload() error {
	return s.DriveUnload(func() error {
		s.material = nil
		return nil
	})
}

func (s *SpriteAnimation) Frames() int { return s.frames }
func (s *SpriteAnimation) FPS() float32 { return s.fps }
func (s *SpriteAnimation) MaterialName() string { return s.materialName }

// Material is nil unless the animation is loaded.
func (s *SpriteAnimation) Material() *Material { return s.material }

func (s *SpriteAnimation) CreateInstance() *SpriteAnimationInstance {
	if s.State() != resources.StateLoaded {
		return nil
	}
	return &SpriteAnimationInstance{Animation: s, Material: s.material.CreateInstance()}
}

// Advance moves the animation forward by dt seconds and returns the current
// frame index.
func (i *SpriteAnimationInstance) Advance(dt float32) int {
	i.elapsed += dt
	return i.Frame()
}

func (i *SpriteAnimationInstance) Frame() int {
	return int(i.elapsed*i.Animation.fps) % i.Animation.frames
}
