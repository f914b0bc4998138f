package assets

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/marmot/engine/core"
	"github.com/spaghettifunk/marmot/engine/resources"
)

/** @brief Decoded pixel data, always 4 channels (RGBA8). */
type ImageData struct {
	Width    int
	Height   int
	Channels int
	Pixels   []uint8
}

func (d *ImageData) Size() int64 {
	if d == nil {
		return 0
	}
	return int64(len(d.Pixels))
}

// loadImage decodes a png, jpeg, bmp or webp file.
func loadImage(env *resources.Env, dir, path string, flipY bool) (*ImageData, error) {
	f, resolved, err := openPayload(env, dir, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: image '%s': %v", core.ErrBadParam, resolved, err)
	}
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	if flipY {
		stride := rgba.Stride
		row := make([]uint8, stride)
		for y := 0; y < b.Dy()/2; y++ {
			top := rgba.Pix[y*stride : (y+1)*stride]
			bottom := rgba.Pix[(b.Dy()-1-y)*stride : (b.Dy()-y)*stride]
			copy(row, top)
			copy(top, bottom)
			copy(bottom, row)
		}
	}
	return &ImageData{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: 4,
		Pixels:   rgba.Pix,
	}, nil
}
