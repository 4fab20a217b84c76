package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"

	"github.com/matzehuels/binvis/pkg/ngram"
)

// gifDelay is the per-frame delay in 100ths of a second.
const gifDelay = 8

// gif renders a full yaw turntable starting at r.yaw.
func (r renderer) gif(s Scene) ([]byte, error) {
	if s.Dims != ngram.Dims3 {
		return nil, ErrNeeds3D
	}

	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, r.frames),
		Delay:     make([]int, 0, r.frames),
		LoopCount: 0,
	}
	step := 360 / float64(r.frames)
	for i := 0; i < r.frames; i++ {
		img, err := r.frame(s, r.yaw+float64(i)*step)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		pimg := image.NewPaletted(img.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pimg, pimg.Bounds(), img, image.Point{})

		out.Image = append(out.Image, pimg)
		out.Delay = append(out.Delay, gifDelay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}
	return buf.Bytes(), nil
}
