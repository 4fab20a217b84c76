package render

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gogpu/gg"

	"github.com/matzehuels/binvis/pkg/ngram"
)

// depthSlabs is the number of back-to-front bands a 3-D scene is split into.
// Within a band, sprites of equal brightness share one fill.
const depthSlabs = 16

func (r renderer) png(s Scene) ([]byte, error) {
	dc, err := r.draw(s, r.yaw)
	if err != nil {
		return nil, err
	}
	defer dc.Close()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r renderer) jpeg(s Scene) ([]byte, error) {
	dc, err := r.draw(s, r.yaw)
	if err != nil {
		return nil, err
	}
	defer dc.Close()

	var buf bytes.Buffer
	if err := dc.EncodeJPEG(&buf, r.quality); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// frame rasterizes s at the given yaw and returns the resulting image.
func (r renderer) frame(s Scene, yaw float64) (image.Image, error) {
	dc, err := r.draw(s, yaw)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// draw paints s onto a fresh black canvas. The caller closes the context.
func (r renderer) draw(s Scene, yaw float64) (*gg.Context, error) {
	size := r.canvasSize()
	dc := gg.NewContext(size, size)
	dc.ClearWithColor(gg.Black)

	sprites := r.layout(s, yaw)
	slab := len(sprites)
	if s.Dims == ngram.Dims3 && len(sprites) > depthSlabs {
		slab = (len(sprites) + depthSlabs - 1) / depthSlabs
	}
	for start := 0; start < len(sprites); start += slab {
		end := min(start+slab, len(sprites))
		if err := r.fillByLevel(dc, sprites[start:end]); err != nil {
			dc.Close()
			return nil, err
		}
	}
	return dc, nil
}

// fillByLevel draws sprites with one path fill per brightness level.
func (r renderer) fillByLevel(dc *gg.Context, sprites []sprite) error {
	var levels [256][]int
	for i, sp := range sprites {
		levels[sp.b] = append(levels[sp.b], i)
	}
	for b := 1; b < len(levels); b++ {
		idx := levels[b]
		if len(idx) == 0 {
			continue
		}
		c := r.palette.At(uint8(b))
		dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
		for _, i := range idx {
			sp := sprites[i]
			dc.DrawRectangle(sp.x, sp.y, sp.size, sp.size)
		}
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("fill level %d: %w", b, err)
		}
	}
	return nil
}
