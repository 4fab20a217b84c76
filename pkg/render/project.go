package render

import (
	"math"
	"slices"

	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/points"
)

// sprite is one square to draw, in canvas pixels.
type sprite struct {
	x, y, size float64
	depth      float64
	b          uint8
}

// layout places every point on a canvas of side r.canvasSize(). 2-D
// sprites come back in index order; 3-D sprites are sorted back to front.
func (r renderer) layout(s Scene, yaw float64) []sprite {
	if s.Dims == ngram.Dims3 {
		return r.project(s.Points, yaw, r.pitch)
	}
	cell := float64(r.scale)
	out := make([]sprite, len(s.Points))
	for i, p := range s.Points {
		out[i] = sprite{x: float64(p.X) * cell, y: float64(p.Y) * cell, size: cell, b: p.Brightness}
	}
	return out
}

// project rotates 3-D points around the cube center and projects them
// orthographically. Angles are in degrees.
func (r renderer) project(pts []points.Point, yaw, pitch float64) []sprite {
	size := float64(r.canvasSize())
	half := size / 2
	// the cube's half-diagonal must fit inside the canvas at any angle
	k := half / (math.Sqrt(3) * ngram.Side / 2)
	side := math.Max(1, k)

	sy, cy := math.Sincos(yaw * math.Pi / 180)
	sp, cp := math.Sincos(pitch * math.Pi / 180)

	out := make([]sprite, len(pts))
	for i, p := range pts {
		x := float64(p.X) - 128 + 0.5
		y := float64(p.Y) - 128 + 0.5
		z := float64(p.Z) - 128 + 0.5

		x, z = x*cy+z*sy, -x*sy+z*cy
		y, z = y*cp-z*sp, y*sp+z*cp

		out[i] = sprite{
			x:     half + x*k - side/2,
			y:     half + y*k - side/2,
			size:  side,
			depth: z,
			b:     p.Brightness,
		}
	}
	// larger depth is farther from the viewer
	slices.SortStableFunc(out, func(a, b sprite) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})
	return out
}

// Axis names the histogram axis collapsed by Flatten.
type Axis int

const (
	AxisZ Axis = iota // view the XY plane
	AxisY             // view the XZ plane
	AxisX             // view the YZ plane
)

// String returns "z", "y" or "x".
func (a Axis) String() string {
	switch a {
	case AxisY:
		return "y"
	case AxisX:
		return "x"
	}
	return "z"
}

// Next cycles Z → Y → X → Z.
func (a Axis) Next() Axis { return (a + 1) % 3 }

// Flatten collapses pts along axis into a 256×256 plane holding the
// brightest value in each column. Row-major, row = second remaining axis.
func Flatten(pts []points.Point, axis Axis) []uint8 {
	plane := make([]uint8, ngram.Side*ngram.Side)
	for _, p := range pts {
		var u, v uint8
		switch axis {
		case AxisY:
			u, v = p.X, p.Z
		case AxisX:
			u, v = p.Y, p.Z
		default:
			u, v = p.X, p.Y
		}
		i := int(u) + ngram.Side*int(v)
		if p.Brightness > plane[i] {
			plane[i] = p.Brightness
		}
	}
	return plane
}
