package ngram

import (
	"errors"
	"fmt"
	"math"
)

// Side is the number of distinct values along each axis.
const Side = 256

// Sentinel errors returned by Build and BuildStrict.
var (
	// ErrInvalidDims is returned for a dimensionality other than 2 or 3.
	ErrInvalidDims = errors.New("invalid dimensionality")

	// ErrEmptyInput is returned by BuildStrict when the input is shorter than
	// the window and therefore contains no n-grams.
	ErrEmptyInput = errors.New("input shorter than window")
)

// Dims is the histogram dimensionality, which is also the window width.
type Dims int

const (
	Dims2 Dims = 2 // byte pairs
	Dims3 Dims = 3 // byte triples
)

// Valid reports whether d is a supported dimensionality.
func (d Dims) Valid() bool { return d == Dims2 || d == Dims3 }

// Cells returns the number of histogram cells for d (256^d).
func (d Dims) Cells() int {
	if d == Dims3 {
		return Side * Side * Side
	}
	return Side * Side
}

// String returns "2d" or "3d".
func (d Dims) String() string { return fmt.Sprintf("%dd", int(d)) }

// ParseDims parses "2", "3", "2d" or "3d".
func ParseDims(s string) (Dims, error) {
	switch s {
	case "2", "2d", "2D":
		return Dims2, nil
	case "3", "3d", "3D":
		return Dims3, nil
	}
	return 0, fmt.Errorf("%w: %q (must be 2 or 3)", ErrInvalidDims, s)
}

// Coord is a cell coordinate. Z is always zero in a 2-D histogram.
type Coord struct {
	X uint8 `json:"x"`
	Y uint8 `json:"y"`
	Z uint8 `json:"z"`
}

// Index linearizes c into a flat buffer offset.
func (c Coord) Index() int {
	return int(c.X) + Side*int(c.Y) + Side*Side*int(c.Z)
}

// CoordAt is the inverse of Coord.Index.
func CoordAt(i int) Coord {
	return Coord{X: uint8(i), Y: uint8(i >> 8), Z: uint8(i >> 16)}
}

// Histogram is a dense, immutable n-gram occupancy histogram.
type Histogram struct {
	dims    Dims
	cells   []uint32
	windows uint64
}

// Build accumulates every overlapping window of width dims in data.
//
// Input shorter than the window yields an all-zero histogram and no error.
// Counts saturate at math.MaxUint32.
func Build(data []byte, dims Dims) (*Histogram, error) {
	if !dims.Valid() {
		return nil, fmt.Errorf("%w: %d (must be 2 or 3)", ErrInvalidDims, int(dims))
	}
	h := newHistogram(dims)
	h.accumulate(data)
	return h, nil
}

func newHistogram(dims Dims) *Histogram {
	return &Histogram{dims: dims, cells: make([]uint32, dims.Cells())}
}

// accumulate counts the windows lying entirely inside data.
func (h *Histogram) accumulate(data []byte) {
	n := len(data) - int(h.dims) + 1
	if n <= 0 {
		return
	}
	h.windows += uint64(n)

	cells := h.cells
	switch h.dims {
	case Dims2:
		for i := 0; i < n; i++ {
			idx := int(data[i]) | int(data[i+1])<<8
			if cells[idx] != math.MaxUint32 {
				cells[idx]++
			}
		}
	case Dims3:
		for i := 0; i < n; i++ {
			idx := int(data[i]) | int(data[i+1])<<8 | int(data[i+2])<<16
			if cells[idx] != math.MaxUint32 {
				cells[idx]++
			}
		}
	}
}

// BuildStrict is Build, but input without a single complete window is
// reported as ErrEmptyInput instead of producing an empty histogram.
func BuildStrict(data []byte, dims Dims) (*Histogram, error) {
	if !dims.Valid() {
		return nil, fmt.Errorf("%w: %d (must be 2 or 3)", ErrInvalidDims, int(dims))
	}
	if len(data) < int(dims) {
		return nil, fmt.Errorf("%w: %d bytes, window %d", ErrEmptyInput, len(data), int(dims))
	}
	return Build(data, dims)
}

// Dims returns the histogram dimensionality.
func (h *Histogram) Dims() Dims { return h.dims }

// Len returns the number of cells (256^d).
func (h *Histogram) Len() int { return len(h.cells) }

// Windows returns how many windows were accumulated: max(n-w+1, 0).
func (h *Histogram) Windows() uint64 { return h.windows }

// Count returns the occupancy count at c. Z is ignored for 2-D histograms.
func (h *Histogram) Count(c Coord) uint32 {
	if h.dims == Dims2 {
		c.Z = 0
	}
	return h.cells[c.Index()]
}

// Cells returns the flat count buffer in index order. The slice is shared
// with the histogram and must not be modified.
func (h *Histogram) Cells() []uint32 { return h.cells }

// Total returns the sum of all counts. It equals Windows unless a cell saturated.
func (h *Histogram) Total() uint64 {
	var sum uint64
	for _, c := range h.cells {
		sum += uint64(c)
	}
	return sum
}

// Occupied returns the number of non-zero cells.
func (h *Histogram) Occupied() int {
	n := 0
	for _, c := range h.cells {
		if c != 0 {
			n++
		}
	}
	return n
}

// Max returns the largest count and its coordinate.
// An all-zero histogram reports 0 at the origin.
func (h *Histogram) Max() (Coord, uint32) {
	best, at := uint32(0), 0
	for i, c := range h.cells {
		if c > best {
			best, at = c, i
		}
	}
	return CoordAt(at), best
}

// Each calls fn for every non-zero cell in index order.
func (h *Histogram) Each(fn func(Coord, uint32)) {
	for i, c := range h.cells {
		if c != 0 {
			fn(CoordAt(i), c)
		}
	}
}
