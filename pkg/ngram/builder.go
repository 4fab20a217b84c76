package ngram

import (
	"errors"
	"fmt"
)

// ErrBuilderDone is returned by Builder.Write after Histogram was called.
var ErrBuilderDone = errors.New("builder already produced its histogram")

// Builder accumulates a histogram from input that arrives in chunks. Windows
// that straddle two writes are counted exactly once, so writing data in any
// split yields the same histogram as Build(data, dims).
//
//	b, _ := ngram.NewBuilder(ngram.Dims3)
//	io.Copy(b, f)
//	h := b.Histogram()
//
// A Builder is not safe for concurrent use.
type Builder struct {
	h     *Histogram
	tail  [2]byte // last dims-1 bytes seen
	ntail int
	bytes int64
	done  bool
}

// NewBuilder returns an empty builder for windows of width dims.
func NewBuilder(dims Dims) (*Builder, error) {
	if !dims.Valid() {
		return nil, fmt.Errorf("%w: %d (must be 2 or 3)", ErrInvalidDims, int(dims))
	}
	return &Builder{h: newHistogram(dims)}, nil
}

// Write accumulates the windows completed by p. It never fails before
// Histogram is called.
func (b *Builder) Write(p []byte) (int, error) {
	if b.done {
		return 0, ErrBuilderDone
	}
	keep := int(b.h.dims) - 1

	// Windows starting in the carried tail end within the first keep bytes of p.
	if b.ntail > 0 && len(p) > 0 {
		var seam [4]byte
		n := copy(seam[:], b.tail[:b.ntail])
		n += copy(seam[n:], p[:min(len(p), keep)])
		b.h.accumulate(seam[:n])
	}
	b.h.accumulate(p)
	b.bytes += int64(len(p))

	if len(p) >= keep {
		b.ntail = copy(b.tail[:], p[len(p)-keep:])
	} else {
		var joined [4]byte
		n := copy(joined[:], b.tail[:b.ntail])
		n += copy(joined[n:], p)
		b.ntail = copy(b.tail[:], joined[max(0, n-keep):n])
	}
	return len(p), nil
}

// Bytes returns how many bytes have been written.
func (b *Builder) Bytes() int64 { return b.bytes }

// Windows returns how many windows have been counted so far.
func (b *Builder) Windows() uint64 { return b.h.windows }

// Histogram finishes the builder and returns the accumulated histogram.
// Further writes fail with ErrBuilderDone.
func (b *Builder) Histogram() *Histogram {
	b.done = true
	return b.h
}
