// Package points derives the renderable point set from an occupancy histogram.
//
// Extraction is a full sweep of the 256^d cells that applies a brightness
// transform to every count and keeps the cells that are bright enough:
//
//	pts := points.Extract(h, 64, brightness.Log10)
//
// A cell qualifies when its brightness is non-zero and at least the
// threshold. Raising the threshold can only remove points, so the result for
// a higher threshold is always a subset of the result for a lower one.
//
// Extraction never reads the source bytes and never writes to the histogram,
// so it can be re-run on every threshold change. [Extractor] binds a
// histogram and transform once and memoizes the transform for small counts,
// which keeps a 256^3 sweep within an interactive frame budget.
package points

import (
	"github.com/matzehuels/binvis/pkg/brightness"
	"github.com/matzehuels/binvis/pkg/ngram"
)

// lutSize bounds the memoized brightness table. Counts at or above it are
// transformed directly.
const lutSize = 1 << 16

// Point is a renderable cell: its coordinate and brightness.
type Point struct {
	ngram.Coord
	Brightness uint8
}

// Extract returns the points of h whose brightness under tf is at least
// threshold, in histogram index order. A nil tf selects the default
// transform. The result is empty when no cell qualifies.
func Extract(h *ngram.Histogram, threshold uint8, tf brightness.Transform) []Point {
	return NewExtractor(h, tf).Extract(threshold)
}

// Extractor re-derives point sets from one histogram at varying thresholds.
// It is safe for concurrent use: Extract only reads shared state.
type Extractor struct {
	hist *ngram.Histogram
	tf   brightness.Transform
	lut  []uint8
}

// NewExtractor binds h and tf. A nil tf selects the default transform.
func NewExtractor(h *ngram.Histogram, tf brightness.Transform) *Extractor {
	if tf == nil {
		tf, _ = brightness.Lookup(brightness.Default)
	}
	lut := make([]uint8, lutSize)
	for c := range lut {
		lut[c] = tf(uint32(c))
	}
	return &Extractor{hist: h, tf: tf, lut: lut}
}

// Histogram returns the histogram the extractor reads.
func (e *Extractor) Histogram() *ngram.Histogram { return e.hist }

// Brightness returns the brightness of a single count.
func (e *Extractor) Brightness(count uint32) uint8 {
	if count < lutSize {
		return e.lut[count]
	}
	return e.tf(count)
}

// Extract sweeps every cell and returns the qualifying points.
func (e *Extractor) Extract(threshold uint8) []Point {
	out := make([]Point, 0, 256)
	for i, count := range e.hist.Cells() {
		if count == 0 {
			continue
		}
		b := e.Brightness(count)
		if b == 0 || b < threshold {
			continue
		}
		out = append(out, Point{Coord: ngram.CoordAt(i), Brightness: b})
	}
	return out
}

// Count returns how many points Extract(threshold) would return without
// materializing them.
func (e *Extractor) Count(threshold uint8) int {
	total := 0
	for _, count := range e.hist.Cells() {
		if count == 0 {
			continue
		}
		if b := e.Brightness(count); b != 0 && b >= threshold {
			total++
		}
	}
	return total
}

// Levels returns how many non-empty cells fall on each brightness level.
// The number of points at threshold t is the sum of levels max(t,1)..255.
func (e *Extractor) Levels() [256]int {
	var levels [256]int
	for _, count := range e.hist.Cells() {
		if count != 0 {
			levels[e.Brightness(count)]++
		}
	}
	return levels
}

// CountFromLevels returns how many points a sweep at threshold would yield,
// given the output of Levels.
func CountFromLevels(levels [256]int, threshold uint8) int {
	total := 0
	for b := max(int(threshold), 1); b < len(levels); b++ {
		total += levels[b]
	}
	return total
}
