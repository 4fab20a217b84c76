// Package stats summarizes an n-gram histogram.
//
// The summary reports how much of the n-gram space a file occupies and how
// evenly: Shannon entropy of the n-gram distribution in bits, the mean,
// median and standard deviation of the non-zero counts, and the most
// frequent n-grams. Compressed or encrypted data sits close to the maximum
// entropy; text and machine code fall well below it.
//
//	h, _ := ngram.Build(data, ngram.Dims2)
//	s := stats.Compute(h, 10)
//	fmt.Printf("%.2f of %.0f bits\n", s.Entropy, s.MaxEntropy)
package stats

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/points"
)

// Entry is one n-gram and its count.
type Entry struct {
	ngram.Coord
	Count uint32  `json:"count"`
	Share float64 `json:"share"` // fraction of all windows
}

// Summary describes a histogram.
type Summary struct {
	Dims       ngram.Dims  `json:"dims"`
	Windows    uint64      `json:"windows"`
	Cells      int         `json:"cells"`
	Occupied   int         `json:"occupied"`
	Coverage   float64     `json:"coverage"`
	Max        uint32      `json:"max"`
	MaxAt      ngram.Coord `json:"max_at"`
	Entropy    float64     `json:"entropy_bits"`
	MaxEntropy float64     `json:"max_entropy_bits"`
	Mean       float64     `json:"mean"`
	Median     float64     `json:"median"`
	StdDev     float64     `json:"stddev"`
	Top        []Entry     `json:"top"`
	Brightness *Brightness `json:"brightness,omitempty"`
}

// Brightness describes how the occupied cells spread over the 256 brightness
// levels of one transform, and how many of them a threshold keeps.
type Brightness struct {
	Transform string   `json:"transform"`
	Threshold uint8    `json:"threshold"`
	Points    int      `json:"points"`
	Levels    [256]int `json:"levels"`
}

// AddBrightness records the level histogram of e and the point count at
// threshold. transform names the transform e was built with.
func (s *Summary) AddBrightness(e *points.Extractor, transform string, threshold uint8) {
	s.Brightness = &Brightness{
		Transform: transform,
		Threshold: threshold,
		Points:    e.Count(threshold),
		Levels:    e.Levels(),
	}
}

// Compute summarizes h, keeping the topN most frequent n-grams.
// Ties are broken by index order.
func Compute(h *ngram.Histogram, topN int) Summary {
	s := Summary{
		Dims:       h.Dims(),
		Windows:    h.Windows(),
		Cells:      h.Len(),
		MaxEntropy: math.Log2(float64(h.Len())),
	}
	s.MaxAt, s.Max = h.Max()

	counts := make([]float64, 0, 1024)
	entries := make([]Entry, 0, 1024)
	h.Each(func(c ngram.Coord, n uint32) {
		counts = append(counts, float64(n))
		entries = append(entries, Entry{Coord: c, Count: n})
	})
	s.Occupied = len(counts)
	if s.Occupied == 0 {
		return s
	}
	s.Coverage = float64(s.Occupied) / float64(s.Cells)

	total := float64(h.Total())
	probs := make([]float64, len(counts))
	for i, n := range counts {
		probs[i] = n / total
	}
	s.Entropy = stat.Entropy(probs) / math.Ln2

	s.Mean, s.StdDev = stat.MeanStdDev(counts, nil)
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	slices.Sort(counts)
	s.Median = stat.Quantile(0.5, stat.Empirical, counts, nil)

	if topN > 0 {
		slices.SortStableFunc(entries, func(a, b Entry) int {
			return cmp.Compare(b.Count, a.Count)
		})
		entries = entries[:min(topN, len(entries))]
		windows := float64(h.Windows())
		for i := range entries {
			entries[i].Share = float64(entries[i].Count) / windows
		}
		s.Top = slices.Clip(entries)
	}
	return s
}
