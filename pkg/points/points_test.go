package points

import (
	"math"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/binvis/pkg/brightness"
	"github.com/matzehuels/binvis/pkg/ngram"
)

func mustBuild(t testing.TB, data []byte, dims ngram.Dims) *ngram.Histogram {
	t.Helper()
	h, err := ngram.Build(data, dims)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return h
}

func randomBytes(n int, seed int64) []byte {
	data := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(data)
	// mix in some structure so brightness levels spread out
	for i := 0; i < n/4; i++ {
		data[i] = byte(i % 7)
	}
	return data
}

func TestExtractZeroes(t *testing.T) {
	h := mustBuild(t, []byte{0, 0, 0, 0, 0}, ngram.Dims2)

	t.Run("log10", func(t *testing.T) {
		pts := Extract(h, 0, brightness.Log10)
		if len(pts) != 1 {
			t.Fatalf("len = %d, want 1", len(pts))
		}
		if pts[0].Coord != (ngram.Coord{}) {
			t.Errorf("point at %v, want origin", pts[0].Coord)
		}
		if pts[0].Brightness == 0 {
			t.Error("brightness should be > 0 for count 4")
		}
	})

	t.Run("linear", func(t *testing.T) {
		pts := Extract(h, 0, brightness.Linear)
		if len(pts) != 1 || pts[0].Brightness != 4 {
			t.Fatalf("got %v, want one point with brightness 4", pts)
		}
	})
}

func TestExtractEmptyInput(t *testing.T) {
	h := mustBuild(t, nil, ngram.Dims2)
	for _, th := range []uint8{0, 1, 128, 255} {
		if pts := Extract(h, th, nil); len(pts) != 0 {
			t.Errorf("Extract(empty, %d) returned %d points", th, len(pts))
		}
	}
}

func TestExtractShortInput(t *testing.T) {
	h := mustBuild(t, []byte{1, 2}, ngram.Dims3)
	if pts := Extract(h, 0, brightness.Linear); len(pts) != 0 {
		t.Errorf("short input should yield no points, got %d", len(pts))
	}
}

func TestExtractSkipsDimCells(t *testing.T) {
	// every pair occurs once, so log brightness is 0 everywhere
	h := mustBuild(t, []byte("abcdefg"), ngram.Dims2)
	if pts := Extract(h, 0, brightness.Log10); len(pts) != 0 {
		t.Errorf("count-1 cells have zero log brightness, got %d points", len(pts))
	}
	if pts := Extract(h, 0, brightness.Linear); len(pts) != 6 {
		t.Errorf("linear transform should keep all 6 cells, got %d", len(pts))
	}
}

func TestExtractMonotonic(t *testing.T) {
	h := mustBuild(t, randomBytes(1<<16, 3), ngram.Dims2)
	e := NewExtractor(h, brightness.Log10)

	for t1 := 0; t1 < 256; t1 += 15 {
		for t2 := t1; t2 < 256; t2 += 40 {
			lo := e.Extract(uint8(t1))
			hi := e.Extract(uint8(t2))
			if !isSubset(hi, lo) {
				t.Fatalf("Extract(%d) is not a subset of Extract(%d)", t2, t1)
			}
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	h := mustBuild(t, randomBytes(1<<15, 5), ngram.Dims3)
	e := NewExtractor(h, brightness.Log1p01)

	a := e.Extract(10)
	b := e.Extract(10)
	if !slices.Equal(a, b) {
		t.Error("repeated extraction with the same threshold should be equal")
	}
}

func TestThresholdRoundTrip(t *testing.T) {
	h := mustBuild(t, randomBytes(1<<15, 9), ngram.Dims2)
	e := NewExtractor(h, nil)

	orig := e.Extract(40)
	_ = e.Extract(200)
	back := e.Extract(40)
	if !slices.Equal(orig, back) {
		t.Error("threshold round trip changed the point set")
	}
}

func TestExtractMatchesDirectTransform(t *testing.T) {
	// large counts bypass the lookup table
	data := make([]byte, 200000)
	h := mustBuild(t, data, ngram.Dims2)
	pts := Extract(h, 0, brightness.Log1p01)
	if len(pts) != 1 {
		t.Fatalf("len = %d, want 1", len(pts))
	}
	if want := brightness.Log1p01(uint32(len(data) - 1)); pts[0].Brightness != want {
		t.Errorf("brightness = %d, want %d", pts[0].Brightness, want)
	}
}

func TestBrightnessFilter(t *testing.T) {
	h := mustBuild(t, randomBytes(1<<14, 11), ngram.Dims2)
	e := NewExtractor(h, brightness.Linear)
	for _, p := range e.Extract(3) {
		if p.Brightness < 3 {
			t.Fatalf("point %v below threshold", p)
		}
		if got := e.Brightness(h.Count(p.Coord)); got != p.Brightness {
			t.Fatalf("point %v brightness mismatch: %d", p, got)
		}
	}
}

func TestCountAndLevels(t *testing.T) {
	h := mustBuild(t, randomBytes(1<<14, 13), ngram.Dims2)
	e := NewExtractor(h, brightness.Log10)

	for _, th := range []uint8{0, 20, 90, 255} {
		if got, want := e.Count(th), len(e.Extract(th)); got != want {
			t.Errorf("Count(%d) = %d, want %d", th, got, want)
		}
	}

	levels := e.Levels()
	total := 0
	for _, n := range levels {
		total += n
	}
	if total != h.Occupied() {
		t.Errorf("Levels() total = %d, want %d occupied cells", total, h.Occupied())
	}
	for _, th := range []uint8{0, 1, 20, 90, 255} {
		if got, want := CountFromLevels(levels, th), e.Count(th); got != want {
			t.Errorf("CountFromLevels(%d) = %d, want %d", th, got, want)
		}
	}
}

// fastest returns the shortest of n timed runs of fn.
func fastest(n int, fn func()) time.Duration {
	best := time.Duration(math.MaxInt64)
	for i := 0; i < n; i++ {
		start := time.Now()
		fn()
		best = min(best, time.Since(start))
	}
	return best
}

// A 3-D sweep must cost about as much as one pass over the 16M cells, which
// is what keeps it inside a 60 Hz frame on current hardware.
func TestExtract3DCostsOneCellPass(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}
	h := mustBuild(t, randomBytes(1<<16, 17), ngram.Dims3)
	e := NewExtractor(h, brightness.Linear)

	var occupied, pts int
	baseline := fastest(5, func() { occupied = h.Occupied() })
	sweep := fastest(5, func() { pts = len(e.Extract(1)) })

	if pts == 0 || pts > occupied {
		t.Fatalf("Extract(1) = %d points of %d occupied", pts, occupied)
	}
	if limit := baseline * 3 / 2; sweep > limit {
		t.Errorf("3-D sweep took %s, want at most %s (1.5x a bare pass of %s)", sweep, limit, baseline)
	}
}

func BenchmarkExtract3D(b *testing.B) {
	h := mustBuild(b, randomBytes(1<<20, 19), ngram.Dims3)
	e := NewExtractor(h, brightness.Log1p01)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Extract(uint8(i))
	}
}

func isSubset(sub, super []Point) bool {
	set := make(map[Point]struct{}, len(super))
	for _, p := range super {
		set[p] = struct{}{}
	}
	for _, p := range sub {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}
