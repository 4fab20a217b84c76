package session

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/matzehuels/binvis/pkg/brightness"
	"github.com/matzehuels/binvis/pkg/ngram"
)

func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	data := []byte("the quick brown fox jumps over the lazy dog, the end. the the the")
	data = append(data, make([]byte, 300)...)
	h, err := ngram.Build(data, ngram.Dims2)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	s, err := New(h, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func TestNewRequiresHistogram(t *testing.T) {
	if _, err := New(nil, Options{}); !errors.Is(err, ErrNoHistogram) {
		t.Errorf("New(nil) error = %v, want ErrNoHistogram", err)
	}
}

func TestNewUnknownTransform(t *testing.T) {
	h, _ := ngram.Build([]byte("ab"), ngram.Dims2)
	if _, err := New(h, Options{Transform: "sqrt"}); err == nil {
		t.Error("New should reject unknown transforms")
	}
}

func TestNewDefaults(t *testing.T) {
	s := newTestSession(t, Options{})
	if s.ID == "" {
		t.Error("session should have an ID")
	}
	if s.Transform() != brightness.Default {
		t.Errorf("Transform() = %q, want %q", s.Transform(), brightness.Default)
	}
	if s.Threshold() != 0 {
		t.Errorf("Threshold() = %d, want 0", s.Threshold())
	}
	if len(s.Points()) == 0 {
		t.Error("initial extraction should produce points")
	}
}

func TestSetThreshold(t *testing.T) {
	s := newTestSession(t, Options{Threshold: 10})

	if s.SetThreshold(10) {
		t.Error("unchanged threshold should not re-extract")
	}
	before := len(s.Points())
	if !s.SetThreshold(250) {
		t.Error("changed threshold should re-extract")
	}
	if len(s.Points()) > before {
		t.Error("raising the threshold must not add points")
	}
}

func TestThresholdRoundTrip(t *testing.T) {
	s := newTestSession(t, Options{Threshold: 20})
	orig := slices.Clone(s.Points())

	s.SetThreshold(200)
	s.SetThreshold(20)
	if !slices.Equal(orig, s.Points()) {
		t.Error("returning to the original threshold should restore the point set")
	}
}

func TestRaiseLowerSaturate(t *testing.T) {
	s := newTestSession(t, Options{Threshold: 250})
	s.Raise(16)
	if s.Threshold() != 255 {
		t.Errorf("Threshold() = %d, want 255", s.Threshold())
	}
	if s.Raise(1) {
		t.Error("raising past 255 should be a no-op")
	}
	s.Lower(300)
	if s.Threshold() != 0 {
		t.Errorf("Threshold() = %d, want 0", s.Threshold())
	}
}

func TestSetTransform(t *testing.T) {
	s := newTestSession(t, Options{})
	logCount := len(s.Points())

	if err := s.SetTransform(brightness.NameLinear); err != nil {
		t.Fatalf("SetTransform() error: %v", err)
	}
	// count-1 cells are invisible on a log scale but not on a linear one
	if len(s.Points()) <= logCount {
		t.Errorf("linear transform should show more cells: %d <= %d", len(s.Points()), logCount)
	}
	if err := s.SetTransform("nope"); err == nil {
		t.Error("SetTransform should reject unknown names")
	}
	if s.Transform() != brightness.NameLinear {
		t.Errorf("failed SetTransform should keep %q, got %q", brightness.NameLinear, s.Transform())
	}
}

func TestSetTransformEmptySelectsDefault(t *testing.T) {
	s := newTestSession(t, Options{Transform: brightness.NameLinear})
	if err := s.SetTransform(""); err != nil {
		t.Fatalf("SetTransform(\"\") error: %v", err)
	}
	if got := s.Transform(); got != brightness.Default {
		t.Errorf("Transform() = %q, want %q", got, brightness.Default)
	}
	if got := s.State("abc").Transform; got != brightness.Default {
		t.Errorf("saved transform = %q, want %q", got, brightness.Default)
	}
	if _, name := s.Extractor(); name != brightness.Default {
		t.Errorf("Extractor() name = %q, want %q", name, brightness.Default)
	}
}

func TestPreviewAndLevels(t *testing.T) {
	s := newTestSession(t, Options{Threshold: 3, Transform: brightness.NameLinear})
	e, _ := s.Extractor()

	for _, delta := range []int{-16, -1, 0, 1, 16, 300} {
		want := len(e.Extract(step(3, delta)))
		if got := s.Preview(delta); got != want {
			t.Errorf("Preview(%d) = %d, want %d", delta, got, want)
		}
	}
	if s.Preview(0) != len(s.Points()) {
		t.Error("Preview(0) should match the current point count")
	}

	before := s.Levels()
	if err := s.SetTransform(brightness.NameLog10); err != nil {
		t.Fatal(err)
	}
	if s.Levels() == before {
		t.Error("levels should follow the transform")
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestSession(t, Options{Threshold: 5, Transform: brightness.NameLinear})
	snap := s.Snapshot()
	if snap.ID != s.ID || snap.Threshold != 5 || snap.Transform != brightness.NameLinear {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Points) != len(s.Points()) {
		t.Error("snapshot points should match session points")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := newTestSession(t, Options{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.SetThreshold(uint8(i*20 + j))
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	for _, p := range snap.Points {
		if p.Brightness < snap.Threshold {
			t.Fatalf("point %v below threshold %d", p, snap.Threshold)
		}
	}
}
