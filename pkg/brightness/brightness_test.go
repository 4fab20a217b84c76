package brightness

import (
	"math"
	"testing"
)

func TestZeroCountIsDark(t *testing.T) {
	for _, name := range Names() {
		tf, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) error: %v", name, err)
		}
		if got := tf(0); got != 0 {
			t.Errorf("%s(0) = %d, want 0", name, got)
		}
	}
}

func TestLinear(t *testing.T) {
	tests := []struct {
		count uint32
		want  uint8
	}{
		{0, 0},
		{1, 1},
		{4, 4},
		{255, 255},
		{256, 255},
		{math.MaxUint32, 255},
	}
	for _, tt := range tests {
		if got := Linear(tt.count); got != tt.want {
			t.Errorf("Linear(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestLog10(t *testing.T) {
	tests := []struct {
		count uint32
		want  uint8
	}{
		{1, 0},     // log(1) = 0
		{4, 63},    // 0.602 * 106 = 63.8
		{10, 105},  // 1 * 106 = 106, truncated by float32 rounding to 105 or 106
		{100, 211}, // 2 * 106 = 212
		{1000, 255},
		{math.MaxUint32, 255},
	}
	for _, tt := range tests {
		got := Log10(tt.count)
		if diff := int(got) - int(tt.want); diff < 0 || diff > 1 {
			t.Errorf("Log10(%d) = %d, want %d (+1)", tt.count, got, tt.want)
		}
	}
}

func TestLog1p01(t *testing.T) {
	// log_1.01(1000) = 694.2; * 0.192 = 133.3
	if got := Log1p01(1000); got < 132 || got > 134 {
		t.Errorf("Log1p01(1000) = %d, want ~133", got)
	}
	if got := Log1p01(1); got != 0 {
		t.Errorf("Log1p01(1) = %d, want 0", got)
	}
	if got := Log1p01(math.MaxUint32); got != 255 {
		t.Errorf("Log1p01(max) = %d, want 255", got)
	}
}

func TestTransformsAreMonotonic(t *testing.T) {
	for _, name := range Names() {
		tf, _ := Lookup(name)
		prev := uint8(0)
		for c := uint32(0); c < 1<<20; c += 7 {
			b := tf(c)
			if b < prev {
				t.Fatalf("%s not monotonic at count %d: %d < %d", name, c, b, prev)
			}
			prev = b
		}
	}
}

func TestLookup(t *testing.T) {
	tf, err := Lookup("")
	if err != nil {
		t.Fatalf("Lookup(\"\") error: %v", err)
	}
	if tf(100) != Log10(100) {
		t.Error("empty name should resolve to the log10 default")
	}
	if _, err := Lookup("cubic"); err == nil {
		t.Error("Lookup should reject unknown names")
	}
}

func TestNext(t *testing.T) {
	seen := map[string]bool{}
	name := Default
	for range Names() {
		seen[name] = true
		name = Next(name)
	}
	if name != Default {
		t.Errorf("cycling through all names should return to %q, got %q", Default, name)
	}
	if len(seen) != len(Names()) {
		t.Errorf("Next visited %d names, want %d", len(seen), len(Names()))
	}
}
