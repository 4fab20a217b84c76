// Package brightness maps raw occupancy counts to 8-bit perceptual brightness.
//
// Occupancy counts are extremely skewed: a handful of byte pairs such as
// zero padding dominate, while the structurally interesting regions of a
// file have small counts. Logarithmic compression makes both visible at once.
//
// Every Transform maps a count of 0 to brightness 0 and is non-decreasing in
// count. The default is [Log10]: clamp(log10(count) * 106, 0, 255).
package brightness

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Transform converts an occupancy count into a brightness in [0, 255].
type Transform func(count uint32) uint8

// Names of the built-in transforms.
const (
	NameLinear  = "linear"
	NameLog10   = "log10"
	NameLog1p01 = "log1.01"

	// Default is the transform used when none is configured.
	Default = NameLog10
)

// Linear clamps the count itself into [0, 255]. It saturates after 255
// occurrences and is only useful for small, low-entropy inputs.
func Linear(count uint32) uint8 {
	if count > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(count)
}

// Log10 is clamp(log10(count) * 106, 0, 255): a count of ~256 reaches full scale.
var Log10 = Logarithmic(10, 106.0)

// Log1p01 is clamp(log_1.01(count) * 0.192, 0, 255), a finer curve that
// reaches full scale at roughly 560k occurrences. Suited to 3-D histograms
// where individual cells are sparse.
var Log1p01 = Logarithmic(1.01, 0.192)

// Logarithmic returns clamp(log_base(count) * scale, 0, 255), evaluated in
// single precision and truncated. Count 0 maps to 0 without taking the log.
func Logarithmic(base, scale float32) Transform {
	k := scale / float32(math.Log(float64(base)))
	return func(count uint32) uint8 {
		if count == 0 {
			return 0
		}
		return clamp(float32(math.Log(float64(count))) * k)
	}
}

func clamp(v float32) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= math.MaxUint8:
		return math.MaxUint8
	}
	return uint8(v)
}

// =============================================================================
// Registry
// =============================================================================

var registry = map[string]Transform{
	NameLinear:  Linear,
	NameLog10:   Log10,
	NameLog1p01: Log1p01,
}

// Lookup returns the transform registered under name.
// An empty name resolves to Default.
func Lookup(name string) (Transform, error) {
	if name == "" {
		name = Default
	}
	if tf, ok := registry[name]; ok {
		return tf, nil
	}
	return nil, fmt.Errorf("unknown transform: %q (must be one of: %s)", name, joinNames())
}

// Names returns the registered transform names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Next returns the registered name following name, wrapping around.
// Interactive hosts use it to cycle through transforms.
func Next(name string) string {
	names := Names()
	i := slices.Index(names, name)
	return names[(i+1)%len(names)]
}

func joinNames() string {
	var s string
	for i, n := range Names() {
		if i > 0 {
			s += ", "
		}
		s += strconv.Quote(n)
	}
	return s
}
