package render

import (
	"fmt"
	"image/color"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette maps a brightness level to a color. It is immutable.
type Palette struct {
	name string
	lut  [256]color.NRGBA
}

// Name returns the palette name.
func (p *Palette) Name() string { return p.name }

// At returns the color for brightness b.
func (p *Palette) At(b uint8) color.NRGBA { return p.lut[b] }

// Built-in palettes.
var (
	// Gray draws white with opacity equal to brightness.
	Gray = newAlphaPalette("gray")

	// Heat runs from dark red through orange to white.
	Heat = newRampPalette("heat", "#2a0000", "#a01010", "#f06000", "#ffd040", "#ffffff")

	// Viridis approximates the matplotlib colormap of the same name.
	Viridis = newRampPalette("viridis", "#440154", "#3b528b", "#21908d", "#5dc963", "#fde725")
)

// DefaultPalette is used when no palette is named.
const DefaultPalette = "gray"

var palettes = map[string]*Palette{
	Gray.name:    Gray,
	Heat.name:    Heat,
	Viridis.name: Viridis,
}

// LookupPalette returns the palette registered under name. An empty name
// selects DefaultPalette.
func LookupPalette(name string) (*Palette, error) {
	if name == "" {
		name = DefaultPalette
	}
	p, ok := palettes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q (available: %s)", name, strings.Join(PaletteNames(), ", "))
	}
	return p, nil
}

// PaletteNames returns the registered palette names, sorted.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for n := range palettes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func newAlphaPalette(name string) *Palette {
	p := &Palette{name: name}
	for i := range p.lut {
		p.lut[i] = color.NRGBA{R: 255, G: 255, B: 255, A: uint8(i)}
	}
	return p
}

func newRampPalette(name string, hexStops ...string) *Palette {
	stops := make([]colorful.Color, len(hexStops))
	for i, h := range hexStops {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("render: bad palette stop %q: %v", h, err))
		}
		stops[i] = c
	}

	p := &Palette{name: name}
	segments := float64(len(stops) - 1)
	for i := range p.lut {
		pos := float64(i) / 255 * segments
		seg := min(int(pos), len(stops)-2)
		c := stops[seg].BlendHcl(stops[seg+1], pos-float64(seg)).Clamped()
		r, g, b := c.RGB255()
		p.lut[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	// zero brightness is never drawn, but keep it transparent for callers
	// that sample the palette directly
	p.lut[0].A = 0
	return p
}
