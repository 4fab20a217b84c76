package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/points"
)

func scene2D() Scene {
	return Scene{
		Dims:      ngram.Dims2,
		Threshold: 1,
		Transform: "linear",
		Points: []points.Point{
			{Coord: ngram.Coord{X: 10, Y: 20}, Brightness: 255},
			{Coord: ngram.Coord{X: 200, Y: 3}, Brightness: 128},
			{Coord: ngram.Coord{X: 255, Y: 255}, Brightness: 255},
		},
	}
}

func scene3D() Scene {
	var pts []points.Point
	for i := 0; i < 256; i += 17 {
		pts = append(pts, points.Point{Coord: ngram.Coord{X: uint8(i), Y: uint8(255 - i), Z: uint8(i / 2)}, Brightness: uint8(i)})
	}
	pts = append(pts, points.Point{Coord: ngram.Coord{X: 0, Y: 0, Z: 0}, Brightness: 255})
	return Scene{Dims: ngram.Dims3, Threshold: 0, Transform: "log10", Points: pts}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"PNG", FormatPNG, false},
		{"jpg", FormatJPEG, false},
		{"jpeg", FormatJPEG, false},
		{" svg ", FormatSVG, false},
		{"gif", FormatGIF, false},
		{"json", FormatJSON, false},
		{"pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("error should wrap ErrUnknownFormat: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatMetadata(t *testing.T) {
	for _, f := range Formats() {
		if !strings.HasPrefix(f.Extension(), ".") {
			t.Errorf("%s: extension %q should start with a dot", f, f.Extension())
		}
		if f.ContentType() == "application/octet-stream" {
			t.Errorf("%s: missing content type", f)
		}
	}
}

func TestRenderInvalidDims(t *testing.T) {
	s := scene2D()
	s.Dims = 4
	if _, err := Render(FormatPNG, s); !errors.Is(err, ngram.ErrInvalidDims) {
		t.Errorf("Render() error = %v, want ErrInvalidDims", err)
	}
	if _, err := Render("bmp", scene2D()); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Render(bmp) error = %v, want ErrUnknownFormat", err)
	}
}

func TestRenderPNG2D(t *testing.T) {
	data, err := Render(FormatPNG, scene2D())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 512, 512) {
		t.Fatalf("bounds = %v, want 512x512", got)
	}

	// point (10,20) covers pixels [20,22)x[40,42)
	if r, g, b, _ := img.At(21, 41).RGBA(); r>>8 < 250 || g>>8 < 250 || b>>8 < 250 {
		t.Errorf("bright point pixel = (%d,%d,%d), want white", r>>8, g>>8, b>>8)
	}
	if r, g, b, _ := img.At(100, 100).RGBA(); r != 0 || g != 0 || b != 0 {
		t.Errorf("empty pixel = (%d,%d,%d), want black", r>>8, g>>8, b>>8)
	}
	// half brightness is roughly half gray on black
	if r, _, _, _ := img.At(401, 7).RGBA(); r>>8 < 100 || r>>8 > 156 {
		t.Errorf("half-bright pixel red = %d, want ~128", r>>8)
	}
}

func TestRenderScale(t *testing.T) {
	data, err := Render(FormatPNG, scene2D(), WithScale(1))
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() error: %v", err)
	}
	if cfg.Width != 256 || cfg.Height != 256 {
		t.Errorf("size = %dx%d, want 256x256", cfg.Width, cfg.Height)
	}
}

func TestRenderJPEG(t *testing.T) {
	data, err := Render(FormatJPEG, scene3D(), WithQuality(70), WithPalette(Viridis))
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("jpeg.DecodeConfig() error: %v", err)
	}
	if cfg.Width != 512 {
		t.Errorf("width = %d, want 512", cfg.Width)
	}
}

func TestRenderEmptyScene(t *testing.T) {
	s := Scene{Dims: ngram.Dims2}
	for _, f := range []Format{FormatPNG, FormatSVG, FormatJSON} {
		if _, err := Render(f, s); err != nil {
			t.Errorf("Render(%s) on empty scene: %v", f, err)
		}
	}
}

func TestRenderGIF(t *testing.T) {
	if _, err := Render(FormatGIF, scene2D()); !errors.Is(err, ErrNeeds3D) {
		t.Errorf("2-D gif error = %v, want ErrNeeds3D", err)
	}

	data, err := Render(FormatGIF, scene3D(), WithFrames(3), WithScale(1))
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gif.DecodeAll() error: %v", err)
	}
	if len(g.Image) != 3 {
		t.Errorf("frames = %d, want 3", len(g.Image))
	}
}

func TestRenderSVG(t *testing.T) {
	data, err := Render(FormatSVG, scene2D(), WithPalette(Heat))
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	svg := string(data)
	if !strings.HasPrefix(svg, "<svg") {
		t.Error("output should start with <svg")
	}
	if n := strings.Count(svg, `<rect x=`); n != 3 {
		t.Errorf("point rects = %d, want 3", n)
	}
	if !strings.Contains(svg, `data-palette="heat"`) {
		t.Error("palette name should be recorded")
	}
}

func TestRenderJSON(t *testing.T) {
	t.Run("2d", func(t *testing.T) {
		data, err := Render(FormatJSON, scene2D())
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		var out struct {
			Dims      int              `json:"dims"`
			Threshold int              `json:"threshold"`
			Count     int              `json:"count"`
			Points    []map[string]int `json:"points"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("Unmarshal() error: %v", err)
		}
		if out.Dims != 2 || out.Count != 3 || len(out.Points) != 3 {
			t.Fatalf("unexpected output: %+v", out)
		}
		if _, ok := out.Points[0]["z"]; ok {
			t.Error("2-D points should not carry z")
		}
		if out.Points[0]["x"] != 10 || out.Points[0]["y"] != 20 || out.Points[0]["b"] != 255 {
			t.Errorf("first point = %v", out.Points[0])
		}
	})

	t.Run("3d", func(t *testing.T) {
		data, err := Render(FormatJSON, scene3D())
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}
		if !strings.Contains(string(data), `"z":`) {
			t.Error("3-D points should carry z")
		}
	})
}

func TestProjectOrderAndBounds(t *testing.T) {
	r := newRenderer(nil)
	size := float64(r.canvasSize())

	corners := make([]points.Point, 0, 8)
	for _, x := range []uint8{0, 255} {
		for _, y := range []uint8{0, 255} {
			for _, z := range []uint8{0, 255} {
				corners = append(corners, points.Point{Coord: ngram.Coord{X: x, Y: y, Z: z}, Brightness: 1})
			}
		}
	}

	for _, view := range [][2]float64{{0, 0}, {30, 20}, {90, -45}, {217, 80}} {
		sprites := r.project(corners, view[0], view[1])
		for i, sp := range sprites {
			if sp.x < 0 || sp.y < 0 || sp.x+sp.size > size || sp.y+sp.size > size {
				t.Errorf("view %v: sprite %+v outside canvas", view, sp)
			}
			if i > 0 && sprites[i-1].depth < sp.depth {
				t.Errorf("view %v: sprites not sorted back to front", view)
			}
		}
	}
}

func TestFlatten(t *testing.T) {
	pts := []points.Point{
		{Coord: ngram.Coord{X: 1, Y: 2, Z: 3}, Brightness: 10},
		{Coord: ngram.Coord{X: 1, Y: 2, Z: 9}, Brightness: 40},
		{Coord: ngram.Coord{X: 1, Y: 7, Z: 3}, Brightness: 20},
	}

	tests := []struct {
		axis Axis
		u, v int
		want uint8
	}{
		{AxisZ, 1, 2, 40},
		{AxisZ, 1, 7, 20},
		{AxisY, 1, 3, 20},
		{AxisY, 1, 9, 40},
		{AxisX, 2, 3, 10},
		{AxisX, 7, 3, 20},
	}
	for _, tt := range tests {
		plane := Flatten(pts, tt.axis)
		if got := plane[tt.u+ngram.Side*tt.v]; got != tt.want {
			t.Errorf("Flatten(%s)[%d,%d] = %d, want %d", tt.axis, tt.u, tt.v, got, tt.want)
		}
	}

	if AxisX.Next() != AxisZ {
		t.Error("axis cycle should wrap around")
	}
}

func TestPalettes(t *testing.T) {
	if p, err := LookupPalette(""); err != nil || p != Gray {
		t.Errorf("LookupPalette(\"\") = %v, %v; want gray", p, err)
	}
	if _, err := LookupPalette("rainbow"); err == nil {
		t.Error("unknown palette should fail")
	}
	if got := Gray.At(128); got.A != 128 || got.R != 255 {
		t.Errorf("Gray.At(128) = %v", got)
	}

	end := Viridis.At(255)
	if absDiff(end.R, 0xfd) > 2 || absDiff(end.G, 0xe7) > 2 || absDiff(end.B, 0x25) > 2 {
		t.Errorf("Viridis.At(255) = %v, want ~#fde725", end)
	}
	for _, p := range []*Palette{Heat, Viridis} {
		if p.At(0).A != 0 || p.At(1).A != 255 {
			t.Errorf("%s: level 0 should be transparent and the rest opaque", p.Name())
		}
	}
	if names := PaletteNames(); len(names) != 3 || names[0] != "gray" {
		t.Errorf("PaletteNames() = %v", names)
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
