package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/binvis/pkg/ngram"
	"github.com/matzehuels/binvis/pkg/points"
)

// Format is an output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatSVG  Format = "svg"
	FormatJSON Format = "json"
)

// Defaults applied when an option is left unset.
const (
	DefaultScale   = 2
	DefaultFrames  = 36
	DefaultQuality = 90
	DefaultYaw     = 30.0
	DefaultPitch   = 20.0
	MaxScale       = 16
	MaxFrames      = 360
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown format")

// ErrNeeds3D is returned when a gif turntable is requested for a 2-D scene.
var ErrNeeds3D = errors.New("gif output requires a 3-D scene")

var allFormats = []Format{FormatPNG, FormatJPEG, FormatGIF, FormatSVG, FormatJSON}

// Formats returns every supported format.
func Formats() []Format { return append([]Format(nil), allFormats...) }

// ParseFormat parses a format name. "jpg" is accepted for jpeg.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "jpg" {
		return FormatJPEG, nil
	}
	for _, f := range allFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string { return "." + string(f) }

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Scene is one extracted point set and the parameters that produced it.
type Scene struct {
	Dims      ngram.Dims
	Threshold uint8
	Transform string
	Points    []points.Point
}

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	palette *Palette
	scale   int
	yaw     float64
	pitch   float64
	frames  int
	quality int
}

// WithScale sets the pixel size of one histogram cell (default 2).
func WithScale(s int) Option {
	return func(r *renderer) {
		if s > 0 {
			r.scale = min(s, MaxScale)
		}
	}
}

// WithPalette selects a palette. A nil palette keeps the default.
func WithPalette(p *Palette) Option {
	return func(r *renderer) {
		if p != nil {
			r.palette = p
		}
	}
}

// WithView sets the 3-D camera rotation in degrees.
func WithView(yaw, pitch float64) Option {
	return func(r *renderer) { r.yaw, r.pitch = yaw, pitch }
}

// WithFrames sets the number of turntable frames (default 36).
func WithFrames(n int) Option {
	return func(r *renderer) {
		if n > 0 {
			r.frames = min(n, MaxFrames)
		}
	}
}

// WithQuality sets the jpeg quality in [1,100] (default 90).
func WithQuality(q int) Option {
	return func(r *renderer) {
		if q >= 1 && q <= 100 {
			r.quality = q
		}
	}
}

func newRenderer(opts []Option) renderer {
	r := renderer{
		palette: Gray,
		scale:   DefaultScale,
		yaw:     DefaultYaw,
		pitch:   DefaultPitch,
		frames:  DefaultFrames,
		quality: DefaultQuality,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// canvasSize is the side length of the square output in pixels.
func (r renderer) canvasSize() int { return ngram.Side * r.scale }

// Render encodes s in format f.
func Render(f Format, s Scene, opts ...Option) ([]byte, error) {
	if !s.Dims.Valid() {
		return nil, fmt.Errorf("%w: %d", ngram.ErrInvalidDims, int(s.Dims))
	}
	r := newRenderer(opts)
	switch f {
	case FormatPNG:
		return r.png(s)
	case FormatJPEG:
		return r.jpeg(s)
	case FormatGIF:
		return r.gif(s)
	case FormatSVG:
		return r.svg(s), nil
	case FormatJSON:
		return renderJSON(s)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}
