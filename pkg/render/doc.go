// Package render turns an extracted point set into image and data artifacts.
//
// # Overview
//
// A [Scene] is the output of one extraction: the histogram dimensionality,
// the threshold and transform that produced it, and the points themselves.
// [Render] encodes a scene in one of the supported [Format] values:
//
//   - png, jpeg: raster images drawn on a black canvas with gogpu/gg
//   - gif: a turntable animation of a 3-D scene
//   - svg: one rect per point
//   - json: the raw point list with its metadata
//
// # 2-D Scenes
//
// A 2-D scene is a 256×256 grid scaled by [WithScale] (default 2). The
// first byte of each pair selects the column and the second the row, so
// the origin is the top-left corner.
//
// # 3-D Scenes
//
// A 3-D scene is centered on the cube's midpoint, rotated by yaw around the
// vertical axis and then by pitch around the horizontal one (see
// [WithView]), and projected orthographically. Points are painted back to
// front.
//
//	scene := render.Scene{Dims: ngram.Dims3, Threshold: 16, Points: pts}
//	png, err := render.Render(render.FormatPNG, scene,
//	    render.WithPalette("viridis"),
//	    render.WithView(30, 20),
//	)
//
// # Palettes
//
// [LookupPalette] resolves a palette name. "gray" draws white points whose
// opacity is their brightness; "heat" and "viridis" map brightness onto an
// opaque color ramp blended in HCL space with go-colorful.
package render
