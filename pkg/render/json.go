package render

import (
	"encoding/json"

	"github.com/matzehuels/binvis/pkg/ngram"
)

type jsonOutput struct {
	Dims      int    `json:"dims"`
	Threshold uint8  `json:"threshold"`
	Transform string `json:"transform,omitempty"`
	Count     int    `json:"count"`
	Points    any    `json:"points"`
}

type jsonPoint2 struct {
	X uint8 `json:"x"`
	Y uint8 `json:"y"`
	B uint8 `json:"b"`
}

type jsonPoint3 struct {
	X uint8 `json:"x"`
	Y uint8 `json:"y"`
	Z uint8 `json:"z"`
	B uint8 `json:"b"`
}

// renderJSON writes the scene's points. 2-D points omit z.
func renderJSON(s Scene) ([]byte, error) {
	out := jsonOutput{
		Dims:      int(s.Dims),
		Threshold: s.Threshold,
		Transform: s.Transform,
		Count:     len(s.Points),
	}
	if s.Dims == ngram.Dims3 {
		pts := make([]jsonPoint3, len(s.Points))
		for i, p := range s.Points {
			pts[i] = jsonPoint3{X: p.X, Y: p.Y, Z: p.Z, B: p.Brightness}
		}
		out.Points = pts
	} else {
		pts := make([]jsonPoint2, len(s.Points))
		for i, p := range s.Points {
			pts[i] = jsonPoint2{X: p.X, Y: p.Y, B: p.Brightness}
		}
		out.Points = pts
	}
	return json.MarshalIndent(out, "", "  ")
}
