package render

import (
	"bytes"
	"fmt"
)

func (r renderer) svg(s Scene) []byte {
	size := r.canvasSize()
	sprites := r.layout(s, r.yaw)

	var buf bytes.Buffer
	buf.Grow(64 + len(sprites)*80)
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		size, size, size, size)
	buf.WriteString(`  <rect width="100%" height="100%" fill="#000000"/>` + "\n")
	fmt.Fprintf(&buf, `  <g id="points" data-dims="%s" data-threshold="%d" data-transform="%s" data-palette="%s">`+"\n",
		s.Dims, s.Threshold, s.Transform, r.palette.Name())
	for _, sp := range sprites {
		c := r.palette.At(sp.b)
		fmt.Fprintf(&buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="#%02x%02x%02x" fill-opacity="%.3f"/>`+"\n",
			sp.x, sp.y, sp.size, sp.size, c.R, c.G, c.B, float64(c.A)/255)
	}
	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}
