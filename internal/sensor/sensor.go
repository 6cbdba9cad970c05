// Package sensor places the XY facade sample points along each edge and
// stacks them into per-floor XYZ sensors, per §4.4.
package sensor

import (
	"github.com/solartrace/irradiance/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

// XY is one horizontal sample point along an edge, offset outward from the
// facade by the configured normal offset.
type XY struct {
	EdgeID   int
	Position r2.Vec // world-space XY, already offset along the edge normal
}

// XYZ is one window-height sensor: an XY sensor repeated once per floor, at
// height floor_index * 1.5 * f2f_height (the ground floor's sensor is at z=0).
type XYZ struct {
	XYIndex int // index into the XY slice
	Floor   int
	Z       float64
}

// InitXY places each edge's sensors (the count scene.Build assigned to it)
// at the configured spacing along the edge, inset from both endpoints and
// pushed outward along the normal so the point sits off the facade surface
// (§4.4). Edges are not filtered by their qualified weight.
func InitXY(sc *scene.Scene, cfg scene.Config) []XY {
	var out []XY
	for ei := range sc.Edges {
		e := &sc.Edges[ei]
		count := e.SensorEnd - e.SensorStart
		for i := 0; i < count; i++ {
			d := cfg.SensorInset + float64(i)*cfg.SensorSpacing
			base := r2.Add(e.Start, r2.Scale(d, e.SlopeVec))
			pos := r2.Add(base, r2.Scale(cfg.SensorNormalOffset, e.Normal))
			out = append(out, XY{EdgeID: ei, Position: pos})
		}
	}
	return out
}

// InitXYZ stacks one XYZ sensor per floor onto every XY sensor, at height
// floor_index * 1.5 * f2f_height (§4.4).
func InitXYZ(sc *scene.Scene, xy []XY, cfg scene.Config) []XYZ {
	var out []XYZ
	for xi, s := range xy {
		e := &sc.Edges[s.EdgeID]
		for floor := 0; floor < e.NFloors; floor++ {
			z := float64(floor) * 1.5 * cfg.F2FHeight
			out = append(out, XYZ{XYIndex: xi, Floor: floor, Z: z})
		}
	}
	return out
}

// Position3 returns the full 3-D position of an XYZ sensor.
func Position3(xy []XY, z XYZ) (x, y, height float64) {
	p := xy[z.XYIndex].Position
	return p.X, p.Y, z.Z
}
