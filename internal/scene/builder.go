package scene

import (
	"fmt"
	"math"

	"github.com/solartrace/irradiance/internal/gisio"
	"gonum.org/v1/gonum/spatial/r2"
)

// Build flattens every footprint in rows into an edge list, computes
// per-edge geometry and orientation weights, and discretizes the scene
// onto an XY plane per §4.2. azimuthInc is the tracer's angular step
// (shared with the sky grid, invariant 5) used to offset each edge's first
// ray so it is never parallel to the edge.
func Build(rows []gisio.Row, archetypeIDs []int16, cfg Config, azimuthInc float64) (*Scene, error) {
	if cfg.NodeWidth != 1 {
		return nil, fmt.Errorf("scene: node_width must currently equal 1.0, got %g", cfg.NodeWidth)
	}
	if len(rows) == 0 {
		return &Scene{}, nil
	}

	xLow, yLow, xHigh, yHigh := boundingBox(rows)
	padding := 5 * cfg.NodeWidth
	dx, dy := -xLow+padding, -yLow+padding

	sc := &Scene{
		Buildings: make([]Building, len(rows)),
		Width:     (xHigh + dx) + padding,
		Length:    (yHigh + dy) + padding,
	}

	for bi, row := range rows {
		b := &sc.Buildings[bi]
		b.Height = row.Height
		b.NFloors = int(math.Ceil(row.Height / cfg.F2FHeight))
		if len(archetypeIDs) > bi {
			b.Archetype = archetypeIDs[bi]
		}
		b.EdgeStart = len(sc.Edges)

		for _, ring := range row.Polygons {
			appendRingEdges(sc, bi, ring, row.Height, b.NFloors, dx, dy, azimuthInc)
		}

		b.EdgeEnd = len(sc.Edges)
	}

	qualifyWeights(sc)
	assignSensorRanges(sc, cfg)

	return sc, nil
}

func boundingBox(rows []gisio.Row) (xLow, yLow, xHigh, yHigh float64) {
	first := true
	for _, row := range rows {
		for _, ring := range row.Polygons {
			for _, p := range ring {
				if first {
					xLow, xHigh, yLow, yHigh = p.X, p.X, p.Y, p.Y
					first = false
					continue
				}
				xLow = math.Min(xLow, p.X)
				xHigh = math.Max(xHigh, p.X)
				yLow = math.Min(yLow, p.Y)
				yHigh = math.Max(yHigh, p.Y)
			}
		}
	}
	return
}

// appendRingEdges rolls a ring's vertices into (start,end) edge pairs and
// computes each edge's static geometry, per §4.2.
func appendRingEdges(sc *Scene, buildingID int, ring []r2.Vec, height float64, nFloors int, dx, dy, azimuthInc float64) {
	n := len(ring)
	if n < 3 {
		return
	}
	for i := 0; i < n; i++ {
		start := r2.Vec{X: ring[i].X + dx, Y: ring[i].Y + dy}
		end := r2.Vec{X: ring[(i+1)%n].X + dx, Y: ring[(i+1)%n].Y + dy}

		delta := r2.Sub(end, start)
		length := r2.Norm(delta)
		if length == 0 {
			// Zero-length edge: a tolerated geometry degeneracy, filtered out (§7).
			continue
		}
		slopeVec := r2.Scale(1/length, delta)

		var slope float64
		if math.Abs(slopeVec.X) < 1e-12 {
			slope = math.Inf(1)
			if slopeVec.Y < 0 {
				slope = math.Inf(-1)
			}
		} else {
			slope = slopeVec.Y / slopeVec.X
		}

		// normal = cross(+z, (slopevec, 0)).xy, which for a unit (vx, vy, 0)
		// reduces to (-vy, vx). This points outward for a clockwise-wound
		// ring (gisio.Row's assumed winding).
		normal := r2.Vec{X: -slopeVec.Y, Y: slopeVec.X}
		normalTheta := math.Atan2(normal.Y, normal.X)
		if normalTheta < 0 {
			normalTheta += 2 * math.Pi
		}

		orientationF := math.Floor(math.Mod(math.Mod(normalTheta+2*math.Pi, 2*math.Pi)+math.Pi/4, 2*math.Pi) / (math.Pi / 2))
		orientation := Orientation(int(orientationF) % 4)

		azStart := normalTheta - math.Pi/2 + azimuthInc/2

		sc.Edges = append(sc.Edges, Edge{
			BuildingID:   buildingID,
			Start:        start,
			End:          end,
			SlopeVec:     slopeVec,
			Slope:        slope,
			Normal:       normal,
			NormalTheta:  normalTheta,
			Orientation:  orientation,
			AzStartAngle: azStart,
			Height:       height,
			NFloors:      nFloors,
		})
	}
}

// qualifyWeights implements §4.2's qualified-weight pipeline: per-edge
// orientation weighting, qualification by length, pruning of sub-1.5%
// edges, and renormalization of both edge weights and cardinal weights.
func qualifyWeights(sc *Scene) {
	for i := range sc.Edges {
		e := &sc.Edges[i]
		length := e.Length()
		qualified := length
		if length < 2 {
			qualified = 0
		}
		e.QualifiedLength = qualified

		north, east, south, west := orientationWeights(e.NormalTheta)
		b := &sc.Buildings[e.BuildingID]
		b.NorthWeight += north * qualified
		b.EastWeight += east * qualified
		b.SouthWeight += south * qualified
		b.WestWeight += west * qualified
		b.QualifiedPerimLength += qualified
	}

	for i := range sc.Edges {
		e := &sc.Edges[i]
		b := &sc.Buildings[e.BuildingID]
		weight := 0.0
		if b.QualifiedPerimLength > 0 {
			weight = e.QualifiedLength / b.QualifiedPerimLength
		}
		if weight < 0.015 {
			weight = 0
		}
		e.Weight = weight
		b.QualifiedWeightSum += weight
	}

	for i := range sc.Edges {
		e := &sc.Edges[i]
		b := &sc.Buildings[e.BuildingID]
		if b.QualifiedWeightSum > 0 {
			e.Weight /= b.QualifiedWeightSum
		}
	}

	for i := range sc.Buildings {
		b := &sc.Buildings[i]
		sum := b.NorthWeight + b.EastWeight + b.SouthWeight + b.WestWeight
		if sum == 0 {
			continue
		}
		b.NorthWeight /= sum
		b.EastWeight /= sum
		b.SouthWeight /= sum
		b.WestWeight /= sum
	}
}

// orientationWeights splits theta (an edge normal angle, any real value)
// by which pi/2 quadrant it lies in and linearly interpolates between the
// two bounding cardinals, per §4.2.
func orientationWeights(theta float64) (north, east, south, west float64) {
	t := math.Mod(theta, 2*math.Pi)
	if t < 0 {
		t += 2 * math.Pi
	}
	const half = math.Pi / 2
	switch {
	case t <= half:
		north = t / half
		east = 1 - north
	case t <= math.Pi:
		north = (math.Pi - t) / half
		west = 1 - north
	case t <= 3*half:
		south = (t - math.Pi) / half
		west = 1 - south
	default:
		south = (2*math.Pi - t) / half
		east = 1 - south
	}
	return
}

// assignSensorRanges computes each edge's XY sensor count and allocates
// sensor indices via a prefix sum across the full edge list, per §4.2.
func assignSensorRanges(sc *Scene, cfg Config) {
	next := 0
	for i := range sc.Edges {
		e := &sc.Edges[i]
		raw := (e.Length() - 2*cfg.SensorInset) / cfg.SensorSpacing
		count := 0
		if raw >= 1 {
			count = int(math.Floor(raw)) + 1
		}
		e.SensorStart = next
		e.SensorEnd = next + count
		next += count
	}
}
