// Package scene flattens GIS building footprints into an edge list,
// computes per-edge geometry and orientation weights, and discretizes the
// resulting footprint layout onto an XY plane for the height grid and
// sensor layout stages.
package scene

import "gonum.org/v1/gonum/spatial/r2"

// Orientation is a cardinal bin an edge's outward normal falls into.
type Orientation int8

const (
	East Orientation = iota
	North
	West
	South
)

func (o Orientation) String() string {
	switch o {
	case East:
		return "E"
	case North:
		return "N"
	case West:
		return "W"
	case South:
		return "S"
	default:
		return "?"
	}
}

// Building is one input footprint after edge extraction and weight
// qualification.
type Building struct {
	Height   float64
	NFloors  int
	Archetype int16

	EdgeStart, EdgeEnd int // half-open range into Scene.Edges

	// Orientation weights, normalized to sum to 1 (invariant 3).
	NorthWeight, EastWeight, SouthWeight, WestWeight float64

	QualifiedPerimLength float64
	QualifiedWeightSum   float64
}

// Edge is one polygon edge, created once during extraction; Build's weight
// and sensor-range passes then fill in Weight, QualifiedLength, and the
// sensor range, after which it is never mutated.
type Edge struct {
	BuildingID int

	Start, End r2.Vec
	SlopeVec   r2.Vec // unit vector from Start to End
	Slope      float64

	Normal      r2.Vec // unit outward normal
	NormalTheta float64 // atan2(Normal.Y, Normal.X), in [0, 2pi)

	Orientation  Orientation
	AzStartAngle float64

	Height          float64
	NFloors         int
	Weight          float64 // normalized, sums to 1 within a building (invariant 2)
	QualifiedLength float64

	SensorStart, SensorEnd int // half-open range into the XY sensor list
}

// Length returns the Euclidean length of the edge.
func (e *Edge) Length() float64 {
	return r2.Norm(r2.Sub(e.End, e.Start))
}

// Scene is the flattened, translated, bounded representation of a GIS
// footprint dataset, ready for height-grid rasterization.
type Scene struct {
	Buildings []Building
	Edges     []Edge

	// Width and Length bound the scene in the (translated) XY plane; every
	// sensor and rasterized cell must fall within [0,Width] x [0,Length].
	Width, Length float64
}

// Config holds the subset of engine configuration the scene builder and
// sensor layout stages need.
type Config struct {
	NodeWidth          float64
	SensorInset        float64
	SensorNormalOffset float64
	SensorSpacing      float64
	F2FHeight          float64
}
