package scene

import (
	"math"
	"testing"

	"github.com/solartrace/irradiance/internal/gisio"
	"gonum.org/v1/gonum/spatial/r2"
)

// square returns a clockwise-wound ring (the Esri shapefile / GeoPandas
// exterior-ring convention the engine assumes, per gisio.Row).
func square(x0, y0, side float64) []r2.Vec {
	return []r2.Vec{
		{X: x0, Y: y0},
		{X: x0, Y: y0 + side},
		{X: x0 + side, Y: y0 + side},
		{X: x0 + side, Y: y0},
	}
}

func testConfig() Config {
	return Config{NodeWidth: 1, SensorInset: 0.5, SensorNormalOffset: 1.5, SensorSpacing: 1, F2FHeight: 3}
}

func TestBuildSingleSquareBuilding(t *testing.T) {
	rows := []gisio.Row{
		{ID: "a", Height: 9, Archetype: "res", Polygons: [][]r2.Vec{square(0, 0, 10)}},
	}
	sc, err := Build(rows, []int16{0}, testConfig(), 2*math.Pi/72)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(sc.Buildings) != 1 {
		t.Fatalf("got %d buildings, want 1", len(sc.Buildings))
	}
	if len(sc.Edges) != 4 {
		t.Fatalf("got %d edges, want 4", len(sc.Edges))
	}
	b := sc.Buildings[0]
	if b.NFloors != 3 {
		t.Errorf("NFloors = %d, want 3 (ceil(9/3))", b.NFloors)
	}
	sum := b.NorthWeight + b.EastWeight + b.SouthWeight + b.WestWeight
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("cardinal weight sum = %v, want 1", sum)
	}
	// A square has four equal-length edges, so each cardinal direction
	// gets an equal share.
	for name, w := range map[string]float64{
		"north": b.NorthWeight, "east": b.EastWeight,
		"south": b.SouthWeight, "west": b.WestWeight,
	} {
		if math.Abs(w-0.25) > 1e-6 {
			t.Errorf("%s weight = %v, want ~0.25", name, w)
		}
	}
}

func TestQualifyWeightsDropsShortEdges(t *testing.T) {
	// A 1.5m x 5m rectangle with two edges under the 2m qualification threshold.
	ring := []r2.Vec{{X: 0, Y: 0}, {X: 1.5, Y: 0}, {X: 1.5, Y: 5}, {X: 0, Y: 5}}
	rows := []gisio.Row{{ID: "a", Height: 3, Archetype: "res", Polygons: [][]r2.Vec{ring}}}
	sc, err := Build(rows, []int16{0}, testConfig(), 2*math.Pi/72)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i, e := range sc.Edges {
		if e.Length() < 2 && e.QualifiedLength != 0 {
			t.Errorf("edge %d (len %v) should have zero qualified length", i, e.Length())
		}
	}
}

func TestAssignSensorRangesMonotonic(t *testing.T) {
	rows := []gisio.Row{{ID: "a", Height: 3, Archetype: "res", Polygons: [][]r2.Vec{square(0, 0, 20)}}}
	sc, err := Build(rows, []int16{0}, testConfig(), 2*math.Pi/72)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	next := 0
	for i, e := range sc.Edges {
		if e.SensorStart != next {
			t.Errorf("edge %d: SensorStart = %d, want %d", i, e.SensorStart, next)
		}
		if e.SensorEnd < e.SensorStart {
			t.Errorf("edge %d: SensorEnd %d < SensorStart %d", i, e.SensorEnd, e.SensorStart)
		}
		next = e.SensorEnd
	}
}

func TestBuildEmptyGIS(t *testing.T) {
	sc, err := Build(nil, nil, testConfig(), 2*math.Pi/72)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(sc.Buildings) != 0 || len(sc.Edges) != 0 {
		t.Errorf("expected an empty scene, got %d buildings, %d edges", len(sc.Buildings), len(sc.Edges))
	}
}

func TestOrientationWeightsSumToOne(t *testing.T) {
	for theta := 0.0; theta < 2*math.Pi; theta += 0.37 {
		n, e, s, w := orientationWeights(theta)
		sum := n + e + s + w
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("orientationWeights(%v) sums to %v, want 1", theta, sum)
		}
		if n < 0 || e < 0 || s < 0 || w < 0 {
			t.Errorf("orientationWeights(%v) has a negative component: %v %v %v %v", theta, n, e, s, w)
		}
	}
}
