package sensor

import (
	"math"
	"testing"

	"github.com/solartrace/irradiance/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

func testConfig() scene.Config {
	return scene.Config{NodeWidth: 1, SensorInset: 0.5, SensorNormalOffset: 1.5, SensorSpacing: 1, F2FHeight: 3}
}

func straightEdge(length float64, nFloors, sensorCount int) scene.Edge {
	return scene.Edge{
		Start:       r2.Vec{X: 0, Y: 0},
		End:         r2.Vec{X: length, Y: 0},
		SlopeVec:    r2.Vec{X: 1, Y: 0},
		Normal:      r2.Vec{X: 0, Y: -1},
		NFloors:     nFloors,
		SensorStart: 0,
		SensorEnd:   sensorCount,
	}
}

func TestInitXYPlacesExpectedCount(t *testing.T) {
	sc := &scene.Scene{Edges: []scene.Edge{straightEdge(10, 3, 9)}}
	xy := InitXY(sc, testConfig())
	if len(xy) != 9 {
		t.Fatalf("got %d XY sensors, want 9", len(xy))
	}
	for i, s := range xy {
		wantX := 0.5 + float64(i)*1
		if math.Abs(s.Position.X-wantX) > 1e-9 {
			t.Errorf("sensor %d X = %v, want %v", i, s.Position.X, wantX)
		}
		// Offset outward along the normal (0,-1) by 1.5m.
		if math.Abs(s.Position.Y-(-1.5)) > 1e-9 {
			t.Errorf("sensor %d Y = %v, want -1.5", i, s.Position.Y)
		}
	}
}

func TestInitXYZStacksOneSensorPerFloor(t *testing.T) {
	sc := &scene.Scene{Edges: []scene.Edge{straightEdge(10, 3, 2)}}
	xy := InitXY(sc, testConfig())
	xyz := InitXYZ(sc, xy, testConfig())
	if len(xyz) != len(xy)*3 {
		t.Fatalf("got %d XYZ sensors, want %d (2 XY x 3 floors)", len(xyz), len(xy)*3)
	}
	for _, z := range xyz {
		if z.Floor < 0 || z.Floor >= 3 {
			t.Errorf("floor index %d out of range", z.Floor)
		}
	}
}

func TestInitXYZHeightsAreMidWindowPerFloor(t *testing.T) {
	sc := &scene.Scene{Edges: []scene.Edge{straightEdge(10, 2, 1)}}
	xy := InitXY(sc, testConfig())
	xyz := InitXYZ(sc, xy, testConfig())
	want := []float64{0, 4.5} // floor * 1.5 * 3m
	for i, z := range xyz {
		if math.Abs(z.Z-want[i]) > 1e-9 {
			t.Errorf("floor %d height = %v, want %v", i, z.Z, want[i])
		}
	}
}

func TestPosition3MatchesXYAndZ(t *testing.T) {
	sc := &scene.Scene{Edges: []scene.Edge{straightEdge(10, 1, 1)}}
	xy := InitXY(sc, testConfig())
	xyz := InitXYZ(sc, xy, testConfig())
	x, y, z := Position3(xy, xyz[0])
	if x != xy[0].Position.X || y != xy[0].Position.Y || z != xyz[0].Z {
		t.Errorf("Position3 = (%v,%v,%v), want (%v,%v,%v)", x, y, z, xy[0].Position.X, xy[0].Position.Y, xyz[0].Z)
	}
}
