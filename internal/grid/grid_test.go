package grid

import (
	"math"
	"sync"
	"testing"

	"github.com/solartrace/irradiance/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestAtomicMaxKeepsHighestValue(t *testing.T) {
	g, err := New(100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g.AtomicMax(5, 5, 3)
	g.AtomicMax(5, 5, 7)
	g.AtomicMax(5, 5, 4)
	if h := g.Height(5, 5); h != 7 {
		t.Errorf("Height(5,5) = %v, want 7 (max of 3,7,4)", h)
	}
}

func TestAtomicMaxConcurrentWritesConverge(t *testing.T) {
	g, err := New(100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.AtomicMax(1, 1, float64(i))
		}()
	}
	wg.Wait()
	if h := g.Height(1, 1); h != 50 {
		t.Errorf("Height(1,1) = %v, want 50", h)
	}
}

func TestInactiveCellHeightIsZero(t *testing.T) {
	g, err := New(100)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if g.Active(9, 9) {
		t.Error("untouched cell reported as active")
	}
	if h := g.Height(9, 9); h != 0 {
		t.Errorf("Height of an untouched cell = %v, want 0", h)
	}
}

func TestRasterizeIsIdempotent(t *testing.T) {
	sc := &scene.Scene{
		Edges: []scene.Edge{
			{Start: r2.Vec{X: 0, Y: 0}, End: r2.Vec{X: 0, Y: 20}, Slope: math.Inf(1), NormalTheta: 0, Height: 12},
		},
		Width: 30, Length: 30,
	}
	g1, _ := New(100)
	grid1 := snapshot(t, g1, sc)

	g2, _ := New(100)
	Rasterize(g2, sc)
	Rasterize(g2, sc)
	grid2 := snapshotHeights(g2, 30, 30)

	for i := range grid1 {
		if grid1[i] != grid2[i] {
			t.Fatalf("rasterizing twice changed cell %d: %v vs %v", i, grid1[i], grid2[i])
		}
	}
}

func TestNewRejectsExcessiveDepth(t *testing.T) {
	if _, err := New(1 << 20); err == nil {
		t.Error("expected an error for a scene far exceeding the depth ceiling")
	}
}

func snapshot(t *testing.T, g *Grid, sc *scene.Scene) []float64 {
	t.Helper()
	Rasterize(g, sc)
	return snapshotHeights(g, 30, 30)
}

func snapshotHeights(g *Grid, w, l int) []float64 {
	out := make([]float64, w*l)
	for x := 0; x < w; x++ {
		for y := 0; y < l; y++ {
			out[x*l+y] = g.Height(x, y)
		}
	}
	return out
}
