// Package grid implements the sparse 2-D height field the ray tracer walks
// against: a flat hash map from integer cell coordinates to the maximum
// building-edge height crossing that cell (§4.3, §9).
package grid

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/solartrace/irradiance/internal/scene"
)

// MaxDepth is the quadtree-depth ceiling spec §4.3/§7 impose on the scene's
// longer axis; it bounds the flat grid's addressable extent.
const MaxDepth = 16

// cellKey packs two int32 cell coordinates into one map key.
type cellKey struct{ I, J int32 }

// Grid is a sparse height field. Only cells touched by a rasterized edge
// exist; absent cells are implicitly empty (height 0, inactive).
type Grid struct {
	mu    sync.RWMutex
	cells map[cellKey]*uint64 // height bits stored as math.Float64bits, behind atomic ops

	Depth int // ceil(log2(max_dim)), must be < MaxDepth
}

// New returns an empty grid sized for a scene of the given maximum
// dimension (the larger of width/length).
func New(maxDim float64) (*Grid, error) {
	minNodes := int(math.Ceil(maxDim))
	depth := int(math.Ceil(math.Log2(float64(minNodes))))
	if depth >= MaxDepth {
		return nil, fmt.Errorf("grid: depth %d for scene extent %g is not below the supported ceiling of %d", depth, maxDim, MaxDepth)
	}
	return &Grid{cells: make(map[cellKey]*uint64), Depth: depth}, nil
}

// Active reports whether a cell has ever been touched by rasterization.
func (g *Grid) Active(i, j int) bool {
	g.mu.RLock()
	_, ok := g.cells[cellKey{int32(i), int32(j)}]
	g.mu.RUnlock()
	return ok
}

// Height returns the cell's height, or 0 if the cell is inactive.
func (g *Grid) Height(i, j int) float64 {
	g.mu.RLock()
	p, ok := g.cells[cellKey{int32(i), int32(j)}]
	g.mu.RUnlock()
	if !ok {
		return 0
	}
	return math.Float64frombits(atomic.LoadUint64(p))
}

// AtomicMax raises cell (i,j) to height h if h is greater than the cell's
// current height, creating the cell if it was previously inactive. This is
// the Go stand-in for the spec's GPU atomic_max kernel: first-touch
// allocation is guarded by the map lock, but the height compare-and-swap
// itself is lock-free so concurrent rasterizers racing on an
// already-allocated cell never block each other.
func (g *Grid) AtomicMax(i, j int, h float64) {
	key := cellKey{int32(i), int32(j)}

	g.mu.RLock()
	p, ok := g.cells[key]
	g.mu.RUnlock()

	if !ok {
		g.mu.Lock()
		p, ok = g.cells[key]
		if !ok {
			v := math.Float64bits(h)
			p = &v
			g.cells[key] = p
			g.mu.Unlock()
			return
		}
		g.mu.Unlock()
	}

	for {
		old := atomic.LoadUint64(p)
		if h <= math.Float64frombits(old) {
			return
		}
		if atomic.CompareAndSwapUint64(p, old, math.Float64bits(h)) {
			return
		}
	}
}

// Rasterize walks every edge of sc and atomic-maxes its height into every
// cell the edge crosses, plus the thickening cells on the side opposite its
// outward normal (§4.3). Rasterization is idempotent under repeated calls with the same
// edge list (spec §8, property 5).
func Rasterize(g *Grid, sc *scene.Scene) {
	for i := range sc.Edges {
		rasterizeEdge(g, &sc.Edges[i])
	}
}

func rasterizeEdge(g *Grid, e *scene.Edge) {
	x0, y0 := e.Start.X, e.Start.Y
	x1, y1 := e.End.X, e.End.Y
	h := e.Height
	slope := e.Slope
	theta := e.NormalTheta

	xMin, xMax := math.Min(x0, x1), math.Max(x0, x1)
	yMin, yMax := math.Min(y0, y1), math.Max(y0, y1)

	xStart, xEnd := int(math.Ceil(xMin)), int(math.Floor(xMax))
	yStart, yEnd := int(math.Ceil(yMin)), int(math.Floor(yMax))

	if math.IsInf(slope, 0) {
		// Vertical edge: the x-sweep degenerates (dx=0), so only the
		// y-threshold loop walks the line; it spans the two cells either
		// side of it directly (§9).
		rasterizeVertical(g, x0, yStart, yEnd, h, theta)
		return
	}

	for x := xStart; x <= xEnd; x++ {
		y := slope*(float64(x)-x0) + y0
		yIx := int(math.Floor(y))

		g.AtomicMax(x-1, yIx, h)
		g.AtomicMax(x, yIx, h)

		switch {
		case theta >= 0 && theta < math.Pi/4:
			g.AtomicMax(x-2, yIx, h)
			g.AtomicMax(x-1, yIx, h)
		case theta >= 3*math.Pi/4 && theta < 5*math.Pi/4:
			g.AtomicMax(x, yIx, h)
			g.AtomicMax(x+1, yIx, h)
		case theta >= 7*math.Pi/4 && theta < 2*math.Pi:
			g.AtomicMax(x-2, yIx, h)
			g.AtomicMax(x-1, yIx, h)
		}
	}

	if slope == 0 {
		// Horizontal edge: the y-sweep degenerates (1/slope is infinite and
		// would yield NaN), so the x-sweep above alone walks the line.
		return
	}

	for y := yStart; y <= yEnd; y++ {
		x := (1/slope)*(float64(y)-y0) + x0
		xIx := int(math.Floor(x))

		g.AtomicMax(xIx, y-1, h)
		g.AtomicMax(xIx, y, h)

		switch {
		case theta >= math.Pi/4 && theta < 3*math.Pi/4:
			g.AtomicMax(xIx, y-2, h)
			g.AtomicMax(xIx, y-1, h)
		case theta >= 5*math.Pi/4 && theta < 7*math.Pi/4:
			g.AtomicMax(xIx, y, h)
			g.AtomicMax(xIx, y+1, h)
		}
	}
}

func rasterizeVertical(g *Grid, x0 float64, yStart, yEnd int, h, theta float64) {
	xIx := int(math.Floor(x0))
	for y := yStart; y <= yEnd; y++ {
		g.AtomicMax(xIx, y-1, h)
		g.AtomicMax(xIx, y, h)

		switch {
		case theta >= math.Pi/4 && theta < 3*math.Pi/4:
			g.AtomicMax(xIx, y-2, h)
			g.AtomicMax(xIx, y-1, h)
		case theta >= 5*math.Pi/4 && theta < 7*math.Pi/4:
			g.AtomicMax(xIx, y, h)
			g.AtomicMax(xIx, y+1, h)
		}
	}
}
