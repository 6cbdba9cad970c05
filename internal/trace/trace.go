// Package trace walks a ray from each window-height sensor toward every
// sky direction and records whether a neighboring building obstructs it,
// per §4.5. It implements only the unified trace: grid height and sensor
// height are compared directly along a single horizontal ray per
// direction, without a separate coarse/fine pass.
package trace

import (
	"context"
	"math"

	"github.com/solartrace/irradiance/internal/grid"
	"github.com/solartrace/irradiance/internal/scene"
	"github.com/solartrace/irradiance/internal/sensor"
	"github.com/solartrace/irradiance/internal/sky"
	"golang.org/x/sync/errgroup"
)

// Config holds the ray-walk parameters of §6.
type Config struct {
	RayStepSize   float64
	MaxRayLength  float64
	NAzimuths     int // tracer azimuth count; sky.Grid.NAzimuths / 2
	ElevationInc  float64
	NElevations   int
}

// Mask is a dense visibility bitmask for one sensor: bit (az*NElevations+el)
// is set when the sensor can see sky direction (az, el) unobstructed.
type Mask struct {
	NAzimuths, NElevations int
	bits                   []uint64
}

func newMask(nAz, nEl int) *Mask {
	n := nAz * nEl
	return &Mask{NAzimuths: nAz, NElevations: nEl, bits: make([]uint64, (n+63)/64)}
}

func (m *Mask) set(az, el int) {
	i := az*m.NElevations + el
	m.bits[i/64] |= 1 << uint(i%64)
}

// Visible reports whether direction (az, el) is unobstructed.
func (m *Mask) Visible(az, el int) bool {
	i := az*m.NElevations + el
	return m.bits[i/64]&(1<<uint(i%64)) != 0
}

// Bits returns the mask's underlying word array, for caching.
func (m *Mask) Bits() []uint64 { return m.bits }

// FromBits reconstructs a Mask previously produced by Bits, for cache
// loads.
func FromBits(nAz, nEl int, bits []uint64) *Mask {
	return &Mask{NAzimuths: nAz, NElevations: nEl, bits: bits}
}

// Run traces every XYZ sensor against the full (azimuth, elevation) sky
// direction set and returns one Mask per sensor, indexed the same as xyz.
// Sensors are traced concurrently; each sensor's directions are
// independent so no synchronization is needed within a sensor's work unit
// (§5, §9). edges supplies each sensor's parent edge, whose AzStartAngle
// rotates the tracer's facade-relative azimuth indices into world azimuths
// (§4.5), matching how accumulate.TimeSeries interprets the same bits.
func Run(ctx context.Context, g *grid.Grid, width, length float64, xy []sensor.XY, xyz []sensor.XYZ, edges []scene.Edge, sg *sky.Grid, cfg Config) ([]*Mask, error) {
	masks := make([]*Mask, len(xyz))

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(maxWorkers())

	for i := range xyz {
		i := i
		grp.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			x, y, z := sensor.Position3(xy, xyz[i])
			azStart := edges[xy[xyz[i].XYIndex].EdgeID].AzStartAngle
			masks[i] = traceSensor(g, width, length, x, y, z, azStart, cfg)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return masks, nil
}

func maxWorkers() int {
	return 64
}

func traceSensor(g *grid.Grid, width, length, x0, y0, z0, azStart float64, cfg Config) *Mask {
	m := newMask(cfg.NAzimuths, cfg.NElevations)
	azimuthInc := math.Pi / float64(cfg.NAzimuths)

	for az := 0; az < cfg.NAzimuths; az++ {
		azimuth := azStart + (float64(az)+0.5)*azimuthInc
		for el := 0; el < cfg.NElevations; el++ {
			elevation := (float64(el)+0.5)*cfg.ElevationInc
			if !obstructed(g, width, length, x0, y0, z0, azimuth, elevation, cfg) {
				m.set(az, el)
			}
		}
	}
	return m
}

// obstructed walks a horizontal ray from (x0,y0) toward azimuth, stepping
// by RayStepSize up to MaxRayLength, and reports whether any rasterized
// cell along the way rises high enough to block the sky direction at the
// given elevation angle. The ray terminates early, unobstructed, the
// moment it leaves the scene bounds (§4.5, §9).
func obstructed(g *grid.Grid, width, length, x0, y0, z0, azimuth, elevation float64, cfg Config) bool {
	dirX, dirY := math.Cos(azimuth), math.Sin(azimuth)
	inDomain := func(x, y float64) bool {
		return x >= 0 && x <= width && y >= 0 && y <= length
	}
	if !inDomain(x0, y0) {
		return false
	}

	for dist := cfg.RayStepSize; dist <= cfg.MaxRayLength; dist += cfg.RayStepSize {
		x := x0 + dirX*dist
		y := y0 + dirY*dist
		if !inDomain(x, y) {
			return false
		}
		h := g.Height(int(math.Floor(x)), int(math.Floor(y)))
		if h <= z0 {
			continue
		}
		theta := math.Atan2(h-z0, dist)
		if theta > elevation {
			return true
		}
	}
	return false
}
