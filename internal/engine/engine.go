// Package engine orchestrates the full pipeline: scene extraction, height
// grid rasterization, sensor layout, ray tracing, and hourly irradiance
// accumulation, with disk caching of the trace stage and a
// fatal/tolerated error split matching §7.
package engine

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math"

	"github.com/solartrace/irradiance/internal/accumulate"
	"github.com/solartrace/irradiance/internal/cache"
	"github.com/solartrace/irradiance/internal/gisio"
	"github.com/solartrace/irradiance/internal/grid"
	"github.com/solartrace/irradiance/internal/scene"
	"github.com/solartrace/irradiance/internal/sensor"
	"github.com/solartrace/irradiance/internal/sky"
	"github.com/solartrace/irradiance/internal/store"
	"github.com/solartrace/irradiance/internal/trace"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// FatalError wraps an error that aborts the whole run, as opposed to a
// per-sensor or per-edge condition the engine tolerates and logs (§7).
type FatalError struct{ Err error }

func (e *FatalError) Error() string { return "engine: fatal: " + e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// Config is the full set of §6 configuration options the engine needs.
type Config struct {
	Scene scene.Config
	Trace trace.Config

	MFactor      int // Reinhart sky subdivision factor
	NAzimuthsSky int // must be even; tracer uses half this many

	CacheDir   string
	OutputPath string // sqlite destination for the result table
}

// Run executes the full pipeline over gisTable and rawSky, writing one row
// per XYZ sensor to a sqlite database at cfg.OutputPath.
func Run(ctx context.Context, log *zap.Logger, gisTable *gisio.Table, rawSky *mat.Dense, cfg Config) error {
	if err := gisTable.Validate(); err != nil {
		return &FatalError{err}
	}

	c := cache.New(cfg.CacheDir)

	archetypeIDs := gisTable.InternArchetypes()

	skyGrid, err := sky.Resample(rawSky, cfg.MFactor, cfg.NAzimuthsSky)
	if err != nil {
		return &FatalError{fmt.Errorf("resampling sky matrix: %w", err)}
	}

	nAzimuthsTracer := cfg.NAzimuthsSky / 2
	// The tracer's azimuth increment equals the sky grid's azimuthal
	// aperture (2*pi/n_azimuths_sky = pi/n_azimuths_tracer), per invariant 5:
	// each sensor's rays sweep a 180-degree facade-facing arc, not a full
	// circle.
	azimuthIncTracer := skyGrid.AzimuthalAperture

	sc, err := scene.Build(gisTable.Rows, archetypeIDs, cfg.Scene, azimuthIncTracer)
	if err != nil {
		return &FatalError{fmt.Errorf("building scene: %w", err)}
	}
	log.Info("scene built", zap.Int("buildings", len(sc.Buildings)), zap.Int("edges", len(sc.Edges)))

	maxDim := math.Max(sc.Width, sc.Length)
	hGrid, err := grid.New(maxDim)
	if err != nil {
		return &FatalError{fmt.Errorf("sizing height grid: %w", err)}
	}
	grid.Rasterize(hGrid, sc)

	xy := sensor.InitXY(sc, cfg.Scene)
	xyz := sensor.InitXYZ(sc, xy, cfg.Scene)
	log.Info("sensors placed", zap.Int("xy", len(xy)), zap.Int("xyz", len(xyz)))

	cfg.Trace.NAzimuths = nAzimuthsTracer
	cfg.Trace.NElevations = skyGrid.NElevations
	cfg.Trace.ElevationInc = skyGrid.ElevationalAperture

	masks, err := traceCached(ctx, c, log, hGrid, sc, xy, xyz, skyGrid, cfg)
	if err != nil {
		return &FatalError{fmt.Errorf("tracing: %w", err)}
	}

	rows := make([]store.SensorRow, len(xyz))
	for i, z := range xyz {
		s := xy[z.XYIndex]
		e := &sc.Edges[s.EdgeID]
		b := &sc.Buildings[e.BuildingID]

		series := accumulate.TimeSeries(masks[i], e, skyGrid, nAzimuthsTracer)
		total := 0.0
		for _, v := range series {
			total += v
		}

		rows[i] = store.SensorRow{
			BuildingIndex: e.BuildingID,
			Archetype:     b.Archetype,
			Height:        b.Height,
			NFloors:       b.NFloors,
			EdgeIndex:     s.EdgeID,
			Orientation:   e.Orientation.String(),
			EdgeWeight:    e.Weight,
			XYIndex:       z.XYIndex,
			X:             s.Position.X,
			Y:             s.Position.Y,
			Floor:         z.Floor,
			Z:             z.Z,
			AnnualKWhM2:   total / 1000,
			Hourly:        encodeHourly(series),
		}
	}

	db, err := store.Open(cfg.OutputPath)
	if err != nil {
		return &FatalError{err}
	}
	defer db.Close()

	if err := db.InsertBatch(rows); err != nil {
		return &FatalError{fmt.Errorf("writing results: %w", err)}
	}

	log.Info("run complete", zap.Int("sensors", len(rows)))
	return nil
}

func traceCached(ctx context.Context, c *cache.Cache, log *zap.Logger, hGrid *grid.Grid, sc *scene.Scene, xy []sensor.XY, xyz []sensor.XYZ, skyGrid *sky.Grid, cfg Config) ([]*trace.Mask, error) {
	key, err := c.MakeKey(sc.Width, sc.Length, sc.Edges, xy, xyz, cfg.Trace)
	if err == nil {
		var cached [][]uint64
		if key.Load(&cached) {
			log.Info("trace cache hit", zap.Int("sensors", len(cached)))
			return decodeMasks(cached, cfg.Trace.NAzimuths, cfg.Trace.NElevations), nil
		}
	}

	masks, err := trace.Run(ctx, hGrid, sc.Width, sc.Length, xy, xyz, sc.Edges, skyGrid, cfg.Trace)
	if err != nil {
		return nil, err
	}

	if key != nil {
		key.Save(log, encodeMasks(masks))
	}
	return masks, nil
}

func encodeHourly(series []float64) []byte {
	// Stored as a gob-encoded []float64 blob; sqlite has no native array
	// column and the series is only ever read back whole.
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(series); err != nil {
		panic("engine: encoding hourly series: " + err.Error())
	}
	return buf.Bytes()
}

func encodeMasks(masks []*trace.Mask) [][]uint64 {
	out := make([][]uint64, len(masks))
	for i, m := range masks {
		out[i] = m.Bits()
	}
	return out
}

func decodeMasks(bits [][]uint64, nAz, nEl int) []*trace.Mask {
	out := make([]*trace.Mask, len(bits))
	for i, b := range bits {
		out[i] = trace.FromBits(nAz, nEl, b)
	}
	return out
}
