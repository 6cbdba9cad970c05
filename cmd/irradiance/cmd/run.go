package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/solartrace/irradiance/internal/engine"
	"github.com/solartrace/irradiance/internal/gisio"
	"github.com/solartrace/irradiance/internal/scene"
	"github.com/solartrace/irradiance/internal/trace"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

var runFlags struct {
	gisPath  string
	skyPath  string
	outPath  string
	cacheDir string

	nodeWidth          float64
	sensorInset        float64
	sensorNormalOffset float64
	sensorSpacing      float64
	f2fHeight          float64

	mfactor      int
	nAzimuthsSky int
	rayStep      float64
	maxRayLength float64
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trace one GIS footprint dataset against one sky-radiance matrix",
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.gisPath, "gis", "", "path to a GIS footprint JSON file (required)")
	f.StringVar(&runFlags.skyPath, "sky", "", "path to an 8760-column sky-radiance matrix CSV (required)")
	f.StringVar(&runFlags.outPath, "out", "results.sqlite", "output sqlite database path")
	f.StringVar(&runFlags.cacheDir, "cache-dir", ".irradiance-cache", "directory for memoized intermediate results")

	f.Float64Var(&runFlags.nodeWidth, "node-width", 1, "height grid cell size, meters")
	f.Float64Var(&runFlags.sensorInset, "sensor-inset", 0.5, "distance from an edge endpoint to its first sensor, meters")
	f.Float64Var(&runFlags.sensorNormalOffset, "sensor-normal-offset", 1.5, "sensor distance off the facade along the outward normal, meters")
	f.Float64Var(&runFlags.sensorSpacing, "sensor-spacing", 1, "spacing between consecutive sensors along an edge, meters")
	f.Float64Var(&runFlags.f2fHeight, "floor-to-floor-height", 3, "story height, meters")

	f.IntVar(&runFlags.mfactor, "reinhart-mf", 1, "Reinhart sky subdivision factor")
	f.IntVar(&runFlags.nAzimuthsSky, "sky-azimuths", 144, "sky grid azimuth count (must be even)")
	f.Float64Var(&runFlags.rayStep, "ray-step", 1, "ray march step size, meters")
	f.Float64Var(&runFlags.maxRayLength, "max-ray-length", 400, "ray march cutoff distance, meters")

	_ = runCmd.MarkFlagRequired("gis")
	_ = runCmd.MarkFlagRequired("sky")
}

func runRun(c *cobra.Command, args []string) error {
	gisTable, err := loadGIS(runFlags.gisPath)
	if err != nil {
		return fmt.Errorf("loading gis file: %w", err)
	}

	rawSky, err := loadSkyMatrix(runFlags.skyPath)
	if err != nil {
		return fmt.Errorf("loading sky matrix: %w", err)
	}

	cfg := engine.Config{
		Scene: scene.Config{
			NodeWidth:          runFlags.nodeWidth,
			SensorInset:        runFlags.sensorInset,
			SensorNormalOffset: runFlags.sensorNormalOffset,
			SensorSpacing:      runFlags.sensorSpacing,
			F2FHeight:          runFlags.f2fHeight,
		},
		Trace: trace.Config{
			RayStepSize:  runFlags.rayStep,
			MaxRayLength: runFlags.maxRayLength,
		},
		MFactor:      runFlags.mfactor,
		NAzimuthsSky: runFlags.nAzimuthsSky,
		CacheDir:     runFlags.cacheDir,
		OutputPath:   runFlags.outPath,
	}

	return engine.Run(context.Background(), logger, gisTable, rawSky, cfg)
}

// gisDocument is the boundary JSON schema the engine accepts in place of
// real shapefile/GeoJSON ingestion, which spec'd out-of-scope external
// tooling is responsible for producing (§1).
type gisDocument struct {
	Rows []struct {
		ID        string        `json:"id"`
		Height    float64       `json:"height"`
		Archetype string        `json:"archetype"`
		Polygons  [][][2]float64 `json:"polygons"`
	} `json:"rows"`
}

func loadGIS(path string) (*gisio.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc gisDocument
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return nil, err
	}

	table := &gisio.Table{Rows: make([]gisio.Row, len(doc.Rows))}
	for i, r := range doc.Rows {
		row := gisio.Row{ID: r.ID, Height: r.Height, Archetype: r.Archetype}
		for _, ring := range r.Polygons {
			pts := make([]r2.Vec, len(ring))
			for j, p := range ring {
				pts[j] = r2.Vec{X: p[0], Y: p[1]}
			}
			row.Polygons = append(row.Polygons, pts)
		}
		table.Rows[i] = row
	}
	return table, nil
}

// loadSkyMatrix reads a CSV of sky-patch radiance values, one row per
// patch (ground patch first, zenith patch last) and one column per hour
// of the year, into a dense matrix for sky.Resample.
func loadSkyMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = false
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sky matrix file is empty")
	}

	rows := len(records)
	cols := len(records[0])
	data := make([]float64, rows*cols)
	for i, rec := range records {
		if len(rec) != cols {
			return nil, fmt.Errorf("sky matrix row %d has %d columns, expected %d", i, len(rec), cols)
		}
		for j, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("sky matrix row %d col %d: %w", i, j, err)
			}
			data[i*cols+j] = v
		}
	}
	return mat.NewDense(rows, cols, data), nil
}
