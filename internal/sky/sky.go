// Package sky converts a Tregenza/Reinhart sky-patch radiance time series
// into a regular elevation/azimuth/hour grid consumable by the ray tracer,
// and derives per-patch normal irradiance via solid-angle weighting.
package sky

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Hours is the length of an annual hourly time series.
const Hours = 8760

const deg2rad = math.Pi / 180

// basePatchesPerElevation are the canonical Tregenza patch counts per
// parallel band, after the ground and zenith patches are discarded.
var basePatchesPerElevation = [7]int{30, 30, 24, 24, 18, 12, 6}

// Grid is a regular (elevation x azimuth x hour) radiance/irradiance grid,
// resampled from a Tregenza/Reinhart sky-patch matrix.
type Grid struct {
	NElevations int
	NAzimuths   int // sky azimuth count (= 2 * tracer azimuth count)

	// AzimuthalAperture and ElevationalAperture are the angular step sizes
	// (radians) between adjacent meridians and parallels, respectively.
	AzimuthalAperture   float64
	ElevationalAperture float64

	ElevationCenters []float64
	AzimuthCenters   []float64
	SolidAngles      []float64 // one per elevation band, steradians

	// Radiance and NormalIrradiance are indexed [elevation], each a
	// (NAzimuths x Hours) matrix.
	Radiance         []*mat.Dense
	NormalIrradiance []*mat.Dense
}

// Resample converts a Tregenza/Reinhart sky-patch radiance matrix (P rows,
// Hours columns, where the first row is the ground patch and the last is
// the zenith patch) into a regular (elevation x azimuth x hour) grid with
// nAzimuthsSky patches per parallel band. mfactor is the Reinhart
// subdivision factor the matrix was generated with.
func Resample(raw *mat.Dense, mfactor, nAzimuthsSky int) (*Grid, error) {
	if mfactor < 1 {
		return nil, fmt.Errorf("sky: mfactor must be >= 1, got %d", mfactor)
	}
	if nAzimuthsSky < 2 || nAzimuthsSky%2 != 0 {
		return nil, fmt.Errorf("sky: n_azimuths_sky must be even and >= 2, got %d", nAzimuthsSky)
	}

	rows, hours := raw.Dims()
	if hours != Hours {
		return nil, fmt.Errorf("sky: expected %d hourly columns, got %d", Hours, hours)
	}

	nElevations := 7 * mfactor
	patchesPerElevation := make([]int, nElevations)
	total := 0
	for i := range patchesPerElevation {
		n := basePatchesPerElevation[i/mfactor] * mfactor
		patchesPerElevation[i] = n
		total += n
	}
	if rows != total+2 {
		return nil, fmt.Errorf("sky: matrix has %d rows, expected %d (= %d patches + ground + zenith)", rows, total+2, total)
	}

	g := &Grid{
		NElevations:         nElevations,
		NAzimuths:           nAzimuthsSky,
		AzimuthalAperture:   2 * math.Pi / float64(nAzimuthsSky),
		ElevationalAperture: (90 - 6) * deg2rad / float64(nElevations),
	}
	g.ElevationCenters = make([]float64, nElevations)
	g.AzimuthCenters = make([]float64, nAzimuthsSky)
	g.SolidAngles = make([]float64, nElevations)
	g.Radiance = make([]*mat.Dense, nElevations)
	g.NormalIrradiance = make([]*mat.Dense, nElevations)

	for a := 0; a < nAzimuthsSky; a++ {
		g.AzimuthCenters[a] = g.AzimuthalAperture*float64(a) + g.AzimuthalAperture/2
	}

	// Skip the ground patch (row 0); the zenith patch (last row) is never
	// reached since bandStart/bandEnd only span `total` rows.
	bandStart := 1
	for e := 0; e < nElevations; e++ {
		n := patchesPerElevation[e]
		band := raw.Slice(bandStart, bandStart+n, 0, hours)
		bandStart += n

		g.ElevationCenters[e] = g.ElevationalAperture*float64(e) + g.ElevationalAperture/2
		elevationStart := g.ElevationalAperture * float64(e)
		elevationTop := elevationStart + g.ElevationalAperture
		g.SolidAngles[e] = g.AzimuthalAperture * (math.Sin(elevationTop) - math.Sin(elevationStart))

		g.Radiance[e] = resampleBand(band, n, nAzimuthsSky, hours)

		irr := mat.NewDense(nAzimuthsSky, hours, nil)
		irr.Scale(g.SolidAngles[e], g.Radiance[e])
		g.NormalIrradiance[e] = irr
	}

	return g, nil
}

// resampleBand converts one parallel band's n native patches into
// nAzimuths patches, per §4.1: subdivide to the LCM of the two patch
// counts, then average consecutive groups back down to nAzimuths. Because
// all sub-patches in a band share solid angle, the arithmetic mean equals
// the solid-angle-weighted mean.
func resampleBand(band mat.Matrix, n, nAzimuths, hours int) *mat.Dense {
	l := lcm(n, nAzimuths)
	k := l / n             // subdivision factor
	group := l / nAzimuths // grouping factor

	out := mat.NewDense(nAzimuths, hours, nil)
	acc := make([]float64, hours)
	for a := 0; a < nAzimuths; a++ {
		for i := range acc {
			acc[i] = 0
		}
		for gi := 0; gi < group; gi++ {
			srcRow := (a*group + gi) / k
			for t := 0; t < hours; t++ {
				acc[t] += band.At(srcRow, t)
			}
		}
		inv := 1 / float64(group)
		for t := range acc {
			acc[t] *= inv
		}
		out.SetRow(a, acc)
	}
	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
