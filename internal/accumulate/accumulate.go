// Package accumulate turns a sensor's visibility mask and the resampled
// sky grid into an 8760-hour direct-sky irradiance time series, per §4.6.
package accumulate

import (
	"math"

	"github.com/solartrace/irradiance/internal/scene"
	"github.com/solartrace/irradiance/internal/sky"
	"github.com/solartrace/irradiance/internal/trace"
)

// TimeSeries computes one sensor's annual hourly irradiance by summing,
// over every unobstructed sky direction, that patch's normal irradiance
// projected onto the facade via its cosine incidence factor.
//
// The tracer's azimuth indices are relative to the facade, so each traced
// direction is first converted to a world azimuth by adding the edge's
// AzStartAngle (§4.2) before it is matched to a sky patch and before the
// incidence factor against the facade normal is computed.
func TimeSeries(m *trace.Mask, e *scene.Edge, sg *sky.Grid, nAzimuthsTracer int) []float64 {
	out := make([]float64, sky.Hours)

	azimuthIncTracer := math.Pi / float64(nAzimuthsTracer)
	elevationInc := sg.ElevationalAperture

	for az := 0; az < m.NAzimuths; az++ {
		rayAzimuth := e.AzStartAngle + (float64(az)+0.5)*azimuthIncTracer
		skyAzIx := skyPatchIndex(rayAzimuth, sg.AzimuthalAperture, sg.NAzimuths)

		incidence := math.Cos(angleDiff(rayAzimuth, e.NormalTheta))
		if incidence <= 0 {
			continue
		}

		for el := 0; el < m.NElevations; el++ {
			if !m.Visible(az, el) {
				continue
			}
			elevation := (float64(el) + 0.5) * elevationInc
			factor := incidence * math.Cos(elevation)

			row := sg.NormalIrradiance[el].RawRowView(skyAzIx)
			for h, v := range row {
				out[h] += factor * v
			}
		}
	}
	return out
}

// skyPatchIndex maps a world azimuth angle to the sky grid's patch index
// along that parallel, per §4.6's `floor(az/az_inc) mod n_azimuths`.
func skyPatchIndex(azimuth, azimuthInc float64, nAzimuths int) int {
	a := math.Mod(azimuth, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	ix := int(math.Floor(a / azimuthInc))
	return ((ix % nAzimuths) + nAzimuths) % nAzimuths
}

// angleDiff returns the absolute angular difference between two angles,
// wrapped into [0, pi].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}
