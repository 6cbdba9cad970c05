// Package report renders a sensor's annual hourly irradiance time series
// as a day-of-year x time-of-day heat map, the one visualization surface
// the engine exposes (§9, supplemented).
package report

import (
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
)

// epoch is the reference start-of-year used to label the x axis; the
// time series itself is calendar-agnostic (hour 0 = Jan 1, 00:00).
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// SensorHeatMap builds a 365 x 24 heat map of an hourly irradiance series
// (W/m^2, as returned by the accumulate package), labeled title.
func SensorHeatMap(hours []float64, title string) (*plot.Plot, error) {
	if len(hours)%24 != 0 {
		return nil, fmt.Errorf("report: hourly series length %d is not a multiple of 24", len(hours))
	}
	days := len(hours) / 24

	plt := plot.New()
	plt.Title.Text = title
	plt.X.Tick.Marker = dayOfYearTicks{}
	plt.X.Label.Text = "Day of year"
	plt.Y.Tick.Marker = timeOfDayTicks{6}
	plt.Y.Label.Text = "Time of day"

	grid := &irradianceGrid{hours: hours, days: days, max: floats.Max(hours)}

	pal := palette.Heat(256, 1)
	hm := plotter.NewHeatMap(grid, pal)
	hm.Underflow = color.Black
	hm.Overflow = color.White
	hm.Rasterized = true
	plt.Add(hm)

	thumbs := plotter.PaletteThumbnailers(pal)
	plt.Legend.Add("Low", thumbs[0])
	plt.Legend.Add("High", thumbs[len(thumbs)-1])

	return plt, nil
}

// irradianceGrid adapts an hourly series to gonum/plot's GridXYZ interface:
// columns are days, rows are hours within the day.
type irradianceGrid struct {
	hours []float64
	days  int
	max   float64
}

func (g *irradianceGrid) Dims() (c, r int) { return g.days, 24 }

func (g *irradianceGrid) Z(c, r int) float64 {
	return g.hours[c*24+r]
}

func (g *irradianceGrid) X(c int) float64 {
	return float64(epoch.Add(time.Duration(c) * 24 * time.Hour).Unix())
}

func (g *irradianceGrid) Y(r int) float64 {
	return float64(time.Duration(r) * time.Hour)
}

func (g *irradianceGrid) Min() float64 { return 0 }

func (g *irradianceGrid) Max() float64 {
	if g.max <= 0 {
		return 1
	}
	return g.max
}
