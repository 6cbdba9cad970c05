package sky

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func assertClose(t *testing.T, msg string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (+/- %v)", msg, got, want, tol)
	}
}

func totalPatches() int {
	n := 0
	for _, p := range basePatchesPerElevation {
		n += p
	}
	return n
}

func uniformMatrix(radiance float64) *mat.Dense {
	rows := totalPatches() + 2
	data := make([]float64, rows*Hours)
	for i := range data {
		data[i] = radiance
	}
	return mat.NewDense(rows, Hours, data)
}

func TestResampleUniformRadianceIdentity(t *testing.T) {
	raw := uniformMatrix(5)
	g, err := Resample(raw, 1, 144)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if g.NElevations != 7 {
		t.Fatalf("NElevations = %d, want 7", g.NElevations)
	}
	for e := 0; e < g.NElevations; e++ {
		for a := 0; a < g.NAzimuths; a++ {
			got := g.Radiance[e].At(a, 0)
			assertClose(t, "resampled uniform radiance", got, 5, 1e-9)
		}
	}
}

func TestResampleRejectsOddAzimuthCount(t *testing.T) {
	raw := uniformMatrix(1)
	if _, err := Resample(raw, 1, 3); err == nil {
		t.Error("expected an error for an odd sky azimuth count")
	}
}

func TestResampleRejectsWrongHourCount(t *testing.T) {
	raw := mat.NewDense(totalPatches()+2, 100, nil)
	if _, err := Resample(raw, 1, 144); err == nil {
		t.Error("expected an error for a non-8760-hour matrix")
	}
}

func TestSolidAnglesSumToBandedSky(t *testing.T) {
	raw := uniformMatrix(1)
	g, err := Resample(raw, 1, 144)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	sum := 0.0
	for _, sa := range g.SolidAngles {
		sum += sa * float64(g.NAzimuths)
	}
	// The bands run from the horizon up to 84 degrees (the zenith cap is
	// dropped), covering a solid angle of 2*pi*(sin(84deg) - sin(0deg)).
	want := 2 * math.Pi * math.Sin(84*deg2rad)
	assertClose(t, "total sky solid angle", sum, want, 1e-6)
}

func TestLCM(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{30, 72, 360},
		{24, 144, 144},
		{6, 144, 144},
	}
	for _, c := range cases {
		if got := lcm(c.a, c.b); got != c.want {
			t.Errorf("lcm(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
