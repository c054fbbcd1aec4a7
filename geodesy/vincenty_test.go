package geodesy

import (
	"math/rand"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestVincentyDirectInverseConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, d := range []float64{1, 250, 10e3, 500e3, 2500e3, 10000e3} {
		for iter := 0; iter < 50; iter++ {
			lon := rng.Float64()*360 - 180
			lat := rng.Float64()*140 - 70
			heading := rng.Float64() * 360

			dst := VincentyDirect(lon, lat, d, heading, WGS84)
			assert.True(t, dst.Converged, "direct did not converge")

			inv := VincentyInverse(lon, lat, dst.Lon, dst.Lat, WGS84)
			if d < 2 {
				// Below the coincidence threshold the inverse reports zero.
				continue
			}
			assert.True(t, inv.Converged, "inverse did not converge for d=%v", d)
			assertNear(t, inv.Distance, d, 1, "d=%v heading=%v from (%v,%v)", d, heading, lon, lat)
			if d > 1e3 {
				assertNear(t, angleDiff(inv.Heading1, heading), 0, 1e-5, "heading1 %v want %v", inv.Heading1, heading)
				assertNear(t, angleDiff(inv.Heading2, dst.BackHeading), 0, 1e-5, "heading2 %v want %v", inv.Heading2, dst.BackHeading)
			}
		}
	}
}

func angleDiff(a, b float64) float64 {
	d := normalizeHeading(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func TestVincentyInverseKnown(t *testing.T) {
	// Flinders Peak to Buninyong, Vincenty (1975) test line.
	inv := VincentyInverse(144.4248679, -37.9510334, 143.9264955, -37.6528211, WGS84)
	assertNear(t, inv.Distance, 54972.271, 0.01)
	assertNear(t, inv.Heading1, 306.8681, 1e-3)
}

func TestVincentyInverseCoincident(t *testing.T) {
	inv := VincentyInverse(10, 45, 10+5e-6, 45-5e-6, WGS84)
	assert.Equal(t, Inverse{Distance: 0, Heading1: -1, Heading2: -1, Converged: true}, inv)
}

func TestVincentyDirectSphere(t *testing.T) {
	s := Sphere(6371000)
	// A quarter of a great circle due north from the equator reaches the pole.
	d := s.A * 3.141592653589793 / 2
	dst := VincentyDirect(20, 0, d, 0, s)
	assertNear(t, dst.Lat, 90, 1e-9)

	// Due east along the equator.
	dst = VincentyDirect(170, 0, s.A*3.141592653589793/9, 90, s)
	assertNear(t, dst.Lat, 0, 1e-9)
	assertNear(t, dst.Lon, -170, 1e-9)
	assertNear(t, dst.BackHeading, 270, 1e-9)
}
