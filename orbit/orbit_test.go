package orbit

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/golang/geo/r3"

	"github.com/gogpu/terrain/geodesy"
	"github.com/gogpu/terrain/polyfit"
)

// cubicOrbit samples a trajectory whose axes are exact cubics in time.
func cubicOrbit(times []float64) []StateVector {
	p0 := r3.Vector{X: 4.1e6, Y: 1.2e6, Z: 5.3e6}
	v0 := r3.Vector{X: -2100, Y: 6900, Z: 1800}
	acc := r3.Vector{X: -4.6, Y: -1.3, Z: -5.9}
	jerk := r3.Vector{X: 0.004, Y: -0.002, Z: 0.001}

	out := make([]StateVector, len(times))
	for i, t := range times {
		out[i] = StateVector{
			Time:     t,
			Position: p0.Add(v0.Mul(t)).Add(acc.Mul(t * t / 2)).Add(jerk.Mul(t * t * t / 6)),
			Velocity: v0.Add(acc.Mul(t)).Add(jerk.Mul(t * t / 2)),
		}
	}
	return out
}

// circularOrbit samples a polar circular orbit of radius r.
func circularOrbit(times []float64, r float64) []StateVector {
	w := math.Sqrt(3.986004418e14/(r*r*r)) // rad/s
	out := make([]StateVector, len(times))
	for i, t := range times {
		s, c := math.Sincos(w * t)
		out[i] = StateVector{
			Time:     t,
			Position: r3.Vector{X: r * c, Z: r * s},
			Velocity: r3.Vector{X: -r * w * s, Z: r * w * c},
		}
	}
	return out
}

func TestOrbitExactCubic(t *testing.T) {
	times := []float64{1000, 1010, 1020, 1030, 1040, 1050, 1060}
	vectors := cubicOrbit(times)
	o, err := New(vectors, 3)
	assert.NoError(t, err)

	want := cubicOrbit([]float64{1000, 1017.5, 1033.3, 1060})
	for _, sv := range want {
		got := o.State(sv.Time)
		assert.True(t, got.Position.Sub(sv.Position).Norm() < 1e-3, "t=%v position off by %v", sv.Time, got.Position.Sub(sv.Position).Norm())
		assert.True(t, got.Velocity.Sub(sv.Velocity).Norm() < 1e-6, "t=%v velocity off by %v", sv.Time, got.Velocity.Sub(sv.Velocity).Norm())
	}

	first, last := o.Interval()
	assert.Equal(t, 1000.0, first)
	assert.Equal(t, 1060.0, last)
}

func TestOrbitUnsortedInput(t *testing.T) {
	times := []float64{1060, 1000, 1030, 1010, 1050, 1020, 1040}
	o, err := New(cubicOrbit(times), 3)
	assert.NoError(t, err)

	want := cubicOrbit([]float64{1025})[0]
	assert.True(t, o.Position(1025).Sub(want.Position).Norm() < 1e-3)

	first, last := o.Interval()
	assert.Equal(t, 1000.0, first)
	assert.Equal(t, 1060.0, last)
}

func TestOrbitCircular(t *testing.T) {
	times := []float64{0, 10, 20, 30, 40, 50, 60}
	const r = 7.07e6
	o, err := New(circularOrbit(times, r), 3)
	assert.NoError(t, err)

	for _, tt := range []float64{5, 25, 30, 55} {
		want := circularOrbit([]float64{tt}, r)[0]
		assert.True(t, o.Position(tt).Sub(want.Position).Norm() < 1, "t=%v", tt)
		assert.True(t, o.Velocity(tt).Sub(want.Velocity).Norm() < 0.1, "t=%v", tt)
	}
}

func TestOrbitErrors(t *testing.T) {
	_, err := New(cubicOrbit([]float64{0, 10, 20}), 3)
	assert.IsError(t, err, ErrTooFewStateVectors)

	_, err = New(cubicOrbit([]float64{0, 10, 10, 20}), 2)
	assert.IsError(t, err, ErrUnorderedStateVectors)

	_, err = New(cubicOrbit([]float64{0, 10}), -1)
	assert.IsError(t, err, polyfit.ErrInvalidArgument)
}

// linearPass builds a straight-line pass that sees target at zero Doppler
// at time 0, together with the two-way range time to target.
func linearPass(target r3.Vector, lat, lon float64) ([]StateVector, float64) {
	sinLat, cosLat := math.Sincos(lat * math.Pi / 180)
	sinLon, cosLon := math.Sincos(lon * math.Pi / 180)
	up := r3.Vector{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}
	east := r3.Vector{X: -sinLon, Y: cosLon}
	north := up.Cross(east)

	p0 := target.Add(up.Mul(700e3)).Add(east.Mul(350e3))
	v := north.Mul(7500)

	var out []StateVector
	for t := -30.0; t <= 30; t += 10 {
		out = append(out, StateVector{Time: t, Position: p0.Add(v.Mul(t)), Velocity: v})
	}
	return out, 2 * target.Sub(p0).Norm() / geodesy.LightSpeed
}

func TestSARGeometryLineAndPixelToXYZ(t *testing.T) {
	const lat, lon = 45.0, 10.0
	target := geodesy.GeoToCartesian(lat, lon, 0, geodesy.WGS84)
	vectors, rt := linearPass(target, lat, lon)
	o, err := New(vectors, 2)
	assert.NoError(t, err)

	g := SARGeometry{
		Orbit:             o,
		FirstLineTime:     0,
		LineTimeInterval:  0.01,
		NearRangeTime:     rt,
		RangeSamplingRate: 64e6,
		SceneCentre:       geodesy.GeoPos{Lat: lat + 0.05, Lon: lon - 0.05},
		Ellipsoid:         geodesy.WGS84,
	}

	p, err := g.LineAndPixelToXYZ(0, 0)
	assert.NoError(t, err)
	assert.True(t, p.Sub(target).Norm() < 0.01, "off by %v m", p.Sub(target).Norm())

	// Further down the image the point still satisfies all three conditions.
	p, err = g.LineAndPixelToXYZ(100, 500)
	assert.NoError(t, err)
	sv := o.State(1)
	slant := (rt + 500/64e6) / 2 * geodesy.LightSpeed
	assert.True(t, math.Abs(sv.Velocity.Normalize().Dot(p.Sub(sv.Position))) < 0.01)
	assert.True(t, math.Abs(p.Sub(sv.Position).Norm()-slant) < 0.01)
	assert.True(t, math.Abs(geodesy.CartesianToGeo(p, geodesy.WGS84).Alt) < 0.01)
}

func TestSARGeometryFarFromSceneCentre(t *testing.T) {
	const lat, lon = 45.0, 10.0
	target := geodesy.GeoToCartesian(lat, lon, 0, geodesy.WGS84)
	vectors, rt := linearPass(target, lat, lon)
	o, err := New(vectors, 2)
	assert.NoError(t, err)

	// The scene centre sits well over a hundred kilometres from the pixels
	// being solved, both along track and across it.
	g := SARGeometry{
		Orbit:             o,
		FirstLineTime:     -25,
		LineTimeInterval:  0.01,
		NearRangeTime:     rt,
		RangeSamplingRate: 64e6,
		SceneCentre:       geodesy.GeoPos{Lat: lat - 1, Lon: lon + 1.5},
		Ellipsoid:         geodesy.WGS84,
	}

	for _, px := range [][2]float64{{0, 0}, {5000, 40000}, {2500, 20000}} {
		line, pixel := px[0], px[1]
		p, err := g.LineAndPixelToXYZ(line, pixel)
		assert.NoError(t, err)

		sv := o.State(g.FirstLineTime + line*g.LineTimeInterval)
		slant := (rt + pixel/64e6) / 2 * geodesy.LightSpeed
		d := p.Sub(sv.Position)
		assert.True(t, math.Abs(sv.Velocity.Normalize().Dot(d)) < 0.01, "line %v pixel %v: along-track %v", line, pixel, sv.Velocity.Normalize().Dot(d))
		assert.True(t, math.Abs(d.Norm()-slant) < 0.01, "line %v pixel %v: range error %v", line, pixel, d.Norm()-slant)
		assert.True(t, math.Abs(geodesy.CartesianToGeo(p, geodesy.WGS84).Alt) < 0.01, "line %v pixel %v: off the ellipsoid", line, pixel)
	}
}

func TestSARGeometryErrors(t *testing.T) {
	_, err := SARGeometry{RangeSamplingRate: 1}.LineAndPixelToXYZ(0, 0)
	assert.Error(t, err)

	o, err := New(cubicOrbit([]float64{0, 10, 20, 30}), 3)
	assert.NoError(t, err)
	_, err = SARGeometry{Orbit: o}.LineAndPixelToXYZ(0, 0)
	assert.Error(t, err)
}
