// Package orbit interpolates satellite state vectors with per-axis
// polynomials and geolocates SAR image coordinates on the ellipsoid.
package orbit

import (
	"math"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/gogpu/terrain"
	"github.com/gogpu/terrain/geodesy"
	"github.com/gogpu/terrain/polyfit"
)

var (
	// ErrTooFewStateVectors is returned when there are fewer vectors than
	// polynomial coefficients.
	ErrTooFewStateVectors = errors.New("orbit: too few state vectors")

	// ErrUnorderedStateVectors is returned when two vectors share a time.
	ErrUnorderedStateVectors = errors.New("orbit: state vector times are not distinct")
)

// StateVector is an ECEF position and velocity at Time (seconds on any
// linear time scale).
type StateVector struct {
	Time     float64
	Position r3.Vector
	Velocity r3.Vector
}

// Orbit evaluates position and velocity at arbitrary times.
type Orbit struct {
	pos   [3]polyfit.Polynomial
	vel   [3]polyfit.Polynomial
	first float64
	last  float64
}

// New fits polynomials of the given degree to each position and velocity
// axis. Vectors need not be sorted.
func New(vectors []StateVector, degree int) (*Orbit, error) {
	if degree < 0 {
		return nil, errors.Wrapf(polyfit.ErrInvalidArgument, "orbit: degree %d", degree)
	}
	if len(vectors) < degree+1 {
		return nil, errors.Wrapf(ErrTooFewStateVectors, "%d vectors for degree %d", len(vectors), degree)
	}

	sorted := slices.Clone(vectors)
	slices.SortFunc(sorted, func(a, b StateVector) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})

	n := len(sorted)
	t := make([]float64, n)
	axes := make([][]float64, 6)
	for k := range axes {
		axes[k] = make([]float64, n)
	}
	for i, sv := range sorted {
		if i > 0 && sv.Time == sorted[i-1].Time {
			return nil, errors.Wrapf(ErrUnorderedStateVectors, "time %v", sv.Time)
		}
		t[i] = sv.Time
		axes[0][i], axes[1][i], axes[2][i] = sv.Position.X, sv.Position.Y, sv.Position.Z
		axes[3][i], axes[4][i], axes[5][i] = sv.Velocity.X, sv.Velocity.Y, sv.Velocity.Z
	}

	o := &Orbit{first: t[0], last: t[n-1]}
	for k, y := range axes {
		p, err := polyfit.FitNormalized(t, y, degree)
		if err != nil {
			return nil, errors.Wrapf(err, "orbit: axis %d", k)
		}
		if k < 3 {
			o.pos[k] = p
		} else {
			o.vel[k-3] = p
		}
	}
	return o, nil
}

// Interval returns the times of the first and last fitted vectors.
func (o *Orbit) Interval() (first, last float64) {
	return o.first, o.last
}

// Position returns the interpolated position at time t.
func (o *Orbit) Position(t float64) r3.Vector {
	return r3.Vector{X: o.pos[0].Eval(t), Y: o.pos[1].Eval(t), Z: o.pos[2].Eval(t)}
}

// Velocity returns the interpolated velocity at time t.
func (o *Orbit) Velocity(t float64) r3.Vector {
	return r3.Vector{X: o.vel[0].Eval(t), Y: o.vel[1].Eval(t), Z: o.vel[2].Eval(t)}
}

// State returns position and velocity at time t.
func (o *Orbit) State(t float64) geodesy.StateVector {
	return geodesy.StateVector{Position: o.Position(t), Velocity: o.Velocity(t)}
}

// SARGeometry maps slant-range image coordinates to ECEF points.
type SARGeometry struct {
	Orbit *Orbit

	// FirstLineTime is the azimuth time of line 0 and LineTimeInterval the
	// time between lines, in the orbit's time scale.
	FirstLineTime    float64
	LineTimeInterval float64

	// NearRangeTime is the two-way slant range time of pixel 0 in seconds.
	NearRangeTime     float64
	RangeSamplingRate float64

	// SceneCentre gives the look direction of the first Newton guess.
	SceneCentre geodesy.GeoPos
	Ellipsoid   geodesy.Ellipsoid
}

// LineAndPixelToXYZ returns the point on the ellipsoid imaged at (line,
// pixel). A Newton solve that does not converge still yields its best
// estimate.
func (g SARGeometry) LineAndPixelToXYZ(line, pixel float64) (r3.Vector, error) {
	if g.Orbit == nil {
		return r3.Vector{}, errors.New("orbit: geometry has no orbit")
	}
	if g.RangeSamplingRate <= 0 {
		return r3.Vector{}, errors.Errorf("orbit: range sampling rate %v", g.RangeSamplingRate)
	}

	t := g.FirstLineTime + line*g.LineTimeInterval
	rangeTime := (g.NearRangeTime + pixel/g.RangeSamplingRate) / 2
	sv := g.Orbit.State(t)

	p, converged, iter := geodesy.AccuratePointOnEllipsoid(sv, g.seed(sv, rangeTime), rangeTime, g.Ellipsoid)
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
		return r3.Vector{}, errors.Errorf("orbit: no solution at line %v pixel %v", line, pixel)
	}
	if !converged {
		terrain.Logger().Debug("orbit: ellipsoid point did not converge",
			"line", line, "pixel", pixel, "iterations", iter)
	}
	return p, nil
}

// seed returns a first guess at the slant range of rangeTime from the
// satellite. It looks from sv towards the scene centre, with the
// along-track component removed, and drops the point onto the ellipsoid.
func (g SARGeometry) seed(sv geodesy.StateVector, rangeTime float64) r3.Vector {
	c := geodesy.GeoToCartesian(g.SceneCentre.Lat, g.SceneCentre.Lon, g.SceneCentre.Alt, g.Ellipsoid)
	look := c.Sub(sv.Position)
	along := sv.Velocity.Normalize()
	look = look.Sub(along.Mul(look.Dot(along)))
	if look.Norm() == 0 {
		return c
	}
	x := sv.Position.Add(look.Normalize().Mul(rangeTime * geodesy.LightSpeed))
	pos := geodesy.CartesianToGeo(x, g.Ellipsoid)
	return geodesy.GeoToCartesian(pos.Lat, pos.Lon, 0, g.Ellipsoid)
}
