package geodesy

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// maxNewtonIterations caps AccuratePointOnEllipsoid.
	maxNewtonIterations = 10

	// newtonTolerance is the largest residual (m) accepted as converged.
	newtonTolerance = 0.001
)

// StateVector is a satellite position and velocity in ECEF coordinates at
// one instant.
type StateVector struct {
	Position r3.Vector
	Velocity r3.Vector
}

// AccuratePointOnEllipsoid refines approx into the point on the ellipsoid e
// that satisfies the zero-Doppler condition with respect to sv and lies at
// the slant range LightSpeed*rangeTime from the satellite. rangeTime is the
// one-way slant range time in seconds.
//
// The three residuals are measured in metres: the along-track offset
// v̂·(p-s), the slant range error |p-s|-R and the radial distance from the
// ellipsoid. Newton-Raphson stops as soon as all three are below 1 mm and
// takes at most 10 steps; iterations reports the steps taken. When it does
// not converge the last estimate is returned with converged set to false;
// callers that need a guaranteed solution must check it.
func AccuratePointOnEllipsoid(sv StateVector, approx r3.Vector, rangeTime float64, e Ellipsoid) (p r3.Vector, converged bool, iterations int) {
	slant := rangeTime * LightSpeed
	a2 := e.A * e.A
	b := e.B()
	ratio := a2 / (b * b)
	speed := sv.Velocity.Norm()

	p = approx
	jac := mat.NewDense(3, 3, nil)
	rhs := mat.NewVecDense(3, nil)
	var delta mat.VecDense

	for iterations = 0; ; iterations++ {
		d := p.Sub(sv.Position)
		dist := d.Norm()

		//   v·(p-s) = 0, |p-s|² = R², x²+y²+z²·a²/b² = a²
		rhs.SetVec(0, -sv.Velocity.Dot(d))
		rhs.SetVec(1, -(dist*dist - slant*slant))
		rhs.SetVec(2, -(p.X*p.X + p.Y*p.Y + p.Z*p.Z*ratio - a2))

		if math.Abs(rhs.AtVec(0)) < newtonTolerance*speed &&
			math.Abs(dist-slant) < newtonTolerance &&
			math.Abs(rhs.AtVec(2)) < newtonTolerance*2*e.A {
			return p, true, iterations
		}
		if iterations == maxNewtonIterations {
			return p, false, iterations
		}

		jac.SetRow(0, []float64{sv.Velocity.X, sv.Velocity.Y, sv.Velocity.Z})
		jac.SetRow(1, []float64{2 * d.X, 2 * d.Y, 2 * d.Z})
		jac.SetRow(2, []float64{2 * p.X, 2 * p.Y, 2 * p.Z * ratio})

		if err := delta.SolveVec(jac, rhs); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				return p, false, iterations + 1
			}
		}

		step := r3.Vector{X: delta.AtVec(0), Y: delta.AtVec(1), Z: delta.AtVec(2)}
		if math.IsNaN(step.X) || math.IsNaN(step.Y) || math.IsNaN(step.Z) {
			return p, false, iterations + 1
		}
		p = p.Add(step)
	}
}
