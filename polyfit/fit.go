package polyfit

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/gogpu/terrain"
)

// Advisory thresholds. Exceeding them produces a warning, never an error.
const (
	// inverseTolerance bounds max|N·N⁻¹ - I| for the normal matrix N.
	inverseTolerance = 1e-6

	// residualTolerance bounds the largest fit residual (one interpolation unit).
	residualTolerance = 0.02

	// stepTolerance bounds the deviation between consecutive abscissa steps.
	stepTolerance = 0.001

	// normalizeScale divides centred abscissae in Normalize.
	normalizeScale = 10.0
)

// Fit returns the least-squares coefficients c[0..degree] of
// y ≈ Σ c[i]·t^i. The normal equations are solved through a Cholesky
// factorization.
//
// Fit fails only on structural problems: mismatched lengths, fewer samples
// than coefficients, or coincident abscissae that leave the normal matrix
// singular. Ill-conditioning, large residuals and irregular sampling are
// logged as warnings and the best-effort solution is returned.
func Fit(t, y []float64, degree int) ([]float64, error) {
	if len(t) != len(y) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "len(t)=%d len(y)=%d", len(t), len(y))
	}
	if degree < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "degree %d", degree)
	}
	if len(t) < degree+1 {
		return nil, errors.Wrapf(ErrInsufficientData, "%d samples for degree %d", len(t), degree)
	}

	n, m := len(t), degree+1
	design := mat.NewDense(n, m, nil)
	for i, ti := range t {
		v := 1.0
		for j := 0; j < m; j++ {
			design.Set(i, j, v)
			v *= ti
		}
	}
	obs := mat.NewVecDense(n, append([]float64(nil), y...))

	var normal mat.SymDense
	normal.SymOuterK(1, design.T())

	var aty mat.VecDense
	aty.MulVec(design.T(), obs)

	var chol mat.Cholesky
	if ok := chol.Factorize(&normal); !ok {
		return nil, errors.Wrapf(ErrSingular, "degree %d over %d samples", degree, n)
	}

	var x mat.VecDense
	if err := chol.SolveVecTo(&x, &aty); err != nil && !isCondition(err) {
		return nil, errors.Wrap(err, "polyfit: solve normal equations")
	}

	logger := terrain.Logger()

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil && !isCondition(err) {
		return nil, errors.Wrap(err, "polyfit: invert normal matrix")
	}
	if dev := identityDeviation(&normal, &inv); dev > inverseTolerance {
		logger.Warn("polyfit: normal matrix is ill-conditioned",
			"degree", degree, "samples", n, "maxDeviation", dev)
	}

	var fitted mat.VecDense
	fitted.MulVec(design, &x)
	maxRes := 0.0
	for i := 0; i < n; i++ {
		maxRes = math.Max(maxRes, math.Abs(y[i]-fitted.AtVec(i)))
	}
	if maxRes > residualTolerance {
		logger.Warn("polyfit: large fit residual",
			"degree", degree, "samples", n, "maxResidual", maxRes)
	}

	if n > 2 {
		step := t[1] - t[0]
		for i := 2; i < n; i++ {
			if math.Abs(t[i]-t[i-1]-step) > stepTolerance {
				logger.Warn("polyfit: abscissae are not equidistant",
					"index", i, "step", t[i]-t[i-1], "firstStep", step)
				break
			}
		}
	}

	coeffs := make([]float64, m)
	for i := range coeffs {
		coeffs[i] = x.AtVec(i)
	}
	return coeffs, nil
}

// identityDeviation returns max|a·b - I|.
func identityDeviation(a, b mat.Matrix) float64 {
	var prod mat.Dense
	prod.Mul(a, b)
	r, c := prod.Dims()
	dev := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			dev = math.Max(dev, math.Abs(prod.At(i, j)-want))
		}
	}
	return dev
}

func isCondition(err error) bool {
	var cond mat.Condition
	return errors.As(err, &cond) && !math.IsInf(float64(cond), 1)
}

// Normalize centres abscissae on the middle sample and divides them by 10.
// It returns the normalized copy and the middle abscissa.
func Normalize(t []float64) ([]float64, float64) {
	if len(t) == 0 {
		return nil, 0
	}
	mid := t[len(t)/2]
	out := make([]float64, len(t))
	for i, v := range t {
		out[i] = (v - mid) / normalizeScale
	}
	return out, mid
}

// Polynomial is a univariate polynomial fitted on normalized abscissae.
// Its methods accept raw abscissae.
type Polynomial struct {
	Coeffs []float64
	Mid    float64
	Scale  float64
}

// FitNormalized normalizes t with Normalize and fits on the result.
func FitNormalized(t, y []float64, degree int) (Polynomial, error) {
	tn, mid := Normalize(t)
	coeffs, err := Fit(tn, y, degree)
	if err != nil {
		return Polynomial{}, err
	}
	return Polynomial{Coeffs: coeffs, Mid: mid, Scale: normalizeScale}, nil
}

// Eval evaluates the polynomial at raw abscissa t.
func (p Polynomial) Eval(t float64) float64 {
	return EvalUnivariate((t-p.Mid)/p.Scale, p.Coeffs)
}

// Slope evaluates the first derivative with respect to the raw abscissa.
func (p Polynomial) Slope(t float64) float64 {
	return EvalUnivariate((t-p.Mid)/p.Scale, Derivative(p.Coeffs)) / p.Scale
}

// Curvature evaluates the second derivative with respect to the raw abscissa.
func (p Polynomial) Curvature(t float64) float64 {
	return EvalUnivariate((t-p.Mid)/p.Scale, Derivative(Derivative(p.Coeffs))) / (p.Scale * p.Scale)
}
