package polyfit

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// EvalUnivariate evaluates Σ coeffs[i]·x^i with Horner's method.
func EvalUnivariate(x float64, coeffs []float64) float64 {
	sum := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		sum = sum*x + coeffs[i]
	}
	return sum
}

// Derivative returns the coefficients of the first derivative.
func Derivative(coeffs []float64) []float64 {
	if len(coeffs) <= 1 {
		return []float64{0}
	}
	d := make([]float64, len(coeffs)-1)
	for i := 1; i < len(coeffs); i++ {
		d[i-1] = float64(i) * coeffs[i]
	}
	return d
}

// resolveDegree validates degree against coeffs. A negative degree asks for
// the degree to be inferred from len(coeffs).
func resolveDegree(coeffs []float64, degree int) (int, error) {
	if degree < 0 {
		return DegreeFromCoefficients(len(coeffs))
	}
	if degree > MaxDegree {
		return 0, errors.Wrapf(ErrInvalidArgument, "degree %d outside [0,%d]", degree, MaxDegree)
	}
	if want := NumberOfCoefficients(degree); len(coeffs) != want {
		return 0, errors.Wrapf(ErrDimensionMismatch, "degree %d needs %d coefficients, got %d", degree, want, len(coeffs))
	}
	return degree, nil
}

// EvalBivariate evaluates the bivariate polynomial of the given degree at
// (x, y). Pass degree < 0 to infer it from len(coeffs).
func EvalBivariate(x, y float64, coeffs []float64, degree int) (float64, error) {
	degree, err := resolveDegree(coeffs, degree)
	if err != nil {
		return 0, err
	}
	return evalBivariate(x, y, coeffs, degree), nil
}

// evalBivariate dispatches to the closed forms for low degrees.
func evalBivariate(x, y float64, c []float64, degree int) float64 {
	switch degree {
	case 0:
		return c[0]
	case 1:
		return c[0] + c[1]*x + c[2]*y
	case 2:
		return c[0] + c[1]*x + c[2]*y +
			c[3]*x*x + c[4]*x*y + c[5]*y*y
	case 3:
		x2, y2 := x*x, y*y
		return c[0] + c[1]*x + c[2]*y +
			c[3]*x2 + c[4]*x*y + c[5]*y2 +
			c[6]*x2*x + c[7]*x2*y + c[8]*x*y2 + c[9]*y2*y
	case 4:
		x2, y2 := x*x, y*y
		x3, y3 := x2*x, y2*y
		return c[0] + c[1]*x + c[2]*y +
			c[3]*x2 + c[4]*x*y + c[5]*y2 +
			c[6]*x3 + c[7]*x2*y + c[8]*x*y2 + c[9]*y3 +
			c[10]*x3*x + c[11]*x3*y + c[12]*x2*y2 + c[13]*x*y3 + c[14]*y3*y
	case 5:
		x2, y2 := x*x, y*y
		x3, y3 := x2*x, y2*y
		x4, y4 := x3*x, y3*y
		return c[0] + c[1]*x + c[2]*y +
			c[3]*x2 + c[4]*x*y + c[5]*y2 +
			c[6]*x3 + c[7]*x2*y + c[8]*x*y2 + c[9]*y3 +
			c[10]*x4 + c[11]*x3*y + c[12]*x2*y2 + c[13]*x*y3 + c[14]*y4 +
			c[15]*x4*x + c[16]*x4*y + c[17]*x3*y2 + c[18]*x2*y3 + c[19]*x*y4 + c[20]*y4*y
	default:
		return evalBivariateLoop(x, y, c, degree)
	}
}

// evalBivariateLoop is the general double loop over total degree.
func evalBivariateLoop(x, y float64, c []float64, degree int) float64 {
	xPow := make([]float64, degree+1)
	yPow := make([]float64, degree+1)
	xPow[0], yPow[0] = 1, 1
	for i := 1; i <= degree; i++ {
		xPow[i] = xPow[i-1] * x
		yPow[i] = yPow[i-1] * y
	}

	sum := 0.0
	idx := 0
	for l := 0; l <= degree; l++ {
		for k := 0; k <= l; k++ {
			sum += c[idx] * xPow[l-k] * yPow[k]
			idx++
		}
	}
	return sum
}

// EvalBivariateGrid evaluates the polynomial over the cross product of the
// column vectors x (length nx) and y (length ny), returning an nx×ny matrix
// with element (i, j) = p(x[i], y[j]).
func EvalBivariateGrid(x, y mat.Matrix, coeffs []float64, degree int) (*mat.Dense, error) {
	nx, cx := x.Dims()
	ny, cy := y.Dims()
	if cx != 1 || cy != 1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "x is %dx%d and y is %dx%d, want column vectors", nx, cx, ny, cy)
	}
	degree, err := resolveDegree(coeffs, degree)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(nx, ny, nil)
	for i := 0; i < nx; i++ {
		xi := x.At(i, 0)
		for j := 0; j < ny; j++ {
			out.Set(i, j, evalBivariate(xi, y.At(j, 0), coeffs, degree))
		}
	}
	return out, nil
}
