// Package polyfit fits polynomials by least squares and evaluates
// univariate and bivariate polynomials.
//
// Bivariate coefficients are ordered by total degree l and, within a
// degree, by ascending power of y:
//
//	z = Σ_{l=0..d} Σ_{k=0..l} c[idx] · x^(l-k) · y^k
//
// so a degree-2 vector is [1, x, y, x², xy, y²].
package polyfit

import (
	"math"

	"github.com/pkg/errors"
)

// Errors returned by fitting and evaluation. Numeric instability is never
// reported as an error; it is logged.
var (
	ErrDimensionMismatch = errors.New("polyfit: dimension mismatch")
	ErrInsufficientData  = errors.New("polyfit: fewer samples than coefficients")
	ErrInvalidArgument   = errors.New("polyfit: invalid argument")
	ErrSingular          = errors.New("polyfit: normal matrix is not positive definite")
)

// MaxDegree bounds the degree accepted by the bivariate evaluators.
const MaxDegree = 1000

// NumberOfCoefficients returns the length of a bivariate coefficient vector
// of the given degree: (degree+1)(degree+2)/2.
func NumberOfCoefficients(degree int) int {
	return (degree + 1) * (degree + 2) / 2
}

// DegreeFromCoefficients inverts NumberOfCoefficients. It fails when n is
// not a triangular number.
func DegreeFromCoefficients(n int) (int, error) {
	if n <= 0 {
		return 0, errors.Wrapf(ErrInvalidArgument, "%d coefficients", n)
	}
	d := int(math.Round(0.5 * (math.Sqrt(float64(8*n+1)) - 3)))
	if NumberOfCoefficients(d) != n {
		return 0, errors.Wrapf(ErrDimensionMismatch, "%d is not a bivariate coefficient count", n)
	}
	return d, nil
}
