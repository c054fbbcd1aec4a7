package delaunay

import (
	"math"

	"github.com/golang/geo/r2"
)

// orient returns twice the signed area of triangle abc: positive when
// a, b, c turn counter-clockwise, zero when collinear.
func orient(a, b, c r2.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// inCircle is positive when d lies strictly inside the circumcircle of the
// counter-clockwise triangle abc.
func inCircle(a, b, c, d r2.Point) float64 {
	adx, ady := a.X-d.X, a.Y-d.Y
	bdx, bdy := b.X-d.X, b.Y-d.Y
	cdx, cdy := c.X-d.X, c.Y-d.Y

	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy

	return ad*(bdx*cdy-cdx*bdy) +
		bd*(cdx*ady-adx*cdy) +
		cd*(adx*bdy-bdx*ady)
}

// superDir holds the directions of the three enclosing vertices in
// counter-clockwise order. The angles avoid the axes and diagonals so that
// grid edges are never parallel to them.
var superDir = func() [3]r2.Point {
	var d [3]r2.Point
	for k := range d {
		s, c := math.Sincos(3.7 + float64(k)*2*math.Pi/3)
		d[k] = r2.Point{X: c, Y: s}
	}
	return d
}()

// orient is the orientation of vertices i, j, k of the builder.
func (b *builder) orient(i, j, k int) float64 {
	if i < b.n && j < b.n && k < b.n {
		return orient(b.pts[i], b.pts[j], b.pts[k])
	}
	return b.limit([]int{i, j, k}, false)
}

// inCircle is positive when vertex l lies inside the circumcircle of the
// counter-clockwise vertices i, j, k.
func (b *builder) inCircle(i, j, k, l int) float64 {
	if i < b.n && j < b.n && k < b.n && l < b.n {
		return inCircle(b.pts[i], b.pts[j], b.pts[k], b.pts[l])
	}
	return b.limit([]int{i, j, k, l}, true)
}

// row returns the determinant row of vertex v as a polynomial in the
// distance M of the enclosing vertices: r[0] + r[1]·M + r[2]·M². Rows are
// (x, y, 1), or (x, y, x²+y², 1) when lifted, relative to the centre.
func (b *builder) row(v int, lifted bool) (r [3][4]float64, deg int) {
	if v < b.n {
		p := b.pts[v].Sub(b.centre)
		if lifted {
			r[0] = [4]float64{p.X, p.Y, p.X*p.X + p.Y*p.Y, 1}
		} else {
			r[0] = [4]float64{p.X, p.Y, 1}
		}
		return r, 0
	}
	u := superDir[v-b.n]
	if lifted {
		r[0] = [4]float64{0, 0, 0, 1}
		r[1] = [4]float64{u.X, u.Y, 0, 0}
		r[2] = [4]float64{0, 0, 1, 0}
		return r, 2
	}
	r[0] = [4]float64{0, 0, 1}
	r[1] = [4]float64{u.X, u.Y, 0}
	return r, 1
}

// limit evaluates the orientation (3 vertices) or in-circle (4 vertices,
// lifted) determinant as M grows without bound. The determinant is expanded
// by multilinearity into powers of M and the highest non-zero coefficient
// carries the sign.
func (b *builder) limit(vs []int, lifted bool) float64 {
	var rows [4][3][4]float64
	var degs [4]int
	combos := 1
	for i, v := range vs {
		rows[i], degs[i] = b.row(v, lifted)
		combos *= degs[i] + 1
	}

	var coef [9]float64
	var m [4][4]float64
	for c := 0; c < combos; c++ {
		sum, rest := 0, c
		for i := range vs {
			d := rest % (degs[i] + 1)
			rest /= degs[i] + 1
			m[i] = rows[i][d]
			sum += d
		}
		if lifted {
			coef[sum] += det4(&m)
		} else {
			coef[sum] += det3(&m)
		}
	}
	for k := len(coef) - 1; k >= 0; k-- {
		if coef[k] != 0 {
			return coef[k]
		}
	}
	return 0
}

func det3(m *[4][4]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func det4(m *[4][4]float64) float64 {
	s0 := m[0][0]*m[1][1] - m[1][0]*m[0][1]
	s1 := m[0][0]*m[1][2] - m[1][0]*m[0][2]
	s2 := m[0][0]*m[1][3] - m[1][0]*m[0][3]
	s3 := m[0][1]*m[1][2] - m[1][1]*m[0][2]
	s4 := m[0][1]*m[1][3] - m[1][1]*m[0][3]
	s5 := m[0][2]*m[1][3] - m[1][2]*m[0][3]

	c5 := m[2][2]*m[3][3] - m[3][2]*m[2][3]
	c4 := m[2][1]*m[3][3] - m[3][1]*m[2][3]
	c3 := m[2][1]*m[3][2] - m[3][1]*m[2][2]
	c2 := m[2][0]*m[3][3] - m[3][0]*m[2][3]
	c1 := m[2][0]*m[3][2] - m[3][0]*m[2][2]
	c0 := m[2][0]*m[3][1] - m[3][0]*m[2][1]

	return s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
}
