// Package delaunay implements 2D Delaunay triangulation of scattered points.
//
// Points are inserted one at a time into a triangle store that keeps, for
// every triangle, the neighbour across each edge. Each insertion splits the
// containing triangle (or the two triangles sharing the edge the point lies
// on) and restores the Delaunay property with Lawson edge flips.
package delaunay

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// ErrTriangulation is returned when the point set spans no area: fewer
// than three distinct points, or all points collinear.
var ErrTriangulation = errors.New("delaunay: degenerate point set")

// Triangle references three vertices of Triangulation.Points in
// counter-clockwise order.
type Triangle struct {
	V [3]int

	// Adjacent[i] is the index of the triangle across edge V[i]→V[(i+1)%3],
	// or -1 on the convex hull.
	Adjacent [3]int
}

// Triangulation stores the input points and the triangles covering their
// convex hull.
type Triangulation struct {
	Points    []r2.Point
	Triangles []Triangle

	// Duplicates counts input points skipped because an earlier point had
	// the same coordinates.
	Duplicates int
}

// Triangulate returns a Delaunay triangulation of points. Vertex indices in
// the result refer to the input slice. Zero-area triangles are dropped.
func Triangulate(points []r2.Point) (*Triangulation, error) {
	if len(points) < 3 {
		return nil, errors.Wrapf(ErrTriangulation, "%d points", len(points))
	}
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, errors.Wrapf(ErrTriangulation, "point %d is not finite", i)
		}
	}
	if collinear(points) {
		return nil, errors.Wrap(ErrTriangulation, "all points are collinear")
	}

	b := newBuilder(points)
	for i := range points {
		b.insert(i)
	}

	tri := &Triangulation{Points: points, Duplicates: b.duplicates}
	tri.Triangles = b.result(len(points))
	if len(tri.Triangles) == 0 {
		return nil, errors.Wrap(ErrTriangulation, "no triangle survived")
	}
	return tri, nil
}

// collinear reports whether all points lie on one line (or coincide).
func collinear(points []r2.Point) bool {
	p0 := points[0]
	i := 1
	for i < len(points) && points[i] == p0 {
		i++
	}
	if i == len(points) {
		return true
	}
	p1 := points[i]
	for _, p := range points[i+1:] {
		if orient(p0, p1, p) != 0 {
			return false
		}
	}
	return true
}

// Vertices returns the corner points of triangle i.
func (t *Triangulation) Vertices(i int) (a, b, c r2.Point) {
	v := t.Triangles[i].V
	return t.Points[v[0]], t.Points[v[1]], t.Points[v[2]]
}

// Locate returns the index of a triangle containing p (boundary inclusive),
// or -1 when p is outside the convex hull.
func (t *Triangulation) Locate(p r2.Point) int {
	for i := range t.Triangles {
		a, b, c := t.Vertices(i)
		if orient(a, b, p) >= 0 && orient(b, c, p) >= 0 && orient(c, a, p) >= 0 {
			return i
		}
	}
	return -1
}

// Validate checks orientation and adjacency consistency. It returns nil for
// a well-formed triangulation and is meant for tests and debugging.
func (t *Triangulation) Validate() error {
	for i, tr := range t.Triangles {
		a, b, c := t.Vertices(i)
		if orient(a, b, c) <= 0 {
			return errors.Errorf("delaunay: triangle %d is not counter-clockwise", i)
		}
		for k, n := range tr.Adjacent {
			if n < 0 {
				continue
			}
			if n >= len(t.Triangles) {
				return errors.Errorf("delaunay: triangle %d has neighbour %d out of range", i, n)
			}
			from, to := tr.V[k], tr.V[(k+1)%3]
			if edgeIndex(t.Triangles[n], to, from) < 0 {
				return errors.Errorf("delaunay: triangle %d edge %d-%d not shared by neighbour %d", i, from, to, n)
			}
			if t.Triangles[n].Adjacent[edgeIndex(t.Triangles[n], to, from)] != i {
				return errors.Errorf("delaunay: neighbour %d does not point back to %d", n, i)
			}
		}
	}
	return nil
}

// edgeIndex returns k such that tr.V[k] == from and tr.V[k+1] == to, or -1.
func edgeIndex(tr Triangle, from, to int) int {
	for k := 0; k < 3; k++ {
		if tr.V[k] == from && tr.V[(k+1)%3] == to {
			return k
		}
	}
	return -1
}

// builder holds the working state of an incremental triangulation.
// Vertices n, n+1 and n+2 form an enclosing triangle whose corners lie
// infinitely far from centre along superDir. They have no coordinates;
// predicates involving them are evaluated in the limit.
type builder struct {
	pts        []r2.Point
	n          int
	centre     r2.Point
	tris       []Triangle
	last       int
	stack      []int
	duplicates int
}

func newBuilder(points []r2.Point) *builder {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	n := len(points)
	b := &builder{
		pts:    points,
		n:      n,
		centre: r2.Point{X: (minX + maxX) / 2, Y: (minY + maxY) / 2},
		tris:   make([]Triangle, 0, 2*n+1),
	}
	b.tris = append(b.tris, Triangle{V: [3]int{n, n + 1, n + 2}, Adjacent: [3]int{-1, -1, -1}})
	return b
}

// insert adds point pi to the triangulation.
func (b *builder) insert(pi int) {
	p := b.pts[pi]
	t := b.locate(pi)
	if t < 0 {
		// Cannot happen inside the enclosing triangle; keep the point out
		// rather than corrupt the store.
		b.duplicates++
		return
	}

	tr := b.tris[t]
	for _, v := range tr.V {
		if v < b.n && b.pts[v] == p {
			b.duplicates++
			return
		}
	}
	for k := 0; k < 3; k++ {
		if b.orient(tr.V[k], tr.V[(k+1)%3], pi) == 0 {
			b.splitEdge(t, k, pi)
			b.legalize()
			return
		}
	}
	b.splitTriangle(t, pi)
	b.legalize()
}

// locate walks from the last touched triangle towards point pi. It falls
// back to a linear scan if the walk runs too long.
func (b *builder) locate(pi int) int {
	t := b.last
	maxSteps := len(b.tris) + 8
walk:
	for iter := 0; iter < maxSteps; iter++ {
		tr := &b.tris[t]
		for k := 0; k < 3; k++ {
			if b.orient(tr.V[k], tr.V[(k+1)%3], pi) < 0 {
				next := tr.Adjacent[k]
				if next < 0 {
					break walk
				}
				t = next
				continue walk
			}
		}
		return t
	}

	for i := range b.tris {
		tr := &b.tris[i]
		if b.orient(tr.V[0], tr.V[1], pi) >= 0 &&
			b.orient(tr.V[1], tr.V[2], pi) >= 0 &&
			b.orient(tr.V[2], tr.V[0], pi) >= 0 {
			return i
		}
	}
	return -1
}

// splitTriangle replaces triangle t = (a, b, c) by (a,b,p), (b,c,p), (c,a,p).
func (b *builder) splitTriangle(t, pi int) {
	old := b.tris[t]
	va, vb, vc := old.V[0], old.V[1], old.V[2]
	nab, nbc, nca := old.Adjacent[0], old.Adjacent[1], old.Adjacent[2]

	t0, t1, t2 := t, len(b.tris), len(b.tris)+1
	b.tris[t0] = Triangle{V: [3]int{va, vb, pi}, Adjacent: [3]int{nab, t1, t2}}
	b.tris = append(b.tris,
		Triangle{V: [3]int{vb, vc, pi}, Adjacent: [3]int{nbc, t2, t0}},
		Triangle{V: [3]int{vc, va, pi}, Adjacent: [3]int{nca, t0, t1}},
	)
	b.replaceAdjacent(nbc, t, t1)
	b.replaceAdjacent(nca, t, t2)

	b.last = t0
	b.stack = append(b.stack, t0, t1, t2)
}

// splitEdge inserts pi on edge k of triangle t, splitting t and the
// triangle across that edge into two each.
func (b *builder) splitEdge(t, k, pi int) {
	old := b.tris[t]
	va, vb, vc := old.V[k], old.V[(k+1)%3], old.V[(k+2)%3]
	nab, nbc, nca := old.Adjacent[k], old.Adjacent[(k+1)%3], old.Adjacent[(k+2)%3]

	if nab < 0 {
		t1, t2 := t, len(b.tris)
		b.tris[t1] = Triangle{V: [3]int{vb, vc, pi}, Adjacent: [3]int{nbc, t2, -1}}
		b.tris = append(b.tris, Triangle{V: [3]int{vc, va, pi}, Adjacent: [3]int{nca, -1, t1}})
		b.replaceAdjacent(nca, t, t2)

		b.last = t1
		b.stack = append(b.stack, t1, t2)
		return
	}

	other := b.tris[nab]
	j := edgeIndex(other, vb, va)
	vd := other.V[(j+2)%3]
	nad, ndb := other.Adjacent[(j+1)%3], other.Adjacent[(j+2)%3]

	t1, t2, t3, t4 := t, len(b.tris), nab, len(b.tris)+1
	b.tris[t1] = Triangle{V: [3]int{vb, vc, pi}, Adjacent: [3]int{nbc, t2, t4}}
	b.tris[t3] = Triangle{V: [3]int{va, vd, pi}, Adjacent: [3]int{nad, t4, t2}}
	b.tris = append(b.tris,
		Triangle{V: [3]int{vc, va, pi}, Adjacent: [3]int{nca, t3, t1}},
		Triangle{V: [3]int{vd, vb, pi}, Adjacent: [3]int{ndb, t1, t3}},
	)
	b.replaceAdjacent(nca, t, t2)
	b.replaceAdjacent(ndb, nab, t4)

	b.last = t1
	b.stack = append(b.stack, t1, t2, t3, t4)
}

// legalize flips edges opposite the inserted point until every one of them
// is locally Delaunay. Triangles on the stack carry the new point at V[2],
// so the edge to test is always edge 0.
func (b *builder) legalize() {
	for len(b.stack) > 0 {
		t := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]

		tr := b.tris[t]
		n := tr.Adjacent[0]
		if n < 0 {
			continue
		}
		va, vb, vp := tr.V[0], tr.V[1], tr.V[2]
		other := b.tris[n]
		j := edgeIndex(other, vb, va)
		if j < 0 {
			continue
		}
		vd := other.V[(j+2)%3]

		if b.inCircle(va, vb, vp, vd) <= 0 {
			continue
		}
		// Only flip convex quadrilaterals.
		if b.orient(va, vd, vp) <= 0 || b.orient(vd, vb, vp) <= 0 {
			continue
		}

		nad, ndb := other.Adjacent[(j+1)%3], other.Adjacent[(j+2)%3]
		nbp, npa := tr.Adjacent[1], tr.Adjacent[2]

		b.tris[t] = Triangle{V: [3]int{va, vd, vp}, Adjacent: [3]int{nad, n, npa}}
		b.tris[n] = Triangle{V: [3]int{vd, vb, vp}, Adjacent: [3]int{ndb, nbp, t}}
		b.replaceAdjacent(nad, n, t)
		b.replaceAdjacent(nbp, t, n)

		b.stack = append(b.stack, t, n)
	}
}

// replaceAdjacent redirects the link of triangle t that pointed at from.
func (b *builder) replaceAdjacent(t, from, to int) {
	if t < 0 {
		return
	}
	tr := &b.tris[t]
	for k := 0; k < 3; k++ {
		if tr.Adjacent[k] == from {
			tr.Adjacent[k] = to
			return
		}
	}
}

// result drops triangles touching the enclosing vertices or with zero area and
// renumbers the adjacency links.
func (b *builder) result(n int) []Triangle {
	remap := make([]int, len(b.tris))
	kept := 0
	for i, tr := range b.tris {
		remap[i] = -1
		if tr.V[0] >= n || tr.V[1] >= n || tr.V[2] >= n {
			continue
		}
		if orient(b.pts[tr.V[0]], b.pts[tr.V[1]], b.pts[tr.V[2]]) <= 0 {
			continue
		}
		remap[i] = kept
		kept++
	}

	out := make([]Triangle, 0, kept)
	for i, tr := range b.tris {
		if remap[i] < 0 {
			continue
		}
		for k, a := range tr.Adjacent {
			if a >= 0 {
				tr.Adjacent[k] = remap[a]
			}
		}
		out = append(out, tr)
	}
	return out
}
