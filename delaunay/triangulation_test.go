package delaunay

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/golang/geo/r2"
)

// =============================================================================
// Helpers
// =============================================================================

func randomPoints(n int, seed int64, size float64) []r2.Point {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]r2.Point, n)
	for i := range pts {
		pts[i] = r2.Point{X: rng.Float64() * size, Y: rng.Float64() * size}
	}
	return pts
}

func gridPoints(nx, ny int) []r2.Point {
	pts := make([]r2.Point, 0, nx*ny)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			pts = append(pts, r2.Point{X: float64(x), Y: float64(y)})
		}
	}
	return pts
}

// warpedGrid returns an nx by ny grid with column spacing 7.3 and row
// spacing 3.1, bent by y += k·x² and rotated by theta about the origin
// before being moved to (500, 2000).
func warpedGrid(nx, ny int, k, theta float64) []r2.Point {
	sin, cos := math.Sincos(theta)
	pts := make([]r2.Point, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			x := 7.3 * float64(i)
			y := 3.1*float64(j) + k*x*x
			pts = append(pts, r2.Point{X: 500 + x*cos - y*sin, Y: 2000 + x*sin + y*cos})
		}
	}
	return pts
}

// convexHull returns the strictly convex hull in counter-clockwise order.
func convexHull(points []r2.Point) []r2.Point {
	pts := append([]r2.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	hull := make([]r2.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && orient(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && orient(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func polygonArea(poly []r2.Point) float64 {
	sum := 0.0
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

func totalArea(tri *Triangulation) float64 {
	sum := 0.0
	for i := range tri.Triangles {
		a, b, c := tri.Vertices(i)
		sum += orient(a, b, c) / 2
	}
	return sum
}

// checkEmptyCircumcircles fails when any input point lies clearly inside the
// circumcircle of a triangle.
func checkEmptyCircumcircles(t *testing.T, tri *Triangulation) {
	t.Helper()
	for i, tr := range tri.Triangles {
		a, b, c := tri.Vertices(i)
		d := 2 * orient(a, b, c)
		a2, b2, c2 := a.Dot(a), b.Dot(b), c.Dot(c)
		center := r2.Point{
			X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
			Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
		}
		r := center.Sub(a).Norm()
		for j, p := range tri.Points {
			if j == tr.V[0] || j == tr.V[1] || j == tr.V[2] {
				continue
			}
			if dist := center.Sub(p).Norm(); dist < r*(1-1e-9) {
				t.Fatalf("point %d (%v) inside circumcircle of triangle %d: dist %v radius %v", j, p, i, dist, r)
			}
		}
	}
}

// =============================================================================
// Triangulate Tests
// =============================================================================

func TestTriangulate_SquareWithCenter(t *testing.T) {
	pts := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0.5, Y: 0.5}}
	tri, err := Triangulate(pts)
	if err != nil {
		t.Fatalf("Triangulate() error = %v", err)
	}
	if len(tri.Triangles) != 4 {
		t.Errorf("len(Triangles) = %d, want 4", len(tri.Triangles))
	}
	for i, tr := range tri.Triangles {
		if tr.V[0] != 4 && tr.V[1] != 4 && tr.V[2] != 4 {
			t.Errorf("triangle %d = %v does not use the centre point", i, tr.V)
		}
	}
	if err := tri.Validate(); err != nil {
		t.Error(err)
	}
}

func TestTriangulate_Random(t *testing.T) {
	for _, n := range []int{3, 10, 200, 1000} {
		pts := randomPoints(n, int64(n), 100)
		tri, err := Triangulate(pts)
		if err != nil {
			t.Fatalf("n=%d: Triangulate() error = %v", n, err)
		}
		if err := tri.Validate(); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}

		hull := convexHull(pts)
		if got, want := totalArea(tri), polygonArea(hull); math.Abs(got-want) > 1e-9*want {
			t.Errorf("n=%d: triangle area %v, hull area %v", n, got, want)
		}
		if got, want := len(tri.Triangles), 2*n-2-len(hull); got != want {
			t.Errorf("n=%d: len(Triangles) = %d, want %d", n, got, want)
		}

		boundary := 0
		for _, tr := range tri.Triangles {
			for _, a := range tr.Adjacent {
				if a < 0 {
					boundary++
				}
			}
		}
		if boundary != len(hull) {
			t.Errorf("n=%d: %d boundary edges, want %d", n, boundary, len(hull))
		}

		if n <= 200 {
			checkEmptyCircumcircles(t, tri)
		}
	}
}

func TestTriangulate_Grid(t *testing.T) {
	pts := gridPoints(10, 10)
	tri, err := Triangulate(pts)
	if err != nil {
		t.Fatalf("Triangulate() error = %v", err)
	}
	if err := tri.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(tri.Triangles) != 162 {
		t.Errorf("len(Triangles) = %d, want 162", len(tri.Triangles))
	}
	if got := totalArea(tri); math.Abs(got-81) > 1e-9 {
		t.Errorf("area = %v, want 81", got)
	}
	checkEmptyCircumcircles(t, tri)
}

func TestTriangulate_WarpedGridCoversHull(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		n := 3 + rng.Intn(28)
		k := 1e-4 + rng.Float64()*9e-4
		theta := rng.Float64() * 2 * math.Pi
		pts := warpedGrid(n, n, k, theta)

		tri, err := Triangulate(pts)
		if err != nil {
			t.Fatalf("case %d n=%d: Triangulate() error = %v", i, n, err)
		}
		if err := tri.Validate(); err != nil {
			t.Fatalf("case %d n=%d: %v", i, n, err)
		}
		got, want := totalArea(tri), polygonArea(convexHull(pts))
		if math.Abs(got-want) > 1e-9*want {
			t.Fatalf("case %d n=%d k=%v theta=%v: triangle area %v, hull area %v", i, n, k, theta, got, want)
		}
	}
}

func TestTriangulate_NearlyCollinearHull(t *testing.T) {
	// A long shallow arc over a line: the arc points are all on the hull,
	// and the flat triangles under them are easy to lose.
	var pts []r2.Point
	for i := 0; i < 60; i++ {
		x := float64(i)
		pts = append(pts, r2.Point{X: x, Y: 0}, r2.Point{X: x, Y: 1 + 1e-4*x*(59-x)})
	}
	tri, err := Triangulate(pts)
	if err != nil {
		t.Fatalf("Triangulate() error = %v", err)
	}
	got, want := totalArea(tri), polygonArea(convexHull(pts))
	if math.Abs(got-want) > 1e-9*want {
		t.Errorf("triangle area %v, hull area %v", got, want)
	}
	if err := tri.Validate(); err != nil {
		t.Error(err)
	}
}

func TestTriangulate_EveryPointCovered(t *testing.T) {
	pts := randomPoints(300, 11, 1)
	tri, err := Triangulate(pts)
	if err != nil {
		t.Fatalf("Triangulate() error = %v", err)
	}
	used := make([]bool, len(pts))
	for _, tr := range tri.Triangles {
		for _, v := range tr.V {
			used[v] = true
		}
	}
	for i, ok := range used {
		if !ok {
			t.Errorf("point %d is not a vertex of any triangle", i)
		}
	}
}

func TestTriangulate_Duplicates(t *testing.T) {
	pts := []r2.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 0}}
	tri, err := Triangulate(pts)
	if err != nil {
		t.Fatalf("Triangulate() error = %v", err)
	}
	if tri.Duplicates != 2 {
		t.Errorf("Duplicates = %d, want 2", tri.Duplicates)
	}
	if len(tri.Triangles) != 1 {
		t.Errorf("len(Triangles) = %d, want 1", len(tri.Triangles))
	}
	if len(tri.Points) != len(pts) {
		t.Errorf("len(Points) = %d, want input length %d", len(tri.Points), len(pts))
	}
}

func TestTriangulate_PointOnEdge(t *testing.T) {
	// The last point lies on the shared diagonal or on a hull edge.
	for _, extra := range []r2.Point{{X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 1.5}} {
		pts := []r2.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}, extra}
		tri, err := Triangulate(pts)
		if err != nil {
			t.Fatalf("extra %v: Triangulate() error = %v", extra, err)
		}
		if err := tri.Validate(); err != nil {
			t.Errorf("extra %v: %v", extra, err)
		}
		if got := totalArea(tri); math.Abs(got-4) > 1e-12 {
			t.Errorf("extra %v: area = %v, want 4", extra, got)
		}
	}
}

func TestTriangulate_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		pts  []r2.Point
	}{
		{"empty", nil},
		{"two points", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		{"coincident", []r2.Point{{X: 3, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 3}}},
		{"collinear", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 5, Y: 5}}},
		{"not finite", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: math.NaN(), Y: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Triangulate(tt.pts)
			if !errors.Is(err, ErrTriangulation) {
				t.Errorf("Triangulate() error = %v, want ErrTriangulation", err)
			}
		})
	}
}

// =============================================================================
// Locate Tests
// =============================================================================

func TestTriangulation_Locate(t *testing.T) {
	tri, err := Triangulate(randomPoints(100, 5, 10))
	if err != nil {
		t.Fatalf("Triangulate() error = %v", err)
	}
	for i := range tri.Triangles {
		a, b, c := tri.Vertices(i)
		centroid := a.Add(b).Add(c).Mul(1.0 / 3)
		if got := tri.Locate(centroid); got != i {
			t.Errorf("Locate(centroid of %d) = %d", i, got)
		}
	}
	if got := tri.Locate(r2.Point{X: -1, Y: -1}); got != -1 {
		t.Errorf("Locate(outside) = %d, want -1", got)
	}
}

func TestTriangulation_ValidateDetectsBrokenAdjacency(t *testing.T) {
	tri, err := Triangulate(gridPoints(3, 3))
	if err != nil {
		t.Fatalf("Triangulate() error = %v", err)
	}
	for i := range tri.Triangles {
		for k, a := range tri.Triangles[i].Adjacent {
			if a >= 0 {
				tri.Triangles[i].Adjacent[k] = i
				if tri.Validate() == nil {
					t.Fatal("Validate() = nil for self-adjacent triangle")
				}
				return
			}
		}
	}
	t.Fatal("no interior edge found")
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkTriangulate(b *testing.B) {
	pts := randomPoints(10000, 1, 1000)
	b.ReportAllocs()
	b.ResetTimer()
	for iter := 0; iter < b.N; iter++ {
		if _, err := Triangulate(pts); err != nil {
			b.Fatal(err)
		}
	}
}
