// Package griddata interpolates scattered (x, y, z) samples onto a regular
// grid by triangulating the samples and rasterizing the plane through each
// triangle.
//
// A Gridder is single use and moves through three states:
//
//	Unbuilt --Build--> Built --Rasterize--> Rasterized
//
// Any call out of order fails with ErrState.
//
// Several attribute layers may share one set of vertices. Plane
// coefficients are computed per triangle and per layer.
//
// Cells on an edge shared by two triangles are written once, by the triangle
// with the lower index. Cells that no triangle covers keep whatever the
// caller stored in them; the gridder never initializes its output.
package griddata

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/gogpu/terrain"
	"github.com/gogpu/terrain/delaunay"
)

var (
	// ErrState is returned when an operation is called in the wrong state.
	ErrState = errors.New("griddata: invalid state")

	// ErrDimensionMismatch is returned for inconsistent input or output sizes.
	ErrDimensionMismatch = errors.New("griddata: dimension mismatch")

	// ErrInvalidGrid is returned for an unusable output grid.
	ErrInvalidGrid = errors.New("griddata: invalid grid")
)

// Input bundles the samples of one gridding call.
type Input struct {
	X, Y []float64

	// Z holds one or more attribute layers, each parallel to X and Y.
	Z [][]float64

	// NoData marks absent values. Comparison is exact equality.
	NoData float64
}

func (in Input) validate() error {
	if len(in.X) != len(in.Y) {
		return errors.Wrapf(ErrDimensionMismatch, "len(X)=%d len(Y)=%d", len(in.X), len(in.Y))
	}
	if len(in.Z) == 0 {
		return errors.Wrap(ErrDimensionMismatch, "no Z layer")
	}
	for i, z := range in.Z {
		if len(z) != len(in.X) {
			return errors.Wrapf(ErrDimensionMismatch, "layer %d has %d values for %d points", i, len(z), len(in.X))
		}
	}
	return nil
}

type state int

const (
	unbuilt state = iota
	built
	rasterized
)

func (s state) String() string {
	switch s {
	case unbuilt:
		return "unbuilt"
	case built:
		return "built"
	case rasterized:
		return "rasterized"
	default:
		return "unknown"
	}
}

// Gridder rasterizes one Input onto one Grid.
type Gridder struct {
	in    Input
	grid  Grid
	state state
	tri   *delaunay.Triangulation

	// vertex maps triangulation vertex indices to Input indices.
	vertex []int
}

// New validates the input and grid and returns an unbuilt Gridder.
func New(in Input, grid Grid) (*Gridder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := grid.validate(); err != nil {
		return nil, err
	}
	return &Gridder{in: in, grid: grid}, nil
}

// Build triangulates the samples. Samples whose x or y equal NoData are
// left out of the triangulation.
func (g *Gridder) Build() error {
	if g.state != unbuilt {
		return errors.Wrapf(ErrState, "Build in state %s", g.state)
	}

	pts := make([]r2.Point, 0, len(g.in.X))
	vertex := make([]int, 0, len(g.in.X))
	for i := range g.in.X {
		if g.in.X[i] == g.in.NoData || g.in.Y[i] == g.in.NoData {
			continue
		}
		pts = append(pts, r2.Point{X: g.in.X[i], Y: g.in.Y[i]})
		vertex = append(vertex, i)
	}

	tri, err := delaunay.Triangulate(pts)
	if err != nil {
		return errors.Wrapf(err, "griddata: %d usable of %d samples", len(pts), len(g.in.X))
	}
	terrain.Logger().Debug("griddata: triangulated",
		"samples", len(g.in.X), "vertices", len(pts),
		"duplicates", tri.Duplicates, "triangles", len(tri.Triangles))

	g.tri = tri
	g.vertex = vertex
	g.state = built
	return nil
}

// BuildWith adopts an existing triangulation whose vertex indices refer to
// the Input samples directly.
func (g *Gridder) BuildWith(tri *delaunay.Triangulation) error {
	if g.state != unbuilt {
		return errors.Wrapf(ErrState, "BuildWith in state %s", g.state)
	}
	if tri == nil {
		return errors.Wrap(ErrDimensionMismatch, "nil triangulation")
	}
	for i, t := range tri.Triangles {
		for _, v := range t.V {
			if v < 0 || v >= len(g.in.X) {
				return errors.Wrapf(ErrDimensionMismatch, "triangle %d references sample %d of %d", i, v, len(g.in.X))
			}
		}
	}
	g.tri = tri
	g.vertex = nil
	g.state = built
	return nil
}

// Triangles returns the number of triangles, or 0 before Build.
func (g *Gridder) Triangles() int {
	if g.tri == nil {
		return 0
	}
	return len(g.tri.Triangles)
}

// Rasterize writes interpolated values into out, indexed
// out[layer][row][col]. out must have one layer per Input.Z layer, each
// Grid.Rows rows of Grid.Cols values.
func (g *Gridder) Rasterize(out [][][]float64) error {
	if g.state != built {
		return errors.Wrapf(ErrState, "Rasterize in state %s", g.state)
	}
	if err := g.checkOutput(out); err != nil {
		return err
	}

	r := rasterizer{
		grid:    g.grid,
		noData:  g.in.NoData,
		written: make([][]bool, len(out)),
	}
	for l := range out {
		r.written[l] = make([]bool, g.grid.Cols*g.grid.Rows)
	}

	var v [3]int
	for _, t := range g.tri.Triangles {
		for k, idx := range t.V {
			if g.vertex != nil {
				idx = g.vertex[idx]
			}
			v[k] = idx
		}
		r.triangle(g.in, v, out)
	}

	terrain.Logger().Debug("griddata: rasterized",
		"triangles", len(g.tri.Triangles), "skipped", r.skipped, "cells", r.cells)
	g.state = rasterized
	return nil
}

func (g *Gridder) checkOutput(out [][][]float64) error {
	if len(out) != len(g.in.Z) {
		return errors.Wrapf(ErrDimensionMismatch, "%d output layers for %d input layers", len(out), len(g.in.Z))
	}
	for l, layer := range out {
		if len(layer) != g.grid.Rows {
			return errors.Wrapf(ErrDimensionMismatch, "layer %d has %d rows, want %d", l, len(layer), g.grid.Rows)
		}
		for r, row := range layer {
			if len(row) != g.grid.Cols {
				return errors.Wrapf(ErrDimensionMismatch, "layer %d row %d has %d cols, want %d", l, r, len(row), g.grid.Cols)
			}
		}
	}
	return nil
}

// Linear triangulates in and rasterizes it into out in one call.
func Linear(in Input, grid Grid, out [][][]float64) error {
	g, err := New(in, grid)
	if err != nil {
		return err
	}
	if err := g.Build(); err != nil {
		return err
	}
	return g.Rasterize(out)
}

// NewOutput allocates an output buffer for layers layers of grid, filled
// with fill.
func NewOutput(grid Grid, layers int, fill float64) [][][]float64 {
	out := make([][][]float64, layers)
	for l := range out {
		buf := make([]float64, grid.Rows*grid.Cols)
		for i := range buf {
			buf[i] = fill
		}
		out[l] = make([][]float64, grid.Rows)
		for r := range out[l] {
			out[l][r] = buf[r*grid.Cols : (r+1)*grid.Cols]
		}
	}
	return out
}

// rasterizer carries the per-call scratch state of Rasterize.
type rasterizer struct {
	grid    Grid
	noData  float64
	written [][]bool

	skipped int
	cells   int
}

// triangle rasterizes one triangle with input vertices v into every layer.
func (r *rasterizer) triangle(in Input, v [3]int, out [][][]float64) {
	var xs, ys [3]float64
	for k, i := range v {
		xs[k], ys[k] = in.X[i], in.Y[i]
		if xs[k] == r.noData || ys[k] == r.noData {
			r.skipped++
			return
		}
	}

	// Edge vectors from vertex j = 0 to k = 1 and l = 2.
	xkj, ykj := xs[1]-xs[0], ys[1]-ys[0]
	xlj, ylj := xs[2]-xs[0], ys[2]-ys[0]
	den := xkj*ylj - ykj*xlj
	if den == 0 || math.IsNaN(den) {
		r.skipped++
		return
	}
	f := 1 / den

	c0, r0 := r.grid.Index(math.Min(xs[0], math.Min(xs[1], xs[2])), math.Min(ys[0], math.Min(ys[1], ys[2])))
	c1, r1 := r.grid.Index(math.Max(xs[0], math.Max(xs[1], xs[2])), math.Max(ys[0], math.Max(ys[1], ys[2])))
	c0, r0 = max(c0, 0), max(r0, 0)
	c1, r1 = min(c1, r.grid.Cols-1), min(r1, r.grid.Rows-1)
	if c0 > c1 || r0 > r1 {
		return
	}

	a := r2.Point{X: xs[0], Y: ys[0]}
	b := r2.Point{X: xs[1], Y: ys[1]}
	c := r2.Point{X: xs[2], Y: ys[2]}

	for l, z := range in.Z {
		zj, zk, zl := z[v[0]], z[v[1]], z[v[2]]
		if zj == r.noData || zk == r.noData || zl == r.noData {
			continue
		}
		zkj, zlj := zk-zj, zl-zj
		pa := -(ykj*zlj - zkj*ylj) * f
		pb := -(zkj*xlj - xkj*zlj) * f
		pc := zj - pa*xs[0] - pb*ys[0]

		written := r.written[l]
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				cell := row*r.grid.Cols + col
				if written[cell] {
					continue
				}
				x, y := r.grid.Center(col, row)
				if !inside(a, b, c, r2.Point{X: x, Y: y}) {
					continue
				}
				out[l][row][col] = pa*x + pb*y + pc
				written[cell] = true
				r.cells++
			}
		}
	}
}

// inside reports whether p lies in triangle abc or on its boundary, for
// either winding.
func inside(a, b, c, p r2.Point) bool {
	d1 := cross(a, b, p)
	d2 := cross(b, c, p)
	d3 := cross(c, a, p)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

func cross(a, b, p r2.Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}
