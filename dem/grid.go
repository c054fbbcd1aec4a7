package dem

import (
	"math"

	"github.com/pkg/errors"

	"github.com/gogpu/terrain/geodesy"
)

// Resampling selects how Elevation interpolates between posts.
type Resampling int

const (
	ResampleNearest Resampling = iota
	ResampleBilinear
)

// GridSpec describes a north-up geographic grid of posts. Post (0, 0) is at
// (North, West); rows go south and columns go east.
type GridSpec struct {
	North, West      float64
	LatStep, LonStep float64
	Cols, Rows       int
	NoData           float64
}

func (s GridSpec) validate() error {
	if s.Cols < 2 || s.Rows < 2 {
		return errors.Wrapf(ErrInvalidModel, "%dx%d posts", s.Cols, s.Rows)
	}
	if !(s.LatStep > 0) || !(s.LonStep > 0) {
		return errors.Wrapf(ErrInvalidModel, "steps %v, %v", s.LatStep, s.LonStep)
	}
	if float64(s.Cols)*s.LonStep > 360+1e-9 {
		return errors.Wrapf(ErrInvalidModel, "%d columns of %v° exceed the globe", s.Cols, s.LonStep)
	}
	return nil
}

// Global reports whether the columns wrap around the whole globe.
func (s GridSpec) Global() bool {
	return math.Abs(float64(s.Cols)*s.LonStep-360) < 1e-9
}

// geoGrid implements the coordinate side of ElevationModel for a GridSpec.
// The embedding type supplies the raw samples.
type geoGrid struct {
	spec       GridSpec
	resampling Resampling
	sample     func(col, row int) (float64, error)
}

// wrap resolves col and row to in-grid indices.
func (g *geoGrid) wrap(col, row int) (int, int, error) {
	if row < 0 || row >= g.spec.Rows {
		return 0, 0, errors.Wrapf(ErrOutOfBounds, "row %d of %d", row, g.spec.Rows)
	}
	if col < 0 || col >= g.spec.Cols {
		if !g.spec.Global() {
			return 0, 0, errors.Wrapf(ErrOutOfBounds, "col %d of %d", col, g.spec.Cols)
		}
		col = ((col % g.spec.Cols) + g.spec.Cols) % g.spec.Cols
	}
	return col, row, nil
}

func (g *geoGrid) GeoPos(col, row float64) geodesy.GeoPos {
	return geodesy.GeoPos{
		Lat: g.spec.North - row*g.spec.LatStep,
		Lon: geodesy.NormalizeLon(g.spec.West + col*g.spec.LonStep),
	}
}

// Index measures longitude from the centre of the grid so that grids
// crossing the antimeridian get continuous column coordinates.
func (g *geoGrid) Index(pos geodesy.GeoPos) (col, row float64) {
	half := float64(g.spec.Cols) * g.spec.LonStep / 2
	centre := g.spec.West + half
	col = (half + geodesy.NormalizeLon(pos.Lon-centre)) / g.spec.LonStep
	row = (g.spec.North - pos.Lat) / g.spec.LatStep
	return col, row
}

func (g *geoGrid) Size() (cols, rows int) {
	return g.spec.Cols, g.spec.Rows
}

func (g *geoGrid) NoDataValue() float64 {
	return g.spec.NoData
}

func (g *geoGrid) Elevation(pos geodesy.GeoPos) (float64, error) {
	if !pos.Valid() {
		return g.spec.NoData, errors.Wrapf(ErrOutOfBounds, "position %v", pos)
	}
	col, row := g.Index(pos)
	col, row = snap(col), snap(row)

	if g.resampling == ResampleNearest {
		return g.sample(int(math.Floor(col+0.5)), int(math.Floor(row+0.5)))
	}

	c0, r0 := math.Floor(col), math.Floor(row)
	dx, dy := col-c0, row-r0
	c, r := int(c0), int(r0)

	// Skip the far neighbour when exactly on a post so the last row and
	// column stay readable.
	c1, r1 := c+1, r+1
	if dx == 0 {
		c1 = c
	}
	if dy == 0 {
		r1 = r
	}

	var z [4]float64
	for i, p := range [4][2]int{{c, r}, {c1, r}, {c, r1}, {c1, r1}} {
		v, err := g.sample(p[0], p[1])
		if err != nil {
			return g.spec.NoData, err
		}
		if v == g.spec.NoData {
			return g.spec.NoData, nil
		}
		z[i] = v
	}
	return z[0]*(1-dx)*(1-dy) +
		z[1]*dx*(1-dy) +
		z[2]*(1-dx)*dy +
		z[3]*dx*dy, nil
}

// snap rounds v to the nearest post when rounding error left it just off.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 1e-9 {
		return r
	}
	return v
}

// GridModel is an ElevationModel held in memory.
type GridModel struct {
	geoGrid
	data []float64
}

var _ ElevationModel = (*GridModel)(nil)

// NewGridModel wraps data, stored row-major from the north-west post.
func NewGridModel(spec GridSpec, data []float64, resampling Resampling) (*GridModel, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if len(data) != spec.Cols*spec.Rows {
		return nil, errors.Wrapf(ErrInvalidModel, "%d samples for %dx%d posts", len(data), spec.Cols, spec.Rows)
	}
	m := &GridModel{data: data}
	m.geoGrid = geoGrid{spec: spec, resampling: resampling, sample: m.Sample}
	return m, nil
}

// SampleFunc builds a GridModel by evaluating f at every post.
func SampleFunc(spec GridSpec, resampling Resampling, f func(lat, lon float64) float64) (*GridModel, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	data := make([]float64, spec.Cols*spec.Rows)
	g := geoGrid{spec: spec}
	for row := 0; row < spec.Rows; row++ {
		for col := 0; col < spec.Cols; col++ {
			p := g.GeoPos(float64(col), float64(row))
			data[row*spec.Cols+col] = f(p.Lat, p.Lon)
		}
	}
	return NewGridModel(spec, data, resampling)
}

// Sample returns post (col, row). Columns wrap on global grids.
func (m *GridModel) Sample(col, row int) (float64, error) {
	col, row, err := m.wrap(col, row)
	if err != nil {
		return m.spec.NoData, err
	}
	return m.data[row*m.spec.Cols+col], nil
}

// Spec returns the grid layout.
func (m *GridModel) Spec() GridSpec {
	return m.spec
}
