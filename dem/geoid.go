package dem

import (
	"bufio"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// GeoidGrid is a regular grid of geoid heights, such as the 15 arc-minute
// EGM96 table. Row 0 is the northern edge and column 0 the western edge;
// both edges are included, so a global grid repeats its first column at
// West+360.
type GeoidGrid struct {
	South, North float64
	West, East   float64
	LatStep      float64
	LonStep      float64

	cols, rows int
	data       []float64
}

var _ Geoid = (*GeoidGrid)(nil)

// NewGeoidGrid wraps data stored row-major from the north-west corner.
func NewGeoidGrid(south, north, west, east, latStep, lonStep float64, data []float64) (*GeoidGrid, error) {
	if !(north > south) || !(east > west) || !(latStep > 0) || !(lonStep > 0) {
		return nil, errors.Wrapf(ErrInvalidModel, "geoid bounds %v/%v/%v/%v steps %v/%v", south, north, west, east, latStep, lonStep)
	}
	rows := int(math.Round((north-south)/latStep)) + 1
	cols := int(math.Round((east-west)/lonStep)) + 1
	if len(data) != rows*cols {
		return nil, errors.Wrapf(ErrInvalidModel, "%d geoid values for %dx%d grid", len(data), cols, rows)
	}
	return &GeoidGrid{
		South: south, North: north, West: west, East: east,
		LatStep: latStep, LonStep: lonStep,
		cols: cols, rows: rows, data: data,
	}, nil
}

// ReadGeoidGrid parses the plain-text geoid table format: a header of
// south, north, west, east, latitude step and longitude step, followed by
// the heights from the north-west corner, row by row, in any whitespace
// layout.
func ReadGeoidGrid(r io.Reader) (*GeoidGrid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	var values []float64
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidModel, "geoid value %d: %v", len(values), err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "dem: read geoid")
	}
	if len(values) < 6 {
		return nil, errors.Wrap(ErrInvalidModel, "geoid header is incomplete")
	}
	h := values[:6]
	return NewGeoidGrid(h[0], h[1], h[2], h[3], h[4], h[5], values[6:])
}

// Height returns the bilinearly interpolated geoid height. Latitudes are
// clamped to the grid; longitudes wrap. A NaN or infinite coordinate has
// no height and yields NaN.
func (g *GeoidGrid) Height(lat, lon float64) float64 {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return math.NaN()
	}
	lat = math.Max(g.South, math.Min(g.North, lat))
	lon = g.West + math.Mod(math.Mod(lon-g.West, 360)+360, 360)
	if lon > g.East {
		lon = g.East
	}

	x := (lon - g.West) / g.LonStep
	y := (g.North - lat) / g.LatStep
	c0 := min(int(x), g.cols-1)
	r0 := min(int(y), g.rows-1)
	c1 := min(c0+1, g.cols-1)
	r1 := min(r0+1, g.rows-1)
	dx, dy := x-float64(c0), y-float64(r0)

	at := func(c, r int) float64 { return g.data[r*g.cols+c] }
	return at(c0, r0)*(1-dx)*(1-dy) +
		at(c1, r0)*dx*(1-dy) +
		at(c0, r1)*(1-dx)*dy +
		at(c1, r1)*dx*dy
}

// ConstantGeoid is a Geoid with the same height everywhere.
type ConstantGeoid float64

func (c ConstantGeoid) Height(lat, lon float64) float64 {
	return float64(c)
}
