package griddata

import (
	"math"

	"github.com/pkg/errors"
)

// Grid describes a regular output grid. Cell (col, row) has its centre at
// (XOrigin + CellX·(col+Offset), YOrigin + CellY·(row+Offset)).
type Grid struct {
	XOrigin, YOrigin float64
	CellX, CellY     float64

	// Offset is the position of the cell centre inside the cell, in cells:
	// 0.5 for pixel-is-area grids, 0 for pixel-is-point grids.
	Offset float64

	Cols, Rows int
}

// Index returns the cell whose centre is nearest to (x, y). Ties round up:
// the index is floor(v + 0.5), never banker's rounding. The result may lie
// outside the grid.
func (s Grid) Index(x, y float64) (col, row int) {
	col = int(math.Floor((x-s.XOrigin)/s.CellX - s.Offset + 0.5))
	row = int(math.Floor((y-s.YOrigin)/s.CellY - s.Offset + 0.5))
	return col, row
}

// Center returns the coordinates of the centre of cell (col, row).
func (s Grid) Center(col, row int) (x, y float64) {
	x = s.XOrigin + s.CellX*(float64(col)+s.Offset)
	y = s.YOrigin + s.CellY*(float64(row)+s.Offset)
	return x, y
}

// Contains reports whether (col, row) addresses a cell of the grid.
func (s Grid) Contains(col, row int) bool {
	return col >= 0 && col < s.Cols && row >= 0 && row < s.Rows
}

func (s Grid) validate() error {
	switch {
	case s.Cols <= 0 || s.Rows <= 0:
		return errors.Wrapf(ErrInvalidGrid, "size %dx%d", s.Cols, s.Rows)
	case !(s.CellX > 0) || !(s.CellY > 0) || math.IsInf(s.CellX, 0) || math.IsInf(s.CellY, 0):
		return errors.Wrapf(ErrInvalidGrid, "cell size %vx%v", s.CellX, s.CellY)
	case math.IsNaN(s.XOrigin) || math.IsNaN(s.YOrigin) || math.IsNaN(s.Offset):
		return errors.Wrap(ErrInvalidGrid, "origin or offset is NaN")
	}
	return nil
}
