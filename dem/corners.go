package dem

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Bounds is the padded geographic box around a tile and the range of DEM
// posts that cover it.
type Bounds struct {
	PhiMin, PhiMax       float64 // latitude, degrees
	LambdaMin, LambdaMax float64 // longitude, degrees; LambdaMax may exceed 180

	IndexPhi0, IndexPhiN       int // first and last post row
	IndexLambda0, IndexLambdaN int // first and last post column

	// CrossesAntimeridian is set when the box spans longitude ±180.
	CrossesAntimeridian bool
}

// Segments returns the inclusive column ranges to visit for a model with
// cols columns. A box whose columns wrap past the last column is split in
// two contiguous segments.
func (b Bounds) Segments(cols int) [][2]int {
	if b.IndexLambdaN >= b.IndexLambda0 {
		return [][2]int{{b.IndexLambda0, b.IndexLambdaN}}
	}
	return [][2]int{{b.IndexLambda0, cols - 1}, {0, b.IndexLambdaN}}
}

// Corners georeferences the corners of rect, pads the resulting box by
// padding times its extent on every side and locates it in model.
func Corners(georef Georeferencing, model ElevationModel, rect image.Rectangle, padding float64) (Bounds, error) {
	if rect.Empty() {
		return Bounds{}, errors.Wrapf(ErrInvalidTile, "empty rectangle %v", rect)
	}

	var b Bounds
	b.PhiMin, b.PhiMax = math.Inf(1), math.Inf(-1)
	b.LambdaMin, b.LambdaMax = math.Inf(1), math.Inf(-1)

	corners := [4][2]int{
		{rect.Min.X, rect.Min.Y}, {rect.Max.X, rect.Min.Y},
		{rect.Min.X, rect.Max.Y}, {rect.Max.X, rect.Max.Y},
	}
	var lons [4]float64
	for i, c := range corners {
		pos, ok := georef.PixelToGeo(float64(c[0]), float64(c[1]))
		if !ok {
			return Bounds{}, errors.Wrapf(ErrInvalidTile, "corner (%d, %d) has no position", c[0], c[1])
		}
		b.PhiMin = math.Min(b.PhiMin, pos.Lat)
		b.PhiMax = math.Max(b.PhiMax, pos.Lat)
		lons[i] = pos.Lon
		b.LambdaMin = math.Min(b.LambdaMin, pos.Lon)
		b.LambdaMax = math.Max(b.LambdaMax, pos.Lon)
	}

	if b.LambdaMax-b.LambdaMin > 180 {
		b.CrossesAntimeridian = true
		b.LambdaMin, b.LambdaMax = math.Inf(1), math.Inf(-1)
		for _, lon := range lons {
			if lon < 0 {
				lon += 360
			}
			b.LambdaMin = math.Min(b.LambdaMin, lon)
			b.LambdaMax = math.Max(b.LambdaMax, lon)
		}
	}

	dPhi := (b.PhiMax - b.PhiMin) * padding
	dLambda := (b.LambdaMax - b.LambdaMin) * padding
	b.PhiMin = math.Max(b.PhiMin-dPhi, -90)
	b.PhiMax = math.Min(b.PhiMax+dPhi, 90)
	b.LambdaMin -= dLambda
	b.LambdaMax += dLambda

	cols, rows := model.Size()
	col0, row0 := model.Index(geoPos(b.PhiMax, b.LambdaMin))
	colN, rowN := model.Index(geoPos(b.PhiMin, b.LambdaMax))
	col0, row0, colN, rowN = snap(col0), snap(row0), snap(colN), snap(rowN)

	b.IndexPhi0 = max(int(math.Floor(row0)), 0)
	b.IndexPhiN = min(int(math.Ceil(rowN)), rows-1)
	if b.IndexPhi0 > b.IndexPhiN {
		return Bounds{}, errors.Wrapf(ErrInvalidTile, "latitudes %v..%v are outside the model", b.PhiMin, b.PhiMax)
	}

	b.IndexLambda0 = int(math.Floor(col0))
	b.IndexLambdaN = int(math.Ceil(colN))
	if colN >= col0 {
		// One contiguous range; keep it on the grid.
		b.IndexLambda0 = max(b.IndexLambda0, 0)
		b.IndexLambdaN = min(b.IndexLambdaN, cols-1)
		if b.IndexLambda0 > b.IndexLambdaN {
			return Bounds{}, errors.Wrapf(ErrInvalidTile, "longitudes %v..%v are outside the model", b.LambdaMin, b.LambdaMax)
		}
	} else {
		b.IndexLambda0 = min(max(b.IndexLambda0, 0), cols-1)
		b.IndexLambdaN = min(max(b.IndexLambdaN, 0), cols-1)
	}
	return b, nil
}
