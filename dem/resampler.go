package dem

import (
	"image"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/gogpu/terrain"
	"github.com/gogpu/terrain/griddata"
	"github.com/gogpu/terrain/internal/parallel"
)

// Resampler computes elevation patches for tiles of one output image.
//
// Thread safety: a Resampler holds no mutable state and may be used by
// several goroutines as long as its model, georeferencing, geoid and
// geometry are safe for concurrent use. The models of this package are.
type Resampler struct {
	model  ElevationModel
	georef Georeferencing
	opts   options
}

// NewResampler returns a Resampler reading model for the image described
// by georef.
func NewResampler(model ElevationModel, georef Georeferencing, opts ...Option) *Resampler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.noDataSet {
		o.noData = model.NoDataValue()
	}
	return &Resampler{model: model, georef: georef, opts: o}
}

// NoDataValue returns the value of patch cells without an elevation.
func (r *Resampler) NoDataValue() float64 {
	return r.opts.noData
}

// Method returns the configured strategy.
func (r *Resampler) Method() Method {
	return r.opts.method
}

// LocalDEM returns the elevation patch of the w×h tile at (x0, y0) and
// whether any of its cells holds an elevation. Errors are reserved for
// structural problems; unreadable samples become no-data cells.
func (r *Resampler) LocalDEM(x0, y0, w, h int) (*Patch, bool, error) {
	if w <= 0 || h <= 0 {
		return nil, false, errors.Wrapf(ErrInvalidTile, "size %dx%d", w, h)
	}
	patch := newPatch(x0, y0, w, h, r.opts.noData)

	var err error
	switch r.opts.method {
	case MethodDirect:
		r.direct(patch)
	case MethodDelaunay:
		err = r.delaunay(patch)
	default:
		err = errors.Errorf("dem: unknown method %d", r.opts.method)
	}
	if err != nil {
		return nil, false, err
	}
	return patch, patch.Valid(), nil
}

// fill maps a raw model value to a patch value: model gaps become the
// geoid height when allowed, otherwise no-data.
func (r *Resampler) fill(z, lat, lon float64) float64 {
	if z != r.model.NoDataValue() {
		return z
	}
	if r.opts.geoid != nil && !r.opts.nodataAtSea {
		return r.opts.geoid.Height(lat, lon)
	}
	return r.opts.noData
}

func (r *Resampler) direct(p *Patch) {
	failed := 0
	for j, row := range p.Data {
		y := float64(p.Y0-1+j) + 0.5
		for i := range row {
			x := float64(p.X0-1+i) + 0.5
			pos, ok := r.georef.PixelToGeo(x, y)
			if !ok {
				failed++
				continue
			}
			z, err := r.model.Elevation(pos)
			if err != nil {
				failed++
				continue
			}
			row[i] = r.fill(z, pos.Lat, pos.Lon)
		}
	}
	if failed > 0 {
		terrain.Logger().Warn("dem: samples replaced by no-data",
			"tile", p.Rect(), "failed", failed)
	}
}

func (r *Resampler) delaunay(p *Patch) error {
	rect := p.Rect()
	b, err := Corners(r.georef, r.model, rect, r.opts.padding)
	if err != nil {
		return err
	}
	ratio := r.RangeAzimuthRatio(p.X0, p.Y0, p.Width, p.Height)

	cols, _ := r.model.Size()
	capacity := (b.IndexPhiN - b.IndexPhi0 + 1) * (b.IndexLambdaN - b.IndexLambda0 + 1)
	if capacity <= 0 {
		capacity = b.IndexPhiN - b.IndexPhi0 + 1
	}
	xs := make([]float64, 0, capacity)
	ys := make([]float64, 0, capacity)
	zs := make([]float64, 0, capacity)

	failed := 0
	for _, seg := range b.Segments(cols) {
		for row := b.IndexPhi0; row <= b.IndexPhiN; row++ {
			for col := seg[0]; col <= seg[1]; col++ {
				pos := r.model.GeoPos(float64(col), float64(row))
				x, y, ok := r.georef.GeoToPixel(pos)
				if !ok {
					continue
				}
				z, err := r.model.Sample(col, row)
				if err != nil {
					failed++
					z = r.opts.noData
				} else {
					z = r.fill(z, pos.Lat, pos.Lon)
				}
				xs = append(xs, x*ratio)
				ys = append(ys, y)
				zs = append(zs, z)
			}
		}
	}
	if failed > 0 {
		terrain.Logger().Warn("dem: posts replaced by no-data",
			"tile", rect, "failed", failed)
	}
	terrain.Logger().Debug("dem: triangulating tile",
		"tile", rect, "posts", len(xs), "ratio", ratio,
		"antimeridian", b.CrossesAntimeridian)

	grid := griddata.Grid{
		XOrigin: float64(rect.Min.X) * ratio,
		YOrigin: float64(rect.Min.Y),
		CellX:   ratio,
		CellY:   1,
		Offset:  0.5,
		Cols:    rect.Dx(),
		Rows:    rect.Dy(),
	}
	in := griddata.Input{X: xs, Y: ys, Z: [][]float64{zs}, NoData: r.opts.noData}
	if err := griddata.Linear(in, grid, [][][]float64{p.Data}); err != nil {
		return errors.Wrapf(err, "dem: tile %v", rect)
	}
	return nil
}

// RangeAzimuthRatio returns the ground distance between neighbouring
// pixels in range (x) divided by the distance between neighbouring lines
// (y), measured at the centre of the tile. It is 1 without a Geometry or
// when the geometry cannot be evaluated.
func (r *Resampler) RangeAzimuthRatio(x0, y0, w, h int) float64 {
	g := r.opts.geometry
	if g == nil {
		return 1
	}
	line := float64(y0) + float64(h)/2
	pixel := float64(x0) + float64(w)/2

	var pts [3]r3.Vector
	for i, lp := range [3][2]float64{{line, pixel}, {line, pixel + 1}, {line + 1, pixel}} {
		p, err := g.LineAndPixelToXYZ(lp[0], lp[1])
		if err != nil {
			terrain.Logger().Debug("dem: range azimuth ratio defaults to 1", "error", err)
			return 1
		}
		pts[i] = p
	}
	p00, p01, p10 := pts[0], pts[1], pts[2]

	ratio := p01.Sub(p00).Norm() / p10.Sub(p00).Norm()
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio <= 0 {
		return 1
	}
	return ratio
}

// TileResult is the outcome of one tile of LocalDEMs.
type TileResult struct {
	Rect  image.Rectangle
	Patch *Patch
	Valid bool
	Err   error
}

// LocalDEMs computes every tile concurrently and returns the results in
// the order of tiles.
func (r *Resampler) LocalDEMs(tiles []image.Rectangle) []TileResult {
	results := make([]TileResult, len(tiles))
	if len(tiles) == 0 {
		return results
	}

	pool := parallel.NewWorkerPool(r.opts.workers)
	defer pool.Close()
	terrain.Logger().Debug("dem: tile pool", "tiles", len(tiles), "workers", pool.Workers())

	pool.Map(len(tiles), func(i int) {
		rect := tiles[i]
		patch, valid, err := r.LocalDEM(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
		results[i] = TileResult{Rect: rect, Patch: patch, Valid: valid, Err: err}
	})
	return results
}

// Scene splits a width×height image into tileSize tiles and computes them
// all with LocalDEMs.
func (r *Resampler) Scene(width, height, tileSize int) []TileResult {
	return r.Region(width, height, tileSize, image.Rect(0, 0, width, height))
}

// Region computes the tiles of Scene that intersect roi. Tiles keep their
// full extent, so a region can be refreshed without changing the tiling.
func (r *Resampler) Region(width, height, tileSize int, roi image.Rectangle) []TileResult {
	grid := parallel.NewTileGrid(width, height, tileSize)
	tiles := grid.TilesInRect(roi)

	rects := make([]image.Rectangle, len(tiles))
	for i, t := range tiles {
		rects[i] = t.Rect
	}
	terrain.Logger().Debug("dem: computing tiles",
		"selected", len(rects), "total", grid.TileCount(),
		"tilesX", grid.TilesX(), "tilesY", grid.TilesY())
	return r.LocalDEMs(rects)
}
