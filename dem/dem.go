// Package dem resamples digital elevation models onto output image tiles.
//
// A Resampler combines an ElevationModel (the source DEM) with the
// Georeferencing of the output image and produces, for a tile, a Patch of
// elevations one pixel larger than the tile on every side. Two strategies
// are available:
//
//   - MethodDirect samples the DEM at the centre of every output pixel.
//   - MethodDelaunay reprojects the DEM posts around the tile into pixel
//     space, triangulates them and interpolates the patch from the
//     triangle planes. It suits oblique geometries and DEMs much coarser
//     than the output grid.
//
// Failures reading single samples never fail a tile: the affected cells
// hold the no-data value. Where the DEM itself reports no data and a Geoid
// is configured, the geoid height is used instead unless
// WithNodataAtSea(true) is set.
//
// Resamplers are safe for concurrent use. LocalDEMs computes many tiles
// on a worker pool.
package dem

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/gogpu/terrain/geodesy"
)

var (
	// ErrInvalidTile is returned for empty tiles and for tiles whose
	// corners cannot be georeferenced.
	ErrInvalidTile = errors.New("dem: invalid tile")

	// ErrOutOfBounds is returned by models for samples outside their grid.
	ErrOutOfBounds = errors.New("dem: sample out of bounds")

	// ErrInvalidModel is returned when a model is built from inconsistent
	// parameters.
	ErrInvalidModel = errors.New("dem: invalid model")
)

// ElevationModel is a source DEM on a regular grid of posts.
type ElevationModel interface {
	// Elevation returns the resampled height at pos, or NoDataValue.
	Elevation(pos geodesy.GeoPos) (float64, error)

	// Sample returns the raw post (col, row).
	Sample(col, row int) (float64, error)

	// GeoPos returns the position of fractional post coordinates.
	GeoPos(col, row float64) geodesy.GeoPos

	// Index is the inverse of GeoPos.
	Index(pos geodesy.GeoPos) (col, row float64)

	// Size returns the number of post columns and rows.
	Size() (cols, rows int)

	NoDataValue() float64
}

// Georeferencing maps output image pixels to geographic positions. Pixel
// centres lie at integer + 0.5.
type Georeferencing interface {
	PixelToGeo(x, y float64) (geodesy.GeoPos, bool)
	GeoToPixel(pos geodesy.GeoPos) (x, y float64, ok bool)
}

// Geoid returns the geoid height above the ellipsoid in metres.
type Geoid interface {
	Height(lat, lon float64) float64
}

// Geometry maps output image coordinates to ECEF points on the ground.
// It is used to measure the range to azimuth pixel spacing ratio.
type Geometry interface {
	LineAndPixelToXYZ(line, pixel float64) (r3.Vector, error)
}

// Method selects the resampling strategy.
type Method int

const (
	// MethodDirect samples the DEM once per output pixel.
	MethodDirect Method = iota

	// MethodDelaunay triangulates the DEM posts in output pixel space.
	MethodDelaunay
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodDirect:
		return "direct"
	case MethodDelaunay:
		return "delaunay"
	default:
		return "unknown"
	}
}

// ParseMethod converts a name produced by Method.String back to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "direct":
		return MethodDirect, nil
	case "delaunay":
		return MethodDelaunay, nil
	default:
		return 0, errors.Errorf("dem: unknown method %q", s)
	}
}
