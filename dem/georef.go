package dem

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/gogpu/terrain/geodesy"
)

// AffineGeoref is a north-up geographic image georeferencing. Pixel (0, 0)
// has its upper-left corner at (Lat0, Lon0); each pixel spans DLat degrees
// south and DLon degrees east.
//
// Longitudes are measured from the centre of the image, so images that
// straddle the antimeridian map to continuous pixel coordinates.
type AffineGeoref struct {
	Lat0, Lon0 float64
	DLat, DLon float64

	// Width and Height size the image in pixels. They only choose the
	// longitude centre and may be left zero for small images.
	Width, Height int
}

var (
	_ Georeferencing = AffineGeoref{}
	_ Geometry       = AffineGeoref{}
)

// NewAffineGeoref returns the georeferencing of a width×height image.
func NewAffineGeoref(lat0, lon0, dLat, dLon float64, width, height int) AffineGeoref {
	return AffineGeoref{Lat0: lat0, Lon0: lon0, DLat: dLat, DLon: dLon, Width: width, Height: height}
}

func (g AffineGeoref) PixelToGeo(x, y float64) (geodesy.GeoPos, bool) {
	pos := geodesy.GeoPos{
		Lat: g.Lat0 - y*g.DLat,
		Lon: geodesy.NormalizeLon(g.Lon0 + x*g.DLon),
	}
	return pos, pos.Valid()
}

func (g AffineGeoref) GeoToPixel(pos geodesy.GeoPos) (x, y float64, ok bool) {
	if !pos.Valid() || g.DLat == 0 || g.DLon == 0 {
		return 0, 0, false
	}
	half := float64(g.Width) * g.DLon / 2
	x = (half + geodesy.NormalizeLon(pos.Lon-(g.Lon0+half))) / g.DLon
	y = (g.Lat0 - pos.Lat) / g.DLat
	return x, y, true
}

// LineAndPixelToXYZ returns the WGS84 surface point under (pixel, line),
// letting a map-projected image stand in for a radar geometry.
func (g AffineGeoref) LineAndPixelToXYZ(line, pixel float64) (r3.Vector, error) {
	pos, ok := g.PixelToGeo(pixel, line)
	if !ok || math.IsNaN(pos.Lat) {
		return r3.Vector{}, errors.Errorf("dem: pixel %v line %v is off the globe", pixel, line)
	}
	return geodesy.GeoToCartesian(pos.Lat, pos.Lon, 0, geodesy.WGS84), nil
}
