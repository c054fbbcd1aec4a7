// Package geodesy provides ellipsoidal coordinate transforms, Vincenty
// geodesics, and the Newton solver that places a SAR echo on the ellipsoid.
//
// All functions are pure and safe for concurrent use. Angles are degrees
// unless a name says otherwise, distances are metres.
package geodesy

import "math"

// LightSpeed is the speed of light in vacuum in m/s.
const LightSpeed = 299792458.0

// Ellipsoid is a reference ellipsoid given by its semi-major axis and
// flattening.
type Ellipsoid struct {
	Name string
	A    float64 // semi-major axis (m)
	F    float64 // flattening
}

// Builtin reference ellipsoids.
var (
	WGS84 = Ellipsoid{Name: "WGS84", A: 6378137.0, F: 1 / 298.257223563}
	GRS80 = Ellipsoid{Name: "GRS80", A: 6378137.0, F: 1 / 298.257222101}
)

// Sphere returns a zero-flattening ellipsoid of the given radius.
func Sphere(radius float64) Ellipsoid {
	return Ellipsoid{Name: "sphere", A: radius}
}

// B returns the semi-minor axis.
func (e Ellipsoid) B() float64 {
	return e.A * (1 - e.F)
}

// E2 returns the first eccentricity squared.
func (e Ellipsoid) E2() float64 {
	return e.F * (2 - e.F)
}

// EP2 returns the second eccentricity squared.
func (e Ellipsoid) EP2() float64 {
	b := e.B()
	return (e.A*e.A - b*b) / (b * b)
}

// GeoPos is a geodetic position.
type GeoPos struct {
	Lat float64 // degrees
	Lon float64 // degrees
	Alt float64 // metres above the ellipsoid
}

// Valid reports whether the position has finite, in-range coordinates.
func (g GeoPos) Valid() bool {
	return !math.IsNaN(g.Lat) && !math.IsNaN(g.Lon) &&
		g.Lat >= -90 && g.Lat <= 90 && !math.IsInf(g.Lon, 0)
}

// NormalizeLon wraps a longitude into (-180, 180].
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon <= 0 {
		lon += 360
	}
	return lon - 180
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
func deg(rad float64) float64 { return rad * 180 / math.Pi }

// normalizeHeading wraps an azimuth into [0, 360).
func normalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
