package geodesy

import (
	"math"

	"github.com/golang/geo/r3"
)

// GeoToCartesian converts a geodetic position to Earth-centred
// Earth-fixed Cartesian coordinates. NaN inputs propagate.
func GeoToCartesian(lat, lon, alt float64, e Ellipsoid) r3.Vector {
	sinLat, cosLat := math.Sincos(rad(lat))
	sinLon, cosLon := math.Sincos(rad(lon))

	n := e.A / math.Sqrt(1-e.E2()*sinLat*sinLat)
	return r3.Vector{
		X: (n + alt) * cosLat * cosLon,
		Y: (n + alt) * cosLat * sinLon,
		Z: (n*(1-e.E2()) + alt) * sinLat,
	}
}

// CartesianToGeo converts ECEF coordinates back to a geodetic position
// using Bowring's closed form (no iteration). The longitude is returned in
// (-180, 180].
func CartesianToGeo(v r3.Vector, e Ellipsoid) GeoPos {
	a, b := e.A, e.B()
	e2, ep2 := e.E2(), e.EP2()

	p := math.Hypot(v.X, v.Y)
	theta := math.Atan2(v.Z*a, p*b)
	sinT, cosT := math.Sincos(theta)

	lat := math.Atan2(v.Z+ep2*b*sinT*sinT*sinT, p-e2*a*cosT*cosT*cosT)
	sinLat, cosLat := math.Sincos(lat)
	n := a / math.Sqrt(1-e2*sinLat*sinLat)

	// Stable at the poles, unlike p/cos(lat) - N.
	alt := p*cosLat + (v.Z+e2*n*sinLat)*sinLat - n

	lon := deg(math.Atan2(v.Y, v.X))
	if lon == -180 {
		lon = 180
	}
	return GeoPos{Lat: deg(lat), Lon: lon, Alt: alt}
}

// PolarToCartesian converts spherical coordinates (no flattening) to
// Cartesian ones.
func PolarToCartesian(lat, lon, radius float64) r3.Vector {
	sinLat, cosLat := math.Sincos(rad(lat))
	sinLon, cosLon := math.Sincos(rad(lon))
	return r3.Vector{
		X: radius * cosLat * cosLon,
		Y: radius * cosLat * sinLon,
		Z: radius * sinLat,
	}
}

// CartesianToPolar is the inverse of PolarToCartesian. The origin maps to
// (0, 0, 0).
func CartesianToPolar(v r3.Vector) (lat, lon, radius float64) {
	radius = v.Norm()
	if radius == 0 {
		return 0, 0, 0
	}
	lat = deg(math.Asin(v.Z / radius))
	lon = deg(math.Atan2(v.Y, v.X))
	return lat, lon, radius
}
