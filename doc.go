// Package terrain provides the DEM gridding and geolocation core used by
// Range-Doppler terrain correction.
//
// # Overview
//
// terrain turns scattered DEM samples into a dense elevation patch aligned
// with an output image tile. The work is split into small packages that can
// be used on their own:
//
//   - geodesy: ellipsoid and Cartesian conversions, Vincenty direct/inverse,
//     Newton solving of a point on the ellipsoid at a given slant range
//   - polyfit: least-squares polynomial fitting and fast bivariate evaluation
//   - delaunay: incremental Delaunay triangulation of an irregular point set
//   - griddata: planar per-triangle interpolation onto a regular grid
//   - orbit: state-vector orbits and SAR line/pixel geolocation
//   - dem: elevation model contracts and the local patch resampler
//
// # Quick Start
//
//	model, err := dem.NewGridModel(dem.GridSpec{...}, samples, dem.ResampleBilinear)
//	if err != nil {
//		return err
//	}
//	georef := dem.NewAffineGeoref(lat0, lon0, dLat, dLon, width, height)
//
//	r := dem.NewResampler(model, georef, dem.WithMethod(dem.MethodDelaunay))
//	patch, valid, err := r.LocalDEM(x0, y0, 64, 64)
//
// Resampler.Scene splits a whole image into tiles and computes them on a
// worker pool.
//
// # Coordinate System
//
// Image coordinates follow the usual raster convention:
//   - Origin (0,0) at the top-left corner of the top-left pixel
//   - X increases right (range), Y increases down (azimuth)
//   - Pixel centers sit at integer + 0.5
//
// Geographic coordinates are degrees, altitudes are metres above the
// ellipsoid.
//
// # Concurrency
//
// All functions in geodesy, polyfit, delaunay and griddata are pure or
// operate on values owned by the caller. A dem.Resampler may be shared by
// goroutines computing different tiles.
package terrain

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0
)
