package dem

// Option configures a Resampler during creation.
//
// Example:
//
//	// Direct sampling with the model's no-data value
//	r := dem.NewResampler(model, georef)
//
//	// Triangulated resampling with geoid filling over the sea
//	r := dem.NewResampler(model, georef,
//		dem.WithMethod(dem.MethodDelaunay),
//		dem.WithGeoid(egm96),
//		dem.WithGeometry(sarGeometry))
type Option func(*options)

// options holds optional configuration for a Resampler.
type options struct {
	method      Method
	noData      float64
	noDataSet   bool
	nodataAtSea bool
	geoid       Geoid
	geometry    Geometry
	padding     float64
	workers     int
}

// defaultOptions returns the default resampler options.
func defaultOptions() options {
	return options{
		method:  MethodDirect,
		padding: 0.25,
		workers: 0, // GOMAXPROCS
	}
}

// WithMethod selects the resampling strategy.
func WithMethod(m Method) Option {
	return func(o *options) {
		o.method = m
	}
}

// WithNoDataValue sets the value written to cells without an elevation.
// It defaults to the model's NoDataValue.
func WithNoDataValue(v float64) Option {
	return func(o *options) {
		o.noData = v
		o.noDataSet = true
	}
}

// WithNodataAtSea keeps DEM gaps as no-data instead of filling them with
// geoid heights.
func WithNodataAtSea(atSea bool) Option {
	return func(o *options) {
		o.nodataAtSea = atSea
	}
}

// WithGeoid sets the geoid used to fill DEM gaps.
func WithGeoid(g Geoid) Option {
	return func(o *options) {
		o.geoid = g
	}
}

// WithGeometry sets the image geometry used for the range to azimuth
// spacing ratio of the Delaunay strategy. Without it the ratio is 1.
func WithGeometry(g Geometry) Option {
	return func(o *options) {
		o.geometry = g
	}
}

// WithPadding sets the fraction of the tile's geographic extent added on
// each side before collecting DEM posts for triangulation.
func WithPadding(f float64) Option {
	return func(o *options) {
		if f >= 0 {
			o.padding = f
		}
	}
}

// WithWorkers sets the number of goroutines used by LocalDEMs. Zero or
// negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
