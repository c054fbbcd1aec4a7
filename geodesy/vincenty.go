package geodesy

import "math"

const (
	// directEps bounds the change of sigma between iterations of VincentyDirect.
	directEps = 1e-10

	// inverseEps bounds the change of lambda between iterations of
	// VincentyInverse.
	inverseEps = 1e-12

	// coincidentEps is the lat/lon difference (degrees) below which two
	// points are treated as the same position.
	coincidentEps = 1e-5

	maxVincentyIterations = 200
)

// Direct is the result of VincentyDirect.
type Direct struct {
	Lon, Lat float64

	// BackHeading is the azimuth from the destination back to the start,
	// in [0, 360).
	BackHeading float64

	Converged  bool
	Iterations int
}

// Inverse is the result of VincentyInverse.
type Inverse struct {
	Distance float64

	// Heading1 is the azimuth at the first point towards the second.
	// Heading2 is the azimuth at the second point back towards the first.
	// Both are -1 when the points coincide.
	Heading1, Heading2 float64

	Converged  bool
	Iterations int
}

// VincentyDirect projects the point (lon, lat) a given distance along a
// heading (degrees clockwise from north) on the ellipsoid e.
//
// Pass Sphere(r) to reproduce a great-circle solution.
func VincentyDirect(lon, lat, distance, heading float64, e Ellipsoid) Direct {
	a, b, f := e.A, e.B(), e.F

	sinA1, cosA1 := math.Sincos(rad(heading))
	tanU1 := (1 - f) * math.Tan(rad(lat))
	cosU1 := 1 / math.Sqrt(1+tanU1*tanU1)
	sinU1 := tanU1 * cosU1

	sigma1 := math.Atan2(tanU1, cosA1)
	sinAlpha := cosU1 * sinA1
	cos2Alpha := 1 - sinAlpha*sinAlpha
	u2 := cos2Alpha * (a*a - b*b) / (b * b)
	bigA := 1 + u2/16384*(4096+u2*(-768+u2*(320-175*u2)))
	bigB := u2 / 1024 * (256 + u2*(-128+u2*(74-47*u2)))

	sigma := distance / (b * bigA)
	var sinS, cosS, cos2SM float64
	res := Direct{}
	for res.Iterations < maxVincentyIterations {
		res.Iterations++
		cos2SM = math.Cos(2*sigma1 + sigma)
		sinS, cosS = math.Sincos(sigma)
		deltaSigma := bigB * sinS * (cos2SM + bigB/4*(cosS*(-1+2*cos2SM*cos2SM)-
			bigB/6*cos2SM*(-3+4*sinS*sinS)*(-3+4*cos2SM*cos2SM)))
		prev := sigma
		sigma = distance/(b*bigA) + deltaSigma
		if math.Abs(sigma-prev) < directEps {
			res.Converged = true
			break
		}
	}
	cos2SM = math.Cos(2*sigma1 + sigma)
	sinS, cosS = math.Sincos(sigma)

	tmp := sinU1*sinS - cosU1*cosS*cosA1
	lat2 := math.Atan2(sinU1*cosS+cosU1*sinS*cosA1, (1-f)*math.Sqrt(sinAlpha*sinAlpha+tmp*tmp))
	lambda := math.Atan2(sinS*sinA1, cosU1*cosS-sinU1*sinS*cosA1)
	c := f / 16 * cos2Alpha * (4 + f*(4-3*cos2Alpha))
	l := lambda - (1-c)*f*sinAlpha*(sigma+c*sinS*(cos2SM+c*cosS*(-1+2*cos2SM*cos2SM)))

	alpha2 := math.Atan2(sinAlpha, -tmp)

	res.Lon = NormalizeLon(lon + deg(l))
	res.Lat = deg(lat2)
	res.BackHeading = normalizeHeading(deg(alpha2) + 180)
	return res
}

// VincentyInverse computes the geodesic distance and headings between two
// points on the ellipsoid e. Nearly antipodal points may not converge; the
// last estimate is returned with Converged set to false.
func VincentyInverse(lon1, lat1, lon2, lat2 float64, e Ellipsoid) Inverse {
	if math.Abs(lat1-lat2) < coincidentEps && math.Abs(lon1-lon2) < coincidentEps {
		return Inverse{Distance: 0, Heading1: -1, Heading2: -1, Converged: true}
	}

	a, b, f := e.A, e.B(), e.F

	l := rad(lon2 - lon1)
	u1 := math.Atan((1 - f) * math.Tan(rad(lat1)))
	u2 := math.Atan((1 - f) * math.Tan(rad(lat2)))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := l
	var sinL, cosL, sinSigma, cosSigma, sigma, cos2Alpha, cos2SM float64
	res := Inverse{}
	for res.Iterations < maxVincentyIterations {
		res.Iterations++
		sinL, cosL = math.Sincos(lambda)
		t1 := cosU2 * sinL
		t2 := cosU1*sinU2 - sinU1*cosU2*cosL
		sinSigma = math.Sqrt(t1*t1 + t2*t2)
		if sinSigma == 0 {
			return Inverse{Distance: 0, Heading1: -1, Heading2: -1, Converged: true, Iterations: res.Iterations}
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosL
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinL / sinSigma
		cos2Alpha = 1 - sinAlpha*sinAlpha
		if cos2Alpha != 0 {
			cos2SM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		} else {
			cos2SM = 0 // equatorial line
		}
		c := f / 16 * cos2Alpha * (4 + f*(4-3*cos2Alpha))
		prev := lambda
		lambda = l + (1-c)*f*sinAlpha*(sigma+c*sinSigma*(cos2SM+c*cosSigma*(-1+2*cos2SM*cos2SM)))
		if math.Abs(lambda-prev) < inverseEps {
			res.Converged = true
			break
		}
	}

	uSq := cos2Alpha * (a*a - b*b) / (b * b)
	bigA := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	bigB := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := bigB * sinSigma * (cos2SM + bigB/4*(cosSigma*(-1+2*cos2SM*cos2SM)-
		bigB/6*cos2SM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SM*cos2SM)))

	res.Distance = b * bigA * (sigma - deltaSigma)

	alpha1 := math.Atan2(cosU2*sinL, cosU1*sinU2-sinU1*cosU2*cosL)
	alpha2 := math.Atan2(cosU1*sinL, -sinU1*cosU2+cosU1*sinU2*cosL)
	res.Heading1 = normalizeHeading(deg(alpha1))
	res.Heading2 = normalizeHeading(deg(alpha2) + 180)
	return res
}
