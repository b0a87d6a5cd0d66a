package geo

import "math"

// NZTM2000 (EPSG:2193) projection parameters on the GRS80 ellipsoid.
// The trail catalogue publishes positions as easting/northing metres in
// this grid.
const (
	semiMajorAxis     = 6378137.0
	inverseFlattening = 298.257222101
	originLatitude    = 0.0
	centralMeridian   = 173.0 // degrees east
	scaleFactor       = 0.9996
	falseEasting      = 1600000.0
	falseNorthing     = 10000000.0
)

// Derived ellipsoid constants.
var (
	flattening = 1.0 / inverseFlattening
	eccSq      = flattening * (2 - flattening)
	thirdFlat  = flattening / (2 - flattening) // n = (a-b)/(a+b)

	rectifyingRadius, arcA0, arcA2, arcA4, arcA6 = meridianConstants()
)

// meridianConstants precomputes the meridian-arc series coefficients and the
// rectifying radius used by the foot-point latitude recovery.
func meridianConstants() (radius, a0, a2, a4, a6 float64) {
	n := flattening / (2 - flattening)
	n2 := n * n
	n4 := n2 * n2
	radius = semiMajorAxis * (1 - n) * (1 - n2) * (1 + 9*n2/4 + 225*n4/64)

	e2 := eccSq
	e4 := e2 * e2
	e6 := e4 * e2
	a0 = 1 - e2/4 - 3*e4/64 - 5*e6/256
	a2 = (3.0 / 8.0) * (e2 + e4/4 + 15*e6/128)
	a4 = (15.0 / 256.0) * (e4 + 3*e6/4)
	a6 = 35 * e6 / 3072
	return radius, a0, a2, a4, a6
}

// meridianArc returns the ellipsoidal distance in metres from the equator to
// latitude phi (radians).
func meridianArc(phi float64) float64 {
	return semiMajorAxis * (arcA0*phi -
		arcA2*math.Sin(2*phi) +
		arcA4*math.Sin(4*phi) -
		arcA6*math.Sin(6*phi))
}

// ProjectedToGeographic converts a grid position in metres to a WGS84 point.
// Accuracy is well inside 0.01 degrees across the projection's extent, which
// covers the catalogue's full coverage area.
func ProjectedToGeographic(easting, northing float64) Point {
	// Foot-point latitude from the rectified meridian distance.
	mPrime := (northing - falseNorthing) / scaleFactor
	sigma := mPrime / rectifyingRadius

	n := thirdFlat
	n2 := n * n
	n3 := n2 * n
	n4 := n2 * n2
	footPoint := sigma +
		(3*n/2-27*n3/32)*math.Sin(2*sigma) +
		(21*n2/16-55*n4/32)*math.Sin(4*sigma) +
		(151*n3/96)*math.Sin(6*sigma) +
		(1097*n4/512)*math.Sin(8*sigma)

	sinP := math.Sin(footPoint)
	sinSq := sinP * sinP
	rho := semiMajorAxis * (1 - eccSq) / math.Pow(1-eccSq*sinSq, 1.5)
	nu := semiMajorAxis / math.Sqrt(1-eccSq*sinSq)
	psi := nu / rho
	psi2 := psi * psi
	psi3 := psi2 * psi
	psi4 := psi2 * psi2
	t := math.Tan(footPoint)
	t2 := t * t
	t4 := t2 * t2
	t6 := t4 * t2

	ePrime := easting - falseEasting
	x := ePrime / (scaleFactor * nu)
	x2 := x * x
	tOverRho := t / (scaleFactor * rho)

	lat := footPoint -
		tOverRho*(x*ePrime/2) +
		tOverRho*(x*x2*ePrime/24)*(-4*psi2+9*psi*(1-t2)+12*t2) -
		tOverRho*(x*x2*x2*ePrime/720)*(8*psi4*(11-24*t2)-
			12*psi3*(21-71*t2)+
			15*psi2*(15-98*t2+15*t4)+
			180*psi*(5*t2-3*t4)+
			360*t4) +
		tOverRho*(x*x2*x2*x2*ePrime/40320)*(1385+3633*t2+4095*t4+1575*t6)

	secP := 1 / math.Cos(footPoint)
	lngOffset := secP * (x -
		(x*x2/6)*(psi+2*t2) +
		(x*x2*x2/120)*(-4*psi3*(1-6*t2)+psi2*(9-68*t2)+72*psi*t2+24*t4) -
		(x*x2*x2*x2/5040)*(61+662*t2+1320*t4+720*t6))

	return Point{
		Lat: lat * (180.0 / math.Pi),
		Lng: centralMeridian + lngOffset*(180.0/math.Pi),
	}
}

// GeographicToProjected converts a WGS84 point to grid easting/northing
// metres. Inverse of ProjectedToGeographic to well under a metre.
func GeographicToProjected(p Point) (easting, northing float64) {
	phi := p.Lat * (math.Pi / 180.0)
	omega := (p.Lng - centralMeridian) * (math.Pi / 180.0)

	sinP := math.Sin(phi)
	cosP := math.Cos(phi)
	sinSq := sinP * sinP
	rho := semiMajorAxis * (1 - eccSq) / math.Pow(1-eccSq*sinSq, 1.5)
	nu := semiMajorAxis / math.Sqrt(1-eccSq*sinSq)
	psi := nu / rho
	psi2 := psi * psi
	psi3 := psi2 * psi
	psi4 := psi2 * psi2
	t := math.Tan(phi)
	t2 := t * t
	t4 := t2 * t2
	t6 := t4 * t2

	cos2 := cosP * cosP
	w2 := omega * omega

	eastTerm := 1 +
		(w2*cos2/6)*(psi-t2) +
		(w2*w2*cos2*cos2/120)*(4*psi3*(1-6*t2)+psi2*(1+8*t2)-psi*2*t2+t4) +
		(w2*w2*w2*cos2*cos2*cos2/5040)*(61-479*t2+179*t4-t6)
	easting = falseEasting + scaleFactor*nu*omega*cosP*eastTerm

	arc := meridianArc(phi)
	northSeries := arc +
		(w2/2)*nu*sinP*cosP +
		(w2*w2/24)*nu*sinP*cosP*cos2*(4*psi2+psi-t2) +
		(w2*w2*w2/720)*nu*sinP*cosP*cos2*cos2*(8*psi4*(11-24*t2)-
			28*psi3*(1-6*t2)+
			psi2*(1-32*t2)-
			psi*2*t2+
			t4) +
		(w2*w2*w2*w2/40320)*nu*sinP*cosP*cos2*cos2*cos2*(1385-3111*t2+543*t4-t6)
	northing = falseNorthing + scaleFactor*northSeries
	return easting, northing
}
