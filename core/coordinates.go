package core

import (
	"fmt"
	"math"

	"github.com/shandianxiao218/fly-cline/model"
)

// WGS84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (m)
	wgs84F  = 1 / 298.257223563     // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared

	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// geodetic latitude iteration settings for ECEFToLLA.
const (
	llaIterTolerance = 1e-11 // radians
	llaIterCap       = 10
)

// LLAToECEF converts a geodetic position on the WGS84 ellipsoid to ECEF
// metres. The conversion is closed-form via the prime-vertical radius of
// curvature; no iteration is involved.
func LLAToECEF(p model.GeodeticPosition) (Vec3, error) {
	if !isFinite(p.LonDeg) || !isFinite(p.LatDeg) || !isFinite(p.AltM) {
		return Vec3{}, fmt.Errorf("%w: geodetic position", ErrMissingParameter)
	}

	lat := p.LatDeg * degToRad
	lon := p.LonDeg * degToRad
	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Vec3{
		X: (n + p.AltM) * cosLat * math.Cos(lon),
		Y: (n + p.AltM) * cosLat * math.Sin(lon),
		Z: (n*(1-wgs84E2) + p.AltM) * sinLat,
	}, nil
}

// ECEFToLLA converts an ECEF position to geodetic longitude/latitude/altitude
// on the WGS84 ellipsoid. Latitude is solved by fixed-point iteration until
// successive estimates agree to within 1e-11 radians (at most 10 rounds;
// convergence is typically reached in 4 or 5). Altitude is relative to the
// ellipsoid surface.
func ECEFToLLA(v Vec3) (model.GeodeticPosition, error) {
	if !v.IsFinite() {
		return model.GeodeticPosition{}, fmt.Errorf("%w: ECEF position", ErrMissingParameter)
	}

	lon := math.Atan2(v.Y, v.X)
	rho := math.Hypot(v.X, v.Y)

	// Near the poles the longitude plane is degenerate; latitude and
	// altitude follow directly from Z.
	if rho < 1e-9 {
		b := wgs84A * (1 - wgs84F)
		lat := math.Copysign(math.Pi/2, v.Z)
		return model.GeodeticPosition{
			LonDeg: lon * radToDeg,
			LatDeg: lat * radToDeg,
			AltM:   math.Abs(v.Z) - b,
		}, nil
	}

	lat := math.Atan2(v.Z, rho*(1-wgs84E2))
	for i := 0; i < llaIterCap; i++ {
		n, alt := primeVertical(lat, rho, v.Z)
		next := math.Atan2(v.Z, rho*(1-wgs84E2*n/(n+alt)))
		if math.Abs(next-lat) < llaIterTolerance {
			lat = next
			break
		}
		lat = next
	}

	_, alt := primeVertical(lat, rho, v.Z)

	return model.GeodeticPosition{
		LonDeg: lon * radToDeg,
		LatDeg: lat * radToDeg,
		AltM:   alt,
	}, nil
}

// primeVertical evaluates the prime-vertical radius of curvature and the
// ellipsoidal altitude at the given latitude. Altitude comes from whichever
// axis dominates: dividing by cos(lat) amplifies the latitude residual near
// the poles, so high latitudes use the Z form instead.
func primeVertical(lat, rho, z float64) (n, alt float64) {
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	n = wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
	if math.Abs(cosLat) > math.Abs(sinLat) {
		alt = rho/cosLat - n
	} else {
		alt = z/sinLat - n*(1-wgs84E2)
	}
	return n, alt
}

// mat3 is a 3x3 rotation matrix in row-major order.
type mat3 [3][3]float64

func (m mat3) mul(o mat3) mat3 {
	var r mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

func (m mat3) transpose() mat3 {
	return mat3{
		{m[0][0], m[1][0], m[2][0]},
		{m[0][1], m[1][1], m[2][1]},
		{m[0][2], m[1][2], m[2][2]},
	}
}

func (m mat3) apply(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// ecefToNEDRotation builds the rotation taking ECEF vectors into the local
// north-east-down frame at the given geodetic latitude/longitude (radians).
func ecefToNEDRotation(lat, lon float64) mat3 {
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	sinLon, cosLon := math.Sin(lon), math.Cos(lon)
	return mat3{
		{-sinLat * cosLon, -sinLat * sinLon, cosLat},
		{-sinLon, cosLon, 0},
		{-cosLat * cosLon, -cosLat * sinLon, -sinLat},
	}
}

// nedToBodyRotation builds the rotation taking NED vectors into the body
// frame for the given attitude. The Euler angles are applied in intrinsic
// yaw, then pitch, then roll order.
func nedToBodyRotation(att model.AttitudeEuler) mat3 {
	roll := att.RollDeg * degToRad
	pitch := att.PitchDeg * degToRad
	yaw := att.YawDeg * degToRad

	sr, cr := math.Sin(roll), math.Cos(roll)
	sp, cp := math.Sin(pitch), math.Cos(pitch)
	sy, cy := math.Sin(yaw), math.Cos(yaw)

	rYaw := mat3{{cy, sy, 0}, {-sy, cy, 0}, {0, 0, 1}}
	rPitch := mat3{{cp, 0, -sp}, {0, 1, 0}, {sp, 0, cp}}
	rRoll := mat3{{1, 0, 0}, {0, cr, sr}, {0, -sr, cr}}

	return rRoll.mul(rPitch).mul(rYaw)
}

// BodyToECEF converts a point expressed in the aircraft body frame
// (nose/right/down, metres) to ECEF, given the aircraft's geodetic position
// and Euler attitude.
func BodyToECEF(pos model.GeodeticPosition, att model.AttitudeEuler, offset model.BodyOffset) (Vec3, error) {
	if !attitudeFinite(att) {
		return Vec3{}, fmt.Errorf("%w: attitude", ErrMissingParameter)
	}
	if !isFinite(offset.X) || !isFinite(offset.Y) || !isFinite(offset.Z) {
		return Vec3{}, fmt.Errorf("%w: body offset", ErrMissingParameter)
	}

	origin, err := LLAToECEF(pos)
	if err != nil {
		return Vec3{}, err
	}

	lat := pos.LatDeg * degToRad
	lon := pos.LonDeg * degToRad

	// Body -> NED -> ECEF: both matrices are pure rotations, so their
	// inverses are the transposes used here.
	bodyToNED := nedToBodyRotation(att).transpose()
	nedToECEF := ecefToNEDRotation(lat, lon).transpose()

	local := nedToECEF.apply(bodyToNED.apply(Vec3{X: offset.X, Y: offset.Y, Z: offset.Z}))
	return origin.Add(local), nil
}

// ECEFToBody converts an ECEF point into the aircraft body frame. It is the
// exact inverse of BodyToECEF: a round trip reproduces the input to within
// floating-point precision.
func ECEFToBody(pos model.GeodeticPosition, att model.AttitudeEuler, point Vec3) (model.BodyOffset, error) {
	if !attitudeFinite(att) {
		return model.BodyOffset{}, fmt.Errorf("%w: attitude", ErrMissingParameter)
	}
	if !point.IsFinite() {
		return model.BodyOffset{}, fmt.Errorf("%w: ECEF point", ErrMissingParameter)
	}

	origin, err := LLAToECEF(pos)
	if err != nil {
		return model.BodyOffset{}, err
	}

	lat := pos.LatDeg * degToRad
	lon := pos.LonDeg * degToRad

	ned := ecefToNEDRotation(lat, lon).apply(point.Sub(origin))
	body := nedToBodyRotation(att).apply(ned)

	return model.BodyOffset{X: body.X, Y: body.Y, Z: body.Z}, nil
}

func attitudeFinite(att model.AttitudeEuler) bool {
	return isFinite(att.RollDeg) && isFinite(att.PitchDeg) && isFinite(att.YawDeg)
}
