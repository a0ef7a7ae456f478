package core

import "math"

// WGS84EquatorialRadiusM is the WGS84 semi-major axis in metres, also used
// as the default spherical Earth radius for occlusion testing.
const WGS84EquatorialRadiusM = 6378137.0

// Vec3 is an ECEF-style vector in metres.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// IsFinite reports whether all components are finite and non-NaN.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsOccluded reports whether the straight segment from observer to target
// intersects a spherical Earth of radius earthRadiusM centred at the ECEF
// origin. Only intersections within the segment itself count; the infinite
// extension of the line is ignored.
//
// The segment is parameterised as p(t) = observer + t*(target-observer),
// t in [0,1], and intersected with the sphere by solving the quadratic
// A t^2 + B t + C = 0.
func IsOccluded(observer, target Vec3, earthRadiusM float64) bool {
	d := target.Sub(observer)
	a := d.Dot(d)
	if a == 0 {
		// Observer and target coincide: no line of sight to test.
		return false
	}

	b := 2 * observer.Dot(d)
	c := observer.Dot(observer) - earthRadiusM*earthRadiusM

	disc := b*b - 4*a*c
	if disc < 0 {
		return false
	}

	sqrtDisc := math.Sqrt(disc)
	t1 := (-b - sqrtDisc) / (2 * a)
	t2 := (-b + sqrtDisc) / (2 * a)

	return (t1 >= 0 && t1 <= 1) || (t2 >= 0 && t2 <= 1)
}
