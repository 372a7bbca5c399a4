package geom

import "math"

// Vec3 represents a point or direction in world space.
// Value type, passed by value (immutable).
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// NewVec3 creates a Vec3 with the given components.
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v scaled by k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}

// WithY returns v with the vertical component replaced (immutable pattern).
func (v Vec3) WithY(y float64) Vec3 {
	v.Y = y
	return v
}

// Length returns the vector magnitude.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dist returns the distance to another point.
func (v Vec3) Dist(other Vec3) float64 {
	return v.Sub(other).Length()
}

// DistSquared returns the squared distance (no sqrt, for hot-path comparisons).
func (v Vec3) DistSquared(other Vec3) float64 {
	d := v.Sub(other)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}

// DistXZ returns the horizontal (ground-plane) distance to another point.
// The lattice is 2.5D: slot dedup and spacing checks ignore height.
func (v Vec3) DistXZ(other Vec3) float64 {
	dx := v.X - other.X
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Normalized returns the unit vector in v's direction,
// or the zero vector if v is degenerate.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < Epsilon {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Epsilon is the tolerance below which lengths and distances are
// treated as degenerate (zero-length bridges, coincident anchors).
const Epsilon = 1e-6
