package geometry

import (
	"math"
)

// Vec3 represents a 3D vector or point with float64 components.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewVec3 creates a new Vec3.
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns the difference of two vectors.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns the vector scaled by a factor.
func (v Vec3) Scale(factor float64) Vec3 {
	return Vec3{X: v.X * factor, Y: v.Y * factor, Z: v.Z * factor}
}

// Dot returns the dot product with another vector.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product with another vector.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the Euclidean length of the vector.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit-length vector in the same direction.
// The zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if length < Epsilon {
		return v
	}
	return v.Scale(1 / length)
}

// Vec3Int represents a 3D grid coordinate with integer components.
type Vec3Int struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// ToFloat converts to Vec3.
func (v Vec3Int) ToFloat() Vec3 {
	return Vec3{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// Vec4 represents an RGBA color or homogeneous coordinate.
type Vec4 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// NewVec4 creates a new Vec4.
func NewVec4(x, y, z, w float64) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// Spherical converts a cartesian offset to (radius, azimuth, elevation).
// Azimuth is measured in the XZ plane from +X, elevation from the plane
// toward +Y.
func (v Vec3) Spherical() (radius, azimuth, elevation float64) {
	radius = v.Length()
	if radius < Epsilon {
		return 0, 0, 0
	}
	azimuth = math.Atan2(v.Z, v.X)
	elevation = math.Asin(clamp(v.Y/radius, -1, 1))
	return radius, azimuth, elevation
}

// FromSpherical converts (radius, azimuth, elevation) back to a cartesian
// offset.
func FromSpherical(radius, azimuth, elevation float64) Vec3 {
	cosElev := math.Cos(elevation)
	return Vec3{
		X: radius * math.Cos(azimuth) * cosElev,
		Y: radius * math.Sin(elevation),
		Z: radius * math.Sin(azimuth) * cosElev,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
