// Package view defines the calibrated camera view entity shared between
// the camera rig and the carving engine.
package view

import (
	"image"
	"math"

	"voxelcarver/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// Default freeform camera placement and projection parameters.
const (
	DefaultCamDist = 2000.0

	DefaultFOV  = 60.0
	DefaultNear = 0.1
	DefaultFar  = 10000.0
)

// MaskOn is the sentinel value marking a foreground pixel in an 8-bit mask.
const MaskOn = 255

// DefaultEye is the fallback camera position used when a derived position
// is numerically degenerate.
var DefaultEye = geometry.NewVec3(DefaultCamDist*0.75, DefaultCamDist*0.75, DefaultCamDist*0.75)

// DefaultAt is the default look-at target.
var DefaultAt = geometry.Vec3{}

// DefaultUp is the default up direction.
var DefaultUp = geometry.NewVec3(0, 1, 0)

// View stores camera parameters, calibration data, and image resources for
// a single view. Render-space fields (eye/basis/projection) live in the
// right-handed Y-up convention; calibration fields stay in the calibration
// convention they were solved in. CalibrateView on the camera rig derives
// the former from the latter.
type View struct {
	// Render-space pose and projection
	Eye geometry.Vec3 // Camera position
	At  geometry.Vec3 // Look-at center
	Up  geometry.Vec3 // Up direction

	FOV  float64 // Horizontal field of view in degrees
	Near float64 // Near clipping plane
	Far  float64 // Far clipping plane

	Forward geometry.Vec3 // Viewing direction
	Upward  geometry.Vec3 // Derived up basis vector
	Right   geometry.Vec3 // Derived right basis vector

	Proj geometry.Mat4 // Projection matrix

	// Calibration data, always double precision
	Intrinsic  *mat.Dense // 3x3 intrinsic camera matrix
	Distortion []float64  // Distortion coefficients (k1, k2, p1, p2, k3, ...)
	Rvec       geometry.Vec3
	Tvec       geometry.Vec3
	TvecProj   geometry.Vec3 // Translation re-expressed for projection
	Rotation   *mat.Dense    // 3x3 rotation cached from Rvec

	FocalLength    [2]float64 // (fx, fy)
	PrincipalPoint [2]float64 // (cx, cy)

	// Occupancy mask derived from the foreground/background image pair.
	// Nil when the view could not produce one; such a view never reports
	// a point as visible.
	Mask *image.Gray

	// Source file paths
	BackgroundPath  string
	ForegroundPath  string
	CalibrationPath string
}

// New creates a view with default freeform parameters and zeroed
// calibration matrices.
func New() *View {
	v := &View{
		Eye:  DefaultEye,
		At:   DefaultAt,
		Up:   DefaultUp,
		FOV:  DefaultFOV,
		Near: DefaultNear,
		Far:  DefaultFar,

		Intrinsic:  mat.NewDense(3, 3, nil),
		Distortion: make([]float64, 5),
		Proj:       geometry.Identity(),
	}
	v.Forward = v.At.Sub(v.Eye).Normalize()
	v.Upward = v.Up
	v.Right = v.Forward.Cross(v.Upward).Normalize()
	return v
}

// Project maps a point in calibration-space world coordinates to an
// image-plane coordinate through the view's extrinsic pose, intrinsics,
// and lens distortion. ok is false when the view has no pose or the point
// sits on the camera plane.
func (v *View) Project(p geometry.Vec3) (pt geometry.Point2D, ok bool) {
	if v.Rotation == nil || v.Intrinsic == nil {
		return geometry.Point2D{}, false
	}

	// Camera-space point: R*p + t
	cx := v.Rotation.At(0, 0)*p.X + v.Rotation.At(0, 1)*p.Y + v.Rotation.At(0, 2)*p.Z + v.TvecProj.X
	cy := v.Rotation.At(1, 0)*p.X + v.Rotation.At(1, 1)*p.Y + v.Rotation.At(1, 2)*p.Z + v.TvecProj.Y
	cz := v.Rotation.At(2, 0)*p.X + v.Rotation.At(2, 1)*p.Y + v.Rotation.At(2, 2)*p.Z + v.TvecProj.Z

	if math.Abs(cz) < geometry.Epsilon {
		return geometry.Point2D{}, false
	}

	xn := cx / cz
	yn := cy / cz

	// Radial and tangential distortion
	var k1, k2, p1, p2, k3 float64
	if len(v.Distortion) >= 4 {
		k1, k2, p1, p2 = v.Distortion[0], v.Distortion[1], v.Distortion[2], v.Distortion[3]
	}
	if len(v.Distortion) >= 5 {
		k3 = v.Distortion[4]
	}

	r2 := xn*xn + yn*yn
	radial := 1 + r2*(k1+r2*(k2+r2*k3))
	xd := xn*radial + 2*p1*xn*yn + p2*(r2+2*xn*xn)
	yd := yn*radial + p1*(r2+2*yn*yn) + 2*p2*xn*yn

	fx := v.Intrinsic.At(0, 0)
	fy := v.Intrinsic.At(1, 1)
	ppx := v.Intrinsic.At(0, 2)
	ppy := v.Intrinsic.At(1, 2)

	return geometry.NewPoint2D(fx*xd+ppx, fy*yd+ppy), true
}

// VisibleInMask reports whether a calibration-space world point projects
// onto a foreground pixel of the view's mask. Views without a mask never
// report visibility.
func (v *View) VisibleInMask(p geometry.Vec3) bool {
	if v.Mask == nil {
		return false
	}

	pt, ok := v.Project(p)
	if !ok {
		return false
	}

	px := pt.Round()
	bounds := v.Mask.Bounds()
	if px.X < bounds.Min.X || px.X >= bounds.Max.X || px.Y < bounds.Min.Y || px.Y >= bounds.Max.Y {
		return false
	}
	return v.Mask.GrayAt(px.X, px.Y).Y == MaskOn
}
