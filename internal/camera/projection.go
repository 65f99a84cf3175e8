package camera

import (
	"math"

	"voxelcarver/internal/view"
	"voxelcarver/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// commonResolutions are the calibration resolutions considered when
// guessing the resolution a calibration was solved at.
var commonResolutions = [][2]float64{
	{640, 480}, {800, 600}, {1024, 768}, {1280, 720}, {1280, 960}, {1920, 1080},
}

// fovForFocalLength computes the horizontal field of view in degrees for
// a focal length and viewport width, both in pixels.
func fovForFocalLength(focalLength, viewWidth float64) float64 {
	return geometry.Degrees(2 * math.Atan(viewWidth/(2*focalLength)))
}

// guessCalibrationResolution estimates the resolution a calibration was
// performed at, assuming the principal point sits near the image center.
// When no common resolution fits, twice the principal point is used.
func guessCalibrationResolution(cx, cy float64) (width, height float64) {
	width = cx * 2
	height = cy * 2

	bestErr := math.MaxFloat64
	for _, res := range commonResolutions {
		rx, ry := res[0], res[1]
		if cx < rx && cy < ry {
			err := math.Abs(cx-rx/2)/(rx/2) + math.Abs(cy-ry/2)/(ry/2)
			if err < bestErr {
				bestErr = err
				width = rx
				height = ry
			}
		}
	}
	return width, height
}

// projFromIntrinsics maps calibration intrinsics into a normalized-device
// projection matrix for the given viewport. The calibration resolution is
// guessed from the principal point, then focal length and principal point
// are uniformly rescaled to fit the viewport, centering any leftover
// letterbox or pillarbox margin. An invalid intrinsic matrix falls back
// to the default perspective projection.
func projFromIntrinsics(intrinsic *mat.Dense, width, height, near, far float64) geometry.Mat4 {
	if intrinsic == nil {
		return geometry.Perspective(view.DefaultFOV, width/height, near, far)
	}
	if r, c := intrinsic.Dims(); r < 3 || c < 3 {
		return geometry.Perspective(view.DefaultFOV, width/height, near, far)
	}

	fx := intrinsic.At(0, 0)
	fy := intrinsic.At(1, 1)
	cx := intrinsic.At(0, 2)
	cy := intrinsic.At(1, 2)

	calibW, calibH := guessCalibrationResolution(cx, cy)

	// Uniform scale to fit the viewport, preserving aspect.
	scale := math.Min(width/calibW, height/calibH)
	fxs := fx * scale
	fys := fy * scale
	cxs := cx*scale + (width-calibW*scale)*0.5
	cys := cy*scale + (height-calibH*scale)*0.5

	var proj geometry.Mat4
	proj.Set(0, 0, 2*fxs/width)
	proj.Set(1, 1, 2*fys/height)
	proj.Set(0, 2, 1-2*cxs/width)
	proj.Set(1, 2, 2*cys/height-1)
	proj.Set(2, 2, -(far+near)/(far-near))
	proj.Set(3, 2, -1)
	proj.Set(2, 3, -2*far*near/(far-near))
	return proj
}

// renderBasis remaps a calibration-space rotation matrix into the render
// coordinate convention. Calibration space is right-handed with Y down
// and Z forward; render space is right-handed with Y up and Z toward the
// viewer, so axes permute as (x, y, z) -> (x, z, -y) with the row signs
// chosen to keep the basis right-handed. Every downstream visibility test
// depends on this exact permutation, so it lives here and nowhere else.
func renderBasis(rotation *mat.Dense) (right, upward, forward geometry.Vec3) {
	right = geometry.Vec3{
		X: rotation.At(0, 0),
		Y: rotation.At(0, 2),
		Z: -rotation.At(0, 1),
	}
	upward = geometry.Vec3{
		X: -rotation.At(1, 0),
		Y: -rotation.At(1, 2),
		Z: rotation.At(1, 1),
	}
	forward = geometry.Vec3{
		X: -rotation.At(2, 0),
		Y: -rotation.At(2, 2),
		Z: rotation.At(2, 1),
	}
	return right, upward, forward
}

// renderPosition remaps a calibration-space point into the render
// coordinate convention, using the same axis permutation as renderBasis.
func renderPosition(p geometry.Vec3) geometry.Vec3 {
	return geometry.Vec3{X: p.X, Y: p.Z, Z: -p.Y}
}

// rodrigues converts a rotation vector to the corresponding 3x3 rotation
// matrix. The vector's direction is the rotation axis and its length the
// rotation angle in radians.
func rodrigues(rvec geometry.Vec3) *mat.Dense {
	theta := rvec.Length()
	if theta < geometry.Epsilon {
		return mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		})
	}

	axis := rvec.Scale(1 / theta)
	c := math.Cos(theta)
	s := math.Sin(theta)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z

	return mat.NewDense(3, 3, []float64{
		t*x*x + c, t*x*y - s*z, t*x*z + s*y,
		t*x*y + s*z, t*y*y + c, t*y*z - s*x,
		t*x*z - s*y, t*y*z + s*x, t*z*z + c,
	})
}
