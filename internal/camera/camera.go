// Package camera manages camera calibration and the interactive/static
// view state of the reconstruction scene.
package camera

import (
	"log"
	"math"

	"voxelcarver/internal/project"
	"voxelcarver/internal/view"
	"voxelcarver/pkg/geometry"
)

// Render viewport the projection parameters are derived for.
const (
	ViewWidth  = 1280
	ViewHeight = 720
)

// Camera rotation constants
const (
	rotationSpeedClose        = 100.0
	rotationSpeedFar          = 200.0
	rotationDistanceThreshold = 1000.0
)

// Camera zoom constants. Zoom distances are measured from the scene
// center.
const (
	zoomStepSize    = 100.0
	minZoomDistance = 200.0
	maxZoomDistance = 15000.0
)

// lookAtDistance places the look-at target of a calibrated view along its
// forward direction.
const lookAtDistance = 1000.0

// Rig owns the calibrated views of the loaded project and the current
// camera state: either a user-steerable freeform view or one of the fixed
// calibrated views.
type Rig struct {
	project      *project.Project
	views        []*view.View
	currentIndex int // -1 = freeform
	freeform     view.View
	current      view.View

	viewWidth  float64
	viewHeight float64
}

// NewRig creates a rig in freeform mode with no project loaded.
func NewRig() *Rig {
	r := &Rig{
		currentIndex: -1,
		viewWidth:    ViewWidth,
		viewHeight:   ViewHeight,
	}
	r.freeform = r.freeformView(view.DefaultEye)
	r.current = r.freeform
	return r
}

// LoadProject resolves calibration for every view of the project,
// derives their render parameters, and resets the rig to freeform mode
// seeded from the first camera's position. The confirmer is consulted
// when the project requests a fresh calibration solve, or when the
// persisted records turn out to be missing or unreadable.
func (r *Rig) LoadProject(proj *project.Project, confirmer Confirmer) error {
	r.project = proj
	r.views = make([]*view.View, len(proj.Views))
	for i := range proj.Views {
		v := view.New()
		v.BackgroundPath = proj.BackgroundPath(i)
		v.ForegroundPath = proj.ForegroundPath(i)
		v.CalibrationPath = proj.CalibrationPath(i)
		r.views[i] = v
	}

	if err := r.ResolveCalibration(proj.NeedsCalibration, confirmer); err != nil {
		return err
	}

	// Derive render-space parameters and masks for every view.
	for _, v := range r.views {
		if err := r.CalibrateView(v); err != nil {
			return err
		}
	}

	proj.NeedsCalibration = false

	// Seed the freeform view from the first camera's position.
	if len(r.views) > 0 {
		r.freeform = r.freeformView(r.views[0].Eye)
	}

	r.currentIndex = -1
	r.current = r.freeform
	return nil
}

// UnloadProject drops the loaded project and returns to the freeform view.
func (r *Rig) UnloadProject() {
	r.project = nil
	r.views = nil
	r.currentIndex = -1
	r.current = r.freeform
}

// Views returns the calibrated views of the loaded project.
func (r *Rig) Views() []*view.View {
	return r.views
}

// Current returns the camera state the renderer should use.
func (r *Rig) Current() view.View {
	return r.current
}

// CurrentIndex returns the active static view index, or -1 in freeform
// mode.
func (r *Rig) CurrentIndex() int {
	return r.currentIndex
}

// IsStaticView reports whether a fixed calibrated view is active.
func (r *Rig) IsStaticView() bool {
	return r.currentIndex >= 0
}

// SetView switches to a fixed calibrated view. The freeform pose is saved
// first so that deselecting (index -1) or interacting restores it.
func (r *Rig) SetView(index int) {
	if r.currentIndex == -1 {
		r.freeform = r.current
	}

	if index < 0 {
		r.currentIndex = -1
		r.current = r.freeform
		return
	}
	if index < len(r.views) {
		r.currentIndex = index
		r.current = *r.views[index]
	}
}

// Rotate orbits the freeform camera around its look-at target. Any
// rotation while a static view is active drops back to freeform mode
// starting from that view's position.
func (r *Rig) Rotate(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}

	r.restoreFreeform()

	offset := r.current.Eye.Sub(r.current.At)
	radius, azimuth, elevation := offset.Spherical()
	if radius < geometry.Epsilon {
		log.Println("camera: orbit radius too small, ignoring rotation")
		return
	}

	speed := rotationSpeedClose
	if radius > rotationDistanceThreshold {
		speed = rotationSpeedFar
	}
	azimuth += float64(dx) / speed
	elevation += float64(dy) / speed
	elevation = clamp(elevation, -geometry.HalfPi+geometry.Epsilon, geometry.HalfPi-geometry.Epsilon)

	r.current.Eye = r.current.At.Add(geometry.FromSpherical(radius, azimuth, elevation))
	r.freeform = r.current
}

// Zoom moves the freeform camera along its radius from the origin,
// clamped to the allowed distance range. The sign of delta selects the
// direction; its magnitude is ignored.
func (r *Rig) Zoom(delta int) {
	if delta == 0 {
		return
	}

	r.restoreFreeform()

	mag := r.current.Eye.Length()
	if mag < geometry.Epsilon {
		return
	}
	newMag := clamp(mag-zoomStepSize*sign(delta), minZoomDistance, maxZoomDistance)
	r.current.Eye = r.current.Eye.Scale(newMag / mag)
	r.freeform = r.current
}

// Resize recomputes field of view and projection for the freeform view
// and every calibrated view. Extrinsic poses are untouched.
func (r *Rig) Resize(width, height int) {
	r.viewWidth = float64(width)
	r.viewHeight = float64(height)

	r.freeform.FOV = view.DefaultFOV
	r.freeform.Proj = geometry.Perspective(view.DefaultFOV, r.viewWidth/r.viewHeight, view.DefaultNear, view.DefaultFar)

	for _, v := range r.views {
		v.FOV = fovForFocalLength(v.Intrinsic.At(0, 0), r.viewWidth)
		v.Proj = projFromIntrinsics(v.Intrinsic, r.viewWidth, r.viewHeight, view.DefaultNear, view.DefaultFar)
	}

	// Refresh whichever view is current.
	if r.currentIndex >= 0 && r.currentIndex < len(r.views) {
		r.current = *r.views[r.currentIndex]
	} else {
		r.current = r.freeform
	}
}

// restoreFreeform switches back to freeform mode on interaction,
// continuing from the current view's position.
func (r *Rig) restoreFreeform() {
	if r.currentIndex >= 0 {
		r.currentIndex = -1
		r.freeform = r.freeformView(r.current.Eye)
		r.current = r.freeform
	}
}

// freeformView builds a default interactive view at the given position.
func (r *Rig) freeformView(eye geometry.Vec3) view.View {
	v := view.New()
	v.Eye = eye
	v.At = view.DefaultAt
	v.Up = view.DefaultUp
	v.FOV = view.DefaultFOV
	v.Proj = geometry.Perspective(view.DefaultFOV, r.viewWidth/r.viewHeight, view.DefaultNear, view.DefaultFar)
	v.Forward = v.At.Sub(v.Eye).Normalize()
	v.Upward = v.Up
	v.Right = v.Forward.Cross(v.Upward).Normalize()
	return *v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func sign(v int) float64 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}
