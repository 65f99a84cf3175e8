package camera

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"

	"voxelcarver/internal/mask"
	"voxelcarver/internal/project"
	"voxelcarver/internal/view"
	"voxelcarver/pkg/geometry"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v2"
)

// Calibration failure modes callers branch on.
var (
	ErrUncalibrated        = errors.New("view has no usable calibration record")
	ErrCalibrationAborted  = errors.New("calibration aborted by user")
	ErrNotEnoughDetections = errors.New("not enough chessboards detected (need at least 75% of views)")
)

// calibrationRecord is the persisted calibration of one view. The key
// names match the records the calibration tooling has always written, so
// existing files keep loading.
type calibrationRecord struct {
	CameraMatrix [][]float64 `yaml:"camera_matrix"`
	DistCoeffs   []float64   `yaml:"dist_coeffs"`
	Rvec         []float64   `yaml:"rvec"`
	Tvec         []float64   `yaml:"tvec"`
}

// ResolveCalibration obtains calibration parameters for every view:
// either by running the solve and persisting the results, or by loading
// previously persisted records. Missing or unreadable records are treated
// as a request to calibrate, so a project whose records were never
// written (or deleted) still loads.
func (r *Rig) ResolveCalibration(needsRecalibration bool, confirmer Confirmer) error {
	if !needsRecalibration {
		err := r.ReadCalibration()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrUncalibrated) {
			return err
		}
		log.Printf("camera: %v, running calibration", err)
	}

	if err := r.RunCalibration(confirmer); err != nil {
		return err
	}
	return r.WriteCalibration()
}

// RunCalibration detects the configured chessboard pattern in every
// view's background image, asks the confirmer to accept each detection,
// and solves for one shared intrinsic matrix plus per-view extrinsics.
// Views whose detection fails are skipped; the solve fails outright when
// fewer than 75% of views detect, or when the confirmer rejects any view.
func (r *Rig) RunCalibration(confirmer Confirmer) error {
	if r.project == nil {
		return errors.New("no project loaded")
	}
	if len(r.views) == 0 {
		return errors.New("project has no views")
	}

	cols := r.project.ChessCols
	rows := r.project.ChessRows
	spacing := r.project.SquareSize + project.ChessPadding

	// One shared set of 3D reference points for the chessboard pattern.
	objPoints := make([]gocv.Point3f, 0, cols*rows)
	for i := 0; i < cols*rows; i++ {
		objPoints = append(objPoints, gocv.Point3f{
			X: float32(float64(i/rows) * spacing),
			Y: float32(float64(i%rows) * spacing),
			Z: 0,
		})
	}

	type detection struct {
		viewIndex int
		img       gocv.Mat
		corners   gocv.Mat
	}
	var detections []detection
	defer func() {
		for _, d := range detections {
			d.img.Close()
			d.corners.Close()
		}
	}()

	for i, v := range r.views {
		img := gocv.IMRead(v.BackgroundPath, gocv.IMReadGrayScale)
		if img.Empty() {
			img.Close()
			return fmt.Errorf("cannot read background image %q", v.BackgroundPath)
		}

		corners := gocv.NewMat()
		found := gocv.FindChessboardCorners(img, image.Pt(rows, cols), &corners,
			gocv.CalibCBAdaptiveThresh|gocv.CalibCBNormalizeImage)
		if !found {
			img.Close()
			corners.Close()
			continue
		}

		term := gocv.NewTermCriteria(gocv.EPS+gocv.MaxIter, 30, 0.1)
		gocv.CornerSubPix(img, &corners, image.Pt(11, 11), image.Pt(-1, -1), term)

		detections = append(detections, detection{viewIndex: i, img: img, corners: corners})
	}

	// Preview each detection and require confirmation; a single reject
	// aborts the whole solve.
	for _, d := range detections {
		preview := gocv.NewMat()
		gocv.CvtColor(d.img, &preview, gocv.ColorGrayToBGR)
		gocv.DrawChessboardCorners(&preview, image.Pt(rows, cols), d.corners, true)

		accepted, err := confirmer.Confirm(d.viewIndex, preview)
		preview.Close()
		if err != nil {
			return fmt.Errorf("confirm view %d: %w", d.viewIndex, err)
		}
		if !accepted {
			return ErrCalibrationAborted
		}
	}

	if len(detections)*4 < len(r.views)*3 {
		return ErrNotEnoughDetections
	}

	imagePoints := gocv.NewPoints2fVector()
	defer imagePoints.Close()
	objectPoints := gocv.NewPoints3fVector()
	defer objectPoints.Close()

	for _, d := range detections {
		pts := make([]gocv.Point2f, d.corners.Rows())
		for j := range pts {
			pts[j] = gocv.Point2f{
				X: d.corners.GetFloatAt(j, 0),
				Y: d.corners.GetFloatAt(j, 1),
			}
		}
		imagePoints.Append(gocv.NewPoint2fVectorFromPoints(pts))
		objectPoints.Append(gocv.NewPoint3fVectorFromPoints(objPoints))
	}

	cameraMatrix := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer cameraMatrix.Close()
	for i := 0; i < 3; i++ {
		cameraMatrix.SetDoubleAt(i, i, 1)
	}
	distCoeffs := gocv.NewMatWithSize(1, 5, gocv.MatTypeCV64F)
	defer distCoeffs.Close()
	rvecs := gocv.NewMat()
	defer rvecs.Close()
	tvecs := gocv.NewMat()
	defer tvecs.Close()

	size := image.Pt(detections[0].img.Cols(), detections[0].img.Rows())
	rms := gocv.CalibrateCamera(objectPoints, imagePoints, size, &cameraMatrix, &distCoeffs, &rvecs, &tvecs, gocv.CalibFlag(0))
	log.Printf("camera: calibrated %d of %d views, RMS reprojection error %.4f", len(detections), len(r.views), rms)

	intrinsic := denseFromMat(cameraMatrix)
	dist := make([]float64, distCoeffs.Cols())
	for j := range dist {
		dist[j] = distCoeffs.GetDoubleAt(0, j)
	}

	// One shared intrinsic/distortion set, per-view extrinsics. Views
	// without a detection keep their previous calibration, if any.
	for n, d := range detections {
		v := r.views[d.viewIndex]
		v.Intrinsic = mat.DenseCopyOf(intrinsic)
		v.Distortion = append([]float64(nil), dist...)
		v.Rvec = geometry.NewVec3(rvecs.GetDoubleAt(n, 0), rvecs.GetDoubleAt(n, 1), rvecs.GetDoubleAt(n, 2))
		v.Tvec = geometry.NewVec3(tvecs.GetDoubleAt(n, 0), tvecs.GetDoubleAt(n, 1), tvecs.GetDoubleAt(n, 2))
	}

	return nil
}

// ReadCalibration loads the persisted calibration record of every view.
// Views whose record is missing or unreadable are left untouched; if any
// view failed, the returned error wraps ErrUncalibrated so
// ResolveCalibration falls back to a calibration pass.
func (r *Rig) ReadCalibration() error {
	missing := 0
	for _, v := range r.views {
		if err := readCalibrationRecord(v); err != nil {
			missing++
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d views: %w", missing, len(r.views), ErrUncalibrated)
	}
	return nil
}

// WriteCalibration persists the calibration record of every view.
func (r *Rig) WriteCalibration() error {
	for i, v := range r.views {
		if err := writeCalibrationRecord(v); err != nil {
			return fmt.Errorf("write calibration for view %d: %w", i, err)
		}
	}
	return nil
}

func readCalibrationRecord(v *view.View) error {
	data, err := os.ReadFile(v.CalibrationPath)
	if err != nil {
		return err
	}

	var rec calibrationRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("parse calibration record: %w", err)
	}
	if len(rec.CameraMatrix) != 3 || len(rec.Rvec) != 3 || len(rec.Tvec) != 3 {
		return fmt.Errorf("malformed calibration record %q", v.CalibrationPath)
	}

	intrinsic := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		if len(rec.CameraMatrix[i]) != 3 {
			return fmt.Errorf("malformed calibration record %q", v.CalibrationPath)
		}
		for j := 0; j < 3; j++ {
			intrinsic.Set(i, j, rec.CameraMatrix[i][j])
		}
	}

	v.Intrinsic = intrinsic
	v.Distortion = append([]float64(nil), rec.DistCoeffs...)
	v.Rvec = geometry.NewVec3(rec.Rvec[0], rec.Rvec[1], rec.Rvec[2])
	v.Tvec = geometry.NewVec3(rec.Tvec[0], rec.Tvec[1], rec.Tvec[2])
	return nil
}

func writeCalibrationRecord(v *view.View) error {
	rec := calibrationRecord{
		CameraMatrix: make([][]float64, 3),
		DistCoeffs:   append([]float64(nil), v.Distortion...),
		Rvec:         []float64{v.Rvec.X, v.Rvec.Y, v.Rvec.Z},
		Tvec:         []float64{v.Tvec.X, v.Tvec.Y, v.Tvec.Z},
	}
	for i := 0; i < 3; i++ {
		rec.CameraMatrix[i] = make([]float64, 3)
		for j := 0; j < 3; j++ {
			rec.CameraMatrix[i][j] = v.Intrinsic.At(i, j)
		}
	}

	data, err := yaml.Marshal(&rec)
	if err != nil {
		return err
	}
	return os.WriteFile(v.CalibrationPath, data, 0644)
}

// CalibrateView computes the view's occupancy mask and derives its
// render-space parameters from the raw calibration.
func (r *Rig) CalibrateView(v *view.View) error {
	m, err := mask.BuildFromFiles(v.ForegroundPath, v.BackgroundPath)
	if err != nil {
		return fmt.Errorf("mask for view: %w", err)
	}
	v.Mask = m

	r.DeriveRenderView(v)
	return nil
}

// DeriveRenderView converts a view's calibration matrices into
// render-ready parameters: focal length and principal point, field of
// view, projection matrix, and world-space pose in the render coordinate
// convention.
func (r *Rig) DeriveRenderView(v *view.View) {
	v.FocalLength = [2]float64{v.Intrinsic.At(0, 0), v.Intrinsic.At(1, 1)}
	v.PrincipalPoint = [2]float64{v.Intrinsic.At(0, 2), v.Intrinsic.At(1, 2)}

	v.FOV = fovForFocalLength(v.FocalLength[0], r.viewWidth)
	v.Proj = projFromIntrinsics(v.Intrinsic, r.viewWidth, r.viewHeight, view.DefaultNear, view.DefaultFar)

	// Camera center in calibration world coordinates: -R^T * t.
	rot := rodrigues(v.Rvec)
	v.Rotation = rot

	center := geometry.Vec3{
		X: -(rot.At(0, 0)*v.Tvec.X + rot.At(1, 0)*v.Tvec.Y + rot.At(2, 0)*v.Tvec.Z),
		Y: -(rot.At(0, 1)*v.Tvec.X + rot.At(1, 1)*v.Tvec.Y + rot.At(2, 1)*v.Tvec.Z),
		Z: -(rot.At(0, 2)*v.Tvec.X + rot.At(1, 2)*v.Tvec.Y + rot.At(2, 2)*v.Tvec.Z),
	}
	v.TvecProj = geometry.Vec3{
		X: -(rot.At(0, 0)*center.X + rot.At(0, 1)*center.Y + rot.At(0, 2)*center.Z),
		Y: -(rot.At(1, 0)*center.X + rot.At(1, 1)*center.Y + rot.At(1, 2)*center.Z),
		Z: -(rot.At(2, 0)*center.X + rot.At(2, 1)*center.Y + rot.At(2, 2)*center.Z),
	}

	v.Right, v.Upward, v.Forward = renderBasis(rot)

	v.Eye = renderPosition(center)
	v.At = v.Eye.Sub(v.Forward.Scale(lookAtDistance))
	v.Up = v.Upward

	// A degenerate position would break downstream orbit math.
	if v.Eye.Length() < geometry.Epsilon {
		v.Eye = view.DefaultEye
	}
}

// denseFromMat copies a gocv double-precision matrix into a gonum matrix.
func denseFromMat(m gocv.Mat) *mat.Dense {
	rows, cols := m.Rows(), m.Cols()
	d := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d.Set(i, j, m.GetDoubleAt(i, j))
		}
	}
	return d
}
