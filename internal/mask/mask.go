// Package mask derives binary occupancy masks from foreground/background
// image pairs.
package mask

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Per-channel HSV difference thresholds.
const (
	thresholdH = 20
	thresholdS = 20
	thresholdV = 40
)

// Build produces a single-channel occupancy mask from a foreground image
// and a background image of identical size. A pixel is 255 where the
// foreground object is present and 0 elsewhere.
//
// Both images are compared in HSV space: the per-channel absolute
// differences are thresholded independently and combined as
// (H AND S) OR V, then cleaned up with an erode/dilate/erode pass.
func Build(fg, bg gocv.Mat) (*image.Gray, error) {
	if fg.Empty() || bg.Empty() {
		return nil, fmt.Errorf("empty input image")
	}
	if fg.Cols() != bg.Cols() || fg.Rows() != bg.Rows() {
		return nil, fmt.Errorf("image size mismatch: %dx%d vs %dx%d",
			fg.Cols(), fg.Rows(), bg.Cols(), bg.Rows())
	}

	fgHSV := gocv.NewMat()
	defer fgHSV.Close()
	bgHSV := gocv.NewMat()
	defer bgHSV.Close()
	gocv.CvtColor(fg, &fgHSV, gocv.ColorBGRToHSV)
	gocv.CvtColor(bg, &bgHSV, gocv.ColorBGRToHSV)

	fgChannels := gocv.Split(fgHSV)
	defer closeAll(fgChannels)
	bgChannels := gocv.Split(bgHSV)
	defer closeAll(bgChannels)

	if len(fgChannels) < 3 || len(bgChannels) < 3 {
		return nil, fmt.Errorf("expected 3-channel input images")
	}

	diffH := gocv.NewMat()
	defer diffH.Close()
	diffS := gocv.NewMat()
	defer diffS.Close()
	diffV := gocv.NewMat()
	defer diffV.Close()
	gocv.AbsDiff(fgChannels[0], bgChannels[0], &diffH)
	gocv.AbsDiff(fgChannels[1], bgChannels[1], &diffS)
	gocv.AbsDiff(fgChannels[2], bgChannels[2], &diffV)

	maskH := gocv.NewMat()
	defer maskH.Close()
	maskS := gocv.NewMat()
	defer maskS.Close()
	maskV := gocv.NewMat()
	defer maskV.Close()
	gocv.Threshold(diffH, &maskH, thresholdH, 255, gocv.ThresholdBinary)
	gocv.Threshold(diffS, &maskS, thresholdS, 255, gocv.ThresholdBinary)
	gocv.Threshold(diffV, &maskV, thresholdV, 255, gocv.ThresholdBinary)

	// Combine: (H AND S) OR V
	combined := gocv.NewMat()
	defer combined.Close()
	gocv.BitwiseAnd(maskH, maskS, &combined)
	gocv.BitwiseOr(combined, maskV, &combined)

	// Morphological cleanup: remove speckle, close small gaps.
	rect := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer rect.Close()
	cross := gocv.GetStructuringElement(gocv.MorphCross, image.Pt(5, 5))
	defer cross.Close()

	gocv.Erode(combined, &combined, rect)
	gocv.DilateWithParams(combined, &combined, cross, image.Pt(-1, -1), 2, gocv.BorderConstant, color.RGBA{})
	gocv.Erode(combined, &combined, rect)

	img, err := combined.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert mask: %w", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected mask image type %T", img)
	}
	return gray, nil
}

// BuildFromFiles reads a foreground/background image pair from disk and
// builds the occupancy mask.
func BuildFromFiles(fgPath, bgPath string) (*image.Gray, error) {
	fg := gocv.IMRead(fgPath, gocv.IMReadColor)
	defer fg.Close()
	if fg.Empty() {
		return nil, fmt.Errorf("cannot read foreground image %q", fgPath)
	}

	bg := gocv.IMRead(bgPath, gocv.IMReadColor)
	defer bg.Close()
	if bg.Empty() {
		return nil, fmt.Errorf("cannot read background image %q", bgPath)
	}

	return Build(fg, bg)
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
