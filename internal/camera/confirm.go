package camera

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Confirmer decides whether a chessboard detection preview is acceptable
// for calibration. Implementations may block on user input.
type Confirmer interface {
	// Confirm shows the detection preview for a view and reports whether
	// the user accepted it.
	Confirm(viewIndex int, preview gocv.Mat) (bool, error)
}

// WindowConfirmer shows each detection in a window and waits for a key:
// any key accepts, ESC rejects.
type WindowConfirmer struct{}

const escapeKey = 27

// Confirm implements Confirmer.
func (WindowConfirmer) Confirm(viewIndex int, preview gocv.Mat) (bool, error) {
	instruction := "Press any key to continue or ESC to abort"
	textSize := gocv.GetTextSize(instruction, gocv.FontHersheySimplex, 0.5, 1)
	origin := image.Pt((preview.Cols()-textSize.X)/2, textSize.Y+10)
	gocv.PutText(&preview, instruction, origin, gocv.FontHersheySimplex, 0.5,
		color.RGBA{R: 255, G: 255, B: 0, A: 255}, 1)

	window := gocv.NewWindow(fmt.Sprintf("Calibration: View %d", viewIndex+1))
	defer window.Close()

	window.IMShow(preview)
	key := window.WaitKey(0)

	return key != escapeKey, nil
}

// AutoConfirmer accepts or rejects every detection without interaction,
// for headless runs and tests.
type AutoConfirmer struct {
	Accept bool
}

// Confirm implements Confirmer.
func (c AutoConfirmer) Confirm(int, gocv.Mat) (bool, error) {
	return c.Accept, nil
}
