package mask

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solidMat(w, h int, c color.RGBA) gocv.Mat {
	scalar := gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
	return gocv.NewMatWithSizeFromScalar(scalar, h, w, gocv.MatTypeCV8UC3)
}

func TestBuildRejectsBadInput(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	small := solidMat(10, 10, color.RGBA{})
	defer small.Close()
	big := solidMat(20, 20, color.RGBA{})
	defer big.Close()

	_, err := Build(empty, small)
	require.Error(t, err)

	_, err = Build(small, big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size mismatch")
}

func TestBuildSyntheticDifference(t *testing.T) {
	bg := solidMat(200, 200, color.RGBA{R: 30, G: 30, B: 30})
	defer bg.Close()

	fg := solidMat(200, 200, color.RGBA{R: 30, G: 30, B: 30})
	defer fg.Close()
	gocv.Rectangle(&fg, image.Rect(60, 60, 140, 140), color.RGBA{R: 250, G: 250, B: 250}, -1)

	m, err := Build(fg, bg)
	require.NoError(t, err)

	// Inside the changed region the mask is on; far outside it is off.
	assert.Equal(t, uint8(255), m.GrayAt(100, 100).Y)
	assert.Equal(t, uint8(0), m.GrayAt(10, 10).Y)
	assert.Equal(t, uint8(0), m.GrayAt(190, 190).Y)

	assert.Equal(t, 200, m.Bounds().Dx())
	assert.Equal(t, 200, m.Bounds().Dy())
}

func TestBuildIdenticalPairIsEmpty(t *testing.T) {
	img := solidMat(64, 64, color.RGBA{R: 120, G: 80, B: 40})
	defer img.Close()

	m, err := Build(img, img)
	require.NoError(t, err)

	for _, b := range m.Pix {
		if b != 0 {
			t.Fatalf("expected empty mask for identical images")
		}
	}
}

func TestBuildIdempotent(t *testing.T) {
	bg := solidMat(128, 128, color.RGBA{R: 10, G: 200, B: 60})
	defer bg.Close()
	fg := solidMat(128, 128, color.RGBA{R: 10, G: 200, B: 60})
	defer fg.Close()
	gocv.Rectangle(&fg, image.Rect(30, 40, 90, 100), color.RGBA{R: 200, G: 40, B: 180}, -1)

	first, err := Build(fg, bg)
	require.NoError(t, err)
	second, err := Build(fg, bg)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first.Pix, second.Pix), "mask construction must be deterministic")
}
