package carve

import (
	"image"
	"image/color"
	"testing"

	"voxelcarver/internal/view"
	"voxelcarver/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var testConfig = Config{
	BoxLength: 100,
	VoxelSize: 50,
	Color:     geometry.NewVec4(0.8, 0.3, 0.2, 0.9),
	Density:   1,
}

// carveView builds a view looking down the calibration Z axis from 400
// units behind the volume, with the given mask.
func carveView(mask *image.Gray) *view.View {
	v := view.New()
	v.Rotation = mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	v.Intrinsic = mat.NewDense(3, 3, []float64{
		100, 0, 640,
		0, 100, 360,
		0, 0, 1,
	})
	v.TvecProj = geometry.NewVec3(0, 0, 400)
	v.Mask = mask
	return v
}

func fullMask(on bool) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, 1280, 720))
	if on {
		for i := range m.Pix {
			m.Pix[i] = view.MaskOn
		}
	}
	return m
}

// halfMask turns on all pixels satisfying the predicate.
func halfMask(pred func(x, y int) bool) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, 1280, 720))
	for y := 0; y < 720; y++ {
		for x := 0; x < 1280; x++ {
			if pred(x, y) {
				m.SetGray(x, y, color.Gray{Y: view.MaskOn})
			}
		}
	}
	return m
}

func TestGridDimensions(t *testing.T) {
	cfg := Config{BoxLength: 800, VoxelSize: 40}
	w, h, d := cfg.GridDimensions()
	assert.Equal(t, 40, w)
	assert.Equal(t, 40, h)
	assert.Equal(t, 20, d)
}

func TestCarveZeroViews(t *testing.T) {
	e := &Engine{}
	vol, carved := e.Carve(nil, testConfig)

	assert.Equal(t, 0, vol.ActiveVoxelCount())
	assert.Empty(t, carved)
}

func TestCarveFullMaskActivatesEverything(t *testing.T) {
	e := &Engine{}
	vol, carved := e.Carve([]*view.View{carveView(fullMask(true))}, testConfig)

	w, h, d := vol.Dimensions()
	assert.Equal(t, w*h*d, vol.ActiveVoxelCount())
	assert.Len(t, carved, w*h*d)

	// Surviving cells carry the configured appearance.
	vox := vol.Voxel(0, 0, 0)
	assert.True(t, vox.Active)
	assert.Equal(t, testConfig.Color, vox.Color)
	assert.InDelta(t, 1, vox.Density, 1e-12)
}

func TestCarveEmptyMaskDeactivatesEverything(t *testing.T) {
	e := &Engine{}

	// All-off mask: nothing projects onto the silhouette.
	vol, carved := e.Carve([]*view.View{carveView(fullMask(false))}, testConfig)
	assert.Equal(t, 0, vol.ActiveVoxelCount())
	assert.Empty(t, carved)

	// One empty-mask view vetoes every cell even when another view
	// accepts them all.
	views := []*view.View{carveView(fullMask(true)), carveView(nil)}
	vol, _ = e.Carve(views, testConfig)
	assert.Equal(t, 0, vol.ActiveVoxelCount())
}

func TestCarveSilhouetteIntersection(t *testing.T) {
	// View A masks the right image half (calibration x >= 0), view B the
	// bottom half (calibration y >= 0). Only the shared octant survives.
	viewA := carveView(halfMask(func(x, y int) bool { return x >= 640 }))
	viewB := carveView(halfMask(func(x, y int) bool { return y >= 360 }))

	e := &Engine{}
	vol, carved := e.Carve([]*view.View{viewA, viewB}, testConfig)

	w, h, d := vol.Dimensions()
	expected := 0
	for _, c := range carved {
		assert.GreaterOrEqual(t, c.X, w/2)
		assert.GreaterOrEqual(t, c.Y, h/2)
	}
	for xi := w / 2; xi < w; xi++ {
		for yi := h / 2; yi < h; yi++ {
			for zi := 0; zi < d; zi++ {
				assert.True(t, vol.IsVoxelActive(xi, yi, zi))
				expected++
			}
		}
	}
	assert.Equal(t, expected, vol.ActiveVoxelCount())
}

func TestCarveWorkerCountIndependence(t *testing.T) {
	viewA := carveView(halfMask(func(x, y int) bool { return x >= 640 }))

	single := &Engine{Workers: 1}
	many := &Engine{Workers: 7}

	volSingle, _ := single.Carve([]*view.View{viewA}, testConfig)
	volMany, _ := many.Carve([]*view.View{viewA}, testConfig)

	w, h, d := volSingle.Dimensions()
	for xi := 0; xi < w; xi++ {
		for yi := 0; yi < h; yi++ {
			for zi := 0; zi < d; zi++ {
				require.Equal(t, volSingle.IsVoxelActive(xi, yi, zi), volMany.IsVoxelActive(xi, yi, zi),
					"cell (%d,%d,%d)", xi, yi, zi)
			}
		}
	}
}

func TestNewEmptyVolume(t *testing.T) {
	vol := NewEmptyVolume(testConfig)

	w, h, d := vol.Dimensions()
	assert.Equal(t, w*h*d, vol.ActiveVoxelCount())
	assert.Equal(t, testConfig.Color, vol.Voxel(0, 0, 0).Color)
}
