package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewShowsDefaultVolume(t *testing.T) {
	s := New()

	assert.False(t, s.Loaded())
	assert.Nil(t, s.Project())
	assert.Nil(t, s.CarvedCells())

	w, h, d := s.Volume().Dimensions()
	assert.Equal(t, DefaultBoxLength*2/DefaultVoxelSize, w)
	assert.Equal(t, DefaultBoxLength*2/DefaultVoxelSize, h)
	assert.Equal(t, DefaultBoxLength/DefaultVoxelSize, d)
	assert.Equal(t, w*h*d, s.Volume().ActiveVoxelCount())
	assert.Equal(t, DefaultColor, s.Volume().Voxel(0, 0, 0).Color)
}

func TestUnloadProjectRestoresDefault(t *testing.T) {
	s := New()

	fired := false
	s.On(EventProjectUnloaded, func(data interface{}) { fired = true })

	s.UnloadProject()

	assert.True(t, fired)
	assert.False(t, s.Loaded())
	w, h, d := s.Volume().Dimensions()
	assert.Equal(t, w*h*d, s.Volume().ActiveVoxelCount())
}

func TestEvents(t *testing.T) {
	s := New()

	var got []interface{}
	s.On(EventVolumeCarved, func(data interface{}) { got = append(got, data) })
	s.On(EventVolumeCarved, func(data interface{}) { got = append(got, data) })

	s.Emit(EventVolumeCarved, 7)
	s.Emit(EventProjectLoaded, nil) // no listener registered

	assert.Equal(t, []interface{}{7, 7}, got)
}

func TestRecarveWithoutProject(t *testing.T) {
	s := New()

	// With no calibrated views every cell is carved away.
	count := s.Recarve()
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, s.Volume().ActiveVoxelCount())
}
