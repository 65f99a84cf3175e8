package volume

import (
	"testing"

	"voxelcarver/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoxelWorldRoundTrip(t *testing.T) {
	v := New(40, 40, 20, 40)

	for z := 0; z < 20; z++ {
		for y := 0; y < 40; y++ {
			for x := 0; x < 40; x++ {
				world := v.VoxelToWorld(x, y, z)
				back := v.WorldToVoxel(world)
				if back.X != x || back.Y != y || back.Z != z {
					t.Fatalf("round trip (%d,%d,%d) -> %v -> %v", x, y, z, world, back)
				}
			}
		}
	}
}

func TestVoxelToWorldAxes(t *testing.T) {
	v := New(4, 4, 4, 10)

	// Grid z climbs world Y; the volume sits on the floor, half a cell up.
	p := v.VoxelToWorld(2, 2, 0)
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, 5, p.Y, 1e-12)
	assert.InDelta(t, 0, p.Z, 1e-12)

	p = v.VoxelToWorld(3, 2, 1)
	assert.InDelta(t, 10, p.X, 1e-12)
	assert.InDelta(t, 15, p.Y, 1e-12)
	assert.InDelta(t, 0, p.Z, 1e-12)

	// Grid y runs toward negative world Z.
	p = v.VoxelToWorld(2, 3, 0)
	assert.InDelta(t, -10, p.Z, 1e-12)
}

func TestIndexLayout(t *testing.T) {
	v := New(3, 4, 5, 1)
	assert.Equal(t, 1*3*4+2*3+0, v.index(0, 2, 1))
	assert.Equal(t, 3*4*5-1, v.index(2, 3, 4))
}

func TestSetVoxelRecomputesPosition(t *testing.T) {
	v := New(4, 4, 4, 10)

	// Position supplied by the caller is ignored in favor of the grid
	// coordinate's derived position.
	v.SetVoxel(1, 1, 1, Voxel{
		Position: geometry.NewVec3(999, 999, 999),
		Color:    geometry.NewVec4(1, 0, 0, 1),
		Density:  0.5,
		Active:   true,
	})

	got := v.Voxel(1, 1, 1)
	assert.Equal(t, v.VoxelToWorld(1, 1, 1), got.Position)
	assert.True(t, got.Active)
	assert.InDelta(t, 0.5, got.Density, 1e-12)
}

func TestOutOfRangeAccess(t *testing.T) {
	v := New(2, 2, 2, 1)

	v.SetVoxelActive(-1, 0, 0, true)
	v.SetVoxelActive(0, 2, 0, true)
	v.SetVoxelActive(0, 0, 99, true)
	assert.Equal(t, 0, v.ActiveVoxelCount())

	assert.False(t, v.IsVoxelActive(5, 5, 5))
	assert.Equal(t, Voxel{}, v.Voxel(-1, -1, -1))
}

func TestActivateClearAll(t *testing.T) {
	v := New(3, 3, 3, 1)

	v.ActivateAll()
	assert.Equal(t, 27, v.ActiveVoxelCount())
	assert.Len(t, v.ActiveVoxels(), 27)

	v.DeactivateAll()
	assert.Equal(t, 0, v.ActiveVoxelCount())

	v.SetVoxelActive(1, 1, 1, true)
	v.SetVoxelDensity(1, 1, 1, 0.7)
	v.ClearAll()
	assert.Equal(t, 0, v.ActiveVoxelCount())
	assert.InDelta(t, 0, v.Voxel(1, 1, 1).Density, 1e-12)
}

func TestFillSphere(t *testing.T) {
	red := geometry.NewVec4(1, 0, 0, 1)
	v := NewSphere(3, red)

	w, h, d := v.Dimensions()
	require.Equal(t, 7, w)
	require.Equal(t, 7, h)
	require.Equal(t, 7, d)

	assert.Greater(t, v.ActiveVoxelCount(), 0)
	assert.Less(t, v.ActiveVoxelCount(), 7*7*7)

	// Density is highest at the center cell.
	centerVoxel := v.Voxel(3, 3, 3)
	require.True(t, centerVoxel.Active)
	assert.InDelta(t, 1, centerVoxel.Density, 1e-9)
	assert.Equal(t, red, centerVoxel.Color)
}

func TestFillBoxIsIntersection(t *testing.T) {
	v := New(10, 10, 10, 1)
	v.FillBox(geometry.NewVec3(-1, 2, -1), geometry.NewVec3(1, 4, 1), geometry.NewVec4(0, 1, 0, 1))

	active := v.ActiveVoxels()
	require.NotEmpty(t, active)
	for _, vox := range active {
		assert.GreaterOrEqual(t, vox.Position.X, -1.0)
		assert.LessOrEqual(t, vox.Position.X, 1.0)
		assert.GreaterOrEqual(t, vox.Position.Y, 2.0)
		assert.LessOrEqual(t, vox.Position.Y, 4.0)
		assert.GreaterOrEqual(t, vox.Position.Z, -1.0)
		assert.LessOrEqual(t, vox.Position.Z, 1.0)
	}
}

func TestNewCubeAndPlane(t *testing.T) {
	cube := NewCube(4, geometry.NewVec4(1, 1, 1, 1))
	assert.Equal(t, 4*4*4, cube.ActiveVoxelCount())

	plane := NewPlane(5, 3, geometry.NewVec4(1, 1, 1, 1))
	w, h, d := plane.Dimensions()
	assert.Equal(t, 5, w)
	assert.Equal(t, 3, h)
	assert.Equal(t, 1, d)
	assert.Equal(t, 15, plane.ActiveVoxelCount())
}
