// Package volume provides the dense voxel occupancy grid produced by the
// carving engine and consumed by the renderer.
package volume

import (
	"math"

	"voxelcarver/pkg/geometry"
)

// Voxel is one cell of the grid. Position is always derived from the
// cell's grid coordinate and never set independently.
type Voxel struct {
	Position geometry.Vec3
	Color    geometry.Vec4
	Density  float64
	Active   bool
}

// Volume is a dense 3D grid of voxels addressed by the linear index
// z*W*H + y*W + x.
type Volume struct {
	width     int
	height    int
	depth     int
	voxelSize float64
	voxels    []Voxel
}

// New allocates a grid with all cells inactive. Each cell's world
// position is precomputed from its grid coordinate.
func New(width, height, depth int, voxelSize float64) *Volume {
	v := &Volume{
		width:     width,
		height:    height,
		depth:     depth,
		voxelSize: voxelSize,
		voxels:    make([]Voxel, width*height*depth),
	}
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				v.voxels[v.index(x, y, z)].Position = v.VoxelToWorld(x, y, z)
			}
		}
	}
	return v
}

// NewSphere creates a cubic grid holding an active sphere of the given
// radius around the grid's center cell, with density falling off toward
// the surface.
func NewSphere(radius int, color geometry.Vec4) *Volume {
	size := radius*2 + 1
	v := New(size, size, size, 1)
	v.FillSphere(v.VoxelToWorld(radius, radius, radius), float64(radius), color)
	return v
}

// NewCube creates a cubic grid fully filled with active voxels.
func NewCube(size int, color geometry.Vec4) *Volume {
	v := New(size, size, size, 1)
	half := float64(size) * 0.5
	v.FillBox(geometry.NewVec3(-half, 0, -half), geometry.NewVec3(half, float64(size), half), color)
	return v
}

// NewPlane creates a single-layer grid filled with active voxels.
func NewPlane(width, height int, color geometry.Vec4) *Volume {
	v := New(width, height, 1, 1)
	v.FillBox(
		geometry.NewVec3(-float64(width)*0.5, 0, -float64(height)*0.5),
		geometry.NewVec3(float64(width)*0.5, 1, float64(height)*0.5),
		color,
	)
	return v
}

// Dimensions returns the cell counts along the three axes.
func (v *Volume) Dimensions() (width, height, depth int) {
	return v.width, v.height, v.depth
}

// VoxelSize returns the edge length of one cell.
func (v *Volume) VoxelSize() float64 {
	return v.voxelSize
}

// SetVoxel replaces the voxel at a grid coordinate. The stored position is
// recomputed from the coordinate, ignoring whatever the caller supplied.
func (v *Volume) SetVoxel(x, y, z int, voxel Voxel) {
	if !v.validCoordinate(x, y, z) {
		return
	}
	i := v.index(x, y, z)
	v.voxels[i] = voxel
	v.voxels[i].Position = v.VoxelToWorld(x, y, z)
}

// SetVoxelActive sets the active flag of one cell.
func (v *Volume) SetVoxelActive(x, y, z int, active bool) {
	if !v.validCoordinate(x, y, z) {
		return
	}
	v.voxels[v.index(x, y, z)].Active = active
}

// SetVoxelColor sets the color of one cell.
func (v *Volume) SetVoxelColor(x, y, z int, color geometry.Vec4) {
	if !v.validCoordinate(x, y, z) {
		return
	}
	v.voxels[v.index(x, y, z)].Color = color
}

// SetVoxelDensity sets the density of one cell.
func (v *Volume) SetVoxelDensity(x, y, z int, density float64) {
	if !v.validCoordinate(x, y, z) {
		return
	}
	v.voxels[v.index(x, y, z)].Density = density
}

// Voxel returns the cell at a grid coordinate, or a zero voxel when the
// coordinate is out of range.
func (v *Volume) Voxel(x, y, z int) Voxel {
	if !v.validCoordinate(x, y, z) {
		return Voxel{}
	}
	return v.voxels[v.index(x, y, z)]
}

// IsVoxelActive reports whether the cell at a grid coordinate is active.
func (v *Volume) IsVoxelActive(x, y, z int) bool {
	if !v.validCoordinate(x, y, z) {
		return false
	}
	return v.voxels[v.index(x, y, z)].Active
}

// ClearAll deactivates every cell and resets color and density.
func (v *Volume) ClearAll() {
	for i := range v.voxels {
		v.voxels[i].Active = false
		v.voxels[i].Color = geometry.NewVec4(1, 1, 1, 1)
		v.voxels[i].Density = 0
	}
}

// ActivateAll marks every cell active.
func (v *Volume) ActivateAll() {
	for i := range v.voxels {
		v.voxels[i].Active = true
	}
}

// DeactivateAll marks every cell inactive.
func (v *Volume) DeactivateAll() {
	for i := range v.voxels {
		v.voxels[i].Active = false
	}
}

// SetAllColor assigns one color to every cell.
func (v *Volume) SetAllColor(color geometry.Vec4) {
	for i := range v.voxels {
		v.voxels[i].Color = color
	}
}

// FillSphere activates all cells inside a sphere in world space. Density
// falls off linearly from 1 at the center to 0 at the surface.
func (v *Volume) FillSphere(center geometry.Vec3, radius float64, color geometry.Vec4) {
	radiusSq := radius * radius
	for z := 0; z < v.depth; z++ {
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				diff := v.VoxelToWorld(x, y, z).Sub(center)
				distSq := diff.Dot(diff)
				if distSq <= radiusSq {
					i := v.index(x, y, z)
					v.voxels[i].Active = true
					v.voxels[i].Color = color
					v.voxels[i].Density = 1 - math.Sqrt(distSq)/radius
				}
			}
		}
	}
}

// FillBox activates all cells whose world position lies inside the
// axis-aligned box [minPos, maxPos].
func (v *Volume) FillBox(minPos, maxPos geometry.Vec3, color geometry.Vec4) {
	for z := 0; z < v.depth; z++ {
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				p := v.VoxelToWorld(x, y, z)
				if p.X >= minPos.X && p.X <= maxPos.X &&
					p.Y >= minPos.Y && p.Y <= maxPos.Y &&
					p.Z >= minPos.Z && p.Z <= maxPos.Z {
					i := v.index(x, y, z)
					v.voxels[i].Active = true
					v.voxels[i].Color = color
					v.voxels[i].Density = 1
				}
			}
		}
	}
}

// ActiveVoxelCount returns the number of active cells.
func (v *Volume) ActiveVoxelCount() int {
	count := 0
	for i := range v.voxels {
		if v.voxels[i].Active {
			count++
		}
	}
	return count
}

// ActiveVoxels returns a copy of all active cells in index order, the form
// the rendering subsystem consumes.
func (v *Volume) ActiveVoxels() []Voxel {
	var active []Voxel
	for i := range v.voxels {
		if v.voxels[i].Active {
			active = append(active, v.voxels[i])
		}
	}
	return active
}

// VoxelToWorld converts a grid coordinate to render-space world
// coordinates. The grid's X axis maps to world X, the grid's Z axis maps
// up to world Y (lifted by half a cell so the volume sits on the floor),
// and the grid's Y axis maps to negative world Z.
func (v *Volume) VoxelToWorld(x, y, z int) geometry.Vec3 {
	return geometry.Vec3{
		X: (float64(x) - float64(v.width)*0.5) * v.voxelSize,
		Y: float64(z)*v.voxelSize + v.voxelSize*0.5,
		Z: -(float64(y) - float64(v.height)*0.5) * v.voxelSize,
	}
}

// WorldToVoxel converts a render-space world position back to the nearest
// grid coordinate. It is the exact inverse of VoxelToWorld up to floating
// point rounding.
func (v *Volume) WorldToVoxel(world geometry.Vec3) geometry.Vec3Int {
	adjustedY := world.Y - v.voxelSize*0.5
	return geometry.Vec3Int{
		X: int(math.Round(world.X/v.voxelSize + float64(v.width)*0.5)),
		Y: int(math.Round(-world.Z/v.voxelSize + float64(v.height)*0.5)),
		Z: int(math.Round(adjustedY / v.voxelSize)),
	}
}

func (v *Volume) index(x, y, z int) int {
	return z*v.width*v.height + y*v.width + x
}

func (v *Volume) validCoordinate(x, y, z int) bool {
	return x >= 0 && x < v.width && y >= 0 && y < v.height && z >= 0 && z < v.depth
}
