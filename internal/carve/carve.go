// Package carve reconstructs a voxel occupancy volume from calibrated
// silhouette views by space carving.
package carve

import (
	"runtime"
	"sync"

	"voxelcarver/internal/view"
	"voxelcarver/internal/volume"
	"voxelcarver/pkg/geometry"
)

// Config describes the volume to carve and the appearance of cells that
// survive carving.
type Config struct {
	// Half edge length of the reconstruction box in calibration units.
	// The grid spans [-BoxLength, BoxLength] horizontally and
	// [0, BoxLength] vertically.
	BoxLength int

	// Edge length of one voxel, in the same units.
	VoxelSize int

	// Appearance assigned to active cells.
	Color   geometry.Vec4
	Density float64
}

// GridDimensions returns the cell counts the config produces.
func (c Config) GridDimensions() (width, height, depth int) {
	width = (c.BoxLength * 2) / c.VoxelSize
	height = (c.BoxLength * 2) / c.VoxelSize
	depth = c.BoxLength / c.VoxelSize
	return width, height, depth
}

// cellPosition returns the calibration-space position of a grid cell.
func (c Config) cellPosition(xi, yi, zi int) geometry.Vec3 {
	return geometry.Vec3{
		X: float64(-c.BoxLength + xi*c.VoxelSize),
		Y: float64(-c.BoxLength + yi*c.VoxelSize),
		Z: float64(zi * c.VoxelSize),
	}
}

// Engine runs the carving pass over a worker pool.
type Engine struct {
	// Workers is the number of goroutines the carving pass fans out to.
	// Zero selects one per CPU.
	Workers int
}

// Carve builds a voxel grid where a cell is active if and only if its
// calibration-space position projects onto the silhouette mask of every
// view. With zero views no cell is activated; use NewEmptyVolume for the
// explicit all-active construction.
//
// Cell outcomes are independent, so the flat index range is partitioned
// across workers, each writing only its own cells. The returned slice
// lists the grid coordinates of all activated cells in iteration order.
func (e *Engine) Carve(views []*view.View, cfg Config) (*volume.Volume, []geometry.Vec3Int) {
	numX, numY, numZ := cfg.GridDimensions()
	vol := volume.New(numX, numY, numZ, float64(cfg.VoxelSize))

	if len(views) == 0 {
		return vol, nil
	}

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	total := numX * numY * numZ
	if workers > total {
		workers = total
	}

	// Each worker owns a contiguous index range: disjoint cells, no
	// locking on the grid, and a local result list to avoid contention.
	workerCells := make([][]geometry.Vec3Int, workers)
	chunk := (total + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > total {
			end = total
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()

			var local []geometry.Vec3Int
			for idx := start; idx < end; idx++ {
				xi := idx / (numY * numZ)
				yi := (idx / numZ) % numY
				zi := idx % numZ

				pos := cfg.cellPosition(xi, yi, zi)

				visible := true
				for _, v := range views {
					if !v.VisibleInMask(pos) {
						visible = false
						break
					}
				}
				if !visible {
					continue
				}

				local = append(local, geometry.Vec3Int{X: xi, Y: yi, Z: zi})
				vol.SetVoxelActive(xi, yi, zi, true)
				vol.SetVoxelColor(xi, yi, zi, cfg.Color)
				vol.SetVoxelDensity(xi, yi, zi, cfg.Density)
			}
			workerCells[w] = local
		}(w, start, end)
	}
	wg.Wait()

	var carved []geometry.Vec3Int
	for _, cells := range workerCells {
		carved = append(carved, cells...)
	}
	return vol, carved
}

// NewEmptyVolume builds the default all-active volume shown when no
// project is loaded.
func NewEmptyVolume(cfg Config) *volume.Volume {
	numX, numY, numZ := cfg.GridDimensions()
	vol := volume.New(numX, numY, numZ, float64(cfg.VoxelSize))

	vol.ActivateAll()
	vol.SetAllColor(cfg.Color)
	return vol
}
