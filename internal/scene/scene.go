// Package scene ties the project, camera rig, and carved volume together
// into one mutable application state.
package scene

import (
	"fmt"
	"sync"

	"voxelcarver/internal/camera"
	"voxelcarver/internal/carve"
	"voxelcarver/internal/project"
	"voxelcarver/internal/view"
	"voxelcarver/internal/volume"
	"voxelcarver/pkg/geometry"
)

// Default carving extents: a 1600-unit box carved at 40 units per cell.
const (
	DefaultBoxLength = 800
	DefaultVoxelSize = 40
)

// DefaultColor is the appearance given to carved and default voxels.
var DefaultColor = geometry.NewVec4(0.8, 0.3, 0.2, 0.9)

// EventType identifies scene state changes.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectUnloaded
	EventVolumeCarved
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Scene owns the reconstruction state: the loaded project, its camera
// rig, and the carved volume. When no project is loaded the scene shows
// the default fully-active volume.
type Scene struct {
	mu sync.RWMutex

	project *project.Project
	rig     *camera.Rig

	vol    *volume.Volume
	carved []geometry.Vec3Int

	engine carve.Engine
	cfg    carve.Config

	listeners map[EventType][]EventListener
}

// New creates a scene holding the default volume and an empty rig.
func New() *Scene {
	cfg := carve.Config{
		BoxLength: DefaultBoxLength,
		VoxelSize: DefaultVoxelSize,
		Color:     DefaultColor,
		Density:   1,
	}
	return &Scene{
		rig:       camera.NewRig(),
		vol:       carve.NewEmptyVolume(cfg),
		cfg:       cfg,
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *Scene) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Scene) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// LoadProject calibrates the project's views through the rig and carves
// the volume from their silhouette masks. On failure the scene keeps its
// previous state.
func (s *Scene) LoadProject(proj *project.Project, confirmer camera.Confirmer) error {
	rig := camera.NewRig()
	if err := rig.LoadProject(proj, confirmer); err != nil {
		return fmt.Errorf("load project: %w", err)
	}

	vol, carved := s.engine.Carve(rig.Views(), s.cfg)

	s.mu.Lock()
	s.project = proj
	s.rig = rig
	s.vol = vol
	s.carved = carved
	s.mu.Unlock()

	s.Emit(EventProjectLoaded, proj)
	s.Emit(EventVolumeCarved, len(carved))
	return nil
}

// UnloadProject drops the project and restores the default volume.
func (s *Scene) UnloadProject() {
	s.mu.Lock()
	s.project = nil
	s.rig.UnloadProject()
	s.vol = carve.NewEmptyVolume(s.cfg)
	s.carved = nil
	s.mu.Unlock()

	s.Emit(EventProjectUnloaded, nil)
}

// Recarve runs the carve again against the currently loaded views, for
// use after a recalibration pass.
func (s *Scene) Recarve() int {
	s.mu.RLock()
	views := s.rig.Views()
	s.mu.RUnlock()

	vol, carved := s.engine.Carve(views, s.cfg)

	s.mu.Lock()
	s.vol = vol
	s.carved = carved
	s.mu.Unlock()

	s.Emit(EventVolumeCarved, len(carved))
	return len(carved)
}

// Loaded reports whether a project is currently loaded.
func (s *Scene) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project != nil
}

// Project returns the loaded project, or nil.
func (s *Scene) Project() *project.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project
}

// Rig returns the camera rig.
func (s *Scene) Rig() *camera.Rig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rig
}

// Volume returns the current volume.
func (s *Scene) Volume() *volume.Volume {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vol
}

// CarvedCells returns the grid coordinates activated by the last carve,
// or nil when showing the default volume.
func (s *Scene) CarvedCells() []geometry.Vec3Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carved
}

// Views returns the calibrated views of the loaded project.
func (s *Scene) Views() []*view.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rig.Views()
}

// Config returns the carving configuration.
func (s *Scene) Config() carve.Config {
	return s.cfg
}

// SetWorkers sets the carve worker count. Zero means one per CPU.
func (s *Scene) SetWorkers(n int) {
	s.mu.Lock()
	s.engine.Workers = n
	s.mu.Unlock()
}
