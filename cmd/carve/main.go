// Command carve reconstructs a voxel volume from a calibrated multi-view
// project and reports the surviving cells.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"voxelcarver/internal/camera"
	"voxelcarver/internal/project"
	"voxelcarver/internal/scene"
	"voxelcarver/internal/version"
)

func main() {
	projectPath := flag.String("p", "", "Path to project JSON file")
	recalibrate := flag.Bool("recalibrate", false, "Force a fresh calibration solve")
	autoAccept := flag.Bool("yes", false, "Accept chessboard detections without preview windows")
	outputPath := flag.String("o", "", "Optional path for a JSON dump of the carved cells")
	workers := flag.Int("workers", 0, "Carve worker count (0 = one per CPU)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("carve %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	if *projectPath == "" {
		fmt.Println("Usage: carve -p <project.json> [-recalibrate] [-yes] [-o cells.json] [-workers n]")
		os.Exit(1)
	}

	proj, err := project.Load(*projectPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load project: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded project with %d views\n", len(proj.Views))

	if *recalibrate {
		proj.NeedsCalibration = true
	}

	var confirmer camera.Confirmer = &camera.WindowConfirmer{}
	if *autoAccept {
		confirmer = &camera.AutoConfirmer{Accept: true}
	}

	s := scene.New()
	s.SetWorkers(*workers)
	s.On(scene.EventVolumeCarved, func(data interface{}) {
		fmt.Printf("Carved %d active cells\n", data.(int))
	})

	fmt.Println("Calibrating views and building masks...")
	if err := s.LoadProject(proj, confirmer); err != nil {
		fmt.Fprintf(os.Stderr, "Reconstruction failed: %v\n", err)
		os.Exit(1)
	}

	if *recalibrate {
		if err := proj.Save(*projectPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save project: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Saved calibration state to project")
	}

	w, h, d := s.Volume().Dimensions()
	total := w * h * d
	active := s.Volume().ActiveVoxelCount()
	fmt.Printf("Grid %dx%dx%d: %d of %d cells active (%.1f%%)\n",
		w, h, d, active, total, 100*float64(active)/float64(total))

	if *outputPath != "" {
		data, err := json.MarshalIndent(s.CarvedCells(), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode cells: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d cells to %s\n", len(s.CarvedCells()), *outputPath)
	}
}
