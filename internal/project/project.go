// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Chessboard configuration defaults and bounds.
const (
	DefaultChessCols  = 7
	DefaultChessRows  = 7
	DefaultSquareSize = 22.0 // mm
	ChessPadding      = 100.0

	MinChessDim   = 3
	MaxChessDim   = 20
	MinSquareSize = 5.0
	MaxSquareSize = 100.0
)

// ViewRecord describes one camera view of a project: the background and
// foreground image pair plus the optional persisted calibration record.
// Paths are stored relative to the project file where possible.
type ViewRecord struct {
	BackgroundPath  string `json:"background_image"`
	ForegroundPath  string `json:"foreground_image"`
	CalibrationPath string `json:"calibration_file,omitempty"`
}

// Project represents a reconstruction project file (.carveproj).
type Project struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Calibration target configuration
	ChessCols  int     `json:"chess_cols"`
	ChessRows  int     `json:"chess_rows"`
	SquareSize float64 `json:"square_size_mm"`

	// Whether the calibration solve must be re-run on load
	NeedsCalibration bool `json:"needs_calibration"`

	Views []ViewRecord `json:"views"`

	// Directory of the project file, used to resolve relative paths.
	// Set on Load, not persisted.
	Dir string `json:"-"`
}

// New creates a new project with default chessboard settings.
func New(name string) *Project {
	now := time.Now()
	return &Project{
		Version:    1,
		Name:       name,
		Created:    now,
		Modified:   now,
		ChessCols:  DefaultChessCols,
		ChessRows:  DefaultChessRows,
		SquareSize: DefaultSquareSize,
	}
}

// Load loads a project from a .carveproj file and validates it.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj Project
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}
	proj.Dir = filepath.Dir(path)

	if err := proj.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project %q: %w", path, err)
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *Project) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks chessboard configuration and view records.
func (p *Project) Validate() error {
	if p.ChessCols < MinChessDim || p.ChessCols > MaxChessDim {
		return fmt.Errorf("chessboard columns must be in [%d, %d], got %d", MinChessDim, MaxChessDim, p.ChessCols)
	}
	if p.ChessRows < MinChessDim || p.ChessRows > MaxChessDim {
		return fmt.Errorf("chessboard rows must be in [%d, %d], got %d", MinChessDim, MaxChessDim, p.ChessRows)
	}
	if p.SquareSize < MinSquareSize || p.SquareSize > MaxSquareSize {
		return fmt.Errorf("square size must be in [%g, %g] mm, got %g", MinSquareSize, MaxSquareSize, p.SquareSize)
	}
	for i, v := range p.Views {
		if v.BackgroundPath == "" {
			return fmt.Errorf("view %d: background image path is required", i)
		}
		if v.ForegroundPath == "" {
			return fmt.Errorf("view %d: foreground image path is required", i)
		}
	}
	return nil
}

// resolve returns an absolute path for a possibly project-relative path.
func (p *Project) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Dir, path)
}

// BackgroundPath returns the absolute background image path for a view.
func (p *Project) BackgroundPath(i int) string {
	return p.resolve(p.Views[i].BackgroundPath)
}

// ForegroundPath returns the absolute foreground image path for a view.
func (p *Project) ForegroundPath(i int) string {
	return p.resolve(p.Views[i].ForegroundPath)
}

// CalibrationPath returns the absolute calibration record path for a view.
// If the project does not name one, a per-view default next to the
// background image is used.
func (p *Project) CalibrationPath(i int) string {
	if p.Views[i].CalibrationPath != "" {
		return p.resolve(p.Views[i].CalibrationPath)
	}
	bg := p.BackgroundPath(i)
	base := bg[:len(bg)-len(filepath.Ext(bg))]
	return base + "_calib.yaml"
}
