// Command masktest runs background subtraction on one image pair and
// writes the resulting silhouette mask.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"voxelcarver/internal/mask"
	"voxelcarver/internal/view"

	"golang.org/x/image/tiff"
)

func main() {
	foreground := flag.String("f", "", "Path to foreground (object) image")
	background := flag.String("b", "", "Path to background image")
	output := flag.String("o", "mask.png", "Output mask path (.png or .tif)")
	flag.Parse()

	if *foreground == "" || *background == "" {
		fmt.Println("Usage: masktest -f <foreground> -b <background> [-o mask.png]")
		os.Exit(1)
	}

	m, err := mask.BuildFromFiles(*foreground, *background)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Mask extraction failed: %v\n", err)
		os.Exit(1)
	}

	bounds := m.Bounds()
	on := 0
	for _, p := range m.Pix {
		if p == view.MaskOn {
			on++
		}
	}
	total := bounds.Dx() * bounds.Dy()
	fmt.Printf("Mask %dx%d: %d of %d pixels on (%.1f%%)\n",
		bounds.Dx(), bounds.Dy(), on, total, 100*float64(on)/float64(total))

	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *output, err)
		os.Exit(1)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(*output)) {
	case ".tif", ".tiff":
		err = tiff.Encode(f, m, nil)
	default:
		err = png.Encode(f, m)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode mask: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote mask to %s\n", *output)
}
