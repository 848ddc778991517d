package loaders

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/geometry"
)

// LoadMesh loads a triangle mesh, choosing the format from the file
// extension (.stl or .ply)
func LoadMesh(filename string, logger core.Logger) ([]geometry.Triangle, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	startTime := time.Now()

	var triangles []geometry.Triangle
	var err error
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".stl":
		triangles, err = LoadSTL(filename)
	case ".ply":
		triangles, err = LoadPLY(filename)
	default:
		return nil, fmt.Errorf("unsupported mesh format %q (want .stl or .ply)", ext)
	}
	if err != nil {
		return nil, err
	}

	logger.Printf("Loaded %s: %d triangles in %v", filepath.Base(filename), len(triangles), time.Since(startTime))
	return triangles, nil
}
