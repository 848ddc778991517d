package loaders

import (
	"fmt"
	"io"

	"github.com/hschendel/stl"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/geometry"
)

// LoadSTL loads an ASCII or binary STL file as triangles
func LoadSTL(filename string) ([]geometry.Triangle, error) {
	solid, err := stl.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL file: %w", err)
	}
	return stlTriangles(solid), nil
}

// ReadSTL reads STL data from r as triangles. r must be seekable because the
// format is sniffed before the body is read.
func ReadSTL(r io.ReadSeeker) ([]geometry.Triangle, error) {
	solid, err := stl.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL data: %w", err)
	}
	return stlTriangles(solid), nil
}

// stlTriangles converts facets, keeping the stored facet normal. Writers
// that leave the normal zeroed get the winding normal instead.
func stlTriangles(solid *stl.Solid) []geometry.Triangle {
	triangles := make([]geometry.Triangle, 0, len(solid.Triangles))
	for _, facet := range solid.Triangles {
		normal := stlVec(facet.Normal).Normalize()
		triangles = append(triangles, geometry.NewTriangle(
			stlVec(facet.Vertices[0]),
			stlVec(facet.Vertices[1]),
			stlVec(facet.Vertices[2]),
			normal,
		))
	}
	return triangles
}

func stlVec(v stl.Vec3) core.Vec3 {
	return core.NewVec3(float64(v[0]), float64(v[1]), float64(v[2]))
}
