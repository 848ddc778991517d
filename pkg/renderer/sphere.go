package renderer

import (
	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/geometry"
	"github.com/df07/go-voxel-raytracer/pkg/grid"
)

// Sphere lets an analytic sphere stand in an Object next to mesh indexes.
// Its hits carry Triangle -1.
type Sphere struct {
	geometry.Sphere
}

// Intersect implements Intersector
func (s Sphere) Intersect(origin, direction core.Vec3) (grid.Hit, bool) {
	p, ok := s.Sphere.Intersect(origin, direction)
	if !ok {
		return grid.Hit{}, false
	}
	return grid.Hit{Point: p, Normal: s.NormalAt(p), Triangle: -1}, true
}
