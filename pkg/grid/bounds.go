package grid

import (
	"math"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/geometry"
)

// Crossing is a point where a ray meets the bounding box, with its cell
type Crossing struct {
	Cell  Cell
	Point core.Vec3
}

// BoundingPackage is the box around the indexed mesh, held as six faces so a
// ray can be clipped to it with the quad predicate
type BoundingPackage struct {
	grid  Grid
	box   core.AABB
	faces [6][4]core.Vec3
}

// NewBoundingPackage builds the six faces of the box [min, max]. Corners of
// every face are listed in cyclic order.
func NewBoundingPackage(g Grid, min, max core.Vec3) BoundingPackage {
	x0, y0, z0 := min.X, min.Y, min.Z
	x1, y1, z1 := max.X, max.Y, max.Z
	v := core.NewVec3

	return BoundingPackage{
		grid: g,
		box:  core.NewAABB(min, max),
		faces: [6][4]core.Vec3{
			{v(x0, y0, z0), v(x0, y1, z0), v(x0, y1, z1), v(x0, y0, z1)},
			{v(x1, y0, z0), v(x1, y1, z0), v(x1, y1, z1), v(x1, y0, z1)},
			{v(x0, y0, z0), v(x1, y0, z0), v(x1, y0, z1), v(x0, y0, z1)},
			{v(x0, y1, z0), v(x1, y1, z0), v(x1, y1, z1), v(x0, y1, z1)},
			{v(x0, y0, z0), v(x1, y0, z0), v(x1, y1, z0), v(x0, y1, z0)},
			{v(x0, y0, z1), v(x1, y0, z1), v(x1, y1, z1), v(x0, y1, z1)},
		},
	}
}

// Faces returns the six faces: -X, +X, -Y, +Y, -Z, +Z
func (b BoundingPackage) Faces() [6][4]core.Vec3 {
	return b.faces
}

// Box returns the box the faces enclose
func (b BoundingPackage) Box() core.AABB {
	return b.box
}

// Hit clips the ray against the box. Face crossings behind the origin are
// ignored. The entry is the nearest crossing, or the origin itself when it
// lies inside the box, and the exit is the farthest crossing. ok is false
// when the ray never reaches the box.
func (b BoundingPackage) Hit(origin, direction core.Vec3) (entry, exit Crossing, ok bool) {
	nearDist, farDist := math.Inf(1), math.Inf(-1)
	var near, far core.Vec3
	crossings := 0

	for _, f := range b.faces {
		p, hit := geometry.IntersectQuad(f[0], f[1], f[2], f[3], origin, direction)
		if !hit {
			continue
		}
		offset := p.Subtract(origin)
		if offset.Dot(direction) < 0 {
			continue
		}
		d := offset.LengthSquared()
		if d < nearDist {
			nearDist, near = d, p
		}
		if d > farDist {
			farDist, far = d, p
		}
		crossings++
	}

	inside := b.box.Contains(origin)
	if inside {
		near = origin
	}

	// A crossing through an edge or corner can be rejected by both faces
	// that share it. The slab interval supplies the missing end.
	if b.lostCrossing(inside, crossings, nearDist, farDist) {
		ray := core.NewRay(origin, direction)
		if tMin, tMax, hit := b.box.Interval(ray); hit && tMax >= 0 && !math.IsInf(tMax, 1) {
			if !inside {
				near = ray.At(math.Max(tMin, 0))
			}
			far = ray.At(tMax)
			crossings++
		}
	}
	if crossings == 0 {
		return Crossing{}, Crossing{}, false
	}

	return Crossing{Cell: b.grid.CellOf(near), Point: near},
		Crossing{Cell: b.grid.CellOf(far), Point: far}, true
}

// lostCrossing reports whether the face tests found fewer distinct crossings
// than a ray through the box must have: one when it starts inside, two
// otherwise
func (b BoundingPackage) lostCrossing(inside bool, crossings int, nearDist, farDist float64) bool {
	if crossings == 0 {
		return true
	}
	if inside {
		return false
	}
	return math.Sqrt(farDist)-math.Sqrt(nearDist) <= 1e-9*b.grid.Unit
}
