package grid

import (
	"fmt"
	"math"
	"time"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/geometry"
)

// Hit is the result of a successful Intersect
type Hit struct {
	Point    core.Vec3
	Normal   core.Vec3 // face normal of the hit triangle
	Triangle int       // position in Index.Triangles()
}

// Index is a uniform voxel grid over a triangle mesh. Each cell lists every
// triangle that may overlap it. An Index is immutable once built and safe for
// concurrent Intersect calls.
type Index struct {
	triangles []geometry.Triangle
	center    core.Vec3
	bounds    core.AABB
	grid      Grid
	box       BoundingPackage
	cells     map[int][]int32
	policy    Policy
}

// Build voxelizes the triangles. The cell edge is the shortest triangle edge
// in the mesh (or larger when opts.MaxResolution caps the grid) and the grid
// covers the mesh bounds expanded by half a cell on every side.
func Build(triangles []geometry.Triangle, opts *Options) (*Index, error) {
	log := opts.logger()
	if len(triangles) == 0 {
		return nil, ErrEmptyMesh
	}
	start := time.Now()

	kept := make([]geometry.Triangle, 0, len(triangles))
	for i, tri := range triangles {
		var reason string
		switch {
		case !tri.IsFinite():
			reason = "has a non-finite vertex"
		case tri.MinEdge() == 0:
			reason = "has a zero-length edge"
		}
		if reason == "" {
			kept = append(kept, tri)
			continue
		}
		if opts == nil || !opts.SkipDegenerate {
			return nil, fmt.Errorf("%w: triangle %d %s", ErrDegenerateGeometry, i, reason)
		}
		log.Printf("grid: skipping triangle %d: %s", i, reason)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: no usable triangles", ErrDegenerateGeometry)
	}

	unit := math.Inf(1)
	tight := kept[0].Bounds()
	var centroidSum core.Vec3
	for _, tri := range kept {
		unit = math.Min(unit, tri.MinEdge())
		tight = tight.Union(tri.Bounds())
		centroidSum = centroidSum.Add(tri.Centroid)
	}
	if unit == 0 || math.IsInf(unit, 0) || !tight.IsValid() {
		return nil, fmt.Errorf("%w: cannot derive a cell size", ErrDegenerateGeometry)
	}
	if opts != nil && opts.MaxResolution > 0 {
		unit = capResolution(tight.Size(), unit, opts.MaxResolution)
	}

	extent := tight.Size()
	box := tight.Expand(unit / 2)
	g := Grid{
		Origin: box.Min,
		Unit:   unit,
		Dims: Cell{
			X: int(math.Ceil(extent.X/unit)) + 1,
			Y: int(math.Ceil(extent.Y/unit)) + 1,
			Z: int(math.Ceil(extent.Z/unit)) + 1,
		},
	}

	ix := &Index{
		triangles: kept,
		center:    centroidSum.Multiply(1 / float64(len(kept))),
		bounds:    box,
		grid:      g,
		box:       NewBoundingPackage(g, box.Min, box.Max),
		cells:     make(map[int][]int32),
	}
	if opts != nil {
		ix.policy = opts.Policy
	}
	for i := range kept {
		ix.voxelize(int32(i))
	}

	log.Printf("grid: indexed %d triangles into %dx%dx%d cells (unit %.6g, %d occupied) in %v",
		len(kept), g.Dims.X, g.Dims.Y, g.Dims.Z, unit, len(ix.cells), time.Since(start))
	return ix, nil
}

// capResolution enlarges unit until no axis needs more than maxRes cells
func capResolution(extent core.Vec3, unit float64, maxRes int) float64 {
	longest := math.Max(extent.X, math.Max(extent.Y, extent.Z))
	cells := func(u float64) int { return int(math.Ceil(longest/u)) + 1 }
	// Half-cell padding means every non-empty extent spans at least two cells
	maxRes = max(maxRes, 2)
	if cells(unit) <= maxRes {
		return unit
	}
	unit = math.Max(unit, longest/float64(maxRes-1))
	for cells(unit) > maxRes {
		unit = math.Nextafter(unit, math.Inf(1))
	}
	return unit
}

// voxelize registers triangle i in every cell it may overlap. A fan of paths
// from V2 to each sample on the V0-V1 walk sweeps the triangle; every cell
// such a path visits is within one cell of the true surface, so registering
// its 26 neighbours as well (clipped to the triangle's own cell range) makes
// the registration conservative.
func (ix *Index) voxelize(i int32) {
	tri := ix.triangles[i]
	bounds := tri.Bounds()
	lo, hi := ix.grid.CellOf(bounds.Min), ix.grid.CellOf(bounds.Max)
	apex := ix.grid.CellOf(tri.V2)

	outer := ix.grid.Path(tri.V0, tri.V1)
	for outer.Next() {
		inner := NewPath(ix.grid, apex, tri.V2, outer.Cell(), outer.Point())
		for inner.Next() {
			ix.register(i, inner.Cell(), lo, hi)
		}
	}
}

func (ix *Index) register(i int32, c, lo, hi Cell) {
	for z := max(c.Z-1, lo.Z); z <= min(c.Z+1, hi.Z); z++ {
		for y := max(c.Y-1, lo.Y); y <= min(c.Y+1, hi.Y); y++ {
			for x := max(c.X-1, lo.X); x <= min(c.X+1, hi.X); x++ {
				key := ix.grid.Key(Cell{x, y, z})
				list := ix.cells[key]
				// Triangles are registered in index order, so a repeat is always last
				if n := len(list); n > 0 && list[n-1] == i {
					continue
				}
				ix.cells[key] = append(list, i)
			}
		}
	}
}

// Intersect casts a ray from origin along direction (any non-zero length)
// and returns the hit chosen by the index policy. Hits behind the origin are
// never reported.
func (ix *Index) Intersect(origin, direction core.Vec3) (Hit, bool) {
	entry, exit, ok := ix.box.Hit(origin, direction)
	if !ok {
		return Hit{}, false
	}

	var best Hit
	bestDist := math.Inf(1)
	found := false

	path := NewPath(ix.grid, entry.Cell, entry.Point, exit.Cell, exit.Point)
	for path.Next() {
		c := path.Cell()
		ids := ix.cells[ix.grid.Key(c)]
		if len(ids) == 0 {
			continue
		}

		hit, dist, ok := ix.nearestIn(ids, origin, direction)
		if ok && ix.policy == FirstCell {
			return hit, true
		}
		if ok && dist < bestDist {
			best, bestDist, found = hit, dist, true
		}
		if found && ix.settled(c, best.Point, origin, direction) {
			return best, true
		}
	}
	return best, found
}

// settled reports whether no cell after c can hold a hit closer than point
func (ix *Index) settled(c Cell, point, origin, direction core.Vec3) bool {
	_, tExit, ok := ix.grid.CellBounds(c).Interval(core.NewRay(origin, direction))
	if !ok {
		return false
	}
	t := point.Subtract(origin).Dot(direction) / direction.LengthSquared()
	return t <= tExit
}

// nearestIn tests the listed triangles and returns the hit closest to origin,
// with its squared distance
func (ix *Index) nearestIn(ids []int32, origin, direction core.Vec3) (Hit, float64, bool) {
	var best Hit
	bestDist := math.Inf(1)
	found := false
	for _, id := range ids {
		tri := &ix.triangles[id]
		p, ok := tri.Intersect(origin, direction)
		if !ok {
			continue
		}
		offset := p.Subtract(origin)
		if offset.Dot(direction) < 0 {
			continue
		}
		if d := offset.LengthSquared(); d < bestDist {
			bestDist = d
			best = Hit{Point: p, Normal: tri.Normal, Triangle: int(id)}
			found = true
		}
	}
	return best, bestDist, found
}

// Triangles returns the indexed triangles. Hit.Triangle refers to this
// slice, which must not be modified.
func (ix *Index) Triangles() []geometry.Triangle {
	return ix.triangles
}

// Center returns the mean of the triangle centroids
func (ix *Index) Center() core.Vec3 {
	return ix.center
}

// Bounds returns the mesh bounds expanded by half a cell, which is the box
// rays are clipped to
func (ix *Index) Bounds() core.AABB {
	return ix.bounds
}

// Grid returns the cell layout
func (ix *Index) Grid() Grid {
	return ix.grid
}

// Unit returns the cell edge length
func (ix *Index) Unit() float64 {
	return ix.grid.Unit
}

// Policy returns the hit policy the index was built with
func (ix *Index) Policy() Policy {
	return ix.policy
}

// CellTriangles returns the triangles registered in cell c, in ascending order
func (ix *Index) CellTriangles(c Cell) []int {
	if !ix.grid.Contains(c) {
		return nil
	}
	ids := ix.cells[ix.grid.Key(c)]
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
