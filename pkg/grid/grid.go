// Package grid implements a uniform voxel grid over a triangle mesh: cell
// addressing, an exact cell-by-cell walk along a segment, the bounding box
// entry/exit test and the mesh index that ties them together.
package grid

import (
	"fmt"
	"math"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

// Cell is an integer voxel coordinate
type Cell struct {
	X, Y, Z int
}

// Axis returns the component for axis 0 (X), 1 (Y) or 2 (Z)
func (c Cell) Axis(axis int) int {
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

// WithAxis returns a copy of the cell with one component replaced
func (c Cell) WithAxis(axis, value int) Cell {
	switch axis {
	case 0:
		c.X = value
	case 1:
		c.Y = value
	default:
		c.Z = value
	}
	return c
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Grid maps world space onto Dims cells of edge Unit whose lowest corner is Origin
type Grid struct {
	Origin core.Vec3
	Unit   float64
	Dims   Cell
}

// CellOf returns the cell holding p, clamped into the grid. Points on a
// gridline belong to the cell above it.
func (g Grid) CellOf(p core.Vec3) Cell {
	local := p.Subtract(g.Origin)
	return Cell{
		X: g.index(local.X, g.Dims.X),
		Y: g.index(local.Y, g.Dims.Y),
		Z: g.index(local.Z, g.Dims.Z),
	}
}

func (g Grid) index(local float64, dim int) int {
	f := math.Floor(local / g.Unit)
	// Clamp in float space so huge or NaN values never overflow the int conversion
	if !(f > 0) {
		return 0
	}
	if f > float64(dim-1) {
		return dim - 1
	}
	return int(f)
}

// Clamp limits every component of c to the grid
func (g Grid) Clamp(c Cell) Cell {
	return Cell{
		X: max(0, min(g.Dims.X-1, c.X)),
		Y: max(0, min(g.Dims.Y-1, c.Y)),
		Z: max(0, min(g.Dims.Z-1, c.Z)),
	}
}

// Contains reports whether c addresses a cell of the grid
func (g Grid) Contains(c Cell) bool {
	return c.X >= 0 && c.X < g.Dims.X &&
		c.Y >= 0 && c.Y < g.Dims.Y &&
		c.Z >= 0 && c.Z < g.Dims.Z
}

// Key packs a cell into a single integer, unique per cell of the grid
func (g Grid) Key(c Cell) int {
	return c.X + g.Dims.X*c.Y + g.Dims.X*g.Dims.Y*c.Z
}

// CellCount returns the number of cells in the grid
func (g Grid) CellCount() int {
	return g.Dims.X * g.Dims.Y * g.Dims.Z
}

// CellBounds returns the closed world-space box of a cell
func (g Grid) CellBounds(c Cell) core.AABB {
	min := g.Origin.Add(core.NewVec3(float64(c.X), float64(c.Y), float64(c.Z)).Multiply(g.Unit))
	return core.NewAABB(min, min.Add(core.NewVec3(g.Unit, g.Unit, g.Unit)))
}

// Bounds returns the world-space box covered by every cell of the grid
func (g Grid) Bounds() core.AABB {
	size := core.NewVec3(float64(g.Dims.X), float64(g.Dims.Y), float64(g.Dims.Z)).Multiply(g.Unit)
	return core.NewAABB(g.Origin, g.Origin.Add(size))
}

// Path walks the cells between two points, starting in the cell of from
func (g Grid) Path(from, to core.Vec3) *Path {
	return NewPath(g, g.CellOf(from), from, g.CellOf(to), to)
}
