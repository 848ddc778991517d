package grid

import (
	"math"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

type pathState int

const (
	pathNotStarted pathState = iota
	pathWalking
	pathDone
	pathStalled
)

// Path enumerates, in order, the cells a segment passes through. The first
// call to Next yields the starting cell; each later call crosses exactly one
// cell face, so consecutive cells differ by one along a single axis. The walk
// ends once the target cell is reached.
//
// A Path is a single-use cursor and must not be shared between goroutines.
type Path struct {
	grid   Grid
	from   core.Vec3 // world-space start
	start  core.Vec3 // start relative to the grid origin
	dir    core.Vec3
	cell   Cell
	target Cell
	t      float64 // segment parameter of the current point

	sign    [3]int
	steps   [3]int     // face crossings left per axis
	borders [3]float64 // next boundary per axis, grid-local
	state   pathState
}

// NewPath prepares a walk from point from in cell fromCell to point to in cell
// toCell. The cells are normally g.CellOf(from) and g.CellOf(to), but callers
// that already know a better cell for a point on a gridline may pass it.
func NewPath(g Grid, fromCell Cell, from core.Vec3, toCell Cell, to core.Vec3) *Path {
	p := &Path{
		grid:   g,
		from:   from,
		start:  from.Subtract(g.Origin),
		dir:    to.Subtract(from),
		cell:   fromCell,
		target: toCell,
	}

	for axis := 0; axis < 3; axis++ {
		d := p.dir.Axis(axis)
		switch {
		case d > 0:
			p.sign[axis] = 1
		case d < 0:
			p.sign[axis] = -1
		}

		steps := toCell.Axis(axis) - fromCell.Axis(axis)
		// The segment cannot cross faces against its own direction
		if p.sign[axis] == 0 || steps*p.sign[axis] < 0 {
			steps = 0
		}
		p.steps[axis] = steps

		from := float64(fromCell.Axis(axis))
		if p.sign[axis] > 0 {
			p.borders[axis] = (from + 1) * g.Unit
		} else {
			p.borders[axis] = from * g.Unit
		}
	}
	return p
}

// Next advances to the next cell and reports whether there was one
func (p *Path) Next() bool {
	switch p.state {
	case pathNotStarted:
		p.state = pathWalking
		return true
	case pathDone, pathStalled:
		return false
	}

	if p.cell == p.target {
		p.state = pathDone
		return false
	}

	axis := -1
	best := math.Inf(1)
	for a := 0; a < 3; a++ {
		if p.steps[a] == 0 {
			continue
		}
		t := (p.borders[a] - p.start.Axis(a)) / p.dir.Axis(a)
		if axis < 0 || t < best {
			axis, best = a, t
		}
	}
	if axis < 0 {
		// Every axis is exhausted but the target was not reached; the
		// endpoint cells did not agree with the segment.
		p.state = pathStalled
		return false
	}

	p.t = best
	p.cell = p.grid.Clamp(p.cell.WithAxis(axis, p.cell.Axis(axis)+p.sign[axis]))
	p.steps[axis] -= p.sign[axis]
	if p.steps[axis] != 0 {
		p.borders[axis] += float64(p.sign[axis]) * p.grid.Unit
	}
	return true
}

// Cell returns the current cell
func (p *Path) Cell() Cell {
	return p.cell
}

// Point returns the current point: the start point before the first crossing,
// then the face crossing that entered the current cell
func (p *Path) Point() core.Vec3 {
	return p.from.Add(p.dir.Multiply(p.t))
}

// Done reports whether the walk has ended
func (p *Path) Done() bool {
	return p.state == pathDone || p.state == pathStalled
}

// Stalled reports whether the walk ended before reaching its target cell
func (p *Path) Stalled() bool {
	return p.state == pathStalled
}
