package grid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes how triangles are spread over the grid
type Stats struct {
	Triangles     int
	Unit          float64
	Dims          Cell
	Cells         int     // cells in the grid
	OccupiedCells int     // cells with at least one triangle
	References    int     // total triangle entries over all cells
	MeanPerCell   float64 // over occupied cells
	StdDevPerCell float64 // over occupied cells
	MaxPerCell    int
}

// Stats computes occupancy statistics for the index
func (ix *Index) Stats() Stats {
	s := Stats{
		Triangles:     len(ix.triangles),
		Unit:          ix.grid.Unit,
		Dims:          ix.grid.Dims,
		Cells:         ix.grid.CellCount(),
		OccupiedCells: len(ix.cells),
	}
	if len(ix.cells) == 0 {
		return s
	}

	counts := make([]float64, 0, len(ix.cells))
	for _, ids := range ix.cells {
		counts = append(counts, float64(len(ids)))
		s.References += len(ids)
	}
	s.MeanPerCell, s.StdDevPerCell = stat.MeanStdDev(counts, nil)
	if len(counts) == 1 {
		s.StdDevPerCell = 0
	}
	s.MaxPerCell = int(floats.Max(counts))
	return s
}

// Occupancy returns the fraction of grid cells holding any triangle
func (s Stats) Occupancy() float64 {
	if s.Cells == 0 {
		return 0
	}
	return float64(s.OccupiedCells) / float64(s.Cells)
}

func (s Stats) String() string {
	return fmt.Sprintf("%d triangles, %dx%dx%d cells of %.6g, %d occupied (%.2f%%), %d refs, %.2f±%.2f per cell, max %d",
		s.Triangles, s.Dims.X, s.Dims.Y, s.Dims.Z, s.Unit, s.OccupiedCells, 100*s.Occupancy(),
		s.References, s.MeanPerCell, s.StdDevPerCell, s.MaxPerCell)
}
