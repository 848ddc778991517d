package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

var (
	// ErrEmptyMesh is returned when an index is built from no triangles
	ErrEmptyMesh = errors.New("empty mesh")
	// ErrDegenerateGeometry is returned when the mesh cannot define a grid:
	// a zero-length edge, a non-finite vertex, or no usable triangle at all
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// Policy selects which hit Intersect reports
type Policy int

const (
	// FirstCell reports the nearest hit among the triangles registered in the
	// first cell along the ray that yields any hit. That hit may lie beyond
	// the cell, so a closer triangle in a later cell can be missed.
	FirstCell Policy = iota
	// Nearest keeps walking until the best hit found so far cannot be
	// beaten by any later cell.
	Nearest
)

func (p Policy) String() string {
	switch p {
	case FirstCell:
		return "first"
	case Nearest:
		return "nearest"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "first" or "nearest"; the empty string means FirstCell
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first", "first-cell":
		return FirstCell, nil
	case "nearest":
		return Nearest, nil
	default:
		return FirstCell, fmt.Errorf("unknown hit policy %q (want first or nearest)", s)
	}
}

// Options configures Build. A nil *Options uses the defaults.
type Options struct {
	Policy Policy

	// MaxResolution caps the number of cells along any axis by enlarging the
	// cell edge. Zero leaves the edge at the shortest triangle edge.
	MaxResolution int

	// SkipDegenerate drops triangles with a zero-length edge or a non-finite
	// vertex instead of failing the build.
	SkipDegenerate bool

	Logger core.Logger
}

func (o *Options) logger() core.Logger {
	if o == nil || o.Logger == nil {
		return core.NopLogger{}
	}
	return o.Logger
}
