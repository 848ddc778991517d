package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

// Triangle is an immutable mesh face: three vertices, a face normal and the
// vertex centroid. The barycentric basis inverse is solved once here so the
// per-ray leaf test is a single matrix-vector product.
type Triangle struct {
	V0, V1, V2 core.Vec3 // The three vertices
	Normal     core.Vec3 // Face normal as supplied by the loader (or computed from winding)
	Centroid   core.Vec3 // Mean of the three vertices

	basis *r3.Mat // inverse of [V0-V2 | V1-V2 | (V0-V2)x(V1-V2)], nil when singular
}

// NewTriangle creates a triangle. A zero normal is replaced by the normalized
// winding normal (V1-V0)x(V2-V0).
func NewTriangle(v0, v1, v2, normal core.Vec3) Triangle {
	t := Triangle{
		V0:       v0,
		V1:       v1,
		V2:       v2,
		Normal:   normal,
		Centroid: v0.Add(v1).Add(v2).Multiply(1.0 / 3.0),
	}
	if normal == (core.Vec3{}) {
		t.Normal = v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
	}
	if t.IsFinite() {
		t.basis = invertBasis(v0, v1, v2)
	}
	return t
}

// invertBasis returns the inverse barycentric basis or nil for collinear vertices
func invertBasis(v0, v1, v2 core.Vec3) *r3.Mat {
	a := v0.Subtract(v2)
	b := v1.Subtract(v2)
	n := a.Cross(b)
	if n.LengthSquared() == 0 {
		return nil
	}

	// Columns are the basis vectors, rows are stored row-major.
	m := r3.NewMat([]float64{
		a.X, b.X, n.X,
		a.Y, b.Y, n.Y,
		a.Z, b.Z, n.Z,
	})
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil
	}
	basis := r3.NewMat(nil)
	basis.CloneFrom(&inv)
	return basis
}

// Degenerate reports whether the vertices are collinear, in which case the
// triangle can never be hit
func (t Triangle) Degenerate() bool {
	return t.basis == nil
}

// MinEdge returns the length of the shortest edge
func (t Triangle) MinEdge() float64 {
	return math.Min(
		t.V1.Subtract(t.V0).Length(),
		math.Min(t.V2.Subtract(t.V1).Length(), t.V0.Subtract(t.V2).Length()),
	)
}

// Bounds returns the tight axis-aligned box of the vertices
func (t Triangle) Bounds() core.AABB {
	return core.NewAABBFromPoints(t.V0, t.V1, t.V2)
}

// IsFinite reports whether every vertex coordinate is finite
func (t Triangle) IsFinite() bool {
	return t.V0.IsFinite() && t.V1.IsFinite() && t.V2.IsFinite()
}

// Intersect is IntersectTriangle(V0, V1, V2, origin, direction) using the
// precomputed basis inverse.
func (t Triangle) Intersect(origin, direction core.Vec3) (core.Vec3, bool) {
	if t.basis == nil {
		return core.Vec3{}, false
	}

	normal := t.V1.Subtract(t.V0).Cross(t.V2.Subtract(t.V0))
	hit, ok := IntersectPlane(t.V0, normal, origin, direction)
	if !ok {
		return core.Vec3{}, false
	}

	rel := hit.Subtract(t.V2)
	sol := t.basis.MulVec(r3.Vec{X: rel.X, Y: rel.Y, Z: rel.Z})
	u, v := sol.X, sol.Y
	if u+v <= 1 && 0 <= u && u <= 1 && 0 <= v && v <= 1 {
		return hit, true
	}
	return core.Vec3{}, false
}
