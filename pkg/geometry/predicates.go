package geometry

import (
	"math"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

// IntersectPlane intersects the infinite line through origin along direction
// with the plane through point with the given normal. The parameter t is not
// restricted, so points behind the origin are returned too. A direction
// exactly parallel to the plane reports no intersection.
func IntersectPlane(point, normal, origin, direction core.Vec3) (core.Vec3, bool) {
	denom := direction.Dot(normal)
	if denom == 0 {
		return core.Vec3{}, false
	}
	t := point.Subtract(origin).Dot(normal) / denom
	return origin.Add(direction.Multiply(t)), true
}

// IntersectTriangle intersects the line with triangle (p1, p2, p3). The hit is
// accepted when its barycentric weights (u, v) against p1 and p2, with p3
// carrying 1-u-v, satisfy 0 <= u, v <= 1 and u+v <= 1.
func IntersectTriangle(p1, p2, p3, origin, direction core.Vec3) (core.Vec3, bool) {
	normal := p2.Subtract(p1).Cross(p3.Subtract(p1))
	hit, ok := IntersectPlane(p1, normal, origin, direction)
	if !ok {
		return core.Vec3{}, false
	}

	u, v, ok := barycentric(hit, p1, p2, p3)
	if !ok {
		return core.Vec3{}, false
	}
	if u+v <= 1 && 0 <= u && u <= 1 && 0 <= v && v <= 1 {
		return hit, true
	}
	return core.Vec3{}, false
}

// IntersectQuad intersects the line with the quad whose corners p1..p4 are
// given in cyclic order. Containment is a diamond test around the centroid in
// the basis {p1-c, p2-c}, which is exact for parallelograms such as the faces
// of an axis-aligned box.
func IntersectQuad(p1, p2, p3, p4, origin, direction core.Vec3) (core.Vec3, bool) {
	normal := p2.Subtract(p1).Cross(p3.Subtract(p1))
	hit, ok := IntersectPlane(p1, normal, origin, direction)
	if !ok {
		return core.Vec3{}, false
	}

	center := p1.Add(p2).Add(p3).Add(p4).Multiply(0.25)
	u, v, ok := barycentric(hit, p1, p2, center)
	if !ok {
		return core.Vec3{}, false
	}
	u, v = math.Abs(u), math.Abs(v)
	if u+v <= 1 && u <= 1 && v <= 1 {
		return hit, true
	}
	return core.Vec3{}, false
}

// barycentric solves target - c = u(a-c) + v(b-c) + w((a-c)x(b-c)) for (u, v)
// by Cramer's rule on the 3x3 basis. It fails only for a singular basis,
// i.e. when a, b and c are collinear.
func barycentric(target, a, b, c core.Vec3) (u, v float64, ok bool) {
	ac := a.Subtract(c)
	bc := b.Subtract(c)
	n := ac.Cross(bc)

	det := n.LengthSquared() // ac . (bc x n)
	if det == 0 {
		return 0, 0, false
	}

	tc := target.Subtract(c)
	u = tc.Dot(bc.Cross(n)) / det
	v = tc.Dot(n.Cross(ac)) / det
	return u, v, true
}
