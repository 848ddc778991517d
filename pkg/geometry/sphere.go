package geometry

import (
	"math"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

// Sphere is an analytic sphere, rendered alongside indexed meshes
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64) Sphere {
	return Sphere{Center: center, Radius: radius}
}

// Intersect returns the nearest point where the ray meets the sphere at or
// ahead of origin. A ray starting inside the sphere hits the far side.
func (s Sphere) Intersect(origin, direction core.Vec3) (core.Vec3, bool) {
	// Quadratic equation coefficients: at² + 2·halfB·t + c = 0
	oc := origin.Subtract(s.Center)
	a := direction.LengthSquared()
	halfB := oc.Dot(direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if a == 0 || discriminant < 0 {
		return core.Vec3{}, false
	}

	sqrtD := math.Sqrt(discriminant)
	root := (-halfB - sqrtD) / a
	if root < 0 {
		root = (-halfB + sqrtD) / a
		if root < 0 {
			return core.Vec3{}, false
		}
	}
	return core.NewRay(origin, direction).At(root), true
}

// NormalAt returns the outward unit normal at a point on the surface
func (s Sphere) NormalAt(point core.Vec3) core.Vec3 {
	return point.Subtract(s.Center).Multiply(1 / s.Radius)
}

// Bounds returns the axis-aligned box around the sphere
func (s Sphere) Bounds() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(radius), s.Center.Add(radius))
}
