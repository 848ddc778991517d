package renderer

import "github.com/df07/go-voxel-raytracer/pkg/core"

// Material holds Blinn-Phong coefficients for a mesh
type Material struct {
	Ambient    core.Vec3 `json:"ambient"`
	Diffuse    core.Vec3 `json:"diffuse"`
	Specular   core.Vec3 `json:"specular"`
	Shininess  float64   `json:"shininess"`
	Reflection float64   `json:"reflection"` // Fraction carried by the next bounce, 0..1
}

// DefaultMaterial returns a matte grey with a faint highlight
func DefaultMaterial() Material {
	return Material{
		Ambient:    core.NewVec3(0.1, 0.1, 0.1),
		Diffuse:    core.NewVec3(0.6, 0.6, 0.6),
		Specular:   core.NewVec3(0.3, 0.3, 0.3),
		Shininess:  100,
		Reflection: 0.2,
	}
}

// Light is a point light. Each term scales the matching material term.
type Light struct {
	Position core.Vec3 `json:"position"`
	Ambient  core.Vec3 `json:"ambient"`
	Diffuse  core.Vec3 `json:"diffuse"`
	Specular core.Vec3 `json:"specular"`
}

// NewWhiteLight returns a light at position with unit intensity on every term
func NewWhiteLight(position core.Vec3) Light {
	one := core.NewVec3(1, 1, 1)
	return Light{Position: position, Ambient: one, Diffuse: one, Specular: one}
}

// Object is an indexed mesh with its material
type Object struct {
	Name     string
	Mesh     Intersector
	Material Material
}
