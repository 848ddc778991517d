package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/grid"
)

// shadowBias lifts secondary ray origins off the surface they leave
const shadowBias = 1e-5

// Config contains rendering configuration
type Config struct {
	MaxDepth    int // Maximum number of shaded bounces per pixel
	NumWorkers  int // Parallel workers, 0 for one per CPU
	RowsPerTask int // Image rows handed to a worker at a time
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		MaxDepth:    3,
		RowsPerTask: 8,
	}
}

// Intersector finds the hit of a ray against one mesh
type Intersector interface {
	Intersect(origin, direction core.Vec3) (grid.Hit, bool)
}

// Scene interface to avoid circular imports
type Scene interface {
	GetCamera() *Camera
	GetLight() Light
	GetObjects() []Object
	GetBackgroundColor() core.Vec3
}

// Raytracer shades camera rays against the scene. It holds no mutable
// state, so one Raytracer serves every worker.
type Raytracer struct {
	scene  Scene
	width  int
	height int
	config Config
}

// NewRaytracer creates a new raytracer sized to the scene camera
func NewRaytracer(scene Scene, config Config) *Raytracer {
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultConfig().MaxDepth
	}
	if config.RowsPerTask <= 0 {
		config.RowsPerTask = DefaultConfig().RowsPerTask
	}
	camera := scene.GetCamera()
	return &Raytracer{
		scene:  scene,
		width:  camera.Width(),
		height: camera.Height(),
		config: config,
	}
}

// worldHit is the nearest hit over every object
type worldHit struct {
	grid.Hit
	object   int
	distance float64
}

// hitWorld checks if a ray hits any object in the scene
func (rt *Raytracer) hitWorld(origin, direction core.Vec3, stats *RenderStats) (worldHit, bool) {
	closest := worldHit{distance: math.Inf(1)}
	hitAnything := false

	for i, object := range rt.scene.GetObjects() {
		stats.Rays++
		hit, ok := object.Mesh.Intersect(origin, direction)
		if !ok {
			continue
		}
		if d := hit.Point.Subtract(origin).Length(); d < closest.distance {
			closest = worldHit{Hit: hit, object: i, distance: d}
			hitAnything = true
		}
	}
	return closest, hitAnything
}

// RayColor returns the unclamped color seen along ray and whether the first
// bounce hit anything
func (rt *Raytracer) RayColor(ray core.Ray) (core.Vec3, bool) {
	var stats RenderStats
	return rt.rayColor(ray, &stats)
}

// rayColor follows the ray through up to MaxDepth mirror bounces. Each bounce
// adds the Blinn-Phong illumination of the surface it lands on, weighted by
// the product of the reflection coefficients so far. A bounce whose point is
// shadowed from the light ends the walk.
func (rt *Raytracer) rayColor(ray core.Ray, stats *RenderStats) (core.Vec3, bool) {
	light := rt.scene.GetLight()
	objects := rt.scene.GetObjects()

	origin := ray.Origin
	direction := ray.Direction.Normalize()
	color := core.Vec3{}
	reflection := 1.0
	primaryHit := false

	for depth := 0; depth < rt.config.MaxDepth; depth++ {
		hit, ok := rt.hitWorld(origin, direction, stats)
		if !ok {
			if depth == 0 {
				return rt.scene.GetBackgroundColor(), false
			}
			break
		}
		if depth == 0 {
			primaryHit = true
		}
		material := objects[hit.object].Material

		// Shade the side facing the incoming ray
		normal := hit.Normal.Normalize()
		if normal.Dot(direction) > 0 {
			normal = normal.Negate()
		}
		shifted := hit.Point.Add(normal.Multiply(shadowBias))
		toLight := light.Position.Subtract(shifted).Normalize()

		lightDistance := light.Position.Subtract(hit.Point).Length()
		if blocker, blocked := rt.hitWorld(shifted, toLight, stats); blocked && blocker.distance < lightDistance {
			break
		}

		illumination := material.Ambient.MultiplyVec(light.Ambient)

		diffuse := math.Max(0, toLight.Dot(normal))
		illumination = illumination.Add(material.Diffuse.MultiplyVec(light.Diffuse).Multiply(diffuse))

		toViewer := direction.Negate()
		halfway := toLight.Add(toViewer).Normalize()
		specular := math.Pow(math.Max(0, normal.Dot(halfway)), material.Shininess*0.25)
		illumination = illumination.Add(material.Specular.MultiplyVec(light.Specular).Multiply(specular))

		color = color.Add(illumination.Multiply(reflection))
		reflection *= material.Reflection
		if reflection == 0 {
			break
		}

		origin = shifted
		direction = direction.Reflect(normal)
	}
	return color, primaryHit
}

// vec3ToColor converts a Vec3 color to RGBA, clamping each channel to [0, 1]
func vec3ToColor(colorVec core.Vec3) color.RGBA {
	colorVec = colorVec.Clamp(0.0, 1.0)

	return color.RGBA{
		R: uint8(math.Round(255 * colorVec.X)),
		G: uint8(math.Round(255 * colorVec.Y)),
		B: uint8(math.Round(255 * colorVec.Z)),
		A: 255,
	}
}

// RenderBounds renders the pixels of bounds into img
func (rt *Raytracer) RenderBounds(bounds image.Rectangle, img *image.RGBA) RenderStats {
	camera := rt.scene.GetCamera()
	var stats RenderStats

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			colorVec, hit := rt.rayColor(camera.GetRay(i, j), &stats)
			if hit {
				stats.PrimaryHits++
			}
			stats.TotalPixels++
			img.SetRGBA(i, j, vec3ToColor(colorVec))
		}
	}
	return stats
}
