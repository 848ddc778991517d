package scene

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/geometry"
	"github.com/df07/go-voxel-raytracer/pkg/grid"
	"github.com/df07/go-voxel-raytracer/pkg/loaders"
	"github.com/df07/go-voxel-raytracer/pkg/renderer"
)

// defaultVFov is used when the camera is framed automatically
const defaultVFov = 40.0

// Scene contains all the elements needed for rendering: one grid index per
// mesh, any analytic spheres, a camera and a single point light
type Scene struct {
	Config  Config
	Camera  *renderer.Camera
	Light   renderer.Light
	Objects []renderer.Object // Meshes in config order, then spheres
	Indexes []*grid.Index     // Parallel to Objects, nil for spheres
	Bounds  core.AABB         // Union of every object's bounds
}

// Load reads every mesh named by the config and builds the scene
func Load(cfg *Config, logger core.Logger) (*Scene, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}

	meshes := make([][]geometry.Triangle, len(cfg.Meshes))
	for i, mesh := range cfg.Meshes {
		triangles, err := loaders.LoadMesh(cfg.MeshPath(mesh), logger)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		meshes[i] = triangles
	}
	return NewScene(cfg, meshes, logger)
}

// NewScene builds a scene from triangles already in memory. meshes[i]
// belongs to cfg.Meshes[i]; the mesh paths are not read. Spheres come
// straight from the config.
func NewScene(cfg *Config, meshes [][]geometry.Triangle, logger core.Logger) (*Scene, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if len(meshes) != len(cfg.Meshes) {
		return nil, fmt.Errorf("got %d meshes for %d mesh entries", len(meshes), len(cfg.Meshes))
	}
	opts, err := cfg.GridOptions(logger)
	if err != nil {
		return nil, err
	}

	s := &Scene{Config: *cfg}
	addBounds := func(bounds core.AABB) {
		if len(s.Objects) == 1 {
			s.Bounds = bounds
		} else {
			s.Bounds = s.Bounds.Union(bounds)
		}
	}
	for i, mesh := range cfg.Meshes {
		triangles := Transform(meshes[i], mesh)
		index, err := grid.Build(triangles, opts)
		if err != nil {
			return nil, fmt.Errorf("mesh %d (%s): %w", i, meshName(mesh), err)
		}

		material := renderer.DefaultMaterial()
		if mesh.Material != nil {
			material = *mesh.Material
		}
		s.Objects = append(s.Objects, renderer.Object{Name: meshName(mesh), Mesh: index, Material: material})
		s.Indexes = append(s.Indexes, index)
		addBounds(index.Bounds())
	}
	for i, sphere := range cfg.Spheres {
		material := renderer.DefaultMaterial()
		if sphere.Material != nil {
			material = *sphere.Material
		}
		name := sphere.Name
		if name == "" {
			name = fmt.Sprintf("sphere%d", i)
		}
		shape := geometry.NewSphere(sphere.Center, sphere.Radius)
		s.Objects = append(s.Objects, renderer.Object{Name: name, Mesh: renderer.Sphere{Sphere: shape}, Material: material})
		s.Indexes = append(s.Indexes, nil)
		addBounds(shape.Bounds())
	}
	logger.Printf("Scene %q: %d meshes, %d spheres, %d triangles",
		cfg.Name, len(cfg.Meshes), len(cfg.Spheres), s.GetPrimitiveCount())

	if cfg.Camera != nil {
		vfov := cfg.Camera.VFov
		if vfov == 0 {
			vfov = defaultVFov
		}
		up := cfg.Camera.Up
		if up == (core.Vec3{}) {
			up = core.NewVec3(0, 1, 0)
		}
		s.Camera = renderer.NewCamera(renderer.CameraConfig{
			Center: cfg.Camera.Center,
			LookAt: cfg.Camera.LookAt,
			Up:     up,
			Width:  cfg.Width,
			Height: cfg.Height,
			VFov:   vfov,
		})
	} else {
		s.Camera = renderer.NewCamera(FrameCamera(s.Bounds, cfg.Width, cfg.Height))
	}

	if cfg.Light != nil {
		s.Light = cfg.Light.Light()
	} else {
		// Above and behind the eye, so the lit side faces the camera
		eye := s.Camera.Config().Center
		s.Light = renderer.NewWhiteLight(eye.Add(core.NewVec3(0, s.Bounds.Diagonal()*0.5, 0)))
	}

	return s, nil
}

// FrameCamera returns a camera that looks at the centre of bounds from the
// front and slightly above, far enough back for the whole box to fit
func FrameCamera(bounds core.AABB, width, height int) renderer.CameraConfig {
	center := bounds.Center()
	radius := bounds.Diagonal() * 0.5
	if radius == 0 {
		radius = 1
	}

	// Fit the bounding sphere into the narrower field of view
	halfFov := defaultVFov * math.Pi / 360
	if width < height {
		halfFov = math.Atan(math.Tan(halfFov) * float64(width) / float64(height))
	}
	distance := radius / math.Sin(halfFov)

	direction := core.NewVec3(0, 0.35, 1).Normalize()
	return renderer.CameraConfig{
		Center: center.Add(direction.Multiply(distance)),
		LookAt: center,
		Up:     core.NewVec3(0, 1, 0),
		Width:  width,
		Height: height,
		VFov:   defaultVFov,
	}
}

// Transform places a mesh: vertices are scaled, rotated (degrees, about X
// then Y then Z) and translated. Normals are rotated only.
func Transform(triangles []geometry.Triangle, mesh MeshConfig) []geometry.Triangle {
	scale := mesh.Scale
	if scale == 0 {
		scale = 1
	}
	rotation := mesh.Rotate.Multiply(math.Pi / 180)
	if scale == 1 && rotation == (core.Vec3{}) && mesh.Translate == (core.Vec3{}) {
		return triangles
	}

	place := func(v core.Vec3) core.Vec3 {
		return v.Multiply(scale).Rotate(rotation).Add(mesh.Translate)
	}
	placed := make([]geometry.Triangle, len(triangles))
	for i, tri := range triangles {
		placed[i] = geometry.NewTriangle(place(tri.V0), place(tri.V1), place(tri.V2), tri.Normal.Rotate(rotation))
	}
	return placed
}

func meshName(mesh MeshConfig) string {
	if mesh.Name != "" {
		return mesh.Name
	}
	base := filepath.Base(mesh.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// GetCamera returns the scene camera
func (s *Scene) GetCamera() *renderer.Camera {
	return s.Camera
}

// GetLight returns the scene light
func (s *Scene) GetLight() renderer.Light {
	return s.Light
}

// GetObjects returns the indexed meshes
func (s *Scene) GetObjects() []renderer.Object {
	return s.Objects
}

// GetBackgroundColor returns the colour of rays that hit nothing
func (s *Scene) GetBackgroundColor() core.Vec3 {
	return s.Config.Background
}

// RenderConfig returns renderer settings for this scene
func (s *Scene) RenderConfig() renderer.Config {
	config := renderer.DefaultConfig()
	config.MaxDepth = s.Config.MaxDepth
	return config
}

// GetPrimitiveCount returns the total number of mesh triangles in the scene
func (s *Scene) GetPrimitiveCount() int {
	count := 0
	for _, index := range s.Indexes {
		if index != nil {
			count += len(index.Triangles())
		}
	}
	return count
}

// Stats returns the grid statistics of every mesh, in mesh order. Mesh i is
// also Objects[i].
func (s *Scene) Stats() []grid.Stats {
	stats := make([]grid.Stats, len(s.Config.Meshes))
	for i := range stats {
		stats[i] = s.Indexes[i].Stats()
	}
	return stats
}
