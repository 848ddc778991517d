package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/grid"
	"github.com/df07/go-voxel-raytracer/pkg/renderer"
)

// maxConfigSize bounds scene files read from disk
const maxConfigSize = 1 * 1024 * 1024 // 1MB

// Config is a scene description as stored in a .json scene file
type Config struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	MaxDepth    int             `json:"max_depth"`
	Background  core.Vec3       `json:"background"`
	Camera      *CameraSettings `json:"camera,omitempty"` // nil frames the meshes automatically
	Light       *LightSettings  `json:"light,omitempty"`  // nil places a white light above the camera
	Grid        GridConfig      `json:"grid"`
	Meshes      []MeshConfig    `json:"meshes"`
	Spheres     []SphereConfig  `json:"spheres,omitempty"`

	// BaseDir resolves relative mesh paths. LoadConfig sets it to the
	// directory holding the scene file.
	BaseDir string `json:"-"`
}

// CameraSettings places the camera. The image size comes from Config.
type CameraSettings struct {
	Center core.Vec3 `json:"center"`
	LookAt core.Vec3 `json:"look_at"`
	Up     core.Vec3 `json:"up"`
	VFov   float64   `json:"vfov,omitempty"` // Degrees, 0 means 40
}

// LightSettings is the point light. Omitted terms are white.
type LightSettings struct {
	Position core.Vec3  `json:"position"`
	Ambient  *core.Vec3 `json:"ambient,omitempty"`
	Diffuse  *core.Vec3 `json:"diffuse,omitempty"`
	Specular *core.Vec3 `json:"specular,omitempty"`
}

// Light returns the renderer light with omitted terms filled in
func (l LightSettings) Light() renderer.Light {
	light := renderer.NewWhiteLight(l.Position)
	if l.Ambient != nil {
		light.Ambient = *l.Ambient
	}
	if l.Diffuse != nil {
		light.Diffuse = *l.Diffuse
	}
	if l.Specular != nil {
		light.Specular = *l.Specular
	}
	return light
}

// GridConfig carries the index build options for every mesh in the scene
type GridConfig struct {
	Policy         string `json:"policy,omitempty"` // "first" (default) or "nearest"
	MaxResolution  int    `json:"max_resolution,omitempty"`
	SkipDegenerate bool   `json:"skip_degenerate,omitempty"`
}

// MeshConfig is one mesh file and its placement. Transforms apply in the
// order scale, rotate, translate.
type MeshConfig struct {
	Name      string             `json:"name,omitempty"`
	Path      string             `json:"path"`
	Scale     float64            `json:"scale,omitempty"`  // 0 means 1
	Rotate    core.Vec3          `json:"rotate"`           // Degrees about X, Y, Z
	Translate core.Vec3          `json:"translate"`
	Material  *renderer.Material `json:"material,omitempty"` // nil uses renderer.DefaultMaterial
}

// SphereConfig is an analytic sphere placed in world space
type SphereConfig struct {
	Name     string             `json:"name,omitempty"`
	Center   core.Vec3          `json:"center"`
	Radius   float64            `json:"radius"`
	Material *renderer.Material `json:"material,omitempty"` // nil uses renderer.DefaultMaterial
}

// DefaultConfig returns the settings used for anything a scene file omits
func DefaultConfig() Config {
	return Config{
		Name:       "scene",
		Width:      400,
		Height:     300,
		MaxDepth:   renderer.DefaultConfig().MaxDepth,
		Background: core.NewVec3(0, 0, 0),
	}
}

// NewMeshConfig returns a single-mesh scene for the given file, named after it
func NewMeshConfig(path string) Config {
	cfg := DefaultConfig()
	base := filepath.Base(path)
	cfg.Name = strings.TrimSuffix(base, filepath.Ext(base))
	cfg.Meshes = []MeshConfig{{Name: cfg.Name, Path: path}}
	return cfg
}

// LoadConfig reads and validates a scene file
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("scene file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scene file: %w", err)
	}
	if fileInfo.Size() > maxConfigSize {
		return nil, fmt.Errorf("scene file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	// Fields missing from the file keep their defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scene JSON: %w", err)
	}
	cfg.BaseDir = filepath.Dir(cleanPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene %s: %w", cleanPath, err)
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot be rendered
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("image size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if _, err := grid.ParsePolicy(c.Grid.Policy); err != nil {
		return err
	}
	if c.Grid.MaxResolution < 0 {
		return fmt.Errorf("grid max_resolution must be non-negative, got %d", c.Grid.MaxResolution)
	}
	if c.Camera != nil {
		if c.Camera.VFov < 0 || c.Camera.VFov >= 180 {
			return fmt.Errorf("camera vfov must be between 0 and 180 degrees, got %g", c.Camera.VFov)
		}
		if c.Camera.Center == c.Camera.LookAt {
			return fmt.Errorf("camera center and look_at must differ")
		}
	}
	if c.Light != nil {
		light := c.Light.Light()
		if light.Ambient == (core.Vec3{}) && light.Diffuse == (core.Vec3{}) && light.Specular == (core.Vec3{}) {
			return fmt.Errorf("light has no intensity: ambient, diffuse and specular are all zero")
		}
	}
	if len(c.Meshes) == 0 && len(c.Spheres) == 0 {
		return fmt.Errorf("scene has no meshes or spheres")
	}
	for i, mesh := range c.Meshes {
		if mesh.Path == "" {
			return fmt.Errorf("mesh %d has no path", i)
		}
		if mesh.Scale < 0 {
			return fmt.Errorf("mesh %d scale must be non-negative, got %g", i, mesh.Scale)
		}
		if m := mesh.Material; m != nil && (m.Reflection < 0 || m.Reflection > 1) {
			return fmt.Errorf("mesh %d reflection must be between 0 and 1, got %g", i, m.Reflection)
		}
	}
	for i, sphere := range c.Spheres {
		if sphere.Radius <= 0 {
			return fmt.Errorf("sphere %d radius must be positive, got %g", i, sphere.Radius)
		}
		if m := sphere.Material; m != nil && (m.Reflection < 0 || m.Reflection > 1) {
			return fmt.Errorf("sphere %d reflection must be between 0 and 1, got %g", i, m.Reflection)
		}
	}
	return nil
}

// GridOptions converts the grid settings into index build options
func (c *Config) GridOptions(logger core.Logger) (*grid.Options, error) {
	policy, err := grid.ParsePolicy(c.Grid.Policy)
	if err != nil {
		return nil, err
	}
	return &grid.Options{
		Policy:         policy,
		MaxResolution:  c.Grid.MaxResolution,
		SkipDegenerate: c.Grid.SkipDegenerate,
		Logger:         logger,
	}, nil
}

// MeshPath resolves a mesh path against BaseDir
func (c *Config) MeshPath(mesh MeshConfig) string {
	if filepath.IsAbs(mesh.Path) || c.BaseDir == "" {
		return mesh.Path
	}
	return filepath.Join(c.BaseDir, mesh.Path)
}
