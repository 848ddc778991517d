package scene

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/geometry"
	"github.com/df07/go-voxel-raytracer/pkg/grid"
	"github.com/df07/go-voxel-raytracer/pkg/renderer"
)

// quadPLY is a 2x2 square in the z=0 plane facing +Z, stored as one quad face
const quadPLY = `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
-1 -1 0
1 -1 0
1 1 0
-1 1 0
4 0 1 2 3
`

func square(z float64) []geometry.Triangle {
	a := core.NewVec3(-1, -1, z)
	b := core.NewVec3(1, -1, z)
	c := core.NewVec3(1, 1, z)
	d := core.NewVec3(-1, 1, z)
	return []geometry.Triangle{
		geometry.NewTriangle(a, b, c, core.Vec3{}),
		geometry.NewTriangle(a, c, d, core.Vec3{}),
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "quad.ply", quadPLY)
	path := writeFile(t, dir, "quad.json", `{
  "name": "Quad",
  "width": 21,
  "height": 11,
  "camera": {"center": [0, 0, 5], "look_at": [0, 0, 0], "up": [0, 1, 0]},
  "meshes": [{"path": "quad.ply"}]
}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	s, err := Load(cfg, nil)
	require.NoError(t, err)

	require.Len(t, s.GetObjects(), 1)
	assert.Equal(t, "quad", s.GetObjects()[0].Name)
	assert.Equal(t, renderer.DefaultMaterial(), s.GetObjects()[0].Material)
	assert.Equal(t, 2, s.GetPrimitiveCount())

	// Unit is the shortest edge (2), bounds grow by half a unit
	assert.Equal(t, core.NewVec3(-2, -2, -1), s.Bounds.Min)
	assert.Equal(t, core.NewVec3(2, 2, 1), s.Bounds.Max)

	// Default light sits half a diagonal above the eye
	assert.Equal(t, core.NewVec3(0, 3, 5), s.GetLight().Position)
	assert.Equal(t, 40.0, s.GetCamera().Config().VFov)

	rt := renderer.NewRaytracer(s, s.RenderConfig())
	_, hit := rt.RayColor(s.GetCamera().GetRay(10, 5))
	assert.True(t, hit, "centre pixel sees the quad")
	_, hit = rt.RayColor(s.GetCamera().GetRay(0, 0))
	assert.False(t, hit, "corner pixel misses the quad")

	stats := s.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Triangles)
}

func TestLoad_MissingMesh(t *testing.T) {
	cfg := NewMeshConfig(filepath.Join(t.TempDir(), "missing.stl"))
	_, err := Load(&cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mesh 0")
}

func TestNewScene(t *testing.T) {
	t.Run("mesh count must match", func(t *testing.T) {
		cfg := NewMeshConfig("a.stl")
		_, err := NewScene(&cfg, nil, nil)
		assert.Error(t, err)
	})

	t.Run("empty mesh", func(t *testing.T) {
		cfg := NewMeshConfig("a.stl")
		_, err := NewScene(&cfg, [][]geometry.Triangle{{}}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, grid.ErrEmptyMesh))
	})

	t.Run("several meshes", func(t *testing.T) {
		cfg := DefaultConfig()
		shiny := renderer.Material{Diffuse: core.NewVec3(1, 0, 0), Reflection: 1}
		cfg.Light = &LightSettings{Position: core.NewVec3(0, 10, 0)}
		cfg.Grid.Policy = "nearest"
		cfg.Meshes = []MeshConfig{
			{Name: "front", Path: "front.stl"},
			{Name: "back", Path: "back.stl", Material: &shiny, Translate: core.NewVec3(0, 0, -4)},
		}

		s, err := NewScene(&cfg, [][]geometry.Triangle{square(0), square(0)}, nil)
		require.NoError(t, err)

		require.Len(t, s.Objects, 2)
		assert.Equal(t, shiny, s.Objects[1].Material)
		assert.Equal(t, renderer.NewWhiteLight(core.NewVec3(0, 10, 0)), s.GetLight())
		assert.Equal(t, grid.Nearest, s.Indexes[0].Policy())
		assert.Equal(t, core.NewVec3(-2, -2, -5), s.Bounds.Min)
		assert.Equal(t, core.NewVec3(2, 2, 1), s.Bounds.Max)

		// The framed camera looks straight at the centre of both meshes
		rt := renderer.NewRaytracer(s, s.RenderConfig())
		_, hit := rt.RayColor(s.GetCamera().GetRay(cfg.Width/2, cfg.Height/2))
		assert.True(t, hit)
	})
}

func TestNewScene_Spheres(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 21, 11
	cfg.Camera = &CameraSettings{Center: core.NewVec3(0, 0, 5), LookAt: core.Vec3{}}
	red := renderer.Material{Diffuse: core.NewVec3(0.7, 0, 0)}
	cfg.Meshes = []MeshConfig{{Name: "floor", Path: "floor.stl", Translate: core.NewVec3(0, 0, -3)}}
	cfg.Spheres = []SphereConfig{
		{Name: "red", Radius: 0.5, Material: &red},
		{Center: core.NewVec3(4, 0, 0), Radius: 1},
	}

	s, err := NewScene(&cfg, [][]geometry.Triangle{square(0)}, nil)
	require.NoError(t, err)

	require.Len(t, s.Objects, 3)
	require.Len(t, s.Indexes, 3)
	assert.Equal(t, "floor", s.Objects[0].Name)
	assert.Equal(t, "red", s.Objects[1].Name)
	assert.Equal(t, "sphere1", s.Objects[2].Name)
	assert.Equal(t, red, s.Objects[1].Material)
	assert.Equal(t, renderer.DefaultMaterial(), s.Objects[2].Material)
	assert.NotNil(t, s.Indexes[0])
	assert.Nil(t, s.Indexes[1])
	assert.Nil(t, s.Indexes[2])

	assert.Equal(t, 2, s.GetPrimitiveCount(), "spheres are not triangles")
	assert.Len(t, s.Stats(), 1)
	assert.Equal(t, core.NewVec3(-2, -2, -4), s.Bounds.Min)
	assert.Equal(t, core.NewVec3(5, 2, 1), s.Bounds.Max)

	// The sphere sits in front of the floor on the centre ray
	hit, ok := s.Objects[1].Mesh.Intersect(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	require.True(t, ok)
	assert.Equal(t, -1, hit.Triangle)
	assert.InDelta(t, 0.5, hit.Point.Z, 1e-12)

	rt := renderer.NewRaytracer(s, s.RenderConfig())
	color, primary := rt.RayColor(s.GetCamera().GetRay(10, 5))
	assert.True(t, primary)
	assert.Greater(t, color.X, color.Y, "centre pixel shows the red sphere")
}

func TestFrameCamera(t *testing.T) {
	bounds := core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))

	wide := FrameCamera(bounds, 400, 300)
	assert.Equal(t, core.Vec3{}, wide.LookAt)
	distance := wide.Center.Subtract(wide.LookAt).Length()
	assert.InDelta(t, math.Sqrt(3)/math.Sin(20*math.Pi/180), distance, 1e-9)
	assert.Greater(t, wide.Center.Y, 0.0, "camera looks slightly down")

	// Every corner lies inside the vertical field of view
	forward := wide.LookAt.Subtract(wide.Center).Normalize()
	for _, corner := range []core.Vec3{bounds.Min, bounds.Max, core.NewVec3(-1, 1, 1), core.NewVec3(1, -1, -1)} {
		angle := math.Acos(forward.Dot(corner.Subtract(wide.Center).Normalize()))
		assert.Less(t, angle, 20*math.Pi/180)
	}

	tall := FrameCamera(bounds, 100, 300)
	assert.Greater(t, tall.Center.Subtract(tall.LookAt).Length(), distance)

	point := FrameCamera(core.NewAABB(core.NewVec3(1, 1, 1), core.NewVec3(1, 1, 1)), 10, 10)
	assert.NotEqual(t, point.Center, point.LookAt)
}

func TestTransform(t *testing.T) {
	tri := geometry.NewTriangle(core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 0), core.Vec3{})

	t.Run("identity keeps the slice", func(t *testing.T) {
		in := []geometry.Triangle{tri}
		out := Transform(in, MeshConfig{})
		assert.Equal(t, in, out)
	})

	t.Run("scale rotate translate", func(t *testing.T) {
		out := Transform([]geometry.Triangle{tri}, MeshConfig{
			Scale:     2,
			Rotate:    core.NewVec3(0, 0, 90),
			Translate: core.NewVec3(1, 0, 0),
		})
		require.Len(t, out, 1)

		// (1,0,0) -> (2,0,0) -> (0,2,0) -> (1,2,0)
		assert.InDelta(t, 1.0, out[0].V0.X, 1e-12)
		assert.InDelta(t, 2.0, out[0].V0.Y, 1e-12)
		assert.InDelta(t, 0.0, out[0].V0.Z, 1e-12)
		assert.InDelta(t, 2.0, out[0].MinEdge(), 1e-12)

		// Rotation about Z leaves a +Z normal alone
		assert.InDelta(t, 1.0, out[0].Normal.Z, 1e-12)
	})
}
