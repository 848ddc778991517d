package renderer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

func testCameraConfig() CameraConfig {
	return CameraConfig{
		Center: core.NewVec3(0, 0, 5),
		LookAt: core.NewVec3(0, 0, 0),
		Up:     core.NewVec3(0, 1, 0),
		Width:  21,
		Height: 11,
		VFov:   45,
	}
}

func TestCamera_GetCameraForward(t *testing.T) {
	camera := NewCamera(testCameraConfig())
	forward := camera.GetCameraForward()
	assert.InDelta(t, 0.0, forward.X, 1e-12)
	assert.InDelta(t, 0.0, forward.Y, 1e-12)
	assert.InDelta(t, -1.0, forward.Z, 1e-12)
	assert.Equal(t, 21, camera.Width())
	assert.Equal(t, 11, camera.Height())
}

func TestCamera_GetRay(t *testing.T) {
	config := testCameraConfig()
	camera := NewCamera(config)

	t.Run("centre pixel looks forward", func(t *testing.T) {
		ray := camera.GetRay(10, 5)
		assert.Equal(t, config.Center, ray.Origin)
		assert.InDelta(t, 0.0, ray.Direction.X, 1e-12)
		assert.InDelta(t, 0.0, ray.Direction.Y, 1e-12)
		assert.InDelta(t, -1.0, ray.Direction.Z, 1e-12)
	})

	t.Run("rays are normalized", func(t *testing.T) {
		for _, p := range [][2]int{{0, 0}, {20, 10}, {3, 7}} {
			assert.InDelta(t, 1.0, camera.GetRay(p[0], p[1]).Direction.Length(), 1e-12)
		}
	})

	t.Run("row zero is the top", func(t *testing.T) {
		assert.Greater(t, camera.GetRay(10, 0).Direction.Y, 0.0)
		assert.Less(t, camera.GetRay(10, 10).Direction.Y, 0.0)
		assert.Less(t, camera.GetRay(0, 5).Direction.X, 0.0)
		assert.Greater(t, camera.GetRay(20, 5).Direction.X, 0.0)
	})

	t.Run("field of view spans the viewport", func(t *testing.T) {
		// Pixel centres sit half a pixel inside the edge of the viewport
		top := camera.GetRay(10, 0).Direction
		halfHeight := math.Tan(22.5*math.Pi/180) * (1 - 1.0/11)
		assert.InDelta(t, halfHeight, top.Y/-top.Z, 1e-12)
	})

	t.Run("opposite corners are mirrored", func(t *testing.T) {
		a := camera.GetRay(0, 0).Direction
		b := camera.GetRay(20, 10).Direction
		assert.InDelta(t, a.X, -b.X, 1e-12)
		assert.InDelta(t, a.Y, -b.Y, 1e-12)
		assert.InDelta(t, a.Z, b.Z, 1e-12)
	})
}
