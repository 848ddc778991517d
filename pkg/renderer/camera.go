package renderer

import (
	"math"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

// CameraConfig describes a pinhole camera
type CameraConfig struct {
	Center core.Vec3 `json:"center"`  // Eye position
	LookAt core.Vec3 `json:"look_at"` // Point the camera faces
	Up     core.Vec3 `json:"up"`      // Approximate up direction
	Width  int       `json:"width"`   // Image width in pixels
	Height int       `json:"height"`  // Image height in pixels
	VFov   float64   `json:"vfov"`    // Vertical field of view in degrees
}

// Camera generates one ray per pixel through the pixel centre
type Camera struct {
	config          CameraConfig
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	forward         core.Vec3
}

// NewCamera creates a camera from its configuration
func NewCamera(config CameraConfig) *Camera {
	aspectRatio := float64(config.Width) / float64(config.Height)
	theta := config.VFov * math.Pi / 180
	viewportHeight := 2 * math.Tan(theta/2)
	viewportWidth := aspectRatio * viewportHeight

	// Orthonormal basis; w points backwards from the view direction
	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	origin := config.Center
	horizontal := u.Multiply(viewportWidth)
	vertical := v.Multiply(viewportHeight)
	lowerLeftCorner := origin.Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5)).
		Subtract(w)

	return &Camera{
		config:          config,
		origin:          origin,
		horizontal:      horizontal,
		vertical:        vertical,
		lowerLeftCorner: lowerLeftCorner,
		forward:         w.Negate(),
	}
}

// GetRay returns the normalized ray through the centre of pixel (i, j),
// where j = 0 is the top row
func (c *Camera) GetRay(i, j int) core.Ray {
	s := (float64(i) + 0.5) / float64(c.config.Width)
	t := 1 - (float64(j)+0.5)/float64(c.config.Height)

	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(c.origin)

	return core.NewRay(c.origin, direction.Normalize())
}

// GetCameraForward returns the unit view direction
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.forward
}

// Width returns the image width in pixels
func (c *Camera) Width() int {
	return c.config.Width
}

// Height returns the image height in pixels
func (c *Camera) Height() int {
	return c.config.Height
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}
