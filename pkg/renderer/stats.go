package renderer

import (
	"fmt"
	"time"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels int           // Pixels rendered
	PrimaryHits int           // Camera rays that hit a mesh
	Rays        int           // Mesh queries, including shadow and reflection rays
	Elapsed     time.Duration // Wall time of the whole render
}

// Merge adds the counters of other into s
func (s *RenderStats) Merge(other RenderStats) {
	s.TotalPixels += other.TotalPixels
	s.PrimaryHits += other.PrimaryHits
	s.Rays += other.Rays
}

// Coverage returns the fraction of pixels whose camera ray hit a mesh
func (s RenderStats) Coverage() float64 {
	if s.TotalPixels == 0 {
		return 0
	}
	return float64(s.PrimaryHits) / float64(s.TotalPixels)
}

func (s RenderStats) String() string {
	return fmt.Sprintf("%d pixels, %.1f%% covered, %d rays in %v",
		s.TotalPixels, 100*s.Coverage(), s.Rays, s.Elapsed)
}
