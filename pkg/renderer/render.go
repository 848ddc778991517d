package renderer

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Render draws the whole image, splitting it into bands of rows rendered in
// parallel. A cancelled context stops the render between bands and returns
// the context error.
func (rt *Raytracer) Render(ctx context.Context) (*image.RGBA, RenderStats, error) {
	startTime := time.Now()
	img := image.NewRGBA(image.Rect(0, 0, rt.width, rt.height))

	var bands []image.Rectangle
	for y := 0; y < rt.height; y += rt.config.RowsPerTask {
		bands = append(bands, image.Rect(0, y, rt.width, min(y+rt.config.RowsPerTask, rt.height)))
	}

	pool := NewWorkerPool(rt, rt.config.NumWorkers, len(bands))
	pool.Start(ctx)
	for i, band := range bands {
		pool.SubmitTask(BandTask{Bounds: band, TaskID: i, Image: img})
	}
	pool.Stop()

	var stats RenderStats
	var firstErr error
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		stats.Merge(result.Stats)
	}
	stats.Elapsed = time.Since(startTime)

	if firstErr != nil {
		return nil, stats, fmt.Errorf("render interrupted: %w", firstErr)
	}
	return img, stats, nil
}

// SavePNG writes img to filename, creating parent directories as needed
func SavePNG(filename string, img image.Image) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return file.Close()
}
