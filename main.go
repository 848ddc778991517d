package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/renderer"
	"github.com/df07/go-voxel-raytracer/pkg/scene"
)

// overrides are the command line settings that replace scene file values
type overrides struct {
	width    int
	height   int
	policy   string
	maxRes   int
	skipBad  bool
	maxDepth int
	workers  int
}

func main() {
	// Parse command line flags
	scenePath := flag.String("scene", "", "Scene file (.json)")
	meshPath := flag.String("mesh", "", "Render a single mesh (.stl or .ply) with a framed camera")
	outPath := flag.String("out", "", "Output PNG (default output/<scene>/render_<timestamp>.png)")
	width := flag.Int("width", 0, "Image width (overrides the scene)")
	height := flag.Int("height", 0, "Image height (overrides the scene)")
	workers := flag.Int("workers", 0, "Number of render workers (0 = one per CPU)")
	policy := flag.String("policy", "", "Hit policy: 'first' or 'nearest' (overrides the scene)")
	maxRes := flag.Int("max-res", 0, "Maximum grid cells along any axis (0 = unbounded)")
	skipBad := flag.Bool("skip-degenerate", false, "Skip degenerate triangles instead of failing")
	maxDepth := flag.Int("depth", 0, "Maximum reflection bounces (overrides the scene)")
	statsOnly := flag.Bool("stats", false, "Print grid statistics and exit without rendering")
	list := flag.Bool("list", false, "List the scene files in -scenes and exit")
	scenesDir := flag.String("scenes", "scenes", "Directory searched by -list")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	// Show help if requested
	if *help {
		fmt.Println("Voxel Raytracer")
		fmt.Println("Usage: raytracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  raytracer -scene scenes/tetrahedron.json")
		fmt.Println("  raytracer -mesh bunny.stl -policy nearest -width 800 -height 600")
		fmt.Println("  raytracer -mesh bunny.ply -stats")
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.png")
		return
	}

	logger := core.NewStdLogger(os.Stdout)

	if *list {
		if err := listScenes(*scenesDir, logger); err != nil {
			fmt.Printf("Error listing scenes: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(*scenePath, *meshPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	opts := overrides{
		width:    *width,
		height:   *height,
		policy:   *policy,
		maxRes:   *maxRes,
		skipBad:  *skipBad,
		maxDepth: *maxDepth,
		workers:  *workers,
	}
	if err := applyOverrides(cfg, opts); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loading scene %q...\n", cfg.Name)
	selectedScene, err := scene.Load(cfg, logger)
	if err != nil {
		fmt.Printf("Error loading scene: %v\n", err)
		os.Exit(1)
	}

	if *statsOnly {
		for i, stats := range selectedScene.Stats() {
			fmt.Printf("%s: %s\n", selectedScene.Objects[i].Name, stats)
		}
		return
	}

	// Ctrl-C stops the render between row bands
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	renderConfig := selectedScene.RenderConfig()
	renderConfig.NumWorkers = opts.workers
	raytracer := renderer.NewRaytracer(selectedScene, renderConfig)

	fmt.Printf("Rendering %dx%d, %d triangles, max depth %d...\n",
		cfg.Width, cfg.Height, selectedScene.GetPrimitiveCount(), renderConfig.MaxDepth)
	img, stats, err := raytracer.Render(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render completed: %s\n", stats)

	filename := *outPath
	if filename == "" {
		filename = defaultOutputPath(cfg.Name, time.Now())
	}
	if err := renderer.SavePNG(filename, img); err != nil {
		fmt.Printf("Error saving PNG: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", filename)
}

// loadConfig reads a scene file, or builds a one-mesh scene for meshPath
func loadConfig(scenePath, meshPath string) (*scene.Config, error) {
	switch {
	case scenePath != "" && meshPath != "":
		return nil, fmt.Errorf("use either -scene or -mesh, not both")
	case scenePath != "":
		return scene.LoadConfig(scenePath)
	case meshPath != "":
		cfg := scene.NewMeshConfig(meshPath)
		return &cfg, nil
	default:
		return nil, fmt.Errorf("no scene given; use -scene file.json or -mesh file.stl (see -help)")
	}
}

// applyOverrides copies non-zero command line settings into cfg and
// validates the result
func applyOverrides(cfg *scene.Config, opts overrides) error {
	if opts.width > 0 {
		cfg.Width = opts.width
	}
	if opts.height > 0 {
		cfg.Height = opts.height
	}
	if opts.policy != "" {
		cfg.Grid.Policy = opts.policy
	}
	if opts.maxRes > 0 {
		cfg.Grid.MaxResolution = opts.maxRes
	}
	if opts.skipBad {
		cfg.Grid.SkipDegenerate = true
	}
	if opts.maxDepth > 0 {
		cfg.MaxDepth = opts.maxDepth
	}
	if opts.workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", opts.workers)
	}
	return cfg.Validate()
}

// defaultOutputPath returns output/<name>/render_<timestamp>.png
func defaultOutputPath(name string, now time.Time) string {
	timestamp := now.Format("20060102_150405")
	return filepath.Join("output", name, fmt.Sprintf("render_%s.png", timestamp))
}

func listScenes(dir string, logger core.Logger) error {
	scenes, err := scene.ListScenes(dir, logger)
	if err != nil {
		return err
	}
	if len(scenes) == 0 {
		fmt.Printf("No scenes found in %s\n", dir)
		return nil
	}
	for _, info := range scenes {
		fmt.Printf("  %-20s %s (%d meshes, %d spheres)\n", info.ID, info.DisplayName, info.Meshes, info.Spheres)
		if info.Description != "" {
			fmt.Printf("  %-20s %s\n", "", info.Description)
		}
	}
	return nil
}
