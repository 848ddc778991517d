package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/scene"
)

// Image size limits accepted from clients
const (
	minImageSize = 16
	maxImageSize = 2000
)

// Server serves scene listings, streamed renders and pixel inspection for
// the scene files in one directory
type Server struct {
	port      int
	scenesDir string
}

// NewServer creates a new web server
func NewServer(port int, scenesDir string) *Server {
	return &Server{port: port, scenesDir: scenesDir}
}

// SceneRequest holds the parameters shared by every scene endpoint
type SceneRequest struct {
	Scene  string // Scene ID, the file name without .json
	Width  int    // Image width, 0 keeps the scene's
	Height int    // Image height, 0 keeps the scene's
	Policy string // Hit policy override, empty keeps the scene's
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the scene files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := scene.ListScenes(s.scenesDir, core.NewStdLogger(log.Writer()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scenes": scenes})
}

// parseSceneRequest parses the scene parameters shared by render and inspect
func parseSceneRequest(values url.Values) (*SceneRequest, error) {
	req := &SceneRequest{Scene: values.Get("scene"), Policy: values.Get("policy")}
	if req.Scene == "" {
		return nil, fmt.Errorf("missing scene")
	}
	if strings.ContainsAny(req.Scene, `/\`) || strings.HasPrefix(req.Scene, ".") {
		return nil, fmt.Errorf("invalid scene id: %s", req.Scene)
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 0, minImageSize, maxImageSize); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", 0, minImageSize, maxImageSize); err != nil {
		return nil, err
	}
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// loadScene reads the requested scene file, applies the request overrides
// and builds the grid indexes
func (s *Server) loadScene(req *SceneRequest, logger core.Logger) (*scene.Scene, error) {
	cfg, err := scene.LoadConfig(filepath.Join(s.scenesDir, req.Scene+".json"))
	if err != nil {
		return nil, err
	}
	if req.Width > 0 {
		cfg.Width = req.Width
	}
	if req.Height > 0 {
		cfg.Height = req.Height
	}
	if req.Policy != "" {
		cfg.Grid.Policy = req.Policy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return scene.Load(cfg, logger)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
