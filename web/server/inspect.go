package server

import (
	"net/http"
	"strconv"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/renderer"
	"github.com/df07/go-voxel-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for pixel inspection
type InspectResponse struct {
	Hit           bool               `json:"hit"`
	Object        string             `json:"object,omitempty"`
	Triangle      int                `json:"triangle"` // -1 for a sphere
	Point         core.Vec3          `json:"point"`
	Normal        core.Vec3          `json:"normal"`
	Distance      float64            `json:"distance"`
	Cell          *[3]int            `json:"cell,omitempty"` // Grid cell holding the hit point, meshes only
	CellTriangles int                `json:"cellTriangles"`  // Triangles registered in that cell
	Policy        string             `json:"policy,omitempty"`
	Material      *renderer.Material `json:"material,omitempty"`
}

// inspectPixel casts the camera ray through the pixel centre and reports
// the nearest hit over every object. Mesh hits also carry the grid cell they
// fall in.
func inspectPixel(sceneObj *scene.Scene, pixelX, pixelY int) InspectResponse {
	ray := sceneObj.GetCamera().GetRay(pixelX, pixelY)

	var response InspectResponse
	for i, object := range sceneObj.GetObjects() {
		hit, ok := object.Mesh.Intersect(ray.Origin, ray.Direction)
		if !ok {
			continue
		}
		distance := hit.Point.Subtract(ray.Origin).Length()
		if response.Hit && distance >= response.Distance {
			continue
		}

		material := object.Material
		response = InspectResponse{
			Hit:      true,
			Object:   object.Name,
			Triangle: hit.Triangle,
			Point:    hit.Point,
			Normal:   hit.Normal,
			Distance: distance,
			Material: &material,
		}
		if index := sceneObj.Indexes[i]; index != nil {
			cell := index.Grid().CellOf(hit.Point)
			response.Cell = &[3]int{cell.X, cell.Y, cell.Z}
			response.CellTriangles = len(index.CellTriangles(cell))
			response.Policy = index.Policy().String()
		}
	}
	return response
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := parseSceneRequest(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}

	sceneObj, err := s.loadScene(req, nil)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	camera := sceneObj.GetCamera()
	if pixelX < 0 || pixelX >= camera.Width() || pixelY < 0 || pixelY >= camera.Height() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	writeJSON(w, http.StatusOK, inspectPixel(sceneObj, pixelX, pixelY))
}
