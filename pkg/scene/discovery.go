package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-voxel-raytracer/pkg/core"
)

// SceneInfo represents a discovered scene file with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // File name without extension
	DisplayName string `json:"displayName"` // Scene name, or the title-cased ID
	Description string `json:"description"` // Optional description
	Meshes      int    `json:"meshes"`      // Number of mesh entries
	Spheres     int    `json:"spheres"`     // Number of sphere entries
	FilePath    string `json:"filePath"`    // Path to the .json file
}

// ListScenes scans dir for .json scene files. Files that cannot be parsed
// are logged and skipped; a missing directory yields an empty list.
func ListScenes(dir string, logger core.Logger) ([]SceneInfo, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		info, err := ReadSceneInfo(filePath)
		if err != nil {
			logger.Printf("Warning: failed to read scene %s: %v", filePath, err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ReadSceneInfo extracts the metadata of one scene file without loading
// its meshes
func ReadSceneInfo(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	id := strings.TrimSuffix(filename, filepath.Ext(filename))
	info := SceneInfo{
		ID:          id,
		DisplayName: titleCase(id),
		FilePath:    filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info, err
	}
	var header struct {
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Meshes      []json.RawMessage `json:"meshes"`
		Spheres     []json.RawMessage `json:"spheres"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return info, err
	}

	if header.Name != "" {
		info.DisplayName = header.Name
	}
	info.Description = header.Description
	info.Meshes = len(header.Meshes)
	info.Spheres = len(header.Spheres)
	return info, nil
}

// titleCase converts a filename-style string to title case
// e.g., "stanford-bunny" -> "Stanford Bunny"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
