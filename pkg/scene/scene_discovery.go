package scene

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/loaders"
)

// Scene types reported by discovery
const (
	TypeBuiltIn = "builtin"
	TypeJSON    = "json"
)

// builtInGroup is the group name for scenes compiled into the binary
const builtInGroup = "Built-in Scenes"

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier, accepted by Create
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "json"
	FilePath    string `json:"filePath"`    // Path to JSON file (json type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// BuiltInScenes returns metadata for every built-in scene, sorted by id
func BuiltInScenes() []SceneInfo {
	scenes := []SceneInfo{
		{
			ID:          "final",
			Name:        "Final Scene",
			Description: "Hundreds of random small spheres around three large ones",
		},
		{
			ID:          "materials",
			Name:        "Materials",
			Description: "Diffuse, metal and glass spheres with a hollow glass bubble",
		},
		{
			ID:          "single-sphere",
			Name:        "Single Sphere",
			Description: "One diffuse sphere under the sky",
		},
		{
			ID:          "sphere-grid",
			Name:        "Sphere Grid",
			Description: "10x10 grid of rainbow-colored metallic spheres",
		},
	}

	for i := range scenes {
		scenes[i].DisplayName = scenes[i].Name
		scenes[i].Group = builtInGroup
		scenes[i].Type = TypeBuiltIn
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].ID < scenes[j].ID
	})
	return scenes
}

// ListJSONScenes scans dir for *.json scene files. A missing directory yields no scenes;
// files that fail to parse are skipped and reported through warn.
func ListJSONScenes(dir string, warn func(format string, args ...interface{})) ([]SceneInfo, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var scenes []SceneInfo
	for _, filePath := range files {
		sceneInfo, err := ParseJSONMetadata(filePath)
		if err != nil {
			if warn != nil {
				warn("Warning: failed to parse metadata for %s: %v\n", filePath, err)
			}
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	// Sort scenes by display name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseJSONMetadata extracts metadata from a JSON scene file, falling back to
// values derived from the filename
func ParseJSONMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	sceneInfo := SceneInfo{
		ID:          jsonPrefix + nameWithoutExt,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "Scene Files", // Default group
		Type:        TypeJSON,
		FilePath:    filePath,
	}

	sceneFile, err := loaders.LoadSceneJSON(filePath)
	if err != nil {
		return sceneInfo, err
	}

	if sceneFile.Name != "" {
		sceneInfo.Name = sceneFile.Name
		sceneInfo.DisplayName = sceneFile.Name
	}
	if sceneFile.Group != "" {
		sceneInfo.Group = sceneFile.Group
	}
	sceneInfo.Description = sceneFile.Description

	return sceneInfo, nil
}

// ListScenes returns built-in scenes and the JSON scenes found in dir, grouped by category
func ListScenes(dir string, warn func(format string, args ...interface{})) (ScenesResponse, error) {
	var response ScenesResponse

	jsonScenes, err := ListJSONScenes(dir, warn)
	if err != nil {
		return response, fmt.Errorf("failed to list JSON scenes: %w", err)
	}

	allScenes := append(BuiltInScenes(), jsonScenes...)

	// Group scenes by their Group field
	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Create ordered groups (Built-in first, then alphabetical)
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if group, exists := groupMap[builtInGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   builtInGroup,
			Scenes: group,
		})
	}

	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "glass-bubbles" -> "Glass Bubbles"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	// Title case each word
	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
