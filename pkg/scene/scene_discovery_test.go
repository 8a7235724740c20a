package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"glass-bubbles", "Glass Bubbles"},
		{"three_spheres", "Three Spheres"},
		{"my-custom-scene", "My Custom Scene"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := titleCase(tc.input)
			if result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

// writeSceneFile writes content to dir/name and returns its path
func writeSceneFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

const minimalSceneBody = `"materials": {"grey": {"type": "lambertian", "albedo": [0.5, 0.5, 0.5]}},
  "spheres": [{"center": [0, 0, -1], "radius": 0.5, "material": "grey"}]`

func TestParseJSONMetadata(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected SceneInfo
	}{
		{
			name:    "complete_metadata.json",
			content: `{"name": "Glass Bubbles", "description": "Nested glass shells", "group": "Glass", ` + minimalSceneBody + `}`,
			expected: SceneInfo{
				ID:          "json:complete_metadata",
				Name:        "Glass Bubbles",
				DisplayName: "Glass Bubbles",
				Description: "Nested glass shells",
				Group:       "Glass",
				Type:        TypeJSON,
			},
		},
		{
			name:    "no_metadata.json",
			content: `{` + minimalSceneBody + `}`,
			expected: SceneInfo{
				ID:          "json:no_metadata",
				Name:        "No Metadata", // From filename
				DisplayName: "No Metadata",
				Group:       "Scene Files", // Default group
				Type:        TypeJSON,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeSceneFile(t, t.TempDir(), tc.name, tc.content)

			result, err := ParseJSONMetadata(path)
			if err != nil {
				t.Fatalf("ParseJSONMetadata() error: %v", err)
			}

			tc.expected.FilePath = path
			if result != tc.expected {
				t.Errorf("ParseJSONMetadata() = %+v, want %+v", result, tc.expected)
			}
		})
	}
}

func TestListJSONScenes_MissingDirectory(t *testing.T) {
	scenes, err := ListJSONScenes(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if err != nil {
		t.Errorf("ListJSONScenes() error: %v", err)
	}
	if len(scenes) != 0 {
		t.Errorf("Expected no scenes, got %v", scenes)
	}
}

func TestListJSONScenes_SkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeSceneFile(t, dir, "zeta.json", `{"name": "Zeta", `+minimalSceneBody+`}`)
	writeSceneFile(t, dir, "alpha.json", `{"name": "Alpha", `+minimalSceneBody+`}`)
	writeSceneFile(t, dir, "broken.json", `{"spheres": [`)
	writeSceneFile(t, dir, "notes.txt", `not a scene`)

	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, format)
	}

	scenes, err := ListJSONScenes(dir, warn)
	if err != nil {
		t.Fatalf("ListJSONScenes() error: %v", err)
	}
	if len(scenes) != 2 || scenes[0].Name != "Alpha" || scenes[1].Name != "Zeta" {
		t.Errorf("Expected [Alpha Zeta], got %+v", scenes)
	}
	if len(warnings) != 1 || !strings.HasPrefix(warnings[0], "Warning:") {
		t.Errorf("Expected one warning for broken.json, got %v", warnings)
	}
}

func TestListScenes(t *testing.T) {
	dir := t.TempDir()
	writeSceneFile(t, dir, "bubbles.json", `{"name": "Bubbles", "group": "Glass", `+minimalSceneBody+`}`)
	writeSceneFile(t, dir, "plain.json", `{`+minimalSceneBody+`}`)

	response, err := ListScenes(dir, nil)
	if err != nil {
		t.Fatalf("ListScenes() error: %v", err)
	}

	var groupNames []string
	for _, group := range response.Groups {
		groupNames = append(groupNames, group.Name)
	}
	expectedGroups := []string{"Built-in Scenes", "Glass", "Scene Files"}
	if strings.Join(groupNames, ",") != strings.Join(expectedGroups, ",") {
		t.Fatalf("Groups = %v, want %v", groupNames, expectedGroups)
	}

	builtIn := response.Groups[0]
	expectedScenes := []string{"final", "materials", "single-sphere", "sphere-grid"}
	if len(builtIn.Scenes) != len(expectedScenes) {
		t.Fatalf("Expected %d built-in scenes, got %d", len(expectedScenes), len(builtIn.Scenes))
	}
	for i, id := range expectedScenes {
		info := builtIn.Scenes[i]
		if info.ID != id || info.Type != TypeBuiltIn || info.DisplayName == "" {
			t.Errorf("Built-in scene %d = %+v, want id %q", i, info, id)
		}
	}

	if response.Groups[1].Scenes[0].ID != "json:bubbles" {
		t.Errorf("Expected json:bubbles in Glass group, got %+v", response.Groups[1].Scenes)
	}
}

func TestBuiltInScenesAreRegistered(t *testing.T) {
	for _, info := range BuiltInScenes() {
		if _, ok := builtIns[info.ID]; !ok {
			t.Errorf("Scene %q is listed but has no builder", info.ID)
		}
	}
	if len(BuiltInScenes()) != len(builtIns) {
		t.Errorf("Listed %d built-in scenes, registered %d", len(BuiltInScenes()), len(builtIns))
	}
}
