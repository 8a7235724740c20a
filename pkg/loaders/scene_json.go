package loaders

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// Material types understood by the scene format
const (
	MaterialLambertian = "lambertian"
	MaterialMetal      = "metal"
	MaterialDielectric = "dielectric"
)

// SceneFile is the decoded form of a JSON scene description
type SceneFile struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Group       string                  `json:"group"`
	Camera      CameraSpec              `json:"camera"`
	Materials   map[string]MaterialSpec `json:"materials"`
	Spheres     []SphereSpec            `json:"spheres"`
}

// CameraSpec holds optional camera settings; absent fields keep the defaults
type CameraSpec struct {
	Width           int      `json:"width,omitempty"`
	AspectRatio     float64  `json:"aspectRatio,omitempty"`
	VFov            float64  `json:"vfov,omitempty"`
	LookFrom        *Vector  `json:"lookFrom,omitempty"`
	LookAt          *Vector  `json:"lookAt,omitempty"`
	Up              *Vector  `json:"up,omitempty"`
	SamplesPerPixel int      `json:"samplesPerPixel,omitempty"`
	MaxDepth        *int     `json:"maxDepth,omitempty"`
	DefocusAngle    *float64 `json:"defocusAngle,omitempty"`
	FocusDistance   float64  `json:"focusDistance,omitempty"`
}

// MaterialSpec describes a named material shared by any number of spheres
type MaterialSpec struct {
	Type   string  `json:"type"`
	Albedo Color   `json:"albedo"`
	Fuzz   float64 `json:"fuzz"`
	IOR    float64 `json:"ior"`
}

// SphereSpec places a sphere with a material from the palette.
// A negative radius flips the normals, which makes hollow glass shells.
type SphereSpec struct {
	Center   Vector  `json:"center"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

// Vector is a JSON [x, y, z] triple
type Vector core.Vec3

// UnmarshalJSON decodes a three element array
func (v *Vector) UnmarshalJSON(data []byte) error {
	var xyz []float64
	if err := json.Unmarshal(data, &xyz); err != nil {
		return fmt.Errorf("vector must be [x, y, z]: %w", err)
	}
	if len(xyz) != 3 {
		return fmt.Errorf("vector must have 3 components, got %d", len(xyz))
	}
	*v = Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	return nil
}

// Vec3 returns the vector as a core.Vec3
func (v Vector) Vec3() core.Vec3 {
	return core.Vec3(v)
}

// Color is a linear RGB color given either as [r, g, b] or as a CSS color name.
// Named colors are sRGB and are decoded with gamma 2 so they render as named.
type Color core.Vec3

// UnmarshalJSON decodes an [r, g, b] array or a color name such as "steelblue"
func (c *Color) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		rgba, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return fmt.Errorf("unknown color name %q", name)
		}
		*c = Color{X: srgbChannel(rgba.R), Y: srgbChannel(rgba.G), Z: srgbChannel(rgba.B)}
		return nil
	}

	var v Vector
	if err := v.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("color must be [r, g, b] or a color name: %w", err)
	}
	*c = Color(v)
	return nil
}

// Vec3 returns the color as a core.Vec3
func (c Color) Vec3() core.Vec3 {
	return core.Vec3(c)
}

func srgbChannel(v uint8) float64 {
	f := float64(v) / 255.0
	return f * f
}

// LoadSceneJSON reads and validates a scene file
func LoadSceneJSON(filename string) (*SceneFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	sceneFile, err := ParseSceneJSON(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return sceneFile, nil
}

// ParseSceneJSON decodes and validates a scene description from r
func ParseSceneJSON(r io.Reader) (*SceneFile, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var sceneFile SceneFile
	if err := decoder.Decode(&sceneFile); err != nil {
		return nil, fmt.Errorf("invalid scene json: %w", err)
	}
	if err := sceneFile.Validate(); err != nil {
		return nil, err
	}
	return &sceneFile, nil
}

// Validate checks material types and sphere references
func (s *SceneFile) Validate() error {
	for name, mat := range s.Materials {
		switch mat.Type {
		case MaterialLambertian, MaterialMetal:
		case MaterialDielectric:
			if mat.IOR <= 0 {
				return fmt.Errorf("material %q: dielectric needs a positive ior, got %v", name, mat.IOR)
			}
		default:
			return fmt.Errorf("material %q: unknown type %q", name, mat.Type)
		}
	}

	if len(s.Spheres) == 0 {
		return fmt.Errorf("scene has no spheres")
	}
	for i, sphere := range s.Spheres {
		if sphere.Radius == 0 {
			return fmt.Errorf("sphere %d: radius must not be zero", i)
		}
		if _, ok := s.Materials[sphere.Material]; !ok {
			return fmt.Errorf("sphere %d: unknown material %q", i, sphere.Material)
		}
	}
	return nil
}
