package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// ErrUnknownScene is returned when a scene id matches no built-in or file scene
var ErrUnknownScene = errors.New("unknown scene")

// Scene contains all the elements needed for rendering
type Scene struct {
	Name         string
	World        *geometry.HittableList // Objects in the scene
	CameraConfig renderer.CameraConfig
}

// NewCamera builds the camera described by the scene's configuration
func (s *Scene) NewCamera() (*renderer.Camera, error) {
	return renderer.NewCamera(s.CameraConfig)
}

// SphereCount returns the number of spheres in the world
func (s *Scene) SphereCount() int {
	return s.World.Len()
}

// DefaultCameraConfig returns the camera used when a scene does not override a setting
func DefaultCameraConfig() renderer.CameraConfig {
	return renderer.CameraConfig{
		Width:           400,
		AspectRatio:     16.0 / 9.0,
		VFov:            20.0,
		LookFrom:        core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		Up:              core.NewVec3(0, 1, 0),
		SamplesPerPixel: 10,
		MaxDepth:        10,
		DefocusAngle:    0,
		FocusDistance:   10,
	}
}

// applyCameraOverrides merges caller overrides onto a scene's camera.
// Zero fields in an override keep the scene's setting.
func applyCameraOverrides(config renderer.CameraConfig, cameraOverrides ...renderer.CameraConfig) renderer.CameraConfig {
	for _, override := range cameraOverrides {
		config = renderer.MergeCameraConfig(config, override)
	}
	return config
}

// Builder constructs a built-in scene. seed drives any randomized layout.
type Builder func(seed int64, cameraOverrides ...renderer.CameraConfig) *Scene

// builtIns maps scene ids to their builders
var builtIns = map[string]Builder{
	"final":         NewFinalScene,
	"materials":     NewMaterialsScene,
	"single-sphere": NewSingleSphereScene,
	"sphere-grid":   NewSphereGridScene,
}

// Create builds the scene with the given id. Built-in ids are looked up first;
// "json:<name>" loads <scenesDir>/<name>.json.
func Create(id, scenesDir string, seed int64, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	if builder, ok := builtIns[id]; ok {
		return builder(seed, cameraOverrides...), nil
	}

	if name, ok := strings.CutPrefix(id, jsonPrefix); ok {
		if name == "" || name != filepath.Base(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
		}
		return NewJSONScene(filepath.Join(scenesDir, name+".json"), cameraOverrides...)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
}
