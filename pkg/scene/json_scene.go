package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/loaders"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// jsonPrefix marks scene ids that refer to JSON files
const jsonPrefix = "json:"

// NewJSONScene creates a scene from a JSON scene file
func NewJSONScene(path string, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	sceneFile, err := loaders.LoadSceneJSON(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrUnknownScene, err)
		}
		return nil, fmt.Errorf("failed to load scene file: %w", err)
	}

	// Convert all materials first so spheres share them by name
	materials := make(map[string]material.Material, len(sceneFile.Materials))
	for name, spec := range sceneFile.Materials {
		materials[name] = convertMaterial(spec)
	}

	world := geometry.NewHittableList()
	for _, spec := range sceneFile.Spheres {
		world.Add(geometry.NewSphere(spec.Center.Vec3(), spec.Radius, materials[spec.Material]))
	}

	name := sceneFile.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &Scene{
		Name:         name,
		World:        world,
		CameraConfig: convertCamera(sceneFile.Camera, cameraOverrides...),
	}, nil
}

// convertMaterial builds a material from a validated spec
func convertMaterial(spec loaders.MaterialSpec) material.Material {
	switch spec.Type {
	case loaders.MaterialMetal:
		return material.NewMetal(spec.Albedo.Vec3(), spec.Fuzz)
	case loaders.MaterialDielectric:
		return material.NewDielectric(spec.IOR)
	default:
		return material.NewLambertian(spec.Albedo.Vec3())
	}
}

// convertCamera applies the file's camera block to the defaults, then the caller overrides.
// Settings present in the file replace the defaults even when they are zero.
func convertCamera(spec loaders.CameraSpec, cameraOverrides ...renderer.CameraConfig) renderer.CameraConfig {
	config := renderer.MergeCameraConfig(DefaultCameraConfig(), renderer.CameraConfig{
		Width:           spec.Width,
		AspectRatio:     spec.AspectRatio,
		VFov:            spec.VFov,
		SamplesPerPixel: spec.SamplesPerPixel,
		FocusDistance:   spec.FocusDistance,
	})
	if spec.LookFrom != nil {
		config.LookFrom = spec.LookFrom.Vec3()
	}
	if spec.LookAt != nil {
		config.LookAt = spec.LookAt.Vec3()
	}
	if spec.Up != nil {
		config.Up = spec.Up.Vec3()
	}
	if spec.MaxDepth != nil {
		config.MaxDepth = *spec.MaxDepth
	}
	if spec.DefocusAngle != nil {
		config.DefocusAngle = *spec.DefocusAngle
	}

	return applyCameraOverrides(config, cameraOverrides...)
}
