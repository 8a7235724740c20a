package scene

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// NewMaterialsScene creates a showcase of every material: diffuse, polished and
// brushed metal, solid glass and a hollow glass bubble around a diffuse core
func NewMaterialsScene(seed int64, cameraOverrides ...renderer.CameraConfig) *Scene {
	config := DefaultCameraConfig()
	// Position camera higher and farther back
	config.LookFrom = core.NewVec3(0, 0.75, 2)
	// Look at the sphere center
	config.LookAt = core.NewVec3(0, 0.5, -1)
	config.VFov = 40.0
	config.SamplesPerPixel = 100
	config.MaxDepth = 50
	config.DefocusAngle = 1.0
	// Distance to the center sphere
	config.FocusDistance = 3.01
	config = applyCameraOverrides(config, cameraOverrides...)

	s := &Scene{
		Name:         "materials",
		World:        geometry.NewHittableList(),
		CameraConfig: config,
	}

	// Create materials
	lambertianGreen := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0).Multiply(0.6))
	lambertianBlue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	lambertianRed := material.NewLambertian(core.NewVec3(0.65, 0.25, 0.2))
	metalSilver := material.NewMetal(core.NewVec3(0.8, 0.8, 0.8), 0.0)
	metalGold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)
	materialGlass := material.NewDielectric(1.5)

	// Large sphere stands in for an infinite ground plane
	ground := geometry.NewSphere(core.NewVec3(0, -1000, -1), 1000, lambertianGreen)

	sphereCenter := geometry.NewSphere(core.NewVec3(0, 0.5, -1), 0.5, lambertianRed)
	sphereLeft := geometry.NewSphere(core.NewVec3(-1, 0.5, -1), 0.5, metalSilver)
	sphereRight := geometry.NewSphere(core.NewVec3(1, 0.5, -1), 0.5, metalGold)
	solidGlassSphere := geometry.NewSphere(core.NewVec3(0.5, 0.25, -0.5), 0.25, materialGlass)

	// Hollow glass sphere with blue sphere inside; the negative radius flips the inner normals
	hollowGlassOuter := geometry.NewSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.25, materialGlass)
	hollowGlassInner := geometry.NewSphere(core.NewVec3(-0.5, 0.25, -0.5), -0.24, materialGlass)
	hollowGlassCenter := geometry.NewSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.20, lambertianBlue)

	s.World.Add(ground)
	for _, shape := range []geometry.Shape{sphereCenter, sphereLeft, sphereRight,
		solidGlassSphere, hollowGlassOuter, hollowGlassInner, hollowGlassCenter} {
		s.World.Add(shape)
	}

	return s
}

// NewSingleSphereScene creates one grey diffuse sphere in front of the camera
func NewSingleSphereScene(seed int64, cameraOverrides ...renderer.CameraConfig) *Scene {
	config := DefaultCameraConfig()
	config.VFov = 90.0
	config.FocusDistance = 1.0
	config = applyCameraOverrides(config, cameraOverrides...)

	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))),
	)

	return &Scene{
		Name:         "single-sphere",
		World:        world,
		CameraConfig: config,
	}
}
