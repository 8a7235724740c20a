package renderer

import (
	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/integrator"
)

// ScanlineRenderer renders whole image rows using an integrator
type ScanlineRenderer struct {
	world      geometry.Shape
	camera     *Camera
	integrator integrator.Integrator
}

// NewScanlineRenderer creates a new scanline renderer with the given world, camera and integrator
func NewScanlineRenderer(world geometry.Shape, camera *Camera, integratorInst integrator.Integrator) *ScanlineRenderer {
	return &ScanlineRenderer{
		world:      world,
		camera:     camera,
		integrator: integratorInst,
	}
}

// RenderRow returns the averaged linear color of every pixel in row j
func (sr *ScanlineRenderer) RenderRow(j int, sampler core.Sampler) ([]core.Vec3, RenderStats) {
	width := sr.camera.Width()
	samples := sr.camera.SamplesPerPixel()
	pixels := make([]core.Vec3, width)

	for i := 0; i < width; i++ {
		var ps PixelStats
		for s := 0; s < samples; s++ {
			ray := sr.camera.GetRay(i, j, sampler)
			ps.AddSample(sr.integrator.RayColor(ray, sr.world, sampler))
		}
		pixels[i] = ps.GetColor()
	}

	return pixels, RenderStats{
		TotalPixels:     width,
		TotalSamples:    width * samples,
		SamplesPerPixel: samples,
	}
}
