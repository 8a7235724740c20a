package integrator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/material"
)

// MockMaterial implements material.Material for testing
type MockMaterial struct {
	scatterFn func(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool)
	calls     int
}

func (m *MockMaterial) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	m.calls++
	return m.scatterFn(rayIn, hit, sampler)
}

// MockShape implements geometry.Shape for testing
type MockShape struct {
	hitFn func(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool)
}

func (m MockShape) Hit(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
	return m.hitFn(ray, rayT)
}

// alwaysHit returns a shape that is hit by every ray, at t=1 with the given material
func alwaysHit(mat material.Material) MockShape {
	return MockShape{
		hitFn: func(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
			return &material.HitRecord{
				Point:     ray.At(1),
				Normal:    core.NewVec3(0, 1, 0),
				T:         1,
				FrontFace: true,
				Material:  mat,
			}, true
		},
	}
}

func vecAlmostEqual(a, b core.Vec3) bool {
	return a.Subtract(b).Length() < 1e-9
}

func TestPathTracingDepthTermination(t *testing.T) {
	lambertian := material.NewLambertian(core.NewVec3(0.7, 0.3, 0.3))
	world := geometry.NewHittableList(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, lambertian))
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	if color := NewPathTracingIntegrator(0).RayColor(ray, world, sampler); !color.IsZero() {
		t.Errorf("Expected black color for depth 0, got %v", color)
	}

	// A single segment can hit the sphere but gathers nothing after the bounce
	if color := NewPathTracingIntegrator(1).RayColor(ray, world, sampler); !color.IsZero() {
		t.Errorf("Expected black color for depth 1 hit, got %v", color)
	}

	if color := NewPathTracingIntegrator(10).RayColor(ray, world, sampler); color.IsZero() {
		t.Error("Expected some light with a larger bounce budget")
	}
}

func TestPathTracingDepthIsHardCounter(t *testing.T) {
	// Mirror that reflects every ray back into itself forever
	mirror := &MockMaterial{
		scatterFn: func(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
			return material.ScatterResult{
				Scattered:   core.NewRay(hit.Point, rayIn.Direction),
				Attenuation: core.NewVec3(1, 1, 1),
			}, true
		},
	}
	world := alwaysHit(mirror)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(1)))

	for _, depth := range []int{1, 5, 50} {
		mirror.calls = 0
		color := NewPathTracingIntegrator(depth).RayColor(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), world, sampler)
		if !color.IsZero() {
			t.Errorf("Depth %d: expected black after exhausting bounces, got %v", depth, color)
		}
		if mirror.calls != depth {
			t.Errorf("Depth %d: expected %d scatter calls, got %d", depth, depth, mirror.calls)
		}
	}
}

func TestPathTracingAbsorptionIsBlack(t *testing.T) {
	absorber := &MockMaterial{
		scatterFn: func(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
			return material.ScatterResult{Attenuation: core.NewVec3(1, 1, 1)}, false
		},
	}
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(1)))

	color := NewPathTracingIntegrator(10).RayColor(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), alwaysHit(absorber), sampler)
	if !color.IsZero() {
		t.Errorf("Expected black for absorbed ray, got %v", color)
	}
}

func TestPathTracingAttenuationIsComponentwise(t *testing.T) {
	// Surface hit once, then the scattered ray escapes straight up
	tint := core.NewVec3(0.5, 0.25, 1.0)
	hits := 0
	mat := &MockMaterial{
		scatterFn: func(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
			return material.ScatterResult{
				Scattered:   core.NewRay(hit.Point, core.NewVec3(0, 1, 0)),
				Attenuation: tint,
			}, true
		},
	}
	shape := MockShape{
		hitFn: func(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
			if hits > 0 {
				return nil, false
			}
			hits++
			return &material.HitRecord{Point: core.Vec3{}, Normal: core.NewVec3(0, 1, 0), T: 1, FrontFace: true, Material: mat}, true
		},
	}
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(1)))

	color := NewPathTracingIntegrator(2).RayColor(core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0)), shape, sampler)
	expected := tint.MultiplyVec(SkyZenithColor)
	if !vecAlmostEqual(color, expected) {
		t.Errorf("Expected %v, got %v", expected, color)
	}
}

func TestPathTracingQueriesFromShadowAcneEpsilon(t *testing.T) {
	var seen core.Interval
	shape := MockShape{
		hitFn: func(ray core.Ray, rayT core.Interval) (*material.HitRecord, bool) {
			seen = rayT
			return nil, false
		},
	}
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(1)))

	NewPathTracingIntegrator(1).RayColor(core.NewRay(core.Vec3{}, core.NewVec3(1, 0, 0)), shape, sampler)
	if seen.Min != ShadowAcneEpsilon || !math.IsInf(seen.Max, 1) {
		t.Errorf("Expected interval (%f, +inf), got %+v", ShadowAcneEpsilon, seen)
	}
}

func TestBackgroundGradient(t *testing.T) {
	tests := []struct {
		name      string
		direction core.Vec3
		expected  core.Vec3
	}{
		{"straight up is zenith", core.NewVec3(0, 1, 0), SkyZenithColor},
		{"straight down is horizon white", core.NewVec3(0, -3, 0), SkyHorizonColor},
		{"level is halfway", core.NewVec3(0, 0, -1), core.NewVec3(0.75, 0.85, 1.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BackgroundGradient(core.NewRay(core.Vec3{}, tt.direction))
			if !vecAlmostEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
