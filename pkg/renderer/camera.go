package renderer

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// ErrInvalidCamera is returned for camera parameters outside their valid ranges
var ErrInvalidCamera = errors.New("invalid camera configuration")

// CameraConfig contains all parameters needed to set up a camera
type CameraConfig struct {
	Width           int       // Image width in pixels
	AspectRatio     float64   // Width / height, used only to derive the image height
	VFov            float64   // Vertical field of view in degrees
	LookFrom        core.Vec3 // Camera position
	LookAt          core.Vec3 // Point the camera is looking at
	Up              core.Vec3 // Up direction, must not be parallel to the view direction
	SamplesPerPixel int       // Rays averaged per pixel
	MaxDepth        int       // Ray segments traced per camera ray
	DefocusAngle    float64   // Lens cone angle in degrees, 0 disables depth of field
	FocusDistance   float64   // Distance to the plane of perfect focus
}

// ImageHeight returns the image height implied by Width and AspectRatio
func (c CameraConfig) ImageHeight() int {
	return max(1, int(math.Round(float64(c.Width)/c.AspectRatio)))
}

// Validate checks every parameter against its valid range
func (c CameraConfig) Validate() error {
	switch {
	case c.Width <= 0:
		return fmt.Errorf("%w: width must be positive, got %d", ErrInvalidCamera, c.Width)
	case !(c.AspectRatio > 0) || math.IsInf(c.AspectRatio, 0):
		return fmt.Errorf("%w: aspect ratio must be positive, got %v", ErrInvalidCamera, c.AspectRatio)
	case !(c.VFov > 0 && c.VFov < 180):
		return fmt.Errorf("%w: vertical fov must be in (0, 180), got %v", ErrInvalidCamera, c.VFov)
	case c.SamplesPerPixel < 1:
		return fmt.Errorf("%w: samples per pixel must be at least 1, got %d", ErrInvalidCamera, c.SamplesPerPixel)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: max depth must not be negative, got %d", ErrInvalidCamera, c.MaxDepth)
	case !(c.DefocusAngle >= 0 && c.DefocusAngle < 180):
		return fmt.Errorf("%w: defocus angle must be in [0, 180), got %v", ErrInvalidCamera, c.DefocusAngle)
	case !(c.FocusDistance > 0) || math.IsInf(c.FocusDistance, 0):
		return fmt.Errorf("%w: focus distance must be positive, got %v", ErrInvalidCamera, c.FocusDistance)
	case c.LookFrom.Equals(c.LookAt):
		return fmt.Errorf("%w: look-from and look-at are both %v", ErrInvalidCamera, c.LookFrom)
	}

	w := c.LookFrom.Subtract(c.LookAt).Normalize()
	if c.Up.IsZero() || c.Up.Normalize().Cross(w).NearZero() {
		return fmt.Errorf("%w: up vector %v is parallel to the view direction", ErrInvalidCamera, c.Up)
	}
	return nil
}

// Camera generates rays for rendering with configurable positioning and depth of field
type Camera struct {
	config CameraConfig
	width  int
	height int

	center       core.Vec3 // Camera center
	pixel00      core.Vec3 // Location of pixel (0, 0)
	pixelDeltaU  core.Vec3 // Offset to pixel to the right
	pixelDeltaV  core.Vec3 // Offset to pixel below
	u, v, w      core.Vec3 // Camera frame basis vectors
	defocusDiskU core.Vec3 // Defocus disk horizontal radius
	defocusDiskV core.Vec3 // Defocus disk vertical radius
	lensRadius   float64
}

// NewCamera validates config and derives the camera frame
func NewCamera(config CameraConfig) (*Camera, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	width := config.Width
	height := config.ImageHeight()
	center := config.LookFrom

	// Viewport dimensions at the focus plane
	theta := degreesToRadians(config.VFov)
	h := math.Tan(theta / 2)
	viewportHeight := 2.0 * h * config.FocusDistance
	viewportWidth := viewportHeight * float64(width) / float64(height)

	// Orthonormal basis: w points backwards, u right, v up
	w := config.LookFrom.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	// Vectors across the horizontal and down the vertical viewport edges
	viewportU := u.Multiply(viewportWidth)
	viewportV := v.Negate().Multiply(viewportHeight)

	pixelDeltaU := viewportU.Divide(float64(width))
	pixelDeltaV := viewportV.Divide(float64(height))

	viewportUpperLeft := center.
		Subtract(w.Multiply(config.FocusDistance)).
		Subtract(viewportU.Divide(2)).
		Subtract(viewportV.Divide(2))
	pixel00 := viewportUpperLeft.Add(pixelDeltaU.Add(pixelDeltaV).Multiply(0.5))

	lensRadius := config.FocusDistance * math.Tan(degreesToRadians(config.DefocusAngle/2))

	return &Camera{
		config:       config,
		width:        width,
		height:       height,
		center:       center,
		pixel00:      pixel00,
		pixelDeltaU:  pixelDeltaU,
		pixelDeltaV:  pixelDeltaV,
		u:            u,
		v:            v,
		w:            w,
		defocusDiskU: u.Multiply(lensRadius),
		defocusDiskV: v.Multiply(lensRadius),
		lensRadius:   lensRadius,
	}, nil
}

// GetRay returns a jittered sample ray for pixel (i, j), originating on the
// defocus disk when depth of field is enabled
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	offset := sampler.Get2D()
	pixelSample := c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i) + offset.X)).
		Add(c.pixelDeltaV.Multiply(float64(j) + offset.Y))

	origin := c.center
	if c.lensRadius > 0 {
		origin = c.defocusDiskSample(sampler)
	}

	return core.NewRay(origin, pixelSample.Subtract(origin))
}

// defocusDiskSample returns a random point on the camera defocus disk
func (c *Camera) defocusDiskSample(sampler core.Sampler) core.Vec3 {
	p := core.RandomInUnitDisk(sampler)
	return c.center.Add(c.defocusDiskU.Multiply(p.X)).Add(c.defocusDiskV.Multiply(p.Y))
}

// Width returns the image width in pixels
func (c *Camera) Width() int { return c.width }

// Height returns the image height in pixels
func (c *Camera) Height() int { return c.height }

// SamplesPerPixel returns the number of rays averaged per pixel
func (c *Camera) SamplesPerPixel() int { return c.config.SamplesPerPixel }

// MaxDepth returns the bounce budget per camera ray
func (c *Camera) MaxDepth() int { return c.config.MaxDepth }

// Center returns the camera position
func (c *Camera) Center() core.Vec3 { return c.center }

// LensRadius returns the defocus disk radius, 0 for a pinhole camera
func (c *Camera) LensRadius() float64 { return c.lensRadius }

// Forward returns the unit view direction
func (c *Camera) Forward() core.Vec3 { return c.w.Negate() }

// Config returns the parameters the camera was built from
func (c *Camera) Config() CameraConfig { return c.config }

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// MergeCameraConfig returns base with every non-zero field of override applied.
// Zero values in override keep the base setting.
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base

	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if !override.LookFrom.IsZero() {
		result.LookFrom = override.LookFrom
	}
	if !override.LookAt.IsZero() {
		result.LookAt = override.LookAt
	}
	if !override.Up.IsZero() {
		result.Up = override.Up
	}
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.DefocusAngle != 0 {
		result.DefocusAngle = override.DefocusAngle
	}
	if override.FocusDistance != 0 {
		result.FocusDistance = override.FocusDistance
	}

	return result
}
