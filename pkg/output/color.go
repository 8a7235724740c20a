package output

import (
	"image/color"
	"math"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// channelIntensity is the range a gamma-encoded channel is clamped into before quantizing
var channelIntensity = core.NewInterval(0.000, 0.999)

// LinearToGamma applies gamma 2 encoding to a single linear channel.
// Non-positive values encode to 0.
func LinearToGamma(linear float64) float64 {
	if linear > 0 {
		return math.Sqrt(linear)
	}
	return 0
}

// ToRGB8 converts a linear color to 8-bit gamma-encoded channels
func ToRGB8(c core.Vec3) (r, g, b uint8) {
	return quantize(c.X), quantize(c.Y), quantize(c.Z)
}

// ToRGBA converts a linear color to an opaque RGBA pixel
func ToRGBA(c core.Vec3) color.RGBA {
	r, g, b := ToRGB8(c)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func quantize(linear float64) uint8 {
	return uint8(255.999 * channelIntensity.Clamp(LinearToGamma(linear)))
}
