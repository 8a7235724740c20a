package output

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/nfnt/resize"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// PNGEncoder collects rows into an RGBA image and writes it as PNG on End
type PNGEncoder struct {
	w   io.Writer
	img *image.RGBA

	// ThumbnailWidth downscales the written image to this width when non-zero
	ThumbnailWidth uint
}

// NewPNGEncoder creates an encoder writing to w. A nil writer only
// assembles the image, which is then available from Image.
func NewPNGEncoder(w io.Writer) *PNGEncoder {
	return &PNGEncoder{w: w}
}

// Begin allocates the image buffer
func (e *PNGEncoder) Begin(width, height int) error {
	e.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// WriteRow stores the gamma-encoded colors of row y
func (e *PNGEncoder) WriteRow(y int, pixels []core.Vec3) error {
	if e.img == nil {
		return wrapErr("write png row", fmt.Errorf("row %d written before Begin", y))
	}
	bounds := e.img.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y || len(pixels) != bounds.Dx() {
		return wrapErr("write png row", fmt.Errorf("row %d with %d pixels outside %v", y, len(pixels), bounds))
	}
	for x, pixel := range pixels {
		e.img.SetRGBA(x, y, ToRGBA(pixel))
	}
	return nil
}

// End encodes the assembled image
func (e *PNGEncoder) End() error {
	if e.w == nil {
		return nil
	}
	var out image.Image = e.img
	if e.ThumbnailWidth > 0 {
		out = Thumbnail(e.img, e.ThumbnailWidth)
	}
	return wrapErr("encode png", png.Encode(e.w, out))
}

// Image returns the full-size image assembled so far
func (e *PNGEncoder) Image() *image.RGBA {
	return e.img
}

// Thumbnail scales img to the given width, preserving its aspect ratio.
// Images already narrower than width are returned unchanged.
func Thumbnail(img image.Image, width uint) image.Image {
	if width == 0 || uint(img.Bounds().Dx()) <= width {
		return img
	}
	return resize.Resize(width, 0, img, resize.Bilinear)
}
