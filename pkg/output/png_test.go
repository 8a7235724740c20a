package output

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

func writeGradient(t *testing.T, enc Encoder, width, height int) {
	t.Helper()
	if err := enc.Begin(width, height); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for y := 0; y < height; y++ {
		row := make([]core.Vec3, width)
		for x := range row {
			c := float64(x) / float64(width)
			row[x] = core.NewVec3(c, c, c)
		}
		if err := enc.WriteRow(y, row); err != nil {
			t.Fatalf("WriteRow(%d) failed: %v", y, err)
		}
	}
	if err := enc.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
}

func TestPNGEncoder_RoundTripsPixels(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPNGEncoder(&buf)
	writeGradient(t, enc, 8, 4)

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 8, 4) {
		t.Fatalf("Unexpected bounds %v", img.Bounds())
	}

	for x := 0; x < 8; x++ {
		c := float64(x) / 8
		expected, _, _ := ToRGB8(core.NewVec3(c, c, c))
		r, _, _, a := img.At(x, 2).RGBA()
		if uint8(r>>8) != expected || a != 0xffff {
			t.Errorf("Pixel %d: got r=%d a=%d, expected r=%d opaque", x, r>>8, a, expected)
		}
	}
}

func TestPNGEncoder_Thumbnail(t *testing.T) {
	var buf bytes.Buffer
	enc := NewPNGEncoder(&buf)
	enc.ThumbnailWidth = 20
	writeGradient(t, enc, 40, 10)

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 5 {
		t.Errorf("Expected 20x5 thumbnail, got %v", img.Bounds())
	}
	if enc.Image().Bounds().Dx() != 40 {
		t.Errorf("Full-size image should be kept, got %v", enc.Image().Bounds())
	}
}

func TestThumbnail_KeepsSmallImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if Thumbnail(img, 64) != image.Image(img) {
		t.Error("Expected image narrower than thumbnail width to be returned unchanged")
	}
	if Thumbnail(img, 0) != image.Image(img) {
		t.Error("Expected zero width to disable thumbnailing")
	}
}

func TestPNGEncoder_Errors(t *testing.T) {
	enc := NewPNGEncoder(&failingWriter{limit: 0})
	if err := enc.WriteRow(0, nil); !errors.Is(err, ErrOutput) {
		t.Errorf("Expected ErrOutput for row before Begin, got %v", err)
	}

	if err := enc.Begin(2, 2); err != nil {
		t.Fatal(err)
	}
	if err := enc.WriteRow(2, make([]core.Vec3, 2)); !errors.Is(err, ErrOutput) {
		t.Errorf("Expected ErrOutput for row outside image, got %v", err)
	}
	if err := enc.End(); !errors.Is(err, ErrOutput) || !errors.Is(err, errDiskFull) {
		t.Errorf("Expected wrapped write failure, got %v", err)
	}
}
