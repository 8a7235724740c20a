package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// PPMEncoder writes a plain-text (P3) portable pixmap
type PPMEncoder struct {
	w      *bufio.Writer
	width  int
	height int
	rows   int
	line   []byte
}

// NewPPMEncoder creates an encoder writing to w
func NewPPMEncoder(w io.Writer) *PPMEncoder {
	return &PPMEncoder{w: bufio.NewWriter(w)}
}

// Begin writes the PPM header
func (e *PPMEncoder) Begin(width, height int) error {
	e.width, e.height = width, height
	_, err := fmt.Fprintf(e.w, "P3\n%d %d\n255\n", width, height)
	return wrapErr("write ppm header", err)
}

// WriteRow writes one "r g b" line per pixel
func (e *PPMEncoder) WriteRow(y int, pixels []core.Vec3) error {
	if y != e.rows {
		return wrapErr("write ppm row", fmt.Errorf("row %d out of order, expected %d", y, e.rows))
	}
	if len(pixels) != e.width {
		return wrapErr("write ppm row", fmt.Errorf("row %d has %d pixels, expected %d", y, len(pixels), e.width))
	}

	for _, pixel := range pixels {
		r, g, b := ToRGB8(pixel)
		e.line = e.line[:0]
		e.line = strconv.AppendUint(e.line, uint64(r), 10)
		e.line = append(e.line, ' ')
		e.line = strconv.AppendUint(e.line, uint64(g), 10)
		e.line = append(e.line, ' ')
		e.line = strconv.AppendUint(e.line, uint64(b), 10)
		e.line = append(e.line, '\n')
		if _, err := e.w.Write(e.line); err != nil {
			return wrapErr("write ppm row", err)
		}
	}
	e.rows++
	return nil
}

// End flushes buffered output
func (e *PPMEncoder) End() error {
	if e.rows != e.height {
		return wrapErr("finish ppm", fmt.Errorf("wrote %d of %d rows", e.rows, e.height))
	}
	return wrapErr("flush ppm", e.w.Flush())
}
