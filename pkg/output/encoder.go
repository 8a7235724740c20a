package output

import (
	"errors"
	"fmt"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// ErrOutput marks every failure of an output sink
var ErrOutput = errors.New("output error")

// Encoder receives a rendered image one row at a time, top row first
type Encoder interface {
	// Begin is called once with the final image dimensions before any row
	Begin(width, height int) error
	// WriteRow receives the averaged linear colors of row y, left to right
	WriteRow(y int, pixels []core.Vec3) error
	// End is called once after the last row
	End() error
}

// wrapErr tags err as an output failure
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrOutput, op, err)
}
