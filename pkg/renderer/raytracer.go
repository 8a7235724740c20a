package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/integrator"
	"github.com/df07/go-sphere-raytracer/pkg/output"
)

// RenderConfig contains per-render settings that do not change the camera
type RenderConfig struct {
	Seed       int64       // Row j samples from a generator seeded with Seed + j
	NumWorkers int         // Parallel row workers (0 = use CPU count)
	Logger     core.Logger // Progress output (nil = discard)
}

// Raytracer renders a world through a camera and streams rows to an encoder
type Raytracer struct {
	world      geometry.Shape
	camera     *Camera
	integrator integrator.Integrator
	config     RenderConfig
	logger     core.Logger
	stats      RenderStats
}

// NewRaytracer creates a raytracer using path tracing with the camera's depth budget
func NewRaytracer(world geometry.Shape, camera *Camera, config RenderConfig) *Raytracer {
	logger := config.Logger
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Raytracer{
		world:      world,
		camera:     camera,
		integrator: integrator.NewPathTracingIntegrator(camera.MaxDepth()),
		config:     config,
		logger:     logger,
	}
}

// SetIntegrator replaces the light transport algorithm
func (rt *Raytracer) SetIntegrator(integratorInst integrator.Integrator) {
	rt.integrator = integratorInst
}

// Stats returns the statistics of the last render
func (rt *Raytracer) Stats() RenderStats {
	return rt.stats
}

// Render traces every pixel and hands finished rows to enc, top row first.
// Output is identical for any worker count. Encoder failures are returned
// wrapped with output.ErrOutput; cancellation returns ctx.Err().
func (rt *Raytracer) Render(ctx context.Context, enc output.Encoder) error {
	start := time.Now()
	width, height := rt.camera.Width(), rt.camera.Height()
	rt.stats = RenderStats{SamplesPerPixel: rt.camera.SamplesPerPixel()}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := enc.Begin(width, height); err != nil {
		return outputErr(err)
	}

	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := NewWorkerPool(NewScanlineRenderer(rt.world, rt.camera, rt.integrator), height, rt.config.NumWorkers)
	rt.stats.Workers = pool.GetNumWorkers()
	rt.logger.Printf("Rendering %dx%d, %d samples per pixel, max depth %d (using %d workers)...\n",
		width, height, rt.camera.SamplesPerPixel(), rt.camera.MaxDepth(), pool.GetNumWorkers())

	pool.Start(renderCtx)
	for j := 0; j < height; j++ {
		pool.SubmitTask(RowTask{Row: j, Seed: rt.config.Seed + int64(j)})
	}
	go pool.Stop()

	// Rows may finish out of order; hold them until their turn
	pending := make(map[int]RowResult)
	next := 0
	for result := range pool.Results() {
		if err := ctx.Err(); err != nil {
			return err
		}
		pending[result.Row] = result

		for {
			row, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)

			if err := enc.WriteRow(next, row.Pixels); err != nil {
				return outputErr(err)
			}
			rt.stats.Add(row.Stats)
			next++
			rt.logger.Printf("Scanlines remaining: %d\n", height-next)
		}
	}

	if next < height {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("render stopped after %d of %d rows", next, height)
	}

	if err := enc.End(); err != nil {
		return outputErr(err)
	}

	rt.stats.Elapsed = time.Since(start)
	rt.logger.Printf("Render complete: %d pixels, %d samples in %v\n",
		rt.stats.TotalPixels, rt.stats.TotalSamples, rt.stats.Elapsed.Round(time.Millisecond))
	return nil
}

// RenderImage renders into an in-memory RGBA image
func (rt *Raytracer) RenderImage(ctx context.Context) (*image.RGBA, error) {
	enc := output.NewPNGEncoder(nil)
	if err := rt.Render(ctx, enc); err != nil {
		return nil, err
	}
	return enc.Image(), nil
}

// RenderPPM renders world through camera as a plain-text PPM written to w
func RenderPPM(ctx context.Context, world geometry.Shape, camera *Camera, w io.Writer, config RenderConfig) error {
	return NewRaytracer(world, camera, config).Render(ctx, output.NewPPMEncoder(w))
}

// outputErr makes sure encoder failures carry output.ErrOutput
func outputErr(err error) error {
	if errors.Is(err, output.ErrOutput) {
		return err
	}
	return fmt.Errorf("%w: %w", output.ErrOutput, err)
}
