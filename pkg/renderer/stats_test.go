package renderer

import (
	"testing"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

func TestPixelStats_Average(t *testing.T) {
	var ps PixelStats
	if !ps.GetColor().IsZero() {
		t.Errorf("Expected black for pixel without samples, got %v", ps.GetColor())
	}

	ps.AddSample(core.NewVec3(1, 0, 0))
	ps.AddSample(core.NewVec3(0, 1, 0))
	ps.AddSample(core.NewVec3(0.5, 0.5, 3))

	expected := core.NewVec3(0.5, 0.5, 1)
	if !vecAlmostEqual(ps.GetColor(), expected, 1e-12) {
		t.Errorf("Expected average %v, got %v", expected, ps.GetColor())
	}
	if ps.SampleCount != 3 {
		t.Errorf("Expected 3 samples, got %d", ps.SampleCount)
	}
}

func TestRenderStats_AddAndThroughput(t *testing.T) {
	total := RenderStats{SamplesPerPixel: 4}
	total.Add(RenderStats{TotalPixels: 10, TotalSamples: 40, RowsCompleted: 1})
	total.Add(RenderStats{TotalPixels: 10, TotalSamples: 40, RowsCompleted: 1})

	if total.TotalPixels != 20 || total.TotalSamples != 80 || total.RowsCompleted != 2 {
		t.Errorf("Unexpected totals %+v", total)
	}
	if total.SamplesPerSecond() != 0 {
		t.Errorf("Expected zero throughput before timing, got %f", total.SamplesPerSecond())
	}

	total.Elapsed = 2 * time.Second
	if total.SamplesPerSecond() != 40 {
		t.Errorf("Expected 40 samples/s, got %f", total.SamplesPerSecond())
	}
}
