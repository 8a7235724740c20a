package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/output"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// imagePublisher uploads a finished image
type imagePublisher interface {
	Publish(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// app holds the process dependencies of a render
type app struct {
	stdout       io.Writer
	logger       core.Logger
	now          func() time.Time
	newPublisher func(cfg output.S3Config) (imagePublisher, error)
}

func main() {
	if err := loadEnv(getEnv("RAYTRACER_ROOT_DIR", ".")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cfg, err := parseConfig(os.Args[1:], envConfig(), os.Stderr)
	if errors.Is(err, errHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{
		stdout: os.Stdout,
		logger: renderer.NewDefaultLogger(),
		now:    time.Now,
		newPublisher: func(cfg output.S3Config) (imagePublisher, error) {
			return output.NewS3Publisher(cfg)
		},
	}
	if err := a.run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// closeOutput closes a finished output file. Buffered data lost on close is an output error.
func closeOutput(c io.Closer, filename string) error {
	if err := c.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", output.ErrOutput, filename, err)
	}
	return nil
}

// run renders the configured scene and writes or publishes the image
func (a *app) run(ctx context.Context, cfg Config) error {
	selectedScene, err := createScene(cfg)
	if err != nil {
		return err
	}
	camera, err := selectedScene.NewCamera()
	if err != nil {
		return err
	}
	a.logger.Printf("Using %s scene with %d spheres...\n", selectedScene.Name, selectedScene.SphereCount())

	var published *bytes.Buffer
	var sink io.Writer
	var filename string
	var file *os.File

	switch cfg.Out {
	case "-":
		sink = a.stdout
	case "":
		filename = filepath.Join(createOutputDir(cfg.Scene), fmt.Sprintf("render_%s.%s", a.now().Format("20060102_150405"), cfg.Format))
	default:
		filename = cfg.Out
	}

	if filename != "" {
		if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
		file, err = os.Create(filename)
		if err != nil {
			return fmt.Errorf("error creating file: %w", err)
		}
		sink = file
	}
	if cfg.Publish {
		published = &bytes.Buffer{}
		sink = io.MultiWriter(sink, published)
	}

	raytracer := renderer.NewRaytracer(selectedScene.World, camera, renderer.RenderConfig{
		Seed:       cfg.Seed,
		NumWorkers: cfg.Workers,
		Logger:     a.logger,
	})
	err = raytracer.Render(ctx, newEncoder(cfg, sink))
	if file != nil {
		if closeErr := closeOutput(file, filename); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return err
	}

	stats := raytracer.Stats()
	a.logger.Printf("Render completed in %v (%.0f samples/s)\n", stats.Elapsed.Round(time.Millisecond), stats.SamplesPerSecond())
	if filename != "" {
		a.logger.Printf("Render saved as %s\n", filename)
	}

	if published != nil {
		publisher, err := a.newPublisher(cfg.S3)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("%s_%s.%s", sanitizeName(cfg.Scene), a.now().Format("20060102_150405"), cfg.Format)
		key, err := publisher.Publish(ctx, name, published.Bytes(), output.ContentType(cfg.Format))
		if err != nil {
			return err
		}
		a.logger.Printf("Published %s (%d bytes)\n", key, published.Len())
	}

	return nil
}

// createScene builds the configured scene and applies the command line overrides
func createScene(cfg Config) (*scene.Scene, error) {
	s, err := scene.Create(cfg.Scene, cfg.ScenesDir, cfg.Seed)
	if err != nil {
		return nil, err
	}
	if cfg.Width > 0 {
		s.CameraConfig.Width = cfg.Width
	}
	if cfg.SamplesPerPixel > 0 {
		s.CameraConfig.SamplesPerPixel = cfg.SamplesPerPixel
	}
	if cfg.MaxDepth >= 0 {
		s.CameraConfig.MaxDepth = cfg.MaxDepth
	}
	return s, nil
}

// newEncoder returns the encoder for the configured format
func newEncoder(cfg Config, w io.Writer) output.Encoder {
	if cfg.Format == "png" {
		enc := output.NewPNGEncoder(w)
		enc.ThumbnailWidth = cfg.ThumbnailWidth
		return enc
	}
	return output.NewPPMEncoder(w)
}

// createOutputDir returns the output directory for a scene id
func createOutputDir(sceneID string) string {
	return filepath.Join("output", sanitizeName(sceneID))
}

// sanitizeName turns a scene id into a file name component
func sanitizeName(sceneID string) string {
	name := strings.TrimPrefix(sceneID, "json:")
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "scene"
	}
	return name
}
