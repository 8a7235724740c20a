package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/output"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

func testConfig() Config {
	return Config{
		Scene:           "single-sphere",
		ScenesDir:       "scenes",
		Width:           8,
		SamplesPerPixel: 1,
		MaxDepth:        2,
		Seed:            7,
		Workers:         2,
		Format:          "ppm",
		Out:             "-",
	}
}

type fakePublisher struct {
	name        string
	data        []byte
	contentType string
	err         error
}

func (p *fakePublisher) Publish(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	p.name = name
	p.data = append([]byte(nil), data...)
	p.contentType = contentType
	return "renders/" + name, p.err
}

func newTestApp(stdout io.Writer, publisher *fakePublisher) *app {
	return &app{
		stdout: stdout,
		logger: renderer.NewNopLogger(),
		now:    func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) },
		newPublisher: func(cfg output.S3Config) (imagePublisher, error) {
			return publisher, nil
		},
	}
}

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneID     string
		expectError bool
	}{
		{"final scene", "final", false},
		{"materials scene", "materials", false},
		{"single sphere scene", "single-sphere", false},
		{"sphere grid scene", "sphere-grid", false},
		{"json scene", "json:three-spheres", false},
		{"json glass scene", "json:glass-bubbles", false},

		{"unknown scene", "nonexistent", true},
		{"missing json scene", "json:nonexistent", true},
		{"json path escape", "json:../go", true},
		{"empty scene name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Scene: tt.sceneID, ScenesDir: "scenes", MaxDepth: -1}
			s, err := createScene(cfg)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for scene '%s', but got none", tt.sceneID)
				}
				if s != nil {
					t.Errorf("Expected nil scene for invalid scene '%s'", tt.sceneID)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for scene '%s': %v", tt.sceneID, err)
			}
			if s.CameraConfig.Width <= 0 {
				t.Errorf("Scene camera width should be positive, got %d", s.CameraConfig.Width)
			}
			if s.SphereCount() == 0 {
				t.Errorf("Scene '%s' should contain spheres", tt.sceneID)
			}
		})
	}
}

func TestCreateSceneOverrides(t *testing.T) {
	s, err := createScene(Config{Scene: "final", Width: 64, SamplesPerPixel: 3, MaxDepth: 0})
	if err != nil {
		t.Fatalf("createScene: %v", err)
	}
	if s.CameraConfig.Width != 64 {
		t.Errorf("Width = %d, want 64", s.CameraConfig.Width)
	}
	if s.CameraConfig.SamplesPerPixel != 3 {
		t.Errorf("SamplesPerPixel = %d, want 3", s.CameraConfig.SamplesPerPixel)
	}
	if s.CameraConfig.MaxDepth != 0 {
		t.Errorf("MaxDepth = %d, want explicit 0", s.CameraConfig.MaxDepth)
	}

	s, err = createScene(Config{Scene: "final", MaxDepth: -1})
	if err != nil {
		t.Fatalf("createScene: %v", err)
	}
	if s.CameraConfig.Width != 1200 || s.CameraConfig.MaxDepth != 50 {
		t.Errorf("scene defaults changed without overrides: width %d depth %d", s.CameraConfig.Width, s.CameraConfig.MaxDepth)
	}
}

func TestCreateSceneUnknownIsSentinel(t *testing.T) {
	_, err := createScene(Config{Scene: "nonexistent"})
	if !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("expected ErrUnknownScene, got %v", err)
	}
}

func TestCreateOutputDir(t *testing.T) {
	tests := []struct {
		sceneID string
		want    string
	}{
		{"final", filepath.Join("output", "final")},
		{"sphere-grid", filepath.Join("output", "sphere-grid")},
		{"json:three-spheres", filepath.Join("output", "three-spheres")},
		{"json:", filepath.Join("output", "scene")},
	}

	for _, tt := range tests {
		if got := createOutputDir(tt.sceneID); got != tt.want {
			t.Errorf("createOutputDir(%q) = %q, want %q", tt.sceneID, got, tt.want)
		}
	}
}

func TestParseConfig(t *testing.T) {
	defaults := testConfig()

	cfg, err := parseConfig([]string{"-scene", "materials", "-width", "32", "-spp", "4", "-depth", "0", "-format", "png", "-thumbnail", "16"}, defaults, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Scene != "materials" || cfg.Width != 32 || cfg.SamplesPerPixel != 4 || cfg.MaxDepth != 0 {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Format != "png" || cfg.ThumbnailWidth != 16 {
		t.Errorf("format flags not applied: %+v", cfg)
	}
	if cfg.Seed != defaults.Seed || cfg.Workers != defaults.Workers {
		t.Errorf("unset flags should keep defaults: %+v", cfg)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown format", []string{"-format", "jpeg"}},
		{"thumbnail needs png", []string{"-thumbnail", "10"}},
		{"publish needs s3", []string{"-publish"}},
		{"unknown flag", []string{"-bogus"}},
		{"extra arguments", []string{"final"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseConfig(tt.args, testConfig(), io.Discard); err == nil {
				t.Errorf("expected error for %v", tt.args)
			}
		})
	}
}

func TestParseConfigHelp(t *testing.T) {
	var usage bytes.Buffer
	_, err := parseConfig([]string{"-help"}, testConfig(), &usage)
	if !errors.Is(err, errHelp) {
		t.Fatalf("expected errHelp, got %v", err)
	}
	if !strings.Contains(usage.String(), "sphere-grid") {
		t.Errorf("help should list scenes, got:\n%s", usage.String())
	}
}

func TestEnvConfig(t *testing.T) {
	t.Setenv("RAYTRACER_SCENE", "materials")
	t.Setenv("RAYTRACER_WIDTH", "120")
	t.Setenv("RAYTRACER_SEED", "not-a-number")
	t.Setenv("S3_BUCKET", "renders")

	cfg := envConfig()
	if cfg.Scene != "materials" {
		t.Errorf("Scene = %q, want materials", cfg.Scene)
	}
	if cfg.Width != 120 {
		t.Errorf("Width = %d, want 120", cfg.Width)
	}
	if cfg.Seed != 42 {
		t.Errorf("invalid seed should fall back to 42, got %d", cfg.Seed)
	}
	if cfg.MaxDepth != -1 {
		t.Errorf("MaxDepth default = %d, want -1", cfg.MaxDepth)
	}
	if cfg.S3.Bucket != "renders" {
		t.Errorf("S3 bucket = %q, want renders", cfg.S3.Bucket)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	if err := loadEnv(dir); err != nil {
		t.Fatalf("missing .env should not be an error: %v", err)
	}

	t.Setenv("RAYTRACER_TEST_SPP", "")
	os.Unsetenv("RAYTRACER_TEST_SPP")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("RAYTRACER_TEST_SPP=25\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := loadEnv(dir); err != nil {
		t.Fatalf("loadEnv: %v", err)
	}
	if got := getEnvInt("RAYTRACER_TEST_SPP", 0); got != 25 {
		t.Errorf("RAYTRACER_TEST_SPP = %d, want 25", got)
	}
}

func TestRunWritesPPMToStdout(t *testing.T) {
	var stdout bytes.Buffer
	a := newTestApp(&stdout, nil)

	if err := a.run(context.Background(), testConfig()); err != nil {
		t.Fatalf("run: %v", err)
	}

	fields := strings.Fields(stdout.String())
	if len(fields) < 4 || fields[0] != "P3" || fields[1] != "8" || fields[3] != "255" {
		t.Fatalf("unexpected PPM header: %v", fields[:min(4, len(fields))])
	}
}

func TestRunIsDeterministic(t *testing.T) {
	var first, second bytes.Buffer
	cfg := testConfig()
	if err := newTestApp(&first, nil).run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	cfg.Workers = 1
	if err := newTestApp(&second, nil).run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Error("same seed should produce identical output regardless of worker count")
	}
}

func TestRunWritesFile(t *testing.T) {
	cfg := testConfig()
	cfg.Format = "png"
	cfg.Out = filepath.Join(t.TempDir(), "nested", "render.png")

	if err := newTestApp(io.Discard, nil).run(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(cfg.Out)
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output file is not a PNG")
	}
}

func TestRunPublishes(t *testing.T) {
	var stdout bytes.Buffer
	publisher := &fakePublisher{}
	cfg := testConfig()
	cfg.Scene = "json:three-spheres"
	cfg.Publish = true

	if err := newTestApp(&stdout, publisher).run(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
	if publisher.name != "three-spheres_20240501_123000.ppm" {
		t.Errorf("published name = %q", publisher.name)
	}
	if publisher.contentType != output.ContentType("ppm") {
		t.Errorf("content type = %q", publisher.contentType)
	}
	if !bytes.Equal(publisher.data, stdout.Bytes()) {
		t.Error("published bytes should match the written image")
	}
}

func TestRunPublishError(t *testing.T) {
	errUpload := errors.New("upload refused")
	cfg := testConfig()
	cfg.Publish = true

	err := newTestApp(io.Discard, &fakePublisher{err: errUpload}).run(context.Background(), cfg)
	if !errors.Is(err, errUpload) {
		t.Errorf("expected upload error, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestApp(io.Discard, nil).run(ctx, testConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunUnknownScene(t *testing.T) {
	cfg := testConfig()
	cfg.Scene = "nonexistent"

	err := newTestApp(io.Discard, nil).run(context.Background(), cfg)
	if !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("expected ErrUnknownScene, got %v", err)
	}
}

type failingCloser struct{ err error }

func (c failingCloser) Close() error { return c.err }

func TestCloseOutput(t *testing.T) {
	errDisk := errors.New("no space left on device")

	err := closeOutput(failingCloser{err: errDisk}, "out.ppm")
	if !errors.Is(err, output.ErrOutput) {
		t.Errorf("close failure should be an output error, got %v", err)
	}
	if !errors.Is(err, errDisk) {
		t.Errorf("close failure should keep its cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "out.ppm") {
		t.Errorf("close failure should name the file, got %v", err)
	}

	if err := closeOutput(failingCloser{}, "out.ppm"); err != nil {
		t.Errorf("clean close returned %v", err)
	}
}
