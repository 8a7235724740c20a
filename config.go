package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/df07/go-sphere-raytracer/pkg/output"
)

// Config holds the resolved settings for one CLI render
type Config struct {
	Scene           string
	ScenesDir       string
	Width           int // 0 keeps the scene default
	SamplesPerPixel int // 0 keeps the scene default
	MaxDepth        int // negative keeps the scene default
	Seed            int64
	Workers         int
	Format          string // "ppm" or "png"
	Out             string // "-" for stdout, "" for output/<scene>/render_<timestamp>.<format>
	ThumbnailWidth  uint
	Publish         bool
	S3              output.S3Config
}

// errHelp reports that -help was requested
var errHelp = errors.New("help requested")

// loadEnv reads <dir>/.env into the process environment. A missing file is not an error.
func loadEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// getEnv returns the environment variable or fallback when unset
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvInt returns the environment variable as an int, or fallback when unset or invalid
func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// envConfig returns settings from RAYTRACER_* and S3_* environment variables
func envConfig() Config {
	return Config{
		Scene:           getEnv("RAYTRACER_SCENE", "final"),
		ScenesDir:       getEnv("RAYTRACER_SCENES_DIR", "scenes"),
		Width:           getEnvInt("RAYTRACER_WIDTH", 0),
		SamplesPerPixel: getEnvInt("RAYTRACER_SPP", 0),
		MaxDepth:        getEnvInt("RAYTRACER_DEPTH", -1),
		Seed:            int64(getEnvInt("RAYTRACER_SEED", 42)),
		Workers:         getEnvInt("RAYTRACER_WORKERS", 0),
		Format:          getEnv("RAYTRACER_FORMAT", "ppm"),
		Out:             getEnv("RAYTRACER_OUT", "-"),
		ThumbnailWidth:  uint(max(0, getEnvInt("RAYTRACER_THUMBNAIL", 0))),
		S3:              output.S3ConfigFromEnv(),
	}
}

// parseConfig applies command line flags on top of defaults
func parseConfig(args []string, defaults Config, usage io.Writer) (Config, error) {
	cfg := defaults
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(usage)

	fs.StringVar(&cfg.Scene, "scene", cfg.Scene, "Scene id: final, materials, single-sphere, sphere-grid or json:<name>")
	fs.StringVar(&cfg.ScenesDir, "scenes", cfg.ScenesDir, "Directory containing JSON scene files")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Image width in pixels (0 = scene default)")
	fs.IntVar(&cfg.SamplesPerPixel, "spp", cfg.SamplesPerPixel, "Samples per pixel (0 = scene default)")
	fs.IntVar(&cfg.MaxDepth, "depth", cfg.MaxDepth, "Maximum ray depth (-1 = scene default)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for sampling and scene layout")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel workers (0 = CPU count)")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Output format: ppm or png")
	fs.StringVar(&cfg.Out, "out", cfg.Out, "Output file, '-' for stdout, empty for output/<scene>/")
	fs.UintVar(&cfg.ThumbnailWidth, "thumbnail", cfg.ThumbnailWidth, "Downscale PNG output to this width (0 = full size)")
	fs.BoolVar(&cfg.Publish, "publish", cfg.Publish, "Upload the rendered image to the configured S3 bucket")
	help := fs.Bool("help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *help {
		printHelp(usage, fs)
		return cfg, errHelp
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if cfg.Format != "ppm" && cfg.Format != "png" {
		return cfg, fmt.Errorf("unknown format %q, expected ppm or png", cfg.Format)
	}
	if cfg.ThumbnailWidth > 0 && cfg.Format != "png" {
		return cfg, fmt.Errorf("-thumbnail requires -format png")
	}
	if cfg.Publish && !cfg.S3.Enabled() {
		return cfg, fmt.Errorf("-publish requires S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY")
	}
	return cfg, nil
}

func printHelp(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Sphere Raytracer")
	fmt.Fprintln(w, "Usage: raytracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available scenes:")
	fmt.Fprintln(w, "  final         - Random small spheres around three large ones")
	fmt.Fprintln(w, "  materials     - Diffuse, metal and glass showcase")
	fmt.Fprintln(w, "  single-sphere - One diffuse sphere")
	fmt.Fprintln(w, "  sphere-grid   - Grid of colored metal spheres")
	fmt.Fprintln(w, "  json:<name>   - Scene file <scenes>/<name>.json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Settings may also come from RAYTRACER_* variables in the environment or .env")
}
