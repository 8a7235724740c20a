package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/output"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

// Request limits shared by the render, image and inspect endpoints
const (
	minWidth, maxWidth     = 16, 2000
	minSamples, maxSamples = 1, 10000
	minDepth, maxDepth     = 0, 1000
	defaultScene           = "final"
	defaultSeed            = 42
)

// Publisher uploads finished renders
type Publisher interface {
	Publish(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Server handles web requests for the sphere raytracer
type Server struct {
	port      int
	scenesDir string
	staticDir string
	publisher Publisher
	logger    core.Logger
}

// NewServer creates a new web server serving JSON scenes from scenesDir
func NewServer(port int, scenesDir string) *Server {
	return &Server{
		port:      port,
		scenesDir: scenesDir,
		staticDir: "static/",
		logger:    renderer.NewDefaultLogger(),
	}
}

// SetPublisher enables publish=true on render requests
func (s *Server) SetPublisher(p Publisher) {
	s.publisher = p
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene           string // Scene id accepted by scene.Create
	Width           int    // Image width (0 = scene default)
	SamplesPerPixel int    // Samples per pixel (0 = scene default)
	MaxDepth        int    // Maximum ray depth (-1 = scene default)
	Seed            int64  // Sampling and layout seed
	Publish         bool   // Upload the finished PNG
}

// Stats represents render statistics
type Stats struct {
	TotalPixels      int     `json:"totalPixels"`
	TotalSamples     int     `json:"totalSamples"`
	SamplesPerPixel  int     `json:"samplesPerPixel"`
	Workers          int     `json:"workers"`
	SamplesPerSecond float64 `json:"samplesPerSecond"`
}

func newStats(stats renderer.RenderStats) Stats {
	return Stats{
		TotalPixels:      stats.TotalPixels,
		TotalSamples:     stats.TotalSamples,
		SamplesPerPixel:  stats.SamplesPerPixel,
		Workers:          stats.Workers,
		SamplesPerSecond: stats.SamplesPerSecond(),
	}
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))

	// API endpoints
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/image", s.handleImage)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleScenes lists built-in and JSON scenes grouped for the scene picker
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	response, err := scene.ListScenes(s.scenesDir, log.Printf)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleSceneConfig returns the default camera configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sceneID := r.URL.Query().Get("scene")
	if sceneID == "" {
		sceneID = defaultScene
	}

	sceneObj, err := scene.Create(sceneID, s.scenesDir, defaultSeed)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	config := sceneObj.CameraConfig
	response := map[string]interface{}{
		"scene":       sceneID,
		"name":        sceneObj.Name,
		"sphereCount": sceneObj.SphereCount(),
		"defaults": map[string]interface{}{
			"width":           config.Width,
			"height":          config.ImageHeight(),
			"aspectRatio":     config.AspectRatio,
			"vfov":            config.VFov,
			"samplesPerPixel": config.SamplesPerPixel,
			"maxDepth":        config.MaxDepth,
			"defocusAngle":    config.DefocusAngle,
			"focusDistance":   config.FocusDistance,
		},
		"limits": map[string]interface{}{
			"width": map[string]int{
				"min": minWidth,
				"max": maxWidth,
			},
			"samplesPerPixel": map[string]int{
				"min": minSamples,
				"max": maxSamples,
			},
			"maxDepth": map[string]int{
				"min": minDepth,
				"max": maxDepth,
			},
		},
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleImage renders synchronously and returns the encoded image
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseCommonSceneParams(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "ppm" {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q, expected png or ppm", format))
		return
	}

	sceneObj, camera, err := s.createScene(req, s.logger)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	var enc output.Encoder = output.NewPPMEncoder(&buf)
	if format == "png" {
		enc = output.NewPNGEncoder(&buf)
	}

	raytracer := renderer.NewRaytracer(sceneObj.World, camera, renderer.RenderConfig{Seed: req.Seed, Logger: s.logger})
	if err := raytracer.Render(r.Context(), enc); err != nil {
		if r.Context().Err() != nil {
			// Client disconnected
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "Rendering failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", output.ContentType(format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseCommonSceneParams parses the scene selection and camera overrides shared by all render endpoints
func (s *Server) parseCommonSceneParams(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = defaultScene
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, minWidth, maxWidth); err != nil {
		return nil, err
	}
	if req.SamplesPerPixel, err = parseIntParam(query, "samplesPerPixel", 0, minSamples, maxSamples); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", -1, minDepth, maxDepth); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(query, "seed", defaultSeed, 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)
	return req, nil
}

// createScene builds the requested scene with overrides applied, plus its camera
func (s *Server) createScene(req *RenderRequest, logger core.Logger) (*scene.Scene, *renderer.Camera, error) {
	sceneObj, err := scene.Create(req.Scene, s.scenesDir, req.Seed)
	if err != nil {
		return nil, nil, err
	}
	if req.Width > 0 {
		sceneObj.CameraConfig.Width = req.Width
	}
	if req.SamplesPerPixel > 0 {
		sceneObj.CameraConfig.SamplesPerPixel = req.SamplesPerPixel
	}
	if req.MaxDepth >= 0 {
		sceneObj.CameraConfig.MaxDepth = req.MaxDepth
	}

	camera, err := sceneObj.NewCamera()
	if err != nil {
		return nil, nil, err
	}

	// Performance warning
	if camera.Width()*camera.Height() > 800*600 && camera.SamplesPerPixel() > 100 {
		logger.Printf("Render warning: Large image with high samples may render slowly\n")
	}
	logger.Printf("Using %s scene with %d spheres...\n", sceneObj.Name, sceneObj.SphereCount())
	return sceneObj, camera, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return false, nil
}

// imageToPNG encodes an image as PNG bytes
func imageToPNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeJSONError writes {"error": message} with the given status
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
