package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/output"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

// ErrPublishDisabled is reported when publish=true is requested without a configured bucket
var ErrPublishDisabled = errors.New("publishing is not configured")

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// RowProgress is sent each time a scanline reaches the image
type RowProgress struct {
	Row           int   `json:"row"`
	RowsCompleted int   `json:"rowsCompleted"`
	TotalRows     int   `json:"totalRows"`
	ElapsedMs     int64 `json:"elapsedMs"`
}

// CompleteEvent carries the finished image
type CompleteEvent struct {
	ImageData    string `json:"imageData"` // Base64 encoded PNG
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ElapsedMs    int64  `json:"elapsedMs"`
	Stats        Stats  `json:"stats"`
	PublishedKey string `json:"publishedKey,omitempty"`
}

// handleRender renders a scene and streams console output, row progress and the final image via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	s.setSSEHeaders(w)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Create unified SSE event channel for thread-safe writing
	sseEventChan := make(chan SSEEvent, 100)

	// Start single SSE writer goroutine; it must finish before the handler returns
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	// Parse and validate request
	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Setup console logging and streaming
	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()

	complete, err := s.renderToEvents(ctx, req, webLogger, sseEventChan)

	// Rendering has stopped logging; flush the console before the final event
	close(consoleChan)
	<-consoleDone

	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	data, err := json.Marshal(complete)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Error marshaling result: %v", err))
		return
	}

	// Send completion event
	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: string(data)}:
	case <-ctx.Done():
	}
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req, err := s.parseCommonSceneParams(r)
	if err != nil {
		return nil, err
	}
	if req.Publish, err = parseBoolParam(r.URL.Query(), "publish"); err != nil {
		return nil, err
	}
	if req.Publish && s.publisher == nil {
		return nil, ErrPublishDisabled
	}
	return req, nil
}

// renderToEvents runs the render, sending a progress event per finished row
func (s *Server) renderToEvents(ctx context.Context, req *RenderRequest, logger core.Logger, sseEventChan chan<- SSEEvent) (*CompleteEvent, error) {
	sceneObj, camera, err := s.createScene(req, logger)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	enc := &streamingEncoder{
		PNGEncoder: output.NewPNGEncoder(nil),
		ctx:        ctx,
		events:     sseEventChan,
		start:      startTime,
	}

	raytracer := renderer.NewRaytracer(sceneObj.World, camera, renderer.RenderConfig{
		Seed:   req.Seed,
		Logger: logger,
	})
	if err := raytracer.Render(ctx, enc); err != nil {
		return nil, err
	}

	pngData, err := imageToPNG(enc.Image())
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	complete := &CompleteEvent{
		ImageData: base64.StdEncoding.EncodeToString(pngData),
		Width:     camera.Width(),
		Height:    camera.Height(),
		ElapsedMs: time.Since(startTime).Milliseconds(),
		Stats:     newStats(raytracer.Stats()),
	}

	if req.Publish {
		name := fmt.Sprintf("%s_seed%d_%s.png", strings.TrimPrefix(req.Scene, "json:"), req.Seed, startTime.UTC().Format("20060102_150405"))
		key, err := s.publisher.Publish(ctx, name, pngData, output.ContentType("png"))
		if err != nil {
			return nil, err
		}
		logger.Printf("Published %s\n", key)
		complete.PublishedKey = key
	}

	return complete, nil
}

// streamingEncoder assembles the image and reports each row as it arrives
type streamingEncoder struct {
	*output.PNGEncoder
	ctx       context.Context
	events    chan<- SSEEvent
	start     time.Time
	totalRows int
	completed int
}

// Begin records the row count for progress events
func (e *streamingEncoder) Begin(width, height int) error {
	e.totalRows = height
	return e.PNGEncoder.Begin(width, height)
}

// WriteRow stores the row and sends a progress event
func (e *streamingEncoder) WriteRow(y int, pixels []core.Vec3) error {
	if err := e.PNGEncoder.WriteRow(y, pixels); err != nil {
		return err
	}
	e.completed++

	data, err := json.Marshal(RowProgress{
		Row:           y,
		RowsCompleted: e.completed,
		TotalRows:     e.totalRows,
		ElapsedMs:     time.Since(e.start).Milliseconds(),
	})
	if err != nil {
		return err
	}

	select {
	case e.events <- SSEEvent{Type: "progress", Data: string(data)}:
	case <-e.ctx.Done():
	}
	return nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan)
	return consoleChan, webLogger
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				// Channel closed
				return
			}

			// Write SSE event
			_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			if err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// streamConsoleMessages forwards console messages until consoleChan is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for {
		select {
		case consoleMsg, ok := <-consoleChan:
			if !ok {
				// Channel closed
				return
			}

			data, err := json.Marshal(consoleMsg)
			if err != nil {
				log.Printf("Error marshaling console message: %v", err)
				continue
			}

			// Send to unified SSE channel
			select {
			case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message to avoid blocking
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
