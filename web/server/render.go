package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/df07/go-voxel-raytracer/pkg/core"
	"github.com/df07/go-voxel-raytracer/pkg/renderer"
)

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "complete", "error"
	Data string `json:"data"` // JSON-encoded data
}

// RenderResult is the payload of the "complete" event
type RenderResult struct {
	ImageData  string  `json:"imageData"` // Base64 encoded PNG
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Triangles  int     `json:"triangles"`
	Rays       int     `json:"rays"`
	Coverage   float64 `json:"coverage"` // Fraction of pixels whose primary ray hit a mesh
	ElapsedMs  int64   `json:"elapsedMs"`
	RenderTime int64   `json:"renderMs"` // Excludes mesh loading and indexing
}

// handleRender loads a scene and renders it, streaming loader and index
// messages as "console" events and the finished image as "complete"
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := parseSceneRequest(r.URL.Query())
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	finishConsole := func() {
		close(consoleChan)
		<-consoleDone
	}

	startTime := time.Now()
	sceneObj, err := s.loadScene(req, webLogger)
	if err != nil {
		finishConsole()
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	renderStart := time.Now()
	raytracer := renderer.NewRaytracer(sceneObj, sceneObj.RenderConfig())
	img, stats, err := raytracer.Render(ctx)
	finishConsole()
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	imageData, err := imageToBase64PNG(img)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("failed to encode image: %v", err))
		return
	}
	data, err := json.Marshal(RenderResult{
		ImageData:  imageData,
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
		Triangles:  sceneObj.GetPrimitiveCount(),
		Rays:       stats.Rays,
		Coverage:   stats.Coverage(),
		ElapsedMs:  time.Since(startTime).Milliseconds(),
		RenderTime: time.Since(renderStart).Milliseconds(),
	})
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: string(data)}:
	case <-ctx.Done():
	}
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
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				continue // Drain without writing once the client is gone
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				continue
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Client disconnected; keep draining so senders never block
			for range sseEventChan {
			}
			return
		}
	}
}

// streamConsoleMessages forwards console messages until consoleChan closes
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			log.Printf("Error marshaling console message: %v", err)
			continue
		}

		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		}
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
	}
}
