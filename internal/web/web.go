// Package web serves the HTTP API: health, a PNG of the panel, queued
// messages, brightness and status.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/fkcurrie/pixeltime-golang/internal/clock"
	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/internal/preview"
	"github.com/fkcurrie/pixeltime-golang/internal/types"
	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
)

var logger = logging.New("web")

// MaxScale bounds the LED size accepted by /api/frame.png
const MaxScale = 32

// maxBody bounds request bodies
const maxBody = 4 << 10

// Backend is the running clock as seen by the API
type Backend interface {
	Frame() image.Image
	Enqueue(m clock.Message) bool
	Dwell() time.Duration
	SetDwell(d time.Duration)
	Status() types.Status
}

// Server provides the HTTP API
type Server struct {
	backend Backend
	mux     *http.ServeMux
}

// NewServer constructs a new Server
func NewServer(backend Backend) *Server {
	s := &Server{
		backend: backend,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves on listen until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "listen", listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/frame.png", s.handleFrame)
	s.mux.HandleFunc("POST /api/message", s.handleMessage)
	s.mux.HandleFunc("GET /api/brightness", s.handleGetBrightness)
	s.mux.HandleFunc("POST /api/brightness", s.handleSetBrightness)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleFrame returns the current frame as PNG.
//
// GET /api/frame.png?scale=12
//   - scale: pixels per LED; above 1 the LEDs are drawn as dots (default 1)
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	scale := 1
	if v := r.URL.Query().Get("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxScale {
			writeError(w, http.StatusBadRequest, "scale must be between 1 and "+strconv.Itoa(MaxScale))
			return
		}
		scale = n
	}

	var img image.Image = s.backend.Frame()
	if scale > 1 {
		img = preview.Render(img, scale)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		logger.Warn("Failed to write frame", "err", err)
	}
}

type messageRequest struct {
	Text        string `json:"text"`
	Color       string `json:"color"`
	Y           *int   `json:"y"`
	StepDelayMS int    `json:"step_delay_ms"`
}

type messageResponse struct {
	Queued bool   `json:"queued"`
	Color  string `json:"color"`
}

// defaultMessageY centres a 7 pixel line on a 16 row panel
const defaultMessageY = 4

// handleMessage queues a scrolling message.
//
// POST /api/message {"text": "Hello", "color": "#ff8000", "y": 4, "step_delay_ms": 50}
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.StepDelayMS < 0 {
		writeError(w, http.StatusBadRequest, "step_delay_ms must not be negative")
		return
	}

	c := framebuffer.White
	if req.Color != "" {
		parsed, err := framebuffer.ParseColor(req.Color)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		c = parsed
	}

	m := clock.Message{
		Text:      req.Text,
		Color:     c,
		Y:         defaultMessageY,
		StepDelay: clock.DefaultStepDelay,
	}
	if req.Y != nil {
		m.Y = *req.Y
	}
	if req.StepDelayMS > 0 {
		m.StepDelay = time.Duration(req.StepDelayMS) * time.Millisecond
	}

	if !s.backend.Enqueue(m) {
		writeError(w, http.StatusServiceUnavailable, "message queue is full")
		return
	}
	logger.Info("Message queued", "text", m.Text, "color", m.Color.Hex(), "remote", r.RemoteAddr)
	writeJSON(w, http.StatusAccepted, messageResponse{Queued: true, Color: m.Color.Hex()})
}

type brightnessResponse struct {
	DwellUS   int64  `json:"dwell_us"`
	SafeMinUS int64  `json:"safe_min_us"`
	SafeMaxUS int64  `json:"safe_max_us"`
	Warning   string `json:"warning,omitempty"`
}

type brightnessRequest struct {
	DwellUS int64 `json:"dwell_us"`
}

// maxDwell keeps one pass well inside the default refresh interval
const maxDwell = 400 * time.Microsecond

func (s *Server) brightness() brightnessResponse {
	resp := brightnessResponse{
		DwellUS:   s.backend.Dwell().Microseconds(),
		SafeMinUS: hub75.SafeDwellMin.Microseconds(),
		SafeMaxUS: hub75.SafeDwellMax.Microseconds(),
	}
	if d := s.backend.Dwell(); d < hub75.SafeDwellMin || d > hub75.SafeDwellMax {
		resp.Warning = "dwell is outside the safe range"
	}
	return resp
}

func (s *Server) handleGetBrightness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.brightness())
}

// handleSetBrightness changes the output-enable dwell per refresh pass.
//
// POST /api/brightness {"dwell_us": 60}
func (s *Server) handleSetBrightness(w http.ResponseWriter, r *http.Request) {
	var req brightnessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// range check before converting, the multiplication can overflow
	if req.DwellUS < 1 || req.DwellUS > maxDwell.Microseconds() {
		writeError(w, http.StatusBadRequest, "dwell_us must be between 1 and "+strconv.FormatInt(maxDwell.Microseconds(), 10))
		return
	}
	d := time.Duration(req.DwellUS) * time.Microsecond

	s.backend.SetDwell(d)
	resp := s.brightness()
	if resp.Warning != "" {
		logger.Warn("Dwell set outside the safe range", "dwell", d)
	} else {
		logger.Info("Dwell changed", "dwell", d)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Status())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
