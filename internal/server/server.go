// Package server exposes the render pipeline over HTTP.
//
// The API is a thin layer over pipeline.Runner: one POST endpoint that
// accepts a JSON render request and responds with raw image bytes, plus
// a health probe. Renders run concurrently; the pipeline gives each one
// its own working directory.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	tkerrors "github.com/tikzkit/tikzkit/pkg/errors"
	"github.com/tikzkit/tikzkit/pkg/latex"
	"github.com/tikzkit/tikzkit/pkg/pipeline"
	"github.com/tikzkit/tikzkit/pkg/tikz"
)

// renderTimeout bounds a single render request end to end.
const renderTimeout = 2 * time.Minute

// Server handles HTTP render requests.
type Server struct {
	runner *pipeline.Runner
	logger *charmlog.Logger
}

// New creates a server around a pipeline runner.
func New(runner *pipeline.Runner, logger *charmlog.Logger) *Server {
	if logger == nil {
		logger = charmlog.Default()
	}
	return &Server{runner: runner, logger: logger}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(renderTimeout))

	r.Post("/render", s.handleRender)
	r.Get("/healthz", s.handleHealth)

	return r
}

// RenderRequest is the JSON body of POST /render.
type RenderRequest struct {
	// Code is the TikZ snippet, inserted verbatim into the document.
	Code string `json:"code"`

	// Format is the output format: png (default), svg, jpg or jpeg.
	Format string `json:"format,omitempty"`

	// Width and Height are the requested pixel size. Both must be set
	// to take effect; for SVG output they override viewBox-derived
	// dimensions.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	Scale    float64 `json:"scale,omitempty"`
	Encoding string  `json:"encoding,omitempty"`
	Preamble string  `json:"preamble,omitempty"`

	Packages          []string `json:"packages,omitempty"`
	Libraries         []string `json:"libraries,omitempty"`
	PgfplotsLibraries []string `json:"pgfplotslibraries,omitempty"`

	// Variant selects the TikZ-family package: tikz (default),
	// circuitikz or tkz-euclide.
	Variant string `json:"variant,omitempty"`

	TikzOptions string `json:"tikzoptions,omitempty"`

	// Refresh bypasses the artifact cache.
	Refresh bool `json:"refresh,omitempty"`
}

// options translates the request into pipeline options.
func (req *RenderRequest) options() (pipeline.Options, error) {
	var p pipeline.Options
	p.Tikz.Format = req.Format
	p.Tikz.Scale = req.Scale
	p.Tikz.Encoding = req.Encoding
	p.Tikz.Preamble = req.Preamble
	p.Tikz.Packages = req.Packages
	p.Tikz.Libraries = req.Libraries
	p.Tikz.PgfplotsLibraries = req.PgfplotsLibraries
	p.Tikz.TikzOptions = req.TikzOptions
	p.Refresh = req.Refresh

	variant, err := tikz.ParseVariant(req.Variant)
	if err != nil {
		return p, err
	}
	p.Tikz.Variant = variant

	if req.Width > 0 && req.Height > 0 {
		p.Tikz.Width = req.Width
		p.Tikz.Height = req.Height
		p.Tikz.SizeExplicit = true
	}
	return p, nil
}

// errorResponse is the JSON body of failed requests.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`

	// Diagnostics carries the compiler report for COMPILE_FAILED.
	Diagnostics string `json:"diagnostics,omitempty"`
}

// handleRender renders one snippet and responds with the image bytes.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, tkerrors.Wrap(tkerrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Code == "" {
		s.writeError(w, http.StatusBadRequest, tkerrors.New(tkerrors.ErrCodeInvalidInput, "missing code"))
		return
	}

	opts, err := req.options()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), req.Code, opts)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", result.Payload.MIME)
	w.Header().Set("X-Render-Job", result.JobID)
	if result.CacheHit {
		w.Header().Set("X-Render-Cache", "hit")
	} else {
		w.Header().Set("X-Render-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Payload.Data); err != nil {
		s.logger.Error("write response", "err", err)
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch tkerrors.GetCode(err) {
	case tkerrors.ErrCodeInvalidInput, tkerrors.ErrCodeInvalidFormat,
		tkerrors.ErrCodeInvalidSize, tkerrors.ErrCodeInvalidEncoding:
		return http.StatusBadRequest
	case tkerrors.ErrCodeCompileFailed, tkerrors.ErrCodeNoImage:
		return http.StatusUnprocessableEntity
	case tkerrors.ErrCodeToolNotFound:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs the failure and writes the JSON error body.
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("request failed", "status", status, "err", err)

	resp := errorResponse{
		Error: tkerrors.UserMessage(err),
		Code:  string(tkerrors.GetCode(err)),
	}
	var cerr *latex.CompileError
	if errors.As(err, &cerr) {
		resp.Diagnostics = cerr.Diagnostics()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
