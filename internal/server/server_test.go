package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tikzkit/tikzkit/pkg/cache"
	"github.com/tikzkit/tikzkit/pkg/latex"
	"github.com/tikzkit/tikzkit/pkg/pipeline"
)

const testCode = `\begin{tikzpicture}\draw (0,0) rectangle (2,1);\end{tikzpicture}`

// newTestServer builds a server whose compiler always fails, so only
// cache hits can produce an image. Tests that expect a successful
// render must seed the cache first.
func newTestServer(t *testing.T) (*Server, cache.Cache) {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := pipeline.NewRunner(fc, nil, latex.NewRunner("false", nil), nil)
	return New(runner, nil), fc
}

// seedArtifact stores data under the key Execute will derive for the
// given request.
func seedArtifact(t *testing.T, c cache.Cache, req RenderRequest, data []byte) {
	t.Helper()
	opts, err := req.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	doc := opts.Tikz.Document(req.Code)
	key := cache.NewDefaultKeyer().ArtifactKey(cache.Hash([]byte(doc)), cache.ArtifactKeyOpts{
		Format:       opts.Tikz.Format,
		Width:        opts.Tikz.Width,
		Height:       opts.Tikz.Height,
		Scale:        opts.Tikz.Scale,
		SizeExplicit: opts.Tikz.SizeExplicit,
	})
	if err := c.Set(t.Context(), key, data, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
}

func postRender(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/render", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRenderCacheHit(t *testing.T) {
	srv, fc := newTestServer(t)

	reqBody := RenderRequest{Code: testCode}
	seedArtifact(t, fc, reqBody, []byte("png-bytes"))

	rec := postRender(t, srv.Router(), reqBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("X-Render-Cache"); got != "hit" {
		t.Errorf("X-Render-Cache = %q", got)
	}
	if rec.Header().Get("X-Render-Job") == "" {
		t.Error("missing X-Render-Job header")
	}
	if rec.Body.String() != "png-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRenderSVGCacheHit(t *testing.T) {
	srv, fc := newTestServer(t)

	reqBody := RenderRequest{Code: testCode, Format: "svg"}
	seedArtifact(t, fc, reqBody, []byte("<svg/>"))

	rec := postRender(t, srv.Router(), reqBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/svg+xml" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestRenderBadJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if resp.Code != "INVALID_INPUT" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestRenderMissingCode(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postRender(t, srv.Router(), RenderRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRenderInvalidFormat(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postRender(t, srv.Router(), RenderRequest{Code: testCode, Format: "gif"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if resp.Code != "INVALID_FORMAT" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestRenderInvalidVariant(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := postRender(t, srv.Router(), RenderRequest{Code: testCode, Variant: "pgf"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRenderCompileFailure(t *testing.T) {
	srv, _ := newTestServer(t)

	// No seeded artifact, so the request reaches the failing compiler.
	rec := postRender(t, srv.Router(), RenderRequest{Code: testCode})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	if resp.Code != "COMPILE_FAILED" {
		t.Errorf("code = %q", resp.Code)
	}
	if !strings.Contains(resp.Diagnostics, "command:") {
		t.Errorf("diagnostics missing compiler report:\n%s", resp.Diagnostics)
	}
}

func TestRequestOptionsExplicitSize(t *testing.T) {
	req := RenderRequest{Code: testCode, Format: "svg", Width: 200, Height: 100}
	opts, err := req.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if !opts.Tikz.SizeExplicit {
		t.Error("explicit width/height should mark the size explicit")
	}
	if opts.Tikz.Width != 200 || opts.Tikz.Height != 100 {
		t.Errorf("size = %dx%d", opts.Tikz.Width, opts.Tikz.Height)
	}

	// Width alone is not a size.
	req = RenderRequest{Code: testCode, Width: 200}
	opts, err = req.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Tikz.SizeExplicit {
		t.Error("partial size must not mark the size explicit")
	}
}
