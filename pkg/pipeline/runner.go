package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tikzkit/tikzkit/pkg/cache"
	"github.com/tikzkit/tikzkit/pkg/convert"
	"github.com/tikzkit/tikzkit/pkg/display"
	"github.com/tikzkit/tikzkit/pkg/errors"
	"github.com/tikzkit/tikzkit/pkg/latex"
	"github.com/tikzkit/tikzkit/pkg/observability"
)

// Runner executes render invocations with caching.
// Both CLI and API use this to avoid duplicating pipeline logic.
//
// The Runner is stateless except for the cache, compiler and logger -
// it stores no per-render state, so multiple goroutines can share one
// Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	LaTeX  *latex.Runner
	Logger *charmlog.Logger
}

// NewRunner creates a runner with the given collaborators.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
// If lx is nil, a pdflatex runner is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, lx *latex.Runner, logger *charmlog.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = charmlog.Default()
	}
	if lx == nil {
		lx = latex.NewRunner("", logger)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		LaTeX:  lx,
		Logger: logger,
	}
}

// Execute runs the complete assemble → compile → convert → publish
// pipeline for one snippet body.
//
// In show-latex mode the result carries only the assembled document.
// When the toolchain finishes without producing the requested artifact
// the error carries ErrCodeNoImage and the result has no payload.
func (r *Runner) Execute(ctx context.Context, body string, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	doc := opts.Tikz.Document(body)
	result := &Result{
		JobID:    uuid.NewString(),
		Document: doc,
	}
	logger := r.Logger.With("job", result.JobID)

	if opts.ShowLatex {
		logger.Debug("show-latex mode, skipping compilation")
		return result, nil
	}

	key := r.artifactKey(doc, opts)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			logger.Debug("artifact cache hit", "bytes", len(data))
			result.CacheHit = true
			result.Payload = display.NewPayload(opts.Tikz.Format, data)
			observability.Render().OnPublish(ctx, result.Payload.MIME, len(data))
			if err := r.saveCopy(opts.SavePath, data); err != nil {
				return result, err
			}
			return result, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	dir, err := os.MkdirTemp("", "tikzkit-*")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create temp directory")
	}
	defer os.RemoveAll(dir)

	// Stage: compile
	compileStart := time.Now()
	observability.Render().OnCompileStart(ctx, opts.Tikz.Format)
	err = r.LaTeX.Compile(ctx, doc, dir, opts.Tikz.Encoding)
	result.Stats.CompileTime = time.Since(compileStart)
	observability.Render().OnCompileComplete(ctx, opts.Tikz.Format, result.Stats.CompileTime, err)
	if err != nil {
		return result, err
	}
	logger.Info("compiled document", "duration", result.Stats.CompileTime)

	// Stage: convert (best effort; a failed conversion surfaces as a
	// missing artifact below)
	convertStart := time.Now()
	r.convertArtifact(ctx, dir, opts.Tikz.Format, logger)
	result.Stats.ConvertTime = time.Since(convertStart)

	// Stage: publish
	artifact := filepath.Join(dir, "tikz."+artifactExt(opts.Tikz.Format))
	data, err := os.ReadFile(artifact)
	if err != nil {
		return result, errors.New(errors.ErrCodeNoImage, "no image generated")
	}

	if opts.Tikz.Format == FormatSVG {
		data = r.fixSVGSize(data, opts, logger)
	}

	if err := r.saveCopy(opts.SavePath, data); err != nil {
		return result, err
	}

	result.Payload = display.NewPayload(opts.Tikz.Format, data)
	observability.Render().OnPublish(ctx, result.Payload.MIME, len(data))
	logger.Info("rendered artifact",
		"format", opts.Tikz.Format,
		"bytes", len(data),
		"duration", result.Stats.ConvertTime+result.Stats.CompileTime)

	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return result, nil
}

// convertArtifact derives the requested format from the compiler
// output. Failures are logged, not returned: the publish stage reports
// a distinct missing-artifact error either way.
func (r *Runner) convertArtifact(ctx context.Context, dir, format string, logger *charmlog.Logger) {
	switch format {
	case FormatJPG, FormatJPEG:
		observability.Render().OnConvertStart(ctx, "png", "jpg")
		start := time.Now()
		err := convert.PNGToJPEG(filepath.Join(dir, latex.PNGName), filepath.Join(dir, "tikz.jpg"))
		observability.Render().OnConvertComplete(ctx, "png", "jpg", time.Since(start), err)
		if err != nil {
			logger.Error("conversion failed", "err", err)
		}
	case FormatSVG:
		observability.Render().OnConvertStart(ctx, "pdf", "svg")
		start := time.Now()
		err := convert.PDFToSVG(filepath.Join(dir, latex.PDFName), filepath.Join(dir, "tikz.svg"))
		observability.Render().OnConvertComplete(ctx, "pdf", "svg", time.Since(start), err)
		if err != nil {
			logger.Error("conversion failed", "err", err)
		}
	}
}

// fixSVGSize stamps explicit dimensions onto the SVG. An explicit
// --size wins over the viewBox. A fixup failure keeps the raw SVG.
func (r *Runner) fixSVGSize(data []byte, opts Options, logger *charmlog.Logger) []byte {
	w, h := 0, 0
	if opts.Tikz.SizeExplicit {
		w, h = opts.Tikz.Width, opts.Tikz.Height
	}
	fixed, err := convert.EnsureSVGSize(data, w, h)
	if err != nil {
		logger.Warn("could not set SVG dimensions", "err", err)
		return data
	}
	return fixed
}

// saveCopy writes an extra copy of the artifact when requested.
func (r *Runner) saveCopy(path string, data []byte) error {
	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save copy to %s", path)
	}
	return nil
}

// artifactKey derives the cache key for an assembled document.
func (r *Runner) artifactKey(doc string, opts Options) string {
	return r.Keyer.ArtifactKey(cache.Hash([]byte(doc)), cache.ArtifactKeyOpts{
		Format:       opts.Tikz.Format,
		Width:        opts.Tikz.Width,
		Height:       opts.Tikz.Height,
		Scale:        opts.Tikz.Scale,
		SizeExplicit: opts.Tikz.SizeExplicit,
	})
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
