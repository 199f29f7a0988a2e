// Package pipeline provides the core render pipeline for tikzkit.
//
// This package implements the complete assemble → compile → convert →
// publish pipeline shared by the CLI and the HTTP API. Centralizing it
// keeps behavior consistent across entry points.
//
// # Architecture
//
// A render runs through four stages:
//
//  1. Assemble: build a standalone LaTeX document from the snippet
//  2. Compile: run the LaTeX toolchain in a fresh temp directory
//  3. Convert: derive SVG or JPEG output where requested
//  4. Publish: read the artifact and tag it with its MIME type
//
// Every invocation owns its temp directory and never changes the
// process working directory, so concurrent renders are safe.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, nil, logger)
//	opts := pipeline.Options{}
//	opts.Tikz.Format = "svg"
//	result, err := runner.Execute(ctx, `\draw (0,0) rectangle (1,1);`, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Payload.Data
package pipeline

import (
	"time"

	"github.com/tikzkit/tikzkit/pkg/display"
	"github.com/tikzkit/tikzkit/pkg/tikz"
)

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatJPG  = "jpg"
	FormatJPEG = "jpeg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatSVG:  true,
	FormatJPG:  true,
	FormatJPEG: true,
}

// Options contains all configuration for one render invocation.
type Options struct {
	// Tikz configures document assembly and output geometry.
	Tikz tikz.Options

	// ShowLatex returns the assembled document without compiling.
	ShowLatex bool

	// SavePath, when set, receives an extra copy of the artifact.
	SavePath string

	// Refresh bypasses the cache lookup and re-renders.
	Refresh bool
}

// ValidateAndSetDefaults fills defaults and validates the options.
func (o *Options) ValidateAndSetDefaults() error {
	o.Tikz.SetDefaults()
	return o.Tikz.Validate()
}

// Stats records per-stage timings for one invocation.
type Stats struct {
	CompileTime time.Duration
	ConvertTime time.Duration
}

// Result is the outcome of one render invocation.
type Result struct {
	// JobID uniquely identifies the invocation in logs.
	JobID string

	// Document is the assembled LaTeX source.
	Document string

	// Payload holds the rendered artifact. Nil in show-latex mode.
	Payload *display.Payload

	// CacheHit reports whether the artifact came from the cache.
	CacheHit bool

	Stats Stats
}

// artifactExt returns the file extension the pipeline produces for a
// format. jpeg output is written as tikz.jpg by the converter.
func artifactExt(format string) string {
	if format == FormatJPEG {
		return FormatJPG
	}
	return format
}
