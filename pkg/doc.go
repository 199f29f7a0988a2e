// Package pkg provides the core libraries for tikzkit TikZ rendering.
//
// # Overview
//
// Tikzkit turns TikZ/LaTeX snippets into images by orchestrating an
// external LaTeX toolchain. The pkg directory is organized along the
// render pipeline:
//
//  1. [tikz] - Document assembly (standalone class, packages, preamble)
//  2. [latex] - External compiler invocation with captured diagnostics
//  3. [convert] - PDF→SVG and PNG→JPEG conversion, SVG size fixup
//  4. [display] - MIME-tagged payloads and publishers
//  5. [pipeline] - Orchestration (assemble → compile → convert → publish)
//
// Supporting packages: [cache] (file/Redis artifact cache), [errors]
// (code-carrying errors), [observability] (stage hooks), [buildinfo]
// (ldflags version metadata).
//
// # Quick Start
//
// Render a snippet to SVG:
//
//	import (
//	    "context"
//	    "github.com/tikzkit/tikzkit/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil, nil)
//	opts := pipeline.Options{}
//	opts.Tikz.Format = "svg"
//	result, err := runner.Execute(context.Background(),
//	    `\begin{tikzpicture}\draw (0,0) rectangle (2,1);\end{tikzpicture}`, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.svg", result.Payload.Data, 0o644)
package pkg
