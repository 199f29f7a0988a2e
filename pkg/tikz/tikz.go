// Package tikz assembles standalone LaTeX documents from TikZ snippets.
//
// The assembled document uses the standalone class with its convert
// option, which delegates PNG rasterization to an ImageMagick-compatible
// executable during compilation. The snippet body is inserted verbatim
// between \begin{document} and \end{document}: no tikzpicture
// environment is added, so callers can run \tikzset (or any other
// preamble-adjacent commands) before opening their own picture
// environment.
package tikz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tikzkit/tikzkit/pkg/errors"
)

// Defaults applied by [Options.SetDefaults].
const (
	DefaultFormat      = "png"
	DefaultWidth       = 400
	DefaultHeight      = 240
	DefaultScale       = 1.0
	DefaultEncoding    = "utf-8"
	DefaultImageMagick = "convert"

	// rasterDensity is the DPI passed to the standalone convert option
	// when producing raster output.
	rasterDensity = 300
)

// Variant selects the TikZ-family package loaded by the document.
type Variant int

const (
	// VariantTikZ loads the plain tikz package.
	VariantTikZ Variant = iota
	// VariantCircuiTikZ loads circuitikz and switches the picture
	// environment name to circuitikz.
	VariantCircuiTikZ
	// VariantEuclide loads tkz-euclide; pictures keep the tikzpicture
	// environment name.
	VariantEuclide
)

// PackageName returns the LaTeX package loaded for the variant.
func (v Variant) PackageName() string {
	switch v {
	case VariantCircuiTikZ:
		return "circuitikz"
	case VariantEuclide:
		return "tkz-euclide"
	default:
		return "tikz"
	}
}

// Environment returns the picture environment name for the variant.
// The assembler never opens the environment itself; the name is
// exposed for callers that generate snippet scaffolding.
func (v Variant) Environment() string {
	if v == VariantCircuiTikZ {
		return "circuitikz"
	}
	return "tikzpicture"
}

// String returns the variant's package name.
func (v Variant) String() string { return v.PackageName() }

// ParseVariant maps a variant name to a Variant.
// Accepted names: "tikz", "circuitikz", "tkz-euclide".
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", "tikz":
		return VariantTikZ, nil
	case "circuitikz":
		return VariantCircuiTikZ, nil
	case "tkz-euclide":
		return VariantEuclide, nil
	}
	return VariantTikZ, errors.New(errors.ErrCodeInvalidInput, "unknown variant: %s", s)
}

// Options describes one render configuration. It is built once per
// invocation from flags (or an API request) and never mutated after
// [Options.SetDefaults].
type Options struct {
	Scale             float64  // accepted for compatibility; the body controls its own scaling
	Width             int      // requested pixel width
	Height            int      // requested pixel height
	Format            string   // png, svg, jpg or jpeg
	Encoding          string   // charset for the .tex file, e.g. utf-8
	Preamble          string   // raw preamble block inserted before \begin{document}
	Packages          []string // extra \usepackage lines
	Libraries         []string // \usetikzlibrary lines
	PgfplotsLibraries []string // \usepgfplotslibrary lines
	ImageMagick       string   // ImageMagick executable name or path
	PictureOptions    string   // accepted but unused: the body opens its own environment
	TikzOptions       string   // options passed when loading the variant package
	Variant           Variant

	// SizeExplicit records whether Width/Height came from the caller
	// rather than defaults. SVG output only overrides viewBox-derived
	// dimensions when the size was explicit.
	SizeExplicit bool
}

// SetDefaults fills unset fields with the documented defaults.
func (o *Options) SetDefaults() {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Encoding == "" {
		o.Encoding = DefaultEncoding
	}
	if o.ImageMagick == "" {
		o.ImageMagick = DefaultImageMagick
	}
}

// Validate checks the fields that later stages depend on.
func (o *Options) Validate() error {
	switch o.Format {
	case "png", "svg", "jpg", "jpeg":
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be png, svg, jpg or jpeg)", o.Format)
	}
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidSize, "invalid size: %dx%d", o.Width, o.Height)
	}
	if o.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid scale: %v", o.Scale)
	}
	return nil
}

// Raster reports whether the requested format is produced by
// rasterizing the compiled PDF.
func (o *Options) Raster() bool {
	return o.Format == "png" || o.Format == "jpg" || o.Format == "jpeg"
}

// ParseSize splits a "width,height" string into pixel dimensions.
func ParseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeInvalidSize, "invalid size %q (expected \"width,height\")", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidSize, err, "invalid width in %q", s)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidSize, err, "invalid height in %q", s)
	}
	return width, height, nil
}

// SplitList splits a comma-separated flag value into items,
// dropping empty entries.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Document assembles the complete LaTeX source for the given snippet
// body. The body is inserted verbatim; exactly one
// \begin{document}/\end{document} pair wraps it.
func (o *Options) Document(body string) string {
	var b strings.Builder

	density := ""
	if o.Raster() {
		density = fmt.Sprintf("density=%d,", rasterDensity)
	}
	fmt.Fprintf(&b, "\\documentclass[convert={convertexe={%s},%ssize=%dx%d,outext=.png},border=0pt]{standalone}\n",
		o.ImageMagick, density, o.Width, o.Height)

	fmt.Fprintf(&b, "\\usepackage[%s]{%s}\n", o.TikzOptions, o.Variant.PackageName())

	for _, pkg := range o.Packages {
		fmt.Fprintf(&b, "\\usepackage{%s}\n", pkg)
	}
	for _, lib := range o.Libraries {
		fmt.Fprintf(&b, "\\usetikzlibrary{%s}\n", lib)
	}
	for _, lib := range o.PgfplotsLibraries {
		fmt.Fprintf(&b, "\\usepgfplotslibrary{%s}\n", lib)
	}
	if o.Preamble != "" {
		b.WriteString(o.Preamble)
		b.WriteString("\n")
	}

	b.WriteString("\\begin{document}\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\\end{document}\n")

	return b.String()
}
