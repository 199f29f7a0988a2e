package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tikzkit/tikzkit/pkg/display"
	tkerrors "github.com/tikzkit/tikzkit/pkg/errors"
	"github.com/tikzkit/tikzkit/pkg/latex"
	"github.com/tikzkit/tikzkit/pkg/pipeline"
	"github.com/tikzkit/tikzkit/pkg/tikz"
)

// renderOpts holds the command-line flags for the render command.
// These mirror the render configuration: one immutable record built per
// invocation, discarded when the command finishes.
type renderOpts struct {
	scale          float64 // accepted for compatibility; the body controls its own scaling
	size           string  // "width,height" in pixels
	format         string  // output format: png, svg, jpg, jpeg
	encoding       string  // charset for the generated .tex file
	preamble       string  // raw preamble block
	packages       string  // comma-separated \usepackage list
	libraries      string  // comma-separated \usetikzlibrary list
	pgfplotsLibs   string  // comma-separated \usepgfplotslibrary list
	save           string  // extra copy of the artifact
	imagemagick    string  // ImageMagick executable name or path
	pictureOptions string  // accepted but unused: the body opens its own environment
	tikzOptions    string  // options passed when loading the variant package
	showLatex      bool    // print the assembled document instead of rendering
	circuitikz     bool    // load circuitikz instead of tikz
	tkzEuclide     bool    // load tkz-euclide instead of tikz
	input          string  // read the body from this file instead of args
	output         string  // artifact destination ("-" for stdout)
	emitDocument   bool    // emit a JSON display document on stdout
	noCache        bool    // disable the artifact cache
	refresh        bool    // bypass the cache lookup and re-render
}

// renderCommand creates the render command, the main entry point of the
// tool: TikZ code in, image out.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [tikz code...]",
		Short: "Render a TikZ snippet to an image",
		Long: `Render assembles a TikZ/LaTeX snippet into a standalone document,
compiles it and converts the result to the requested format.

The snippet is taken from the positional arguments, from a file (--input),
or from stdin. The snippet is inserted verbatim: tikzkit does not open a
tikzpicture environment for you, so \tikzset calls before \begin{tikzpicture}
work as expected.`,
		Example: `  tikzkit render '\begin{tikzpicture}\draw (0,0) rectangle (2,1);\end{tikzpicture}'
  tikzkit render -f svg -i diagram.tikz -o diagram.svg
  echo '...' | tikzkit render --circuitikz -f png -o circuit.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipelineOpts, err := c.buildPipelineOptions(cmd, &opts)
			if err != nil {
				return err
			}
			body, err := resolveBody(args, opts.input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return c.runRender(cmd, body, &opts, pipelineOpts)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&opts.scale, "scale", tikz.DefaultScale, "scale factor (kept for compatibility)")
	flags.StringVarP(&opts.size, "size", "s", "", `pixel size as "width,height"`)
	flags.StringVarP(&opts.format, "format", "f", "", "output format: png (default), svg, jpg, jpeg")
	flags.StringVarP(&opts.encoding, "encoding", "e", "", "charset for the generated .tex file")
	flags.StringVarP(&opts.preamble, "preamble", "x", "", "raw LaTeX preamble block")
	flags.StringVarP(&opts.packages, "package", "p", "", "extra LaTeX packages (comma-separated)")
	flags.StringVarP(&opts.libraries, "library", "l", "", "TikZ libraries (comma-separated)")
	flags.StringVarP(&opts.pgfplotsLibs, "pgfplotslibrary", "g", "", "pgfplots libraries (comma-separated)")
	flags.StringVarP(&opts.save, "save", "S", "", "save an extra copy of the artifact to this path")
	flags.StringVar(&opts.imagemagick, "imagemagick", "", "ImageMagick executable name or path")
	flags.StringVar(&opts.pictureOptions, "pictureoptions", "", "tikzpicture options (accepted for compatibility)")
	flags.StringVarP(&opts.tikzOptions, "tikzoptions", "t", "", "options for the TikZ package load")
	flags.BoolVar(&opts.showLatex, "showlatex", false, "print the assembled document instead of rendering")
	flags.BoolVar(&opts.circuitikz, "circuitikz", false, "load circuitikz instead of tikz")
	flags.BoolVar(&opts.tkzEuclide, "tkz-euclide", false, "load tkz-euclide instead of tikz")
	flags.StringVarP(&opts.input, "input", "i", "", "read the snippet from this file")
	flags.StringVarP(&opts.output, "output", "o", "", `artifact destination ("-" for stdout; default tikz.<format>)`)
	flags.BoolVar(&opts.emitDocument, "emit-document", false, "emit a JSON display document on stdout instead of raw bytes")
	flags.BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	flags.BoolVar(&opts.refresh, "refresh", false, "re-render even if a cached artifact exists")

	return cmd
}

// buildPipelineOptions translates flags (layered over config defaults)
// into pipeline options.
func (c *CLI) buildPipelineOptions(cmd *cobra.Command, opts *renderOpts) (pipeline.Options, error) {
	var p pipeline.Options

	p.Tikz.Scale = opts.scale
	p.Tikz.Format = firstNonEmpty(opts.format, c.Config.Format)
	p.Tikz.Encoding = firstNonEmpty(opts.encoding, c.Config.Encoding)
	p.Tikz.Preamble = joinPreambles(c.Config.Preamble, opts.preamble)
	p.Tikz.Packages = tikz.SplitList(opts.packages)
	p.Tikz.Libraries = tikz.SplitList(opts.libraries)
	p.Tikz.PgfplotsLibraries = tikz.SplitList(opts.pgfplotsLibs)
	p.Tikz.ImageMagick = firstNonEmpty(opts.imagemagick, c.Config.ImageMagick)
	p.Tikz.PictureOptions = opts.pictureOptions
	p.Tikz.TikzOptions = opts.tikzOptions
	p.ShowLatex = opts.showLatex
	p.SavePath = opts.save
	p.Refresh = opts.refresh

	if opts.circuitikz && opts.tkzEuclide {
		return p, tkerrors.New(tkerrors.ErrCodeInvalidInput, "--circuitikz and --tkz-euclide are mutually exclusive")
	}
	switch {
	case opts.circuitikz:
		p.Tikz.Variant = tikz.VariantCircuiTikZ
	case opts.tkzEuclide:
		p.Tikz.Variant = tikz.VariantEuclide
	}

	if opts.size != "" {
		w, h, err := tikz.ParseSize(opts.size)
		if err != nil {
			return p, err
		}
		p.Tikz.Width = w
		p.Tikz.Height = h
	}
	// An explicit size wins over viewBox-derived SVG dimensions.
	p.Tikz.SizeExplicit = cmd.Flags().Changed("size")

	return p, nil
}

// resolveBody returns the snippet body: positional args joined with
// spaces, the --input file, or stdin, in that order of preference.
func resolveBody(args []string, input string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if input != "" {
		data, err := os.ReadFile(input)
		if err != nil {
			return "", tkerrors.Wrap(tkerrors.ErrCodeInvalidInput, err, "read %s", input)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", tkerrors.Wrap(tkerrors.ErrCodeInvalidInput, err, "read stdin")
	}
	if len(data) == 0 {
		return "", tkerrors.New(tkerrors.ErrCodeInvalidInput, "no TikZ code given (pass it as arguments, --input or stdin)")
	}
	return string(data), nil
}

// runRender executes the pipeline and publishes the artifact.
func (c *CLI) runRender(cmd *cobra.Command, body string, opts *renderOpts, pipelineOpts pipeline.Options) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	runner := c.newRunner(opts.noCache)
	defer runner.Close()

	var spinner *Spinner
	if !pipelineOpts.ShowLatex && !opts.emitDocument && opts.output != "-" {
		spinner = newSpinnerWithContext(ctx, "rendering")
		spinner.Start()
	}

	track := newProgress(logger)
	result, err := runner.Execute(ctx, body, pipelineOpts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return c.reportRenderError(err)
	}

	if pipelineOpts.ShowLatex {
		fmt.Fprint(cmd.OutOrStdout(), result.Document)
		return nil
	}

	if opts.emitDocument {
		pub := &display.DocumentPublisher{W: cmd.OutOrStdout()}
		return pub.Publish(result.Payload)
	}

	if opts.output == "-" {
		pub := &display.StreamPublisher{W: cmd.OutOrStdout()}
		return pub.Publish(result.Payload)
	}

	path := opts.output
	if path == "" {
		path = "tikz." + artifactExt(pipelineOpts.Tikz.Format)
	}
	pub := &display.FilePublisher{Path: path}
	if err := pub.Publish(result.Payload); err != nil {
		return err
	}

	track.done(fmt.Sprintf("Rendered %s", path))
	printSuccess("Rendered %s", path)
	printRenderStats(pipelineOpts.Tikz.Format, len(result.Payload.Data), result.CacheHit)
	if opts.save != "" {
		printFile(opts.save)
	}
	return nil
}

// reportRenderError prints user-facing diagnostics for render failures
// and returns the error for the exit code.
func (c *CLI) reportRenderError(err error) error {
	switch tkerrors.GetCode(err) {
	case tkerrors.ErrCodeNoImage:
		printError("No image generated.")
	case tkerrors.ErrCodeCompileFailed:
		printError("LaTeX compilation failed")
		var cerr *latex.CompileError
		if errors.As(err, &cerr) {
			fmt.Fprint(os.Stderr, cerr.Diagnostics())
		}
	case tkerrors.ErrCodeToolNotFound:
		printError("%s", tkerrors.UserMessage(err))
		printNextStep("Check your toolchain", "tikzkit doctor")
	default:
		printError("%s", tkerrors.UserMessage(err))
	}
	return err
}

// artifactExt maps a format to the artifact file extension.
func artifactExt(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// joinPreambles concatenates the config preamble and the flag preamble.
func joinPreambles(base, extra string) string {
	switch {
	case base == "":
		return extra
	case extra == "":
		return base
	default:
		return base + "\n" + extra
	}
}
