// Package latex runs an external LaTeX compiler against assembled
// documents.
//
// Each compilation happens inside a caller-provided working directory
// (usually a per-render temp dir). The compiler's working directory is
// set on the command itself rather than by changing the process-wide
// working directory, so concurrent renders never race on global state.
package latex

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/tikzkit/tikzkit/pkg/errors"
)

// File names produced inside the working directory.
const (
	TexName = "tikz.tex"
	PDFName = "tikz.pdf"
	PNGName = "tikz.png"
)

// DefaultBinary is the compiler used when none is configured.
const DefaultBinary = "pdflatex"

// Runner invokes a LaTeX compiler as an external process.
type Runner struct {
	Binary string
	Logger *charmlog.Logger
}

// NewRunner creates a runner for the given compiler binary.
// An empty binary selects pdflatex.
func NewRunner(binary string, logger *charmlog.Logger) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = charmlog.Default()
	}
	return &Runner{Binary: binary, Logger: logger}
}

// CompileError carries the full diagnostic context of a failed
// compilation: the command line, the document that was compiled, and
// both captured output streams.
type CompileError struct {
	Command  string
	Document string
	Stdout   string
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

// Unwrap returns the process error.
func (e *CompileError) Unwrap() error { return e.Err }

// Diagnostics renders the command, document and captured streams as an
// indented report suitable for the diagnostic stream.
func (e *CompileError) Diagnostics() string {
	var b strings.Builder
	section := func(header, body string) {
		b.WriteString(header)
		b.WriteString(":\n")
		for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	section("command", e.Command)
	section(TexName, e.Document)
	section("stdout", e.Stdout)
	section("stderr", e.Stderr)
	return b.String()
}

// Compile writes doc to tikz.tex inside dir (encoded with the given
// IANA charset, UTF-8 when empty) and runs the compiler there with
// shell-escape enabled. The process working directory is added to
// TEXINPUTS so \input and friends resolve relative to where the render
// was requested.
//
// On failure the returned error wraps a *CompileError with
// ErrCodeCompileFailed; any partial output is left in dir for the
// caller's cleanup.
func (r *Runner) Compile(ctx context.Context, doc, dir, charset string) error {
	if _, err := exec.LookPath(r.Binary); err != nil {
		return errors.Wrap(errors.ErrCodeToolNotFound, err, "LaTeX compiler %q not found", r.Binary)
	}

	data, err := encodeDocument(doc, charset)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, TexName), data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", TexName)
	}

	cmd := exec.CommandContext(ctx, r.Binary, "--shell-escape", TexName)
	cmd.Dir = dir
	cmd.Env = buildEnv(os.Environ(), callerDir())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Debug("running compiler", "binary", r.Binary, "dir", dir)

	if err := cmd.Run(); err != nil {
		cerr := &CompileError{
			Command:  r.Binary + " --shell-escape " + TexName,
			Document: doc,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Err:      err,
		}
		return errors.Wrap(errors.ErrCodeCompileFailed, cerr, "compiler terminated abnormally")
	}
	return nil
}

// callerDir returns the process working directory, falling back to "."
// when it cannot be determined.
func callerDir() string {
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// buildEnv extends env with a TEXINPUTS entry that puts callerDir on
// the compiler's search path. When TEXINPUTS is already set the caller
// directory is prepended; otherwise the entry ends with a double
// separator so the compiler keeps its standard search path.
func buildEnv(env []string, callerDir string) []string {
	sep := string(os.PathListSeparator)
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "TEXINPUTS="); ok {
			out = append(out, "TEXINPUTS="+callerDir+sep+v)
			found = true
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "TEXINPUTS=."+sep+callerDir+sep+sep)
	}
	return out
}

// isUTF8 reports whether name denotes UTF-8.
func isUTF8(name string) bool {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

// encodeDocument converts doc from Go's native UTF-8 to the requested
// charset. UTF-8 (and empty) pass through unchanged.
func encodeDocument(doc, charset string) ([]byte, error) {
	if charset == "" || isUTF8(charset) {
		return []byte(doc), nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return nil, errors.New(errors.ErrCodeInvalidEncoding, "unknown encoding: %s", charset)
	}
	data, err := enc.NewEncoder().Bytes([]byte(doc))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidEncoding, err, "encode document as %s", charset)
	}
	return data, nil
}
