package latex

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tikzkit/tikzkit/pkg/errors"
)

func TestBuildEnv(t *testing.T) {
	sep := string(os.PathListSeparator)

	t.Run("without existing TEXINPUTS", func(t *testing.T) {
		env := buildEnv([]string{"HOME=/home/u"}, "/work")
		want := "TEXINPUTS=." + sep + "/work" + sep + sep
		found := false
		for _, kv := range env {
			if kv == want {
				found = true
			}
		}
		if !found {
			t.Errorf("env = %v, want entry %q", env, want)
		}
	})

	t.Run("with existing TEXINPUTS", func(t *testing.T) {
		env := buildEnv([]string{"TEXINPUTS=/texmf"}, "/work")
		want := "TEXINPUTS=/work" + sep + "/texmf"
		if len(env) != 1 || env[0] != want {
			t.Errorf("env = %v, want [%q]", env, want)
		}
	})

	t.Run("other variables pass through", func(t *testing.T) {
		env := buildEnv([]string{"PATH=/bin", "LANG=C"}, "/work")
		if env[0] != "PATH=/bin" || env[1] != "LANG=C" {
			t.Errorf("env = %v", env)
		}
	})
}

func TestEncodeDocument(t *testing.T) {
	t.Run("utf-8 passthrough", func(t *testing.T) {
		data, err := encodeDocument("héllo", "utf-8")
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if string(data) != "héllo" {
			t.Errorf("data = %q", data)
		}
	})

	t.Run("empty charset passthrough", func(t *testing.T) {
		data, err := encodeDocument("plain", "")
		if err != nil || string(data) != "plain" {
			t.Errorf("data = %q, err = %v", data, err)
		}
	})

	t.Run("latin1", func(t *testing.T) {
		data, err := encodeDocument("é", "latin1")
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if len(data) != 1 || data[0] != 0xE9 {
			t.Errorf("data = %v, want [0xE9]", data)
		}
	})

	t.Run("unknown charset", func(t *testing.T) {
		_, err := encodeDocument("x", "not-a-charset")
		if !errors.Is(err, errors.ErrCodeInvalidEncoding) {
			t.Errorf("err = %v, want INVALID_ENCODING", err)
		}
	})
}

func TestCompileMissingBinary(t *testing.T) {
	r := NewRunner("definitely-not-a-latex-binary", nil)
	err := r.Compile(context.Background(), "\\documentclass{standalone}", t.TempDir(), "")
	if !errors.Is(err, errors.ErrCodeToolNotFound) {
		t.Errorf("err = %v, want TOOL_NOT_FOUND", err)
	}
}

func TestCompileFailureCarriesDiagnostics(t *testing.T) {
	// "false" exists everywhere and exits non-zero without reading
	// its arguments, standing in for a failing compiler.
	r := NewRunner("false", nil)
	dir := t.TempDir()
	doc := "\\documentclass{standalone}\n\\begin{document}x\\end{document}\n"

	err := r.Compile(context.Background(), doc, dir, "")
	if !errors.Is(err, errors.ErrCodeCompileFailed) {
		t.Fatalf("err = %v, want COMPILE_FAILED", err)
	}

	var cerr *CompileError
	if !stderrors.As(err, &cerr) {
		t.Fatalf("error chain lacks *CompileError: %v", err)
	}
	if !strings.Contains(cerr.Command, "--shell-escape") {
		t.Errorf("Command = %q, want shell-escape flag", cerr.Command)
	}
	if cerr.Document != doc {
		t.Errorf("Document not preserved")
	}

	diag := cerr.Diagnostics()
	for _, section := range []string{"command:", TexName + ":", "stdout:", "stderr:"} {
		if !strings.Contains(diag, section) {
			t.Errorf("Diagnostics missing %q:\n%s", section, diag)
		}
	}

	// The document must have been written before the compiler ran.
	if _, err := os.Stat(filepath.Join(dir, TexName)); err != nil {
		t.Errorf("tikz.tex not written: %v", err)
	}
}

func TestCompileSuccess(t *testing.T) {
	// "true" exits zero; the runner reports success even though no PDF
	// appears, matching the real compiler contract where artifact
	// presence is checked by the publisher.
	r := NewRunner("true", nil)
	if err := r.Compile(context.Background(), "x", t.TempDir(), ""); err != nil {
		t.Errorf("Compile = %v, want nil", err)
	}
}
