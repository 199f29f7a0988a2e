package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoggerContextRoundTrip(t *testing.T) {
	l := newLogger(&bytes.Buffer{}, log.DebugLevel)
	ctx := withLogger(context.Background(), l)

	if got := loggerFromContext(ctx); got != l {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestLoggerFromContextFallback(t *testing.T) {
	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("loggerFromContext should fall back to the default logger")
	}
}

func TestRootCommandAttachesLogger(t *testing.T) {
	c := newTestCLI()
	root := c.RootCommand()

	root.PersistentPreRun(root, nil)

	if got := loggerFromContext(root.Context()); got != c.Logger {
		t.Error("PersistentPreRun should attach the CLI logger to the command context")
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)

	p := newProgress(l)
	p.done("Rendered tikz.svg")

	out := buf.String()
	if !strings.Contains(out, "Rendered tikz.svg") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "(") || !strings.Contains(out, "s)") {
		t.Errorf("output missing elapsed duration: %q", out)
	}
}
