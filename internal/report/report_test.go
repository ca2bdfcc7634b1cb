package report

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestReporter_StreamThenFinal(t *testing.T) {
	var out bytes.Buffer
	r := New(&out)
	for _, tok := range []string{"ls", " -la"} {
		if _, err := io.WriteString(r, tok); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if out.String() != "ls -la" {
		t.Fatalf("tokens must be written immediately, got %q", out.String())
	}
	if err := r.Final("ls -la"); err != nil {
		t.Fatalf("Final: %v", err)
	}
	if out.String() != "ls -la\nls -la\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestReporter_FinalWithoutTokens(t *testing.T) {
	var out bytes.Buffer
	r := New(&out)
	if err := r.Final(""); err != nil {
		t.Fatalf("Final: %v", err)
	}
	if out.String() != "\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestReporter_AbortPrintsNoResult(t *testing.T) {
	var out bytes.Buffer
	r := New(&out)
	_, _ = io.WriteString(r, "rm")
	r.Abort()
	if out.String() != "rm\n" {
		t.Fatalf("abort must only end the open line, got %q", out.String())
	}
	r.Abort()
	if out.String() != "rm\n" {
		t.Fatalf("second abort must be a no-op, got %q", out.String())
	}
}

func TestError(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var w bytes.Buffer
	Error(&w, errors.New("MODEL_PATH env var not set"))
	if got := w.String(); got != "error: MODEL_PATH env var not set\n" {
		t.Fatalf("unexpected error line %q", got)
	}
	if strings.Count(w.String(), "\n") != 1 {
		t.Fatalf("error must be a single line")
	}
}
