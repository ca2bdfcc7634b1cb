package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	got, err := ExpandHome("~/models/x.gguf")
	if err != nil {
		t.Fatalf("ExpandHome: %v", err)
	}
	if got != filepath.Join(home, "models", "x.gguf") {
		t.Fatalf("unexpected expansion: %s", got)
	}
	if got, _ := ExpandHome("~"); got != home {
		t.Fatalf("expected home, got %s", got)
	}
	if got, _ := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Fatalf("absolute path must be unchanged, got %s", got)
	}
	if got, _ := ExpandHome(""); got != "" {
		t.Fatalf("empty path must be unchanged, got %s", got)
	}
}

func TestRegularFile(t *testing.T) {
	d := t.TempDir()
	if _, err := RegularFile(d); !errors.Is(err, ErrNotRegular) {
		t.Fatalf("expected ErrNotRegular for directory, got %v", err)
	}
	if _, err := RegularFile(filepath.Join(d, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	p := filepath.Join(d, "f")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := RegularFile(p); err != nil {
		t.Fatalf("RegularFile: %v", err)
	}
}

func TestReadPrefix(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(p, []byte("GGUFrest"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := ReadPrefix(p, 4)
	if err != nil || string(b) != "GGUF" {
		t.Fatalf("ReadPrefix = %q, %v", b, err)
	}
	short := filepath.Join(t.TempDir(), "short")
	if err := os.WriteFile(short, []byte("GG"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err = ReadPrefix(short, 4)
	if err != nil || string(b) != "GG" {
		t.Fatalf("short ReadPrefix = %q, %v", b, err)
	}
}
