package engine

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"askcmd/internal/common/fsutil"
)

var ggufMagic = []byte("GGUF")

// CheckModelFile resolves path and verifies it names a readable GGUF file.
// It returns the absolute path.
func CheckModelFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("model path is empty")
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}
	if _, err := fsutil.RegularFile(abs); err != nil {
		return "", err
	}
	head, err := fsutil.ReadPrefix(abs, len(ggufMagic))
	if err != nil {
		return "", fmt.Errorf("read model header: %w", err)
	}
	if !bytes.Equal(head, ggufMagic) {
		return "", fmt.Errorf("%s: %w", abs, ErrUnknownFormat)
	}
	return abs, nil
}
