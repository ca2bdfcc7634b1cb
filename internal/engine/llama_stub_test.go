//go:build !llama

package engine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestLlamaStubRefusesToLoad(t *testing.T) {
	if LlamaBuilt() {
		t.Fatalf("stub build must report llama as not built")
	}
	a := NewLlamaAdapter(DefaultParams(), zerolog.Nop())
	sess, err := a.Load(context.Background(), "/models/x.gguf")
	if sess != nil || !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency-unavailable error, got %v", err)
	}
}
