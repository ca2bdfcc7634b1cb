//go:build !llama

package engine

// This file is compiled when the 'llama' build tag is NOT set, keeping default
// builds CGO-free. The real adapter lives in llama.go.

import (
	"context"

	"github.com/rs/zerolog"
)

const llamaBuilt = false

type llamaAdapter struct{}

// NewLlamaAdapter returns a stub that refuses to load models.
func NewLlamaAdapter(Params, zerolog.Logger) Adapter { return llamaAdapter{} }

func (llamaAdapter) Load(context.Context, string) (Session, error) {
	return nil, ErrDependencyUnavailable("llama backend not built (missing 'llama' build tag)")
}
