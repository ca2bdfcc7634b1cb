package engine

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog"

	"askcmd/internal/events"
)

// Backend names accepted by NewAdapter.
const (
	BackendServer = "server"
	BackendLlama  = "llama"
)

// Adapter loads a model and hands out a generation session for it.
type Adapter interface {
	// Load validates and loads the model at modelPath. It may take seconds.
	Load(ctx context.Context, modelPath string) (Session, error)
}

// Session is a loaded model plus its mutable generation state.
type Session interface {
	// Generate returns a forward-only stream of events for one request.
	// Continuing the range loop is Continue; breaking out of it is Halt and
	// the engine stops producing. The stream ends without an EndOfSequence
	// when the token budget is spent. A failure is yielded once as a non-nil
	// error and ends the stream.
	Generate(ctx context.Context, req Request) iter.Seq2[Event, error]
	// Close releases the model and any engine process.
	Close() error
}

// Request is one generation call.
type Request struct {
	Prompt    string
	MaxTokens int
	// Seed feeds the sampler only. Zero lets the engine pick one.
	Seed int
}

// Params are load and sampling options shared by every backend.
type Params struct {
	ContextSize   int
	GPULayers     int
	Threads       int
	MMap          bool
	Temperature   float32
	TopP          float32
	TopK          int
	RepeatPenalty float32
}

// DefaultParams mirrors the defaults the tool has always shipped with:
// a 2048 token context, full GPU offload and no mmap.
func DefaultParams() Params {
	return Params{
		ContextSize: 2048,
		GPULayers:   99,
	}
}

// ServerOptions configure the llama-server backend.
type ServerOptions struct {
	// Bin is the llama-server binary; discovered when empty.
	Bin  string
	Host string
	// URL attaches to an already running server instead of spawning one.
	URL          string
	ReadyTimeout time.Duration
	ExtraArgs    []string
}

// LlamaBuilt reports whether the in-process llama backend was compiled in.
func LlamaBuilt() bool { return llamaBuilt }

// NewAdapter returns the adapter for backend.
func NewAdapter(backend string, params Params, opts ServerOptions, log zerolog.Logger, pub events.Publisher) (Adapter, error) {
	switch backend {
	case "", BackendServer:
		return NewServerAdapter(params, opts, log, pub), nil
	case BackendLlama:
		return NewLlamaAdapter(params, log), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", backend, BackendServer, BackendLlama)
	}
}
