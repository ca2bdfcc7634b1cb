//go:build llama

package engine

import (
	"context"
	"errors"
	"iter"
	"time"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"
)

// llamaBuilt indicates this binary was compiled with in-process llama support.
const llamaBuilt = true

type llamaAdapter struct {
	params Params
	log    zerolog.Logger
}

// NewLlamaAdapter returns the in-process go-llama.cpp adapter.
func NewLlamaAdapter(params Params, log zerolog.Logger) Adapter {
	return &llamaAdapter{params: params, log: log.With().Str("adapter", "llama").Logger()}
}

func (a *llamaAdapter) Load(ctx context.Context, modelPath string) (Session, error) {
	path, err := CheckModelFile(modelPath)
	if err != nil {
		return nil, err
	}
	mo := []llama.ModelOption{
		llama.SetContext(a.params.ContextSize),
		llama.SetMMap(a.params.MMap),
	}
	if a.params.GPULayers > 0 {
		mo = append(mo, llama.SetGPULayers(a.params.GPULayers))
	}
	a.log.Info().Str("model", path).Int("ctx", a.params.ContextSize).Int("gpu_layers", a.params.GPULayers).Msg("loading model")
	start := time.Now()
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	a.log.Info().Dur("took", time.Since(start)).Msg("model loaded")
	return &llamaSession{model: m, params: a.params}, nil
}

type llamaSession struct {
	model  *llama.LLama
	params Params
}

func (s *llamaSession) Generate(ctx context.Context, req Request) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		if s.model == nil {
			yield(nil, errors.New("llama model not initialized"))
			return
		}
		var produced int
		halted := false
		// The callback runs on this goroutine; returning false stops Predict.
		s.model.SetTokenCallback(func(tok string) bool {
			if halted || ctx.Err() != nil {
				return false
			}
			produced++
			var ev Event = Token{Text: tok}
			if tok == "" {
				ev = Diagnostic{Name: "empty_token"}
			}
			if !yield(ev, nil) {
				halted = true
				return false
			}
			return true
		})
		_, err := s.model.Predict(req.Prompt, predictOptions(s.params, req)...)
		if halted {
			return
		}
		if ctx.Err() != nil {
			yield(nil, ctx.Err())
			return
		}
		if err != nil {
			yield(nil, err)
			return
		}
		// Predict returned before the budget: the model emitted its end token.
		if produced < req.MaxTokens {
			yield(EndOfSequence{}, nil)
		}
	}
}

func (s *llamaSession) Close() error {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// predictOptions converts params and the request into go-llama.cpp options.
func predictOptions(p Params, req Request) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, req.MaxTokens)),
		llama.SetThreads(zn(p.Threads, llama.DefaultOptions.Threads)),
		llama.SetTopP(zf(p.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(p.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(p.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(zf(p.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if req.Seed != 0 {
		po = append(po, llama.SetSeed(req.Seed))
	}
	return po
}
