package inference

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"askcmd/internal/engine"
	"askcmd/internal/events"
	"askcmd/internal/prompt"
)

// Runner performs one end-to-end query: load, assemble, generate.
type Runner struct {
	Adapter   engine.Adapter
	Assembler prompt.Assembler
	Budget    int
	Seed      int
	// Sink receives tokens as they are generated.
	Sink      io.Writer
	Publisher events.Publisher
	Logger    zerolog.Logger
	RunID     string
}

// Run loads modelPath, generates a command for query and releases the model.
// Load failures are ModelLoadErrors; generation failures are InferenceErrors.
func (r *Runner) Run(ctx context.Context, modelPath, query string) (Result, error) {
	pub := events.OrNoop(r.Publisher)
	start := time.Now()
	sess, err := r.Adapter.Load(ctx, modelPath)
	if err != nil {
		return Result{State: StateIdle}, ErrModelLoad(modelPath, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			r.Logger.Warn().Err(cerr).Msg("close session")
		}
	}()
	took := time.Since(start)
	r.Logger.Debug().Str("model", modelPath).Dur("took", took).Msg("model loaded")
	pub.Publish(events.Event{Name: events.ModelLoaded, RunID: r.RunID, Fields: map[string]any{"model": modelPath, "seconds": took.Seconds()}})

	ctrl := NewController(sess, ControllerConfig{
		Budget:    r.Budget,
		Seed:      r.Seed,
		Sink:      r.Sink,
		Publisher: pub,
		Logger:    r.Logger,
		RunID:     r.RunID,
	})
	return ctrl.Run(ctx, r.Assembler.Assemble(query))
}
