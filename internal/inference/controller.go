package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"askcmd/internal/engine"
	"askcmd/internal/events"
)

// DefaultBudget is the token budget used when none is configured.
const DefaultBudget = 1024

// avgTokenBytes sizes the output buffer from the budget; the pre-size is
// capped at maxPresizeTokens so a large budget cannot overflow or exhaust memory.
const (
	avgTokenBytes    = 4
	maxPresizeTokens = 4096
)

// ControllerConfig carries the per-request parameters of a Controller.
type ControllerConfig struct {
	// Budget is the maximum number of tokens the engine may generate.
	Budget int
	// Seed is handed to the sampler; zero lets the engine choose.
	Seed int
	// Sink receives every token as soon as it is produced. May be nil.
	Sink      io.Writer
	Publisher events.Publisher
	Logger    zerolog.Logger
	RunID     string
}

// Controller runs one generation request and owns the accumulated output.
type Controller struct {
	session   engine.Session
	budget    int
	seed      int
	sink      io.Writer
	publisher events.Publisher
	log       zerolog.Logger
	runID     string

	state       State
	out         strings.Builder
	tokens      int
	diagnostics int
}

// NewController returns an idle controller bound to session.
func NewController(session engine.Session, cfg ControllerConfig) *Controller {
	budget := cfg.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	sink := cfg.Sink
	if sink == nil {
		sink = io.Discard
	}
	return &Controller{
		session:   session,
		budget:    budget,
		seed:      cfg.Seed,
		sink:      sink,
		publisher: events.OrNoop(cfg.Publisher),
		log:       cfg.Logger,
		runID:     cfg.RunID,
		state:     StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Run issues one generation request for prompt and consumes the stream until
// the end marker, budget exhaustion or a failure. On failure the partial
// output is discarded and an InferenceError is returned.
func (c *Controller) Run(ctx context.Context, prompt string) (Result, error) {
	if c.state != StateIdle {
		return Result{State: c.state}, ErrInference(fmt.Errorf("controller already used (state %s)", c.state))
	}
	c.state = StateGenerating
	start := time.Now()
	c.out.Grow(min(c.budget, maxPresizeTokens) * avgTokenBytes)
	c.log.Debug().Int("budget", c.budget).Int("prompt_bytes", len(prompt)).Msg("generation started")

	req := engine.Request{Prompt: prompt, MaxTokens: c.budget, Seed: c.seed}
	for ev, err := range c.session.Generate(ctx, req) {
		if err != nil {
			return c.fail(err, start)
		}
		fb, err := c.handle(ev)
		if err != nil {
			return c.fail(err, start)
		}
		if fb == engine.Halt {
			c.state = StateHalted
			break
		}
	}
	if c.state == StateGenerating {
		// An engine that stops quietly on cancellation must not pass for exhaustion.
		if err := ctx.Err(); err != nil {
			return c.fail(err, start)
		}
		c.state = StateExhausted
	}
	return c.finish(start), nil
}

// handle applies the feedback policy to one event.
func (c *Controller) handle(ev engine.Event) (engine.Feedback, error) {
	switch ev := ev.(type) {
	case engine.Token:
		c.out.WriteString(ev.Text)
		c.tokens++
		if _, err := io.WriteString(c.sink, ev.Text); err != nil {
			return engine.Halt, fmt.Errorf("write token: %w", err)
		}
		return engine.Continue, nil
	case engine.EndOfSequence:
		return engine.Halt, nil
	case engine.Diagnostic:
		c.diagnostics++
		c.log.Debug().Str("name", ev.Name).Str("detail", ev.Detail).Msg("engine diagnostic")
		c.publisher.Publish(events.Event{
			Name:   events.Diagnostic,
			RunID:  c.runID,
			Fields: map[string]any{"name": ev.Name, "detail": ev.Detail},
		})
		return engine.Continue, nil
	default:
		return engine.Halt, fmt.Errorf("unknown engine event %T", ev)
	}
}

func (c *Controller) fail(err error, start time.Time) (Result, error) {
	c.state = StateFailed
	c.out.Reset()
	res := Result{State: StateFailed, Tokens: c.tokens, Diagnostics: c.diagnostics, Duration: time.Since(start)}
	c.publishEnd(res)
	c.log.Debug().Err(err).Int("tokens", c.tokens).Bool("cancelled", errors.Is(err, context.Canceled)).Msg("generation failed")
	return res, ErrInference(err)
}

func (c *Controller) finish(start time.Time) Result {
	res := Result{
		Text:        c.out.String(),
		State:       c.state,
		Tokens:      c.tokens,
		Diagnostics: c.diagnostics,
		Duration:    time.Since(start),
	}
	c.publishEnd(res)
	c.log.Debug().Str("state", string(res.State)).Int("tokens", res.Tokens).Dur("took", res.Duration).Msg("generation finished")
	return res
}

func (c *Controller) publishEnd(res Result) {
	c.publisher.Publish(events.Event{
		Name:  events.GenerationEnded,
		RunID: c.runID,
		Fields: map[string]any{
			"state":       string(res.State),
			"tokens":      res.Tokens,
			"diagnostics": res.Diagnostics,
			"seconds":     res.Duration.Seconds(),
		},
	})
}
