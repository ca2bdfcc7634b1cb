package inference

import "time"

// State is the controller lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateHalted     State = "halted"
	StateExhausted  State = "exhausted"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateHalted || s == StateExhausted || s == StateFailed
}

// Result is the outcome of one generation. Text is only set for the halted
// and exhausted states.
type Result struct {
	Text        string
	State       State
	Tokens      int
	Diagnostics int
	Duration    time.Duration
}

// Truncated reports whether the token budget ran out before the end marker.
func (r Result) Truncated() bool { return r.State == StateExhausted }
