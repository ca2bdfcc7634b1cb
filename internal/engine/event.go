package engine

// Event is one step of a generation stream. The set of variants is closed:
// Token, EndOfSequence and Diagnostic are the only implementations.
type Event interface {
	isEvent()
}

// Token carries one inferred text fragment.
type Token struct {
	Text string
}

// EndOfSequence signals that the model considers its answer complete.
type EndOfSequence struct{}

// Diagnostic is engine bookkeeping that must not reach the output text.
type Diagnostic struct {
	Name   string
	Detail string
}

func (Token) isEvent()         {}
func (EndOfSequence) isEvent() {}
func (Diagnostic) isEvent()    {}

// Feedback is the consumer's decision after handling one event.
type Feedback int

const (
	// Continue asks the engine for the next event.
	Continue Feedback = iota
	// Halt stops generation; no further events are produced.
	Halt
)

func (f Feedback) String() string {
	switch f {
	case Continue:
		return "continue"
	case Halt:
		return "halt"
	default:
		return "unknown"
	}
}
