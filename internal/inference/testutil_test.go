package inference

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"askcmd/internal/engine"
)

// fakeSession replays a fixed event script. It enforces the token budget the
// way a real engine does and records how the consumer drove it.
type fakeSession struct {
	script []engine.Event
	// failAt yields failErr before script[failAt]; -1 disables.
	failAt  int
	failErr error

	req      engine.Request
	pulled   int
	halted   bool
	closed   bool
	generate int
}

func newFakeSession(script ...engine.Event) *fakeSession {
	return &fakeSession{script: script, failAt: -1}
}

func (s *fakeSession) Generate(ctx context.Context, req engine.Request) iter.Seq2[engine.Event, error] {
	s.generate++
	s.req = req
	return func(yield func(engine.Event, error) bool) {
		tokens := 0
		for i, ev := range s.script {
			if i == s.failAt {
				yield(nil, s.failErr)
				return
			}
			if _, ok := ev.(engine.Token); ok {
				if tokens >= req.MaxTokens {
					return
				}
				tokens++
			}
			s.pulled++
			if !yield(ev, nil) {
				s.halted = true
				return
			}
		}
		if s.failAt >= len(s.script) {
			yield(nil, s.failErr)
		}
	}
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// fakeAdapter hands out a prepared session.
type fakeAdapter struct {
	sess       *fakeSession
	loadErr    error
	receivedMP string
}

func (a *fakeAdapter) Load(ctx context.Context, modelPath string) (engine.Session, error) {
	a.receivedMP = modelPath
	if a.loadErr != nil {
		return nil, a.loadErr
	}
	return a.sess, nil
}

// errWriter writes once, then returns an error on subsequent writes.
type errWriter struct{ wrote int }

func (e *errWriter) Write(p []byte) (int, error) {
	if e.wrote == 0 {
		e.wrote += len(p)
		return len(p), nil
	}
	return 0, errors.New("write fail")
}

func tok(s string) engine.Event { return engine.Token{Text: s} }

func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
