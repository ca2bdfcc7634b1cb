package inference

import (
	"errors"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("cause")
	cases := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"configuration", ErrConfiguration(cause), IsConfiguration},
		{"model load", ErrModelLoad("/m.gguf", cause), IsModelLoad},
		{"inference", ErrInference(cause), IsInference},
	}
	for _, c := range cases {
		if !c.is(c.err) {
			t.Fatalf("%s: helper did not match", c.name)
		}
		if !errors.Is(c.err, cause) {
			t.Fatalf("%s: cause not reachable", c.name)
		}
		wrapped := errors.Join(errors.New("outer"), c.err)
		if !c.is(wrapped) {
			t.Fatalf("%s: helper must see through wrapping", c.name)
		}
	}
	if IsInference(ErrModelLoad("/m", cause)) || IsModelLoad(ErrConfiguration(cause)) {
		t.Fatalf("kinds must not overlap")
	}
}
