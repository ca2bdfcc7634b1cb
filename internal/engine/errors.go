package engine

import "errors"

// dependencyUnavailableError signals a missing external dependency such as the
// llama-server binary or a binary built without the llama tag.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// ErrUnknownFormat is returned for files that do not carry the GGUF magic.
var ErrUnknownFormat = errors.New("not a recognized model format (expected GGUF)")
