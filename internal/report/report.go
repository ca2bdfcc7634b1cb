// Package report prints generated text as it streams and the final command.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter streams tokens to out and prints the final command.
// It implements io.Writer so it can serve as the controller's token sink.
type Reporter struct {
	out      io.Writer
	streamed bool
}

// New returns a Reporter writing to out, normally stdout.
func New(out io.Writer) *Reporter { return &Reporter{out: out} }

// Write forwards a token fragment to out without buffering.
func (r *Reporter) Write(p []byte) (int, error) {
	n, err := r.out.Write(p)
	if n > 0 {
		r.streamed = true
	}
	return n, err
}

// Final ends the streamed line and prints the complete command once more.
func (r *Reporter) Final(text string) error {
	if err := r.endLine(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(r.out, text)
	return err
}

// Abort ends a partially streamed line. Nothing else reaches out.
func (r *Reporter) Abort() {
	_ = r.endLine()
}

func (r *Reporter) endLine() error {
	if !r.streamed {
		return nil
	}
	r.streamed = false
	_, err := fmt.Fprintln(r.out)
	return err
}

var errPrefix = color.New(color.FgRed, color.Bold)

// Error prints err as a single line on w.
func Error(w io.Writer, err error) {
	errPrefix.Fprint(w, "error:")
	fmt.Fprintf(w, " %v\n", err)
}
