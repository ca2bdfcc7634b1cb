// Package logging builds the zerolog logger used for diagnostics on stderr.
// Standard output is reserved for generated text.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// ParseLevel maps a config string onto a zerolog level. Empty means info and
// "off" disables logging.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return zerolog.InfoLevel, nil
	case "off":
		return zerolog.Disabled, nil
	}
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
}

// New returns a console logger writing to w at level.
func New(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	cw := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    color.NoColor,
	}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger(), nil
}
