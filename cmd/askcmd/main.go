package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"askcmd/internal/events"
	"askcmd/internal/inference"
	"askcmd/internal/report"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK        = 0
	exitFailure   = 1
	exitConfig    = 2
	exitModelLoad = 3
	exitInference = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], defaultApp(os.Getenv, os.Stdout, os.Stderr))
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, a *app) int {
	if args == nil {
		// cobra falls back to os.Args when given nil
		args = []string{}
	}
	root := newRootCmd(a)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		report.Error(a.stderr, err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case inference.IsConfiguration(err):
		return exitConfig
	case inference.IsModelLoad(err):
		return exitModelLoad
	case inference.IsInference(err):
		return exitInference
	default:
		return exitFailure
	}
}

// app holds the process collaborators so tests can swap the engine.
type app struct {
	getenv     func(string) string
	stdout     io.Writer
	stderr     io.Writer
	newAdapter adapterFactory
	// observer, when set, receives every lifecycle event next to the metrics.
	observer   events.Publisher
}

func defaultApp(getenv func(string) string, stdout, stderr io.Writer) *app {
	return &app{getenv: getenv, stdout: stdout, stderr: stderr, newAdapter: engineAdapter}
}
