package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"askcmd/internal/events"
)

const (
	defaultReadyTimeout = 60 * time.Second
	healthPollInterval  = 100 * time.Millisecond
	stopGrace           = 2 * time.Second
	stderrTailBytes     = 4096
)

// serverAdapter runs generation against a llama.cpp server, either one it
// spawns for the model or one already listening at ServerOptions.URL.
type serverAdapter struct {
	params     Params
	opts       ServerOptions
	log        zerolog.Logger
	publisher  events.Publisher
	httpClient *http.Client
}

// NewServerAdapter constructs the llama-server backed adapter.
func NewServerAdapter(params Params, opts ServerOptions, log zerolog.Logger, pub events.Publisher) Adapter {
	if strings.TrimSpace(opts.Host) == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = defaultReadyTimeout
	}
	return &serverAdapter{
		params:    params,
		opts:      opts,
		log:       log.With().Str("adapter", "llama_server").Logger(),
		publisher: events.OrNoop(pub),
		// Timeout=0: every call carries its own context deadline.
		httpClient: &http.Client{Timeout: 0},
	}
}

func (a *serverAdapter) Load(ctx context.Context, modelPath string) (Session, error) {
	if u := strings.TrimSpace(a.opts.URL); u != "" {
		base := strings.TrimRight(u, "/")
		if err := a.waitReady(ctx, base, nil); err != nil {
			return nil, err
		}
		if a.params.TopK > 0 || a.params.RepeatPenalty > 0 {
			a.log.Warn().Int("top_k", a.params.TopK).Float32("repeat_penalty", a.params.RepeatPenalty).
				Msg("top_k and repeat_penalty are ignored when attaching to a running llama-server")
		}
		a.log.Info().Str("url", base).Msg("attached to llama-server")
		return a.newSession(base, nil), nil
	}
	path, err := CheckModelFile(modelPath)
	if err != nil {
		return nil, err
	}
	proc, err := a.spawn(ctx, path)
	if err != nil {
		return nil, err
	}
	return a.newSession(proc.baseURL, proc), nil
}

// serverProcess is a spawned llama-server. exited is closed once Wait returns;
// waitErr and stderr are only read after that.
type serverProcess struct {
	cmd     *exec.Cmd
	baseURL string
	stderr  bytes.Buffer
	exited  chan struct{}
	waitErr error
}

func (p *serverProcess) stderrTail() string {
	tail := p.stderr.String()
	if len(tail) > stderrTailBytes {
		tail = tail[len(tail)-stderrTailBytes:]
	}
	return strings.TrimSpace(tail)
}

// stop sends SIGTERM and falls back to SIGKILL after a grace period.
func (p *serverProcess) stop() {
	select {
	case <-p.exited:
		return
	default:
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-p.exited:
	case <-time.After(stopGrace):
		_ = p.cmd.Process.Kill()
		<-p.exited
	}
}

func (a *serverAdapter) spawn(ctx context.Context, modelPath string) (*serverProcess, error) {
	bin := strings.TrimSpace(a.opts.Bin)
	if bin == "" {
		bin = discoverLlamaBin()
	}
	if bin == "" {
		return nil, ErrDependencyUnavailable("llama-server not found: set llama_bin or install llama.cpp")
	}
	port, err := pickFreePort(a.opts.Host)
	if err != nil {
		return nil, err
	}
	baseURL := fmt.Sprintf("http://%s:%d", a.opts.Host, port)

	p := &serverProcess{baseURL: baseURL, exited: make(chan struct{})}
	p.cmd = exec.Command(bin, a.serverArgs(modelPath, port)...)
	p.cmd.Dir = filepath.Dir(modelPath)
	p.cmd.Stderr = &p.stderr
	if err := p.cmd.Start(); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
			return nil, ErrDependencyUnavailable(fmt.Sprintf("llama-server not found or not executable: %s", bin))
		}
		return nil, fmt.Errorf("start llama-server: %w", err)
	}
	go func() {
		p.waitErr = p.cmd.Wait()
		close(p.exited)
	}()
	pid := p.cmd.Process.Pid
	a.log.Info().Str("model", modelPath).Int("pid", pid).Str("url", baseURL).Msg("llama-server started, loading model")
	a.publisher.Publish(events.Event{Name: events.SpawnStart, Fields: map[string]any{"pid": pid, "url": baseURL, "model": modelPath}})

	start := time.Now()
	if err := a.waitReady(ctx, baseURL, p); err != nil {
		p.stop()
		return nil, err
	}
	a.log.Info().Int("pid", pid).Dur("took", time.Since(start)).Msg("llama-server ready")
	a.publisher.Publish(events.Event{Name: events.SpawnReady, Fields: map[string]any{"pid": pid, "url": baseURL}})
	return p, nil
}

func (a *serverAdapter) serverArgs(modelPath string, port int) []string {
	args := []string{
		"-m", modelPath,
		"--host", a.opts.Host,
		"--port", strconv.Itoa(port),
	}
	if a.params.ContextSize > 0 {
		args = append(args, "-c", strconv.Itoa(a.params.ContextSize))
	}
	if a.params.GPULayers > 0 {
		args = append(args, "-ngl", strconv.Itoa(a.params.GPULayers))
	}
	if a.params.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(a.params.Threads))
	}
	if !a.params.MMap {
		args = append(args, "--no-mmap")
	}
	// The completions API has no fields for these; they become server defaults.
	if a.params.TopK > 0 {
		args = append(args, "--top-k", strconv.Itoa(a.params.TopK))
	}
	if a.params.RepeatPenalty > 0 {
		args = append(args, "--repeat-penalty", strconv.FormatFloat(float64(a.params.RepeatPenalty), 'f', -1, 32))
	}
	return append(args, a.opts.ExtraArgs...)
}

// waitReady polls /health until it answers 2xx, the process exits, or the
// ready timeout passes. proc is nil when attaching to an external server.
func (a *serverAdapter) waitReady(ctx context.Context, baseURL string, proc *serverProcess) error {
	ctx, cancel := context.WithTimeout(ctx, a.opts.ReadyTimeout)
	defer cancel()
	var exited <-chan struct{}
	if proc != nil {
		exited = proc.exited
	}
	tick := time.NewTicker(healthPollInterval)
	defer tick.Stop()
	for {
		if a.healthy(ctx, baseURL) {
			return nil
		}
		select {
		case <-exited:
			a.publisher.Publish(events.Event{Name: events.SpawnExit, Fields: map[string]any{"url": baseURL, "before_ready": true}})
			if proc.waitErr != nil {
				return fmt.Errorf("llama-server exited early: %v; stderr tail: %s", proc.waitErr, proc.stderrTail())
			}
			return fmt.Errorf("llama-server exited before ready: %s", baseURL)
		case <-ctx.Done():
			return fmt.Errorf("llama-server not ready at %s: %w", baseURL, ctx.Err())
		case <-tick.C:
		}
	}
}

func (a *serverAdapter) healthy(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (a *serverAdapter) newSession(baseURL string, proc *serverProcess) *serverSession {
	cfg := openai.DefaultConfig("no-key")
	cfg.BaseURL = baseURL + "/v1"
	cfg.HTTPClient = a.httpClient
	return &serverSession{
		client:    openai.NewClientWithConfig(cfg),
		params:    a.params,
		proc:      proc,
		log:       a.log,
		publisher: a.publisher,
	}
}

type serverSession struct {
	client    *openai.Client
	params    Params
	proc      *serverProcess
	log       zerolog.Logger
	publisher events.Publisher
}

func (s *serverSession) Generate(ctx context.Context, req Request) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		creq := openai.CompletionRequest{
			Prompt:      req.Prompt,
			MaxTokens:   req.MaxTokens,
			Temperature: s.params.Temperature,
			TopP:        s.params.TopP,
			Stream:      true,
		}
		if req.Seed != 0 {
			seed := req.Seed
			creq.Seed = &seed
		}
		stream, err := s.client.CreateCompletionStream(ctx, creq)
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			yield(nil, fmt.Errorf("completion request: %w", err))
			return
		}
		// Closing the body on Halt tells the server to stop generating.
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				yield(nil, fmt.Errorf("completion stream: %w", err))
				return
			}
			evs, finished := chunkEvents(resp)
			for _, ev := range evs {
				if !yield(ev, nil) {
					return
				}
			}
			if finished {
				return
			}
		}
	}
}

// chunkEvents maps one streamed completion chunk onto engine events.
// finished reports that the server set a finish reason.
func chunkEvents(resp openai.CompletionResponse) (evs []Event, finished bool) {
	if len(resp.Choices) == 0 {
		return []Event{Diagnostic{Name: "empty_chunk"}}, false
	}
	c := resp.Choices[0]
	if c.Text != "" {
		evs = append(evs, Token{Text: c.Text})
	}
	switch c.FinishReason {
	case "":
		if c.Text == "" {
			evs = append(evs, Diagnostic{Name: "empty_chunk"})
		}
		return evs, false
	case "stop":
		evs = append(evs, EndOfSequence{})
	case "length":
		// budget spent: the stream ends without an end marker
	default:
		evs = append(evs, Diagnostic{Name: "finish_reason", Detail: c.FinishReason})
	}
	return evs, true
}

func (s *serverSession) Close() error {
	if s.proc == nil {
		return nil
	}
	s.proc.stop()
	s.log.Debug().Str("url", s.proc.baseURL).Msg("llama-server stopped")
	s.publisher.Publish(events.Event{Name: events.SpawnStop, Fields: map[string]any{"url": s.proc.baseURL}})
	s.proc = nil
	return nil
}

func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// discoverLlamaBin looks for llama-server in common install locations and PATH.
func discoverLlamaBin() string {
	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join(home, "apps", "llama.cpp", "build", "bin", "llama-server"),
		filepath.Join(home, ".local", "bin", "llama-server"),
		"/usr/local/bin/llama-server",
		"/opt/homebrew/bin/llama-server",
	}
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	if lp, err := exec.LookPath("llama-server"); err == nil {
		return lp
	}
	return ""
}
