package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"askcmd/internal/engine"
	"askcmd/internal/inference"
	"askcmd/internal/logging"
)

// Environment variables read at startup.
const (
	EnvModelPath = "MODEL_PATH"
	EnvConfig    = "ASKCMD_CONFIG"
	EnvLogLevel  = "ASKCMD_LOG_LEVEL"
)

// ErrMissingModelPath is returned when MODEL_PATH is unset or blank.
var ErrMissingModelPath = errors.New(EnvModelPath + " env var not set")

// Config holds runtime parameters. ModelPath only ever comes from MODEL_PATH;
// everything else may be set in the optional config file.
type Config struct {
	ModelPath string `json:"-" yaml:"-" toml:"-"`

	Backend       string   `json:"backend" yaml:"backend" toml:"backend"`
	ContextSize   int      `json:"context_size" yaml:"context_size" toml:"context_size"`
	GPULayers     int      `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	Threads       int      `json:"threads" yaml:"threads" toml:"threads"`
	MMap          bool     `json:"mmap" yaml:"mmap" toml:"mmap"`
	MaxTokens     int      `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Seed          int      `json:"seed" yaml:"seed" toml:"seed"`
	Temperature   float32  `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP          float32  `json:"top_p" yaml:"top_p" toml:"top_p"`
	TopK          int      `json:"top_k" yaml:"top_k" toml:"top_k"`
	RepeatPenalty float32  `json:"repeat_penalty" yaml:"repeat_penalty" toml:"repeat_penalty"`
	LlamaBin      string   `json:"llama_bin" yaml:"llama_bin" toml:"llama_bin"`
	LlamaHost     string   `json:"llama_host" yaml:"llama_host" toml:"llama_host"`
	ServerURL     string   `json:"server_url" yaml:"server_url" toml:"server_url"`
	ReadyTimeout  int      `json:"ready_timeout_sec" yaml:"ready_timeout_sec" toml:"ready_timeout_sec"`
	ExtraArgs     []string `json:"llama_args" yaml:"llama_args" toml:"llama_args"`
	LogLevel      string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	Instruction   string   `json:"instruction" yaml:"instruction" toml:"instruction"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	p := engine.DefaultParams()
	return Config{
		Backend:      engine.BackendServer,
		ContextSize:  p.ContextSize,
		GPULayers:    p.GPULayers,
		MMap:         p.MMap,
		MaxTokens:    inference.DefaultBudget,
		ReadyTimeout: 60,
		LogLevel:     "info",
	}
}

// Load reads a configuration file based on its extension on top of Defaults.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Defaults()
	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	if path == "" {
		return fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	case ".json":
		err = json.Unmarshal(b, cfg)
	case ".toml":
		err = toml.Unmarshal(b, cfg)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// FromEnv builds the configuration from the environment: defaults, then the
// file named by ASKCMD_CONFIG, then ASKCMD_LOG_LEVEL and MODEL_PATH.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Defaults()
	if p := strings.TrimSpace(getenv(EnvConfig)); p != "" {
		if err := decodeFile(p, &cfg); err != nil {
			return cfg, err
		}
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	cfg.ModelPath = strings.TrimSpace(getenv(EnvModelPath))
	if cfg.ModelPath == "" {
		return cfg, ErrMissingModelPath
	}
	return cfg, cfg.Validate()
}

// Validate rejects values no backend can run with.
func (c Config) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.ContextSize <= 0 {
		return fmt.Errorf("context_size must be positive, got %d", c.ContextSize)
	}
	if c.MaxTokens >= c.ContextSize {
		return fmt.Errorf("max_tokens (%d) must be below context_size (%d)", c.MaxTokens, c.ContextSize)
	}
	switch c.Backend {
	case engine.BackendServer, engine.BackendLlama:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.ReadyTimeout < 0 {
		return fmt.Errorf("ready_timeout_sec must not be negative")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// EngineParams projects the load and sampling options.
func (c Config) EngineParams() engine.Params {
	return engine.Params{
		ContextSize:   c.ContextSize,
		GPULayers:     c.GPULayers,
		Threads:       c.Threads,
		MMap:          c.MMap,
		Temperature:   c.Temperature,
		TopP:          c.TopP,
		TopK:          c.TopK,
		RepeatPenalty: c.RepeatPenalty,
	}
}

// ServerOptions projects the llama-server options.
func (c Config) ServerOptions() engine.ServerOptions {
	return engine.ServerOptions{
		Bin:          c.LlamaBin,
		Host:         c.LlamaHost,
		URL:          c.ServerURL,
		ReadyTimeout: time.Duration(c.ReadyTimeout) * time.Second,
		ExtraArgs:    c.ExtraArgs,
	}
}
