package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "backend: llama\ncontext_size: 4096\ngpu_layers: 0\nmax_tokens: 64\nllama_args: [\"--flash-attn\"]\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != "llama" || cfg.ContextSize != 4096 || cfg.GPULayers != 0 || cfg.MaxTokens != 64 || len(cfg.ExtraArgs) != 1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.ReadyTimeout != 60 {
		t.Fatalf("unset keys must keep defaults: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"server_url":"http://127.0.0.1:8080","temperature":0.2,"top_p":0.9,"seed":42}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "http://127.0.0.1:8080" || cfg.Temperature != 0.2 || cfg.TopP != 0.9 || cfg.Seed != 42 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "llama_bin=\"/opt/llama/llama-server\"\nthreads=8\nmmap=true\nready_timeout_sec=5\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LlamaBin != "/opt/llama/llama-server" || cfg.Threads != 8 || !cfg.MMap || cfg.ReadyTimeout != 5 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if got := cfg.ServerOptions().ReadyTimeout; got != 5*time.Second {
		t.Fatalf("ready timeout = %v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestModelPathIgnoredInFile(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "model_path: /from/file.gguf\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ModelPath != "" {
		t.Fatalf("model path must only come from the environment, got %q", cfg.ModelPath)
	}
}

func TestFromEnv(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "max_tokens: 128\nlog_level: warn\n")
	cfg, err := FromEnv(env(map[string]string{
		EnvModelPath: " /models/llama-2-7b-chat.Q4_K_M.gguf ",
		EnvConfig:    p,
		EnvLogLevel:  "debug",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ModelPath != "/models/llama-2-7b-chat.Q4_K_M.gguf" {
		t.Fatalf("unexpected model path %q", cfg.ModelPath)
	}
	if cfg.MaxTokens != 128 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{EnvModelPath: "/m.gguf"}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Backend != "server" || cfg.MaxTokens != 1024 || cfg.ContextSize != 2048 || cfg.MMap {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	p := cfg.EngineParams()
	if p.ContextSize != 2048 || p.GPULayers != cfg.GPULayers {
		t.Fatalf("unexpected params: %+v", p)
	}
}
