package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"askcmd/internal/config"
	"askcmd/internal/engine"
	"askcmd/internal/events"
	"askcmd/internal/inference"
	"askcmd/internal/logging"
	"askcmd/internal/prompt"
	"askcmd/internal/report"
)

type adapterFactory func(cfg config.Config, log zerolog.Logger, pub events.Publisher) (engine.Adapter, error)

func engineAdapter(cfg config.Config, log zerolog.Logger, pub events.Publisher) (engine.Adapter, error) {
	return engine.NewAdapter(cfg.Backend, cfg.EngineParams(), cfg.ServerOptions(), log, pub)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "askcmd [query...]",
		Short: "Ask a local model for a single shell command",
		Long: `askcmd turns a natural-language request into one shell command using a
local GGUF model. Tokens are printed as they are generated, then the whole
command is printed again on its own line.

Environment:
  MODEL_PATH        path to the GGUF model file (required)
  ASKCMD_CONFIG     optional .yaml/.json/.toml file with engine settings
  ASKCMD_LOG_LEVEL  debug|info|warn|error|off (default info)`,
		Example:       "  MODEL_PATH=~/models/llama-2-7b-chat.Q4_K_M.gguf askcmd find files larger than 1G",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.query(cmd.Context(), args)
		},
	}
	// Stop flag parsing at the first query word so "-la" style words pass through.
	root.Flags().SetInterspersed(false)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetVersionTemplate(fmt.Sprintf("askcmd {{.Version}} (in-process llama: %t)\n", engine.LlamaBuilt()))
	return root
}

// query runs one end-to-end generation for the given words.
func (a *app) query(ctx context.Context, words []string) error {
	cfg, err := config.FromEnv(a.getenv)
	if err != nil {
		return inference.ErrConfiguration(err)
	}
	log, err := logging.New(a.stderr, cfg.LogLevel)
	if err != nil {
		return inference.ErrConfiguration(err)
	}
	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()

	reg := prometheus.NewRegistry()
	metrics := inference.NewMetrics(reg)
	defer inference.LogMetrics(log, reg)
	pub := events.Multi{metrics, a.observer}

	adapter, err := a.newAdapter(cfg, log, pub)
	if err != nil {
		return inference.ErrConfiguration(err)
	}
	rep := report.New(a.stdout)
	r := &inference.Runner{
		Adapter:   adapter,
		Assembler: prompt.New(cfg.Instruction),
		Budget:    cfg.MaxTokens,
		Seed:      cfg.Seed,
		Sink:      rep,
		Publisher: pub,
		Logger:    log,
		RunID:     runID,
	}
	query := prompt.JoinQuery(words)
	log.Debug().Str("backend", cfg.Backend).Str("model", cfg.ModelPath).Str("query", query).Msg("query")

	res, err := r.Run(ctx, cfg.ModelPath, query)
	if err != nil {
		rep.Abort()
		return err
	}
	if res.Truncated() {
		log.Warn().Int("budget", cfg.MaxTokens).Msg("token budget exhausted; command may be truncated")
	}
	return rep.Final(res.Text)
}
