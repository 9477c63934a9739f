package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Bluenyg/BuptManus/internal/cli/client"
	"github.com/Bluenyg/BuptManus/internal/cli/config"
	"github.com/Bluenyg/BuptManus/internal/session"
	"github.com/Bluenyg/BuptManus/pkg/logger"
)

// env bundles the pieces every command needs: loaded config, logger, API
// client, and the session store on top of it.
type env struct {
	cfg   *config.Config
	log   *slog.Logger
	api   *client.APIClient
	store *session.Store
}

// setup loads config and constructs the client stack. When quietLogs is set
// (interactive TUI), console log outputs are muted so log lines cannot tear
// the rendered screen; a configured log file still receives everything.
func setup(quietLogs bool) (*env, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flagServer != "" {
		cfg.Server.BaseURL = flagServer
	}

	logCfg := cfg.Log
	if quietLogs && (logCfg.Output == "stdout" || logCfg.Output == "stderr") {
		logCfg.Output = "discard"
	}
	log, err := logger.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	logger.UseForHertz(log)

	api, err := client.NewAPIClient(cfg.Server.BaseURL, cfg.Server.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &env{
		cfg:   cfg,
		log:   log,
		api:   api,
		store: session.NewStore(api, api, log),
	}, nil
}

// commandContext returns the base context for one command invocation, with
// the request-scoped logger attached for the layers below.
func (e *env) commandContext() context.Context {
	return logger.WithContext(context.Background(), e.log)
}

// chatOptions merges config defaults with per-command flag overrides.
func (e *env) chatOptions(deepThinking, searchPlan, debug bool) session.Options {
	opts := session.Options{
		DeepThinking:         e.cfg.Chat.DeepThinkingMode,
		SearchBeforePlanning: e.cfg.Chat.SearchBeforePlanning,
		Debug:                e.cfg.Chat.Debug,
	}
	if deepThinking {
		opts.DeepThinking = true
	}
	if searchPlan {
		opts.SearchBeforePlanning = true
	}
	if debug {
		opts.Debug = true
	}
	return opts
}
