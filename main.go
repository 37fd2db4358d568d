package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/deskmate-core-poc/server/internal/agent/contract"
	"github.com/deskmate-core-poc/server/internal/agent/model"
	"github.com/deskmate-core-poc/server/internal/agent/runner"
	"github.com/deskmate-core-poc/server/internal/agent/tools"
	"github.com/deskmate-core-poc/server/internal/cache"
	"github.com/deskmate-core-poc/server/internal/core"
	"github.com/deskmate-core-poc/server/internal/handler"
	"github.com/deskmate-core-poc/server/internal/ratelimit"
	"github.com/deskmate-core-poc/server/internal/telemetry"
	logx "github.com/deskmate-core-poc/server/pkg/logger"
)

// AppConfig defines all configurable parameters for the service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Service configs
	Agent     model.AgentModelConfig
	RateLimit model.RateLimitConfig
	Cache     model.CacheConfig
	Tools     model.ToolsConfig
	Server    model.ServerConfig
	Telemetry model.TelemetryConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("could not load .env file")
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}
	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(envCfg.Environment),
		Service:     "deskmate",
	})

	window, err := time.ParseDuration(envCfg.RateLimit.Window)
	if err != nil {
		logx.Fatal().Err(err).Str("value", envCfg.RateLimit.Window).Msg("invalid RATE_LIMIT_WINDOW")
	}
	ttl, err := time.ParseDuration(envCfg.Cache.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", envCfg.Cache.TTL).Msg("invalid CACHE_TTL")
	}

	chatModel, err := runner.NewChatModel(ctx, runner.ChatModelConfig{
		APIKey:  envCfg.APIKey,
		BaseURL: envCfg.BaseURL,
		Agent:   envCfg.Agent,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create chat model")
	}

	validator, err := contract.NewValidator()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to compile answer schema")
	}

	orch, err := runner.New(chatModel, tools.NewRegistry(envCfg.Tools), validator, envCfg.Agent)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	h := handler.New(
		ratelimit.New(ratelimit.Config{MaxTokens: envCfg.RateLimit.MaxTokens, Window: window}),
		cache.New(cache.Config{Capacity: envCfg.Cache.Capacity, TTL: ttl}),
		orch,
		telemetry.NewRecorder(envCfg.Telemetry),
	)

	srv := &http.Server{
		Addr:         envCfg.Server.Addr,
		Handler:      h.Routes(),
		ReadTimeout:  time.Duration(envCfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(envCfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logx.Info().Str("addr", srv.Addr).Str("model", envCfg.Agent.Model).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logx.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(envCfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
	logx.Info().Msg("server stopped")
}
