package main

import (
	"context"
	"errors"
	"net/http"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/haggle-core-poc/server/internal/agent"
	"github.com/haggle-core-poc/server/internal/core"
	"github.com/haggle-core-poc/server/internal/negotiation"
	"github.com/haggle-core-poc/server/internal/negotiation/model"
	"github.com/haggle-core-poc/server/internal/negotiation/store"
	"github.com/haggle-core-poc/server/internal/server"
	"github.com/haggle-core-poc/server/internal/signal"
	logx "github.com/haggle-core-poc/server/pkg/logger"
	pkgredis "github.com/haggle-core-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the negotiation server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env string `envconfig:"APP_ENV" default:"development"`

	Server  model.ServerConfig
	Storage model.StorageConfig
	Signal  model.SignalConfig

	// LLM provider; reply generation is disabled when the key is absent.
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	Reply  model.ReplyModelConfig
	Prompt model.ReplyPromptConfig
}

func main() {
	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(".env"); err != nil {
		logx.Info().Msg("no .env file found, using process environment")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Env)})

	st, err := store.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		logx.Fatal().Err(err).Str("dir", cfg.Storage.DataDir).Msg("failed to initialise file store")
	}

	channel, cleanup, err := buildChannel(ctx, cfg.Signal)
	if err != nil {
		logx.Fatal().Err(err).Str("backend", cfg.Signal.Backend).Msg("failed to initialise signal channel")
	}
	defer cleanup()

	var replier agent.ReplyGenerator
	if cfg.APIKey != "" {
		replier, err = agent.NewGeminiReplier(ctx, agent.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Reply,
			Prompt:  cfg.Prompt,
		})
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to initialise reply generator")
		}
	} else {
		logx.Warn().Msg("GEMINI_API_KEY not set, acknowledgements will carry no agent reply")
	}

	session := negotiation.NewSession(st, channel, negotiation.Options{
		Replier:       replier,
		FallbackReply: cfg.Prompt.Fallback,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(session).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", cfg.Server.Addr).Msg("negotiation server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	logx.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildChannel selects the coordination backend. Files are the default; the
// Redis backend serves deployments where the analysis worker runs remotely.
func buildChannel(ctx context.Context, cfg model.SignalConfig) (signal.Channel, func(), error) {
	switch cfg.Backend {
	case "redis":
		var rcfg pkgredis.Config
		if err := envconfig.Process("redis", &rcfg); err != nil {
			return nil, nil, err
		}
		rdb, err := rcfg.New(ctx)
		if err != nil {
			return nil, nil, err
		}
		return signal.NewRedisChannel(rdb), func() { _ = rdb.Close() }, nil
	default:
		ch, err := signal.NewFileChannel(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return ch, func() {}, nil
	}
}
