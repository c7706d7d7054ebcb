package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cultura-chat/internal/adapter/api"
	"cultura-chat/internal/adapter/client"
	"cultura-chat/internal/adapter/store"
	"cultura-chat/internal/config"
	"cultura-chat/internal/domain/repository"
	"cultura-chat/internal/logging"
	"cultura-chat/internal/usecase"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.LLM.Provider == config.ProviderOpenAI && cfg.OpenAI.APIKey == "" {
		logging.Warn().Msg("OPENAI_API_KEY is not set, chat replies will fall back until it is")
	}

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("provider", cfg.LLM.Provider).Msg("failed to init chat provider")
	}

	responder := usecase.NewResponder(provider, usecase.ResponderConfig{
		Model:       cfg.Model(),
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})

	// Redis for the optional reply cache
	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		replyCache := store.NewRedisReplyCache(rdb, cfg.Redis.TTL)

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := replyCache.Ping(pingCtx); err != nil {
			logging.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("reply cache unreachable, continuing without hits until it recovers")
		}
		cancel()

		responder = responder.WithCache(replyCache)
	}

	// Inject the adapters into the Orchestration Layer
	orchestrator := usecase.NewOrchestrator(responder, usecase.NewRecommender())

	// Initialize API Layer (Delivery Layer)
	app := api.NewApp()
	handler := api.NewChatHandler(orchestrator)
	api.SetupRouter(app, handler)

	go func() {
		<-ctx.Done()
		logging.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
			logging.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logging.Info().
		Str("port", cfg.Server.Port).
		Str("env", cfg.Server.Env).
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.Model()).
		Bool("reply_cache", cfg.CacheEnabled()).
		Msg("Cultura Chat API running")

	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
}

func newProvider(ctx context.Context, cfg *config.Config) (repository.ChatProvider, error) {
	if cfg.LLM.Provider == config.ProviderGemini {
		return client.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Project, cfg.Gemini.Location)
	}
	return client.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, nil), nil
}
