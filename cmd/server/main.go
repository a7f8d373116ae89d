package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alkime/captions/internal/config"
	"github.com/alkime/captions/internal/content"
	"github.com/alkime/captions/internal/logger"
	"github.com/alkime/captions/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.SetupLogger(cfg)

	l.Info("Starting captions server",
		"env", cfg.Env,
		"port", cfg.Port,
		"caption_model", cfg.CaptionModel,
		"whisper_model", cfg.WhisperModel,
		"litellm", cfg.AnthropicBaseURL != "",
	)

	if cfg.OpenAIAPIKey == "" || cfg.AnthropicAPIKey == "" {
		l.Warn("Upstream API keys missing, requests will fail",
			"openai", cfg.OpenAIAPIKey != "",
			"anthropic", cfg.AnthropicAPIKey != "")
	}

	transcriber := content.NewTranscriber(cfg.OpenAIAPIKey).WithModel(cfg.WhisperModel)
	captioner := content.NewCaptioner(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL).WithModel(cfg.CaptionModel)

	srv := server.New(cfg, l, transcriber, captioner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		l.Error("Server stopped", "error", err)
		stop()
		os.Exit(1)
	}
}
