package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"datadesk/internal/app"
	"datadesk/internal/config"
	"datadesk/internal/server"
	"datadesk/internal/util"
	"datadesk/pkg/ai"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var generator ai.TextGenerator
	switch cfg.GeneratorKind {
	case "", "gemini":
		generator, err = ai.NewGeminiGenerator(cfg.GeminiAPIKey, cfg.GenerationModel)
		if err != nil {
			logger.Error("failed to init gemini generator", "err", err)
			os.Exit(1)
		}
	case "openai":
		generator = ai.NewOpenAICompatGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.GenerationModel)
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:    cfg.DatabaseURL,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
		MinioBucket:    cfg.MinioBucket,
		MinioUseSSL:    cfg.MinioUseSSL,
		Generator:      generator,
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
		SessionSecret:  cfg.SessionSecret,
		SessionTTL:     time.Duration(cfg.SessionTTLMinutes) * time.Minute,
		HistoryLimit:   cfg.HistoryLimit,
	})
	if err != nil {
		logger.Error("failed to init app", "err", err)
		os.Exit(1)
	}

	httpServer, err := server.New(server.Config{
		App:                      appCore,
		MaxUploadBytes:           cfg.MaxUploadBytes,
		RedisAddr:                cfg.RedisAddr,
		RedisPassword:            cfg.RedisPassword,
		SignupRateLimitPerMinute: cfg.SignupRateLimitPerMinute,
		LoginRateLimitPerMinute:  cfg.LoginRateLimitPerMinute,
		ReplyRateLimitPerMinute:  cfg.ReplyRateLimitPerMinute,
	})
	if err != nil {
		logger.Error("failed to init server", "err", err)
		os.Exit(1)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
