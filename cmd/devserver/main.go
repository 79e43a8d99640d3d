package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskdeck/config"
	"taskdeck/internal/devserver"
	"taskdeck/pkg/log"
	"taskdeck/pkg/ollama"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting taskdeck dev server...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)

	// 3. Local AI (optional)
	var ai ollama.IOllama
	client, err := ollama.New(ollama.Config{
		Host:    cfg.Ollama.Host,
		Model:   cfg.Ollama.Model,
		Timeout: cfg.Ollama.Timeout,
	})
	if err != nil {
		logger.Warnf(ctx, "Ollama not configured, chat falls back to canned suggestions: %v", err)
	} else if !client.CheckConnection(ctx, true) {
		logger.Warnf(ctx, "Ollama unreachable at %s, AI routes return 503 until it comes back", cfg.Ollama.Host)
		ai = client // keep it; the health check is retried per request
	} else {
		logger.Infof(ctx, "Ollama connected, model %s", client.Model())
		ai = client
	}

	// 4. Server
	srv, err := devserver.New(devserver.Config{
		Logger:          logger,
		Port:            cfg.DevServer.Port,
		Mode:            cfg.DevServer.Mode,
		AI:              ai,
		RateLimitPerMin: cfg.DevServer.RateLimitPerMin,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize dev server: ", err)
		return
	}

	// 5. Run
	if err := srv.Run(); err != nil {
		logger.Error(ctx, "Failed to run server: ", err)
		return
	}

	logger.Info(ctx, "Server stopped gracefully")
}
