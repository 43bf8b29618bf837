package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkotula/retain/internal/api"
	"github.com/mkotula/retain/internal/bot"
	"github.com/mkotula/retain/internal/config"
	"github.com/mkotula/retain/internal/files"
	"github.com/mkotula/retain/internal/llm"
	"github.com/mkotula/retain/internal/pipeline"
	"github.com/mkotula/retain/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	fileStore := files.NewStore(cfg.DataDir)

	// Initialize the model client.
	if cfg.AnthropicAPIKey == "" {
		log.Warn("ANTHROPIC_API_KEY is not set, model responses use built-in templates")
	}
	client := llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel)

	// Initialize pipeline and chat surface.
	orch := pipeline.NewOrchestrator(cfg, st, fileStore, log)
	tg, err := bot.New(cfg, st, orch, client, log)
	if err != nil {
		log.Error("connect telegram", "error", err)
		os.Exit(1)
	}
	orch.SetNotifier(tg)
	orch.Start(ctx)

	go tg.Run(ctx)
	log.Info("bot polling", "username", tg.Username())

	// Initialize HTTP server.
	srv := api.NewServer(st, orch, client, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()
		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting retain", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
