package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"smartbiz.ai/advisor/internal/api"
	"smartbiz.ai/advisor/internal/auth"
	"smartbiz.ai/advisor/internal/config"
	"smartbiz.ai/advisor/internal/core"
	"smartbiz.ai/advisor/internal/logger"
	"smartbiz.ai/advisor/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.New(cfg)

	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize database store
	dbStore, err := store.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to initialize database")
	}
	defer dbStore.Close()

	// Initialize completion client
	completion, closeCompletion, err := core.NewCompletionClient(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.CompletionBackend).Msg("Failed to initialize completion client")
	}
	defer closeCompletion()

	chatService := core.NewChatService(completion, dbStore, log)
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go chatService.RunSweeper(sweepCtx, time.Minute)
	provider := auth.NewLocalProvider(dbStore, auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL), log)

	apiHandler := api.NewAPIHandler(chatService, provider, log)
	router := api.NewRouter(apiHandler, api.NewClientRateLimiter(cfg.ChatRateLimit, cfg.ChatRateBurst))

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.CompletionTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("ai", completion.Name()).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("addr", srv.Addr).Msg("Could not listen")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}
	log.Info().Msg("Server exiting gracefully")
}
