package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/reviewpulse/reviewpulse/internal/api"
	appauth "github.com/reviewpulse/reviewpulse/internal/auth"
	"github.com/reviewpulse/reviewpulse/internal/config"
	"github.com/reviewpulse/reviewpulse/internal/gbp"
	httpserver "github.com/reviewpulse/reviewpulse/internal/http"
	"github.com/reviewpulse/reviewpulse/internal/store"
	syncsvc "github.com/reviewpulse/reviewpulse/internal/sync"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("APP_LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().Msg("starting reviewpulse server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create db pool")
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	stor := store.New(pool)
	sessionManager := appauth.NewSessionManager(cfg)
	authService, err := appauth.NewService(ctx, cfg, stor, sessionManager)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth service")
	}

	client := gbp.NewClient(gbp.Config{
		AccountAPIBaseURL:     cfg.Google.AccountAPIBaseURL,
		PerformanceAPIBaseURL: cfg.Google.PerformanceAPIBaseURL,
		Timeout:               cfg.Sync.RequestTimeout,
	})
	tokens := syncsvc.NewTokenStore(stor.GoogleAccounts, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.TokenURL)
	syncService := syncsvc.NewService(stor, client, tokens)

	scheduler, err := syncsvc.NewScheduler(syncService, cfg.Sync.Schedule)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid sync schedule")
	}
	scheduler.Start()

	apiHandler := api.NewHandler(cfg, stor, syncService)
	r := httpserver.NewRouter(cfg, stor, authService, apiHandler)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
	}
	<-scheduler.Stop().Done()
}
