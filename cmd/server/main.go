package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/avoronov/signalhub/internal/adapters/http"
	"github.com/avoronov/signalhub/internal/app"
	"github.com/avoronov/signalhub/internal/config"
	"github.com/avoronov/signalhub/internal/presence"
	"github.com/avoronov/signalhub/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.NewPostgres(ctx, cfg.PGURL)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer db.Close()
	if err := store.RunMigrations(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Redis mirror is optional; the server runs fine without it.
	var mirror *presence.Mirror
	if cfg.RedisAddr != "" {
		mirror, err = presence.New(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, presence mirror disabled")
			mirror = nil
		} else {
			defer mirror.Close()
		}
	}

	gateway := &app.StoreGateway{Store: db, Mirror: mirror}
	orch := app.NewOrchestrator(gateway, app.SimplePolicy{}, cfg.GatewayTimeout)

	r := router.SetupRouter(ctx, cfg, orch, db)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("signalhub server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
