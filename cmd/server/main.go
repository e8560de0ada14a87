package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/MaslovStas/intelect/internal/analytics"
	"github.com/MaslovStas/intelect/internal/config"
	"github.com/MaslovStas/intelect/internal/server"
	"github.com/MaslovStas/intelect/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.SetupLogging()
	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// run owns every resource that needs closing, so a failed server still
// releases the pool and flushes the producer before main exits.
func run(cfg *config.Config) error {
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.Store
	if cfg.PostgresURL != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			log.Warn().Err(err).Msg("postgres disabled")
		} else {
			defer pg.Close()
			if err := pg.EnsureTables(ctx); err != nil {
				log.Warn().Err(err).Msg("postgres ensure tables failed")
			}
			store = pg
		}
	}

	producer := analytics.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	srv := server.New(server.Config{
		Board:         cfg.Board,
		DefaultDepth:  cfg.SearchDepth,
		MaxDepth:      cfg.MaxSearchDepth,
		SearchBudget:  cfg.SearchBudget,
		Seed:          cfg.Seed,
		SelfPlayDelay: cfg.SelfPlayDelay,
		Store:         store,
		Analytics:     producer,
	})

	return srv.Run(ctx, cfg.Addr, cfg.ShutdownTimeout)
}
