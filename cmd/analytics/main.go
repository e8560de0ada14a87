package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/MaslovStas/intelect/internal/analytics"
	"github.com/MaslovStas/intelect/internal/config"
)

const summaryEvery = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.SetupLogging()

	brokers := cfg.KafkaBrokers
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := analytics.NewReader(brokers, cfg.KafkaTopic, cfg.KafkaGroup)
	metrics := analytics.NewMetrics()

	log.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("analytics consumer listening")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return analytics.Consume(ctx, reader, metrics)
	})
	g.Go(func() error {
		ticker := time.NewTicker(summaryEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				metrics.Log()
			}
		}
	})
	err = g.Wait()
	if err != nil {
		log.Error().Err(err).Msg("consumer stopped")
	}
	metrics.Log()
	if cerr := reader.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("closing reader")
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}
