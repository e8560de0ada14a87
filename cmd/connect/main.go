package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/MaslovStas/intelect/internal/analytics"
	"github.com/MaslovStas/intelect/internal/config"
	"github.com/MaslovStas/intelect/internal/console"
	"github.com/MaslovStas/intelect/internal/game"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.SetupLogging()

	producer := analytics.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	bot := game.NewBot(cfg.SearchDepth, cfg.Seed)
	match := game.NewMatch(cfg.Board, cfg.HumanSide, bot, func(m *game.Match) {
		producer.Publish(context.Background(), analytics.EventMatchFinished, map[string]any{
			"matchId":  m.ID,
			"winner":   m.Winner.String(),
			"plies":    len(m.Moves),
			"moves":    m.Moves,
			"duration": m.EndedAt.Sub(m.StartedAt).Seconds(),
		})
	})

	if err := console.New(os.Stdin, os.Stdout, match).Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("game aborted")
	}
}
