package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MaslovStas/intelect/internal/game"
)

type Config struct {
	Board           game.Config
	SearchDepth     int
	MaxSearchDepth  int
	SearchBudget    int
	HumanSide       game.Side
	Seed            int64
	Addr            string
	PostgresURL     string
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaGroup      string
	ShutdownTimeout time.Duration
	SelfPlayDelay   time.Duration
	LogLevel        string
	LogPretty       bool
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	addr := GetEnv("ADDR", ":8080")
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	human, ok := game.SideFromMark(firstRune(GetEnv("HUMAN_SIDE", "H")))
	if !ok || human == game.NoSide {
		return nil, errors.Errorf("HUMAN_SIDE must be %q or %q", game.MarkMax, game.MarkMin)
	}

	cfg := &Config{
		Board: game.Config{
			Rows:      GetEnvAsInt("BOARD_ROWS", game.DefaultRows),
			Columns:   GetEnvAsInt("BOARD_COLUMNS", game.DefaultColumns),
			RunLength: GetEnvAsInt("RUN_LENGTH", game.DefaultRunLength),
		},
		SearchDepth:     GetEnvAsInt("SEARCH_DEPTH", game.DefaultDepth),
		MaxSearchDepth:  GetEnvAsInt("MAX_SEARCH_DEPTH", 12),
		SearchBudget:    GetEnvAsInt("SEARCH_BUDGET", 1<<22),
		HumanSide:       human,
		Seed:            int64(GetEnvAsInt("SEED", 0)),
		Addr:            addr,
		PostgresURL:     GetEnv("POSTGRES_URL", ""),
		KafkaBrokers:    splitList(GetEnv("KAFKA_BROKERS", "")),
		KafkaTopic:      GetEnv("KAFKA_TOPIC", "connect-events"),
		KafkaGroup:      GetEnv("KAFKA_GROUP", "connect-analytics"),
		ShutdownTimeout: GetEnvAsDuration("SHUTDOWN_TIMEOUT", time.Second, 5*time.Second),
		SelfPlayDelay:   GetEnvAsDuration("SELFPLAY_DELAY", time.Millisecond, 300*time.Millisecond),
		LogLevel:        GetEnv("LOG_LEVEL", "info"),
		LogPretty:       GetEnv("LOG_PRETTY", "") == "1",
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	b := c.Board
	if b.Rows <= 0 || b.Columns <= 0 {
		return errors.Errorf("board must have positive dimensions, got %dx%d", b.Rows, b.Columns)
	}
	if b.RunLength <= 0 || (b.RunLength > b.Rows && b.RunLength > b.Columns) {
		return errors.Errorf("run length %d does not fit a %dx%d board", b.RunLength, b.Rows, b.Columns)
	}
	if c.MaxSearchDepth < 0 || c.SearchDepth < 0 || c.SearchDepth > c.MaxSearchDepth {
		return errors.Errorf("search depth %d must be within [0, %d]", c.SearchDepth, c.MaxSearchDepth)
	}
	return nil
}

// SetupLogging configures the global zerolog logger.
func (c *Config) SetupLogging() {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetEnvAsInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Int("default", fallback).Msg("invalid integer, using default")
		return fallback
	}
	return parsed
}

// GetEnvAsDuration reads an integer count of unit.
func GetEnvAsDuration(key string, unit, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return time.Duration(parsed) * unit
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstRune(s string) rune {
	for _, r := range strings.ToUpper(s) {
		return r
	}
	return 0
}
